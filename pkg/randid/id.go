// Package randid generates short random identifiers.
package randid

import "math/rand/v2"

const hexDigits = "0123456789abcdef"

// Hex returns n random lowercase hex digits. It is not suitable where
// unpredictability matters.
func Hex(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = hexDigits[rand.IntN(len(hexDigits))]
	}
	return string(b)
}

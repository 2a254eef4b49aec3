package todo

import (
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/colonyops/todo/pkg/randid"
)

// NewID returns a fresh identifier for a todo. It prefers a random UUID and
// falls back to a millisecond timestamp joined with random hex digits when the secure
// generator is unavailable.
func NewID() string {
	return newID(uuid.NewRandom, time.Now)
}

func newID(gen func() (uuid.UUID, error), now func() time.Time) string {
	id, err := gen()
	if err == nil {
		return id.String()
	}
	return strconv.FormatInt(now().UnixMilli(), 10) + "-" + randid.Hex(13)
}

package todo

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestNewID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		id := NewID()
		assert.False(t, seen[id], "duplicate id %q", id)
		seen[id] = true
	}
}

func TestNewID_IsUUID(t *testing.T) {
	_, err := uuid.Parse(NewID())
	assert.NoError(t, err)
}

func TestNewID_Fallback(t *testing.T) {
	failing := func() (uuid.UUID, error) { return uuid.UUID{}, errors.New("no entropy") }
	now := func() time.Time { return time.UnixMilli(1735689600000) }

	id := newID(failing, now)
	assert.Regexp(t, regexp.MustCompile(`^1735689600000-[0-9a-f]{13}$`), id)
	assert.NotEqual(t, id, newID(failing, now))
}

package todo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-10-12")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2025, Month: time.October, Day: 12}, d)
	assert.Equal(t, "2025-10-12", d.String())
	assert.Equal(t, "Oct 12, 2025", d.Format())

	for _, bad := range []string{"", "2025-13-01", "2025-1-1", "12/10/2025", "2025-10-12T00:00:00Z"} {
		_, err := ParseDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestDate_Compare(t *testing.T) {
	a := Date{Year: 2025, Month: time.January, Day: 31}
	b := Date{Year: 2025, Month: time.February, Day: 1}
	c := Date{Year: 2026, Month: time.January, Day: 1}

	assert.Equal(t, -1, a.Compare(b))
	assert.Equal(t, 1, b.Compare(a))
	assert.Equal(t, 0, a.Compare(a))
	assert.True(t, b.Before(c))
	assert.False(t, c.Before(c))
}

func TestToday_UsesLocalDay(t *testing.T) {
	loc := time.FixedZone("east", 14*60*60)
	instant := time.Date(2025, time.June, 1, 23, 0, 0, 0, time.UTC)

	assert.Equal(t, DateOf(instant.Local()), Today(instant))
	assert.Equal(t, Date{Year: 2025, Month: time.June, Day: 2}, DateOf(instant.In(loc)))
}

func TestDate_Zero(t *testing.T) {
	var d Date
	assert.True(t, d.IsZero())
	assert.Empty(t, d.String())
	assert.Empty(t, d.Format())
}

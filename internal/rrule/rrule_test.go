package rrule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStripsPrefix(t *testing.T) {
	dtstart := time.Date(2026, 3, 1, 9, 0, 0, 0, time.Local)

	rule, err := Parse("RRULE:FREQ=DAILY;INTERVAL=2", dtstart)
	require.NoError(t, err)

	next := rule.After(dtstart, false)
	assert.Equal(t, time.Date(2026, 3, 3, 9, 0, 0, 0, time.Local), next)
}

func TestParseInvalidRule(t *testing.T) {
	_, err := Parse("FREQ=SOMETIMES", time.Now())
	assert.Error(t, err)
}

func TestDailyInterval(t *testing.T) {
	assert.Equal(t, "FREQ=DAILY;INTERVAL=3", DailyInterval(3))
}

func TestOccurrencesBetween(t *testing.T) {
	dtstart := time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local)
	from := time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local)
	to := time.Date(2026, 3, 8, 0, 0, 0, 0, time.Local)

	days, err := OccurrencesBetween(DailyInterval(3), dtstart, from, to)
	require.NoError(t, err)
	require.Len(t, days, 2)
	assert.Equal(t, time.Date(2026, 3, 4, 0, 0, 0, 0, time.Local), days[0])
	assert.Equal(t, time.Date(2026, 3, 7, 0, 0, 0, 0, time.Local), days[1])
}

func TestOccurrencesBetweenInclusiveEnds(t *testing.T) {
	dtstart := time.Date(2026, 3, 1, 0, 0, 0, 0, time.Local)

	days, err := OccurrencesBetween(DailyInterval(1), dtstart, dtstart, dtstart.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Len(t, days, 3)
}

func TestNextOccurrence(t *testing.T) {
	dtstart := time.Date(2026, 3, 1, 8, 0, 0, 0, time.Local)

	next, err := NextOccurrence(DailyInterval(5), dtstart, time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local))
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, time.Date(2026, 3, 6, 8, 0, 0, 0, time.Local), *next)
}

func TestNextOccurrenceExhaustedRule(t *testing.T) {
	dtstart := time.Date(2026, 3, 1, 8, 0, 0, 0, time.Local)

	next, err := NextOccurrence("FREQ=DAILY;COUNT=1", dtstart, dtstart.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Nil(t, next)
}

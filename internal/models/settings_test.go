package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func atClock(hour, min int) time.Time {
	return time.Date(2026, 3, 2, hour, min, 0, 0, time.Local)
}

func TestInQuietHoursOvernightWindow(t *testing.T) {
	s := DefaultNotificationSettings()
	s.QuietHoursEnabled = true
	s.QuietHoursStart = "22:00"
	s.QuietHoursEnd = "07:00"

	assert.True(t, s.InQuietHours(atClock(23, 0)))
	assert.True(t, s.InQuietHours(atClock(3, 30)))
	assert.True(t, s.InQuietHours(atClock(22, 0)), "window start is inclusive")
	assert.False(t, s.InQuietHours(atClock(7, 0)), "window end is exclusive")
	assert.False(t, s.InQuietHours(atClock(12, 0)))
}

func TestInQuietHoursSameDayWindow(t *testing.T) {
	s := DefaultNotificationSettings()
	s.QuietHoursEnabled = true
	s.QuietHoursStart = "13:00"
	s.QuietHoursEnd = "15:00"

	assert.True(t, s.InQuietHours(atClock(13, 0)))
	assert.True(t, s.InQuietHours(atClock(14, 59)))
	assert.False(t, s.InQuietHours(atClock(15, 0)))
	assert.False(t, s.InQuietHours(atClock(12, 59)))
}

func TestInQuietHoursDisabled(t *testing.T) {
	s := DefaultNotificationSettings()
	assert.False(t, s.InQuietHours(atClock(23, 0)))
}

func TestInQuietHoursMalformedTimes(t *testing.T) {
	s := DefaultNotificationSettings()
	s.QuietHoursEnabled = true
	s.QuietHoursStart = "bogus"
	s.QuietHoursEnd = "also bogus"

	// Both ends parse to 00:00, collapsing the window to nothing.
	assert.False(t, s.InQuietHours(atClock(23, 0)))
	assert.False(t, s.InQuietHours(atClock(0, 0)))
}

func TestDefaultNotificationSettings(t *testing.T) {
	s := DefaultNotificationSettings()
	assert.True(t, s.Sound)
	assert.True(t, s.Vibration)
	assert.True(t, s.RequireInteraction)
	assert.Equal(t, 7, s.DaysAhead)
	assert.False(t, s.QuietHoursEnabled)
}

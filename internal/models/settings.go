package models

import "time"

// NotificationSettings is the mutable configuration the scheduler consults
// at fire time. Changing it affects the next fire, not already armed timers.
type NotificationSettings struct {
	Sound              bool   `json:"sound"`
	Vibration          bool   `json:"vibration"`
	RequireInteraction bool   `json:"require_interaction"`
	DaysAhead          int    `json:"days_ahead"` // generation lookahead, 1..30
	QuietHoursEnabled  bool   `json:"quiet_hours_enabled"`
	QuietHoursStart    string `json:"quiet_hours_start"` // "HH:MM"
	QuietHoursEnd      string `json:"quiet_hours_end"`   // "HH:MM"
}

func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		Sound:              true,
		Vibration:          true,
		RequireInteraction: true,
		DaysAhead:          7,
		QuietHoursEnabled:  false,
		QuietHoursStart:    "22:00",
		QuietHoursEnd:      "07:00",
	}
}

// InQuietHours checks if t falls inside the configured quiet window.
// Quiet hours only mute sound and vibration; delivery itself is never
// suppressed.
func (s *NotificationSettings) InQuietHours(t time.Time) bool {
	if !s.QuietHoursEnabled {
		return false
	}

	currentMinutes := t.Hour()*60 + t.Minute()

	startHour, startMin := parseTimeString(s.QuietHoursStart)
	endHour, endMin := parseTimeString(s.QuietHoursEnd)

	startMinutes := startHour*60 + startMin
	endMinutes := endHour*60 + endMin

	// Overnight window (e.g. 22:00 - 07:00) spans midnight
	if startMinutes > endMinutes {
		return currentMinutes >= startMinutes || currentMinutes < endMinutes
	}

	return currentMinutes >= startMinutes && currentMinutes < endMinutes
}

// parseTimeString parses "HH:MM" into hours and minutes.
func parseTimeString(timeStr string) (hour, min int) {
	t, err := time.Parse("15:04", timeStr)
	if err != nil {
		return 0, 0
	}
	return t.Hour(), t.Minute()
}

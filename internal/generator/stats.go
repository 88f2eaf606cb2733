package generator

import (
	"time"

	"github.com/dosewatch/dosewatch/internal/models"
)

// Stats summarizes a reminder set by status and by day bucket.
type Stats struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Taken    int `json:"taken"`
	Missed   int `json:"missed"`
	Today    int `json:"today"`
	Tomorrow int `json:"tomorrow"`
	Upcoming int `json:"upcoming"`
}

// Stats counts reminders by status and buckets them into today, tomorrow,
// and later-but-still-future.
func (g *Generator) Stats(reminders []models.Reminder) Stats {
	now := g.clock.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	tomorrow := today.AddDate(0, 0, 1)
	dayAfter := tomorrow.AddDate(0, 0, 1)

	stats := Stats{Total: len(reminders)}
	for _, r := range reminders {
		switch r.Status {
		case models.ReminderPending:
			stats.Pending++
		case models.ReminderTaken:
			stats.Taken++
		case models.ReminderMissed:
			stats.Missed++
		}

		at := r.ScheduledTime
		switch {
		case !at.Before(today) && at.Before(tomorrow):
			stats.Today++
		case !at.Before(tomorrow) && at.Before(dayAfter):
			stats.Tomorrow++
		case at.After(now):
			stats.Upcoming++
		}
	}
	return stats
}

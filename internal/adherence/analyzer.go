// Package adherence derives statistics from the reminder history. The
// functions are pure: callers pass the collections and the current time.
package adherence

import (
	"math"
	"sort"
	"time"

	"github.com/dosewatch/dosewatch/internal/models"
)

// Stats is the headline adherence summary. Only reminders that are due
// (scheduled at or before now), still resolve to an existing medication,
// and have reached a terminal status count toward the rate.
type Stats struct {
	TotalDoses    int `json:"total_doses"`
	TakenDoses    int `json:"taken_doses"`
	MissedDoses   int `json:"missed_doses"`
	PendingDoses  int `json:"pending_doses"`
	AdherenceRate int `json:"adherence_rate"` // percent, rounded
}

func ComputeStats(reminders []models.Reminder, medications []models.Medication, now time.Time) Stats {
	validIDs := make(map[string]struct{}, len(medications))
	for _, med := range medications {
		validIDs[med.ID] = struct{}{}
	}

	var stats Stats
	for _, r := range reminders {
		if r.Status == models.ReminderPending {
			stats.PendingDoses++
		}
		if r.ScheduledTime.After(now) {
			continue
		}
		if _, ok := validIDs[r.MedicationID]; !ok {
			// Dangling reference: the medication was deleted, so the
			// reminder is excluded as if it did not exist.
			continue
		}
		switch r.Status {
		case models.ReminderTaken:
			stats.TotalDoses++
			stats.TakenDoses++
		case models.ReminderMissed:
			stats.TotalDoses++
			stats.MissedDoses++
		}
	}

	if stats.TotalDoses > 0 {
		stats.AdherenceRate = int(math.Round(float64(stats.TakenDoses) / float64(stats.TotalDoses) * 100))
	}
	return stats
}

// TimeOfDayCounts buckets missed doses by the part of day they were
// scheduled in.
type TimeOfDayCounts struct {
	Morning   int `json:"morning"`   // 06:00-12:00
	Afternoon int `json:"afternoon"` // 12:00-17:00
	Evening   int `json:"evening"`   // 17:00-21:00
	Night     int `json:"night"`     // everything else
}

// Most returns the bucket name with the highest count, or "" when nothing
// was missed.
func (c TimeOfDayCounts) Most() (string, int) {
	name, max := "", 0
	for _, b := range []struct {
		name  string
		count int
	}{
		{"morning", c.Morning},
		{"afternoon", c.Afternoon},
		{"evening", c.Evening},
		{"night", c.Night},
	} {
		if b.count > max {
			name, max = b.name, b.count
		}
	}
	return name, max
}

// Patterns is the richer adherence breakdown that feeds the suggestion
// layer.
type Patterns struct {
	TotalReminders     int             `json:"total_reminders"`
	TakenCount         int             `json:"taken_count"`
	MissedCount        int             `json:"missed_count"`
	SnoozedCount       int             `json:"snoozed_count"`
	AdherenceRate      int             `json:"adherence_rate"`
	MissedByTimeOfDay  TimeOfDayCounts `json:"missed_by_time_of_day"`
	MissedByMedication map[string]int  `json:"missed_by_medication"`
	ConsecutiveMissed  int             `json:"consecutive_missed"`
	ImprovementTrend   float64         `json:"improvement_trend"` // last 7d rate minus previous 7d, percentage points
}

// MostMissedMedication returns the medication name with the most missed
// doses.
func (p Patterns) MostMissedMedication() (string, int) {
	name, max := "", 0
	for med, count := range p.MissedByMedication {
		if count > max || (count == max && med < name) {
			name, max = med, count
		}
	}
	return name, max
}

// AnalyzePatterns inspects all past reminders and derives the missed-dose
// breakdowns, the current missed streak, and the week-over-week trend.
func AnalyzePatterns(reminders []models.Reminder, now time.Time) Patterns {
	patterns := Patterns{MissedByMedication: make(map[string]int)}

	var past []models.Reminder
	for _, r := range reminders {
		if !r.ScheduledTime.After(now) {
			past = append(past, r)
		}
	}
	patterns.TotalReminders = len(past)
	if patterns.TotalReminders == 0 {
		return patterns
	}

	for _, r := range past {
		switch r.Status {
		case models.ReminderTaken:
			patterns.TakenCount++
		case models.ReminderMissed:
			patterns.MissedCount++

			hour := r.ScheduledTime.Hour()
			switch {
			case hour >= 6 && hour < 12:
				patterns.MissedByTimeOfDay.Morning++
			case hour >= 12 && hour < 17:
				patterns.MissedByTimeOfDay.Afternoon++
			case hour >= 17 && hour < 21:
				patterns.MissedByTimeOfDay.Evening++
			default:
				patterns.MissedByTimeOfDay.Night++
			}

			patterns.MissedByMedication[r.MedicationName]++
		}
		if r.SnoozedCount > 0 {
			patterns.SnoozedCount++
		}
	}

	patterns.AdherenceRate = int(math.Round(float64(patterns.TakenCount) / float64(patterns.TotalReminders) * 100))

	// Missed streak: walk from the most recent reminder backwards until
	// something other than a miss shows up.
	sorted := make([]models.Reminder, len(past))
	copy(sorted, past)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ScheduledTime.After(sorted[j].ScheduledTime)
	})
	for _, r := range sorted {
		if r.Status != models.ReminderMissed {
			break
		}
		patterns.ConsecutiveMissed++
	}

	patterns.ImprovementTrend = weeklyTrend(past, now)
	return patterns
}

// weeklyTrend compares the taken rate of the last 7 days against the 7
// days before that, in percentage points.
func weeklyTrend(past []models.Reminder, now time.Time) float64 {
	sevenDaysAgo := now.Add(-7 * 24 * time.Hour)
	fourteenDaysAgo := now.Add(-14 * 24 * time.Hour)

	var recentTotal, recentTaken, previousTotal, previousTaken int
	for _, r := range past {
		switch {
		case !r.ScheduledTime.Before(sevenDaysAgo):
			recentTotal++
			if r.Status == models.ReminderTaken {
				recentTaken++
			}
		case !r.ScheduledTime.Before(fourteenDaysAgo):
			previousTotal++
			if r.Status == models.ReminderTaken {
				previousTaken++
			}
		}
	}

	var recentRate, previousRate float64
	if recentTotal > 0 {
		recentRate = float64(recentTaken) / float64(recentTotal) * 100
	}
	if previousTotal > 0 {
		previousRate = float64(previousTaken) / float64(previousTotal) * 100
	}
	return recentRate - previousRate
}

package schedule

import (
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/dosewatch/dosewatch/internal/models"
	"github.com/dosewatch/dosewatch/internal/rrule"
)

// DefaultTime is substituted for malformed schedule entries. A bad time
// string must never abort a whole generation pass.
const DefaultTime = "09:00"

var (
	twiceDailyDefaults = []string{"08:00", "20:00"}
	threeDailyDefaults = []string{"08:00", "14:00", "20:00"}
)

// Expand turns one medication's schedule and frequency label into the
// candidate reminder instants inside [windowStart, windowEnd], at day
// granularity. Candidates are naive local timestamps.
//
// Dispatch is a case-insensitive substring match on the frequency label.
// The order matters: labels can contain overlapping substrings ("Three
// times weekly" must hit the three-times rule, not the weekly one).
func Expand(med *models.Medication, windowStart, windowEnd time.Time) []time.Time {
	if !med.IsActive() {
		return nil
	}
	if len(med.Schedule) == 0 {
		return nil
	}

	freq := strings.ToLower(strings.TrimSpace(med.Frequency))
	if freq == "" {
		freq = "daily"
	}

	switch {
	case strings.Contains(freq, "daily") && !strings.Contains(freq, "twice") && !strings.Contains(freq, "three"):
		return expandDaily(med.Schedule, windowStart, windowEnd)
	case strings.Contains(freq, "twice"):
		return expandDaily(timesOrDefaults(med.Schedule, 2, twiceDailyDefaults), windowStart, windowEnd)
	case strings.Contains(freq, "three"):
		return expandDaily(timesOrDefaults(med.Schedule, 3, threeDailyDefaults), windowStart, windowEnd)
	case strings.Contains(freq, "weekly") || strings.Contains(freq, "week"):
		return expandWeekly(med.Schedule, med.WeeklyDay, windowStart, windowEnd)
	case strings.Contains(freq, "as needed") || strings.Contains(freq, "prn"):
		// No automatic reminders for as-needed medications.
		return nil
	case (strings.Contains(freq, "interval") || strings.Contains(freq, "every")) && med.IntervalDays > 1:
		return expandInterval(med, windowStart, windowEnd)
	default:
		// Custom or free-text frequency: treat as daily with whatever
		// times are configured.
		return expandDaily(med.Schedule, windowStart, windowEnd)
	}
}

func expandDaily(times []string, windowStart, windowEnd time.Time) []time.Time {
	var out []time.Time
	for day := startOfDay(windowStart); !day.After(windowEnd); day = day.AddDate(0, 0, 1) {
		out = appendTimes(out, times, day)
	}
	return out
}

func expandWeekly(times []string, weeklyDay time.Weekday, windowStart, windowEnd time.Time) []time.Time {
	var out []time.Time
	for day := startOfDay(windowStart); !day.After(windowEnd); day = day.AddDate(0, 0, 1) {
		if day.Weekday() != weeklyDay {
			continue
		}
		out = appendTimes(out, times, day)
	}
	return out
}

// expandInterval handles every-N-days schedules via an RRULE so interval
// arithmetic is anchored to the medication's start date, not to whenever
// the generator happens to run.
func expandInterval(med *models.Medication, windowStart, windowEnd time.Time) []time.Time {
	dtstart := startOfDay(windowStart)
	if med.StartDate != nil {
		dtstart = startOfDay(*med.StartDate)
	}

	days, err := rrule.OccurrencesBetween(rrule.DailyInterval(med.IntervalDays), dtstart, startOfDay(windowStart), windowEnd)
	if err != nil {
		log.Printf("Failed to expand interval schedule for %s: %v", med.Name, err)
		return nil
	}

	var out []time.Time
	for _, day := range days {
		out = appendTimes(out, med.Schedule, day)
	}
	return out
}

// appendTimes emits every configured time of day for one calendar day.
// The window is day-granular: the final day contributes all its times even
// when windowEnd falls mid-day.
func appendTimes(out []time.Time, times []string, day time.Time) []time.Time {
	for _, tod := range times {
		out = append(out, CombineDayAndTime(day, tod))
	}
	return out
}

func timesOrDefaults(schedule []string, n int, defaults []string) []string {
	if len(schedule) >= n {
		return schedule[:n]
	}
	return defaults
}

// CombineDayAndTime combines a calendar day with an "HH:MM" time of day.
// Malformed entries (missing colon, non-numeric, out-of-range values) fall
// back to DefaultTime instead of failing the expansion.
func CombineDayAndTime(day time.Time, timeOfDay string) time.Time {
	hour, min := ParseTimeOfDay(timeOfDay)
	return time.Date(day.Year(), day.Month(), day.Day(), hour, min, 0, 0, time.Local)
}

// ParseTimeOfDay parses "HH:MM", substituting DefaultTime on any shape of
// bad input.
func ParseTimeOfDay(timeOfDay string) (hour, min int) {
	s := strings.TrimSpace(timeOfDay)
	if !strings.Contains(s, ":") {
		log.Printf("Schedule time %q missing colon, defaulting to %s", timeOfDay, DefaultTime)
		return 9, 0
	}

	parts := strings.SplitN(s, ":", 2)
	h, errH := strconv.Atoi(strings.TrimSpace(parts[0]))
	m, errM := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errH != nil || errM != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		log.Printf("Invalid schedule time %q, defaulting to %s", timeOfDay, DefaultTime)
		return 9, 0
	}
	return h, m
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}

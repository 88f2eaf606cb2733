package rrule

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// Parse parses an RFC 5545 RRULE string against a start time and returns
// the rule object.
func Parse(ruleStr string, dtstart time.Time) (*rrule.RRule, error) {
	ruleStr = strings.TrimPrefix(ruleStr, "RRULE:")

	opt, err := rrule.StrToROption(ruleStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse RRULE: %w", err)
	}

	// All reminder timestamps are naive local time. Rebuild dtstart with
	// the same clock values pinned to the local zone so occurrence
	// arithmetic stays consistent with the rest of the engine.
	opt.Dtstart = time.Date(
		dtstart.Year(), dtstart.Month(), dtstart.Day(),
		dtstart.Hour(), dtstart.Minute(), dtstart.Second(), dtstart.Nanosecond(),
		time.Local,
	)
	return rrule.NewRRule(*opt)
}

// DailyInterval builds an every-N-days rule string.
func DailyInterval(days int) string {
	return fmt.Sprintf("FREQ=DAILY;INTERVAL=%d", days)
}

// OccurrencesBetween returns all occurrences of the rule inside [from, to],
// inclusive on both ends.
func OccurrencesBetween(ruleStr string, dtstart, from, to time.Time) ([]time.Time, error) {
	rule, err := Parse(ruleStr, dtstart)
	if err != nil {
		return nil, err
	}
	return rule.Between(from, to, true), nil
}

// NextOccurrence returns the next occurrence at or after the given time, or
// nil if the rule has no further occurrences.
func NextOccurrence(ruleStr string, dtstart, after time.Time) (*time.Time, error) {
	rule, err := Parse(ruleStr, dtstart)
	if err != nil {
		return nil, err
	}

	next := rule.After(after, false)
	if next.IsZero() {
		return nil, nil
	}
	return &next, nil
}

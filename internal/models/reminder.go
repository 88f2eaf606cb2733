package models

import "time"

type ReminderStatus string

const (
	ReminderPending ReminderStatus = "pending"
	ReminderTaken   ReminderStatus = "taken"
	ReminderMissed  ReminderStatus = "missed"
)

// Reminder is one concrete "take this medication now" instance.
//
// MedicationName and Dosage are snapshots taken at generation time and are
// intentionally not kept in sync with later medication edits: a reminder
// shows the dosage that was active when it was scheduled.
//
// MedicationID is a weak reference. The medication may have been deleted
// since; callers must revalidate against the current medication set before
// scheduling or counting the reminder.
type Reminder struct {
	ID             string         `json:"id"`
	MedicationID   string         `json:"medication_id"`
	MedicationName string         `json:"medication_name"`
	Dosage         string         `json:"dosage"`
	ScheduledTime  time.Time      `json:"scheduled_time"` // naive local time
	Status         ReminderStatus `json:"status"`
	Frequency      string         `json:"frequency"`
	Recurring      bool           `json:"recurring"` // generator-created vs ad-hoc
	TakenAt        *time.Time     `json:"taken_at"`
	MissedAt       *time.Time     `json:"missed_at"`
	SnoozedUntil   *time.Time     `json:"snoozed_until"`
	SnoozedCount   int            `json:"snoozed_count"`
	CreatedAt      time.Time      `json:"created_at"`
}

// IsPending reports whether the reminder is still waiting to fire. Pending
// is both the initial state and the state re-entered after a snooze.
func (r *Reminder) IsPending() bool {
	return r.Status == ReminderPending
}

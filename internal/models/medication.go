package models

import "time"

type MedicationStatus string

const (
	MedicationActive   MedicationStatus = "active"
	MedicationInactive MedicationStatus = "inactive"
)

// Medication is a drug the user takes on a schedule. Frequency is kept as
// the free-text label the user entered ("Twice daily", "Weekly", ...);
// the schedule expander dispatches on it by substring match.
type Medication struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Dosage       string           `json:"dosage"`
	Frequency    string           `json:"frequency"`
	Schedule     []string         `json:"schedule"` // times of day, "HH:MM"
	WeeklyDay    time.Weekday     `json:"weekly_day"`
	IntervalDays int              `json:"interval_days"`
	StartDate    *time.Time       `json:"start_date"`
	Status       MedicationStatus `json:"status"`
	CreatedAt    time.Time        `json:"created_at"`
}

// IsActive reports whether the medication should generate reminders.
func (m *Medication) IsActive() bool {
	return m.Status == MedicationActive
}

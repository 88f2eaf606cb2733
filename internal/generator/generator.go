package generator

import (
	"log"
	"sync"
	"time"

	"github.com/dosewatch/dosewatch/internal/clock"
	"github.com/dosewatch/dosewatch/internal/models"
	"github.com/dosewatch/dosewatch/internal/schedule"
	"github.com/google/uuid"
)

const (
	// DedupTolerance treats two instants as the same reminder slot.
	DedupTolerance = time.Minute

	// pastGrace lets a candidate slightly in the past still be generated,
	// so near-simultaneous generation and firing don't lose a dose.
	pastGrace = 5 * time.Minute

	// regenerateAfter gates the daily regeneration pass.
	regenerateAfter = 24 * time.Hour

	// DefaultRetentionDays is how long non-pending reminders are kept.
	DefaultRetentionDays = 7
)

// Generator expands medication schedules into concrete future reminders
// without duplicating slots that already exist.
type Generator struct {
	clock     clock.Clock
	daysAhead int

	mu            sync.Mutex
	lastGenerated *time.Time
}

func New(clk clock.Clock, daysAhead int) *Generator {
	if daysAhead < 1 {
		daysAhead = 1
	}
	if daysAhead > 30 {
		daysAhead = 30
	}
	return &Generator{clock: clk, daysAhead: daysAhead}
}

// Generate produces the new reminders needed to cover the lookahead window
// for every active medication. Existing reminders are never modified;
// candidates that already have a reminder within DedupTolerance are dropped
// regardless of that reminder's status, which keeps generation idempotent.
func (g *Generator) Generate(medications []models.Medication, existing []models.Reminder, daysAheadOverride ...int) []models.Reminder {
	now := g.clock.Now()

	daysAhead := g.daysAhead
	if len(daysAheadOverride) > 0 && daysAheadOverride[0] >= 1 && daysAheadOverride[0] <= 30 {
		daysAhead = daysAheadOverride[0]
	}
	windowEnd := now.Add(time.Duration(daysAhead) * 24 * time.Hour)

	var created []models.Reminder
	for i := range medications {
		med := &medications[i]
		for _, at := range schedule.Expand(med, now, windowEnd) {
			// Skip anything more than the grace window in the past.
			if at.Before(now) && now.Sub(at) > pastGrace {
				continue
			}
			if ReminderExists(med.ID, at, existing) {
				continue
			}
			created = append(created, g.newReminder(med, at, now))
		}
	}

	g.mu.Lock()
	g.lastGenerated = &now
	g.mu.Unlock()

	log.Printf("Generated %d new recurring reminders", len(created))
	return created
}

// ReminderExists is the deduplication filter: it reports whether any
// existing reminder for the same medication covers the candidate instant
// within DedupTolerance. Status does not matter; a taken or missed
// reminder's slot is never regenerated.
func ReminderExists(medicationID string, at time.Time, existing []models.Reminder) bool {
	for i := range existing {
		r := &existing[i]
		if r.MedicationID != medicationID {
			continue
		}
		diff := r.ScheduledTime.Sub(at)
		if diff < 0 {
			diff = -diff
		}
		if diff < DedupTolerance {
			return true
		}
	}
	return false
}

func (g *Generator) newReminder(med *models.Medication, at, now time.Time) models.Reminder {
	return models.Reminder{
		ID:           uuid.NewString(),
		MedicationID: med.ID,
		// Snapshot name and dosage as they are right now; later
		// medication edits must not rewrite history.
		MedicationName: med.Name,
		Dosage:         med.Dosage,
		ScheduledTime:  at,
		Status:         models.ReminderPending,
		Frequency:      med.Frequency,
		Recurring:      true,
		CreatedAt:      now,
	}
}

// ShouldRegenerate reports whether a daily regeneration pass is due: never
// run before, or more than 24 hours ago. Callers should also generate
// eagerly whenever the medication list or settings change.
func (g *Generator) ShouldRegenerate() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.lastGenerated == nil {
		return true
	}
	return g.clock.Now().Sub(*g.lastGenerated) >= regenerateAfter
}

// LastGenerated returns the completion time of the most recent Generate
// call, or nil if none has run in this process.
func (g *Generator) LastGenerated() *time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastGenerated
}

// CleanupOld filters out reminders older than the retention window. A
// pending reminder is never dropped regardless of age. This is the
// slice-level form of the retention rule; stores apply it server-side
// through ReminderStore.Prune, which is what Runner.RunOnce calls.
func (g *Generator) CleanupOld(reminders []models.Reminder, retentionDays int) []models.Reminder {
	if retentionDays <= 0 {
		retentionDays = DefaultRetentionDays
	}
	cutoff := g.clock.Now().Add(-time.Duration(retentionDays) * 24 * time.Hour)

	kept := make([]models.Reminder, 0, len(reminders))
	for _, r := range reminders {
		if !r.ScheduledTime.Before(cutoff) || r.Status == models.ReminderPending {
			kept = append(kept, r)
		}
	}
	return kept
}

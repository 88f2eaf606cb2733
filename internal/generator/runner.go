package generator

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/dosewatch/dosewatch/internal/models"
)

type MedicationSource interface {
	List(ctx context.Context) ([]models.Medication, error)
}

type ReminderStore interface {
	List(ctx context.Context) ([]models.Reminder, error)
	Append(ctx context.Context, reminder *models.Reminder) error
	Prune(ctx context.Context, cutoff time.Time) error
}

// Runner drives the generator: one eager pass at startup, then a periodic
// check against the 24-hour regeneration gate. RunOnce can also be invoked
// directly whenever the medication list or settings change.
type Runner struct {
	gen       *Generator
	meds      MedicationSource
	reminders ReminderStore
	onChange  func() // typically scheduler.Notify

	checkInterval time.Duration
}

func NewRunner(gen *Generator, meds MedicationSource, reminders ReminderStore, onChange func()) *Runner {
	if onChange == nil {
		onChange = func() {}
	}
	return &Runner{
		gen:           gen,
		meds:          meds,
		reminders:     reminders,
		onChange:      onChange,
		checkInterval: time.Hour,
	}
}

func (r *Runner) Start(ctx context.Context) {
	log.Println("Reminder generation runner started")

	if err := r.RunOnce(ctx); err != nil {
		log.Printf("Initial reminder generation failed: %v", err)
	}

	ticker := time.NewTicker(r.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("Reminder generation runner stopped")
			return
		case <-ticker.C:
			if !r.gen.ShouldRegenerate() {
				continue
			}
			if err := r.RunOnce(ctx); err != nil {
				log.Printf("Reminder generation failed: %v", err)
			}
		}
	}
}

// RunOnce generates missing reminders for the lookahead window, persists
// them, prunes expired non-pending recurring reminders, and pokes the
// scheduler.
func (r *Runner) RunOnce(ctx context.Context) error {
	medications, err := r.meds.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list medications: %w", err)
	}
	existing, err := r.reminders.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list reminders: %w", err)
	}

	created := r.gen.Generate(medications, existing)
	for i := range created {
		if err := r.reminders.Append(ctx, &created[i]); err != nil {
			return fmt.Errorf("failed to store reminder: %w", err)
		}
	}

	cutoff := r.gen.clock.Now().Add(-time.Duration(DefaultRetentionDays) * 24 * time.Hour)
	if err := r.reminders.Prune(ctx, cutoff); err != nil {
		return fmt.Errorf("failed to prune old reminders: %w", err)
	}

	if len(created) > 0 {
		r.onChange()
	}
	return nil
}

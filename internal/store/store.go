// Package store defines the persistence contracts the reminder engine
// consumes. The engine never assumes ordering and re-reads collections each
// tick, so implementations only need per-call atomicity.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/dosewatch/dosewatch/internal/models"
)

var ErrNotFound = errors.New("store: not found")

type MedicationStore interface {
	List(ctx context.Context) ([]models.Medication, error)
	Get(ctx context.Context, id string) (*models.Medication, error)
	Create(ctx context.Context, med *models.Medication) error
	Update(ctx context.Context, med *models.Medication) error
	SetStatus(ctx context.Context, id string, status models.MedicationStatus) error
	// Delete removes the medication and cascades to every reminder that
	// references it.
	Delete(ctx context.Context, id string) error
}

type ReminderStore interface {
	List(ctx context.Context) ([]models.Reminder, error)
	Get(ctx context.Context, id string) (*models.Reminder, error)
	Append(ctx context.Context, reminder *models.Reminder) error
	Remove(ctx context.Context, id string) error

	// State transitions. Taken and missed are terminal until an explicit
	// ResetToPending; Snooze moves the existing reminder into the future
	// instead of creating a second one.
	MarkTaken(ctx context.Context, id string) error
	MarkMissed(ctx context.Context, id string) error
	Snooze(ctx context.Context, id string, minutes int) error
	ResetToPending(ctx context.Context, id string) error

	// Prune drops recurring reminders scheduled before the cutoff unless
	// they are still pending.
	Prune(ctx context.Context, cutoff time.Time) error
}

package repository

import (
	"context"
	"errors"
	"time"

	"github.com/dosewatch/dosewatch/internal/clock"
	"github.com/dosewatch/dosewatch/internal/database"
	"github.com/dosewatch/dosewatch/internal/models"
	"github.com/dosewatch/dosewatch/internal/store"
	"github.com/jackc/pgx/v5"
)

type ReminderRepository struct {
	db    *database.DB
	clock clock.Clock
}

func NewReminderRepository(db *database.DB, clk clock.Clock) *ReminderRepository {
	return &ReminderRepository{db: db, clock: clk}
}

var _ store.ReminderStore = (*ReminderRepository)(nil)

const reminderColumns = `reminder_id, medication_id, medication_name, dosage, scheduled_time, status, frequency, recurring, taken_at, missed_at, snoozed_until, snoozed_count, created_at`

func (r *ReminderRepository) Append(ctx context.Context, reminder *models.Reminder) error {
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO reminders (reminder_id, medication_id, medication_name, dosage, scheduled_time, status, frequency, recurring, snoozed_count)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at`,
		reminder.ID, reminder.MedicationID, reminder.MedicationName, reminder.Dosage,
		reminder.ScheduledTime, reminder.Status, reminder.Frequency, reminder.Recurring,
		reminder.SnoozedCount,
	).Scan(&reminder.CreatedAt)
}

func (r *ReminderRepository) List(ctx context.Context) ([]models.Reminder, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+reminderColumns+` FROM reminders ORDER BY scheduled_time ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reminders []models.Reminder
	for rows.Next() {
		rem, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, *rem)
	}
	return reminders, rows.Err()
}

func (r *ReminderRepository) Get(ctx context.Context, id string) (*models.Reminder, error) {
	row := r.db.Pool.QueryRow(ctx,
		`SELECT `+reminderColumns+` FROM reminders WHERE reminder_id = $1`, id)
	rem, err := scanReminder(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return rem, err
}

func (r *ReminderRepository) Remove(ctx context.Context, id string) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM reminders WHERE reminder_id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *ReminderRepository) MarkTaken(ctx context.Context, id string) error {
	return r.exec(ctx,
		`UPDATE reminders SET status = 'taken', taken_at = $1 WHERE reminder_id = $2`,
		r.clock.Now(), id)
}

func (r *ReminderRepository) MarkMissed(ctx context.Context, id string) error {
	return r.exec(ctx,
		`UPDATE reminders SET status = 'missed', missed_at = $1 WHERE reminder_id = $2`,
		r.clock.Now(), id)
}

// Snooze moves the reminder into the future instead of creating a second
// one; the scheduler's reschedule pass re-arms a timer for the new time.
func (r *ReminderRepository) Snooze(ctx context.Context, id string, minutes int) error {
	until := r.clock.Now().Add(time.Duration(minutes) * time.Minute)
	return r.exec(ctx,
		`UPDATE reminders
		 SET status = 'pending', scheduled_time = $1, snoozed_until = $1, snoozed_count = snoozed_count + 1
		 WHERE reminder_id = $2`,
		until, id)
}

func (r *ReminderRepository) ResetToPending(ctx context.Context, id string) error {
	return r.exec(ctx,
		`UPDATE reminders
		 SET status = 'pending', taken_at = NULL, missed_at = NULL, snoozed_until = NULL
		 WHERE reminder_id = $1`,
		id)
}

func (r *ReminderRepository) Prune(ctx context.Context, cutoff time.Time) error {
	_, err := r.db.Pool.Exec(ctx,
		`DELETE FROM reminders
		 WHERE recurring = TRUE AND status <> 'pending' AND scheduled_time < $1`,
		cutoff)
	return err
}

func (r *ReminderRepository) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := r.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func scanReminder(row pgx.Row) (*models.Reminder, error) {
	rem := &models.Reminder{}
	if err := row.Scan(&rem.ID, &rem.MedicationID, &rem.MedicationName, &rem.Dosage,
		&rem.ScheduledTime, &rem.Status, &rem.Frequency, &rem.Recurring,
		&rem.TakenAt, &rem.MissedAt, &rem.SnoozedUntil, &rem.SnoozedCount, &rem.CreatedAt); err != nil {
		return nil, err
	}
	return rem, nil
}

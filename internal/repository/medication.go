package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dosewatch/dosewatch/internal/database"
	"github.com/dosewatch/dosewatch/internal/models"
	"github.com/dosewatch/dosewatch/internal/store"
	"github.com/jackc/pgx/v5"
)

type MedicationRepository struct {
	db *database.DB
}

func NewMedicationRepository(db *database.DB) *MedicationRepository {
	return &MedicationRepository{db: db}
}

var _ store.MedicationStore = (*MedicationRepository)(nil)

const medicationColumns = `medication_id, name, dosage, frequency, schedule, weekly_day, interval_days, start_date, status, created_at`

func (r *MedicationRepository) Create(ctx context.Context, med *models.Medication) error {
	return r.db.Pool.QueryRow(ctx,
		`INSERT INTO medications (medication_id, name, dosage, frequency, schedule, weekly_day, interval_days, start_date, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING created_at`,
		med.ID, med.Name, med.Dosage, med.Frequency, med.Schedule,
		int(med.WeeklyDay), med.IntervalDays, med.StartDate, med.Status,
	).Scan(&med.CreatedAt)
}

func (r *MedicationRepository) List(ctx context.Context) ([]models.Medication, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT `+medicationColumns+` FROM medications ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var medications []models.Medication
	for rows.Next() {
		med, err := scanMedication(rows)
		if err != nil {
			return nil, err
		}
		medications = append(medications, *med)
	}
	return medications, rows.Err()
}

func (r *MedicationRepository) Get(ctx context.Context, id string) (*models.Medication, error) {
	row := r.db.Pool.QueryRow(ctx,
		`SELECT `+medicationColumns+` FROM medications WHERE medication_id = $1`, id)
	med, err := scanMedication(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	return med, err
}

func (r *MedicationRepository) Update(ctx context.Context, med *models.Medication) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE medications
		 SET name = $1, dosage = $2, frequency = $3, schedule = $4, weekly_day = $5, interval_days = $6, start_date = $7, status = $8
		 WHERE medication_id = $9`,
		med.Name, med.Dosage, med.Frequency, med.Schedule,
		int(med.WeeklyDay), med.IntervalDays, med.StartDate, med.Status, med.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (r *MedicationRepository) SetStatus(ctx context.Context, id string, status models.MedicationStatus) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE medications SET status = $1 WHERE medication_id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Delete removes the medication and all reminders referencing it in one
// transaction.
func (r *MedicationRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM reminders WHERE medication_id = $1`, id); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM medications WHERE medication_id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return tx.Commit(ctx)
}

func scanMedication(row pgx.Row) (*models.Medication, error) {
	med := &models.Medication{}
	var weeklyDay int
	var startDate *time.Time
	if err := row.Scan(&med.ID, &med.Name, &med.Dosage, &med.Frequency, &med.Schedule,
		&weeklyDay, &med.IntervalDays, &startDate, &med.Status, &med.CreatedAt); err != nil {
		return nil, err
	}
	med.WeeklyDay = time.Weekday(weeklyDay)
	med.StartDate = startDate
	return med, nil
}

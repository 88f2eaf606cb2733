package store

import (
	"context"
	"sync"
	"time"

	"github.com/dosewatch/dosewatch/internal/clock"
	"github.com/dosewatch/dosewatch/internal/models"
)

// Memory is an in-process store holding both collections. It backs tests
// and single-user runs without a database.
type Memory struct {
	clock clock.Clock

	mu          sync.RWMutex
	medications map[string]models.Medication
	reminders   map[string]models.Reminder
}

func NewMemory(clk clock.Clock) *Memory {
	return &Memory{
		clock:       clk,
		medications: make(map[string]models.Medication),
		reminders:   make(map[string]models.Reminder),
	}
}

var (
	_ ReminderStore   = (*Memory)(nil)
	_ MedicationStore = medicationView{}
)

func (m *Memory) List(ctx context.Context) ([]models.Reminder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Reminder, 0, len(m.reminders))
	for _, r := range m.reminders {
		out = append(out, r)
	}
	return out, nil
}

func (m *Memory) Get(ctx context.Context, id string) (*models.Reminder, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.reminders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (m *Memory) Append(ctx context.Context, reminder *models.Reminder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reminders[reminder.ID] = *reminder
	return nil
}

func (m *Memory) Remove(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reminders, id)
	return nil
}

func (m *Memory) MarkTaken(ctx context.Context, id string) error {
	return m.mutate(id, func(r *models.Reminder) {
		now := m.clock.Now()
		r.Status = models.ReminderTaken
		r.TakenAt = &now
	})
}

func (m *Memory) MarkMissed(ctx context.Context, id string) error {
	return m.mutate(id, func(r *models.Reminder) {
		now := m.clock.Now()
		r.Status = models.ReminderMissed
		r.MissedAt = &now
	})
}

func (m *Memory) Snooze(ctx context.Context, id string, minutes int) error {
	return m.mutate(id, func(r *models.Reminder) {
		until := m.clock.Now().Add(time.Duration(minutes) * time.Minute)
		r.Status = models.ReminderPending
		r.ScheduledTime = until
		r.SnoozedUntil = &until
		r.SnoozedCount++
	})
}

func (m *Memory) ResetToPending(ctx context.Context, id string) error {
	return m.mutate(id, func(r *models.Reminder) {
		r.Status = models.ReminderPending
		r.TakenAt = nil
		r.MissedAt = nil
		r.SnoozedUntil = nil
	})
}

func (m *Memory) Prune(ctx context.Context, cutoff time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, r := range m.reminders {
		if r.Recurring && r.Status != models.ReminderPending && r.ScheduledTime.Before(cutoff) {
			delete(m.reminders, id)
		}
	}
	return nil
}

func (m *Memory) mutate(id string, fn func(*models.Reminder)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reminders[id]
	if !ok {
		return ErrNotFound
	}
	fn(&r)
	m.reminders[id] = r
	return nil
}

// Medications returns a MedicationStore view of the same memory store, so
// both interfaces can be satisfied without exposing List twice.
func (m *Memory) Medications() MedicationStore {
	return medicationView{m}
}

type medicationView struct{ m *Memory }

func (v medicationView) List(ctx context.Context) ([]models.Medication, error) {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	out := make([]models.Medication, 0, len(v.m.medications))
	for _, med := range v.m.medications {
		out = append(out, med)
	}
	return out, nil
}

func (v medicationView) Get(ctx context.Context, id string) (*models.Medication, error) {
	v.m.mu.RLock()
	defer v.m.mu.RUnlock()
	med, ok := v.m.medications[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &med, nil
}

func (v medicationView) Create(ctx context.Context, med *models.Medication) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	if med.CreatedAt.IsZero() {
		med.CreatedAt = v.m.clock.Now()
	}
	v.m.medications[med.ID] = *med
	return nil
}

func (v medicationView) Update(ctx context.Context, med *models.Medication) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	if _, ok := v.m.medications[med.ID]; !ok {
		return ErrNotFound
	}
	v.m.medications[med.ID] = *med
	return nil
}

func (v medicationView) SetStatus(ctx context.Context, id string, status models.MedicationStatus) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	med, ok := v.m.medications[id]
	if !ok {
		return ErrNotFound
	}
	med.Status = status
	v.m.medications[id] = med
	return nil
}

func (v medicationView) Delete(ctx context.Context, id string) error {
	v.m.mu.Lock()
	defer v.m.mu.Unlock()
	if _, ok := v.m.medications[id]; !ok {
		return ErrNotFound
	}
	delete(v.m.medications, id)
	for rid, r := range v.m.reminders {
		if r.MedicationID == id {
			delete(v.m.reminders, rid)
		}
	}
	return nil
}

package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/dosewatch/dosewatch/internal/clock"
	"github.com/dosewatch/dosewatch/internal/models"
	"github.com/dosewatch/dosewatch/internal/notify"
)

const (
	// fireEarly and fireLate bound the window in which a pending reminder
	// is treated as due right now: from 5 seconds before its scheduled
	// time up to 5 minutes after.
	fireEarly = 5 * time.Second
	fireLate  = 5 * time.Minute

	// armHorizon is the furthest future for which a one-shot timer is
	// armed; anything later is picked up by a later poll.
	armHorizon = 24 * time.Hour
)

// ReminderSource and MedicationSource are re-read on every tick so the
// scheduler never works from stale collections.
type ReminderSource interface {
	List(ctx context.Context) ([]models.Reminder, error)
}

type MedicationSource interface {
	List(ctx context.Context) ([]models.Medication, error)
}

// OnDueFunc is the in-process callback invoked for every fired reminder,
// whether or not the platform notification succeeded.
type OnDueFunc func(reminder models.Reminder)

// Scheduler watches pending reminders and fires due notifications exactly
// once per due window, via a one-minute poll loop plus a one-shot timer per
// reminder due within the next 24 hours.
type Scheduler struct {
	reminders     ReminderSource
	medications   MedicationSource
	sink          notify.Sink
	clock         clock.Clock
	onDue         OnDueFunc
	checkInterval time.Duration
	notifyCh      chan struct{}

	mu       sync.Mutex
	timers   map[string]*time.Timer
	active   map[string]notify.Handle
	settings models.NotificationSettings
}

func New(reminders ReminderSource, medications MedicationSource, sink notify.Sink, clk clock.Clock, settings models.NotificationSettings, onDue OnDueFunc) *Scheduler {
	if onDue == nil {
		onDue = func(models.Reminder) {}
	}
	return &Scheduler{
		reminders:     reminders,
		medications:   medications,
		sink:          sink,
		clock:         clk,
		onDue:         onDue,
		checkInterval: time.Minute,
		notifyCh:      make(chan struct{}, 1),
		timers:        make(map[string]*time.Timer),
		active:        make(map[string]notify.Handle),
		settings:      settings,
	}
}

// UpdateSettings replaces the notification settings. Settings are consulted
// at fire time, so the change applies to the next fire, not to timers that
// are already armed.
func (s *Scheduler) UpdateSettings(settings models.NotificationSettings) {
	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
	log.Printf("Notification settings updated: %+v", settings)
}

func (s *Scheduler) Settings() models.NotificationSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// Notify triggers an immediate reschedule pass. Non-blocking if one is
// already pending.
func (s *Scheduler) Notify() {
	select {
	case s.notifyCh <- struct{}{}:
	default:
	}
}

// Start runs the poll loop until ctx is cancelled. An initial check runs
// immediately.
func (s *Scheduler) Start(ctx context.Context) {
	log.Println("Notification scheduler started")
	ticker := time.NewTicker(s.checkInterval)
	defer ticker.Stop()
	defer s.Stop()

	s.CheckDue(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Println("Notification scheduler stopped")
			return
		case <-ticker.C:
			s.CheckDue(ctx)
		case <-s.notifyCh:
			// Reminder or medication state changed: drop armed timers so
			// nothing stale fires against superseded state.
			s.Reschedule(ctx)
		}
	}
}

// CheckDue performs one pass over all pending reminders: fire the ones
// inside the due window, arm a one-shot timer for the ones due within the
// next 24 hours, and skip everything else. Reminders whose medication no
// longer exists are excluded entirely.
func (s *Scheduler) CheckDue(ctx context.Context) {
	reminders, err := s.reminders.List(ctx)
	if err != nil {
		log.Printf("Failed to list reminders: %v", err)
		return
	}
	medications, err := s.medications.List(ctx)
	if err != nil {
		log.Printf("Failed to list medications: %v", err)
		return
	}

	medsByID := make(map[string]models.Medication, len(medications))
	for _, med := range medications {
		medsByID[med.ID] = med
	}

	now := s.clock.Now()
	for _, reminder := range reminders {
		if !reminder.IsPending() {
			continue
		}

		med, ok := medsByID[reminder.MedicationID]
		if !ok {
			// Dangling reference: the medication was deleted. Not an
			// error; just never notify for it.
			continue
		}

		delta := reminder.ScheduledTime.Sub(now)

		if delta <= fireEarly && delta > -fireLate {
			s.fire(ctx, reminder, med)
			continue
		}
		if delta > fireEarly && delta < armHorizon {
			s.arm(reminder, med, delta)
		}
	}
}

// arm schedules a one-shot timer for the exact remaining delay. Re-arming
// is a no-op while a timer for the same reminder id exists.
func (s *Scheduler) arm(reminder models.Reminder, med models.Medication, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.timers[reminder.ID]; exists {
		return
	}

	id, at := reminder.ID, reminder.ScheduledTime
	s.timers[id] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, id)
		s.mu.Unlock()
		s.fireArmed(context.Background(), id, at)
	})
	log.Printf("Scheduled notification for %s in %s", med.Name, delay.Round(time.Second))
}

// fireArmed re-reads the stores before firing an armed reminder. The state
// may have moved since the timer was set: a dose marked taken or missed, a
// snooze that shifted the scheduled time, or a deleted medication all
// cancel the fire. The next poll pass picks up whatever replaced it.
func (s *Scheduler) fireArmed(ctx context.Context, reminderID string, scheduledAt time.Time) {
	reminders, err := s.reminders.List(ctx)
	if err != nil {
		log.Printf("Failed to list reminders: %v", err)
		return
	}

	for _, reminder := range reminders {
		if reminder.ID != reminderID {
			continue
		}
		if !reminder.IsPending() || !reminder.ScheduledTime.Equal(scheduledAt) {
			return
		}

		medications, err := s.medications.List(ctx)
		if err != nil {
			log.Printf("Failed to list medications: %v", err)
			return
		}
		for _, med := range medications {
			if med.ID == reminder.MedicationID {
				s.fire(ctx, reminder, med)
				return
			}
		}
		return
	}
}

// fire dispatches one due reminder. Platform failures degrade (silent or
// skipped notification) and are never surfaced to the caller; the in-app
// onDue callback is invoked unconditionally so the user is always offered
// the dose, even if the platform suppressed the banner.
func (s *Scheduler) fire(ctx context.Context, reminder models.Reminder, med models.Medication) {
	settings := s.Settings()

	// Quiet hours mute sound and vibration but never block delivery.
	quiet := settings.InQuietHours(s.clock.Now())

	n := notify.Notification{
		Title:              fmt.Sprintf("💊 Time to take %s", med.Name),
		Body:               fmt.Sprintf("Dosage: %s\nScheduled: %s", med.Dosage, reminder.ScheduledTime.Format("15:04")),
		Tag:                fmt.Sprintf("reminder-%s", reminder.ID),
		RequireInteraction: settings.RequireInteraction,
		Sound:              settings.Sound && !quiet,
		Data: map[string]string{
			"reminderId":   reminder.ID,
			"medicationId": med.ID,
			"action":       "show-modal",
		},
	}
	if settings.Vibration && !quiet {
		n.Vibrate = []int{200, 100, 200, 100, 200}
	}

	handle, err := s.sink.Show(ctx, n)
	if err != nil {
		log.Printf("Failed to show notification for %s: %v", med.Name, err)
	} else if handle != nil {
		s.mu.Lock()
		s.active[reminder.ID] = handle
		s.mu.Unlock()
	}

	s.onDue(reminder)
}

// Close dismisses the active platform notification for a reminder, if any.
// Safe to call with an unknown id.
func (s *Scheduler) Close(ctx context.Context, reminderID string) {
	s.mu.Lock()
	handle, ok := s.active[reminderID]
	if ok {
		delete(s.active, reminderID)
	}
	s.mu.Unlock()

	if !ok {
		return
	}
	if err := s.sink.Close(ctx, handle); err != nil {
		log.Printf("Failed to close notification for reminder %s: %v", reminderID, err)
	}
}

// Reschedule clears every armed timer and re-runs a check pass. Call it
// after snooze, taken/missed transitions, or medication list changes.
func (s *Scheduler) Reschedule(ctx context.Context) {
	s.clearTimers()
	s.CheckDue(ctx)
}

// Stop cancels all armed timers. The poll loop itself stops with its
// context.
func (s *Scheduler) Stop() {
	s.clearTimers()
}

func (s *Scheduler) clearTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, timer := range s.timers {
		timer.Stop()
		delete(s.timers, id)
	}
}

// armedTimers reports how many one-shot timers are currently outstanding.
func (s *Scheduler) armedTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}

package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dosewatch/dosewatch/internal/clock"
	"github.com/dosewatch/dosewatch/internal/models"
	"github.com/dosewatch/dosewatch/internal/notify"
	"github.com/dosewatch/dosewatch/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordSink captures every notification instead of delivering it.
type recordSink struct {
	mu      sync.Mutex
	shown   []notify.Notification
	closed  int
	showErr error
}

func (s *recordSink) Show(ctx context.Context, n notify.Notification) (notify.Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.showErr != nil {
		return nil, s.showErr
	}
	s.shown = append(s.shown, n)
	return len(s.shown), nil
}

func (s *recordSink) Close(ctx context.Context, h notify.Handle) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed++
	return nil
}

func (s *recordSink) shownCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.shown)
}

type fixture struct {
	mem   *store.Memory
	clk   *clock.Fake
	sink  *recordSink
	sched *Scheduler
	due   *[]string
}

func newFixture(t *testing.T, settings models.NotificationSettings) *fixture {
	t.Helper()
	clk := clock.NewFake(time.Date(2026, 3, 2, 12, 0, 0, 0, time.Local))
	mem := store.NewMemory(clk)
	sink := &recordSink{}

	var due []string
	sched := New(mem, mem.Medications(), sink, clk, settings, func(r models.Reminder) {
		due = append(due, r.ID)
	})
	t.Cleanup(sched.Stop)
	return &fixture{mem: mem, clk: clk, sink: sink, sched: sched, due: &due}
}

func (f *fixture) addMedication(t *testing.T, id, name string) {
	t.Helper()
	med := models.Medication{ID: id, Name: name, Dosage: "10mg", Status: models.MedicationActive}
	require.NoError(t, f.mem.Medications().Create(context.Background(), &med))
}

func (f *fixture) addReminder(t *testing.T, id, medID string, at time.Time) {
	t.Helper()
	r := models.Reminder{
		ID:             id,
		MedicationID:   medID,
		MedicationName: "Aspirin",
		Dosage:         "10mg",
		ScheduledTime:  at,
		Status:         models.ReminderPending,
	}
	require.NoError(t, f.mem.Append(context.Background(), &r))
}

func TestCheckDueFiresInsideWindow(t *testing.T) {
	tests := []struct {
		name   string
		offset time.Duration
		fires  bool
		arms   bool
	}{
		{"four seconds early", 4 * time.Second, true, false},
		{"four seconds late", -4 * time.Second, true, false},
		{"two minutes late", -2 * time.Minute, true, false},
		{"just past the late edge", -301 * time.Second, false, false},
		{"two minutes ahead", 2 * time.Minute, false, true},
		{"beyond the arm horizon", 25 * time.Hour, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, models.DefaultNotificationSettings())
			f.addMedication(t, "med-1", "Aspirin")
			f.addReminder(t, "rem-1", "med-1", f.clk.Now().Add(tt.offset))

			f.sched.CheckDue(context.Background())

			if tt.fires {
				assert.Equal(t, 1, f.sink.shownCount())
				assert.Equal(t, []string{"rem-1"}, *f.due)
			} else {
				assert.Zero(t, f.sink.shownCount())
				assert.Empty(t, *f.due)
			}
			if tt.arms {
				assert.Equal(t, 1, f.sched.armedTimers())
			} else {
				assert.Zero(t, f.sched.armedTimers())
			}
		})
	}
}

func TestCheckDueSkipsNonPendingAndDangling(t *testing.T) {
	f := newFixture(t, models.DefaultNotificationSettings())
	f.addMedication(t, "med-1", "Aspirin")

	// Already taken.
	taken := models.Reminder{
		ID:            "rem-taken",
		MedicationID:  "med-1",
		ScheduledTime: f.clk.Now(),
		Status:        models.ReminderTaken,
	}
	require.NoError(t, f.mem.Append(context.Background(), &taken))

	// Medication deleted out from under the reminder.
	f.addReminder(t, "rem-dangling", "med-gone", f.clk.Now())

	f.sched.CheckDue(context.Background())
	assert.Zero(t, f.sink.shownCount())
	assert.Empty(t, *f.due)
}

func TestFireInvokesOnDueEvenWhenSinkFails(t *testing.T) {
	f := newFixture(t, models.DefaultNotificationSettings())
	f.sink.showErr = errors.New("telegram unreachable")
	f.addMedication(t, "med-1", "Aspirin")
	f.addReminder(t, "rem-1", "med-1", f.clk.Now())

	f.sched.CheckDue(context.Background())
	assert.Equal(t, []string{"rem-1"}, *f.due)
}

func TestFireNotificationContent(t *testing.T) {
	f := newFixture(t, models.DefaultNotificationSettings())
	f.addMedication(t, "med-1", "Aspirin")
	f.addReminder(t, "rem-1", "med-1", f.clk.Now())

	f.sched.CheckDue(context.Background())
	require.Equal(t, 1, f.sink.shownCount())

	n := f.sink.shown[0]
	assert.Equal(t, "💊 Time to take Aspirin", n.Title)
	assert.Equal(t, "Dosage: 10mg\nScheduled: 12:00", n.Body)
	assert.Equal(t, "reminder-rem-1", n.Tag)
	assert.True(t, n.Sound)
	assert.Equal(t, []int{200, 100, 200, 100, 200}, n.Vibrate)
	assert.Equal(t, "rem-1", n.Data["reminderId"])
	assert.Equal(t, "med-1", n.Data["medicationId"])
	assert.Equal(t, "show-modal", n.Data["action"])
}

func TestQuietHoursMuteButDeliver(t *testing.T) {
	settings := models.DefaultNotificationSettings()
	settings.QuietHoursEnabled = true
	settings.QuietHoursStart = "11:00"
	settings.QuietHoursEnd = "13:00"

	f := newFixture(t, settings)
	f.addMedication(t, "med-1", "Aspirin")
	f.addReminder(t, "rem-1", "med-1", f.clk.Now())

	f.sched.CheckDue(context.Background())
	require.Equal(t, 1, f.sink.shownCount(), "quiet hours must not suppress delivery")

	n := f.sink.shown[0]
	assert.False(t, n.Sound)
	assert.Nil(t, n.Vibrate)
	assert.Equal(t, []string{"rem-1"}, *f.due)
}

func TestUpdateSettingsAppliesAtFireTime(t *testing.T) {
	f := newFixture(t, models.DefaultNotificationSettings())
	f.addMedication(t, "med-1", "Aspirin")
	f.addReminder(t, "rem-1", "med-1", f.clk.Now())

	muted := models.DefaultNotificationSettings()
	muted.Sound = false
	muted.Vibration = false
	f.sched.UpdateSettings(muted)
	assert.Equal(t, muted, f.sched.Settings())

	f.sched.CheckDue(context.Background())
	require.Equal(t, 1, f.sink.shownCount())
	assert.False(t, f.sink.shown[0].Sound)
	assert.Nil(t, f.sink.shown[0].Vibrate)
}

func TestArmIsIdempotentPerReminder(t *testing.T) {
	f := newFixture(t, models.DefaultNotificationSettings())
	f.addMedication(t, "med-1", "Aspirin")
	f.addReminder(t, "rem-1", "med-1", f.clk.Now().Add(10*time.Minute))

	f.sched.CheckDue(context.Background())
	f.sched.CheckDue(context.Background())
	assert.Equal(t, 1, f.sched.armedTimers())
}

func TestRescheduleDropsStaleTimers(t *testing.T) {
	f := newFixture(t, models.DefaultNotificationSettings())
	f.addMedication(t, "med-1", "Aspirin")
	f.addReminder(t, "rem-1", "med-1", f.clk.Now().Add(10*time.Minute))

	f.sched.CheckDue(context.Background())
	require.Equal(t, 1, f.sched.armedTimers())

	// The reminder was handled elsewhere; a reschedule must not leave its
	// timer armed.
	require.NoError(t, f.mem.Remove(context.Background(), "rem-1"))
	f.sched.Reschedule(context.Background())
	assert.Zero(t, f.sched.armedTimers())
}

func TestCloseIsIdempotent(t *testing.T) {
	f := newFixture(t, models.DefaultNotificationSettings())
	f.addMedication(t, "med-1", "Aspirin")
	f.addReminder(t, "rem-1", "med-1", f.clk.Now())

	f.sched.CheckDue(context.Background())
	require.Equal(t, 1, f.sink.shownCount())

	f.sched.Close(context.Background(), "rem-1")
	f.sched.Close(context.Background(), "rem-1")
	f.sched.Close(context.Background(), "never-fired")
	assert.Equal(t, 1, f.sink.closed)
}

func TestArmedTimerRevalidatesBeforeFiring(t *testing.T) {
	// The timer callback must not trust the state captured at arm time:
	// anything can happen to the reminder between arming and expiry.
	armed := func(t *testing.T) (*fixture, time.Time) {
		t.Helper()
		f := newFixture(t, models.DefaultNotificationSettings())
		f.addMedication(t, "med-1", "Aspirin")
		at := f.clk.Now().Add(10 * time.Minute)
		f.addReminder(t, "rem-1", "med-1", at)
		f.sched.CheckDue(context.Background())
		require.Equal(t, 1, f.sched.armedTimers())
		return f, at
	}

	t.Run("taken since arming", func(t *testing.T) {
		f, at := armed(t)
		require.NoError(t, f.mem.MarkTaken(context.Background(), "rem-1"))

		f.sched.fireArmed(context.Background(), "rem-1", at)
		assert.Zero(t, f.sink.shownCount())
		assert.Empty(t, *f.due)
	})

	t.Run("snoozed since arming", func(t *testing.T) {
		f, at := armed(t)
		require.NoError(t, f.mem.Snooze(context.Background(), "rem-1", 30))

		f.sched.fireArmed(context.Background(), "rem-1", at)
		assert.Zero(t, f.sink.shownCount())
	})

	t.Run("medication deleted since arming", func(t *testing.T) {
		f, at := armed(t)
		require.NoError(t, f.mem.Medications().Delete(context.Background(), "med-1"))

		f.sched.fireArmed(context.Background(), "rem-1", at)
		assert.Zero(t, f.sink.shownCount())
	})

	t.Run("reminder removed since arming", func(t *testing.T) {
		f, at := armed(t)
		require.NoError(t, f.mem.Remove(context.Background(), "rem-1"))

		f.sched.fireArmed(context.Background(), "rem-1", at)
		assert.Zero(t, f.sink.shownCount())
	})

	t.Run("still pending fires", func(t *testing.T) {
		f, at := armed(t)

		f.sched.fireArmed(context.Background(), "rem-1", at)
		assert.Equal(t, 1, f.sink.shownCount())
		assert.Equal(t, []string{"rem-1"}, *f.due)
	})
}

func TestNotifyIsNonBlocking(t *testing.T) {
	f := newFixture(t, models.DefaultNotificationSettings())
	// No loop is draining the channel; repeated pokes must not block.
	f.sched.Notify()
	f.sched.Notify()
	f.sched.Notify()
}

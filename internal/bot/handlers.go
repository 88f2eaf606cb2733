package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/dosewatch/dosewatch/internal/adherence"
	"github.com/dosewatch/dosewatch/internal/models"
	"github.com/dosewatch/dosewatch/internal/rrule"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/google/uuid"
)

type Handlers struct {
	api  *tgbotapi.BotAPI
	deps Deps
}

func NewHandlers(api *tgbotapi.BotAPI, deps Deps) *Handlers {
	return &Handlers{api: api, deps: deps}
}

func (h *Handlers) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start", "help":
		h.handleHelp(msg)
	case "meds":
		h.handleMedList(ctx, msg)
	case "today":
		h.handleToday(ctx, msg)
	case "stats":
		h.handleStats(ctx, msg)
	case "advice":
		h.handleAdvice(ctx, msg)
	case "generate":
		h.handleGenerate(ctx, msg)
	case "pause":
		h.handleSetStatus(ctx, msg, models.MedicationInactive)
	case "resume":
		h.handleSetStatus(ctx, msg, models.MedicationActive)
	case "add":
		h.handleAddMedication(ctx, msg)
	case "remove":
		h.handleRemoveMedication(ctx, msg)
	}
}

func (h *Handlers) handleHelp(msg *tgbotapi.Message) {
	h.sendMessage(msg.Chat.ID, `💊 dosewatch

/meds - list medications
/today - today's reminders
/stats - adherence statistics
/advice - adherence suggestions
/generate - regenerate upcoming reminders
/add name | dosage | frequency | times - add a medication
/remove <name> - delete a medication and its reminders
/pause <name> - stop reminders for a medication
/resume <name> - restart reminders for a medication`)
}

func (h *Handlers) handleMedList(ctx context.Context, msg *tgbotapi.Message) {
	medications, err := h.deps.Medications.List(ctx)
	if err != nil {
		log.Printf("Failed to list medications: %v", err)
		h.sendMessage(msg.Chat.ID, "Failed to load medications, try again later")
		return
	}
	if len(medications) == 0 {
		h.sendMessage(msg.Chat.ID, "💊 No medications yet")
		return
	}

	var sb strings.Builder
	sb.WriteString("💊 Medications\n\n")
	for _, med := range medications {
		status := "✅"
		if !med.IsActive() {
			status = "⏸"
		}
		sb.WriteString(fmt.Sprintf("%s %s (%s)\n", status, med.Name, med.Dosage))
		sb.WriteString(fmt.Sprintf("   %s at %s\n", med.Frequency, strings.Join(med.Schedule, ", ")))

		// Interval schedules aren't obvious from the label alone; show
		// the next dose day.
		if med.IntervalDays > 1 && med.StartDate != nil {
			start := *med.StartDate
			dtstart := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.Local)
			next, err := rrule.NextOccurrence(rrule.DailyInterval(med.IntervalDays), dtstart, h.deps.Clock.Now())
			if err == nil && next != nil {
				sb.WriteString(fmt.Sprintf("   next dose day: %s\n", next.Format("Mon Jan 2")))
			}
		}
	}
	h.sendMessage(msg.Chat.ID, sb.String())
}

func (h *Handlers) handleToday(ctx context.Context, msg *tgbotapi.Message) {
	reminders, err := h.deps.Reminders.List(ctx)
	if err != nil {
		log.Printf("Failed to list reminders: %v", err)
		h.sendMessage(msg.Chat.ID, "Failed to load reminders, try again later")
		return
	}

	now := h.deps.Clock.Now()
	var sb strings.Builder
	count := 0
	for _, r := range reminders {
		y, m, d := r.ScheduledTime.Date()
		ny, nm, nd := now.Date()
		if y != ny || m != nm || d != nd {
			continue
		}
		icon := "⏰"
		switch r.Status {
		case models.ReminderTaken:
			icon = "✅"
		case models.ReminderMissed:
			icon = "❌"
		}
		sb.WriteString(fmt.Sprintf("%s %s  %s (%s)\n", icon, r.ScheduledTime.Format("15:04"), r.MedicationName, r.Dosage))
		count++
	}

	if count == 0 {
		h.sendMessage(msg.Chat.ID, "⏰ No reminders scheduled for today")
		return
	}
	h.sendMessage(msg.Chat.ID, "⏰ Today\n\n"+sb.String())
}

func (h *Handlers) handleStats(ctx context.Context, msg *tgbotapi.Message) {
	reminders, err := h.deps.Reminders.List(ctx)
	if err != nil {
		log.Printf("Failed to list reminders: %v", err)
		h.sendMessage(msg.Chat.ID, "Failed to load statistics, try again later")
		return
	}
	medications, err := h.deps.Medications.List(ctx)
	if err != nil {
		log.Printf("Failed to list medications: %v", err)
		h.sendMessage(msg.Chat.ID, "Failed to load statistics, try again later")
		return
	}

	stats := adherence.ComputeStats(reminders, medications, h.deps.Clock.Now())
	counts := h.deps.Generator.Stats(reminders)

	h.sendMessage(msg.Chat.ID, fmt.Sprintf(
		"📊 Adherence\n\nRate: %d%%\nTaken: %d\nMissed: %d\nPending: %d\n\nToday: %d | Tomorrow: %d | Upcoming: %d",
		stats.AdherenceRate, stats.TakenDoses, stats.MissedDoses, stats.PendingDoses,
		counts.Today, counts.Tomorrow, counts.Upcoming))
}

func (h *Handlers) handleAdvice(ctx context.Context, msg *tgbotapi.Message) {
	reminders, err := h.deps.Reminders.List(ctx)
	if err != nil {
		log.Printf("Failed to list reminders: %v", err)
		h.sendMessage(msg.Chat.ID, "Failed to load suggestions, try again later")
		return
	}

	patterns := adherence.AnalyzePatterns(reminders, h.deps.Clock.Now())
	suggestions := h.deps.AI.Suggestions(ctx, patterns)

	var sb strings.Builder
	sb.WriteString("💡 Suggestions\n\n")
	for i, s := range suggestions {
		sb.WriteString(fmt.Sprintf("%d. %s\n\n", i+1, s.Text))
	}
	h.sendMessage(msg.Chat.ID, strings.TrimSpace(sb.String()))
}

func (h *Handlers) handleGenerate(ctx context.Context, msg *tgbotapi.Message) {
	if err := h.deps.Runner.RunOnce(ctx); err != nil {
		log.Printf("Manual generation failed: %v", err)
		h.sendMessage(msg.Chat.ID, "Reminder generation failed, try again later")
		return
	}
	h.deps.Scheduler.Notify()
	h.sendMessage(msg.Chat.ID, "🔄 Upcoming reminders are up to date")
}

// handleAddMedication parses "/add name | dosage | frequency | times" where
// times is a comma-separated list of "HH:MM" entries.
func (h *Handlers) handleAddMedication(ctx context.Context, msg *tgbotapi.Message) {
	parts := strings.Split(msg.CommandArguments(), "|")
	if len(parts) != 4 {
		h.sendMessage(msg.Chat.ID, "Usage: /add name | dosage | frequency | times\nExample: /add Aspirin | 100mg | Twice daily | 08:00,20:00")
		return
	}

	var schedule []string
	for _, tod := range strings.Split(parts[3], ",") {
		if tod = strings.TrimSpace(tod); tod != "" {
			schedule = append(schedule, tod)
		}
	}

	now := h.deps.Clock.Now()
	med := models.Medication{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(parts[0]),
		Dosage:    strings.TrimSpace(parts[1]),
		Frequency: strings.TrimSpace(parts[2]),
		Schedule:  schedule,
		StartDate: &now,
		Status:    models.MedicationActive,
	}
	if med.Name == "" || len(med.Schedule) == 0 {
		h.sendMessage(msg.Chat.ID, "Medication name and at least one time are required")
		return
	}

	if err := h.deps.Medications.Create(ctx, &med); err != nil {
		log.Printf("Failed to create medication: %v", err)
		h.sendMessage(msg.Chat.ID, "Failed to add medication, try again later")
		return
	}

	if err := h.deps.Runner.RunOnce(ctx); err != nil {
		log.Printf("Regeneration after add failed: %v", err)
	}
	h.deps.Scheduler.Notify()
	h.sendMessage(msg.Chat.ID, fmt.Sprintf("💊 Added %s (%s), %s at %s", med.Name, med.Dosage, med.Frequency, strings.Join(med.Schedule, ", ")))
}

func (h *Handlers) handleRemoveMedication(ctx context.Context, msg *tgbotapi.Message) {
	name := strings.TrimSpace(msg.CommandArguments())
	if name == "" {
		h.sendMessage(msg.Chat.ID, "Usage: /remove <medication name>")
		return
	}

	medications, err := h.deps.Medications.List(ctx)
	if err != nil {
		log.Printf("Failed to list medications: %v", err)
		h.sendMessage(msg.Chat.ID, "Failed to load medications, try again later")
		return
	}

	for i := range medications {
		if strings.EqualFold(medications[i].Name, name) {
			if err := h.deps.Medications.Delete(ctx, medications[i].ID); err != nil {
				log.Printf("Failed to delete medication %s: %v", medications[i].ID, err)
				h.sendMessage(msg.Chat.ID, "Failed to remove medication, try again later")
				return
			}
			// Reminders went with it; clear any timers that pointed at them.
			h.deps.Scheduler.Notify()
			h.sendMessage(msg.Chat.ID, fmt.Sprintf("🗑 Removed %s and its reminders", medications[i].Name))
			return
		}
	}
	h.sendMessage(msg.Chat.ID, fmt.Sprintf("No medication named %q", name))
}

func (h *Handlers) handleSetStatus(ctx context.Context, msg *tgbotapi.Message, status models.MedicationStatus) {
	name := strings.TrimSpace(msg.CommandArguments())
	if name == "" {
		h.sendMessage(msg.Chat.ID, "Usage: /"+msg.Command()+" <medication name>")
		return
	}

	medications, err := h.deps.Medications.List(ctx)
	if err != nil {
		log.Printf("Failed to list medications: %v", err)
		h.sendMessage(msg.Chat.ID, "Failed to load medications, try again later")
		return
	}

	var target *models.Medication
	for i := range medications {
		if strings.EqualFold(medications[i].Name, name) {
			target = &medications[i]
			break
		}
	}
	if target == nil {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("No medication named %q", name))
		return
	}

	if err := h.deps.Medications.SetStatus(ctx, target.ID, status); err != nil {
		log.Printf("Failed to set status for %s: %v", target.ID, err)
		h.sendMessage(msg.Chat.ID, "Failed to update medication, try again later")
		return
	}

	// The active set changed: regenerate eagerly and drop stale timers.
	if err := h.deps.Runner.RunOnce(ctx); err != nil {
		log.Printf("Regeneration after status change failed: %v", err)
	}
	h.deps.Scheduler.Notify()

	if status == models.MedicationActive {
		h.sendMessage(msg.Chat.ID, fmt.Sprintf("▶️ Reminders for %s resumed", target.Name))
		return
	}
	h.sendMessage(msg.Chat.ID, fmt.Sprintf("⏸ Reminders for %s paused", target.Name))
}

// HandleCallbackQuery processes the Taken / Snooze / Missed buttons on a
// fired reminder notification.
func (h *Handlers) HandleCallbackQuery(ctx context.Context, callback *tgbotapi.CallbackQuery) {
	// Answer callback to remove the loading state.
	if _, err := h.api.Request(tgbotapi.NewCallback(callback.ID, "")); err != nil {
		log.Printf("Failed to answer callback: %v", err)
	}

	parts := strings.Split(callback.Data, ":")
	if len(parts) < 2 {
		return
	}
	action, reminderID := parts[0], parts[1]

	var err error
	var ack string
	switch action {
	case "rem_taken":
		err = h.deps.Reminders.MarkTaken(ctx, reminderID)
		ack = "✅ Marked as taken"
	case "rem_missed":
		err = h.deps.Reminders.MarkMissed(ctx, reminderID)
		ack = "❌ Marked as missed"
	case "rem_snooze":
		minutes := 10
		if len(parts) == 3 {
			if n, convErr := strconv.Atoi(parts[2]); convErr == nil && n > 0 {
				minutes = n
			}
		}
		err = h.deps.Reminders.Snooze(ctx, reminderID, minutes)
		ack = fmt.Sprintf("💤 Snoozed for %d minutes", minutes)
	default:
		return
	}

	if err != nil {
		log.Printf("Failed to apply %s to reminder %s: %v", action, reminderID, err)
		return
	}

	// Dismiss the platform notification and drop any stale timer for the
	// superseded state.
	h.deps.Scheduler.Close(ctx, reminderID)
	h.deps.Scheduler.Notify()

	if callback.Message != nil {
		edit := tgbotapi.NewEditMessageText(callback.Message.Chat.ID, callback.Message.MessageID, ack)
		if _, err := h.api.Request(edit); err != nil {
			log.Printf("Failed to edit notification message: %v", err)
		}
	}
}

func (h *Handlers) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := h.api.Send(msg); err != nil {
		log.Printf("Failed to send message: %v", err)
	}
}

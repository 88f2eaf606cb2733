package bot

import (
	"context"
	"log"

	"github.com/dosewatch/dosewatch/internal/ai"
	"github.com/dosewatch/dosewatch/internal/clock"
	"github.com/dosewatch/dosewatch/internal/generator"
	"github.com/dosewatch/dosewatch/internal/scheduler"
	"github.com/dosewatch/dosewatch/internal/store"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Deps are the collaborators the bot surface acts on.
type Deps struct {
	Medications store.MedicationStore
	Reminders   store.ReminderStore
	Scheduler   *scheduler.Scheduler
	Generator   *generator.Generator
	Runner      *generator.Runner
	AI          *ai.Client
	Clock       clock.Clock
}

type Bot struct {
	api      *tgbotapi.BotAPI
	handlers *Handlers
}

func New(api *tgbotapi.BotAPI, deps Deps) *Bot {
	return &Bot{
		api:      api,
		handlers: NewHandlers(api, deps),
	}
}

func (b *Bot) Start(ctx context.Context) error {
	log.Printf("Authorized on account %s", b.api.Self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			go b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	if update.CallbackQuery != nil {
		b.handlers.HandleCallbackQuery(ctx, update.CallbackQuery)
		return
	}
	if update.Message == nil {
		return
	}
	if update.Message.IsCommand() {
		b.handlers.HandleCommand(ctx, update.Message)
	}
}

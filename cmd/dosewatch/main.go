package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dosewatch/dosewatch/internal/ai"
	"github.com/dosewatch/dosewatch/internal/bot"
	"github.com/dosewatch/dosewatch/internal/clock"
	"github.com/dosewatch/dosewatch/internal/config"
	"github.com/dosewatch/dosewatch/internal/database"
	"github.com/dosewatch/dosewatch/internal/generator"
	"github.com/dosewatch/dosewatch/internal/models"
	"github.com/dosewatch/dosewatch/internal/notify"
	"github.com/dosewatch/dosewatch/internal/repository"
	"github.com/dosewatch/dosewatch/internal/scheduler"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if cfg.DatabaseURI == "" {
		log.Fatal("DATABASE_URI is required")
	}
	if cfg.TelegramToken == "" {
		log.Fatal("TELEGRAM_TOKEN is required")
	}
	if cfg.ChatID == 0 {
		log.Fatal("TELEGRAM_CHAT_ID is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, cfg.DatabaseURI)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to database")

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	var aiClient *ai.Client
	if cfg.AIAPIKey != "" {
		aiClient = ai.New(cfg.AIAPIKey, cfg.AIBaseURL, cfg.AIModel)
		log.Printf("AI client initialized (model: %s)", cfg.AIModel)
	} else {
		log.Println("AI client not configured, falling back to rule-based suggestions")
	}

	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		log.Fatalf("Failed to create Telegram API: %v", err)
	}

	clk := clock.System()
	medicationRepo := repository.NewMedicationRepository(db)
	reminderRepo := repository.NewReminderRepository(db, clk)

	sink := notify.NewTelegramSink(api, cfg.ChatID)
	sched := scheduler.New(reminderRepo, medicationRepo, sink, clk, cfg.Notifications, func(r models.Reminder) {
		log.Printf("Reminder due: %s at %s", r.MedicationName, r.ScheduledTime.Format("15:04"))
	})

	gen := generator.New(clk, cfg.Notifications.DaysAhead)
	runner := generator.NewRunner(gen, medicationRepo, reminderRepo, sched.Notify)

	go runner.Start(ctx)
	go sched.Start(ctx)

	b := bot.New(api, bot.Deps{
		Medications: medicationRepo,
		Reminders:   reminderRepo,
		Scheduler:   sched,
		Generator:   gen,
		Runner:      runner,
		AI:          aiClient,
		Clock:       clk,
	})

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		cancel()
	}()

	log.Println("Starting bot...")
	if err := b.Start(ctx); err != nil && err != context.Canceled {
		log.Fatalf("Bot error: %v", err)
	}
}

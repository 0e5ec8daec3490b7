package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"yearbook_alumni/internal/app"
	"yearbook_alumni/internal/domain/notification"
	domainTelegram "yearbook_alumni/internal/domain/telegram"
	"yearbook_alumni/internal/infra/config"
	idb "yearbook_alumni/internal/infra/database"
	"yearbook_alumni/internal/infra/httpapi"
	"yearbook_alumni/internal/infra/logger"
	"yearbook_alumni/internal/infra/queue"
	"yearbook_alumni/internal/infra/scheduler"
	"yearbook_alumni/internal/infra/telegram"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatalf("FATAL: Could not load application configuration: %v", err)
	}
	logger.Init(cfg)
	baseLogger := logrus.NewEntry(logger.Log)
	mainLogger := logger.Component("main")
	mainLogger.WithFields(logrus.Fields{
		"log_level":   cfg.LogLevel,
		"environment": cfg.Environment,
		"telegram":    cfg.TelegramEnabled(),
		"kafka":       cfg.KafkaEnabled(),
	}).Info("Configuration loaded")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize Database Connection
	db, err := idb.NewPostgresConnection(ctx, cfg.DatabaseURL)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not connect to database")
	}
	defer db.Close()
	mainLogger.Info("Database connection established successfully.")

	if cfg.AutoMigrate {
		if err := idb.Migrate(ctx, db); err != nil {
			mainLogger.WithError(err).Fatal("Could not apply database schema")
		}
		mainLogger.Info("Database schema applied.")
	}

	// Initialize Repositories
	alumniRepo := idb.NewPostgresAlumniRepository(db)
	directoryRepo := idb.NewPostgresDirectory(db)
	notificationRepo := idb.NewPostgresNotificationRepository(db)

	var publisher notification.Publisher
	var producer *queue.Producer
	if cfg.KafkaEnabled() {
		producer = queue.NewProducer(cfg.KafkaBroker, cfg.KafkaTopic)
		publisher = producer
		mainLogger.WithFields(logrus.Fields{"broker": cfg.KafkaBroker, "topic": cfg.KafkaTopic}).Info("Kafka producer initialized.")
	}

	var bot *telebot.Bot
	var telegramClient domainTelegram.Client
	if cfg.TelegramEnabled() {
		botLogger := logger.Component("telebot")
		pref := telebot.Settings{
			Token:  cfg.TelegramToken,
			Poller: &telebot.LongPoller{Timeout: 10 * time.Second},
			OnError: func(err error, c telebot.Context) { // Global error handler
				entry := botLogger.WithError(err)
				if c != nil && c.Sender() != nil && c.Chat() != nil {
					entry = entry.WithFields(logrus.Fields{"text": c.Text(), "sender_id": c.Sender().ID, "chat_id": c.Chat().ID})
				}
				entry.Error("Telegram handler failed")
			},
		}
		bot, err = telebot.NewBot(pref)
		if err != nil {
			mainLogger.WithError(err).Fatal("Could not create Telegram bot")
		}
		telegramClient = telegram.NewTelebotAdapter(bot)
	}

	notificationService := app.NewNotificationServiceImpl(notificationRepo, publisher, telegramClient, cfg.ModeratorChatID, baseLogger)
	alumniService := app.NewAlumniService(alumniRepo, directoryRepo, directoryRepo, notificationService, baseLogger)
	mainLogger.Info("Services initialized.")

	var digest *scheduler.ReviewDigestScheduler
	if bot != nil {
		moderator := telegram.NewModerator(alumniService, cfg.ModeratorChatID, cfg.ModeratorUserID, baseLogger)
		telegram.RegisterModerationHandlers(ctx, bot, moderator)
		telegram.RegisterBotCommands(bot, moderator, logger.Component("telegram"))
		mainLogger.Info("Telegram handlers registered.")

		digest = scheduler.NewReviewDigestScheduler(alumniService, telegramClient, cfg.ModeratorChatID, cfg.CronSpecDigest, cfg.DigestMinAge, baseLogger)
		if err := digest.Start(); err != nil {
			mainLogger.WithError(err).Fatal("Could not start review digest scheduler")
		}

		// Start bot in a goroutine so it doesn't block graceful shutdown handling
		go bot.Start()
	}

	handler := httpapi.NewAlumniHandler(alumniService, notificationService, logger.Component("httpapi"))
	fapp := httpapi.NewServer(handler, logger.Component("httpapi"))
	go func() {
		mainLogger.WithField("addr", cfg.HTTPAddr).Info("HTTP server listening")
		if err := fapp.Listen(cfg.HTTPAddr); err != nil {
			mainLogger.WithError(err).Error("HTTP server stopped")
			stop()
		}
	}()

	<-ctx.Done() // Block until a signal is received
	mainLogger.Info("Shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := fapp.ShutdownWithContext(shutdownCtx); err != nil {
		mainLogger.WithError(err).Warn("HTTP server shutdown did not complete cleanly")
	}
	if digest != nil {
		digest.Stop()
	}
	if bot != nil {
		bot.Stop()
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			mainLogger.WithError(err).Warn("Kafka producer close failed")
		}
	}
	mainLogger.Info("Application shut down gracefully.")
}

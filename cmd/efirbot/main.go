// Package main runs the live stream registration bot with a liveness endpoint and graceful shutdown.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"efirbot/config"
	"efirbot/internal/adapters/email"
	"efirbot/internal/adapters/telegram"
	"efirbot/internal/delivery/bot"
	deliveryhttp "efirbot/internal/delivery/http"
	"efirbot/internal/domain"
	"efirbot/internal/repository/postgres"
	"efirbot/internal/repository/sqlite"
	"efirbot/internal/services"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger := config.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("efirbot stopped", "err", err)
		os.Exit(1)
	}
}

type store struct {
	db            *sql.DB
	events        domain.EventRepository
	registrations domain.RegistrationRepository
}

func openStore(cfg config.DatabaseConfig) (*store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := postgres.Open(cfg.URL)
		if err != nil {
			return nil, err
		}
		return &store{db: db, events: postgres.NewEventRepository(db), registrations: postgres.NewRegistrationRepository(db)}, nil
	case config.DriverSQLite:
		db, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		return &store{db: db, events: sqlite.NewEventRepository(db), registrations: sqlite.NewRegistrationRepository(db)}, nil
	}
	return nil, fmt.Errorf("unknown DB_DRIVER %q", cfg.Driver)
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	st, err := openStore(cfg.Database)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.db.Close()
	logger.Info("store ready", "driver", cfg.Database.Driver)

	client, err := telegram.New(cfg.Bot.Token, logger)
	if err != nil {
		return err
	}
	username := cfg.Bot.Username
	if username == "" {
		username = client.Username()
	}
	if len(cfg.Bot.AdminIDs) == 0 {
		logger.Warn("ADMIN_IDS is empty: administrator commands are disabled")
	}

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.Email.Provider,
		FromAddress: cfg.Email.FromAddress,
		FromName:    cfg.Email.FromName,
		SES: email.SESConfig{
			Region:          cfg.Email.Region,
			AccessKeyID:     cfg.Email.AccessKeyID,
			SecretAccessKey: cfg.Email.SecretAccessKey,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("mailer: %w", err)
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)

	notifier := services.NewAdminNotifier(bot.NewNoticeSender(client), emailService, services.AdminNotifierConfig{
		AdminIDs:    cfg.Bot.AdminIDs,
		AdminEmails: cfg.Email.AdminEmails,
		Timeout:     cfg.NotifyTimeout,
	}, logger)
	flow := services.NewRegistrationFlow(st.events, st.registrations, notifier, logger, services.FlowOptions{
		ContextTimeout: cfg.Database.Timeout,
		DialogueTTL:    cfg.DialogueTTL,
	})
	dispatcher := bot.NewDispatcher(bot.Config{
		Events:      services.NewEventService(st.events, st.registrations, cfg.Database.Timeout),
		Reports:     services.NewReportService(st.events, st.registrations, cfg.Database.Timeout),
		Flow:        flow,
		Admins:      domain.NewAdminSet(cfg.Bot.AdminIDs),
		Sender:      client,
		BotUsername: username,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           deliveryhttp.NewRouter(logger, deliveryhttp.NewHealthController(logger, st.db, username)),
		ReadHeaderTimeout: 5 * time.Second,
	}
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("http listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	pollCtx, cancelPoll := context.WithCancel(ctx)
	defer cancelPoll()
	pollDone := make(chan error, 1)
	go func() {
		pollDone <- client.Run(pollCtx, dispatcher)
	}()

	var runErr error
	polling := true
	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-serverErr:
		runErr = fmt.Errorf("http server: %w", err)
	case runErr = <-pollDone:
		polling = false
	}

	cancelPoll()
	if polling {
		if err := <-pollDone; err != nil && runErr == nil {
			runErr = err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", "err", err)
	}
	notifier.Wait()
	logger.Info("efirbot stopped")
	return runErr
}

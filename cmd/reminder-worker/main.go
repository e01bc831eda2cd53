package main

import (
	"context"
	"crypto/tls"
	"database/sql"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/stillwater-counseling/practice-platform/cmd/mainconfig"
	appconfig "github.com/stillwater-counseling/practice-platform/internal/config"
	"github.com/stillwater-counseling/practice-platform/internal/contacts"
	"github.com/stillwater-counseling/practice-platform/internal/dashboard"
	"github.com/stillwater-counseling/practice-platform/internal/notify"
	"github.com/stillwater-counseling/practice-platform/internal/reminders"
	"github.com/stillwater-counseling/practice-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting reminder worker",
		"interval", cfg.ReminderRunInterval,
		"dry_run", cfg.ReminderDryRun,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.DatabaseURL == "" {
		logger.Error("reminder worker requires DATABASE_URL")
		os.Exit(1)
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	sqlDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to open sql db", "error", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	emailSender := mainconfig.BuildEmailSender(ctx, cfg, logger)
	smsSender := mainconfig.BuildSMSSender(cfg, logger)
	notifier := notify.NewService(emailSender, smsSender, notify.Config{
		PracticeName:     cfg.PracticeName,
		PracticeLocation: cfg.PracticeLocation,
		AdminEmail:       cfg.AdminEmail,
	}, logger)

	repo := contacts.NewPostgresRepository(pool)
	store := dashboard.NewStore(sqlDB)
	engine := reminders.NewEngine(repo, notifier, store, reminders.Thresholds{
		First:  cfg.FirstReminderAfter,
		Second: cfg.SecondReminderAfter,
		Final:  cfg.FinalReminderAfter,
	}, nil, logger)

	var lock *reminders.RunLock
	if cfg.RedisAddr != "" {
		opts := &redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		client := redis.NewClient(opts)
		defer client.Close()
		lock = reminders.NewRunLock(client, cfg.ReminderLockTTL, logger)
	}

	runOnce := func() {
		runCtx, runCancel := context.WithTimeout(ctx, 5*time.Minute)
		defer runCancel()

		if lock != nil {
			ok, err := lock.Acquire(runCtx)
			if err != nil {
				logger.Error("run lock acquire failed", "error", err)
				return
			}
			if !ok {
				logger.Info("another reminder run holds the lock, skipping")
				return
			}
			defer func() {
				if err := lock.Release(runCtx); err != nil {
					logger.Error("run lock release failed", "error", err)
				}
			}()
		}

		result, err := engine.ProcessAll(runCtx, time.Now(), cfg.ReminderDryRun)
		if err != nil {
			logger.Error("reminder batch failed", "error", err)
			return
		}
		logger.Info("reminder batch done",
			"sent", result.Sent, "skipped", result.Skipped, "errors", result.Errors)
	}

	runOnce()
	ticker := time.NewTicker(cfg.ReminderRunInterval)
	defer ticker.Stop()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			runOnce()
		case <-stop:
			logger.Info("reminder worker shutting down")
			cancel()
			return
		}
	}
}

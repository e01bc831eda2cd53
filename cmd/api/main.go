package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stillwater-counseling/practice-platform/cmd/mainconfig"
	"github.com/stillwater-counseling/practice-platform/internal/api/router"
	"github.com/stillwater-counseling/practice-platform/internal/appointments"
	appconfig "github.com/stillwater-counseling/practice-platform/internal/config"
	"github.com/stillwater-counseling/practice-platform/internal/contacts"
	"github.com/stillwater-counseling/practice-platform/internal/dashboard"
	"github.com/stillwater-counseling/practice-platform/internal/notify"
	"github.com/stillwater-counseling/practice-platform/internal/observability/metrics"
	"github.com/stillwater-counseling/practice-platform/internal/reminders"
	"github.com/stillwater-counseling/practice-platform/internal/schedule"
	"github.com/stillwater-counseling/practice-platform/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting practice-platform API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	if cfg.DatabaseURL == "" {
		logger.Error("DATABASE_URL is required")
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

	tz, err := schedule.NewNormalizer(cfg.BusinessTimezone)
	if err != nil {
		logger.Error("failed to load business timezone", "error", err, "tz", cfg.BusinessTimezone)
		os.Exit(1)
	}
	template := schedule.DefaultTemplate()
	slotDuration := time.Duration(cfg.SlotDurationMins) * time.Minute

	registry := prometheus.NewRegistry()
	schedMetrics := metrics.NewSchedulingMetrics(registry)

	repo := contacts.NewPostgresRepository(pool)
	ledger := appointments.NewPostgresLedger(pool, slotDuration)

	emailSender := mainconfig.BuildEmailSender(ctx, cfg, logger)
	smsSender := mainconfig.BuildSMSSender(cfg, logger)
	notifier := notify.NewService(emailSender, smsSender, notify.Config{
		PracticeName:     cfg.PracticeName,
		PracticeLocation: cfg.PracticeLocation,
		AdminEmail:       cfg.AdminEmail,
	}, logger)

	schedulingSvc := appointments.NewService(appointments.Deps{
		Repo:   repo,
		Ledger: ledger,
		TZ:     tz,
		Policy: schedule.NewPolicy(schedule.PolicyConfig{
			LeadTime:                 time.Duration(cfg.LeadTimeHours) * time.Hour,
			HorizonBusinessDays:      cfg.HorizonBusinessDays,
			SameDayExceptionWeekdays: cfg.SameDayExceptionWeekdays(),
			SlotDuration:             slotDuration,
		}, tz, template),
		Conflicts: schedule.NewConflictDetector(time.Duration(cfg.SlotToleranceSeconds) * time.Second),
		Generator: schedule.NewGenerator(tz, template, slotDuration),
		Notifier:  notifier,
		Metrics:   schedMetrics,
		Logger:    logger,
	})

	notificationStore := dashboard.NewStore(sqlDB)
	engine := reminders.NewEngine(repo, notifier, notificationStore, reminders.Thresholds{
		First:  cfg.FirstReminderAfter,
		Second: cfg.SecondReminderAfter,
		Final:  cfg.FinalReminderAfter,
	}, schedMetrics, logger)

	routerCfg := &router.Config{
		Logger:             logger,
		SchedulingHandler:  appointments.NewHandler(schedulingSvc, logger),
		RemindersHandler:   reminders.NewHandler(engine, nil, logger),
		DashboardHandler:   dashboard.NewHandler(notificationStore, logger),
		AdminAuthSecret:    cfg.AdminJWTSecret,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSOrigins(),
		PublicRateLimit:    5,
		PublicRateBurst:    20,
	}
	r := router.New(routerCfg)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

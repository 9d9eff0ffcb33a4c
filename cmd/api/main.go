package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/telehealth-platform/cmd/mainconfig"
	"github.com/wolfman30/telehealth-platform/internal/api/router"
	"github.com/wolfman30/telehealth-platform/internal/app/bootstrap"
	"github.com/wolfman30/telehealth-platform/internal/appointments"
	"github.com/wolfman30/telehealth-platform/internal/auth"
	"github.com/wolfman30/telehealth-platform/internal/chat"
	appconfig "github.com/wolfman30/telehealth-platform/internal/config"
	"github.com/wolfman30/telehealth-platform/internal/doctors"
	"github.com/wolfman30/telehealth-platform/internal/events"
	httpmiddleware "github.com/wolfman30/telehealth-platform/internal/http/middleware"
	"github.com/wolfman30/telehealth-platform/internal/notify"
	"github.com/wolfman30/telehealth-platform/internal/observability/metrics"
	"github.com/wolfman30/telehealth-platform/internal/reminders"
	"github.com/wolfman30/telehealth-platform/internal/users"
	"github.com/wolfman30/telehealth-platform/internal/video"
	"github.com/wolfman30/telehealth-platform/pkg/logging"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting telehealth API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := buildApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer a.close()

	a.startWorkers(ctx)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      a.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	<-ctx.Done()
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	if n := a.deliverer.Drain(shutdownCtx); n > 0 {
		logger.Info("drained outbox before exit", "delivered", n)
	}

	logger.Info("server stopped")
}

// app holds everything main needs after wiring.
type app struct {
	handler     http.Handler
	backend     string
	transcript  string
	doctors     *doctors.Service
	cleaner     *appointments.Cleaner
	dispatcher  *reminders.Dispatcher
	deliverer   *events.Deliverer
	rateLimiter *httpmiddleware.RateLimiter
	closers     []func()
}

func (a *app) startWorkers(ctx context.Context) {
	go a.cleaner.Start(ctx)
	go a.dispatcher.Start(ctx)
	go a.deliverer.Start(ctx)
	go a.rateLimiter.StartJanitor(ctx, 10*time.Minute)
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

// buildApp connects the configured backends and assembles services, workers
// and the HTTP router. Missing optional backends degrade to in-memory stores.
func buildApp(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (*app, error) {
	a := &app{}
	loc := cfg.Location()

	var (
		pool  *pgxpool.Pool
		sqlDB *sql.DB
	)
	if cfg.DatabaseURL != "" {
		db, err := bootstrap.OpenSQL(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		sqlDB = db
		a.closers = append(a.closers, func() { _ = db.Close() })
		if cfg.AutoMigrate {
			if err := bootstrap.RunMigrations(sqlDB, logger); err != nil {
				a.close()
				return nil, err
			}
		}
		pool = bootstrap.ConnectPostgresPool(ctx, cfg.DatabaseURL, logger)
		if pool == nil {
			a.close()
			return nil, errors.New("postgres pool unavailable")
		}
		a.closers = append(a.closers, pool.Close)
	}

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		a.closers = append(a.closers, func() { _ = redisClient.Close() })
	}

	var awsCfg *aws.Config
	if mainconfig.AWSEnabled(cfg) {
		loaded, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		awsCfg = &loaded
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	chatMetrics := metrics.NewChatMetrics(registry)
	schedulingMetrics := metrics.NewSchedulingMetrics(registry)

	repos := bootstrap.BuildRepositories(pool)
	a.backend = repos.Backend

	userSvc := users.NewService(repos.Users, logger)
	doctorSvc := doctors.NewService(repos.Doctors, logger)
	a.doctors = doctorSvc
	apptSvc := appointments.NewService(repos.Appointments, doctorSvc, logger,
		appointments.WithLocation(loc),
		appointments.WithPublisher(repos.Publisher),
		appointments.WithMetrics(schedulingMetrics))
	reminderSvc := reminders.NewService(repos.Reminders, repos.Publisher, logger)

	if cfg.SeedDoctors {
		seeded, err := doctorSvc.Seed(ctx, cfg.DoctorSeedPassword)
		if err != nil {
			a.close()
			return nil, err
		}
		if seeded > 0 {
			logger.Info("seeded doctor roster", "count", seeded)
		}
	}

	directory := bootstrap.Directory{Users: userSvc, Doctors: doctorSvc}
	notifier := notify.NewService(bootstrap.BuildEmailSender(cfg, awsCfg, logger), logger)

	transcript, transcriptKind := bootstrap.BuildTranscript(cfg, redisClient, sqlDB, logger)
	a.transcript = transcriptKind
	engineOpts := []chat.Option{
		chat.WithMetrics(chatMetrics),
		chat.WithActionTimeout(cfg.ChatActionTimeout),
	}
	if archiver := bootstrap.BuildArchiver(cfg, awsCfg, logger); archiver != nil {
		engineOpts = append(engineOpts, chat.WithArchiver(archiver))
	}
	engine := chat.NewEngine(chat.NewServiceGateway(userSvc, doctorSvc, apptSvc, reminderSvc), transcript, logger, engineOpts...)

	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTTTL)
	videoSvc := video.NewService(apptSvc, doctorSvc, video.NewJWTMinter(cfg.AgoraAppID, cfg.AgoraAppCertificate),
		cfg.AgoraAppID, cfg.VideoTokenTTL, logger)

	a.cleaner = appointments.NewCleaner(apptSvc, cfg.CleanupInterval, logger)
	a.dispatcher = reminders.NewDispatcher(reminderSvc, directory, notifier, logger,
		reminders.WithLedger(bootstrap.BuildReminderLedger(repos.Processed, redisClient)),
		reminders.WithDispatchLocation(loc),
		reminders.WithDispatchInterval(cfg.ReminderPollInterval),
		reminders.WithDispatchMetrics(schedulingMetrics),
		reminders.WithDispatchPublisher(repos.Publisher))
	a.deliverer = events.NewDeliverer(repos.Outbox, bootstrap.BuildEventHandler(cfg, awsCfg, notifier, directory, logger), logger).
		WithInterval(cfg.OutboxPollInterval)
	a.rateLimiter = httpmiddleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	a.handler = router.New(&router.Config{
		Logger:              logger,
		Verifier:            issuer,
		AuthHandler:         auth.NewHandler(userSvc, issuer, auth.NewGoogleVerifier(cfg.GoogleClientID), engine, logger),
		DoctorsHandler:      doctors.NewHandler(doctorSvc, issuer, logger),
		AppointmentsHandler: appointments.NewHandler(apptSvc, logger),
		RemindersHandler:    reminders.NewHandler(reminderSvc, logger),
		VideoHandler:        video.NewHandler(videoSvc, logger),
		ChatHandler:         chat.NewHandler(engine, issuer, cfg.CORSAllowedOrigins, logger),
		MetricsHandler:      promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		RateLimiter:         a.rateLimiter,
		CORSAllowedOrigins:  cfg.CORSAllowedOrigins,
		HealthChecks:        healthChecks(pool, redisClient),
	})

	logger.Info("application wired",
		"storage", a.backend,
		"transcript_store", a.transcript,
		"video_configured", videoSvc.Configured(),
	)
	return a, nil
}

func healthChecks(pool *pgxpool.Pool, redisClient *redis.Client) map[string]router.HealthCheck {
	checks := map[string]router.HealthCheck{}
	if pool != nil {
		checks["postgres"] = pool.Ping
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}
	return checks
}

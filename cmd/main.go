package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"admindash/internal/analytics"
	"admindash/internal/audit"
	"admindash/internal/auth"
	"admindash/internal/backend"
	"admindash/internal/config"
	"admindash/internal/daemon"
	"admindash/internal/i18n"
	"admindash/internal/logger"
	"admindash/internal/metrics"
	"admindash/internal/monitoring"
	"admindash/internal/ratelimit"
	"admindash/internal/store"
	"admindash/internal/users"
	"admindash/internal/validator"
	"admindash/internal/web"

	"golang.org/x/crypto/bcrypt"
)

func main() {
	if err := run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "admindash:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.NewConfig()

	// Telemetry first so the logger can bridge records into it
	tel, err := monitoring.NewOpenTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			fmt.Fprintln(os.Stderr, "telemetry shutdown:", err)
		}
	}()

	appLogger := logger.New(cfg)
	logger := appLogger.Logger

	translator := i18n.NewTranslator(i18n.EN)
	if err := translator.LoadTranslations(); err != nil {
		appLogger.WithError(err).Error("Failed to load translations")
	}

	passwordHash, err := adminPasswordHash(cfg.Auth)
	if err != nil {
		return err
	}
	dataService := backend.NewMock(logger, backend.MockOptions{
		Latency:     cfg.Backend.Latency,
		FailureRate: cfg.Backend.FailureRate,
	}, backend.Credentials{
		Username:     cfg.Auth.AdminUsername,
		PasswordHash: passwordHash,
	})

	registry := metrics.NewRegistry()
	recorder := store.Recorders{registry, tel}

	usersStore := users.NewStore(logger, dataService, recorder)
	analyticsStore := analytics.NewStore(logger, dataService, recorder, time.Now())
	sessions := auth.NewSessions(logger, dataService, recorder)

	var (
		loginLimiter ratelimit.Limiter = ratelimit.Noop{}
		sweepers     []daemon.Sweeper
	)
	if cfg.Security.RateLimitEnabled {
		limiter, redisClient, err := ratelimit.New(cfg.Redis.URL, cfg.Security.MaxLoginAttempts, cfg.Security.BlockDuration)
		if err != nil {
			return err
		}
		if redisClient != nil {
			defer redisClient.Close()
			if err := redisClient.Ping(ctx).Err(); err != nil {
				logger.Warn("Redis unreachable, login attempts are not limited until it recovers", "error", err)
			}
		}
		if sweeper, ok := limiter.(daemon.Sweeper); ok {
			sweepers = append(sweepers, sweeper)
		}
		loginLimiter = limiter
	}

	sessionStore, sessionStorage := web.NewSessionStore(cfg.Session)
	if sessionStorage != nil {
		defer sessionStorage.Close()
	}

	auditor := audit.NewAuditor(logger)

	app := web.NewApp(cfg, web.Dependencies{
		Logger:       logger,
		Translator:   translator,
		SessionStore: sessionStore,
		Sessions:     sessions,
		Users:        usersStore,
		Analytics:    analyticsStore,
		Validator:    validator.New(),
		Limiter:      loginLimiter,
		Auditor:      &auditor,
		Metrics:      registry,
		Logins:       tel,
	})

	manager := daemon.NewDaemonManager(logger)
	if cfg.Daemon.WarmUp {
		manager.Add("warm-up", daemon.WarmUpTask(usersStore, analyticsStore, logger))
	}
	manager.Add("analytics-refresh", daemon.AnalyticsRefreshTask(analyticsStore, cfg.Daemon.AnalyticsRefreshInterval, logger))
	manager.Add("session-cleanup", daemon.CleanupTask(sessions, sweepers, daemon.CleanupOptions{
		Interval: cfg.Daemon.SessionCleanupInterval,
		MaxIdle:  cfg.Daemon.SessionMaxIdle,
		Observe: func(n int) {
			registry.AuthSessions.Set(float64(n))
		},
	}, logger))

	logger.Info("Starting supervised daemons...")
	manager.Start(ctx)

	serverErr := make(chan error, 1)
	go func() {
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		logger.Info("Starting HTTP server...", "addr", addr, "environment", cfg.Server.Environment)
		serverErr <- app.Listen(addr)
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		appLogger.WithError(err).Error("Error shutting down HTTP server")
	}

	manager.Wait()
	logger.Info("All daemons stopped")

	return nil
}

// adminPasswordHash prefers a preconfigured bcrypt hash over hashing the
// plain password at startup.
func adminPasswordHash(cfg config.AuthConfig) ([]byte, error) {
	if cfg.AdminPasswordHash != "" {
		if _, err := bcrypt.Cost([]byte(cfg.AdminPasswordHash)); err != nil {
			return nil, fmt.Errorf("invalid ADMIN_PASSWORD_HASH: %w", err)
		}
		return []byte(cfg.AdminPasswordHash), nil
	}
	if cfg.AdminPassword == "" {
		return nil, errors.New("either ADMIN_PASSWORD or ADMIN_PASSWORD_HASH must be set")
	}
	return backend.HashPassword(cfg.AdminPassword, bcrypt.DefaultCost)
}

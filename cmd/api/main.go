package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/uptimatum/internal/config"
	"github.com/hamed0406/uptimatum/internal/httpapi"
	apimw "github.com/hamed0406/uptimatum/internal/httpapi/middleware"
	"github.com/hamed0406/uptimatum/internal/logging"
	"github.com/hamed0406/uptimatum/internal/notify"
	"github.com/hamed0406/uptimatum/internal/probe"
	"github.com/hamed0406/uptimatum/internal/recorder"
	"github.com/hamed0406/uptimatum/internal/repo"
	"github.com/hamed0406/uptimatum/internal/repo/memory"
	"github.com/hamed0406/uptimatum/internal/repo/postgres"
	"github.com/hamed0406/uptimatum/internal/retention"
	"github.com/hamed0406/uptimatum/internal/scheduler"
)

func main() {
	loaded := config.LoadDotEnv()
	cfg := config.FromEnv()
	logger, err := logging.NewLogger(logging.Options{
		Dir:    cfg.LogDir,
		Level:  cfg.LogLevel,
		Stdout: cfg.LogStdout,
	})
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()
	if len(loaded) > 0 {
		logger.Info("dotenv_loaded", zap.Strings("files", loaded))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("store_open_failed", zap.Error(err))
	}
	defer closeStore()

	if cfg.SeedDemoData {
		seeded, err := repo.SeedDemo(ctx, store, store)
		if err != nil {
			logger.Error("seed_failed", zap.Error(err))
		} else if seeded {
			logger.Info("seed_demo_data")
		}
	}

	var notifier notify.Notifier = notify.Nop{}
	if slack := notify.NewSlack(cfg.SlackWebhookURL); slack != nil {
		notifier = notify.Multi{slack}
	}

	var checker probe.Checker = probe.NewHTTPChecker()
	if cfg.DNSDiagnostics {
		resolver, err := probe.NewResolver(cfg.DNSServer, probe.DefaultDNSLimit)
		if err != nil {
			logger.Warn("dns_diagnostics_disabled", zap.Error(err))
		} else {
			checker = &probe.DNSDiagnosing{Inner: checker, Resolver: resolver}
		}
	}

	sched := scheduler.New(logger, store, checker,
		recorder.NewWriter(store, cfg.CoalesceThreshold),
		scheduler.Config{
			Interval:          cfg.TickInterval,
			MaxConcurrent:     cfg.MaxConcurrentChecks,
			RetentionSchedule: cfg.RetentionSchedule,
			Sweeper:           retention.NewSweeper(store, cfg.RetentionDays, logger),
			Alerter: scheduler.NewAlerter(notifier, scheduler.AlerterConfig{
				AlertOnRecovery: cfg.AlertOnRecovery,
				Cooldown:        cfg.AlertCooldown,
			}, logger),
		},
	)
	if err := sched.Start(ctx); err != nil {
		logger.Fatal("scheduler_start_failed", zap.Error(err))
	}

	api := httpapi.NewServer(logger, store)
	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: api.Router(httpapi.Options{
			Keys:           apimw.Keys{Public: cfg.PublicAPIKeys, Admin: cfg.AdminAPIKeys},
			AllowedOrigins: cfg.AllowedOrigins,
			PublicRPM:      cfg.PublicRPM,
			PublicBurst:    cfg.PublicBurst,
			AdminRPM:       cfg.AdminRPM,
			AdminBurst:     cfg.AdminBurst,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("api_listen", zap.String("addr", cfg.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown_signal")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_listen_error", zap.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("api_shutdown_error", zap.Error(err))
	}
	if err := sched.Stop(shutdownCtx); err != nil {
		logger.Warn("scheduler_stop_error", zap.Error(err))
	}
	logger.Info("shutdown_complete")
}

// openStore returns the postgres store when DATABASE_URL is set and the
// in-memory store otherwise.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (repo.Store, func(), error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("store_in_memory", zap.String("reason", "DATABASE_URL not set"))
		return memory.New(), func() {}, nil
	}
	pg, err := postgres.Open(ctx, cfg.DatabaseURL, logger, postgres.DefaultOptions())
	if err != nil {
		return nil, nil, err
	}
	if err := pg.Migrate(ctx); err != nil {
		_ = pg.Close()
		return nil, nil, err
	}
	return pg, func() {
		if err := pg.Close(); err != nil {
			logger.Warn("store_close_error", zap.Error(err))
		}
	}, nil
}

package command

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/urfave/cli/v2"

	"github.com/SteffenDE/connect-cloudant-store/internal/infra/confloader"
	"github.com/SteffenDE/connect-cloudant-store/internal/infra/shutdown"
	"github.com/SteffenDE/connect-cloudant-store/internal/telemetry/logger"
	"github.com/SteffenDE/connect-cloudant-store/internal/telemetry/metric"
)

// shutdownTimeout bounds the drain of in-flight work on exit.
const shutdownTimeout = 15 * time.Second

// RunCommand returns the long-running cleanup daemon command.
func RunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run scheduled cleanups and serve Prometheus metrics",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "schedule",
				Usage:   "Cron expression for the cleanup sweep",
				EnvVars: []string{"CLOUDANT_SESSIONS_CLEANUP_SCHEDULE"},
			},
			&cli.StringFlag{
				Name:    "metrics-addr",
				Usage:   "Listen address for the /metrics endpoint",
				EnvVars: []string{"CLOUDANT_SESSIONS_METRICS_ADDRESS"},
			},
		},
		Action: runDaemon,
	}
}

func runDaemon(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.IsSet("schedule") {
		cfg.Cleanup.Schedule = c.String("schedule")
	}
	if c.IsSet("metrics-addr") {
		cfg.Metrics.Address = c.String("metrics-addr")
	}

	log := newLogger(cfg)
	registry := metric.NewRegistry()

	store, err := buildStore(cfg, log, registry)
	if err != nil {
		return err
	}

	log.Info("starting cloudant-sessions daemon",
		"schedule", cfg.Cleanup.Schedule,
		"metrics_addr", cfg.Metrics.Address,
		"database", cfg.Store.Database)

	// An unreachable store at startup is reported but not fatal; the
	// scheduled sweeps keep probing through their own calls.
	probeCtx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	if err := store.CheckConnection(probeCtx); err != nil {
		log.Warn("store not reachable at startup", "error", err)
	}
	cancel()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Cleanup.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()

		if _, err := store.CleanupExpired(ctx); err != nil {
			log.Error("scheduled cleanup failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("invalid cleanup schedule %q: %w", cfg.Cleanup.Schedule, err)
	}
	scheduler.Start()

	mux := http.NewServeMux()
	mux.Handle("/metrics", registry.Handler())
	srv := &http.Server{Addr: cfg.Metrics.Address, Handler: mux}

	go func() {
		log.Info("metrics endpoint listening", "addr", cfg.Metrics.Address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server failed", "error", err)
		}
	}()

	handler := shutdown.NewHandler(shutdownTimeout)
	handler.OnShutdown(func(ctx context.Context) error {
		log.Info("stopping cleanup scheduler")
		select {
		case <-scheduler.Stop().Done():
		case <-ctx.Done():
			return ctx.Err()
		}
		return nil
	})
	handler.OnShutdown(func(ctx context.Context) error {
		log.Info("shutting down metrics server")
		return srv.Shutdown(ctx)
	})

	if path := c.String("config"); path != "" {
		watcher, err := watchLogLevel(path, log)
		if err != nil {
			log.Warn("config watcher disabled", "error", err)
		} else {
			handler.OnShutdown(func(context.Context) error {
				return watcher.Stop()
			})
		}
	}

	return handler.Wait()
}

// watchLogLevel reloads the log level when the config file changes.
// Other settings require a restart.
func watchLogLevel(path string, log *slog.Logger) (*confloader.Watcher, error) {
	watcher, err := confloader.NewWatcher(confloader.WithWatcherLogger(log))
	if err != nil {
		return nil, err
	}
	if err := watcher.Watch(path); err != nil {
		return nil, err
	}

	watcher.OnChange(func(changed string) {
		cfg, err := loadConfigFrom(changed, nil)
		if err != nil {
			log.Warn("config reload failed", "path", changed, "error", err)
			return
		}
		if cfg.Log.Level != "" && cfg.Log.Level != logger.GetLevel() {
			logger.SetLevel(cfg.Log.Level)
			log.Info("log level changed", "level", cfg.Log.Level)
		}
	})
	watcher.StartAsync()

	return watcher, nil
}

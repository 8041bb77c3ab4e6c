// Package command provides CLI command definitions for cloudant-sessions.
package command

import (
	"encoding/hex"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v2"

	cloudantstore "github.com/SteffenDE/connect-cloudant-store"
	"github.com/SteffenDE/connect-cloudant-store/docstore/couchdb"
	"github.com/SteffenDE/connect-cloudant-store/internal/infra/buildinfo"
	"github.com/SteffenDE/connect-cloudant-store/internal/telemetry/logger"
	"github.com/SteffenDE/connect-cloudant-store/internal/telemetry/metric"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "cloudant-sessions",
		Usage:   "Session store maintenance tool for CouchDB/Cloudant",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			CleanupCommand(),
			CheckCommand(),
			RunCommand(),
		},
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to YAML configuration file",
			EnvVars: []string{"CLOUDANT_SESSIONS_CONFIG"},
		},
		&cli.StringFlag{
			Name:    "url",
			Usage:   "CouchDB/Cloudant server URL (credentials included if needed)",
			EnvVars: []string{"CLOUDANT_SESSIONS_STORE_URL"},
		},
		&cli.StringFlag{
			Name:    "database",
			Aliases: []string{"d"},
			Usage:   "Database holding the session documents",
			EnvVars: []string{"CLOUDANT_SESSIONS_STORE_DATABASE"},
		},
		&cli.StringFlag{
			Name:    "log-level",
			Usage:   "Log level: debug, info, warn, error",
			EnvVars: []string{"CLOUDANT_SESSIONS_LOG_LEVEL"},
		},
		&cli.StringFlag{
			Name:    "log-format",
			Usage:   "Log format: json, text",
			EnvVars: []string{"CLOUDANT_SESSIONS_LOG_FORMAT"},
		},
	}
}

// loadConfig merges configuration for a command invocation: defaults,
// then the config file, then environment, then explicit flags.
func loadConfig(c *cli.Context) (Config, error) {
	overrides := map[string]any{}
	if c.IsSet("url") {
		overrides["store.url"] = c.String("url")
	}
	if c.IsSet("database") {
		overrides["store.database"] = c.String("database")
	}
	if c.IsSet("log-level") {
		overrides["log.level"] = c.String("log-level")
	}
	if c.IsSet("log-format") {
		overrides["log.format"] = c.String("log-format")
	}

	return loadConfigFrom(c.String("config"), overrides)
}

// newLogger builds the process logger from the merged configuration.
func newLogger(cfg Config) *slog.Logger {
	lc := logger.DefaultConfig()
	if cfg.Log.Level != "" {
		lc.Level = cfg.Log.Level
	}
	if cfg.Log.Format != "" {
		lc.Format = cfg.Log.Format
	}
	return logger.New(lc)
}

// buildStore dials the document store and wraps it in a session store.
func buildStore(cfg Config, log *slog.Logger, metrics *metric.Registry) (*cloudantstore.Store, error) {
	if cfg.Store.URL == "" || cfg.Store.Database == "" {
		return nil, fmt.Errorf("store.url and store.database are required (set flags, %sSTORE_URL, or a config file)", envPrefix)
	}

	client, err := couchdb.New(couchdb.Config{
		URL:        cfg.Store.URL,
		Database:   cfg.Store.Database,
		RootCAFile: cfg.Store.RootCAFile,
	})
	if err != nil {
		return nil, fmt.Errorf("dial store: %w", err)
	}

	opts := cloudantstore.Options{
		Client:               client,
		KeyPrefix:            cfg.Store.KeyPrefix,
		DefaultTTL:           cfg.Store.DefaultTTL,
		DisableTTLRefresh:    cfg.Store.DisableTTLRefresh,
		MaxExpiredPerCleanup: cfg.Cleanup.Batch,
		Logger:               log,
		Metrics:              metrics,
	}
	if cfg.Store.EncryptionKey != "" {
		key, err := hex.DecodeString(cfg.Store.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("store.encryption_key: not a hex string: %w", err)
		}
		opts.EncryptionKey = key
	}

	return cloudantstore.New(opts)
}

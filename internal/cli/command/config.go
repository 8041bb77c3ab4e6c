package command

import (
	"fmt"

	"github.com/SteffenDE/connect-cloudant-store/internal/infra/confloader"
)

const envPrefix = confloader.DefaultEnvPrefix

// Config is the merged CLI configuration.
type Config struct {
	Store   StoreConfig   `koanf:"store"`
	Cleanup CleanupConfig `koanf:"cleanup"`
	Metrics MetricsConfig `koanf:"metrics"`
	Log     LogConfig     `koanf:"log"`
}

// StoreConfig locates and tunes the session document store.
type StoreConfig struct {
	URL               string `koanf:"url"`
	Database          string `koanf:"database"`
	KeyPrefix         string `koanf:"prefix"`
	DefaultTTL        int64  `koanf:"ttl"`
	DisableTTLRefresh bool   `koanf:"norefresh"`

	// EncryptionKey is a hex-encoded 32-byte key. When set, session
	// payloads are sealed at rest.
	EncryptionKey string `koanf:"key"`

	// RootCAFile adds a PEM CA bundle for HTTPS endpoints with
	// private roots.
	RootCAFile string `koanf:"cafile"`
}

// CleanupConfig tunes the expired-session sweep.
type CleanupConfig struct {
	// Schedule is a cron expression for the run command
	// (e.g. "@every 5m").
	Schedule string `koanf:"schedule"`

	// Batch bounds how many expired sessions one sweep removes.
	Batch int `koanf:"batch"`
}

// MetricsConfig configures the Prometheus endpoint of the run command.
type MetricsConfig struct {
	Address string `koanf:"address"`
}

// LogConfig configures process logging.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// defaults returns the built-in configuration values.
func defaults() map[string]any {
	return map[string]any{
		"cleanup.schedule": "@every 5m",
		"metrics.address":  ":2112",
		"log.level":        "info",
		"log.format":       "json",
	}
}

// loadConfigFrom merges defaults, the optional YAML file at path,
// CLOUDANT_SESSIONS_* environment variables, and explicit overrides,
// in that order of precedence.
func loadConfigFrom(path string, overrides map[string]any) (Config, error) {
	l := confloader.NewLoader()

	if err := l.LoadMap(defaults()); err != nil {
		return Config{}, err
	}
	if path != "" {
		if err := l.LoadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := l.LoadEnv(); err != nil {
		return Config{}, err
	}
	if len(overrides) > 0 {
		if err := l.LoadMap(overrides); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := l.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

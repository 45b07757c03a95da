package cli

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/turnstile/internal/ledger"
)

// Config is the optional YAML configuration file. Flags override it.
type Config struct {
	// Database is the SQLite path used when --db is not given.
	Database string `yaml:"database"`

	// LogLevel is debug, info, warn, or error. --verbose forces debug.
	LogLevel string `yaml:"log_level"`

	// DefaultPolicy is the check-in policy for "event create" without
	// --policy.
	DefaultPolicy string `yaml:"default_policy"`

	// Currency is the currency for "event create" without --currency.
	Currency string `yaml:"currency"`
}

// LoadConfig reads a config file. Unknown keys are errors.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if _, err := parseLevel(cfg.LogLevel); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if _, err := ledger.ParseCheckInPolicy(cfg.DefaultPolicy); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &cfg, nil
}

// parseLevel maps a level name to slog. Empty means info.
func parseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(name) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", name)
	}
}

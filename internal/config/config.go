// Package config loads the runtime configuration of an autonomous run.
//
// Values are applied in order: defaults, then an optional YAML file, then
// AUTOPLAN_* environment variables.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	yaml "go.yaml.in/yaml/v3"

	"github.com/petrijr/autoplan/internal/logging"
	"github.com/petrijr/autoplan/pkg/alliance"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "AUTOPLAN_"

var ErrInvalidConfig = errors.New("autoplan: invalid config")

type Config struct {
	// Plan names the routine to run.
	Plan string `yaml:"plan" env:"PLAN"`
	// Alliance selects the side; red mirrors the plan.
	Alliance alliance.Side `yaml:"alliance" env:"ALLIANCE"`
	// TickInterval is the control loop period.
	TickInterval time.Duration `yaml:"tick_interval" env:"TICK_INTERVAL"`

	Log       LogConfig       `yaml:"log" envPrefix:"LOG_"`
	Telemetry TelemetryConfig `yaml:"telemetry" envPrefix:"TELEMETRY_"`
	EventLog  EventLogConfig  `yaml:"event_log" envPrefix:"EVENT_LOG_"`
	Metrics   MetricsConfig   `yaml:"metrics" envPrefix:"METRICS_"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

type TelemetryConfig struct {
	// RatePerSec caps published telemetry frames per second.
	RatePerSec int `yaml:"rate_per_sec" env:"RATE_PER_SEC"`
}

type EventLogConfig struct {
	// Driver is none, memory, sqlite, postgres, redis or mongo.
	Driver string `yaml:"driver" env:"DRIVER"`
	DSN    string `yaml:"dsn" env:"DSN"`
	Prefix string `yaml:"prefix" env:"PREFIX"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled" env:"ENABLED"`
	Addr      string `yaml:"addr" env:"ADDR"`
	Namespace string `yaml:"namespace" env:"NAMESPACE"`
}

func Default() Config {
	return Config{
		Alliance:     alliance.Blue,
		TickInterval: 20 * time.Millisecond,
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Telemetry: TelemetryConfig{RatePerSec: 4},
		EventLog: EventLogConfig{
			Driver: "none",
			Prefix: "autoplan:",
		},
		Metrics: MetricsConfig{
			Addr:      ":9090",
			Namespace: "autoplan",
		},
	}
}

// Load reads path (if not empty), applies environment overrides and
// validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := decodeYAML(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%s: %w", path, err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("env overrides: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("yaml unmarshal: %w", err)
	}
	return nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.Alliance != alliance.Blue && c.Alliance != alliance.Red {
		add("alliance: %s", c.Alliance)
	}
	if c.TickInterval <= 0 {
		add("tick_interval must be > 0, got %s", c.TickInterval)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		add("log.level: %v", err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "", "text", "json":
	default:
		add("log.format %q: want text or json", c.Log.Format)
	}
	if c.Telemetry.RatePerSec <= 0 {
		add("telemetry.rate_per_sec must be > 0, got %d", c.Telemetry.RatePerSec)
	}

	switch c.EventLog.Driver {
	case "", "none", "memory", "sqlite", "redis":
	case "postgres", "mongo":
		if c.EventLog.DSN == "" {
			add("event_log.dsn is required for driver %q", c.EventLog.Driver)
		}
	default:
		add("event_log.driver %q: want none, memory, sqlite, postgres, redis or mongo", c.EventLog.Driver)
	}

	if c.Metrics.Enabled && c.Metrics.Addr == "" {
		add("metrics.addr is required when metrics are enabled")
	}
	return errors.Join(errs...)
}

// LoggingOptions adapts the log section for logging.New.
func (c Config) LoggingOptions() logging.Options {
	return logging.Options{Level: c.Log.Level, Format: c.Log.Format}
}

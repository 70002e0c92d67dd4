// Package config loads and validates the moondial YAML configuration.
//
// Loading runs in a fixed order: .env files, ${VAR} expansion, YAML decode,
// version check, normalization, defaults, validation.
package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	derrors "git.home.luguber.info/inful/moondial/internal/foundation/errors"
)

// CurrentVersion is the only configuration version this build understands.
const CurrentVersion = "1.0"

// Config is the root of moondial.yaml.
type Config struct {
	Version    string           `yaml:"version"`
	Dial       DialConfig       `yaml:"dial"`
	Storage    StorageConfig    `yaml:"storage"`
	NATS       NATSConfig       `yaml:"nats"`
	HTTP       HTTPConfig       `yaml:"http"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// DialConfig controls how the dial is driven.
type DialConfig struct {
	// Location is an IANA zone name used to decide calendar days and the
	// wall-clock compensation of the lunar age. "Local" uses the host zone.
	Location string `yaml:"location"`
	// TickInterval is how often the clock tick fires (Go duration).
	TickInterval string `yaml:"tick_interval"`
}

// StorageConfig selects the persisted angle slot and the update journal.
type StorageConfig struct {
	Backend     StorageBackend `yaml:"backend"`
	AngleFile   string         `yaml:"angle_file"`
	JournalPath string         `yaml:"journal_path"`
}

// NATSConfig is shared by the KV angle slot and the reading publisher.
type NATSConfig struct {
	URL     string    `yaml:"url"`
	Bucket  string    `yaml:"bucket"`
	Key     string    `yaml:"key"`
	Publish bool      `yaml:"publish"`
	Subject string    `yaml:"subject"`
	Timeout string    `yaml:"timeout"`
	Retry   NATSRetry `yaml:"retry"`
}

// NATSRetry controls how connecting to NATS is retried at startup.
type NATSRetry struct {
	Backoff  RetryBackoffMode `yaml:"backoff"`
	Initial  string           `yaml:"initial"`
	Max      string           `yaml:"max"`
	Attempts int              `yaml:"attempts"`
}

// HTTPConfig configures the status server.
type HTTPConfig struct {
	Disabled       bool   `yaml:"disabled"`
	Addr           string `yaml:"addr"`
	MaxConnections int    `yaml:"max_connections"`
}

// MonitoringConfig represents monitoring and observability configuration.
type MonitoringConfig struct {
	Metrics MonitoringMetrics `yaml:"metrics"`
	Health  MonitoringHealth  `yaml:"health"`
	Logging MonitoringLogging `yaml:"logging"`
}

// MonitoringMetrics represents metrics configuration.
type MonitoringMetrics struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// MonitoringHealth represents health check configuration.
type MonitoringHealth struct {
	Path string `yaml:"path"`
}

// MonitoringLogging represents logging configuration.
type MonitoringLogging struct {
	Level  LogLevel  `yaml:"level"`
	Format LogFormat `yaml:"format"`
}

// Interval returns the parsed tick interval. Call after Load.
func (d DialConfig) Interval() time.Duration {
	v, err := time.ParseDuration(d.TickInterval)
	if err != nil || v <= 0 {
		return defaultTickInterval
	}
	return v
}

// LoadLocation resolves the configured zone.
func (d DialConfig) LoadLocation() (*time.Location, error) {
	if d.Location == "" || d.Location == "Local" {
		return time.Local, nil
	}
	return time.LoadLocation(d.Location)
}

// RequestTimeout returns the per-request NATS timeout.
func (n NATSConfig) RequestTimeout() time.Duration {
	v, err := time.ParseDuration(n.Timeout)
	if err != nil || v <= 0 {
		return defaultNATSTimeout
	}
	return v
}

// InitialDelay returns the first retry delay.
func (r NATSRetry) InitialDelay() time.Duration {
	v, err := time.ParseDuration(r.Initial)
	if err != nil || v <= 0 {
		return defaultRetryInitial
	}
	return v
}

// MaxDelay returns the cap on retry delays.
func (r NATSRetry) MaxDelay() time.Duration {
	v, err := time.ParseDuration(r.Max)
	if err != nil || v <= 0 {
		return defaultRetryMax
	}
	return v
}

// Load reads, normalizes, defaults and validates the file at configPath.
// Normalization warnings are returned alongside the config.
func Load(configPath string) (*Config, []string, error) {
	loadEnvFiles(filepath.Dir(configPath))

	// #nosec G304 - path is chosen by the operator
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, derrors.ConfigError("configuration file not found").
				WithContext("path", configPath).Build()
		}
		return nil, nil, derrors.WrapError(err, derrors.CategoryConfig, "failed to read config file").
			Fatal().WithContext("path", configPath).Build()
	}

	return Parse(data)
}

// Parse decodes configuration bytes after ${VAR} expansion and runs the full
// normalize/defaults/validate pipeline.
func Parse(data []byte) (*Config, []string, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, nil, derrors.WrapError(err, derrors.CategoryConfig, "failed to unmarshal config").
			Fatal().UserAction().Build()
	}

	if cfg.Version != CurrentVersion {
		return nil, nil, derrors.ConfigError("unsupported configuration version").
			WithContext("version", cfg.Version).
			WithContext("expected", CurrentVersion).Build()
	}

	res := NormalizeConfig(&cfg)
	ApplyDefaults(&cfg)

	if err := ValidateConfig(&cfg); err != nil {
		return nil, nil, err
	}
	return &cfg, res.Warnings, nil
}

// Default returns a fully defaulted configuration, as used when no file is given.
func Default() *Config {
	cfg := &Config{Version: CurrentVersion}
	ApplyDefaults(cfg)
	return cfg
}

// Init writes an example configuration file.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return derrors.ValidationError("configuration file already exists (use --force to overwrite)").
			WithContext("path", configPath).Build()
	}

	example := Config{
		Version: CurrentVersion,
		Dial: DialConfig{
			Location:     "Local",
			TickInterval: "1m",
		},
		Storage: StorageConfig{
			Backend:     StorageBackendFile,
			AngleFile:   "./moondial-angle",
			JournalPath: "./moondial-journal.db",
		},
		NATS: NATSConfig{
			URL:     "${NATS_URL}",
			Bucket:  "moondial",
			Key:     "angle",
			Subject: "moondial.readings",
			Timeout: "2s",
			Retry: NATSRetry{
				Backoff:  RetryBackoffExponential,
				Initial:  "500ms",
				Max:      "5s",
				Attempts: 3,
			},
		},
		HTTP: HTTPConfig{
			Addr:           ":8095",
			MaxConnections: 64,
		},
		Monitoring: MonitoringConfig{
			Metrics: MonitoringMetrics{Enabled: true, Path: "/metrics"},
			Health:  MonitoringHealth{Path: "/health"},
			Logging: MonitoringLogging{Level: LogLevelInfo, Format: LogFormatText},
		},
	}

	data, err := yaml.Marshal(&example)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryInternal, "failed to marshal example config").Build()
	}
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return derrors.WrapError(err, derrors.CategoryConfig, "failed to write config file").
			WithContext("path", configPath).Build()
	}
	return nil
}

package config

import (
	"strings"
	"time"

	derrors "git.home.luguber.info/inful/moondial/internal/foundation/errors"
)

const minTickInterval = time.Second

// ValidateConfig checks a normalized, defaulted configuration.
func ValidateConfig(cfg *Config) error {
	validators := []func(*Config) error{
		validateDial,
		validateStorage,
		validateNATS,
		validateMonitoring,
	}
	for _, v := range validators {
		if err := v(cfg); err != nil {
			return err
		}
	}
	return nil
}

func validateDial(cfg *Config) error {
	d, err := time.ParseDuration(cfg.Dial.TickInterval)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryValidation, "invalid dial.tick_interval").
			Fatal().UserAction().WithContext("value", cfg.Dial.TickInterval).Build()
	}
	if d < minTickInterval {
		return derrors.ValidationError("dial.tick_interval must be at least 1s").
			WithContext("value", cfg.Dial.TickInterval).Build()
	}
	if _, err := cfg.Dial.LoadLocation(); err != nil {
		return derrors.WrapError(err, derrors.CategoryValidation, "unknown dial.location").
			Fatal().UserAction().WithContext("value", cfg.Dial.Location).Build()
	}
	return nil
}

func validateStorage(cfg *Config) error {
	switch cfg.Storage.Backend {
	case StorageBackendFile:
		if strings.TrimSpace(cfg.Storage.AngleFile) == "" {
			return derrors.ValidationError("storage.angle_file is required for the file backend").Build()
		}
	case StorageBackendNATS, StorageBackendMemory:
	default:
		return derrors.ValidationError("unsupported storage.backend").
			WithContext("value", string(cfg.Storage.Backend)).Build()
	}
	return nil
}

func validateNATS(cfg *Config) error {
	usesNATS := cfg.Storage.Backend == StorageBackendNATS || cfg.NATS.Publish
	if !usesNATS {
		return nil
	}
	n := cfg.NATS
	if n.URL == "" {
		return derrors.ValidationError("nats.url is required").Build()
	}
	if cfg.Storage.Backend == StorageBackendNATS && (n.Bucket == "" || n.Key == "") {
		return derrors.ValidationError("nats.bucket and nats.key are required for the nats backend").Build()
	}
	if n.Publish && n.Subject == "" {
		return derrors.ValidationError("nats.subject is required when publishing").Build()
	}
	if _, err := time.ParseDuration(n.Timeout); err != nil {
		return derrors.WrapError(err, derrors.CategoryValidation, "invalid nats.timeout").
			Fatal().UserAction().WithContext("value", n.Timeout).Build()
	}
	return validateNATSRetry(n.Retry)
}

func validateNATSRetry(r NATSRetry) error {
	for field, raw := range map[string]string{"nats.retry.initial": r.Initial, "nats.retry.max": r.Max} {
		if _, err := time.ParseDuration(raw); err != nil {
			return derrors.WrapError(err, derrors.CategoryValidation, "invalid "+field).
				Fatal().UserAction().WithContext("value", raw).Build()
		}
	}
	if r.Attempts < 1 {
		return derrors.ValidationError("nats.retry.attempts must be at least 1").
			WithContext("value", r.Attempts).Build()
	}
	return nil
}

func validateMonitoring(cfg *Config) error {
	for field, path := range map[string]string{
		"monitoring.metrics.path": cfg.Monitoring.Metrics.Path,
		"monitoring.health.path":  cfg.Monitoring.Health.Path,
	} {
		if !strings.HasPrefix(path, "/") {
			return derrors.ValidationError(field + " must start with '/'").
				WithContext("value", path).Build()
		}
	}
	if cfg.Monitoring.Metrics.Enabled && cfg.Monitoring.Metrics.Path == cfg.Monitoring.Health.Path {
		return derrors.ValidationError("metrics and health endpoints must use different paths").Build()
	}
	return nil
}

package config

import "time"

const (
	defaultTickInterval = time.Minute
	defaultNATSTimeout  = 2 * time.Second
	defaultRetryInitial = 500 * time.Millisecond
	defaultRetryMax     = 5 * time.Second
	defaultRetryAttempt = 3
)

// DefaultApplier fills unset fields of one configuration section.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config)
	Domain() string
}

type dialDefaults struct{}

func (dialDefaults) Domain() string { return "dial" }

func (dialDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Dial.Location == "" {
		cfg.Dial.Location = "Local"
	}
	if cfg.Dial.TickInterval == "" {
		cfg.Dial.TickInterval = defaultTickInterval.String()
	}
}

type storageDefaults struct{}

func (storageDefaults) Domain() string { return "storage" }

func (storageDefaults) ApplyDefaults(cfg *Config) {
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = StorageBackendFile
	}
	if cfg.Storage.AngleFile == "" {
		cfg.Storage.AngleFile = "./moondial-angle"
	}
}

type natsDefaults struct{}

func (natsDefaults) Domain() string { return "nats" }

func (natsDefaults) ApplyDefaults(cfg *Config) {
	n := &cfg.NATS
	if n.URL == "" {
		n.URL = "nats://127.0.0.1:4222"
	}
	if n.Bucket == "" {
		n.Bucket = "moondial"
	}
	if n.Key == "" {
		n.Key = "angle"
	}
	if n.Subject == "" {
		n.Subject = "moondial.readings"
	}
	if n.Timeout == "" {
		n.Timeout = defaultNATSTimeout.String()
	}
	if n.Retry.Backoff == "" {
		n.Retry.Backoff = RetryBackoffExponential
	}
	if n.Retry.Initial == "" {
		n.Retry.Initial = defaultRetryInitial.String()
	}
	if n.Retry.Max == "" {
		n.Retry.Max = defaultRetryMax.String()
	}
	if n.Retry.Attempts == 0 {
		n.Retry.Attempts = defaultRetryAttempt
	}
}

type httpDefaults struct{}

func (httpDefaults) Domain() string { return "http" }

func (httpDefaults) ApplyDefaults(cfg *Config) {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8095"
	}
}

type monitoringDefaults struct{}

func (monitoringDefaults) Domain() string { return "monitoring" }

func (monitoringDefaults) ApplyDefaults(cfg *Config) {
	m := &cfg.Monitoring
	if m.Metrics.Path == "" {
		m.Metrics.Path = "/metrics"
	}
	if m.Health.Path == "" {
		m.Health.Path = "/health"
	}
	if m.Logging.Level == "" {
		m.Logging.Level = LogLevelInfo
	}
	if m.Logging.Format == "" {
		m.Logging.Format = LogFormatText
	}
}

var defaultAppliers = []DefaultApplier{
	dialDefaults{},
	storageDefaults{},
	natsDefaults{},
	httpDefaults{},
	monitoringDefaults{},
}

// ApplyDefaults fills every unset field that has a default.
func ApplyDefaults(cfg *Config) {
	for _, a := range defaultAppliers {
		a.ApplyDefaults(cfg)
	}
}

package config

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/moondial/internal/foundation/normalization"
)

// NormalizationResult captures coercions applied before defaults.
type NormalizationResult struct {
	Warnings []string
}

// NormalizeConfig canonicalizes enumerated and bounded fields in place.
func NormalizeConfig(c *Config) *NormalizationResult {
	res := &NormalizationResult{}
	c.Storage.Backend = normalizeEnum(res, "storage.backend", c.Storage.Backend, storageBackendNormalizer)
	c.Monitoring.Logging.Level = normalizeEnum(res, "monitoring.logging.level", c.Monitoring.Logging.Level, logLevelNormalizer)
	c.Monitoring.Logging.Format = normalizeEnum(res, "monitoring.logging.format", c.Monitoring.Logging.Format, logFormatNormalizer)
	c.NATS.Retry.Backoff = normalizeEnum(res, "nats.retry.backoff", c.NATS.Retry.Backoff, retryBackoffNormalizer)

	c.Dial.Location = strings.TrimSpace(c.Dial.Location)
	c.Dial.TickInterval = strings.TrimSpace(c.Dial.TickInterval)
	if c.HTTP.MaxConnections < 0 {
		res.Warnings = append(res.Warnings, warnChanged("http.max_connections", c.HTTP.MaxConnections, 0))
		c.HTTP.MaxConnections = 0
	}
	return res
}

// normalizeEnum leaves empty values for defaults to fill.
func normalizeEnum[T ~string](res *NormalizationResult, field string, raw T, n *normalization.Normalizer[T]) T {
	if strings.TrimSpace(string(raw)) == "" {
		var unset T
		return unset
	}
	v, ok := n.Lookup(string(raw))
	if !ok {
		res.Warnings = append(res.Warnings, warnUnknown(field, string(raw), string(n.Default())))
		return n.Default()
	}
	if v != raw {
		res.Warnings = append(res.Warnings, warnChanged(field, raw, v))
	}
	return v
}

func warnChanged(field string, from, to any) string {
	return fmt.Sprintf("normalized %s from '%v' to '%v'", field, from, to)
}

func warnUnknown(field, value, def string) string {
	return fmt.Sprintf("unknown %s '%s', defaulting to %s", field, value, def)
}

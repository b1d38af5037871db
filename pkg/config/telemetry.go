package config

import (
	"strings"

	"github.com/Sumatoshi-tech/szz/pkg/observability"
)

// Telemetry converts the logging and observability sections into an
// observability config.
func (c *Config) Telemetry(serviceVersion string) observability.Config {
	out := observability.DefaultConfig()

	out.ServiceVersion = serviceVersion
	out.Environment = c.Observability.Environment
	out.OTLPEndpoint = c.Observability.OTLPEndpoint
	out.OTLPHeaders = observability.ParseOTLPHeaders(c.Observability.OTLPHeaders)
	out.OTLPInsecure = c.Observability.OTLPInsecure
	out.SampleRatio = c.Observability.SampleRatio
	out.Prometheus = c.Observability.MetricsAddr != ""
	out.LogLevel = observability.ParseLevel(c.Logging.Level)
	out.LogJSON = strings.EqualFold(c.Logging.Format, "json")

	if c.Observability.ShutdownTimeoutSec > 0 {
		out.ShutdownTimeoutSec = c.Observability.ShutdownTimeoutSec
	}

	return out
}

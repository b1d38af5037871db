// Package observability wires OpenTelemetry tracing, metrics and structured
// logging for the szz tools.
package observability

import (
	"io"
	"log/slog"
)

const (
	// DefaultServiceName is the service name reported with every span and log record.
	DefaultServiceName = "szz"

	defaultShutdownTimeoutSec = 5
)

// Config holds observability settings.
type Config struct {
	// ServiceName identifies the process in traces and logs.
	ServiceName string

	// ServiceVersion is attached to the OTel resource when set.
	ServiceVersion string

	// Environment is the deployment environment, e.g. "ci" or "prod".
	Environment string

	// OTLPEndpoint is the gRPC collector address. Empty disables export.
	OTLPEndpoint string

	// OTLPHeaders are sent with every export request.
	OTLPHeaders map[string]string

	// OTLPInsecure disables TLS for the collector connection.
	OTLPInsecure bool

	// Prometheus adds a pull reader whose scrape handler is returned in
	// Providers.MetricsHandler.
	Prometheus bool

	// DebugTrace samples every span.
	DebugTrace bool

	// SampleRatio is the root sampling ratio. Zero samples everything.
	SampleRatio float64

	// LogLevel is the minimum level of emitted records.
	LogLevel slog.Level

	// LogJSON selects the JSON handler instead of the text handler.
	LogJSON bool

	// LogOutput receives log records. Nil means stderr.
	LogOutput io.Writer

	// ShutdownTimeoutSec bounds the flush on shutdown.
	ShutdownTimeoutSec int
}

// DefaultConfig returns a config that exports nothing and logs text at info level.
func DefaultConfig() Config {
	return Config{
		ServiceName:        DefaultServiceName,
		LogLevel:           slog.LevelInfo,
		ShutdownTimeoutSec: defaultShutdownTimeoutSec,
	}
}

package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

const maxSampleRatio = 1.0

// Config is the full szz configuration.
type Config struct {
	Repository        string              `mapstructure:"repository"`
	Issues            string              `mapstructure:"issues"`
	Results           string              `mapstructure:"results"`
	Depth             int                 `mapstructure:"depth"`
	DiffContext       int                 `mapstructure:"diff_context"`
	BugFinder         string              `mapstructure:"bug_finder"`
	PartialFixPattern string              `mapstructure:"partial_fix_pattern"`
	OmitLineText      bool                `mapstructure:"omit_line_text"`
	Workers           int                 `mapstructure:"workers"`
	CacheSize         int                 `mapstructure:"cache_size"`
	Logging           LoggingConfig       `mapstructure:"logging"`
	Output            OutputConfig        `mapstructure:"output"`
	Observability     ObservabilityConfig `mapstructure:"observability"`
	Search            SearchConfig        `mapstructure:"search"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OutputConfig selects the artifact encoding.
type OutputConfig struct {
	Format   string `mapstructure:"format"`
	Compress bool   `mapstructure:"compress"`
}

// ObservabilityConfig holds OpenTelemetry export settings.
type ObservabilityConfig struct {
	OTLPEndpoint       string  `mapstructure:"otlp_endpoint"`
	OTLPHeaders        string  `mapstructure:"otlp_headers"`
	OTLPInsecure       bool    `mapstructure:"otlp_insecure"`
	SampleRatio        float64 `mapstructure:"sample_ratio"`
	Environment        string  `mapstructure:"environment"`
	ShutdownTimeoutSec int     `mapstructure:"shutdown_timeout_sec"`
	// MetricsAddr serves /healthz and Prometheus /metrics during a run. Empty disables it.
	MetricsAddr        string  `mapstructure:"metrics_addr"`
}

// SearchConfig holds bug-fix commit search settings.
type SearchConfig struct {
	Pattern string `mapstructure:"pattern"`
}

// Sentinel errors for configuration validation.
var (
	// ErrInvalidDepth indicates a depth below one.
	ErrInvalidDepth = errors.New("depth must be positive")
	// ErrInvalidDiffContext indicates a negative diff context.
	ErrInvalidDiffContext = errors.New("diff_context must be non-negative")
	// ErrInvalidWorkers indicates a worker count below one.
	ErrInvalidWorkers = errors.New("workers must be positive")
	// ErrInvalidCacheSize indicates a negative cache size.
	ErrInvalidCacheSize = errors.New("cache_size must be non-negative")
	// ErrInvalidBugFinder indicates an unknown heuristic name.
	ErrInvalidBugFinder = errors.New("bug_finder must be simple or distance")
	// ErrInvalidPattern indicates a pattern that does not compile.
	ErrInvalidPattern = errors.New("invalid regular expression")
	// ErrInvalidLogFormat indicates a log format other than text or json.
	ErrInvalidLogFormat = errors.New("logging.format must be text or json")
	// ErrInvalidOutputFormat indicates an output format other than json or yaml.
	ErrInvalidOutputFormat = errors.New("output.format must be json or yaml")
	// ErrInvalidSampleRatio indicates a sample ratio outside [0, 1].
	ErrInvalidSampleRatio = errors.New("observability.sample_ratio must be between 0 and 1")
)

// Validate checks Config invariants and returns the first error found.
func (c *Config) Validate() error {
	if err := c.validateCore(); err != nil {
		return err
	}

	return c.validateOutput()
}

func (c *Config) validateCore() error {
	if c.Depth < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidDepth, c.Depth)
	}

	if c.DiffContext < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDiffContext, c.DiffContext)
	}

	if c.Workers < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidWorkers, c.Workers)
	}

	if c.CacheSize < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCacheSize, c.CacheSize)
	}

	switch strings.ToLower(c.BugFinder) {
	case "simple", "distance":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBugFinder, c.BugFinder)
	}

	for key, pattern := range map[string]string{
		KeyPartialFixPattern: c.PartialFixPattern,
		KeySearchPattern:     c.Search.Pattern,
	} {
		if _, err := regexp.Compile(pattern); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidPattern, key, err)
		}
	}

	return nil
}

func (c *Config) validateOutput() error {
	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.Logging.Format)
	}

	switch strings.ToLower(c.Output.Format) {
	case "json", "yaml":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOutputFormat, c.Output.Format)
	}

	if c.Observability.SampleRatio < 0 || c.Observability.SampleRatio > maxSampleRatio {
		return fmt.Errorf("%w: %v", ErrInvalidSampleRatio, c.Observability.SampleRatio)
	}

	return nil
}

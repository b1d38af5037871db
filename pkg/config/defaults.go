// Package config loads szz settings from a YAML file, SZZ_ environment
// variables, a .env file and command-line flags.
package config

// Core defaults.
const (
	DefaultResults           = "results"
	DefaultDepth             = 3
	DefaultDiffContext       = 0
	DefaultBugFinder         = "simple"
	DefaultPartialFixPattern = "fix"
	DefaultOmitLineText      = false
	DefaultCacheSize         = 512
)

// Logging defaults.
const (
	DefaultLogLevel  = "info"
	DefaultLogFormat = "text"
)

// Output defaults.
const (
	DefaultOutputFormat   = "json"
	DefaultOutputCompress = false
)

// Observability defaults.
const (
	DefaultOTLPInsecure       = false
	DefaultSampleRatio        = 0.0
	DefaultShutdownTimeoutSec = 5
)

// DefaultSearchPattern matches Jenkins issue keys in commit messages.
const DefaultSearchPattern = `JENKINS\-[0-9]`

// Configuration keys.
const (
	KeyRepository        = "repository"
	KeyIssues            = "issues"
	KeyResults           = "results"
	KeyDepth             = "depth"
	KeyDiffContext       = "diff_context"
	KeyBugFinder         = "bug_finder"
	KeyPartialFixPattern = "partial_fix_pattern"
	KeyOmitLineText      = "omit_line_text"
	KeyWorkers           = "workers"
	KeyCacheSize         = "cache_size"
	KeyLogLevel          = "logging.level"
	KeyLogFormat         = "logging.format"
	KeyOutputFormat      = "output.format"
	KeyOutputCompress    = "output.compress"
	KeyOTLPEndpoint      = "observability.otlp_endpoint"
	KeyOTLPHeaders       = "observability.otlp_headers"
	KeyOTLPInsecure      = "observability.otlp_insecure"
	KeySampleRatio       = "observability.sample_ratio"
	KeyMetricsAddr       = "observability.metrics_addr"
	KeyEnvironment       = "observability.environment"
	KeyShutdownTimeout   = "observability.shutdown_timeout_sec"
	KeySearchPattern     = "search.pattern"
)

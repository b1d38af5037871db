package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/szz/pkg/config"
)

func validConfig() config.Config {
	return config.Config{
		Depth:             3,
		Workers:           2,
		CacheSize:         10,
		BugFinder:         "simple",
		PartialFixPattern: "fix",
		Logging:           config.LoggingConfig{Level: "info", Format: "text"},
		Output:            config.OutputConfig{Format: "json"},
		Search:            config.SearchConfig{Pattern: config.DefaultSearchPattern},
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func missingEnv(t *testing.T) string {
	t.Helper()

	return filepath.Join(t.TempDir(), "absent.env")
}

func TestValidate_ValidConfig(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	require.NoError(t, cfg.Validate())
}

func TestValidate_Rejects(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   error
	}{
		{"zero depth", func(c *config.Config) { c.Depth = 0 }, config.ErrInvalidDepth},
		{"negative context", func(c *config.Config) { c.DiffContext = -1 }, config.ErrInvalidDiffContext},
		{"zero workers", func(c *config.Config) { c.Workers = 0 }, config.ErrInvalidWorkers},
		{"negative cache", func(c *config.Config) { c.CacheSize = -1 }, config.ErrInvalidCacheSize},
		{"unknown finder", func(c *config.Config) { c.BugFinder = "psychic" }, config.ErrInvalidBugFinder},
		{"bad partial fix", func(c *config.Config) { c.PartialFixPattern = "(" }, config.ErrInvalidPattern},
		{"bad search", func(c *config.Config) { c.Search.Pattern = "[" }, config.ErrInvalidPattern},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, config.ErrInvalidLogFormat},
		{"output format", func(c *config.Config) { c.Output.Format = "csv" }, config.ErrInvalidOutputFormat},
		{"sample ratio", func(c *config.Config) { c.Observability.SampleRatio = 2 }, config.ErrInvalidSampleRatio},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			tt.mutate(&cfg)

			assert.ErrorIs(t, cfg.Validate(), tt.want)
		})
	}
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := config.Load(config.LoadOptions{
		ConfigPath: writeFile(t, "szz.yaml", ""),
		EnvFile:    missingEnv(t),
	})
	require.NoError(t, err)

	assert.Equal(t, config.DefaultResults, cfg.Results)
	assert.Equal(t, config.DefaultDepth, cfg.Depth)
	assert.Equal(t, config.DefaultDiffContext, cfg.DiffContext)
	assert.Equal(t, config.DefaultBugFinder, cfg.BugFinder)
	assert.Equal(t, config.DefaultPartialFixPattern, cfg.PartialFixPattern)
	assert.Equal(t, runtime.NumCPU(), cfg.Workers)
	assert.Equal(t, config.DefaultCacheSize, cfg.CacheSize)
	assert.Equal(t, config.DefaultOutputFormat, cfg.Output.Format)
	assert.Equal(t, config.DefaultSearchPattern, cfg.Search.Pattern)
}

func TestLoad_FileValues(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "szz.yaml", `repository: /src/jenkins
issues: issues.json
depth: 5
diff_context: 2
bug_finder: distance
workers: 4
logging:
  level: debug
  format: json
output:
  format: yaml
  compress: true
observability:
  otlp_endpoint: collector:4317
  otlp_headers: "api-key=abc"
  metrics_addr: 127.0.0.1:9464
`)

	cfg, err := config.Load(config.LoadOptions{ConfigPath: path, EnvFile: missingEnv(t)})
	require.NoError(t, err)

	assert.Equal(t, "/src/jenkins", cfg.Repository)
	assert.Equal(t, "issues.json", cfg.Issues)
	assert.Equal(t, 5, cfg.Depth)
	assert.Equal(t, 2, cfg.DiffContext)
	assert.Equal(t, "distance", cfg.BugFinder)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "yaml", cfg.Output.Format)
	assert.True(t, cfg.Output.Compress)

	tel := cfg.Telemetry("1.0.0")
	assert.Equal(t, "collector:4317", tel.OTLPEndpoint)
	assert.Equal(t, map[string]string{"api-key": "abc"}, tel.OTLPHeaders)
	assert.Equal(t, slog.LevelDebug, tel.LogLevel)
	assert.True(t, tel.LogJSON)
	assert.Equal(t, "1.0.0", tel.ServiceVersion)
	assert.True(t, tel.Prometheus)
	assert.Equal(t, "127.0.0.1:9464", cfg.Observability.MetricsAddr)
}

func TestLoad_InvalidFileValue(t *testing.T) {
	t.Parallel()

	_, err := config.Load(config.LoadOptions{
		ConfigPath: writeFile(t, "szz.yaml", "diff_context: -3\n"),
		EnvFile:    missingEnv(t),
	})
	require.ErrorIs(t, err, config.ErrInvalidDiffContext)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	t.Parallel()

	_, err := config.Load(config.LoadOptions{
		ConfigPath: filepath.Join(t.TempDir(), "nope.yaml"),
		EnvFile:    missingEnv(t),
	})
	require.Error(t, err)
}

func TestLoad_FlagsOverrideFile(t *testing.T) {
	t.Parallel()

	flags := pflag.NewFlagSet("run", pflag.ContinueOnError)
	flags.Int("depth", config.DefaultDepth, "")
	flags.String("bug-finder", config.DefaultBugFinder, "")
	require.NoError(t, flags.Parse([]string{"--depth=7"}))

	cfg, err := config.Load(config.LoadOptions{
		ConfigPath: writeFile(t, "szz.yaml", "depth: 4\nbug_finder: distance\n"),
		EnvFile:    missingEnv(t),
		Flags:      flags,
	})
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Depth)
	// Unset flags do not shadow the file.
	assert.Equal(t, "distance", cfg.BugFinder)
}

func TestLoad_EnvFileAndEnvironment(t *testing.T) {
	envFile := writeFile(t, ".env", "SZZ_DIFF_CONTEXT=4\nSZZ_OUTPUT_FORMAT=yaml\n")

	t.Setenv("SZZ_DIFF_CONTEXT", "")
	require.NoError(t, os.Unsetenv("SZZ_DIFF_CONTEXT"))
	t.Setenv("SZZ_OUTPUT_FORMAT", "")
	require.NoError(t, os.Unsetenv("SZZ_OUTPUT_FORMAT"))
	t.Setenv("SZZ_DEPTH", "9")

	cfg, err := config.Load(config.LoadOptions{
		ConfigPath: writeFile(t, "szz.yaml", "depth: 2\n"),
		EnvFile:    envFile,
	})
	require.NoError(t, err)

	assert.Equal(t, 9, cfg.Depth)
	assert.Equal(t, 4, cfg.DiffContext)
	assert.Equal(t, "yaml", cfg.Output.Format)
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	configName      = "szz"
	configType      = "yaml"
	envPrefix       = "SZZ"
	envKeySeparator = "_"

	// DefaultEnvFile is read before the environment is consulted.
	DefaultEnvFile = ".env"
)

// FlagKeys maps command-line flag names to configuration keys.
var FlagKeys = map[string]string{
	"repository":          KeyRepository,
	"issues":              KeyIssues,
	"results":             KeyResults,
	"depth":               KeyDepth,
	"diff-context":        KeyDiffContext,
	"bug-finder":          KeyBugFinder,
	"partial-fix-pattern": KeyPartialFixPattern,
	"omit-line-text":      KeyOmitLineText,
	"workers":             KeyWorkers,
	"cache-size":          KeyCacheSize,
	"log-level":           KeyLogLevel,
	"log-format":          KeyLogFormat,
	"format":              KeyOutputFormat,
	"compress":            KeyOutputCompress,
	"otlp-endpoint":       KeyOTLPEndpoint,
	"metrics-addr":        KeyMetricsAddr,
	"pattern":             KeySearchPattern,
}

// LoadOptions tells Load where to look.
type LoadOptions struct {
	// ConfigPath is an explicit YAML file. Empty searches szz.yaml in CWD and $HOME.
	ConfigPath string

	// EnvFile is a dotenv file loaded into the process environment when it
	// exists. Empty means DefaultEnvFile.
	EnvFile string

	// Flags override every other source for the flags the user set.
	Flags *pflag.FlagSet
}

// Load merges defaults, the config file, the environment and flags, in
// increasing precedence, and validates the result.
func Load(opts LoadOptions) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	viperCfg := viper.New()

	applyDefaults(viperCfg)

	viperCfg.SetConfigType(configType)
	viperCfg.SetEnvPrefix(envPrefix)
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", envKeySeparator))
	viperCfg.AutomaticEnv()

	if opts.ConfigPath != "" {
		viperCfg.SetConfigFile(opts.ConfigPath)
	} else {
		viperCfg.SetConfigName(configName)
		viperCfg.AddConfigPath(".")

		if home, err := os.UserHomeDir(); err == nil {
			viperCfg.AddConfigPath(home)
		}
	}

	if err := viperCfg.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := bindFlags(viperCfg, opts.Flags); err != nil {
		return nil, err
	}

	var cfg Config

	if err := viperCfg.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}

func loadEnvFile(path string) error {
	if path == "" {
		path = DefaultEnvFile
	}

	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return fmt.Errorf("load %s: %w", path, err)
}

func bindFlags(viperCfg *viper.Viper, flags *pflag.FlagSet) error {
	if flags == nil {
		return nil
	}

	for name, key := range FlagKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}

		if err := viperCfg.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	return nil
}

func applyDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault(KeyRepository, "")
	viperCfg.SetDefault(KeyIssues, "")
	viperCfg.SetDefault(KeyResults, DefaultResults)
	viperCfg.SetDefault(KeyDepth, DefaultDepth)
	viperCfg.SetDefault(KeyDiffContext, DefaultDiffContext)
	viperCfg.SetDefault(KeyBugFinder, DefaultBugFinder)
	viperCfg.SetDefault(KeyPartialFixPattern, DefaultPartialFixPattern)
	viperCfg.SetDefault(KeyOmitLineText, DefaultOmitLineText)
	viperCfg.SetDefault(KeyWorkers, runtime.NumCPU())
	viperCfg.SetDefault(KeyCacheSize, DefaultCacheSize)

	viperCfg.SetDefault(KeyLogLevel, DefaultLogLevel)
	viperCfg.SetDefault(KeyLogFormat, DefaultLogFormat)

	viperCfg.SetDefault(KeyOutputFormat, DefaultOutputFormat)
	viperCfg.SetDefault(KeyOutputCompress, DefaultOutputCompress)

	viperCfg.SetDefault(KeyOTLPEndpoint, "")
	viperCfg.SetDefault(KeyOTLPHeaders, "")
	viperCfg.SetDefault(KeyOTLPInsecure, DefaultOTLPInsecure)
	viperCfg.SetDefault(KeySampleRatio, DefaultSampleRatio)
	viperCfg.SetDefault(KeyMetricsAddr, "")
	viperCfg.SetDefault(KeyEnvironment, "")
	viperCfg.SetDefault(KeyShutdownTimeout, DefaultShutdownTimeoutSec)

	viperCfg.SetDefault(KeySearchPattern, DefaultSearchPattern)
}

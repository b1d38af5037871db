package pipeline

import (
	"fmt"
	"log"
	"runtime"

	"github.com/spf13/pflag"

	"github.com/Sumatoshi-tech/szz/pkg/config"
)

// ConfigurationOptionType represents the possible types of a ConfigurationOption's value.
type ConfigurationOptionType int

const (
	// BoolConfigurationOption reflects the boolean value type.
	BoolConfigurationOption ConfigurationOptionType = iota
	// IntConfigurationOption reflects the integer value type.
	IntConfigurationOption
	// StringConfigurationOption reflects the string value type.
	StringConfigurationOption
	// PathConfigurationOption reflects the file system path value type.
	PathConfigurationOption
)

// String returns the type name shown in help output. Booleans have none.
func (opt ConfigurationOptionType) String() string {
	switch opt {
	case BoolConfigurationOption:
		return ""
	case IntConfigurationOption:
		return "int"
	case StringConfigurationOption:
		return "string"
	case PathConfigurationOption:
		return "path"
	}

	log.Panicf("Invalid ConfigurationOptionType value %d", opt)

	return ""
}

// ConfigurationOption describes one tunable of the run pipeline.
type ConfigurationOption struct {
	// Default is the initial value of the configuration option.
	Default any
	// Name is the configuration key.
	Name string
	// Description is the help text.
	Description string
	// Flag corresponds to the CLI token with "--" prepended.
	Flag string
	// Shorthand is an optional one-letter flag.
	Shorthand string
	// Type specifies the kind of the configuration option's value.
	Type ConfigurationOptionType
}

// FormatDefault converts the default value to the form shown in help output.
func (opt ConfigurationOption) FormatDefault() string {
	if opt.Type == StringConfigurationOption || opt.Type == PathConfigurationOption {
		return fmt.Sprintf("%q", opt.Default)
	}

	return fmt.Sprint(opt.Default)
}

// Register adds the option as a flag to flags.
func (opt ConfigurationOption) Register(flags *pflag.FlagSet) {
	switch opt.Type {
	case BoolConfigurationOption:
		value, _ := opt.Default.(bool)
		flags.BoolP(opt.Flag, opt.Shorthand, value, opt.Description)
	case IntConfigurationOption:
		value, _ := opt.Default.(int)
		flags.IntP(opt.Flag, opt.Shorthand, value, opt.Description)
	case StringConfigurationOption, PathConfigurationOption:
		value, _ := opt.Default.(string)
		flags.StringP(opt.Flag, opt.Shorthand, value, opt.Description)
	}
}

// RunOptions lists the tunables of `szz run` in help order.
func RunOptions() []ConfigurationOption {
	return []ConfigurationOption{
		{
			Name: config.KeyRepository, Flag: "repository", Shorthand: "r", Type: PathConfigurationOption,
			Default: "", Description: "local git repository to analyze",
		},
		{
			Name: config.KeyIssues, Flag: "issues", Shorthand: "i", Type: PathConfigurationOption,
			Default: "", Description: "issue file with the fix revisions",
		},
		{
			Name: config.KeyResults, Flag: "results", Shorthand: "o", Type: PathConfigurationOption,
			Default: config.DefaultResults, Description: "directory receiving shard and merged documents",
		},
		{
			Name: config.KeyDepth, Flag: "depth", Shorthand: "d", Type: IntConfigurationOption,
			Default: config.DefaultDepth, Description: "annotation graph depth",
		},
		{
			Name: config.KeyDiffContext, Flag: "diff-context", Type: IntConfigurationOption,
			Default: config.DefaultDiffContext, Description: "context lines around each edit",
		},
		{
			Name: config.KeyBugFinder, Flag: "bug-finder", Shorthand: "b", Type: StringConfigurationOption,
			Default: config.DefaultBugFinder, Description: "introducer heuristic: simple or distance",
		},
		{
			Name: config.KeyPartialFixPattern, Flag: "partial-fix-pattern", Type: StringConfigurationOption,
			Default: config.DefaultPartialFixPattern, Description: "regexp marking a commit message as a partial fix",
		},
		{
			Name: config.KeyOmitLineText, Flag: "omit-line-text", Type: BoolConfigurationOption,
			Default: config.DefaultOmitLineText, Description: "store line indices instead of line text",
		},
		{
			Name: config.KeyWorkers, Flag: "workers", Shorthand: "w", Type: IntConfigurationOption,
			Default: runtime.NumCPU(), Description: "number of shards processed in parallel",
		},
		{
			Name: config.KeyCacheSize, Flag: "cache-size", Type: IntConfigurationOption,
			Default: config.DefaultCacheSize, Description: "commit diffs kept in memory per shard",
		},
		{
			Name: config.KeyOutputFormat, Flag: "format", Type: StringConfigurationOption,
			Default: config.DefaultOutputFormat, Description: "document format: json or yaml (json is always written)",
		},
		{
			Name: config.KeyOutputCompress, Flag: "compress", Type: BoolConfigurationOption,
			Default: config.DefaultOutputCompress, Description: "write LZ4-compressed documents",
		},
	}
}

package pipeline

import (
	"github.com/Sumatoshi-tech/szz/pkg/config"
	"github.com/Sumatoshi-tech/szz/pkg/heuristics"
	"github.com/Sumatoshi-tech/szz/pkg/results"
)

// SettingsFromConfig maps a validated configuration onto runner settings.
func SettingsFromConfig(cfg *config.Config) (Settings, error) {
	kind, err := heuristics.ParseKind(cfg.BugFinder)
	if err != nil {
		return Settings{}, err
	}

	format, err := results.ParseFormat(cfg.Output.Format)
	if err != nil {
		return Settings{}, err
	}

	return Settings{
		Repository:        cfg.Repository,
		Depth:             cfg.Depth,
		DiffContext:       cfg.DiffContext,
		OmitLineText:      cfg.OmitLineText,
		Finder:            kind,
		PartialFixPattern: cfg.PartialFixPattern,
		CacheSize:         cfg.CacheSize,
		Output:            results.Options{Format: format, Compress: cfg.Output.Compress},
	}, nil
}

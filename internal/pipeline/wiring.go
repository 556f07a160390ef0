package pipeline

import (
	"go.uber.org/zap"

	"github.com/ginjaninja78/sales-analytics/internal/config"
	"github.com/ginjaninja78/sales-analytics/internal/enrichment"
	"github.com/ginjaninja78/sales-analytics/internal/lookup"
)

// OptionsFromConfig maps a loaded configuration onto pipeline options.
// Enrichment is on when remote lookups are enabled or overrides exist.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		InputFile:      cfg.InputFile,
		InputSheet:     cfg.InputSheet,
		EnrichedFile:   cfg.EnrichedFile,
		ReportFile:     cfg.ReportFile,
		XLSXFile:       cfg.XLSXReportFile,
		MetricsFile:    cfg.MetricsFile,
		ErrorLogDir:    cfg.ErrorLogDir,
		Delimiter:      cfg.Delimiter,
		Encodings:      cfg.Encodings,
		CurrencySymbol: cfg.CurrencySymbol,
		EnrichedFormat: cfg.EnrichedFormat,
		Criteria:       cfg.Filter.Criteria(),
		Enrich:         cfg.Lookup.Enabled || len(cfg.Lookup.Overrides) > 0,
		Enrichment: enrichment.Options{
			Pacing:  cfg.Lookup.Pacing,
			Workers: cfg.Lookup.Workers,
		},
	}
}

// NewLookup builds the category source described by cfg: the static
// overrides first, then the remote catalogue when enabled. It returns nil
// when neither is configured.
func NewLookup(cfg config.LookupConfig, logger *zap.Logger) lookup.Lookup {
	var sources []lookup.Lookup

	if len(cfg.Overrides) > 0 {
		sources = append(sources, lookup.Static(cfg.Overrides))
	}
	if cfg.Enabled {
		sources = append(sources, lookup.NewClient(cfg.BaseURL,
			lookup.WithTimeout(cfg.Timeout),
			lookup.WithLogger(logger),
		))
	}

	switch len(sources) {
	case 0:
		return nil
	case 1:
		return sources[0]
	default:
		return lookup.Chain(sources...)
	}
}

package source

import (
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/config"
	"github.com/sells-group/prospect-cli/internal/extract"
	"github.com/sells-group/prospect-cli/internal/fetch"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/rules"
	"github.com/sells-group/prospect-cli/pkg/google"
	"github.com/sells-group/prospect-cli/pkg/jina"
)

// Deps are the clients sources are built from. Nil API clients leave the
// corresponding source unregistered.
type Deps struct {
	Fetcher   fetch.Fetcher
	Extractor *extract.Extractor
	Places    google.Client
	Search    jina.Client
}

// FromConfig builds an Aggregator with every enabled source whose
// dependencies are available.
func FromConfig(cfg config.SourcesConfig, sectors *rules.SectorTable, deps Deps) *Aggregator {
	if deps.Extractor == nil {
		deps.Extractor = extract.New(nil)
	}

	var sources []Source
	for _, name := range cfg.Enabled {
		s := build(model.Source(name), cfg, deps)
		if s == nil {
			zap.L().Info("source: skipped", zap.String("source", name))
			continue
		}
		sources = append(sources, s)
	}
	return NewAggregator(sectors, OptionsFromConfig(cfg), sources...)
}

func build(name model.Source, cfg config.SourcesConfig, deps Deps) Source {
	switch name {
	case model.SourceGoogleMaps:
		if deps.Fetcher != nil {
			return NewGoogleMaps(deps.Fetcher, deps.Extractor)
		}
	case model.SourceGoogleSearch:
		if deps.Fetcher != nil {
			return NewGoogleSearch(deps.Fetcher, deps.Extractor)
		}
	case model.SourceBingSearch:
		if deps.Fetcher != nil {
			return NewBingSearch(deps.Fetcher, deps.Extractor)
		}
	case model.SourceYellowPages:
		if deps.Fetcher != nil && len(cfg.YellowPagesURLs) > 0 {
			return NewYellowPages(deps.Fetcher, deps.Extractor, cfg.YellowPagesURLs)
		}
	case model.SourceGooglePlaces:
		if deps.Places != nil {
			return NewPlacesSource(deps.Places, 0)
		}
	case model.SourceJinaSearch:
		if deps.Search != nil {
			return NewJinaSearch(deps.Search, deps.Extractor)
		}
	}
	return nil
}

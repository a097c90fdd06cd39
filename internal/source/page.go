package source

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/extract"
	"github.com/sells-group/prospect-cli/internal/fetch"
	"github.com/sells-group/prospect-cli/internal/model"
)

// URL templates of the page sources.
const (
	GoogleMapsURL   = "https://www.google.com/maps/search/{keyword}+{region}"
	GoogleSearchURL = "https://www.google.com/search?q={query}&num=30&hl=pt-BR&gl=br"
	BingSearchURL   = "https://www.bing.com/search?q={query}&cc=BR&setlang=pt-BR"
)

// PageSource fetches result pages and runs them through the extractor.
// With several templates it tries each in order and stops at the first
// page that yields records.
type PageSource struct {
	name      model.Source
	templates []string
	fetcher   fetch.Fetcher
	extractor *extract.Extractor
}

// NewPageSource creates a PageSource.
func NewPageSource(name model.Source, f fetch.Fetcher, x *extract.Extractor, templates ...string) *PageSource {
	return &PageSource{name: name, templates: templates, fetcher: f, extractor: x}
}

// NewGoogleMaps searches Google Maps result pages.
func NewGoogleMaps(f fetch.Fetcher, x *extract.Extractor) *PageSource {
	return NewPageSource(model.SourceGoogleMaps, f, x, GoogleMapsURL)
}

// NewGoogleSearch searches Google web results.
func NewGoogleSearch(f fetch.Fetcher, x *extract.Extractor) *PageSource {
	return NewPageSource(model.SourceGoogleSearch, f, x, GoogleSearchURL)
}

// NewBingSearch searches Bing web results.
func NewBingSearch(f fetch.Fetcher, x *extract.Extractor) *PageSource {
	return NewPageSource(model.SourceBingSearch, f, x, BingSearchURL)
}

// NewYellowPages searches business directories, falling back through urls.
func NewYellowPages(f fetch.Fetcher, x *extract.Extractor, urls []string) *PageSource {
	return NewPageSource(model.SourceYellowPages, f, x, urls...)
}

// Name implements Source.
func (s *PageSource) Name() model.Source { return s.name }

// Search implements Source. It fails only when every template failed to
// fetch; an empty page is a valid empty result.
func (s *PageSource) Search(ctx context.Context, q Query) ([]model.Lead, error) {
	var errs []error
	fetched := false
	for _, tmpl := range s.templates {
		if ctx.Err() != nil {
			break
		}
		target := expand(tmpl, q)
		page, err := s.fetcher.Fetch(ctx, target)
		if err != nil {
			zap.L().Debug("source: fetch failed",
				zap.String("source", string(s.name)),
				zap.String("url", target),
				zap.Error(err),
			)
			errs = append(errs, err)
			continue
		}
		fetched = true

		leads := s.extractor.Extract(page.Body, s.name)
		if len(leads) > 0 {
			return capLeads(leads, q.Limit), nil
		}
	}
	if fetched {
		return nil, nil
	}
	if len(errs) == 0 {
		return nil, ctx.Err()
	}
	return nil, eris.Wrapf(errors.Join(errs...), "source: %s", s.name)
}

func capLeads(leads []model.Lead, limit int) []model.Lead {
	if limit > 0 && len(leads) > limit {
		return leads[:limit]
	}
	return leads
}

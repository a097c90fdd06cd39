package source

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/pkg/google"
)

// PlacesSource queries the Google Places text search API.
type PlacesSource struct {
	client  google.Client
	limiter *rate.Limiter
}

// NewPlacesSource creates a PlacesSource limited to perSecond calls.
func NewPlacesSource(client google.Client, perSecond float64) *PlacesSource {
	if perSecond <= 0 {
		perSecond = 10
	}
	return &PlacesSource{client: client, limiter: rate.NewLimiter(rate.Limit(perSecond), 1)}
}

// Name implements Source.
func (s *PlacesSource) Name() model.Source { return model.SourceGooglePlaces }

// Search implements Source. Closed businesses are skipped.
func (s *PlacesSource) Search(ctx context.Context, q Query) ([]model.Lead, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "source: places rate limit")
	}

	pageSize := q.Limit
	if pageSize <= 0 || pageSize > 20 {
		pageSize = 20
	}
	resp, err := s.client.TextSearch(ctx, google.TextSearchRequest{TextQuery: q.Text(), PageSize: pageSize})
	if err != nil {
		return nil, eris.Wrap(err, "source: places text search")
	}

	var leads []model.Lead
	for _, p := range resp.Places {
		if !p.Operational() || strings.TrimSpace(p.DisplayName.Text) == "" {
			continue
		}
		phone := p.NationalPhoneNumber
		if phone == "" {
			phone = p.InternationalPhoneNumber
		}
		leads = append(leads, model.Lead{
			Name:        strings.TrimSpace(p.DisplayName.Text),
			Website:     p.WebsiteURI,
			Phone:       phone,
			Address:     p.FormattedAddress,
			Description: p.PrimaryType.Text,
			Source:      model.SourceGooglePlaces,
			Confidence:  model.ConfidenceExtracted,
		})
	}
	return capLeads(leads, q.Limit), nil
}

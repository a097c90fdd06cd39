package source

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/internal/extract"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/pkg/jina"
)

// JinaSearchSource uses the Jina search API. Every hit becomes a record
// named after its page title, with contact data taken from the page text.
type JinaSearchSource struct {
	client    jina.Client
	extractor *extract.Extractor
}

// NewJinaSearch creates a JinaSearchSource.
func NewJinaSearch(client jina.Client, x *extract.Extractor) *JinaSearchSource {
	return &JinaSearchSource{client: client, extractor: x}
}

// Name implements Source.
func (s *JinaSearchSource) Name() model.Source { return model.SourceJinaSearch }

// Search implements Source.
func (s *JinaSearchSource) Search(ctx context.Context, q Query) ([]model.Lead, error) {
	resp, err := s.client.Search(ctx, q.Text())
	if err != nil {
		return nil, eris.Wrap(err, "source: jina search")
	}

	var leads []model.Lead
	for _, r := range resp.Data {
		name := extract.TitleName(r.Title)
		if !s.extractor.IsCandidateName(name) || !extract.IsBusinessURL(r.URL) {
			continue
		}
		c := extract.FindContact(r.Content)
		desc := strings.TrimSpace(r.Description)
		if len([]rune(desc)) > 200 {
			desc = string([]rune(desc)[:200])
		}
		leads = append(leads, model.Lead{
			Name:        name,
			Website:     r.URL,
			Phone:       c.Phone,
			Email:       c.Email,
			Address:     c.Address,
			Description: desc,
			Source:      model.SourceJinaSearch,
			Confidence:  model.ConfidenceExtracted,
		})
	}
	return capLeads(leads, q.Limit), nil
}

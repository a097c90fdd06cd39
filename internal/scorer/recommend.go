package scorer

import "github.com/sells-group/prospect-cli/internal/model"

const (
	maxRecommendations = 5
	maxOpportunities   = 3
)

// Fixed recommendations keyed off weak or strong sub-scores.
const (
	RecommendDigital    = "Desenvolver presença digital profissional"
	RecommendAutomation = "Implementar automação de processos"
	RecommendContact    = "Melhorar informações de contato"
)

func (e *Engine) recommendations(lead model.Lead, b map[string]int) []string {
	out := make([]string, 0, maxRecommendations)

	s, ok := e.sectors.Lookup(lead.Sector)
	if !ok {
		s, _, ok = e.sectors.MatchKeyword(lead.Text())
	}
	if ok {
		n := min(len(s.Opportunities), maxOpportunities)
		out = append(out, s.Opportunities[:n]...)
	}

	if b[Digital] < 20 {
		out = append(out, RecommendDigital)
	}
	if b[Indicators] > 30 {
		out = append(out, RecommendAutomation)
	}
	if b[Contact] < 15 {
		out = append(out, RecommendContact)
	}

	if len(out) > maxRecommendations {
		out = out[:maxRecommendations]
	}
	return out
}

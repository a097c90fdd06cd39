package enrich

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/inference"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/normalize"
	"github.com/sells-group/prospect-cli/internal/rules"
)

// FallbackProvider marks heuristic analyses in AIAnalysis.Provider.
const FallbackProvider = "fallback"

// Generator is the part of the inference client the analyzer needs.
type Generator interface {
	Generate(ctx context.Context, prompt string, opts ...inference.Option) inference.Response
}

// AIAnalyzer asks the inference client for a structured lead assessment
// and falls back to a heuristic one when the answer is unusable.
type AIAnalyzer struct {
	gen     Generator
	sectors *rules.SectorTable
	tech    *rules.Matcher
	model   string
}

// NewAIAnalyzer creates an AIAnalyzer. model may be empty to use each
// provider's default.
func NewAIAnalyzer(gen Generator, sectors *rules.SectorTable, scoring *rules.ScoringRules, model string) *AIAnalyzer {
	if sectors == nil {
		sectors = rules.DefaultSectors()
	}
	if scoring == nil {
		scoring = rules.DefaultScoring()
	}
	return &AIAnalyzer{gen: gen, sectors: sectors, tech: rules.NewMatcher(scoring.TechIndicators), model: model}
}

// aiPayload is the JSON shape requested from the model.
type aiPayload struct {
	IntelligenceScore     float64  `json:"intelligence_score"`
	DigitalMaturity       string   `json:"digital_maturity"`
	PainPoints            []string `json:"pain_points"`
	Opportunities         []string `json:"opportunities"`
	PriorityLevel         string   `json:"priority_level"`
	ConversionProbability float64  `json:"conversion_probability"`
	BusinessSize          string   `json:"business_size_assessment"`
	RiskFactors           []string `json:"risk_factors"`
	Timeline              string   `json:"timeline_assessment"`
	Summary               string   `json:"summary"`
}

// Analyze returns the assessment for lead. It never fails.
func (a *AIAnalyzer) Analyze(ctx context.Context, lead model.Lead) *model.AIAnalysis {
	if a.gen == nil {
		return a.Heuristic(lead)
	}

	// The cache keys on a prompt prefix, so the lead identity goes into
	// the params as well.
	opts := []inference.Option{
		inference.WithMaxTokens(800),
		inference.WithTemperature(0.3),
		inference.WithParam("lead", normalize.Name(lead.Name)+"|"+normalize.Website(lead.Website)),
	}
	if a.model != "" {
		opts = append(opts, inference.WithModel(a.model))
	}
	resp := a.gen.Generate(ctx, a.prompt(lead), opts...)
	if !resp.Success {
		zap.L().Debug("enrich: inference failed, using heuristic",
			zap.String("lead", lead.Name),
			zap.String("error", resp.Error),
		)
		return a.Heuristic(lead)
	}

	payload, err := parsePayload(resp.Content)
	if err != nil {
		zap.L().Debug("enrich: unparseable analysis, using heuristic",
			zap.String("lead", lead.Name),
			zap.String("provider", resp.Provider),
			zap.Error(err),
		)
		out := a.Heuristic(lead)
		out.Provider = resp.Provider
		out.Model = resp.Model
		return out
	}

	return &model.AIAnalysis{
		IntelligenceScore:     clampInt(int(payload.IntelligenceScore), 0, 100),
		DigitalMaturity:       parseMaturity(payload.DigitalMaturity),
		BusinessSize:          payload.BusinessSize,
		PainPoints:            payload.PainPoints,
		Opportunities:         payload.Opportunities,
		RiskFactors:           payload.RiskFactors,
		Priority:              strings.ToLower(payload.PriorityLevel),
		ConversionProbability: clampFloat(payload.ConversionProbability, 0, 100),
		Timeline:              payload.Timeline,
		Summary:               payload.Summary,
		Provider:              resp.Provider,
		Model:                 resp.Model,
	}
}

// parsePayload decodes the first JSON object in content. Models often wrap
// it in prose or code fences.
func parsePayload(content string) (*aiPayload, error) {
	start := strings.IndexByte(content, '{')
	if start < 0 {
		return nil, eris.New("enrich: no JSON object in response")
	}
	var p aiPayload
	if err := json.NewDecoder(strings.NewReader(content[start:])).Decode(&p); err != nil {
		return nil, eris.Wrap(err, "enrich: decode analysis")
	}
	return &p, nil
}

func (a *AIAnalyzer) prompt(lead model.Lead) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Nome: %s\nSite: %s\nDescrição: %s\nSetor: %s\nRegião: %s\n\n",
		lead.Name, lead.Website, lead.Description, lead.Sector, lead.Region)
	b.WriteString("Analise este lead para oportunidades de consultoria em TI e responda apenas com JSON.\n")

	if w := lead.Analysis.Website; w != nil && w.Reachable {
		fmt.Fprintf(&b, "\nTecnologias: %s\nProblemas: %s\nOportunidades: %s\nNecessidade de TI: %d/100\nMaturidade digital: %s\n",
			orNone(w.TechStack), orNone(w.PainPoints), orNone(w.Opportunities), w.ITNeeds, w.Maturity)
	}
	if s := lead.Analysis.Social; s != nil {
		fmt.Fprintf(&b, "\nRedes sociais: %s (pontuação %d/100)\n", orNone(s.Platforms), s.Score)
	}

	b.WriteString(`
Formato:
{
  "intelligence_score": <0-100>,
  "digital_maturity": "low|medium|high",
  "pain_points": [],
  "opportunities": [],
  "priority_level": "low|medium|high",
  "conversion_probability": <0-100>,
  "business_size_assessment": "small|medium|large",
  "risk_factors": [],
  "timeline_assessment": "immediate|short_term|long_term",
  "summary": ""
}`)
	return b.String()
}

// Heuristic derives an assessment from the lead's fields and attached
// analyses without calling any provider.
func (a *AIAnalyzer) Heuristic(lead model.Lead) *model.AIAnalysis {
	w, s := lead.Analysis.Website, lead.Analysis.Social
	score := intelligenceScore(lead, w, s)

	out := &model.AIAnalysis{
		IntelligenceScore:     score,
		DigitalMaturity:       assessMaturity(w, s),
		BusinessSize:          businessSize(lead.Employees),
		Priority:              tier(score, "high", "medium", "low"),
		ConversionProbability: float64(conversion(lead, score)),
		Timeline:              tier(score, "immediate", "short_term", "long_term"),
		Provider:              FallbackProvider,
		Model:                 "structured_analysis",
		Fallback:              true,
	}

	if w != nil {
		out.PainPoints = append(out.PainPoints, w.PainPoints...)
		out.Opportunities = append(out.Opportunities, w.Opportunities...)
	}
	if sec, ok := a.sectors.Lookup(lead.Sector); ok {
		out.PainPoints = append(out.PainPoints, sec.PainPoints...)
		out.Opportunities = append(out.Opportunities, sec.Opportunities...)
	}
	out.PainPoints = dedupe(out.PainPoints)
	out.Opportunities = dedupe(out.Opportunities)

	if _, ok := a.tech.Match(lead.Text()); ok {
		out.RiskFactors = append(out.RiskFactors, "Empresa de tecnologia (competidor)")
	}
	if !lead.HasContact() {
		out.RiskFactors = append(out.RiskFactors, "Sem canal de contato")
	}
	return out
}

func intelligenceScore(lead model.Lead, w *model.WebsiteAnalysis, s *model.SocialAnalysis) int {
	score := 0
	if lead.Website != "" {
		score += 20
	}
	if lead.Phone != "" {
		score += 15
	}
	if lead.Email != "" {
		score += 15
	}
	if w != nil && w.Reachable {
		score += w.ITNeeds / 2
		switch w.Maturity {
		case model.MaturityLow:
			score += 20
		case model.MaturityMedium:
			score += 10
		default:
			score += 5
		}
	}
	if s != nil {
		score += s.Score / 2
	}
	return min(score, 100)
}

func assessMaturity(w *model.WebsiteAnalysis, s *model.SocialAnalysis) model.Maturity {
	if (w == nil || !w.Reachable) && s == nil {
		return model.MaturityUnknown
	}
	points := 0
	if w != nil && w.Reachable {
		if w.Modern {
			points += 2
		}
		switch w.Maturity {
		case model.MaturityHigh:
			points += 2
		case model.MaturityMedium:
			points++
		}
	}
	if s != nil {
		switch {
		case s.Score > 70:
			points += 2
		case s.Score > 40:
			points++
		}
	}
	switch {
	case points >= 4:
		return model.MaturityHigh
	case points >= 2:
		return model.MaturityMedium
	default:
		return model.MaturityLow
	}
}

func conversion(lead model.Lead, score int) int {
	p := score
	if strings.Contains(lead.Email, "@") {
		p += 10
	}
	if lead.Phone != "" {
		p += 10
	}
	if lead.Website != "" {
		p += 5
	}
	return min(p, 100)
}

func businessSize(employees int) string {
	switch {
	case employees >= 500:
		return "large"
	case employees >= 100:
		return "medium"
	case employees > 0:
		return "small"
	default:
		return "unknown"
	}
}

func tier(score int, high, medium, low string) string {
	switch {
	case score >= 80:
		return high
	case score >= 60:
		return medium
	default:
		return low
	}
}

func parseMaturity(s string) model.Maturity {
	switch m := model.Maturity(strings.ToLower(strings.TrimSpace(s))); m {
	case model.MaturityLow, model.MaturityMedium, model.MaturityHigh:
		return m
	default:
		return model.MaturityUnknown
	}
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

func orNone(items []string) string {
	if len(items) == 0 {
		return "nenhum"
	}
	return strings.Join(items, ", ")
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

func clampFloat(v, lo, hi float64) float64 {
	return max(lo, min(v, hi))
}

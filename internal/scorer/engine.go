// Package scorer computes the composite lead score.
//
// Six sub-scores (sector, size, digital, region, indicators, contact) are
// each scaled to 0-100 against their maximum and combined with the
// configured weights. The raw weighted sum is kept unclamped for ranking;
// only the emitted total is clamped to [0,100].
package scorer

import (
	"math"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/normalize"
	"github.com/sells-group/prospect-cli/internal/rules"
)

// Breakdown keys.
const (
	Sector       = "sector"
	Size         = "size"
	Digital      = "digital"
	Region       = "region"
	Indicators   = "indicators"
	Contact      = "contact"
	Intelligence = "intelligence"
)

// Sub-score maxima used for scaling.
const (
	maxSector     = 100
	maxSize       = 40
	maxDigital    = 50
	maxRegion     = 25
	maxIndicators = 50
	maxContact    = 30
)

// weightTolerance is how far the weight sum may drift from 1.
const weightTolerance = 0.01

// ValidateWeights checks that the weights sum to 1 within tolerance and
// that none is negative.
func ValidateWeights(w rules.Weights) error {
	for name, v := range map[string]float64{
		Sector: w.Sector, Size: w.Size, Digital: w.Digital,
		Region: w.Region, Indicators: w.Indicators, Contact: w.Contact,
	} {
		if v < 0 {
			return eris.Errorf("scorer: negative %s weight %.2f", name, v)
		}
	}
	if sum := w.Sum(); math.Abs(sum-1) > weightTolerance+1e-9 {
		return eris.Errorf("scorer: weights sum to %.3f, want 1", sum)
	}
	return nil
}

// Engine scores leads against the scoring and sector tables. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	rules   *rules.ScoringRules
	sectors *rules.SectorTable

	tech       *rules.Matcher
	indicators *rules.Matcher
	sizes      *rules.Matcher
	now        func() time.Time
}

// New creates an Engine. Nil tables fall back to the built-in defaults.
func New(sr *rules.ScoringRules, sectors *rules.SectorTable) (*Engine, error) {
	if sr == nil {
		sr = rules.DefaultScoring()
	}
	if sectors == nil {
		sectors = rules.DefaultSectors()
	}
	if err := ValidateWeights(sr.Weights); err != nil {
		return nil, err
	}
	return &Engine{
		rules:      sr,
		sectors:    sectors,
		tech:       rules.NewMatcher(sr.TechIndicators),
		indicators: rules.NewMatcher(keywordsOf(sr.Indicators)),
		sizes:      rules.NewMatcher(keywordsOf(sr.SizeKeywords)),
		now:        time.Now,
	}, nil
}

// Score computes the score of a single lead. Repeated calls on the same
// fields return the same total.
func (e *Engine) Score(lead model.Lead) model.Score {
	b := map[string]int{
		Sector:     e.sectorScore(lead),
		Size:       e.sizeScore(lead),
		Digital:    e.digitalScore(lead),
		Region:     e.regionScore(lead.Region),
		Indicators: e.indicatorScore(lead),
		Contact:    e.contactScore(lead),
	}

	w := e.rules.Weights
	sum := w.Sector*scale(b[Sector], maxSector) +
		w.Size*scale(b[Size], maxSize) +
		w.Digital*scale(b[Digital], maxDigital) +
		w.Region*scale(b[Region], maxRegion) +
		w.Indicators*scale(b[Indicators], maxIndicators) +
		w.Contact*scale(b[Contact], maxContact)
	raw := int(math.Floor(sum + 1e-9))

	if ai := lead.Analysis.AI; ai != nil {
		b[Intelligence] = ai.IntelligenceScore
	}

	total := max(0, min(raw, 100))
	return model.Score{
		Total:           total,
		Raw:             raw,
		Breakdown:       b,
		Recommendations: e.recommendations(lead, b),
		Quality:         model.ClassifyQuality(total),
		ScoredAt:        e.now().UTC(),
	}
}

func scale(v, maximum int) float64 {
	return float64(v) * 100 / float64(maximum)
}

// sectorScore is negative for technology companies, which compete rather
// than buy.
func (e *Engine) sectorScore(lead model.Lead) int {
	if _, ok := e.tech.Match(lead.Text()); ok {
		return e.rules.TechPenalty
	}
	if s, ok := e.sectors.Lookup(lead.Sector); ok {
		return s.TargetScore
	}
	if s, _, ok := e.sectors.MatchKeyword(lead.Text()); ok {
		return s.TargetScore
	}
	return e.rules.DefaultSectorScore
}

func (e *Engine) sizeScore(lead model.Lead) int {
	switch n := lead.Employees; {
	case n >= 500:
		return 40
	case n >= 100:
		return 35
	case n >= 50:
		return 30
	case n >= 10:
		return 25
	case n > 0:
		return 20
	}
	if kw, ok := e.sizes.Match(lead.Size + " " + lead.Description); ok {
		return pointsOf(e.rules.SizeKeywords, kw)
	}
	return 25
}

func (e *Engine) digitalScore(lead model.Lead) int {
	score := 0
	w := lead.Analysis.Website
	switch {
	case w != nil && w.Reachable:
		if w.Modern {
			score += 20
		} else {
			score += 10
		}
	case lead.Website != "":
		if e.modernURL(lead.Website) {
			score += 20
		} else {
			score += 10
		}
	}

	platforms := len(lead.SocialMedia)
	if s := lead.Analysis.Social; s != nil {
		platforms = s.PlatformCount
	}
	score += min(platforms*5, 20)

	if w != nil && w.Reachable {
		score += min(w.ITNeeds/10, 20)
		switch w.Maturity {
		case model.MaturityLow:
			score += 15
		case model.MaturityMedium:
			score += 10
		default:
			score += 5
		}
	}
	return min(score, maxDigital)
}

func (e *Engine) modernURL(website string) bool {
	lower := strings.ToLower(website)
	for _, ind := range e.rules.ModernWebsiteIndicators {
		if strings.Contains(lower, strings.ToLower(ind)) {
			return true
		}
	}
	return false
}

func (e *Engine) regionScore(region string) int {
	folded := normalize.Text(region)
	if folded == "" {
		return e.rules.DefaultRegionScore
	}
	for _, r := range e.rules.Regions {
		if strings.Contains(folded, normalize.Text(r.Keyword)) {
			return min(r.Points, maxRegion)
		}
	}
	return e.rules.DefaultRegionScore
}

// indicatorScore sums the points of every indicator found in the lead's
// text, its sector and the pain points of any attached analysis.
func (e *Engine) indicatorScore(lead model.Lead) int {
	parts := []string{lead.Name, lead.Description, lead.Sector}
	if w := lead.Analysis.Website; w != nil {
		parts = append(parts, w.PainPoints...)
	}
	if ai := lead.Analysis.AI; ai != nil {
		parts = append(parts, ai.PainPoints...)
	}

	sum := 0
	for _, i := range e.indicators.All(strings.Join(parts, " | ")) {
		sum += e.rules.Indicators[i].Points
	}
	return max(0, min(sum, maxIndicators))
}

func (e *Engine) contactScore(lead model.Lead) int {
	score := 0
	if lead.Email != "" {
		if e.personalEmail(lead.Email) {
			score += 5
		} else {
			score += 15
		}
	}
	if len(normalize.Digits(lead.Phone)) >= 10 {
		score += 10
	}
	if lead.Website != "" {
		score += 10
	}
	if strings.TrimSpace(lead.Address) != "" {
		score += 5
	}
	return min(score, maxContact)
}

func (e *Engine) personalEmail(email string) bool {
	domain := normalize.Domain(email)
	for _, d := range e.rules.PersonalEmailDomains {
		if strings.EqualFold(domain, d) {
			return true
		}
	}
	return false
}

func keywordsOf(kp []rules.KeywordPoints) []string {
	out := make([]string, len(kp))
	for i, k := range kp {
		out[i] = k.Keyword
	}
	return out
}

func pointsOf(kp []rules.KeywordPoints, keyword string) int {
	for _, k := range kp {
		if k.Keyword == keyword {
			return k.Points
		}
	}
	return 0
}

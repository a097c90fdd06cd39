// Package filter drops non-business records and collapses duplicates.
//
// A record survives when it passes three gates in order: name validity,
// sector relevance and contact quality. Dedup then keeps the first record
// per normalized name and per normalized website.
package filter

import (
	"errors"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/normalize"
	"github.com/sells-group/prospect-cli/internal/rules"
)

// Gate names used in rejection traces.
const (
	GateName    = "name"
	GateSector  = "sector"
	GateQuality = "quality"
	GateDedup   = "dedup"
)

var bareNumber = regexp.MustCompile(`^[\d\s.,/()+\-]+$`)

// Rejection records why a lead was dropped.
type Rejection struct {
	Name   string `json:"name"`
	Gate   string `json:"gate"`
	Reason string `json:"reason"`
}

// Report is the outcome of Evaluate.
type Report struct {
	Accepted []model.Lead
	Rejected []Rejection
}

// Option configures a Filter.
type Option func(*Filter)

// WithStrictNames additionally requires every name to contain one of the
// valid business patterns, such as "ltda" or "restaurante".
func WithStrictNames() Option {
	return func(f *Filter) { f.strict = true }
}

// Filter applies the validation gates. It is safe for concurrent use.
type Filter struct {
	rules    *rules.FilterRules
	sectors  *rules.SectorTable
	patterns []rules.CompiledPattern
	keywords *rules.Matcher
	business *rules.Matcher
	domains  []string
	validate *validator.Validate
	strict   bool

	mu       sync.Mutex
	matchers map[string]*rules.Matcher
}

// New creates a Filter. Nil tables fall back to the built-in defaults.
func New(fr *rules.FilterRules, sectors *rules.SectorTable, opts ...Option) (*Filter, error) {
	if fr == nil {
		fr = rules.DefaultFilters()
	}
	if sectors == nil {
		sectors = rules.DefaultSectors()
	}
	patterns, err := fr.Compile()
	if err != nil {
		return nil, eris.Wrap(err, "filter: compile patterns")
	}

	f := &Filter{
		rules:    fr,
		sectors:  sectors,
		patterns: patterns,
		keywords: rules.NewMatcher(fr.InvalidKeywords),
		business: rules.NewMatcher(fr.ValidBusinessPatterns),
		validate: validator.New(),
		matchers: make(map[string]*rules.Matcher),
	}
	for _, d := range fr.InvalidDomains {
		if d = normalize.Fold(d); d != "" {
			f.domains = append(f.domains, d)
		}
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Apply runs every gate over leads and deduplicates the survivors.
func (f *Filter) Apply(leads []model.Lead, sector string) []model.Lead {
	return f.Evaluate(leads, sector).Accepted
}

// Evaluate is Apply with the rejection list kept.
func (f *Filter) Evaluate(leads []model.Lead, sector string) Report {
	var r Report
	passed := make([]model.Lead, 0, len(leads))
	for _, lead := range leads {
		if gate, reason := f.check(&lead, sector); gate != "" {
			r.reject(lead.Name, gate, reason)
			continue
		}
		passed = append(passed, lead)
	}

	seenName := make(map[string]bool, len(passed))
	seenSite := make(map[string]bool, len(passed))
	for _, lead := range passed {
		if reason := dupReason(lead, seenName, seenSite); reason != "" {
			r.reject(lead.Name, GateDedup, reason)
			continue
		}
		r.Accepted = append(r.Accepted, lead)
	}

	zap.L().Info("filter: applied",
		zap.String("sector", sector),
		zap.Int("input", len(leads)),
		zap.Int("accepted", len(r.Accepted)),
		zap.Int("rejected", len(r.Rejected)),
	)
	return r
}

func (r *Report) reject(name, gate, reason string) {
	zap.L().Debug("filter: rejected",
		zap.String("name", name),
		zap.String("gate", gate),
		zap.String("reason", reason),
	)
	r.Rejected = append(r.Rejected, Rejection{Name: name, Gate: gate, Reason: reason})
}

// check returns the failing gate and reason, or empty strings. A website
// without a scheme is given https:// so the URL check can pass.
func (f *Filter) check(lead *model.Lead, sector string) (string, string) {
	if ok, reason := f.ValidName(lead.Name); !ok {
		return GateName, reason
	}
	if !f.SectorRelevant(*lead, sector) {
		return GateSector, "no sector keyword"
	}
	if w := strings.TrimSpace(lead.Website); w != "" && !strings.Contains(w, "://") {
		lead.Website = "https://" + w
	}
	if err := f.Quality(*lead); err != nil {
		return GateQuality, err.Error()
	}
	return "", ""
}

// ValidName reports whether name looks like a business name. The reason
// names the rule that rejected it.
func (f *Filter) ValidName(name string) (bool, string) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return false, "empty name"
	}
	if trimmed == model.UnknownBusinessName {
		return false, "unnamed record"
	}
	if n := len([]rune(trimmed)); n < f.rules.MinNameLength {
		return false, "name too short"
	} else if f.rules.MaxNameLength > 0 && n > f.rules.MaxNameLength {
		return false, "name too long"
	}
	if bareNumber.MatchString(trimmed) {
		return false, "bare number"
	}

	folded := normalize.Text(trimmed)
	if kw, ok := f.keywords.Match(folded); ok {
		return false, "invalid keyword: " + kw
	}
	for _, d := range f.domains {
		if strings.Contains(folded, d) {
			return false, "invalid domain: " + d
		}
	}
	for _, p := range f.patterns {
		if p.Expr.MatchString(folded) {
			return false, p.Class + " phrasing"
		}
	}
	if f.strict {
		if _, ok := f.business.Match(folded); !ok {
			return false, "no business pattern"
		}
	}
	return true, ""
}

// SectorRelevant reports whether the lead's name or description contains
// a keyword from the sector table, or the sector string itself. An empty
// sector accepts everything.
func (f *Filter) SectorRelevant(lead model.Lead, sector string) bool {
	if strings.TrimSpace(sector) == "" {
		return true
	}
	text := lead.Text()
	if m := f.sectorMatcher(sector); m != nil {
		if _, hit := m.Match(text); hit {
			return true
		}
	}
	return normalize.ContainsFold(text, sector)
}

func (f *Filter) sectorMatcher(sector string) *rules.Matcher {
	s, ok := f.sectors.Lookup(sector)
	if !ok {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matchers[s.Name]
	if !ok {
		m = rules.NewMatcher(s.Keywords)
		f.matchers[s.Name] = m
	}
	return m
}

// Quality checks contact channels, confidence and field formats. A zero
// confidence means unset and passes.
func (f *Filter) Quality(lead model.Lead) error {
	if !lead.HasContact() {
		return eris.New("no contact channel")
	}
	if lead.Confidence > 0 && lead.Confidence < f.rules.MinConfidence {
		return eris.Errorf("confidence %.2f below %.2f", lead.Confidence, f.rules.MinConfidence)
	}
	if err := f.validate.Struct(lead); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return eris.Errorf("invalid %s", strings.ToLower(verrs[0].Field()))
		}
		return eris.Wrap(err, "invalid record")
	}
	return nil
}

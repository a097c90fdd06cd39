// Package rules holds the keyword tables that drive filtering, sector
// relevance and scoring. Tables are loaded from YAML files; a missing file
// falls back to the built-in defaults.
package rules

import (
	"errors"
	"io/fs"
	"os"
	"regexp"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/prospect-cli/internal/normalize"
)

// DefaultSectorName is returned when no sector matches a keyword.
const DefaultSectorName = "Outros"

// Sector describes one target sector.
type Sector struct {
	Name          string   `yaml:"name" json:"name"`
	Priority      string   `yaml:"priority" json:"priority"`
	TargetScore   int      `yaml:"target_score" json:"target_score"`
	Keywords      []string `yaml:"keywords" json:"keywords"`
	PainPoints    []string `yaml:"pain_points" json:"pain_points"`
	Opportunities []string `yaml:"opportunities" json:"opportunities"`
}

// SectorTable is the ordered list of configured sectors.
type SectorTable struct {
	Sectors []Sector `yaml:"sectors" json:"sectors"`

	once     sync.Once
	matchers []*Matcher
}

// Lookup finds a sector by name, ignoring case and accents.
func (t *SectorTable) Lookup(name string) (*Sector, bool) {
	key := normalize.Text(name)
	if key == "" {
		return nil, false
	}
	for i := range t.Sectors {
		if normalize.Text(t.Sectors[i].Name) == key {
			return &t.Sectors[i], true
		}
	}
	return nil, false
}

// MatchKeyword returns the first sector with a keyword found in text.
func (t *SectorTable) MatchKeyword(text string) (*Sector, string, bool) {
	t.compile()
	for i, m := range t.matchers {
		if kw, ok := m.Match(text); ok {
			return &t.Sectors[i], kw, true
		}
	}
	return nil, "", false
}

// InferFromKeyword maps a search keyword back to the sector that owns it.
func (t *SectorTable) InferFromKeyword(keyword string) string {
	if s, _, ok := t.MatchKeyword(keyword); ok {
		return s.Name
	}
	return DefaultSectorName
}

// Keywords returns the search keywords for a sector. Unknown sectors get a
// generated list built from the sector name.
func (t *SectorTable) Keywords(sector string) []string {
	if s, ok := t.Lookup(sector); ok && len(s.Keywords) > 0 {
		return append([]string(nil), s.Keywords...)
	}
	sector = strings.TrimSpace(sector)
	if sector == "" {
		return nil
	}
	return []string{
		sector,
		"melhor " + sector,
		sector + " perto de mim",
		sector + " próximo",
		"empresa " + sector,
		"negócio " + sector,
	}
}

func (t *SectorTable) compile() {
	t.once.Do(func() {
		t.matchers = make([]*Matcher, len(t.Sectors))
		for i, s := range t.Sectors {
			t.matchers[i] = NewMatcher(s.Keywords)
		}
	})
}

// PatternRule is a named regular expression class applied to folded names.
type PatternRule struct {
	Class   string `yaml:"class" json:"class"`
	Pattern string `yaml:"pattern" json:"pattern"`
}

// FilterRules configures name validity and extraction heuristics.
type FilterRules struct {
	InvalidKeywords       []string      `yaml:"invalid_keywords" json:"invalid_keywords"`
	InvalidDomains        []string      `yaml:"invalid_domains" json:"invalid_domains"`
	InvalidPatterns       []PatternRule `yaml:"invalid_patterns" json:"invalid_patterns"`
	ValidBusinessPatterns []string      `yaml:"valid_business_patterns" json:"valid_business_patterns"`
	UIBlocklist           []string      `yaml:"ui_blocklist" json:"ui_blocklist"`
	MinNameLength         int           `yaml:"minimum_name_length" json:"minimum_name_length"`
	MaxNameLength         int           `yaml:"maximum_name_length" json:"maximum_name_length"`
	MinConfidence         float64       `yaml:"min_confidence" json:"min_confidence"`
}

// CompiledPattern is a PatternRule with its compiled expression.
type CompiledPattern struct {
	Class string
	Expr  *regexp.Regexp
}

// Compile compiles every invalid pattern.
func (r *FilterRules) Compile() ([]CompiledPattern, error) {
	out := make([]CompiledPattern, 0, len(r.InvalidPatterns))
	for _, p := range r.InvalidPatterns {
		re, err := regexp.Compile(p.Pattern)
		if err != nil {
			return nil, eris.Wrapf(err, "rules: compile %s pattern %q", p.Class, p.Pattern)
		}
		out = append(out, CompiledPattern{Class: p.Class, Expr: re})
	}
	return out, nil
}

// Weights are the relative weights of the six sub-scores.
type Weights struct {
	Sector     float64 `yaml:"sector" json:"sector"`
	Size       float64 `yaml:"size" json:"size"`
	Digital    float64 `yaml:"digital" json:"digital"`
	Region     float64 `yaml:"region" json:"region"`
	Indicators float64 `yaml:"indicators" json:"indicators"`
	Contact    float64 `yaml:"contact" json:"contact"`
}

// Sum returns the total of all weights.
func (w Weights) Sum() float64 {
	return w.Sector + w.Size + w.Digital + w.Region + w.Indicators + w.Contact
}

// KeywordPoints assigns points to a keyword.
type KeywordPoints struct {
	Keyword string `yaml:"keyword" json:"keyword"`
	Points  int    `yaml:"points" json:"points"`
}

// ScoringRules holds the tables used by the scoring engine.
type ScoringRules struct {
	Weights                 Weights         `yaml:"weights" json:"weights"`
	Regions                 []KeywordPoints `yaml:"regions" json:"regions"`
	DefaultRegionScore      int             `yaml:"default_region_score" json:"default_region_score"`
	Indicators              []KeywordPoints `yaml:"indicators" json:"indicators"`
	TechIndicators          []string        `yaml:"tech_indicators" json:"tech_indicators"`
	TechPenalty             int             `yaml:"tech_penalty" json:"tech_penalty"`
	DefaultSectorScore      int             `yaml:"default_sector_score" json:"default_sector_score"`
	SizeKeywords            []KeywordPoints `yaml:"size_keywords" json:"size_keywords"`
	PersonalEmailDomains    []string        `yaml:"personal_email_domains" json:"personal_email_domains"`
	ModernWebsiteIndicators []string        `yaml:"modern_website_indicators" json:"modern_website_indicators"`
}

// LoadSectors reads a sector table from path. A missing file or empty path
// yields the defaults.
func LoadSectors(path string) (*SectorTable, error) {
	var wrapper struct {
		Sectors []Sector `yaml:"sectors"`
	}
	found, err := readYAML(path, &wrapper)
	if err != nil {
		return nil, eris.Wrap(err, "rules: load sectors")
	}
	if !found || len(wrapper.Sectors) == 0 {
		return DefaultSectors(), nil
	}
	for i := range wrapper.Sectors {
		if wrapper.Sectors[i].TargetScore == 0 {
			wrapper.Sectors[i].TargetScore = 30
		}
	}
	return &SectorTable{Sectors: wrapper.Sectors}, nil
}

// LoadFilters reads filter rules from path. Unset fields keep their default
// values.
func LoadFilters(path string) (*FilterRules, error) {
	r := DefaultFilters()
	var wrapper struct {
		Filters *FilterRules `yaml:"filters"`
	}
	wrapper.Filters = r
	if _, err := readYAML(path, &wrapper); err != nil {
		return nil, eris.Wrap(err, "rules: load filters")
	}
	if _, err := r.Compile(); err != nil {
		return nil, err
	}
	return r, nil
}

// LoadScoring reads scoring rules from path. Unset fields keep their default
// values.
func LoadScoring(path string) (*ScoringRules, error) {
	r := DefaultScoring()
	var wrapper struct {
		Scoring *ScoringRules `yaml:"scoring"`
	}
	wrapper.Scoring = r
	if _, err := readYAML(path, &wrapper); err != nil {
		return nil, eris.Wrap(err, "rules: load scoring")
	}
	return r, nil
}

// readYAML decodes path into out. It reports found=false without error when
// path is empty or the file does not exist.
func readYAML(path string, out any) (bool, error) {
	if path == "" {
		return false, nil
	}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		zap.L().Debug("rules: file not found, using defaults", zap.String("path", path))
		return false, nil
	}
	if err != nil {
		return false, eris.Wrapf(err, "read %s", path)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return false, eris.Wrapf(err, "parse %s", path)
	}
	return true, nil
}

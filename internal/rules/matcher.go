package rules

import (
	"regexp"

	"github.com/sells-group/prospect-cli/internal/normalize"
)

// Matcher finds whole-word occurrences of phrases in folded text. Phrases
// are folded on construction so "clínica" matches "CLINICA".
type Matcher struct {
	phrases []string
	exprs   []*regexp.Regexp
}

// NewMatcher compiles a matcher for the given phrases. Empty phrases are
// ignored.
func NewMatcher(phrases []string) *Matcher {
	m := &Matcher{}
	for _, p := range phrases {
		folded := normalize.Text(p)
		if folded == "" {
			continue
		}
		m.phrases = append(m.phrases, p)
		m.exprs = append(m.exprs, wordExpr(folded))
	}
	return m
}

func wordExpr(folded string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[^\pL\pN])` + regexp.QuoteMeta(folded) + `(?:$|[^\pL\pN])`)
}

// Match returns the first phrase found in text.
func (m *Matcher) Match(text string) (string, bool) {
	if m == nil {
		return "", false
	}
	folded := normalize.Text(text)
	for i, re := range m.exprs {
		if re.MatchString(folded) {
			return m.phrases[i], true
		}
	}
	return "", false
}

// All returns the index of every phrase found in text, in table order.
func (m *Matcher) All(text string) []int {
	if m == nil {
		return nil
	}
	folded := normalize.Text(text)
	var hits []int
	for i, re := range m.exprs {
		if re.MatchString(folded) {
			hits = append(hits, i)
		}
	}
	return hits
}

// Len returns the number of compiled phrases.
func (m *Matcher) Len() int {
	if m == nil {
		return 0
	}
	return len(m.phrases)
}

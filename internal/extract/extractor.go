// Package extract turns fetched page content into candidate lead records.
// HTML is split into heading blocks; plain text and reader markdown go
// through a line-based heuristic. Malformed input yields no records.
package extract

import (
	"regexp"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html/atom"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/normalize"
	"github.com/sells-group/prospect-cli/internal/rules"
)

// lookahead is how many lines after a name are searched for contact data.
const lookahead = 4

// phrasing rejects names that read like questions, rankings or lists.
var phrasing = []*regexp.Regexp{
	regexp.MustCompile(`\?`),
	regexp.MustCompile(`^(como|quando|onde|qual|quais|por que|o que|quem)\b`),
	regexp.MustCompile(`\b(top|melhores|os|as)\s+\d+\b`),
	regexp.MustCompile(`\b(os|as)\s+melhores\b`),
	regexp.MustCompile(`^\d+\s+(melhores|maiores|principais)\b`),
	regexp.MustCompile(`\b(ranking|lista de|listagem)\b`),
}

var urlLike = regexp.MustCompile(`(?i)^(https?://|www\.)|\.(com|br|net|org)(\.br)?(/|$)`)

// Extractor applies the candidate name policy and the per-source layout
// rules.
type Extractor struct {
	minLen, maxLen int
	ui             []string
}

// New creates an Extractor from the filter rules.
func New(fr *rules.FilterRules) *Extractor {
	if fr == nil {
		fr = rules.DefaultFilters()
	}
	e := &Extractor{minLen: fr.MinNameLength, maxLen: fr.MaxNameLength}
	if e.minLen <= 0 {
		e.minLen = 3
	}
	if e.maxLen <= 0 {
		e.maxLen = 100
	}
	for _, p := range fr.UIBlocklist {
		if f := normalize.Text(p); f != "" {
			e.ui = append(e.ui, f)
		}
	}
	return e
}

// IsCandidateName reports whether s may be used as a business name.
func (e *Extractor) IsCandidateName(s string) bool {
	s = strings.TrimSpace(s)
	n := len([]rune(s))
	if n < e.minLen || n > e.maxLen {
		return false
	}
	if numericOnly.MatchString(s) || phonePattern.MatchString(s) || IsAddress(s) {
		return false
	}
	if urlLike.MatchString(s) || emailPattern.MatchString(s) {
		return false
	}
	folded := normalize.Text(s)
	if e.isChrome(folded) {
		return false
	}
	for _, re := range phrasing {
		if re.MatchString(folded) {
			return false
		}
	}
	return true
}

// isChrome matches UI text: a blocklist phrase on its own, or a short
// label of at most three words that starts with one ("Ver mais
// resultados", "Próxima página").
func (e *Extractor) isChrome(folded string) bool {
	words := len(strings.Fields(folded))
	for _, p := range e.ui {
		if folded == p {
			return true
		}
		if words <= 3 && strings.HasPrefix(folded, p+" ") {
			return true
		}
	}
	return false
}

// Extract returns the candidate records found in raw for source.
func (e *Extractor) Extract(raw string, source model.Source) []model.Lead {
	if strings.TrimSpace(raw) == "" {
		return nil
	}

	var leads []model.Lead
	if looksLikeHTML(raw) {
		blocks := parseBlocks(raw)
		switch source {
		case model.SourceGoogleSearch, model.SourceBingSearch, model.SourceJinaSearch:
			leads = e.fromSearchBlocks(blocks, source)
		default:
			leads = e.fromListingBlocks(blocks, source)
		}
	} else {
		leads = e.fromLines(strings.Split(raw, "\n"), source)
	}

	if len(leads) == 0 {
		if l, ok := unnamed(raw, source); ok {
			leads = append(leads, l)
		}
	}
	zap.L().Debug("extract: records found", zap.String("source", string(source)), zap.Int("count", len(leads)))
	return leads
}

// fromListingBlocks handles maps and directory layouts: every heading is a
// listing and its contact data is in the following lines and links.
func (e *Extractor) fromListingBlocks(blocks []block, source model.Source) []model.Lead {
	var out []model.Lead
	for _, b := range blocks {
		if !e.IsCandidateName(b.heading) {
			continue
		}
		var c contactFields
		lines := b.lines
		if len(lines) > lookahead {
			lines = lines[:lookahead]
		}
		for _, l := range lines {
			c.scan(l)
		}
		if b.href != "" {
			c.link(b.href)
		}
		for _, h := range b.links {
			c.link(h)
		}
		out = append(out, newLead(b.heading, c, source))
	}
	return out
}

// fromSearchBlocks handles result pages: h2/h3 link titles with a snippet.
func (e *Extractor) fromSearchBlocks(blocks []block, source model.Source) []model.Lead {
	var out []model.Lead
	for _, b := range blocks {
		if b.level != 0 && b.level != atom.H2 && b.level != atom.H3 {
			continue
		}
		target := unwrapRedirect(b.href)
		if target == "" || !IsBusinessURL(target) {
			continue
		}
		name := TitleName(b.heading)
		if !e.IsCandidateName(name) {
			continue
		}
		c := contactFields{website: target}
		for i, l := range b.lines {
			if i >= lookahead {
				break
			}
			c.scan(l)
			if c.description == "" && len([]rune(l)) >= 10 && len([]rune(l)) <= 200 && !urlLike.MatchString(l) {
				c.description = l
			}
		}
		out = append(out, newLead(name, c, source))
	}
	return out
}

var mdHeading = regexp.MustCompile(`^#{1,6}\s+(.+)$`)
var mdBold = regexp.MustCompile(`^\*\*(.+?)\*\*:?$`)
var mdLink = regexp.MustCompile(`^\[([^\]]+)\]\((https?://[^)\s]+)\)`)
var listMarker = regexp.MustCompile(`^(\d+[.)]|[-*•])\s+`)

// fromLines is the text heuristic. Markdown headings, bold lines and link
// titles are names; any other line is a name only when contact data
// follows within the lookahead.
func (e *Extractor) fromLines(raw []string, source model.Source) []model.Lead {
	lines := make([]string, 0, len(raw))
	for _, l := range raw {
		if l = strings.TrimSpace(l); l != "" {
			lines = append(lines, l)
		}
	}

	var out []model.Lead
	for i := 0; i < len(lines); i++ {
		name, href, marked := lineName(lines[i])
		if !e.IsCandidateName(name) {
			continue
		}

		var c contactFields
		if href != "" {
			c.link(href)
		}
		end := i + 1
		for j := i + 1; j < len(lines) && j <= i+lookahead; j++ {
			next, _, nextMarked := lineName(lines[j])
			if nextMarked && e.IsCandidateName(next) {
				break
			}
			c.scan(lines[j])
			end = j + 1
		}
		if !marked && !c.any() {
			continue
		}
		out = append(out, newLead(name, c, source))
		i = end - 1
	}
	return out
}

// lineName strips markdown and list markers. marked reports whether the
// line was formatted as a title.
func lineName(line string) (name, href string, marked bool) {
	line = listMarker.ReplaceAllString(line, "")
	if m := mdHeading.FindStringSubmatch(line); m != nil {
		line = m[1]
		marked = true
	}
	if m := mdLink.FindStringSubmatch(line); m != nil {
		return TitleName(strings.Trim(m[1], "*")), m[2], true
	}
	if m := mdBold.FindStringSubmatch(line); m != nil {
		return TitleName(m[1]), "", true
	}
	return TitleName(line), "", marked
}

// TitleName drops the site suffix from a page title, e.g. "Bella Pizzaria
// | Zona Sul" becomes "Bella Pizzaria".
func TitleName(t string) string {
	t = strings.TrimSpace(t)
	for _, sep := range []string{" | ", " - ", " – ", " — ", " :: "} {
		if i := strings.Index(t, sep); i > 0 {
			t = t[:i]
		}
	}
	return strings.Trim(t, " *#:")
}

// unnamed builds the low-confidence record for content that carries
// contact data but no recognizable name.
func unnamed(raw string, source model.Source) (model.Lead, bool) {
	var c contactFields
	c.email = FindEmail(raw)
	c.phone = FindPhone(raw)
	if c.email == "" && c.phone == "" {
		return model.Lead{}, false
	}
	l := newLead(model.UnknownBusinessName, c, source)
	l.Confidence = model.ConfidenceUnnamed
	return l, true
}

func newLead(name string, c contactFields, source model.Source) model.Lead {
	return model.Lead{
		Name:        strings.TrimSpace(name),
		Website:     c.website,
		Phone:       c.phone,
		Email:       c.email,
		Address:     c.address,
		Description: c.description,
		Source:      source,
		Confidence:  model.ConfidenceExtracted,
	}
}

func looksLikeHTML(raw string) bool {
	head := raw
	if len(head) > 2048 {
		head = head[:2048]
	}
	head = strings.ToLower(head)
	for _, tag := range []string{"<html", "<!doctype", "<body", "<div", "<h2", "<h3", "<li", "<p>"} {
		if strings.Contains(head, tag) {
			return true
		}
	}
	return false
}

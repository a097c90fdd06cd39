package enrich

import (
	"sort"
	"strings"

	"github.com/sells-group/prospect-cli/internal/model"
)

// SocialAnalyzer summarizes the social platforms a lead is present on.
type SocialAnalyzer struct{}

// Analyze counts platforms from the lead's own social links and, when
// present, the links found on its website.
func (SocialAnalyzer) Analyze(lead model.Lead) *model.SocialAnalysis {
	seen := map[string]bool{}
	for k, v := range lead.SocialMedia {
		p := Platform(v)
		if p == "" {
			p = strings.ToLower(strings.TrimSpace(k))
		}
		if p != "" {
			seen[p] = true
		}
	}
	if w := lead.Analysis.Website; w != nil {
		for _, link := range w.SocialLinks {
			if p := Platform(link); p != "" {
				seen[p] = true
			}
		}
	}

	out := &model.SocialAnalysis{Platforms: make([]string, 0, len(seen))}
	for p := range seen {
		out.Platforms = append(out.Platforms, p)
	}
	sort.Strings(out.Platforms)
	out.PlatformCount = len(out.Platforms)
	out.Score = min(out.PlatformCount*20, 100)
	return out
}

package filter

import (
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/normalize"
)

// Dedup keeps the first lead per normalized name and per normalized
// website. Running it on its own output is a no-op.
func Dedup(leads []model.Lead) []model.Lead {
	seenName := make(map[string]bool, len(leads))
	seenSite := make(map[string]bool, len(leads))
	out := make([]model.Lead, 0, len(leads))
	for _, lead := range leads {
		if dupReason(lead, seenName, seenSite) != "" {
			continue
		}
		out = append(out, lead)
	}
	return out
}

// dupReason reports why lead duplicates an earlier one, recording its keys
// when it does not.
func dupReason(lead model.Lead, seenName, seenSite map[string]bool) string {
	name := normalize.Name(lead.Name)
	site := normalize.Website(lead.Website)
	if name != "" && seenName[name] {
		return "duplicate name"
	}
	if site != "" && seenSite[site] {
		return "duplicate website"
	}
	if name != "" {
		seenName[name] = true
	}
	if site != "" {
		seenSite[site] = true
	}
	return ""
}

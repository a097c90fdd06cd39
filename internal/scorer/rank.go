package scorer

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/model"
)

// Rank scores every lead, orders them by raw score descending and keeps
// those whose total reaches minScore. Ties keep their input order. The
// returned leads carry their Score; the input slice is not modified.
func (e *Engine) Rank(leads []model.Lead, minScore int) []model.Lead {
	scored := make([]model.Lead, len(leads))
	for i, l := range leads {
		s := e.Score(l)
		l.Score = &s
		scored[i] = l
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score.Raw > scored[j].Score.Raw
	})

	kept := scored[:0]
	for _, l := range scored {
		if l.Score.Total >= minScore {
			kept = append(kept, l)
		}
	}

	zap.L().Info("scorer: ranked",
		zap.Int("scored", len(leads)),
		zap.Int("retained", len(kept)),
		zap.Int("min_score", minScore),
	)
	return kept
}

// Summarize builds the score distribution of scored leads. Leads without a
// Score are ignored.
func Summarize(leads []model.Lead) model.ScoreDistribution {
	var d model.ScoreDistribution
	sum, n := 0, 0
	for _, l := range leads {
		if l.Score == nil {
			continue
		}
		t := l.Score.Total
		d.Add(t)
		if n == 0 || t > d.Max {
			d.Max = t
		}
		if n == 0 || t < d.Min {
			d.Min = t
		}
		sum += t
		n++
	}
	if n > 0 {
		d.Average = float64(sum) / float64(n)
	}
	return d
}

// CountAtLeast returns how many scored leads reach threshold.
func CountAtLeast(leads []model.Lead, threshold int) int {
	n := 0
	for _, l := range leads {
		if l.Score != nil && l.Score.Total >= threshold {
			n++
		}
	}
	return n
}

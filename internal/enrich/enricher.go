package enrich

import (
	"context"
	"time"

	"github.com/sells-group/prospect-cli/internal/config"
	"github.com/sells-group/prospect-cli/internal/model"
)

// Enricher runs the three analysis passes over a lead slice in place.
type Enricher struct {
	Website *WebsiteAnalyzer
	Social  SocialAnalyzer
	AI      *AIAnalyzer

	WebsiteBatch BatchOptions
	AIBatch      BatchOptions
}

// BatchesFromConfig returns the website and AI batch options.
func BatchesFromConfig(cfg config.PipelineConfig) (website, ai BatchOptions) {
	pause := time.Duration(cfg.BatchPauseMs) * time.Millisecond
	website = BatchOptions{Size: cfg.WebsiteBatchSize, Pause: pause, Jitter: cfg.BatchJitter}
	ai = BatchOptions{Size: cfg.AIBatchSize, Pause: pause, Jitter: cfg.BatchJitter}
	if ai.Size <= 0 {
		ai.Size = 10
	}
	return website, ai
}

// Websites attaches a website analysis to every lead with a website. It
// returns the number analyzed.
func (e *Enricher) Websites(ctx context.Context, leads []model.Lead) (int, error) {
	if e.Website == nil {
		return 0, nil
	}
	idx := indexesWhere(leads, func(l *model.Lead) bool { return l.Website != "" })
	subset := make([]model.Lead, len(idx))
	for i, j := range idx {
		subset[i] = leads[j]
	}
	n, err := Batch(ctx, subset, e.WebsiteBatch, func(ctx context.Context, l *model.Lead) {
		l.Analysis.Website = e.Website.Analyze(ctx, l.Website)
	})
	for i := 0; i < n; i++ {
		leads[idx[i]].Analysis.Website = subset[i].Analysis.Website
	}
	return n, err
}

// Socials attaches a social analysis to every lead.
func (e *Enricher) Socials(leads []model.Lead) int {
	for i := range leads {
		leads[i].Analysis.Social = e.Social.Analyze(leads[i])
	}
	return len(leads)
}

// Intelligence attaches an AI analysis to every lead.
func (e *Enricher) Intelligence(ctx context.Context, leads []model.Lead) (int, error) {
	if e.AI == nil {
		return 0, nil
	}
	return Batch(ctx, leads, e.AIBatch, func(ctx context.Context, l *model.Lead) {
		l.Analysis.AI = e.AI.Analyze(ctx, *l)
	})
}

func indexesWhere(leads []model.Lead, keep func(*model.Lead) bool) []int {
	var out []int
	for i := range leads {
		if keep(&leads[i]) {
			out = append(out, i)
		}
	}
	return out
}

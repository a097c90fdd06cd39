package enrich

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/resilience"
)

// BatchOptions control how a pass over leads is split.
type BatchOptions struct {
	// Size is the number of leads analyzed concurrently. Default: 5.
	Size int
	// Pause is the policy delay between batches.
	Pause time.Duration
	// Jitter spreads Pause by ±fraction.
	Jitter float64
}

// Batch calls fn for every lead, Size at a time, pausing between batches.
// It stops early when ctx is done and returns how many leads were handled
// along with the context error.
func Batch(ctx context.Context, leads []model.Lead, opts BatchOptions, fn func(ctx context.Context, lead *model.Lead)) (int, error) {
	size := opts.Size
	if size <= 0 {
		size = 5
	}

	done := 0
	for start := 0; start < len(leads); start += size {
		if start > 0 {
			if err := resilience.Sleep(ctx, resilience.Jitter(opts.Pause, opts.Jitter)); err != nil {
				return done, err
			}
		}
		if err := ctx.Err(); err != nil {
			return done, err
		}

		end := min(start+size, len(leads))
		var g errgroup.Group
		for i := start; i < end; i++ {
			g.Go(func() error {
				fn(ctx, &leads[i])
				return nil
			})
		}
		_ = g.Wait()
		done = end

		zap.L().Debug("enrich: batch complete",
			zap.Int("done", done),
			zap.Int("total", len(leads)),
		)
	}
	return done, nil
}

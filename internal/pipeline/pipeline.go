// Package pipeline drives a collection run: keywords, fan-out collection,
// filtering, enrichment, scoring and truncation to the requested size.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/filter"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/scorer"
	"github.com/sells-group/prospect-cli/internal/source"
	"github.com/sells-group/prospect-cli/internal/store"
)

// Phase names, in run order.
const (
	PhaseKeywords = "1_keywords"
	PhaseCollect  = "2_collect"
	PhaseFilter   = "3_filter"
	PhaseWebsite  = "4_website"
	PhaseSocial   = "5_social"
	PhaseAI       = "6_ai"
	PhaseScore    = "7_score"
)

// DefaultHighQuality is the total at which a returned lead counts as high
// quality.
const DefaultHighQuality = 80

// ErrInvalidParams is returned for a run that cannot start.
var ErrInvalidParams = eris.New("pipeline: invalid params")

// Collector generates keywords and fans out to sources.
type Collector interface {
	Keywords(sector string) []string
	Collect(ctx context.Context, req source.Request) source.Result
}

// Screener validates and deduplicates collected leads.
type Screener interface {
	Evaluate(leads []model.Lead, sector string) filter.Report
}

// Analyzer attaches analysis payloads to leads in place.
type Analyzer interface {
	Websites(ctx context.Context, leads []model.Lead) (int, error)
	Socials(leads []model.Lead) int
	Intelligence(ctx context.Context, leads []model.Lead) (int, error)
}

// Ranker scores leads and keeps those reaching a minimum.
type Ranker interface {
	Rank(leads []model.Lead, minScore int) []model.Lead
}

// Pipeline orchestrates the phases of a collection run.
type Pipeline struct {
	collector   Collector
	screener    Screener
	analyzer    Analyzer
	ranker      Ranker
	store       store.Store
	highQuality int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithStore persists runs and their leads. Store failures are logged and
// never fail a run.
func WithStore(st store.Store) Option {
	return func(p *Pipeline) { p.store = st }
}

// WithHighQualityThreshold sets the total counted as high quality.
func WithHighQualityThreshold(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.highQuality = n
		}
	}
}

// New creates a Pipeline. A nil analyzer disables enrichment.
func New(c Collector, s Screener, a Analyzer, r Ranker, opts ...Option) *Pipeline {
	p := &Pipeline{
		collector:   c,
		screener:    s,
		analyzer:    a,
		ranker:      r,
		highQuality: DefaultHighQuality,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Validate checks run params. Sector and region are required and the lead
// target must be positive.
func Validate(params model.RunParams) error {
	switch {
	case strings.TrimSpace(params.Sector) == "":
		return eris.Wrap(ErrInvalidParams, "sector is required")
	case strings.TrimSpace(params.Region) == "":
		return eris.Wrap(ErrInvalidParams, "region is required")
	case params.MaxLeads <= 0:
		return eris.Wrapf(ErrInvalidParams, "max leads must be positive, got %d", params.MaxLeads)
	case params.MinScore < 0 || params.MinScore > 100:
		return eris.Wrapf(ErrInvalidParams, "min score must be within 0-100, got %d", params.MinScore)
	}
	return nil
}

// run carries the mutable state of one Run call.
type run struct {
	id     string
	log    *zap.Logger
	stats  model.Stats
	store  store.Store
	params model.RunParams
}

// Run executes a collection run. The only returned error is an invalid
// params error: every later failure degrades the result instead, and an
// empty lead list is a valid outcome.
func (p *Pipeline) Run(ctx context.Context, params model.RunParams) (*model.Result, error) {
	params.Sector = strings.TrimSpace(params.Sector)
	params.Region = strings.TrimSpace(params.Region)
	if err := Validate(params); err != nil {
		return nil, err
	}

	started := time.Now()
	r := &run{
		store:  p.store,
		params: params,
		stats:  model.Stats{Timings: make(map[string]int64)},
	}
	r.id = r.create(ctx)
	r.log = zap.L().With(zap.String("run_id", r.id), zap.String("sector", params.Sector), zap.String("region", params.Region))
	r.log.Info("pipeline: starting run", zap.Int("max_leads", params.MaxLeads), zap.Int("min_score", params.MinScore))

	// ===== Phase 1: Keywords =====
	var keywords []string
	r.trackPhase(PhaseKeywords, func() (map[string]any, error) {
		keywords = p.collector.Keywords(params.Sector)
		r.stats.Keywords = keywords
		return map[string]any{"keywords": len(keywords)}, nil
	})

	// ===== Phase 2: Collection =====
	r.setStatus(ctx, model.RunStatusCollecting)
	var leads []model.Lead
	r.trackPhase(PhaseCollect, func() (map[string]any, error) {
		res := p.collector.Collect(ctx, source.Request{
			Sector:     params.Sector,
			Region:     params.Region,
			Keywords:   keywords,
			Sources:    params.Sources,
			MaxRecords: params.MaxLeads * 2,
		})
		leads = res.Leads
		r.stats.Sources = res.Reports
		r.stats.LeadsFound = len(leads)
		return map[string]any{"leads": len(leads), "searches": len(res.Reports)}, nil
	})

	// ===== Phase 3: Filter =====
	r.setStatus(ctx, model.RunStatusFiltering)
	r.trackPhase(PhaseFilter, func() (map[string]any, error) {
		report := p.screener.Evaluate(leads, params.Sector)
		leads = report.Accepted
		r.stats.LeadsFiltered = len(leads)
		return map[string]any{"accepted": len(report.Accepted), "rejected": len(report.Rejected)}, nil
	})

	// ===== Phases 4-6: Enrichment =====
	r.setStatus(ctx, model.RunStatusEnriching)
	p.enrich(ctx, r, leads, params)

	// ===== Phase 7: Score =====
	r.setStatus(ctx, model.RunStatusScoring)
	var ranked []model.Lead
	r.trackPhase(PhaseScore, func() (map[string]any, error) {
		ranked = p.ranker.Rank(leads, params.MinScore)
		retained := len(ranked)
		if len(ranked) > params.MaxLeads {
			ranked = ranked[:params.MaxLeads]
		}
		return map[string]any{"retained": retained, "returned": len(ranked)}, nil
	})
	if ranked == nil {
		ranked = []model.Lead{}
	}

	r.stats.LeadsReturned = len(ranked)
	r.stats.HighQualityLeads = scorer.CountAtLeast(ranked, p.highQuality)
	r.stats.Distribution = scorer.Summarize(ranked)
	r.stats.TotalDurationMs = time.Since(started).Milliseconds()

	r.save(ctx, ranked)

	r.log.Info("pipeline: run complete",
		zap.Int("found", r.stats.LeadsFound),
		zap.Int("filtered", r.stats.LeadsFiltered),
		zap.Int("analyzed", r.stats.LeadsAnalyzed),
		zap.Int("returned", r.stats.LeadsReturned),
		zap.Int("high_quality", r.stats.HighQualityLeads),
		zap.Int64("duration_ms", r.stats.TotalDurationMs),
	)

	return &model.Result{RunID: r.id, Leads: ranked, Stats: r.stats}, nil
}

func (p *Pipeline) enrich(ctx context.Context, r *run, leads []model.Lead, params model.RunParams) {
	enabled := p.analyzer != nil && len(leads) > 0

	if !enabled || params.SkipWebsite {
		r.skipPhase(PhaseWebsite)
	} else {
		r.trackPhase(PhaseWebsite, func() (map[string]any, error) {
			n, err := p.analyzer.Websites(ctx, leads)
			return map[string]any{"analyzed": n}, err
		})
	}

	if !enabled || params.SkipSocial {
		r.skipPhase(PhaseSocial)
	} else {
		r.trackPhase(PhaseSocial, func() (map[string]any, error) {
			return map[string]any{"analyzed": p.analyzer.Socials(leads)}, nil
		})
	}

	if !enabled || params.SkipAI {
		r.skipPhase(PhaseAI)
	} else {
		r.trackPhase(PhaseAI, func() (map[string]any, error) {
			n, err := p.analyzer.Intelligence(ctx, leads)
			return map[string]any{"analyzed": n}, err
		})
	}

	for i := range leads {
		if leads[i].Analysis.Enriched() {
			r.stats.LeadsAnalyzed++
		}
	}
}

// trackPhase times fn and records its outcome. A failed phase is logged
// and the run continues with whatever fn produced.
func (r *run) trackPhase(name string, fn func() (map[string]any, error)) model.PhaseResult {
	start := time.Now()
	meta, err := fn()
	duration := time.Since(start).Milliseconds()

	pr := model.PhaseResult{Name: name, Duration: duration, Metadata: meta}
	if err != nil {
		pr.Status = model.PhaseStatusFailed
		pr.Error = err.Error()
		r.log.Error("pipeline: phase failed",
			zap.String("phase", name),
			zap.Int64("duration_ms", duration),
			zap.Error(err),
		)
	} else {
		pr.Status = model.PhaseStatusComplete
		r.log.Info("pipeline: phase complete",
			zap.String("phase", name),
			zap.Int64("duration_ms", duration),
		)
	}

	r.stats.Phases = append(r.stats.Phases, pr)
	r.stats.Timings[name] = duration
	return pr
}

func (r *run) skipPhase(name string) {
	r.stats.Phases = append(r.stats.Phases, model.PhaseResult{Name: name, Status: model.PhaseStatusSkipped})
}

// create registers the run with the store, falling back to a local ID.
func (r *run) create(ctx context.Context) string {
	id := r.params.RunID
	if id == "" {
		id = uuid.NewString()
	}
	if r.store == nil {
		return id
	}
	created, err := r.store.CreateRun(ctx, r.params)
	if err != nil {
		zap.L().Warn("pipeline: failed to create run", zap.Error(err))
		r.store = nil
		return id
	}
	return created.ID
}

func (r *run) setStatus(ctx context.Context, status model.RunStatus) {
	if r.store == nil {
		return
	}
	if err := r.store.UpdateRunStatus(ctx, r.id, status); err != nil {
		r.log.Warn("pipeline: failed to update status", zap.String("status", string(status)), zap.Error(err))
	}
}

func (r *run) save(ctx context.Context, leads []model.Lead) {
	if r.store == nil {
		return
	}
	// Persist even when the run context is already done.
	ctx = context.WithoutCancel(ctx)
	if err := r.store.SaveResult(ctx, r.id, r.stats, leads); err != nil {
		r.log.Warn("pipeline: failed to save result", zap.Error(err))
	}
}

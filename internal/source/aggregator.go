package source

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/prospect-cli/internal/config"
	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/rules"
)

// Options bound a collection.
type Options struct {
	// PerSourceLimit caps the records kept from each source.
	PerSourceLimit int
	// Deadline is the soft limit for the whole collection.
	Deadline time.Duration
	// SourceTimeout bounds each individual search.
	SourceTimeout time.Duration
	// Concurrency caps in-flight searches.
	Concurrency int
}

// OptionsFromConfig maps the sources config section to Options.
func OptionsFromConfig(cfg config.SourcesConfig) Options {
	return Options{
		PerSourceLimit: cfg.PerSourceLimit,
		Deadline:       time.Duration(cfg.DeadlineSecs) * time.Second,
		SourceTimeout:  time.Duration(cfg.TimeoutSecs) * time.Second,
		Concurrency:    cfg.Concurrency,
	}
}

// Request describes one collection.
type Request struct {
	Sector     string
	Region     string
	Keywords   []string
	Sources    []model.Source
	MaxRecords int
}

// Result is the merged candidate pool plus one report per search.
type Result struct {
	Leads   []model.Lead
	Reports []model.SourceReport
}

// Aggregator runs every keyword against every requested source.
type Aggregator struct {
	sources map[model.Source]Source
	order   []model.Source
	sectors *rules.SectorTable
	opts    Options
}

// NewAggregator creates an Aggregator over the given sources.
func NewAggregator(sectors *rules.SectorTable, opts Options, sources ...Source) *Aggregator {
	if sectors == nil {
		sectors = rules.DefaultSectors()
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	a := &Aggregator{sources: make(map[model.Source]Source), sectors: sectors, opts: opts}
	for _, s := range sources {
		if _, dup := a.sources[s.Name()]; !dup {
			a.order = append(a.order, s.Name())
		}
		a.sources[s.Name()] = s
	}
	return a
}

// Registered lists the configured sources in registration order.
func (a *Aggregator) Registered() []model.Source {
	return append([]model.Source(nil), a.order...)
}

// Keywords returns the search keywords for a sector.
func (a *Aggregator) Keywords(sector string) []string {
	return a.sectors.Keywords(sector)
}

type task struct {
	src     Source
	srcIdx  int
	keyword string
	kwIdx   int
}

// Collect searches every (keyword, source) pair concurrently. A failed
// search is logged and reported but never stops the others. Records are
// tagged with their keyword, region and inferred sector, capped per source
// and then capped overall at MaxRecords.
func (a *Aggregator) Collect(ctx context.Context, req Request) Result {
	if a.opts.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.Deadline)
		defer cancel()
	}

	keywords := req.Keywords
	if len(keywords) == 0 {
		keywords = a.Keywords(req.Sector)
	}
	requested := req.Sources
	if len(requested) == 0 {
		requested = a.order
	}

	var reports []model.SourceReport
	var srcs []Source
	for _, name := range requested {
		s, ok := a.sources[name]
		if !ok {
			zap.L().Warn("source: not configured", zap.String("source", string(name)))
			reports = append(reports, model.SourceReport{Source: name, Error: "source not configured"})
			continue
		}
		srcs = append(srcs, s)
	}

	// Indexed by [source][keyword] so output order does not depend on
	// completion order.
	results := make([][][]model.Lead, len(srcs))
	searched := make([][]model.SourceReport, len(srcs))
	for i := range results {
		results[i] = make([][]model.Lead, len(keywords))
		searched[i] = make([]model.SourceReport, len(keywords))
	}

	var g errgroup.Group
	g.SetLimit(a.opts.Concurrency)

	for si, s := range srcs {
		for ki, kw := range keywords {
			t := task{src: s, srcIdx: si, keyword: kw, kwIdx: ki}
			g.Go(func() error {
				results[t.srcIdx][t.kwIdx], searched[t.srcIdx][t.kwIdx] = a.search(ctx, t, req)
				return nil
			})
		}
	}
	_ = g.Wait()
	for _, row := range searched {
		reports = append(reports, row...)
	}

	var pool []model.Lead
	for si, perKeyword := range results {
		var fromSource []model.Lead
		for _, leads := range perKeyword {
			fromSource = append(fromSource, leads...)
		}
		if a.opts.PerSourceLimit > 0 && len(fromSource) > a.opts.PerSourceLimit {
			fromSource = fromSource[:a.opts.PerSourceLimit]
		}
		zap.L().Info("source: collected",
			zap.String("source", string(srcs[si].Name())),
			zap.Int("records", len(fromSource)),
		)
		pool = append(pool, fromSource...)
	}
	if req.MaxRecords > 0 && len(pool) > req.MaxRecords {
		pool = pool[:req.MaxRecords]
	}

	return Result{Leads: pool, Reports: reports}
}

func (a *Aggregator) search(ctx context.Context, t task, req Request) ([]model.Lead, model.SourceReport) {
	report := model.SourceReport{Source: t.src.Name(), Keyword: t.keyword}
	start := time.Now()

	if err := ctx.Err(); err != nil {
		report.Error = err.Error()
		return nil, report
	}

	sctx := ctx
	if a.opts.SourceTimeout > 0 {
		var cancel context.CancelFunc
		sctx, cancel = context.WithTimeout(ctx, a.opts.SourceTimeout)
		defer cancel()
	}

	leads, err := safeSearch(sctx, t.src, Query{Keyword: t.keyword, Region: req.Region, Limit: a.opts.PerSourceLimit})
	report.Duration = time.Since(start).Milliseconds()
	if err != nil {
		zap.L().Warn("source: search failed",
			zap.String("source", string(t.src.Name())),
			zap.String("keyword", t.keyword),
			zap.Error(err),
		)
		report.Error = err.Error()
		return nil, report
	}

	sector := a.sectors.InferFromKeyword(t.keyword)
	if sector == rules.DefaultSectorName && req.Sector != "" {
		sector = req.Sector
	}
	for i := range leads {
		leads[i].ID = uuid.NewString()
		leads[i].Keyword = t.keyword
		leads[i].Region = req.Region
		leads[i].Sector = sector
		if leads[i].Source == "" {
			leads[i].Source = t.src.Name()
		}
	}
	report.Records = len(leads)
	return leads, report
}

// safeSearch converts a panicking source into an error so one broken
// parser cannot take the run down.
func safeSearch(ctx context.Context, s Source, q Query) (leads []model.Lead, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = panicError{value: r}
		}
	}()
	return s.Search(ctx, q)
}

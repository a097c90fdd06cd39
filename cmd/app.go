package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/prospect-cli/internal/config"
	"github.com/sells-group/prospect-cli/internal/cost"
	"github.com/sells-group/prospect-cli/internal/enrich"
	"github.com/sells-group/prospect-cli/internal/extract"
	"github.com/sells-group/prospect-cli/internal/fetch"
	"github.com/sells-group/prospect-cli/internal/filter"
	"github.com/sells-group/prospect-cli/internal/inference"
	"github.com/sells-group/prospect-cli/internal/pipeline"
	"github.com/sells-group/prospect-cli/internal/rules"
	"github.com/sells-group/prospect-cli/internal/scorer"
	"github.com/sells-group/prospect-cli/internal/source"
	"github.com/sells-group/prospect-cli/internal/store"
	"github.com/sells-group/prospect-cli/pkg/google"
	"github.com/sells-group/prospect-cli/pkg/jina"
)

// ruleSet is the loaded keyword tables.
type ruleSet struct {
	Sectors *rules.SectorTable
	Filters *rules.FilterRules
	Scoring *rules.ScoringRules
}

func loadRules(c config.RulesConfig) (*ruleSet, error) {
	sectors, err := rules.LoadSectors(c.SectorsPath)
	if err != nil {
		return nil, err
	}
	filters, err := rules.LoadFilters(c.FiltersPath)
	if err != nil {
		return nil, err
	}
	scoring, err := rules.LoadScoring(c.ScoringPath)
	if err != nil {
		return nil, err
	}
	return &ruleSet{Sectors: sectors, Filters: filters, Scoring: scoring}, nil
}

// newInference builds the inference client from config, loading provider
// keys from the configured env file first.
func newInference(c *config.Config) (*inference.Client, error) {
	creds, err := inference.LoadEnvCredentials(c.Inference.EnvFile)
	if err != nil {
		return nil, eris.Wrap(err, "load env file")
	}
	calc := cost.NewCalculator(cost.RatesFromConfig(c.Pricing))
	return inference.NewFromConfig(c.Inference, creds, inference.WithCalculator(calc)), nil
}

// app holds every initialized component needed by the run, score and
// serve commands.
type app struct {
	Rules     *ruleSet
	Store     store.Store // nil when store.driver is "none"
	Inference *inference.Client
	Scorer    *scorer.Engine
	Pipeline  *pipeline.Pipeline
	Defaults  config.PipelineConfig
	Monitor   config.MonitoringConfig
}

// Close releases resources held by the app.
func (a *app) Close() {
	if a.Store != nil {
		_ = a.Store.Close()
	}
}

// newApp wires config into a ready pipeline. Callers should defer Close.
func newApp(ctx context.Context, c *config.Config) (*app, error) {
	rs, err := loadRules(c.Rules)
	if err != nil {
		return nil, err
	}

	engine, err := scorer.New(rs.Scoring, rs.Sectors)
	if err != nil {
		return nil, err
	}
	screen, err := filter.New(rs.Filters, rs.Sectors)
	if err != nil {
		return nil, err
	}

	ai, err := newInference(c)
	if err != nil {
		return nil, err
	}

	jinaOpts := []jina.Option{}
	if c.Jina.BaseURL != "" {
		jinaOpts = append(jinaOpts, jina.WithBaseURL(c.Jina.BaseURL))
	}
	if c.Jina.SearchBaseURL != "" {
		jinaOpts = append(jinaOpts, jina.WithSearchBaseURL(c.Jina.SearchBaseURL))
	}
	jinaClient := jina.NewClient(c.Jina.Key, jinaOpts...)
	fetcher := fetch.NewFromConfig(c.Fetch, jinaClient)

	deps := source.Deps{Fetcher: fetcher, Extractor: extract.New(rs.Filters)}
	if c.Google.Key != "" {
		var opts []google.Option
		if c.Google.BaseURL != "" {
			opts = append(opts, google.WithBaseURL(c.Google.BaseURL))
		}
		deps.Places = google.NewClient(c.Google.Key, opts...)
	} else {
		zap.L().Debug("PROSPECT_GOOGLE_KEY not set, google places source disabled")
	}
	if c.Jina.Key != "" {
		deps.Search = jinaClient
	}
	collector := source.FromConfig(c.Sources, rs.Sectors, deps)

	websiteBatch, aiBatch := enrich.BatchesFromConfig(c.Pipeline)
	analyzer := &enrich.Enricher{
		Website:      enrich.NewWebsiteAnalyzer(fetcher),
		AI:           enrich.NewAIAnalyzer(ai, rs.Sectors, rs.Scoring, ""),
		WebsiteBatch: websiteBatch,
		AIBatch:      aiBatch,
	}

	st, err := store.Open(ctx, c.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}

	opts := []pipeline.Option{pipeline.WithHighQualityThreshold(c.Pipeline.HighQualityThreshold)}
	if st != nil {
		opts = append(opts, pipeline.WithStore(st))
	}

	return &app{
		Rules:     rs,
		Store:     st,
		Inference: ai,
		Scorer:    engine,
		Pipeline:  pipeline.New(collector, screen, analyzer, engine, opts...),
		Defaults:  c.Pipeline,
		Monitor:   c.Monitoring,
	}, nil
}

// openStore opens the configured store for the read-only runs commands.
func openStore(ctx context.Context) (store.Store, error) {
	st, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, eris.Wrap(err, "open store")
	}
	if st == nil {
		return nil, eris.New("store driver is \"none\"; run history is unavailable")
	}
	return st, nil
}

// shutdownTimeout bounds graceful server shutdown.
const shutdownTimeout = 10 * time.Second

package config

import (
	"strings"

	"github.com/rotisserie/eris"
)

// Validate checks the settings a command mode depends on. Modes are "run",
// "serve" and "generate".
func (c *Config) Validate(mode string) error {
	var problems []string

	switch mode {
	case "run", "serve":
		problems = append(problems, c.validatePipeline()...)
		problems = append(problems, c.validateStore()...)
		if mode == "serve" {
			if c.Server.Port <= 0 {
				problems = append(problems, "server.port must be > 0")
			}
			problems = append(problems, c.validateMonitoring()...)
		}
	case "generate":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Inference.CacheTTLMinutes < 0 {
		problems = append(problems, "inference.cache_ttl_minutes must be >= 0")
	}

	if len(problems) > 0 {
		return eris.Errorf("config: %s", strings.Join(problems, "; "))
	}
	return nil
}

func (c *Config) validatePipeline() []string {
	var problems []string
	p := c.Pipeline
	if p.MinScore < 0 || p.MinScore > 100 {
		problems = append(problems, "pipeline.min_score must be between 0 and 100")
	}
	if p.MaxLeads <= 0 {
		problems = append(problems, "pipeline.max_leads must be > 0")
	}
	if p.WebsiteBatchSize <= 0 || p.AIBatchSize <= 0 {
		problems = append(problems, "pipeline batch sizes must be > 0")
	}
	if p.BatchJitter < 0 || p.BatchJitter > 1 {
		problems = append(problems, "pipeline.batch_jitter must be between 0 and 1")
	}
	if c.Sources.Concurrency < 1 || c.Sources.Concurrency > 32 {
		problems = append(problems, "sources.concurrency must be between 1 and 32")
	}
	return problems
}

func (c *Config) validateStore() []string {
	switch c.Store.Driver {
	case "none":
		return nil
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			return []string{"store.database_url is required for driver " + c.Store.Driver}
		}
		return nil
	default:
		return []string{"store.driver must be sqlite, postgres or none"}
	}
}

func (c *Config) validateMonitoring() []string {
	m := c.Monitoring
	if !m.Enabled {
		return nil
	}
	var problems []string
	if c.Store.Driver == "none" {
		problems = append(problems, "monitoring requires a store driver")
	}
	for name, v := range map[string]float64{
		"failure_rate_threshold":      m.FailureRateThreshold,
		"empty_run_rate_threshold":    m.EmptyRunRateThreshold,
		"source_error_rate_threshold": m.SourceErrorRateThreshold,
	} {
		if v < 0 || v > 1 {
			problems = append(problems, "monitoring."+name+" must be between 0 and 1")
		}
	}
	return problems
}

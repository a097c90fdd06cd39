// Package monitoring summarizes recent collection runs and raises alerts
// when they degrade.
package monitoring

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/store"
)

const pageSize = 200

// Snapshot holds a point-in-time view of run health.
type Snapshot struct {
	// Runs created within the lookback window.
	RunsTotal      int     `json:"runs_total"`
	RunsComplete   int     `json:"runs_complete"`
	RunsFailed     int     `json:"runs_failed"`
	RunsInProgress int     `json:"runs_in_progress"`
	FailureRate    float64 `json:"failure_rate"`

	// Completed runs that returned no leads.
	EmptyRuns    int     `json:"empty_runs"`
	EmptyRunRate float64 `json:"empty_run_rate"`

	LeadsReturned    int     `json:"leads_returned"`
	HighQualityLeads int     `json:"high_quality_leads"`
	AvgScore         float64 `json:"avg_score"`

	// Searches across every source in the window.
	SourceSearches  int            `json:"source_searches"`
	SourceErrors    int            `json:"source_errors"`
	SourceErrorRate float64        `json:"source_error_rate"`
	ErrorsBySource  map[string]int `json:"errors_by_source,omitempty"`

	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// RunLister is the part of store.Store the collector reads.
type RunLister interface {
	ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error)
}

// Collector gathers run metrics from the store.
type Collector struct {
	runs RunLister
	now  func() time.Time
}

// NewCollector creates a Collector over runs.
func NewCollector(runs RunLister) *Collector {
	return &Collector{runs: runs, now: time.Now}
}

// Collect summarizes the runs created within the last lookbackHours.
// Runs are listed newest first, so paging stops at the first older run.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*Snapshot, error) {
	if lookbackHours <= 0 {
		lookbackHours = 24
	}
	now := c.now().UTC()
	cutoff := now.Add(-time.Duration(lookbackHours) * time.Hour)
	snap := &Snapshot{LookbackHours: lookbackHours, CollectedAt: now}

	var scoreSum float64
	var scored int

	for offset := 0; ; offset += pageSize {
		page, err := c.runs.ListRuns(ctx, store.RunFilter{Limit: pageSize, Offset: offset})
		if err != nil {
			return nil, eris.Wrap(err, "monitoring: list runs")
		}

		older := false
		for _, r := range page {
			if r.CreatedAt.Before(cutoff) {
				older = true
				break
			}
			snap.RunsTotal++
			switch r.Status {
			case model.RunStatusComplete:
				snap.RunsComplete++
			case model.RunStatusFailed:
				snap.RunsFailed++
			default:
				snap.RunsInProgress++
			}
			if r.Stats == nil {
				continue
			}

			snap.LeadsReturned += r.Stats.LeadsReturned
			snap.HighQualityLeads += r.Stats.HighQualityLeads
			if r.Status == model.RunStatusComplete && r.Stats.LeadsReturned == 0 {
				snap.EmptyRuns++
			}
			if r.Stats.LeadsReturned > 0 {
				scoreSum += r.Stats.Distribution.Average
				scored++
			}
			for _, rep := range r.Stats.Sources {
				snap.SourceSearches++
				if rep.Error == "" {
					continue
				}
				snap.SourceErrors++
				if snap.ErrorsBySource == nil {
					snap.ErrorsBySource = make(map[string]int)
				}
				snap.ErrorsBySource[string(rep.Source)]++
			}
		}
		if older || len(page) < pageSize {
			break
		}
	}

	if finished := snap.RunsComplete + snap.RunsFailed; finished > 0 {
		snap.FailureRate = float64(snap.RunsFailed) / float64(finished)
	}
	if snap.RunsComplete > 0 {
		snap.EmptyRunRate = float64(snap.EmptyRuns) / float64(snap.RunsComplete)
	}
	if snap.SourceSearches > 0 {
		snap.SourceErrorRate = float64(snap.SourceErrors) / float64(snap.SourceSearches)
	}
	if scored > 0 {
		snap.AvgScore = scoreSum / float64(scored)
	}
	return snap, nil
}

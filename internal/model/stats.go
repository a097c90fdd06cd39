package model

// SourceReport records what a single source contributed to a run.
type SourceReport struct {
	Source   Source `json:"source"`
	Keyword  string `json:"keyword"`
	Records  int    `json:"records"`
	Duration int64  `json:"duration_ms"`
	Error    string `json:"error,omitempty"`
}

// ScoreDistribution buckets scored leads by quality tier.
type ScoreDistribution struct {
	Excellent int     `json:"excellent"`
	Good      int     `json:"good"`
	Fair      int     `json:"fair"`
	Poor      int     `json:"poor"`
	Average   float64 `json:"average"`
	Max       int     `json:"max"`
	Min       int     `json:"min"`
}

// Add counts a single total in its tier. Average, Max and Min are
// maintained by the caller.
func (d *ScoreDistribution) Add(total int) {
	switch ClassifyQuality(total) {
	case QualityExcellent:
		d.Excellent++
	case QualityGood:
		d.Good++
	case QualityFair:
		d.Fair++
	default:
		d.Poor++
	}
}

// Stats is the aggregate statistics object produced by a run.
type Stats struct {
	LeadsFound       int               `json:"leads_found"`
	LeadsFiltered    int               `json:"leads_filtered"`
	LeadsAnalyzed    int               `json:"leads_analyzed"`
	HighQualityLeads int               `json:"high_quality_leads"`
	LeadsReturned    int               `json:"leads_returned"`
	Keywords         []string          `json:"keywords"`
	Sources          []SourceReport    `json:"sources"`
	Phases           []PhaseResult     `json:"phases"`
	Timings          map[string]int64  `json:"timings"`
	TotalDurationMs  int64             `json:"total_duration_ms"`
	Distribution     ScoreDistribution `json:"score_distribution"`
}

// Result is the produced interface of a run: the ranked leads plus stats.
type Result struct {
	RunID string `json:"run_id,omitempty"`
	Leads []Lead `json:"leads"`
	Stats Stats  `json:"stats"`
}

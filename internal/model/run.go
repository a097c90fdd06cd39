package model

import "time"

// RunStatus represents the current state of a collection run.
type RunStatus string

const (
	RunStatusQueued     RunStatus = "queued"
	RunStatusCollecting RunStatus = "collecting"
	RunStatusFiltering  RunStatus = "filtering"
	RunStatusEnriching  RunStatus = "enriching"
	RunStatusScoring    RunStatus = "scoring"
	RunStatusComplete   RunStatus = "complete"
	RunStatusFailed     RunStatus = "failed"
)

// RunParams are the caller-supplied inputs of a collection run.
type RunParams struct {
	// RunID, when set, is used as the run's ID instead of a generated one.
	RunID       string   `json:"-"`
	Sector      string   `json:"sector"`
	Region      string   `json:"region"`
	MinScore    int      `json:"min_score"`
	MaxLeads    int      `json:"max_leads"`
	Sources     []Source `json:"sources,omitempty"`
	SkipWebsite bool     `json:"skip_website,omitempty"`
	SkipSocial  bool     `json:"skip_social,omitempty"`
	SkipAI      bool     `json:"skip_ai,omitempty"`
}

// Run is a persisted collection run.
type Run struct {
	ID        string    `json:"id"`
	Params    RunParams `json:"params"`
	Status    RunStatus `json:"status"`
	Stats     *Stats    `json:"stats,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PhaseStatus represents the outcome of a pipeline phase.
type PhaseStatus string

const (
	PhaseStatusComplete PhaseStatus = "complete"
	PhaseStatusFailed   PhaseStatus = "failed"
	PhaseStatusSkipped  PhaseStatus = "skipped"
)

// PhaseResult holds the outcome of a single pipeline phase.
type PhaseResult struct {
	Name     string         `json:"name"`
	Status   PhaseStatus    `json:"status"`
	Duration int64          `json:"duration_ms"`
	Error    string         `json:"error,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

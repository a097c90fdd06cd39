// Package store persists collection runs and their ranked leads.
package store

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/prospect-cli/internal/config"
	"github.com/sells-group/prospect-cli/internal/model"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = eris.New("store: not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status model.RunStatus `json:"status,omitempty"`
	Sector string          `json:"sector,omitempty"`
	Limit  int             `json:"limit,omitempty"`
	Offset int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for collection runs.
type Store interface {
	// Runs
	CreateRun(ctx context.Context, params model.RunParams) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Results
	SaveResult(ctx context.Context, runID string, stats model.Stats, leads []model.Lead) error
	ListLeads(ctx context.Context, runID string) ([]model.Lead, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverNone     = "none"
)

// Open connects to the configured store and runs migrations. The "none"
// driver returns a nil Store.
func Open(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		st  Store
		err error
	)
	switch strings.ToLower(cfg.Driver) {
	case "", DriverSQLite:
		st, err = NewSQLite(cfg.DatabaseURL)
	case DriverPostgres:
		st, err = NewPostgres(ctx, cfg.DatabaseURL, nil)
	case DriverNone:
		return nil, nil
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, err
	}
	return st, nil
}

const defaultListLimit = 100

func listLimit(n int) int {
	if n <= 0 {
		return defaultListLimit
	}
	return n
}

// leadRow is the column projection of a stored lead.
type leadRow struct {
	ID      string
	Name    string
	Source  string
	Sector  string
	Score   int
	Payload []byte
}

func toLeadRow(l model.Lead) (leadRow, error) {
	payload, err := json.Marshal(l)
	if err != nil {
		return leadRow{}, eris.Wrapf(err, "store: marshal lead %s", l.Name)
	}
	r := leadRow{ID: l.ID, Name: l.Name, Source: string(l.Source), Sector: l.Sector, Payload: payload}
	if l.Score != nil {
		r.Score = l.Score.Total
	}
	return r, nil
}

func decodeLead(payload []byte) (model.Lead, error) {
	var l model.Lead
	if err := json.Unmarshal(payload, &l); err != nil {
		return l, eris.Wrap(err, "store: unmarshal lead")
	}
	return l, nil
}

package pipeline

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/prospect-cli/internal/model"
	"github.com/sells-group/prospect-cli/internal/source"
	"github.com/sells-group/prospect-cli/internal/store"
)

// --- Collector stub ---

type stubCollector struct {
	keywords []string
	leads    []model.Lead
	reports  []model.SourceReport

	mu  sync.Mutex
	req source.Request
}

func (c *stubCollector) Keywords(string) []string { return c.keywords }

func (c *stubCollector) Collect(_ context.Context, req source.Request) source.Result {
	c.mu.Lock()
	c.req = req
	c.mu.Unlock()
	out := make([]model.Lead, len(c.leads))
	copy(out, c.leads)
	return source.Result{Leads: out, Reports: c.reports}
}

// --- Analyzer stub ---

type stubAnalyzer struct {
	aiErr error
	calls []string
}

func (a *stubAnalyzer) Websites(_ context.Context, leads []model.Lead) (int, error) {
	a.calls = append(a.calls, "website")
	n := 0
	for i := range leads {
		if leads[i].Website != "" {
			leads[i].Analysis.Website = &model.WebsiteAnalysis{URL: leads[i].Website, Reachable: true}
			n++
		}
	}
	return n, nil
}

func (a *stubAnalyzer) Socials(leads []model.Lead) int {
	a.calls = append(a.calls, "social")
	for i := range leads {
		leads[i].Analysis.Social = &model.SocialAnalysis{}
	}
	return len(leads)
}

func (a *stubAnalyzer) Intelligence(context.Context, []model.Lead) (int, error) {
	a.calls = append(a.calls, "ai")
	return 0, a.aiErr
}

// --- Store mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateRun(ctx context.Context, params model.RunParams) (*model.Run, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	return m.Called(ctx, runID, status).Error(0)
}

func (m *mockStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Run), args.Error(1)
}

func (m *mockStore) ListRuns(ctx context.Context, filter store.RunFilter) ([]model.Run, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Run), args.Error(1)
}

func (m *mockStore) SaveResult(ctx context.Context, runID string, stats model.Stats, leads []model.Lead) error {
	return m.Called(ctx, runID, stats, leads).Error(0)
}

func (m *mockStore) ListLeads(ctx context.Context, runID string) ([]model.Lead, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Lead), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/internal/config"
	"github.com/sells-group/prospect-cli/internal/model"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	st, err := NewSQLite(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func sampleParams() model.RunParams {
	return model.RunParams{Sector: "advocacia", Region: "Recife", MinScore: 40, MaxLeads: 10}
}

func sampleLeads() []model.Lead {
	return []model.Lead{
		{
			ID: "a", Name: "Silva Advogados", Source: model.SourceGoogleMaps, Sector: "advocacia",
			Website: "https://silva.adv.br",
			Score:   &model.Score{Total: 82, Raw: 82, Quality: model.QualityExcellent},
		},
		{
			ID: "b", Name: "Souza & Lima", Source: model.SourceBingSearch, Sector: "advocacia",
			Score: &model.Score{Total: 55, Raw: 55, Quality: model.QualityFair},
		},
	}
}

func TestSQLite_RunLifecycle(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, sampleParams())
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)
	assert.Equal(t, model.RunStatusQueued, run.Status)

	require.NoError(t, st.UpdateRunStatus(ctx, run.ID, model.RunStatusCollecting))

	got, err := st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCollecting, got.Status)
	assert.Equal(t, sampleParams(), got.Params)
	assert.Nil(t, got.Stats)

	stats := model.Stats{LeadsFound: 12, LeadsFiltered: 5, LeadsReturned: 2, HighQualityLeads: 1}
	require.NoError(t, st.SaveResult(ctx, run.ID, stats, sampleLeads()))

	got, err = st.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, got.Status)
	require.NotNil(t, got.Stats)
	assert.Equal(t, 12, got.Stats.LeadsFound)

	leads, err := st.ListLeads(ctx, run.ID)
	require.NoError(t, err)
	require.Len(t, leads, 2)
	assert.Equal(t, "Silva Advogados", leads[0].Name)
	assert.Equal(t, 82, leads[0].Score.Total)
	assert.Equal(t, "Souza & Lima", leads[1].Name)
}

func TestSQLite_CreateRunGivenID(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	params := sampleParams()
	params.RunID = "run-fixed"
	run, err := st.CreateRun(ctx, params)
	require.NoError(t, err)
	assert.Equal(t, "run-fixed", run.ID)

	got, err := st.GetRun(ctx, "run-fixed")
	require.NoError(t, err)
	assert.Equal(t, sampleParams(), got.Params, "run id is not stored in params")
}

func TestSQLite_SaveResultReplacesLeads(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	run, err := st.CreateRun(ctx, sampleParams())
	require.NoError(t, err)
	require.NoError(t, st.SaveResult(ctx, run.ID, model.Stats{}, sampleLeads()))
	require.NoError(t, st.SaveResult(ctx, run.ID, model.Stats{}, sampleLeads()[:1]))

	leads, err := st.ListLeads(ctx, run.ID)
	require.NoError(t, err)
	assert.Len(t, leads, 1)
}

func TestSQLite_NotFound(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	_, err := st.GetRun(ctx, "missing")
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNotFound))

	err = st.UpdateRunStatus(ctx, "missing", model.RunStatusFailed)
	assert.True(t, eris.Is(err, ErrNotFound))

	err = st.SaveResult(ctx, "missing", model.Stats{}, nil)
	assert.True(t, eris.Is(err, ErrNotFound))

	leads, err := st.ListLeads(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, leads)
}

func TestSQLite_ListRuns(t *testing.T) {
	st := newTestSQLiteStore(t)
	ctx := context.Background()

	a, err := st.CreateRun(ctx, sampleParams())
	require.NoError(t, err)
	other := sampleParams()
	other.Sector = "saúde"
	_, err = st.CreateRun(ctx, other)
	require.NoError(t, err)
	require.NoError(t, st.UpdateRunStatus(ctx, a.ID, model.RunStatusFailed))

	all, err := st.ListRuns(ctx, RunFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	failed, err := st.ListRuns(ctx, RunFilter{Status: model.RunStatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, a.ID, failed[0].ID)

	health, err := st.ListRuns(ctx, RunFilter{Sector: "saúde"})
	require.NoError(t, err)
	require.Len(t, health, 1)
	assert.Equal(t, "saúde", health[0].Params.Sector)

	limited, err := st.ListRuns(ctx, RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	st, err := Open(ctx, config.StoreConfig{Driver: DriverNone})
	require.NoError(t, err)
	assert.Nil(t, st)

	_, err = Open(ctx, config.StoreConfig{Driver: "mongo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")

	st, err = Open(ctx, config.StoreConfig{Driver: "SQLite", DatabaseURL: filepath.Join(t.TempDir(), "open.db")})
	require.NoError(t, err)
	require.NotNil(t, st)
	defer st.Close() //nolint:errcheck

	_, err = st.CreateRun(ctx, sampleParams())
	assert.NoError(t, err)
}

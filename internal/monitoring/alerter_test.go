package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/prospect-cli/internal/config"
)

func testMonitoringConfig() config.MonitoringConfig {
	return config.MonitoringConfig{
		FailureRateThreshold:     0.2,
		EmptyRunRateThreshold:    0.5,
		SourceErrorRateThreshold: 0.5,
	}
}

func TestAlerter_Evaluate_NoAlerts(t *testing.T) {
	a := NewAlerter(testMonitoringConfig())

	alerts := a.Evaluate(&Snapshot{
		RunsTotal:       20,
		RunsComplete:    19,
		RunsFailed:      1,
		FailureRate:     0.05,
		EmptyRuns:       2,
		EmptyRunRate:    2.0 / 19.0,
		SourceSearches:  100,
		SourceErrors:    5,
		SourceErrorRate: 0.05,
		LookbackHours:   24,
	})
	assert.Empty(t, alerts)
}

func TestAlerter_Evaluate_FailureRate(t *testing.T) {
	a := NewAlerter(testMonitoringConfig())

	alerts := a.Evaluate(&Snapshot{
		RunsComplete:  6,
		RunsFailed:    4,
		FailureRate:   0.4,
		LookbackHours: 24,
	})
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertRunFailureRate, alerts[0].Type)
	assert.Equal(t, "high", alerts[0].Severity)
	assert.Contains(t, alerts[0].Message, "40.0%")
	assert.Contains(t, alerts[0].Message, "4 failed / 10 finished")
}

func TestAlerter_Evaluate_TooFewRuns(t *testing.T) {
	a := NewAlerter(testMonitoringConfig())

	alerts := a.Evaluate(&Snapshot{
		RunsComplete:    1,
		RunsFailed:      3,
		FailureRate:     0.75,
		SourceSearches:  4,
		SourceErrors:    4,
		SourceErrorRate: 1,
	})
	assert.Empty(t, alerts)
}

func TestAlerter_Evaluate_EmptyRuns(t *testing.T) {
	a := NewAlerter(testMonitoringConfig())

	alerts := a.Evaluate(&Snapshot{
		RunsComplete:  5,
		EmptyRuns:     4,
		EmptyRunRate:  0.8,
		LookbackHours: 6,
	})
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertEmptyRuns, alerts[0].Type)
	assert.Equal(t, "4 of 5 completed runs returned no leads in last 6h", alerts[0].Message)
}

func TestAlerter_Evaluate_SourceErrors(t *testing.T) {
	a := NewAlerter(testMonitoringConfig())

	alerts := a.Evaluate(&Snapshot{
		SourceSearches:  12,
		SourceErrors:    9,
		SourceErrorRate: 0.75,
		ErrorsBySource:  map[string]int{"bing_search": 9},
		LookbackHours:   24,
	})
	require.Len(t, alerts, 1)
	assert.Equal(t, AlertSourceErrorRate, alerts[0].Type)
	assert.Equal(t, map[string]int{"bing_search": 9}, alerts[0].Details["by_source"])
}

func TestAlerter_SendAlerts(t *testing.T) {
	var received atomic.Int32
	var last Alert
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&last))
		received.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	cfg := testMonitoringConfig()
	cfg.WebhookURL = srv.URL
	a := NewAlerter(cfg)

	sent := a.SendAlerts(context.Background(), []Alert{{Type: AlertEmptyRuns, Severity: "medium", Message: "empty"}})
	assert.Equal(t, 1, sent)
	assert.Equal(t, int32(1), received.Load())
	assert.Equal(t, AlertEmptyRuns, last.Type)
}

func TestAlerter_SendAlerts_WebhookError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := testMonitoringConfig()
	cfg.WebhookURL = srv.URL
	sent := NewAlerter(cfg).SendAlerts(context.Background(), []Alert{{Type: AlertRunFailureRate}})
	assert.Equal(t, 0, sent)
}

func TestAlerter_SendAlerts_NoWebhook(t *testing.T) {
	sent := NewAlerter(testMonitoringConfig()).SendAlerts(context.Background(), []Alert{{Type: AlertRunFailureRate}})
	assert.Equal(t, 0, sent)
}

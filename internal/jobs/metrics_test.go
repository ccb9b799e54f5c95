package jobmetrics

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, registry *prometheus.Registry) string {
	t.Helper()
	rr := httptest.NewRecorder()
	promhttp.HandlerFor(registry, promhttp.HandlerOpts{}).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	return rr.Body.String()
}

func TestTrackerCountsOutcomes(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := NewMetrics(registry)

	assert.NoError(t, m.Track("audit:deliver").End(nil))
	transient := errors.New("insert failed")
	assert.ErrorIs(t, m.Track("audit:deliver").End(transient), transient)
	skipped := fmt.Errorf("decode: %w", asynq.SkipRetry)
	assert.ErrorIs(t, m.Track("audit:deliver").End(skipped), asynq.SkipRetry)

	body := scrape(t, registry)
	assert.Contains(t, body, `adminpanel_tasks_processed_total{outcome="success",task="audit:deliver"} 1`)
	assert.Contains(t, body, `adminpanel_tasks_processed_total{outcome="retry",task="audit:deliver"} 1`)
	assert.Contains(t, body, `adminpanel_tasks_processed_total{outcome="skipped",task="audit:deliver"} 1`)
	assert.Contains(t, body, `adminpanel_task_duration_seconds_count{task="audit:deliver"} 3`)
	assert.Contains(t, body, `adminpanel_task_last_success_timestamp_seconds{task="audit:deliver"}`)
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, OutcomeSuccess, Outcome(nil))
	assert.Equal(t, OutcomeRetry, Outcome(errors.New("timeout")))
	assert.Equal(t, OutcomeSkipped, Outcome(fmt.Errorf("bad payload: %w", asynq.SkipRetry)))
}

func TestNilMetricsTrackerIsSafe(t *testing.T) {
	var m *Metrics
	err := errors.New("boom")
	assert.Equal(t, err, m.Track("audit:deliver").End(err))
}

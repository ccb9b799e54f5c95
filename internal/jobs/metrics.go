// Package jobmetrics instruments asynq task handlers.
package jobmetrics

import (
	"errors"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
)

// Task outcomes. A skipped task failed with asynq.SkipRetry and will not run again.
const (
	OutcomeSuccess = "success"
	OutcomeRetry   = "retry"
	OutcomeSkipped = "skipped"
)

// Metrics holds the task collectors.
type Metrics struct {
	processed *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	lastOK    *prometheus.GaugeVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the task collectors. A nil registerer uses the
// Prometheus default registerer, registering at most once per process.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer != nil {
		return register(registerer)
	}
	defaultOnce.Do(func() {
		defaultMetrics = register(prometheus.DefaultRegisterer)
	})
	return defaultMetrics
}

func register(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adminpanel_tasks_processed_total",
			Help: "Queue tasks processed by task type and outcome.",
		}, []string{"task", "outcome"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "adminpanel_task_duration_seconds",
			Help:    "Handler duration per task type.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"task"}),
		lastOK: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "adminpanel_task_last_success_timestamp_seconds",
			Help: "Unix time of the newest successful run per task type.",
		}, []string{"task"}),
	}
	registerer.MustRegister(m.processed, m.latency, m.lastOK)
	return m
}

// Tracker times one handler invocation.
type Tracker struct {
	metrics *Metrics
	task    string
	start   time.Time
}

// Track starts timing a run of task. Safe on a nil receiver.
func (m *Metrics) Track(task string) *Tracker {
	return &Tracker{metrics: m, task: task, start: time.Now()}
}

// End records the outcome of the run and returns err unchanged.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil {
		return err
	}
	outcome := Outcome(err)
	t.metrics.processed.WithLabelValues(t.task, outcome).Inc()
	t.metrics.latency.WithLabelValues(t.task).Observe(time.Since(t.start).Seconds())
	if outcome == OutcomeSuccess {
		t.metrics.lastOK.WithLabelValues(t.task).SetToCurrentTime()
	}
	return err
}

// Outcome classifies a handler result.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, asynq.SkipRetry):
		return OutcomeSkipped
	default:
		return OutcomeRetry
	}
}

package perf

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yonetim/adminpanel/internal/audit"
	jobmetrics "github.com/yonetim/adminpanel/internal/jobs"
	"github.com/yonetim/adminpanel/jobs"
)

// flakyStore fails every failEvery-th insert.
type flakyStore struct {
	calls     atomic.Int64
	failEvery int64
	delay     time.Duration
}

func (s *flakyStore) Insert(ctx context.Context, _ audit.Entry) error {
	n := s.calls.Add(1)
	time.Sleep(s.delay)
	if s.failEvery > 0 && n%s.failEvery == 0 {
		return errors.New("connection reset by peer")
	}
	return ctx.Err()
}

func TestAuditDeliveryThroughputAndReliability(t *testing.T) {
	reg := prometheus.NewRegistry()
	job := jobs.NewAuditDeliveryJob(&flakyStore{failEvery: 25, delay: 2 * time.Millisecond}, nil, jobmetrics.NewMetrics(reg))

	for i := range 100 {
		task, err := jobs.NewAuditTask(audit.Entry{ID: fmt.Sprintf("entry-%03d", i), Action: "news_updated"})
		require.NoError(t, err)
		_ = job.Handle(context.Background(), task)
	}
	bad, err := jobs.NewAuditTask(audit.Entry{ID: "entry-bad"})
	require.NoError(t, err)
	require.Error(t, job.Handle(context.Background(), bad))

	families, err := reg.Gather()
	require.NoError(t, err)

	processed := family(t, families, "adminpanel_tasks_processed_total")
	success := counter(processed, jobmetrics.OutcomeSuccess)
	retry := counter(processed, jobmetrics.OutcomeRetry)
	assert.Equal(t, 96.0, success)
	assert.Equal(t, 4.0, retry)
	assert.Equal(t, 1.0, counter(processed, jobmetrics.OutcomeSkipped))
	assert.GreaterOrEqual(t, success/(success+retry), 0.95)

	hist := family(t, families, "adminpanel_task_duration_seconds").GetMetric()[0].GetHistogram()
	require.EqualValues(t, 101, hist.GetSampleCount())
	assert.Less(t, hist.GetSampleSum()/float64(hist.GetSampleCount()), 0.1, "mean delivery duration above budget")
}

func family(t *testing.T, families []*dto.MetricFamily, name string) *dto.MetricFamily {
	t.Helper()
	for _, fam := range families {
		if fam.GetName() == name {
			return fam
		}
	}
	t.Fatalf("metric family %s not gathered", name)
	return nil
}

func counter(fam *dto.MetricFamily, outcome string) float64 {
	for _, metric := range fam.GetMetric() {
		for _, lp := range metric.GetLabel() {
			if lp.GetName() == "outcome" && lp.GetValue() == outcome {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

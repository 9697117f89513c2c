package jobmetrics

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestWrapCountsOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	results := []error{nil, errors.New("db down"), fmt.Errorf("bad payload: %w", asynq.SkipRetry)}
	for _, res := range results {
		res := res
		h := m.Wrap("audit:record", func(context.Context, *asynq.Task) error { return res })
		_ = h(context.Background(), asynq.NewTask("audit:record", nil))
	}

	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("audit:record", "success")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("audit:record", "failure")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("audit:record", "skipped")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("audit:record")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.skipped.WithLabelValues("audit:record")))
}

func TestNilMetricsPassThrough(t *testing.T) {
	var m *Metrics
	want := errors.New("boom")
	h := m.Wrap("audit:record", func(context.Context, *asynq.Task) error { return want })
	require.ErrorIs(t, h(context.Background(), asynq.NewTask("audit:record", nil)), want)
	require.ErrorIs(t, m.Track("x").End(want), want)
}

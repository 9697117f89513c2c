// Package jobmetrics instruments asynq task handlers.
package jobmetrics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes Prometheus collectors for background tasks.
type Metrics struct {
	runs     *prometheus.CounterVec
	failures *prometheus.CounterVec
	skipped  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

var (
	defaultOnce    sync.Once
	defaultMetrics *Metrics
)

// NewMetrics registers the task metrics against registerer. A nil registerer
// uses the default Prometheus registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		defaultOnce.Do(func() {
			defaultMetrics = buildMetrics(prometheus.DefaultRegisterer)
		})
		return defaultMetrics
	}
	return buildMetrics(registerer)
}

// Tracker instruments a single task run.
type Tracker struct {
	metrics *Metrics
	job     string
	start   time.Time
}

// Track starts a tracker for the given task type.
func (m *Metrics) Track(job string) *Tracker {
	return &Tracker{metrics: m, job: job, start: time.Now()}
}

// End records duration and outcome and returns err untouched. Errors wrapping
// asynq.SkipRetry count as skipped, since the task will never be retried.
func (t *Tracker) End(err error) error {
	if t == nil || t.metrics == nil || t.job == "" {
		return err
	}
	status := "success"
	switch {
	case errors.Is(err, asynq.SkipRetry):
		status = "skipped"
		t.metrics.skipped.WithLabelValues(t.job).Inc()
	case err != nil:
		status = "failure"
		t.metrics.failures.WithLabelValues(t.job).Inc()
	}
	t.metrics.runs.WithLabelValues(t.job, status).Inc()
	t.metrics.duration.WithLabelValues(t.job).Observe(time.Since(t.start).Seconds())
	return err
}

// Wrap instruments an asynq handler under its task type.
func (m *Metrics) Wrap(job string, next asynq.HandlerFunc) asynq.HandlerFunc {
	if m == nil {
		return next
	}
	return func(ctx context.Context, t *asynq.Task) error {
		return m.Track(job).End(next(ctx, t))
	}
}

func buildMetrics(registerer prometheus.Registerer) *Metrics {
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stallbook_jobs_total",
		Help: "Total task executions partitioned by task type and status.",
	}, []string{"job", "status"})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stallbook_jobs_failures_total",
		Help: "Task executions that failed and will be retried.",
	}, []string{"job"})
	skipped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stallbook_jobs_skipped_total",
		Help: "Task executions rejected without retry.",
	}, []string{"job"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stallbook_job_duration_seconds",
		Help:    "Duration in seconds of task executions.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	registerer.MustRegister(runs, failures, skipped, duration)
	return &Metrics{runs: runs, failures: failures, skipped: skipped, duration: duration}
}

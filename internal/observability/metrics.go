package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics mengumpulkan metrik Prometheus untuk aplikasi.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	restoresTotal   *prometheus.CounterVec
	restoreDuration prometheus.Histogram
	auditDropped    prometheus.Counter
	auditWritten    *prometheus.CounterVec
}

// NewMetrics menginisialisasi registry dan metrik dasar.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stallbook_http_requests_total",
		Help: "Jumlah permintaan HTTP berdasarkan route dan status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stallbook_http_request_duration_seconds",
		Help:    "Durasi permintaan HTTP per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	restores := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stallbook_backup_restores_total",
		Help: "Jumlah pemulihan backup berdasarkan hasil.",
	}, []string{"outcome"})
	restoreDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "stallbook_backup_restore_duration_seconds",
		Help:    "Durasi pemulihan backup.",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})
	dropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stallbook_audit_dropped_total",
		Help: "Jumlah entri audit yang dibuang karena antrean penuh.",
	})
	written := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stallbook_audit_written_total",
		Help: "Jumlah penulisan entri audit per sink dan hasil.",
	}, []string{"sink", "result"})
	registry.MustRegister(
		requests, duration, restores, restoreDuration, dropped, written,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	for _, outcome := range []string{"success", "rejected", "failed"} {
		restores.WithLabelValues(outcome)
	}
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		restoresTotal:   restores,
		restoreDuration: restoreDuration,
		auditDropped:    dropped,
		auditWritten:    written,
	}
}

// Handler mengembalikan http.Handler untuk endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware mencatat metrik untuk setiap permintaan HTTP.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// ObserveRestore mencatat hasil dan durasi satu pemulihan backup.
func (m *Metrics) ObserveRestore(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.restoresTotal.WithLabelValues(outcome).Inc()
	m.restoreDuration.Observe(seconds)
}

// AuditDropped menghitung entri audit yang dibuang.
func (m *Metrics) AuditDropped() {
	if m == nil {
		return
	}
	m.auditDropped.Inc()
}

// AuditWritten menghitung penulisan audit per sink.
func (m *Metrics) AuditWritten(sink string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	m.auditWritten.WithLabelValues(sink, result).Inc()
}

// Registerer mengekspos registry untuk pendaftaran metrik khusus.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}

package observability

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// OperationMetrics records the outcome of service operations.
type OperationMetrics interface {
	RecordOperationAttempt(ctx context.Context, operation, service string)
	RecordOperationSuccess(ctx context.Context, operation, service string)
	RecordOperationFailure(ctx context.Context, operation, service string)
	RecordOperationDuration(ctx context.Context, operation, service string, d time.Duration)
}

// ScoringMetrics adds scoring outcomes.
type ScoringMetrics interface {
	OperationMetrics
	RecordScore(ctx context.Context, metric string, score float64)
	RecordRejection(ctx context.Context, kind string)
}

// GroundTruthMetrics adds ground truth activations.
type GroundTruthMetrics interface {
	OperationMetrics
	RecordActivation(ctx context.Context, rows int)
}

// LeaderboardMetrics adds cache effectiveness.
type LeaderboardMetrics interface {
	OperationMetrics
	RecordCacheHit(ctx context.Context)
	RecordCacheMiss(ctx context.Context)
	RecordCacheInvalidation(ctx context.Context, reason string)
}

// Metrics is the Prometheus implementation of every module's metrics interface.
type Metrics struct {
	operations    *prometheus.CounterVec
	durations     *prometheus.HistogramVec
	scores        *prometheus.HistogramVec
	rejections    *prometheus.CounterVec
	activations   prometheus.Counter
	truthRows     prometheus.Gauge
	cacheLookups  *prometheus.CounterVec
	invalidations *prometheus.CounterVec
}

var (
	_ ScoringMetrics     = (*Metrics)(nil)
	_ GroundTruthMetrics = (*Metrics)(nil)
	_ LeaderboardMetrics = (*Metrics)(nil)
)

// NewMetrics registers all collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "predictit",
				Name:      "operations_total",
				Help:      "Service operations by outcome.",
			},
			[]string{"service", "operation", "status"},
		),
		durations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "predictit",
				Name:      "operation_duration_seconds",
				Help:      "Service operation latency.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"service", "operation"},
		),
		scores: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "predictit",
				Subsystem: "scoring",
				Name:      "score",
				Help:      "Distribution of accepted submission scores.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
			},
			[]string{"metric"},
		),
		rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "predictit",
				Subsystem: "scoring",
				Name:      "rejections_total",
				Help:      "Submissions rejected, by failure kind.",
			},
			[]string{"kind"},
		),
		activations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "predictit",
			Subsystem: "ground_truth",
			Name:      "activations_total",
			Help:      "Ground truth versions activated.",
		}),
		truthRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "predictit",
			Subsystem: "ground_truth",
			Name:      "active_rows",
			Help:      "Data rows in the active ground truth.",
		}),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "predictit",
				Subsystem: "leaderboard",
				Name:      "cache_lookups_total",
				Help:      "Leaderboard cache lookups by result.",
			},
			[]string{"result"},
		),
		invalidations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "predictit",
				Subsystem: "leaderboard",
				Name:      "cache_invalidations_total",
				Help:      "Leaderboard cache invalidations by triggering event.",
			},
			[]string{"reason"},
		),
	}

	reg.MustRegister(
		m.operations, m.durations, m.scores, m.rejections,
		m.activations, m.truthRows, m.cacheLookups, m.invalidations,
	)
	return m
}

// NewRegistry returns a registry carrying the Go runtime and process collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves reg in the Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

func (m *Metrics) RecordOperationAttempt(_ context.Context, operation, service string) {
	m.operations.WithLabelValues(service, operation, "attempt").Inc()
}

func (m *Metrics) RecordOperationSuccess(_ context.Context, operation, service string) {
	m.operations.WithLabelValues(service, operation, "success").Inc()
}

func (m *Metrics) RecordOperationFailure(_ context.Context, operation, service string) {
	m.operations.WithLabelValues(service, operation, "failure").Inc()
}

func (m *Metrics) RecordOperationDuration(_ context.Context, operation, service string, d time.Duration) {
	m.durations.WithLabelValues(service, operation).Observe(d.Seconds())
}

func (m *Metrics) RecordScore(_ context.Context, metric string, score float64) {
	m.scores.WithLabelValues(metric).Observe(score)
}

func (m *Metrics) RecordRejection(_ context.Context, kind string) {
	m.rejections.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordActivation(_ context.Context, rows int) {
	m.activations.Inc()
	m.truthRows.Set(float64(rows))
}

func (m *Metrics) RecordCacheHit(_ context.Context) {
	m.cacheLookups.WithLabelValues("hit").Inc()
}

func (m *Metrics) RecordCacheMiss(_ context.Context) {
	m.cacheLookups.WithLabelValues("miss").Inc()
}

func (m *Metrics) RecordCacheInvalidation(_ context.Context, reason string) {
	m.invalidations.WithLabelValues(reason).Inc()
}

// NoopMetrics discards everything.
type NoopMetrics struct{}

var (
	_ ScoringMetrics     = NoopMetrics{}
	_ GroundTruthMetrics = NoopMetrics{}
	_ LeaderboardMetrics = NoopMetrics{}
)

func (NoopMetrics) RecordOperationAttempt(context.Context, string, string)                 {}
func (NoopMetrics) RecordOperationSuccess(context.Context, string, string)                 {}
func (NoopMetrics) RecordOperationFailure(context.Context, string, string)                 {}
func (NoopMetrics) RecordOperationDuration(context.Context, string, string, time.Duration) {}
func (NoopMetrics) RecordScore(context.Context, string, float64)                           {}
func (NoopMetrics) RecordRejection(context.Context, string)                                {}
func (NoopMetrics) RecordActivation(context.Context, int)                                  {}
func (NoopMetrics) RecordCacheHit(context.Context)                                         {}
func (NoopMetrics) RecordCacheMiss(context.Context)                                        {}
func (NoopMetrics) RecordCacheInvalidation(context.Context, string)                        {}

package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/riskibarqy/matchday/internal/domain/jobscheduler"
	"github.com/riskibarqy/matchday/internal/domain/match"
	"github.com/riskibarqy/matchday/internal/usecase"
)

const metricsNamespace = "matchday"

// Metrics publishes clock, transition and recompute job signals to a
// private Prometheus registry.
type Metrics struct {
	registry *prometheus.Registry

	clockTicks        prometheus.Counter
	clockMatches      *prometheus.CounterVec
	clockTickDuration prometheus.Histogram

	transitions *prometheus.CounterVec

	jobsEnqueued *prometheus.CounterVec
	jobsFinished *prometheus.CounterVec
	jobsRetried  *prometheus.CounterVec
	jobAttempts  *prometheus.HistogramVec
	jobDuration  *prometheus.HistogramVec
}

var _ usecase.Metrics = (*Metrics)(nil)

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	auto := promauto.With(registry)

	return &Metrics{
		registry: registry,
		clockTicks: auto.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "clock",
			Name:      "ticks_total",
			Help:      "Clock ticks run.",
		}),
		clockMatches: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "clock",
			Name:      "matches_total",
			Help:      "Matches handled by clock ticks, by outcome.",
		}, []string{"outcome"}),
		clockTickDuration: auto.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "clock",
			Name:      "tick_duration_seconds",
			Help:      "Wall time of one clock tick.",
			Buckets:   prometheus.DefBuckets,
		}),
		transitions: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "match",
			Name:      "transitions_total",
			Help:      "Match status transitions.",
		}, []string{"from", "to", "trigger"}),
		jobsEnqueued: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "jobs",
			Name:      "enqueued_total",
			Help:      "Recompute jobs handed to the queue.",
		}, []string{"kind", "result"}),
		jobsFinished: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "jobs",
			Name:      "finished_total",
			Help:      "Recompute jobs that completed or were parked.",
		}, []string{"kind", "status"}),
		jobsRetried: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "jobs",
			Name:      "retried_total",
			Help:      "Recompute job retries.",
		}, []string{"kind"}),
		jobAttempts: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "jobs",
			Name:      "attempts",
			Help:      "Attempts used per finished job.",
			Buckets:   []float64{1, 2, 3, 4, 5, 8, 13},
		}, []string{"kind"}),
		jobDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "jobs",
			Name:      "duration_seconds",
			Help:      "Time from first attempt to completion or parking.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind", "status"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ClockTick(result usecase.TickResult, elapsed time.Duration) {
	m.clockTicks.Inc()
	m.clockMatches.WithLabelValues("processed").Add(float64(result.Processed))
	m.clockMatches.WithLabelValues("transitioned").Add(float64(result.Transitioned))
	m.clockMatches.WithLabelValues("failed").Add(float64(result.Failed))
	m.clockTickDuration.Observe(elapsed.Seconds())
}

func (m *Metrics) MatchTransitioned(from, to match.Status, automatic bool) {
	trigger := "manual"
	if automatic {
		trigger = "clock"
	}
	m.transitions.WithLabelValues(string(from), string(to), trigger).Inc()
}

func (m *Metrics) JobEnqueued(kind jobscheduler.Kind, ok bool) {
	m.jobsEnqueued.WithLabelValues(string(kind), strconv.FormatBool(ok)).Inc()
}

func (m *Metrics) JobFinished(kind jobscheduler.Kind, status jobscheduler.DispatchStatus, attempts int, elapsed time.Duration) {
	m.jobsFinished.WithLabelValues(string(kind), string(status)).Inc()
	m.jobAttempts.WithLabelValues(string(kind)).Observe(float64(attempts))
	m.jobDuration.WithLabelValues(string(kind), string(status)).Observe(elapsed.Seconds())
}

func (m *Metrics) JobRetried(kind jobscheduler.Kind) {
	m.jobsRetried.WithLabelValues(string(kind)).Inc()
}

// Package metrics exposes Prometheus collectors for the question pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"hoa-assistant-backend/models"
	"hoa-assistant-backend/retrieval"
	"hoa-assistant-backend/service"
)

const namespace = "hoa_assistant"

// Metrics holds the pipeline collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	questions     *prometheus.CounterVec
	candidates    *prometheus.CounterVec
	softFallbacks *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
}

var (
	_ retrieval.Observer = (*Metrics)(nil)
	_ service.Observer   = (*Metrics)(nil)
)

// New creates the collectors and registers them, together with the Go and
// process collectors, on a fresh registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		questions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "questions_total",
			Help:      "Questions handled, by outcome.",
		}, []string{"outcome"}),
		candidates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "retrieval_candidates_total",
			Help:      "Candidate clauses fetched, by match source.",
		}, []string{"source"}),
		softFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "soft_fallbacks_total",
			Help:      "Questions answered from the soft fallback, by fallback kind.",
		}, []string{"source"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "retrieval_stage_duration_seconds",
			Help:      "Duration of retrieval pipeline stages.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"stage"}),
	}

	m.registry.MustRegister(
		m.questions,
		m.candidates,
		m.softFallbacks,
		m.stageDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) CandidatesFetched(source models.MatchSource, n int) {
	m.candidates.WithLabelValues(string(source)).Add(float64(n))
}

func (m *Metrics) SoftFallbackUsed(source models.MatchSource) {
	m.softFallbacks.WithLabelValues(string(source)).Inc()
}

func (m *Metrics) StageCompleted(stage string, elapsed time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func (m *Metrics) QuestionCompleted(outcome service.Outcome) {
	m.questions.WithLabelValues(string(outcome)).Inc()
}

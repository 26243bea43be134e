package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the lifecycle engine's Prometheus collectors. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	// Status transitions by action and resulting status
	Transitions *prometheus.CounterVec

	// Distribution of recomputed proof scores
	ProofScore prometheus.Histogram

	// Non-fatal collaborator failures (storage, mail, events)
	UpstreamFailures *prometheus.CounterVec

	// Content scan outcomes
	ScanResults *prometheus.CounterVec

	// Referee confirmations by outcome
	RefereeConfirmations *prometheus.CounterVec

	// HTTP latency by route
	RequestLatency *prometheus.HistogramVec
}

// New registers all collectors on the default registry.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer registers on reg; tests use a fresh prometheus.NewRegistry().
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "proofhire_status_transitions_total",
			Help: "Candidate status transitions by action and resulting status",
		}, []string{"action", "to"}),

		ProofScore: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "proofhire_proof_score",
			Help:    "Recomputed proof scores",
			Buckets: []float64{0, 20, 40, 60, 80, 100},
		}),

		UpstreamFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "proofhire_upstream_failures_total",
			Help: "Best-effort collaborator calls that failed",
		}, []string{"dependency", "operation"}), // dependency: "storage", "mail", "events", "scanner"

		ScanResults: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "proofhire_scan_results_total",
			Help: "Resume content scan outcomes",
		}, []string{"status"}),

		RefereeConfirmations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "proofhire_referee_confirmations_total",
			Help: "Referee confirmation attempts by outcome",
		}, []string{"outcome"}),

		RequestLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "proofhire_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
}

func (m *Metrics) IncrementTransition(action, to string) {
	if m != nil {
		m.Transitions.WithLabelValues(action, to).Inc()
	}
}

func (m *Metrics) ObserveProofScore(score int) {
	if m != nil {
		m.ProofScore.Observe(float64(score))
	}
}

func (m *Metrics) IncrementUpstreamFailure(dependency, operation string) {
	if m != nil {
		m.UpstreamFailures.WithLabelValues(dependency, operation).Inc()
	}
}

func (m *Metrics) IncrementScanResult(status string) {
	if m != nil {
		m.ScanResults.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) IncrementRefereeConfirmation(outcome string) {
	if m != nil {
		m.RefereeConfirmations.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) ObserveRequest(method, route, status string, d time.Duration) {
	if m != nil {
		m.RequestLatency.WithLabelValues(method, route, status).Observe(d.Seconds())
	}
}

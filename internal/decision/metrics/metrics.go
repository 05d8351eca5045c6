package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the decision module.
type Metrics struct {
	DecisionsTotal     *prometheus.CounterVec
	EvaluateLatency    prometheus.Histogram
	RiskScore          prometheus.Histogram
	AuditWriteFailures prometheus.Counter
}

// New creates and registers the decision metrics.
func New() *Metrics {
	return &Metrics{
		DecisionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "verdict_decisions_total",
			Help: "Total number of application decisions by outcome",
		}, []string{"outcome"}),
		EvaluateLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "verdict_evaluate_latency_seconds",
			Help:    "Latency of decision evaluation in seconds",
			Buckets: prometheus.DefBuckets,
		}),
		RiskScore: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "verdict_risk_score",
			Help:    "Distribution of aggregate risk scores",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		}),
		AuditWriteFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "verdict_audit_write_failures_total",
			Help: "Total number of failed audit trail appends",
		}),
	}
}

// IncrementOutcome records one decision with the given outcome.
func (m *Metrics) IncrementOutcome(outcome string) {
	m.DecisionsTotal.WithLabelValues(outcome).Inc()
}

// ObserveEvaluateLatency records the duration of one evaluation.
func (m *Metrics) ObserveEvaluateLatency(d time.Duration) {
	m.EvaluateLatency.Observe(d.Seconds())
}

// ObserveRiskScore records the aggregate risk score of one evaluation.
func (m *Metrics) ObserveRiskScore(score float64) {
	m.RiskScore.Observe(score)
}

// IncrementAuditWriteFailure records one failed audit append.
func (m *Metrics) IncrementAuditWriteFailure() {
	m.AuditWriteFailures.Inc()
}

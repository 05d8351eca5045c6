package decision

import (
	"context"
	"log/slog"
	"time"

	"verdict/internal/decision/metrics"
	"verdict/internal/platform/tracer"
	dErrors "verdict/pkg/domain-errors"
)

// AuditRecorder is the contract consumed by the service for durable audit
// appends. The evaluator itself never touches it: the decision is computed
// first, then recorded, keeping the evaluation pure and the side effect
// explicit.
type AuditRecorder interface {
	Record(ctx context.Context, result *Result, snapshot Input) error
}

// Service wires the pure evaluator to the audit trail, metrics, and tracing.
// It owns the only clock read in the flow.
type Service struct {
	evaluator *Evaluator
	recorder  AuditRecorder
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    tracer.Tracer
	now       func() time.Time

	// failClosedAudit blocks the response when the audit append fails.
	// Off by default: a failed audit write must never retroactively change
	// a decision already computed, and the caller decides on retries.
	failClosedAudit bool
}

// Option configures the Service.
type Option func(*Service)

// WithMetrics sets the metrics collector for the service.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithLogger sets the logger for the service.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithTracer sets the tracer for the service.
func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) { s.tracer = t }
}

// WithClock overrides the clock, for deterministic tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithFailClosedAudit makes evaluation fail when the audit append fails.
// For deployments that must not answer without a durable trail.
func WithFailClosedAudit() Option {
	return func(s *Service) { s.failClosedAudit = true }
}

// NewService creates the decision service. Panics if required dependencies
// are nil - fail fast at startup. The recorder is required for compliance:
// every evaluation attempt must leave an audit entry.
func NewService(evaluator *Evaluator, recorder AuditRecorder, opts ...Option) *Service {
	if evaluator == nil {
		panic("decision.NewService: evaluator is required")
	}
	if recorder == nil {
		panic("decision.NewService: recorder is required for the audit trail")
	}
	s := &Service{
		evaluator: evaluator,
		recorder:  recorder,
		tracer:    tracer.NewNoop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EvaluateApplication computes the decision for one application and records
// it on the audit trail. The decision is returned even when the audit append
// fails (unless fail-closed is configured); the append is at-least-once from
// the caller's perspective and never mutates a returned result.
func (s *Service) EvaluateApplication(ctx context.Context, in Input) (*Result, error) {
	start := s.now()
	defer func() {
		if s.metrics != nil {
			s.metrics.ObserveEvaluateLatency(time.Since(start))
		}
	}()

	ctx, span := s.tracer.Start(ctx, "decision.evaluate",
		tracer.String("application_id", in.ApplicationID),
	)

	result, err := s.evaluator.Evaluate(in, start)
	if err != nil {
		span.End(err)
		return nil, err
	}
	span.SetAttributes(
		tracer.String("decision", string(result.Decision)),
		tracer.Float64("risk_score", result.RiskScore),
	)

	if recordErr := s.recordAudit(ctx, result, in); recordErr != nil {
		span.End(recordErr)
		return nil, recordErr
	}
	span.End(nil)

	if s.metrics != nil {
		s.metrics.IncrementOutcome(string(result.Decision))
		s.metrics.ObserveRiskScore(result.RiskScore)
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "application evaluated",
			"application_id", in.ApplicationID,
			"decision", result.Decision,
			"risk_score", result.RiskScore,
		)
	}

	return result, nil
}

func (s *Service) recordAudit(ctx context.Context, result *Result, in Input) error {
	err := s.recorder.Record(ctx, result, in)
	if err == nil {
		return nil
	}

	if s.metrics != nil {
		s.metrics.IncrementAuditWriteFailure()
	}
	if s.logger != nil {
		s.logger.ErrorContext(ctx, "failed to record decision audit entry",
			"application_id", in.ApplicationID,
			"decision", result.Decision,
			"error", err,
		)
	}
	if s.failClosedAudit {
		return dErrors.Wrap(err, dErrors.CodeInternal, "decision audit unavailable")
	}
	// The decision stands; the caller may retry the audit write out of band.
	return nil
}

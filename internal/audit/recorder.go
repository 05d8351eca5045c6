package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"verdict/internal/decision"
	"verdict/internal/platform/kafka/producer"
)

// DefaultTopic is the Kafka topic audit entries are fanned out to.
const DefaultTopic = "hsa.decision.audit"

// EventProducer publishes audit entries to downstream consumers. Satisfied
// by the platform Kafka producer.
type EventProducer interface {
	Produce(ctx context.Context, msg *producer.Message) error
}

// Recorder implements the audit contract: one immutable entry per
// evaluation attempt, retrievable as an ordered trail. The durable append
// happens first; the optional event fan-out is best-effort and can never
// un-record an entry.
type Recorder struct {
	store    Store
	producer EventProducer
	topic    string
	version  string
	logger   *slog.Logger
	now      func() time.Time
}

// RecorderOption configures the Recorder.
type RecorderOption func(*Recorder)

// WithProducer enables Kafka fan-out of recorded entries.
func WithProducer(p EventProducer, topic string) RecorderOption {
	return func(r *Recorder) {
		r.producer = p
		if topic != "" {
			r.topic = topic
		}
	}
}

// WithRecorderLogger sets a logger for fan-out error reporting.
func WithRecorderLogger(logger *slog.Logger) RecorderOption {
	return func(r *Recorder) { r.logger = logger }
}

// WithRecorderClock overrides the clock, for deterministic tests.
func WithRecorderClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) { r.now = now }
}

// NewRecorder creates a Recorder writing to store. version tags every entry
// with the system version that made the decision.
func NewRecorder(store Store, version string, opts ...RecorderOption) *Recorder {
	if store == nil {
		panic("audit.NewRecorder: store is required")
	}
	r := &Recorder{
		store:   store,
		topic:   DefaultTopic,
		version: version,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Record appends one audit entry for a computed decision. It satisfies
// decision.AuditRecorder.
func (r *Recorder) Record(ctx context.Context, result *decision.Result, snapshot decision.Input) error {
	entry := Entry{
		ID:            uuid.New(),
		ApplicationID: result.ApplicationID,
		Result:        *result,
		Snapshot:      snapshot,
		SystemVersion: r.version,
		RecordedAt:    r.now(),
	}

	if err := r.store.Append(ctx, entry); err != nil {
		return err
	}

	r.fanOut(ctx, entry)
	return nil
}

// Trail returns the full audit history for an application, oldest first.
// CreatedAt/UpdatedAt are the first and last entry timestamps.
func (r *Recorder) Trail(ctx context.Context, applicationID string) (*Trail, error) {
	entries, err := r.store.ListByApplication(ctx, applicationID)
	if err != nil {
		return nil, err
	}

	trail := &Trail{
		ApplicationID: applicationID,
		Entries:       entries,
	}
	if len(entries) > 0 {
		trail.CreatedAt = entries[0].RecordedAt
		trail.UpdatedAt = entries[len(entries)-1].RecordedAt
	}
	return trail, nil
}

// fanOut publishes the entry to Kafka when a producer is configured.
// Publish failures are logged only: the entry is already durable.
func (r *Recorder) fanOut(ctx context.Context, entry Entry) {
	if r.producer == nil {
		return
	}

	payload, err := json.Marshal(entry)
	if err != nil {
		if r.logger != nil {
			r.logger.ErrorContext(ctx, "failed to marshal audit entry for fan-out",
				"entry_id", entry.ID,
				"error", err,
			)
		}
		return
	}

	msg := &producer.Message{
		Topic: r.topic,
		Key:   []byte(entry.ApplicationID),
		Value: payload,
	}
	if err := r.producer.Produce(ctx, msg); err != nil && r.logger != nil {
		r.logger.WarnContext(ctx, "failed to publish audit entry",
			"entry_id", entry.ID,
			"application_id", entry.ApplicationID,
			"error", err,
		)
	}
}

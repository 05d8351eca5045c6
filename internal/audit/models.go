package audit

import (
	"time"

	"github.com/google/uuid"

	"verdict/internal/decision"
)

// Entry is one append-only audit record: the decision plus a full snapshot
// of the inputs it was computed from. Entries are never updated or deleted;
// one exists per evaluation attempt.
type Entry struct {
	ID            uuid.UUID      `json:"id"`
	ApplicationID string         `json:"application_id"`
	Result        decision.Result `json:"result"`
	Snapshot      decision.Input  `json:"snapshot"`
	SystemVersion string         `json:"system_version"`
	RecordedAt    time.Time      `json:"recorded_at"`
}

// Trail is the complete audit history for one application, oldest first.
type Trail struct {
	ApplicationID string    `json:"application_id"`
	Entries       []Entry   `json:"entries"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

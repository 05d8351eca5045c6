package audit

import (
	"context"

	dErrors "verdict/pkg/domain-errors"
)

// ErrNotFound keeps storage-specific 404s consistent across implementations.
var ErrNotFound = dErrors.New(dErrors.CodeNotFound, "audit entry not found")

// Store persists audit entries. Implementations must be append-only: no
// update or delete operations exist, and ListByApplication returns entries
// in the order they were recorded.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByApplication(ctx context.Context, applicationID string) ([]Entry, error)
}

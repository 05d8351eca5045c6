//go:build integration

package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"verdict/internal/decision"
	"verdict/pkg/testutil/containers"
)

// PostgresStoreSuite verifies the Postgres audit store against a real
// database. Run with: go test -tags integration ./internal/audit/...
type PostgresStoreSuite struct {
	suite.Suite
	pg    *containers.PostgresContainer
	store *PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.pg = containers.GetManager().GetPostgres(s.T())
	s.store = NewPostgres(s.pg.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.pg.TruncateAll(context.Background()))
}

func (s *PostgresStoreSuite) entry(applicationID string, outcome decision.Outcome, recordedAt time.Time) Entry {
	return Entry{
		ID:            uuid.New(),
		ApplicationID: applicationID,
		Result: decision.Result{
			ApplicationID:     applicationID,
			Decision:          outcome,
			RiskScore:         0.35,
			Reasoning:         "address: address component score 0.50 below threshold 0.80",
			ValidationResults: []decision.ValidationResult{{FieldName: "address", Kind: decision.ValidationAddressMatch}},
			CreatedAt:         recordedAt,
		},
		Snapshot: decision.Input{
			ApplicationID: applicationID,
			Claim:         &decision.PersonalInfoClaim{FullName: "Jane Doe", DateOfBirth: "1990-04-01"},
			Identity:      &decision.ExtractedIdentityData{FullName: "Jane Doe", DateOfBirth: "1990-04-01", ExpiryDate: "2030-01-01"},
		},
		SystemVersion: "integration",
		RecordedAt:    recordedAt,
	}
}

func (s *PostgresStoreSuite) TestAppendAndList() {
	ctx := context.Background()
	base := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	first := s.entry("app-1", decision.OutcomeManualReview, base)
	second := s.entry("app-1", decision.OutcomeApprove, base.Add(time.Hour))
	s.Require().NoError(s.store.Append(ctx, first))
	s.Require().NoError(s.store.Append(ctx, second))

	entries, err := s.store.ListByApplication(ctx, "app-1")
	s.Require().NoError(err)
	s.Require().Len(entries, 2)

	s.Equal(first.ID, entries[0].ID)
	s.Equal(decision.OutcomeManualReview, entries[0].Result.Decision)
	s.Equal(second.ID, entries[1].ID)
	s.Equal(decision.OutcomeApprove, entries[1].Result.Decision)

	s.Equal("integration", entries[0].SystemVersion)
	s.True(entries[0].RecordedAt.Equal(base))
	s.Require().NotNil(entries[0].Snapshot.Claim)
	s.Equal("Jane Doe", entries[0].Snapshot.Claim.FullName)
	s.Require().Len(entries[0].Result.ValidationResults, 1)
	s.Equal(decision.ValidationAddressMatch, entries[0].Result.ValidationResults[0].Kind)
}

func (s *PostgresStoreSuite) TestListOrdersByRecordedAtWithIDTieBreak() {
	ctx := context.Background()
	at := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	// Same timestamp: order must still be deterministic.
	a := s.entry("app-2", decision.OutcomeApprove, at)
	b := s.entry("app-2", decision.OutcomeReject, at)
	s.Require().NoError(s.store.Append(ctx, a))
	s.Require().NoError(s.store.Append(ctx, b))

	entries, err := s.store.ListByApplication(ctx, "app-2")
	s.Require().NoError(err)
	s.Require().Len(entries, 2)
	s.True(entries[0].ID.String() < entries[1].ID.String())
}

func (s *PostgresStoreSuite) TestApplicationsAreIsolated() {
	ctx := context.Background()
	at := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	s.Require().NoError(s.store.Append(ctx, s.entry("app-3", decision.OutcomeApprove, at)))
	s.Require().NoError(s.store.Append(ctx, s.entry("app-4", decision.OutcomeReject, at)))

	entries, err := s.store.ListByApplication(ctx, "app-3")
	s.Require().NoError(err)
	s.Require().Len(entries, 1)
	s.Equal("app-3", entries[0].ApplicationID)
}

func (s *PostgresStoreSuite) TestUnknownApplicationYieldsEmptyList() {
	entries, err := s.store.ListByApplication(context.Background(), "missing")
	s.Require().NoError(err)
	s.Empty(entries)
}

func (s *PostgresStoreSuite) TestDuplicateEntryIDIsRejected() {
	ctx := context.Background()
	at := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)

	entry := s.entry("app-5", decision.OutcomeApprove, at)
	s.Require().NoError(s.store.Append(ctx, entry))
	s.Error(s.store.Append(ctx, entry), "entry IDs are unique; appends never overwrite")
}

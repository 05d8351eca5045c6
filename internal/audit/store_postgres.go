package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"verdict/internal/decision"
)

// PostgresStore persists audit entries in PostgreSQL. The table is insert
// only; retrieval orders by recorded_at with the id as a tie-break so trails
// are stable even for same-millisecond appends.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed audit store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	resultJSON, err := json.Marshal(entry.Result)
	if err != nil {
		return fmt.Errorf("marshal audit result: %w", err)
	}
	snapshotJSON, err := json.Marshal(entry.Snapshot)
	if err != nil {
		return fmt.Errorf("marshal audit snapshot: %w", err)
	}

	query := `
		INSERT INTO audit_entries (id, application_id, decision, risk_score, result, snapshot, system_version, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.db.ExecContext(ctx, query,
		entry.ID,
		entry.ApplicationID,
		string(entry.Result.Decision),
		entry.Result.RiskScore,
		resultJSON,
		snapshotJSON,
		entry.SystemVersion,
		entry.RecordedAt,
	)
	if err != nil {
		return fmt.Errorf("append audit entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListByApplication(ctx context.Context, applicationID string) ([]Entry, error) {
	query := `
		SELECT id, application_id, result, snapshot, system_version, recorded_at
		FROM audit_entries
		WHERE application_id = $1
		ORDER BY recorded_at ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, applicationID)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			entry        Entry
			id           uuid.UUID
			resultJSON   []byte
			snapshotJSON []byte
		)
		if err := rows.Scan(&id, &entry.ApplicationID, &resultJSON, &snapshotJSON, &entry.SystemVersion, &entry.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entry.ID = id

		var result decision.Result
		if err := json.Unmarshal(resultJSON, &result); err != nil {
			return nil, fmt.Errorf("unmarshal audit result: %w", err)
		}
		entry.Result = result

		var snapshot decision.Input
		if err := json.Unmarshal(snapshotJSON, &snapshot); err != nil {
			return nil, fmt.Errorf("unmarshal audit snapshot: %w", err)
		}
		entry.Snapshot = snapshot

		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit entries: %w", err)
	}
	return entries, nil
}

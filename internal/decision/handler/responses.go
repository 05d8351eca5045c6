package handler

import (
	"time"

	"verdict/internal/audit"
	"verdict/internal/decision"
)

// AuditEntryResponse is one recorded evaluation in an audit trail response.
type AuditEntryResponse struct {
	ID            string          `json:"id"`
	Decision      decision.Result `json:"decision"`
	Snapshot      decision.Input  `json:"snapshot"`
	SystemVersion string          `json:"system_version"`
	RecordedAt    time.Time       `json:"recorded_at"`
}

// AuditTrailResponse is the body for GET /v1/applications/{applicationID}/audit-trail.
// Entries are ordered oldest first.
type AuditTrailResponse struct {
	ApplicationID string               `json:"application_id"`
	Entries       []AuditEntryResponse `json:"entries"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

func formatTrailResponse(trail *audit.Trail) *AuditTrailResponse {
	entries := make([]AuditEntryResponse, 0, len(trail.Entries))
	for _, e := range trail.Entries {
		entries = append(entries, AuditEntryResponse{
			ID:            e.ID.String(),
			Decision:      e.Result,
			Snapshot:      e.Snapshot,
			SystemVersion: e.SystemVersion,
			RecordedAt:    e.RecordedAt,
		})
	}
	return &AuditTrailResponse{
		ApplicationID: trail.ApplicationID,
		Entries:       entries,
		CreatedAt:     trail.CreatedAt,
		UpdatedAt:     trail.UpdatedAt,
	}
}

package handler

import (
	"verdict/internal/decision"
	s "verdict/pkg/string"
)

// EvaluateRequest is the body for POST /v1/applications/{applicationID}/decision.
// The claim and identity payloads are required; employment is optional and
// only triggers the employer check when present.
type EvaluateRequest struct {
	Claim      *decision.PersonalInfoClaim       `json:"claim" validate:"required"`
	Identity   *decision.ExtractedIdentityData   `json:"identity" validate:"required"`
	Employment *decision.ExtractedEmploymentData `json:"employment,omitempty"`
}

// Normalize trims surrounding whitespace from all string fields. Matching is
// whitespace-insensitive anyway; this keeps the audit snapshot tidy.
func (r *EvaluateRequest) Normalize() {
	if r == nil {
		return
	}
	if r.Claim != nil {
		s.TrimStrings(&r.Claim.FullName, &r.Claim.DateOfBirth, &r.Claim.EmployerName)
		trimAddress(&r.Claim.Address)
	}
	if r.Identity != nil {
		s.TrimStrings(&r.Identity.FullName, &r.Identity.DateOfBirth,
			&r.Identity.ExpiryDate, &r.Identity.IssueDate,
			&r.Identity.DocumentType, &r.Identity.IDNumber,
			&r.Identity.IssuingAuthority)
		trimAddress(&r.Identity.Address)
	}
	if r.Employment != nil {
		s.TrimStrings(&r.Employment.EmployerName, &r.Employment.EmployeeName,
			&r.Employment.DocumentDate, &r.Employment.HealthPlanType)
	}
}

func trimAddress(a *decision.Address) {
	s.TrimStrings(&a.Street, &a.City, &a.State, &a.Zip)
}

// ToInput converts the validated request into evaluator input.
func (r *EvaluateRequest) ToInput(applicationID string) decision.Input {
	return decision.Input{
		ApplicationID: applicationID,
		Claim:         r.Claim,
		Identity:      r.Identity,
		Employment:    r.Employment,
	}
}

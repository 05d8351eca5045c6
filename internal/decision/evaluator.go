package decision

import (
	"fmt"
	"strings"
	"time"

	dErrors "verdict/pkg/domain-errors"
)

// documentQualityFloor is the minimum OCR scan confidence below which the
// document quality check fails.
const documentQualityFloor = 0.5

// Evaluator orchestrates the field matcher, risk aggregator, and decision
// policy to produce a Result. It is pure and deterministic: no I/O, no
// randomness, and the clock is injected, so identical inputs with the same
// "today" yield identical results. Safe for concurrent use.
type Evaluator struct {
	cfg     PolicyConfig
	matcher Matcher
	risk    RiskAggregator
	policy  Policy
}

// NewEvaluator validates cfg and builds an Evaluator. Threshold configuration
// errors are fatal to the configuration and surface here, before any
// evaluation can run.
func NewEvaluator(cfg PolicyConfig) (*Evaluator, error) {
	policy, err := NewPolicy(cfg)
	if err != nil {
		return nil, err
	}
	return &Evaluator{
		cfg:     cfg,
		matcher: NewMatcher(cfg),
		risk:    NewRiskAggregator(cfg),
		policy:  policy,
	}, nil
}

// Evaluate runs every applicable check against the input and returns the
// decision. Structurally missing required input is the only error path;
// comparison failures always degrade to risk instead.
func (e *Evaluator) Evaluate(in Input, now time.Time) (*Result, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}

	today := now.Truncate(24 * time.Hour)

	var validations []ValidationResult
	var factors []RiskFactor

	expiry := e.checkIDExpiry(in.Identity, today)
	validations = append(validations, expiry)
	if !expiry.IsValid {
		factors = append(factors, RiskFactor{Label: "expired_id", Severity: 1.0})
	}

	name := e.checkNameMatch(in.Claim, in.Identity)
	validations = append(validations, name)
	if !name.IsValid {
		factors = append(factors, RiskFactor{Label: "name_mismatch", Severity: 1.0 - name.Confidence})
	}

	dob := e.checkDOBMatch(in.Claim, in.Identity)
	validations = append(validations, dob)
	if !dob.IsValid {
		factors = append(factors, RiskFactor{Label: "dob_mismatch", Severity: 1.0})
	}

	address := e.checkAddressMatch(in.Claim, in.Identity)
	validations = append(validations, address)
	if !address.IsValid {
		factors = append(factors, RiskFactor{Label: "address_mismatch", Severity: 1.0 - address.Confidence})
	}

	if in.Identity.ScanConfidence != nil {
		quality := e.checkDocumentQuality(*in.Identity.ScanConfidence)
		validations = append(validations, quality)
		if !quality.IsValid {
			factors = append(factors, RiskFactor{Label: "document_quality", Severity: 1.0 - quality.Confidence})
		}
	}

	if in.Employment != nil {
		employer := e.checkEmployerMatch(in.Claim, in.Employment)
		validations = append(validations, employer)
		if !employer.IsValid {
			factors = append(factors, RiskFactor{Label: "employer_mismatch", Severity: 1.0 - employer.Confidence})
		}
	}

	riskScore := e.risk.Aggregate(factors)
	outcome, _ := e.policy.Decide(validations, riskScore)

	return &Result{
		ApplicationID:     in.ApplicationID,
		Decision:          outcome,
		RiskScore:         riskScore,
		Reasoning:         buildReasoning(outcome, validations),
		ValidationResults: validations,
		CreatedAt:         now,
	}, nil
}

// validateInput rejects structurally missing or malformed mandatory input
// before any comparison runs. The error names every offending field so the
// caller can prompt for correction in one round trip.
func validateInput(in Input) error {
	var fields []string

	if strings.TrimSpace(in.ApplicationID) == "" {
		fields = append(fields, "application_id")
	}

	if in.Claim == nil {
		fields = append(fields, "claim")
	} else {
		if strings.TrimSpace(in.Claim.FullName) == "" {
			fields = append(fields, "claim.full_name")
		}
		if strings.TrimSpace(in.Claim.DateOfBirth) == "" {
			fields = append(fields, "claim.date_of_birth")
		} else if _, err := ParseDate(in.Claim.DateOfBirth); err != nil {
			fields = append(fields, "claim.date_of_birth")
		}
	}

	if in.Identity == nil {
		fields = append(fields, "identity")
	} else {
		if s := strings.TrimSpace(in.Identity.DateOfBirth); s != "" {
			if _, err := ParseDate(s); err != nil {
				fields = append(fields, "identity.date_of_birth")
			}
		}
		if s := strings.TrimSpace(in.Identity.ExpiryDate); s != "" {
			if _, err := ParseDate(s); err != nil {
				fields = append(fields, "identity.expiry_date")
			}
		}
	}

	if len(fields) > 0 {
		return dErrors.NewInvalidInput(
			"missing or malformed required fields: "+strings.Join(fields, ", "),
			fields...,
		)
	}
	return nil
}

func (e *Evaluator) checkIDExpiry(identity *ExtractedIdentityData, today time.Time) ValidationResult {
	v := ValidationResult{
		FieldName:      "id_expiry",
		Kind:           ValidationIDExpiry,
		ExtractedValue: strings.TrimSpace(identity.ExpiryDate),
	}

	if v.ExtractedValue == "" {
		v.IsValid = false
		v.Confidence = 0.0
		v.Details = "no expiry date found on ID"
		return v
	}

	// Malformed dates were rejected by validateInput; this cannot fail here.
	expiryDate, err := ParseDate(v.ExtractedValue)
	if err != nil {
		v.IsValid = false
		v.Confidence = 0.0
		v.Details = "unreadable expiry date on ID"
		return v
	}

	v.Confidence = 1.0
	if expiryDate.Before(today) {
		v.IsValid = false
		v.Details = fmt.Sprintf("government ID expired on %s", expiryDate.Format("2006-01-02"))
	} else {
		v.IsValid = true
		v.Details = fmt.Sprintf("ID valid until %s", expiryDate.Format("2006-01-02"))
	}
	return v
}

func (e *Evaluator) checkNameMatch(claim *PersonalInfoClaim, identity *ExtractedIdentityData) ValidationResult {
	agrees, confidence := e.matcher.CompareFreeText(claim.FullName, identity.FullName)
	v := ValidationResult{
		FieldName:      "full_name",
		Kind:           ValidationNameMatch,
		IsValid:        agrees,
		Confidence:     confidence,
		ClaimedValue:   claim.FullName,
		ExtractedValue: identity.FullName,
	}
	switch {
	case strings.TrimSpace(identity.FullName) == "":
		v.Details = "no name found on document"
	case agrees:
		v.Details = fmt.Sprintf("name similarity %.2f", confidence)
	default:
		v.Details = fmt.Sprintf("name similarity %.2f below threshold %.2f", confidence, e.cfg.NameMatchThreshold)
	}
	return v
}

func (e *Evaluator) checkDOBMatch(claim *PersonalInfoClaim, identity *ExtractedIdentityData) ValidationResult {
	agrees, confidence := e.matcher.CompareExact(claim.DateOfBirth, identity.DateOfBirth)
	v := ValidationResult{
		FieldName:      "date_of_birth",
		Kind:           ValidationDOBMatch,
		IsValid:        agrees,
		Confidence:     confidence,
		ClaimedValue:   claim.DateOfBirth,
		ExtractedValue: identity.DateOfBirth,
	}
	switch {
	case strings.TrimSpace(identity.DateOfBirth) == "":
		v.Details = "no date of birth found on document"
	case agrees:
		v.Details = "exact match"
	default:
		v.Details = "date of birth mismatch"
	}
	return v
}

// checkAddressMatch degrades to a valid zero-confidence validation when
// either side has no address data: absence of data is not evidence of fraud.
func (e *Evaluator) checkAddressMatch(claim *PersonalInfoClaim, identity *ExtractedIdentityData) ValidationResult {
	v := ValidationResult{
		FieldName: "address",
		Kind:      ValidationAddressMatch,
	}

	if claim.Address.Empty() || identity.Address.Empty() {
		v.IsValid = true
		v.Confidence = 0.0
		v.Details = "address not verifiable"
		return v
	}

	agrees, confidence := e.matcher.CompareAddress(claim.Address, identity.Address)
	v.IsValid = agrees
	v.Confidence = confidence
	if agrees {
		v.Details = fmt.Sprintf("address component score %.2f", confidence)
	} else {
		v.Details = fmt.Sprintf("address component score %.2f below threshold %.2f", confidence, e.cfg.AddressMatchThreshold)
	}
	return v
}

func (e *Evaluator) checkDocumentQuality(scanConfidence float64) ValidationResult {
	v := ValidationResult{
		FieldName:  "document_quality",
		Kind:       ValidationDocumentQuality,
		Confidence: clamp01(scanConfidence),
	}
	if v.Confidence >= documentQualityFloor {
		v.IsValid = true
		v.Details = fmt.Sprintf("scan confidence %.2f", v.Confidence)
	} else {
		v.Details = fmt.Sprintf("scan confidence %.2f too low to trust extraction", v.Confidence)
	}
	return v
}

func (e *Evaluator) checkEmployerMatch(claim *PersonalInfoClaim, employment *ExtractedEmploymentData) ValidationResult {
	agrees, confidence := e.matcher.CompareEmployer(claim.EmployerName, employment.EmployerName)
	v := ValidationResult{
		FieldName:      "employer_name",
		Kind:           ValidationEmployerMatch,
		IsValid:        agrees,
		Confidence:     confidence,
		ClaimedValue:   claim.EmployerName,
		ExtractedValue: employment.EmployerName,
	}
	if agrees {
		v.Details = fmt.Sprintf("employer similarity %.2f", confidence)
	} else {
		v.Details = fmt.Sprintf("employer similarity %.2f below threshold %.2f", confidence, e.cfg.NameMatchThreshold)
	}
	return v
}

// buildReasoning assembles the human-readable explanation: one clause per
// failed validation, or the all-clear message when everything passed.
func buildReasoning(outcome Outcome, validations []ValidationResult) string {
	var clauses []string
	passed := 0
	for _, v := range validations {
		if v.IsValid {
			passed++
			continue
		}
		clauses = append(clauses, fmt.Sprintf("%s: %s", v.FieldName, v.Details))
	}

	switch outcome {
	case OutcomeApprove:
		return fmt.Sprintf("All checks passed; validated %d data points", passed)
	case OutcomeReject, OutcomeManualReview:
		if len(clauses) == 0 {
			return "moderate risk score requires human review"
		}
		return strings.Join(clauses, "; ")
	}
	return strings.Join(clauses, "; ")
}

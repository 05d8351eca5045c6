package decision

import (
	"fmt"
	"strings"
	"time"

	dErrors "verdict/pkg/domain-errors"
)

// Outcome enumerates the possible application decisions.
type Outcome string

const (
	OutcomeApprove      Outcome = "approve"
	OutcomeReject       Outcome = "reject"
	OutcomeManualReview Outcome = "manual_review"
)

// ValidationKind identifies which check produced a ValidationResult.
type ValidationKind string

const (
	ValidationNameMatch       ValidationKind = "name_match"
	ValidationDOBMatch        ValidationKind = "dob_match"
	ValidationAddressMatch    ValidationKind = "address_match"
	ValidationIDExpiry        ValidationKind = "id_expiry"
	ValidationDocumentQuality ValidationKind = "document_quality"
	ValidationEmployerMatch   ValidationKind = "employer_match"
)

// ValidationResult captures the outcome of a single field check. Results are
// created fresh per evaluation and only persisted as part of a Result.
type ValidationResult struct {
	FieldName      string         `json:"field_name"`
	Kind           ValidationKind `json:"validation_type"`
	IsValid        bool           `json:"is_valid"`
	Confidence     float64        `json:"confidence"`
	Details        string         `json:"details,omitempty"`
	ClaimedValue   string         `json:"claimed_value,omitempty"`
	ExtractedValue string         `json:"extracted_value,omitempty"`
}

// RiskFactor is a scalar severity contributed by one failed or borderline
// check. Factors are ephemeral and exist only during one evaluation.
type RiskFactor struct {
	Label    string
	Severity float64
}

// Address holds the structured address components compared by the matcher.
type Address struct {
	Street string `json:"street,omitempty"`
	City   string `json:"city,omitempty"`
	State  string `json:"state,omitempty"`
	Zip    string `json:"zip,omitempty"`
}

// Empty reports whether no component is populated.
func (a Address) Empty() bool {
	return strings.TrimSpace(a.Street) == "" &&
		strings.TrimSpace(a.City) == "" &&
		strings.TrimSpace(a.State) == "" &&
		strings.TrimSpace(a.Zip) == ""
}

// PersonalInfoClaim is the applicant-asserted identity. Immutable once
// submitted for a given evaluation; untrusted until validated.
type PersonalInfoClaim struct {
	FullName     string  `json:"full_name"`
	DateOfBirth  string  `json:"date_of_birth"`
	Address      Address `json:"address"`
	EmployerName string  `json:"employer_name,omitempty"`
}

// ExtractedIdentityData holds the fields read from a government ID by the
// OCR collaborator. Treated as untrusted input, never mutated.
type ExtractedIdentityData struct {
	DocumentType     string   `json:"document_type,omitempty"`
	IDNumber         string   `json:"id_number,omitempty"`
	FullName         string   `json:"full_name"`
	DateOfBirth      string   `json:"date_of_birth"`
	Address          Address  `json:"address"`
	IssueDate        string   `json:"issue_date,omitempty"`
	ExpiryDate       string   `json:"expiry_date"`
	IssuingAuthority string   `json:"issuing_authority,omitempty"`
	ScanConfidence   *float64 `json:"scan_confidence,omitempty"`
}

// ExtractedEmploymentData holds the fields read from an employer document.
// Optional because not all applications require employment verification.
type ExtractedEmploymentData struct {
	EmployerName   string `json:"employer_name"`
	EmployeeName   string `json:"employee_name,omitempty"`
	DocumentDate   string `json:"document_date,omitempty"`
	HealthPlanType string `json:"health_plan_type,omitempty"`
}

// Input groups everything the evaluator considers for one application. It is
// also the snapshot persisted alongside the decision in the audit trail.
type Input struct {
	ApplicationID string                   `json:"application_id"`
	Claim         *PersonalInfoClaim       `json:"claim"`
	Identity      *ExtractedIdentityData   `json:"identity"`
	Employment    *ExtractedEmploymentData `json:"employment,omitempty"`
}

// Result is the structured outcome of one evaluation. Produced exactly once
// per evaluation call and immutable after creation.
type Result struct {
	ApplicationID     string             `json:"application_id"`
	Decision          Outcome            `json:"decision"`
	RiskScore         float64            `json:"risk_score"`
	Reasoning         string             `json:"reasoning"`
	ValidationResults []ValidationResult `json:"validation_results"`
	CreatedAt         time.Time          `json:"created_at"`
}

// PolicyConfig holds the decision thresholds and risk aggregation weights.
// It is an immutable value passed in at construction; thresholds and weights
// are deliberately configurable rather than baked-in constants.
type PolicyConfig struct {
	NameMatchThreshold    float64
	AddressMatchThreshold float64
	AutoApproveThreshold  float64
	ManualReviewThreshold float64
	RiskMaxWeight         float64
	RiskMeanWeight        float64
}

// DefaultPolicyConfig returns the default thresholds and weights.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		NameMatchThreshold:    0.85,
		AddressMatchThreshold: 0.80,
		AutoApproveThreshold:  0.2,
		ManualReviewThreshold: 0.5,
		RiskMaxWeight:         0.6,
		RiskMeanWeight:        0.4,
	}
}

// Validate checks the config at construction time. Inverted or out-of-range
// thresholds are fatal to the configuration, not retryable.
func (c PolicyConfig) Validate() error {
	for name, v := range map[string]float64{
		"name_match_threshold":    c.NameMatchThreshold,
		"address_match_threshold": c.AddressMatchThreshold,
		"auto_approve_threshold":  c.AutoApproveThreshold,
		"manual_review_threshold": c.ManualReviewThreshold,
		"risk_max_weight":         c.RiskMaxWeight,
		"risk_mean_weight":        c.RiskMeanWeight,
	} {
		if v < 0 || v > 1 {
			return dErrors.New(dErrors.CodeThresholdConfig,
				fmt.Sprintf("%s must be in [0,1], got %v", name, v))
		}
	}
	if c.AutoApproveThreshold > c.ManualReviewThreshold {
		return dErrors.New(dErrors.CodeThresholdConfig,
			fmt.Sprintf("auto_approve_threshold (%v) must not exceed manual_review_threshold (%v)",
				c.AutoApproveThreshold, c.ManualReviewThreshold))
	}
	if sum := c.RiskMaxWeight + c.RiskMeanWeight; sum < 0.999 || sum > 1.001 {
		return dErrors.New(dErrors.CodeThresholdConfig,
			fmt.Sprintf("risk weights must sum to 1, got %v", sum))
	}
	return nil
}

// dateLayout is the wire format for all dates handled by the evaluator.
const dateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, strings.TrimSpace(s))
}

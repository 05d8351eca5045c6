package decision

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	dErrors "verdict/pkg/domain-errors"
)

// EvaluatorSuite exercises the full evaluation pipeline end to end: field
// checks, risk aggregation, and the decision policy.
type EvaluatorSuite struct {
	suite.Suite
	evaluator *Evaluator
	now       time.Time
}

func TestEvaluatorSuite(t *testing.T) {
	suite.Run(t, new(EvaluatorSuite))
}

func (s *EvaluatorSuite) SetupTest() {
	var err error
	s.evaluator, err = NewEvaluator(DefaultPolicyConfig())
	s.Require().NoError(err)
	s.now = time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
}

// cleanInput returns an application where every check passes.
func (s *EvaluatorSuite) cleanInput() Input {
	addr := Address{Street: "123 Main Street", City: "Springfield", State: "IL", Zip: "62704"}
	return Input{
		ApplicationID: "app-001",
		Claim: &PersonalInfoClaim{
			FullName:    "Jane A. Doe",
			DateOfBirth: "1990-04-01",
			Address:     addr,
		},
		Identity: &ExtractedIdentityData{
			FullName:    "Jane Doe",
			DateOfBirth: "1990-04-01",
			Address:     addr,
			ExpiryDate:  "2030-01-01",
		},
	}
}

func (s *EvaluatorSuite) findValidation(result *Result, kind ValidationKind) *ValidationResult {
	for i := range result.ValidationResults {
		if result.ValidationResults[i].Kind == kind {
			return &result.ValidationResults[i]
		}
	}
	return nil
}

func (s *EvaluatorSuite) TestCleanApplicationApproves() {
	result, err := s.evaluator.Evaluate(s.cleanInput(), s.now)
	s.Require().NoError(err)

	s.Equal(OutcomeApprove, result.Decision)
	s.Equal(0.0, result.RiskScore)
	s.Equal("app-001", result.ApplicationID)
	s.Equal(s.now, result.CreatedAt)
	s.Len(result.ValidationResults, 4)
	s.Equal("All checks passed; validated 4 data points", result.Reasoning)

	name := s.findValidation(result, ValidationNameMatch)
	s.Require().NotNil(name)
	s.True(name.IsValid, "middle initial must not fail the name check")
	s.GreaterOrEqual(name.Confidence, 0.85)
}

func (s *EvaluatorSuite) TestEvaluationIsDeterministic() {
	first, err := s.evaluator.Evaluate(s.cleanInput(), s.now)
	s.Require().NoError(err)
	second, err := s.evaluator.Evaluate(s.cleanInput(), s.now)
	s.Require().NoError(err)

	s.Equal(first, second, "identical input and clock must yield identical results")
}

func (s *EvaluatorSuite) TestExpiredIDRejects() {
	in := s.cleanInput()
	in.Identity.ExpiryDate = "2020-01-01"

	result, err := s.evaluator.Evaluate(in, s.now)
	s.Require().NoError(err)

	s.Equal(OutcomeReject, result.Decision)
	s.Contains(result.Reasoning, "expired")
	s.Equal(1.0, result.RiskScore)

	expiry := s.findValidation(result, ValidationIDExpiry)
	s.Require().NotNil(expiry)
	s.False(expiry.IsValid)
}

func (s *EvaluatorSuite) TestExpiredIDOutranksEverything() {
	in := s.cleanInput()
	in.Identity.ExpiryDate = "2020-01-01"
	in.Claim.FullName = "Robert Smith"

	result, err := s.evaluator.Evaluate(in, s.now)
	s.Require().NoError(err)
	s.Equal(OutcomeReject, result.Decision, "high risk must not downgrade a hard reject to review")
}

func (s *EvaluatorSuite) TestMissingExpiryDateRejects() {
	in := s.cleanInput()
	in.Identity.ExpiryDate = ""

	result, err := s.evaluator.Evaluate(in, s.now)
	s.Require().NoError(err)

	s.Equal(OutcomeReject, result.Decision)
	s.Contains(result.Reasoning, "no expiry date found on ID")

	expiry := s.findValidation(result, ValidationIDExpiry)
	s.Require().NotNil(expiry)
	s.False(expiry.IsValid)
	s.Equal(0.0, expiry.Confidence)
}

func (s *EvaluatorSuite) TestExpiryOnTodayIsStillValid() {
	in := s.cleanInput()
	in.Identity.ExpiryDate = "2026-08-24"

	result, err := s.evaluator.Evaluate(in, s.now)
	s.Require().NoError(err)
	s.Equal(OutcomeApprove, result.Decision, "an ID expiring today has not expired yet")
}

func (s *EvaluatorSuite) TestDOBMismatchGoesToReview() {
	in := s.cleanInput()
	in.Identity.DateOfBirth = "1990-04-02"

	result, err := s.evaluator.Evaluate(in, s.now)
	s.Require().NoError(err)

	s.Equal(OutcomeManualReview, result.Decision)
	s.Equal(1.0, result.RiskScore, "a date of birth mismatch is maximally severe")
	s.Contains(result.Reasoning, "date_of_birth")
}

func (s *EvaluatorSuite) TestNameMismatchGoesToReview() {
	in := s.cleanInput()
	in.Identity.FullName = "Robert Smith"

	result, err := s.evaluator.Evaluate(in, s.now)
	s.Require().NoError(err)

	s.Equal(OutcomeManualReview, result.Decision)
	s.Greater(result.RiskScore, 0.0)
	s.Contains(result.Reasoning, "full_name")
}

func (s *EvaluatorSuite) TestMissingAddressNeverRejects() {
	s.Run("claim address missing", func() {
		in := s.cleanInput()
		in.Claim.Address = Address{}

		result, err := s.evaluator.Evaluate(in, s.now)
		s.Require().NoError(err)
		s.Equal(OutcomeApprove, result.Decision, "absence of address data is not evidence of fraud")

		address := s.findValidation(result, ValidationAddressMatch)
		s.Require().NotNil(address)
		s.True(address.IsValid)
		s.Equal(0.0, address.Confidence)
		s.Equal("address not verifiable", address.Details)
	})

	s.Run("extracted address missing", func() {
		in := s.cleanInput()
		in.Identity.Address = Address{}

		result, err := s.evaluator.Evaluate(in, s.now)
		s.Require().NoError(err)
		s.Equal(OutcomeApprove, result.Decision)
	})
}

func (s *EvaluatorSuite) TestAddressMismatchGoesToReview() {
	in := s.cleanInput()
	in.Identity.Address = Address{Street: "99 Elm Avenue", City: "Shelbyville", State: "CA", Zip: "90210"}

	result, err := s.evaluator.Evaluate(in, s.now)
	s.Require().NoError(err)
	s.Equal(OutcomeManualReview, result.Decision)
	s.Contains(result.Reasoning, "address")
}

func (s *EvaluatorSuite) TestDocumentQuality() {
	s.Run("low scan confidence forces review", func() {
		in := s.cleanInput()
		low := 0.3
		in.Identity.ScanConfidence = &low

		result, err := s.evaluator.Evaluate(in, s.now)
		s.Require().NoError(err)
		s.Equal(OutcomeManualReview, result.Decision)

		quality := s.findValidation(result, ValidationDocumentQuality)
		s.Require().NotNil(quality)
		s.False(quality.IsValid)
	})

	s.Run("high scan confidence passes", func() {
		in := s.cleanInput()
		high := 0.95
		in.Identity.ScanConfidence = &high

		result, err := s.evaluator.Evaluate(in, s.now)
		s.Require().NoError(err)
		s.Equal(OutcomeApprove, result.Decision)
		s.Len(result.ValidationResults, 5)
	})

	s.Run("absent scan confidence skips the check", func() {
		result, err := s.evaluator.Evaluate(s.cleanInput(), s.now)
		s.Require().NoError(err)
		s.Nil(s.findValidation(result, ValidationDocumentQuality))
	})
}

func (s *EvaluatorSuite) TestEmployerMatch() {
	s.Run("matching employer with suffix variation passes", func() {
		in := s.cleanInput()
		in.Claim.EmployerName = "Acme Inc."
		in.Employment = &ExtractedEmploymentData{EmployerName: "Acme"}

		result, err := s.evaluator.Evaluate(in, s.now)
		s.Require().NoError(err)
		s.Equal(OutcomeApprove, result.Decision)

		employer := s.findValidation(result, ValidationEmployerMatch)
		s.Require().NotNil(employer)
		s.True(employer.IsValid)
	})

	s.Run("employer mismatch forces review", func() {
		in := s.cleanInput()
		in.Claim.EmployerName = "Acme Inc"
		in.Employment = &ExtractedEmploymentData{EmployerName: "Globex Corp"}

		result, err := s.evaluator.Evaluate(in, s.now)
		s.Require().NoError(err)
		s.Equal(OutcomeManualReview, result.Decision)
		s.Contains(result.Reasoning, "employer_name")
	})

	s.Run("no employment document skips the check", func() {
		result, err := s.evaluator.Evaluate(s.cleanInput(), s.now)
		s.Require().NoError(err)
		s.Nil(s.findValidation(result, ValidationEmployerMatch))
	})
}

func (s *EvaluatorSuite) TestInvalidInput() {
	s.Run("missing claim", func() {
		in := s.cleanInput()
		in.Claim = nil

		_, err := s.evaluator.Evaluate(in, s.now)
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
		s.Equal([]string{"claim"}, dErrors.FieldsOf(err))
	})

	s.Run("missing identity", func() {
		in := s.cleanInput()
		in.Identity = nil

		_, err := s.evaluator.Evaluate(in, s.now)
		s.Require().Error(err)
		s.Equal([]string{"identity"}, dErrors.FieldsOf(err))
	})

	s.Run("blank application id", func() {
		in := s.cleanInput()
		in.ApplicationID = "  "

		_, err := s.evaluator.Evaluate(in, s.now)
		s.Require().Error(err)
		s.Equal([]string{"application_id"}, dErrors.FieldsOf(err))
	})

	s.Run("malformed claim date of birth", func() {
		in := s.cleanInput()
		in.Claim.DateOfBirth = "04/01/1990"

		_, err := s.evaluator.Evaluate(in, s.now)
		s.Require().Error(err)
		s.Equal([]string{"claim.date_of_birth"}, dErrors.FieldsOf(err))
	})

	s.Run("malformed extracted expiry date", func() {
		in := s.cleanInput()
		in.Identity.ExpiryDate = "not-a-date"

		_, err := s.evaluator.Evaluate(in, s.now)
		s.Require().Error(err)
		s.Equal([]string{"identity.expiry_date"}, dErrors.FieldsOf(err))
	})

	s.Run("all offending fields reported at once", func() {
		in := s.cleanInput()
		in.ApplicationID = ""
		in.Claim.FullName = ""

		_, err := s.evaluator.Evaluate(in, s.now)
		s.Require().Error(err)
		s.ElementsMatch([]string{"application_id", "claim.full_name"}, dErrors.FieldsOf(err))
	})
}

func (s *EvaluatorSuite) TestEmptyExtractedValuesDegradeInsteadOfErroring() {
	in := s.cleanInput()
	in.Identity.FullName = ""
	in.Identity.DateOfBirth = ""

	result, err := s.evaluator.Evaluate(in, s.now)
	s.Require().NoError(err, "missing extracted values are validation failures, not input errors")
	s.Equal(OutcomeManualReview, result.Decision)

	name := s.findValidation(result, ValidationNameMatch)
	s.Require().NotNil(name)
	s.False(name.IsValid)
	s.Equal("no name found on document", name.Details)
}

package decision

// RuleTag identifies which precedence rule selected the outcome, so the
// policy can be tested rule-by-rule instead of relying on code order.
type RuleTag string

const (
	RuleHardReject         RuleTag = "hard_reject"
	RuleThresholdReview    RuleTag = "threshold_review"
	RuleInvalidFieldReview RuleTag = "invalid_field_review"
	RuleAutoApprove        RuleTag = "auto_approve"
	RuleDefaultReview      RuleTag = "default_review"
)

// policyRule is one entry in the ordered rule list. Applies reports whether
// the rule fires for the given validations and risk score.
type policyRule struct {
	Tag     RuleTag
	Outcome Outcome
	Applies func(validations []ValidationResult, riskScore float64, cfg PolicyConfig) bool
}

// policyRules returns the precedence rules in evaluation order. Ordering is
// the crux of correctness here:
//
//  1. An invalid ID expiry is a hard stop; nothing overrides it.
//  2. Risk at or above the review threshold goes to a human.
//  3. Any failed validation goes to a human regardless of risk score.
//  4. Risk at or below the approve threshold (inclusive) auto-approves.
//  5. Everything between the thresholds defaults to review.
func policyRules() []policyRule {
	return []policyRule{
		{
			Tag:     RuleHardReject,
			Outcome: OutcomeReject,
			Applies: func(validations []ValidationResult, _ float64, _ PolicyConfig) bool {
				for _, v := range validations {
					if v.Kind == ValidationIDExpiry && !v.IsValid {
						return true
					}
				}
				return false
			},
		},
		{
			Tag:     RuleThresholdReview,
			Outcome: OutcomeManualReview,
			Applies: func(_ []ValidationResult, riskScore float64, cfg PolicyConfig) bool {
				return riskScore >= cfg.ManualReviewThreshold
			},
		},
		{
			Tag:     RuleInvalidFieldReview,
			Outcome: OutcomeManualReview,
			Applies: func(validations []ValidationResult, _ float64, _ PolicyConfig) bool {
				for _, v := range validations {
					if !v.IsValid {
						return true
					}
				}
				return false
			},
		},
		{
			Tag:     RuleAutoApprove,
			Outcome: OutcomeApprove,
			Applies: func(_ []ValidationResult, riskScore float64, cfg PolicyConfig) bool {
				return riskScore <= cfg.AutoApproveThreshold
			},
		},
		{
			Tag:     RuleDefaultReview,
			Outcome: OutcomeManualReview,
			Applies: func(_ []ValidationResult, _ float64, _ PolicyConfig) bool {
				return true
			},
		},
	}
}

// Policy maps validation results and a risk score to a decision outcome via
// the ordered rule list. It is a pure function over its inputs.
type Policy struct {
	cfg   PolicyConfig
	rules []policyRule
}

// NewPolicy validates cfg and builds the rule list. Inverted thresholds fail
// fast at construction.
func NewPolicy(cfg PolicyConfig) (Policy, error) {
	if err := cfg.Validate(); err != nil {
		return Policy{}, err
	}
	return Policy{cfg: cfg, rules: policyRules()}, nil
}

// Decide applies the rules in order and returns the first match. The final
// rule always applies, so Decide never returns without an outcome.
func (p Policy) Decide(validations []ValidationResult, riskScore float64) (Outcome, RuleTag) {
	for _, rule := range p.rules {
		if rule.Applies(validations, riskScore, p.cfg) {
			return rule.Outcome, rule.Tag
		}
	}
	// Unreachable: RuleDefaultReview always applies.
	return OutcomeManualReview, RuleDefaultReview
}

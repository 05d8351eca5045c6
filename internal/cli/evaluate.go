package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"verdict/internal/audit"
	"verdict/internal/decision"
)

var policyFile string

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <application.json>",
	Short: "Evaluate one application offline and print the decision as JSON",
	Long: `Evaluate reads an application payload from a JSON file and runs the
full decision pipeline in-process. The file holds the same body the
HTTP API accepts, plus an application_id:

  {
    "application_id": "app-123",
    "claim": {"full_name": "Jane Doe", "date_of_birth": "1990-04-01", ...},
    "identity": {"full_name": "Jane Doe", "date_of_birth": "1990-04-01", ...},
    "employment": {"employer_name": "Acme Inc"}
  }

Thresholds can be overridden with a YAML policy file:

  verdict evaluate app.json --policy policy.yaml`,
	Args: cobra.ExactArgs(1),
	RunE: runEvaluate,
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringVar(&policyFile, "policy", "", "YAML file with threshold overrides")
}

// policyOverrides mirrors decision.PolicyConfig for the YAML policy file.
// Omitted keys keep their defaults.
type policyOverrides struct {
	NameMatchThreshold    *float64 `yaml:"name_match_threshold"`
	AddressMatchThreshold *float64 `yaml:"address_match_threshold"`
	AutoApproveThreshold  *float64 `yaml:"auto_approve_threshold"`
	ManualReviewThreshold *float64 `yaml:"manual_review_threshold"`
	RiskMaxWeight         *float64 `yaml:"risk_max_weight"`
	RiskMeanWeight        *float64 `yaml:"risk_mean_weight"`
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg := decision.DefaultPolicyConfig()
	if policyFile != "" {
		if err := applyPolicyFile(policyFile, &cfg); err != nil {
			return err
		}
	}

	payload, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read application file: %w", err)
	}
	var in decision.Input
	if err := json.Unmarshal(payload, &in); err != nil {
		return fmt.Errorf("parse application file: %w", err)
	}

	evaluator, err := decision.NewEvaluator(cfg)
	if err != nil {
		return err
	}
	recorder := audit.NewRecorder(audit.NewInMemoryStore(), Version)
	service := decision.NewService(evaluator, recorder)

	result, err := service.EvaluateApplication(context.Background(), in)
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

func applyPolicyFile(path string, cfg *decision.PolicyConfig) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read policy file: %w", err)
	}
	var overrides policyOverrides
	if err := yaml.Unmarshal(raw, &overrides); err != nil {
		return fmt.Errorf("parse policy file: %w", err)
	}

	apply := func(dst *float64, src *float64) {
		if src != nil {
			*dst = *src
		}
	}
	apply(&cfg.NameMatchThreshold, overrides.NameMatchThreshold)
	apply(&cfg.AddressMatchThreshold, overrides.AddressMatchThreshold)
	apply(&cfg.AutoApproveThreshold, overrides.AutoApproveThreshold)
	apply(&cfg.ManualReviewThreshold, overrides.ManualReviewThreshold)
	apply(&cfg.RiskMaxWeight, overrides.RiskMaxWeight)
	apply(&cfg.RiskMeanWeight, overrides.RiskMeanWeight)
	return nil
}

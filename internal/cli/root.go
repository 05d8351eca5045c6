// Package cli implements the verdict command line interface for offline
// evaluation of applications without a running server.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags.
var Version = "dev"

var rootCmd = &cobra.Command{
	Use:   "verdict",
	Short: "Verdict - HSA application decision engine",
	Long: `Verdict evaluates health savings account applications against
extracted document data and produces an approve, reject, or
manual-review decision with a risk score and reasoning.

The evaluate subcommand runs one application offline, printing the
full decision as JSON. Useful for policy tuning and regression checks
without a server or database.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
		return err
	}
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "verdict", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

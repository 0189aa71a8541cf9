package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/inbox-tracker/internal/pipeline"
)

var decideCmd = &cobra.Command{
	Use:   "decide",
	Short: "Run the full decisioning pipeline for one email",
	Long: `Extracts structured facts from the email, builds the decision input, derives a
decision plan from the rule set, and applies it under the executor's guards.

Configuration can be loaded from a JSON file using --config. Command-line arguments override config file values.`,
	RunE: runDecide,
}

var (
	decideFlags   sharedFlags
	decideEmailID string
)

func init() {
	registerSharedFlags(decideCmd, &decideFlags)
	decideCmd.Flags().StringVarP(&decideEmailID, "email-id", "e", "", "UUID of the email to decide (required)")

	decideCmd.MarkFlagRequired("email-id")

	rootCmd.AddCommand(decideCmd)
}

func runDecide(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	emailID, err := uuid.Parse(decideEmailID)
	if err != nil {
		return fmt.Errorf("invalid email-id format: %w", err)
	}

	opts, err := resolveOptions(cmd, &decideFlags)
	if err != nil {
		return err
	}

	deps, cleanup, err := pipeline.Assemble(ctx, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	if deps.Shadow.Enabled() {
		if err := deps.ShadowEmail(ctx, emailID); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: shadow run failed: %v\n", err)
		}
	}

	report, err := deps.DecideEmail(ctx, emailID)
	if err != nil {
		return err
	}

	if report.Extraction != nil && !report.Extraction.Success {
		fmt.Fprintf(os.Stdout, "Extraction failed for email %s; no plan executed\n", emailID)
		return nil
	}
	if report.Outcome != nil {
		fmt.Fprintf(os.Stdout, "Email %s: %s (%d applied, %d skipped, %d needs review)\n",
			emailID, report.Outcome.Classification(), report.Outcome.Applied,
			report.Outcome.Skipped, report.Outcome.NeedsReview)
	}
	return nil
}

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/inbox-tracker/internal/canonical"
	"github.com/jonathan/inbox-tracker/internal/observability"
	"github.com/jonathan/inbox-tracker/internal/pipeline"
)

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract structured facts from one email",
	Long: `Runs LLM facts extraction for the email and persists accepted facts
additively under the email_facts_v1 side-channel key. No plan is derived and
nothing else is mutated.`,
	RunE: runExtract,
}

var (
	extractFlags   sharedFlags
	extractEmailID string
)

func init() {
	registerSharedFlags(extractCmd, &extractFlags)
	extractCmd.Flags().StringVarP(&extractEmailID, "email-id", "e", "", "UUID of the email to extract (required)")

	extractCmd.MarkFlagRequired("email-id")

	rootCmd.AddCommand(extractCmd)
}

func runExtract(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	emailID, err := uuid.Parse(extractEmailID)
	if err != nil {
		return fmt.Errorf("invalid email-id format: %w", err)
	}

	opts, err := resolveOptions(cmd, &extractFlags)
	if err != nil {
		return err
	}

	deps, cleanup, err := pipeline.Assemble(ctx, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	email, err := deps.Emails.GetEmail(ctx, emailID)
	if err != nil {
		return fmt.Errorf("failed to load email %s: %w", emailID, err)
	}
	if email == nil {
		return fmt.Errorf("email %s not found", emailID)
	}

	body, err := canonical.EmailBody(email.BodyHTML, email.BodyText)
	if err != nil {
		return fmt.Errorf("failed to canonicalize email %s: %w", emailID, err)
	}

	result, err := deps.Extractor.Extract(ctx, emailID, email.Subject, email.FromAddr, body)
	if err != nil {
		return fmt.Errorf("failed to persist extracted facts: %w", err)
	}
	if !result.Success {
		if result.Failure != nil {
			fmt.Fprintf(os.Stdout, "Extraction failed (%s): %s\n", result.Failure.Stage, result.Failure.Message)
		}
		return nil
	}

	observability.NewPrinter(os.Stdout).PrintFacts(result.Facts)
	fmt.Fprintf(os.Stdout, "Facts stored for email %s\n", emailID)
	return nil
}

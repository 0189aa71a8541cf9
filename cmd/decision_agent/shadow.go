package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/inbox-tracker/internal/pipeline"
)

var shadowCmd = &cobra.Command{
	Use:   "shadow",
	Short: "Run the non-mutating shadow pipeline for one email",
	Long: `Runs extraction, input building, and planning for the email and stores the
resulting artifacts on its extracted-data side channel. Never mutates the
application tracker; existing unrelated side-channel keys are preserved.`,
	RunE: runShadow,
}

var (
	shadowFlags   sharedFlags
	shadowEmailID string
)

func init() {
	registerSharedFlags(shadowCmd, &shadowFlags)
	shadowCmd.Flags().StringVarP(&shadowEmailID, "email-id", "e", "", "UUID of the email to shadow (required)")

	shadowCmd.MarkFlagRequired("email-id")

	rootCmd.AddCommand(shadowCmd)
}

func runShadow(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	emailID, err := uuid.Parse(shadowEmailID)
	if err != nil {
		return fmt.Errorf("invalid email-id format: %w", err)
	}

	opts, err := resolveOptions(cmd, &shadowFlags)
	if err != nil {
		return err
	}
	// The shadow command is itself the flag: always run
	opts.ShadowEnabled = true

	deps, cleanup, err := pipeline.Assemble(ctx, opts)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := deps.ShadowEmail(ctx, emailID); err != nil {
		return err
	}

	fmt.Fprintf(os.Stdout, "Shadow run stored for email %s\n", emailID)
	return nil
}

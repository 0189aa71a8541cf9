package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/inbox-tracker/internal/config"
	"github.com/jonathan/inbox-tracker/internal/db"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "List plan steps held back for human review",
	Long: `Lists the most recent audit records with a needs_review outcome: steps the
executor refused to apply because of ungrounded evidence, ambiguous round
targets, or sub-threshold confidence.`,
	RunE: runReview,
}

var (
	reviewConfigPath  string
	reviewDatabaseURL string
	reviewLimit       int
)

func init() {
	reviewCmd.Flags().StringVar(&reviewConfigPath, "config", "", "Path to config.json file")
	reviewCmd.Flags().StringVar(&reviewDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	reviewCmd.Flags().IntVar(&reviewLimit, "limit", 20, "Maximum records to list")

	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	databaseURL := reviewDatabaseURL
	if databaseURL == "" && reviewConfigPath != "" {
		cfg, err := config.LoadConfig(reviewConfigPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		databaseURL = cfg.DatabaseURL
	}
	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}

	database, err := db.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	audits, err := database.ListNeedsReview(ctx, reviewLimit)
	if err != nil {
		return fmt.Errorf("failed to list review queue: %w", err)
	}

	if len(audits) == 0 {
		fmt.Fprintln(os.Stdout, "Review queue is empty")
		return nil
	}

	for _, audit := range audits {
		fmt.Fprintf(os.Stdout, "%s  email=%s  step=%d %s  %s\n",
			audit.CreatedAt.Format("2006-01-02 15:04"),
			audit.EmailID, audit.StepIndex, audit.StepKind, audit.Reason)
	}
	return nil
}

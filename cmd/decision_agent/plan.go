package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/jonathan/inbox-tracker/internal/config"
	"github.com/jonathan/inbox-tracker/internal/db"
	"github.com/jonathan/inbox-tracker/internal/decision"
	"github.com/jonathan/inbox-tracker/internal/observability"
	"github.com/jonathan/inbox-tracker/internal/planner"
	"github.com/jonathan/inbox-tracker/internal/types"
)

var planCmd = &cobra.Command{
	Use:   "plan",
	Short: "Derive a decision plan from previously extracted facts",
	Long: `Builds a decision input from the facts already stored for the email and
runs the rule engine over it, printing the resulting plan. Nothing is
executed and no tracker state changes. Run 'extract' first if no facts
have been stored yet.`,
	RunE: runPlan,
}

var (
	planConfigPath  string
	planDatabaseURL string
	planEmailID     string
)

func init() {
	planCmd.Flags().StringVar(&planConfigPath, "config", "", "Path to config.json file")
	planCmd.Flags().StringVar(&planDatabaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	planCmd.Flags().StringVarP(&planEmailID, "email-id", "e", "", "UUID of the email to plan for (required)")

	planCmd.MarkFlagRequired("email-id")

	rootCmd.AddCommand(planCmd)
}

func runPlan(cmd *cobra.Command, _ []string) error {
	ctx := context.Background()

	emailID, err := uuid.Parse(planEmailID)
	if err != nil {
		return fmt.Errorf("invalid email-id format: %w", err)
	}

	databaseURL := planDatabaseURL
	if databaseURL == "" && planConfigPath != "" {
		cfg, err := config.LoadConfig(planConfigPath)
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

	email, err := database.GetEmail(ctx, emailID)
	if err != nil {
		return fmt.Errorf("failed to load email %s: %w", emailID, err)
	}
	if email == nil {
		return fmt.Errorf("email %s not found", emailID)
	}

	raw, err := database.GetExtracted(ctx, emailID, db.KeyEmailFacts)
	if err != nil {
		return fmt.Errorf("failed to load stored facts: %w", err)
	}
	if raw == nil {
		return fmt.Errorf("no facts stored for email %s, run 'extract' first", emailID)
	}

	var facts types.EmailFacts
	if err := json.Unmarshal(raw, &facts); err != nil {
		return fmt.Errorf("stored facts for email %s are malformed: %w", emailID, err)
	}

	input, err := decision.NewBuilder(database).Build(ctx, email, &facts)
	if err != nil {
		return fmt.Errorf("failed to build decision input: %w", err)
	}

	plan := planner.Default(func(err error) {
		fmt.Printf("Warning: planner fault: %v\n", err)
	}).Plan(input)

	printer := observability.NewPrinter(os.Stdout)
	printer.PrintFacts(&facts)
	printer.PrintPlan(plan)
	return nil
}

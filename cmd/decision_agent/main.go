// Package main provides the entry point for the inbox decisioning CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "decision_agent",
	Short: "Email decisioning for the job-application tracker",
	Long:  "Decision agent turns classified job-search emails into validated, guarded state transitions against the application tracker: facts extraction, rule-based planning, and safe execution with a full audit trail.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonathan/inbox-tracker/internal/config"
	"github.com/jonathan/inbox-tracker/internal/pipeline"
)

// sharedFlags holds the flag values common to the decisioning commands
type sharedFlags struct {
	configPath          string
	databaseURL         string
	apiKey              string
	evidenceMode        string
	confidenceThreshold float64
	shadowEnabled       bool
	verbose             bool
}

// registerSharedFlags attaches the common decisioning flags to a command
func registerSharedFlags(cmd *cobra.Command, flags *sharedFlags) {
	cmd.Flags().StringVar(&flags.configPath, "config", "", "Path to config.json file (values can be overridden by other flags)")
	cmd.Flags().StringVar(&flags.databaseURL, "db-url", "", "PostgreSQL connection URL (optional, defaults to DATABASE_URL env var)")
	cmd.Flags().StringVar(&flags.apiKey, "api-key", "", "Gemini API Key (optional, defaults to GEMINI_API_KEY env var)")
	cmd.Flags().StringVar(&flags.evidenceMode, "evidence-mode", "", "Evidence failure policy: strict or lenient")
	cmd.Flags().Float64Var(&flags.confidenceThreshold, "confidence-threshold", 0, "Minimum confidence for terminal status transitions (0-1)")
	cmd.Flags().BoolVar(&flags.shadowEnabled, "shadow", false, "Also run the non-mutating shadow pipeline")
	cmd.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "Print detailed debug information")
}

// resolveOptions merges config file, flag overrides, defaults, and environment
// into pipeline run options. Command-line arguments take priority.
func resolveOptions(cmd *cobra.Command, flags *sharedFlags) (pipeline.RunOptions, error) {
	var cfg config.Config
	if flags.configPath != "" {
		loaded, err := config.LoadConfig(flags.configPath)
		if err != nil {
			return pipeline.RunOptions{}, fmt.Errorf("failed to load config: %w", err)
		}
		if err := loaded.Validate(); err != nil {
			return pipeline.RunOptions{}, err
		}
		cfg = *loaded
		if flags.verbose {
			_, _ = fmt.Fprintf(os.Stdout, "Loaded config from: %s\n", flags.configPath)
		}
	}

	// Only override if the flag was explicitly set
	if cmd.Flags().Changed("db-url") {
		cfg.DatabaseURL = flags.databaseURL
	}
	if cmd.Flags().Changed("api-key") {
		cfg.APIKey = flags.apiKey
	}
	if cmd.Flags().Changed("evidence-mode") {
		cfg.EvidenceMode = flags.evidenceMode
	}
	if cmd.Flags().Changed("confidence-threshold") {
		cfg.ConfidenceThreshold = flags.confidenceThreshold
	}
	if cmd.Flags().Changed("shadow") {
		cfg.ShadowEnabled = flags.shadowEnabled
	}
	if cmd.Flags().Changed("verbose") {
		cfg.Verbose = flags.verbose
	}

	cfg = cfg.MergeWithDefaults(config.Config{
		BatchSize: 50,
		Workers:   4,
	})
	if err := cfg.Validate(); err != nil {
		return pipeline.RunOptions{}, err
	}

	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.APIKey == "" {
		return pipeline.RunOptions{}, fmt.Errorf("GEMINI_API_KEY environment variable or --api-key flag is required")
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return pipeline.RunOptions{}, fmt.Errorf("DATABASE_URL environment variable or --db-url flag is required")
	}

	return pipeline.RunOptions{
		DatabaseURL:   cfg.DatabaseURL,
		APIKey:        cfg.APIKey,
		Guard:         cfg.GuardConfig(),
		ShadowEnabled: cfg.ShadowEnabled,
		BatchSize:     cfg.BatchSize,
		Workers:       cfg.Workers,
		Verbose:       cfg.Verbose,
	}, nil
}

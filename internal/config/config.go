// Package config provides configuration loading and validation for the CLI.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/inbox-tracker/internal/executor"
)

// Config represents the CLI configuration that can be loaded from a JSON file.
// All fields are optional; missing values use defaults or must be provided via CLI flags.
type Config struct {
	// Connections
	DatabaseURL string `json:"database_url,omitempty" validate:"omitempty,uri"` // PostgreSQL connection URL
	APIKey      string `json:"api_key,omitempty"`                               // Gemini API key

	// Decisioning behavior
	ShadowEnabled       bool    `json:"shadow_enabled,omitempty"`                                          // Run the non-mutating shadow pipeline
	EvidenceMode        string  `json:"evidence_mode,omitempty" validate:"omitempty,oneof=strict lenient"` // Failure policy for ungrounded evidence
	ConfidenceThreshold float64 `json:"confidence_threshold,omitempty" validate:"gte=0,lte=1"`             // Minimum confidence for terminal transitions

	// Worker behavior
	BatchSize int  `json:"batch_size,omitempty" validate:"gte=0"` // Pending emails fetched per worker pass
	Workers   int  `json:"workers,omitempty" validate:"gte=0"`    // Concurrent email runs
	Verbose   bool `json:"verbose,omitempty"`                     // Print detailed debug information
}

var validate = validator.New()

// LoadConfig loads configuration from a JSON file.
// Returns an error if the file cannot be read or parsed.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}

	// Resolve path relative to current directory if not absolute
	if !filepath.IsAbs(path) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get current directory: %w", err)
		}
		path = filepath.Join(cwd, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	return &cfg, nil
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those are handled
// by CLI flag validation after merging.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) && len(fields) > 0 {
			return fmt.Errorf("config error: field %s failed %s validation", fields[0].Field(), fields[0].Tag())
		}
		return fmt.Errorf("config error: %w", err)
	}
	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.DatabaseURL == "" {
		result.DatabaseURL = defaults.DatabaseURL
	}
	if result.APIKey == "" {
		result.APIKey = defaults.APIKey
	}
	if result.EvidenceMode == "" {
		result.EvidenceMode = defaults.EvidenceMode
	}
	if result.ConfidenceThreshold == 0 {
		result.ConfidenceThreshold = defaults.ConfidenceThreshold
	}
	if result.BatchSize == 0 {
		result.BatchSize = defaults.BatchSize
	}
	if result.Workers == 0 {
		result.Workers = defaults.Workers
	}
	if !result.ShadowEnabled {
		result.ShadowEnabled = defaults.ShadowEnabled
	}
	if !result.Verbose {
		result.Verbose = defaults.Verbose
	}

	return result
}

// GuardConfig derives the executor guard settings, falling back to the
// executor's defaults for unset fields.
func (c *Config) GuardConfig() executor.GuardConfig {
	guard := executor.DefaultGuardConfig()
	if c.EvidenceMode != "" {
		guard.EvidenceMode = c.EvidenceMode
	}
	if c.ConfidenceThreshold > 0 {
		guard.ConfidenceThreshold = c.ConfidenceThreshold
	}
	return guard
}

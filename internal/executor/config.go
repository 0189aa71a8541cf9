package executor

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Evidence failure policies. Strict skips any step whose citation is not
// grounded in the email body; lenient downgrades it to needs_review instead.
const (
	EvidenceStrict  = "strict"
	EvidenceLenient = "lenient"
)

// GuardConfig tunes the executor's safety checks
type GuardConfig struct {
	EvidenceMode        string  `json:"evidence_mode" validate:"oneof=strict lenient"`
	ConfidenceThreshold float64 `json:"confidence_threshold" validate:"gte=0,lte=1"`
}

// DefaultGuardConfig returns the guard settings used when no overrides are
// configured.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		EvidenceMode:        EvidenceLenient,
		ConfidenceThreshold: 0.8,
	}
}

var guardValidate = validator.New()

// Validate checks the guard configuration for out-of-range values
func (c GuardConfig) Validate() error {
	if err := guardValidate.Struct(c); err != nil {
		return fmt.Errorf("invalid guard config: %w", err)
	}
	return nil
}

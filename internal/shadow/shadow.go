// Package shadow runs the decisioning pipeline without mutating primary
// state. The resulting input, plan, and run metadata are stored on the
// email's extracted-data side channel for offline comparison; the guarded
// executor's mutating path is never invoked.
package shadow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/inbox-tracker/internal/canonical"
	"github.com/jonathan/inbox-tracker/internal/db"
	"github.com/jonathan/inbox-tracker/internal/decision"
	"github.com/jonathan/inbox-tracker/internal/extraction"
	"github.com/jonathan/inbox-tracker/internal/planner"
)

// SideChannel persists shadow artifacts additively. Implemented by *db.DB.
type SideChannel interface {
	MergeExtracted(ctx context.Context, emailID uuid.UUID, key string, value any) error
}

// RunMeta is the record stored under decisioning_meta_v1 for each shadow run
type RunMeta struct {
	Provider          string `json:"provider"`
	Model             string `json:"model"`
	ExtractionSuccess bool   `json:"extraction_success"`
	PlanDecision      string `json:"plan_decision,omitempty"`
	PlanSteps         int    `json:"plan_steps"`
	DurationMS        int64  `json:"duration_ms"`
	CompletedAt       string `json:"completed_at"`
	Error             string `json:"error,omitempty"`
}

// Runner executes shadow runs when the feature flag is enabled
type Runner struct {
	enabled   bool
	extractor *extraction.Extractor
	builder   *decision.Builder
	planner   *planner.Planner
	store     SideChannel
	provider  string
	model     string
}

// NewRunner creates a shadow Runner. The provider and model strings are
// recorded in run metadata only; the extractor owns the actual calls.
func NewRunner(enabled bool, extractor *extraction.Extractor, builder *decision.Builder, pl *planner.Planner, store SideChannel, provider, model string) *Runner {
	return &Runner{
		enabled:   enabled,
		extractor: extractor,
		builder:   builder,
		planner:   pl,
		store:     store,
		provider:  provider,
		model:     model,
	}
}

// Enabled reports whether shadow runs are active
func (r *Runner) Enabled() bool {
	return r != nil && r.enabled
}

// Run executes extraction, input building, and planning for one email and
// stores every artifact on the side channel. With the flag disabled it is a
// no-op. The returned error covers persistence failures only; extraction
// failures are themselves recorded as metadata.
func (r *Runner) Run(ctx context.Context, email *db.Email) error {
	if !r.Enabled() {
		return nil
	}
	if email == nil {
		return fmt.Errorf("shadow run requires an email")
	}

	start := time.Now()
	meta := RunMeta{Provider: r.provider, Model: r.model}

	body, err := canonical.EmailBody(email.BodyHTML, email.BodyText)
	if err != nil {
		meta.Error = err.Error()
		return r.finish(ctx, email.ID, start, meta)
	}

	result, err := r.extractor.Extract(ctx, email.ID, email.Subject, email.FromAddr, body)
	if err != nil {
		return fmt.Errorf("shadow extraction for email %s: %w", email.ID, err)
	}
	meta.ExtractionSuccess = result.Success
	if !result.Success {
		if result.Failure != nil {
			meta.Error = fmt.Sprintf("%s: %s", result.Failure.Stage, result.Failure.Message)
		}
		return r.finish(ctx, email.ID, start, meta)
	}

	input, err := r.builder.Build(ctx, email, result.Facts)
	if err != nil {
		meta.Error = err.Error()
		return r.finish(ctx, email.ID, start, meta)
	}
	if err := r.store.MergeExtracted(ctx, email.ID, db.KeyDecisionInput, input); err != nil {
		return fmt.Errorf("failed to store shadow decision input: %w", err)
	}

	plan := r.planner.Plan(input)
	if err := r.store.MergeExtracted(ctx, email.ID, db.KeyDecisionPlan, plan); err != nil {
		return fmt.Errorf("failed to store shadow decision plan: %w", err)
	}
	meta.PlanDecision = plan.Decision
	meta.PlanSteps = len(plan.Plan)

	return r.finish(ctx, email.ID, start, meta)
}

func (r *Runner) finish(ctx context.Context, emailID uuid.UUID, start time.Time, meta RunMeta) error {
	meta.DurationMS = time.Since(start).Milliseconds()
	meta.CompletedAt = time.Now().UTC().Format(time.RFC3339)
	if err := r.store.MergeExtracted(ctx, emailID, db.KeyDecisioningMeta, meta); err != nil {
		return fmt.Errorf("failed to store shadow run metadata: %w", err)
	}
	return nil
}

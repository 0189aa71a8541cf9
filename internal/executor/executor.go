// Package executor applies DecisionPlans under safety guardrails: durable
// idempotency, evidence grounding, round resolvability, state-machine
// legality, and confidence gating. Every mutation is legality-checked against
// re-read live state immediately before it happens; a stale planning snapshot
// can only cause a skip, never a corrupt transition.
package executor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/inbox-tracker/internal/appstate"
	"github.com/jonathan/inbox-tracker/internal/db"
	"github.com/jonathan/inbox-tracker/internal/schemas"
	"github.com/jonathan/inbox-tracker/internal/types"
)

// ApplicationStore is the mutating surface of the tracking aggregate.
// Implemented by *db.DB.
type ApplicationStore interface {
	GetApplication(ctx context.Context, appID uuid.UUID) (*db.Application, error)
	ListRecentRounds(ctx context.Context, appID uuid.UUID, limit int) ([]db.InterviewRound, error)
	UpdateApplicationStatus(ctx context.Context, appID uuid.UUID, status string) error
	SetPipelineStage(ctx context.Context, appID uuid.UUID, stage string) error
	UpdateRoundOutcome(ctx context.Context, roundID uuid.UUID, outcome string) error
	CreateInterviewRound(ctx context.Context, appID uuid.UUID, roundType, status string, scheduledAt *time.Time) (uuid.UUID, error)
	UpdateRoundSchedule(ctx context.Context, roundID uuid.UUID, scheduledAt time.Time) error
}

// Ledger is the durable idempotency and audit surface. Implemented by *db.DB.
type Ledger interface {
	RecordPlanApplied(ctx context.Context, emailID uuid.UUID, decision string) (bool, error)
	RecordStepAudit(ctx context.Context, emailID uuid.UUID, stepIndex int, stepKind, outcome, reason string) error
}

// Outcome summarizes one execution: what was applied, what was held back,
// and why.
type Outcome struct {
	EmailID     uuid.UUID `json:"email_id"`
	Replayed    bool      `json:"replayed"`
	Applied     int       `json:"applied"`
	Skipped     int       `json:"skipped"`
	NeedsReview int       `json:"needs_review"`
	Errors      []string  `json:"errors,omitempty"`
}

// Classification reduces the outcome to one word for logs and reports
func (o *Outcome) Classification() string {
	switch {
	case o.Replayed:
		return "replayed"
	case o.Applied > 0 && o.Skipped == 0 && o.NeedsReview == 0 && len(o.Errors) == 0:
		return "applied"
	case o.Applied > 0:
		return "partial"
	case o.NeedsReview > 0:
		return "needs_review"
	case o.Skipped > 0 || len(o.Errors) > 0:
		return "skipped"
	default:
		return "noop"
	}
}

// Executor verifies and applies DecisionPlans
type Executor struct {
	store  ApplicationStore
	ledger Ledger
	cfg    GuardConfig
}

// New creates an Executor. An invalid guard config is rejected here rather
// than surfacing as surprising skips at execution time.
func New(store ApplicationStore, ledger Ledger, cfg GuardConfig) (*Executor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Executor{store: store, ledger: ledger, cfg: cfg}, nil
}

// Execute applies the plan for one email. The returned error covers only
// infrastructure failures that prevented execution from proceeding at all;
// per-step guard failures are reported through the Outcome and the audit
// trail, never as a pipeline abort.
func (e *Executor) Execute(ctx context.Context, input *types.DecisionInput, plan *types.DecisionPlan) (*Outcome, error) {
	if input == nil || plan == nil {
		return nil, fmt.Errorf("execute requires a decision input and plan")
	}
	out := &Outcome{EmailID: input.EmailID}

	// The executor trusts nothing upstream: the plan must pass the closed
	// contract even when it came from our own planner.
	if err := schemas.Validate(schemas.ContractDecisionPlan, plan); err != nil {
		return nil, fmt.Errorf("plan failed contract validation: %w", err)
	}

	if !plan.Actionable() {
		return out, nil
	}
	if !input.Match.Matched || input.Match.ApplicationID == nil {
		return nil, fmt.Errorf("actionable plan for unmatched email %s", input.EmailID)
	}
	appID := *input.Match.ApplicationID

	// The ledger insert is the sole concurrency guard: claim the email
	// before any mutation. A concurrent execution of the same email loses
	// the first-writer insert and replays instead of double-applying. An
	// already-recorded application is success, not an error, and must not
	// mutate anything again.
	claimed, err := e.ledger.RecordPlanApplied(ctx, input.EmailID, plan.Decision)
	if err != nil {
		return nil, fmt.Errorf("failed to claim decision ledger: %w", err)
	}
	if !claimed {
		out.Replayed = true
		return out, nil
	}

	failedEvidence := ungroundedEvidence(plan, input.Event.Body)
	planGrounded := len(failedEvidence) < len(plan.Evidence)

	for i, step := range plan.Plan {
		e.executeStep(ctx, out, input, appID, i, step, failedEvidence, planGrounded)
	}
	return out, nil
}

// ungroundedEvidence returns the plan-level evidence strings that are not
// literal substrings of the canonical body
func ungroundedEvidence(plan *types.DecisionPlan, body string) map[string]bool {
	failed := make(map[string]bool)
	for _, ev := range plan.Evidence {
		if !strings.Contains(body, ev) {
			failed[ev] = true
		}
	}
	return failed
}

// evidenceHolds checks the step's own citations against the body, falling
// back to the plan-level check for steps without citations
func evidenceHolds(step types.PlanStep, body string, failedEvidence map[string]bool, planGrounded bool) bool {
	if len(step.Evidence) == 0 {
		return planGrounded
	}
	for _, ev := range step.Evidence {
		if failedEvidence[ev] || !strings.Contains(body, ev) {
			return false
		}
	}
	return true
}

func (e *Executor) executeStep(ctx context.Context, out *Outcome, input *types.DecisionInput, appID uuid.UUID, index int, step types.PlanStep, failedEvidence map[string]bool, planGrounded bool) {
	if !evidenceHolds(step, input.Event.Body, failedEvidence, planGrounded) {
		if e.cfg.EvidenceMode == EvidenceStrict {
			e.audit(ctx, out, input.EmailID, index, step, db.AuditSkipped, "evidence not found in email body")
		} else {
			e.audit(ctx, out, input.EmailID, index, step, db.AuditNeedsReview, "evidence not found in email body")
		}
		return
	}

	outcome, reason, err := e.applyStep(ctx, input, appID, step)
	if err != nil {
		out.Errors = append(out.Errors, fmt.Sprintf("step %d (%s): %v", index, step.Kind, err))
		e.audit(ctx, out, input.EmailID, index, step, db.AuditError, err.Error())
		return
	}
	e.audit(ctx, out, input.EmailID, index, step, outcome, reason)
}

func (e *Executor) audit(ctx context.Context, out *Outcome, emailID uuid.UUID, index int, step types.PlanStep, outcome, reason string) {
	switch outcome {
	case db.AuditApplied:
		out.Applied++
	case db.AuditSkipped:
		out.Skipped++
	case db.AuditNeedsReview:
		out.NeedsReview++
	}
	if err := e.ledger.RecordStepAudit(ctx, emailID, index, string(step.Kind), outcome, reason); err != nil {
		out.Errors = append(out.Errors, fmt.Sprintf("step %d (%s): audit write failed: %v", index, step.Kind, err))
	}
}

// applyStep runs the guards specific to one step kind and mutates state when
// every guard passes. It returns the audit outcome plus a human-readable
// reason for anything held back.
func (e *Executor) applyStep(ctx context.Context, input *types.DecisionInput, appID uuid.UUID, step types.PlanStep) (string, string, error) {
	switch step.Kind {
	case types.StepRunStatusProcessor:
		return e.applyStatus(ctx, input, appID, step.TargetStatus)

	case types.StepSetPipelineStage:
		return e.applyStage(ctx, appID, step.TargetStage)

	case types.StepSyncPipelineFromRound:
		return e.applyStage(ctx, appID, appstate.StageForRoundType(step.RoundType))

	case types.StepMarkLatestRoundFailed:
		round, reason, err := e.resolveRound(ctx, appID, step.RoundSelector)
		if err != nil {
			return "", "", err
		}
		if round == nil {
			return db.AuditNeedsReview, reason, nil
		}
		if err := e.store.UpdateRoundOutcome(ctx, round.ID, types.OutcomeFailed); err != nil {
			return "", "", err
		}
		return db.AuditApplied, "", nil

	case types.StepRunRoundFeedbackProcessor:
		round, reason, err := e.resolveRound(ctx, appID, step.RoundSelector)
		if err != nil {
			return "", "", err
		}
		if round == nil {
			return db.AuditNeedsReview, reason, nil
		}
		if step.Outcome == "" {
			return db.AuditNeedsReview, "feedback carried no outcome", nil
		}
		if err := e.store.UpdateRoundOutcome(ctx, round.ID, step.Outcome); err != nil {
			return "", "", err
		}
		return db.AuditApplied, "", nil

	case types.StepSyncApplicationFromRound:
		return e.syncFromRoundResult(ctx, appID, step.Outcome)

	case types.StepRunInterviewRoundProc:
		return e.processInterviewRound(ctx, appID, step)
	}

	return db.AuditSkipped, fmt.Sprintf("no handler for step kind %s", step.Kind), nil
}

// applyStatus re-reads live state and applies a status transition when the
// aggregate's guard rules permit it. Terminal targets require the extraction
// confidence to clear the configured threshold.
func (e *Executor) applyStatus(ctx context.Context, input *types.DecisionInput, appID uuid.UUID, target string) (string, string, error) {
	if target == "" {
		return db.AuditSkipped, "status step carried no target", nil
	}
	if types.IsTerminalStatus(target) {
		confidence := 0.0
		if input.Facts != nil {
			confidence = input.Facts.Classification.Confidence
		}
		if confidence < e.cfg.ConfidenceThreshold {
			return db.AuditNeedsReview,
				fmt.Sprintf("confidence %.2f below threshold %.2f for terminal status %s", confidence, e.cfg.ConfidenceThreshold, target),
				nil
		}
	}

	app, err := e.store.GetApplication(ctx, appID)
	if err != nil {
		return "", "", err
	}
	if app == nil {
		return db.AuditSkipped, "application no longer exists", nil
	}
	if app.Status == target {
		return db.AuditSkipped, fmt.Sprintf("already in status %s", target), nil
	}
	if !appstate.CanTransitionStatus(app.Status, target) {
		return db.AuditSkipped, fmt.Sprintf("illegal status transition %s -> %s", app.Status, target), nil
	}
	if err := e.store.UpdateApplicationStatus(ctx, appID, target); err != nil {
		return "", "", err
	}
	return db.AuditApplied, "", nil
}

// applyStage moves the pipeline stage forward, never backward
func (e *Executor) applyStage(ctx context.Context, appID uuid.UUID, target string) (string, string, error) {
	if target == "" {
		return db.AuditSkipped, "stage step carried no target", nil
	}
	app, err := e.store.GetApplication(ctx, appID)
	if err != nil {
		return "", "", err
	}
	if app == nil {
		return db.AuditSkipped, "application no longer exists", nil
	}
	if app.PipelineStage == target {
		return db.AuditSkipped, fmt.Sprintf("already at stage %s", target), nil
	}
	if !appstate.CanTransitionStage(app.PipelineStage, target) {
		return db.AuditSkipped, fmt.Sprintf("illegal stage transition %s -> %s", app.PipelineStage, target), nil
	}
	if err := e.store.SetPipelineStage(ctx, appID, target); err != nil {
		return "", "", err
	}
	return db.AuditApplied, "", nil
}

// syncFromRoundResult advances the pipeline one stage after a passed round.
// Failed and mixed outcomes change nothing here: terminal consequences come
// from higher-priority rules, not from a sync step.
func (e *Executor) syncFromRoundResult(ctx context.Context, appID uuid.UUID, outcome string) (string, string, error) {
	if outcome != types.OutcomePassed {
		return db.AuditSkipped, fmt.Sprintf("outcome %q does not advance the application", outcome), nil
	}
	app, err := e.store.GetApplication(ctx, appID)
	if err != nil {
		return "", "", err
	}
	if app == nil {
		return db.AuditSkipped, "application no longer exists", nil
	}
	next, ok := appstate.NextStage(app.PipelineStage)
	if !ok {
		return db.AuditSkipped, fmt.Sprintf("no stage after %s", app.PipelineStage), nil
	}
	if err := e.store.SetPipelineStage(ctx, appID, next); err != nil {
		return "", "", err
	}
	return db.AuditApplied, "", nil
}

// processInterviewRound updates the schedule of the round its selector
// resolves to, or creates a new round when the step carries no selector.
func (e *Executor) processInterviewRound(ctx context.Context, appID uuid.UUID, step types.PlanStep) (string, string, error) {
	var scheduledAt *time.Time
	if step.ScheduledAt != "" {
		t, err := time.Parse(time.RFC3339, step.ScheduledAt)
		if err != nil {
			return db.AuditNeedsReview, fmt.Sprintf("unparsable scheduled time %q", step.ScheduledAt), nil
		}
		scheduledAt = &t
	}

	if step.RoundSelector == nil {
		status := types.RoundPending
		if scheduledAt != nil {
			status = types.RoundScheduled
		}
		if _, err := e.store.CreateInterviewRound(ctx, appID, step.RoundType, status, scheduledAt); err != nil {
			return "", "", err
		}
		return db.AuditApplied, "", nil
	}

	round, reason, err := e.resolveRound(ctx, appID, step.RoundSelector)
	if err != nil {
		return "", "", err
	}
	if round == nil {
		return db.AuditNeedsReview, reason, nil
	}
	if scheduledAt == nil {
		return db.AuditSkipped, "selected round needs no schedule change", nil
	}
	if err := e.store.UpdateRoundSchedule(ctx, round.ID, *scheduledAt); err != nil {
		return "", "", err
	}
	return db.AuditApplied, "", nil
}

// resolveRound resolves a selector against the application's live rounds. It
// returns nil with a reason when resolution is ambiguous: zero or multiple
// candidates both mean a human should look, not a guess.
func (e *Executor) resolveRound(ctx context.Context, appID uuid.UUID, selector *types.RoundSelector) (*db.InterviewRound, string, error) {
	if selector == nil {
		return nil, "step carried no round selector", nil
	}
	rounds, err := e.store.ListRecentRounds(ctx, appID, types.MaxSnapshotRounds)
	if err != nil {
		return nil, "", err
	}

	var matches []db.InterviewRound
	switch selector.Kind {
	case types.SelectLatestPending:
		for _, r := range rounds {
			if r.Status == types.RoundPending || r.Status == types.RoundScheduled {
				matches = append(matches, r)
				break // rounds are newest first
			}
		}

	case types.SelectLatest:
		if len(rounds) > 0 {
			matches = append(matches, rounds[0])
		}

	case types.SelectScheduledWithin:
		start, err := time.Parse(time.RFC3339, selector.WindowStart)
		if err != nil {
			return nil, fmt.Sprintf("unparsable selector window start %q", selector.WindowStart), nil
		}
		end, err := time.Parse(time.RFC3339, selector.WindowEnd)
		if err != nil {
			return nil, fmt.Sprintf("unparsable selector window end %q", selector.WindowEnd), nil
		}
		for _, r := range rounds {
			if r.ScheduledAt == nil {
				continue
			}
			if !r.ScheduledAt.Before(start) && !r.ScheduledAt.After(end) {
				matches = append(matches, r)
			}
		}

	default:
		return nil, fmt.Sprintf("unknown round selector %q", selector.Kind), nil
	}

	switch len(matches) {
	case 1:
		return &matches[0], "", nil
	case 0:
		return nil, fmt.Sprintf("selector %s matched no round", selector.Kind), nil
	default:
		return nil, fmt.Sprintf("selector %s matched %d rounds", selector.Kind, len(matches)), nil
	}
}

package types

import (
	"encoding/json"
	"fmt"
)

// Decision verdicts for a DecisionPlan.
const (
	DecisionApply       = "apply"
	DecisionNoop        = "noop"
	DecisionNeedsReview = "needs_review"
)

// StepKind is the closed vocabulary of plan steps. Extending it requires a
// coordinated schema + planner + executor + fixture update.
type StepKind string

// The fixed plan-step vocabulary.
const (
	StepSetPipelineStage          StepKind = "set_pipeline_stage"
	StepRunStatusProcessor        StepKind = "run_status_processor"
	StepMarkLatestRoundFailed     StepKind = "mark_latest_round_failed"
	StepRunRoundFeedbackProcessor StepKind = "run_round_feedback_processor"
	StepSyncApplicationFromRound  StepKind = "sync_application_from_round_result"
	StepRunInterviewRoundProc     StepKind = "run_interview_round_processor"
	StepSyncPipelineFromRound     StepKind = "sync_pipeline_from_round_stage"
)

// KnownStepKinds returns the full step vocabulary in a stable order
func KnownStepKinds() []StepKind {
	return []StepKind{
		StepSetPipelineStage,
		StepRunStatusProcessor,
		StepMarkLatestRoundFailed,
		StepRunRoundFeedbackProcessor,
		StepSyncApplicationFromRound,
		StepRunInterviewRoundProc,
		StepSyncPipelineFromRound,
	}
}

// Valid reports whether k is inside the step vocabulary
func (k StepKind) Valid() bool {
	for _, known := range KnownStepKinds() {
		if k == known {
			return true
		}
	}
	return false
}

// Round selector kinds for steps that target a specific interview round.
const (
	SelectLatestPending   = "latest_pending"
	SelectLatest          = "latest"
	SelectScheduledWithin = "scheduled_within"
)

// RoundSelector names the interview round a step targets. The executor must
// resolve it to exactly one concrete round; ambiguous resolution skips the
// step.
type RoundSelector struct {
	Kind        string `json:"kind"`
	WindowStart string `json:"window_start,omitempty"` // RFC3339, scheduled_within only
	WindowEnd   string `json:"window_end,omitempty"`   // RFC3339, scheduled_within only
}

// PlanStep is one entry in a DecisionPlan: a step kind plus the parameters the
// executor needs to resolve and apply it. Evidence citations reference entries
// in the plan-level evidence list; a step whose citation fails the substring
// check is skipped, not silently passed.
type PlanStep struct {
	Kind          StepKind       `json:"kind"`
	TargetStage   string         `json:"target_stage,omitempty"`
	TargetStatus  string         `json:"target_status,omitempty"`
	RoundSelector *RoundSelector `json:"round_selector,omitempty"`
	RoundType     string         `json:"round_type,omitempty"`
	Outcome       string         `json:"outcome,omitempty"`
	ScheduledAt   string         `json:"scheduled_at,omitempty"` // RFC3339
	Evidence      []string       `json:"evidence,omitempty"`
}

// UnmarshalJSON rejects unknown step kinds so externally supplied plans fail
// closed instead of carrying unrecognized actions into the executor.
func (s *PlanStep) UnmarshalJSON(data []byte) error {
	type planStep PlanStep
	var raw planStep
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if !StepKind(raw.Kind).Valid() {
		return fmt.Errorf("unknown plan step kind: %q", raw.Kind)
	}
	*s = PlanStep(raw)
	return nil
}

// DecisionPlan is the planner's sole output: a verdict plus an ordered,
// whitelisted sequence of steps with supporting evidence. The contract is
// closed: unknown fields and unknown step kinds are validation failures.
type DecisionPlan struct {
	Decision      string     `json:"decision"`
	Plan          []PlanStep `json:"plan"`
	Evidence      []string   `json:"evidence"`
	Preconditions []string   `json:"preconditions,omitempty"`
}

// NoopPlan returns the explicit do-nothing plan. Planning failures degrade to
// this rather than propagating unmapped actions.
func NoopPlan() *DecisionPlan {
	return &DecisionPlan{
		Decision: DecisionNoop,
		Plan:     []PlanStep{},
		Evidence: []string{},
	}
}

// Actionable reports whether the plan carries any steps to apply
func (p *DecisionPlan) Actionable() bool {
	return p != nil && p.Decision == DecisionApply && len(p.Plan) > 0
}

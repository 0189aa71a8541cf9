package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanStep_UnmarshalKnownKind(t *testing.T) {
	jsonInput := `{
		"kind": "run_status_processor",
		"target_status": "rejected",
		"evidence": ["we have decided not to move forward"]
	}`

	var step PlanStep
	err := json.Unmarshal([]byte(jsonInput), &step)
	require.NoError(t, err)
	assert.Equal(t, StepRunStatusProcessor, step.Kind)
	assert.Equal(t, "rejected", step.TargetStatus)
	assert.Len(t, step.Evidence, 1)
}

func TestPlanStep_UnmarshalUnknownKindFailsClosed(t *testing.T) {
	jsonInput := `{"kind": "drop_all_tables"}`

	var step PlanStep
	err := json.Unmarshal([]byte(jsonInput), &step)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown plan step kind")
}

func TestPlanStep_UnmarshalEmptyKindFailsClosed(t *testing.T) {
	var step PlanStep
	err := json.Unmarshal([]byte(`{"target_stage": "applied"}`), &step)
	require.Error(t, err)
}

func TestDecisionPlan_UnmarshalRejectsUnknownStep(t *testing.T) {
	jsonInput := `{
		"decision": "apply",
		"plan": [
			{"kind": "set_pipeline_stage", "target_stage": "applied"},
			{"kind": "send_email"}
		],
		"evidence": ["thank you for applying"]
	}`

	var plan DecisionPlan
	err := json.Unmarshal([]byte(jsonInput), &plan)
	require.Error(t, err)
}

func TestStepKind_Valid(t *testing.T) {
	for _, kind := range KnownStepKinds() {
		assert.True(t, kind.Valid(), "expected %s to be valid", kind)
	}
	assert.False(t, StepKind("").Valid())
	assert.False(t, StepKind("run_status_processor ").Valid())
}

func TestNoopPlan(t *testing.T) {
	plan := NoopPlan()
	assert.Equal(t, DecisionNoop, plan.Decision)
	assert.Empty(t, plan.Plan)
	assert.Empty(t, plan.Evidence)
	assert.False(t, plan.Actionable())

	// A noop plan must serialize with explicit empty collections, never null
	jsonBytes, err := json.Marshal(plan)
	require.NoError(t, err)
	assert.Contains(t, string(jsonBytes), `"plan":[]`)
	assert.Contains(t, string(jsonBytes), `"evidence":[]`)
}

func TestDecisionPlan_Actionable(t *testing.T) {
	plan := &DecisionPlan{
		Decision: DecisionApply,
		Plan:     []PlanStep{{Kind: StepRunStatusProcessor, TargetStatus: StatusOfferReceived}},
		Evidence: []string{"pleased to extend an offer"},
	}
	assert.True(t, plan.Actionable())

	review := &DecisionPlan{Decision: DecisionNeedsReview, Plan: plan.Plan, Evidence: plan.Evidence}
	assert.False(t, review.Actionable())
}

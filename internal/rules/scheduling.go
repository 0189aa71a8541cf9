package rules

import "github.com/jonathan/inbox-tracker/internal/types"

// SchedulingRule handles interview scheduling traffic (invites and reminders
// included): an interview round is created or updated and the pipeline stage
// is synced from the round type.
type SchedulingRule struct{}

// Name implements Rule
func (SchedulingRule) Name() string { return "scheduling" }

// Priority implements Rule
func (SchedulingRule) Priority() int { return 40 }

// Applies implements Rule
func (r SchedulingRule) Applies(ctx *Context) bool {
	if !ctx.Matched() {
		return false
	}
	facts := ctx.Facts()
	if facts == nil {
		return false
	}
	return types.IsSchedulingKind(facts.Classification.Kind)
}

// Actions implements Rule
func (r SchedulingRule) Actions(ctx *Context) []Action {
	facts := ctx.Facts()
	evidence := ctx.Evidence()

	roundType := ""
	scheduledAt := ""
	if facts.Scheduling != nil {
		roundType = facts.Scheduling.RoundType
		// Confirmed time wins over a proposal
		scheduledAt = facts.Scheduling.ConfirmedTime
		if scheduledAt == "" {
			scheduledAt = facts.Scheduling.ProposedTime
		}
	}

	return []Action{
		{
			Kind:        ActionProcessInterviewRound,
			RoundType:   roundType,
			ScheduledAt: scheduledAt,
			Evidence:    evidence,
		},
		{
			Kind:      ActionSyncPipelineFromRound,
			RoundType: roundType,
			Evidence:  evidence,
		},
	}
}

package rules

import "github.com/jonathan/inbox-tracker/internal/types"

// RoundFeedbackRule handles round outcome emails: the round's feedback is
// recorded and the application is synced from the round result.
type RoundFeedbackRule struct{}

// Name implements Rule
func (RoundFeedbackRule) Name() string { return "round_feedback" }

// Priority implements Rule
func (RoundFeedbackRule) Priority() int { return 70 }

// Applies implements Rule
func (r RoundFeedbackRule) Applies(ctx *Context) bool {
	if !ctx.Matched() {
		return false
	}
	facts := ctx.Facts()
	if facts == nil {
		return false
	}
	return facts.RoundFeedback != nil || facts.Classification.Kind == types.KindRoundFeedback
}

// Actions implements Rule
func (r RoundFeedbackRule) Actions(ctx *Context) []Action {
	facts := ctx.Facts()
	evidence := ctx.Evidence()

	outcome := ""
	roundType := ""
	if facts.RoundFeedback != nil {
		outcome = facts.RoundFeedback.Outcome
		roundType = facts.RoundFeedback.RoundType
	}

	return []Action{
		{
			Kind:      ActionProcessRoundFeedback,
			Outcome:   outcome,
			RoundType: roundType,
			Evidence:  evidence,
		},
		{
			Kind:     ActionSyncAppFromRound,
			Outcome:  outcome,
			Evidence: evidence,
		},
	}
}

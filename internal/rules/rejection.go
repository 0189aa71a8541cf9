package rules

import "github.com/jonathan/inbox-tracker/internal/types"

// RejectionRule handles rejection emails: the application status moves to
// rejected and the latest pending round is marked failed.
type RejectionRule struct{}

// Name implements Rule
func (RejectionRule) Name() string { return "rejection" }

// Priority implements Rule
func (RejectionRule) Priority() int { return 100 }

// Applies implements Rule
func (r RejectionRule) Applies(ctx *Context) bool {
	if !ctx.Matched() {
		return false
	}
	facts := ctx.Facts()
	if facts == nil {
		return false
	}
	if facts.Classification.Kind == types.KindRejection {
		return true
	}
	return facts.StatusChange != nil && facts.StatusChange.NewStatus == types.StatusRejected
}

// Actions implements Rule
func (r RejectionRule) Actions(ctx *Context) []Action {
	evidence := ctx.Evidence()
	return []Action{
		{
			Kind:         ActionProcessStatus,
			TargetStatus: types.StatusRejected,
			Evidence:     evidence,
		},
		{
			Kind:     ActionMarkLatestRoundFailed,
			Evidence: evidence,
		},
	}
}

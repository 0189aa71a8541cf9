package rules

import "github.com/jonathan/inbox-tracker/internal/types"

// ConfirmationRule handles application confirmation receipts: the pipeline
// stage is set to applied.
type ConfirmationRule struct{}

// Name implements Rule
func (ConfirmationRule) Name() string { return "application_confirmation" }

// Priority implements Rule
func (ConfirmationRule) Priority() int { return 20 }

// Applies implements Rule
func (r ConfirmationRule) Applies(ctx *Context) bool {
	if !ctx.Matched() {
		return false
	}
	return ctx.Kind() == types.KindApplicationConfirmation
}

// Actions implements Rule
func (r ConfirmationRule) Actions(ctx *Context) []Action {
	return []Action{
		{
			Kind:        ActionSetPipelineStage,
			TargetStage: types.StageApplied,
			Evidence:    ctx.Evidence(),
		},
	}
}

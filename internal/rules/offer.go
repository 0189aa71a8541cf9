package rules

import "github.com/jonathan/inbox-tracker/internal/types"

// OfferRule handles offer emails: the application status moves to
// offer_received.
type OfferRule struct{}

// Name implements Rule
func (OfferRule) Name() string { return "offer" }

// Priority implements Rule
func (OfferRule) Priority() int { return 80 }

// Applies implements Rule
func (r OfferRule) Applies(ctx *Context) bool {
	if !ctx.Matched() {
		return false
	}
	facts := ctx.Facts()
	if facts == nil {
		return false
	}
	if facts.Classification.Kind == types.KindOffer {
		return true
	}
	return facts.StatusChange != nil && facts.StatusChange.NewStatus == types.StatusOfferReceived
}

// Actions implements Rule
func (r OfferRule) Actions(ctx *Context) []Action {
	return []Action{
		{
			Kind:         ActionProcessStatus,
			TargetStatus: types.StatusOfferReceived,
			Evidence:     ctx.Evidence(),
		},
	}
}

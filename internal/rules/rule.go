// Package rules implements the priority-ordered policies that map a
// DecisionInput-derived context to abstract actions. Rules are stateless and
// independent; new rule types are added by registering a new implementation,
// never by branching inside the planner.
package rules

import "github.com/jonathan/inbox-tracker/internal/types"

// Context is the rule-facing view of one email's DecisionInput
type Context struct {
	Input *types.DecisionInput
}

// Facts returns the extracted facts, or nil when extraction failed
func (c *Context) Facts() *types.EmailFacts {
	if c == nil || c.Input == nil {
		return nil
	}
	return c.Input.Facts
}

// Matched reports whether the email resolved to a tracked application
func (c *Context) Matched() bool {
	return c != nil && c.Input != nil && c.Input.Match.Matched
}

// Kind returns the classification kind, or empty when facts are absent
func (c *Context) Kind() string {
	facts := c.Facts()
	if facts == nil {
		return ""
	}
	return facts.Classification.Kind
}

// Evidence returns the classification evidence strings
func (c *Context) Evidence() []string {
	facts := c.Facts()
	if facts == nil {
		return nil
	}
	return facts.Classification.Evidence
}

// ActionKind identifies an abstract action emitted by a rule. The planner
// translates these into DecisionPlan vocabulary steps.
type ActionKind string

// Abstract action kinds.
const (
	ActionProcessStatus         ActionKind = "process_status"
	ActionMarkLatestRoundFailed ActionKind = "mark_latest_round_failed"
	ActionProcessRoundFeedback  ActionKind = "process_round_feedback"
	ActionSyncAppFromRound      ActionKind = "sync_application_from_round"
	ActionProcessInterviewRound ActionKind = "process_interview_round"
	ActionSyncPipelineFromRound ActionKind = "sync_pipeline_from_round"
	ActionSetPipelineStage      ActionKind = "set_pipeline_stage"
)

// Action is one abstract action with the parameters its eventual plan step
// will need, plus the evidence that justified it.
type Action struct {
	Kind         ActionKind
	TargetStatus string
	TargetStage  string
	RoundType    string
	Outcome      string
	ScheduledAt  string // RFC3339
	Evidence     []string
}

// Rule is a named, statically prioritized policy. Applies and Actions must
// not depend on other rules beyond the declared priority.
type Rule interface {
	Name() string
	Priority() int
	Applies(ctx *Context) bool
	Actions(ctx *Context) []Action
}

// DefaultRules returns the built-in rule set in registration order.
// Registration order breaks priority ties during planning.
func DefaultRules() []Rule {
	return []Rule{
		RejectionRule{},
		OfferRule{},
		RoundFeedbackRule{},
		SchedulingRule{},
		ConfirmationRule{},
	}
}

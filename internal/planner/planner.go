// Package planner orchestrates rule evaluation and translates the merged
// abstract actions into a validated DecisionPlan.
package planner

import (
	"fmt"
	"sort"
	"time"

	"github.com/jonathan/inbox-tracker/internal/rules"
	"github.com/jonathan/inbox-tracker/internal/schemas"
	"github.com/jonathan/inbox-tracker/internal/types"
)

// scheduleWindow is the tolerance around a scheduled time when a step targets
// "the round scheduled around this time".
const scheduleWindow = 24 * time.Hour

// ErrorReporter receives planner and rule faults for observability. Reported
// faults never abort planning.
type ErrorReporter func(err error)

// Planner derives DecisionPlans from DecisionInputs
type Planner struct {
	rules  []rules.Rule
	report ErrorReporter
}

// New creates a Planner over a rule set. Registration order of equal-priority
// rules is preserved during evaluation.
func New(ruleSet []rules.Rule, report ErrorReporter) *Planner {
	return &Planner{rules: ruleSet, report: report}
}

// Default creates a Planner over the built-in rule set
func Default(report ErrorReporter) *Planner {
	return New(rules.DefaultRules(), report)
}

func (p *Planner) reportErr(err error) {
	if p.report != nil {
		p.report(err)
	}
}

// Plan evaluates every registered rule against the input and merges the
// applicable rules' actions, ordered by descending priority, into one
// DecisionPlan. If no rule applies the result is an explicit noop plan. A
// whole-pass fault also degrades to noop: planning failures must mean "do
// nothing", never propagate unmapped actions.
func (p *Planner) Plan(input *types.DecisionInput) (plan *types.DecisionPlan) {
	defer func() {
		if rec := recover(); rec != nil {
			p.reportErr(fmt.Errorf("planner fault: %v", rec))
			plan = types.NoopPlan()
		}
	}()

	if input == nil || input.Facts == nil {
		return types.NoopPlan()
	}

	ctx := &rules.Context{Input: input}
	faultReport := func(rule, phase string, err error) {
		p.reportErr(fmt.Errorf("rule %s failed during %s: %w", rule, phase, err))
	}

	// Collect applicable rules, keeping registration order for stable ties
	type candidate struct {
		rule  rules.Rule
		index int
	}
	var applicable []candidate
	for i, rule := range p.rules {
		if rules.GuardedApplies(rule, ctx, faultReport) {
			applicable = append(applicable, candidate{rule: rule, index: i})
		}
	}

	sort.SliceStable(applicable, func(i, j int) bool {
		return applicable[i].rule.Priority() > applicable[j].rule.Priority()
	})

	var actions []rules.Action
	for _, c := range applicable {
		actions = append(actions, rules.GuardedActions(c.rule, ctx, faultReport)...)
	}

	plan = translate(actions)

	// The planner's own output must honor the closed contract; an invalid
	// plan degrades to noop rather than reaching the executor.
	if err := schemas.Validate(schemas.ContractDecisionPlan, plan); err != nil {
		p.reportErr(fmt.Errorf("planner produced invalid plan: %w", err))
		return types.NoopPlan()
	}
	return plan
}

// translate maps abstract actions into vocabulary steps and assembles the
// plan-level evidence. Redundant steps are kept: deduplication of redundant
// database effects is the executor's job.
func translate(actions []rules.Action) *types.DecisionPlan {
	plan := types.NoopPlan()

	seenEvidence := make(map[string]bool)
	for _, action := range actions {
		step, precondition, ok := translateAction(action)
		if !ok {
			continue
		}
		plan.Plan = append(plan.Plan, step)
		if precondition != "" {
			plan.Preconditions = append(plan.Preconditions, precondition)
		}
		for _, ev := range action.Evidence {
			if ev != "" && !seenEvidence[ev] {
				seenEvidence[ev] = true
				plan.Evidence = append(plan.Evidence, ev)
			}
		}
	}

	if len(plan.Plan) > 0 {
		plan.Decision = types.DecisionApply
	}
	return plan
}

// translateAction maps one abstract action to a plan step plus the free-text
// precondition the executor must re-check
func translateAction(action rules.Action) (types.PlanStep, string, bool) {
	switch action.Kind {
	case rules.ActionProcessStatus:
		return types.PlanStep{
				Kind:         types.StepRunStatusProcessor,
				TargetStatus: action.TargetStatus,
				Evidence:     action.Evidence,
			},
			fmt.Sprintf("application status transition to %s must be legal from current state", action.TargetStatus),
			true

	case rules.ActionMarkLatestRoundFailed:
		return types.PlanStep{
				Kind:          types.StepMarkLatestRoundFailed,
				RoundSelector: &types.RoundSelector{Kind: types.SelectLatestPending},
				Evidence:      action.Evidence,
			},
			"a single unresolved round must exist to mark failed",
			true

	case rules.ActionProcessRoundFeedback:
		return types.PlanStep{
				Kind:          types.StepRunRoundFeedbackProcessor,
				Outcome:       action.Outcome,
				RoundType:     action.RoundType,
				RoundSelector: &types.RoundSelector{Kind: types.SelectLatestPending},
				Evidence:      action.Evidence,
			},
			"the feedback's target round must resolve unambiguously",
			true

	case rules.ActionSyncAppFromRound:
		return types.PlanStep{
			Kind:     types.StepSyncApplicationFromRound,
			Outcome:  action.Outcome,
			Evidence: action.Evidence,
		}, "", true

	case rules.ActionProcessInterviewRound:
		step := types.PlanStep{
			Kind:        types.StepRunInterviewRoundProc,
			RoundType:   action.RoundType,
			ScheduledAt: action.ScheduledAt,
			Evidence:    action.Evidence,
		}
		if action.ScheduledAt != "" {
			if t, err := time.Parse(time.RFC3339, action.ScheduledAt); err == nil {
				step.RoundSelector = &types.RoundSelector{
					Kind:        types.SelectScheduledWithin,
					WindowStart: t.Add(-scheduleWindow).Format(time.RFC3339),
					WindowEnd:   t.Add(scheduleWindow).Format(time.RFC3339),
				}
			}
		}
		return step, "", true

	case rules.ActionSyncPipelineFromRound:
		return types.PlanStep{
			Kind:      types.StepSyncPipelineFromRound,
			RoundType: action.RoundType,
			Evidence:  action.Evidence,
		}, "pipeline stage may only move forward", true

	case rules.ActionSetPipelineStage:
		return types.PlanStep{
			Kind:        types.StepSetPipelineStage,
			TargetStage: action.TargetStage,
			Evidence:    action.Evidence,
		}, "pipeline stage may only move forward", true
	}

	// Unknown abstract action; dropping it here keeps the closed vocabulary
	// a type-level guarantee for internally constructed plans.
	return types.PlanStep{}, "", false
}

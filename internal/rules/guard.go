package rules

import "fmt"

// FaultReporter receives rule evaluation faults. Faults are reported, never
// propagated: a single faulty rule must not abort planning for the email.
type FaultReporter func(rule string, phase string, err error)

// GuardedApplies evaluates a rule's Applies under a recover guard. A fault is
// reported and treated as "does not apply".
func GuardedApplies(r Rule, ctx *Context, report FaultReporter) (applies bool) {
	defer func() {
		if rec := recover(); rec != nil {
			applies = false
			if report != nil {
				report(r.Name(), "applies", fmt.Errorf("rule panicked: %v", rec))
			}
		}
	}()
	return r.Applies(ctx)
}

// GuardedActions evaluates a rule's Actions under a recover guard. A fault is
// reported and treated as "no actions".
func GuardedActions(r Rule, ctx *Context, report FaultReporter) (actions []Action) {
	defer func() {
		if rec := recover(); rec != nil {
			actions = nil
			if report != nil {
				report(r.Name(), "actions", fmt.Errorf("rule panicked: %v", rec))
			}
		}
	}()
	return r.Actions(ctx)
}

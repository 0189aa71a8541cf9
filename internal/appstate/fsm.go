// Package appstate exposes the application aggregate's state-machine guard
// rules to the decisioning core. The aggregate owns these rules; the executor
// only consults them, immediately before each mutation, against current state.
package appstate

import "github.com/jonathan/inbox-tracker/internal/types"

// statusTransitions maps each status to the statuses it may legally move to
var statusTransitions = map[string][]string{
	types.StatusActive:        {types.StatusRejected, types.StatusOfferReceived, types.StatusClosed, types.StatusWithdrawn},
	types.StatusOfferReceived: {types.StatusClosed, types.StatusRejected, types.StatusWithdrawn},
	types.StatusRejected:      {},
	types.StatusClosed:        {},
	types.StatusWithdrawn:     {},
}

// stageOrder lists pipeline stages in progression order
var stageOrder = []string{
	types.StageApplied,
	types.StageScreening,
	types.StageInterviewing,
	types.StageOnsite,
	types.StageOffer,
}

// CanTransitionStatus reports whether a status transition is legal. Same-state
// transitions are legal no-ops so idempotent re-application stays safe.
func CanTransitionStatus(from, to string) bool {
	if from == to {
		return true
	}
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// StageIndex returns the position of a stage in the pipeline, or -1 if unknown
func StageIndex(stage string) int {
	for i, s := range stageOrder {
		if s == stage {
			return i
		}
	}
	return -1
}

// CanTransitionStage reports whether a pipeline stage change is legal. Stages
// only move forward; emails processed out of wall-clock order must not drag
// an application backwards.
func CanTransitionStage(from, to string) bool {
	fromIdx := StageIndex(from)
	toIdx := StageIndex(to)
	if fromIdx < 0 || toIdx < 0 {
		return false
	}
	return toIdx >= fromIdx
}

// NextStage returns the stage following the given one. The second return is
// false when the stage is unknown or already last.
func NextStage(stage string) (string, bool) {
	idx := StageIndex(stage)
	if idx < 0 || idx+1 >= len(stageOrder) {
		return "", false
	}
	return stageOrder[idx+1], true
}

// StageForRoundType maps an interview round type to the pipeline stage it
// implies, used when syncing the pipeline from a scheduled round.
func StageForRoundType(roundType string) string {
	switch roundType {
	case "phone_screen", "recruiter_screen":
		return types.StageScreening
	case "onsite", "final":
		return types.StageOnsite
	default:
		return types.StageInterviewing
	}
}

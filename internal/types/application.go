package types

// Application statuses owned by the external tracking aggregate. The core
// consumes them for planning and legality checks; it does not redefine the
// aggregate's state machine.
const (
	StatusActive        = "active"
	StatusRejected      = "rejected"
	StatusOfferReceived = "offer_received"
	StatusClosed        = "closed"
	StatusWithdrawn     = "withdrawn"
)

// Pipeline stages, in progression order.
const (
	StageApplied      = "applied"
	StageScreening    = "screening"
	StageInterviewing = "interviewing"
	StageOnsite       = "onsite"
	StageOffer        = "offer"
)

// Interview round statuses.
const (
	RoundPending   = "pending"
	RoundScheduled = "scheduled"
	RoundCompleted = "completed"
	RoundCancelled = "cancelled"
)

// Round outcomes.
const (
	OutcomePassed = "passed"
	OutcomeFailed = "failed"
	OutcomeMixed  = "mixed"
)

// TerminalStatuses returns the statuses from which no further transition is
// legal. Steps targeting these require confidence gating before execution.
func TerminalStatuses() []string {
	return []string{StatusRejected, StatusClosed, StatusWithdrawn}
}

// IsTerminalStatus reports whether status ends the application's lifecycle
func IsTerminalStatus(status string) bool {
	for _, s := range TerminalStatuses() {
		if s == status {
			return true
		}
	}
	return false
}

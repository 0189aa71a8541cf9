package types

import "github.com/google/uuid"

// MaxSnapshotRounds caps the recent-rounds list carried in an application
// snapshot so a DecisionInput payload stays bounded.
const MaxSnapshotRounds = 10

// DecisionInput is the immutable composition of everything the planner needs
// for one email: the canonical event, match resolution, a bounded snapshot of
// the matched application, and the extracted facts. It is built once per run
// and referenced by the source email's id for idempotency.
type DecisionInput struct {
	EmailID     uuid.UUID            `json:"email_id"`
	Event       EmailEvent           `json:"event"`
	Match       MatchResult          `json:"match"`
	Application *ApplicationSnapshot `json:"application"`
	Facts       *EmailFacts          `json:"facts"`
}

// EmailEvent is the canonical view of the email itself
type EmailEvent struct {
	Subject string   `json:"subject"`
	From    string   `json:"from"`
	To      string   `json:"to"`
	Body    string   `json:"body"` // canonical plain text
	Links   []string `json:"links,omitempty"`
}

// MatchResult records whether the email resolved to a tracked application.
// "No match" is a valid, representable state, not an error.
type MatchResult struct {
	Matched       bool       `json:"matched"`
	ApplicationID *uuid.UUID `json:"application_id,omitempty"`
}

// ApplicationSnapshot is a bounded, read-only view of the matched application
// at build time. Nil when the email is unmatched.
type ApplicationSnapshot struct {
	ID            uuid.UUID       `json:"id"`
	Company       string          `json:"company"`
	RoleTitle     string          `json:"role_title"`
	Status        string          `json:"status"`
	PipelineStage string          `json:"pipeline_stage"`
	Rounds        []RoundSnapshot `json:"rounds,omitempty"` // most recent first, capped
}

// RoundSnapshot is one interview round inside an application snapshot
type RoundSnapshot struct {
	ID          uuid.UUID `json:"id"`
	RoundType   string    `json:"round_type"`
	Status      string    `json:"status"` // pending, scheduled, completed, cancelled
	Outcome     string    `json:"outcome,omitempty"`
	ScheduledAt string    `json:"scheduled_at,omitempty"` // RFC3339
}

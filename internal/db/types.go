package db

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Email represents one stored inbound email. ExtractedData is the additive
// side-channel store keyed by stable version keys.
type Email struct {
	ID            uuid.UUID                  `json:"id"`
	Subject       string                     `json:"subject"`
	FromAddr      string                     `json:"from_addr"`
	ToAddr        string                     `json:"to_addr"`
	BodyHTML      string                     `json:"body_html,omitempty"`
	BodyText      string                     `json:"body_text,omitempty"`
	ApplicationID *uuid.UUID                 `json:"application_id,omitempty"`
	Processed     bool                       `json:"processed"`
	ExtractedData map[string]json.RawMessage `json:"extracted_data,omitempty"`
	ReceivedAt    time.Time                  `json:"received_at"`
}

// Application represents one tracked job application
type Application struct {
	ID            uuid.UUID `json:"id"`
	Company       string    `json:"company"`
	RoleTitle     string    `json:"role_title"`
	Status        string    `json:"status"`
	PipelineStage string    `json:"pipeline_stage"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// InterviewRound represents one interview round of an application
type InterviewRound struct {
	ID            uuid.UUID  `json:"id"`
	ApplicationID uuid.UUID  `json:"application_id"`
	RoundType     string     `json:"round_type"`
	Status        string     `json:"status"`
	Outcome       string     `json:"outcome,omitempty"`
	ScheduledAt   *time.Time `json:"scheduled_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Side-channel keys on an email's extracted-data store. Writes are always
// additive merges; unrelated keys are preserved untouched.
const (
	KeyEmailFacts      = "email_facts_v1"
	KeyDecisionInput   = "decision_input_v1"
	KeyDecisionPlan    = "decision_plan_v1"
	KeyDecisioningMeta = "decisioning_meta_v1"
)

// Step outcome classifications recorded in the audit ledger.
const (
	AuditApplied     = "applied"
	AuditSkipped     = "skipped"
	AuditNeedsReview = "needs_review"
	AuditError       = "error"
)

// StepAudit is one audit-trail record: what happened to one plan step of one
// email's execution.
type StepAudit struct {
	ID        uuid.UUID `json:"id"`
	EmailID   uuid.UUID `json:"email_id"`
	StepIndex int       `json:"step_index"`
	StepKind  string    `json:"step_kind"`
	Outcome   string    `json:"outcome"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

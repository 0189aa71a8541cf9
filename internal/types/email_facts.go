// Package types provides type definitions for the contracts shared across the
// email decisioning pipeline.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Classification kinds recognized by the EmailFacts contract.
const (
	KindStatusUpdate            = "status_update"
	KindScheduling              = "scheduling"
	KindInterviewInvite         = "interview_invite"
	KindInterviewReminder       = "interview_reminder"
	KindRoundFeedback           = "round_feedback"
	KindApplicationConfirmation = "application_confirmation"
	KindRejection               = "rejection"
	KindOffer                   = "offer"
	KindOther                   = "other"
)

// EmailFacts is the structured, schema-validated interpretation of one email.
// Evidence strings are expected to be literal substrings of the canonical
// email body; that is checked at the execution boundary, not at parse time,
// because raw provider output may omit or fabricate spans.
type EmailFacts struct {
	Classification Classification      `json:"classification"`
	Entities       *Entities           `json:"entities,omitempty"`
	ActionLinks    []ActionLink        `json:"action_links,omitempty"`
	KeyInsights    []string            `json:"key_insights,omitempty"`
	IsForwarded    bool                `json:"is_forwarded"`
	Scheduling     *SchedulingFacts    `json:"scheduling,omitempty"`
	RoundFeedback  *RoundFeedbackFacts `json:"round_feedback,omitempty"`
	StatusChange   *StatusChangeFacts  `json:"status_change,omitempty"`
}

// Classification holds the coarse intent of the email with supporting evidence
type Classification struct {
	Kind       string   `json:"kind"`
	Confidence float64  `json:"confidence"`
	Evidence   []string `json:"evidence"`
}

// Entities holds free-text identifiers extracted from the email
type Entities struct {
	Company   string `json:"company,omitempty"`
	Recruiter string `json:"recruiter,omitempty"`
	Role      string `json:"role,omitempty"`
}

// ActionLink is a link the email asks the candidate to act on
type ActionLink struct {
	URL      string `json:"url"`
	Label    string `json:"label,omitempty"`
	Priority int    `json:"priority,omitempty"`
}

// SchedulingFacts captures interview scheduling details when present
type SchedulingFacts struct {
	ProposedTime  string `json:"proposed_time,omitempty"`  // RFC3339
	ConfirmedTime string `json:"confirmed_time,omitempty"` // RFC3339
	RoundType     string `json:"round_type,omitempty"`
}

// RoundFeedbackFacts captures the outcome of a completed interview round
type RoundFeedbackFacts struct {
	Outcome   string `json:"outcome"` // passed, failed, mixed
	RoundType string `json:"round_type,omitempty"`
}

// StatusChangeFacts captures an explicit application status change
type StatusChangeFacts struct {
	NewStatus string `json:"new_status"`
}

// KnownKinds returns the closed set of classification kinds
func KnownKinds() []string {
	return []string{
		KindStatusUpdate,
		KindScheduling,
		KindInterviewInvite,
		KindInterviewReminder,
		KindRoundFeedback,
		KindApplicationConfirmation,
		KindRejection,
		KindOffer,
		KindOther,
	}
}

// IsSchedulingKind reports whether the classification kind describes interview
// scheduling traffic (invites and reminders included).
func IsSchedulingKind(kind string) bool {
	switch kind {
	case KindScheduling, KindInterviewInvite, KindInterviewReminder:
		return true
	}
	return false
}

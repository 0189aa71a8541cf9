// Package decision assembles the DecisionInput handed to the planner: the
// canonical email event, match resolution, a bounded application snapshot,
// and the extracted facts.
package decision

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/inbox-tracker/internal/canonical"
	"github.com/jonathan/inbox-tracker/internal/db"
	"github.com/jonathan/inbox-tracker/internal/types"
)

// ApplicationReader resolves the matched application and its recent rounds.
// Implemented by *db.DB.
type ApplicationReader interface {
	GetApplication(ctx context.Context, appID uuid.UUID) (*db.Application, error)
	ListRecentRounds(ctx context.Context, appID uuid.UUID, limit int) ([]db.InterviewRound, error)
}

// Builder constructs DecisionInputs from stored emails
type Builder struct {
	apps ApplicationReader
}

// NewBuilder creates a Builder backed by the given application reader
func NewBuilder(apps ApplicationReader) *Builder {
	return &Builder{apps: apps}
}

// Build composes the DecisionInput for one email. An absent match is a valid,
// representable state: the result has match.matched = false and a nil
// application snapshot. Errors are reserved for infrastructure failures.
func (b *Builder) Build(ctx context.Context, email *db.Email, facts *types.EmailFacts) (*types.DecisionInput, error) {
	if email == nil {
		return nil, fmt.Errorf("email is required")
	}

	event, err := buildEvent(email)
	if err != nil {
		return nil, fmt.Errorf("failed to build canonical event: %w", err)
	}

	input := &types.DecisionInput{
		EmailID: email.ID,
		Event:   event,
		Match:   types.MatchResult{Matched: false},
		Facts:   facts,
	}

	if email.ApplicationID == nil {
		return input, nil
	}

	app, err := b.apps.GetApplication(ctx, *email.ApplicationID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve matched application: %w", err)
	}
	if app == nil {
		// Dangling reference; treat as unmatched rather than failing the run.
		return input, nil
	}

	rounds, err := b.apps.ListRecentRounds(ctx, app.ID, types.MaxSnapshotRounds)
	if err != nil {
		return nil, fmt.Errorf("failed to load recent rounds: %w", err)
	}

	input.Match = types.MatchResult{Matched: true, ApplicationID: &app.ID}
	input.Application = snapshotApplication(app, rounds)
	return input, nil
}

// buildEvent derives the canonical event view of an email. The HTML body wins
// when present so evidence checks always run against the same canonical text.
func buildEvent(email *db.Email) (types.EmailEvent, error) {
	body, err := canonical.EmailBody(email.BodyHTML, email.BodyText)
	if err != nil {
		return types.EmailEvent{}, err
	}

	links := []string{}
	if email.BodyHTML != "" {
		extracted, err := canonical.Links(email.BodyHTML)
		if err != nil {
			return types.EmailEvent{}, err
		}
		links = extracted
	}

	return types.EmailEvent{
		Subject: email.Subject,
		From:    email.FromAddr,
		To:      email.ToAddr,
		Body:    body,
		Links:   links,
	}, nil
}

// snapshotApplication produces the bounded read-only snapshot used for planning
func snapshotApplication(app *db.Application, rounds []db.InterviewRound) *types.ApplicationSnapshot {
	snapshot := &types.ApplicationSnapshot{
		ID:            app.ID,
		Company:       app.Company,
		RoleTitle:     app.RoleTitle,
		Status:        app.Status,
		PipelineStage: app.PipelineStage,
	}

	if len(rounds) > types.MaxSnapshotRounds {
		rounds = rounds[:types.MaxSnapshotRounds]
	}
	for _, round := range rounds {
		rs := types.RoundSnapshot{
			ID:        round.ID,
			RoundType: round.RoundType,
			Status:    round.Status,
			Outcome:   round.Outcome,
		}
		if round.ScheduledAt != nil {
			rs.ScheduledAt = round.ScheduledAt.Format(time.RFC3339)
		}
		snapshot.Rounds = append(snapshot.Rounds, rs)
	}
	return snapshot
}

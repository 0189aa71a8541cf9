package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GetApplication retrieves an application by id, or nil when it does not exist
func (db *DB) GetApplication(ctx context.Context, appID uuid.UUID) (*Application, error) {
	var app Application
	err := db.pool.QueryRow(ctx,
		`SELECT id, company, role_title, status, pipeline_stage, created_at, updated_at
		 FROM applications WHERE id = $1`,
		appID,
	).Scan(&app.ID, &app.Company, &app.RoleTitle, &app.Status, &app.PipelineStage,
		&app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return &app, nil
}

// ListRecentRounds retrieves an application's most recent interview rounds,
// newest first, capped at limit
func (db *DB) ListRecentRounds(ctx context.Context, appID uuid.UUID, limit int) ([]InterviewRound, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, application_id, round_type, status, COALESCE(outcome, ''),
		        scheduled_at, created_at
		 FROM interview_rounds WHERE application_id = $1
		 ORDER BY created_at DESC LIMIT $2`,
		appID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list rounds: %w", err)
	}
	defer rows.Close()

	var rounds []InterviewRound
	for rows.Next() {
		var round InterviewRound
		if err := rows.Scan(&round.ID, &round.ApplicationID, &round.RoundType,
			&round.Status, &round.Outcome, &round.ScheduledAt, &round.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan round: %w", err)
		}
		rounds = append(rounds, round)
	}
	return rounds, nil
}

// UpdateApplicationStatus sets the application's status
func (db *DB) UpdateApplicationStatus(ctx context.Context, appID uuid.UUID, status string) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE applications SET status = $2, updated_at = NOW() WHERE id = $1`,
		appID, status,
	)
	if err != nil {
		return fmt.Errorf("failed to update application status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("application not found: %s", appID)
	}
	return nil
}

// SetPipelineStage sets the application's pipeline stage
func (db *DB) SetPipelineStage(ctx context.Context, appID uuid.UUID, stage string) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE applications SET pipeline_stage = $2, updated_at = NOW() WHERE id = $1`,
		appID, stage,
	)
	if err != nil {
		return fmt.Errorf("failed to set pipeline stage: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("application not found: %s", appID)
	}
	return nil
}

// UpdateRoundOutcome records an outcome on a round and marks it completed
func (db *DB) UpdateRoundOutcome(ctx context.Context, roundID uuid.UUID, outcome string) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE interview_rounds SET outcome = $2, status = 'completed' WHERE id = $1`,
		roundID, outcome,
	)
	if err != nil {
		return fmt.Errorf("failed to update round outcome: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("round not found: %s", roundID)
	}
	return nil
}

// CreateInterviewRound inserts a new round for an application
func (db *DB) CreateInterviewRound(ctx context.Context, appID uuid.UUID, roundType, status string, scheduledAt *time.Time) (uuid.UUID, error) {
	var id uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO interview_rounds (application_id, round_type, status, scheduled_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		appID, nullIfEmpty(roundType), status, scheduledAt,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create interview round: %w", err)
	}
	return id, nil
}

// UpdateRoundSchedule updates a round's scheduled time and marks it scheduled
func (db *DB) UpdateRoundSchedule(ctx context.Context, roundID uuid.UUID, scheduledAt time.Time) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE interview_rounds SET scheduled_at = $2, status = 'scheduled' WHERE id = $1`,
		roundID, scheduledAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update round schedule: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("round not found: %s", roundID)
	}
	return nil
}

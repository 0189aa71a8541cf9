package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// PlanApplied reports whether a plan application has already been recorded
// for an email. This is the durable idempotency check: runs may be retried by
// an external scheduler, so the guard cannot live in process memory.
func (db *DB) PlanApplied(ctx context.Context, emailID uuid.UUID) (bool, error) {
	var applied bool
	err := db.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM decision_ledger WHERE email_id = $1)`,
		emailID,
	).Scan(&applied)
	if err != nil {
		return false, fmt.Errorf("failed to check decision ledger: %w", err)
	}
	return applied, nil
}

// RecordPlanApplied marks an email's plan as applied. The insert is
// conflict-free on replay so two concurrent executions cannot both treat
// themselves as first.
func (db *DB) RecordPlanApplied(ctx context.Context, emailID uuid.UUID, decision string) (bool, error) {
	result, err := db.pool.Exec(ctx,
		`INSERT INTO decision_ledger (email_id, decision)
		 VALUES ($1, $2)
		 ON CONFLICT (email_id) DO NOTHING`,
		emailID, decision,
	)
	if err != nil {
		return false, fmt.Errorf("failed to record plan application: %w", err)
	}
	return result.RowsAffected() > 0, nil
}

// RecordStepAudit appends one step outcome to the audit trail
func (db *DB) RecordStepAudit(ctx context.Context, emailID uuid.UUID, stepIndex int, stepKind, outcome, reason string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO decision_step_audit (email_id, step_index, step_kind, outcome, reason)
		 VALUES ($1, $2, $3, $4, $5)`,
		emailID, stepIndex, stepKind, outcome, nullIfEmpty(reason),
	)
	if err != nil {
		return fmt.Errorf("failed to record step audit: %w", err)
	}
	return nil
}

// ListStepAudits retrieves the audit trail for one email, in step order
func (db *DB) ListStepAudits(ctx context.Context, emailID uuid.UUID) ([]StepAudit, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, email_id, step_index, step_kind, outcome, COALESCE(reason, ''), created_at
		 FROM decision_step_audit WHERE email_id = $1
		 ORDER BY step_index ASC, created_at ASC`,
		emailID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list step audits: %w", err)
	}
	defer rows.Close()

	var audits []StepAudit
	for rows.Next() {
		var audit StepAudit
		if err := rows.Scan(&audit.ID, &audit.EmailID, &audit.StepIndex, &audit.StepKind,
			&audit.Outcome, &audit.Reason, &audit.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan step audit: %w", err)
		}
		audits = append(audits, audit)
	}
	return audits, nil
}

// ListNeedsReview retrieves recent audit records flagged for human review
func (db *DB) ListNeedsReview(ctx context.Context, limit int) ([]StepAudit, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, email_id, step_index, step_kind, outcome, COALESCE(reason, ''), created_at
		 FROM decision_step_audit WHERE outcome = $1
		 ORDER BY created_at DESC LIMIT $2`,
		AuditNeedsReview, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list review queue: %w", err)
	}
	defer rows.Close()

	var audits []StepAudit
	for rows.Next() {
		var audit StepAudit
		if err := rows.Scan(&audit.ID, &audit.EmailID, &audit.StepIndex, &audit.StepKind,
			&audit.Outcome, &audit.Reason, &audit.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan step audit: %w", err)
		}
		audits = append(audits, audit)
	}
	return audits, nil
}

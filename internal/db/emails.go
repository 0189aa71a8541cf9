package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// GetEmail retrieves an email by id, or nil when it does not exist
func (db *DB) GetEmail(ctx context.Context, emailID uuid.UUID) (*Email, error) {
	var email Email
	var bodyHTML, bodyText *string
	var extracted []byte

	err := db.pool.QueryRow(ctx,
		`SELECT id, subject, from_addr, to_addr, body_html, body_text,
		        application_id, processed, extracted_data, received_at
		 FROM emails WHERE id = $1`,
		emailID,
	).Scan(&email.ID, &email.Subject, &email.FromAddr, &email.ToAddr,
		&bodyHTML, &bodyText, &email.ApplicationID, &email.Processed,
		&extracted, &email.ReceivedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get email: %w", err)
	}

	if bodyHTML != nil {
		email.BodyHTML = *bodyHTML
	}
	if bodyText != nil {
		email.BodyText = *bodyText
	}
	if len(extracted) > 0 {
		if err := json.Unmarshal(extracted, &email.ExtractedData); err != nil {
			return nil, fmt.Errorf("failed to decode extracted data: %w", err)
		}
	}

	return &email, nil
}

// ListPendingEmails retrieves unprocessed emails, oldest first
func (db *DB) ListPendingEmails(ctx context.Context, limit int) ([]Email, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.pool.Query(ctx,
		`SELECT id, subject, from_addr, to_addr, COALESCE(body_html, ''),
		        COALESCE(body_text, ''), application_id, processed, received_at
		 FROM emails WHERE NOT processed ORDER BY received_at ASC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending emails: %w", err)
	}
	defer rows.Close()

	var emails []Email
	for rows.Next() {
		var email Email
		if err := rows.Scan(&email.ID, &email.Subject, &email.FromAddr, &email.ToAddr,
			&email.BodyHTML, &email.BodyText, &email.ApplicationID,
			&email.Processed, &email.ReceivedAt); err != nil {
			return nil, fmt.Errorf("failed to scan email: %w", err)
		}
		emails = append(emails, email)
	}
	return emails, nil
}

// MarkEmailProcessed records that the pipeline finished with an email
func (db *DB) MarkEmailProcessed(ctx context.Context, emailID uuid.UUID) error {
	result, err := db.pool.Exec(ctx,
		`UPDATE emails SET processed = TRUE WHERE id = $1`, emailID)
	if err != nil {
		return fmt.Errorf("failed to mark email processed: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("email not found: %s", emailID)
	}
	return nil
}

// MergeExtracted stores a value under a stable key in the email's
// extracted-data side channel. The merge is additive: other keys already
// present are preserved, never replaced wholesale.
func (db *DB) MergeExtracted(ctx context.Context, emailID uuid.UUID, key string, value any) error {
	valueJSON, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal extracted value %s: %w", key, err)
	}

	patch, err := json.Marshal(map[string]json.RawMessage{key: valueJSON})
	if err != nil {
		return fmt.Errorf("failed to build extracted patch %s: %w", key, err)
	}

	result, err := db.pool.Exec(ctx,
		`UPDATE emails
		 SET extracted_data = COALESCE(extracted_data, '{}'::jsonb) || $2::jsonb
		 WHERE id = $1`,
		emailID, patch,
	)
	if err != nil {
		return fmt.Errorf("failed to merge extracted data %s: %w", key, err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("email not found: %s", emailID)
	}
	return nil
}

// GetExtracted retrieves one side-channel value by key, or nil when absent
func (db *DB) GetExtracted(ctx context.Context, emailID uuid.UUID, key string) (json.RawMessage, error) {
	var value []byte
	err := db.pool.QueryRow(ctx,
		`SELECT extracted_data -> $2 FROM emails WHERE id = $1`,
		emailID, key,
	).Scan(&value)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get extracted data %s: %w", key, err)
	}
	return value, nil
}

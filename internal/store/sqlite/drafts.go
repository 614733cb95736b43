package sqlite

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lu-zhengda/mailmirror/internal/domain"
)

// UpsertDrafts inserts or overwrites draft rows.
func (b *batchTx) UpsertDrafts(rows []domain.Draft) error {
	for _, d := range rows {
		recipients, err := json.Marshal(d.Recipients)
		if err != nil {
			return fmt.Errorf("failed to marshal recipients for draft %s: %w", d.ID, err)
		}
		_, err = b.tx.ExecContext(b.ctx, `
			INSERT INTO drafts (id, mailbox_id, recipients, subject, body_text, created_at, updated_at, is_deleted)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				mailbox_id = excluded.mailbox_id,
				recipients = excluded.recipients,
				subject    = excluded.subject,
				body_text  = excluded.body_text,
				created_at = excluded.created_at,
				updated_at = excluded.updated_at,
				is_deleted = excluded.is_deleted`,
			d.ID, d.MailboxID, string(recipients), d.Subject, d.Body,
			formatTime(d.CreatedAt), formatTime(d.UpdatedAt), d.IsDeleted,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert draft %s: %w", d.ID, err)
		}
	}
	return nil
}

// ListDrafts returns the active drafts of a mailbox, most recently
// edited first.
func (s *DB) ListDrafts(ctx context.Context, mailboxID string) ([]domain.Draft, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mailbox_id, recipients, subject, body_text, created_at, updated_at, is_deleted
		FROM drafts WHERE mailbox_id = ? AND is_deleted = 0 ORDER BY updated_at DESC`,
		mailboxID)
	if err != nil {
		return nil, fmt.Errorf("failed to list drafts: %w", err)
	}
	defer rows.Close()

	var drafts []domain.Draft
	for rows.Next() {
		var d domain.Draft
		var recipients, createdAt, updatedAt string
		if err := rows.Scan(&d.ID, &d.MailboxID, &recipients, &d.Subject, &d.Body, &createdAt, &updatedAt, &d.IsDeleted); err != nil {
			return nil, fmt.Errorf("failed to scan draft row: %w", err)
		}
		if err := json.Unmarshal([]byte(recipients), &d.Recipients); err != nil {
			return nil, fmt.Errorf("failed to unmarshal draft recipients: %w", err)
		}
		if d.CreatedAt, err = parseStoredTime(createdAt); err != nil {
			return nil, err
		}
		if d.UpdatedAt, err = parseStoredTime(updatedAt); err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate drafts: %w", err)
	}
	return drafts, nil
}

package sqlite

import (
	"context"
	"fmt"

	"github.com/lu-zhengda/mailmirror/internal/domain"
)

// UpsertCategories inserts or overwrites category rows.
func (b *batchTx) UpsertCategories(rows []domain.Category) error {
	for _, c := range rows {
		_, err := b.tx.ExecContext(b.ctx, `
			INSERT INTO categories (id, mailbox_id, name, color, created_at, is_deleted)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				mailbox_id = excluded.mailbox_id,
				name       = excluded.name,
				color      = excluded.color,
				created_at = excluded.created_at,
				is_deleted = excluded.is_deleted`,
			c.ID, c.MailboxID, c.Name, c.Color, formatTime(c.CreatedAt), c.IsDeleted,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert category %s: %w", c.ID, err)
		}
	}
	return nil
}

// ListCategories returns the active categories of a mailbox.
func (s *DB) ListCategories(ctx context.Context, mailboxID string) ([]domain.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mailbox_id, name, color, created_at, is_deleted
		FROM categories WHERE mailbox_id = ? AND is_deleted = 0 ORDER BY name`,
		mailboxID)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		var createdAt string
		if err := rows.Scan(&c.ID, &c.MailboxID, &c.Name, &c.Color, &createdAt, &c.IsDeleted); err != nil {
			return nil, fmt.Errorf("failed to scan category row: %w", err)
		}
		if c.CreatedAt, err = parseStoredTime(createdAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}
	return categories, nil
}

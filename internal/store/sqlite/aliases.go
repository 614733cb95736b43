package sqlite

import (
	"context"
	"fmt"

	"github.com/lu-zhengda/mailmirror/internal/domain"
)

// UpsertMailboxAliases inserts or overwrites permanent alias rows.
func (b *batchTx) UpsertMailboxAliases(rows []domain.MailboxAlias) error {
	for _, a := range rows {
		_, err := b.tx.ExecContext(b.ctx, `
			INSERT INTO mailbox_aliases (id, mailbox_id, address, created_at, is_deleted)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				mailbox_id = excluded.mailbox_id,
				address    = excluded.address,
				created_at = excluded.created_at,
				is_deleted = excluded.is_deleted`,
			a.ID, a.MailboxID, a.Address, formatTime(a.CreatedAt), a.IsDeleted,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert mailbox alias %s: %w", a.ID, err)
		}
	}
	return nil
}

// UpsertTempAliases inserts or overwrites temporary alias rows.
func (b *batchTx) UpsertTempAliases(rows []domain.TempAlias) error {
	for _, a := range rows {
		_, err := b.tx.ExecContext(b.ctx, `
			INSERT INTO temp_aliases (id, mailbox_id, address, expires_at, created_at, is_deleted)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				mailbox_id = excluded.mailbox_id,
				address    = excluded.address,
				expires_at = excluded.expires_at,
				created_at = excluded.created_at,
				is_deleted = excluded.is_deleted`,
			a.ID, a.MailboxID, a.Address, formatTime(a.ExpiresAt), formatTime(a.CreatedAt), a.IsDeleted,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert temp alias %s: %w", a.ID, err)
		}
	}
	return nil
}

// ListMailboxAliases returns the active permanent aliases of a mailbox.
func (s *DB) ListMailboxAliases(ctx context.Context, mailboxID string) ([]domain.MailboxAlias, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mailbox_id, address, created_at, is_deleted
		FROM mailbox_aliases WHERE mailbox_id = ? AND is_deleted = 0 ORDER BY address`,
		mailboxID)
	if err != nil {
		return nil, fmt.Errorf("failed to list mailbox aliases: %w", err)
	}
	defer rows.Close()

	var aliases []domain.MailboxAlias
	for rows.Next() {
		var a domain.MailboxAlias
		var createdAt string
		if err := rows.Scan(&a.ID, &a.MailboxID, &a.Address, &createdAt, &a.IsDeleted); err != nil {
			return nil, fmt.Errorf("failed to scan alias row: %w", err)
		}
		if a.CreatedAt, err = parseStoredTime(createdAt); err != nil {
			return nil, err
		}
		aliases = append(aliases, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate aliases: %w", err)
	}
	return aliases, nil
}

// ListTempAliases returns the active temporary aliases of a mailbox,
// including expired ones; expiry display is the caller's concern.
func (s *DB) ListTempAliases(ctx context.Context, mailboxID string) ([]domain.TempAlias, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mailbox_id, address, expires_at, created_at, is_deleted
		FROM temp_aliases WHERE mailbox_id = ? AND is_deleted = 0 ORDER BY expires_at DESC`,
		mailboxID)
	if err != nil {
		return nil, fmt.Errorf("failed to list temp aliases: %w", err)
	}
	defer rows.Close()

	var aliases []domain.TempAlias
	for rows.Next() {
		var a domain.TempAlias
		var expiresAt, createdAt string
		if err := rows.Scan(&a.ID, &a.MailboxID, &a.Address, &expiresAt, &createdAt, &a.IsDeleted); err != nil {
			return nil, fmt.Errorf("failed to scan temp alias row: %w", err)
		}
		if a.ExpiresAt, err = parseStoredTime(expiresAt); err != nil {
			return nil, err
		}
		if a.CreatedAt, err = parseStoredTime(createdAt); err != nil {
			return nil, err
		}
		aliases = append(aliases, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate temp aliases: %w", err)
	}
	return aliases, nil
}

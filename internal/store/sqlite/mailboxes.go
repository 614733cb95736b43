package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lu-zhengda/mailmirror/internal/domain"
)

// UpsertUsers inserts or overwrites user rows. The mirror normally
// holds exactly one.
func (b *batchTx) UpsertUsers(rows []domain.User) error {
	for _, u := range rows {
		_, err := b.tx.ExecContext(b.ctx, `
			INSERT INTO users (id, email, name, created_at, is_deleted)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				email      = excluded.email,
				name       = excluded.name,
				created_at = excluded.created_at,
				is_deleted = excluded.is_deleted`,
			u.ID, u.Email, u.Name, formatTime(u.CreatedAt), u.IsDeleted,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert user %s: %w", u.ID, err)
		}
	}
	return nil
}

// UpsertMailboxes inserts or overwrites mailbox rows.
func (b *batchTx) UpsertMailboxes(rows []domain.Mailbox) error {
	for _, m := range rows {
		_, err := b.tx.ExecContext(b.ctx, `
			INSERT INTO mailboxes (id, address, plan, created_at, is_deleted)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				address    = excluded.address,
				plan       = excluded.plan,
				created_at = excluded.created_at,
				is_deleted = excluded.is_deleted`,
			m.ID, m.Address, m.Plan, formatTime(m.CreatedAt), m.IsDeleted,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert mailbox %s: %w", m.ID, err)
		}
	}
	return nil
}

// UpsertMailboxUsers inserts or overwrites mailbox membership rows,
// keyed by (mailbox, user).
func (b *batchTx) UpsertMailboxUsers(rows []domain.MailboxUser) error {
	for _, mu := range rows {
		_, err := b.tx.ExecContext(b.ctx, `
			INSERT INTO mailbox_users (mailbox_id, user_id, role, created_at, is_deleted)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(mailbox_id, user_id) DO UPDATE SET
				role       = excluded.role,
				created_at = excluded.created_at,
				is_deleted = excluded.is_deleted`,
			mu.MailboxID, mu.UserID, mu.Role, formatTime(mu.CreatedAt), mu.IsDeleted,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert mailbox user %s/%s: %w", mu.MailboxID, mu.UserID, err)
		}
	}
	return nil
}

// GetUser returns the mirrored user row, or nil when none exists yet.
func (s *DB) GetUser(ctx context.Context) (*domain.User, error) {
	var u domain.User
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, created_at, is_deleted FROM users WHERE is_deleted = 0 LIMIT 1`,
	).Scan(&u.ID, &u.Email, &u.Name, &createdAt, &u.IsDeleted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if u.CreatedAt, err = parseStoredTime(createdAt); err != nil {
		return nil, err
	}
	return &u, nil
}

// ListMailboxes returns all active mailboxes.
func (s *DB) ListMailboxes(ctx context.Context) ([]domain.Mailbox, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, address, plan, created_at, is_deleted FROM mailboxes WHERE is_deleted = 0 ORDER BY address`)
	if err != nil {
		return nil, fmt.Errorf("failed to list mailboxes: %w", err)
	}
	defer rows.Close()

	var mailboxes []domain.Mailbox
	for rows.Next() {
		var m domain.Mailbox
		var createdAt string
		if err := rows.Scan(&m.ID, &m.Address, &m.Plan, &createdAt, &m.IsDeleted); err != nil {
			return nil, fmt.Errorf("failed to scan mailbox row: %w", err)
		}
		if m.CreatedAt, err = parseStoredTime(createdAt); err != nil {
			return nil, err
		}
		mailboxes = append(mailboxes, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate mailboxes: %w", err)
	}
	return mailboxes, nil
}

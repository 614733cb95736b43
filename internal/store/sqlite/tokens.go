package sqlite

import (
	"context"
	"fmt"

	"github.com/lu-zhengda/mailmirror/internal/domain"
)

// UpsertTokens inserts or overwrites API token rows. Tokens only
// arrive on full (non-minimal) syncs.
func (b *batchTx) UpsertTokens(rows []domain.Token) error {
	for _, tk := range rows {
		_, err := b.tx.ExecContext(b.ctx, `
			INSERT INTO tokens (id, mailbox_id, name, created_at, is_deleted)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				mailbox_id = excluded.mailbox_id,
				name       = excluded.name,
				created_at = excluded.created_at,
				is_deleted = excluded.is_deleted`,
			tk.ID, tk.MailboxID, tk.Name, formatTime(tk.CreatedAt), tk.IsDeleted,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert token %s: %w", tk.ID, err)
		}
	}
	return nil
}

// UpsertCustomDomains inserts or overwrites custom domain rows.
func (b *batchTx) UpsertCustomDomains(rows []domain.CustomDomain) error {
	for _, cd := range rows {
		_, err := b.tx.ExecContext(b.ctx, `
			INSERT INTO custom_domains (id, mailbox_id, domain, verified, created_at, is_deleted)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				mailbox_id = excluded.mailbox_id,
				domain     = excluded.domain,
				verified   = excluded.verified,
				created_at = excluded.created_at,
				is_deleted = excluded.is_deleted`,
			cd.ID, cd.MailboxID, cd.Domain, cd.Verified, formatTime(cd.CreatedAt), cd.IsDeleted,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert custom domain %s: %w", cd.ID, err)
		}
	}
	return nil
}

// ListTokens returns the active API tokens of a mailbox.
func (s *DB) ListTokens(ctx context.Context, mailboxID string) ([]domain.Token, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mailbox_id, name, created_at, is_deleted
		FROM tokens WHERE mailbox_id = ? AND is_deleted = 0 ORDER BY name`,
		mailboxID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tokens: %w", err)
	}
	defer rows.Close()

	var tokens []domain.Token
	for rows.Next() {
		var tk domain.Token
		var createdAt string
		if err := rows.Scan(&tk.ID, &tk.MailboxID, &tk.Name, &createdAt, &tk.IsDeleted); err != nil {
			return nil, fmt.Errorf("failed to scan token row: %w", err)
		}
		if tk.CreatedAt, err = parseStoredTime(createdAt); err != nil {
			return nil, err
		}
		tokens = append(tokens, tk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tokens: %w", err)
	}
	return tokens, nil
}

// ListCustomDomains returns the active custom domains of a mailbox.
func (s *DB) ListCustomDomains(ctx context.Context, mailboxID string) ([]domain.CustomDomain, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, mailbox_id, domain, verified, created_at, is_deleted
		FROM custom_domains WHERE mailbox_id = ? AND is_deleted = 0 ORDER BY domain`,
		mailboxID)
	if err != nil {
		return nil, fmt.Errorf("failed to list custom domains: %w", err)
	}
	defer rows.Close()

	var domains []domain.CustomDomain
	for rows.Next() {
		var cd domain.CustomDomain
		var createdAt string
		if err := rows.Scan(&cd.ID, &cd.MailboxID, &cd.Domain, &cd.Verified, &createdAt, &cd.IsDeleted); err != nil {
			return nil, fmt.Errorf("failed to scan custom domain row: %w", err)
		}
		if cd.CreatedAt, err = parseStoredTime(createdAt); err != nil {
			return nil, err
		}
		domains = append(domains, cd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate custom domains: %w", err)
	}
	return domains, nil
}

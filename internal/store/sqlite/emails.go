package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lu-zhengda/mailmirror/internal/domain"
	"github.com/lu-zhengda/mailmirror/internal/store"
)

// UpsertEmails inserts or overwrites emails by primary key.
func (b *batchTx) UpsertEmails(rows []domain.Email) error {
	for i := range rows {
		e := &rows[i]

		recipients, err := json.Marshal(e.Recipients)
		if err != nil {
			return fmt.Errorf("failed to marshal recipients for %s: %w", e.ID, err)
		}
		attachments, err := json.Marshal(e.Attachments)
		if err != nil {
			return fmt.Errorf("failed to marshal attachments for %s: %w", e.ID, err)
		}

		_, err = b.tx.ExecContext(b.ctx, `
			INSERT INTO emails (id, mailbox_id, category_id, temp_alias_id, from_addr, from_name,
				recipients, subject, body_text, body_html, attachments,
				is_read, is_starred, created_at, updated_at, is_deleted)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				mailbox_id    = excluded.mailbox_id,
				category_id   = excluded.category_id,
				temp_alias_id = excluded.temp_alias_id,
				from_addr     = excluded.from_addr,
				from_name     = excluded.from_name,
				recipients    = excluded.recipients,
				subject       = excluded.subject,
				body_text     = excluded.body_text,
				body_html     = excluded.body_html,
				attachments   = excluded.attachments,
				is_read       = excluded.is_read,
				is_starred    = excluded.is_starred,
				created_at    = excluded.created_at,
				updated_at    = excluded.updated_at,
				is_deleted    = excluded.is_deleted`,
			e.ID, e.MailboxID, e.CategoryID, e.TempAliasID,
			e.From.Email, e.From.Name,
			string(recipients), e.Subject, e.Body, e.BodyHTML, string(attachments),
			e.IsRead, e.IsStarred,
			formatTime(e.CreatedAt), formatTime(e.UpdatedAt), e.IsDeleted,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert email %s: %w", e.ID, err)
		}
	}
	return nil
}

const emailColumns = `id, mailbox_id, category_id, temp_alias_id, from_addr, from_name,
	recipients, subject, body_text, body_html, attachments,
	is_read, is_starred, created_at, updated_at, is_deleted`

func scanEmail(scan func(dest ...any) error) (*domain.Email, error) {
	var e domain.Email
	var fromAddr, fromName string
	var recipients, attachments string
	var createdAt, updatedAt string

	if err := scan(
		&e.ID, &e.MailboxID, &e.CategoryID, &e.TempAliasID, &fromAddr, &fromName,
		&recipients, &e.Subject, &e.Body, &e.BodyHTML, &attachments,
		&e.IsRead, &e.IsStarred, &createdAt, &updatedAt, &e.IsDeleted,
	); err != nil {
		return nil, err
	}

	e.From = domain.Address{Name: fromName, Email: fromAddr}

	if err := json.Unmarshal([]byte(recipients), &e.Recipients); err != nil {
		return nil, fmt.Errorf("failed to unmarshal recipients: %w", err)
	}
	if err := json.Unmarshal([]byte(attachments), &e.Attachments); err != nil {
		return nil, fmt.Errorf("failed to unmarshal attachments: %w", err)
	}

	var err error
	if e.CreatedAt, err = parseStoredTime(createdAt); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseStoredTime(updatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}

// GetEmail retrieves a single email by ID, tombstoned or not.
func (s *DB) GetEmail(ctx context.Context, id string) (*domain.Email, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+emailColumns+` FROM emails WHERE id = ?`, id)
	e, err := scanEmail(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("email %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get email %s: %w", id, err)
	}
	return e, nil
}

// ListEmails returns emails for a mailbox, newest first. Tombstoned
// rows are excluded unless IncludeDeleted is set.
func (s *DB) ListEmails(ctx context.Context, opts store.ListEmailOptions) ([]domain.Email, error) {
	var conds []string
	var args []any

	if opts.MailboxID != "" {
		conds = append(conds, "mailbox_id = ?")
		args = append(args, opts.MailboxID)
	}
	if opts.CategoryID != "" {
		conds = append(conds, "category_id = ?")
		args = append(args, opts.CategoryID)
	}
	if opts.Starred {
		conds = append(conds, "is_starred = 1")
	}
	if opts.Unread {
		conds = append(conds, "is_read = 0")
	}
	if !opts.IncludeDeleted {
		conds = append(conds, "is_deleted = 0")
	}

	query := `SELECT ` + emailColumns + ` FROM emails`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	} else if opts.Offset > 0 {
		// SQLite only accepts OFFSET after a LIMIT clause; -1 means unbounded.
		query += " LIMIT -1"
	}
	if opts.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}
	defer rows.Close()

	var emails []domain.Email
	for rows.Next() {
		e, err := scanEmail(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan email row: %w", err)
		}
		emails = append(emails, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate emails: %w", err)
	}
	return emails, nil
}

// SetEmailFlags applies an optimistic local patch to a single email.
// Shares the serialized write path with sync application.
func (s *DB) SetEmailFlags(ctx context.Context, emailID string, patch domain.EmailPatch) error {
	if patch.Empty() {
		return nil
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	var sets []string
	var args []any
	if patch.IsRead != nil {
		sets = append(sets, "is_read = ?")
		args = append(args, *patch.IsRead)
	}
	if patch.IsStarred != nil {
		sets = append(sets, "is_starred = ?")
		args = append(args, *patch.IsStarred)
	}
	if patch.CategoryID != nil {
		sets = append(sets, "category_id = ?")
		args = append(args, *patch.CategoryID)
	}
	args = append(args, emailID)

	res, err := s.db.ExecContext(ctx,
		`UPDATE emails SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("failed to update email %s flags: %w", emailID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update of email %s: %w", emailID, err)
	}
	if n == 0 {
		return fmt.Errorf("email %s not found", emailID)
	}
	return nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lu-zhengda/mailmirror/internal/store"
)

// Cursor returns the last successfully applied sync watermark, or ""
// when no sync has ever completed.
func (s *DB) Cursor(ctx context.Context) (string, error) {
	var cursor string
	err := s.db.QueryRowContext(ctx, `SELECT last_sync FROM sync_cursor WHERE id = 1`).Scan(&cursor)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read sync cursor: %w", err)
	}
	return cursor, nil
}

// Stats reports the cursor and per-table row counts of the mirror.
func (s *DB) Stats(ctx context.Context) (*store.MirrorStats, error) {
	cursor, err := s.Cursor(ctx)
	if err != nil {
		return nil, err
	}
	stats := &store.MirrorStats{Cursor: cursor}

	counts := []struct {
		table string
		dest  *int
	}{
		{"users", &stats.Users},
		{"mailboxes", &stats.Mailboxes},
		{"mailbox_users", &stats.MailboxUsers},
		{"categories", &stats.Categories},
		{"emails", &stats.Emails},
		{"mailbox_aliases", &stats.Aliases},
		{"temp_aliases", &stats.TempAliases},
		{"drafts", &stats.Drafts},
		{"tokens", &stats.Tokens},
		{"custom_domains", &stats.CustomDomains},
	}
	for _, c := range counts {
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.table).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", c.table, err)
		}
	}
	return stats, nil
}

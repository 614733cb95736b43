package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lu-zhengda/mailmirror/internal/store"
)

// DB wraps a sql.DB connection to the SQLite mirror database.
//
// Writes are serialized through writeMu: the sync apply path and the
// optimistic mutation path never hold overlapping write transactions.
// Reads go straight to the connection pool; WAL isolation means readers
// observe either the pre-sync or the fully applied post-sync state.
type DB struct {
	db      *sql.DB
	writeMu sync.Mutex
}

// Open opens the SQLite database at the given DSN and applies any
// pending migrations. Use ":memory:" for an in-memory database.
// A failed migration aborts the open; the caller never sees a
// half-migrated store.
func Open(dsn string) (*DB, error) {
	connStr := dsn
	if dsn != ":memory:" {
		connStr = "file:" + dsn + "?_journal_mode=WAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dsn == ":memory:" {
		// One connection only, or each pooled connection would get its
		// own empty in-memory database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &DB{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// migrate applies every migration newer than the stored schema version,
// in order. Re-running against an up-to-date database is a no-op.
func (s *DB) migrate() error {
	current := 0

	var tableCount int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'schema_version'`,
	).Scan(&tableCount)
	if err != nil {
		return fmt.Errorf("failed to check schema_version table: %w", err)
	}
	if tableCount > 0 {
		if err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&current); err != nil {
			return fmt.Errorf("failed to read schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("failed to apply migration v%d: %w", m.version, err)
		}
	}
	return nil
}

// SchemaVersion returns the highest applied migration version.
func (s *DB) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	if err := s.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_version`).Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}

// Apply runs fn inside a single write transaction. Any error from fn or
// from commit rolls the whole batch back.
func (s *DB) Apply(ctx context.Context, fn func(tx store.BatchTx) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&batchTx{ctx: ctx, tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *DB) Close() error {
	return s.db.Close()
}

// batchTx implements store.BatchTx over a live sql.Tx.
type batchTx struct {
	ctx context.Context
	tx  *sql.Tx
}

// mirrorTables lists every table wiped by a full replace. The cursor
// row is not included: it is rewritten by the same batch via SetCursor.
var mirrorTables = []string{
	"users", "mailboxes", "mailbox_users", "categories", "emails",
	"mailbox_aliases", "temp_aliases", "drafts", "tokens", "custom_domains",
}

func (b *batchTx) Reset() error {
	for _, table := range mirrorTables {
		if _, err := b.tx.ExecContext(b.ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset table %s: %w", table, err)
		}
	}
	return nil
}

func (b *batchTx) SetCursor(cursor string) error {
	_, err := b.tx.ExecContext(b.ctx, `
		INSERT INTO sync_cursor (id, last_sync) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET last_sync = excluded.last_sync`,
		cursor,
	)
	if err != nil {
		return fmt.Errorf("failed to set sync cursor: %w", err)
	}
	return nil
}

var _ store.Store = (*DB)(nil)

// storedTimeFormat is RFC 3339 with fixed nanosecond width. Stored
// timestamps are compared lexicographically (ORDER BY created_at), so
// every value must have the same precision; RFC3339Nano drops trailing
// zeros and would sort whole seconds after fractional ones.
const storedTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// formatTime serializes a timestamp for storage. Zero times become the
// empty string so they round-trip without inventing an epoch.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(storedTimeFormat)
}

func parseStoredTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse stored time %q: %w", s, err)
	}
	return t, nil
}

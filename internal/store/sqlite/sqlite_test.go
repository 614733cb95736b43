package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/lu-zhengda/mailmirror/internal/domain"
	"github.com/lu-zhengda/mailmirror/internal/store"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpen_CreatesTables(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	rows, err := db.db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type='table' ORDER BY name")
	if err != nil {
		t.Fatalf("query sqlite_master error: %v", err)
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			t.Fatalf("scan error: %v", err)
		}
		tables = append(tables, name)
	}

	expected := []string{
		"categories", "custom_domains", "drafts", "emails",
		"mailbox_aliases", "mailbox_users", "mailboxes", "schema_version",
		"sync_cursor", "temp_aliases", "tokens", "users",
	}
	for _, exp := range expected {
		found := false
		for _, tbl := range tables {
			if tbl == exp {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected table %q not found in %v", exp, tables)
		}
	}
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mirror.db")

	db, err := Open(path)
	if err != nil {
		t.Fatalf("first Open() error: %v", err)
	}
	v1, err := db.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion() error: %v", err)
	}
	db.Close()

	db, err = Open(path)
	if err != nil {
		t.Fatalf("second Open() error: %v", err)
	}
	defer db.Close()

	v2, err := db.SchemaVersion(context.Background())
	if err != nil {
		t.Fatalf("SchemaVersion() error: %v", err)
	}
	if v1 != v2 {
		t.Errorf("schema version changed on reopen: %d -> %d", v1, v2)
	}
	if v2 != migrations[len(migrations)-1].version {
		t.Errorf("schema version = %d, want %d", v2, migrations[len(migrations)-1].version)
	}

	// A reopened store must still accept writes.
	err = db.Apply(context.Background(), func(tx store.BatchTx) error {
		return tx.UpsertMailboxes([]domain.Mailbox{{ID: "mb-1", Address: "me@example.com"}})
	})
	if err != nil {
		t.Fatalf("Apply() after reopen error: %v", err)
	}
}

func TestApply_RollsBackOnError(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.Apply(ctx, func(tx store.BatchTx) error {
		if err := tx.UpsertMailboxes([]domain.Mailbox{{ID: "mb-1", Address: "me@example.com"}}); err != nil {
			return err
		}
		return context.Canceled // arbitrary failure after a write
	})
	if err == nil {
		t.Fatal("Apply() should propagate fn error")
	}

	mailboxes, err := db.ListMailboxes(ctx)
	if err != nil {
		t.Fatalf("ListMailboxes() error: %v", err)
	}
	if len(mailboxes) != 0 {
		t.Errorf("mailboxes = %v, want rollback to empty", mailboxes)
	}
}

func TestReset_WipesMirrorTables(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.Apply(ctx, func(tx store.BatchTx) error {
		if err := tx.UpsertMailboxes([]domain.Mailbox{{ID: "mb-1", Address: "me@example.com"}}); err != nil {
			return err
		}
		if err := tx.UpsertEmails([]domain.Email{{ID: "em-1", MailboxID: "mb-1"}}); err != nil {
			return err
		}
		return tx.SetCursor("t1")
	})
	if err != nil {
		t.Fatalf("seed Apply() error: %v", err)
	}

	err = db.Apply(ctx, func(tx store.BatchTx) error {
		if err := tx.Reset(); err != nil {
			return err
		}
		return tx.SetCursor("t2")
	})
	if err != nil {
		t.Fatalf("reset Apply() error: %v", err)
	}

	stats, err := db.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stats.Mailboxes != 0 || stats.Emails != 0 {
		t.Errorf("stats after reset = %+v, want empty mirror", stats)
	}
	if stats.Cursor != "t2" {
		t.Errorf("cursor = %q, want %q", stats.Cursor, "t2")
	}
}

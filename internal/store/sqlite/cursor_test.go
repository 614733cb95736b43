package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/lu-zhengda/mailmirror/internal/domain"
	"github.com/lu-zhengda/mailmirror/internal/store"
)

func TestCursor_EmptyBeforeFirstSync(t *testing.T) {
	db := newTestDB(t)

	cursor, err := db.Cursor(context.Background())
	if err != nil {
		t.Fatalf("Cursor() error: %v", err)
	}
	if cursor != "" {
		t.Errorf("cursor = %q, want empty", cursor)
	}
}

func TestSetCursor_AdvancesWithBatch(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.Apply(ctx, func(tx store.BatchTx) error {
		if err := tx.UpsertEmails([]domain.Email{{ID: "em-1", MailboxID: "mb-1"}}); err != nil {
			return err
		}
		return tx.SetCursor("1718445000001")
	})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	cursor, err := db.Cursor(ctx)
	if err != nil {
		t.Fatalf("Cursor() error: %v", err)
	}
	if cursor != "1718445000001" {
		t.Errorf("cursor = %q, want %q", cursor, "1718445000001")
	}
}

func TestCursor_UnchangedWhenBatchFails(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.Apply(ctx, func(tx store.BatchTx) error {
		return tx.SetCursor("t1")
	})
	if err != nil {
		t.Fatalf("seed Apply() error: %v", err)
	}

	failure := errors.New("mid-batch failure")
	err = db.Apply(ctx, func(tx store.BatchTx) error {
		if err := tx.SetCursor("t2"); err != nil {
			return err
		}
		return failure
	})
	if !errors.Is(err, failure) {
		t.Fatalf("Apply() error = %v, want the injected failure", err)
	}

	cursor, err := db.Cursor(ctx)
	if err != nil {
		t.Fatalf("Cursor() error: %v", err)
	}
	if cursor != "t1" {
		t.Errorf("cursor = %q, want unchanged %q", cursor, "t1")
	}
}

func TestStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	err := db.Apply(ctx, func(tx store.BatchTx) error {
		if err := tx.UpsertUsers([]domain.User{{ID: "u-1", Email: "me@example.com"}}); err != nil {
			return err
		}
		if err := tx.UpsertMailboxes([]domain.Mailbox{{ID: "mb-1", Address: "me@example.com"}}); err != nil {
			return err
		}
		if err := tx.UpsertEmails([]domain.Email{{ID: "em-1", MailboxID: "mb-1"}, {ID: "em-2", MailboxID: "mb-1"}}); err != nil {
			return err
		}
		return tx.SetCursor("t1")
	})
	if err != nil {
		t.Fatalf("Apply() error: %v", err)
	}

	stats, err := db.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats() error: %v", err)
	}
	if stats.Users != 1 || stats.Mailboxes != 1 || stats.Emails != 2 {
		t.Errorf("stats = %+v, want 1 user, 1 mailbox, 2 emails", stats)
	}
	if stats.Cursor != "t1" {
		t.Errorf("cursor = %q, want %q", stats.Cursor, "t1")
	}
}

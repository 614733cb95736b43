package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/lu-zhengda/mailmirror/internal/api"
	"github.com/lu-zhengda/mailmirror/internal/store"
)

var errDiskFull = errors.New("disk full")

// failingStore lets every batch write through and then fails it, so
// the underlying transaction rolls back.
type failingStore struct {
	store.Store
}

func (f *failingStore) Apply(ctx context.Context, fn func(store.BatchTx) error) error {
	return f.Store.Apply(ctx, func(tx store.BatchTx) error {
		if err := fn(tx); err != nil {
			return err
		}
		return errDiskFull
	})
}

func TestSync_ApplyFailureRollsBackBatchAndCursor(t *testing.T) {
	s := newTestStore(t)
	seed := &fakeClient{changeSets: []*api.ChangeSet{{Emails: fixtureEmails(2), Cursor: "t1"}}}
	ctx := context.Background()
	if _, err := newTestEngine(t, s, seed, 0).Sync(ctx, Options{}); err != nil {
		t.Fatalf("seed Sync() error: %v", err)
	}

	client := &fakeClient{changeSets: []*api.ChangeSet{{
		Emails: fixtureEmails(5),
		Cursor: "t2",
	}}}
	e := New(&failingStore{Store: s}, client, &fakeAuth{}, 0, quietLogger())

	_, err := e.Sync(ctx, Options{})
	if err == nil {
		t.Fatal("expected apply failure")
	}
	if Classify(err) != FailureApply {
		t.Errorf("Classify(%v) != FailureApply", err)
	}
	if !errors.Is(err, errDiskFull) {
		t.Errorf("error %v should wrap the store failure", err)
	}

	// Whole batch rolled back: same rows, same cursor as before.
	emails, _ := s.ListEmails(ctx, store.ListEmailOptions{MailboxID: "mb-1"})
	if len(emails) != 2 {
		t.Errorf("emails = %d, want pre-failure 2", len(emails))
	}
	cursor, _ := s.Cursor(ctx)
	if cursor != "t1" {
		t.Errorf("cursor = %q, want unchanged t1", cursor)
	}
}

func TestApply_NoWatermarkSkipsCursorWrite(t *testing.T) {
	s := newTestStore(t)
	e := newTestEngine(t, s, &fakeClient{}, 0)
	ctx := context.Background()

	counts, advanced, err := e.apply(ctx, &api.ChangeSet{Emails: fixtureEmails(1)}, false)
	if err != nil {
		t.Fatalf("apply() error: %v", err)
	}
	if advanced {
		t.Error("cursor must not advance without a watermark")
	}
	if counts.Emails != 1 {
		t.Errorf("counts.Emails = %d, want 1", counts.Emails)
	}
	cursor, _ := s.Cursor(ctx)
	if cursor != "" {
		t.Errorf("cursor = %q, want still unset", cursor)
	}
}

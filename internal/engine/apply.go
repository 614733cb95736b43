package engine

import (
	"context"
	"fmt"

	"github.com/lu-zhengda/mailmirror/internal/api"
	"github.com/lu-zhengda/mailmirror/internal/store"
)

// ApplyError wraps a local store failure while applying a batch. The
// whole batch rolled back and the cursor is untouched, so retrying the
// same fetch+apply with the old cursor is safe.
type ApplyError struct {
	Err error
}

func (e *ApplyError) Error() string {
	return fmt.Sprintf("failed to apply change set: %v", e.Err)
}

func (e *ApplyError) Unwrap() error { return e.Err }

// apply writes a change set into the store as one atomic batch. When
// replace is set the mirrored tables are wiped first, inside the same
// transaction. The cursor row is written last and only when the server
// supplied a watermark; the returned bool reports whether it advanced.
func (e *Engine) apply(ctx context.Context, cs *api.ChangeSet, replace bool) (Counts, bool, error) {
	var counts Counts

	err := e.store.Apply(ctx, func(tx store.BatchTx) error {
		if replace {
			if err := tx.Reset(); err != nil {
				return err
			}
		}

		if err := tx.UpsertUsers(cs.Users); err != nil {
			return err
		}
		counts.Users = len(cs.Users)

		if err := tx.UpsertMailboxes(cs.Mailboxes); err != nil {
			return err
		}
		counts.Mailboxes = len(cs.Mailboxes)

		if err := tx.UpsertMailboxUsers(cs.MailboxUsers); err != nil {
			return err
		}
		counts.MailboxUsers = len(cs.MailboxUsers)

		if err := tx.UpsertCategories(cs.Categories); err != nil {
			return err
		}
		counts.Categories = len(cs.Categories)

		if err := tx.UpsertEmails(cs.Emails); err != nil {
			return err
		}
		counts.Emails = len(cs.Emails)

		if err := tx.UpsertMailboxAliases(cs.Aliases); err != nil {
			return err
		}
		counts.Aliases = len(cs.Aliases)

		if err := tx.UpsertTempAliases(cs.TempAliases); err != nil {
			return err
		}
		counts.TempAliases = len(cs.TempAliases)

		if err := tx.UpsertDrafts(cs.Drafts); err != nil {
			return err
		}
		counts.Drafts = len(cs.Drafts)

		if err := tx.UpsertTokens(cs.Tokens); err != nil {
			return err
		}
		counts.Tokens = len(cs.Tokens)

		if err := tx.UpsertCustomDomains(cs.CustomDomains); err != nil {
			return err
		}
		counts.CustomDomains = len(cs.CustomDomains)

		if cs.Cursor != "" {
			if err := tx.SetCursor(cs.Cursor); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Counts{}, false, &ApplyError{Err: err}
	}

	return counts, cs.Cursor != "", nil
}

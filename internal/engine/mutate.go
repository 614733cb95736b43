package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lu-zhengda/mailmirror/internal/api"
	"github.com/lu-zhengda/mailmirror/internal/domain"
)

// pushTimeout bounds the asynchronous forward of an optimistic
// mutation to the server.
const pushTimeout = 15 * time.Second

// MutateEmail writes the patch to the local mirror synchronously, so
// reads reflect it immediately, then forwards the same change to the
// server in the background. The push response is never applied back to
// the store: the next sync is the authority that reconciles the row.
// A failed push is logged and left for the next sync to correct.
func (e *Engine) MutateEmail(ctx context.Context, emailID string, patch domain.EmailPatch) error {
	if patch.Empty() {
		return nil
	}

	email, err := e.store.GetEmail(ctx, emailID)
	if err != nil {
		return fmt.Errorf("failed to load email for mutation: %w", err)
	}

	if err := e.store.SetEmailFlags(ctx, emailID, patch); err != nil {
		return fmt.Errorf("failed to apply local mutation: %w", err)
	}

	mut := api.EmailMutation{
		MutationID:  uuid.NewString(),
		ID:          emailID,
		MailboxID:   email.MailboxID,
		IsRead:      patch.IsRead,
		IsStarred:   patch.IsStarred,
		CategoryID:  patch.CategoryID,
		LastUpdated: api.NewMutationTimestamp(time.Now()),
	}

	e.pushWG.Add(1)
	go func() {
		defer e.pushWG.Done()
		pushCtx, cancel := context.WithTimeout(context.Background(), pushTimeout)
		defer cancel()
		if err := e.client.PushMutations(pushCtx, []api.EmailMutation{mut}); err != nil {
			e.logger.Printf("[sync] failed to push mutation %s for email %s: %v", mut.MutationID, emailID, err)
		}
	}()

	return nil
}

package api

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// FetchChanges requests all changes since cursor. An empty cursor asks
// the server for its complete current state (full resync). With
// minimal=true the server only returns the entities needed to render a
// basic list; the omitted collections come back empty.
func (c *Client) FetchChanges(ctx context.Context, cursor string, minimal bool) (*ChangeSet, error) {
	q := url.Values{}
	if minimal {
		q.Set("minimal", "true")
	}
	headers := map[string]string{}
	if cursor != "" {
		headers[headerLastSync] = cursor
	}

	var wire changeSetWire
	if err := c.do(ctx, http.MethodGet, "/v1/sync", q, headers, nil, &wire); err != nil {
		return nil, err
	}
	return wire.changeSet()
}

// EmailMutation is one entry in a mutation batch pushed to the server.
// Nil fields are not part of the change.
type EmailMutation struct {
	MutationID  string  `json:"mutationId"`
	ID          string  `json:"id"`
	MailboxID   string  `json:"mailboxId"`
	IsRead      *bool   `json:"isRead,omitempty"`
	IsStarred   *bool   `json:"isStarred,omitempty"`
	CategoryID  *string `json:"categoryId,omitempty"`
	LastUpdated string  `json:"lastUpdated"`
}

// NewMutationTimestamp formats a client-stamped last-updated time the
// way the mutation endpoint expects it.
func NewMutationTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// PushMutations forwards a batch of optimistic local changes to the
// server. The response is discarded: the next sync is the authority
// that reconciles the mirrored rows.
func (c *Client) PushMutations(ctx context.Context, muts []EmailMutation) error {
	if len(muts) == 0 {
		return nil
	}
	body := struct {
		Mutations []EmailMutation `json:"mutations"`
	}{Mutations: muts}
	return c.do(ctx, http.MethodPost, "/v1/emails/mutate", nil, nil, body, nil)
}

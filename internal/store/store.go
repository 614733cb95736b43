package store

import (
	"context"

	"github.com/lu-zhengda/mailmirror/internal/domain"
)

// Store is the persistence contract for the local mirror. The SQLite
// implementation lives in store/sqlite; a browser-target implementation
// only needs to satisfy this interface.
type Store interface {
	// Apply runs fn inside a single all-or-nothing write transaction.
	// Every write issued through the BatchTx commits together or not
	// at all; the sync cursor only ever advances from inside Apply.
	Apply(ctx context.Context, fn func(tx BatchTx) error) error

	// Cursor returns the last successfully applied sync watermark, or
	// "" when no sync has ever completed.
	Cursor(ctx context.Context) (string, error)

	// SetEmailFlags writes an optimistic local change to a single
	// email. It shares the serialized write path with Apply.
	SetEmailFlags(ctx context.Context, emailID string, patch domain.EmailPatch) error

	// Reads. "Active" queries exclude tombstoned rows.
	GetUser(ctx context.Context) (*domain.User, error)
	ListMailboxes(ctx context.Context) ([]domain.Mailbox, error)
	ListEmails(ctx context.Context, opts ListEmailOptions) ([]domain.Email, error)
	GetEmail(ctx context.Context, id string) (*domain.Email, error)
	ListCategories(ctx context.Context, mailboxID string) ([]domain.Category, error)
	ListMailboxAliases(ctx context.Context, mailboxID string) ([]domain.MailboxAlias, error)
	ListTempAliases(ctx context.Context, mailboxID string) ([]domain.TempAlias, error)
	ListDrafts(ctx context.Context, mailboxID string) ([]domain.Draft, error)
	ListTokens(ctx context.Context, mailboxID string) ([]domain.Token, error)
	ListCustomDomains(ctx context.Context, mailboxID string) ([]domain.CustomDomain, error)

	// Stats reports row counts per mirrored table plus the cursor,
	// for the status command and sync observability.
	Stats(ctx context.Context) (*MirrorStats, error)

	Close() error
}

// BatchTx is the write surface available inside Store.Apply. Upserts
// overwrite all columns on primary-key conflict, so re-applying the
// same batch is idempotent. Rows may reference parents that arrive
// later in the same batch; the store does not enforce referential
// order.
type BatchTx interface {
	// Reset wipes every mirrored table (full-replace policy). The
	// cursor row is left to SetCursor in the same transaction.
	Reset() error

	UpsertUsers(rows []domain.User) error
	UpsertMailboxes(rows []domain.Mailbox) error
	UpsertMailboxUsers(rows []domain.MailboxUser) error
	UpsertCategories(rows []domain.Category) error
	UpsertEmails(rows []domain.Email) error
	UpsertMailboxAliases(rows []domain.MailboxAlias) error
	UpsertTempAliases(rows []domain.TempAlias) error
	UpsertDrafts(rows []domain.Draft) error
	UpsertTokens(rows []domain.Token) error
	UpsertCustomDomains(rows []domain.CustomDomain) error

	// SetCursor records the server watermark. Callers invoke it as the
	// last write of a batch, and only when the server supplied one.
	SetCursor(cursor string) error
}

// ListEmailOptions configures email listing queries.
type ListEmailOptions struct {
	MailboxID  string
	CategoryID string
	Starred    bool
	Unread     bool
	// IncludeDeleted also returns tombstoned rows.
	IncludeDeleted bool
	Limit          int
	Offset         int
}

// MirrorStats holds per-table row counts of the local mirror.
type MirrorStats struct {
	Cursor        string
	Users         int
	Mailboxes     int
	MailboxUsers  int
	Categories    int
	Emails        int
	Aliases       int
	TempAliases   int
	Drafts        int
	Tokens        int
	CustomDomains int
}

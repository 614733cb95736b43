package domain

import "time"

// Mailbox is a mail account container. All other mirrored entities hang
// off a mailbox by MailboxID.
type Mailbox struct {
	ID        string
	Address   string
	Plan      string
	CreatedAt time.Time
	IsDeleted bool
}

// MailboxUser grants a user access to a mailbox with a role.
type MailboxUser struct {
	MailboxID string
	UserID    string
	Role      string
	CreatedAt time.Time
	IsDeleted bool
}

// Category groups emails within a mailbox.
type Category struct {
	ID        string
	MailboxID string
	Name      string
	Color     string
	CreatedAt time.Time
	IsDeleted bool
}

// MailboxAlias is a permanent alternate address for a mailbox.
type MailboxAlias struct {
	ID        string
	MailboxID string
	Address   string
	CreatedAt time.Time
	IsDeleted bool
}

// TempAlias is a disposable address for a mailbox that stops receiving
// mail after ExpiresAt.
type TempAlias struct {
	ID        string
	MailboxID string
	Address   string
	ExpiresAt time.Time
	CreatedAt time.Time
	IsDeleted bool
}

// Token is an API token issued for a mailbox.
type Token struct {
	ID        string
	MailboxID string
	Name      string
	CreatedAt time.Time
	IsDeleted bool
}

// CustomDomain is a user-owned domain attached to a mailbox.
type CustomDomain struct {
	ID        string
	MailboxID string
	Domain    string
	Verified  bool
	CreatedAt time.Time
	IsDeleted bool
}

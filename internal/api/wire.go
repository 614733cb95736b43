package api

import (
	"time"

	"github.com/lu-zhengda/mailmirror/internal/domain"
)

// ChangeSet is a validated batch of remote entity deltas plus the
// server-issued cursor covering them. Cursor is empty when the server
// omitted its `time` field (degraded response, progress not recordable).
type ChangeSet struct {
	Users         []domain.User
	Mailboxes     []domain.Mailbox
	MailboxUsers  []domain.MailboxUser
	Categories    []domain.Category
	Emails        []domain.Email
	Aliases       []domain.MailboxAlias
	TempAliases   []domain.TempAlias
	Drafts        []domain.Draft
	Tokens        []domain.Token
	CustomDomains []domain.CustomDomain
	Cursor        string
}

// Wire shapes mirror the JSON the sync endpoint returns. Every
// timestamp travels as an ISO-8601 string and is reparsed into a native
// time value here, at the fetch boundary, before anything reaches the
// store.

type changeSetWire struct {
	Users         []userWire         `json:"users"`
	Mailboxes     []mailboxWire      `json:"mailboxes"`
	MailboxUsers  []mailboxUserWire  `json:"mailboxesForUser"`
	Categories    []categoryWire     `json:"categories"`
	Emails        []emailWire        `json:"emails"`
	Aliases       []aliasWire        `json:"mailboxAliases"`
	TempAliases   []tempAliasWire    `json:"tempAliases"`
	Drafts        []draftWire        `json:"drafts"`
	Tokens        []tokenWire        `json:"tokens"`
	CustomDomains []customDomainWire `json:"customDomains"`
	Time          string             `json:"time"`
}

type userWire struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
	IsDeleted bool   `json:"isDeleted"`
}

type mailboxWire struct {
	ID        string `json:"id"`
	Address   string `json:"address"`
	Plan      string `json:"plan"`
	CreatedAt string `json:"createdAt"`
	IsDeleted bool   `json:"isDeleted"`
}

type mailboxUserWire struct {
	MailboxID string `json:"mailboxId"`
	UserID    string `json:"userId"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
	IsDeleted bool   `json:"isDeleted"`
}

type categoryWire struct {
	ID        string `json:"id"`
	MailboxID string `json:"mailboxId"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	CreatedAt string `json:"createdAt"`
	IsDeleted bool   `json:"isDeleted"`
}

type emailWire struct {
	ID          string              `json:"id"`
	MailboxID   string              `json:"mailboxId"`
	CategoryID  string              `json:"categoryId"`
	TempAliasID string              `json:"tempAliasId"`
	From        domain.Address      `json:"from"`
	Recipients  []domain.Recipient  `json:"recipients"`
	Subject     string              `json:"subject"`
	Body        string              `json:"body"`
	BodyHTML    string              `json:"bodyHtml"`
	Attachments []domain.Attachment `json:"attachments"`
	IsRead      bool                `json:"isRead"`
	IsStarred   bool                `json:"isStarred"`
	CreatedAt   string              `json:"createdAt"`
	UpdatedAt   string              `json:"updatedAt"`
	IsDeleted   bool                `json:"isDeleted"`
}

type aliasWire struct {
	ID        string `json:"id"`
	MailboxID string `json:"mailboxId"`
	Address   string `json:"address"`
	CreatedAt string `json:"createdAt"`
	IsDeleted bool   `json:"isDeleted"`
}

type tempAliasWire struct {
	ID        string `json:"id"`
	MailboxID string `json:"mailboxId"`
	Address   string `json:"address"`
	ExpiresAt string `json:"expiresAt"`
	CreatedAt string `json:"createdAt"`
	IsDeleted bool   `json:"isDeleted"`
}

type draftWire struct {
	ID         string             `json:"id"`
	MailboxID  string             `json:"mailboxId"`
	Recipients []domain.Recipient `json:"recipients"`
	Subject    string             `json:"subject"`
	Body       string             `json:"body"`
	CreatedAt  string             `json:"createdAt"`
	UpdatedAt  string             `json:"updatedAt"`
	IsDeleted  bool               `json:"isDeleted"`
}

type tokenWire struct {
	ID        string `json:"id"`
	MailboxID string `json:"mailboxId"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
	IsDeleted bool   `json:"isDeleted"`
}

type customDomainWire struct {
	ID        string `json:"id"`
	MailboxID string `json:"mailboxId"`
	Domain    string `json:"domain"`
	Verified  bool   `json:"verified"`
	CreatedAt string `json:"createdAt"`
	IsDeleted bool   `json:"isDeleted"`
}

// parseTime parses an ISO-8601 timestamp from the wire. An empty string
// maps to the zero time; anything else must parse or the whole fetch
// fails with a ParseError.
func parseTime(entity, field, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, &ParseError{Entity: entity, Field: field, Err: err}
	}
	return t, nil
}

func (w *changeSetWire) changeSet() (*ChangeSet, error) {
	cs := &ChangeSet{Cursor: w.Time}

	for _, u := range w.Users {
		created, err := parseTime("user", "createdAt", u.CreatedAt)
		if err != nil {
			return nil, err
		}
		cs.Users = append(cs.Users, domain.User{
			ID: u.ID, Email: u.Email, Name: u.Name,
			CreatedAt: created, IsDeleted: u.IsDeleted,
		})
	}

	for _, m := range w.Mailboxes {
		created, err := parseTime("mailbox", "createdAt", m.CreatedAt)
		if err != nil {
			return nil, err
		}
		cs.Mailboxes = append(cs.Mailboxes, domain.Mailbox{
			ID: m.ID, Address: m.Address, Plan: m.Plan,
			CreatedAt: created, IsDeleted: m.IsDeleted,
		})
	}

	for _, mu := range w.MailboxUsers {
		created, err := parseTime("mailboxForUser", "createdAt", mu.CreatedAt)
		if err != nil {
			return nil, err
		}
		cs.MailboxUsers = append(cs.MailboxUsers, domain.MailboxUser{
			MailboxID: mu.MailboxID, UserID: mu.UserID, Role: mu.Role,
			CreatedAt: created, IsDeleted: mu.IsDeleted,
		})
	}

	for _, c := range w.Categories {
		created, err := parseTime("category", "createdAt", c.CreatedAt)
		if err != nil {
			return nil, err
		}
		cs.Categories = append(cs.Categories, domain.Category{
			ID: c.ID, MailboxID: c.MailboxID, Name: c.Name, Color: c.Color,
			CreatedAt: created, IsDeleted: c.IsDeleted,
		})
	}

	for _, e := range w.Emails {
		created, err := parseTime("email", "createdAt", e.CreatedAt)
		if err != nil {
			return nil, err
		}
		updated, err := parseTime("email", "updatedAt", e.UpdatedAt)
		if err != nil {
			return nil, err
		}
		cs.Emails = append(cs.Emails, domain.Email{
			ID: e.ID, MailboxID: e.MailboxID, CategoryID: e.CategoryID,
			TempAliasID: e.TempAliasID, From: e.From, Recipients: e.Recipients,
			Subject: e.Subject, Body: e.Body, BodyHTML: e.BodyHTML,
			Attachments: e.Attachments, IsRead: e.IsRead, IsStarred: e.IsStarred,
			CreatedAt: created, UpdatedAt: updated, IsDeleted: e.IsDeleted,
		})
	}

	for _, a := range w.Aliases {
		created, err := parseTime("mailboxAlias", "createdAt", a.CreatedAt)
		if err != nil {
			return nil, err
		}
		cs.Aliases = append(cs.Aliases, domain.MailboxAlias{
			ID: a.ID, MailboxID: a.MailboxID, Address: a.Address,
			CreatedAt: created, IsDeleted: a.IsDeleted,
		})
	}

	for _, a := range w.TempAliases {
		expires, err := parseTime("tempAlias", "expiresAt", a.ExpiresAt)
		if err != nil {
			return nil, err
		}
		created, err := parseTime("tempAlias", "createdAt", a.CreatedAt)
		if err != nil {
			return nil, err
		}
		cs.TempAliases = append(cs.TempAliases, domain.TempAlias{
			ID: a.ID, MailboxID: a.MailboxID, Address: a.Address,
			ExpiresAt: expires, CreatedAt: created, IsDeleted: a.IsDeleted,
		})
	}

	for _, d := range w.Drafts {
		created, err := parseTime("draft", "createdAt", d.CreatedAt)
		if err != nil {
			return nil, err
		}
		updated, err := parseTime("draft", "updatedAt", d.UpdatedAt)
		if err != nil {
			return nil, err
		}
		cs.Drafts = append(cs.Drafts, domain.Draft{
			ID: d.ID, MailboxID: d.MailboxID, Recipients: d.Recipients,
			Subject: d.Subject, Body: d.Body,
			CreatedAt: created, UpdatedAt: updated, IsDeleted: d.IsDeleted,
		})
	}

	for _, tk := range w.Tokens {
		created, err := parseTime("token", "createdAt", tk.CreatedAt)
		if err != nil {
			return nil, err
		}
		cs.Tokens = append(cs.Tokens, domain.Token{
			ID: tk.ID, MailboxID: tk.MailboxID, Name: tk.Name,
			CreatedAt: created, IsDeleted: tk.IsDeleted,
		})
	}

	for _, cd := range w.CustomDomains {
		created, err := parseTime("customDomain", "createdAt", cd.CreatedAt)
		if err != nil {
			return nil, err
		}
		cs.CustomDomains = append(cs.CustomDomains, domain.CustomDomain{
			ID: cd.ID, MailboxID: cd.MailboxID, Domain: cd.Domain,
			Verified: cd.Verified, CreatedAt: created, IsDeleted: cd.IsDeleted,
		})
	}

	return cs, nil
}

package cli

import (
	"time"

	"github.com/lu-zhengda/mailmirror/internal/domain"
	"github.com/lu-zhengda/mailmirror/internal/engine"
	"github.com/lu-zhengda/mailmirror/internal/store"
)

// ---------------------------------------------------------------------------
// Mailbox JSON types (mailboxes)
// ---------------------------------------------------------------------------

type jsonMailbox struct {
	ID        string `json:"id"`
	Address   string `json:"address"`
	Plan      string `json:"plan,omitempty"`
	CreatedAt string `json:"created_at"`
}

func toJSONMailboxes(mailboxes []domain.Mailbox) []jsonMailbox {
	out := make([]jsonMailbox, 0, len(mailboxes))
	for _, m := range mailboxes {
		out = append(out, jsonMailbox{
			ID:        m.ID,
			Address:   m.Address,
			Plan:      m.Plan,
			CreatedAt: m.CreatedAt.Format(time.DateOnly),
		})
	}
	return out
}

// ---------------------------------------------------------------------------
// Email JSON types (list)
// ---------------------------------------------------------------------------

type jsonEmail struct {
	ID         string      `json:"id"`
	MailboxID  string      `json:"mailbox_id"`
	CategoryID string      `json:"category_id,omitempty"`
	From       jsonAddress `json:"from"`
	Subject    string      `json:"subject"`
	Date       string      `json:"date"`
	IsRead     bool        `json:"is_read"`
	IsStarred  bool        `json:"is_starred"`
}

func toJSONEmails(emails []domain.Email) []jsonEmail {
	out := make([]jsonEmail, 0, len(emails))
	for _, e := range emails {
		out = append(out, jsonEmail{
			ID:         e.ID,
			MailboxID:  e.MailboxID,
			CategoryID: e.CategoryID,
			From:       toJSONAddress(e.From),
			Subject:    e.Subject,
			Date:       e.CreatedAt.Format(time.RFC3339),
			IsRead:     e.IsRead,
			IsStarred:  e.IsStarred,
		})
	}
	return out
}

// ---------------------------------------------------------------------------
// Email detail JSON type (read)
// ---------------------------------------------------------------------------

type jsonEmailDetail struct {
	ID          string        `json:"id"`
	MailboxID   string        `json:"mailbox_id"`
	CategoryID  string        `json:"category_id,omitempty"`
	From        jsonAddress   `json:"from"`
	To          []jsonAddress `json:"to,omitempty"`
	CC          []jsonAddress `json:"cc,omitempty"`
	Subject     string        `json:"subject"`
	Body        string        `json:"body"`
	Date        string        `json:"date"`
	IsRead      bool          `json:"is_read"`
	IsStarred   bool          `json:"is_starred"`
	Attachments []string      `json:"attachments,omitempty"`
}

func toJSONEmailDetail(e *domain.Email) jsonEmailDetail {
	var to, cc []jsonAddress
	for _, r := range e.Recipients {
		if r.CC {
			cc = append(cc, toJSONAddress(r.Address))
		} else {
			to = append(to, toJSONAddress(r.Address))
		}
	}
	var attachments []string
	for _, a := range e.Attachments {
		attachments = append(attachments, a.Filename)
	}
	return jsonEmailDetail{
		ID:          e.ID,
		MailboxID:   e.MailboxID,
		CategoryID:  e.CategoryID,
		From:        toJSONAddress(e.From),
		To:          to,
		CC:          cc,
		Subject:     e.Subject,
		Body:        e.Body,
		Date:        e.CreatedAt.Format(time.RFC3339),
		IsRead:      e.IsRead,
		IsStarred:   e.IsStarred,
		Attachments: attachments,
	}
}

// ---------------------------------------------------------------------------
// Category JSON type (categories)
// ---------------------------------------------------------------------------

type jsonCategory struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

func toJSONCategories(categories []domain.Category) []jsonCategory {
	out := make([]jsonCategory, 0, len(categories))
	for _, c := range categories {
		out = append(out, jsonCategory{ID: c.ID, Name: c.Name, Color: c.Color})
	}
	return out
}

// ---------------------------------------------------------------------------
// Sync result JSON type (sync)
// ---------------------------------------------------------------------------

type jsonSync struct {
	OK             bool   `json:"ok"`
	FullReplace    bool   `json:"full_replace"`
	Coalesced      bool   `json:"coalesced"`
	Cursor         string `json:"cursor,omitempty"`
	CursorAdvanced bool   `json:"cursor_advanced"`
	RowsApplied    int    `json:"rows_applied"`
	Emails         int    `json:"emails"`
}

func toJSONSync(res *engine.SyncResult) jsonSync {
	return jsonSync{
		OK:             true,
		FullReplace:    res.FullReplace,
		Coalesced:      res.Coalesced,
		Cursor:         res.Cursor,
		CursorAdvanced: res.CursorAdvanced,
		RowsApplied:    res.Counts.Total(),
		Emails:         res.Counts.Emails,
	}
}

// ---------------------------------------------------------------------------
// Status JSON type (status)
// ---------------------------------------------------------------------------

type jsonStatus struct {
	Session       string `json:"session"`
	Cursor        string `json:"cursor,omitempty"`
	SchemaVersion int    `json:"schema_version"`
	Users         int    `json:"users"`
	Mailboxes     int    `json:"mailboxes"`
	MailboxUsers  int    `json:"mailbox_users"`
	Categories    int    `json:"categories"`
	Emails        int    `json:"emails"`
	Aliases       int    `json:"mailbox_aliases"`
	TempAliases   int    `json:"temp_aliases"`
	Drafts        int    `json:"drafts"`
	Tokens        int    `json:"tokens"`
	CustomDomains int    `json:"custom_domains"`
}

func toJSONStatus(stats *store.MirrorStats, session string, schema int) jsonStatus {
	return jsonStatus{
		Session:       session,
		Cursor:        stats.Cursor,
		SchemaVersion: schema,
		Users:         stats.Users,
		Mailboxes:     stats.Mailboxes,
		MailboxUsers:  stats.MailboxUsers,
		Categories:    stats.Categories,
		Emails:        stats.Emails,
		Aliases:       stats.Aliases,
		TempAliases:   stats.TempAliases,
		Drafts:        stats.Drafts,
		Tokens:        stats.Tokens,
		CustomDomains: stats.CustomDomains,
	}
}

// ---------------------------------------------------------------------------
// Address JSON type (shared)
// ---------------------------------------------------------------------------

type jsonAddress struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

func toJSONAddress(a domain.Address) jsonAddress {
	return jsonAddress{Name: a.Name, Email: a.Email}
}

// ---------------------------------------------------------------------------
// Action JSON type (login, logout, star, mark-read, move, etc.)
// ---------------------------------------------------------------------------

type jsonAction struct {
	OK      bool   `json:"ok"`
	Action  string `json:"action"`
	EmailID string `json:"email_id,omitempty"`
	Email   string `json:"email,omitempty"`
}

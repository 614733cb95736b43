package domain

import "time"

type Address struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email"`
}

func (a Address) String() string {
	if a.Name == "" {
		return a.Email
	}
	return a.Name + " <" + a.Email + ">"
}

// Recipient is an address on an email, flagged when it was carried on CC.
type Recipient struct {
	Address
	CC bool `json:"cc,omitempty"`
}

type Attachment struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	MIMEType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// Email is a mirrored message belonging to a Mailbox. CategoryID and
// TempAliasID are empty when the message has no such association.
type Email struct {
	ID          string
	MailboxID   string
	CategoryID  string
	TempAliasID string
	From        Address
	Recipients  []Recipient
	Subject     string
	Body        string
	BodyHTML    string
	Attachments []Attachment
	IsRead      bool
	IsStarred   bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
	IsDeleted   bool
}

// Draft is an in-progress unsent email.
type Draft struct {
	ID         string
	MailboxID  string
	Recipients []Recipient
	Subject    string
	Body       string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	IsDeleted  bool
}

// EmailPatch describes a partial update to an email's mutable flags.
// Nil fields are left untouched.
type EmailPatch struct {
	IsRead     *bool
	IsStarred  *bool
	CategoryID *string
}

// Empty reports whether the patch changes nothing.
func (p EmailPatch) Empty() bool {
	return p.IsRead == nil && p.IsStarred == nil && p.CategoryID == nil
}

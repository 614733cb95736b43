package sqlite

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations. Versions are
// sequential starting from 1; only migrations newer than the stored
// schema version run on open.
//
// Mirrored tables deliberately carry no foreign-key constraints: within
// a sync batch a child row may arrive before its parent mailbox, and
// the batch as a whole is what has to be consistent, not each statement.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
    version     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
    id          TEXT PRIMARY KEY,
    email       TEXT NOT NULL,
    name        TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL DEFAULT '',
    is_deleted  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS mailboxes (
    id          TEXT PRIMARY KEY,
    address     TEXT NOT NULL,
    plan        TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL DEFAULT '',
    is_deleted  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS mailbox_users (
    mailbox_id  TEXT NOT NULL,
    user_id     TEXT NOT NULL,
    role        TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL DEFAULT '',
    is_deleted  INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (mailbox_id, user_id)
);

CREATE TABLE IF NOT EXISTS categories (
    id          TEXT PRIMARY KEY,
    mailbox_id  TEXT NOT NULL,
    name        TEXT NOT NULL DEFAULT '',
    color       TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL DEFAULT '',
    is_deleted  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS emails (
    id            TEXT PRIMARY KEY,
    mailbox_id    TEXT NOT NULL,
    category_id   TEXT NOT NULL DEFAULT '',
    temp_alias_id TEXT NOT NULL DEFAULT '',
    from_addr     TEXT NOT NULL DEFAULT '',
    from_name     TEXT NOT NULL DEFAULT '',
    recipients    TEXT NOT NULL DEFAULT '[]',
    subject       TEXT NOT NULL DEFAULT '',
    body_text     TEXT NOT NULL DEFAULT '',
    body_html     TEXT NOT NULL DEFAULT '',
    attachments   TEXT NOT NULL DEFAULT '[]',
    is_read       INTEGER NOT NULL DEFAULT 0,
    is_starred    INTEGER NOT NULL DEFAULT 0,
    created_at    TEXT NOT NULL DEFAULT '',
    updated_at    TEXT NOT NULL DEFAULT '',
    is_deleted    INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS mailbox_aliases (
    id          TEXT PRIMARY KEY,
    mailbox_id  TEXT NOT NULL,
    address     TEXT NOT NULL,
    created_at  TEXT NOT NULL DEFAULT '',
    is_deleted  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS temp_aliases (
    id          TEXT PRIMARY KEY,
    mailbox_id  TEXT NOT NULL,
    address     TEXT NOT NULL,
    expires_at  TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL DEFAULT '',
    is_deleted  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS drafts (
    id          TEXT PRIMARY KEY,
    mailbox_id  TEXT NOT NULL,
    recipients  TEXT NOT NULL DEFAULT '[]',
    subject     TEXT NOT NULL DEFAULT '',
    body_text   TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL DEFAULT '',
    updated_at  TEXT NOT NULL DEFAULT '',
    is_deleted  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS tokens (
    id          TEXT PRIMARY KEY,
    mailbox_id  TEXT NOT NULL,
    name        TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL DEFAULT '',
    is_deleted  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS custom_domains (
    id          TEXT PRIMARY KEY,
    mailbox_id  TEXT NOT NULL,
    domain      TEXT NOT NULL,
    verified    INTEGER NOT NULL DEFAULT 0,
    created_at  TEXT NOT NULL DEFAULT '',
    is_deleted  INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS sync_cursor (
    id          INTEGER PRIMARY KEY CHECK (id = 1),
    last_sync   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_emails_mailbox_created ON emails(mailbox_id, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_categories_mailbox ON categories(mailbox_id);
CREATE INDEX IF NOT EXISTS idx_mailbox_aliases_mailbox ON mailbox_aliases(mailbox_id);
CREATE INDEX IF NOT EXISTS idx_temp_aliases_mailbox ON temp_aliases(mailbox_id);
CREATE INDEX IF NOT EXISTS idx_drafts_mailbox ON drafts(mailbox_id);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
CREATE INDEX IF NOT EXISTS idx_emails_category ON emails(mailbox_id, category_id);
CREATE INDEX IF NOT EXISTS idx_tokens_mailbox ON tokens(mailbox_id);
CREATE INDEX IF NOT EXISTS idx_custom_domains_mailbox ON custom_domains(mailbox_id);

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}

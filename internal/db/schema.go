package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    email         TEXT,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'user')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS lost_items (
    id            INTEGER PRIMARY KEY,
    user_id       INTEGER NOT NULL REFERENCES users(id),
    item_name     TEXT NOT NULL,
    category      TEXT NOT NULL,
    color         TEXT,
    material      TEXT,
    description   TEXT,
    unique_marks  TEXT,
    location_text TEXT,
    lat           REAL,
    lng           REAL,
    date_lost     DATETIME NOT NULL,
    status        TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'matched', 'resolved')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_lost_items_status ON lost_items(status);

CREATE TABLE IF NOT EXISTS found_items (
    id                INTEGER PRIMARY KEY,
    finder_id         INTEGER NOT NULL REFERENCES users(id),
    item_name         TEXT NOT NULL,
    category          TEXT NOT NULL,
    description       TEXT,
    condition         TEXT,
    storage_place     TEXT,
    location_text     TEXT,
    lat               REAL,
    lng               REAL,
    masked_asset_id   TEXT REFERENCES assets(id),
    original_asset_id TEXT REFERENCES assets(id),
    mask_failed       INTEGER NOT NULL DEFAULT 0,
    status            TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'matched', 'resolved')),
    created_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at        DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_found_items_status ON found_items(status);

CREATE TABLE IF NOT EXISTS assets (
    id         TEXT PRIMARY KEY,
    data       BLOB NOT NULL,
    mime       TEXT NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS matches (
    id            INTEGER PRIMARY KEY,
    lost_item_id  INTEGER NOT NULL REFERENCES lost_items(id),
    found_item_id INTEGER NOT NULL REFERENCES found_items(id),
    confidence    INTEGER NOT NULL CHECK (confidence BETWEEN 0 AND 100),
    details       TEXT,
    status        TEXT NOT NULL DEFAULT 'active' CHECK (status IN ('active', 'claimed', 'rejected', 'resolved')),
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_matches_pair
    ON matches(lost_item_id, found_item_id);

CREATE TABLE IF NOT EXISTS claims (
    id             INTEGER PRIMARY KEY,
    found_item_id  INTEGER NOT NULL REFERENCES found_items(id),
    lost_item_id   INTEGER REFERENCES lost_items(id),
    claimant_id    INTEGER NOT NULL REFERENCES users(id),
    status         TEXT NOT NULL DEFAULT 'verification_pending' CHECK (status IN (
                       'verification_pending', 'verification_failed', 'admin_review',
                       'approved', 'rejected', 'completed')),
    answers        TEXT,
    proof_asset_id TEXT REFERENCES assets(id),
    reject_reason  TEXT,
    created_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_claims_found_item ON claims(found_item_id);

CREATE TABLE IF NOT EXISTS notifications (
    id         INTEGER PRIMARY KEY,
    user_id    INTEGER NOT NULL REFERENCES users(id),
    title      TEXT NOT NULL,
    message    TEXT NOT NULL,
    type       TEXT NOT NULL DEFAULT 'system',
    link       TEXT,
    read       INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications(user_id, read);

CREATE TABLE IF NOT EXISTS chat_messages (
    id         INTEGER PRIMARY KEY,
    claim_id   INTEGER NOT NULL REFERENCES claims(id),
    sender_id  INTEGER NOT NULL REFERENCES users(id),
    content    BLOB NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}

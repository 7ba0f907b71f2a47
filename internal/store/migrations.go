package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT UNIQUE NOT NULL,
	password TEXT NOT NULL,
	avatar TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL DEFAULT '',
	status_media TEXT NOT NULL DEFAULT '',
	status_media_type TEXT NOT NULL DEFAULT 'text',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS chats (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	type TEXT NOT NULL,
	community_id TEXT,
	admin_id TEXT NOT NULL DEFAULT '',
	group_icon TEXT NOT NULL DEFAULT '',
	last_message_text TEXT NOT NULL DEFAULT '',
	last_message_ts BIGINT NOT NULL DEFAULT 0,
	disappearing_seconds BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS chat_members (
	chat_id TEXT NOT NULL REFERENCES chats(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL,
	PRIMARY KEY (chat_id, user_id)
);

CREATE TABLE IF NOT EXISTS messages (
	id TEXT PRIMARY KEY,
	chat_id TEXT NOT NULL,
	sender_label TEXT NOT NULL DEFAULT '',
	receiver_name TEXT NOT NULL DEFAULT '',
	sender_id TEXT NOT NULL DEFAULT '',
	receiver_id TEXT NOT NULL DEFAULT '',
	sender_name TEXT NOT NULL DEFAULT '',
	sender_avatar TEXT NOT NULL DEFAULT '',
	body TEXT NOT NULL DEFAULT '',
	ts BIGINT NOT NULL DEFAULT 0,
	status TEXT NOT NULL DEFAULT 'sent',
	msg_type TEXT NOT NULL DEFAULT 'text',
	starred BOOLEAN NOT NULL DEFAULT FALSE,
	file_name TEXT NOT NULL DEFAULT '',
	expires_at BIGINT NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS communities (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	icon TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS community_members (
	community_id TEXT NOT NULL REFERENCES communities(id) ON DELETE CASCADE,
	user_id TEXT NOT NULL,
	PRIMARY KEY (community_id, user_id)
);

CREATE INDEX IF NOT EXISTS idx_chat_members_user ON chat_members(user_id);
CREATE INDEX IF NOT EXISTS idx_messages_chat_ts ON messages(chat_id, ts);
CREATE INDEX IF NOT EXISTS idx_messages_expires ON messages(expires_at) WHERE expires_at > 0;
`

// RunMigrations creates the PostgreSQL schema. Safe to run on every startup.
func RunMigrations(databaseURL string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer conn.Close(ctx)

	_, err = conn.Exec(ctx, postgresSchema)
	return err
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Sathishkumar1405/chat-app/internal/models"
)

// SQLiteStore handles SQLite database operations. It is the development
// default when no DATABASE_URL is configured.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/chatapp.db".
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/chatapp.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}

	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates tables if they don't exist.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT UNIQUE NOT NULL,
		password TEXT NOT NULL,
		avatar TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		status_media TEXT NOT NULL DEFAULT '',
		status_media_type TEXT NOT NULL DEFAULT 'text',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS chats (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		type TEXT NOT NULL,
		community_id TEXT,
		admin_id TEXT NOT NULL DEFAULT '',
		group_icon TEXT NOT NULL DEFAULT '',
		last_message_text TEXT NOT NULL DEFAULT '',
		last_message_ts INTEGER NOT NULL DEFAULT 0,
		disappearing_seconds INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
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
		ts INTEGER NOT NULL DEFAULT 0,
		status TEXT NOT NULL DEFAULT 'sent',
		msg_type TEXT NOT NULL DEFAULT 'text',
		starred INTEGER NOT NULL DEFAULT 0,
		file_name TEXT NOT NULL DEFAULT '',
		expires_at INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS communities (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		icon TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS community_members (
		community_id TEXT NOT NULL REFERENCES communities(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		PRIMARY KEY (community_id, user_id)
	);

	CREATE INDEX IF NOT EXISTS idx_chat_members_user ON chat_members(user_id);
	CREATE INDEX IF NOT EXISTS idx_messages_chat_ts ON messages(chat_id, ts);
	CREATE INDEX IF NOT EXISTS idx_messages_expires ON messages(expires_at);
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateUser creates a new user record.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *models.User) error {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password, avatar, status, status_media, status_media_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, user.ID, user.Name, user.Email, user.Password, user.Avatar,
		user.Status, user.StatusMedia, user.StatusMediaType, user.CreatedAt)
	return err
}

func (s *SQLiteStore) scanUserRow(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.Password,
		&user.Avatar,
		&user.Status,
		&user.StatusMedia,
		&user.StatusMediaType,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

// GetUserByID retrieves a user by ID.
func (s *SQLiteStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return s.scanUserRow(s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE id = ?
	`, id))
}

// GetUserByEmail retrieves a user by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.scanUserRow(s.db.QueryRowContext(ctx, `
		SELECT `+userColumns+` FROM users WHERE email = ?
	`, email))
}

// ListUsers retrieves all users ordered by name.
func (s *SQLiteStore) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID,
			&user.Name,
			&user.Email,
			&user.Password,
			&user.Avatar,
			&user.Status,
			&user.StatusMedia,
			&user.StatusMediaType,
			&user.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// UpdateUserStatus updates a user's status fields.
func (s *SQLiteStore) UpdateUserStatus(ctx context.Context, id, status, statusMedia, statusMediaType string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users SET status = ?, status_media = ?, status_media_type = ? WHERE id = ?
	`, status, statusMedia, statusMediaType, id)
	return err
}

// UpdateUserProfile updates a user's profile fields. Empty values keep the
// current column value.
func (s *SQLiteStore) UpdateUserProfile(ctx context.Context, id, name, avatar, status string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET name = COALESCE(NULLIF(?, ''), name),
		    avatar = COALESCE(NULLIF(?, ''), avatar),
		    status = COALESCE(NULLIF(?, ''), status)
		WHERE id = ?
	`, name, avatar, status, id)
	return err
}

// CreateChat creates a chat and its membership rows in one transaction.
func (s *SQLiteStore) CreateChat(ctx context.Context, chat *models.Chat) error {
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var communityID interface{}
	if chat.CommunityID != "" {
		communityID = chat.CommunityID
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO chats (id, name, type, community_id, admin_id, group_icon,
			last_message_text, last_message_ts, disappearing_seconds, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, chat.ID, chat.Name, chat.Type, communityID, chat.AdminID, chat.GroupIcon,
		chat.LastMessage.Text, chat.LastMessage.Timestamp,
		chat.DisappearingMessagesDuration, chat.CreatedAt)
	if err != nil {
		return err
	}

	for _, member := range chat.Members {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO chat_members (chat_id, user_id) VALUES (?, ?)
		`, chat.ID, member); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) chatMembers(ctx context.Context, chatID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id FROM chat_members WHERE chat_id = ? ORDER BY user_id
	`, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		members = append(members, id)
	}
	return members, rows.Err()
}

// GetChat retrieves a chat with its member list.
func (s *SQLiteStore) GetChat(ctx context.Context, id string) (*models.Chat, error) {
	chat := &models.Chat{}
	var communityID sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT `+chatColumns+` FROM chats WHERE id = ?
	`, id).Scan(
		&chat.ID,
		&chat.Name,
		&chat.Type,
		&communityID,
		&chat.AdminID,
		&chat.GroupIcon,
		&chat.LastMessage.Text,
		&chat.LastMessage.Timestamp,
		&chat.DisappearingMessagesDuration,
		&chat.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	chat.CommunityID = communityID.String
	chat.Members, err = s.chatMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// GetChatsForUser retrieves every chat the user is a member of, most recent
// activity first.
func (s *SQLiteStore) GetChatsForUser(ctx context.Context, userID string) ([]models.Chat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+chatColumns+`
		FROM chats
		WHERE id IN (SELECT chat_id FROM chat_members WHERE user_id = ?)
		ORDER BY last_message_ts DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []models.Chat
	for rows.Next() {
		chat := models.Chat{}
		var communityID sql.NullString
		err := rows.Scan(
			&chat.ID,
			&chat.Name,
			&chat.Type,
			&communityID,
			&chat.AdminID,
			&chat.GroupIcon,
			&chat.LastMessage.Text,
			&chat.LastMessage.Timestamp,
			&chat.DisappearingMessagesDuration,
			&chat.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		chat.CommunityID = communityID.String
		chats = append(chats, chat)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range chats {
		chats[i].Members, err = s.chatMembers(ctx, chats[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return chats, nil
}

// FindPersonalChat finds an existing personal chat between two users.
func (s *SQLiteStore) FindPersonalChat(ctx context.Context, userA, userB string) (*models.Chat, error) {
	var id string
	err := s.db.QueryRowContext(ctx, `
		SELECT c.id
		FROM chats c
		JOIN chat_members a ON a.chat_id = c.id AND a.user_id = ?
		JOIN chat_members b ON b.chat_id = c.id AND b.user_id = ?
		WHERE c.type = 'personal'
		LIMIT 1
	`, userA, userB).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s.GetChat(ctx, id)
}

// UpdateChatLastMessage writes the denormalized conversation summary.
func (s *SQLiteStore) UpdateChatLastMessage(ctx context.Context, id string, last models.LastMessage) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE chats SET last_message_text = ?, last_message_ts = ? WHERE id = ?
	`, last.Text, last.Timestamp, id)
	return err
}

// SetDisappearingDuration sets the disappearing-messages duration in seconds.
func (s *SQLiteStore) SetDisappearingDuration(ctx context.Context, id string, seconds int64) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE chats SET disappearing_seconds = ? WHERE id = ?
	`, seconds, id)
	return err
}

// InsertMessage stores a message.
func (s *SQLiteStore) InsertMessage(ctx context.Context, msg *models.Message) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, chat_id, sender_label, receiver_name, sender_id,
			receiver_id, sender_name, sender_avatar, body, ts, status, msg_type,
			starred, file_name, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.ChatID, msg.Sender, msg.Receiver, msg.SenderID, msg.ReceiverID,
		msg.SenderName, msg.SenderAvatar, msg.Text, msg.Timestamp, msg.Status,
		msg.Type, msg.Starred, msg.FileName, msg.ExpiresAt)
	return err
}

func (s *SQLiteStore) scanMessageRow(row *sql.Row) (*models.Message, error) {
	msg := &models.Message{}
	err := row.Scan(
		&msg.ID,
		&msg.ChatID,
		&msg.Sender,
		&msg.Receiver,
		&msg.SenderID,
		&msg.ReceiverID,
		&msg.SenderName,
		&msg.SenderAvatar,
		&msg.Text,
		&msg.Timestamp,
		&msg.Status,
		&msg.Type,
		&msg.Starred,
		&msg.FileName,
		&msg.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return msg, nil
}

// GetChatMessages retrieves a chat's messages in timestamp order, excluding
// any whose expiry has passed.
func (s *SQLiteStore) GetChatMessages(ctx context.Context, chatID string, nowMillis int64) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE chat_id = ? AND (expires_at = 0 OR expires_at > ?)
		ORDER BY ts ASC
	`, chatID, nowMillis)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var msg models.Message
		err := rows.Scan(
			&msg.ID,
			&msg.ChatID,
			&msg.Sender,
			&msg.Receiver,
			&msg.SenderID,
			&msg.ReceiverID,
			&msg.SenderName,
			&msg.SenderAvatar,
			&msg.Text,
			&msg.Timestamp,
			&msg.Status,
			&msg.Type,
			&msg.Starred,
			&msg.FileName,
			&msg.ExpiresAt,
		)
		if err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// GetMessage retrieves a single message by ID.
func (s *SQLiteStore) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	return s.scanMessageRow(s.db.QueryRowContext(ctx, `
		SELECT `+messageColumns+` FROM messages WHERE id = ?
	`, id))
}

// SetMessageStarred sets a message's starred flag.
func (s *SQLiteStore) SetMessageStarred(ctx context.Context, id string, starred bool) error {
	_, err := s.db.ExecContext(ctx, `UPDATE messages SET starred = ? WHERE id = ?`, starred, id)
	return err
}

// DeleteMessage deletes a message by ID.
func (s *SQLiteStore) DeleteMessage(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	return err
}

// PurgeExpiredMessages deletes messages whose expiry has passed and returns
// the number removed.
func (s *SQLiteStore) PurgeExpiredMessages(ctx context.Context, nowMillis int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM messages WHERE expires_at > 0 AND expires_at <= ?
	`, nowMillis)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CreateCommunity creates a community and its membership rows.
func (s *SQLiteStore) CreateCommunity(ctx context.Context, community *models.Community) error {
	if community.CreatedAt.IsZero() {
		community.CreatedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO communities (id, name, description, icon, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, community.ID, community.Name, community.Description, community.Icon, community.CreatedAt)
	if err != nil {
		return err
	}

	for _, member := range community.Members {
		if _, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO community_members (community_id, user_id) VALUES (?, ?)
		`, community.ID, member); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (s *SQLiteStore) communityMembers(ctx context.Context, communityID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id FROM community_members WHERE community_id = ? ORDER BY user_id
	`, communityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		members = append(members, id)
	}
	return members, rows.Err()
}

// GetCommunity retrieves a community with its member list.
func (s *SQLiteStore) GetCommunity(ctx context.Context, id string) (*models.Community, error) {
	community := &models.Community{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, icon, created_at FROM communities WHERE id = ?
	`, id).Scan(
		&community.ID,
		&community.Name,
		&community.Description,
		&community.Icon,
		&community.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	community.Members, err = s.communityMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	return community, nil
}

// ListCommunities retrieves all communities ordered by name.
func (s *SQLiteStore) ListCommunities(ctx context.Context) ([]models.Community, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, icon, created_at FROM communities ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var communities []models.Community
	for rows.Next() {
		var community models.Community
		err := rows.Scan(
			&community.ID,
			&community.Name,
			&community.Description,
			&community.Icon,
			&community.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		communities = append(communities, community)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range communities {
		communities[i].Members, err = s.communityMembers(ctx, communities[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return communities, nil
}

// AddCommunityMember adds a user to a community. Idempotent.
func (s *SQLiteStore) AddCommunityMember(ctx context.Context, communityID, userID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO community_members (community_id, user_id) VALUES (?, ?)
	`, communityID, userID)
	return err
}

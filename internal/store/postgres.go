package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Sathishkumar1405/chat-app/internal/models"
)

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// CreateUser creates a new user record.
func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO users (id, name, email, password, avatar, status, status_media, status_media_type)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, user.ID, user.Name, user.Email, user.Password, user.Avatar,
		user.Status, user.StatusMedia, user.StatusMediaType).Scan(&user.CreatedAt)
}

func scanUser(row pgx.Row) (*models.User, error) {
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
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return user, nil
}

const userColumns = `id, name, email, password, avatar, status, status_media, status_media_type, created_at`

// GetUserByID retrieves a user by ID.
func (s *PostgresStore) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

// GetUserByEmail retrieves a user by email.
func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// ListUsers retrieves all users ordered by name.
func (s *PostgresStore) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY name`)
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
func (s *PostgresStore) UpdateUserStatus(ctx context.Context, id, status, statusMedia, statusMediaType string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users
		SET status = $2, status_media = $3, status_media_type = $4
		WHERE id = $1
	`, id, status, statusMedia, statusMediaType)
	return err
}

// UpdateUserProfile updates a user's profile fields. Empty values keep the
// current column value.
func (s *PostgresStore) UpdateUserProfile(ctx context.Context, id, name, avatar, status string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE users
		SET name = COALESCE(NULLIF($2, ''), name),
		    avatar = COALESCE(NULLIF($3, ''), avatar),
		    status = COALESCE(NULLIF($4, ''), status)
		WHERE id = $1
	`, id, name, avatar, status)
	return err
}

// CreateChat creates a chat and its membership rows in one transaction.
func (s *PostgresStore) CreateChat(ctx context.Context, chat *models.Chat) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var communityID *string
	if chat.CommunityID != "" {
		communityID = &chat.CommunityID
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO chats (id, name, type, community_id, admin_id, group_icon,
			last_message_text, last_message_ts, disappearing_seconds)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at
	`, chat.ID, chat.Name, chat.Type, communityID, chat.AdminID, chat.GroupIcon,
		chat.LastMessage.Text, chat.LastMessage.Timestamp,
		chat.DisappearingMessagesDuration).Scan(&chat.CreatedAt)
	if err != nil {
		return err
	}

	for _, member := range chat.Members {
		if _, err := tx.Exec(ctx, `
			INSERT INTO chat_members (chat_id, user_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, chat.ID, member); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) chatMembers(ctx context.Context, chatID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id FROM chat_members WHERE chat_id = $1 ORDER BY user_id
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

func scanChat(row pgx.Row) (*models.Chat, error) {
	chat := &models.Chat{}
	var communityID *string
	err := row.Scan(
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
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if communityID != nil {
		chat.CommunityID = *communityID
	}
	return chat, nil
}

const chatColumns = `id, name, type, community_id, admin_id, group_icon,
	last_message_text, last_message_ts, disappearing_seconds, created_at`

// GetChat retrieves a chat with its member list.
func (s *PostgresStore) GetChat(ctx context.Context, id string) (*models.Chat, error) {
	chat, err := scanChat(s.pool.QueryRow(ctx, `SELECT `+chatColumns+` FROM chats WHERE id = $1`, id))
	if err != nil || chat == nil {
		return chat, err
	}
	chat.Members, err = s.chatMembers(ctx, id)
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// GetChatsForUser retrieves every chat the user is a member of, most recent
// activity first.
func (s *PostgresStore) GetChatsForUser(ctx context.Context, userID string) ([]models.Chat, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+chatColumns+`
		FROM chats
		WHERE id IN (SELECT chat_id FROM chat_members WHERE user_id = $1)
		ORDER BY last_message_ts DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chats []models.Chat
	for rows.Next() {
		chat := models.Chat{}
		var communityID *string
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
		if communityID != nil {
			chat.CommunityID = *communityID
		}
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
func (s *PostgresStore) FindPersonalChat(ctx context.Context, userA, userB string) (*models.Chat, error) {
	var id string
	err := s.pool.QueryRow(ctx, `
		SELECT c.id
		FROM chats c
		JOIN chat_members a ON a.chat_id = c.id AND a.user_id = $1
		JOIN chat_members b ON b.chat_id = c.id AND b.user_id = $2
		WHERE c.type = 'personal'
		LIMIT 1
	`, userA, userB).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return s.GetChat(ctx, id)
}

// UpdateChatLastMessage writes the denormalized conversation summary.
func (s *PostgresStore) UpdateChatLastMessage(ctx context.Context, id string, last models.LastMessage) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE chats SET last_message_text = $2, last_message_ts = $3 WHERE id = $1
	`, id, last.Text, last.Timestamp)
	return err
}

// SetDisappearingDuration sets the disappearing-messages duration in seconds.
func (s *PostgresStore) SetDisappearingDuration(ctx context.Context, id string, seconds int64) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE chats SET disappearing_seconds = $2 WHERE id = $1
	`, id, seconds)
	return err
}

// InsertMessage stores a message.
func (s *PostgresStore) InsertMessage(ctx context.Context, msg *models.Message) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (id, chat_id, sender_label, receiver_name, sender_id,
			receiver_id, sender_name, sender_avatar, body, ts, status, msg_type,
			starred, file_name, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, msg.ID, msg.ChatID, msg.Sender, msg.Receiver, msg.SenderID, msg.ReceiverID,
		msg.SenderName, msg.SenderAvatar, msg.Text, msg.Timestamp, msg.Status,
		msg.Type, msg.Starred, msg.FileName, msg.ExpiresAt)
	return err
}

const messageColumns = `id, chat_id, sender_label, receiver_name, sender_id,
	receiver_id, sender_name, sender_avatar, body, ts, status, msg_type,
	starred, file_name, expires_at`

func scanMessage(row pgx.Row) (*models.Message, error) {
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
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return msg, nil
}

// GetChatMessages retrieves a chat's messages in timestamp order, excluding
// any whose expiry has passed.
func (s *PostgresStore) GetChatMessages(ctx context.Context, chatID string, nowMillis int64) ([]models.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+messageColumns+`
		FROM messages
		WHERE chat_id = $1 AND (expires_at = 0 OR expires_at > $2)
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
func (s *PostgresStore) GetMessage(ctx context.Context, id string) (*models.Message, error) {
	return scanMessage(s.pool.QueryRow(ctx, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id))
}

// SetMessageStarred sets a message's starred flag.
func (s *PostgresStore) SetMessageStarred(ctx context.Context, id string, starred bool) error {
	_, err := s.pool.Exec(ctx, `UPDATE messages SET starred = $2 WHERE id = $1`, id, starred)
	return err
}

// DeleteMessage deletes a message by ID.
func (s *PostgresStore) DeleteMessage(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id)
	return err
}

// PurgeExpiredMessages deletes messages whose expiry has passed and returns
// the number removed.
func (s *PostgresStore) PurgeExpiredMessages(ctx context.Context, nowMillis int64) (int64, error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM messages WHERE expires_at > 0 AND expires_at <= $1
	`, nowMillis)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CreateCommunity creates a community and its membership rows.
func (s *PostgresStore) CreateCommunity(ctx context.Context, community *models.Community) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	err = tx.QueryRow(ctx, `
		INSERT INTO communities (id, name, description, icon)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, community.ID, community.Name, community.Description, community.Icon).
		Scan(&community.CreatedAt)
	if err != nil {
		return err
	}

	for _, member := range community.Members {
		if _, err := tx.Exec(ctx, `
			INSERT INTO community_members (community_id, user_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING
		`, community.ID, member); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (s *PostgresStore) communityMembers(ctx context.Context, communityID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT user_id FROM community_members WHERE community_id = $1 ORDER BY user_id
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
func (s *PostgresStore) GetCommunity(ctx context.Context, id string) (*models.Community, error) {
	community := &models.Community{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, description, icon, created_at FROM communities WHERE id = $1
	`, id).Scan(
		&community.ID,
		&community.Name,
		&community.Description,
		&community.Icon,
		&community.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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
func (s *PostgresStore) ListCommunities(ctx context.Context) ([]models.Community, error) {
	rows, err := s.pool.Query(ctx, `
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
func (s *PostgresStore) AddCommunityMember(ctx context.Context, communityID, userID string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO community_members (community_id, user_id) VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, communityID, userID)
	return err
}

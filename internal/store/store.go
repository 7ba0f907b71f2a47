package store

import (
	"context"

	"github.com/Sathishkumar1405/chat-app/internal/models"
)

// DataStore defines the interface for persistent storage of users, chats,
// messages and communities. Both PostgresStore and SQLiteStore implement it.
// Point lookups return (nil, nil) when the row does not exist.
type DataStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// User operations
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUserStatus(ctx context.Context, id, status, statusMedia, statusMediaType string) error
	UpdateUserProfile(ctx context.Context, id, name, avatar, status string) error

	// Chat operations
	CreateChat(ctx context.Context, chat *models.Chat) error
	GetChat(ctx context.Context, id string) (*models.Chat, error)
	GetChatsForUser(ctx context.Context, userID string) ([]models.Chat, error)
	FindPersonalChat(ctx context.Context, userA, userB string) (*models.Chat, error)
	UpdateChatLastMessage(ctx context.Context, id string, last models.LastMessage) error
	SetDisappearingDuration(ctx context.Context, id string, seconds int64) error

	// Message operations
	InsertMessage(ctx context.Context, msg *models.Message) error
	GetChatMessages(ctx context.Context, chatID string, nowMillis int64) ([]models.Message, error)
	GetMessage(ctx context.Context, id string) (*models.Message, error)
	SetMessageStarred(ctx context.Context, id string, starred bool) error
	DeleteMessage(ctx context.Context, id string) error
	PurgeExpiredMessages(ctx context.Context, nowMillis int64) (int64, error)

	// Community operations
	CreateCommunity(ctx context.Context, community *models.Community) error
	GetCommunity(ctx context.Context, id string) (*models.Community, error)
	ListCommunities(ctx context.Context) ([]models.Community, error)
	AddCommunityMember(ctx context.Context, communityID, userID string) error
}

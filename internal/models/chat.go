package models

import "time"

// Chat types.
const (
	ChatTypePersonal = "personal"
	ChatTypeGroup    = "group"
	ChatTypeChannel  = "channel"
)

// LastMessage is the denormalized summary shown in chat lists.
// Timestamp is Unix milliseconds, taken from the message envelope.
type LastMessage struct {
	Text      string `json:"text"`
	Timestamp int64  `json:"timestamp"`
}

// Chat represents a conversation between two or more users.
type Chat struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Type        string      `json:"type"` // personal, group or channel
	CommunityID string      `json:"communityId,omitempty"`
	Members     []string    `json:"members"`
	AdminID     string      `json:"admin,omitempty"`
	GroupIcon   string      `json:"groupIcon,omitempty"`
	LastMessage LastMessage `json:"lastMessage"`

	// DisappearingMessagesDuration is in seconds; 0 means off.
	DisappearingMessagesDuration int64 `json:"disappearingMessagesDuration"`

	CreatedAt time.Time `json:"createdAt"`
}

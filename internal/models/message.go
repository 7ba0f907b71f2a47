package models

// Message types.
const (
	MessageTypeText        = "text"
	MessageTypeImage       = "image"
	MessageTypeFile        = "file"
	MessageTypeVoice       = "voice"
	MessageTypePoll        = "poll"
	MessageTypeChannelPost = "channel_post"
)

// Delivery statuses.
const (
	StatusSent      = "sent"
	StatusDelivered = "delivered"
	StatusRead      = "read"
)

// Message represents a persisted chat message. Sender carries the legacy
// "Sender . Receiver" display label; SenderID/SenderName/SenderAvatar are the
// denormalized fields the clients actually use.
type Message struct {
	ID           string `json:"id"` // ULID
	ChatID       string `json:"chatId"`
	Sender       string `json:"sender"`
	Receiver     string `json:"receiver,omitempty"`
	SenderID     string `json:"senderId"`
	ReceiverID   string `json:"receiverId,omitempty"`
	SenderName   string `json:"senderName"`
	SenderAvatar string `json:"senderAvatar,omitempty"`
	Text         string `json:"text"`
	Timestamp    int64  `json:"timestamp"` // Unix ms, from the client envelope
	Status       string `json:"status"`
	Type         string `json:"type"`
	Starred      bool   `json:"starred"`
	FileName     string `json:"fileName,omitempty"`

	// ExpiresAt is Unix ms; 0 means the message never expires.
	ExpiresAt int64 `json:"expiresAt,omitempty"`
}

// Expired reports whether the message has a past expiry at the given time (Unix ms).
func (m *Message) Expired(nowMillis int64) bool {
	return m.ExpiresAt > 0 && m.ExpiresAt <= nowMillis
}

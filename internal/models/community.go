package models

import "time"

// Community groups related chats under one umbrella.
type Community struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Icon        string    `json:"icon,omitempty"`
	Members     []string  `json:"members"`
	CreatedAt   time.Time `json:"createdAt"`
}

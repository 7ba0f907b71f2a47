package models

import "time"

// User represents a registered chat user.
type User struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Password        string    `json:"-"` // bcrypt hash, never serialized
	Avatar          string    `json:"avatar,omitempty"`
	Status          string    `json:"status,omitempty"`
	StatusMedia     string    `json:"statusMedia,omitempty"`
	StatusMediaType string    `json:"statusMediaType,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Sathishkumar1405/chat-app/internal/metrics"
	"github.com/Sathishkumar1405/chat-app/internal/models"
)

// CreateChatRequest represents the create chat request body. The
// userId/otherUserId pair starts (or returns) a personal chat; the
// name/type/members form creates group chats and channels.
type CreateChatRequest struct {
	UserID      string   `json:"userId"`
	OtherUserID string   `json:"otherUserId"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Members     []string `json:"members"`
	CommunityID string   `json:"communityId"`
	Admin       string   `json:"admin"`
}

// GetChat handles fetching one chat by ID.
func (h *Handler) GetChat(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "chatId")

	chat, err := h.db.GetChat(r.Context(), id)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if chat == nil {
		h.Error(w, http.StatusNotFound, "Chat not found")
		return
	}
	h.JSON(w, http.StatusOK, chat)
}

// GetUserChats handles fetching all chats a user belongs to.
func (h *Handler) GetUserChats(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userId")

	chats, err := h.db.GetChatsForUser(r.Context(), userID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to fetch chats")
		return
	}
	if chats == nil {
		chats = []models.Chat{}
	}
	h.JSON(w, http.StatusOK, chats)
}

// CreateChat creates a new chat, or returns the existing personal chat
// between two users.
func (h *Handler) CreateChat(w http.ResponseWriter, r *http.Request) {
	var req CreateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	// Starting a private chat from the frontend.
	if req.UserID != "" && req.OtherUserID != "" {
		existing, err := h.db.FindPersonalChat(r.Context(), req.UserID, req.OtherUserID)
		if err != nil {
			h.Error(w, http.StatusInternalServerError, "database error")
			return
		}
		if existing != nil {
			h.JSON(w, http.StatusOK, existing)
			return
		}

		userA, err := h.db.GetUserByID(r.Context(), req.UserID)
		if err != nil {
			h.Error(w, http.StatusInternalServerError, "database error")
			return
		}
		userB, err := h.db.GetUserByID(r.Context(), req.OtherUserID)
		if err != nil {
			h.Error(w, http.StatusInternalServerError, "database error")
			return
		}
		if userA == nil || userB == nil {
			h.Error(w, http.StatusNotFound, "User not found")
			return
		}

		chat := &models.Chat{
			ID:      uuid.NewString(),
			Name:    userA.Name + " & " + userB.Name,
			Type:    models.ChatTypePersonal,
			Members: []string{req.UserID, req.OtherUserID},
			LastMessage: models.LastMessage{
				Text:      "Start of conversation",
				Timestamp: time.Now().UnixMilli(),
			},
		}
		if err := h.db.CreateChat(r.Context(), chat); err != nil {
			h.Error(w, http.StatusInternalServerError, "failed to create chat")
			return
		}
		metrics.ChatsCreated.WithLabelValues(chat.Type).Inc()
		h.JSON(w, http.StatusCreated, chat)
		return
	}

	// Standard creation for groups and channels.
	if req.Name == "" || req.Type == "" {
		h.Error(w, http.StatusBadRequest, "name and type are required")
		return
	}
	switch req.Type {
	case models.ChatTypePersonal, models.ChatTypeGroup, models.ChatTypeChannel:
	default:
		h.Error(w, http.StatusBadRequest, "invalid chat type")
		return
	}

	chat := &models.Chat{
		ID:          uuid.NewString(),
		Name:        sanitizeName(req.Name),
		Type:        req.Type,
		CommunityID: req.CommunityID,
		Members:     req.Members,
		AdminID:     req.Admin,
		LastMessage: models.LastMessage{
			Text:      "Chat created",
			Timestamp: time.Now().UnixMilli(),
		},
	}
	if err := h.db.CreateChat(r.Context(), chat); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to create chat")
		return
	}
	metrics.ChatsCreated.WithLabelValues(chat.Type).Inc()
	h.JSON(w, http.StatusCreated, chat)
}

// GetChatMessages returns a chat's messages in timestamp order. Messages with
// a past expiry are never returned.
func (h *Handler) GetChatMessages(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatId")

	messages, err := h.db.GetChatMessages(r.Context(), chatID, time.Now().UnixMilli())
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to fetch messages")
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}
	h.JSON(w, http.StatusOK, messages)
}

// SetDisappearingRequest represents the disappearing-messages request body.
type SetDisappearingRequest struct {
	Duration int64 `json:"duration"` // seconds, 0 turns the feature off
}

// SetDisappearing sets a chat's disappearing-messages duration.
func (h *Handler) SetDisappearing(w http.ResponseWriter, r *http.Request) {
	chatID := chi.URLParam(r, "chatId")

	var req SetDisappearingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Duration < 0 {
		h.Error(w, http.StatusBadRequest, "duration must not be negative")
		return
	}

	chat, err := h.db.GetChat(r.Context(), chatID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if chat == nil {
		h.Error(w, http.StatusNotFound, "Chat not found")
		return
	}

	if err := h.db.SetDisappearingDuration(r.Context(), chatID, req.Duration); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to update chat")
		return
	}

	chat.DisappearingMessagesDuration = req.Duration
	h.JSON(w, http.StatusOK, chat)
}

package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Sathishkumar1405/chat-app/internal/metrics"
	"github.com/Sathishkumar1405/chat-app/internal/models"
	"github.com/Sathishkumar1405/chat-app/internal/store"
)

// RegisterUserRequest represents the user registration request body.
type RegisterUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Avatar   string `json:"avatar"`
}

// LoginRequest represents the login request body.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterUser handles user registration.
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Name = sanitizeName(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if req.Name == "" || req.Email == "" || req.Password == "" {
		h.Error(w, http.StatusBadRequest, "name, email and password are required")
		return
	}
	if !isValidEmail(req.Email) {
		h.Error(w, http.StatusBadRequest, "invalid email format")
		return
	}

	existing, err := h.db.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if existing != nil {
		h.Error(w, http.StatusBadRequest, "User already exists")
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to hash password")
		return
	}

	user := &models.User{
		ID:       uuid.NewString(),
		Name:     req.Name,
		Email:    req.Email,
		Password: string(hashed),
		Avatar:   req.Avatar,
	}

	if err := h.db.CreateUser(r.Context(), user); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	metrics.UsersRegistered.Inc()
	h.JSON(w, http.StatusCreated, user)
}

// Login handles user login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := h.db.GetUserByEmail(r.Context(), email)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if user == nil {
		h.Error(w, http.StatusBadRequest, "User not found")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		h.Error(w, http.StatusBadRequest, "Invalid credentials")
		return
	}

	h.JSON(w, http.StatusOK, user)
}

// ListUsers handles fetching all users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.db.ListUsers(r.Context())
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to fetch users")
		return
	}
	if users == nil {
		users = []models.User{}
	}
	h.JSON(w, http.StatusOK, users)
}

// GetUser handles fetching one user by ID.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.db.GetUserByID(r.Context(), id)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if user == nil {
		h.Error(w, http.StatusNotFound, "User not found")
		return
	}
	h.JSON(w, http.StatusOK, user)
}

// UpdateStatusRequest represents the status update request body.
type UpdateStatusRequest struct {
	Status          string `json:"status"`
	StatusMedia     string `json:"statusMedia"`
	StatusMediaType string `json:"statusMediaType"`
}

// UpdateStatus updates a user's status and pushes the change to every
// connected client through the relay.
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.StatusMediaType == "" {
		req.StatusMediaType = "text"
	}

	user, err := h.db.GetUserByID(r.Context(), id)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if user == nil {
		h.Error(w, http.StatusNotFound, "User not found")
		return
	}

	if err := h.db.UpdateUserStatus(r.Context(), id, req.Status, req.StatusMedia, req.StatusMediaType); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to update status")
		return
	}

	// Cache the ephemeral status; best-effort when Redis is configured.
	if h.redis != nil {
		_ = h.redis.SetStatus(r.Context(), &store.CachedStatus{
			UserID:          id,
			Status:          req.Status,
			StatusMedia:     req.StatusMedia,
			StatusMediaType: req.StatusMediaType,
			UpdatedAt:       time.Now().UnixMilli(),
		})
	}

	h.relay.BroadcastStatusUpdate(id, req.Status, req.StatusMedia, req.StatusMediaType)
	metrics.StatusUpdates.Inc()

	user.Status = req.Status
	user.StatusMedia = req.StatusMedia
	user.StatusMediaType = req.StatusMediaType
	h.JSON(w, http.StatusOK, user)
}

// StatusResponse is the status read payload. LastSeen is Unix ms, 0 when
// presence tracking is off or the user has never connected.
type StatusResponse struct {
	UserID          string `json:"userId"`
	Status          string `json:"status"`
	StatusMedia     string `json:"statusMedia,omitempty"`
	StatusMediaType string `json:"statusMediaType,omitempty"`
	LastSeen        int64  `json:"lastSeen,omitempty"`
}

// GetStatus returns a user's current status, preferring the Redis cache (which
// expires statuses after 24h) over the database row.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	user, err := h.db.GetUserByID(r.Context(), id)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if user == nil {
		h.Error(w, http.StatusNotFound, "User not found")
		return
	}

	resp := StatusResponse{
		UserID:          id,
		Status:          user.Status,
		StatusMedia:     user.StatusMedia,
		StatusMediaType: user.StatusMediaType,
	}

	if h.redis != nil {
		if cached, err := h.redis.GetStatus(r.Context(), id); err == nil && cached != nil {
			resp.Status = cached.Status
			resp.StatusMedia = cached.StatusMedia
			resp.StatusMediaType = cached.StatusMediaType
		}
		if lastSeen, err := h.redis.LastSeen(r.Context(), id); err == nil {
			resp.LastSeen = lastSeen
		}
	}

	h.JSON(w, http.StatusOK, resp)
}

// UpdateProfileRequest represents the profile update request body.
type UpdateProfileRequest struct {
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Status string `json:"status"`
}

// UpdateProfile updates a user's name, avatar or status text.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Name = sanitizeName(req.Name)

	user, err := h.db.GetUserByID(r.Context(), id)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if user == nil {
		h.Error(w, http.StatusNotFound, "User not found")
		return
	}

	if err := h.db.UpdateUserProfile(r.Context(), id, req.Name, req.Avatar, req.Status); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to update profile")
		return
	}

	updated, err := h.db.GetUserByID(r.Context(), id)
	if err != nil || updated == nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	h.JSON(w, http.StatusOK, updated)
}

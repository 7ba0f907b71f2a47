package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Sathishkumar1405/chat-app/internal/models"
)

// CreateCommunityRequest represents the create community request body.
type CreateCommunityRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Icon        string   `json:"icon"`
	Members     []string `json:"members"`
}

// CreateCommunity creates a new community.
func (h *Handler) CreateCommunity(w http.ResponseWriter, r *http.Request) {
	var req CreateCommunityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.Name = sanitizeName(req.Name)
	if req.Name == "" {
		h.Error(w, http.StatusBadRequest, "name is required")
		return
	}

	community := &models.Community{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Description: req.Description,
		Icon:        req.Icon,
		Members:     req.Members,
	}
	if err := h.db.CreateCommunity(r.Context(), community); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to create community")
		return
	}
	h.JSON(w, http.StatusCreated, community)
}

// ListCommunities handles fetching all communities.
func (h *Handler) ListCommunities(w http.ResponseWriter, r *http.Request) {
	communities, err := h.db.ListCommunities(r.Context())
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to fetch communities")
		return
	}
	if communities == nil {
		communities = []models.Community{}
	}
	h.JSON(w, http.StatusOK, communities)
}

// GetCommunity handles fetching one community by ID.
func (h *Handler) GetCommunity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	community, err := h.db.GetCommunity(r.Context(), id)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if community == nil {
		h.Error(w, http.StatusNotFound, "Community not found")
		return
	}
	h.JSON(w, http.StatusOK, community)
}

// JoinCommunityRequest represents the join community request body.
type JoinCommunityRequest struct {
	UserID string `json:"userId"`
}

// JoinCommunity adds a user to a community.
func (h *Handler) JoinCommunity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req JoinCommunityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.UserID == "" {
		h.Error(w, http.StatusBadRequest, "userId is required")
		return
	}

	community, err := h.db.GetCommunity(r.Context(), id)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if community == nil {
		h.Error(w, http.StatusNotFound, "Community not found")
		return
	}

	if err := h.db.AddCommunityMember(r.Context(), id, req.UserID); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to join community")
		return
	}

	updated, err := h.db.GetCommunity(r.Context(), id)
	if err != nil || updated == nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	h.JSON(w, http.StatusOK, updated)
}

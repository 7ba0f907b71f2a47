package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// StarMessage toggles a message's starred flag.
func (h *Handler) StarMessage(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "messageId")

	msg, err := h.db.GetMessage(r.Context(), messageID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if msg == nil {
		h.Error(w, http.StatusNotFound, "Message not found")
		return
	}

	msg.Starred = !msg.Starred
	if err := h.db.SetMessageStarred(r.Context(), messageID, msg.Starred); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to update message")
		return
	}
	h.JSON(w, http.StatusOK, msg)
}

// DeleteMessage deletes a message by ID.
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "messageId")

	msg, err := h.db.GetMessage(r.Context(), messageID)
	if err != nil {
		h.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	if msg == nil {
		h.Error(w, http.StatusNotFound, "Message not found")
		return
	}

	if err := h.db.DeleteMessage(r.Context(), messageID); err != nil {
		h.Error(w, http.StatusInternalServerError, "failed to delete message")
		return
	}
	h.JSON(w, http.StatusOK, map[string]string{"message": "Message deleted"})
}

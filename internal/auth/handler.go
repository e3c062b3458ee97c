package auth

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
)

// Handler issues development tokens so local tools and the browser editor
// can attribute edits without an account system.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type devTokenRequest struct {
	DisplayName string `json:"displayName"`
}

type devTokenResponse struct {
	Token string   `json:"token"`
	User  Identity `json:"user"`
}

func (h *Handler) DevToken(w http.ResponseWriter, r *http.Request) {
	var req devTokenRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	}
	if req.DisplayName == "" {
		req.DisplayName = "Anonymous"
	}

	id := Identity{UserID: "user-" + uuid.NewString()[:8], DisplayName: req.DisplayName}
	token, err := h.service.IssueToken(id)
	if err != nil {
		slog.Error("issue token failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusCreated, devTokenResponse{Token: token, User: id})
}

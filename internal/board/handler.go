package board

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/qadash/whiteboard/internal/auth"
	"github.com/qadash/whiteboard/internal/document"
	"github.com/qadash/whiteboard/internal/engine"
)

const maxSnapshotSize = 8 << 20 // 8MB

type Handler struct {
	service *Service
	editor  engine.Options
	// boards writable without a token
	openBoards map[string]bool
}

func NewHandler(service *Service, editor engine.Options, openBoards ...string) *Handler {
	open := make(map[string]bool, len(openBoards))
	for _, id := range openBoards {
		open[id] = true
	}
	return &Handler{service: service, editor: editor, openBoards: open}
}

type createRequest struct {
	Sample bool `json:"sample"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing token"})
		return
	}

	var req createRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
	}

	b, err := h.service.Create(r.Context(), userID, req.Sample)
	if err != nil {
		slog.Error("create board failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusCreated, b)
}

func (h *Handler) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	boardID := mux.Vars(r)["boardId"]

	snap, err := h.service.GetSnapshot(r.Context(), boardID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) PutSnapshot(w http.ResponseWriter, r *http.Request) {
	boardID := mux.Vars(r)["boardId"]
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" && !h.openBoards[boardID] {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "missing token"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxSnapshotSize)
	var snap document.Snapshot
	if err := json.NewDecoder(r.Body).Decode(&snap); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid snapshot: " + err.Error()})
		return
	}

	if err := h.service.PutSnapshot(r.Context(), boardID, userID, snap); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// EditorConfig returns the tuning the browser editor should start with.
func (h *Handler) EditorConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.editor)
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "board not found"})
	case errors.Is(err, ErrStale):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, ErrInvalidSnapshot):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	default:
		slog.Error("board service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

package export

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/qadash/whiteboard/internal/engine"
	"github.com/qadash/whiteboard/internal/store"
)

// Handler serves GET /api/boards/{boardId}/export.pdf.
type Handler struct {
	store store.SnapshotStore
	log   *slog.Logger
}

func NewHandler(s store.SnapshotStore, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{store: s, log: log}
}

func (h *Handler) ExportPDF(w http.ResponseWriter, r *http.Request) {
	boardID := mux.Vars(r)["boardId"]

	snap, err := h.store.Load(r.Context(), boardID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			http.Error(w, "board not found", http.StatusNotFound)
			return
		}
		h.log.Error("load board for export", "error", err, "board", boardID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	// render fully before writing so a failure can still set the status
	var buf bytes.Buffer
	err = WritePDF(&buf, engine.CompileDrawCommands(snap.Scene(), nil), PDFOptions{
		Title:     boardID,
		CreatedAt: snap.UpdatedAt,
	})
	if err != nil {
		h.log.Error("render pdf", "error", err, "board", boardID)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.pdf"`, sanitizeName(boardID)))
	w.Header().Set("Content-Length", fmt.Sprintf("%d", buf.Len()))
	w.Write(buf.Bytes())

	h.log.Info("board exported", "board", boardID, "elements", len(snap.Elements), "bytes", buf.Len())
}

func sanitizeName(name string) string {
	if name == "" {
		return "board"
	}
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)
}

package relay

import (
	"net/http"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/qadash/whiteboard/internal/auth"
)

// Handler upgrades /ws/board/{boardId} requests and joins them to the hub.
type Handler struct {
	hub            *Hub
	auth           *auth.Service
	originPatterns []string
	// boards anyone may join without a token
	openBoards map[string]bool
}

func NewHandler(hub *Hub, authSvc *auth.Service, originPatterns []string, openBoards ...string) *Handler {
	open := make(map[string]bool, len(openBoards))
	for _, id := range openBoards {
		open[id] = true
	}
	return &Handler{hub: hub, auth: authSvc, originPatterns: originPatterns, openBoards: open}
}

func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	boardID := mux.Vars(r)["boardId"]
	if boardID == "" {
		http.Error(w, "missing board id", http.StatusBadRequest)
		return
	}

	var id auth.Identity
	token := r.URL.Query().Get("token")
	switch {
	case token != "":
		var err error
		id, err = h.auth.ValidateToken(token)
		if err != nil {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
	case h.openBoards[boardID]:
		id = auth.Identity{UserID: "anon-" + uuid.NewString()[:8], DisplayName: "Anonymous"}
	default:
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: h.originPatterns,
	})
	if err != nil {
		h.hub.log.Error("websocket accept", "error", err)
		return
	}

	client := newClient(h.hub, conn, id.UserID, id.DisplayName, boardID, uuid.NewString())
	if err := h.hub.Register(client); err != nil {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}

	ctx := r.Context()
	go client.writePump(ctx)
	client.readPump(ctx)
}

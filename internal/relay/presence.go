package relay

import (
	"encoding/json"
	"log/slog"
	"maps"
	"sync"

	"github.com/qadash/whiteboard/internal/collab"
)

// presenceTable tracks the latest cursor and selection of every user in a
// room.
type presenceTable struct {
	mu        sync.RWMutex
	presences map[string]*collab.PresencePayload // userID -> presence
}

func newPresenceTable() *presenceTable {
	return &presenceTable{
		presences: make(map[string]*collab.PresencePayload),
	}
}

func (pt *presenceTable) update(userID string, p *collab.PresencePayload) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	pt.presences[userID] = p
}

func (pt *presenceTable) remove(userID string) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	delete(pt.presences, userID)
}

func (pt *presenceTable) all() map[string]*collab.PresencePayload {
	pt.mu.RLock()
	defer pt.mu.RUnlock()
	return maps.Clone(pt.presences)
}

func (pt *presenceTable) stateMessage() *collab.Message {
	payload, err := json.Marshal(collab.PresenceStatePayload{Presences: pt.all()})
	if err != nil {
		slog.Error("marshal presence state", "error", err)
		return nil
	}
	return &collab.Message{
		Type:    collab.TypePresenceState,
		Payload: payload,
	}
}

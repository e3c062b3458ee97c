// Package collab defines how the editor announces committed edits to other
// participants. Incoming actions are observed but never merged into the
// local scene.
package collab

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/qadash/whiteboard/internal/typeid"
)

// Transport carries editor actions. Implementations must not block the
// caller on network I/O.
type Transport interface {
	SendAction(ctx context.Context, action Action) error
	OnIncomingAction(handler func(Action))
}

// NewAction builds an action with a fresh ID and the current time.
func NewAction(actionType, actorID string, payload any) (Action, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return Action{}, fmt.Errorf("marshal %s payload: %w", actionType, err)
		}
		raw = data
	}
	return Action{
		ID:        typeid.NewActionID(),
		Type:      actionType,
		ActorID:   actorID,
		Timestamp: time.Now().UnixMilli(),
		Payload:   raw,
	}, nil
}

// LogTransport records outgoing actions in the log and never delivers any.
type LogTransport struct {
	log *slog.Logger

	mu      sync.Mutex
	handler func(Action)
}

func NewLogTransport(log *slog.Logger) *LogTransport {
	if log == nil {
		log = slog.Default()
	}
	return &LogTransport{log: log}
}

func (t *LogTransport) SendAction(_ context.Context, action Action) error {
	t.log.Info("collab action", "id", action.ID, "type", action.Type, "actor", action.ActorID, "bytes", len(action.Payload))
	return nil
}

func (t *LogTransport) OnIncomingAction(handler func(Action)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = handler
}

// Deliver hands an action to the registered handler as if it had arrived
// from a peer.
func (t *LogTransport) Deliver(action Action) {
	t.mu.Lock()
	handler := t.handler
	t.mu.Unlock()
	if handler != nil {
		handler(action)
	}
}

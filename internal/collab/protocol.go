package collab

import "encoding/json"

// Message is the envelope exchanged with the board relay.
type Message struct {
	Type     string          `json:"type"`
	BoardID  string          `json:"boardId,omitempty"`
	ClientID string          `json:"clientId,omitempty"`
	UserID   string          `json:"userId,omitempty"`
	Seq      int64           `json:"seq,omitempty"`
	Payload  json.RawMessage `json:"payload"`
}

type PresencePayload struct {
	Cursor      *CursorPos `json:"cursor,omitempty"`
	Selection   []string   `json:"selection,omitempty"`
	DisplayName string     `json:"displayName,omitempty"`
}

type CursorPos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PresenceStatePayload struct {
	Presences map[string]*PresencePayload `json:"presences"`
}

type PresenceJoinPayload struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
}

type PresenceLeavePayload struct {
	UserID string `json:"userId"`
}

type ErrorPayload struct {
	Reason string `json:"reason"`
}

const (
	TypePresenceUpdate = "presence.update"
	TypePresenceState  = "presence.state"
	TypePresenceJoin   = "presence.join"
	TypePresenceLeave  = "presence.leave"
	TypeError          = "error"

	TypeWelcome = "welcome"

	// Action relay. Actions are broadcast in relay order; nobody merges them.
	TypeActionSubmit    = "action.submit"
	TypeActionBroadcast = "action.broadcast"
)

// Action types emitted by the editor after each commit.
const (
	ActionCreate    = "element.create"
	ActionMove      = "element.move"
	ActionDelete    = "element.delete"
	ActionStyle     = "element.style"
	ActionGroup     = "element.group"
	ActionUngroup   = "element.ungroup"
	ActionComponent = "element.component"
	ActionUndo      = "history.undo"
	ActionRedo      = "history.redo"
)

// Action describes one committed edit.
type Action struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	ActorID   string          `json:"actorId,omitempty"`
	BoardID   string          `json:"boardId,omitempty"`
	Timestamp int64           `json:"timestamp"`
	Seq       int64           `json:"seq,omitempty"` // stamped by the relay
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type ActionPayload struct {
	Action Action `json:"action"`
}

type WelcomePayload struct {
	ClientID string `json:"clientId"`
	Seq      int64  `json:"seq"`
}

// Package relay fans presence and editor actions out to everyone connected
// to the same board. Actions are stamped with a per-board sequence number
// and forwarded as-is; the relay never merges or applies them.
package relay

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/qadash/whiteboard/internal/collab"
	"github.com/qadash/whiteboard/internal/metrics"
)

// ErrHubStopped is returned by Register once Run has returned.
var ErrHubStopped = errors.New("relay hub stopped")

// Limits bound what a single connection may do.
type Limits struct {
	MessagesPerSecond float64 `yaml:"messagesPerSecond"`
	Burst             int     `yaml:"burst"`
	SendBuffer        int     `yaml:"sendBuffer"`
	MaxMessageSize    int64   `yaml:"maxMessageSize"`
}

func DefaultLimits() Limits {
	return Limits{
		MessagesPerSecond: 30,
		Burst:             60,
		SendBuffer:        256,
		MaxMessageSize:    64 * 1024,
	}
}

func (l Limits) withDefaults() Limits {
	def := DefaultLimits()
	if l.MessagesPerSecond <= 0 {
		l.MessagesPerSecond = def.MessagesPerSecond
	}
	if l.Burst <= 0 {
		l.Burst = def.Burst
	}
	if l.SendBuffer <= 0 {
		l.SendBuffer = def.SendBuffer
	}
	if l.MaxMessageSize <= 0 {
		l.MaxMessageSize = def.MaxMessageSize
	}
	return l
}

type room struct {
	boardID  string
	clients  map[string]*Client // clientID -> client
	presence *presenceTable
	seq      int64
}

func newRoom(boardID string) *room {
	return &room{
		boardID:  boardID,
		clients:  make(map[string]*Client),
		presence: newPresenceTable(),
	}
}

type Hub struct {
	mu         sync.RWMutex
	rooms      map[string]*room // boardID -> room
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	limits  Limits
	log     *slog.Logger
	metrics *metrics.Metrics
}

func NewHub(limits Limits, log *slog.Logger, m *metrics.Metrics) *Hub {
	if log == nil {
		log = slog.Default()
	}
	return &Hub{
		rooms:      make(map[string]*room),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		limits:     limits.withDefaults(),
		log:        log,
		metrics:    m,
	}
}

// Run processes joins and leaves until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ctx.Done():
			return
		}
	}
}

// Register joins client to its board room.
func (h *Hub) Register(client *Client) error {
	select {
	case h.register <- client:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

// leave is a no-op once the hub has stopped.
func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Rooms returns how many boards have connected clients.
func (h *Hub) Rooms() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	rm, ok := h.rooms[client.BoardID]
	if !ok {
		rm = newRoom(client.BoardID)
		h.rooms[client.BoardID] = rm
	}
	rm.clients[client.ClientID] = client

	// welcome goes out before any broadcast can reach the new client
	welcome, _ := json.Marshal(collab.WelcomePayload{ClientID: client.ClientID, Seq: rm.seq})
	client.Send(&collab.Message{Type: collab.TypeWelcome, BoardID: client.BoardID, Payload: welcome})
	if stateMsg := rm.presence.stateMessage(); stateMsg != nil {
		client.Send(stateMsg)
	}
	h.metrics.SetRooms(len(h.rooms))
	h.mu.Unlock()
	h.metrics.ClientJoined()

	joinPayload, _ := json.Marshal(collab.PresenceJoinPayload{
		UserID:      client.UserID,
		DisplayName: client.DisplayName,
	})
	h.broadcastToRoom(client.BoardID, &collab.Message{
		Type:    collab.TypePresenceJoin,
		UserID:  client.UserID,
		Payload: joinPayload,
	}, client.ClientID)

	h.log.Info("client joined", "user", client.UserID, "board", client.BoardID)
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	rm, ok := h.rooms[client.BoardID]
	if !ok || rm.clients[client.ClientID] != client {
		h.mu.Unlock()
		return
	}

	delete(rm.clients, client.ClientID)
	close(client.send)
	rm.presence.remove(client.UserID)

	if len(rm.clients) == 0 {
		delete(h.rooms, client.BoardID)
	}
	h.metrics.SetRooms(len(h.rooms))
	h.mu.Unlock()
	h.metrics.ClientLeft()

	leavePayload, _ := json.Marshal(collab.PresenceLeavePayload{UserID: client.UserID})
	h.broadcastToRoom(client.BoardID, &collab.Message{
		Type:    collab.TypePresenceLeave,
		UserID:  client.UserID,
		Payload: leavePayload,
	}, "")

	h.log.Info("client left", "user", client.UserID, "board", client.BoardID)
}

func (h *Hub) handleMessage(sender *Client, msg *collab.Message) {
	h.metrics.MessageReceived(msg.Type)
	switch msg.Type {
	case collab.TypePresenceUpdate:
		h.handlePresenceUpdate(sender, msg)
	case collab.TypeActionSubmit:
		h.handleActionSubmit(sender, msg)
	default:
		h.log.Warn("unknown message type", "type", msg.Type, "user", sender.UserID)
		sender.sendError("unknown message type")
	}
}

func (h *Hub) handlePresenceUpdate(sender *Client, msg *collab.Message) {
	var presence collab.PresencePayload
	if err := json.Unmarshal(msg.Payload, &presence); err != nil {
		h.log.Warn("invalid presence payload", "error", err)
		return
	}

	presence.DisplayName = sender.DisplayName

	h.mu.RLock()
	rm, ok := h.rooms[sender.BoardID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	rm.presence.update(sender.UserID, &presence)

	outPayload, _ := json.Marshal(presence)
	h.broadcastToRoom(sender.BoardID, &collab.Message{
		Type:    collab.TypePresenceUpdate,
		UserID:  sender.UserID,
		Payload: outPayload,
	}, sender.ClientID)
}

// handleActionSubmit stamps the action with the sender's identity and the
// next room sequence number, then forwards it to every other client.
// Stamping and queueing happen under one lock so delivery order matches
// sequence order.
func (h *Hub) handleActionSubmit(sender *Client, msg *collab.Message) {
	var payload collab.ActionPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.Action.Type == "" {
		h.log.Warn("invalid action payload", "error", err, "user", sender.UserID)
		sender.sendError("invalid action")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	rm, ok := h.rooms[sender.BoardID]
	if !ok {
		return
	}
	rm.seq++

	payload.Action.ActorID = sender.UserID
	payload.Action.BoardID = sender.BoardID
	payload.Action.Seq = rm.seq
	out, err := json.Marshal(payload)
	if err != nil {
		h.log.Error("marshal action", "error", err)
		return
	}

	broadcast := &collab.Message{
		Type:     collab.TypeActionBroadcast,
		BoardID:  sender.BoardID,
		ClientID: sender.ClientID,
		UserID:   sender.UserID,
		Seq:      rm.seq,
		Payload:  out,
	}
	for _, c := range rm.clients {
		if c.ClientID != sender.ClientID {
			c.Send(broadcast)
		}
	}
}

// broadcastToRoom holds the read lock while queueing so no client channel
// is closed mid-send. Send never blocks.
func (h *Hub) broadcastToRoom(boardID string, msg *collab.Message, excludeClientID string) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	rm, ok := h.rooms[boardID]
	if !ok {
		return
	}
	for _, c := range rm.clients {
		if c.ClientID != excludeClientID {
			c.Send(msg)
		}
	}
}

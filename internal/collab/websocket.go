package collab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
)

const (
	writeWait   = 10 * time.Second
	sendBuffer  = 256
	maxReadSize = 256 * 1024
)

var ErrSendBufferFull = errors.New("collab send buffer full")

// WSTransport relays actions through the board relay over a websocket.
type WSTransport struct {
	conn   *websocket.Conn
	log    *slog.Logger
	send   chan []byte
	cancel context.CancelFunc
	done   chan struct{}

	mu      sync.Mutex
	handler func(Action)
}

// Dial connects to a relay URL such as ws://host/ws/board/<id>?token=...
func Dial(ctx context.Context, url string, log *slog.Logger) (*WSTransport, error) {
	if log == nil {
		log = slog.Default()
	}
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial relay: %w", err)
	}
	conn.SetReadLimit(maxReadSize)

	runCtx, cancel := context.WithCancel(context.Background())
	t := &WSTransport{
		conn:   conn,
		log:    log,
		send:   make(chan []byte, sendBuffer),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go t.readPump(runCtx)
	go t.writePump(runCtx)
	return t, nil
}

// SendAction queues the action for delivery and returns immediately.
func (t *WSTransport) SendAction(_ context.Context, action Action) error {
	payload, err := json.Marshal(ActionPayload{Action: action})
	if err != nil {
		return fmt.Errorf("marshal action: %w", err)
	}
	data, err := json.Marshal(Message{Type: TypeActionSubmit, Payload: payload})
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	select {
	case t.send <- data:
		return nil
	default:
		return ErrSendBufferFull
	}
}

func (t *WSTransport) OnIncomingAction(handler func(Action)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handler = handler
}

// Close performs the close handshake and stops both pumps.
func (t *WSTransport) Close() error {
	err := t.conn.Close(websocket.StatusNormalClosure, "")
	t.cancel()
	<-t.done
	return err
}

func (t *WSTransport) readPump(ctx context.Context) {
	for {
		_, data, err := t.conn.Read(ctx)
		if err != nil {
			if ctx.Err() == nil {
				t.log.Debug("relay read error", "error", err)
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.log.Warn("invalid relay message", "error", err)
			continue
		}
		if msg.Type != TypeActionBroadcast {
			continue
		}

		var payload ActionPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			t.log.Warn("invalid action payload", "error", err)
			continue
		}
		payload.Action.Seq = msg.Seq

		t.mu.Lock()
		handler := t.handler
		t.mu.Unlock()
		if handler != nil {
			handler(payload.Action)
		}
	}
}

func (t *WSTransport) writePump(ctx context.Context) {
	defer close(t.done)
	for {
		select {
		case data := <-t.send:
			writeCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := t.conn.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				t.log.Debug("relay write error", "error", err)
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

package relay

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qadash/whiteboard/internal/auth"
	"github.com/qadash/whiteboard/internal/collab"
	"github.com/qadash/whiteboard/internal/metrics"
)

type testRelay struct {
	srv     *httptest.Server
	hub     *Hub
	auth    *auth.Service
	metrics *metrics.Metrics
}

func newTestRelay(t *testing.T, limits Limits) *testRelay {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	m := metrics.New()
	hub := NewHub(limits, nil, m)
	go hub.Run(ctx)

	authSvc := auth.NewService("secret", time.Hour)
	r := mux.NewRouter()
	r.HandleFunc("/ws/board/{boardId}", NewHandler(hub, authSvc, nil, "board_open").ServeWS)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	return &testRelay{srv: srv, hub: hub, auth: authSvc, metrics: m}
}

func (tr *testRelay) dial(t *testing.T, boardID, token string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(tr.srv.URL, "http") + "/ws/board/" + boardID
	if token != "" {
		url += "?token=" + token
	}
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })
	return conn
}

// next reads messages until one of the wanted type arrives.
func next(t *testing.T, conn *websocket.Conn, msgType string) collab.Message {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		_, data, err := conn.Read(ctx)
		require.NoError(t, err)
		var msg collab.Message
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg.Type == msgType {
			return msg
		}
	}
}

func submit(t *testing.T, conn *websocket.Conn, a collab.Action) {
	t.Helper()
	payload, err := json.Marshal(collab.ActionPayload{Action: a})
	require.NoError(t, err)
	data, err := json.Marshal(collab.Message{Type: collab.TypeActionSubmit, Payload: payload})
	require.NoError(t, err)
	require.NoError(t, conn.Write(context.Background(), websocket.MessageText, data))
}

func TestActionsAreStampedAndRelayed(t *testing.T) {
	tr := newTestRelay(t, Limits{})
	token, err := tr.auth.IssueToken(auth.Identity{UserID: "user_a", DisplayName: "A"})
	require.NoError(t, err)

	a := tr.dial(t, "board_1", token)
	next(t, a, collab.TypeWelcome)
	tokenB, err := tr.auth.IssueToken(auth.Identity{UserID: "user_b", DisplayName: "B"})
	require.NoError(t, err)
	b := tr.dial(t, "board_1", tokenB)
	welcome := next(t, b, collab.TypeWelcome)
	var wp collab.WelcomePayload
	require.NoError(t, json.Unmarshal(welcome.Payload, &wp))
	assert.NotEmpty(t, wp.ClientID)
	assert.Equal(t, int64(0), wp.Seq)

	join := next(t, a, collab.TypePresenceJoin)
	assert.Equal(t, "user_b", join.UserID)

	submit(t, a, collab.Action{ID: "act_1", Type: collab.ActionCreate, ActorID: "spoofed"})
	submit(t, a, collab.Action{ID: "act_2", Type: collab.ActionMove})

	for i, want := range []string{"act_1", "act_2"} {
		msg := next(t, b, collab.TypeActionBroadcast)
		var p collab.ActionPayload
		require.NoError(t, json.Unmarshal(msg.Payload, &p))
		assert.Equal(t, want, p.Action.ID)
		assert.Equal(t, int64(i+1), msg.Seq)
		assert.Equal(t, int64(i+1), p.Action.Seq)
		assert.Equal(t, "user_a", p.Action.ActorID)
		assert.Equal(t, "board_1", p.Action.BoardID)
	}
}

func TestRejectsMissingOrBadToken(t *testing.T) {
	tr := newTestRelay(t, Limits{})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	base := "ws" + strings.TrimPrefix(tr.srv.URL, "http") + "/ws/board/board_1"

	_, resp, err := websocket.Dial(ctx, base, nil)
	require.Error(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	_, resp, err = websocket.Dial(ctx, base+"?token=garbage", nil)
	require.Error(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestOpenBoardAllowsAnonymousPresence(t *testing.T) {
	tr := newTestRelay(t, Limits{})
	a := tr.dial(t, "board_open", "")
	next(t, a, collab.TypeWelcome)
	b := tr.dial(t, "board_open", "")
	next(t, b, collab.TypeWelcome)
	join := next(t, a, collab.TypePresenceJoin)
	assert.True(t, strings.HasPrefix(join.UserID, "anon-"))

	payload, _ := json.Marshal(collab.PresencePayload{Cursor: &collab.CursorPos{X: 4, Y: 2}, DisplayName: "spoofed"})
	data, _ := json.Marshal(collab.Message{Type: collab.TypePresenceUpdate, Payload: payload})
	require.NoError(t, b.Write(context.Background(), websocket.MessageText, data))

	msg := next(t, a, collab.TypePresenceUpdate)
	var p collab.PresencePayload
	require.NoError(t, json.Unmarshal(msg.Payload, &p))
	assert.Equal(t, "Anonymous", p.DisplayName)
	assert.Equal(t, 4.0, p.Cursor.X)

	require.NoError(t, b.Close(websocket.StatusNormalClosure, ""))
	leave := next(t, a, collab.TypePresenceLeave)
	assert.Equal(t, join.UserID, leave.UserID)
}

func TestInvalidActionIsRejected(t *testing.T) {
	tr := newTestRelay(t, Limits{})
	a := tr.dial(t, "board_open", "")
	next(t, a, collab.TypeWelcome)

	submit(t, a, collab.Action{ID: "act_1"})
	msg := next(t, a, collab.TypeError)
	var p collab.ErrorPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &p))
	assert.Equal(t, "invalid action", p.Reason)
}

func TestRateLimit(t *testing.T) {
	tr := newTestRelay(t, Limits{MessagesPerSecond: 0.001, Burst: 1})
	a := tr.dial(t, "board_open", "")
	next(t, a, collab.TypeWelcome)

	submit(t, a, collab.Action{ID: "act_1", Type: collab.ActionCreate})
	submit(t, a, collab.Action{ID: "act_2", Type: collab.ActionCreate})

	msg := next(t, a, collab.TypeError)
	var p collab.ErrorPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &p))
	assert.Equal(t, "rate limited", p.Reason)
}

func TestLimitsDefaults(t *testing.T) {
	l := Limits{Burst: 5}.withDefaults()
	assert.Equal(t, 5, l.Burst)
	assert.Equal(t, DefaultLimits().MessagesPerSecond, l.MessagesPerSecond)
	assert.Equal(t, DefaultLimits().SendBuffer, l.SendBuffer)
}

func TestStoppedHubReleasesConnections(t *testing.T) {
	hub := NewHub(Limits{}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	c := newClient(hub, nil, "user_a", "A", "b1", "client_1")
	assert.ErrorIs(t, hub.Register(c), ErrHubStopped)

	left := make(chan struct{})
	go func() {
		hub.leave(c)
		close(left)
	}()
	select {
	case <-left:
	case <-time.After(time.Second):
		t.Fatal("leave blocked on a stopped hub")
	}
}

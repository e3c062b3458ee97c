package collab

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qadash/whiteboard/internal/typeid"
)

func TestNewAction(t *testing.T) {
	a, err := NewAction(ActionMove, "user_1", map[string]any{"dx": 3})
	require.NoError(t, err)

	assert.NoError(t, typeid.Validate(a.ID, typeid.PrefixAction))
	assert.Equal(t, ActionMove, a.Type)
	assert.Equal(t, "user_1", a.ActorID)
	assert.Positive(t, a.Timestamp)
	assert.JSONEq(t, `{"dx":3}`, string(a.Payload))

	a, err = NewAction(ActionUndo, "", nil)
	require.NoError(t, err)
	assert.Nil(t, a.Payload)

	_, err = NewAction(ActionStyle, "", make(chan int))
	assert.ErrorContains(t, err, "marshal element.style payload")
}

func TestLogTransport(t *testing.T) {
	tr := NewLogTransport(nil)
	require.NoError(t, tr.SendAction(context.Background(), Action{ID: "act_1", Type: ActionCreate}))

	// no handler yet
	tr.Deliver(Action{ID: "act_0"})

	var got []string
	tr.OnIncomingAction(func(a Action) { got = append(got, a.ID) })
	tr.Deliver(Action{ID: "act_2"})
	assert.Equal(t, []string{"act_2"}, got)
}

func TestActionWireFormat(t *testing.T) {
	data, err := json.Marshal(Action{ID: "act_1", Type: ActionDelete, Timestamp: 5, Seq: 9})
	require.NoError(t, err)
	s := string(data)
	assert.True(t, strings.Contains(s, `"type":"element.delete"`))
	assert.True(t, strings.Contains(s, `"seq":9`))
	assert.False(t, strings.Contains(s, "actorId"))
}

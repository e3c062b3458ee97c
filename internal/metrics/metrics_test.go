package metrics

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qadash/whiteboard/internal/document"
	"github.com/qadash/whiteboard/internal/store"
)

func TestInstrumentStore(t *testing.T) {
	m := New()
	s := InstrumentStore(store.NewMemory(), m)
	ctx := context.Background()

	_, err := s.Load(ctx, "b1")
	require.ErrorIs(t, err, store.ErrNotFound)
	require.NoError(t, s.Save(ctx, "b1", document.NewScene().Snapshot(2, time.Now())))
	require.ErrorIs(t, s.Save(ctx, "b1", document.NewScene().Snapshot(1, time.Now())), store.ErrStale)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.snapshotOps.WithLabelValues("load", "not_found")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.snapshotOps.WithLabelValues("save", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.snapshotOps.WithLabelValues("save", "stale")))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	m.ClientJoined()
	m.ClientLeft()
	m.SetRooms(3)
	m.MessageReceived("x")
	m.MessageDropped("y")

	s := store.NewMemory()
	assert.Same(t, s, InstrumentStore(s, nil))
}

func TestHandlerExposesRelayGauges(t *testing.T) {
	m := New()
	m.ClientJoined()
	m.ClientJoined()
	m.ClientLeft()
	m.SetRooms(1)
	m.MessageDropped("rate_limited")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "whiteboard_relay_clients 1")
	assert.Contains(t, string(body), "whiteboard_relay_rooms 1")
	assert.Contains(t, string(body), `whiteboard_relay_dropped_total{reason="rate_limited"} 1`)
}

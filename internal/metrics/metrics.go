// Package metrics exposes board server counters for Prometheus.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/qadash/whiteboard/internal/document"
	"github.com/qadash/whiteboard/internal/store"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	registry *prometheus.Registry

	snapshotOps      *prometheus.CounterVec
	snapshotDuration *prometheus.HistogramVec
	relayClients     prometheus.Gauge
	relayRooms       prometheus.Gauge
	relayMessages    *prometheus.CounterVec
	relayDropped     *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		snapshotOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "whiteboard",
			Name:      "snapshot_operations_total",
			Help:      "Snapshot loads and saves by result.",
		}, []string{"op", "result"}),
		snapshotDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "whiteboard",
			Name:      "snapshot_duration_seconds",
			Help:      "Snapshot store latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),
		relayClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "whiteboard",
			Name:      "relay_clients",
			Help:      "Connected relay clients.",
		}),
		relayRooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "whiteboard",
			Name:      "relay_rooms",
			Help:      "Boards with at least one connected client.",
		}),
		relayMessages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "whiteboard",
			Name:      "relay_messages_total",
			Help:      "Messages received by the relay by type.",
		}, []string{"type"}),
		relayDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "whiteboard",
			Name:      "relay_dropped_total",
			Help:      "Messages dropped by the relay by reason.",
		}, []string{"reason"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		m.snapshotOps,
		m.snapshotDuration,
		m.relayClients,
		m.relayRooms,
		m.relayMessages,
		m.relayDropped,
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ClientJoined() {
	if m != nil {
		m.relayClients.Inc()
	}
}

func (m *Metrics) ClientLeft() {
	if m != nil {
		m.relayClients.Dec()
	}
}

func (m *Metrics) SetRooms(n int) {
	if m != nil {
		m.relayRooms.Set(float64(n))
	}
}

func (m *Metrics) MessageReceived(msgType string) {
	if m != nil {
		m.relayMessages.WithLabelValues(msgType).Inc()
	}
}

func (m *Metrics) MessageDropped(reason string) {
	if m != nil {
		m.relayDropped.WithLabelValues(reason).Inc()
	}
}

func (m *Metrics) observeSnapshot(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	result := "ok"
	switch {
	case err == nil:
	case errors.Is(err, store.ErrNotFound):
		result = "not_found"
	case errors.Is(err, store.ErrStale):
		result = "stale"
	default:
		result = "error"
	}
	m.snapshotOps.WithLabelValues(op, result).Inc()
	m.snapshotDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

type instrumentedStore struct {
	next    store.SnapshotStore
	metrics *Metrics
}

// InstrumentStore counts and times every call to s.
func InstrumentStore(s store.SnapshotStore, m *Metrics) store.SnapshotStore {
	if m == nil {
		return s
	}
	return &instrumentedStore{next: s, metrics: m}
}

func (s *instrumentedStore) Load(ctx context.Context, boardID string) (*document.Snapshot, error) {
	start := time.Now()
	snap, err := s.next.Load(ctx, boardID)
	s.metrics.observeSnapshot("load", start, err)
	return snap, err
}

func (s *instrumentedStore) Save(ctx context.Context, boardID string, snap document.Snapshot) error {
	start := time.Now()
	err := s.next.Save(ctx, boardID, snap)
	s.metrics.observeSnapshot("save", start, err)
	return err
}

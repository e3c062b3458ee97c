// Package history keeps the linear undo/redo stack of a board and mirrors
// the visible state to durable storage.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/qadash/whiteboard/internal/document"
)

const defaultSaveTimeout = 10 * time.Second

// ErrClosed reports a change made after Close; it is kept in memory only.
var ErrClosed = errors.New("history closed")

// Persister receives every state the history makes visible.
// Save must be idempotent; the newest Version wins.
type Persister interface {
	Save(ctx context.Context, snap document.Snapshot) error
}

type Option func(*Manager)

func WithPersister(p Persister) Option {
	return func(m *Manager) { m.persister = p }
}

// WithErrorHandler registers a callback for failed saves. It runs on the
// saver goroutine, or on the caller for changes made after Close.
func WithErrorHandler(fn func(error)) Option {
	return func(m *Manager) { m.onError = fn }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func WithSaveTimeout(d time.Duration) Option {
	return func(m *Manager) { m.saveTimeout = d }
}

// WithBaseVersion continues version numbering from a loaded snapshot.
func WithBaseVersion(v int64) Option {
	return func(m *Manager) { m.version = v }
}

// Manager is a linear snapshot history. entries[pointer] is always the
// visible scene. It is not safe for concurrent use.
type Manager struct {
	entries []*document.Scene
	pointer int
	version int64

	persister   Persister
	onError     func(error)
	log         *slog.Logger
	now         func() time.Time
	saveTimeout time.Duration
	saver       *saver
}

// New starts a history whose only entry is a copy of initial.
func New(initial *document.Scene, opts ...Option) *Manager {
	if initial == nil {
		initial = document.NewScene()
	}
	m := &Manager{
		entries:     []*document.Scene{initial.Clone()},
		log:         slog.Default(),
		now:         time.Now,
		saveTimeout: defaultSaveTimeout,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.persister != nil {
		m.saver = newSaver(m.persister, m.saveTimeout, m.log, m.onError)
		go m.saver.run()
	}
	return m
}

// Commit drops any redo entries, pushes a copy of scene and persists it.
func (m *Manager) Commit(scene *document.Scene) {
	m.entries = append(m.entries[:m.pointer+1], scene.Clone())
	m.pointer = len(m.entries) - 1
	m.persist()
}

// Undo steps back one entry and returns a copy of it.
// ok is false at the oldest entry.
func (m *Manager) Undo() (*document.Scene, bool) {
	if m.pointer == 0 {
		return nil, false
	}
	m.pointer--
	m.persist()
	return m.entries[m.pointer].Clone(), true
}

// Redo steps forward one entry and returns a copy of it.
// ok is false at the newest entry.
func (m *Manager) Redo() (*document.Scene, bool) {
	if m.pointer == len(m.entries)-1 {
		return nil, false
	}
	m.pointer++
	m.persist()
	return m.entries[m.pointer].Clone(), true
}

// Current returns a copy of the visible entry.
func (m *Manager) Current() *document.Scene {
	return m.entries[m.pointer].Clone()
}

func (m *Manager) Len() int { return len(m.entries) }
func (m *Manager) Pointer() int { return m.pointer }
func (m *Manager) CanUndo() bool { return m.pointer > 0 }
func (m *Manager) CanRedo() bool { return m.pointer < len(m.entries)-1 }
func (m *Manager) Version() int64 { return m.version }

// Close waits for the pending save to finish or ctx to expire.
func (m *Manager) Close(ctx context.Context) error {
	if m.saver == nil {
		return nil
	}
	return m.saver.close(ctx)
}

func (m *Manager) persist() {
	m.version++
	if m.saver == nil {
		return
	}
	if err := m.saver.enqueue(m.entries[m.pointer].Snapshot(m.version, m.now())); err != nil {
		err = fmt.Errorf("save snapshot v%d: %w", m.version, err)
		m.log.Warn("snapshot not saved", "error", err)
		if m.onError != nil {
			m.onError(err)
		}
	}
}

// Package store holds the persistence contracts for board snapshots.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/qadash/whiteboard/internal/document"
)

var (
	ErrNotFound = errors.New("snapshot not found")
	// ErrStale is returned when a save carries an older version than the
	// stored snapshot.
	ErrStale = errors.New("snapshot is older than stored version")
)

// SnapshotStore persists the latest snapshot of many boards.
type SnapshotStore interface {
	Load(ctx context.Context, boardID string) (*document.Snapshot, error)
	Save(ctx context.Context, boardID string, snap document.Snapshot) error
}

// Bridge is the persistence view of a single board used by an editing
// session: one Load at session start, Save after every visible change.
type Bridge interface {
	Load(ctx context.Context) (*document.Snapshot, error)
	Save(ctx context.Context, snap document.Snapshot) error
}

type boardBridge struct {
	store   SnapshotStore
	boardID string
}

// Bind narrows a SnapshotStore to one board. A save older than the stored
// version fails with ErrStale so the session can tell the user that
// another writer is ahead.
func Bind(s SnapshotStore, boardID string) Bridge {
	return &boardBridge{store: s, boardID: boardID}
}

func (b *boardBridge) Load(ctx context.Context) (*document.Snapshot, error) {
	return b.store.Load(ctx, b.boardID)
}

func (b *boardBridge) Save(ctx context.Context, snap document.Snapshot) error {
	if err := b.store.Save(ctx, b.boardID, snap); err != nil {
		return fmt.Errorf("board %s: %w", b.boardID, err)
	}
	return nil
}

// Memory is an in-process SnapshotStore, used for the playground board
// and in tests.
type Memory struct {
	mu    sync.RWMutex
	snaps map[string]document.Snapshot
}

func NewMemory() *Memory {
	return &Memory{snaps: make(map[string]document.Snapshot)}
}

func (m *Memory) Load(_ context.Context, boardID string) (*document.Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snaps[boardID]
	if !ok {
		return nil, ErrNotFound
	}
	out := snap
	out.Elements = snap.Scene().Elements
	return &out, nil
}

func (m *Memory) Save(_ context.Context, boardID string, snap document.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if cur, ok := m.snaps[boardID]; ok && snap.Version < cur.Version {
		return ErrStale
	}
	snap.Elements = snap.Scene().Elements
	m.snaps[boardID] = snap
	return nil
}

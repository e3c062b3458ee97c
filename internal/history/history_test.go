package history

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qadash/whiteboard/internal/document"
)

type recordingPersister struct {
	mu    sync.Mutex
	saved []document.Snapshot
	err   error
}

func (p *recordingPersister) Save(_ context.Context, snap document.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.saved = append(p.saved, snap)
	return nil
}

func (p *recordingPersister) last() (document.Snapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.saved) == 0 {
		return document.Snapshot{}, false
	}
	return p.saved[len(p.saved)-1], true
}

func sceneWith(n int) *document.Scene {
	scene := document.NewScene()
	for i := 0; i < n; i++ {
		scene.Append(document.NewElement(fmt.Sprintf("el_%d", i), float64(i*10), 0, &document.Rect{Width: 5, Height: 5}))
	}
	return scene
}

func TestUndoRedoRoundTrip(t *testing.T) {
	for _, n := range []int{1, 2, 5, 12} {
		t.Run(fmt.Sprintf("%d commits", n), func(t *testing.T) {
			m := New(document.NewScene())
			for i := 1; i <= n; i++ {
				m.Commit(sceneWith(i))
			}

			for i := 0; i < n; i++ {
				_, ok := m.Undo()
				require.True(t, ok)
			}
			assert.Equal(t, 0, m.Current().Len())
			_, ok := m.Undo()
			assert.False(t, ok, "undo past the first entry must be a no-op")
			assert.Equal(t, 0, m.Pointer())

			var last *document.Scene
			for i := 0; i < n; i++ {
				last, ok = m.Redo()
				require.True(t, ok)
			}
			assert.Equal(t, sceneWith(n).IDs(), last.IDs())
			_, ok = m.Redo()
			assert.False(t, ok, "redo past the last entry must be a no-op")
		})
	}
}

func TestCommitAfterUndoTruncatesRedo(t *testing.T) {
	m := New(document.NewScene())
	m.Commit(sceneWith(1))
	m.Commit(sceneWith(2))
	m.Commit(sceneWith(3))

	m.Undo()
	m.Undo()
	require.True(t, m.CanRedo())

	m.Commit(sceneWith(4))

	assert.Equal(t, 3, m.Len())
	assert.Equal(t, 2, m.Pointer())
	assert.False(t, m.CanRedo())
	assert.Equal(t, 4, m.Current().Len())

	prev, ok := m.Undo()
	require.True(t, ok)
	assert.Equal(t, 1, prev.Len())
}

func TestEntriesAreIsolatedFromCaller(t *testing.T) {
	live := sceneWith(1)
	m := New(document.NewScene())
	m.Commit(live)

	live.Elements[0].X = 500
	live.Append(document.NewElement("extra", 0, 0, &document.Rect{}))

	cur := m.Current()
	assert.Equal(t, 1, cur.Len())
	assert.Equal(t, 0.0, cur.Elements[0].X)

	cur.Elements[0].X = 42
	assert.Equal(t, 0.0, m.Current().Elements[0].X)
}

func TestPersistsVisibleState(t *testing.T) {
	p := &recordingPersister{}
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := New(document.NewScene(), WithPersister(p), WithClock(func() time.Time { return at }), WithBaseVersion(10))

	m.Commit(sceneWith(1))
	m.Commit(sceneWith(2))
	m.Undo()

	require.NoError(t, m.Close(context.Background()))

	snap, ok := p.last()
	require.True(t, ok)
	assert.Equal(t, int64(13), snap.Version)
	assert.Len(t, snap.Elements, 1)
	assert.True(t, snap.UpdatedAt.Equal(at))
}

func TestSaveFailureIsReportedNotFatal(t *testing.T) {
	p := &recordingPersister{err: errors.New("disk full")}
	errs := make(chan error, 4)
	m := New(document.NewScene(), WithPersister(p), WithErrorHandler(func(err error) { errs <- err }))

	m.Commit(sceneWith(1))

	select {
	case err := <-errs:
		assert.ErrorContains(t, err, "disk full")
	case <-time.After(2 * time.Second):
		t.Fatal("save error was not reported")
	}

	assert.Equal(t, 2, m.Len())
	assert.Equal(t, 1, m.Current().Len())
	require.NoError(t, m.Close(context.Background()))
}

func TestCloseWithoutPersister(t *testing.T) {
	m := New(nil)
	assert.Equal(t, 1, m.Len())
	assert.NoError(t, m.Close(context.Background()))
}

func TestChangesAfterCloseAreReported(t *testing.T) {
	p := &recordingPersister{}
	var reported []error
	m := New(document.NewScene(), WithPersister(p), WithErrorHandler(func(err error) {
		reported = append(reported, err)
	}))

	m.Commit(sceneWith(1))
	require.NoError(t, m.Close(context.Background()))
	saved, ok := p.last()
	require.True(t, ok)
	assert.Equal(t, int64(1), saved.Version)

	m.Commit(sceneWith(2))
	require.Len(t, reported, 1)
	assert.ErrorIs(t, reported[0], ErrClosed)
	assert.Equal(t, 2, m.Current().Len(), "the change stays in memory")

	_, ok = m.Undo()
	require.True(t, ok)
	assert.Len(t, reported, 2)

	saved, _ = p.last()
	assert.Equal(t, int64(1), saved.Version)
}

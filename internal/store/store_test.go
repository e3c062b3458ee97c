package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qadash/whiteboard/internal/document"
)

func TestMemoryStore(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_, err := m.Load(ctx, "b1")
	require.ErrorIs(t, err, ErrNotFound)

	scene := document.NewScene(document.NewElement("a", 0, 0, &document.Rect{Width: 5, Height: 5}))
	require.NoError(t, m.Save(ctx, "b1", scene.Snapshot(2, time.Now())))

	// the stored copy is isolated from the caller's scene
	scene.Elements[0].X = 100
	got, err := m.Load(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, got.Elements[0].X)

	got.Elements[0].X = 50
	again, err := m.Load(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, 0.0, again.Elements[0].X)

	assert.ErrorIs(t, m.Save(ctx, "b1", document.NewScene().Snapshot(1, time.Now())), ErrStale)
}

func TestBindReportsStale(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	b := Bind(m, "b1")

	require.NoError(t, b.Save(ctx, document.NewScene().Snapshot(5, time.Now())))
	err := b.Save(ctx, document.NewScene().Snapshot(3, time.Now()))
	assert.ErrorIs(t, err, ErrStale)
	assert.ErrorContains(t, err, "b1")

	got, err := b.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Version)
}

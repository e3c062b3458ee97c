package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qadash/whiteboard/internal/document"
)

func groupScene() *document.Scene {
	return document.NewScene(
		rectEl("a", 10, 10, 40, 40),
		lineEl("b", 100, 5, 120, 70),
		rectEl("c", 300, 300, 10, 10),
	)
}

func TestGroupElements(t *testing.T) {
	e, _ := newTestEditor(t, groupScene())
	before := e.Scene().Clone()

	id, err := e.GroupElements([]string{"b", "a"})
	require.NoError(t, err)

	scene := e.Scene()
	require.Equal(t, 4, scene.Len())
	frame := scene.Elements[3]
	assert.Equal(t, id, frame.ID)
	assert.Equal(t, Rect{X: 0, Y: -5, Width: 130, Height: 85}, Bounds(frame))
	assert.True(t, frame.Shape.(*document.Frame).IsGroup)
	assert.False(t, frame.IsMaster)
	assert.Equal(t, []string{id}, e.Selection())

	for i, el := range before.Elements {
		assert.Equal(t, el, scene.Elements[i], "members are not modified")
	}
	assert.Equal(t, 2, e.History().Len())
}

func TestGroupNeedsTwoElements(t *testing.T) {
	e, _ := newTestEditor(t, groupScene())

	for _, ids := range [][]string{nil, {"a"}, {"a", "a"}, {"a", "missing"}} {
		_, err := e.GroupElements(ids)
		assert.ErrorIs(t, err, ErrGroupTooSmall)
	}
	assert.Equal(t, 3, e.Scene().Len())
	assert.Equal(t, 1, e.History().Len())
}

func TestGroupSelectionThenUndo(t *testing.T) {
	e, _ := newTestEditor(t, groupScene())
	e.SetSelection([]string{"a", "c"})
	_, err := e.GroupSelection()
	require.NoError(t, err)
	require.Equal(t, 4, e.Scene().Len())

	require.True(t, e.Undo())
	assert.Equal(t, []string{"a", "b", "c"}, e.Scene().IDs())
}

func TestCreateComponentSingleElement(t *testing.T) {
	e, _ := newTestEditor(t, groupScene())

	id, err := e.CreateComponent([]string{"a"}, "Button")
	require.NoError(t, err)
	assert.Equal(t, "a", id)

	a := e.Scene().Get("a")
	assert.True(t, a.IsMaster)
	assert.Equal(t, "Button", a.ComponentName)
	assert.Equal(t, 3, e.Scene().Len())
	assert.Equal(t, 2, e.History().Len())
}

func TestCreateComponentManyElements(t *testing.T) {
	e, _ := newTestEditor(t, groupScene())

	id, err := e.CreateComponent([]string{"a", "b"}, "")
	require.NoError(t, err)

	master := e.Scene().Get(id)
	require.NotNil(t, master)
	assert.True(t, master.IsMaster)
	assert.Equal(t, "Component", master.ComponentName)
	assert.False(t, master.Shape.(*document.Frame).IsGroup)
	assert.Equal(t, Rect{X: 0, Y: -5, Width: 130, Height: 85}, Bounds(master))
	assert.False(t, e.Scene().Get("a").IsMaster)
	assert.Equal(t, []string{id}, e.Selection())
}

func TestCreateComponentEmpty(t *testing.T) {
	e, _ := newTestEditor(t, groupScene())
	_, err := e.CreateComponent(nil, "X")
	assert.ErrorIs(t, err, ErrEmptySelection)
	assert.Equal(t, 1, e.History().Len())
}

func TestUngroup(t *testing.T) {
	e, _ := newTestEditor(t, groupScene())
	_, err := e.GroupElements([]string{"a", "b"})
	require.NoError(t, err)

	require.NoError(t, e.Ungroup())
	assert.Equal(t, []string{"a", "b", "c"}, e.Scene().IDs())
	assert.Empty(t, e.Selection())
	assert.Equal(t, 3, e.History().Len())
}

func TestUngroupRequiresGroupFrame(t *testing.T) {
	e, _ := newTestEditor(t, groupScene())
	assert.ErrorIs(t, e.Ungroup(), ErrNotAGroup)

	e.SetSelection([]string{"a"})
	assert.ErrorIs(t, e.Ungroup(), ErrNotAGroup)

	id, err := e.CreateComponent([]string{"a", "b"}, "Card")
	require.NoError(t, err)
	e.SetSelection([]string{id})
	assert.ErrorIs(t, e.Ungroup(), ErrNotAGroup)
	assert.Equal(t, 4, e.Scene().Len())
}

func TestZeroPaddingAndToleranceAreKept(t *testing.T) {
	opts := DefaultOptions()
	opts.GroupPadding = 0
	opts.HitTolerance = 0
	assert.Equal(t, opts, opts.withDefaults())
	assert.Equal(t, DefaultOptions(), Options{}.withDefaults())

	e := New(groupScene(), Config{Options: opts, ScreenWidth: 1000, ScreenHeight: 1000})
	defer e.Close(context.Background())

	id, err := e.GroupElements([]string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, Rect{X: 10, Y: 5, Width: 110, Height: 65}, Bounds(e.Scene().Get(id)))

	// 3 units off the stroke only hits with a tolerance
	_, ok := e.HitTestScreen(500, 303)
	assert.False(t, ok)
	e.Scene().Append(lineEl("l", 400, 300, 600, 300))
	_, ok = e.HitTestScreen(500, 303)
	assert.False(t, ok)
	_, ok = e.HitTestScreen(500, 300.5)
	assert.True(t, ok)
}

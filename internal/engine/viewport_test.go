package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestViewportStartsAtIdentity(t *testing.T) {
	v := NewViewport(800, 600, Options{})
	x, y := v.ToScene(120, 45)
	assert.InDelta(t, 120.0, x, 1e-9)
	assert.InDelta(t, 45.0, y, 1e-9)
	assert.True(t, v.Matrix().IsIdentity())
}

func TestZoomKeepsMidpoint(t *testing.T) {
	v := NewViewport(800, 600, Options{})
	v.ZoomIn()

	assert.InDelta(t, 1.2, v.Zoom(), 1e-9)
	assert.InDelta(t, 800/1.2, v.Width, 1e-9)
	assert.InDelta(t, 600/1.2, v.Height, 1e-9)

	cx, cy := v.ToScene(400, 300)
	assert.InDelta(t, 400.0, cx, 1e-9)
	assert.InDelta(t, 300.0, cy, 1e-9)

	// a screen point maps through the zoom
	x, y := v.ToScene(0, 0)
	assert.InDelta(t, 400-400/1.2, x, 1e-9)
	assert.InDelta(t, 300-300/1.2, y, 1e-9)

	v.ZoomOut()
	assert.InDelta(t, 1.0, v.Zoom(), 1e-9)
	assert.InDelta(t, 0.0, v.X, 1e-9)
}

func TestZoomIsClamped(t *testing.T) {
	v := NewViewport(800, 600, Options{MinZoom: 0.5, MaxZoom: 2})
	for i := 0; i < 20; i++ {
		v.ZoomIn()
	}
	assert.InDelta(t, 2.0, v.Zoom(), 1e-9)
	for i := 0; i < 40; i++ {
		v.ZoomOut()
	}
	assert.InDelta(t, 0.5, v.Zoom(), 1e-9)
}

func TestPanStepIsConstantOnScreen(t *testing.T) {
	v := NewViewport(800, 600, Options{PanStep: 40})
	v.Pan(1, 0)
	assert.InDelta(t, 40.0, v.X, 1e-9)

	v = NewViewport(800, 600, Options{PanStep: 40})
	v.ZoomIn()
	v.ZoomIn()
	before := v.X
	sx, _ := v.ToScreen(100, 0)
	v.Pan(1, -1)
	sx2, _ := v.ToScreen(100, 0)
	assert.InDelta(t, 40.0, sx-sx2, 1e-9)
	assert.InDelta(t, 40/v.Zoom(), v.X-before, 1e-9)
}

func TestResizeKeepsZoom(t *testing.T) {
	v := NewViewport(800, 600, Options{})
	v.ZoomIn()
	v.Resize(1600, 1200)
	assert.InDelta(t, 1.2, v.Zoom(), 1e-9)
	assert.InDelta(t, 1600/1.2, v.Width, 1e-9)
}

func TestVisibleRectFollowsPanAndZoom(t *testing.T) {
	v := NewViewport(800, 600, Options{PanStep: 40})
	v.ZoomIn()
	v.Pan(1, 1)

	r := v.VisibleRect()
	assert.InDelta(t, v.X, r.X, 1e-9)
	assert.InDelta(t, v.Y, r.Y, 1e-9)
	assert.InDelta(t, 800/1.2, r.Width, 1e-9)
	assert.InDelta(t, 600/1.2, r.Height, 1e-9)
}

package engine

import (
	"math"

	"github.com/qadash/whiteboard/internal/document"
)

// Rect represents an axis-aligned bounding box in scene units.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains checks if a point is inside the rect. Edges count as inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width && y >= r.Y && y <= r.Y+r.Height
}

// IsEmpty checks if the rect has negative extent.
// Zero-area boxes (a horizontal line, a fresh draw) still take part in unions.
func (r Rect) IsEmpty() bool {
	return r.Width < 0 || r.Height < 0
}

// Union returns the smallest rect containing both rects.
func (r Rect) Union(other Rect) Rect {
	minX := min(r.X, other.X)
	minY := min(r.Y, other.Y)
	maxX := max(r.X+r.Width, other.X+other.Width)
	maxY := max(r.Y+r.Height, other.Y+other.Height)

	return Rect{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX,
		Height: maxY - minY,
	}
}

// Inset grows the rect by pad on every side (shrinks when pad is negative).
func (r Rect) Inset(pad float64) Rect {
	return Rect{
		X:      r.X - pad,
		Y:      r.Y - pad,
		Width:  r.Width + 2*pad,
		Height: r.Height + 2*pad,
	}
}

// Center returns the center point of the rect.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Bounds returns the effective box of an element. Lines use the box of
// their two endpoints.
func Bounds(el *document.Element) Rect {
	switch s := el.Shape.(type) {
	case *document.Rect:
		return Rect{X: el.X, Y: el.Y, Width: s.Width, Height: s.Height}
	case *document.Frame:
		return Rect{X: el.X, Y: el.Y, Width: s.Width, Height: s.Height}
	case *document.Text:
		return Rect{X: el.X, Y: el.Y, Width: s.Width, Height: s.Height}
	case *document.Image:
		return Rect{X: el.X, Y: el.Y, Width: s.Width, Height: s.Height}
	case *document.Line:
		x1, y1, x2, y2 := lineEndpoints(el, s)
		return Rect{
			X:      min(x1, x2),
			Y:      min(y1, y2),
			Width:  math.Abs(x2 - x1),
			Height: math.Abs(y2 - y1),
		}
	default:
		return Rect{X: el.X, Y: el.Y}
	}
}

// UnionBounds returns the union of the elements' boxes grown by padding.
// ok is false when elements is empty.
func UnionBounds(elements []*document.Element, padding float64) (Rect, bool) {
	if len(elements) == 0 {
		return Rect{}, false
	}
	union := Bounds(elements[0])
	for _, el := range elements[1:] {
		union = union.Union(Bounds(el))
	}
	return union.Inset(padding), true
}

func lineEndpoints(el *document.Element, l *document.Line) (x1, y1, x2, y2 float64) {
	return el.X + l.Points[0].X, el.Y + l.Points[0].Y, el.X + l.Points[1].X, el.Y + l.Points[1].Y
}

// segmentDistance returns the distance from (px, py) to the segment
// (x1, y1)-(x2, y2), projecting onto the segment and clamping to its ends.
func segmentDistance(px, py, x1, y1, x2, y2 float64) float64 {
	dx := x2 - x1
	dy := y2 - y1
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return math.Hypot(px-x1, py-y1)
	}
	t := ((px-x1)*dx + (py-y1)*dy) / lenSq
	t = max(0, min(1, t))
	return math.Hypot(px-(x1+t*dx), py-(y1+t*dy))
}

// boxSize reads width/height of box-shaped elements.
func boxSize(s document.Shape) (w, h float64, ok bool) {
	switch s := s.(type) {
	case *document.Rect:
		return s.Width, s.Height, true
	case *document.Frame:
		return s.Width, s.Height, true
	case *document.Text:
		return s.Width, s.Height, true
	case *document.Image:
		return s.Width, s.Height, true
	case *document.Line:
		return 0, 0, false
	}
	return 0, 0, false
}

// setBoxSize writes width/height of box-shaped elements.
func setBoxSize(s document.Shape, w, h float64) {
	switch s := s.(type) {
	case *document.Rect:
		s.Width, s.Height = w, h
	case *document.Frame:
		s.Width, s.Height = w, h
	case *document.Text:
		s.Width, s.Height = w, h
	case *document.Image:
		s.Width, s.Height = w, h
	case *document.Line:
	}
}

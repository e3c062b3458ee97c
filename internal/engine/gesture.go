package engine

import (
	"math"
	"strings"
	"unicode/utf8"

	"github.com/qadash/whiteboard/internal/collab"
	"github.com/qadash/whiteboard/internal/document"
)

type Tool string

const (
	ToolSelect Tool = "select"
	ToolRect   Tool = "rect"
	ToolLine   Tool = "line"
	ToolText   Tool = "text"
	ToolFrame  Tool = "frame"
	ToolImage  Tool = "image"
	ToolEraser Tool = "eraser" // reserved, does nothing yet
)

// Valid reports whether t is a known tool.
func (t Tool) Valid() bool {
	switch t {
	case ToolSelect, ToolRect, ToolLine, ToolText, ToolFrame, ToolImage, ToolEraser:
		return true
	}
	return false
}

func (t Tool) draws() bool {
	switch t {
	case ToolRect, ToolLine, ToolText, ToolFrame, ToolImage:
		return true
	}
	return false
}

type GestureState int

const (
	StateIdle GestureState = iota
	StateDrawing
	StateDragging
)

// String returns the lowercase state name.
func (s GestureState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDrawing:
		return "drawing"
	case StateDragging:
		return "dragging"
	}
	return "unknown"
}

// Pointer is a pointer event in screen pixels.
type Pointer struct {
	X     float64
	Y     float64
	Shift bool
}

// textCharWidth approximates glyph advance as a fraction of font size.
const (
	textCharWidth  = 0.6
	textLineHeight = 1.4
)

type drawGesture struct {
	id      string
	anchorX float64
	anchorY float64
}

type dragGesture struct {
	startX  float64
	startY  float64
	origins map[string]document.Point
}

// PointerDown starts a select/drag or a draw gesture depending on the tool.
// It is ignored while another gesture is in progress.
func (e *Editor) PointerDown(p Pointer) {
	if e.state != StateIdle {
		return
	}
	x, y := e.viewport.ToScene(p.X, p.Y)

	switch {
	case e.tool == ToolSelect:
		e.beginSelect(x, y, p.Shift)
	case e.tool.draws():
		e.beginDraw(x, y)
	}
}

// PointerMove resizes the element being drawn or moves the selection.
func (e *Editor) PointerMove(p Pointer) {
	x, y := e.viewport.ToScene(p.X, p.Y)

	switch e.state {
	case StateDrawing:
		if el := e.store.Element(e.draw.id); el != nil {
			spanTo(el, e.draw.anchorX, e.draw.anchorY, x, y)
		}
	case StateDragging:
		dx := x - e.drag.startX
		dy := y - e.drag.startY
		for id, origin := range e.drag.origins {
			if el := e.store.Element(id); el != nil {
				el.X = origin.X + dx
				el.Y = origin.Y + dy
			}
		}
	}
}

// PointerUp finishes the current gesture and commits it to history.
func (e *Editor) PointerUp(p Pointer) {
	switch e.state {
	case StateDrawing:
		e.PointerMove(p)
		e.finishDraw()
	case StateDragging:
		e.PointerMove(p)
		e.finishDrag()
	}
	e.state = StateIdle
	e.draw = drawGesture{}
	e.drag = dragGesture{}
}

// CancelGesture abandons the gesture in progress without touching history:
// a drawn element is removed and dragged elements return to their origins.
func (e *Editor) CancelGesture() {
	switch e.state {
	case StateDrawing:
		e.store.Remove(e.draw.id)
	case StateDragging:
		for id, origin := range e.drag.origins {
			if el := e.store.Element(id); el != nil {
				el.X, el.Y = origin.X, origin.Y
			}
		}
	}
	e.state = StateIdle
	e.draw = drawGesture{}
	e.drag = dragGesture{}
}

func (e *Editor) beginSelect(x, y float64, shift bool) {
	id, ok := HitTest(e.store.Scene(), x, y, e.opts.HitTolerance)
	if !ok {
		e.store.ClearSelection()
		return
	}

	if shift {
		e.store.Toggle(id)
	} else {
		e.store.Select(id)
	}

	e.drag = dragGesture{startX: x, startY: y, origins: make(map[string]document.Point)}
	for _, el := range e.store.SelectedElements() {
		e.drag.origins[el.ID] = document.Point{X: el.X, Y: el.Y}
	}
	e.state = StateDragging
}

func (e *Editor) beginDraw(x, y float64) {
	var shape document.Shape
	switch e.tool {
	case ToolRect:
		shape = &document.Rect{}
	case ToolFrame:
		shape = &document.Frame{}
	case ToolText:
		shape = &document.Text{TextColor: document.DefaultTextColor, FontSize: document.DefaultFontSize}
	case ToolImage:
		shape = &document.Image{Src: e.imageSrc}
	case ToolLine:
		shape = &document.Line{}
	default:
		return
	}

	el := document.NewElement(e.newID(), x, y, shape)
	el.OwnerID = e.actorID
	e.store.Append(el)

	e.draw = drawGesture{id: el.ID, anchorX: x, anchorY: y}
	e.state = StateDrawing
}

func (e *Editor) finishDraw() {
	el := e.store.Element(e.draw.id)
	if el == nil {
		return
	}

	if t, ok := el.Shape.(*document.Text); ok {
		content, ok := "", false
		if e.prompter != nil {
			content, ok = e.prompter.PromptText(t.Content)
		}
		if !ok || strings.TrimSpace(content) == "" {
			e.store.Remove(el.ID)
			return
		}
		t.Content = content
		e.fitText(t)
	} else {
		e.applySizeFloor(el)
	}

	e.store.Select(el.ID)
	e.commit(collab.ActionCreate, el)
}

func (e *Editor) finishDrag() {
	moved := false
	for id, origin := range e.drag.origins {
		if el := e.store.Element(id); el != nil && (el.X != origin.X || el.Y != origin.Y) {
			moved = true
			break
		}
	}
	if !moved {
		return
	}

	ids := make([]string, 0, len(e.drag.origins))
	var dx, dy float64
	for _, id := range e.store.Selection() {
		origin, ok := e.drag.origins[id]
		el := e.store.Element(id)
		if !ok || el == nil {
			continue
		}
		ids = append(ids, id)
		dx, dy = el.X-origin.X, el.Y-origin.Y
	}
	e.commit(collab.ActionMove, movePayload{IDs: ids, DX: dx, DY: dy})
}

// spanTo stretches a drawn element from the anchor to (x, y). Lines move
// their second point; boxes take the min corner and absolute extent.
func spanTo(el *document.Element, ax, ay, x, y float64) {
	if l, ok := el.Shape.(*document.Line); ok {
		l.Points[1] = document.Point{X: x - el.X, Y: y - el.Y}
		return
	}
	el.X = min(ax, x)
	el.Y = min(ay, y)
	setBoxSize(el.Shape, math.Abs(x-ax), math.Abs(y-ay))
}

// applySizeFloor snaps degenerate draws up to the minimum size.
func (e *Editor) applySizeFloor(el *document.Element) {
	floor := e.opts.MinShapeSize
	if l, ok := el.Shape.(*document.Line); ok {
		p0, p1 := l.Points[0], l.Points[1]
		if math.Hypot(p1.X-p0.X, p1.Y-p0.Y) < floor {
			l.Points[1] = document.Point{X: p0.X + floor, Y: p0.Y}
		}
		return
	}
	w, h, _ := boxSize(el.Shape)
	setBoxSize(el.Shape, max(w, floor), max(h, floor))
}

// fitText grows a text box to hold its content on one line.
func (e *Editor) fitText(t *document.Text) {
	fontSize := t.FontSize
	if fontSize <= 0 {
		fontSize = document.DefaultFontSize
		t.FontSize = fontSize
	}
	need := float64(utf8.RuneCountInString(t.Content)) * fontSize * textCharWidth
	t.Width = max(t.Width, e.opts.MinTextWidth, need)
	t.Height = max(t.Height, fontSize*textLineHeight)
}

type movePayload struct {
	IDs []string `json:"ids"`
	DX  float64  `json:"dx"`
	DY  float64  `json:"dy"`
}

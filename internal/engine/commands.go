package engine

import (
	"encoding/json"

	"github.com/qadash/whiteboard/internal/document"
)

// Draw ops understood by renderers.
const (
	OpRect      = "rect"
	OpFrame     = "frame"
	OpText      = "text"
	OpImage     = "image"
	OpLine      = "line"
	OpSelection = "selection"
)

// DrawCommand represents a single drawing operation in scene units.
// The frontend receives a list of these and executes them on a Canvas2D
// context after applying the viewport transform.
type DrawCommand struct {
	Op          string    `json:"op"`
	ObjectID    string    `json:"objectId,omitempty"` // For hit correlation
	X           float64   `json:"x"`
	Y           float64   `json:"y"`
	Width       float64   `json:"width,omitempty"`
	Height      float64   `json:"height,omitempty"`
	Points      []float64 `json:"points,omitempty"` // x1, y1, x2, y2
	Fill        string    `json:"fill,omitempty"`
	Stroke      string    `json:"stroke,omitempty"`
	StrokeWidth float64   `json:"strokeWidth,omitempty"`
	Opacity     float64   `json:"opacity"`
	Dashed      bool      `json:"dashed,omitempty"`
	Label       string    `json:"label,omitempty"` // component name
	Text        string    `json:"text,omitempty"`
	TextColor   string    `json:"textColor,omitempty"`
	FontSize    float64   `json:"fontSize,omitempty"`
	Src         string    `json:"src,omitempty"`
}

// Frame is one render pass: the viewport transform plus the commands.
type Frame struct {
	Transform []float64     `json:"transform"`
	Commands  []DrawCommand `json:"commands"`
}

// CompileDrawCommands generates draw commands in painter's order (back to
// front), followed by one selection outline per selected element.
func CompileDrawCommands(scene *document.Scene, selection []string) []DrawCommand {
	if scene == nil {
		return nil
	}

	commands := make([]DrawCommand, 0, len(scene.Elements)+len(selection))
	for _, el := range scene.Elements {
		commands = append(commands, compileElement(el))
	}
	for _, id := range selection {
		el := scene.Get(id)
		if el == nil {
			continue
		}
		box := Bounds(el)
		commands = append(commands, DrawCommand{
			Op:          OpSelection,
			ObjectID:    id,
			X:           box.X,
			Y:           box.Y,
			Width:       box.Width,
			Height:      box.Height,
			Stroke:      "#2563eb",
			StrokeWidth: 1,
			Opacity:     1,
			Dashed:      true,
		})
	}
	return commands
}

func compileElement(el *document.Element) DrawCommand {
	cmd := DrawCommand{
		ObjectID:    el.ID,
		X:           el.X,
		Y:           el.Y,
		Fill:        el.Fill,
		Stroke:      el.StrokeColor,
		StrokeWidth: el.StrokeWidth,
		Opacity:     el.Opacity,
	}
	if el.IsMaster {
		cmd.Label = el.ComponentName
	}

	switch s := el.Shape.(type) {
	case *document.Rect:
		cmd.Op = OpRect
		cmd.Width, cmd.Height = s.Width, s.Height
	case *document.Frame:
		cmd.Op = OpFrame
		cmd.Width, cmd.Height = s.Width, s.Height
		cmd.Dashed = s.IsGroup
	case *document.Text:
		cmd.Op = OpText
		cmd.Width, cmd.Height = s.Width, s.Height
		cmd.Text = s.Content
		cmd.TextColor = s.TextColor
		cmd.FontSize = s.FontSize
	case *document.Image:
		cmd.Op = OpImage
		cmd.Width, cmd.Height = s.Width, s.Height
		cmd.Src = s.Src
	case *document.Line:
		cmd.Op = OpLine
		x1, y1, x2, y2 := lineEndpoints(el, s)
		cmd.Points = []float64{x1, y1, x2, y2}
	}
	return cmd
}

// Render compiles the current scene and selection under the viewport.
func (e *Editor) Render() Frame {
	return Frame{
		Transform: e.viewport.Matrix().ToSlice(),
		Commands:  CompileDrawCommands(e.store.Scene(), e.store.Selection()),
	}
}

// FrameToJSON serializes a frame to JSON.
func FrameToJSON(f Frame) (string, error) {
	data, err := json.Marshal(f)
	if err != nil {
		return `{"transform":[1,0,0,1,0,0],"commands":[]}`, err
	}
	return string(data), nil
}

// RectToJSON serializes a Rect to JSON.
func RectToJSON(r Rect) string {
	data, _ := json.Marshal(r)
	return string(data)
}

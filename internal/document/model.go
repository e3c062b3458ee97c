package document

import (
	"encoding/json"
	"fmt"
	"maps"
)

type ElementType string

const (
	ElementRect  ElementType = "rect"
	ElementText  ElementType = "text"
	ElementImage ElementType = "image"
	ElementLine  ElementType = "line"
	ElementFrame ElementType = "frame"
)

const (
	DefaultStrokeColor = "#1f2937"
	DefaultStrokeWidth = 1.0
	DefaultOpacity     = 1.0
	DefaultTextColor   = "#111827"
	DefaultFontSize    = 16.0
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Shape is the variant-specific geometry of an element.
// The set of implementations is closed: *Rect, *Frame, *Text, *Image and *Line.
type Shape interface {
	Type() ElementType
	clone() Shape
}

type Rect struct {
	Width  float64
	Height float64
}

// Frame is a rectangular container. Groups and multi-element master
// components are frames.
type Frame struct {
	Width   float64
	Height  float64
	IsGroup bool
}

type Text struct {
	Width     float64
	Height    float64
	Content   string
	TextColor string
	FontSize  float64
}

type Image struct {
	Width  float64
	Height float64
	Src    string
}

// Line points are offsets from the owning element's position.
type Line struct {
	Points [2]Point
}

// Type implements Shape.
func (*Rect) Type() ElementType  { return ElementRect }
func (*Frame) Type() ElementType { return ElementFrame }
func (*Text) Type() ElementType  { return ElementText }
func (*Image) Type() ElementType { return ElementImage }
func (*Line) Type() ElementType  { return ElementLine }

func (s *Rect) clone() Shape  { c := *s; return &c }
func (s *Frame) clone() Shape { c := *s; return &c }
func (s *Text) clone() Shape  { c := *s; return &c }
func (s *Image) clone() Shape { c := *s; return &c }
func (s *Line) clone() Shape  { c := *s; return &c }

// Element is one primitive on the board.
type Element struct {
	ID          string
	X           float64
	Y           float64
	StrokeColor string
	StrokeWidth float64
	Fill        string
	Opacity     float64
	OwnerID     string

	// Component metadata. MasterID and InstanceOverrides are carried
	// through persistence but never applied.
	IsMaster          bool
	ComponentName     string
	MasterID          string
	InstanceOverrides map[string]json.RawMessage

	// Prototype link metadata, inert.
	LinkToFrameID   string
	InteractionType string

	Shape Shape
}

// NewElement creates an element with default styling.
func NewElement(id string, x, y float64, shape Shape) *Element {
	return &Element{
		ID:          id,
		X:           x,
		Y:           y,
		StrokeColor: DefaultStrokeColor,
		StrokeWidth: DefaultStrokeWidth,
		Opacity:     DefaultOpacity,
		Shape:       shape,
	}
}

// Type returns the shape kind, or "" when the shape is unset.
func (e *Element) Type() ElementType {
	if e.Shape == nil {
		return ""
	}
	return e.Shape.Type()
}

// Clone returns a deep copy of the element.
func (e *Element) Clone() *Element {
	c := *e
	if e.Shape != nil {
		c.Shape = e.Shape.clone()
	}
	if e.InstanceOverrides != nil {
		c.InstanceOverrides = maps.Clone(e.InstanceOverrides)
	}
	return &c
}

// elementJSON is the flat wire form of an element, discriminated by "type".
type elementJSON struct {
	ID     string      `json:"id"`
	Type   ElementType `json:"type"`
	X      float64     `json:"x"`
	Y      float64     `json:"y"`
	Width  *float64    `json:"width,omitempty"`
	Height *float64    `json:"height,omitempty"`
	Points []Point     `json:"points,omitempty"`

	Text      string  `json:"text,omitempty"`
	TextColor string  `json:"textColor,omitempty"`
	FontSize  float64 `json:"fontSize,omitempty"`
	Src       string  `json:"src,omitempty"`
	IsGroup   bool    `json:"isGroup,omitempty"`

	StrokeColor string   `json:"strokeColor,omitempty"`
	StrokeWidth *float64 `json:"strokeWidth,omitempty"`
	Fill        string   `json:"fill,omitempty"`
	Opacity     *float64 `json:"opacity,omitempty"`
	OwnerID     string   `json:"ownerId,omitempty"`

	IsMaster          bool                       `json:"isMaster,omitempty"`
	ComponentName     string                     `json:"componentName,omitempty"`
	MasterID          string                     `json:"masterId,omitempty"`
	InstanceOverrides map[string]json.RawMessage `json:"instanceOverrides,omitempty"`
	LinkToFrameID     string                     `json:"linkToFrameId,omitempty"`
	InteractionType   string                     `json:"interactionType,omitempty"`
}

// MarshalJSON writes the flat wire form with a type discriminator.
func (e *Element) MarshalJSON() ([]byte, error) {
	strokeWidth := e.StrokeWidth
	opacity := e.Opacity
	w := elementJSON{
		ID:                e.ID,
		X:                 e.X,
		Y:                 e.Y,
		StrokeColor:       e.StrokeColor,
		StrokeWidth:       &strokeWidth,
		Fill:              e.Fill,
		Opacity:           &opacity,
		OwnerID:           e.OwnerID,
		IsMaster:          e.IsMaster,
		ComponentName:     e.ComponentName,
		MasterID:          e.MasterID,
		InstanceOverrides: e.InstanceOverrides,
		LinkToFrameID:     e.LinkToFrameID,
		InteractionType:   e.InteractionType,
	}

	box := func(width, height float64) {
		w.Width = &width
		w.Height = &height
	}

	switch s := e.Shape.(type) {
	case *Rect:
		w.Type = ElementRect
		box(s.Width, s.Height)
	case *Frame:
		w.Type = ElementFrame
		box(s.Width, s.Height)
		w.IsGroup = s.IsGroup
	case *Text:
		w.Type = ElementText
		box(s.Width, s.Height)
		w.Text = s.Content
		w.TextColor = s.TextColor
		w.FontSize = s.FontSize
	case *Image:
		w.Type = ElementImage
		box(s.Width, s.Height)
		w.Src = s.Src
	case *Line:
		w.Type = ElementLine
		w.Points = []Point{s.Points[0], s.Points[1]}
	default:
		return nil, fmt.Errorf("element %s: unknown shape %T", e.ID, e.Shape)
	}

	return json.Marshal(w)
}

// UnmarshalJSON reads the flat wire form. Unknown types are an error.
func (e *Element) UnmarshalJSON(data []byte) error {
	var w elementJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	var width, height float64
	if w.Width != nil {
		width = *w.Width
	}
	if w.Height != nil {
		height = *w.Height
	}

	var shape Shape
	switch w.Type {
	case ElementRect:
		shape = &Rect{Width: width, Height: height}
	case ElementFrame:
		shape = &Frame{Width: width, Height: height, IsGroup: w.IsGroup}
	case ElementText:
		fontSize := w.FontSize
		if fontSize <= 0 {
			fontSize = DefaultFontSize
		}
		textColor := w.TextColor
		if textColor == "" {
			textColor = DefaultTextColor
		}
		shape = &Text{Width: width, Height: height, Content: w.Text, TextColor: textColor, FontSize: fontSize}
	case ElementImage:
		shape = &Image{Width: width, Height: height, Src: w.Src}
	case ElementLine:
		if len(w.Points) != 2 {
			return fmt.Errorf("element %s: line needs 2 points, got %d", w.ID, len(w.Points))
		}
		shape = &Line{Points: [2]Point{w.Points[0], w.Points[1]}}
	default:
		return fmt.Errorf("element %s: unknown type %q", w.ID, w.Type)
	}

	*e = Element{
		ID:                w.ID,
		X:                 w.X,
		Y:                 w.Y,
		StrokeColor:       w.StrokeColor,
		StrokeWidth:       DefaultStrokeWidth,
		Fill:              w.Fill,
		Opacity:           DefaultOpacity,
		OwnerID:           w.OwnerID,
		IsMaster:          w.IsMaster,
		ComponentName:     w.ComponentName,
		MasterID:          w.MasterID,
		InstanceOverrides: w.InstanceOverrides,
		LinkToFrameID:     w.LinkToFrameID,
		InteractionType:   w.InteractionType,
		Shape:             shape,
	}
	if w.StrokeWidth != nil {
		e.StrokeWidth = *w.StrokeWidth
	}
	if w.Opacity != nil {
		e.Opacity = *w.Opacity
	}
	return nil
}

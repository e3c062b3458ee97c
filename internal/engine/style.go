package engine

import (
	"fmt"

	"github.com/qadash/whiteboard/internal/collab"
	"github.com/qadash/whiteboard/internal/document"
)

// StylePatch is a partial style update from the property panel. Nil
// fields are left unchanged.
type StylePatch struct {
	StrokeColor *string  `json:"strokeColor,omitempty"`
	StrokeWidth *float64 `json:"strokeWidth,omitempty"`
	Fill        *string  `json:"fill,omitempty"`
	Opacity     *float64 `json:"opacity,omitempty"`
	TextColor   *string  `json:"textColor,omitempty"`
	FontSize    *float64 `json:"fontSize,omitempty"`
}

// SetElementStyle applies patch to one element and commits the change.
// Opacity is clamped to [0, 1]; a negative stroke width, a non-positive
// font size, or text fields on a non-text element are rejected.
func (e *Editor) SetElementStyle(id string, patch StylePatch) error {
	el := e.store.Element(id)
	if el == nil {
		return fmt.Errorf("%w: %s", ErrElementNotFound, id)
	}

	if patch.StrokeWidth != nil && *patch.StrokeWidth < 0 {
		return fmt.Errorf("%w: stroke width %v", ErrInvalidStyle, *patch.StrokeWidth)
	}
	text, isText := el.Shape.(*document.Text)
	if (patch.TextColor != nil || patch.FontSize != nil) && !isText {
		return fmt.Errorf("%w: %s is not a text element", ErrInvalidStyle, id)
	}
	if patch.FontSize != nil && *patch.FontSize <= 0 {
		return fmt.Errorf("%w: font size %v", ErrInvalidStyle, *patch.FontSize)
	}

	before := el.Clone()
	if patch.StrokeColor != nil {
		el.StrokeColor = *patch.StrokeColor
	}
	if patch.StrokeWidth != nil {
		el.StrokeWidth = *patch.StrokeWidth
	}
	if patch.Fill != nil {
		el.Fill = *patch.Fill
	}
	if patch.Opacity != nil {
		el.Opacity = max(0, min(1, *patch.Opacity))
	}
	if isText {
		if patch.TextColor != nil {
			text.TextColor = *patch.TextColor
		}
		if patch.FontSize != nil {
			text.FontSize = *patch.FontSize
			e.fitText(text)
		}
	}

	if sameStyle(before, el) {
		return nil
	}
	e.commit(collab.ActionStyle, stylePayload{ID: id, Patch: patch})
	return nil
}

func sameStyle(a, b *document.Element) bool {
	if a.StrokeColor != b.StrokeColor || a.StrokeWidth != b.StrokeWidth || a.Fill != b.Fill || a.Opacity != b.Opacity {
		return false
	}
	ta, okA := a.Shape.(*document.Text)
	tb, okB := b.Shape.(*document.Text)
	if okA && okB {
		return *ta == *tb
	}
	return true
}

type stylePayload struct {
	ID    string     `json:"id"`
	Patch StylePatch `json:"patch"`
}

package engine

import (
	"github.com/qadash/whiteboard/internal/document"
)

// HitTest returns the ID of the topmost element containing the scene
// point, testing in reverse paint order. Lines hit within
// strokeWidth+tolerance of their segment.
func HitTest(scene *document.Scene, x, y, tolerance float64) (string, bool) {
	if scene == nil {
		return "", false
	}
	for i := len(scene.Elements) - 1; i >= 0; i-- {
		el := scene.Elements[i]
		if hitElement(el, x, y, tolerance) {
			return el.ID, true
		}
	}
	return "", false
}

func hitElement(el *document.Element, x, y, tolerance float64) bool {
	switch s := el.Shape.(type) {
	case *document.Rect, *document.Frame, *document.Text, *document.Image:
		return Bounds(el).Contains(x, y)
	case *document.Line:
		x1, y1, x2, y2 := lineEndpoints(el, s)
		return segmentDistance(x, y, x1, y1, x2, y2) <= el.StrokeWidth+tolerance
	default:
		return false
	}
}

// SelectionBounds returns the union box of the given elements, skipping
// unknown IDs. ok is false when none resolve.
func SelectionBounds(scene *document.Scene, ids []string) (Rect, bool) {
	elements := make([]*document.Element, 0, len(ids))
	for _, id := range ids {
		if el := scene.Get(id); el != nil {
			elements = append(elements, el)
		}
	}
	return UnionBounds(elements, 0)
}

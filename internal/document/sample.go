package document

import (
	"github.com/qadash/whiteboard/internal/typeid"
)

// NewSampleScene builds the playground board: a titled test-flow sketch
// with two steps joined by a line and grouped under a frame.
func NewSampleScene(ownerID string) *Scene {
	title := NewElement(typeid.NewElementID(), 40, 24, &Text{
		Width:     320,
		Height:    32,
		Content:   "Login flow - regression",
		TextColor: DefaultTextColor,
		FontSize:  22,
	})

	stepA := NewElement(typeid.NewElementID(), 40, 90, &Rect{Width: 160, Height: 80})
	stepA.Fill = "#dbeafe"

	stepB := NewElement(typeid.NewElementID(), 300, 90, &Rect{Width: 160, Height: 80})
	stepB.Fill = "#dcfce7"

	arrow := NewElement(typeid.NewElementID(), 200, 130, &Line{
		Points: [2]Point{{X: 0, Y: 0}, {X: 100, Y: 0}},
	})
	arrow.StrokeWidth = 2

	group := NewElement(typeid.NewElementID(), 30, 80, &Frame{Width: 440, Height: 100, IsGroup: true})
	group.StrokeColor = "#9ca3af"

	scene := NewScene(title, stepA, stepB, arrow, group)
	for _, el := range scene.Elements {
		el.OwnerID = ownerID
	}
	return scene
}

package engine

import (
	"slices"

	"github.com/qadash/whiteboard/internal/document"
)

// Store holds the live scene and the selection. The selection only ever
// names elements present in the scene.
type Store struct {
	scene     *document.Scene
	selection []string
}

// NewStore wraps scene with an empty selection.
func NewStore(scene *document.Scene) *Store {
	if scene == nil {
		scene = document.NewScene()
	}
	return &Store{scene: scene}
}

// Scene returns the live scene. Callers must not keep it across edits.
func (s *Store) Scene() *document.Scene {
	return s.scene
}

// Element returns the live element with id, or nil.
func (s *Store) Element(id string) *document.Element {
	return s.scene.Get(id)
}

// Append adds el on top of the paint order.
func (s *Store) Append(el *document.Element) {
	s.scene.Append(el)
}

// Remove deletes elements and drops them from the selection. It returns
// how many elements were removed.
func (s *Store) Remove(ids ...string) int {
	n := 0
	for _, id := range ids {
		if s.scene.Remove(id) {
			n++
		}
	}
	if n > 0 {
		s.selection = slices.DeleteFunc(s.selection, func(id string) bool {
			return s.scene.Index(id) < 0
		})
	}
	return n
}

// Replace swaps in a whole scene and clears the selection.
func (s *Store) Replace(scene *document.Scene) {
	s.scene = scene
	s.selection = nil
}

// Selection returns a copy of the selected IDs.
func (s *Store) Selection() []string {
	return slices.Clone(s.selection)
}

// IsSelected reports whether id is selected.
func (s *Store) IsSelected(id string) bool {
	return slices.Contains(s.selection, id)
}

// Select replaces the selection, ignoring IDs not in the scene.
func (s *Store) Select(ids ...string) {
	next := make([]string, 0, len(ids))
	for _, id := range ids {
		if s.scene.Index(id) >= 0 && !slices.Contains(next, id) {
			next = append(next, id)
		}
	}
	s.selection = next
}

// Toggle adds the element to the selection or removes it if present.
func (s *Store) Toggle(id string) {
	if i := slices.Index(s.selection, id); i >= 0 {
		s.selection = slices.Delete(s.selection, i, i+1)
		return
	}
	if s.scene.Index(id) >= 0 {
		s.selection = append(s.selection, id)
	}
}

// ClearSelection deselects everything.
func (s *Store) ClearSelection() {
	s.selection = nil
}

// SelectedElement returns the element when exactly one is selected.
func (s *Store) SelectedElement() (*document.Element, bool) {
	if len(s.selection) != 1 {
		return nil, false
	}
	el := s.scene.Get(s.selection[0])
	return el, el != nil
}

// SelectedElements returns the live selected elements, skipping missing IDs.
func (s *Store) SelectedElements() []*document.Element {
	out := make([]*document.Element, 0, len(s.selection))
	for _, id := range s.selection {
		if el := s.scene.Get(id); el != nil {
			out = append(out, el)
		}
	}
	return out
}

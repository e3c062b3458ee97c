package document

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrDuplicateID = errors.New("duplicate element id")
	ErrMissingID   = errors.New("element without id")
)

// Scene is the ordered element list of a board. Later elements paint
// over earlier ones.
type Scene struct {
	Elements []*Element `json:"elements"`
}

// Snapshot is the persisted form of a scene.
type Snapshot struct {
	Elements  []*Element `json:"elements"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Version   int64      `json:"version"`
}

// NewScene returns a scene painting elements in the given order.
func NewScene(elements ...*Element) *Scene {
	return &Scene{Elements: elements}
}

// Len returns the number of elements.
func (s *Scene) Len() int {
	return len(s.Elements)
}

// Index returns the paint position of the element, or -1.
func (s *Scene) Index(id string) int {
	for i, el := range s.Elements {
		if el.ID == id {
			return i
		}
	}
	return -1
}

// Get returns the element with id, or nil.
func (s *Scene) Get(id string) *Element {
	if i := s.Index(id); i >= 0 {
		return s.Elements[i]
	}
	return nil
}

// Append adds the element on top of the paint order.
func (s *Scene) Append(el *Element) {
	s.Elements = append(s.Elements, el)
}

// Remove deletes the element and reports whether it existed.
func (s *Scene) Remove(id string) bool {
	i := s.Index(id)
	if i < 0 {
		return false
	}
	s.Elements = append(s.Elements[:i:i], s.Elements[i+1:]...)
	return true
}

// IDs returns element IDs in paint order.
func (s *Scene) IDs() []string {
	ids := make([]string, len(s.Elements))
	for i, el := range s.Elements {
		ids[i] = el.ID
	}
	return ids
}

// Clone returns a deep copy that shares no element with s.
func (s *Scene) Clone() *Scene {
	out := &Scene{Elements: make([]*Element, len(s.Elements))}
	for i, el := range s.Elements {
		if el != nil {
			out.Elements[i] = el.Clone()
		}
	}
	return out
}

// Validate checks identifier uniqueness.
func (s *Scene) Validate() error {
	seen := make(map[string]struct{}, len(s.Elements))
	for i, el := range s.Elements {
		if el == nil || el.ID == "" {
			return fmt.Errorf("element %d: %w", i, ErrMissingID)
		}
		if _, ok := seen[el.ID]; ok {
			return fmt.Errorf("element %s: %w", el.ID, ErrDuplicateID)
		}
		seen[el.ID] = struct{}{}
	}
	return nil
}

// Snapshot captures a deep copy of the scene for persistence.
func (s *Scene) Snapshot(version int64, at time.Time) Snapshot {
	return Snapshot{
		Elements:  s.Clone().Elements,
		UpdatedAt: at.UTC(),
		Version:   version,
	}
}

// Scene returns a deep copy of the snapshot's elements as a scene.
func (snap Snapshot) Scene() *Scene {
	return NewScene(snap.Elements...).Clone()
}

package engine

import (
	"github.com/qadash/whiteboard/internal/collab"
	"github.com/qadash/whiteboard/internal/document"
)

const defaultComponentName = "Component"

// GroupElements wraps the given elements in a new group frame painted above
// them. Members are left untouched: grouping is purely visual.
func (e *Editor) GroupElements(ids []string) (string, error) {
	members := e.resolve(ids)
	if len(members) < 2 {
		return "", ErrGroupTooSmall
	}

	frame := e.containerFor(members)
	frame.Shape.(*document.Frame).IsGroup = true
	e.store.Append(frame)
	e.store.Select(frame.ID)

	e.commit(collab.ActionGroup, groupPayload{FrameID: frame.ID, IDs: elementIDs(members)})
	return frame.ID, nil
}

// GroupSelection groups the current selection.
func (e *Editor) GroupSelection() (string, error) {
	return e.GroupElements(e.store.Selection())
}

// CreateComponent marks a single element as a master component in place,
// or wraps several elements in a new master frame.
func (e *Editor) CreateComponent(ids []string, name string) (string, error) {
	members := e.resolve(ids)
	if len(members) == 0 {
		return "", ErrEmptySelection
	}
	if name == "" {
		name = defaultComponentName
	}

	target := members[0]
	if len(members) > 1 {
		target = e.containerFor(members)
		e.store.Append(target)
	}
	target.IsMaster = true
	target.ComponentName = name
	e.store.Select(target.ID)

	e.commit(collab.ActionComponent, componentPayload{ID: target.ID, Name: name, IDs: elementIDs(members)})
	return target.ID, nil
}

// Ungroup removes the selected group frame. Its members were never
// reparented, so they stay where they are.
func (e *Editor) Ungroup() error {
	el, ok := e.store.SelectedElement()
	if !ok {
		return ErrNotAGroup
	}
	frame, ok := el.Shape.(*document.Frame)
	if !ok || !frame.IsGroup {
		return ErrNotAGroup
	}

	e.store.Remove(el.ID)
	e.store.ClearSelection()
	e.commit(collab.ActionUngroup, groupPayload{FrameID: el.ID})
	return nil
}

// containerFor builds a frame covering the members' union box plus padding.
func (e *Editor) containerFor(members []*document.Element) *document.Element {
	box, _ := UnionBounds(members, e.opts.GroupPadding)
	frame := document.NewElement(e.newID(), box.X, box.Y, &document.Frame{Width: box.Width, Height: box.Height})
	frame.OwnerID = e.actorID
	return frame
}

// resolve maps IDs to live elements in paint order, dropping unknown and
// repeated IDs.
func (e *Editor) resolve(ids []string) []*document.Element {
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}
	out := make([]*document.Element, 0, len(want))
	for _, el := range e.store.Scene().Elements {
		if _, ok := want[el.ID]; ok {
			out = append(out, el)
		}
	}
	return out
}

func elementIDs(elements []*document.Element) []string {
	ids := make([]string, len(elements))
	for i, el := range elements {
		ids[i] = el.ID
	}
	return ids
}

type groupPayload struct {
	FrameID string   `json:"frameId"`
	IDs     []string `json:"ids,omitempty"`
}

type componentPayload struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	IDs  []string `json:"ids"`
}

package engine

import "strings"

// Key is a keyboard event. Code follows KeyboardEvent.key ("z", "Delete",
// "Escape", ...). Meta is the command key on macOS.
type Key struct {
	Code  string
	Ctrl  bool
	Meta  bool
	Shift bool
}

// HandleKey runs the editor shortcut bound to k and reports whether one
// matched:
//
//	Ctrl/Cmd+Z            undo
//	Ctrl/Cmd+Y            redo
//	Ctrl/Cmd+Shift+Z      redo
//	Delete, Backspace     delete selection
//	Escape                cancel gesture
func (e *Editor) HandleKey(k Key) bool {
	code := strings.ToLower(k.Code)
	primary := k.Ctrl || k.Meta

	switch {
	case primary && code == "z" && k.Shift:
		e.Redo()
	case primary && code == "z":
		e.Undo()
	case primary && code == "y":
		e.Redo()
	case !primary && (code == "delete" || code == "backspace"):
		if err := e.DeleteSelection(); err != nil {
			return false
		}
	case code == "escape":
		e.CancelGesture()
	default:
		return false
	}
	return true
}

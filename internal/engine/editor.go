package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/qadash/whiteboard/internal/collab"
	"github.com/qadash/whiteboard/internal/document"
	"github.com/qadash/whiteboard/internal/history"
	"github.com/qadash/whiteboard/internal/store"
	"github.com/qadash/whiteboard/internal/typeid"
)

var (
	ErrGroupTooSmall   = errors.New("select at least two elements to group")
	ErrNotAGroup       = errors.New("selection is not a group")
	ErrEmptySelection  = errors.New("nothing selected")
	ErrElementNotFound = errors.New("element not found")
	ErrInvalidStyle    = errors.New("invalid style")
	ErrUnknownTool     = errors.New("unknown tool")
)

// TextPrompter asks the user for the content of a new text element.
// ok is false when the user cancels.
type TextPrompter interface {
	PromptText(initial string) (text string, ok bool)
}

// PromptFunc adapts a function to TextPrompter.
type PromptFunc func(initial string) (string, bool)

// PromptText calls f.
func (f PromptFunc) PromptText(initial string) (string, bool) { return f(initial) }

// Notifier surfaces non-fatal failures to the user. Persistence failures
// arrive from a background goroutine.
type Notifier func(err error)

// Config wires an Editor to its collaborators. Every field is optional.
type Config struct {
	Options      Options
	Bridge       store.Bridge
	Transport    collab.Transport
	Prompter     TextPrompter
	Notify       Notifier
	Logger       *slog.Logger
	ActorID      string
	BoardID      string
	NewID        func() string
	ScreenWidth  float64
	ScreenHeight float64
}

// Editor is one editing session over a board. It processes pointer and
// keyboard events synchronously and is not safe for concurrent use.
type Editor struct {
	opts      Options
	store     *Store
	history   *history.Manager
	viewport  *Viewport
	transport collab.Transport
	prompter  TextPrompter
	notify    Notifier
	log       *slog.Logger
	newID     func() string
	actorID   string
	boardID   string

	tool     Tool
	state    GestureState
	imageSrc string
	draw     drawGesture
	drag     dragGesture
}

// Open loads the board through cfg.Bridge and starts a session on it.
// A failed load is reported through cfg.Notify and the session starts empty.
// Its versions then count from the wall clock in milliseconds, so the
// first save outranks whatever snapshot the store already holds.
func Open(ctx context.Context, cfg Config) *Editor {
	var (
		initial *document.Scene
		version int64
	)
	if cfg.Bridge != nil {
		snap, err := cfg.Bridge.Load(ctx)
		switch {
		case errors.Is(err, store.ErrNotFound):
		case err != nil:
			report(cfg, fmt.Errorf("load board: %w", err))
			version = unknownBaseVersion()
		default:
			scene := snap.Scene()
			if err := scene.Validate(); err != nil {
				report(cfg, fmt.Errorf("load board: %w", err))
				version = max(snap.Version, unknownBaseVersion())
				break
			}
			initial = scene
			version = snap.Version
		}
	}
	return newEditor(initial, version, cfg)
}

func unknownBaseVersion() int64 {
	return time.Now().UnixMilli()
}

// New starts a session on scene without loading anything.
func New(scene *document.Scene, cfg Config) *Editor {
	return newEditor(scene, 0, cfg)
}

func newEditor(scene *document.Scene, version int64, cfg Config) *Editor {
	if scene == nil {
		scene = document.NewScene()
	}
	e := &Editor{
		opts:      cfg.Options.withDefaults(),
		store:     NewStore(scene),
		viewport:  NewViewport(cfg.ScreenWidth, cfg.ScreenHeight, cfg.Options),
		transport: cfg.Transport,
		prompter:  cfg.Prompter,
		notify:    cfg.Notify,
		log:       cfg.Logger,
		newID:     cfg.NewID,
		actorID:   cfg.ActorID,
		boardID:   cfg.BoardID,
		tool:      ToolSelect,
	}
	if e.log == nil {
		e.log = slog.Default()
	}
	if e.newID == nil {
		e.newID = typeid.NewElementID
	}
	if e.transport == nil {
		e.transport = collab.NewLogTransport(e.log)
	}
	e.transport.OnIncomingAction(e.handleIncoming)

	opts := []history.Option{
		history.WithLogger(e.log),
		history.WithBaseVersion(version),
		history.WithErrorHandler(e.report),
	}
	if cfg.Bridge != nil {
		opts = append(opts, history.WithPersister(cfg.Bridge))
	}
	e.history = history.New(scene, opts...)
	return e
}

func report(cfg Config, err error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	log.Warn("editor error", "error", err)
	if cfg.Notify != nil {
		cfg.Notify(err)
	}
}

func (e *Editor) report(err error) {
	e.log.Warn("editor error", "error", err, "board", e.boardID)
	if e.notify != nil {
		e.notify(err)
	}
}

// Close flushes the pending save.
func (e *Editor) Close(ctx context.Context) error {
	return e.history.Close(ctx)
}

// --- Queries ---

// Scene returns the live scene. Callers must treat it as read-only.
func (e *Editor) Scene() *document.Scene { return e.store.Scene() }

// Selection returns the selected IDs in selection order.
func (e *Editor) Selection() []string { return e.store.Selection() }

// SelectedElement returns a copy of the single selected element, for the
// property panel.
func (e *Editor) SelectedElement() (*document.Element, bool) {
	el, ok := e.store.SelectedElement()
	if !ok {
		return nil, false
	}
	return el.Clone(), true
}

// SelectionBounds returns the union box of the selection.
func (e *Editor) SelectionBounds() (Rect, bool) {
	return SelectionBounds(e.store.Scene(), e.store.Selection())
}

// Viewport returns the live viewport.
func (e *Editor) Viewport() *Viewport { return e.viewport }
// History exposes the undo stack for inspection.
func (e *Editor) History() *history.Manager { return e.history }
// Tool returns the active tool.
func (e *Editor) Tool() Tool { return e.tool }
// State returns the current gesture state.
func (e *Editor) State() GestureState { return e.state }

// HitTestScreen returns the topmost element under a screen point.
func (e *Editor) HitTestScreen(px, py float64) (string, bool) {
	x, y := e.viewport.ToScene(px, py)
	return HitTest(e.store.Scene(), x, y, e.opts.HitTolerance)
}

// --- Commands ---

// SetTool switches the active tool, abandoning any gesture in progress.
func (e *Editor) SetTool(t Tool) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownTool, t)
	}
	e.CancelGesture()
	e.tool = t
	return nil
}

// SetImageSource sets the source used by the image tool.
func (e *Editor) SetImageSource(src string) {
	e.imageSrc = src
}

// SetSelection replaces the selection, ignoring unknown IDs.
func (e *Editor) SetSelection(ids []string) {
	e.store.Select(ids...)
}

// Undo restores the previous history entry. It reports whether anything
// changed.
func (e *Editor) Undo() bool {
	e.CancelGesture()
	scene, ok := e.history.Undo()
	if !ok {
		return false
	}
	e.store.Replace(scene)
	e.emit(collab.ActionUndo, historyPayload{Pointer: e.history.Pointer()})
	return true
}

// Redo re-applies the next history entry. It reports whether anything
// changed.
func (e *Editor) Redo() bool {
	e.CancelGesture()
	scene, ok := e.history.Redo()
	if !ok {
		return false
	}
	e.store.Replace(scene)
	e.emit(collab.ActionRedo, historyPayload{Pointer: e.history.Pointer()})
	return true
}

// DeleteSelection removes the selected elements.
func (e *Editor) DeleteSelection() error {
	ids := e.store.Selection()
	if len(ids) == 0 {
		return ErrEmptySelection
	}
	e.store.Remove(ids...)
	e.store.ClearSelection()
	e.commit(collab.ActionDelete, idsPayload{IDs: ids})
	return nil
}

// commit records the live scene as a history entry and announces it.
func (e *Editor) commit(actionType string, payload any) {
	e.history.Commit(e.store.Scene())
	e.emit(actionType, payload)
}

func (e *Editor) emit(actionType string, payload any) {
	action, err := collab.NewAction(actionType, e.actorID, payload)
	if err != nil {
		e.log.Warn("build action", "error", err, "type", actionType)
		return
	}
	action.BoardID = e.boardID
	if err := e.transport.SendAction(context.Background(), action); err != nil {
		e.log.Warn("send action", "error", err, "type", actionType)
	}
}

func (e *Editor) handleIncoming(action collab.Action) {
	e.log.Info("remote action ignored", "id", action.ID, "type", action.Type, "actor", action.ActorID, "seq", action.Seq)
}

type idsPayload struct {
	IDs []string `json:"ids"`
}

type historyPayload struct {
	Pointer int `json:"pointer"`
}

//go:build js && wasm

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"syscall/js"

	"github.com/qadash/whiteboard/internal/collab"
	"github.com/qadash/whiteboard/internal/document"
	"github.com/qadash/whiteboard/internal/engine"
	"github.com/qadash/whiteboard/internal/store/httpstore"
	"github.com/qadash/whiteboard/internal/typeid"
)

var (
	mu        sync.Mutex
	ed        *engine.Editor
	transport *collab.WSTransport
)

var errNotOpen = errors.New("no board open")

func main() {
	api := js.Global().Get("Object").New()

	// --- Session ---
	api.Set("open", js.FuncOf(open))
	api.Set("openLocal", js.FuncOf(openLocal))
	api.Set("close", js.FuncOf(closeBoard))

	// --- Input ---
	api.Set("pointerDown", js.FuncOf(pointerDown))
	api.Set("pointerMove", js.FuncOf(pointerMove))
	api.Set("pointerUp", js.FuncOf(pointerUp))
	api.Set("keyDown", js.FuncOf(keyDown))

	// --- Commands ---
	api.Set("setTool", js.FuncOf(setTool))
	api.Set("setImageSource", js.FuncOf(setImageSource))
	api.Set("setSelection", js.FuncOf(setSelection))
	api.Set("undo", js.FuncOf(undo))
	api.Set("redo", js.FuncOf(redo))
	api.Set("deleteSelection", js.FuncOf(deleteSelection))
	api.Set("groupSelection", js.FuncOf(groupSelection))
	api.Set("ungroup", js.FuncOf(ungroup))
	api.Set("createComponent", js.FuncOf(createComponent))
	api.Set("setElementStyle", js.FuncOf(setElementStyle))
	api.Set("zoomIn", js.FuncOf(zoomIn))
	api.Set("zoomOut", js.FuncOf(zoomOut))
	api.Set("pan", js.FuncOf(pan))
	api.Set("resize", js.FuncOf(resize))

	// --- Queries ---
	api.Set("render", js.FuncOf(render))
	api.Set("hitTest", js.FuncOf(hitTest))
	api.Set("getSelection", js.FuncOf(getSelection))
	api.Set("getSelectionBounds", js.FuncOf(getSelectionBounds))
	api.Set("getSelectedElement", js.FuncOf(getSelectedElement))
	api.Set("getScene", js.FuncOf(getScene))
	api.Set("getState", js.FuncOf(getState))

	js.Global().Set("whiteboard", api)
	js.Global().Set("whiteboardWasmReady", js.ValueOf(true))

	select {}
}

// openOptions is the JSON argument of whiteboard.open.
type openOptions struct {
	BaseURL      string         `json:"baseUrl"`
	BoardID      string         `json:"boardId"`
	Token        string         `json:"token"`
	RelayURL     string         `json:"relayUrl"`
	ActorID      string         `json:"actorId"`
	ScreenWidth  float64        `json:"screenWidth"`
	ScreenHeight float64        `json:"screenHeight"`
	Options      engine.Options `json:"options"`
}

// open loads a board from the server and returns a Promise. Network calls
// block, so the work runs on its own goroutine.
func open(this js.Value, args []js.Value) interface{} {
	opts := openOptions{Options: engine.DefaultOptions()}
	if len(args) > 0 {
		if err := json.Unmarshal([]byte(args[0].String()), &opts); err != nil {
			return rejected(fmt.Errorf("invalid options: %w", err))
		}
	}
	if opts.BoardID == "" {
		return rejected(errors.New("boardId is required"))
	}

	return promise(func() (interface{}, error) {
		ctx := context.Background()
		closeCurrent(ctx)

		cfg := editorConfig(opts)
		cfg.Bridge = httpstore.New(opts.BaseURL, opts.BoardID, httpstore.WithToken(opts.Token))
		if opts.RelayURL != "" {
			t, err := collab.Dial(ctx, opts.RelayURL, slog.Default())
			if err != nil {
				// editing works without peers
				notify(fmt.Errorf("connect relay: %w", err))
			} else {
				cfg.Transport = t
			}
		}

		e := engine.Open(ctx, cfg)

		mu.Lock()
		ed = e
		transport, _ = cfg.Transport.(*collab.WSTransport)
		mu.Unlock()
		return map[string]interface{}{"ok": true, "elements": e.Scene().Len()}, nil
	})
}

// openLocal starts an unsaved session, optionally on the sample scene.
func openLocal(this js.Value, args []js.Value) interface{} {
	opts := openOptions{Options: engine.DefaultOptions()}
	if len(args) > 0 && args[0].Type() == js.TypeString {
		_ = json.Unmarshal([]byte(args[0].String()), &opts)
	}
	sample := len(args) > 1 && args[1].Truthy()

	var scene *document.Scene
	if sample {
		scene = document.NewSampleScene(opts.ActorID)
	}
	next := engine.New(scene, editorConfig(opts))

	mu.Lock()
	prevEd, prevT := ed, transport
	ed, transport = next, nil
	mu.Unlock()

	// the previous session may still be flushing a save over fetch
	go release(context.Background(), prevEd, prevT)
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func closeBoard(this js.Value, args []js.Value) interface{} {
	return promise(func() (interface{}, error) {
		closeCurrent(context.Background())
		return map[string]interface{}{"ok": true}, nil
	})
}

func editorConfig(opts openOptions) engine.Config {
	actor := opts.ActorID
	if actor == "" {
		actor = typeid.NewActorID()
	}
	return engine.Config{
		Options:      opts.Options,
		Prompter:     engine.PromptFunc(promptText),
		Notify:       notify,
		ActorID:      actor,
		BoardID:      opts.BoardID,
		ScreenWidth:  opts.ScreenWidth,
		ScreenHeight: opts.ScreenHeight,
	}
}

// closeCurrent detaches the open session and waits for it to flush. It
// blocks, so it must not run on the JavaScript event callback.
func closeCurrent(ctx context.Context) {
	mu.Lock()
	e, t := ed, transport
	ed, transport = nil, nil
	mu.Unlock()
	release(ctx, e, t)
}

func release(ctx context.Context, e *engine.Editor, t *collab.WSTransport) {
	if e != nil {
		if err := e.Close(ctx); err != nil {
			slog.Warn("close editor", "error", err)
		}
	}
	if t != nil {
		t.Close()
	}
}

// promptText uses window.prompt; a null result means the user cancelled.
func promptText(initial string) (string, bool) {
	v := js.Global().Call("prompt", "Text", initial)
	if v.IsNull() || v.IsUndefined() {
		return "", false
	}
	return v.String(), true
}

// notify forwards non-fatal errors to whiteboard.onError when the page
// registered one.
func notify(err error) {
	slog.Warn("whiteboard error", "error", err)
	cb := js.Global().Get("whiteboard").Get("onError")
	if cb.Type() == js.TypeFunction {
		cb.Invoke(err.Error())
	}
}

// withEditor runs fn under the session lock.
func withEditor(fn func(e *engine.Editor) interface{}) interface{} {
	mu.Lock()
	defer mu.Unlock()
	if ed == nil {
		return js.ValueOf(map[string]interface{}{"error": errNotOpen.Error()})
	}
	return fn(ed)
}

func result(err error) interface{} {
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func pointerArg(args []js.Value) engine.Pointer {
	var p engine.Pointer
	if len(args) > 0 {
		p.X = args[0].Float()
	}
	if len(args) > 1 {
		p.Y = args[1].Float()
	}
	if len(args) > 2 {
		p.Shift = args[2].Truthy()
	}
	return p
}

// --- Input Handlers ---

func pointerDown(this js.Value, args []js.Value) interface{} {
	return withEditor(func(e *engine.Editor) interface{} {
		e.PointerDown(pointerArg(args))
		return nil
	})
}

func pointerMove(this js.Value, args []js.Value) interface{} {
	return withEditor(func(e *engine.Editor) interface{} {
		e.PointerMove(pointerArg(args))
		return nil
	})
}

func pointerUp(this js.Value, args []js.Value) interface{} {
	return withEditor(func(e *engine.Editor) interface{} {
		e.PointerUp(pointerArg(args))
		return nil
	})
}

// keyDown takes (key, ctrl, meta, shift) and returns whether a shortcut
// ran, so the page can preventDefault.
func keyDown(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(false)
	}
	k := engine.Key{Code: args[0].String()}
	if len(args) > 1 {
		k.Ctrl = args[1].Truthy()
	}
	if len(args) > 2 {
		k.Meta = args[2].Truthy()
	}
	if len(args) > 3 {
		k.Shift = args[3].Truthy()
	}
	return withEditor(func(e *engine.Editor) interface{} {
		return js.ValueOf(e.HandleKey(k))
	})
}

// --- Command Handlers ---

func setTool(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return result(errors.New("missing tool"))
	}
	tool := engine.Tool(args[0].String())
	return withEditor(func(e *engine.Editor) interface{} {
		return result(e.SetTool(tool))
	})
}

func setImageSource(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	src := args[0].String()
	return withEditor(func(e *engine.Editor) interface{} {
		e.SetImageSource(src)
		return nil
	})
}

func setSelection(this js.Value, args []js.Value) interface{} {
	var ids []string
	if len(args) > 0 && args[0].Type() == js.TypeObject {
		arr := args[0]
		ids = make([]string, arr.Length())
		for i := range ids {
			ids[i] = arr.Index(i).String()
		}
	}
	return withEditor(func(e *engine.Editor) interface{} {
		e.SetSelection(ids)
		return nil
	})
}

func undo(this js.Value, args []js.Value) interface{} {
	return withEditor(func(e *engine.Editor) interface{} {
		return js.ValueOf(e.Undo())
	})
}

func redo(this js.Value, args []js.Value) interface{} {
	return withEditor(func(e *engine.Editor) interface{} {
		return js.ValueOf(e.Redo())
	})
}

func deleteSelection(this js.Value, args []js.Value) interface{} {
	return withEditor(func(e *engine.Editor) interface{} {
		return result(e.DeleteSelection())
	})
}

func groupSelection(this js.Value, args []js.Value) interface{} {
	return withEditor(func(e *engine.Editor) interface{} {
		id, err := e.GroupSelection()
		if err != nil {
			return result(err)
		}
		return js.ValueOf(map[string]interface{}{"ok": true, "id": id})
	})
}

func ungroup(this js.Value, args []js.Value) interface{} {
	return withEditor(func(e *engine.Editor) interface{} {
		return result(e.Ungroup())
	})
}

func createComponent(this js.Value, args []js.Value) interface{} {
	name := ""
	if len(args) > 0 && args[0].Type() == js.TypeString {
		name = args[0].String()
	}
	return withEditor(func(e *engine.Editor) interface{} {
		id, err := e.CreateComponent(e.Selection(), name)
		if err != nil {
			return result(err)
		}
		return js.ValueOf(map[string]interface{}{"ok": true, "id": id})
	})
}

// setElementStyle takes (id, patchJSON).
func setElementStyle(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return result(errors.New("missing id or style"))
	}
	id := args[0].String()
	var patch engine.StylePatch
	if err := json.Unmarshal([]byte(args[1].String()), &patch); err != nil {
		return result(fmt.Errorf("invalid style: %w", err))
	}
	return withEditor(func(e *engine.Editor) interface{} {
		return result(e.SetElementStyle(id, patch))
	})
}

func zoomIn(this js.Value, args []js.Value) interface{} {
	return withEditor(func(e *engine.Editor) interface{} {
		e.Viewport().ZoomIn()
		return js.ValueOf(e.Viewport().Zoom())
	})
}

func zoomOut(this js.Value, args []js.Value) interface{} {
	return withEditor(func(e *engine.Editor) interface{} {
		e.Viewport().ZoomOut()
		return js.ValueOf(e.Viewport().Zoom())
	})
}

// pan takes direction steps, e.g. (1, 0) for one step right.
func pan(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	dx, dy := args[0].Float(), args[1].Float()
	return withEditor(func(e *engine.Editor) interface{} {
		e.Viewport().Pan(dx, dy)
		return nil
	})
}

func resize(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	w, h := args[0].Float(), args[1].Float()
	return withEditor(func(e *engine.Editor) interface{} {
		e.Viewport().Resize(w, h)
		return nil
	})
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return withEditor(func(e *engine.Editor) interface{} {
		data, _ := engine.FrameToJSON(e.Render())
		return js.ValueOf(data)
	})
}

func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("")
	}
	x, y := args[0].Float(), args[1].Float()
	return withEditor(func(e *engine.Editor) interface{} {
		id, _ := e.HitTestScreen(x, y)
		return js.ValueOf(id)
	})
}

func getSelection(this js.Value, args []js.Value) interface{} {
	return withEditor(func(e *engine.Editor) interface{} {
		return js.ValueOf(toJSON(e.Selection()))
	})
}

func getSelectionBounds(this js.Value, args []js.Value) interface{} {
	return withEditor(func(e *engine.Editor) interface{} {
		box, ok := e.SelectionBounds()
		if !ok {
			return js.Null()
		}
		return js.ValueOf(engine.RectToJSON(box))
	})
}

func getSelectedElement(this js.Value, args []js.Value) interface{} {
	return withEditor(func(e *engine.Editor) interface{} {
		el, ok := e.SelectedElement()
		if !ok {
			return js.Null()
		}
		return js.ValueOf(toJSON(el))
	})
}

func getScene(this js.Value, args []js.Value) interface{} {
	return withEditor(func(e *engine.Editor) interface{} {
		return js.ValueOf(toJSON(e.Scene()))
	})
}

func getState(this js.Value, args []js.Value) interface{} {
	return withEditor(func(e *engine.Editor) interface{} {
		h := e.History()
		return js.ValueOf(map[string]interface{}{
			"tool":    string(e.Tool()),
			"gesture": e.State().String(),
			"zoom":    e.Viewport().Zoom(),
			"canUndo": h.CanUndo(),
			"canRedo": h.CanRedo(),
			"version": h.Version(),
		})
	})
}

func toJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}

// --- Promise helpers ---

func promise(work func() (interface{}, error)) js.Value {
	var handler js.Func
	handler = js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		resolve, reject := args[0], args[1]
		go func() {
			defer handler.Release()
			v, err := work()
			if err != nil {
				reject.Invoke(jsError(err))
				return
			}
			resolve.Invoke(js.ValueOf(v))
		}()
		return nil
	})
	return js.Global().Get("Promise").New(handler)
}

func rejected(err error) js.Value {
	return js.Global().Get("Promise").Call("reject", jsError(err))
}

func jsError(err error) js.Value {
	return js.Global().Get("Error").New(err.Error())
}

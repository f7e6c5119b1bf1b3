package main

import (
	"context"
	"sync"

	"github.com/chazu/spatial/pkg/canvas"
	"github.com/chazu/spatial/pkg/engine"
	"github.com/chazu/spatial/pkg/store"
	"github.com/sirupsen/logrus"
	"github.com/wailsapp/wails/v2/pkg/runtime"
)

// FrameEvent is emitted with a fresh frame whenever the canvas changes
// outside a binding call, such as a watched layout being re-imported.
const FrameEvent = "canvas:frame"

// App is the Wails backend. It exposes methods to the frontend via bindings.
// Bindings may run on several goroutines, so every call into the controller
// holds mu.
type App struct {
	ctx    context.Context
	mu     sync.Mutex
	store  *store.Memory
	ctrl   *canvas.Controller
	engine *engine.Engine
	log    logrus.FieldLogger
}

// EvalErrorData is a JSON-serializable script error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// ImportResult is returned by Import. Frame reflects the loaded layout
// when Errors is empty and the unchanged canvas otherwise.
type ImportResult struct {
	Frame    canvas.Frame    `json:"frame"`
	Errors   []EvalErrorData `json:"errors"`
	Warnings []EvalErrorData `json:"warnings"`
}

// NewApp creates an App driving st through a controller with a viewport of
// the given size.
func NewApp(st *store.Memory, width, height float64, mode canvas.Mode, log logrus.FieldLogger) *App {
	return &App{
		store:  st,
		ctrl:   canvas.NewController(st, width, height, canvas.WithLogger(log), canvas.WithMode(mode)),
		engine: engine.NewEngine(),
		log:    log,
	}
}

// startup is called by Wails on app startup. The context is saved
// so we can call Wails runtime methods later.
func (a *App) startup(ctx context.Context) {
	a.mu.Lock()
	a.ctx = ctx
	a.mu.Unlock()
}

// emit pushes f to the frontend. It is a no-op outside the Wails runtime.
// Callers hold mu.
func (a *App) emit(f canvas.Frame) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, FrameEvent, f)
}

// do runs fn under the lock and returns the resulting frame.
func (a *App) do(fn func()) canvas.Frame {
	a.mu.Lock()
	defer a.mu.Unlock()
	fn()
	return a.ctrl.Frame()
}

// ---------------------------------------------------------------------------
// Pointer and viewport bindings
// ---------------------------------------------------------------------------

// Frame returns the current frame.
func (a *App) Frame() canvas.Frame { return a.do(func() {}) }

// Resize reports the size of the canvas element.
func (a *App) Resize(width, height float64) canvas.Frame {
	return a.do(func() { a.ctrl.SetViewportSize(width, height) })
}

// PointerDown starts a pointer transaction.
func (a *App) PointerDown(ev canvas.PointerEvent) canvas.Frame {
	return a.do(func() { a.ctrl.Press(ev) })
}

// PointerMove advances the active transaction.
func (a *App) PointerMove(ev canvas.PointerEvent) canvas.Frame {
	return a.do(func() { a.ctrl.Move(ev) })
}

// PointerUp ends the active transaction.
func (a *App) PointerUp(ev canvas.PointerEvent) canvas.Frame {
	return a.do(func() { a.ctrl.Release(ev) })
}

// PointerLeave ends the active transaction without a click.
func (a *App) PointerLeave() canvas.Frame {
	return a.do(a.ctrl.Leave)
}

// Wheel pans, or zooms when ctrl or meta is held.
func (a *App) Wheel(ev canvas.WheelEvent) canvas.Frame {
	return a.do(func() { a.ctrl.Wheel(ev) })
}

// DoubleClick opens a page in the editor.
func (a *App) DoubleClick(ev canvas.PointerEvent) canvas.Frame {
	return a.do(func() { a.ctrl.DoubleClick(ev) })
}

// SetMode switches between "pan" and "select".
func (a *App) SetMode(mode string) (canvas.Frame, error) {
	m, err := canvas.ParseMode(mode)
	if err != nil {
		return a.Frame(), err
	}
	return a.do(func() { a.ctrl.SetMode(m) }), nil
}

func (a *App) Fit() canvas.Frame     { return a.do(a.ctrl.Fit) }
func (a *App) ZoomIn() canvas.Frame  { return a.do(a.ctrl.ZoomIn) }
func (a *App) ZoomOut() canvas.Frame { return a.do(a.ctrl.ZoomOut) }

// ---------------------------------------------------------------------------
// Toolbar and node menu bindings
// ---------------------------------------------------------------------------

func (a *App) AddProject() canvas.Frame { return a.do(a.ctrl.AddProject) }

// CreateGroup wraps the selection in a group. The frame is unchanged when
// fewer than two nodes are selected.
func (a *App) CreateGroup() canvas.Frame {
	return a.do(func() { a.ctrl.CreateGroup() })
}

func (a *App) CycleIcon(id string) canvas.Frame {
	return a.do(func() { a.ctrl.CycleIcon(canvas.NodeID(id)) })
}

func (a *App) ToggleCollapse(id string) canvas.Frame {
	return a.do(func() { a.ctrl.ToggleCollapse(canvas.NodeID(id)) })
}

func (a *App) AddChild(id string) canvas.Frame {
	return a.do(func() { a.ctrl.AddChild(canvas.NodeID(id)) })
}

func (a *App) DeleteNode(id string) canvas.Frame {
	return a.do(func() { a.ctrl.Delete(canvas.NodeID(id)) })
}

func (a *App) Rename(id string) canvas.Frame {
	return a.do(func() { a.ctrl.Rename(canvas.NodeID(id)) })
}

// RenameKey forwards a key press from the inline title editor.
func (a *App) RenameKey(id, value, key string) canvas.Frame {
	return a.do(func() { a.ctrl.RenameKey(canvas.NodeID(id), value, key) })
}

// SetBackground changes the active space colour. Colours outside the
// palette leave it unchanged.
func (a *App) SetBackground(value string) canvas.Frame {
	return a.do(func() {
		if !a.ctrl.SetBackground(value) {
			a.log.WithField("value", value).Warn("app: background not in palette")
		}
	})
}

// ---------------------------------------------------------------------------
// Spaces and editor bindings
// ---------------------------------------------------------------------------

// Spaces lists every space.
func (a *App) Spaces() []store.Space { return a.store.Spaces() }

// SetActiveSpace switches spaces. The viewport is fitted to the new space.
func (a *App) SetActiveSpace(id string) (canvas.Frame, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if err := a.store.SetActiveSpace(id); err != nil {
		return a.ctrl.Frame(), err
	}
	return a.ctrl.Frame(), nil
}

// CreateSpace adds a space and makes it active.
func (a *App) CreateSpace(in store.SpaceInput) (canvas.Frame, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, err := a.store.CreateSpace(in)
	if err != nil {
		return a.ctrl.Frame(), err
	}
	if err := a.store.SetActiveSpace(s.ID); err != nil {
		return a.ctrl.Frame(), err
	}
	return a.ctrl.Frame(), nil
}

// ActiveNode returns the page open in the editor, or nil.
func (a *App) ActiveNode() *canvas.Node {
	n, ok := a.store.ActiveNode()
	if !ok {
		return nil
	}
	return &n
}

// UpdateContent saves the editor's title and body.
func (a *App) UpdateContent(id, title, content string) error {
	return a.store.UpdateContent(canvas.NodeID(id), title, content)
}

// CloseEditor closes the page editor.
func (a *App) CloseEditor() { a.store.CloseEditor() }

// ---------------------------------------------------------------------------
// Layout scripts
// ---------------------------------------------------------------------------

// Import evaluates a layout script and, when it has no errors, replaces the
// whole document with its result.
func (a *App) Import(source string) ImportResult {
	res := a.engine.Run(source)

	a.mu.Lock()
	defer a.mu.Unlock()

	out := ImportResult{
		Errors:   []EvalErrorData{},
		Warnings: []EvalErrorData{},
	}
	for _, e := range res.Errors {
		out.Errors = append(out.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
	}
	for _, w := range res.Warnings {
		out.Warnings = append(out.Warnings, EvalErrorData{Message: string(w.NodeID) + ": " + w.Message})
	}
	if len(out.Errors) == 0 && res.Document != nil {
		if err := a.store.Load(*res.Document); err != nil {
			out.Errors = append(out.Errors, EvalErrorData{Message: err.Error()})
		}
	}
	if len(out.Errors) > 0 {
		a.log.WithField("errors", len(out.Errors)).Warn("app: layout import rejected")
	}
	out.Frame = a.ctrl.Frame()
	a.emit(out.Frame)
	return out
}

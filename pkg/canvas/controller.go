package canvas

import (
	v2 "github.com/deadsy/sdfx/vec/v2"
	"github.com/sirupsen/logrus"
)

// ClickThreshold is the screen-space extent, in pixels, a selection box must
// exceed on at least one axis to count as a box rather than a click.
const ClickThreshold = 5

// Controller is the pointer interaction state machine. It pulls a Snapshot
// from the store at the start of every event and pushes every mutation back
// through the store's Sink methods.
//
// A Controller is not safe for concurrent use.
type Controller struct {
	store   Store
	log     logrus.FieldLogger
	mode    Mode
	view    Viewport
	session Session
	snap    Snapshot
	spaceID string
	fitted  bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger used for transaction tracing.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Controller) { c.log = l }
}

// WithMode sets the initial interaction mode.
func WithMode(m Mode) Option {
	return func(c *Controller) { c.mode = m }
}

// NewController wires a controller to store with a viewport of the given
// screen size. The viewport is fitted to the store's active space.
func NewController(store Store, width, height float64, opts ...Option) *Controller {
	c := &Controller{
		store: store,
		log:   logrus.StandardLogger(),
		view:  NewViewport(width, height),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.refresh()
	return c
}

// refresh pulls the latest store state and refits the viewport when the
// active space changed.
func (c *Controller) refresh() {
	c.snap = c.store.Snapshot()
	if c.fitted && c.snap.SpaceID == c.spaceID {
		return
	}
	c.spaceID = c.snap.SpaceID
	c.fitted = true
	c.session.Reset()
	c.view.Fit(c.snap.Nodes)
	c.log.WithFields(logrus.Fields{
		"space": c.spaceID,
		"zoom":  c.view.Zoom,
	}).Debug("canvas: fitted to space")
}

// Viewport returns the current viewport.
func (c *Controller) Viewport() Viewport { return c.view }

// Mode returns the interaction mode.
func (c *Controller) Mode() Mode { return c.mode }

// Session returns a copy of the in-progress transaction.
func (c *Controller) Session() Session { return c.session }

// SetMode switches between pan and select mode. A transaction in progress
// keeps running under the mode it started in.
func (c *Controller) SetMode(m Mode) {
	c.mode = m
}

// SetViewportSize records a new viewport element size.
func (c *Controller) SetViewportSize(width, height float64) {
	c.view.Size = v2.Vec{X: width, Y: height}
}

// ---------------------------------------------------------------------------
// Pointer events
// ---------------------------------------------------------------------------

// Press starts a transaction. A press while another is active is ignored.
func (c *Controller) Press(ev PointerEvent) {
	c.refresh()
	if c.session.Active() {
		return
	}
	switch ev.Button {
	case ButtonMiddle:
		c.session.begin(StatePanning, ev)
	case ButtonLeft:
		c.pressLeft(ev)
	}
}

func (c *Controller) pressLeft(ev PointerEvent) {
	world := c.view.ScreenToWorld(ev.Screen())
	hit := HitTest(c.snap.Nodes, c.snap.Selection, world)
	if !hit.IsZero() {
		n := FindNode(c.snap.Nodes, hit.NodeID)
		switch {
		case hit.Handle:
			c.session.begin(StateResizing, ev)
			c.session.StartSize = n.Size()
		case c.mode == ModePan:
			c.session.begin(StateDragging, ev)
			c.session.StartPos = n.Position
		default:
			c.session.begin(StateIdle, ev)
		}
		c.session.Target = n.ID
		return
	}
	if c.mode == ModeSelect {
		c.session.begin(StateSelectingBox, ev)
		c.session.BoxStart = world
		c.session.BoxEnd = world
		return
	}
	c.session.begin(StatePanning, ev)
}

// Move advances the active transaction. Resize wins over drag, drag over the
// selection box and the box over panning; only one of them can be active.
func (c *Controller) Move(ev PointerEvent) {
	c.refresh()
	if !c.session.Active() {
		return
	}
	s := &c.session
	p := ev.Screen()
	if p != s.PressScreen {
		s.Moved = true
	}
	z := ClampZoom(c.view.Zoom)
	delta := p.Sub(s.PressScreen).DivScalar(z)

	switch s.State {
	case StateResizing:
		n := FindNode(c.snap.Nodes, s.Target)
		if n == nil {
			c.abandon()
			return
		}
		w, h := ResizeTo(n.Type, s.StartSize, delta)
		c.store.ResizeNode(n.ID, w, h)
	case StateDragging:
		n := FindNode(c.snap.Nodes, s.Target)
		if n == nil {
			c.abandon()
			return
		}
		c.store.MoveNode(n.ID, SnapVec(s.StartPos.Add(delta)))
	case StateSelectingBox:
		s.BoxEnd = c.view.ScreenToWorld(p)
	case StatePanning:
		c.view.PanBy(p.Sub(s.LastScreen), c.snap.Nodes)
	}
	s.LastScreen = p
}

// ResizeTo returns the snapped size for a node of type t resized from start
// by a world-space delta. The result is never below MinSize(t).
func ResizeTo(t NodeType, start, delta v2.Vec) (w, h float64) {
	floor := MinSize(t)
	w = Snap(max(floor.X, start.X+delta.X))
	h = Snap(max(floor.Y, start.Y+delta.Y))
	return w, h
}

// Release ends the active transaction at ev.
func (c *Controller) Release(ev PointerEvent) {
	c.refresh()
	if !c.session.Active() {
		return
	}
	if ev.Screen() != c.session.LastScreen {
		c.Move(ev)
		c.snap = c.store.Snapshot()
	}
	c.finish(true)
}

// Leave ends the active transaction because the pointer left the surface.
// Nothing is treated as a click.
func (c *Controller) Leave() {
	c.refresh()
	if !c.session.Active() {
		return
	}
	c.finish(false)
}

func (c *Controller) finish(click bool) {
	s := c.session
	defer c.session.Reset()

	switch s.State {
	case StateDragging:
		if !s.Moved {
			if click {
				c.click(s.Target, s.Multi)
			}
			return
		}
		n := FindNode(c.snap.Nodes, s.Target)
		if n == nil {
			return
		}
		if parent, changed := ResolveParent(n, c.snap.Nodes); changed {
			c.log.WithFields(logrus.Fields{
				"node":   n.ID.Short(),
				"parent": parent.Short(),
			}).Debug("canvas: reparent on drop")
			c.store.ReparentNode(n.ID, parent)
		}
	case StateSelectingBox:
		box := s.Box()
		extent := box.Size().MulScalar(ClampZoom(c.view.Zoom))
		if extent.X > ClickThreshold || extent.Y > ClickThreshold {
			c.store.SetSelection(NodesInRect(c.snap.Nodes, box))
			return
		}
		if click {
			c.store.BackgroundClicked()
		}
	case StatePanning:
		if click && !s.Moved && s.Button == ButtonLeft {
			c.store.BackgroundClicked()
		}
	case StateIdle:
		if click && !s.Moved {
			c.click(s.Target, s.Multi)
		}
	}
}

// abandon drops a transaction whose target disappeared.
func (c *Controller) abandon() {
	c.log.WithField("node", c.session.Target.Short()).Debug("canvas: target gone, transaction dropped")
	c.session.Reset()
}

func (c *Controller) click(id NodeID, multi bool) {
	if FindNode(c.snap.Nodes, id) == nil {
		return
	}
	c.store.Select(id, multi)
}

// Wheel zooms at the cursor when ctrl or meta is held and pans otherwise.
func (c *Controller) Wheel(ev WheelEvent) {
	c.refresh()
	if ev.Ctrl || ev.Meta {
		c.view.WheelZoom(v2.Vec{X: ev.X, Y: ev.Y}, ev.DeltaY, c.snap.Nodes)
		return
	}
	c.view.WheelPan(ev.DeltaX, ev.DeltaY, c.snap.Nodes)
}

// DoubleClick opens a page in the editor. Other node types ignore it.
func (c *Controller) DoubleClick(ev PointerEvent) {
	c.refresh()
	hit := HitTest(c.snap.Nodes, c.snap.Selection, c.view.ScreenToWorld(ev.Screen()))
	if hit.IsZero() || hit.Handle {
		return
	}
	if n := FindNode(c.snap.Nodes, hit.NodeID); n.Type == NodePage {
		c.store.Select(n.ID, false)
	}
}

// ---------------------------------------------------------------------------
// Toolbar and node menu actions
// ---------------------------------------------------------------------------

// Fit frames every node of the active space.
func (c *Controller) Fit() {
	c.refresh()
	c.view.Fit(c.snap.Nodes)
}

// ZoomIn steps the zoom up by ZoomStep.
func (c *Controller) ZoomIn() {
	c.refresh()
	c.view.StepZoom(1)
}

// ZoomOut steps the zoom down by ZoomStep.
func (c *Controller) ZoomOut() {
	c.refresh()
	c.view.StepZoom(-1)
}

// AddProject asks the store for a new project at the snapped world point
// under the viewport centre.
func (c *Controller) AddProject() {
	c.refresh()
	pos := SnapVec(c.view.ScreenToWorld(c.view.Center()))
	c.store.RequestAddProject(pos)
}

// CanGroup reports whether enough nodes are selected to form a group.
func (c *Controller) CanGroup() bool {
	return len(c.snap.Selection) >= 2
}

// CreateGroup asks the store to wrap the selection in a new group. It
// reports whether the request was made.
func (c *Controller) CreateGroup() bool {
	c.refresh()
	if !c.CanGroup() {
		return false
	}
	c.store.RequestCreateGroup()
	return true
}

// CycleIcon advances a group's icon.
func (c *Controller) CycleIcon(id NodeID) {
	c.refresh()
	n := FindNode(c.snap.Nodes, id)
	if n == nil || !n.IsGroup() {
		return
	}
	c.store.SetIcon(id, NextIcon(n.Icon))
}

// ToggleCollapse flips a node's collapsed flag.
func (c *Controller) ToggleCollapse(id NodeID) {
	c.refresh()
	if FindNode(c.snap.Nodes, id) == nil {
		return
	}
	c.store.ToggleCollapse(id)
}

// AddChild asks the store for a new child of parent.
func (c *Controller) AddChild(parent NodeID) {
	c.refresh()
	if FindNode(c.snap.Nodes, parent) == nil {
		return
	}
	c.store.RequestAddChild(parent)
}

// Delete asks the store to delete a node. Cascade scope is the store's
// decision.
func (c *Controller) Delete(id NodeID) {
	c.refresh()
	if FindNode(c.snap.Nodes, id) == nil {
		return
	}
	c.store.RequestDeleteNode(id)
}

// Rename puts a node into title editing.
func (c *Controller) Rename(id NodeID) {
	c.refresh()
	if FindNode(c.snap.Nodes, id) == nil {
		return
	}
	c.store.RequestRename(id)
}

// RenameKey feeds a key press from the inline title editor of the node
// being renamed. value is the editor's current text. key "Blur" commits like
// Enter. It reports whether editing ended.
func (c *Controller) RenameKey(id NodeID, value, key string) bool {
	c.refresh()
	if id != c.snap.RenamingID {
		return false
	}
	n := FindNode(c.snap.Nodes, id)
	if n == nil {
		return false
	}
	f := NewRenameField(n)
	f.Value = value
	if key == "Blur" {
		return f.Blur(c.store)
	}
	return f.Key(key, c.store)
}

// SetBackground changes the canvas colour. Values outside Palette are
// rejected.
func (c *Controller) SetBackground(value string) bool {
	if !InPalette(value) {
		return false
	}
	c.store.ColorChanged(value)
	return true
}

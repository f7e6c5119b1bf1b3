package canvas

import (
	"math"
	"slices"

	"github.com/deadsy/sdfx/sdf"
)

// Grid overlay opacities.
const (
	GridOpacityActive = 0.25 // while dragging or resizing
	GridOpacityIdle   = 0.08
)

// FrameNode is a visible node with its presentation flags.
type FrameNode struct {
	Node
	Layer     Layer `json:"layer"`
	Selected  bool  `json:"selected"`
	Renaming  bool  `json:"renaming"`
	Resizable bool  `json:"resizable"`
}

// Frame is everything a renderer needs to draw the canvas once.
type Frame struct {
	SpaceID      string       `json:"spaceId"`
	Viewport     Viewport     `json:"viewport"`
	Mode         Mode         `json:"mode"`
	State        State        `json:"state"`
	Nodes        []FrameNode  `json:"nodes"`
	Connections  []Connection `json:"connections"`
	SelectionBox *sdf.Box2    `json:"selectionBox,omitempty"`
	GridSize     float64      `json:"gridSize"`
	GridOpacity  float64      `json:"gridOpacity"`
	Cursor       string       `json:"cursor"`
	ZoomPercent  int          `json:"zoomPercent"`
	CanGroup     bool         `json:"canGroup"`
	Background   string       `json:"background"`
	Palette      []Swatch     `json:"palette"`
}

// Frame builds the frame for the current store state and viewport.
func (c *Controller) Frame() Frame {
	c.refresh()
	snap := c.snap

	f := Frame{
		SpaceID:     snap.SpaceID,
		Viewport:    c.view,
		Mode:        c.mode,
		State:       c.session.State,
		Nodes:       []FrameNode{},
		Connections: Connections(snap.Nodes),
		GridSize:    GridSize,
		GridOpacity: GridOpacityIdle,
		Cursor:      "grab",
		ZoomPercent: int(math.Round(c.view.Zoom * 100)),
		CanGroup:    c.CanGroup(),
		Background:  snap.Background,
		Palette:     Palette,
	}
	if f.Background == "" {
		f.Background = DefaultBackground
	}

	for _, id := range DrawOrder(snap.Nodes, snap.Selection) {
		n := FindNode(snap.Nodes, id)
		_, resizable := ResizeHandle(n)
		f.Nodes = append(f.Nodes, FrameNode{
			Node:      *n,
			Layer:     LayerOf(n, snap.Selection),
			Selected:  slices.Contains(snap.Selection, id),
			Renaming:  id == snap.RenamingID,
			Resizable: resizable,
		})
	}

	switch c.session.State {
	case StateDragging, StateResizing:
		f.GridOpacity = GridOpacityActive
	case StateSelectingBox:
		box := c.session.Box()
		f.SelectionBox = &box
	case StatePanning:
		f.Cursor = "grabbing"
	}
	if c.mode == ModeSelect && c.session.State != StatePanning {
		f.Cursor = "crosshair"
	}
	return f
}

// Node returns the frame node with the given id, or nil when it is not drawn.
func (f *Frame) Node(id NodeID) *FrameNode {
	for i := range f.Nodes {
		if f.Nodes[i].ID == id {
			return &f.Nodes[i]
		}
	}
	return nil
}

// Connection returns the curve from parent to child, if one is drawn.
func (f *Frame) Connection(parent, child NodeID) (Connection, bool) {
	for _, c := range f.Connections {
		if c.ParentID == parent && c.ChildID == child {
			return c, true
		}
	}
	return Connection{}, false
}

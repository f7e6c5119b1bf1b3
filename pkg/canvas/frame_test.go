package canvas

import "testing"

func TestFrameCollapseHidesChildAndConnector(t *testing.T) {
	c, _ := newTestController(
		folder("F", 100, 100, 240, 160),
		child(page("P", 100, 300), "F"),
	)

	f := c.Frame()
	if f.Node("P") == nil {
		t.Fatal("expanded folder should show its child")
	}
	if _, ok := f.Connection("F", "P"); !ok {
		t.Fatal("expanded folder should draw its connector")
	}

	c.ToggleCollapse("F")
	f = c.Frame()
	if f.Node("P") != nil {
		t.Error("collapsed folder should hide its child")
	}
	if _, ok := f.Connection("F", "P"); ok {
		t.Error("collapsed folder should not draw its connector")
	}

	c.ToggleCollapse("F")
	f = c.Frame()
	if f.Node("P") == nil {
		t.Error("child should reappear after expanding")
	}
	if _, ok := f.Connection("F", "P"); !ok {
		t.Error("connector should reappear after expanding")
	}
}

func TestFrameNodesFollowDrawOrder(t *testing.T) {
	c, st := newTestController(
		page("a", 0, 0),
		group("g", 0, 0, 400, 400),
		page("b", 0, 0),
	)
	st.snap.Selection = []NodeID{"a"}
	st.snap.RenamingID = "b"

	f := c.Frame()
	var ids []NodeID
	for _, n := range f.Nodes {
		ids = append(ids, n.ID)
	}
	if len(ids) != 3 || ids[0] != "g" || ids[1] != "b" || ids[2] != "a" {
		t.Fatalf("order = %v, want [g b a]", ids)
	}
	if n := f.Node("a"); !n.Selected || n.Layer != LayerSelected {
		t.Errorf("a = %+v, want selected on top layer", n)
	}
	if n := f.Node("b"); !n.Renaming || n.Resizable {
		t.Errorf("b = %+v, want renaming and not resizable", n)
	}
	if n := f.Node("g"); !n.Resizable || n.Layer != LayerGroups {
		t.Errorf("g = %+v, want resizable group layer", n)
	}
}

func TestFrameInteractionHints(t *testing.T) {
	c, _ := newTestController(page("p", 0, 0), page("q", 400, 0))

	f := c.Frame()
	if f.GridOpacity != GridOpacityIdle || f.Cursor != "grab" || f.ZoomPercent != 100 {
		t.Errorf("idle frame = opacity %v cursor %q zoom %d", f.GridOpacity, f.Cursor, f.ZoomPercent)
	}
	if f.Background != DefaultBackground || len(f.Palette) != len(Palette) {
		t.Errorf("background = %q, palette %d", f.Background, len(f.Palette))
	}
	if f.CanGroup {
		t.Error("CanGroup with no selection")
	}

	c.Press(left(10, 10))
	if f = c.Frame(); f.GridOpacity != GridOpacityActive || f.State != StateDragging {
		t.Errorf("dragging frame = opacity %v state %v", f.GridOpacity, f.State)
	}
	c.Leave()

	c.Press(left(800, 600))
	if f = c.Frame(); f.Cursor != "grabbing" {
		t.Errorf("panning cursor = %q", f.Cursor)
	}
	c.Leave()

	c.SetMode(ModeSelect)
	c.Press(left(800, 600))
	c.Move(left(900, 700))
	f = c.Frame()
	if f.Cursor != "crosshair" {
		t.Errorf("select cursor = %q", f.Cursor)
	}
	if f.SelectionBox == nil || *f.SelectionBox != box(800, 600, 900, 700) {
		t.Errorf("selection box = %v", f.SelectionBox)
	}
	if f.GridOpacity != GridOpacityIdle {
		t.Errorf("box drawing opacity = %v", f.GridOpacity)
	}
}

func TestRenameFieldClosesOnce(t *testing.T) {
	st := &fakeStore{}
	n := folder("f", 0, 0, 240, 160)
	field := NewRenameField(&n)
	field.Value = "Next"

	if !field.Key("Enter", st) {
		t.Fatal("Enter should close the field")
	}
	if field.Blur(st) || field.Key("Escape", st) {
		t.Error("closed field committed again")
	}
	if len(st.calls) != 1 || st.calls[0] != `commit f "Next"` {
		t.Errorf("calls = %v", st.calls)
	}
	if !field.Closed() {
		t.Error("Closed() = false after commit")
	}
}

package store

import (
	"errors"
	"fmt"
	"slices"
	"testing"

	"github.com/chazu/spatial/pkg/canvas"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func sequentialIDs() func(string) string {
	n := 0
	return func(prefix string) string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func node(id, space string, t canvas.NodeType, x, y float64) canvas.Node {
	return canvas.Node{ID: canvas.NodeID(id), SpaceID: space, Type: t, Title: id, Position: v2.Vec{X: x, Y: y}}
}

// newTestMemory loads two spaces: s1 with folder F, its page P and a
// second page Q, and s2 with a single folder.
func newTestMemory(t *testing.T) (*Memory, *int) {
	t.Helper()
	changes := 0
	m := NewMemory(WithIDGenerator(sequentialIDs()), WithOnChange(func() { changes++ }))

	f := node("F", "s1", canvas.NodeFolder, 100, 100)
	f.Width, f.Height = 240, 160
	p := node("P", "s1", canvas.NodePage, 100, 320)
	p.ParentID = "F"
	q := node("Q", "s1", canvas.NodePage, 400, 320)

	err := m.Load(Document{
		Spaces: []Space{
			{ID: "s1", Name: "One", Background: "#f8fafc"},
			{ID: "s2", Name: "Two"},
		},
		Nodes: []canvas.Node{f, p, q, node("G", "s2", canvas.NodeFolder, 0, 0)},
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	changes = 0
	return m, &changes
}

func mustNode(t *testing.T, m *Memory, id canvas.NodeID) canvas.Node {
	t.Helper()
	n, err := m.Node(id)
	if err != nil {
		t.Fatalf("Node(%s): %v", id, err)
	}
	return n
}

// ---------------------------------------------------------------------------
// Loading and snapshots
// ---------------------------------------------------------------------------

func TestSnapshotFiltersActiveSpace(t *testing.T) {
	m, _ := newTestMemory(t)
	snap := m.Snapshot()
	if snap.SpaceID != "s1" {
		t.Errorf("active = %q, want s1", snap.SpaceID)
	}
	if len(snap.Nodes) != 3 {
		t.Errorf("got %d nodes, want 3", len(snap.Nodes))
	}
	if snap.Background != "#f8fafc" {
		t.Errorf("background = %q", snap.Background)
	}

	if err := m.SetActiveSpace("s2"); err != nil {
		t.Fatal(err)
	}
	snap = m.Snapshot()
	if len(snap.Nodes) != 1 || snap.Nodes[0].ID != "G" {
		t.Errorf("s2 nodes = %v", snap.Nodes)
	}
	if snap.Background != canvas.DefaultBackground {
		t.Errorf("s2 background = %q, want default", snap.Background)
	}
}

func TestLoadRejectsInvalidDocument(t *testing.T) {
	m, _ := newTestMemory(t)
	bad := Document{
		Spaces: []Space{{ID: "x", Name: "X"}},
		Nodes:  []canvas.Node{{ID: "a", SpaceID: "x", Type: canvas.NodePage, ParentID: "missing"}},
	}
	if err := m.Load(bad); err == nil {
		t.Fatal("expected error for missing parent")
	}
	if got := m.Snapshot().SpaceID; got != "s1" {
		t.Errorf("failed load replaced state, active = %q", got)
	}
	if err := m.Load(Document{}); !errors.Is(err, ErrLastSpace) {
		t.Errorf("empty document err = %v, want ErrLastSpace", err)
	}
}

func TestLoadFallsBackToFirstSpace(t *testing.T) {
	m := NewMemory()
	err := m.Load(Document{
		Spaces:      []Space{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}},
		ActiveSpace: "gone",
	})
	if err != nil {
		t.Fatal(err)
	}
	if s, ok := m.ActiveSpace(); !ok || s.ID != "a" {
		t.Errorf("active = %+v", s)
	}
}

// ---------------------------------------------------------------------------
// Selection and editor
// ---------------------------------------------------------------------------

func TestSelectOpensNonContainers(t *testing.T) {
	m, _ := newTestMemory(t)

	m.Select("F", false)
	if _, ok := m.ActiveNode(); ok {
		t.Error("selecting a folder must not open it")
	}
	m.Select("P", false)
	if n, ok := m.ActiveNode(); !ok || n.ID != "P" {
		t.Errorf("active node = %v, %v", n.ID, ok)
	}
	if !slices.Equal(m.Selection(), []canvas.NodeID{"P"}) {
		t.Errorf("selection = %v", m.Selection())
	}

	m.Select("Q", true)
	m.Select("F", true)
	m.Select("P", true)
	if !slices.Equal(m.Selection(), []canvas.NodeID{"Q", "F"}) {
		t.Errorf("selection = %v, want [Q F]", m.Selection())
	}
	if n, _ := m.ActiveNode(); n.ID != "P" {
		t.Errorf("multi select changed the active node to %q", n.ID)
	}

	m.Select("missing", false)
	if !slices.Equal(m.Selection(), []canvas.NodeID{"Q", "F"}) {
		t.Error("unknown id changed the selection")
	}
}

func TestBackgroundClickedClearsState(t *testing.T) {
	m, _ := newTestMemory(t)
	m.Select("P", false)
	m.RequestRename("Q")
	m.BackgroundClicked()
	if _, ok := m.ActiveNode(); ok {
		t.Error("active node not cleared")
	}
	if len(m.Selection()) != 0 || !m.RenamingID().IsZero() {
		t.Errorf("selection %v renaming %q", m.Selection(), m.RenamingID())
	}
}

func TestUpdateContent(t *testing.T) {
	m, changes := newTestMemory(t)
	if err := m.UpdateContent("P", "Spec", "<p>body</p>"); err != nil {
		t.Fatal(err)
	}
	if n := mustNode(t, m, "P"); n.Title != "Spec" || n.Content != "<p>body</p>" {
		t.Errorf("node = %+v", n)
	}
	if *changes != 1 {
		t.Errorf("changes = %d, want 1", *changes)
	}
	if err := m.UpdateContent("nope", "", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

// ---------------------------------------------------------------------------
// Geometry mutations
// ---------------------------------------------------------------------------

func TestMoveGroupCarriesChildren(t *testing.T) {
	m, changes := newTestMemory(t)
	g, err := m.AddNode(canvas.Node{SpaceID: "s1", Type: canvas.NodeGroup, Title: "G", Width: 800, Height: 600})
	if err != nil {
		t.Fatal(err)
	}
	m.ReparentNode("Q", g.ID)
	*changes = 0

	m.MoveNode(g.ID, v2.Vec{X: 40, Y: 80})
	if got := mustNode(t, m, "Q").Position; got != (v2.Vec{X: 440, Y: 400}) {
		t.Errorf("child moved to %v, want (440, 400)", got)
	}
	if got := mustNode(t, m, "P").Position; got != (v2.Vec{X: 100, Y: 320}) {
		t.Errorf("non-member moved to %v", got)
	}

	m.MoveNode(g.ID, v2.Vec{X: 40, Y: 80})
	if *changes != 1 {
		t.Errorf("changes = %d, want 1 (repeat move is a no-op)", *changes)
	}
}

func TestMoveNonGroupLeavesChildren(t *testing.T) {
	m, _ := newTestMemory(t)
	m.MoveNode("F", v2.Vec{X: 0, Y: 0})
	if got := mustNode(t, m, "P").Position; got != (v2.Vec{X: 100, Y: 320}) {
		t.Errorf("folder child moved to %v", got)
	}
}

func TestResizeAndCollapse(t *testing.T) {
	m, changes := newTestMemory(t)
	m.ResizeNode("F", 320, 200)
	m.ToggleCollapse("F")
	n := mustNode(t, m, "F")
	if n.Width != 320 || n.Height != 200 || !n.Collapsed {
		t.Errorf("node = %+v", n)
	}
	m.ResizeNode("F", 320, 200)
	m.ResizeNode("missing", 1, 1)
	if *changes != 2 {
		t.Errorf("changes = %d, want 2", *changes)
	}
}

func TestReparentGuards(t *testing.T) {
	m, _ := newTestMemory(t)

	m.ReparentNode("F", "P")
	if got := mustNode(t, m, "F").ParentID; !got.IsZero() {
		t.Errorf("cycle created: F parent = %q", got)
	}
	m.ReparentNode("Q", "G")
	if got := mustNode(t, m, "Q").ParentID; !got.IsZero() {
		t.Errorf("cross-space parent accepted: %q", got)
	}
	m.ReparentNode("Q", "F")
	if got := mustNode(t, m, "Q").ParentID; got != "F" {
		t.Errorf("parent = %q, want F", got)
	}
	m.ReparentNode("Q", canvas.ZeroID)
	if got := mustNode(t, m, "Q").ParentID; !got.IsZero() {
		t.Errorf("parent not cleared: %q", got)
	}
}

func TestSetIcon(t *testing.T) {
	m, _ := newTestMemory(t)
	m.SetIcon("F", "star")
	m.SetIcon("Q", "rocket")
	if got := mustNode(t, m, "F").Icon; got != "star" {
		t.Errorf("icon = %q", got)
	}
	if got := mustNode(t, m, "Q").Icon; got != "" {
		t.Errorf("unknown icon stored: %q", got)
	}
}

// ---------------------------------------------------------------------------
// Creation and deletion
// ---------------------------------------------------------------------------

func TestRequestAddChild(t *testing.T) {
	m, _ := newTestMemory(t)
	m.ToggleCollapse("F")

	m.RequestAddChild("F")
	snap := m.Snapshot()
	added := snap.Nodes[len(snap.Nodes)-1]
	if added.Type != canvas.NodePage || added.Title != NewPageTitle || added.ParentID != "F" {
		t.Errorf("added = %+v", added)
	}
	// F already has one child: x staggers by 40, y sits 40 below F.
	if added.Position != (v2.Vec{X: 140, Y: 300}) {
		t.Errorf("position = %v, want (140, 300)", added.Position)
	}
	if added.Width != canvas.DefaultWidth {
		t.Errorf("width = %g", added.Width)
	}
	if mustNode(t, m, "F").Collapsed {
		t.Error("parent should be expanded")
	}
	if snap.RenamingID != added.ID {
		t.Errorf("renaming = %q, want %q", snap.RenamingID, added.ID)
	}
}

func TestRequestAddProject(t *testing.T) {
	m, _ := newTestMemory(t)
	m.RequestAddProject(v2.Vec{X: 520, Y: 400})
	snap := m.Snapshot()
	n := snap.Nodes[len(snap.Nodes)-1]
	want := canvas.Node{
		ID: n.ID, SpaceID: "s1", Type: canvas.NodeFolder, Title: NewProjectTitle,
		Position: v2.Vec{X: 520, Y: 400}, Width: 240, Height: 160, Collapsed: true,
	}
	if n.ID != "proj-1" || fmt.Sprint(n) != fmt.Sprint(want) {
		t.Errorf("project = %+v", n)
	}
	if snap.RenamingID != n.ID {
		t.Errorf("renaming = %q", snap.RenamingID)
	}
}

func TestRequestDeleteNodeCascades(t *testing.T) {
	m, _ := newTestMemory(t)
	m.RequestAddChild("F")
	child := m.RenamingID()
	m.RequestAddChild(child)
	m.Select("P", false)

	m.RequestDeleteNode("F")
	snap := m.Snapshot()
	if len(snap.Nodes) != 1 || snap.Nodes[0].ID != "Q" {
		t.Errorf("remaining = %v", snap.Nodes)
	}
	if _, ok := m.ActiveNode(); ok {
		t.Error("deleted active node still open")
	}
	if len(snap.Selection) != 0 || !snap.RenamingID.IsZero() {
		t.Errorf("selection %v renaming %q", snap.Selection, snap.RenamingID)
	}
	if len(m.Nodes("s2")) != 1 {
		t.Error("delete touched another space")
	}
}

func TestCommitRename(t *testing.T) {
	m, changes := newTestMemory(t)
	m.RequestRename("F")
	m.CommitRename("F", "  Roadmap ")
	if got := mustNode(t, m, "F").Title; got != "Roadmap" {
		t.Errorf("title = %q", got)
	}
	if !m.RenamingID().IsZero() {
		t.Error("renaming not cleared")
	}

	m.RequestRename("F")
	m.CommitRename("F", "   ")
	if got := mustNode(t, m, "F").Title; got != "Roadmap" {
		t.Errorf("blank rename changed title to %q", got)
	}
	if !m.RenamingID().IsZero() {
		t.Error("blank commit should still end renaming")
	}
	if *changes != 1 {
		t.Errorf("changes = %d, want 1", *changes)
	}
}

func TestRequestCreateGroup(t *testing.T) {
	m, _ := newTestMemory(t)
	m.SetSelection([]canvas.NodeID{"P", "Q"})
	m.RequestCreateGroup()

	snap := m.Snapshot()
	g := snap.Nodes[len(snap.Nodes)-1]
	if g.Type != canvas.NodeGroup || g.Title != NewGroupTitle || g.Icon != canvas.DefaultGroupIcon {
		t.Fatalf("group = %+v", g)
	}
	// P (100,320) and Q (400,320) are 240x120 pages: union 100..640 x 320..440.
	if want := (v2.Vec{X: 60, Y: 280}); g.Position != want {
		t.Errorf("position = %v, want %v", g.Position, want)
	}
	if g.Width != 620 || g.Height != 200 {
		t.Errorf("size = %gx%g, want 620x200", g.Width, g.Height)
	}
	for _, id := range []canvas.NodeID{"P", "Q"} {
		if got := mustNode(t, m, id).ParentID; got != g.ID {
			t.Errorf("%s parent = %q, want %q", id, got, g.ID)
		}
	}
	if !slices.Equal(snap.Selection, []canvas.NodeID{g.ID}) || snap.RenamingID != g.ID {
		t.Errorf("selection %v renaming %q", snap.Selection, snap.RenamingID)
	}
}

func TestRequestCreateGroupNeedsSelection(t *testing.T) {
	m, changes := newTestMemory(t)
	m.RequestCreateGroup()
	m.SetSelection([]canvas.NodeID{"G"}) // other space
	m.RequestCreateGroup()
	if *changes != 0 || len(m.Snapshot().Nodes) != 3 {
		t.Errorf("group created without a selection in the active space")
	}
}

func TestAddNodeChecks(t *testing.T) {
	m, _ := newTestMemory(t)
	tests := []struct {
		name string
		node canvas.Node
	}{
		{"unknown space", canvas.Node{SpaceID: "zz", Type: canvas.NodePage}},
		{"invalid type", canvas.Node{SpaceID: "s1", Type: canvas.NodeType(99)}},
		{"duplicate id", canvas.Node{ID: "F", SpaceID: "s1", Type: canvas.NodePage}},
		{"cross-space parent", canvas.Node{SpaceID: "s1", Type: canvas.NodePage, ParentID: "G"}},
	}
	before := len(m.Nodes("s1"))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.AddNode(tt.node); err == nil {
				t.Error("expected error")
			}
		})
	}
	if got := len(m.Nodes("s1")); got != before {
		t.Errorf("rejected inserts left %d nodes, want %d", got, before)
	}
	// Rejected inserts must not consume generated ids.
	n, err := m.AddNode(canvas.Node{SpaceID: "s1", Type: canvas.NodeCalendar, ParentID: "F"})
	if err != nil {
		t.Fatal(err)
	}
	if n.ID != "calendar-1" {
		t.Errorf("generated id = %q", n.ID)
	}
}

// ---------------------------------------------------------------------------
// Spaces
// ---------------------------------------------------------------------------

func TestCreateSpace(t *testing.T) {
	m, changes := newTestMemory(t)
	s, err := m.CreateSpace(SpaceInput{
		Name:        " Research ",
		Members:     []string{"ana@example.com"},
		Description: "Notes",
	})
	if err != nil {
		t.Fatal(err)
	}
	if s.Name != "Research" || s.ID != "space-1" || s.Background != "#f8fafc" {
		t.Errorf("space = %+v", s)
	}
	if a, _ := m.ActiveSpace(); a.ID != s.ID {
		t.Errorf("active = %q, want new space", a.ID)
	}
	if *changes != 1 {
		t.Errorf("changes = %d", *changes)
	}
}

func TestCreateSpaceValidation(t *testing.T) {
	long := make([]byte, MaxSpaceNameLength+1)
	for i := range long {
		long[i] = 'x'
	}
	tests := []struct {
		name  string
		input SpaceInput
	}{
		{"blank name", SpaceInput{Name: ""}},
		{"long name", SpaceInput{Name: string(long)}},
		{"bad member", SpaceInput{Name: "A", Members: []string{"not-an-email"}}},
		{"bad picture", SpaceInput{Name: "A", PictureURL: "ftp:/x"}},
		{"bad colour", SpaceInput{Name: "A", Background: "blue"}},
	}
	m, _ := newTestMemory(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.CreateSpace(tt.input); err == nil {
				t.Error("expected validation error")
			}
		})
	}
	if len(m.Spaces()) != 2 {
		t.Errorf("invalid input created a space")
	}
}

func TestRenameSpace(t *testing.T) {
	m, _ := newTestMemory(t)
	if err := m.RenameSpace("s2", "  Second "); err != nil {
		t.Fatal(err)
	}
	if err := m.RenameSpace("s2", " "); err != nil {
		t.Fatal(err)
	}
	if got := m.Spaces()[1].Name; got != "Second" {
		t.Errorf("name = %q", got)
	}
	if err := m.RenameSpace("nope", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestDeleteSpace(t *testing.T) {
	m, _ := newTestMemory(t)
	if err := m.DeleteSpace("s1"); err != nil {
		t.Fatal(err)
	}
	if a, _ := m.ActiveSpace(); a.ID != "s2" {
		t.Errorf("active = %q, want s2", a.ID)
	}
	if n := len(m.Nodes("s1")); n != 0 {
		t.Errorf("%d nodes of deleted space remain", n)
	}
	if err := m.DeleteSpace("s2"); !errors.Is(err, ErrLastSpace) {
		t.Errorf("err = %v, want ErrLastSpace", err)
	}
	if err := m.DeleteSpace("s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSetActiveSpaceClearsInteraction(t *testing.T) {
	m, _ := newTestMemory(t)
	m.Select("P", false)
	m.RequestRename("Q")
	if err := m.SetActiveSpace("s2"); err != nil {
		t.Fatal(err)
	}
	snap := m.Snapshot()
	if len(snap.Selection) != 0 || !snap.RenamingID.IsZero() {
		t.Errorf("selection %v renaming %q", snap.Selection, snap.RenamingID)
	}
	if err := m.SetActiveSpace("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v", err)
	}
}

func TestColorChanged(t *testing.T) {
	m, _ := newTestMemory(t)
	m.ColorChanged("#fff1f2")
	if got := m.Snapshot().Background; got != "#fff1f2" {
		t.Errorf("background = %q", got)
	}
	if s, _ := m.ActiveSpace(); s.Background != "#fff1f2" {
		t.Errorf("space background = %q", s.Background)
	}
}

func TestExportSpace(t *testing.T) {
	m, _ := newTestMemory(t)
	doc, err := m.ExportSpace("s1")
	if err != nil {
		t.Fatal(err)
	}
	if len(doc.Spaces) != 1 || len(doc.Nodes) != 3 {
		t.Errorf("doc = %d spaces, %d nodes", len(doc.Spaces), len(doc.Nodes))
	}
	if _, err := m.ExportSpace("zz"); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v", err)
	}
	if len(m.Recent(2)) != 2 || len(m.Recent(50)) != 4 {
		t.Error("Recent did not cap its result")
	}
}

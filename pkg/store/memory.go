package store

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/chazu/spatial/pkg/canvas"
	v2 "github.com/deadsy/sdfx/vec/v2"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Placement and naming used for nodes the store creates itself.
const (
	GroupPadding    = 40
	ChildStagger    = 40
	ChildGap        = 40
	NewProjectTitle = "New Project"
	NewPageTitle    = "Untitled Page"
	NewGroupTitle   = "New Group"
)

// Document is the full persisted state: every space and every node.
type Document struct {
	Spaces      []Space       `json:"spaces" yaml:"spaces"`
	Nodes       []canvas.Node `json:"nodes" yaml:"nodes"`
	ActiveSpace string        `json:"activeSpace,omitempty" yaml:"active_space,omitempty"`
}

// Memory is the in-process store behind the canvas. It owns node truth,
// the selection, the active node and the renaming node, and applies the
// canvas's mutation requests. All methods are safe for concurrent use.
type Memory struct {
	mu       sync.Mutex
	log      logrus.FieldLogger
	newID    func(prefix string) string
	onChange func()

	spaces     []Space
	nodes      []canvas.Node
	active     string
	activeNode canvas.NodeID
	selection  []canvas.NodeID
	renaming   canvas.NodeID
}

var _ canvas.Store = (*Memory)(nil)

// Option configures a Memory store.
type Option func(*Memory)

// WithLogger sets the store's logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(m *Memory) { m.log = l }
}

// WithIDGenerator replaces the uuid-based id generator.
func WithIDGenerator(fn func(prefix string) string) Option {
	return func(m *Memory) { m.newID = fn }
}

// WithOnChange registers a hook called after every change to spaces or
// nodes. It runs outside the store's lock.
func WithOnChange(fn func()) Option {
	return func(m *Memory) { m.onChange = fn }
}

func newUUID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// NewMemory returns an empty store.
func NewMemory(opts ...Option) *Memory {
	m := &Memory{
		log:   logrus.StandardLogger(),
		newID: newUUID,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetOnChange replaces the change hook.
func (m *Memory) SetOnChange(fn func()) {
	m.mu.Lock()
	m.onChange = fn
	m.mu.Unlock()
}

// mutate runs fn under the lock and fires the change hook if fn reports a
// change.
func (m *Memory) mutate(fn func() bool) {
	m.mu.Lock()
	changed := fn()
	hook := m.onChange
	m.mu.Unlock()
	if changed && hook != nil {
		hook()
	}
}

func (m *Memory) find(id canvas.NodeID) *canvas.Node {
	return canvas.FindNode(m.nodes, id)
}

func (m *Memory) spaceIndex(id string) int {
	return slices.IndexFunc(m.spaces, func(s Space) bool { return s.ID == id })
}

// ---------------------------------------------------------------------------
// Loading and export
// ---------------------------------------------------------------------------

// Load replaces the store's contents with doc. Documents with error-level
// validation findings are rejected and leave the store untouched.
func (m *Memory) Load(doc Document) error {
	if len(doc.Spaces) == 0 {
		return fmt.Errorf("load: %w", ErrLastSpace)
	}
	if errs := Errors(Validate(doc)); len(errs) > 0 {
		joined := make([]error, len(errs))
		for i, e := range errs {
			joined[i] = e
		}
		return fmt.Errorf("load: %w", errors.Join(joined...))
	}

	m.mutate(func() bool {
		m.spaces = slices.Clone(doc.Spaces)
		m.nodes = slices.Clone(doc.Nodes)
		m.active = doc.ActiveSpace
		if m.spaceIndex(m.active) < 0 {
			m.active = m.spaces[0].ID
		}
		m.activeNode, m.renaming, m.selection = canvas.ZeroID, canvas.ZeroID, nil
		m.log.WithFields(logrus.Fields{
			"spaces": len(m.spaces),
			"nodes":  len(m.nodes),
			"active": m.active,
		}).Info("store: loaded document")
		return true
	})
	return nil
}

// Export returns a copy of the whole store.
func (m *Memory) Export() Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Document{
		Spaces:      slices.Clone(m.spaces),
		Nodes:       slices.Clone(m.nodes),
		ActiveSpace: m.active,
	}
}

// ExportSpace returns a document holding one space and its nodes.
func (m *Memory) ExportSpace(id string) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.spaceIndex(id)
	if i < 0 {
		return Document{}, fmt.Errorf("space %q: %w", id, ErrNotFound)
	}
	doc := Document{Spaces: []Space{m.spaces[i]}, ActiveSpace: id}
	for _, n := range m.nodes {
		if n.SpaceID == id {
			doc.Nodes = append(doc.Nodes, n)
		}
	}
	return doc, nil
}

// ---------------------------------------------------------------------------
// canvas.Source
// ---------------------------------------------------------------------------

// Snapshot returns the active space's nodes and the interaction state.
func (m *Memory) Snapshot() canvas.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := canvas.Snapshot{
		Nodes:      []canvas.Node{},
		SpaceID:    m.active,
		Selection:  slices.Clone(m.selection),
		RenamingID: m.renaming,
		Background: canvas.DefaultBackground,
	}
	for _, n := range m.nodes {
		if n.SpaceID == m.active {
			snap.Nodes = append(snap.Nodes, n)
		}
	}
	if i := m.spaceIndex(m.active); i >= 0 && m.spaces[i].Background != "" {
		snap.Background = m.spaces[i].Background
	}
	return snap
}

// ---------------------------------------------------------------------------
// canvas.Sink
// ---------------------------------------------------------------------------

// Select replaces the selection with id, or toggles id when multi is set.
// A plain select of a non-container node also opens it in the editor.
func (m *Memory) Select(id canvas.NodeID, multi bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.find(id)
	if n == nil {
		return
	}
	if multi {
		if i := slices.Index(m.selection, id); i >= 0 {
			m.selection = slices.Delete(m.selection, i, i+1)
		} else {
			m.selection = append(m.selection, id)
		}
		return
	}
	m.selection = []canvas.NodeID{id}
	if !n.Type.IsContainer() {
		m.activeNode = id
	}
}

// SetSelection replaces the selection.
func (m *Memory) SetSelection(ids []canvas.NodeID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selection = slices.Clone(ids)
}

// MoveNode places a node. Moving a group carries its direct children by
// the same offset.
func (m *Memory) MoveNode(id canvas.NodeID, pos v2.Vec) {
	m.mutate(func() bool {
		n := m.find(id)
		if n == nil || n.Position == pos {
			return false
		}
		delta := pos.Sub(n.Position)
		n.Position = pos
		if n.IsGroup() {
			for i := range m.nodes {
				if m.nodes[i].ParentID == id {
					m.nodes[i].Position = m.nodes[i].Position.Add(delta)
				}
			}
		}
		return true
	})
}

// ResizeNode sets a node's dimensions.
func (m *Memory) ResizeNode(id canvas.NodeID, width, height float64) {
	m.mutate(func() bool {
		n := m.find(id)
		if n == nil || (n.Width == width && n.Height == height) {
			return false
		}
		n.Width, n.Height = width, height
		return true
	})
}

// ReparentNode sets or clears a node's parent. Links to another space, to
// the node itself or to one of its descendants are refused.
func (m *Memory) ReparentNode(id, parent canvas.NodeID) {
	m.mutate(func() bool {
		n := m.find(id)
		if n == nil || n.ParentID == parent {
			return false
		}
		if !parent.IsZero() {
			p := m.find(parent)
			if p == nil || p.SpaceID != n.SpaceID || slices.Contains(m.descendants(id), parent) {
				m.log.WithFields(logrus.Fields{
					"node":   id.Short(),
					"parent": parent.Short(),
				}).Warn("store: refused reparent")
				return false
			}
		}
		n.ParentID = parent
		return true
	})
}

// ToggleCollapse flips a node's collapsed flag.
func (m *Memory) ToggleCollapse(id canvas.NodeID) {
	m.mutate(func() bool {
		n := m.find(id)
		if n == nil {
			return false
		}
		n.Collapsed = !n.Collapsed
		return true
	})
}

// RequestAddChild creates a page under parent, staggered by the number of
// children it already has, expands the parent and starts renaming the page.
func (m *Memory) RequestAddChild(parent canvas.NodeID) {
	m.mutate(func() bool {
		p := m.find(parent)
		if p == nil {
			return false
		}
		count := 0
		for _, n := range m.nodes {
			if n.ParentID == parent {
				count++
			}
		}
		page := canvas.Node{
			ID:       canvas.NodeID(m.newID("page")),
			SpaceID:  p.SpaceID,
			Type:     canvas.NodePage,
			Title:    NewPageTitle,
			ParentID: parent,
			Position: v2.Vec{
				X: p.Position.X + float64(count*ChildStagger),
				Y: p.Position.Y + p.Size().Y + ChildGap,
			},
			Width: canvas.DefaultWidth,
		}
		p.Collapsed = false
		m.nodes = append(m.nodes, page)
		m.renaming = page.ID
		m.log.WithFields(logrus.Fields{"node": page.ID.Short(), "parent": parent.Short()}).Debug("store: added child")
		return true
	})
}

// descendants returns id and every node below it. Parent cycles are
// tolerated.
func (m *Memory) descendants(id canvas.NodeID) []canvas.NodeID {
	out := []canvas.NodeID{id}
	for i := 0; i < len(out); i++ {
		for _, n := range m.nodes {
			if n.ParentID == out[i] && !slices.Contains(out, n.ID) {
				out = append(out, n.ID)
			}
		}
	}
	return out
}

// RequestDeleteNode deletes a node and all its descendants and clears the
// selection.
func (m *Memory) RequestDeleteNode(id canvas.NodeID) {
	m.mutate(func() bool {
		if m.find(id) == nil {
			return false
		}
		doomed := m.descendants(id)
		m.nodes = slices.DeleteFunc(m.nodes, func(n canvas.Node) bool {
			return slices.Contains(doomed, n.ID)
		})
		if slices.Contains(doomed, m.activeNode) {
			m.activeNode = canvas.ZeroID
		}
		if slices.Contains(doomed, m.renaming) {
			m.renaming = canvas.ZeroID
		}
		m.selection = nil
		m.log.WithFields(logrus.Fields{"node": id.Short(), "count": len(doomed)}).Info("store: deleted nodes")
		return true
	})
}

// RequestRename starts title editing on a node.
func (m *Memory) RequestRename(id canvas.NodeID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.find(id) != nil {
		m.renaming = id
	}
}

// CommitRename ends title editing. Blank titles leave the node unchanged.
func (m *Memory) CommitRename(id canvas.NodeID, title string) {
	m.mutate(func() bool {
		if m.renaming == id {
			m.renaming = canvas.ZeroID
		}
		n := m.find(id)
		title = strings.TrimSpace(title)
		if n == nil || title == "" || n.Title == title {
			return false
		}
		n.Title = title
		return true
	})
}

// SetIcon changes a node's icon. Only icons from canvas.GroupIcons are
// accepted.
func (m *Memory) SetIcon(id canvas.NodeID, icon string) {
	m.mutate(func() bool {
		n := m.find(id)
		if n == nil || !slices.Contains(canvas.GroupIcons, icon) || n.Icon == icon {
			return false
		}
		n.Icon = icon
		return true
	})
}

// BackgroundClicked closes the editor and clears selection and renaming.
func (m *Memory) BackgroundClicked() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeNode = canvas.ZeroID
	m.selection = nil
	m.renaming = canvas.ZeroID
}

// ColorChanged sets the active space's background colour.
func (m *Memory) ColorChanged(value string) {
	m.mutate(func() bool {
		i := m.spaceIndex(m.active)
		if i < 0 || m.spaces[i].Background == value {
			return false
		}
		m.spaces[i].Background = value
		return true
	})
}

// RequestAddProject creates a collapsed folder at pos in the active space
// and starts renaming it.
func (m *Memory) RequestAddProject(pos v2.Vec) {
	m.mutate(func() bool {
		if m.spaceIndex(m.active) < 0 {
			return false
		}
		size := canvas.DefaultSize(canvas.NodeFolder)
		n := canvas.Node{
			ID:        canvas.NodeID(m.newID("proj")),
			SpaceID:   m.active,
			Type:      canvas.NodeFolder,
			Title:     NewProjectTitle,
			Position:  pos,
			Width:     size.X,
			Height:    size.Y,
			Collapsed: true,
		}
		m.nodes = append(m.nodes, n)
		m.renaming = n.ID
		return true
	})
}

// RequestCreateGroup wraps the selected nodes in a new group sized to
// their union plus GroupPadding on every side. The members are reparented
// to the group, which becomes the selection and starts renaming.
func (m *Memory) RequestCreateGroup() {
	m.mutate(func() bool {
		var members []canvas.Node
		for _, n := range m.nodes {
			if n.SpaceID == m.active && slices.Contains(m.selection, n.ID) {
				members = append(members, n)
			}
		}
		bounds, ok := canvas.UnionBounds(members)
		if !ok {
			return false
		}
		size := bounds.Size()
		g := canvas.Node{
			ID:       canvas.NodeID(m.newID("group")),
			SpaceID:  m.active,
			Type:     canvas.NodeGroup,
			Title:    NewGroupTitle,
			Position: v2.Vec{X: bounds.Min.X - GroupPadding, Y: bounds.Min.Y - GroupPadding},
			Width:    size.X + 2*GroupPadding,
			Height:   size.Y + 2*GroupPadding,
			Icon:     canvas.DefaultGroupIcon,
		}
		m.nodes = append(m.nodes, g)
		for i := range m.nodes {
			if slices.ContainsFunc(members, func(n canvas.Node) bool { return n.ID == m.nodes[i].ID }) {
				m.nodes[i].ParentID = g.ID
			}
		}
		m.selection = []canvas.NodeID{g.ID}
		m.renaming = g.ID
		m.log.WithFields(logrus.Fields{"group": g.ID.Short(), "members": len(members)}).Info("store: created group")
		return true
	})
}

// ---------------------------------------------------------------------------
// Editor and node access
// ---------------------------------------------------------------------------

// Node returns a copy of a node.
func (m *Memory) Node(id canvas.NodeID) (canvas.Node, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.find(id)
	if n == nil {
		return canvas.Node{}, fmt.Errorf("node %q: %w", id, ErrNotFound)
	}
	return *n, nil
}

// Nodes returns every node of a space in store order.
func (m *Memory) Nodes(spaceID string) []canvas.Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []canvas.Node
	for _, n := range m.nodes {
		if n.SpaceID == spaceID {
			out = append(out, n)
		}
	}
	return out
}

// Recent returns up to limit nodes across all spaces, oldest first.
func (m *Memory) Recent(limit int) []canvas.Node {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.nodes[:min(limit, len(m.nodes))])
}

// AddNode inserts a fully specified node. A blank id is generated once the
// node has passed every other check.
func (m *Memory) AddNode(n canvas.Node) (canvas.Node, error) {
	var err error
	m.mutate(func() bool {
		if m.spaceIndex(n.SpaceID) < 0 {
			err = fmt.Errorf("space %q: %w", n.SpaceID, ErrNotFound)
			return false
		}
		if !n.Type.Valid() {
			err = fmt.Errorf("add node: invalid type %s", n.Type)
			return false
		}
		if p := m.find(n.ParentID); !n.ParentID.IsZero() && (p == nil || p.SpaceID != n.SpaceID) {
			err = fmt.Errorf("add node: parent %q: %w", n.ParentID, ErrNotFound)
			return false
		}
		if n.ID.IsZero() {
			n.ID = canvas.NodeID(m.newID(n.Type.String()))
		}
		if m.find(n.ID) != nil {
			err = fmt.Errorf("add node: duplicate id %q", n.ID)
			return false
		}
		m.nodes = append(m.nodes, n)
		return true
	})
	return n, err
}

// ActiveNode returns the node open in the editor.
func (m *Memory) ActiveNode() (canvas.Node, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.find(m.activeNode)
	if n == nil {
		return canvas.Node{}, false
	}
	return *n, true
}

// OpenNode makes a node the active node and switches to its space.
func (m *Memory) OpenNode(id canvas.NodeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := m.find(id)
	if n == nil {
		return fmt.Errorf("node %q: %w", id, ErrNotFound)
	}
	m.active = n.SpaceID
	m.activeNode = id
	return nil
}

// CloseEditor clears the active node.
func (m *Memory) CloseEditor() {
	m.mu.Lock()
	m.activeNode = canvas.ZeroID
	m.mu.Unlock()
}

// UpdateContent stores the editor's title and content for a node.
func (m *Memory) UpdateContent(id canvas.NodeID, title, content string) error {
	var err error
	m.mutate(func() bool {
		n := m.find(id)
		if n == nil {
			err = fmt.Errorf("node %q: %w", id, ErrNotFound)
			return false
		}
		n.Title, n.Content = title, content
		return true
	})
	return err
}

// Selection returns the selected node ids.
func (m *Memory) Selection() []canvas.NodeID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.selection)
}

// RenamingID returns the node whose title is being edited.
func (m *Memory) RenamingID() canvas.NodeID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.renaming
}

// ---------------------------------------------------------------------------
// Spaces
// ---------------------------------------------------------------------------

// Spaces returns every space in creation order.
func (m *Memory) Spaces() []Space {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.spaces)
}

// ActiveSpace returns the space shown on the canvas.
func (m *Memory) ActiveSpace() (Space, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i := m.spaceIndex(m.active); i >= 0 {
		return m.spaces[i], true
	}
	return Space{}, false
}

// SetActiveSpace switches the canvas to another space. Selection, renaming
// and the editor are cleared.
func (m *Memory) SetActiveSpace(id string) error {
	var err error
	m.mutate(func() bool {
		if m.spaceIndex(id) < 0 {
			err = fmt.Errorf("space %q: %w", id, ErrNotFound)
			return false
		}
		if m.active == id {
			return false
		}
		m.active = id
		m.activeNode, m.renaming, m.selection = canvas.ZeroID, canvas.ZeroID, nil
		return true
	})
	return err
}

// CreateSpace validates in, appends a new space and makes it active.
func (m *Memory) CreateSpace(in SpaceInput) (Space, error) {
	if err := in.Validate(); err != nil {
		return Space{}, fmt.Errorf("create space: %w", err)
	}
	s := Space{
		Name:        strings.TrimSpace(in.Name),
		IsPublic:    in.IsPublic,
		Members:     slices.Clone(in.Members),
		Description: in.Description,
		PictureURL:  in.PictureURL,
		Background:  in.background(),
	}
	m.mutate(func() bool {
		s.ID = m.newID("space")
		m.spaces = append(m.spaces, s)
		m.active = s.ID
		m.activeNode, m.renaming, m.selection = canvas.ZeroID, canvas.ZeroID, nil
		return true
	})
	m.log.WithFields(logrus.Fields{"space": s.ID, "name": s.Name}).Info("store: created space")
	return s, nil
}

// RenameSpace changes a space's name. Blank names are ignored.
func (m *Memory) RenameSpace(id, name string) error {
	var err error
	m.mutate(func() bool {
		i := m.spaceIndex(id)
		if i < 0 {
			err = fmt.Errorf("space %q: %w", id, ErrNotFound)
			return false
		}
		name = strings.TrimSpace(name)
		if name == "" || name == m.spaces[i].Name {
			return false
		}
		m.spaces[i].Name = name
		return true
	})
	return err
}

// DeleteSpace removes a space with all of its nodes. The last remaining
// space cannot be deleted.
func (m *Memory) DeleteSpace(id string) error {
	var err error
	m.mutate(func() bool {
		i := m.spaceIndex(id)
		if i < 0 {
			err = fmt.Errorf("space %q: %w", id, ErrNotFound)
			return false
		}
		if len(m.spaces) <= 1 {
			err = fmt.Errorf("delete space %q: %w", id, ErrLastSpace)
			return false
		}
		m.spaces = slices.Delete(m.spaces, i, i+1)
		m.nodes = slices.DeleteFunc(m.nodes, func(n canvas.Node) bool { return n.SpaceID == id })
		if m.active == id {
			m.active = m.spaces[0].ID
			m.activeNode, m.renaming, m.selection = canvas.ZeroID, canvas.ZeroID, nil
		}
		return true
	})
	return err
}

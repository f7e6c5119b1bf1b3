package canvas

import (
	"fmt"

	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// NodeID identifies a node. The zero value means "no node".
type NodeID string

// ZeroID is the empty node identifier, used for "no parent".
const ZeroID NodeID = ""

// IsZero reports whether the id is empty.
func (id NodeID) IsZero() bool { return id == ZeroID }

// Short returns a truncated form of the id for log and error messages.
func (id NodeID) Short() string {
	if len(id) <= 8 {
		return string(id)
	}
	return string(id[:8])
}

// NodeType enumerates the kinds of node hosted on the canvas.
type NodeType int

const (
	NodeFolder NodeType = iota // container with collapsible children
	NodePage                   // rich content page
	NodeTimeline               // timeline placeholder
	NodeCalendar               // calendar placeholder
	NodeGroup                  // visual container, drawn beneath everything
)

func (t NodeType) String() string {
	switch t {
	case NodeFolder:
		return "folder"
	case NodePage:
		return "page"
	case NodeTimeline:
		return "timeline"
	case NodeCalendar:
		return "calendar"
	case NodeGroup:
		return "group"
	default:
		return fmt.Sprintf("NodeType(%d)", int(t))
	}
}

// Valid reports whether t is one of the known node types.
func (t NodeType) Valid() bool {
	return t >= NodeFolder && t <= NodeGroup
}

// ParseNodeType converts a type name as produced by String back to a NodeType.
func ParseNodeType(s string) (NodeType, error) {
	switch s {
	case "folder":
		return NodeFolder, nil
	case "page":
		return NodePage, nil
	case "timeline":
		return NodeTimeline, nil
	case "calendar":
		return NodeCalendar, nil
	case "group":
		return NodeGroup, nil
	}
	return 0, fmt.Errorf("unknown node type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t NodeType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("cannot marshal %s", t)
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *NodeType) UnmarshalText(b []byte) error {
	v, err := ParseNodeType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// IsContainer reports whether selecting a node of this type leaves the
// editor's active node untouched.
func (t NodeType) IsContainer() bool {
	return t == NodeFolder || t == NodeGroup
}

// Collaborator is display-only membership information attached to a node.
type Collaborator struct {
	ID       string `json:"id" yaml:"id"`
	Initials string `json:"initials" yaml:"initials"`
	Color    string `json:"color" yaml:"color"`
	Name     string `json:"name" yaml:"name"`
}

// Node is a positioned visual entity on the canvas. Position is the
// world-space top-left corner. A zero Width or Height means the type
// default applies.
type Node struct {
	ID            NodeID         `json:"id" yaml:"id"`
	SpaceID       string         `json:"spaceId" yaml:"space_id"`
	Type          NodeType       `json:"type" yaml:"type"`
	Title         string         `json:"title" yaml:"title"`
	Content       string         `json:"content,omitempty" yaml:"content,omitempty"`
	ParentID      NodeID         `json:"parentId,omitempty" yaml:"parent_id,omitempty"`
	Position      v2.Vec         `json:"position" yaml:"position"`
	Width         float64        `json:"width,omitempty" yaml:"width,omitempty"`
	Height        float64        `json:"height,omitempty" yaml:"height,omitempty"`
	Collapsed     bool           `json:"collapsed,omitempty" yaml:"collapsed,omitempty"`
	Icon          string         `json:"icon,omitempty" yaml:"icon,omitempty"`
	Collaborators []Collaborator `json:"collaborators,omitempty" yaml:"collaborators,omitempty"`
}

// IsGroup reports whether the node is a visual group container.
func (n *Node) IsGroup() bool { return n.Type == NodeGroup }

// Size returns the effective width and height, falling back to the
// per-type defaults for missing dimensions.
func (n *Node) Size() v2.Vec {
	def := DefaultSize(n.Type)
	s := v2.Vec{X: n.Width, Y: n.Height}
	if s.X <= 0 {
		s.X = def.X
	}
	if s.Y <= 0 {
		s.Y = def.Y
	}
	return s
}

// Bounds returns the node's world-space axis-aligned bounding box.
func (n *Node) Bounds() sdf.Box2 {
	s := n.Size()
	return sdf.Box2{
		Min: n.Position,
		Max: v2.Vec{X: n.Position.X + s.X, Y: n.Position.Y + s.Y},
	}
}

// Center returns the centre of the node's bounds.
func (n *Node) Center() v2.Vec {
	return n.Bounds().Center()
}

// DefaultWidth is the width used for every node type that has no width set.
const DefaultWidth = 240

// DefaultSize returns the size assumed for a node of type t with no explicit
// dimensions. Groups are always sized by the store at creation; the fallback
// only matters for groups imported without dimensions.
func DefaultSize(t NodeType) v2.Vec {
	switch t {
	case NodePage:
		return v2.Vec{X: DefaultWidth, Y: 120}
	case NodeGroup:
		return MinSize(NodeGroup)
	default:
		return v2.Vec{X: DefaultWidth, Y: 160}
	}
}

// MinSize returns the smallest size a node of type t may be resized to.
func MinSize(t NodeType) v2.Vec {
	switch t {
	case NodeFolder:
		return v2.Vec{X: 200, Y: 160}
	case NodeGroup:
		return v2.Vec{X: 180, Y: 120}
	default:
		return v2.Vec{X: 200, Y: 120}
	}
}

// GroupIcons is the fixed cycle of symbols a group can display.
var GroupIcons = []string{"layers", "star", "tag", "bookmark", "box"}

// DefaultGroupIcon is shown for groups with no icon set.
const DefaultGroupIcon = "layers"

// NextIcon returns the icon following current in GroupIcons. An empty icon
// counts as the default, so it advances to the second entry. An unknown icon
// restarts the cycle at the first entry.
func NextIcon(current string) string {
	if current == "" {
		current = DefaultGroupIcon
	}
	idx := -1
	for i, icon := range GroupIcons {
		if icon == current {
			idx = i
			break
		}
	}
	return GroupIcons[(idx+1)%len(GroupIcons)]
}

// FindNode returns a pointer to the node with the given id in nodes, or nil.
func FindNode(nodes []Node, id NodeID) *Node {
	if id.IsZero() {
		return nil
	}
	for i := range nodes {
		if nodes[i].ID == id {
			return &nodes[i]
		}
	}
	return nil
}

package canvas

import (
	"fmt"

	v2 "github.com/deadsy/sdfx/vec/v2"
)

// Connection is a cubic curve from a parent's bottom-centre to a child's
// top-centre. Both control points sit at the vertical midpoint, directly
// below the start and above the end.
type Connection struct {
	ParentID NodeID `json:"parentId"`
	ChildID  NodeID `json:"childId"`
	Start    v2.Vec `json:"start"`
	Ctrl1    v2.Vec `json:"ctrl1"`
	Ctrl2    v2.Vec `json:"ctrl2"`
	End      v2.Vec `json:"end"`
}

// NewConnection builds the S-curve between two world points.
func NewConnection(parent, child NodeID, start, end v2.Vec) Connection {
	midY := (start.Y + end.Y) / 2
	return Connection{
		ParentID: parent,
		ChildID:  child,
		Start:    start,
		Ctrl1:    v2.Vec{X: start.X, Y: midY},
		Ctrl2:    v2.Vec{X: end.X, Y: midY},
		End:      end,
	}
}

// Path returns the curve as SVG path data.
func (c Connection) Path() string {
	return fmt.Sprintf("M %g %g C %g %g, %g %g, %g %g",
		c.Start.X, c.Start.Y, c.Ctrl1.X, c.Ctrl1.Y, c.Ctrl2.X, c.Ctrl2.Y, c.End.X, c.End.Y)
}

// Connections derives one curve per node whose parent exists, is not a
// group and is not collapsed. Group membership is shown by nesting only.
func Connections(nodes []Node) []Connection {
	conns := []Connection{}
	for i := range nodes {
		child := &nodes[i]
		parent := FindNode(nodes, child.ParentID)
		if parent == nil || parent.IsGroup() || parent.Collapsed {
			continue
		}
		pb := parent.Bounds()
		start := v2.Vec{X: (pb.Min.X + pb.Max.X) / 2, Y: pb.Max.Y}
		end := v2.Vec{X: child.Position.X + child.Size().X/2, Y: child.Position.Y}
		conns = append(conns, NewConnection(parent.ID, child.ID, start, end))
	}
	return conns
}

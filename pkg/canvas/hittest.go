package canvas

import (
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

// ResizeHandle returns the world-space box of n's resize handle. Only
// groups and folders can be resized: a group's handle fills the 40×40
// bottom-right corner, a folder's is a smaller square inset from it.
func ResizeHandle(n *Node) (sdf.Box2, bool) {
	b := n.Bounds()
	var side, inset float64
	switch n.Type {
	case NodeGroup:
		side = 40
	case NodeFolder:
		side, inset = 28, 6
	default:
		return sdf.Box2{}, false
	}
	max := v2.Vec{X: b.Max.X - inset, Y: b.Max.Y - inset}
	return sdf.Box2{Min: v2.Vec{X: max.X - side, Y: max.Y - side}, Max: max}, true
}

// ContainsPoint reports whether p lies within the half-open box
// [min.x, max.x) × [min.y, max.y).
func ContainsPoint(b sdf.Box2, p v2.Vec) bool {
	return p.X >= b.Min.X && p.X < b.Max.X && p.Y >= b.Min.Y && p.Y < b.Max.Y
}

// IntersectsRect is the separating-axis overlap test. Boxes that only touch
// along an edge do not intersect.
func IntersectsRect(b, r sdf.Box2) bool {
	return b.Min.X < r.Max.X && b.Max.X > r.Min.X && b.Min.Y < r.Max.Y && b.Max.Y > r.Min.Y
}

// NormalizeRect returns the box spanned by two arbitrary corners.
func NormalizeRect(a, b v2.Vec) sdf.Box2 {
	return sdf.Box2{
		Min: v2.Vec{X: min(a.X, b.X), Y: min(a.Y, b.Y)},
		Max: v2.Vec{X: max(a.X, b.X), Y: max(a.Y, b.Y)},
	}
}

// UnionBounds returns the bounding box of all nodes, ignoring hierarchy.
// ok is false when nodes is empty.
func UnionBounds(nodes []Node) (b sdf.Box2, ok bool) {
	for i := range nodes {
		nb := nodes[i].Bounds()
		if !ok {
			b, ok = nb, true
			continue
		}
		b = b.Extend(nb)
	}
	return b, ok
}

// NodesInRect returns the ids of every node whose bounds overlap r, in node
// order.
func NodesInRect(nodes []Node, r sdf.Box2) []NodeID {
	ids := []NodeID{}
	for i := range nodes {
		if IntersectsRect(nodes[i].Bounds(), r) {
			ids = append(ids, nodes[i].ID)
		}
	}
	return ids
}

// Hit describes what lies under a world-space point.
type Hit struct {
	NodeID NodeID
	Handle bool // the node's resize handle rather than its body
}

// IsZero reports whether nothing was hit.
func (h Hit) IsZero() bool { return h.NodeID.IsZero() }

// HitTest returns the topmost visible node under p. Nodes hidden by a
// collapsed parent cannot be hit. selected only affects stacking order.
func HitTest(nodes []Node, selected []NodeID, p v2.Vec) Hit {
	order := DrawOrder(nodes, selected)
	for i := len(order) - 1; i >= 0; i-- {
		n := FindNode(nodes, order[i])
		if !ContainsPoint(n.Bounds(), p) {
			continue
		}
		handle, ok := ResizeHandle(n)
		return Hit{NodeID: n.ID, Handle: ok && ContainsPoint(handle, p)}
	}
	return Hit{}
}

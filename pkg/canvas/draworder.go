package canvas

import "slices"

// Layer is a stacking bucket. Higher layers are drawn above lower ones.
type Layer int

const (
	LayerGroups   Layer = iota // group containers
	LayerNodes                 // every other node
	LayerSelected              // selected non-group nodes
)

// LayerOf returns the stacking layer of n given the current selection.
func LayerOf(n *Node, selected []NodeID) Layer {
	if n.IsGroup() {
		return LayerGroups
	}
	if slices.Contains(selected, n.ID) {
		return LayerSelected
	}
	return LayerNodes
}

// Visible reports whether n is drawn. A node is hidden when its parent is a
// collapsed non-group node. Only the direct parent is consulted.
func Visible(nodes []Node, n *Node) bool {
	parent := FindNode(nodes, n.ParentID)
	if parent == nil {
		return true
	}
	return parent.IsGroup() || !parent.Collapsed
}

// DrawOrder returns the ids of visible nodes from bottom to top. Within a
// layer the original node order is preserved.
func DrawOrder(nodes []Node, selected []NodeID) []NodeID {
	var buckets [LayerSelected + 1][]NodeID
	for i := range nodes {
		n := &nodes[i]
		if !Visible(nodes, n) {
			continue
		}
		l := LayerOf(n, selected)
		buckets[l] = append(buckets[l], n.ID)
	}
	order := make([]NodeID, 0, len(nodes))
	for _, b := range buckets {
		order = append(order, b...)
	}
	return order
}

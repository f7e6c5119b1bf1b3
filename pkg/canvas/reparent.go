package canvas

// ResolveParent decides the parent a dragged node should have after it is
// dropped. The centre of the node's current bounds is tested against every
// group except the node itself, in node order; the first group containing it
// wins. Overlapping groups are not ranked by stacking order.
//
// changed is false when the parent link should stay as it is. Groups are
// never reparented by dropping.
func ResolveParent(dragged *Node, nodes []Node) (parent NodeID, changed bool) {
	if dragged == nil || dragged.IsGroup() {
		return ZeroID, false
	}
	center := dragged.Center()
	for i := range nodes {
		g := &nodes[i]
		if !g.IsGroup() || g.ID == dragged.ID {
			continue
		}
		if ContainsPoint(g.Bounds(), center) {
			return g.ID, dragged.ParentID != g.ID
		}
	}
	return ZeroID, !dragged.ParentID.IsZero()
}

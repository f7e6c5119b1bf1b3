package canvas

import v2 "github.com/deadsy/sdfx/vec/v2"

// Snapshot is the state the canvas reads from the store before handling an
// event. Nodes are already filtered to the active space.
type Snapshot struct {
	Nodes      []Node
	SpaceID    string
	Selection  []NodeID
	RenamingID NodeID
	Background string
}

// Source supplies the latest store state.
type Source interface {
	Snapshot() Snapshot
}

// Sink receives every mutation the canvas requests. Each method is a single
// synchronous call; ids that no longer exist must be ignored.
type Sink interface {
	Select(id NodeID, multi bool)
	SetSelection(ids []NodeID)
	MoveNode(id NodeID, pos v2.Vec)
	ResizeNode(id NodeID, width, height float64)
	ReparentNode(id NodeID, parent NodeID)
	ToggleCollapse(id NodeID)
	RequestAddChild(parent NodeID)
	RequestDeleteNode(id NodeID)
	RequestRename(id NodeID)
	CommitRename(id NodeID, title string)
	SetIcon(id NodeID, icon string)
	BackgroundClicked()
	ColorChanged(value string)
	RequestAddProject(pos v2.Vec)
	RequestCreateGroup()
}

// Store is the external collaborator the Controller is wired to.
type Store interface {
	Source
	Sink
}

package canvas

import "strings"

// UntitledTitle replaces a title that is empty after trimming.
const UntitledTitle = "Untitled"

// RenameField is the inline title editor shown on a node being renamed.
// It commits exactly once: on Enter, on blur, or on Escape with the
// original title.
type RenameField struct {
	ID       NodeID
	Original string
	Value    string
	closed   bool
}

// NewRenameField opens an editor on n prefilled with its title.
func NewRenameField(n *Node) *RenameField {
	return &RenameField{ID: n.ID, Original: n.Title, Value: n.Title}
}

// Title returns the trimmed value, or UntitledTitle when it is blank.
func (f *RenameField) Title() string {
	t := strings.TrimSpace(f.Value)
	if t == "" {
		return UntitledTitle
	}
	return t
}

// Closed reports whether the field has already committed.
func (f *RenameField) Closed() bool { return f.closed }

// Key handles a key press. Enter commits the edited title, Escape commits
// the original one. Other keys are ignored. It reports whether the field
// closed.
func (f *RenameField) Key(key string, sink Sink) bool {
	if f.closed {
		return false
	}
	switch key {
	case "Enter":
		f.commit(f.Title(), sink)
	case "Escape":
		f.commit(f.Original, sink)
	default:
		return false
	}
	return true
}

// Blur commits the edited title when focus leaves the field.
func (f *RenameField) Blur(sink Sink) bool {
	if f.closed {
		return false
	}
	f.commit(f.Title(), sink)
	return true
}

func (f *RenameField) commit(title string, sink Sink) {
	f.closed = true
	sink.CommitRename(f.ID, title)
}

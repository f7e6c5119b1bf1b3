package store

import (
	"fmt"
	"strings"

	"github.com/chazu/spatial/pkg/canvas"
)

// Severity indicates whether a validation finding blocks loading or is
// merely informational.
type Severity int

const (
	SeverityError   Severity = iota // blocks loading
	SeverityWarning                 // informational
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// ValidationError describes a single validation finding.
type ValidationError struct {
	NodeID   canvas.NodeID // which node has the problem (zero if document-level)
	SpaceID  string
	Message  string
	Severity Severity
}

func (e ValidationError) Error() string {
	if e.NodeID.IsZero() {
		return fmt.Sprintf("[%s] %s", e.Severity, e.Message)
	}
	return fmt.Sprintf("[%s] node %s: %s", e.Severity, e.NodeID.Short(), e.Message)
}

// Errors returns the error-severity findings of errs.
func Errors(errs []ValidationError) []ValidationError {
	var out []ValidationError
	for _, e := range errs {
		if e.Severity == SeverityError {
			out = append(out, e)
		}
	}
	return out
}

// Validate runs every structural check over doc. An empty slice means the
// document is valid. doc is never mutated.
func Validate(doc Document) []ValidationError {
	var errs []ValidationError
	errs = append(errs, validateSpaces(doc)...)
	errs = append(errs, validateNodes(doc)...)
	errs = append(errs, validateParents(doc)...)
	errs = append(errs, validateCycles(doc)...)
	return errs
}

func validateSpaces(doc Document) []ValidationError {
	var errs []ValidationError
	seen := make(map[string]bool)
	for _, s := range doc.Spaces {
		switch {
		case strings.TrimSpace(s.ID) == "":
			errs = append(errs, ValidationError{
				Message:  fmt.Sprintf("space %q has a blank id", s.Name),
				Severity: SeverityError,
			})
		case seen[s.ID]:
			errs = append(errs, ValidationError{
				SpaceID:  s.ID,
				Message:  fmt.Sprintf("duplicate space id %q", s.ID),
				Severity: SeverityError,
			})
		}
		seen[s.ID] = true
		if s.Background != "" && !canvas.InPalette(s.Background) {
			errs = append(errs, ValidationError{
				SpaceID:  s.ID,
				Message:  fmt.Sprintf("space %q background %s is not in the palette", s.Name, s.Background),
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}

func validateNodes(doc Document) []ValidationError {
	var errs []ValidationError
	spaces := make(map[string]bool)
	for _, s := range doc.Spaces {
		spaces[s.ID] = true
	}
	seen := make(map[canvas.NodeID]bool)
	for _, n := range doc.Nodes {
		if strings.TrimSpace(string(n.ID)) == "" {
			errs = append(errs, ValidationError{
				SpaceID:  n.SpaceID,
				Message:  fmt.Sprintf("node %q has a blank id", n.Title),
				Severity: SeverityError,
			})
			continue
		}
		if seen[n.ID] {
			errs = append(errs, ValidationError{
				NodeID:   n.ID,
				Message:  "duplicate node id",
				Severity: SeverityError,
			})
		}
		seen[n.ID] = true
		if !n.Type.Valid() {
			errs = append(errs, ValidationError{
				NodeID:   n.ID,
				Message:  fmt.Sprintf("invalid node type %s", n.Type),
				Severity: SeverityError,
			})
		}
		if !spaces[n.SpaceID] {
			errs = append(errs, ValidationError{
				NodeID:   n.ID,
				Message:  fmt.Sprintf("space %q does not exist", n.SpaceID),
				Severity: SeverityError,
			})
		}
		if n.Width < 0 || n.Height < 0 {
			errs = append(errs, ValidationError{
				NodeID:   n.ID,
				Message:  fmt.Sprintf("negative size %gx%g", n.Width, n.Height),
				Severity: SeverityError,
			})
		}
		if n.Icon != "" && !n.IsGroup() {
			errs = append(errs, ValidationError{
				NodeID:   n.ID,
				Message:  fmt.Sprintf("icon %q on a %s is ignored", n.Icon, n.Type),
				Severity: SeverityWarning,
			})
		}
		if snapped := canvas.SnapVec(n.Position); snapped != n.Position {
			errs = append(errs, ValidationError{
				NodeID:   n.ID,
				Message:  fmt.Sprintf("position (%g, %g) is off the grid", n.Position.X, n.Position.Y),
				Severity: SeverityWarning,
			})
		}
	}
	return errs
}

// validateParents checks that every parent exists, is not the node itself
// and lives in the same space.
func validateParents(doc Document) []ValidationError {
	var errs []ValidationError
	for i := range doc.Nodes {
		n := &doc.Nodes[i]
		if n.ParentID.IsZero() {
			continue
		}
		p := canvas.FindNode(doc.Nodes, n.ParentID)
		switch {
		case p == nil:
			errs = append(errs, ValidationError{
				NodeID:   n.ID,
				Message:  fmt.Sprintf("parent %s does not exist", n.ParentID.Short()),
				Severity: SeverityError,
			})
		case p.ID == n.ID:
			errs = append(errs, ValidationError{
				NodeID:   n.ID,
				Message:  "node is its own parent",
				Severity: SeverityError,
			})
		case p.SpaceID != n.SpaceID:
			errs = append(errs, ValidationError{
				NodeID:   n.ID,
				Message:  fmt.Sprintf("parent %s is in space %q, not %q", p.ID.Short(), p.SpaceID, n.SpaceID),
				Severity: SeverityError,
			})
		}
	}
	return errs
}

// validateCycles checks the parent links for cycles using DFS with 3-colour
// marking. White (0) = unvisited, gray (1) = on the current path, black (2)
// = fully explored. Reaching a gray node means a cycle. Self-parents are
// reported by validateParents.
func validateCycles(doc Document) []ValidationError {
	const (
		white = iota
		gray
		black
	)

	parent := make(map[canvas.NodeID]canvas.NodeID, len(doc.Nodes))
	for _, n := range doc.Nodes {
		if n.ParentID != n.ID {
			parent[n.ID] = n.ParentID
		}
	}

	color := make(map[canvas.NodeID]int)
	var errs []ValidationError

	var visit func(id canvas.NodeID)
	visit = func(id canvas.NodeID) {
		switch color[id] {
		case black:
			return
		case gray:
			errs = append(errs, ValidationError{
				NodeID:   id,
				Message:  fmt.Sprintf("parent cycle through node %s", id.Short()),
				Severity: SeverityError,
			})
			return
		}
		color[id] = gray
		if p, ok := parent[id]; ok && !p.IsZero() {
			if _, exists := parent[p]; exists {
				visit(p)
			}
		}
		color[id] = black
	}

	// Start from every node in document order so findings are stable.
	for _, n := range doc.Nodes {
		if color[n.ID] == white {
			visit(n.ID)
		}
	}
	return errs
}

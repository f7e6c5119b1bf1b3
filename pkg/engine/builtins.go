package engine

import (
	"fmt"
	"strings"

	"github.com/chazu/spatial/pkg/canvas"
	"github.com/chazu/spatial/pkg/store"
	v2 "github.com/deadsy/sdfx/vec/v2"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms layout source before passing it to zygomys.
// It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: q4-spec -> q4_spec
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator).
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		if b[i] == ':' && i+1 < len(b) {
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				result = append(result, '"')
				result = append(result, kwPrefix...)
				result = append(result, b[i+1:j]...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Only when the hyphen sits between identifier characters; a
		// minus operator is left alone.
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isLetter(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec wraps a world-space point or size.
type sexpVec struct {
	vec v2.Vec
}

func (v *sexpVec) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec %g %g)", v.vec.X, v.vec.Y)
}
func (v *sexpVec) Type() *zygo.RegisteredType { return nil }

// sexpCollaborator wraps display-only membership info.
type sexpCollaborator struct {
	c canvas.Collaborator
}

func (c *sexpCollaborator) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(collaborator %q)", c.c.Initials)
}
func (c *sexpCollaborator) Type() *zygo.RegisteredType { return nil }

// sexpSpaceRef is returned by `space`.
type sexpSpaceRef struct {
	id string
}

func (s *sexpSpaceRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(spaceref %q)", s.id)
}
func (s *sexpSpaceRef) Type() *zygo.RegisteredType { return nil }

// sexpNodeRef wraps a NodeID so it can be passed between builtins.
type sexpNodeRef struct {
	id canvas.NodeID
}

func (n *sexpNodeRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(noderef %q)", string(n.id))
}
func (n *sexpNodeRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW reports whether s is a preprocessed keyword string and returns its
// name without the prefix.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				result.kw[name] = zygo.SexpNull
				i++
			}
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toBool accepts true/false. A keyword given without a value counts as true.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return true, nil
		}
	}
	return false, fmt.Errorf("expected true or false, got %T (%s)", s, s.SexpString(nil))
}

func toVec(s zygo.Sexp) (v2.Vec, error) {
	if v, ok := s.(*sexpVec); ok {
		return v.vec, nil
	}
	return v2.Vec{}, fmt.Errorf("expected (vec x y), got %T (%s)", s, s.SexpString(nil))
}

// toNodeRef extracts a NodeID from a sexpNodeRef.
func toNodeRef(s zygo.Sexp) (canvas.NodeID, error) {
	if ref, ok := s.(*sexpNodeRef); ok {
		return ref.id, nil
	}
	return canvas.ZeroID, fmt.Errorf("expected node reference, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

func toStrings(s zygo.Sexp) ([]string, error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		str, err := toString(item)
		if err != nil {
			return nil, err
		}
		out = append(out, str)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Document builder
// ---------------------------------------------------------------------------

// builder accumulates the spaces and nodes declared by one evaluation.
type builder struct {
	spaces []store.Space
	nodes  []canvas.Node
	active string
	counts map[string]int
}

func newBuilder() *builder {
	return &builder{counts: make(map[string]int)}
}

// nextID returns prefix-N, skipping ids already declared explicitly.
func (b *builder) nextID(prefix string) string {
	for {
		b.counts[prefix]++
		id := fmt.Sprintf("%s-%d", prefix, b.counts[prefix])
		if !b.taken(id) {
			return id
		}
	}
}

func (b *builder) taken(id string) bool {
	for _, s := range b.spaces {
		if s.ID == id {
			return true
		}
	}
	return b.node(canvas.NodeID(id)) != nil
}

func (b *builder) node(id canvas.NodeID) *canvas.Node {
	return canvas.FindNode(b.nodes, id)
}

// currentSpace is the most recently declared space.
func (b *builder) currentSpace() (string, error) {
	if len(b.spaces) == 0 {
		return "", fmt.Errorf("no space declared; start with (space \"name\")")
	}
	return b.spaces[len(b.spaces)-1].ID, nil
}

func (b *builder) document() store.Document {
	doc := store.Document{
		Spaces:      b.spaces,
		Nodes:       b.nodes,
		ActiveSpace: b.active,
	}
	if doc.ActiveSpace == "" && len(doc.Spaces) > 0 {
		doc.ActiveSpace = doc.Spaces[0].ID
	}
	return doc
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the layout builtins into a zygomys environment.
// They operate on b, populating it during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *builder) {

	// -----------------------------------------------------------------------
	// (vec 120 80)
	// -----------------------------------------------------------------------
	env.AddFunction("vec", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("vec requires exactly 2 arguments, got %d", len(args))
		}
		x, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec: x: %w", err)
		}
		y, err := toFloat64(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("vec: y: %w", err)
		}
		return &sexpVec{vec: v2.Vec{X: x, Y: y}}, nil
	})

	// -----------------------------------------------------------------------
	// (collaborator "JD" :id "u1" :color "bg-indigo-500" :name "John Doe")
	// -----------------------------------------------------------------------
	env.AddFunction("collaborator", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("collaborator requires initials")
		}
		initials, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("collaborator: initials: %w", err)
		}
		c := canvas.Collaborator{ID: initials, Initials: initials}
		for key, dst := range map[string]*string{"id": &c.ID, "color": &c.Color, "name": &c.Name} {
			if v, ok := pa.kw[key]; ok {
				s, err := toString(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("collaborator: %s: %w", key, err)
				}
				*dst = s
			}
		}
		return &sexpCollaborator{c: c}, nil
	})

	// -----------------------------------------------------------------------
	// (space "Name" :id "space-1" :color "#f8fafc" :public true
	//        :members (list "a@b.com") :description "..." :picture-url "..."
	//        :active true)
	// -----------------------------------------------------------------------
	env.AddFunction("space", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("space requires a name argument")
		}
		var in store.SpaceInput
		var err error
		if in.Name, err = toString(pa.positional[0]); err != nil {
			return zygo.SexpNull, fmt.Errorf("space: name: %w", err)
		}
		for key, dst := range map[string]*string{
			"color":       &in.Background,
			"description": &in.Description,
			"picture-url": &in.PictureURL,
		} {
			if v, ok := pa.kw[key]; ok {
				if *dst, err = toString(v); err != nil {
					return zygo.SexpNull, fmt.Errorf("space: %s: %w", key, err)
				}
			}
		}
		if v, ok := pa.kw["public"]; ok {
			if in.IsPublic, err = toBool(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("space: public: %w", err)
			}
		}
		if v, ok := pa.kw["members"]; ok {
			if in.Members, err = toStrings(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("space: members: %w", err)
			}
		}
		if err := in.Validate(); err != nil {
			return zygo.SexpNull, fmt.Errorf("space %q: %w", in.Name, err)
		}

		id := ""
		if v, ok := pa.kw["id"]; ok {
			if id, err = toString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("space: id: %w", err)
			}
		} else {
			id = b.nextID("space")
		}
		members := in.Members
		if members == nil {
			members = []string{}
		}
		b.spaces = append(b.spaces, store.Space{
			ID:          id,
			Name:        strings.TrimSpace(in.Name),
			IsPublic:    in.IsPublic,
			Members:     members,
			Description: in.Description,
			PictureURL:  in.PictureURL,
			Background:  in.Background,
		})
		if v, ok := pa.kw["active"]; ok {
			active, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("space: active: %w", err)
			}
			if active {
				b.active = id
			}
		}
		return &sexpSpaceRef{id: id}, nil
	})

	// -----------------------------------------------------------------------
	// (folder "Title" :at (vec 120 120) :size (vec 280 160) :collapsed true)
	// (page "Title" :parent ref :at (vec 80 320) :content "<p>...</p>")
	// (timeline "Title" ...) (calendar "Title" ...)
	// -----------------------------------------------------------------------
	for _, t := range []canvas.NodeType{canvas.NodeFolder, canvas.NodePage, canvas.NodeTimeline, canvas.NodeCalendar} {
		env.AddFunction(t.String(), func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			pa := parseArgs(args)
			n, err := b.newNode(t, pa)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("%s: %w", name, err)
			}
			if len(pa.positional) > 1 {
				return zygo.SexpNull, fmt.Errorf("%s: unexpected argument %s", name, pa.positional[1].SexpString(nil))
			}
			b.nodes = append(b.nodes, n)
			return &sexpNodeRef{id: n.ID}, nil
		})
	}

	// -----------------------------------------------------------------------
	// (group "Title" :icon "star" (page ...) (page ...) ...)
	//
	// Without :at the group wraps its members like the canvas's group
	// button does: their union bounds plus store.GroupPadding.
	// -----------------------------------------------------------------------
	env.AddFunction("group", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		g, err := b.newNode(canvas.NodeGroup, pa)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("group: %w", err)
		}

		var members []canvas.Node
		for i, arg := range pa.positional[1:] {
			id, err := toNodeRef(arg)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("group: member %d: %w", i+1, err)
			}
			m := b.node(id)
			if m == nil {
				return zygo.SexpNull, fmt.Errorf("group: member %d: no node %q", i+1, id)
			}
			members = append(members, *m)
		}

		if _, ok := pa.kw["at"]; !ok {
			if bounds, ok := canvas.UnionBounds(members); ok {
				size := bounds.Size()
				g.Position = v2.Vec{X: bounds.Min.X - store.GroupPadding, Y: bounds.Min.Y - store.GroupPadding}
				if _, sized := pa.kw["size"]; !sized {
					g.Width = size.X + 2*store.GroupPadding
					g.Height = size.Y + 2*store.GroupPadding
				}
			}
		}
		if g.Icon == "" {
			g.Icon = canvas.DefaultGroupIcon
		}

		b.nodes = append(b.nodes, g)
		for _, m := range members {
			b.node(m.ID).ParentID = g.ID
		}
		return &sexpNodeRef{id: g.ID}, nil
	})

	// -----------------------------------------------------------------------
	// (node "folder-1")
	// -----------------------------------------------------------------------
	env.AddFunction("node", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("node requires an id argument")
		}
		id, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("node: id: %w", err)
		}
		if b.node(canvas.NodeID(id)) == nil {
			return zygo.SexpNull, fmt.Errorf("node: no node %q", id)
		}
		return &sexpNodeRef{id: canvas.NodeID(id)}, nil
	})
}

// newNode builds a node of type t from the common keyword arguments. The
// first positional argument is the title.
func (b *builder) newNode(t canvas.NodeType, pa kwArgs) (canvas.Node, error) {
	space, err := b.currentSpace()
	if err != nil {
		return canvas.Node{}, err
	}
	n := canvas.Node{SpaceID: space, Type: t}
	if len(pa.positional) < 1 {
		return n, fmt.Errorf("requires a title argument")
	}
	if n.Title, err = toString(pa.positional[0]); err != nil {
		return n, fmt.Errorf("title: %w", err)
	}

	if v, ok := pa.kw["id"]; ok {
		id, err := toString(v)
		if err != nil {
			return n, fmt.Errorf("id: %w", err)
		}
		n.ID = canvas.NodeID(id)
	} else {
		n.ID = canvas.NodeID(b.nextID(t.String()))
	}
	if v, ok := pa.kw["at"]; ok {
		if n.Position, err = toVec(v); err != nil {
			return n, fmt.Errorf("at: %w", err)
		}
	}
	if v, ok := pa.kw["size"]; ok {
		size, err := toVec(v)
		if err != nil {
			return n, fmt.Errorf("size: %w", err)
		}
		n.Width, n.Height = size.X, size.Y
	}
	if v, ok := pa.kw["parent"]; ok {
		if n.ParentID, err = toNodeRef(v); err != nil {
			return n, fmt.Errorf("parent: %w", err)
		}
	}
	if v, ok := pa.kw["collapsed"]; ok {
		if n.Collapsed, err = toBool(v); err != nil {
			return n, fmt.Errorf("collapsed: %w", err)
		}
	}
	for key, dst := range map[string]*string{"content": &n.Content, "icon": &n.Icon} {
		if v, ok := pa.kw[key]; ok {
			if *dst, err = toString(v); err != nil {
				return n, fmt.Errorf("%s: %w", key, err)
			}
		}
	}
	if v, ok := pa.kw["collaborators"]; ok {
		items, err := sexpListToSlice(v)
		if err != nil {
			return n, fmt.Errorf("collaborators: %w", err)
		}
		for _, item := range items {
			c, ok := item.(*sexpCollaborator)
			if !ok {
				return n, fmt.Errorf("collaborators: expected collaborator, got %T", item)
			}
			n.Collaborators = append(n.Collaborators, c.c)
		}
	}
	return n, nil
}

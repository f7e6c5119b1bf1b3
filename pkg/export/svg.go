package export

import (
	"fmt"
	"html"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"
	"github.com/chazu/spatial/pkg/canvas"
)

// Card styling.
const (
	cardRadius    = 12
	titleInset    = 16
	titleBaseline = 28
)

var typeStroke = map[canvas.NodeType]string{
	canvas.NodeFolder:   "#6366f1",
	canvas.NodePage:     "#94a3b8",
	canvas.NodeTimeline: "#f59e0b",
	canvas.NodeCalendar: "#10b981",
	canvas.NodeGroup:    "#cbd5e1",
}

func px(v float64) int { return int(math.Round(v)) }

// SVG draws f as it appears on screen: background, connectors, node cards
// in draw order and the rubber band if one is being drawn. The grid is
// omitted.
func SVG(w io.Writer, f canvas.Frame) error {
	if f.Viewport.Size.X <= 0 || f.Viewport.Size.Y <= 0 {
		return fmt.Errorf("svg: empty viewport %gx%g", f.Viewport.Size.X, f.Viewport.Size.Y)
	}
	width, height := px(f.Viewport.Size.X), px(f.Viewport.Size.Y)

	s := svg.New(w)
	s.Start(width, height)
	s.Rect(0, 0, width, height, "fill:"+f.Background)

	s.Gtransform(fmt.Sprintf("translate(%g %g) scale(%g)", f.Viewport.Pan.X, f.Viewport.Pan.Y, f.Viewport.Zoom))

	s.Gstyle("fill:none;stroke:#94a3b8;stroke-width:2")
	for _, c := range f.Connections {
		if f.Node(c.ChildID) == nil {
			continue
		}
		s.Path(c.Path())
	}
	s.Gend()

	for _, n := range f.Nodes {
		drawNode(s, &n)
	}

	if f.SelectionBox != nil {
		b := *f.SelectionBox
		size := b.Size()
		s.Rect(px(b.Min.X), px(b.Min.Y), px(size.X), px(size.Y),
			"fill:#3b82f6;fill-opacity:0.1;stroke:#3b82f6;stroke-dasharray:4 4")
	}

	s.Gend()
	s.End()
	return nil
}

func drawNode(s *svg.SVG, n *canvas.FrameNode) {
	b := n.Bounds()
	size := b.Size()
	x, y, w, h := px(b.Min.X), px(b.Min.Y), px(size.X), px(size.Y)

	stroke := typeStroke[n.Type]
	if n.Selected {
		stroke = "#3b82f6"
	}
	style := fmt.Sprintf("fill:#ffffff;stroke:%s;stroke-width:2", stroke)
	if n.IsGroup() {
		style = fmt.Sprintf("fill:#f1f5f9;fill-opacity:0.5;stroke:%s;stroke-width:2;stroke-dasharray:8 6", stroke)
	}

	s.Group(fmt.Sprintf(`id="%s"`, html.EscapeString(string(n.ID))))
	s.Title(n.Title)
	s.Roundrect(x, y, w, h, cardRadius, cardRadius, style)
	s.Text(x+titleInset, y+titleBaseline, n.Title, "font-family:sans-serif;font-size:14px;fill:#0f172a")
	if n.IsGroup() {
		s.Text(x+w-titleInset, y+titleBaseline, n.Icon, "font-family:sans-serif;font-size:10px;fill:#64748b;text-anchor:end")
	} else if n.Collapsed {
		s.Text(x+titleInset, y+h-titleInset, "collapsed", "font-family:sans-serif;font-size:10px;fill:#64748b")
	}
	s.Gend()
}

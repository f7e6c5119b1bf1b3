package export

import (
	"bytes"
	"encoding/xml"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/chazu/spatial/pkg/canvas"
	"github.com/chazu/spatial/pkg/store"
	"github.com/deadsy/sdfx/sdf"
	v2 "github.com/deadsy/sdfx/vec/v2"
)

func sampleDoc() store.Document {
	return store.Document{
		Spaces: []store.Space{{ID: "s", Name: "S", Members: []string{"a@b.io"}, Background: "#f0f9ff"}},
		Nodes: []canvas.Node{
			{ID: "f", SpaceID: "s", Type: canvas.NodeFolder, Title: "Roadmap", Position: v2.Vec{X: 120, Y: 120}, Width: 280, Height: 160},
			{ID: "p", SpaceID: "s", Type: canvas.NodePage, Title: "Q&A", ParentID: "f", Position: v2.Vec{X: 80, Y: 320}},
			{ID: "g", SpaceID: "s", Type: canvas.NodeGroup, Title: "G", Position: v2.Vec{X: 0, Y: 0}, Width: 800, Height: 600, Icon: "star"},
		},
		ActiveSpace: "s",
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"json", FormatJSON, false},
		{"YAML", FormatYAML, false},
		{"yml", FormatYAML, false},
		{"svg", FormatSVG, false},
		{"png", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr || got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, %v", tt.in, got, err)
			}
		})
	}
	if f, ok := FormatFromPath("/tmp/layout.yml"); !ok || f != FormatYAML {
		t.Errorf("FormatFromPath = %q, %v", f, ok)
	}
	if _, ok := FormatFromPath("/tmp/layout.zy"); ok {
		t.Error("script path reported as a document format")
	}
}

func TestEncodeDecode(t *testing.T) {
	for _, f := range []Format{FormatJSON, FormatYAML} {
		t.Run(string(f), func(t *testing.T) {
			var buf bytes.Buffer
			if err := Encode(&buf, sampleDoc(), f); err != nil {
				t.Fatalf("Encode: %v", err)
			}
			if !strings.Contains(buf.String(), "folder") {
				t.Errorf("node type not written by name:\n%s", buf.String())
			}
			got, err := Decode(&buf, f)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !reflect.DeepEqual(got, sampleDoc()) {
				t.Errorf("got %+v\nwant %+v", got, sampleDoc())
			}
		})
	}
}

func TestEncodeRejectsSVG(t *testing.T) {
	if err := Encode(&bytes.Buffer{}, sampleDoc(), FormatSVG); err == nil {
		t.Error("expected error")
	}
	if _, err := Decode(strings.NewReader("{}"), FormatSVG); err == nil {
		t.Error("expected error")
	}
}

func TestDecodeBadInput(t *testing.T) {
	if _, err := Decode(strings.NewReader(`{"nodes": [{"type": "blob"}]}`), FormatJSON); err == nil {
		t.Error("expected error for unknown node type")
	}
}

func testFrame() canvas.Frame {
	doc := sampleDoc()
	box := sdf.Box2{Min: v2.Vec{X: 10, Y: 10}, Max: v2.Vec{X: 50, Y: 30}}
	f := canvas.Frame{
		Viewport:     canvas.NewViewport(1000, 800),
		Background:   "#f0f9ff",
		Connections:  canvas.Connections(doc.Nodes),
		SelectionBox: &box,
	}
	for _, id := range canvas.DrawOrder(doc.Nodes, []canvas.NodeID{"p"}) {
		n := canvas.FindNode(doc.Nodes, id)
		f.Nodes = append(f.Nodes, canvas.FrameNode{Node: *n, Selected: id == "p"})
	}
	return f
}

func TestSVG(t *testing.T) {
	var buf bytes.Buffer
	if err := SVG(&buf, testFrame()); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	// Must be well-formed XML.
	dec := xml.NewDecoder(strings.NewReader(out))
	for {
		_, err := dec.Token()
		if err != nil {
			if err != io.EOF {
				t.Fatalf("malformed svg: %v\n%s", err, out)
			}
			break
		}
	}

	checks := []string{
		`width="1000"`,
		`fill:#f0f9ff`,
		`M 260 280 C 260 300, 200 300, 200 320`, // folder bottom-centre to page top-centre
		`Q&amp;A`,
		`stroke:#3b82f6`,
		`stroke-dasharray:8 6`,
		`id="g"`,
	}
	for _, c := range checks {
		if !strings.Contains(out, c) {
			t.Errorf("svg missing %q", c)
		}
	}
	// Groups are drawn first.
	if strings.Index(out, `id="g"`) > strings.Index(out, `id="f"`) {
		t.Error("group drawn above folder")
	}
}

func TestSVGEscapesNodeID(t *testing.T) {
	f := canvas.Frame{Viewport: canvas.NewViewport(400, 300)}
	f.Nodes = []canvas.FrameNode{{Node: canvas.Node{ID: `a"<b>&c`, Type: canvas.NodePage, Title: "T"}}}
	var buf bytes.Buffer
	if err := SVG(&buf, f); err != nil {
		t.Fatal(err)
	}
	dec := xml.NewDecoder(strings.NewReader(buf.String()))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			t.Fatal("no group element for the node")
		}
		if err != nil {
			t.Fatalf("malformed svg: %v\n%s", err, buf.String())
		}
		if se, ok := tok.(xml.StartElement); ok && se.Name.Local == "g" {
			for _, a := range se.Attr {
				if a.Name.Local == "id" && a.Value == `a"<b>&c` {
					return
				}
			}
		}
	}
}

func TestSVGEmptyViewport(t *testing.T) {
	if err := SVG(&bytes.Buffer{}, canvas.Frame{}); err == nil {
		t.Error("expected error for zero-sized viewport")
	}
}

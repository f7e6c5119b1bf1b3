package canvas

import (
	"math"
	"math/rand/v2"
	"testing"

	v2 "github.com/deadsy/sdfx/vec/v2"
)

const eps = 1e-9

func near(a, b v2.Vec, tol float64) bool {
	return math.Abs(a.X-b.X) <= tol && math.Abs(a.Y-b.Y) <= tol
}

func TestScreenWorldRoundTrip(t *testing.T) {
	v := Viewport{Zoom: 0.5, Pan: v2.Vec{X: 30, Y: -20}, Size: v2.Vec{X: 800, Y: 600}}
	p := v2.Vec{X: 123, Y: 456}
	w := v.ScreenToWorld(p)
	if want := (v2.Vec{X: 186, Y: 952}); !near(w, want, eps) {
		t.Errorf("ScreenToWorld = %v, want %v", w, want)
	}
	if back := v.WorldToScreen(w); !near(back, p, eps) {
		t.Errorf("round trip = %v, want %v", back, p)
	}
}

func TestClampZoom(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{1, 1},
		{0, MinZoom},
		{-3, MinZoom},
		{9, MaxZoom},
		{math.NaN(), MinZoom},
		{math.Inf(1), MaxZoom},
	}
	for _, tt := range tests {
		if got := ClampZoom(tt.in); got != tt.want {
			t.Errorf("ClampZoom(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestScreenToWorldZeroZoom(t *testing.T) {
	v := Viewport{Zoom: 0, Size: v2.Vec{X: 100, Y: 100}}
	w := v.ScreenToWorld(v2.Vec{X: 10, Y: 10})
	if math.IsInf(w.X, 0) || math.IsNaN(w.X) {
		t.Fatalf("zero zoom produced %v", w)
	}
}

// ---------------------------------------------------------------------------
// Zoom anchoring
// ---------------------------------------------------------------------------

func TestWheelZoomAnchorsCursor(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 5))
	for i := 0; i < 2000; i++ {
		v := Viewport{
			Zoom: MinZoom + r.Float64()*(MaxZoom-MinZoom),
			Pan:  v2.Vec{X: (r.Float64() - 0.5) * 1000, Y: (r.Float64() - 0.5) * 1000},
			Size: v2.Vec{X: 1000, Y: 800},
		}
		cursor := v2.Vec{X: r.Float64() * 1000, Y: r.Float64() * 800}
		dy := (r.Float64() - 0.5) * 100
		before := v.ScreenToWorld(cursor)

		v.WheelZoom(cursor, dy, nil)

		if after := v.WorldToScreen(before); !near(after, cursor, 1e-6) {
			t.Fatalf("iteration %d: world %v moved from %v to %v (zoom %v)", i, before, cursor, after, v.Zoom)
		}
	}
}

func TestWheelZoomScenario(t *testing.T) {
	nodes := []Node{page("p", 0, 0)}
	v := NewViewport(1000, 800)
	v.WheelZoom(v2.Vec{X: 50, Y: 50}, -100, nodes)

	if v.Zoom <= 1 {
		t.Fatalf("zoom = %v, want > 1", v.Zoom)
	}
	if v.Zoom != MaxZoom {
		t.Errorf("exp(0.6) exceeds the max, zoom = %v, want %v", v.Zoom, MaxZoom)
	}
	if got := v.WorldToScreen(v2.Vec{X: 50, Y: 50}); !near(got, v2.Vec{X: 50, Y: 50}, eps) {
		t.Errorf("world (50,50) maps to %v after zoom, want (50,50)", got)
	}
	if !near(v.Pan, v2.Vec{X: -25, Y: -25}, eps) {
		t.Errorf("pan = %v, want (-25,-25)", v.Pan)
	}
}

func TestWheelZoomBounded(t *testing.T) {
	v := NewViewport(1000, 800)
	for i := 0; i < 50; i++ {
		v.WheelZoom(v2.Vec{X: 500, Y: 400}, 500, nil)
	}
	if v.Zoom != MinZoom {
		t.Errorf("zoom out floor = %v, want %v", v.Zoom, MinZoom)
	}
	for i := 0; i < 50; i++ {
		v.WheelZoom(v2.Vec{X: 500, Y: 400}, -500, nil)
	}
	if v.Zoom != MaxZoom {
		t.Errorf("zoom in ceiling = %v, want %v", v.Zoom, MaxZoom)
	}
}

func TestStepZoom(t *testing.T) {
	v := NewViewport(1000, 800)
	v.Pan = v2.Vec{X: 12, Y: 34}
	v.StepZoom(1)
	if math.Abs(v.Zoom-1.1) > eps {
		t.Errorf("zoom in = %v, want 1.1", v.Zoom)
	}
	if v.Pan != (v2.Vec{X: 12, Y: 34}) {
		t.Errorf("pan changed to %v", v.Pan)
	}
	for i := 0; i < 20; i++ {
		v.StepZoom(-1)
	}
	if v.Zoom != FitMinZoom {
		t.Errorf("zoom out floor = %v, want %v", v.Zoom, FitMinZoom)
	}
	for i := 0; i < 20; i++ {
		v.StepZoom(1)
	}
	if v.Zoom != MaxZoom {
		t.Errorf("zoom in ceiling = %v, want %v", v.Zoom, MaxZoom)
	}
}

// ---------------------------------------------------------------------------
// Pan clamping
// ---------------------------------------------------------------------------

func TestClampPanIdempotent(t *testing.T) {
	r := rand.New(rand.NewPCG(9, 9))
	contents := [][]Node{
		nil,
		{page("p", 0, 0)},
		{folder("f", -4000, 2000, 240, 160), page("p", 3000, -500)},
	}
	for _, nodes := range contents {
		v := NewViewport(1200, 900)
		for i := 0; i < 1000; i++ {
			pan := v2.Vec{X: (r.Float64() - 0.5) * 20000, Y: (r.Float64() - 0.5) * 20000}
			z := MinZoom + r.Float64()*(MaxZoom-MinZoom)
			once := v.ClampPan(pan, z, nodes)
			twice := v.ClampPan(once, z, nodes)
			if !near(once, twice, 1e-6) {
				t.Fatalf("ClampPan not idempotent: %v -> %v -> %v", pan, once, twice)
			}
		}
	}
}

func TestClampPanKeepsContentReachable(t *testing.T) {
	nodes := []Node{folder("f", 0, 0, 400, 400)}
	v := NewViewport(1000, 800)
	v.PanBy(v2.Vec{X: -50000, Y: 50000}, nodes)

	c := v.WorldToScreen(v2.Vec{X: 200, Y: 200})
	if c.X != -PanMargin {
		t.Errorf("content centre x = %v, want %v", c.X, -float64(PanMargin))
	}
	if c.Y != v.Size.Y+PanMargin {
		t.Errorf("content centre y = %v, want %v", c.Y, v.Size.Y+PanMargin)
	}
}

func TestClampPanEmptyCanvas(t *testing.T) {
	v := NewViewport(1000, 800)
	got := v.ClampPan(v2.Vec{X: 99999, Y: -99999}, 1, nil)
	if want := (v2.Vec{X: 500 + EmptyPanLimit, Y: 400 - EmptyPanLimit}); got != want {
		t.Errorf("ClampPan = %v, want %v", got, want)
	}
	inside := v2.Vec{X: 100, Y: 100}
	if got := v.ClampPan(inside, 1, nil); got != inside {
		t.Errorf("pan within range changed: %v", got)
	}
}

func TestWheelPan(t *testing.T) {
	v := NewViewport(1000, 800)
	v.WheelPan(30, -40, []Node{page("p", 0, 0)})
	if v.Pan != (v2.Vec{X: -30, Y: 40}) {
		t.Errorf("pan = %v, want (-30, 40)", v.Pan)
	}
}

// ---------------------------------------------------------------------------
// Fit
// ---------------------------------------------------------------------------

func TestFit(t *testing.T) {
	tests := []struct {
		name     string
		nodes    []Node
		wantZoom float64
		wantPan  v2.Vec
	}{
		{
			name:     "empty centres at zoom 1",
			wantZoom: 1,
			wantPan:  v2.Vec{X: 500, Y: 400},
		},
		{
			name:     "small content capped at 1",
			nodes:    []Node{folder("f", 100, 100, 240, 160)},
			wantZoom: 1,
			wantPan:  v2.Vec{X: 500 - 220, Y: 400 - 180},
		},
		{
			name:     "wide content",
			nodes:    []Node{folder("a", 0, 0, 240, 160), folder("b", 1360, 0, 240, 160)},
			wantZoom: 0.5,
			wantPan:  v2.Vec{X: 500 - 800*0.5, Y: 400 - 80*0.5},
		},
		{
			name:     "huge content floored",
			nodes:    []Node{page("a", 0, 0), page("b", 100000, 0)},
			wantZoom: FitMinZoom,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewViewport(1000, 800)
			v.Zoom = 0.3
			v.Pan = v2.Vec{X: -999, Y: 999}
			v.Fit(tt.nodes)
			if math.Abs(v.Zoom-tt.wantZoom) > eps {
				t.Errorf("zoom = %v, want %v", v.Zoom, tt.wantZoom)
			}
			if tt.wantPan != (v2.Vec{}) && !near(v.Pan, tt.wantPan, eps) {
				t.Errorf("pan = %v, want %v", v.Pan, tt.wantPan)
			}
			if b, ok := UnionBounds(tt.nodes); ok {
				if c := v.WorldToScreen(b.Center()); !near(c, v.Center(), 1e-6) {
					t.Errorf("content centre maps to %v, want viewport centre %v", c, v.Center())
				}
			}
		})
	}
}

func TestFitTinyViewport(t *testing.T) {
	v := NewViewport(150, 150)
	v.Fit([]Node{folder("f", 0, 0, 400, 400)})
	// Available space never drops below 100px: 100/400.
	if math.Abs(v.Zoom-0.25) > eps {
		t.Errorf("zoom = %v, want 0.25", v.Zoom)
	}
}

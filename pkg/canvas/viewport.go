package canvas

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
)

const (
	ZoomSpeed = 0.006 // wheel delta to exponent factor
	MinZoom   = 0.1
	MaxZoom   = 1.5

	FitMinZoom = 0.2
	FitMaxZoom = 1.0
	FitPadding = 100 // screen pixels kept free on every side by Fit

	// ZoomStep is the increment used by the zoom buttons, which stay within
	// [FitMinZoom, MaxZoom].
	ZoomStep = 0.1

	PanMargin     = 200  // content centre may leave the viewport by this much
	EmptyPanLimit = 2000 // pan range around the centred empty canvas
)

// Viewport holds the zoom factor and the screen-space pan offset, plus the
// size of the viewport element in screen pixels.
type Viewport struct {
	Zoom float64 `json:"zoom"`
	Pan  v2.Vec  `json:"pan"`
	Size v2.Vec  `json:"size"`
}

// NewViewport returns a viewport of the given size at zoom 1 with no pan.
func NewViewport(width, height float64) Viewport {
	return Viewport{Zoom: 1, Size: v2.Vec{X: width, Y: height}}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// ClampZoom bounds z to [MinZoom, MaxZoom]. NaN collapses to MinZoom so the
// result is always a usable divisor.
func ClampZoom(z float64) float64 {
	if math.IsNaN(z) {
		return MinZoom
	}
	return clamp(z, MinZoom, MaxZoom)
}

// ScreenToWorld converts a screen point to world space.
func (v *Viewport) ScreenToWorld(p v2.Vec) v2.Vec {
	z := ClampZoom(v.Zoom)
	return v2.Vec{X: (p.X - v.Pan.X) / z, Y: (p.Y - v.Pan.Y) / z}
}

// WorldToScreen converts a world point to screen space.
func (v *Viewport) WorldToScreen(p v2.Vec) v2.Vec {
	return v2.Vec{X: p.X*v.Zoom + v.Pan.X, Y: p.Y*v.Zoom + v.Pan.Y}
}

// Center returns the centre of the viewport in screen space.
func (v *Viewport) Center() v2.Vec {
	return v2.Vec{X: v.Size.X / 2, Y: v.Size.Y / 2}
}

// ClampPan corrects a proposed pan so that content stays reachable. With
// content, the screen-space centre of its bounds is kept within PanMargin of
// the viewport on each axis. Without content the pan stays within
// EmptyPanLimit of the centred empty canvas.
func (v *Viewport) ClampPan(pan v2.Vec, zoom float64, nodes []Node) v2.Vec {
	bounds, ok := UnionBounds(nodes)
	if !ok {
		c := v.Center()
		return v2.Vec{
			X: clamp(pan.X, c.X-EmptyPanLimit, c.X+EmptyPanLimit),
			Y: clamp(pan.Y, c.Y-EmptyPanLimit, c.Y+EmptyPanLimit),
		}
	}
	cw := bounds.Center()
	sx := clamp(cw.X*zoom+pan.X, -PanMargin, v.Size.X+PanMargin)
	sy := clamp(cw.Y*zoom+pan.Y, -PanMargin, v.Size.Y+PanMargin)
	return v2.Vec{X: sx - cw.X*zoom, Y: sy - cw.Y*zoom}
}

// ZoomAt sets a new zoom anchored at the screen point cursor: the world point
// under the cursor before the change stays under it afterwards, up to pan
// clamping.
func (v *Viewport) ZoomAt(cursor v2.Vec, zoom float64, nodes []Node) {
	world := v.ScreenToWorld(cursor)
	z := ClampZoom(zoom)
	pan := v2.Vec{X: cursor.X - world.X*z, Y: cursor.Y - world.Y*z}
	v.Zoom = z
	v.Pan = v.ClampPan(pan, z, nodes)
}

// WheelZoom applies an exponential zoom step for a wheel delta at cursor.
func (v *Viewport) WheelZoom(cursor v2.Vec, deltaY float64, nodes []Node) {
	v.ZoomAt(cursor, ClampZoom(v.Zoom)*math.Exp(-deltaY*ZoomSpeed), nodes)
}

// PanBy moves the pan by a screen-space delta, then clamps.
func (v *Viewport) PanBy(delta v2.Vec, nodes []Node) {
	pan := v.Pan.Add(delta)
	v.Pan = v.ClampPan(pan, v.Zoom, nodes)
}

// WheelPan scrolls the canvas opposite to the wheel delta.
func (v *Viewport) WheelPan(deltaX, deltaY float64, nodes []Node) {
	v.PanBy(v2.Vec{X: -deltaX, Y: -deltaY}, nodes)
}

// StepZoom changes the zoom by steps*ZoomStep, keeping the pan.
func (v *Viewport) StepZoom(steps int) {
	v.Zoom = clamp(v.Zoom+float64(steps)*ZoomStep, FitMinZoom, MaxZoom)
}

// Fit frames all nodes: the zoom is the largest that fits the union bounds
// inside the padded viewport, limited to [FitMinZoom, FitMaxZoom], and the
// bounds centre is mapped to the viewport centre. An empty canvas is centred
// at zoom 1.
func (v *Viewport) Fit(nodes []Node) {
	c := v.Center()
	bounds, ok := UnionBounds(nodes)
	if !ok {
		v.Zoom = 1
		v.Pan = c
		return
	}
	availW := math.Max(100, v.Size.X-FitPadding*2)
	availH := math.Max(100, v.Size.Y-FitPadding*2)
	size := bounds.Size()
	z := math.Min(availW/size.X, availH/size.Y)
	z = clamp(z, FitMinZoom, FitMaxZoom)
	bc := bounds.Center()
	v.Zoom = z
	v.Pan = v2.Vec{X: c.X - bc.X*z, Y: c.Y - bc.Y*z}
}

package canvas

import (
	"math"

	v2 "github.com/deadsy/sdfx/vec/v2"
)

// GridSize is the quantization step, in world units, for snapped node
// positions and sizes.
const GridSize = 40

// Snap rounds v to the nearest multiple of GridSize. Halfway values round
// away from zero.
func Snap(v float64) float64 {
	return math.Round(v/GridSize) * GridSize
}

// SnapVec snaps both components of v.
func SnapVec(v v2.Vec) v2.Vec {
	return v2.Vec{X: Snap(v.X), Y: Snap(v.Y)}
}

package placement

import (
	"math"

	"github.com/kivell/bricklab/pkg/build"
	"github.com/kivell/bricklab/pkg/catalog"
)

// Transform is a position plus Euler rotation, the unit a drag gesture
// operates on.
type Transform struct {
	Position build.Vec3
	Rotation build.Vec3 // degrees
}

// SnapOptions selects the snap pitches used at commit time.
type SnapOptions struct {
	SnapToGrid   bool // horizontal pitch: grid pitch, else 1 mm
	SnapToLevels bool // vertical pitch: plate height, else 1 mm
}

// Snap rounds a transform onto the brick grid: both horizontal axes to
// the nearest multiple of the active pitch, the vertical axis to the
// nearest multiple of the active level height, and every rotation axis
// to the nearest 90 degrees. Snapping an already-snapped transform is
// a no-op.
func Snap(t Transform, o SnapOptions) Transform {
	pitch := 1.0
	if o.SnapToGrid {
		pitch = catalog.Pitch
	}
	level := 1.0
	if o.SnapToLevels {
		level = catalog.PlateHeight
	}
	return Transform{
		Position: build.Vec3{
			X: roundTo(t.Position.X, pitch),
			Y: roundTo(t.Position.Y, pitch),
			Z: roundTo(t.Position.Z, level),
		},
		Rotation: build.Vec3{
			X: roundTo(t.Rotation.X, 90),
			Y: roundTo(t.Rotation.Y, 90),
			Z: roundTo(t.Rotation.Z, 90),
		},
	}
}

// roundTo rounds v to the nearest multiple of step, ties away from zero.
func roundTo(v, step float64) float64 {
	return math.Round(v/step) * step
}

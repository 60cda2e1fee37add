package placement

import (
	"testing"

	"github.com/kivell/bricklab/pkg/build"
	"github.com/kivell/bricklab/pkg/kernel"
)

// quad is a 2x1 rectangle in the z=0 plane with its min corner at the
// origin, wound counter-clockwise seen from +z.
func quad() *kernel.Mesh {
	return &kernel.Mesh{
		Vertices: []float32{
			0, 0, 0,
			2, 0, 0,
			2, 1, 0,
			0, 1, 0,
		},
		Normals: []float32{
			0, 0, 1,
			0, 0, 1,
			0, 0, 1,
			0, 0, 1,
		},
		Indices: []uint32{0, 1, 2, 0, 2, 3},
	}
}

// downRay points straight down onto the XY plane from z=10.
func downRay(x, y float32) Ray {
	return Ray{Origin: [3]float32{x, y, 10}, Dir: [3]float32{0, 0, -1}}
}

func TestPickHit(t *testing.T) {
	targets := []Target{{Mesh: quad(), Index: 7}}

	idx, ok := MeshPicker{}.Pick(downRay(0.5, 0.5), targets)
	if !ok {
		t.Fatal("expected a hit")
	}
	if idx != 7 {
		t.Errorf("picked index %d, want 7", idx)
	}
}

func TestPickMiss(t *testing.T) {
	targets := []Target{{Mesh: quad(), Index: 0}}

	if _, ok := (MeshPicker{}).Pick(downRay(5, 5), targets); ok {
		t.Error("expected a miss outside the quad")
	}
	// A ray pointing away from the geometry misses too.
	up := Ray{Origin: [3]float32{0.5, 0.5, 10}, Dir: [3]float32{0, 0, 1}}
	if _, ok := (MeshPicker{}).Pick(up, targets); ok {
		t.Error("expected a miss for a ray pointing away")
	}
}

func TestPickNearestWins(t *testing.T) {
	// Two overlapping quads at different heights: the higher one is
	// nearer to a ray cast from above.
	targets := []Target{
		{Mesh: quad(), Position: build.Vec3{Z: 0}, Index: 0},
		{Mesh: quad(), Position: build.Vec3{Z: 5}, Index: 1},
	}
	idx, ok := MeshPicker{}.Pick(downRay(0.5, 0.5), targets)
	if !ok {
		t.Fatal("expected a hit")
	}
	if idx != 1 {
		t.Errorf("picked index %d, want the nearer 1", idx)
	}
}

func TestPickTranslatedTarget(t *testing.T) {
	targets := []Target{{Mesh: quad(), Position: build.Vec3{X: 100, Y: 50}, Index: 3}}

	if _, ok := (MeshPicker{}).Pick(downRay(0.5, 0.5), targets); ok {
		t.Error("hit a target at its untranslated position")
	}
	idx, ok := MeshPicker{}.Pick(downRay(100.5, 50.5), targets)
	if !ok {
		t.Fatal("missed the translated target")
	}
	if idx != 3 {
		t.Errorf("picked index %d, want 3", idx)
	}
}

func TestPickRotatedTarget(t *testing.T) {
	// Rotated 90 degrees about the vertical axis, the 2x1 quad sweeps
	// from x in [0,2] to x in [-1,0], y in [0,2].
	targets := []Target{{Mesh: quad(), Rotation: build.Vec3{Z: 90}, Index: 0}}

	if _, ok := (MeshPicker{}).Pick(downRay(1.5, 0.5), targets); ok {
		t.Error("hit the quad at its unrotated position")
	}
	if _, ok := (MeshPicker{}).Pick(downRay(-0.5, 1.5), targets); !ok {
		t.Error("missed the rotated quad")
	}
}

func TestPickSkipsEmptyMeshes(t *testing.T) {
	targets := []Target{
		{Mesh: nil, Index: 0},
		{Mesh: &kernel.Mesh{}, Index: 1},
		{Mesh: quad(), Index: 2},
	}
	idx, ok := MeshPicker{}.Pick(downRay(0.5, 0.5), targets)
	if !ok {
		t.Fatal("expected a hit")
	}
	if idx != 2 {
		t.Errorf("picked index %d, want 2", idx)
	}
}

package placement

import (
	"github.com/chewxy/math32"

	"github.com/kivell/bricklab/pkg/build"
	"github.com/kivell/bricklab/pkg/kernel"
)

// Ray is a pick ray in world space, supplied by the rendering
// collaborator (cast from the pointer position through its camera).
type Ray struct {
	Origin [3]float32 `json:"origin"`
	Dir    [3]float32 `json:"dir"`
}

// Target is one pickable object: a mesh plus the transform it is
// rendered with (rotation applied Z·Y·X, then translation) and the
// part index it is tagged with.
type Target struct {
	Mesh     *kernel.Mesh
	Position build.Vec3
	Rotation build.Vec3 // degrees
	Index    int
}

// Picker is the 3D picking boundary: given a ray and the visible
// targets, report the nearest hit. A miss is the normal deselect
// outcome, not an error.
type Picker interface {
	Pick(ray Ray, targets []Target) (index int, ok bool)
}

// MeshPicker picks by intersecting the ray with every target's
// triangles; the nearest hit along the ray wins.
type MeshPicker struct{}

// Pick implements Picker.
func (MeshPicker) Pick(ray Ray, targets []Target) (int, bool) {
	best := float32(math32.MaxFloat32)
	bestIdx := -1
	for _, tgt := range targets {
		if tgt.Mesh == nil || tgt.Mesh.IsEmpty() {
			continue
		}
		// Work in the mesh's local frame: cheaper than transforming
		// every triangle to world space.
		o, d := toLocal(ray, tgt)
		m := tgt.Mesh
		for t := 0; t < m.TriangleCount(); t++ {
			i0, i1, i2 := m.Indices[t*3]*3, m.Indices[t*3+1]*3, m.Indices[t*3+2]*3
			dist, hit := rayTriangle(o, d,
				[3]float32{m.Vertices[i0], m.Vertices[i0+1], m.Vertices[i0+2]},
				[3]float32{m.Vertices[i1], m.Vertices[i1+1], m.Vertices[i1+2]},
				[3]float32{m.Vertices[i2], m.Vertices[i2+1], m.Vertices[i2+2]})
			if hit && dist < best {
				best = dist
				bestIdx = tgt.Index
			}
		}
	}
	return bestIdx, bestIdx >= 0
}

// toLocal maps the world ray into a target's local frame by undoing
// translation and rotation. The rotation matrix is orthonormal, so its
// transpose is its inverse. The ray direction keeps its world-space
// length, so hit distances remain comparable across targets.
func toLocal(ray Ray, tgt Target) (o, d [3]float32) {
	r := rotationMatrix(tgt.Rotation)

	shift := [3]float32{
		ray.Origin[0] - float32(tgt.Position.X),
		ray.Origin[1] - float32(tgt.Position.Y),
		ray.Origin[2] - float32(tgt.Position.Z),
	}
	for i := 0; i < 3; i++ {
		// Transposed multiply.
		o[i] = r[0][i]*shift[0] + r[1][i]*shift[1] + r[2][i]*shift[2]
		d[i] = r[0][i]*ray.Dir[0] + r[1][i]*ray.Dir[1] + r[2][i]*ray.Dir[2]
	}
	return o, d
}

// rotationMatrix builds the render rotation Rz·Ry·Rx from Euler
// degrees.
func rotationMatrix(rot build.Vec3) [3][3]float32 {
	rx := math32.Pi / 180 * float32(rot.X)
	ry := math32.Pi / 180 * float32(rot.Y)
	rz := math32.Pi / 180 * float32(rot.Z)
	sx, cx := math32.Sincos(rx)
	sy, cy := math32.Sincos(ry)
	sz, cz := math32.Sincos(rz)

	return [3][3]float32{
		{cz * cy, cz*sy*sx - sz*cx, cz*sy*cx + sz*sx},
		{sz * cy, sz*sy*sx + cz*cx, sz*sy*cx - cz*sx},
		{-sy, cy * sx, cy * cx},
	}
}

const rayEpsilon = 1e-7

// rayTriangle is the Möller–Trumbore intersection test. It returns the
// distance along the ray and whether the triangle was hit in front of
// the origin.
func rayTriangle(o, d, v0, v1, v2 [3]float32) (float32, bool) {
	e1 := sub(v1, v0)
	e2 := sub(v2, v0)
	p := cross(d, e2)
	det := dot(e1, p)
	if math32.Abs(det) < rayEpsilon {
		return 0, false // ray parallel to triangle plane
	}
	inv := 1 / det
	tv := sub(o, v0)
	u := dot(tv, p) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	q := cross(tv, e1)
	v := dot(d, q) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	dist := dot(e2, q) * inv
	if dist <= rayEpsilon {
		return 0, false
	}
	return dist, true
}

func sub(a, b [3]float32) [3]float32 {
	return [3]float32{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func dot(a, b [3]float32) float32 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func cross(a, b [3]float32) [3]float32 {
	return [3]float32{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

// Package kernel defines the abstract geometry kernel interface used
// by the mesh compiler. Implementations (sdfx today) provide solid
// modeling and boolean operations behind this interface, so the
// compiler can swap backends without changing the rest of the system.
package kernel

// Solid is an opaque handle to a geometry kernel solid.
// Implementations wrap their internal representation.
type Solid interface {
	// BoundingBox returns the axis-aligned bounding box.
	BoundingBox() (min, max [3]float64)
}

// Kernel is the abstract geometry kernel interface.
type Kernel interface {
	// Primitives. Boxes and wedges sit with their minimum corner at
	// the origin; cylinders are centered on the Z axis with their base
	// at z=0.
	Box(x, y, z float64) Solid
	Wedge(x, y, z, zLow float64) Solid // top slopes from z at y=0 down to zLow at y=max
	Cylinder(height, radius float64, segments int) Solid

	// Boolean operations
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid

	// Transforms
	Translate(s Solid, x, y, z float64) Solid

	// Mesh output
	ToMesh(s Solid) (*Mesh, error)
}

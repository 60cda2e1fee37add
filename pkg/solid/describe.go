package solid

import (
	"github.com/kivell/bricklab/pkg/catalog"
)

// Params are the geometry parameters of a compile request. Equality is
// structural: two identical parameter sets are interchangeable and
// resolve to the same cache entry.
type Params struct {
	Segments     int     // circular tessellation resolution for studs
	StudDiameter float64 // mm
	StudHeight   float64 // mm
	Clearance    float64 // shaved off each footprint dimension, mm
}

// DefaultParams returns the parameters of the standard brick system.
func DefaultParams() Params {
	return Params{
		Segments:     40,
		StudDiameter: catalog.StudDiameter,
		StudHeight:   catalog.StudHeight,
		Clearance:    catalog.Clearance,
	}
}

// Describe synthesizes the procedural solid program for a catalog kind:
// a body sized from the footprint (minus clearance) at the category
// height, unioned with a stud on top of each unit cell. Tiles get no
// studs. Wedges keep their rear rows as a flat studded box and slope
// the final row from full height down to half; a one-row wedge is all
// slope and carries no studs.
func Describe(kind catalog.Kind, p Params) Program {
	w := float64(kind.Width)*catalog.Pitch - p.Clearance
	d := float64(kind.Depth)*catalog.Pitch - p.Clearance
	h := kind.Height()

	var prog Program
	studRows := kind.Depth

	if kind.Category == catalog.CategoryWedge {
		flat := d - catalog.Pitch // depth of the full-height rear portion
		if flat > 0 {
			prog.Stmts = append(prog.Stmts, Box{W: w, D: flat, H: h})
		}
		prog.Stmts = append(prog.Stmts, Wedge{W: w, D: d - max0(flat), H: h, Low: h / 2, Y: max0(flat)})
		studRows = kind.Depth - 1
	} else {
		prog.Stmts = append(prog.Stmts, Box{W: w, D: d, H: h})
	}

	if !kind.HasStuds() {
		return prog
	}
	for j := 0; j < studRows; j++ {
		for i := 0; i < kind.Width; i++ {
			prog.Stmts = append(prog.Stmts, Cylinder{
				Dia: p.StudDiameter,
				H:   p.StudHeight,
				Seg: p.Segments,
				X:   (float64(i)+0.5)*catalog.Pitch - p.Clearance/2,
				Y:   (float64(j)+0.5)*catalog.Pitch - p.Clearance/2,
				Z:   h,
			})
		}
	}
	return prog
}

func max0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

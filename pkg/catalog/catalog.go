// Package catalog holds the static brick kind table and the grid
// constants shared by the parser, geometry pipeline, and placement
// engine. The table is embedded, loaded once at init, and read-only.
//
// Grid convention: grid-x and grid-y span the horizontal X/Y plane and
// are multiplied by Pitch; level maps to the vertical Z axis and is
// multiplied by BrickHeight.
package catalog

import (
	_ "embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

// Grid and stud dimensions in mm.
const (
	Pitch        = 8.0              // horizontal spacing between stud centers
	BrickHeight  = 9.6              // full-height unit block
	PlateHeight  = BrickHeight / 3  // plates and tiles
	StudDiameter = 4.8
	StudHeight   = 1.8
	Clearance    = 0.2 // shaved off each footprint dimension
)

// Category is the structural class of a kind. It determines the default
// body height and whether the part grows connector studs on top.
type Category int

const (
	CategoryBrick Category = iota // full height, studded
	CategoryPlate                 // one-third height, studded
	CategoryTile                  // one-third height, flush top
	CategoryWedge                 // full height, sloped top
)

func (c Category) String() string {
	switch c {
	case CategoryBrick:
		return "brick"
	case CategoryPlate:
		return "plate"
	case CategoryTile:
		return "tile"
	case CategoryWedge:
		return "wedge"
	default:
		return "unknown"
	}
}

func parseCategory(s string) (Category, error) {
	switch s {
	case "brick":
		return CategoryBrick, nil
	case "plate":
		return CategoryPlate, nil
	case "tile":
		return CategoryTile, nil
	case "wedge":
		return CategoryWedge, nil
	}
	return 0, fmt.Errorf("catalog: unknown category %q", s)
}

// Kind is one catalog entry.
type Kind struct {
	Name     string
	Width    int // footprint along X, in studs
	Depth    int // footprint along Y, in studs
	Category Category
}

// Height returns the category-default body height in mm.
func (k Kind) Height() float64 {
	switch k.Category {
	case CategoryPlate, CategoryTile:
		return PlateHeight
	default:
		return BrickHeight
	}
}

// HasStuds reports whether the kind grows connector studs on top.
// Tiles are flush; wedges keep studs only over their flat rear rows,
// which the geometry synthesis decides per row.
func (k Kind) HasStuds() bool {
	return k.Category != CategoryTile
}

//go:embed kinds.yaml
var kindsYAML []byte

type kindDef struct {
	Width    int    `yaml:"width"`
	Depth    int    `yaml:"depth"`
	Category string `yaml:"category"`
}

var kinds map[string]Kind

func init() {
	var defs map[string]kindDef
	if err := yaml.Unmarshal(kindsYAML, &defs); err != nil {
		panic(fmt.Sprintf("catalog: embedded kind table: %v", err))
	}
	kinds = make(map[string]Kind, len(defs))
	for name, d := range defs {
		cat, err := parseCategory(d.Category)
		if err != nil {
			panic(fmt.Sprintf("catalog: kind %q: %v", name, err))
		}
		if d.Width < 1 || d.Depth < 1 {
			panic(fmt.Sprintf("catalog: kind %q has empty footprint", name))
		}
		kinds[name] = Kind{Name: name, Width: d.Width, Depth: d.Depth, Category: cat}
	}
}

// Lookup returns the kind with the given name. Unknown names are a
// lookup miss, not an error; callers apply their own skip policy.
func Lookup(name string) (Kind, bool) {
	k, ok := kinds[name]
	return k, ok
}

// Names returns all kind names in sorted order.
func Names() []string {
	names := make([]string, 0, len(kinds))
	for name := range kinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

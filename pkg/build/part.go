// Package build defines the core assembly model: an ordered list of
// placed brick parts, each with a catalog kind, position, rotation,
// and color. The list order is significant; it is both declaration
// order and step-playback order.
package build

import (
	"strings"

	"github.com/google/uuid"
)

// Vec3 is a 3D vector. Positions are in mm, rotations in degrees.
// The vertical axis is Z.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Color is an RGB color with unit-range components.
type Color struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

// DefaultColor is used for parts whose description gives no color.
var DefaultColor = Color{R: 0.8, G: 0.2, B: 0.2}

// Clamped returns the color with each component clamped to [0, 1].
func (c Color) Clamped() Color {
	return Color{R: clamp01(c.R), G: clamp01(c.G), B: clamp01(c.B)}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Part is one placed instance of a catalog kind. Position and rotation
// are mutated in place by the placement engine; color by the color
// editor. Parts are never deleted individually, only replaced wholesale
// by a fresh parse.
type Part struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"`
	Position Vec3   `json:"position"`
	Rotation Vec3   `json:"rotation"` // Euler angles in degrees
	Color    Color  `json:"color"`
}

// NewPart creates a part of the given kind at the origin with the
// default color and a fresh unique identifier.
func NewPart(kind string) *Part {
	return &Part{
		ID:    uuid.NewString(),
		Kind:  kind,
		Color: DefaultColor,
	}
}

// KindSignature returns the ordered kind names of a part list joined
// into one string. Two lists with equal signatures have the same length
// and the same kind at every index, which is the structural-change
// criterion used by the scene model.
func KindSignature(parts []*Part) string {
	kinds := make([]string, len(parts))
	for i, p := range parts {
		kinds[i] = p.Kind
	}
	return strings.Join(kinds, "|")
}

// DistinctKinds returns the kind names appearing in the list, first
// occurrence order, without duplicates.
func DistinctKinds(parts []*Part) []string {
	seen := make(map[string]bool, len(parts))
	var kinds []string
	for _, p := range parts {
		if !seen[p.Kind] {
			seen[p.Kind] = true
			kinds = append(kinds, p.Kind)
		}
	}
	return kinds
}

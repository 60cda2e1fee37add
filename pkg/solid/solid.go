// Package solid defines the textual procedural solid description
// exchanged with the mesh compiler: a line-oriented program of boxes,
// wedges, and cylinders whose statements are implicitly unioned into
// one closed solid.
//
// Grammar, one statement per line, positional numeric arguments:
//
//	box W D H X Y Z
//	wedge W D H LOW X Y Z
//	cylinder DIA H SEG X Y Z
//	# comment
//
// Boxes and wedges sit with their minimum corner at (X,Y,Z); cylinders
// are centered on (X,Y) with their base at Z. A wedge's top slopes
// from H at its near edge down to LOW at its far edge.
package solid

import (
	"fmt"
	"strconv"
	"strings"
)

// Statement is one solid primitive in a program.
type Statement interface {
	encode() string
}

// Box is a rectangular solid.
type Box struct {
	W, D, H float64
	X, Y, Z float64
}

func (b Box) encode() string {
	return "box " + nums(b.W, b.D, b.H, b.X, b.Y, b.Z)
}

// Wedge is a ramped solid: a box whose top face slopes from H down to
// Low along the depth axis.
type Wedge struct {
	W, D, H, Low float64
	X, Y, Z      float64
}

func (w Wedge) encode() string {
	return "wedge " + nums(w.W, w.D, w.H, w.Low, w.X, w.Y, w.Z)
}

// Cylinder is a vertical cylinder given by diameter and height.
// Seg is the circular tessellation resolution.
type Cylinder struct {
	Dia, H  float64
	Seg     int
	X, Y, Z float64
}

func (c Cylinder) encode() string {
	return "cylinder " + nums(c.Dia, c.H) + " " + strconv.Itoa(c.Seg) + " " + nums(c.X, c.Y, c.Z)
}

// Program is an ordered list of statements forming one solid.
type Program struct {
	Stmts []Statement
}

// Encode renders the program in its textual form.
func (p Program) Encode() string {
	var sb strings.Builder
	for _, s := range p.Stmts {
		sb.WriteString(s.encode())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// Parse reads a textual program. Unlike the brick description parser,
// this format is machine-generated, so malformed lines are hard errors
// surfaced as compile diagnostics.
func Parse(src string) (Program, error) {
	var p Program
	for ln, line := range strings.Split(src, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		op, args := fields[0], fields[1:]

		switch op {
		case "box":
			v, err := floats(args, 6)
			if err != nil {
				return Program{}, lineErr(ln, "box", err)
			}
			p.Stmts = append(p.Stmts, Box{W: v[0], D: v[1], H: v[2], X: v[3], Y: v[4], Z: v[5]})
		case "wedge":
			v, err := floats(args, 7)
			if err != nil {
				return Program{}, lineErr(ln, "wedge", err)
			}
			p.Stmts = append(p.Stmts, Wedge{W: v[0], D: v[1], H: v[2], Low: v[3], X: v[4], Y: v[5], Z: v[6]})
		case "cylinder":
			if len(args) != 6 {
				return Program{}, lineErr(ln, "cylinder", fmt.Errorf("want 6 arguments, got %d", len(args)))
			}
			v, err := floats([]string{args[0], args[1], args[3], args[4], args[5]}, 5)
			if err != nil {
				return Program{}, lineErr(ln, "cylinder", err)
			}
			seg, err := strconv.Atoi(args[2])
			if err != nil || seg < 3 {
				return Program{}, lineErr(ln, "cylinder", fmt.Errorf("bad segment count %q", args[2]))
			}
			p.Stmts = append(p.Stmts, Cylinder{Dia: v[0], H: v[1], Seg: seg, X: v[2], Y: v[3], Z: v[4]})
		default:
			return Program{}, fmt.Errorf("solid: line %d: unknown statement %q", ln+1, op)
		}
	}
	return p, nil
}

func lineErr(ln int, op string, err error) error {
	return fmt.Errorf("solid: line %d: %s: %w", ln+1, op, err)
}

func floats(args []string, want int) ([]float64, error) {
	if len(args) != want {
		return nil, fmt.Errorf("want %d arguments, got %d", want, len(args))
	}
	out := make([]float64, want)
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", a)
		}
		out[i] = v
	}
	return out, nil
}

func nums(vs ...float64) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, " ")
}

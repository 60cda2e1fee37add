// Package dsl parses the textual brick description language into an
// ordered part list. The parser is deliberately tolerant: malformed or
// unrecognized statements are dropped and parsing never fails, so the
// caller always gets every part that could be constructed.
//
// Statement shape:
//
//	place("<kind>", field=value, field=value, ...)
//
// Fields: xMm/yMm/zMm (explicit mm), xStud/yStud/zLevel (grid units),
// rot=[x,y,z] or rotY=<deg>, color=[r,g,b]. Comments are /* ... */ and
// // to end of line, stripped before any structural scan.
package dsl

import (
	"regexp"
	"strconv"

	"github.com/kivell/bricklab/pkg/build"
	"github.com/kivell/bricklab/pkg/catalog"
)

const num = `[-+]?[0-9]+(?:\.[0-9]+)?`

var (
	statementRe = regexp.MustCompile(`(?s)place\(\s*"([^"]+)"\s*(.*?)\)`)

	xMmRe    = fieldRe("xMm")
	yMmRe    = fieldRe("yMm")
	zMmRe    = fieldRe("zMm")
	xStudRe  = fieldRe("xStud")
	yStudRe  = fieldRe("yStud")
	zLevelRe = fieldRe("zLevel")
	rotYRe   = fieldRe("rotY")

	rotRe   = tripleRe("rot")
	colorRe = tripleRe("color")
)

// fieldRe matches a named numeric field, e.g. `xMm = -3.5`.
func fieldRe(name string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + name + `\s*=\s*(` + num + `)`)
}

// tripleRe matches a named three-component array field, e.g. `rot=[0,90,0]`.
func tripleRe(name string) *regexp.Regexp {
	return regexp.MustCompile(`\b` + name + `\s*=\s*\[\s*(` + num + `)\s*,\s*(` + num + `)\s*,\s*(` + num + `)\s*\]`)
}

// Parse scans text for place statements and returns the parts they
// describe, in source order. It never returns an error; statements that
// cannot be understood simply produce no part.
func Parse(text string) []*build.Part {
	stripped := stripComments(text)

	var parts []*build.Part
	for _, m := range statementRe.FindAllStringSubmatch(stripped, -1) {
		kindName, args := m[1], m[2]

		kind, ok := catalog.Lookup(kindName)
		if !ok {
			continue // unknown kind: skip the statement
		}

		p := build.NewPart(kind.Name)
		p.Position = parsePosition(args)
		p.Rotation = parseRotation(args)
		p.Color = parseColor(args)
		parts = append(parts, p)
	}
	return parts
}

// parsePosition extracts a position from the argument text. Explicit
// mm fields win over grid fields when a full triple of each is present;
// an incomplete triple falls through to the next encoding, then to the
// origin.
func parsePosition(args string) build.Vec3 {
	if x, ok := number(xMmRe, args); ok {
		if y, ok := number(yMmRe, args); ok {
			if z, ok := number(zMmRe, args); ok {
				return build.Vec3{X: x, Y: y, Z: z}
			}
		}
	}
	if gx, ok := number(xStudRe, args); ok {
		if gy, ok := number(yStudRe, args); ok {
			if lv, ok := number(zLevelRe, args); ok {
				return build.Vec3{
					X: gx * catalog.Pitch,
					Y: gy * catalog.Pitch,
					Z: lv * catalog.BrickHeight,
				}
			}
		}
	}
	return build.Vec3{}
}

// parseRotation extracts rotation from rot=[x,y,z], or from rotY as a
// rotation about the vertical axis only.
func parseRotation(args string) build.Vec3 {
	if m := rotRe.FindStringSubmatch(args); m != nil {
		return build.Vec3{X: atof(m[1]), Y: atof(m[2]), Z: atof(m[3])}
	}
	if yaw, ok := number(rotYRe, args); ok {
		return build.Vec3{Z: yaw}
	}
	return build.Vec3{}
}

// parseColor extracts color=[r,g,b] with components clamped to [0,1].
func parseColor(args string) build.Color {
	if m := colorRe.FindStringSubmatch(args); m != nil {
		return build.Color{R: atof(m[1]), G: atof(m[2]), B: atof(m[3])}.Clamped()
	}
	return build.DefaultColor
}

func number(re *regexp.Regexp, args string) (float64, bool) {
	m := re.FindStringSubmatch(args)
	if m == nil {
		return 0, false
	}
	return atof(m[1]), true
}

// atof parses a number already validated by the field regexp.
func atof(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

// stripComments removes /* */ blocks and // line comments in a single
// byte scan, respecting double-quoted string literals so a comment
// marker inside a string survives. Block comments are replaced with a
// space so they cannot splice two tokens together.
func stripComments(src string) string {
	b := []byte(src)
	out := make([]byte, 0, len(b))
	i := 0
	for i < len(b) {
		switch {
		case b[i] == '"':
			out = append(out, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					out = append(out, b[i], b[i+1])
					i += 2
					continue
				}
				out = append(out, b[i])
				i++
			}
			if i < len(b) {
				out = append(out, b[i])
				i++
			}
		case b[i] == '/' && i+1 < len(b) && b[i+1] == '*':
			i += 2
			for i+1 < len(b) && !(b[i] == '*' && b[i+1] == '/') {
				i++
			}
			if i+1 < len(b) {
				i += 2
			} else {
				i = len(b) // unterminated block comment swallows the rest
			}
			out = append(out, ' ')
		case b[i] == '/' && i+1 < len(b) && b[i+1] == '/':
			for i < len(b) && b[i] != '\n' {
				i++
			}
		default:
			out = append(out, b[i])
			i++
		}
	}
	return string(out)
}

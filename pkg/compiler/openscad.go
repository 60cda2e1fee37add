package compiler

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kivell/bricklab/pkg/solid"
)

// OpenSCAD compiles solid programs by shelling out to the openscad
// binary: the program is translated to .scad source, compiled to an
// STL file in a scratch directory, and the file's bytes returned.
// Compiler stderr becomes the failure diagnostic.
type OpenSCAD struct {
	executablePath string
}

// NewOpenSCAD wraps the openscad executable at the given path, which
// may be relative; it is resolved so compiles work from any directory.
func NewOpenSCAD(executablePath string) (*OpenSCAD, error) {
	abs, err := filepath.Abs(executablePath)
	if err != nil {
		return nil, fmt.Errorf("openscad: resolve path: %w", err)
	}
	return &OpenSCAD{executablePath: abs}, nil
}

// Compile implements Compiler.
func (o *OpenSCAD) Compile(ctx context.Context, source string) ([]byte, error) {
	prog, err := solid.Parse(source)
	if err != nil {
		return nil, err
	}

	dir, err := os.MkdirTemp("", "bricklab-scad-*")
	if err != nil {
		return nil, fmt.Errorf("openscad: scratch dir: %w", err)
	}
	defer os.RemoveAll(dir)

	inPath := filepath.Join(dir, "part.scad")
	outPath := filepath.Join(dir, "part.stl")
	if err := os.WriteFile(inPath, []byte(ToOpenSCAD(prog)), 0o644); err != nil {
		return nil, fmt.Errorf("openscad: write source: %w", err)
	}

	cmd := exec.CommandContext(ctx, o.executablePath, "-o", outPath, inPath)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		diag := strings.TrimSpace(stderr.String())
		if diag == "" {
			diag = err.Error()
		}
		return nil, fmt.Errorf("openscad: %s", diag)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		return nil, fmt.Errorf("openscad: read output: %w", err)
	}
	return data, nil
}

// ToOpenSCAD renders a solid program as OpenSCAD source: one union of
// cubes, prism polyhedra, and cylinders.
func ToOpenSCAD(prog solid.Program) string {
	var sb strings.Builder
	sb.WriteString("union() {\n")
	for _, st := range prog.Stmts {
		switch v := st.(type) {
		case solid.Box:
			fmt.Fprintf(&sb, "  translate([%s, %s, %s]) cube([%s, %s, %s]);\n",
				f(v.X), f(v.Y), f(v.Z), f(v.W), f(v.D), f(v.H))
		case solid.Wedge:
			fmt.Fprintf(&sb, "  translate([%s, %s, %s]) %s;\n",
				f(v.X), f(v.Y), f(v.Z), wedgePolyhedron(v))
		case solid.Cylinder:
			fmt.Fprintf(&sb, "  translate([%s, %s, %s]) cylinder(h=%s, d=%s, $fn=%d);\n",
				f(v.X), f(v.Y), f(v.Z), f(v.H), f(v.Dia), v.Seg)
		}
	}
	sb.WriteString("}\n")
	return sb.String()
}

// wedgePolyhedron emits a six-faced prism: full height along the y=0
// edge, Low along the far edge.
func wedgePolyhedron(v solid.Wedge) string {
	pts := fmt.Sprintf(
		"[[0,0,0],[%[1]s,0,0],[%[1]s,%[2]s,0],[0,%[2]s,0],[0,0,%[3]s],[%[1]s,0,%[3]s],[%[1]s,%[2]s,%[4]s],[0,%[2]s,%[4]s]]",
		f(v.W), f(v.D), f(v.H), f(v.Low))
	faces := "[[0,1,5,4],[1,2,6,5],[2,3,7,6],[3,0,4,7],[3,2,1,0],[4,5,6,7]]"
	return fmt.Sprintf("polyhedron(points=%s, faces=%s)", pts, faces)
}

func f(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

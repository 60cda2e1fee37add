package compiler

import (
	"context"
	"fmt"

	"github.com/kivell/bricklab/pkg/kernel"
	"github.com/kivell/bricklab/pkg/solid"
	"github.com/kivell/bricklab/pkg/stl"
)

// KernelCompiler compiles solid programs in-process through a geometry
// kernel: parse, build each primitive, union, mesh, encode as STL.
type KernelCompiler struct {
	k kernel.Kernel
}

// NewKernel returns a compiler backed by the given kernel.
func NewKernel(k kernel.Kernel) *KernelCompiler {
	return &KernelCompiler{k: k}
}

// Compile implements Compiler.
func (c *KernelCompiler) Compile(ctx context.Context, source string) ([]byte, error) {
	prog, err := solid.Parse(source)
	if err != nil {
		return nil, err
	}
	if len(prog.Stmts) == 0 {
		return nil, fmt.Errorf("compile: empty program")
	}

	var combined kernel.Solid
	for _, st := range prog.Stmts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, err := c.buildStatement(st)
		if err != nil {
			return nil, err
		}
		if combined == nil {
			combined = s
		} else {
			combined = c.k.Union(combined, s)
		}
	}

	mesh, err := c.k.ToMesh(combined)
	if err != nil {
		return nil, fmt.Errorf("compile: meshing failed: %w", err)
	}
	if mesh.IsEmpty() {
		return nil, fmt.Errorf("compile: meshing produced empty geometry")
	}
	return stl.Encode(mesh), nil
}

func (c *KernelCompiler) buildStatement(st solid.Statement) (kernel.Solid, error) {
	switch v := st.(type) {
	case solid.Box:
		return c.k.Translate(c.k.Box(v.W, v.D, v.H), v.X, v.Y, v.Z), nil
	case solid.Wedge:
		return c.k.Translate(c.k.Wedge(v.W, v.D, v.H, v.Low), v.X, v.Y, v.Z), nil
	case solid.Cylinder:
		return c.k.Translate(c.k.Cylinder(v.H, v.Dia/2, v.Seg), v.X, v.Y, v.Z), nil
	default:
		return nil, fmt.Errorf("compile: unsupported statement %T", st)
	}
}

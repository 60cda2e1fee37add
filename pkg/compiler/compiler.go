// Package compiler defines the mesh compiler boundary: a textual
// procedural solid description goes in, raw STL mesh bytes come out,
// and failures carry a diagnostic string. Two implementations exist:
// an in-process kernel-backed compiler (the default) and a wrapper
// around the external openscad binary.
package compiler

import "context"

// Compiler turns a solid description program into triangle-mesh bytes.
// Implementations must be safe for concurrent use; the geometry cache
// issues one Compile per distinct key, possibly several at once.
type Compiler interface {
	Compile(ctx context.Context, source string) ([]byte, error)
}

// Package geomcache resolves (kind, parameters) pairs to compiled
// triangle meshes. Meshes are cached for the life of the session and
// never evicted; concurrent requests for one key are coalesced so a
// key is never compiled twice at once. Compile failures are returned
// to every waiter but never stored, so a later retry recompiles.
package geomcache

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/kivell/bricklab/pkg/catalog"
	"github.com/kivell/bricklab/pkg/compiler"
	"github.com/kivell/bricklab/pkg/kernel"
	"github.com/kivell/bricklab/pkg/solid"
	"github.com/kivell/bricklab/pkg/stl"
)

// Key derives the deterministic cache key for a (kind, params) pair.
// Two requests with equal keys resolve to the same mesh instance.
func Key(kindName string, p solid.Params) string {
	return fmt.Sprintf("%s|seg=%d|sd=%g|sh=%g|cl=%g",
		kindName, p.Segments, p.StudDiameter, p.StudHeight, p.Clearance)
}

// Cache is a session-scoped mesh cache. It is constructor-injected
// wherever meshes are needed rather than living as a package singleton,
// so tests can run isolated instances.
type Cache struct {
	compiler compiler.Compiler

	mu     sync.Mutex
	meshes map[string]*kernel.Mesh
	flight singleflight.Group
}

// New returns an empty cache that compiles through c.
func New(c compiler.Compiler) *Cache {
	return &Cache{
		compiler: c,
		meshes:   make(map[string]*kernel.Mesh),
	}
}

// Resolve returns the mesh for (kind, params), compiling it at most
// once. All concurrent callers for the same key share one compile and
// receive the identical mesh pointer.
func (c *Cache) Resolve(ctx context.Context, kindName string, p solid.Params) (*kernel.Mesh, error) {
	kind, ok := catalog.Lookup(kindName)
	if !ok {
		return nil, fmt.Errorf("geomcache: unknown kind %q", kindName)
	}
	key := Key(kindName, p)

	c.mu.Lock()
	if m, ok := c.meshes[key]; ok {
		c.mu.Unlock()
		return m, nil
	}
	c.mu.Unlock()

	v, err, _ := c.flight.Do(key, func() (interface{}, error) {
		// Re-check under the lock: a caller that lost the race to an
		// already-finished flight lands here after the winner stored
		// the mesh, and must not compile again.
		c.mu.Lock()
		if m, ok := c.meshes[key]; ok {
			c.mu.Unlock()
			return m, nil
		}
		c.mu.Unlock()

		source := solid.Describe(kind, p).Encode()
		data, err := c.compiler.Compile(ctx, source)
		if err != nil {
			return nil, fmt.Errorf("geomcache: compile %s: %w", kindName, err)
		}
		mesh, err := stl.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("geomcache: decode %s: %w", kindName, err)
		}
		mesh.Kind = kindName

		c.mu.Lock()
		c.meshes[key] = mesh
		c.mu.Unlock()
		return mesh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*kernel.Mesh), nil
}

// Size returns the number of cached meshes.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.meshes)
}

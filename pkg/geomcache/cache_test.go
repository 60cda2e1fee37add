package geomcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kivell/bricklab/pkg/kernel"
	"github.com/kivell/bricklab/pkg/solid"
	"github.com/kivell/bricklab/pkg/stl"
)

// fakeCompiler returns a fixed valid STL payload after an optional
// delay, counting compiles. Set fail to make every compile error.
type fakeCompiler struct {
	compiles atomic.Int64
	delay    time.Duration
	fail     atomic.Bool
}

func (f *fakeCompiler) Compile(ctx context.Context, source string) ([]byte, error) {
	f.compiles.Add(1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.fail.Load() {
		return nil, errors.New("synthetic compile failure")
	}
	return stl.Encode(&kernel.Mesh{
		Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Normals:  []float32{0, 0, 1, 0, 0, 1, 0, 0, 1},
		Indices:  []uint32{0, 1, 2},
	}), nil
}

func TestResolveCachesByKey(t *testing.T) {
	fc := &fakeCompiler{}
	c := New(fc)
	p := solid.DefaultParams()

	m1, err := c.Resolve(context.Background(), "brick2x4", p)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if m1.Kind != "brick2x4" {
		t.Errorf("mesh kind = %q, want brick2x4", m1.Kind)
	}

	m2, err := c.Resolve(context.Background(), "brick2x4", p)
	if err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}
	if m1 != m2 {
		t.Error("repeat Resolve returned a different mesh instance")
	}
	if got := fc.compiles.Load(); got != 1 {
		t.Errorf("compile count = %d, want 1", got)
	}
	if c.Size() != 1 {
		t.Errorf("cache size = %d, want 1", c.Size())
	}
}

func TestResolveDistinctKeys(t *testing.T) {
	fc := &fakeCompiler{}
	c := New(fc)
	p := solid.DefaultParams()

	m1, err := c.Resolve(context.Background(), "brick2x4", p)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	m2, err := c.Resolve(context.Background(), "plate2x2", p)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if m1 == m2 {
		t.Error("two kinds share one mesh instance")
	}

	// Changed parameters are a different key for the same kind.
	p2 := p
	p2.Segments = 16
	m3, err := c.Resolve(context.Background(), "brick2x4", p2)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if m3 == m1 {
		t.Error("changed parameters resolved to the cached mesh")
	}
	if fc.compiles.Load() != 3 {
		t.Errorf("compile count = %d, want 3", fc.compiles.Load())
	}
}

func TestResolveCoalescesConcurrentRequests(t *testing.T) {
	fc := &fakeCompiler{delay: 20 * time.Millisecond}
	c := New(fc)
	p := solid.DefaultParams()

	const n = 16
	meshes := make([]*kernel.Mesh, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			m, err := c.Resolve(context.Background(), "brick2x2", p)
			if err != nil {
				t.Errorf("Resolve %d failed: %v", i, err)
				return
			}
			meshes[i] = m
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if meshes[i] != meshes[0] {
			t.Fatalf("request %d got a different mesh instance", i)
		}
	}
	if got := fc.compiles.Load(); got != 1 {
		t.Errorf("compile count = %d, want 1", got)
	}
}

func TestResolveCoalescesInstantCompiles(t *testing.T) {
	// With a compiler that returns immediately, a burst of cache misses
	// can outlive the in-flight window: late callers enter the flight
	// callback after the winner already stored the mesh. They must take
	// the cached instance instead of compiling again.
	p := solid.DefaultParams()
	for iter := 0; iter < 200; iter++ {
		fc := &fakeCompiler{}
		c := New(fc)

		const n = 8
		meshes := make([]*kernel.Mesh, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				m, err := c.Resolve(context.Background(), "brick2x2", p)
				if err != nil {
					t.Errorf("Resolve %d failed: %v", i, err)
					return
				}
				meshes[i] = m
			}(i)
		}
		wg.Wait()

		for i := 1; i < n; i++ {
			if meshes[i] != meshes[0] {
				t.Fatalf("iteration %d: request %d got a different mesh instance", iter, i)
			}
		}
		if got := fc.compiles.Load(); got != 1 {
			t.Fatalf("iteration %d: compile count = %d, want 1", iter, got)
		}
	}
}

func TestResolveFailureNotCached(t *testing.T) {
	fc := &fakeCompiler{}
	fc.fail.Store(true)
	c := New(fc)
	p := solid.DefaultParams()

	if _, err := c.Resolve(context.Background(), "tile2x2", p); err == nil {
		t.Fatal("Resolve succeeded while the compiler fails")
	}
	if c.Size() != 0 {
		t.Errorf("cache size = %d after failure, want 0", c.Size())
	}

	// The failure is transient: the next Resolve recompiles.
	fc.fail.Store(false)
	m, err := c.Resolve(context.Background(), "tile2x2", p)
	if err != nil {
		t.Fatalf("retry Resolve failed: %v", err)
	}
	if m.IsEmpty() {
		t.Error("retry produced an empty mesh")
	}
	if fc.compiles.Load() != 2 {
		t.Errorf("compile count = %d, want 2", fc.compiles.Load())
	}
}

func TestResolveUnknownKind(t *testing.T) {
	fc := &fakeCompiler{}
	c := New(fc)

	if _, err := c.Resolve(context.Background(), "gearbox9000", solid.DefaultParams()); err == nil {
		t.Fatal("Resolve of an unknown kind succeeded")
	}
	if fc.compiles.Load() != 0 {
		t.Error("unknown kind reached the compiler")
	}
}

func TestKeyDistinguishesParams(t *testing.T) {
	a := solid.DefaultParams()
	b := a
	if Key("brick2x4", a) != Key("brick2x4", b) {
		t.Error("equal params produced different keys")
	}
	b.StudHeight = 2.0
	if Key("brick2x4", a) == Key("brick2x4", b) {
		t.Error("different params produced equal keys")
	}
	if Key("brick2x4", a) == Key("plate2x4", a) {
		t.Error("different kinds produced equal keys")
	}
}

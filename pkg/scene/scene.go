// Package scene maintains one renderable entry per placed part:
// a mesh reference, a transform mirroring the part, a visibility flag
// driven by the step cursor, and selection/highlight state. Entries
// are rebuilt wholesale when the part list changes structurally and
// updated in place for every other change. Rebuilds resolve meshes
// through the geometry cache asynchronously; results from a superseded
// rebuild are discarded via a generation token.
package scene

import (
	"context"
	"fmt"
	"sync"

	"github.com/kivell/bricklab/pkg/build"
	"github.com/kivell/bricklab/pkg/catalog"
	"github.com/kivell/bricklab/pkg/geomcache"
	"github.com/kivell/bricklab/pkg/kernel"
	"github.com/kivell/bricklab/pkg/solid"
)

// Emphasis is the visual state of an entry.
type Emphasis int

const (
	EmphasisNone     Emphasis = iota
	EmphasisSelected          // manually selected
	EmphasisStep              // auto-highlighted by step playback
)

// Entry is the render record of one part.
type Entry struct {
	Mesh        *kernel.Mesh // shared per kind; placeholder until compiled
	Placeholder bool
	Position    build.Vec3
	Rotation    build.Vec3
	Color       build.Color
	Visible     bool
	Emphasis    Emphasis
}

// Scene owns the entry list and its selection state.
type Scene struct {
	cache *geomcache.Cache

	mu          sync.Mutex
	generation  uint64
	signature   string
	parts       []*build.Part
	params      solid.Params
	entries     []*Entry
	cursor      int
	selected    int // part index, -1 for none
	autoIndex   int // auto-highlight index, -1 for none
	compileErrs map[string]string // kind -> last diagnostic
}

// New creates an empty scene resolving meshes through cache.
func New(cache *geomcache.Cache) *Scene {
	return &Scene{
		cache:       cache,
		params:      solid.DefaultParams(),
		selected:    -1,
		autoIndex:   -1,
		compileErrs: make(map[string]string),
	}
}

// Sync applies the current part list and geometry parameters. A change
// in list length, any kind, or the parameters triggers a wholesale
// rebuild; anything else updates entries in place. The returned channel
// closes when every distinct kind of this sync has resolved (or failed),
// which a rebuild in progress never blocks rendering on.
func (s *Scene) Sync(ctx context.Context, parts []*build.Part, params solid.Params) <-chan struct{} {
	sig := fmt.Sprintf("%s#%s", build.KindSignature(parts), geomcache.Key("", params))

	s.mu.Lock()
	if sig == s.signature {
		s.parts = parts
		s.updateLocked()
		s.mu.Unlock()
		done := make(chan struct{})
		close(done)
		return done
	}
	return s.rebuildLocked(ctx, parts, params, sig)
}

// updateLocked refreshes transforms, colors, and visibility from the
// part list without touching meshes or selection.
func (s *Scene) updateLocked() {
	for i, p := range s.parts {
		e := s.entries[i]
		e.Position = p.Position
		e.Rotation = p.Rotation
		e.Color = p.Color
		e.Visible = i < s.cursor
	}
	s.applyEmphasisLocked()
}

// rebuildLocked replaces every entry, starting from placeholders, then
// group-compiles each distinct kind concurrently. Called with s.mu held;
// releases it.
func (s *Scene) rebuildLocked(ctx context.Context, parts []*build.Part, params solid.Params, sig string) <-chan struct{} {
	s.generation++
	gen := s.generation
	s.signature = sig
	s.parts = parts
	s.params = params

	// Selection does not survive a structural rebuild; the cursor does,
	// clamped to the new list length.
	s.selected = -1
	s.autoIndex = -1
	if s.cursor > len(parts) {
		s.cursor = len(parts)
	}

	placeholders := make(map[string]*kernel.Mesh)
	s.entries = make([]*Entry, len(parts))
	for i, p := range parts {
		ph := placeholders[p.Kind]
		if ph == nil {
			kind, _ := catalog.Lookup(p.Kind)
			ph = placeholderMesh(kind)
			placeholders[p.Kind] = ph
		}
		s.entries[i] = &Entry{
			Mesh:        ph,
			Placeholder: true,
			Position:    p.Position,
			Rotation:    p.Rotation,
			Color:       p.Color,
			Visible:     i < s.cursor,
		}
	}
	kinds := build.DistinctKinds(parts)
	s.mu.Unlock()

	done := make(chan struct{})
	var wg sync.WaitGroup
	for _, kind := range kinds {
		wg.Add(1)
		go func(kind string) {
			defer wg.Done()
			mesh, err := s.cache.Resolve(ctx, kind, params)
			s.applyMesh(gen, kind, mesh, err)
		}(kind)
	}
	go func() {
		wg.Wait()
		close(done)
	}()
	return done
}

// applyMesh swaps a resolved mesh into every entry of the kind, without
// touching transforms, selection, or visibility. Results belonging to a
// superseded generation are dropped. A failed kind keeps its
// placeholder and records the diagnostic; retrying is a new Sync away.
func (s *Scene) applyMesh(gen uint64, kind string, mesh *kernel.Mesh, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		return
	}
	if err != nil {
		s.compileErrs[kind] = err.Error()
		return
	}
	delete(s.compileErrs, kind)
	for i, p := range s.parts {
		if p.Kind == kind {
			s.entries[i].Mesh = mesh
			s.entries[i].Placeholder = false
		}
	}
}

// SetCursor sets the step cursor, clamped to [0, part count], and
// refreshes visibility: entry i is visible iff i < cursor.
func (s *Scene) SetCursor(cursor int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(s.entries) {
		cursor = len(s.entries)
	}
	s.cursor = cursor
	for i, e := range s.entries {
		e.Visible = i < cursor
	}
}

// Cursor returns the current step cursor.
func (s *Scene) Cursor() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}

// Select marks part i as manually selected. Manual selection takes
// precedence over the step auto-highlight for every index.
func (s *Scene) Select(i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.entries) {
		return false
	}
	s.selected = i
	s.applyEmphasisLocked()
	return true
}

// Deselect clears the manual selection; any auto-highlight shows again.
func (s *Scene) Deselect() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = -1
	s.applyEmphasisLocked()
}

// Selected returns the manually selected part index, or -1.
func (s *Scene) Selected() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// SetAutoHighlight sets the step-playback highlight index (-1 for
// none). It stays suppressed while a manual selection exists.
func (s *Scene) SetAutoHighlight(i int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i >= len(s.entries) {
		i = -1
	}
	s.autoIndex = i
	s.applyEmphasisLocked()
}

func (s *Scene) applyEmphasisLocked() {
	for i, e := range s.entries {
		switch {
		case s.selected >= 0:
			if i == s.selected {
				e.Emphasis = EmphasisSelected
			} else {
				e.Emphasis = EmphasisNone
			}
		case i == s.autoIndex:
			e.Emphasis = EmphasisStep
		default:
			e.Emphasis = EmphasisNone
		}
	}
}

// Entries returns a snapshot copy of the entry states. Mesh pointers
// are shared and must not be mutated by the caller.
func (s *Scene) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	for i, e := range s.entries {
		out[i] = *e
	}
	return out
}

// Len returns the number of entries.
func (s *Scene) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// CompileErrors returns the last compile diagnostic per failed kind.
func (s *Scene) CompileErrors() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.compileErrs))
	for k, v := range s.compileErrs {
		out[k] = v
	}
	return out
}

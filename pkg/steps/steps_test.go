package steps

import (
	"context"
	"testing"

	"github.com/kivell/bricklab/pkg/build"
	"github.com/kivell/bricklab/pkg/geomcache"
	"github.com/kivell/bricklab/pkg/kernel"
	"github.com/kivell/bricklab/pkg/scene"
	"github.com/kivell/bricklab/pkg/solid"
	"github.com/kivell/bricklab/pkg/stl"
)

type fixedCompiler struct{}

func (fixedCompiler) Compile(_ context.Context, _ string) ([]byte, error) {
	return stl.Encode(&kernel.Mesh{
		Vertices: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Normals:  []float32{0, 0, 1, 0, 0, 1, 0, 0, 1},
		Indices:  []uint32{0, 1, 2},
	}), nil
}

func newRig(t *testing.T, n int) (*Controller, *scene.Scene) {
	t.Helper()
	sc := scene.New(geomcache.New(fixedCompiler{}))
	parts := make([]*build.Part, n)
	for i := range parts {
		parts[i] = build.NewPart("brick2x2")
	}
	<-sc.Sync(context.Background(), parts, solid.DefaultParams())
	return New(sc), sc
}

func visible(sc *scene.Scene) []bool {
	entries := sc.Entries()
	out := make([]bool, len(entries))
	for i, e := range entries {
		out[i] = e.Visible
	}
	return out
}

func stepHighlight(sc *scene.Scene) int {
	for i, e := range sc.Entries() {
		if e.Emphasis == scene.EmphasisStep {
			return i
		}
	}
	return -1
}

func TestAdvanceRevealsPrefix(t *testing.T) {
	c, sc := newRig(t, 3)

	if c.Cursor() != 0 {
		t.Fatalf("initial cursor = %d, want 0", c.Cursor())
	}
	c.Advance()
	c.Advance()

	if c.Cursor() != 2 {
		t.Errorf("cursor = %d, want 2", c.Cursor())
	}
	want := []bool{true, true, false}
	for i, v := range visible(sc) {
		if v != want[i] {
			t.Errorf("entry %d visible = %v, want %v", i, v, want[i])
		}
	}
	// The freshest reveal carries the step highlight.
	if got := stepHighlight(sc); got != 1 {
		t.Errorf("step highlight at %d, want 1", got)
	}
}

func TestRetreatHidesFreshestPart(t *testing.T) {
	c, sc := newRig(t, 3)
	c.JumpToEnd()

	c.Retreat()
	if c.Cursor() != 2 {
		t.Errorf("cursor = %d, want 2", c.Cursor())
	}
	if got := stepHighlight(sc); got != 1 {
		t.Errorf("step highlight at %d, want 1", got)
	}
}

func TestCursorClampsAtBothEnds(t *testing.T) {
	c, sc := newRig(t, 2)

	c.Retreat()
	if c.Cursor() != 0 {
		t.Errorf("cursor = %d below start, want 0", c.Cursor())
	}
	// At the start nothing is revealed, so nothing is highlighted.
	if got := stepHighlight(sc); got != -1 {
		t.Errorf("step highlight at %d with empty prefix, want none", got)
	}

	c.JumpToEnd()
	c.Advance()
	c.Advance()
	if c.Cursor() != 2 {
		t.Errorf("cursor = %d past end, want 2", c.Cursor())
	}
	if got := stepHighlight(sc); got != 1 {
		t.Errorf("step highlight at %d, want the last part", got)
	}
}

func TestJumps(t *testing.T) {
	c, sc := newRig(t, 4)

	c.JumpToEnd()
	if c.Cursor() != 4 {
		t.Errorf("cursor = %d after JumpToEnd, want 4", c.Cursor())
	}
	for i, v := range visible(sc) {
		if !v {
			t.Errorf("entry %d hidden after JumpToEnd", i)
		}
	}

	c.JumpToStart()
	if c.Cursor() != 0 {
		t.Errorf("cursor = %d after JumpToStart, want 0", c.Cursor())
	}
	for i, v := range visible(sc) {
		if v {
			t.Errorf("entry %d visible after JumpToStart", i)
		}
	}
}

func TestSetClampsArbitraryValues(t *testing.T) {
	c, _ := newRig(t, 3)

	c.Set(99)
	if c.Cursor() != 3 {
		t.Errorf("cursor = %d, want 3", c.Cursor())
	}
	c.Set(-7)
	if c.Cursor() != 0 {
		t.Errorf("cursor = %d, want 0", c.Cursor())
	}
}

func TestReclampAfterShrink(t *testing.T) {
	c, sc := newRig(t, 4)
	c.JumpToEnd()

	// The part list shrinks out from under the cursor.
	parts := []*build.Part{build.NewPart("tile2x2"), build.NewPart("tile2x2")}
	<-sc.Sync(context.Background(), parts, solid.DefaultParams())

	c.Reclamp()
	if c.Cursor() != 2 {
		t.Errorf("cursor = %d after reclamp, want 2", c.Cursor())
	}
	if got := stepHighlight(sc); got != 1 {
		t.Errorf("step highlight at %d, want 1", got)
	}
}

func TestManualSelectionSuppressesStepHighlight(t *testing.T) {
	c, sc := newRig(t, 3)
	c.JumpToEnd()

	if got := stepHighlight(sc); got != 2 {
		t.Fatalf("step highlight at %d, want 2", got)
	}

	sc.Select(0)
	if got := stepHighlight(sc); got != -1 {
		t.Errorf("step highlight at %d while a selection exists, want none", got)
	}

	// Stepping while selected keeps the suppression.
	c.Retreat()
	if got := stepHighlight(sc); got != -1 {
		t.Errorf("step highlight at %d after stepping, want none", got)
	}

	sc.Deselect()
	if got := stepHighlight(sc); got != 1 {
		t.Errorf("step highlight at %d after deselect, want 1", got)
	}
}

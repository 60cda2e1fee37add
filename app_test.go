package main

import (
	"os"
	"testing"

	"github.com/kivell/bricklab/pkg/build"
	"github.com/kivell/bricklab/pkg/placement"
	"github.com/kivell/bricklab/pkg/scene"
)

// downRay points straight down onto the build plane from high above.
func downRay(x, y float32) placement.Ray {
	return placement.Ray{Origin: [3]float32{x, y, 1000}, Dir: [3]float32{0, 0, -1}}
}

// TestE2ELoadDescription exercises the full load path: description text
// → parser → part list → scene. This is the same path the Wails
// binding takes, but without the Wails runtime. Mesh compiles run in
// the background; the scene answers immediately with placeholders.
func TestE2ELoadDescription(t *testing.T) {
	app := NewApp()

	source, err := os.ReadFile("examples/tower.brick")
	if err != nil {
		t.Fatalf("failed to read tower.brick: %v", err)
	}

	result := app.LoadDescription(string(source))
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Count != 4 {
		t.Fatalf("expected 4 parts, got %d", result.Count)
	}

	state := app.SceneState()
	if len(state.Entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(state.Entries))
	}
	// A fresh load reveals the whole assembly.
	if state.Cursor != 4 {
		t.Errorf("cursor = %d, want 4", state.Cursor)
	}
	for i, e := range state.Entries {
		if !e.Visible {
			t.Errorf("entry %d hidden after load", i)
		}
		if state.Meshes[e.Kind] == nil || state.Meshes[e.Kind].IsEmpty() {
			t.Errorf("entry %d has no renderable mesh", i)
		}
	}

	// Second brick sits one level up on the stud grid.
	if state.Entries[1].Position != (build.Vec3{X: 0, Y: 0, Z: 9.6}) {
		t.Errorf("entry 1 position = %v, want (0,0,9.6)", state.Entries[1].Position)
	}
	// The tile was placed in explicit millimeters.
	if state.Entries[3].Position != (build.Vec3{X: 0, Y: 8, Z: 22.4}) {
		t.Errorf("entry 3 position = %v, want (0,8,22.4)", state.Entries[3].Position)
	}
}

// TestE2ERunScript exercises the scripting surface end to end.
func TestE2ERunScript(t *testing.T) {
	app := NewApp()

	source, err := os.ReadFile("examples/tower.zy")
	if err != nil {
		t.Fatalf("failed to read tower.zy: %v", err)
	}

	result := app.RunScript(string(source))
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if result.Count != 3 {
		t.Fatalf("expected 3 parts, got %d", result.Count)
	}

	state := app.SceneState()
	if state.Entries[2].Position != (build.Vec3{X: 0, Y: 0, Z: 19.2}) {
		t.Errorf("plate position = %v, want (0,0,19.2)", state.Entries[2].Position)
	}
}

func TestLoadDescriptionTolerant(t *testing.T) {
	app := NewApp()

	result := app.LoadDescription(`
place("brick2x2", xStud=0, yStud=0, zLevel=0)
place("antigravity_unit", xStud=1, yStud=0, zLevel=0)
this line is noise
place("tile2x2", xStud=0, yStud=0, zLevel=1)
`)
	if len(result.Errors) > 0 {
		t.Fatalf("tolerant parse reported errors: %v", result.Errors)
	}
	if result.Count != 2 {
		t.Errorf("expected 2 parts, got %d", result.Count)
	}
}

func TestLoadDescriptionEmpty(t *testing.T) {
	app := NewApp()

	result := app.LoadDescription("")
	if result.Count != 0 {
		t.Errorf("expected 0 parts, got %d", result.Count)
	}
	state := app.SceneState()
	if len(state.Entries) != 0 {
		t.Errorf("expected no entries, got %d", len(state.Entries))
	}
	if state.Cursor != 0 {
		t.Errorf("cursor = %d, want 0", state.Cursor)
	}
}

func TestRunScriptPartialSuccess(t *testing.T) {
	app := NewApp()

	result := app.RunScript(`
(place "brick2x2" :stud-x 0 :stud-y 0 :level 0)
(place "hyperdrive" :stud-x 1 :stud-y 0 :level 0)
`)
	if result.Count != 1 {
		t.Errorf("expected 1 part, got %d", result.Count)
	}
	if len(result.Errors) != 1 {
		t.Errorf("expected 1 error, got %d: %v", len(result.Errors), result.Errors)
	}
}

func TestStepBindings(t *testing.T) {
	app := NewApp()
	app.LoadDescription(`
place("brick2x2", xStud=0, yStud=0, zLevel=0)
place("brick2x2", xStud=0, yStud=0, zLevel=1)
place("brick2x2", xStud=0, yStud=0, zLevel=2)
`)

	if got := app.StepToStart(); got != 0 {
		t.Fatalf("StepToStart = %d, want 0", got)
	}
	if got := app.StepForward(); got != 1 {
		t.Fatalf("StepForward = %d, want 1", got)
	}
	app.StepForward()

	state := app.SceneState()
	wantVisible := []bool{true, true, false}
	for i, e := range state.Entries {
		if e.Visible != wantVisible[i] {
			t.Errorf("entry %d visible = %v, want %v", i, e.Visible, wantVisible[i])
		}
	}
	// The freshest revealed part carries the step highlight.
	if state.Entries[1].Emphasis != int(scene.EmphasisStep) {
		t.Errorf("entry 1 emphasis = %d, want step highlight", state.Entries[1].Emphasis)
	}

	if got := app.StepBack(); got != 1 {
		t.Errorf("StepBack = %d, want 1", got)
	}
	if got := app.StepToEnd(); got != 3 {
		t.Errorf("StepToEnd = %d, want 3", got)
	}
	// Past-the-end advances clamp.
	if got := app.StepForward(); got != 3 {
		t.Errorf("StepForward past end = %d, want 3", got)
	}
}

func TestPickDragCommitFlow(t *testing.T) {
	app := NewApp()
	app.LoadDescription(`
place("brick2x4", xStud=0, yStud=0, zLevel=0)
place("brick2x4", xStud=5, yStud=0, zLevel=0)
`)

	// The second brick's footprint starts at x=40; aim inside it.
	idx := app.Pick(downRay(44, 8))
	if idx != 1 {
		t.Fatalf("picked %d, want 1", idx)
	}
	if app.SceneState().Selected != 1 {
		t.Errorf("scene selected = %d, want 1", app.SceneState().Selected)
	}

	if !app.SetMode("translate") {
		t.Error("SetMode(translate) failed")
	}
	if app.SetMode("teleport") {
		t.Error("unknown mode accepted")
	}

	if !app.BeginDrag() {
		t.Fatal("BeginDrag failed")
	}
	if !app.Dragging() {
		t.Error("Dragging() = false mid-drag")
	}
	app.UpdateDrag(placement.Transform{
		Position: build.Vec3{X: 13, Y: 9.4, Z: 3},
		Rotation: build.Vec3{Z: 47},
	})

	got := app.EndDrag(true, true, false)
	want := placement.Transform{
		Position: build.Vec3{X: 16, Y: 8, Z: 3.2},
		Rotation: build.Vec3{Z: 90},
	}
	if got != want {
		t.Errorf("EndDrag = %+v, want %+v", got, want)
	}

	state := app.SceneState()
	if state.Entries[1].Position != want.Position {
		t.Errorf("entry 1 position = %v, want %v", state.Entries[1].Position, want.Position)
	}
	if state.Entries[1].Rotation != want.Rotation {
		t.Errorf("entry 1 rotation = %v, want %v", state.Entries[1].Rotation, want.Rotation)
	}

	// Recolor through the linked affordance, then deselect.
	if !app.SetSelectedColor(0.1, 0.9, 0.4) {
		t.Fatal("SetSelectedColor failed")
	}
	if c := app.SceneState().Entries[1].Color; c != (build.Color{R: 0.1, G: 0.9, B: 0.4}) {
		t.Errorf("entry 1 color = %v", c)
	}

	app.Cancel()
	if app.SceneState().Selected != -1 {
		t.Error("selection survived Cancel")
	}
}

func TestPickMissDeselects(t *testing.T) {
	app := NewApp()
	app.LoadDescription(`place("brick2x2", xStud=0, yStud=0, zLevel=0)`)

	if idx := app.Pick(downRay(4, 4)); idx != 0 {
		t.Fatalf("picked %d, want 0", idx)
	}
	if idx := app.Pick(downRay(5000, 5000)); idx != -1 {
		t.Errorf("miss returned %d, want -1", idx)
	}
	if app.SceneState().Selected != -1 {
		t.Error("selection survived a miss")
	}
}

func TestEndDragWithoutDrag(t *testing.T) {
	app := NewApp()
	app.LoadDescription(`place("brick2x2", xStud=0, yStud=0, zLevel=0)`)

	got := app.EndDrag(true, true, false)
	if got != (placement.Transform{}) {
		t.Errorf("EndDrag without a drag = %+v, want zero", got)
	}
}

func TestKinds(t *testing.T) {
	app := NewApp()
	kinds := app.Kinds()
	if len(kinds) == 0 {
		t.Fatal("empty kind palette")
	}
	found := false
	for _, k := range kinds {
		if k == "brick2x4" {
			found = true
		}
	}
	if !found {
		t.Errorf("brick2x4 missing from palette: %v", kinds)
	}
}

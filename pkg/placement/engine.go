// Package placement manages interactive part editing: selection by ray
// pick, drag-to-transform with a transient visual transform, and
// grid-aware snapping committed only at gesture end. Part records stay
// untouched for the whole drag; only release writes them, so a gesture
// is atomic and the part list never churns mid-drag.
package placement

import (
	"github.com/kivell/bricklab/pkg/build"
	"github.com/kivell/bricklab/pkg/scene"
)

// State is the gesture state of the engine.
type State int

const (
	StateIdle     State = iota // nothing selected
	StateSelected              // one part selected, handle attached
	StateDragging              // handle actively manipulated
)

// Mode is the attached transform handle's mode.
type Mode int

const (
	ModeTranslate Mode = iota
	ModeRotate
)

// Engine is the placement state machine over a scene and its part
// list. It is driven from the single input/event thread.
type Engine struct {
	sc     *scene.Scene
	picker Picker

	parts []*build.Part
	state State
	mode  Mode

	selected    int // index into parts, valid in selected/dragging
	pickedColor build.Color
	drag        Transform // transient, visual-only until commit
}

// New returns an idle engine picking through p.
func New(sc *scene.Scene, p Picker) *Engine {
	return &Engine{sc: sc, picker: p, selected: -1}
}

// SetParts points the engine at the current part list. Any active
// selection is dropped; the old indices no longer mean anything.
func (e *Engine) SetParts(parts []*build.Part) {
	e.parts = parts
	e.state = StateIdle
	e.selected = -1
}

// State returns the current gesture state.
func (e *Engine) State() State { return e.state }

// Mode returns the current handle mode.
func (e *Engine) Mode() Mode { return e.mode }

// Dragging reports whether a drag is in progress; the shell suspends
// camera navigation while it is.
func (e *Engine) Dragging() bool { return e.state == StateDragging }

// SetMode switches the handle between translate and rotate. Rejected
// while dragging; never changes the selection.
func (e *Engine) SetMode(m Mode) bool {
	if e.state == StateDragging {
		return false
	}
	e.mode = m
	return true
}

// PointerDown picks against the currently visible entries. A hit
// selects the part (recording its color for the color editor) and
// returns its index; a miss deselects and returns -1.
func (e *Engine) PointerDown(ray Ray) int {
	if e.state == StateDragging {
		return e.selected // pointer events during a drag belong to the handle
	}

	entries := e.sc.Entries()
	targets := make([]Target, 0, len(entries))
	for i, ent := range entries {
		if !ent.Visible {
			continue
		}
		targets = append(targets, Target{
			Mesh:     ent.Mesh,
			Position: ent.Position,
			Rotation: ent.Rotation,
			Index:    i,
		})
	}

	idx, ok := e.picker.Pick(ray, targets)
	if !ok {
		e.Cancel()
		return -1
	}

	e.state = StateSelected
	e.selected = idx
	e.pickedColor = e.parts[idx].Color
	e.sc.Select(idx)
	return idx
}

// Cancel is the explicit deselect: back to idle from any state, every
// highlight cleared.
func (e *Engine) Cancel() {
	e.state = StateIdle
	e.selected = -1
	e.sc.Deselect()
}

// Selected returns the selected part index, or -1.
func (e *Engine) Selected() int {
	if e.state == StateIdle {
		return -1
	}
	return e.selected
}

// SelectedColor returns the color recorded at selection time, feeding
// the linked color-edit affordance.
func (e *Engine) SelectedColor() build.Color { return e.pickedColor }

// SetSelectedColor writes a clamped color into the selected part.
func (e *Engine) SetSelectedColor(c build.Color) bool {
	if e.state == StateIdle {
		return false
	}
	e.parts[e.selected].Color = c.Clamped()
	e.pickedColor = e.parts[e.selected].Color
	return true
}

// BeginDrag starts manipulating the handle. Only legal from selected;
// the transient transform starts at the part's committed transform.
func (e *Engine) BeginDrag() bool {
	if e.state != StateSelected {
		return false
	}
	p := e.parts[e.selected]
	e.drag = Transform{Position: p.Position, Rotation: p.Rotation}
	e.state = StateDragging
	return true
}

// UpdateDrag stores the live transform of the gesture. The part record
// is not touched; the value is visual-only until EndDrag.
func (e *Engine) UpdateDrag(t Transform) {
	if e.state != StateDragging {
		return
	}
	e.drag = t
}

// DragTransform returns the live transform while dragging, and the
// selected part's committed transform otherwise.
func (e *Engine) DragTransform() Transform {
	if e.state == StateDragging {
		return e.drag
	}
	if e.selected >= 0 {
		p := e.parts[e.selected]
		return Transform{Position: p.Position, Rotation: p.Rotation}
	}
	return Transform{}
}

// EndDrag commits the gesture: the transient transform is snapped
// (unless the disable-snapping modifier was held at release) and
// written back into the part record, the single source of truth.
// Returns the committed transform.
func (e *Engine) EndDrag(opts SnapOptions, disableSnap bool) (Transform, bool) {
	if e.state != StateDragging {
		return Transform{}, false
	}
	t := e.drag
	if !disableSnap {
		t = Snap(t, opts)
	}
	p := e.parts[e.selected]
	p.Position = t.Position
	p.Rotation = t.Rotation
	e.state = StateSelected
	return t, true
}

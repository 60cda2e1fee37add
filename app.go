package main

import (
	"context"
	"log"
	"sync"

	"github.com/kivell/bricklab/pkg/build"
	"github.com/kivell/bricklab/pkg/catalog"
	"github.com/kivell/bricklab/pkg/compiler"
	"github.com/kivell/bricklab/pkg/dsl"
	"github.com/kivell/bricklab/pkg/engine"
	"github.com/kivell/bricklab/pkg/geomcache"
	"github.com/kivell/bricklab/pkg/kernel"
	"github.com/kivell/bricklab/pkg/kernel/sdfx"
	"github.com/kivell/bricklab/pkg/placement"
	"github.com/kivell/bricklab/pkg/scene"
	"github.com/kivell/bricklab/pkg/solid"
	"github.com/kivell/bricklab/pkg/steps"
)

// App is the Wails backend. It exposes the parser, scene, placement,
// and step-playback operations to the frontend via bindings. The
// frontend owns the camera and rendering; it ships pick rays and drag
// transforms here and renders the scene state it reads back.
type App struct {
	ctx context.Context

	// mu serializes bindings so part-list mutations behave as one
	// logical thread of events.
	mu sync.Mutex

	engine *engine.Engine
	cache  *geomcache.Cache
	sc     *scene.Scene
	placer *placement.Engine
	step   *steps.Controller

	params solid.Params
	parts  []*build.Part
}

// EvalErrorData is a JSON-serializable eval error for the frontend.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// LoadResult is returned by the two assembly-loading bindings.
type LoadResult struct {
	Count  int             `json:"count"`
	Errors []EvalErrorData `json:"errors"`
}

// EntryData is one scene entry as the frontend renders it.
type EntryData struct {
	Kind        string      `json:"kind"`
	Placeholder bool        `json:"placeholder"`
	Position    build.Vec3  `json:"position"`
	Rotation    build.Vec3  `json:"rotation"`
	Color       build.Color `json:"color"`
	Visible     bool        `json:"visible"`
	Emphasis    int         `json:"emphasis"`
}

// SceneState is the full render state: entries plus one mesh per kind
// (the compiled mesh once it has arrived, a placeholder before that).
type SceneState struct {
	Entries       []EntryData             `json:"entries"`
	Meshes        map[string]*kernel.Mesh `json:"meshes"`
	Cursor        int                     `json:"cursor"`
	Selected      int                     `json:"selected"`
	CompileErrors map[string]string       `json:"compileErrors"`
}

// NewApp creates an App wired to the in-process sdfx mesh compiler.
func NewApp() *App {
	cache := geomcache.New(compiler.NewKernel(sdfx.New()))
	sc := scene.New(cache)
	return &App{
		engine: engine.NewEngine(),
		cache:  cache,
		sc:     sc,
		placer: placement.New(sc, placement.MeshPicker{}),
		step:   steps.New(sc),
		params: solid.DefaultParams(),
	}
}

// startup is called by Wails on app startup. The context is saved
// so scene rebuilds inherit the application lifetime.
func (a *App) startup(ctx context.Context) {
	a.ctx = ctx
}

// background returns the context scene rebuilds run under.
func (a *App) background() context.Context {
	if a.ctx != nil {
		return a.ctx
	}
	return context.Background()
}

// LoadDescription parses the textual brick description and replaces the
// assembly with its parts. Parsing is tolerant and never fails; the
// result reports how many parts were understood.
func (a *App) LoadDescription(text string) LoadResult {
	parts := dsl.Parse(text)
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setParts(parts)
	return LoadResult{Count: len(parts), Errors: []EvalErrorData{}}
}

// RunScript evaluates a build script and replaces the assembly with
// the parts it places. Non-fatal script problems come back as errors
// alongside the parts that did evaluate.
func (a *App) RunScript(source string) LoadResult {
	parts, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		log.Printf("RunScript fatal error: %v", err)
		return LoadResult{Errors: []EvalErrorData{{Message: err.Error()}}}
	}

	result := LoadResult{Count: len(parts), Errors: []EvalErrorData{}}
	for _, e := range evalErrs {
		result.Errors = append(result.Errors, EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message})
	}
	if parts == nil {
		return result
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.setParts(parts)
	return result
}

// setParts swaps in a new part list and rebuilds the scene. The step
// cursor jumps to the end so a fresh load shows the whole assembly.
// Callers hold a.mu.
func (a *App) setParts(parts []*build.Part) {
	a.parts = parts
	a.placer.SetParts(parts)
	a.sc.Sync(a.background(), parts, a.params)
	a.step.JumpToEnd()
}

// syncScene mirrors in-place part mutations (drag commits, recolors)
// into the scene. Callers hold a.mu.
func (a *App) syncScene() {
	a.sc.Sync(a.background(), a.parts, a.params)
}

// SceneState returns the current render state.
func (a *App) SceneState() SceneState {
	a.mu.Lock()
	defer a.mu.Unlock()

	entries := a.sc.Entries()
	state := SceneState{
		Entries:       make([]EntryData, len(entries)),
		Meshes:        make(map[string]*kernel.Mesh),
		Cursor:        a.sc.Cursor(),
		Selected:      a.sc.Selected(),
		CompileErrors: a.sc.CompileErrors(),
	}
	for i, e := range entries {
		state.Entries[i] = EntryData{
			Kind:        e.Mesh.Kind,
			Placeholder: e.Placeholder,
			Position:    e.Position,
			Rotation:    e.Rotation,
			Color:       e.Color,
			Visible:     e.Visible,
			Emphasis:    int(e.Emphasis),
		}
		state.Meshes[e.Mesh.Kind] = e.Mesh
	}
	return state
}

// Kinds returns the catalog kind names for the frontend palette.
func (a *App) Kinds() []string {
	return catalog.Names()
}

// Pick casts the given ray against the visible parts. A hit selects the
// part and returns its index; a miss deselects and returns -1.
func (a *App) Pick(ray placement.Ray) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.placer.PointerDown(ray)
}

// Cancel is the explicit deselect.
func (a *App) Cancel() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.placer.Cancel()
}

// SetMode switches the transform handle between "translate" and
// "rotate". Rejected while a drag is in progress.
func (a *App) SetMode(mode string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch mode {
	case "translate":
		return a.placer.SetMode(placement.ModeTranslate)
	case "rotate":
		return a.placer.SetMode(placement.ModeRotate)
	}
	return false
}

// Dragging reports whether camera navigation should stay suspended.
func (a *App) Dragging() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.placer.Dragging()
}

// BeginDrag starts a handle drag on the selected part.
func (a *App) BeginDrag() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.placer.BeginDrag()
}

// UpdateDrag stores the live gesture transform. Visual only; the part
// record is untouched until EndDrag.
func (a *App) UpdateDrag(t placement.Transform) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.placer.UpdateDrag(t)
}

// EndDrag commits the gesture with the given snap settings and returns
// the committed transform.
func (a *App) EndDrag(snapToGrid, snapToLevels, disableSnap bool) placement.Transform {
	a.mu.Lock()
	defer a.mu.Unlock()
	t, ok := a.placer.EndDrag(placement.SnapOptions{
		SnapToGrid:   snapToGrid,
		SnapToLevels: snapToLevels,
	}, disableSnap)
	if ok {
		a.syncScene()
	}
	return t
}

// SelectedColor returns the color recorded when the selection was made.
func (a *App) SelectedColor() build.Color {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.placer.SelectedColor()
}

// SetSelectedColor recolors the selected part.
func (a *App) SetSelectedColor(r, g, b float64) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	ok := a.placer.SetSelectedColor(build.Color{R: r, G: g, B: b})
	if ok {
		a.syncScene()
	}
	return ok
}

// StepForward reveals the next part of the build guide.
func (a *App) StepForward() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.step.Advance()
	return a.step.Cursor()
}

// StepBack hides the most recently revealed part.
func (a *App) StepBack() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.step.Retreat()
	return a.step.Cursor()
}

// StepToStart hides every part.
func (a *App) StepToStart() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.step.JumpToStart()
	return a.step.Cursor()
}

// StepToEnd reveals every part.
func (a *App) StepToEnd() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.step.JumpToEnd()
	return a.step.Cursor()
}

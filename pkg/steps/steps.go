// Package steps drives build-guide playback: an integer cursor selects
// which prefix of the part list is visible, and the most recently
// revealed part is auto-highlighted unless a manual selection is
// active.
package steps

import (
	"github.com/kivell/bricklab/pkg/scene"
)

// Controller moves the step cursor over a scene. The cursor always
// stays within [0, part count]; out-of-range requests clamp.
type Controller struct {
	sc *scene.Scene
}

// New returns a controller over sc.
func New(sc *scene.Scene) *Controller {
	return &Controller{sc: sc}
}

// Set moves the cursor to the given value, clamped, and recomputes the
// auto-highlight: the part at cursor-1, or none at the start.
func (c *Controller) Set(cursor int) {
	c.sc.SetCursor(cursor)
	c.sc.SetAutoHighlight(c.sc.Cursor() - 1)
}

// Advance reveals the next part.
func (c *Controller) Advance() {
	c.Set(c.sc.Cursor() + 1)
}

// Retreat hides the most recently revealed part.
func (c *Controller) Retreat() {
	c.Set(c.sc.Cursor() - 1)
}

// JumpToStart hides every part.
func (c *Controller) JumpToStart() {
	c.Set(0)
}

// JumpToEnd reveals every part.
func (c *Controller) JumpToEnd() {
	c.Set(c.sc.Len())
}

// Reclamp re-applies the cursor after a part-list change so it cannot
// point past the new end of the list.
func (c *Controller) Reclamp() {
	c.Set(c.sc.Cursor())
}

// Cursor returns the current cursor value.
func (c *Controller) Cursor() int {
	return c.sc.Cursor()
}

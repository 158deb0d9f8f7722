// Package frame holds the state one run mutates in place every frame.
package frame

import (
	"github.com/1siamBot/hdr-terrain/engine/render3d"
	"github.com/1siamBot/hdr-terrain/engine/sun"
)

// Viewport is the display size in pixels
type Viewport struct {
	Width, Height int
}

// Aspect is width over height as a float
func (v Viewport) Aspect() float64 {
	if v.Height == 0 {
		return 1
	}
	return float64(v.Width) / float64(v.Height)
}

// Context is created once per run and passed by pointer to every system that
// reads or writes per-frame state.
type Context struct {
	Camera *render3d.Camera3D
	Sun    sun.State
	// Light is the sun as the shaders see it, derived from Sun after each update
	Light    render3d.PointLight
	Viewport Viewport

	Time      float64 // seconds since start
	DeltaTime float64 // seconds since the previous frame
	Frame     uint64
}

// New creates a context for a w by h display
func New(cam *render3d.Camera3D, s sun.State, w, h int) *Context {
	return &Context{
		Camera:   cam,
		Sun:      s,
		Viewport: Viewport{Width: w, Height: h},
	}
}

// Advance starts a new frame that is dt seconds after the previous one
func (c *Context) Advance(dt float64) {
	if dt < 0 {
		dt = 0
	}
	c.DeltaTime = dt
	c.Time += dt
	c.Frame++
}

// Resize changes the viewport only. Render targets keep their size.
func (c *Context) Resize(w, h int) {
	if w <= 0 || h <= 0 || (w == c.Viewport.Width && h == c.Viewport.Height) {
		return
	}
	c.Viewport = Viewport{Width: w, Height: h}
	if c.Camera != nil {
		c.Camera.SetViewport(w, h)
	}
}

// Step advances the clock, runs the sun controller and refreshes Light.
// This is the per-frame update that precedes rendering.
func (c *Context) Step(ctrl *sun.Controller, dt float64) {
	c.Advance(dt)
	ctrl.Update(&c.Sun, c.DeltaTime)
	c.Light = c.Sun.Light(ctrl.Config())
}

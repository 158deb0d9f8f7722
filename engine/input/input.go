// Package input polls ebiten once per tick and turns the raw key and mouse
// state into camera motion and one-shot actions.
package input

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// Bindings maps one-shot actions to keys
var Bindings = map[Action][]ebiten.Key{
	ActionQuit:          {ebiten.KeyEscape},
	ActionBloomUp:       {ebiten.KeyEqual, ebiten.KeyNumpadAdd},
	ActionBloomDown:     {ebiten.KeyMinus, ebiten.KeyNumpadSubtract},
	ActionToggleSun:     {ebiten.KeyP},
	ActionDebugView:     {ebiten.KeyF1},
	ActionGizmo:         {ebiten.KeyF2},
	ActionCopyPose:      {ebiten.KeyC},
	ActionToggleCapture: {ebiten.KeyTab},
}

// InputState tracks mouse and keyboard state per frame
type InputState struct {
	MouseX, MouseY   int
	MouseDX, MouseDY int // delta since last frame
	prevMouseX       int
	prevMouseY       int
	firstMouse       bool

	Captured bool

	Controls Controls
}

func NewInputState() *InputState {
	return &InputState{firstMouse: true}
}

// SetCaptured hides and locks the cursor for mouse look
func (s *InputState) SetCaptured(on bool) {
	s.Captured = on
	s.firstMouse = true
	if on {
		ebiten.SetCursorMode(ebiten.CursorModeCaptured)
	} else {
		ebiten.SetCursorMode(ebiten.CursorModeVisible)
	}
}

// Update should be called every frame
func (s *InputState) Update() {
	s.prevMouseX = s.MouseX
	s.prevMouseY = s.MouseY
	s.MouseX, s.MouseY = ebiten.CursorPosition()
	s.MouseDX = s.MouseX - s.prevMouseX
	s.MouseDY = s.MouseY - s.prevMouseY
	// The first sample after a capture change jumps; drop it.
	if s.firstMouse {
		s.MouseDX, s.MouseDY = 0, 0
		s.firstMouse = false
	}

	c := Controls{
		Forward: ebiten.IsKeyPressed(ebiten.KeyW),
		Back:    ebiten.IsKeyPressed(ebiten.KeyS),
		Left:    ebiten.IsKeyPressed(ebiten.KeyA),
		Right:   ebiten.IsKeyPressed(ebiten.KeyD),
		Fast:    ebiten.IsKeyPressed(ebiten.KeyShiftLeft),
	}
	if s.Captured {
		c.LookDX, c.LookDY = float64(s.MouseDX), float64(s.MouseDY)
	}
	for a, keys := range Bindings {
		for _, k := range keys {
			if inpututil.IsKeyJustPressed(k) {
				c.Fired = c.Fired.With(a)
				break
			}
		}
	}
	if !s.Captured && inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
		c.Fired = c.Fired.With(ActionToggleCapture)
	}
	s.Controls = c
}

package input

import "github.com/1siamBot/hdr-terrain/engine/render3d"

// Action is a one-shot command triggered by a key press
type Action uint8

const (
	ActionQuit Action = iota
	ActionBloomUp
	ActionBloomDown
	ActionToggleSun
	ActionDebugView
	ActionGizmo
	ActionCopyPose
	ActionToggleCapture
	actionCount
)

var actionNames = [...]string{
	ActionQuit:          "quit",
	ActionBloomUp:       "bloom+",
	ActionBloomDown:     "bloom-",
	ActionToggleSun:     "toggle-sun",
	ActionDebugView:     "debug-view",
	ActionGizmo:         "gizmo",
	ActionCopyPose:      "copy-pose",
	ActionToggleCapture: "toggle-capture",
}

func (a Action) String() string {
	if a < actionCount {
		return actionNames[a]
	}
	return "unknown"
}

// Actions is a set of actions fired during one frame
type Actions uint16

// Has reports whether a fired
func (s Actions) Has(a Action) bool { return s&(1<<a) != 0 }

// With returns s plus a
func (s Actions) With(a Action) Actions { return s | 1<<a }

// Controls is the device-independent input for one frame
type Controls struct {
	Forward, Back, Left, Right bool
	Fast                       bool
	LookDX, LookDY             float64 // mouse delta in pixels, screen y down
	Fired                      Actions
}

// Drive moves and turns the camera. Opposite keys cancel out.
func (c Controls) Drive(cam *render3d.Camera3D, dt float64) {
	cam.Fast = c.Fast
	if f := axis(c.Forward, c.Back); f != 0 {
		cam.MoveForward(f, dt)
	}
	if s := axis(c.Right, c.Left); s != 0 {
		cam.Strafe(s, dt)
	}
	if c.LookDX != 0 || c.LookDY != 0 {
		cam.Look(c.LookDX, c.LookDY)
	}
}

func axis(pos, neg bool) float64 {
	switch {
	case pos && !neg:
		return 1
	case neg && !pos:
		return -1
	}
	return 0
}

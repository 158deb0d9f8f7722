package sun

import (
	"fmt"

	"github.com/1siamBot/hdr-terrain/engine/render3d"
)

// Phase is the sun's animation state
type Phase uint8

const (
	// Stationary pins the sun at a fixed position and bypasses the animation
	Stationary Phase = iota
	// Moving travels along the arc
	Moving
	// Waiting holds position at a horizon before reversing
	Waiting
)

func (p Phase) String() string {
	switch p {
	case Stationary:
		return "stationary"
	case Moving:
		return "moving"
	case Waiting:
		return "waiting"
	}
	return fmt.Sprintf("Phase(%d)", uint8(p))
}

// State is the light as it changes frame to frame
type State struct {
	Phase    Phase           `json:"phase"`
	Position render3d.Vec3   `json:"position"`
	Color    render3d.Color3 `json:"color"`
	Exposure float64         `json:"exposure"`

	// Arc is the accumulated angle along the orbit in radians
	Arc float64 `json:"arc"`
	// Step is the arc advanced by the last moving update
	Step float64 `json:"step"`
	// Reverse is set while traveling back toward the first horizon
	Reverse bool `json:"reverse"`
	// Timer counts seconds spent in Waiting
	Timer float64 `json:"timer"`
	// Angle is the last measured angle to the reference direction, in degrees
	Angle float64 `json:"angle"`
}

// AngularVelocity is the last step converted to radians per second
func (s *State) AngularVelocity(dt float64) float64 {
	if dt <= 0 {
		return 0
	}
	return s.Step / dt
}

// Light converts the state into the point light the terrain is shaded with
func (s *State) Light(cfg Config) render3d.PointLight {
	return render3d.PointLight{
		Position: s.Position,
		Ambient:  cfg.Ambient,
		Diffuse:  s.Color,
		Specular: cfg.Specular,
	}
}

func (s State) String() string {
	return fmt.Sprintf("%s pos=(%.3f, %.3f, %.3f) angle=%.1f exposure=%.3f reverse=%v",
		s.Phase, s.Position.X, s.Position.Y, s.Position.Z, s.Angle, s.Exposure, s.Reverse)
}

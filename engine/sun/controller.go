package sun

import (
	"math"

	"github.com/1siamBot/hdr-terrain/engine/render3d"
)

// EaseInOutSine maps x in [0,1] onto a sine S-curve
func EaseInOutSine(x float64) float64 {
	return -(math.Cos(math.Pi*x) - 1) / 2
}

// blend is the eased, gained blend factor for one frame, bounded to [0,1]
func blend(dt, gain float64) float64 {
	f := EaseInOutSine(dt) * gain
	if f < 0 || f != f {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// Controller advances a State each frame
type Controller struct {
	cfg Config
}

// NewController creates a controller for cfg
func NewController(cfg Config) *Controller {
	return &Controller{cfg: cfg}
}

// Config returns the controller's parameters
func (c *Controller) Config() Config { return c.cfg }

// NewState returns the state at startup: the initial position, cool color,
// max exposure, and Stationary or Moving according to the config.
func (c *Controller) NewState() State {
	s := State{
		Phase:    Moving,
		Position: c.cfg.InitialPosition,
		Color:    c.cfg.Cool,
		Exposure: c.cfg.MaxExposure,
	}
	s.Angle = s.Position.AngleDeg(c.cfg.Reference)
	if c.cfg.Stationary {
		s.Phase = Stationary
		s.Position = c.cfg.StationaryPosition
	}
	return s
}

// PositionAt projects an arc angle onto the orbit. The orbit runs diagonally
// over the terrain from (-R, 0, -R) through the zenith to (R, 0, R).
func (c *Controller) PositionAt(arc float64) render3d.Vec3 {
	r := c.cfg.Radius
	return render3d.V3(r*-math.Cos(arc), r*math.Sin(arc), r*-math.Cos(arc))
}

// SetStationary pins or releases the sun. Released suns resume moving from
// their accumulated arc.
func (c *Controller) SetStationary(s *State, on bool) {
	switch {
	case on && s.Phase != Stationary:
		s.Phase = Stationary
		s.Position = c.cfg.StationaryPosition
	case !on && s.Phase == Stationary:
		s.Phase = Moving
		s.Timer = 0
		s.Position = c.PositionAt(s.Arc)
	}
}

// Update advances s by dt seconds. A moving sun covers long frames in
// sub-steps of at most MaxStep so the eased blends behave as they do at
// 60 fps. A phase change ends the update.
func (c *Controller) Update(s *State, dt float64) {
	if dt < 0 || dt != dt || math.IsInf(dt, 0) {
		dt = 0
	}
	switch s.Phase {
	case Stationary:
		s.Position = c.cfg.StationaryPosition
		return

	case Waiting:
		s.Timer += dt
		if s.Timer >= c.cfg.IdleTime {
			s.Phase = Moving
			s.Timer = 0
		}
		return
	}

	for {
		h := math.Min(dt, MaxStep)
		c.move(s, h)
		dt -= h
		if dt <= 1e-9 || s.Phase != Moving {
			return
		}
	}
}

// move advances a moving sun by one step of dt
func (c *Controller) move(s *State, dt float64) {
	s.Angle = s.Position.AngleDeg(c.cfg.Reference)
	dir := 1.0
	if s.Reverse {
		dir = -1.0
	}
	stepToward := dt * c.cfg.DesiredSpeed * dir

	approachingHorizon := (s.Angle < ZenithLow && !s.Reverse) || (s.Angle > ZenithHigh && s.Reverse)
	if approachingHorizon {
		s.Step = render3d.Mix(stepToward, 0, blend(dt, DecelGain))
		s.Color = s.Color.Lerp(c.cfg.Warm, blend(dt, BlendGain))
		s.Exposure = render3d.Mix(s.Exposure, c.cfg.MinExposure, blend(dt, BlendGain))
	} else {
		s.Step = render3d.Mix(stepToward, c.cfg.DesiredSpeed*dir, blend(dt, AccelGain))
		s.Color = s.Color.Lerp(c.cfg.Cool, blend(dt, BlendGain))
		s.Exposure = render3d.Mix(s.Exposure, c.cfg.MaxExposure, blend(dt, BlendGain))
	}
	s.Exposure = c.cfg.ClampExposure(s.Exposure)
	s.Arc += s.Step
	s.Position = c.PositionAt(s.Arc)

	// Horizon check uses the angle measured before this step's move
	if s.Angle < HorizonAngle && !s.Reverse {
		s.Phase = Waiting
		s.Reverse = true
		s.Timer = 0
	} else if s.Angle > FarHorizonAngle && s.Reverse {
		s.Phase = Waiting
		s.Reverse = false
		s.Timer = 0
	}
}

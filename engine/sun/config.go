package sun

import (
	"fmt"

	"github.com/1siamBot/hdr-terrain/engine/render3d"
)

// Angular thresholds in degrees, measured between the sun direction and the
// reference direction.
const (
	// HorizonAngle is the near horizon. Reaching it while traveling toward it
	// starts a wait and flips the direction.
	HorizonAngle = 5.0
	// FarHorizonAngle is the horizon on the opposite side.
	FarHorizonAngle = 175.0
	// ZenithLow and ZenithHigh bracket the zenith. Outside the band on the
	// side the sun is heading to, it is approaching a horizon.
	ZenithLow  = 89.9
	ZenithHigh = 90.1
)

// Blend gains applied to the eased frame delta
const (
	DecelGain = 120.0
	AccelGain = 3.0
	BlendGain = 10.0
	// MaxStep is the longest interval a single controller step covers.
	MaxStep = 1.0 / 60
)

// BloomFactor scales the palette into HDR range
const BloomFactor = 5.0

var (
	// Cool is the zenith color
	Cool = render3d.Color3{R: 1.0, G: 0.85, B: 0.55}.Scale(BloomFactor)
	// Warm is the horizon color
	Warm = render3d.Color3{R: 1.0, G: 0.5, B: 0.05}.Scale(BloomFactor)
)

// Config is the sun's fixed parameters
type Config struct {
	Radius       float64 `json:"radius"`
	DesiredSpeed float64 `json:"desired_speed"` // radians per second along the arc
	IdleTime     float64 `json:"idle_time"`     // seconds spent waiting at a horizon

	MinExposure float64 `json:"min_exposure"`
	MaxExposure float64 `json:"max_exposure"`

	Reference          render3d.Vec3 `json:"reference"`
	InitialPosition    render3d.Vec3 `json:"initial_position"`
	StationaryPosition render3d.Vec3 `json:"stationary_position"`
	Stationary         bool          `json:"stationary"`

	Cool     render3d.Color3 `json:"cool"`
	Warm     render3d.Color3 `json:"warm"`
	Ambient  render3d.Color3 `json:"ambient"`
	Specular render3d.Color3 `json:"specular"`
}

// DefaultConfig is a slow dawn-to-dusk sweep across the terrain diagonal
func DefaultConfig() Config {
	return Config{
		Radius:             1.7,
		DesiredSpeed:       0.4,
		IdleTime:           1.0,
		MinExposure:        0.05,
		MaxExposure:        0.75,
		Reference:          render3d.V3(1, 0, 1),
		InitialPosition:    render3d.V3(0, 0.1, 0),
		StationaryPosition: render3d.V3(1, 0.75, 1),
		Cool:               Cool,
		Warm:               Warm,
		Ambient:            render3d.Color3{R: 0.1, G: 0.05, B: 0.35},
		Specular:           render3d.Color3{R: 0.9, G: 0.7, B: 0.4}.Scale(BloomFactor),
	}
}

// Validate reports parameters the controller cannot work with
func (c Config) Validate() error {
	if c.Radius <= 0 {
		return fmt.Errorf("sun radius must be positive, got %g", c.Radius)
	}
	if c.MinExposure < 0 || c.MinExposure > c.MaxExposure {
		return fmt.Errorf("sun exposure bounds [%g, %g] are inverted or negative", c.MinExposure, c.MaxExposure)
	}
	if c.IdleTime < 0 {
		return fmt.Errorf("sun idle time must not be negative, got %g", c.IdleTime)
	}
	if c.Reference.Len() == 0 {
		return fmt.Errorf("sun reference direction must be non-zero")
	}
	return nil
}

// ClampExposure bounds v to [MinExposure, MaxExposure]
func (c Config) ClampExposure(v float64) float64 {
	if v < c.MinExposure || v != v {
		return c.MinExposure
	}
	if v > c.MaxExposure {
		return c.MaxExposure
	}
	return v
}

package render3d

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Vec3 is a 3D vector
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

func V3(x, y, z float64) Vec3 { return Vec3{x, y, z} }

func (v Vec3) Add(o Vec3) Vec3      { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3      { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(s float64) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }
func (v Vec3) Dot(o Vec3) float64   { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{v.Y*o.Z - v.Z*o.Y, v.Z*o.X - v.X*o.Z, v.X*o.Y - v.Y*o.X}
}
func (v Vec3) Len() float64 { return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z) }
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l < 1e-10 {
		return Vec3{}
	}
	return Vec3{v.X / l, v.Y / l, v.Z / l}
}
func (v Vec3) Lerp(o Vec3, t float64) Vec3 {
	return Vec3{v.X + (o.X-v.X)*t, v.Y + (o.Y-v.Y)*t, v.Z + (o.Z-v.Z)*t}
}

// Mgl converts to the float32 vector used for shader uniforms
func (v Vec3) Mgl() mgl32.Vec3 { return mgl32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)} }

// FromMgl converts a float32 vector back to Vec3
func FromMgl(v mgl32.Vec3) Vec3 { return Vec3{float64(v[0]), float64(v[1]), float64(v[2])} }

// AngleDeg returns the angle between v and o in degrees
func (v Vec3) AngleDeg(o Vec3) float64 {
	// atan2 keeps precision near 0 and 180 where acos does not
	return math.Atan2(v.Cross(o).Len(), v.Dot(o)) * 180 / math.Pi
}

// Color3 is a linear RGB color. Components are not clamped, so HDR values
// above 1.0 survive until tonemapping.
type Color3 struct {
	R float64 `json:"r"`
	G float64 `json:"g"`
	B float64 `json:"b"`
}

func (c Color3) Scale(s float64) Color3 {
	return Color3{c.R * s, c.G * s, c.B * s}
}

func (c Color3) Add(o Color3) Color3 {
	return Color3{c.R + o.R, c.G + o.G, c.B + o.B}
}

func (c Color3) Mul(o Color3) Color3 {
	return Color3{c.R * o.R, c.G * o.G, c.B * o.B}
}

func (c Color3) Lerp(o Color3, t float64) Color3 {
	return Color3{c.R + (o.R-c.R)*t, c.G + (o.G-c.G)*t, c.B + (o.B-c.B)*t}
}

// Luminance uses Rec. 709 weights
func (c Color3) Luminance() float64 {
	return c.R*0.2126 + c.G*0.7152 + c.B*0.0722
}

// Clamp01 clamps every channel into [0,1]
func (c Color3) Clamp01() Color3 {
	return Color3{clamp01(c.R), clamp01(c.G), clamp01(c.B)}
}

func (c Color3) Mgl() mgl32.Vec3 { return mgl32.Vec3{float32(c.R), float32(c.G), float32(c.B)} }

// Mix is GLSL mix() for scalars
func Mix(a, b, t float64) float64 { return a + (b-a)*t }

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Smoothstep is GLSL smoothstep()
func Smoothstep(e0, e1, x float64) float64 {
	t := clamp01((x - e0) / (e1 - e0))
	return t * t * (3 - 2*t)
}

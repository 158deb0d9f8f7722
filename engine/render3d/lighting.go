package render3d

import "math"

// PointLight is the sun as the terrain shader sees it: a position plus
// Blinn-Phong terms. Colors may exceed 1.0.
type PointLight struct {
	Position Vec3
	Ambient  Color3
	Diffuse  Color3
	Specular Color3
}

// Material holds Blinn-Phong surface parameters
type Material struct {
	Shininess float64
	SpecStr   float64
}

// Fog is exponential distance fog
type Fog struct {
	Density float64 `json:"density"`
	Color   Color3  `json:"color"`
}

// DefaultFog is a light grey haze
func DefaultFog() Fog {
	return Fog{Density: 0.1, Color: Color3{0.8, 0.8, 0.8}}
}

// Apply blends c toward the fog color by distance
func (f Fog) Apply(c Color3, dist float64) Color3 {
	visibility := math.Exp(-f.Density * dist)
	return f.Color.Lerp(c, clamp01(visibility))
}

// DefaultMaterial is a rough terrain surface
func DefaultMaterial() Material {
	return Material{Shininess: 32, SpecStr: 0.25}
}

// BlinnPhong shades a surface at pos with normal n seen from viewPos
func (l *PointLight) BlinnPhong(pos, n, viewPos Vec3, base Color3, m Material) Color3 {
	ambient := base.Mul(l.Ambient)

	lightDir := l.Position.Sub(pos).Normalize()
	ndotl := math.Max(0, n.Dot(lightDir))
	diffuse := base.Mul(l.Diffuse).Scale(ndotl)

	viewDir := viewPos.Sub(pos).Normalize()
	halfway := lightDir.Add(viewDir).Normalize()
	spec := 0.0
	if ndotl > 0 {
		spec = math.Pow(math.Max(0, n.Dot(halfway)), m.Shininess)
	}
	specular := l.Specular.Scale(spec * m.SpecStr)

	return ambient.Add(diffuse).Add(specular)
}

// SkyGradient is a vertical zenith-to-horizon backdrop
type SkyGradient struct {
	Zenith  Color3 `json:"zenith"`
	Horizon Color3 `json:"horizon"`
	Ground  Color3 `json:"ground"`
}

// DefaultSky is a dusky blue gradient
func DefaultSky() SkyGradient {
	return SkyGradient{
		Zenith:  Color3{0.03, 0.05, 0.18},
		Horizon: Color3{0.17, 0.22, 0.37},
		Ground:  Color3{0.05, 0.05, 0.05},
	}
}

// Sample returns the sky color for a normalized view direction
func (s SkyGradient) Sample(dir Vec3) Color3 {
	if dir.Y < 0 {
		return s.Horizon.Lerp(s.Ground, clamp01(-dir.Y*4))
	}
	return s.Horizon.Lerp(s.Zenith, math.Sqrt(clamp01(dir.Y)))
}

// Tonemap maps HDR to display range with exponential exposure, then applies
// gamma encoding
func Tonemap(hdr Color3, exposure, gamma float64) Color3 {
	if gamma <= 0 {
		gamma = 2.2
	}
	m := func(v float64) float64 {
		mapped := 1 - math.Exp(-math.Max(v, 0)*exposure)
		return math.Pow(mapped, 1/gamma)
	}
	return Color3{m(hdr.R), m(hdr.G), m(hdr.B)}
}

package render3d

import "math"

// WireMesh is a set of line segments in world space
type WireMesh struct {
	Segments [][2]Vec3
}

func NewWireMesh() *WireMesh { return &WireMesh{} }

func (m *WireMesh) AddLine(a, b Vec3) {
	m.Segments = append(m.Segments, [2]Vec3{a, b})
}

func (m *WireMesh) Append(other *WireMesh) {
	m.Segments = append(m.Segments, other.Segments...)
}

// Translate returns a moved copy
func (m *WireMesh) Translate(d Vec3) *WireMesh {
	out := &WireMesh{Segments: make([][2]Vec3, len(m.Segments))}
	for i, s := range m.Segments {
		out.Segments[i] = [2]Vec3{s[0].Add(d), s[1].Add(d)}
	}
	return out
}

// --- Primitive generators ---

// MakeWireSphere builds latitude/longitude rings
func MakeWireSphere(radius float64, rings, segments int) *WireMesh {
	m := NewWireMesh()
	if rings < 2 {
		rings = 2
	}
	if segments < 6 {
		segments = 6
	}
	for r := 1; r < rings; r++ {
		phi := float64(r) / float64(rings) * math.Pi
		y := radius * math.Cos(phi)
		rr := radius * math.Sin(phi)
		for i := 0; i < segments; i++ {
			a0 := float64(i) / float64(segments) * 2 * math.Pi
			a1 := float64(i+1) / float64(segments) * 2 * math.Pi
			m.AddLine(V3(rr*math.Cos(a0), y, rr*math.Sin(a0)), V3(rr*math.Cos(a1), y, rr*math.Sin(a1)))
		}
	}
	for i := 0; i < segments/2; i++ {
		a := float64(i) / float64(segments/2) * math.Pi
		for r := 0; r < rings*2; r++ {
			p0 := float64(r) / float64(rings*2) * 2 * math.Pi
			p1 := float64(r+1) / float64(rings*2) * 2 * math.Pi
			m.AddLine(
				V3(radius*math.Sin(p0)*math.Cos(a), radius*math.Cos(p0), radius*math.Sin(p0)*math.Sin(a)),
				V3(radius*math.Sin(p1)*math.Cos(a), radius*math.Cos(p1), radius*math.Sin(p1)*math.Sin(a)),
			)
		}
	}
	return m
}

// MakeArc samples pos(t) for t in [t0, t1] into a polyline
func MakeArc(pos func(t float64) Vec3, t0, t1 float64, segments int) *WireMesh {
	m := NewWireMesh()
	if segments < 1 {
		segments = 1
	}
	prev := pos(t0)
	for i := 1; i <= segments; i++ {
		t := t0 + (t1-t0)*float64(i)/float64(segments)
		p := pos(t)
		m.AddLine(prev, p)
		prev = p
	}
	return m
}

// MakeGroundSquare outlines the terrain footprint at height y
func MakeGroundSquare(half, y float64) *WireMesh {
	m := NewWireMesh()
	c := [4]Vec3{V3(-half, y, -half), V3(half, y, -half), V3(half, y, half), V3(-half, y, half)}
	for i := range c {
		m.AddLine(c[i], c[(i+1)%4])
	}
	return m
}

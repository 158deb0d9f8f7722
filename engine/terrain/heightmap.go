package terrain

import (
	"github.com/1siamBot/hdr-terrain/engine/noise"
)

// Params controls heightmap synthesis
type Params struct {
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Scale       float64 `json:"scale"` // coordinate multiplier; small values give smooth terrain
	Octaves     int     `json:"octaves"`
	Persistence float64 `json:"persistence"`
	Lacunarity  float64 `json:"lacunarity"`
}

// DefaultParams returns a 512x512 six-octave map
func DefaultParams() Params {
	return Params{
		Width:       512,
		Height:      512,
		Scale:       0.005,
		Octaves:     6,
		Persistence: 0.5,
		Lacunarity:  2.0,
	}
}

// HeightGrid is a row-major grid of heights in [0,1]
type HeightGrid struct {
	Width, Height int
	data          []float64
}

// NewHeightGrid wraps existing samples. The slice is copied.
func NewHeightGrid(w, h int, samples []float64) *HeightGrid {
	g := &HeightGrid{Width: w, Height: h, data: make([]float64, w*h)}
	copy(g.data, samples)
	return g
}

// At returns the height at (x, y). Out-of-range coordinates are clamped to the edge.
func (g *HeightGrid) At(x, y int) float64 {
	if x < 0 {
		x = 0
	} else if x >= g.Width {
		x = g.Width - 1
	}
	if y < 0 {
		y = 0
	} else if y >= g.Height {
		y = g.Height - 1
	}
	return g.data[y*g.Width+x]
}

// Samples returns a copy of the raw samples
func (g *HeightGrid) Samples() []float64 {
	out := make([]float64, len(g.data))
	copy(out, g.data)
	return out
}

// Bytes quantizes heights to one byte per sample, the layout of an R8 texture
func (g *HeightGrid) Bytes() []byte {
	out := make([]byte, len(g.data))
	for i, v := range g.data {
		out[i] = byte(v * 255)
	}
	return out
}

// Generate fills a grid with FBM noise sampled at (x*scale, y*scale)
func Generate(src noise.Source, p Params) *HeightGrid {
	if p.Width < 1 {
		p.Width = 1
	}
	if p.Height < 1 {
		p.Height = 1
	}
	g := &HeightGrid{Width: p.Width, Height: p.Height, data: make([]float64, p.Width*p.Height)}

	for y := 0; y < p.Height; y++ {
		for x := 0; x < p.Width; x++ {
			// Divide int values to small fractional values for better noise results
			dx := float64(x) * p.Scale
			dy := float64(y) * p.Scale
			g.data[y*p.Width+x] = noise.FBM(src, dx, dy, p.Octaves, p.Lacunarity, p.Persistence)
		}
	}
	return g
}

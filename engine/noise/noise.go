package noise

import (
	"math"

	"github.com/aquilax/go-perlin"
	"github.com/ojrac/opensimplex-go"
)

// Source is a pure 2D noise primitive. Eval2 must return a value in [-1, 1]
// and must depend only on its coordinates.
type Source interface {
	Eval2(x, y float64) float64
}

// SourceFunc adapts a plain function to Source
type SourceFunc func(x, y float64) float64

func (f SourceFunc) Eval2(x, y float64) float64 { return clampUnit(f(x, y)) }

// DefaultSeed is fixed so every run produces the same terrain.
const DefaultSeed int64 = 0

// Simplex wraps OpenSimplex noise
type Simplex struct {
	n opensimplex.Noise
}

// NewSimplex creates a simplex source for a fixed seed
func NewSimplex(seed int64) *Simplex {
	return &Simplex{n: opensimplex.New(seed)}
}

func (s *Simplex) Eval2(x, y float64) float64 {
	return clampUnit(s.n.Eval2(x, y))
}

// Perlin wraps classic Perlin noise. go-perlin sums its own octaves, so the
// source is built with a single octave and FBM does the layering.
type Perlin struct {
	p *perlin.Perlin
}

// NewPerlin creates a single-octave Perlin source for a fixed seed
func NewPerlin(seed int64) *Perlin {
	return &Perlin{p: perlin.NewPerlin(2, 2, 1, seed)}
}

func (p *Perlin) Eval2(x, y float64) float64 {
	// Raw single-octave Perlin peaks near ±0.7; stretch it toward the full range.
	return clampUnit(p.p.Noise2D(x, y) * math.Sqrt2)
}

// New returns the named noise source ("simplex" or "perlin")
func New(kind string, seed int64) (Source, bool) {
	switch kind {
	case "", "simplex":
		return NewSimplex(seed), true
	case "perlin":
		return NewPerlin(seed), true
	}
	return nil, false
}

func clampUnit(v float64) float64 {
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	if math.IsNaN(v) {
		return 0
	}
	return v
}

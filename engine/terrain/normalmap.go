package terrain

import (
	"fmt"

	"github.com/1siamBot/hdr-terrain/engine/render3d"
)

// BorderPolicy decides what happens to the outermost rows and columns,
// where a central difference has no neighbor on one side.
type BorderPolicy uint8

const (
	// BorderClamp repeats the edge sample for the missing neighbor, so every
	// sample is a valid unit normal.
	BorderClamp BorderPolicy = iota
	// BorderUnset leaves border samples at the zero vector. They are never written.
	BorderUnset
)

func (b BorderPolicy) String() string {
	switch b {
	case BorderClamp:
		return "clamp"
	case BorderUnset:
		return "unset"
	}
	return fmt.Sprintf("BorderPolicy(%d)", uint8(b))
}

// ParseBorderPolicy accepts "clamp" or "unset"
func ParseBorderPolicy(s string) (BorderPolicy, error) {
	switch s {
	case "", "clamp":
		return BorderClamp, nil
	case "unset":
		return BorderUnset, nil
	}
	return BorderClamp, fmt.Errorf("unknown normal border policy %q", s)
}

// NormalGrid stores normals remapped to [0,1] per channel (n*0.5+0.5),
// aligned 1:1 with the HeightGrid it came from.
type NormalGrid struct {
	Width, Height int
	data          []render3d.Vec3
}

// At returns the stored (remapped) normal
func (g *NormalGrid) At(x, y int) render3d.Vec3 {
	return g.data[y*g.Width+x]
}

// Normal returns the unit normal in [-1,1] space
func (g *NormalGrid) Normal(x, y int) render3d.Vec3 {
	return Unpack(g.At(x, y))
}

// Floats flattens the grid as RGB float32 triples, the layout of an RGB32F texture
func (g *NormalGrid) Floats() []float32 {
	out := make([]float32, 0, len(g.data)*3)
	for _, n := range g.data {
		out = append(out, float32(n.X), float32(n.Y), float32(n.Z))
	}
	return out
}

// Pack maps a unit normal into [0,1]
func Pack(n render3d.Vec3) render3d.Vec3 {
	return n.Scale(0.5).Add(render3d.V3(0.5, 0.5, 0.5))
}

// Unpack inverts Pack
func Unpack(c render3d.Vec3) render3d.Vec3 {
	return c.Scale(2).Sub(render3d.V3(1, 1, 1))
}

// Derive computes per-sample normals by central differences
func Derive(h *HeightGrid, border BorderPolicy) *NormalGrid {
	g := &NormalGrid{Width: h.Width, Height: h.Height, data: make([]render3d.Vec3, h.Width*h.Height)}

	for y := 0; y < h.Height; y++ {
		for x := 0; x < h.Width; x++ {
			interior := x > 0 && y > 0 && x < h.Width-1 && y < h.Height-1
			if !interior && border == BorderUnset {
				continue
			}
			// At clamps, so edges fall back to one-sided differences
			heightLeft := h.At(x-1, y)
			heightRight := h.At(x+1, y)
			heightUp := h.At(x, y-1)
			heightDown := h.At(x, y+1)

			dx := heightLeft - heightRight
			dy := heightUp - heightDown

			n := render3d.V3(dx, dy, 1).Normalize()
			g.data[y*h.Width+x] = Pack(n)
		}
	}
	return g
}

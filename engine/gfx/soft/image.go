package soft

import (
	"math"

	"github.com/1siamBot/hdr-terrain/engine/gfx"
	"github.com/1siamBot/hdr-terrain/engine/render3d"
)

// rgba is a linear color with alpha. Components are unbounded.
type rgba [4]float64

func (c rgba) add(o rgba) rgba {
	return rgba{c[0] + o[0], c[1] + o[1], c[2] + o[2], c[3] + o[3]}
}

func (c rgba) scale(s float64) rgba {
	return rgba{c[0] * s, c[1] * s, c[2] * s, c[3] * s}
}

func (c rgba) rgb() render3d.Color3 { return render3d.Color3{R: c[0], G: c[1], B: c[2]} }

func opaque(c render3d.Color3) rgba { return rgba{c.R, c.G, c.B, 1} }

// Image is a float32 RGBA raster. Row 0 is v=0.
type Image struct {
	W, H     int
	Pix      []float32
	Sampling gfx.Sampling
}

// NewImage allocates a zeroed image
func NewImage(w, h int, s gfx.Sampling) *Image {
	return &Image{W: w, H: h, Pix: make([]float32, w*h*4), Sampling: s}
}

func imageFromPixels(p *gfx.Pixels, s gfx.Sampling) *Image {
	im := &Image{W: p.Width, H: p.Height, Pix: make([]float32, len(p.Pix)), Sampling: s}
	copy(im.Pix, p.Pix)
	return im
}

// At returns texel (x, y) without wrapping
func (im *Image) At(x, y int) rgba {
	i := (y*im.W + x) * 4
	return rgba{float64(im.Pix[i]), float64(im.Pix[i+1]), float64(im.Pix[i+2]), float64(im.Pix[i+3])}
}

// Set stores texel (x, y)
func (im *Image) Set(x, y int, c rgba) {
	i := (y*im.W + x) * 4
	im.Pix[i] = float32(c[0])
	im.Pix[i+1] = float32(c[1])
	im.Pix[i+2] = float32(c[2])
	im.Pix[i+3] = float32(c[3])
}

// Fill sets every texel to c
func (im *Image) Fill(c [4]float32) {
	for i := 0; i < len(im.Pix); i += 4 {
		copy(im.Pix[i:i+4], c[:])
	}
}

func (im *Image) wrap(i, n int) int {
	if im.Sampling.Wrap == gfx.WrapClamp {
		if i < 0 {
			return 0
		}
		if i >= n {
			return n - 1
		}
		return i
	}
	i %= n
	if i < 0 {
		i += n
	}
	return i
}

func (im *Image) fetch(x, y int) rgba {
	return im.At(im.wrap(x, im.W), im.wrap(y, im.H))
}

// Sample reads the image at normalized coordinates with the image's filter
// and wrap policy. Texel centers sit at (i+0.5)/size.
func (im *Image) Sample(u, v float64) rgba {
	if im.W == 0 || im.H == 0 {
		return rgba{}
	}
	if u != u || math.IsInf(u, 0) {
		u = 0
	}
	if v != v || math.IsInf(v, 0) {
		v = 0
	}
	fx := u*float64(im.W) - 0.5
	fy := v*float64(im.H) - 0.5
	if im.Sampling.Filter == gfx.FilterNearest {
		return im.fetch(int(math.Floor(fx+0.5)), int(math.Floor(fy+0.5)))
	}
	x0f, y0f := math.Floor(fx), math.Floor(fy)
	tx, ty := fx-x0f, fy-y0f
	x0, y0 := int(x0f), int(y0f)

	c00 := im.fetch(x0, y0)
	c10 := im.fetch(x0+1, y0)
	c01 := im.fetch(x0, y0+1)
	c11 := im.fetch(x0+1, y0+1)

	var out rgba
	for i := range out {
		top := c00[i] + (c10[i]-c00[i])*tx
		bottom := c01[i] + (c11[i]-c01[i])*tx
		out[i] = top + (bottom-top)*ty
	}
	return out
}

// cube is six square faces in gfx.Face* order
type cube [6]*Image

// Sample picks the face along the dominant axis of dir
func (c *cube) Sample(dir render3d.Vec3) rgba {
	ax, ay, az := math.Abs(dir.X), math.Abs(dir.Y), math.Abs(dir.Z)
	var face int
	var sc, tc, ma float64
	switch {
	case ax >= ay && ax >= az:
		ma = ax
		if dir.X > 0 {
			face, sc, tc = gfx.FaceRight, -dir.Z, -dir.Y
		} else {
			face, sc, tc = gfx.FaceLeft, dir.Z, -dir.Y
		}
	case ay >= az:
		ma = ay
		if dir.Y > 0 {
			face, sc, tc = gfx.FaceTop, dir.X, dir.Z
		} else {
			face, sc, tc = gfx.FaceBottom, dir.X, -dir.Z
		}
	default:
		ma = az
		if dir.Z > 0 {
			face, sc, tc = gfx.FaceFront, dir.X, -dir.Y
		} else {
			face, sc, tc = gfx.FaceBack, -dir.X, -dir.Y
		}
	}
	if ma == 0 || c[face] == nil {
		return rgba{}
	}
	return c[face].Sample((sc/ma+1)/2, (tc/ma+1)/2)
}

func storeFormat(c rgba, f gfx.Format) rgba {
	switch f {
	case gfx.FormatRGBA8, gfx.FormatR8:
		for i := range c {
			c[i] = math.Max(0, math.Min(1, c[i]))
		}
		if f == gfx.FormatR8 {
			c[1], c[2], c[3] = c[0], c[0], 1
		}
	case gfx.FormatRGBA16F:
		for i := range c {
			c[i] = math.Max(-maxHalf, math.Min(maxHalf, c[i]))
		}
	}
	return c
}

// maxHalf is the largest finite half-precision float
const maxHalf = 65504.0

// Package assets generates the textures the renderer falls back to when no
// file is configured: terrain diffuse maps and lens flare masks.
package assets

import (
	"image"
	"image/color"
	"math"
	"math/rand"

	"github.com/1siamBot/hdr-terrain/engine/noise"
)

// ColorFunc returns the color of pixel (x, y) of a size x size texture
type ColorFunc func(x, y int, rng *rand.Rand) color.NRGBA

// Generate renders fn into a size x size image. The same seed always gives
// the same image.
func Generate(size int, seed int64, fn ColorFunc) *image.NRGBA {
	if size < 1 {
		size = 1
	}
	rng := rand.New(rand.NewSource(seed))
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetNRGBA(x, y, fn(x, y, rng))
		}
	}
	return img
}

func clampByte(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// Rocks is a brown-grey rock surface. It tiles only approximately.
func Rocks(size int, src noise.Source) *image.NRGBA {
	return Generate(size, 4, func(x, y int, rng *rand.Rand) color.NRGBA {
		n := noise.FBM(src, float64(x)*0.04, float64(y)*0.04, 5, 2, 0.55)
		grain := rng.Float64()*18 - 9
		crack := 8.0 * math.Sin(float64(x)*0.4+float64(y)*0.6)
		v := 60 + n*110 + grain + crack
		return color.NRGBA{clampByte(v * 0.95), clampByte(v * 0.88), clampByte(v * 0.8), 255}
	})
}

// Snow is a bright, slightly blue surface with sparkle
func Snow(size int, src noise.Source) *image.NRGBA {
	return Generate(size, 8, func(x, y int, rng *rand.Rand) color.NRGBA {
		n := noise.FBM(src, float64(x)*0.02+100, float64(y)*0.02, 4, 2, 0.5)
		sparkle := 5.0 * math.Sin(float64(x*7+y*13)*0.3)
		v := 200 + n*40 + rng.Float64()*8 - 4 + sparkle
		return color.NRGBA{clampByte(v * 0.97), clampByte(v), clampByte(v * 1.04), 255}
	})
}

// ColorGradient is a radial spectrum: red at the center through to violet at
// the rim. Flare ghosts are tinted by their distance from the image center.
func ColorGradient(size int) *image.NRGBA {
	c := float64(size-1) / 2
	return Generate(size, 0, func(x, y int, _ *rand.Rand) color.NRGBA {
		d := math.Hypot(float64(x)-c, float64(y)-c) / math.Max(c, 1)
		r, g, b := hueToRGB(math.Min(d, 1) * 0.8)
		return color.NRGBA{clampByte(r * 255), clampByte(g * 255), clampByte(b * 255), 255}
	})
}

// hueToRGB maps h in [0,1] around the color wheel at full saturation
func hueToRGB(h float64) (r, g, b float64) {
	h = math.Mod(h, 1) * 6
	x := 1 - math.Abs(math.Mod(h, 2)-1)
	switch int(h) {
	case 0:
		return 1, x, 0
	case 1:
		return x, 1, 0
	case 2:
		return 0, 1, x
	case 3:
		return 0, x, 1
	case 4:
		return x, 0, 1
	}
	return 1, 0, x
}

type smudge struct {
	x, y, r, strength float64
}

// LensDirt is a dark field of soft smudges and specks
func LensDirt(size int, seed int64) *image.NRGBA {
	rng := rand.New(rand.NewSource(seed))
	spots := make([]smudge, 90)
	for i := range spots {
		big := i < 12
		r := 0.005 + rng.Float64()*0.02
		if big {
			r = 0.05 + rng.Float64()*0.1
		}
		spots[i] = smudge{x: rng.Float64(), y: rng.Float64(), r: r, strength: 0.2 + rng.Float64()*0.5}
	}
	return Generate(size, seed, func(x, y int, rng *rand.Rand) color.NRGBA {
		u := (float64(x) + 0.5) / float64(size)
		v := (float64(y) + 0.5) / float64(size)
		sum := 0.02 + rng.Float64()*0.02
		for _, s := range spots {
			d := math.Hypot(u-s.x, v-s.y) / s.r
			if d < 1 {
				sum += s.strength * (1 - d*d)
			}
		}
		l := math.Min(sum, 1) * 255
		return color.NRGBA{clampByte(l), clampByte(l * 0.97), clampByte(l * 0.92), 255}
	})
}

// Starburst is a radial streak pattern centered in the image
func Starburst(size int) *image.NRGBA {
	c := float64(size-1) / 2
	return Generate(size, 16, func(x, y int, rng *rand.Rand) color.NRGBA {
		dx, dy := float64(x)-c, float64(y)-c
		angle := math.Atan2(dy, dx)
		d := math.Hypot(dx, dy) / math.Max(c, 1)
		rays := math.Pow(math.Abs(math.Cos(angle*6)), 12) + 0.5*math.Pow(math.Abs(math.Cos(angle*17+0.3)), 24)
		falloff := math.Max(0, 1-d)
		v := (0.25 + rays) * falloff * 255 * (0.9 + rng.Float64()*0.1)
		return color.NRGBA{clampByte(v), clampByte(v), clampByte(v), 255}
	})
}

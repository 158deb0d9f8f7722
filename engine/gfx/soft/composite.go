package soft

import (
	"math"

	"github.com/1siamBot/hdr-terrain/engine/gfx"
	"github.com/1siamBot/hdr-terrain/engine/render3d"
)

// Composite inputs, in binding order
const (
	compScene = iota
	compBloom
	compBright
	compGradient
	compDirt
	compStarburst
)

const invHalfDiagonal = math.Sqrt2 // 1 / length(vec2(0.5))

func fract(v float64) float64 { return v - math.Floor(v) }

// ghostWeight fades samples toward the image edge
func ghostWeight(u, v, power float64) float64 {
	d := math.Hypot(0.5-u, 0.5-v) * invHalfDiagonal
	return math.Pow(math.Max(0, 1-d), power)
}

type flareParams struct {
	ghosts    int
	dispersal float64
	haloWidth float64
	aspect    float64
}

// lensFlare gathers ghosts and a halo from the downsampled bright pass,
// mirrored through the image center
func lensFlare(c *drawContext, u, v float64, p flareParams) render3d.Color3 {
	tu, tv := 1-u, 1-v
	gu, gv := (0.5-tu)*p.dispersal, (0.5-tv)*p.dispersal

	var res render3d.Color3
	for i := 0; i < p.ghosts; i++ {
		ou := fract(tu + gu*float64(i))
		ov := fract(tv + gv*float64(i))
		res = res.Add(c.sample(compBright, ou, ov).rgb().Scale(ghostWeight(ou, ov, 10)))
	}
	radial := math.Hypot(0.5-tu, 0.5-tv) * invHalfDiagonal
	res = res.Mul(c.sample(compGradient, 0.5+radial*0.5, 0.5).rgb())

	hu, hv := gu*p.aspect, gv
	if l := math.Hypot(hu, hv); l > 0 {
		hu, hv = hu/l*p.haloWidth/p.aspect, hv/l*p.haloWidth
		su, sv := fract(tu+hu), fract(tv+hv)
		res = res.Add(c.sample(compBright, su, sv).rgb().Scale(ghostWeight(su, sv, 5)))
	}
	return res
}

// lensMod is the dirt mask plus the starburst rotated by offset radians.
// The starburst stays circular on non-square displays.
func lensMod(c *drawContext, u, v, offset, aspect float64) render3d.Color3 {
	dirt := c.sample(compDirt, u, v).rgb()
	x, y := (u-0.5)*aspect, v-0.5
	cs, sn := math.Cos(offset), math.Sin(offset)
	su := x*cs - y*sn + 0.5
	sv := x*sn + y*cs + 0.5
	return dirt.Add(c.sample(compStarburst, su, sv).rgb())
}

func compositeKernel(u *gfx.UniformTable) shader {
	exposure := u.Lookup("exposure", gfx.UniformFloat)
	gamma := u.Lookup("gamma", gfx.UniformFloat)
	bloomStrength := u.Lookup("bloomStrength", gfx.UniformFloat)
	flareStrength := u.Lookup("flareStrength", gfx.UniformFloat)
	ghosts := u.Lookup("ghosts", gfx.UniformInt)
	dispersal := u.Lookup("ghostDispersal", gfx.UniformFloat)
	halo := u.Lookup("haloWidth", gfx.UniformFloat)
	offset := u.Lookup("starburstOffset", gfx.UniformFloat)
	aspect := u.Lookup("aspectRatio", gfx.UniformFloat)

	return func(c *drawContext, f *fragment) {
		hdr := c.sample(compScene, f.u, f.v).rgb()
		hdr = hdr.Add(c.sample(compBloom, f.u, f.v).rgb().Scale(float64(u.Float(bloomStrength))))

		if fs := float64(u.Float(flareStrength)); fs > 0 && c.bound(compBright) {
			a := float64(u.Float(aspect))
			if a <= 0 {
				a = 1
			}
			flare := lensFlare(c, f.u, f.v, flareParams{
				ghosts:    u.Int(ghosts),
				dispersal: float64(u.Float(dispersal)),
				haloWidth: float64(u.Float(halo)),
				aspect:    a,
			})
			mod := lensMod(c, f.u, f.v, float64(u.Float(offset)), a)
			hdr = hdr.Add(flare.Mul(mod).Scale(fs))
		}
		f.out[0] = opaque(render3d.Tonemap(hdr, float64(u.Float(exposure)), float64(u.Float(gamma))))
	}
}

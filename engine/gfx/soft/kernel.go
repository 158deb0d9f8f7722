package soft

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/1siamBot/hdr-terrain/engine/gfx"
	"github.com/1siamBot/hdr-terrain/engine/render3d"
)

// drawContext is what a kernel sees of the draw it runs in
type drawContext struct {
	w, h   int
	inputs []*texture
}

// sample reads input i; unbound or cube inputs read as transparent black
func (c *drawContext) sample(i int, u, v float64) rgba {
	if i >= len(c.inputs) || c.inputs[i] == nil || c.inputs[i].img == nil {
		return rgba{}
	}
	return c.inputs[i].img.Sample(u, v)
}

func (c *drawContext) sampleCube(i int, dir render3d.Vec3) (rgba, bool) {
	if i >= len(c.inputs) || c.inputs[i] == nil || c.inputs[i].faces == nil {
		return rgba{}, false
	}
	return c.inputs[i].faces.Sample(dir), true
}

func (c *drawContext) bound(i int) bool {
	return i < len(c.inputs) && c.inputs[i] != nil
}

// texel is the size of one texel of input i in normalized coordinates
func (c *drawContext) texel(i int) (float64, float64) {
	if !c.bound(i) {
		return 1 / float64(c.w), 1 / float64(c.h)
	}
	w, h := c.inputs[i].Size()
	return 1 / float64(w), 1 / float64(h)
}

// fragment is one pixel being shaded
type fragment struct {
	x, y       int
	u, v       float64 // texture space of the output, v grows downward
	ndcX, ndcY float64 // clip space, y up
	out        [maxAttachments]rgba
	depth      float64 // [0,1], smaller is nearer
	discard    bool
}

func (f *fragment) reset(x, y, w, h int) {
	f.x, f.y = x, y
	f.u = (float64(x) + 0.5) / float64(w)
	f.v = (float64(y) + 0.5) / float64(h)
	f.ndcX = f.u*2 - 1
	f.ndcY = 1 - f.v*2
	f.out = [maxAttachments]rgba{}
	f.depth = 1
	f.discard = false
}

// shader shades one fragment. It must only read shared state.
type shader func(c *drawContext, f *fragment)

// kernel resolves a program's uniform handles once and returns its shader
type kernel func(u *gfx.UniformTable) shader

var kernels = map[string]kernel{
	"scene.sky":     skyKernel,
	"scene.sun":     sunKernel,
	"scene.terrain": terrainKernel,
	"downsample":    downsampleKernel,
	"blur":          blurKernel,
	"composite":     compositeKernel,
}

// Programs lists the kernel names this device can compile
func Programs() []string {
	names := make([]string, 0, len(kernels))
	for n := range kernels {
		names = append(names, n)
	}
	return names
}

func vec3(v mgl32.Vec3) render3d.Vec3 { return render3d.FromMgl(v) }

func color3(v mgl32.Vec3) render3d.Color3 {
	return render3d.Color3{R: float64(v[0]), G: float64(v[1]), B: float64(v[2])}
}

// clipDepth maps a world point to window depth in [0,1]
func clipDepth(viewProj mgl32.Mat4, p render3d.Vec3) float64 {
	clip := viewProj.Mul4x1(mgl32.Vec4{float32(p.X), float32(p.Y), float32(p.Z), 1})
	if clip[3] <= 0 {
		return math.Inf(1)
	}
	return (float64(clip[2]/clip[3]) + 1) / 2
}

func skyKernel(u *gfx.UniformTable) shader {
	invVP := u.Lookup("invViewProj", gfx.UniformMat4)
	useSkybox := u.Lookup("useSkybox", gfx.UniformBool)
	zenith := u.Lookup("skyZenith", gfx.UniformVec3)
	horizon := u.Lookup("skyHorizon", gfx.UniformVec3)
	ground := u.Lookup("skyGround", gfx.UniformVec3)

	return func(c *drawContext, f *fragment) {
		_, dir := render3d.UnprojectRay(u.Mat4(invVP), f.ndcX, f.ndcY)
		f.out[1] = rgba{0, 0, 0, 1}
		if u.Bool(useSkybox) {
			if s, ok := c.sampleCube(0, dir); ok {
				f.out[0] = rgba{s[0], s[1], s[2], 1}
				return
			}
		}
		sky := render3d.SkyGradient{
			Zenith:  color3(u.Vec3(zenith)),
			Horizon: color3(u.Vec3(horizon)),
			Ground:  color3(u.Vec3(ground)),
		}
		f.out[0] = opaque(sky.Sample(dir))
	}
}

// raySphere returns the nearest positive hit distance
func raySphere(o, d, center render3d.Vec3, r float64) (float64, bool) {
	oc := o.Sub(center)
	b := oc.Dot(d)
	c := oc.Dot(oc) - r*r
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	s := math.Sqrt(disc)
	t := -b - s
	if t < 0 {
		t = -b + s
	}
	return t, t >= 0
}

func sunKernel(u *gfx.UniformTable) shader {
	invVP := u.Lookup("invViewProj", gfx.UniformMat4)
	viewProj := u.Lookup("viewProj", gfx.UniformMat4)
	viewPos := u.Lookup("viewPos", gfx.UniformVec3)
	lightPos := u.Lookup("lightPos", gfx.UniformVec3)
	radius := u.Lookup("sunRadius", gfx.UniformFloat)
	glow := u.Lookup("glowColor", gfx.UniformVec3)
	fogDensity := u.Lookup("fogDensity", gfx.UniformFloat)
	fogColor := u.Lookup("fogColor", gfx.UniformVec3)

	return func(c *drawContext, f *fragment) {
		eye := vec3(u.Vec3(viewPos))
		_, dir := render3d.UnprojectRay(u.Mat4(invVP), f.ndcX, f.ndcY)
		center := vec3(u.Vec3(lightPos))
		t, hit := raySphere(eye, dir, center, float64(u.Float(radius)))
		if !hit {
			f.discard = true
			return
		}
		p := eye.Add(dir.Scale(t))
		glowColor := color3(u.Vec3(glow))
		fog := render3d.Fog{Density: float64(u.Float(fogDensity)), Color: color3(u.Vec3(fogColor))}

		f.out[0] = opaque(fog.Apply(glowColor, t))
		f.out[1] = opaque(glowColor)
		f.depth = clipDepth(u.Mat4(viewProj), p)
	}
}

const (
	marchSteps  = 96
	refineSteps = 6
	// brightThreshold is the luminance above which terrain shading counts as
	// a light source for bloom
	brightThreshold = 1.0
)

// rayBox clips a ray to an axis-aligned box
func rayBox(o, d, lo, hi render3d.Vec3) (tNear, tFar float64, ok bool) {
	tNear, tFar = math.Inf(-1), math.Inf(1)
	for _, ax := range [3][4]float64{
		{o.X, d.X, lo.X, hi.X},
		{o.Y, d.Y, lo.Y, hi.Y},
		{o.Z, d.Z, lo.Z, hi.Z},
	} {
		if math.Abs(ax[1]) < 1e-12 {
			if ax[0] < ax[2] || ax[0] > ax[3] {
				return 0, 0, false
			}
			continue
		}
		t1 := (ax[2] - ax[0]) / ax[1]
		t2 := (ax[3] - ax[0]) / ax[1]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tNear = math.Max(tNear, t1)
		tFar = math.Min(tFar, t2)
	}
	if tFar < math.Max(tNear, 0) {
		return 0, 0, false
	}
	return math.Max(tNear, 0), tFar, true
}

// Terrain inputs, in binding order
const (
	terrainRocks = iota
	terrainSnow
	terrainNormal
	terrainHeight
)

func terrainKernel(u *gfx.UniformTable) shader {
	invVP := u.Lookup("invViewProj", gfx.UniformMat4)
	viewProj := u.Lookup("viewProj", gfx.UniformMat4)
	viewPos := u.Lookup("viewPos", gfx.UniformVec3)
	lightPos := u.Lookup("lightPos", gfx.UniformVec3)
	ambient := u.Lookup("lightAmbient", gfx.UniformVec3)
	diffuse := u.Lookup("lightDiffuse", gfx.UniformVec3)
	specular := u.Lookup("lightSpecular", gfx.UniformVec3)
	size := u.Lookup("terrainSize", gfx.UniformFloat)
	height := u.Lookup("terrainHeight", gfx.UniformFloat)
	tiling := u.Lookup("textureTiling", gfx.UniformFloat)
	snow := u.Lookup("snowThreshold", gfx.UniformFloat)
	strength := u.Lookup("normalStrength", gfx.UniformFloat)
	fogDensity := u.Lookup("fogDensity", gfx.UniformFloat)
	fogColor := u.Lookup("fogColor", gfx.UniformVec3)
	mat := render3d.DefaultMaterial()

	return func(c *drawContext, f *fragment) {
		s := float64(u.Float(size))
		hMax := float64(u.Float(height))
		eye := vec3(u.Vec3(viewPos))
		_, dir := render3d.UnprojectRay(u.Mat4(invVP), f.ndcX, f.ndcY)

		t0, t1, ok := rayBox(eye, dir, render3d.V3(-s, 0, -s), render3d.V3(s, hMax, s))
		if !ok || s <= 0 {
			f.discard = true
			return
		}
		uvAt := func(p render3d.Vec3) (float64, float64) {
			return (p.X/s + 1) / 2, (p.Z/s + 1) / 2
		}
		below := func(t float64) bool {
			p := eye.Add(dir.Scale(t))
			tu, tv := uvAt(p)
			return p.Y <= c.sample(terrainHeight, tu, tv)[0]*hMax
		}

		step := (t1 - t0) / marchSteps
		prev, hitT, hit := t0, 0.0, false
		for i := 0; i <= marchSteps; i++ {
			t := t0 + float64(i)*step
			if below(t) {
				hitT, hit = t, true
				break
			}
			prev = t
		}
		if !hit {
			f.discard = true
			return
		}
		lo, hi := prev, hitT
		for i := 0; i < refineSteps; i++ {
			mid := (lo + hi) / 2
			if below(mid) {
				hi = mid
			} else {
				lo = mid
			}
		}
		p := eye.Add(dir.Scale(hi))
		tu, tv := uvAt(p)

		// Normal map is tangent space: x along +X, y along rows (+Z), z up
		packed := c.sample(terrainNormal, tu, tv)
		k := float64(u.Float(strength))
		n := render3d.V3((packed[0]*2-1)*k, packed[2]*2-1, (packed[1]*2-1)*k).Normalize()

		tile := float64(u.Float(tiling))
		h := c.sample(terrainHeight, tu, tv)[0]
		snowMix := render3d.Smoothstep(float64(u.Float(snow))-0.03, float64(u.Float(snow))+0.03, h)
		rock := c.sample(terrainRocks, tu*tile, tv*tile).rgb()
		base := rock.Lerp(c.sample(terrainSnow, tu*tile, tv*tile).rgb(), snowMix)

		light := render3d.PointLight{
			Position: vec3(u.Vec3(lightPos)),
			Ambient:  color3(u.Vec3(ambient)),
			Diffuse:  color3(u.Vec3(diffuse)),
			Specular: color3(u.Vec3(specular)),
		}
		lit := light.BlinnPhong(p, n, eye, base, mat)
		fog := render3d.Fog{Density: float64(u.Float(fogDensity)), Color: color3(u.Vec3(fogColor))}
		col := fog.Apply(lit, hi)

		f.out[0] = opaque(col)
		if col.Luminance() > brightThreshold {
			f.out[1] = opaque(col)
		} else {
			f.out[1] = rgba{0, 0, 0, 1}
		}
		f.depth = clipDepth(u.Mat4(viewProj), p)
	}
}

// downsampleKernel averages a 4x4 source block with four bilinear taps
func downsampleKernel(u *gfx.UniformTable) shader {
	return func(c *drawContext, f *fragment) {
		du := 0.25 / float64(c.w)
		dv := 0.25 / float64(c.h)
		sum := c.sample(0, f.u-du, f.v-dv).
			add(c.sample(0, f.u+du, f.v-dv)).
			add(c.sample(0, f.u-du, f.v+dv)).
			add(c.sample(0, f.u+du, f.v+dv))
		f.out[0] = sum.scale(0.25)
	}
}

// BlurWeights are the one-sided 9-tap Gaussian weights
var BlurWeights = [5]float64{0.227027, 0.1945946, 0.1216216, 0.054054, 0.016216}

func blurKernel(u *gfx.UniformTable) shader {
	horizontal := u.Lookup("horizontal", gfx.UniformBool)
	return func(c *drawContext, f *fragment) {
		tw, th := c.texel(0)
		du, dv := 0.0, th
		if u.Bool(horizontal) {
			du, dv = tw, 0
		}
		sum := c.sample(0, f.u, f.v).scale(BlurWeights[0])
		for i := 1; i < len(BlurWeights); i++ {
			o := float64(i)
			sum = sum.add(c.sample(0, f.u+du*o, f.v+dv*o).scale(BlurWeights[i]))
			sum = sum.add(c.sample(0, f.u-du*o, f.v-dv*o).scale(BlurWeights[i]))
		}
		f.out[0] = sum
	}
}

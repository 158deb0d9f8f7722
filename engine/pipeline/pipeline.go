// Package pipeline runs the per-frame pass sequence: scene, bright-pass
// downsample, ping-pong bloom blur and composite/tonemap.
package pipeline

import (
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/1siamBot/hdr-terrain/engine/assets"
	"github.com/1siamBot/hdr-terrain/engine/frame"
	"github.com/1siamBot/hdr-terrain/engine/gfx"
	"github.com/1siamBot/hdr-terrain/engine/noise"
	"github.com/1siamBot/hdr-terrain/engine/terrain"
)

// MaxBloomIterations bounds runtime tuning
const MaxBloomIterations = 500

// Inputs are the CPU-side terrain grids uploaded at startup
type Inputs struct {
	Height *terrain.HeightGrid
	Normal *terrain.NormalGrid
}

// Pipeline owns the render targets, static textures and programs of one run.
// Failures during setup are logged and the pipeline runs with whatever was
// created; RenderFrame skips stages whose program or target is missing.
type Pipeline struct {
	dev    gfx.Device
	opts   Options
	logger *log.Logger

	scene      gfx.Target
	downsample gfx.Target
	pingpong   [2]gfx.Target
	static     map[Resource]gfx.Texture
	programs   map[string]gfx.Program
	u          uniformSet

	stages []Stage

	mu     sync.Mutex
	warned map[string]bool
}

// New allocates every target, uploads static textures, compiles programs and
// resolves uniform handles. It never fails; problems go to logger.
func New(dev gfx.Device, opts Options, in Inputs, logger *log.Logger) *Pipeline {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	p := &Pipeline{
		dev:      dev,
		opts:     opts,
		logger:   logger,
		static:   make(map[Resource]gfx.Texture),
		programs: make(map[string]gfx.Program),
		warned:   make(map[string]bool),
	}
	p.createTargets()
	p.loadTextures(in)
	p.compilePrograms()
	p.resolveUniforms()
	p.SetBloomIterations(opts.Bloom.Iterations)
	return p
}

func (p *Pipeline) newTarget(spec gfx.TargetSpec) gfx.Target {
	t, err := p.dev.NewTarget(spec)
	if err != nil {
		p.logger.Printf("target %s: %v", spec.Label, err)
		return nil
	}
	if err := t.Status(); err != nil {
		p.logger.Printf("target %s: %v", spec.Label, err)
	}
	return t
}

func (p *Pipeline) createTargets() {
	clamp := gfx.Sampling{Filter: gfx.FilterLinear, Wrap: gfx.WrapClamp}
	p.scene = p.newTarget(gfx.TargetSpec{
		Label: "scene", Width: p.opts.Width, Height: p.opts.Height,
		Format: gfx.FormatRGBA16F, Attachments: 2, Depth: true, Sampling: clamp,
	})
	dw, dh := p.opts.downsampleSize()
	p.downsample = p.newTarget(gfx.TargetSpec{
		Label: "downsample", Width: dw, Height: dh, Format: gfx.FormatRGBA16F, Sampling: clamp,
	})
	// Clamped, so the blur never pulls in texels from the opposite edge
	for i := range p.pingpong {
		p.pingpong[i] = p.newTarget(gfx.TargetSpec{
			Label: fmt.Sprintf("pingpong%d", i), Width: dw, Height: dh, Format: gfx.FormatRGBA16F, Sampling: clamp,
		})
	}
}

func (p *Pipeline) load(r Resource, src gfx.TextureSource) bool {
	tex, err := p.dev.LoadTexture(src)
	if err != nil {
		p.logger.Printf("texture %s: %v", r, err)
		return false
	}
	p.static[r] = tex
	return true
}

// textureNoise is the source behind the procedural rock and snow textures
func (p *Pipeline) textureNoise() noise.Source {
	src, ok := noise.New(p.opts.Noise, p.opts.NoiseSeed)
	if !ok {
		p.logger.Printf("noise %q unknown, using simplex", p.opts.Noise)
		return noise.NewSimplex(p.opts.NoiseSeed)
	}
	return src
}

func (p *Pipeline) loadTextures(in Inputs) {
	if in.Height != nil {
		p.load(Height, gfx.FromHeightmap{Grid: in.Height})
	} else {
		p.logger.Printf("texture %s: no height grid", Height)
	}
	if in.Normal != nil {
		p.load(Normal, gfx.FromNormalMap{Grid: in.Normal})
	} else {
		p.logger.Printf("texture %s: no normal grid", Normal)
	}

	a := p.opts.Assets
	repeat := gfx.Sampling{Filter: gfx.FilterLinear, Wrap: gfx.WrapRepeat}
	clamp := gfx.Sampling{Filter: gfx.FilterLinear, Wrap: gfx.WrapClamp}
	src := p.textureNoise()
	size := a.ProceduralRes
	if size <= 0 {
		size = 256
	}

	fileOr := func(r Resource, path string, s gfx.Sampling, gen func() gfx.TextureSource) {
		if path != "" && p.load(r, gfx.FromFile{Path: path, Sampling: s, MaxSize: a.MaxSize}) {
			return
		}
		p.load(r, gen())
	}
	fileOr(Rocks, a.Rocks, repeat, func() gfx.TextureSource {
		return gfx.FromImage("rocks", assets.Rocks(size, src), repeat)
	})
	fileOr(Snow, a.Snow, repeat, func() gfx.TextureSource {
		return gfx.FromImage("snow", assets.Snow(size, src), repeat)
	})
	fileOr(ColorGradient, a.ColorGradient, clamp, func() gfx.TextureSource {
		return gfx.FromImage("colorGradient", assets.ColorGradient(size), clamp)
	})
	fileOr(LensDirt, a.LensDirt, clamp, func() gfx.TextureSource {
		return gfx.FromImage("lensDirt", assets.LensDirt(size, p.opts.NoiseSeed), clamp)
	})
	fileOr(Starburst, a.Starburst, clamp, func() gfx.TextureSource {
		return gfx.FromImage("starBurst", assets.Starburst(size), clamp)
	})

	if a.Skybox != ([6]string{}) {
		// Without a cubemap the sky program falls back to its gradient
		p.load(Skybox, gfx.FromCubemapFaces{Faces: a.Skybox})
	}
}

func (p *Pipeline) compilePrograms() {
	for _, spec := range ProgramSpecs() {
		prog, err := p.dev.CompileProgram(spec)
		if err != nil {
			p.logger.Printf("program %s: %v", spec.Name, err)
			continue
		}
		p.programs[spec.Name] = prog
	}
}

func (p *Pipeline) table(name string) *gfx.UniformTable {
	if prog := p.programs[name]; prog != nil {
		return prog.Uniforms()
	}
	return nil
}

// SetBloomIterations re-plans the frame with n blur iterations, clamped to
// [1, MaxBloomIterations]
func (p *Pipeline) SetBloomIterations(n int) {
	n = max(1, min(MaxBloomIterations, n))
	stages := Plan(n)
	if err := Validate(stages); err != nil {
		// Plan is fixed code; a failure here is a programming error
		panic(fmt.Sprintf("pipeline: invalid plan: %v", err))
	}
	p.opts.Bloom.Iterations = n
	p.stages = stages
}

// BloomIterations is the current blur iteration count
func (p *Pipeline) BloomIterations() int { return p.opts.Bloom.Iterations }

// Stages returns the current frame plan
func (p *Pipeline) Stages() []Stage { return p.stages }

// Options returns the options in effect
func (p *Pipeline) Options() Options { return p.opts }

// NamedTexture pairs a texture with the resource it holds
type NamedTexture struct {
	Resource Resource
	Texture  gfx.Texture
}

// Intermediates returns the rendered targets in pass order, for debug views.
// Targets that failed to allocate are left out.
func (p *Pipeline) Intermediates() []NamedTexture {
	var out []NamedTexture
	for _, r := range []Resource{SceneColor, SceneBright, Downsample, PingB, PingA} {
		if t := p.texture(r); t != nil {
			out = append(out, NamedTexture{Resource: r, Texture: t})
		}
	}
	return out
}

// texture maps a resource to what a stage samples
func (p *Pipeline) texture(r Resource) gfx.Texture {
	attachment := func(t gfx.Target, i int) gfx.Texture {
		if t == nil || i >= t.Attachments() {
			return nil
		}
		return t.Attachment(i)
	}
	switch r {
	case SceneColor:
		return attachment(p.scene, 0)
	case SceneBright:
		return attachment(p.scene, 1)
	case Downsample:
		return attachment(p.downsample, 0)
	case PingA:
		return attachment(p.pingpong[0], 0)
	case PingB:
		return attachment(p.pingpong[1], 0)
	}
	return p.static[r]
}

// target maps a stage's outputs to the target it draws into. ok is false
// when the target does not exist.
func (p *Pipeline) target(outs []Resource) (t gfx.Target, ok bool) {
	switch outs[0] {
	case SceneColor, SceneBright:
		t = p.scene
	case Downsample:
		t = p.downsample
	case PingA:
		t = p.pingpong[0]
	case PingB:
		t = p.pingpong[1]
	case Display:
		return nil, true
	}
	return t, t != nil
}

// warnOnce logs a per-frame problem the first time it happens
func (p *Pipeline) warnOnce(key, format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.warned[key] {
		return
	}
	p.warned[key] = true
	p.logger.Printf(format, args...)
}

// RenderFrame uploads the frame's uniforms and issues every stage in order.
// Each draw completes before the next is issued.
func (p *Pipeline) RenderFrame(fc *frame.Context) {
	p.upload(fc)
	for _, s := range p.stages {
		prog := p.programs[s.Program]
		if prog == nil {
			p.warnOnce("program:"+s.Program, "stage %s skipped: program %s unavailable", s.Name, s.Program)
			continue
		}
		out, ok := p.target(s.Outputs)
		if !ok {
			p.warnOnce("target:"+s.Name, "stage %s skipped: no target for %s", s.Name, s.Outputs[0])
			continue
		}
		inputs := make([]gfx.Texture, len(s.Inputs))
		for i, r := range s.Inputs {
			inputs[i] = p.texture(r)
		}
		if s.Program == ProgramBlur {
			prog.Uniforms().SetBool(p.u.blur.horizontal, s.Horizontal)
		}
		err := p.dev.Draw(gfx.DrawCall{
			Pass:       s.Name,
			Program:    prog,
			Mesh:       s.Mesh,
			Inputs:     inputs,
			Output:     out,
			Clear:      s.Clear,
			ClearColor: [4]float32{0, 0, 0, 1},
			Depth:      s.Depth,
		})
		if err != nil {
			p.warnOnce("draw:"+s.Name, "stage %s: %v", s.Name, err)
		}
	}
}

func (p *Pipeline) upload(fc *frame.Context) {
	cam := fc.Camera
	invVP, viewProj := cam.InvViewProj(), cam.ViewProj()
	eye := cam.Pos.Mgl()
	light := fc.Light
	o := p.opts

	setCamera := func(t *gfx.UniformTable, c cameraUniforms) {
		t.SetMat4(c.invViewProj, invVP)
		t.SetMat4(c.viewProj, viewProj)
		t.SetVec3(c.viewPos, eye)
	}

	if t := p.table(ProgramSky); t != nil {
		u := p.u.sky
		t.SetMat4(u.invViewProj, invVP)
		t.SetBool(u.useSkybox, p.static[Skybox] != nil)
		t.SetVec3(u.zenith, o.Sky.Zenith.Mgl())
		t.SetVec3(u.horizon, o.Sky.Horizon.Mgl())
		t.SetVec3(u.ground, o.Sky.Ground.Mgl())
	}
	if t := p.table(ProgramSun); t != nil {
		u := p.u.sun
		setCamera(t, u.cam)
		t.SetVec3(u.lightPos, light.Position.Mgl())
		t.SetVec3(u.glow, light.Diffuse.Mgl())
		t.SetFloat(u.radius, float32(o.Shading.SunProxyScale))
		t.SetFloat(u.fogDensity, float32(o.Fog.Density))
		t.SetVec3(u.fogColor, o.Fog.Color.Mgl())
	}
	if t := p.table(ProgramTerrain); t != nil {
		u := p.u.terrain
		setCamera(t, u.cam)
		t.SetVec3(u.lightPos, light.Position.Mgl())
		t.SetVec3(u.ambient, light.Ambient.Mgl())
		t.SetVec3(u.diffuse, light.Diffuse.Mgl())
		t.SetVec3(u.specular, light.Specular.Mgl())
		t.SetFloat(u.size, float32(o.Shading.WorldScale))
		t.SetFloat(u.height, float32(o.Shading.TerrainHeight()))
		t.SetFloat(u.tiling, float32(o.Shading.TextureTiling))
		t.SetFloat(u.snow, float32(o.Shading.SnowThreshold))
		t.SetFloat(u.normalScale, float32(o.Shading.NormalStrength))
		t.SetFloat(u.fogDensity, float32(o.Fog.Density))
		t.SetVec3(u.fogColor, o.Fog.Color.Mgl())
		t.SetFloat(u.sunRadius, float32(o.Shading.SunProxyScale))
	}
	if t := p.table(ProgramComposite); t != nil {
		u := p.u.composite
		t.SetFloat(u.exposure, float32(fc.Sun.Exposure))
		t.SetFloat(u.gamma, float32(o.Shading.Gamma))
		t.SetFloat(u.bloomStrength, float32(o.Bloom.Strength))
		t.SetFloat(u.flareStrength, float32(o.Flare.Strength))
		t.SetInt(u.ghosts, o.Flare.Ghosts)
		t.SetFloat(u.dispersal, float32(o.Flare.GhostDispersal))
		t.SetFloat(u.haloWidth, float32(o.Flare.HaloWidth))
		t.SetFloat(u.starburstOffset, float32(fc.Time*o.Flare.StarburstSpeed))
		t.SetFloat(u.aspectRatio, float32(fc.Viewport.Aspect()))
	}
}

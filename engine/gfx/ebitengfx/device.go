// Package ebitengfx implements gfx.Device on ebiten. Programs are Kage
// shaders. Ebiten images hold 8 bits per channel, so float targets store
// sqrt(value/HDRRange) and every shader decodes on read.
package ebitengfx

import (
	"embed"
	"fmt"
	"image"
	"image/color"
	"io"
	"io/fs"
	"log"
	"math"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/1siamBot/hdr-terrain/engine/gfx"
)

//go:embed shaders/*.kage
var embedded embed.FS

const (
	// DefaultHDRRange is the largest value a float target can hold
	DefaultHDRRange = 16.0
	maxImages       = 4
	maxAttachments  = 4
)

// Options configures a Device
type Options struct {
	ShaderDir string // read .kage files from here instead of the built-in set
	HDRRange  float64
	Logger    *log.Logger
}

// Device draws into ebiten images
type Device struct {
	width, height int
	display       *ebiten.Image
	shaders       fs.FS
	hdrRange      float64
	logger        *log.Logger

	staging map[stageKey]*ebiten.Image
	scratch map[string]*ebiten.Image
}

var _ gfx.Device = (*Device)(nil)

// New creates a device whose display is w x h until the first BeginFrame
func New(w, h int, opts Options) *Device {
	d := &Device{
		width:    max(1, w),
		height:   max(1, h),
		hdrRange: opts.HDRRange,
		logger:   opts.Logger,
		staging:  make(map[stageKey]*ebiten.Image),
		scratch:  make(map[string]*ebiten.Image),
	}
	if d.hdrRange <= 0 {
		d.hdrRange = DefaultHDRRange
	}
	if d.logger == nil {
		d.logger = log.New(io.Discard, "", 0)
	}
	if opts.ShaderDir != "" {
		d.shaders = os.DirFS(opts.ShaderDir)
	} else {
		sub, err := fs.Sub(embedded, "shaders")
		if err != nil {
			panic(err)
		}
		d.shaders = sub
	}
	return d
}

// BeginFrame sets the image draws with a nil output go to
func (d *Device) BeginFrame(screen *ebiten.Image) {
	d.display = screen
	if screen != nil {
		b := screen.Bounds()
		d.width, d.height = b.Dx(), b.Dy()
	}
}

func (d *Device) DisplaySize() (int, int) { return d.width, d.height }

// HDRRange is the encoding range of float targets
func (d *Device) HDRRange() float64 { return d.hdrRange }

// Image returns the ebiten image behind a texture or attachment. Float
// targets hold encoded values.
func (d *Device) Image(t gfx.Texture) (*ebiten.Image, bool) {
	tex, ok := t.(*texture)
	if !ok || tex == nil {
		return nil, false
	}
	return tex.img, true
}

type texture struct {
	label    string
	format   gfx.Format
	sampling gfx.Sampling
	img      *ebiten.Image
	encoded  bool // float render target, stored with encodeHDR
	static   bool // contents never change after load
}

func (t *texture) Label() string      { return t.label }
func (t *texture) Format() gfx.Format { return t.format }
func (t *texture) Size() (int, int) {
	b := t.img.Bounds()
	return b.Dx(), b.Dy()
}

func (d *Device) LoadTexture(src gfx.TextureSource) (gfx.Texture, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	ps, ok := src.(gfx.PlanarSource)
	if !ok {
		// Kage has no cube samplers
		return nil, fmt.Errorf("ebitengfx: texture source %T: %w", src, gfx.ErrUnsupported)
	}
	p, err := ps.Pixels()
	if err != nil {
		return nil, err
	}
	return &texture{
		label:    ps.Label(),
		format:   p.Format,
		sampling: ps.Policy(),
		img:      ebiten.NewImageFromImage(p.Image()),
		static:   true,
	}, nil
}

type target struct {
	spec   gfx.TargetSpec
	color  []*texture
	status error
}

func (t *target) Label() string      { return t.spec.Label }
func (t *target) Size() (int, int)   { return t.spec.Width, t.spec.Height }
func (t *target) Format() gfx.Format { return t.spec.Format }
func (t *target) Attachments() int   { return len(t.color) }
func (t *target) HasDepth() bool     { return t.spec.Depth }
func (t *target) Status() error      { return t.status }
func (t *target) Attachment(i int) gfx.Texture {
	if i < 0 || i >= len(t.color) {
		return nil
	}
	return t.color[i]
}

// NewTarget allocates one image per attachment. Depth is accepted but not
// allocated; scene shaders resolve occlusion analytically.
func (d *Device) NewTarget(spec gfx.TargetSpec) (gfx.Target, error) {
	t := &target{spec: spec}
	n := spec.ColorAttachments()
	switch {
	case spec.Width <= 0 || spec.Height <= 0:
		t.status = fmt.Errorf("%w: %s has size %dx%d", gfx.ErrIncompleteTarget, spec.Label, spec.Width, spec.Height)
		return t, nil
	case n > maxAttachments:
		t.status = fmt.Errorf("%w: %s wants %d attachments, max %d", gfx.ErrIncompleteTarget, spec.Label, n, maxAttachments)
		return t, nil
	case spec.Format == gfx.FormatRGB32F:
		return nil, fmt.Errorf("ebitengfx: target format %v: %w", spec.Format, gfx.ErrUnsupported)
	}
	for i := 0; i < n; i++ {
		img := ebiten.NewImageWithOptions(image.Rect(0, 0, spec.Width, spec.Height), &ebiten.NewImageOptions{Unmanaged: true})
		t.color = append(t.color, &texture{
			label:    fmt.Sprintf("%s[%d]", spec.Label, i),
			format:   spec.Format,
			sampling: spec.Sampling,
			img:      img,
			encoded:  spec.Format.Float(),
		})
	}
	return t, nil
}

type program struct {
	name     string
	uniforms *gfx.UniformTable
	shader   *ebiten.Shader
	inputs   []int
	pre      *program
}

func (p *program) Name() string                { return p.name }
func (p *program) Uniforms() *gfx.UniformTable { return p.uniforms }

func (d *Device) CompileProgram(spec gfx.ProgramSpec) (gfx.Program, error) {
	l, ok := layouts[spec.Name]
	if !ok {
		return nil, fmt.Errorf("ebitengfx: compile %q: %w", spec.Name, gfx.ErrUnknownProgram)
	}
	table := gfx.NewUniformTable(spec.Name, spec.Uniforms, d.logger)
	return d.build(spec.Name, l, table)
}

func (d *Device) build(name string, l layout, table *gfx.UniformTable) (*program, error) {
	src, err := d.source(l.file)
	if err != nil {
		return nil, fmt.Errorf("ebitengfx: compile %q: %w", name, err)
	}
	sh, err := ebiten.NewShader(src)
	if err != nil {
		return nil, fmt.Errorf("ebitengfx: compile %q (%s): %w", name, l.file, err)
	}
	p := &program{name: name, uniforms: table, shader: sh, inputs: l.inputs}
	if l.pre != nil {
		if p.pre, err = d.build(name+".pre", *l.pre, table); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// source joins the Kage header, the shared prelude and one program body
func (d *Device) source(file string) ([]byte, error) {
	prelude, err := fs.ReadFile(d.shaders, "prelude.kage")
	if err != nil {
		return nil, err
	}
	body, err := fs.ReadFile(d.shaders, file)
	if err != nil {
		return nil, err
	}
	return assemble(prelude, body), nil
}

func assemble(prelude, body []byte) []byte {
	out := []byte("//kage:unit pixels\n\npackage main\n\n")
	out = append(out, prelude...)
	out = append(out, '\n')
	return append(out, body...)
}

// Draw issues one shader draw per color attachment. Ebiten queues commands
// in order, so later draws see the results of earlier ones.
func (d *Device) Draw(call gfx.DrawCall) error {
	prog, ok := call.Program.(*program)
	if !ok || prog == nil {
		return fmt.Errorf("ebitengfx: %s: program %v not compiled by this device", call.Pass, call.Program)
	}

	var outs []*texture
	if call.Output == nil {
		if d.display == nil {
			return fmt.Errorf("ebitengfx: %s: no display image, call BeginFrame first", call.Pass)
		}
		outs = []*texture{{label: "display", format: gfx.FormatRGBA8, img: d.display}}
	} else {
		t, ok := call.Output.(*target)
		if !ok {
			return fmt.Errorf("ebitengfx: %s: foreign target %s", call.Pass, call.Output.Label())
		}
		if err := t.Status(); err != nil {
			return fmt.Errorf("ebitengfx: %s: %w", call.Pass, err)
		}
		outs = t.color
	}

	inputs := make([]*texture, len(call.Inputs))
	for i, in := range call.Inputs {
		if in == nil {
			continue
		}
		tex, ok := in.(*texture)
		if !ok {
			return fmt.Errorf("ebitengfx: %s: input %d (%s) not created by this device", call.Pass, i, in.Label())
		}
		for _, o := range outs {
			if tex.img == o.img {
				return fmt.Errorf("ebitengfx: %s: input %d reads the target it writes", call.Pass, i)
			}
		}
		inputs[i] = tex
	}

	if call.Clear {
		for _, o := range outs {
			o.img.Fill(clearColor(call.ClearColor, o.encoded, d.hdrRange))
		}
	}

	w, h := outs[0].Size()
	uniforms := uniformMap(prog.uniforms)
	uniforms["HDRRange"] = float32(d.hdrRange)

	if prog.pre != nil {
		flare := d.scratchImage(prog.pre.name, w, h)
		out := &texture{label: prog.pre.name, format: gfx.FormatRGBA16F, img: flare, encoded: true}
		d.shade(prog.pre, pick(inputs, prog.pre.inputs, nil), []*texture{out}, uniforms)
		inputs = pick(inputs, prog.inputs, out)
	} else if prog.inputs != nil {
		inputs = pick(inputs, prog.inputs, nil)
	}
	d.shade(prog, inputs, outs, uniforms)
	return nil
}

// pick selects inputs by index; -1 selects extra
func pick(inputs []*texture, idx []int, extra *texture) []*texture {
	out := make([]*texture, len(idx))
	for i, j := range idx {
		switch {
		case j < 0:
			out[i] = extra
		case j < len(inputs):
			out[i] = inputs[j]
		}
	}
	return out
}

func (d *Device) shade(p *program, inputs []*texture, outs []*texture, uniforms map[string]any) {
	w, h := outs[0].Size()
	op := &ebiten.DrawRectShaderOptions{Uniforms: uniforms, Blend: ebiten.BlendCopy}
	var hdr, repeat [maxImages]float32
	for i := 0; i < len(inputs) && i < maxImages; i++ {
		tex := inputs[i]
		if tex == nil {
			continue
		}
		op.Images[i] = d.stage(tex, w, h)
		if tex.encoded {
			hdr[i] = 1
		}
		if tex.sampling.Wrap == gfx.WrapRepeat {
			repeat[i] = 1
		}
	}
	uniforms["Resolution"] = []float32{float32(w), float32(h)}
	uniforms["SrcHDR"] = hdr[:]
	uniforms["SrcRepeat"] = repeat[:]
	for a, o := range outs {
		uniforms["Channel"] = float32(a)
		uniforms["DstHDR"] = boolFloat(o.encoded)
		o.img.DrawRectShader(w, h, p.shader, op)
	}
}

type stageKey struct {
	tex  *texture
	w, h int
}

// stage returns tex resampled to w x h. Static textures are resampled once;
// target attachments every draw.
func (d *Device) stage(tex *texture, w, h int) *ebiten.Image {
	tw, th := tex.Size()
	if tw == w && th == h {
		return tex.img
	}
	key := stageKey{tex, w, h}
	img, ok := d.staging[key]
	if ok && tex.static {
		return img
	}
	if !ok {
		img = ebiten.NewImageWithOptions(image.Rect(0, 0, w, h), &ebiten.NewImageOptions{Unmanaged: true})
		d.staging[key] = img
	}
	op := &ebiten.DrawImageOptions{Filter: ebiten.FilterLinear, Blend: ebiten.BlendCopy}
	op.GeoM.Scale(float64(w)/float64(tw), float64(h)/float64(th))
	img.DrawImage(tex.img, op)
	return img
}

func (d *Device) scratchImage(name string, w, h int) *ebiten.Image {
	img, ok := d.scratch[name]
	if ok {
		if b := img.Bounds(); b.Dx() == w && b.Dy() == h {
			return img
		}
		img.Deallocate()
	}
	img = ebiten.NewImageWithOptions(image.Rect(0, 0, w, h), &ebiten.NewImageOptions{Unmanaged: true})
	d.scratch[name] = img
	return img
}

// EncodeHDR maps a linear value to its stored form in a float target
func EncodeHDR(v, hdrRange float64) float64 {
	if v != v || v <= 0 {
		return 0
	}
	return math.Sqrt(math.Min(v/hdrRange, 1))
}

// DecodeHDR inverts EncodeHDR
func DecodeHDR(e, hdrRange float64) float64 { return e * e * hdrRange }

func clearColor(c [4]float32, encoded bool, hdrRange float64) color.Color {
	ch := func(v float32) uint16 {
		f := float64(v)
		if encoded {
			f = EncodeHDR(f, hdrRange)
		}
		return uint16(math.Round(math.Max(0, math.Min(1, f)) * 0xffff))
	}
	return color.NRGBA64{R: ch(c[0]), G: ch(c[1]), B: ch(c[2]), A: 0xffff}
}

func boolFloat(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

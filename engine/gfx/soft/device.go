// Package soft is a CPU implementation of gfx.Device. Targets hold float32
// texels, so HDR values survive between passes exactly as on a GPU with
// float render targets. Every program is a Go kernel.
package soft

import (
	"fmt"
	"io"
	"log"
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/1siamBot/hdr-terrain/engine/gfx"
)

const maxAttachments = 4

// Device renders on the CPU
type Device struct {
	width, height int
	display       *Image
	logger        *log.Logger
	workers       int
}

var _ gfx.Device = (*Device)(nil)

// New creates a device with a w x h display. Diagnostics go to logger; nil
// discards them.
func New(w, h int, logger *log.Logger) *Device {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return &Device{
		width:   w,
		height:  h,
		display: NewImage(w, h, gfx.Sampling{Filter: gfx.FilterLinear, Wrap: gfx.WrapClamp}),
		logger:  logger,
		workers: runtime.GOMAXPROCS(0),
	}
}

// SetWorkers limits how many goroutines shade one draw
func (d *Device) SetWorkers(n int) {
	if n < 1 {
		n = 1
	}
	d.workers = n
}

func (d *Device) DisplaySize() (int, int) { return d.width, d.height }

// Display returns a copy of the display contents
func (d *Device) Display() *gfx.Pixels {
	return toPixels(d.display, gfx.FormatRGBA8)
}

// Read returns a copy of a texture or target attachment created by this device
func (d *Device) Read(t gfx.Texture) (*gfx.Pixels, error) {
	tex, ok := t.(*texture)
	if !ok || tex.img == nil {
		return nil, fmt.Errorf("soft: read %v: %w", labelOf(t), gfx.ErrUnsupported)
	}
	return toPixels(tex.img, tex.format), nil
}

func toPixels(im *Image, f gfx.Format) *gfx.Pixels {
	p := &gfx.Pixels{Width: im.W, Height: im.H, Format: f, Pix: make([]float32, len(im.Pix))}
	copy(p.Pix, im.Pix)
	return p
}

func labelOf(t gfx.Texture) string {
	if t == nil {
		return "<nil>"
	}
	return t.Label()
}

type texture struct {
	label  string
	format gfx.Format
	img    *Image
	faces  *cube
}

func (t *texture) Label() string      { return t.label }
func (t *texture) Format() gfx.Format { return t.format }
func (t *texture) Size() (int, int) {
	if t.faces != nil {
		return t.faces[0].W, t.faces[0].H
	}
	return t.img.W, t.img.H
}

func (d *Device) LoadTexture(src gfx.TextureSource) (gfx.Texture, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	switch s := src.(type) {
	case gfx.FromCubemapFaces:
		faces, err := s.FacePixels()
		if err != nil {
			return nil, err
		}
		var c cube
		for i, p := range faces {
			c[i] = imageFromPixels(p, gfx.Sampling{Filter: gfx.FilterLinear, Wrap: gfx.WrapClamp})
		}
		return &texture{label: s.Label(), format: gfx.FormatRGBA8, faces: &c}, nil
	case gfx.PlanarSource:
		p, err := s.Pixels()
		if err != nil {
			return nil, err
		}
		return &texture{label: s.Label(), format: p.Format, img: imageFromPixels(p, s.Policy())}, nil
	}
	return nil, fmt.Errorf("soft: texture source %T: %w", src, gfx.ErrUnsupported)
}

type target struct {
	spec   gfx.TargetSpec
	color  []*texture
	depth  []float64
	status error
}

func (t *target) Label() string      { return t.spec.Label }
func (t *target) Size() (int, int)   { return t.spec.Width, t.spec.Height }
func (t *target) Format() gfx.Format { return t.spec.Format }
func (t *target) Attachments() int   { return len(t.color) }
func (t *target) HasDepth() bool     { return t.depth != nil }
func (t *target) Status() error      { return t.status }
func (t *target) Attachment(i int) gfx.Texture {
	if i < 0 || i >= len(t.color) {
		return nil
	}
	return t.color[i]
}

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
		return nil, fmt.Errorf("soft: target format %v: %w", spec.Format, gfx.ErrUnsupported)
	}
	for i := 0; i < n; i++ {
		t.color = append(t.color, &texture{
			label:  fmt.Sprintf("%s[%d]", spec.Label, i),
			format: spec.Format,
			img:    NewImage(spec.Width, spec.Height, spec.Sampling),
		})
	}
	if spec.Depth {
		t.depth = make([]float64, spec.Width*spec.Height)
		for i := range t.depth {
			t.depth[i] = math.Inf(1)
		}
	}
	return t, nil
}

type program struct {
	name     string
	uniforms *gfx.UniformTable
	shade    shader
}

func (p *program) Name() string                { return p.name }
func (p *program) Uniforms() *gfx.UniformTable { return p.uniforms }

func (d *Device) CompileProgram(spec gfx.ProgramSpec) (gfx.Program, error) {
	k, ok := kernels[spec.Name]
	if !ok {
		return nil, fmt.Errorf("soft: compile %q: %w", spec.Name, gfx.ErrUnknownProgram)
	}
	table := gfx.NewUniformTable(spec.Name, spec.Uniforms, d.logger)
	return &program{name: spec.Name, uniforms: table, shade: k(table)}, nil
}

// Draw shades every pixel of the output. Rows are split across workers and
// all of them finish before Draw returns.
func (d *Device) Draw(call gfx.DrawCall) error {
	prog, ok := call.Program.(*program)
	if !ok || prog == nil {
		return fmt.Errorf("soft: %s: program %v not compiled by this device", call.Pass, call.Program)
	}

	outs := []*Image{d.display}
	format := gfx.FormatRGBA8
	var depth []float64
	if call.Output != nil {
		t, ok := call.Output.(*target)
		if !ok {
			return fmt.Errorf("soft: %s: foreign target %s", call.Pass, call.Output.Label())
		}
		if err := t.Status(); err != nil {
			return fmt.Errorf("soft: %s: %w", call.Pass, err)
		}
		outs = outs[:0]
		for _, c := range t.color {
			outs = append(outs, c.img)
		}
		format = t.spec.Format
		depth = t.depth
	}

	ctx := &drawContext{w: outs[0].W, h: outs[0].H}
	for i, in := range call.Inputs {
		tex, _ := in.(*texture)
		if in != nil && tex == nil {
			return fmt.Errorf("soft: %s: input %d (%s) not created by this device", call.Pass, i, in.Label())
		}
		for _, o := range outs {
			if tex != nil && tex.img == o {
				return fmt.Errorf("soft: %s: input %d reads the target it writes", call.Pass, i)
			}
		}
		ctx.inputs = append(ctx.inputs, tex)
	}

	if call.Clear {
		for _, o := range outs {
			o.Fill(call.ClearColor)
		}
		for i := range depth {
			depth[i] = math.Inf(1)
		}
	}
	testDepth := call.Depth == gfx.DepthLess && depth != nil

	rows := ctx.h
	band := max(1, rows/(d.workers*4))
	var g errgroup.Group
	g.SetLimit(d.workers)
	for y0 := 0; y0 < rows; y0 += band {
		y0 := y0
		y1 := min(rows, y0+band)
		g.Go(func() error {
			var f fragment
			for y := y0; y < y1; y++ {
				for x := 0; x < ctx.w; x++ {
					f.reset(x, y, ctx.w, ctx.h)
					prog.shade(ctx, &f)
					if f.discard {
						continue
					}
					if testDepth {
						i := y*ctx.w + x
						if !(f.depth < depth[i]) {
							continue
						}
						depth[i] = f.depth
					}
					for a, o := range outs {
						o.Set(x, y, storeFormat(f.out[a], format))
					}
				}
			}
			return nil
		})
	}
	return g.Wait()
}

package pipeline

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"testing"

	"github.com/1siamBot/hdr-terrain/engine/assets"
	"github.com/1siamBot/hdr-terrain/engine/frame"
	"github.com/1siamBot/hdr-terrain/engine/gfx"
	"github.com/1siamBot/hdr-terrain/engine/gfx/soft"
	"github.com/1siamBot/hdr-terrain/engine/noise"
	"github.com/1siamBot/hdr-terrain/engine/render3d"
	"github.com/1siamBot/hdr-terrain/engine/sun"
	"github.com/1siamBot/hdr-terrain/engine/terrain"
)

type fakeTexture struct {
	label string
	w, h  int
	f     gfx.Format
}

func (t *fakeTexture) Label() string      { return t.label }
func (t *fakeTexture) Size() (int, int)   { return t.w, t.h }
func (t *fakeTexture) Format() gfx.Format { return t.f }

type fakeTarget struct {
	spec   gfx.TargetSpec
	color  []*fakeTexture
	status error
}

func (t *fakeTarget) Label() string                { return t.spec.Label }
func (t *fakeTarget) Size() (int, int)             { return t.spec.Width, t.spec.Height }
func (t *fakeTarget) Format() gfx.Format           { return t.spec.Format }
func (t *fakeTarget) Attachments() int             { return len(t.color) }
func (t *fakeTarget) Attachment(i int) gfx.Texture { return t.color[i] }
func (t *fakeTarget) HasDepth() bool               { return t.spec.Depth }
func (t *fakeTarget) Status() error                { return t.status }

type fakeProgram struct {
	name string
	u    *gfx.UniformTable
}

func (p *fakeProgram) Name() string                { return p.name }
func (p *fakeProgram) Uniforms() *gfx.UniformTable { return p.u }

type drawRecord struct {
	pass, program string
	inputs        []string
	output        string
	clear         bool
	depth         gfx.DepthMode
	horizontal    bool
	exposure      float32
}

// recordingDevice logs every call instead of rendering
type recordingDevice struct {
	failCompile    map[string]bool
	incomplete     map[string]bool
	targets        []gfx.TargetSpec
	sources        []gfx.TextureSource
	draws          []drawRecord
	logger         *log.Logger
	cubemapFailure bool
}

func newRecordingDevice() *recordingDevice {
	return &recordingDevice{failCompile: map[string]bool{}, incomplete: map[string]bool{}}
}

func (d *recordingDevice) DisplaySize() (int, int) { return 64, 36 }

func (d *recordingDevice) LoadTexture(src gfx.TextureSource) (gfx.Texture, error) {
	if err := src.Validate(); err != nil {
		return nil, err
	}
	d.sources = append(d.sources, src)
	if _, ok := src.(gfx.FromCubemapFaces); ok {
		return nil, fmt.Errorf("cubemap: %w", gfx.ErrUnsupported)
	}
	return &fakeTexture{label: src.Label(), w: 1, h: 1}, nil
}

func (d *recordingDevice) NewTarget(spec gfx.TargetSpec) (gfx.Target, error) {
	d.targets = append(d.targets, spec)
	t := &fakeTarget{spec: spec}
	for i := 0; i < spec.ColorAttachments(); i++ {
		t.color = append(t.color, &fakeTexture{label: fmt.Sprintf("%s[%d]", spec.Label, i), w: spec.Width, h: spec.Height, f: spec.Format})
	}
	if d.incomplete[spec.Label] {
		t.status = fmt.Errorf("%w: %s", gfx.ErrIncompleteTarget, spec.Label)
	}
	return t, nil
}

func (d *recordingDevice) CompileProgram(spec gfx.ProgramSpec) (gfx.Program, error) {
	if d.failCompile[spec.Name] {
		return nil, fmt.Errorf("compile %s: syntax error", spec.Name)
	}
	return &fakeProgram{name: spec.Name, u: gfx.NewUniformTable(spec.Name, spec.Uniforms, d.logger)}, nil
}

func (d *recordingDevice) Draw(call gfx.DrawCall) error {
	r := drawRecord{
		pass:    call.Pass,
		program: call.Program.Name(),
		output:  "display",
		clear:   call.Clear,
		depth:   call.Depth,
	}
	for _, in := range call.Inputs {
		if in == nil {
			r.inputs = append(r.inputs, "-")
			continue
		}
		r.inputs = append(r.inputs, in.Label())
	}
	if call.Output != nil {
		if err := call.Output.Status(); err != nil {
			return err
		}
		r.output = call.Output.Label()
	}
	u := call.Program.Uniforms()
	switch r.program {
	case ProgramBlur:
		r.horizontal = u.Bool(u.Lookup("horizontal", gfx.UniformBool))
	case ProgramComposite:
		r.exposure = u.Float(u.Lookup("exposure", gfx.UniformFloat))
	}
	d.draws = append(d.draws, r)
	return nil
}

func testInputs() Inputs {
	h := terrain.Generate(noise.NewSimplex(noise.DefaultSeed), terrain.Params{
		Width: 32, Height: 32, Scale: 0.05, Octaves: 4, Persistence: 0.5, Lacunarity: 2,
	})
	return Inputs{Height: h, Normal: terrain.Derive(h, terrain.BorderClamp)}
}

func testOptions() Options {
	o := DefaultOptions()
	o.Width, o.Height = 64, 36
	o.Bloom.Iterations = 3
	o.Assets.ProceduralRes = 16
	return o
}

func testFrame(w, h int) *frame.Context {
	ctrl := sun.NewController(sun.DefaultConfig())
	fc := frame.New(render3d.NewCamera3D(w, h), ctrl.NewState(), w, h)
	fc.Advance(1.0 / 60)
	ctrl.Update(&fc.Sun, fc.DeltaTime)
	fc.Light = fc.Sun.Light(ctrl.Config())
	return fc
}

func TestRenderFrameIssuesStagesInOrder(t *testing.T) {
	dev := newRecordingDevice()
	p := New(dev, testOptions(), testInputs(), nil)
	fc := testFrame(64, 36)
	p.RenderFrame(fc)

	stages := p.Stages()
	if len(dev.draws) != len(stages) {
		t.Fatalf("%d draws for %d stages", len(dev.draws), len(stages))
	}
	for i, s := range stages {
		d := dev.draws[i]
		if d.pass != s.Name || d.program != s.Program {
			t.Fatalf("draw %d is %s/%s, want %s/%s", i, d.pass, d.program, s.Name, s.Program)
		}
		if s.Program == ProgramBlur && d.horizontal != s.Horizontal {
			t.Errorf("draw %d horizontal=%v", i, d.horizontal)
		}
		for _, in := range d.inputs {
			if in != "-" && strings.HasPrefix(in, d.output+"[") {
				t.Errorf("draw %s reads its own output %s", d.pass, in)
			}
		}
	}

	want := []struct{ pass, output string }{
		{"scene.sky", "scene"},
		{"scene.sun", "scene"},
		{"scene.terrain", "scene"},
		{"downsample", "downsample"},
		{"blur.h[0]", "pingpong1"},
		{"blur.v[0]", "pingpong0"},
		{"composite", "display"},
	}
	for _, w := range want {
		found := false
		for _, d := range dev.draws {
			if d.pass == w.pass {
				found = true
				if d.output != w.output {
					t.Errorf("%s writes %s, want %s", w.pass, d.output, w.output)
				}
			}
		}
		if !found {
			t.Errorf("no draw for %s", w.pass)
		}
	}

	first, last := dev.draws[4], dev.draws[len(dev.draws)-2]
	if first.inputs[0] != "downsample[0]" {
		t.Errorf("first blur reads %v", first.inputs)
	}
	if last.output != "pingpong0" {
		t.Errorf("last blur writes %s", last.output)
	}
	comp := dev.draws[len(dev.draws)-1]
	if comp.inputs[0] != "scene[0]" || comp.inputs[1] != "pingpong0[0]" || comp.inputs[2] != "downsample[0]" {
		t.Errorf("composite inputs %v", comp.inputs)
	}
	if comp.exposure != float32(fc.Sun.Exposure) {
		t.Errorf("composite exposure %g, want %g", comp.exposure, fc.Sun.Exposure)
	}
	if !dev.draws[0].clear || dev.draws[1].clear || dev.draws[1].depth != gfx.DepthLess {
		t.Error("scene must clear once and depth test the sun and terrain")
	}
}

func TestTargetsAllocatedOnce(t *testing.T) {
	dev := newRecordingDevice()
	p := New(dev, testOptions(), testInputs(), nil)
	fc := testFrame(64, 36)
	for i := 0; i < 3; i++ {
		p.RenderFrame(fc)
	}
	p.SetBloomIterations(10)
	fc.Resize(128, 72)
	p.RenderFrame(fc)
	if len(dev.targets) != 4 {
		t.Fatalf("%d targets allocated, want 4", len(dev.targets))
	}

	var ping []gfx.TargetSpec
	for _, s := range dev.targets {
		if strings.HasPrefix(s.Label, "pingpong") {
			ping = append(ping, s)
		}
		if s.Label == "scene" && (s.ColorAttachments() != 2 || !s.Depth || s.Format != gfx.FormatRGBA16F) {
			t.Errorf("scene target %+v", s)
		}
	}
	if len(ping) != 2 || ping[0].Width != ping[1].Width || ping[0].Height != ping[1].Height || ping[0].Format != ping[1].Format {
		t.Fatalf("ping-pong pair differs: %+v", ping)
	}
	if ping[0].Width != 16 || ping[0].Height != 9 {
		t.Fatalf("ping-pong size %dx%d, want a quarter of 64x36", ping[0].Width, ping[0].Height)
	}
}

func TestBloomIterationsRuntime(t *testing.T) {
	dev := newRecordingDevice()
	p := New(dev, testOptions(), testInputs(), nil)
	p.SetBloomIterations(0)
	if p.BloomIterations() != 1 {
		t.Fatalf("iterations %d, want 1", p.BloomIterations())
	}
	p.SetBloomIterations(MaxBloomIterations + 10)
	if p.BloomIterations() != MaxBloomIterations {
		t.Fatalf("iterations %d, want %d", p.BloomIterations(), MaxBloomIterations)
	}
	p.SetBloomIterations(5)
	p.RenderFrame(testFrame(64, 36))
	if len(dev.draws) != 4+2*5+1 {
		t.Fatalf("%d draws", len(dev.draws))
	}
}

func TestDegradedSetupIsLoggedNotFatal(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	dev := newRecordingDevice()
	dev.logger = logger
	dev.failCompile[ProgramTerrain] = true
	dev.incomplete["downsample"] = true

	opts := testOptions()
	opts.Assets.Skybox = [6]string{"r", "l", "t", "b", "f", "k"}
	opts.Assets.Rocks = "missing/rocks.png"
	p := New(dev, opts, Inputs{}, logger)
	fc := testFrame(64, 36)
	p.RenderFrame(fc)
	p.RenderFrame(fc)

	out := buf.String()
	for _, want := range []string{
		"program scene.terrain",
		"target downsample",
		"texture skybox",
		"texture heightmap: no height grid",
		"stage scene.terrain skipped",
		"stage downsample",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q:\n%s", want, out)
		}
	}
	if n := strings.Count(out, "stage scene.terrain skipped"); n != 1 {
		t.Errorf("skip logged %d times over two frames", n)
	}

	// The remaining stages still run
	var composites int
	for _, d := range dev.draws {
		if d.pass == ProgramTerrain {
			t.Fatal("terrain drew without a program")
		}
		if d.pass == "composite" {
			composites++
		}
	}
	if composites != 2 {
		t.Fatalf("composite ran %d times, want 2", composites)
	}
	if dev.draws[0].inputs[0] != "-" {
		t.Errorf("sky should run without a skybox, got %v", dev.draws[0].inputs)
	}
}

func TestProceduralTexturesFollowNoiseKind(t *testing.T) {
	pixels := func(dev *recordingDevice, name string) []float32 {
		for _, src := range dev.sources {
			if px, ok := src.(gfx.FromPixels); ok && px.Name == name {
				return px.Pix
			}
		}
		t.Fatalf("no %s texture loaded", name)
		return nil
	}
	same := func(a, b []float32) bool {
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if a[i] != b[i] {
				return false
			}
		}
		return true
	}

	opts := testOptions()
	opts.Noise = "perlin"
	opts.NoiseSeed = 7
	dev := newRecordingDevice()
	New(dev, opts, Inputs{}, nil)

	perlin := noise.NewPerlin(7)
	size := opts.Assets.ProceduralRes
	for name, img := range map[string]func() []float32{
		"rocks": func() []float32 { return gfx.FromImage("rocks", assets.Rocks(size, perlin), gfx.Sampling{}).Pix },
		"snow":  func() []float32 { return gfx.FromImage("snow", assets.Snow(size, perlin), gfx.Sampling{}).Pix },
	} {
		if !same(pixels(dev, name), img()) {
			t.Errorf("%s texture was not built from perlin noise", name)
		}
	}
	simplex := gfx.FromImage("rocks", assets.Rocks(size, noise.NewSimplex(7)), gfx.Sampling{}).Pix
	if same(pixels(dev, "rocks"), simplex) {
		t.Error("perlin and simplex rocks textures are identical")
	}

	opts.Noise = "value"
	if opts.Validate() == nil {
		t.Error("unknown noise kind accepted")
	}
	var buf bytes.Buffer
	New(newRecordingDevice(), opts, Inputs{}, log.New(&buf, "", 0))
	if !strings.Contains(buf.String(), `noise "value" unknown`) {
		t.Errorf("unknown noise not logged:\n%s", buf.String())
	}
}

func TestRenderWithCPUDevice(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New(&buf, "", 0)
	dev := soft.New(64, 36, logger)
	p := New(dev, testOptions(), testInputs(), logger)
	fc := testFrame(64, 36)
	p.RenderFrame(fc)

	if buf.Len() != 0 {
		t.Fatalf("unexpected diagnostics:\n%s", buf.String())
	}
	display := dev.Display()
	if display.Width != 64 || display.Height != 36 {
		t.Fatalf("display %dx%d", display.Width, display.Height)
	}
	lit := 0
	for i := 0; i < len(display.Pix); i += 4 {
		if display.Pix[i]+display.Pix[i+1]+display.Pix[i+2] > 0.05 {
			lit++
		}
	}
	if lit < 64*36/2 {
		t.Fatalf("only %d of %d pixels lit", lit, 64*36)
	}

	inter := p.Intermediates()
	if len(inter) != 5 {
		t.Fatalf("%d intermediates", len(inter))
	}
	for _, nt := range inter {
		if _, err := dev.Read(nt.Texture); err != nil {
			t.Errorf("%s: %v", nt.Resource, err)
		}
	}
}

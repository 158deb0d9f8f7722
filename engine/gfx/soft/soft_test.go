package soft

import (
	"bytes"
	"errors"
	"log"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/1siamBot/hdr-terrain/engine/gfx"
	"github.com/1siamBot/hdr-terrain/engine/render3d"
)

var clampLinear = gfx.Sampling{Filter: gfx.FilterLinear, Wrap: gfx.WrapClamp}

func constTexture(t *testing.T, d *Device, w, h int, c [4]float32) gfx.Texture {
	t.Helper()
	pix := make([]float32, w*h*4)
	for i := 0; i < len(pix); i += 4 {
		copy(pix[i:], c[:])
	}
	tex, err := d.LoadTexture(gfx.FromPixels{Name: "const", Width: w, Height: h, Format: gfx.FormatRGBA16F, Pix: pix, Sampling: clampLinear})
	if err != nil {
		t.Fatal(err)
	}
	return tex
}

func compile(t *testing.T, d *Device, name string, decls ...gfx.UniformDecl) gfx.Program {
	t.Helper()
	p, err := d.CompileProgram(gfx.ProgramSpec{Name: name, Uniforms: decls})
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func newTarget(t *testing.T, d *Device, spec gfx.TargetSpec) gfx.Target {
	t.Helper()
	tg, err := d.NewTarget(spec)
	if err != nil {
		t.Fatal(err)
	}
	if err := tg.Status(); err != nil {
		t.Fatal(err)
	}
	return tg
}

func TestImageSampling(t *testing.T) {
	im := NewImage(2, 1, gfx.Sampling{Filter: gfx.FilterLinear, Wrap: gfx.WrapClamp})
	im.Set(0, 0, rgba{0, 0, 0, 1})
	im.Set(1, 0, rgba{1, 1, 1, 1})
	if got := im.Sample(0.5, 0.5)[0]; math.Abs(got-0.5) > 1e-9 {
		t.Fatalf("midpoint = %g", got)
	}
	if got := im.Sample(-3, 0.5)[0]; got != 0 {
		t.Fatalf("clamped left = %g", got)
	}
	im.Sampling.Wrap = gfx.WrapRepeat
	if got := im.Sample(1.25, 0.5)[0]; got != 0 {
		// 1.25 wraps to texel 0's center
		t.Fatalf("repeat = %g", got)
	}
	im.Sampling.Filter = gfx.FilterNearest
	if got := im.Sample(0.9, 0.5)[0]; got != 1 {
		t.Fatalf("nearest = %g", got)
	}
}

func TestCubeFaceSelection(t *testing.T) {
	var c cube
	for i := range c {
		c[i] = NewImage(1, 1, clampLinear)
		c[i].Set(0, 0, rgba{float64(i), 0, 0, 1})
	}
	for _, tc := range []struct {
		dir  render3d.Vec3
		face int
	}{
		{render3d.V3(1, 0.2, 0.1), gfx.FaceRight},
		{render3d.V3(-1, 0, 0), gfx.FaceLeft},
		{render3d.V3(0, 1, 0.5), gfx.FaceTop},
		{render3d.V3(0.1, -1, 0), gfx.FaceBottom},
		{render3d.V3(0, 0, 1), gfx.FaceFront},
		{render3d.V3(0.3, 0.2, -1), gfx.FaceBack},
	} {
		if got := int(c.Sample(tc.dir)[0]); got != tc.face {
			t.Errorf("dir %+v sampled face %d, want %d", tc.dir, got, tc.face)
		}
	}
}

func TestTargetStatusAndUnknownProgram(t *testing.T) {
	d := New(8, 8, nil)
	tg, err := d.NewTarget(gfx.TargetSpec{Label: "broken", Width: 0, Height: 4})
	if err != nil {
		t.Fatal(err)
	}
	if !errors.Is(tg.Status(), gfx.ErrIncompleteTarget) {
		t.Fatalf("status = %v", tg.Status())
	}
	if _, err := d.CompileProgram(gfx.ProgramSpec{Name: "nope"}); !errors.Is(err, gfx.ErrUnknownProgram) {
		t.Fatalf("compile unknown = %v", err)
	}
	p := compile(t, d, "downsample")
	if err := d.Draw(gfx.DrawCall{Pass: "x", Program: p, Output: tg}); !errors.Is(err, gfx.ErrIncompleteTarget) {
		t.Fatalf("draw to incomplete target = %v", err)
	}
}

func TestBlurKeepsConstantAndRejectsFeedback(t *testing.T) {
	d := New(16, 16, nil)
	d.SetWorkers(3)
	blur := compile(t, d, "blur", gfx.UniformDecl{Name: "horizontal", Kind: gfx.UniformBool})
	h := blur.Uniforms().Lookup("horizontal", gfx.UniformBool)

	src := constTexture(t, d, 8, 8, [4]float32{3, 2, 1, 1})
	a := newTarget(t, d, gfx.TargetSpec{Label: "a", Width: 8, Height: 8, Format: gfx.FormatRGBA16F, Sampling: clampLinear})
	b := newTarget(t, d, gfx.TargetSpec{Label: "b", Width: 8, Height: 8, Format: gfx.FormatRGBA16F, Sampling: clampLinear})

	blur.Uniforms().SetBool(h, true)
	if err := d.Draw(gfx.DrawCall{Pass: "h", Program: blur, Inputs: []gfx.Texture{src}, Output: b}); err != nil {
		t.Fatal(err)
	}
	blur.Uniforms().SetBool(h, false)
	if err := d.Draw(gfx.DrawCall{Pass: "v", Program: blur, Inputs: []gfx.Texture{b.Attachment(0)}, Output: a}); err != nil {
		t.Fatal(err)
	}
	px, err := d.Read(a.Attachment(0))
	if err != nil {
		t.Fatal(err)
	}
	if c := px.At(4, 4); math.Abs(float64(c[0])-3) > 1e-3 {
		t.Fatalf("blurred constant = %v, HDR value should survive", c)
	}

	err = d.Draw(gfx.DrawCall{Pass: "loop", Program: blur, Inputs: []gfx.Texture{a.Attachment(0)}, Output: a})
	if err == nil {
		t.Fatal("reading and writing the same target must fail")
	}
}

func TestBlurSpreadsImpulse(t *testing.T) {
	d := New(1, 1, nil)
	blur := compile(t, d, "blur", gfx.UniformDecl{Name: "horizontal", Kind: gfx.UniformBool})
	blur.Uniforms().SetBool(blur.Uniforms().Lookup("horizontal", gfx.UniformBool), true)

	pix := make([]float32, 9*1*4)
	pix[4*4] = 1
	src, err := d.LoadTexture(gfx.FromPixels{Name: "impulse", Width: 9, Height: 1, Format: gfx.FormatRGBA16F, Pix: pix,
		Sampling: gfx.Sampling{Filter: gfx.FilterNearest, Wrap: gfx.WrapClamp}})
	if err != nil {
		t.Fatal(err)
	}
	out := newTarget(t, d, gfx.TargetSpec{Label: "out", Width: 9, Height: 1, Format: gfx.FormatRGBA16F})
	if err := d.Draw(gfx.DrawCall{Program: blur, Inputs: []gfx.Texture{src}, Output: out}); err != nil {
		t.Fatal(err)
	}
	px, _ := d.Read(out.Attachment(0))
	for i, w := range BlurWeights {
		for _, x := range []int{4 - i, 4 + i} {
			if got := float64(px.At(x, 0)[0]); math.Abs(got-w) > 1e-6 {
				t.Errorf("x=%d: %g, want %g", x, got, w)
			}
		}
	}
}

func TestDownsampleAverages(t *testing.T) {
	d := New(1, 1, nil)
	ds := compile(t, d, "downsample")
	src := constTexture(t, d, 16, 16, [4]float32{8, 0, 0, 1})
	out := newTarget(t, d, gfx.TargetSpec{Label: "ds", Width: 4, Height: 4, Format: gfx.FormatRGBA16F, Sampling: clampLinear})
	if err := d.Draw(gfx.DrawCall{Program: ds, Inputs: []gfx.Texture{src}, Output: out}); err != nil {
		t.Fatal(err)
	}
	px, _ := d.Read(out.Attachment(0))
	if c := px.At(2, 1); math.Abs(float64(c[0])-8) > 1e-4 {
		t.Fatalf("downsampled %v", c)
	}
}

func TestRGBA8TargetsClamp(t *testing.T) {
	d := New(1, 1, nil)
	ds := compile(t, d, "downsample")
	src := constTexture(t, d, 4, 4, [4]float32{8, -1, 0.5, 1})
	out := newTarget(t, d, gfx.TargetSpec{Label: "ldr", Width: 2, Height: 2, Format: gfx.FormatRGBA8})
	if err := d.Draw(gfx.DrawCall{Program: ds, Inputs: []gfx.Texture{src}, Output: out}); err != nil {
		t.Fatal(err)
	}
	px, _ := d.Read(out.Attachment(0))
	if c := px.At(0, 0); c[0] != 1 || c[1] != 0 {
		t.Fatalf("8-bit target kept %v", c)
	}
}

func sceneCamera() *render3d.Camera3D {
	cam := render3d.NewCamera3D(32, 32)
	cam.SetPose(render3d.CameraPose{Pos: render3d.V3(0, 0, 5), Yaw: -90, Pitch: 0, FOV: 50})
	return cam
}

func TestSunWritesBothAttachmentsAndDepthTests(t *testing.T) {
	var logs bytes.Buffer
	d := New(32, 32, log.New(&logs, "", 0))
	cam := sceneCamera()
	scene := newTarget(t, d, gfx.TargetSpec{Label: "scene", Width: 32, Height: 32, Format: gfx.FormatRGBA16F, Attachments: 2, Depth: true})

	decls := []gfx.UniformDecl{
		{Name: "invViewProj", Kind: gfx.UniformMat4},
		{Name: "viewProj", Kind: gfx.UniformMat4},
		{Name: "viewPos", Kind: gfx.UniformVec3},
		{Name: "lightPos", Kind: gfx.UniformVec3},
		{Name: "sunRadius", Kind: gfx.UniformFloat},
		{Name: "glowColor", Kind: gfx.UniformVec3},
		{Name: "fogDensity", Kind: gfx.UniformFloat},
		{Name: "fogColor", Kind: gfx.UniformVec3},
	}
	sun := compile(t, d, "scene.sun", decls...)
	u := sun.Uniforms()
	u.SetMat4(u.Lookup("invViewProj", gfx.UniformMat4), cam.InvViewProj())
	u.SetMat4(u.Lookup("viewProj", gfx.UniformMat4), cam.ViewProj())
	u.SetVec3(u.Lookup("viewPos", gfx.UniformVec3), cam.Pos.Mgl())
	u.SetVec3(u.Lookup("glowColor", gfx.UniformVec3), mgl32.Vec3{5, 4, 3})
	u.SetFloat(u.Lookup("sunRadius", gfx.UniformFloat), 1)
	lightPos := u.Lookup("lightPos", gfx.UniformVec3)

	// Far red sphere, then a near one that must win the depth test
	u.SetVec3(lightPos, mgl32.Vec3{0, 0, -5})
	if err := d.Draw(gfx.DrawCall{Program: sun, Output: scene, Clear: true, Depth: gfx.DepthLess, Mesh: gfx.MeshSphere}); err != nil {
		t.Fatal(err)
	}
	u.SetVec3(u.Lookup("glowColor", gfx.UniformVec3), mgl32.Vec3{1, 2, 3})
	u.SetVec3(lightPos, mgl32.Vec3{0, 0, 0})
	if err := d.Draw(gfx.DrawCall{Program: sun, Output: scene, Depth: gfx.DepthLess, Mesh: gfx.MeshSphere}); err != nil {
		t.Fatal(err)
	}
	// Drawing the far sphere again must not overwrite the near one
	u.SetVec3(u.Lookup("glowColor", gfx.UniformVec3), mgl32.Vec3{5, 4, 3})
	u.SetVec3(lightPos, mgl32.Vec3{0, 0, -5})
	if err := d.Draw(gfx.DrawCall{Program: sun, Output: scene, Depth: gfx.DepthLess, Mesh: gfx.MeshSphere}); err != nil {
		t.Fatal(err)
	}

	color, _ := d.Read(scene.Attachment(0))
	bright, _ := d.Read(scene.Attachment(1))
	center := bright.At(16, 16)
	if center[0] != 1 || center[1] != 2 || center[2] != 3 {
		t.Fatalf("bright channel at center = %v, want near sphere glow", center)
	}
	if c := color.At(16, 16); c[2] <= 1 {
		t.Fatalf("scene channel should hold unclamped HDR glow, got %v", c)
	}
	if c := bright.At(0, 0); c[0] != 0 {
		t.Fatalf("corner should be empty, got %v", c)
	}
	if logs.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %s", logs.String())
	}
}

func TestCompositeTonemapsToDisplay(t *testing.T) {
	d := New(4, 4, nil)
	comp := compile(t, d, "composite",
		gfx.UniformDecl{Name: "exposure", Kind: gfx.UniformFloat},
		gfx.UniformDecl{Name: "gamma", Kind: gfx.UniformFloat},
		gfx.UniformDecl{Name: "bloomStrength", Kind: gfx.UniformFloat},
	)
	u := comp.Uniforms()
	u.SetFloat(u.Lookup("exposure", gfx.UniformFloat), 0.75)
	u.SetFloat(u.Lookup("gamma", gfx.UniformFloat), 1)
	u.SetFloat(u.Lookup("bloomStrength", gfx.UniformFloat), 1)

	scene := constTexture(t, d, 4, 4, [4]float32{2, 0, 0, 1})
	bloom := constTexture(t, d, 1, 1, [4]float32{2, 0, 0, 1})
	if err := d.Draw(gfx.DrawCall{Program: comp, Inputs: []gfx.Texture{scene, bloom}}); err != nil {
		t.Fatal(err)
	}
	got := float64(d.Display().At(1, 1)[0])
	want := 1 - math.Exp(-4*0.75)
	if math.Abs(got-want) > 1e-5 {
		t.Fatalf("tonemapped %g, want %g", got, want)
	}
}

func TestTerrainHitsHeightField(t *testing.T) {
	d := New(24, 24, nil)
	cam := render3d.NewCamera3D(24, 24)
	cam.SetPose(render3d.CameraPose{Pos: render3d.V3(0, 3, 0.01), Yaw: -90, Pitch: -89, FOV: 50})

	height := constTexture(t, d, 4, 4, [4]float32{0.5, 0.5, 0.5, 1})
	normal := constTexture(t, d, 4, 4, [4]float32{0.5, 0.5, 1, 1})
	rock := constTexture(t, d, 4, 4, [4]float32{0.5, 0.5, 0.5, 1})
	scene := newTarget(t, d, gfx.TargetSpec{Label: "scene", Width: 24, Height: 24, Format: gfx.FormatRGBA16F, Attachments: 2, Depth: true})

	var decls []gfx.UniformDecl
	for _, n := range []string{"invViewProj", "viewProj"} {
		decls = append(decls, gfx.UniformDecl{Name: n, Kind: gfx.UniformMat4})
	}
	for _, n := range []string{"viewPos", "lightPos", "lightAmbient", "lightDiffuse", "lightSpecular", "fogColor"} {
		decls = append(decls, gfx.UniformDecl{Name: n, Kind: gfx.UniformVec3})
	}
	for _, n := range []string{"terrainSize", "terrainHeight", "textureTiling", "snowThreshold", "normalStrength", "fogDensity"} {
		decls = append(decls, gfx.UniformDecl{Name: n, Kind: gfx.UniformFloat})
	}
	p := compile(t, d, "scene.terrain", decls...)
	u := p.Uniforms()
	u.SetMat4(u.Lookup("invViewProj", gfx.UniformMat4), cam.InvViewProj())
	u.SetMat4(u.Lookup("viewProj", gfx.UniformMat4), cam.ViewProj())
	u.SetVec3(u.Lookup("viewPos", gfx.UniformVec3), cam.Pos.Mgl())
	u.SetVec3(u.Lookup("lightPos", gfx.UniformVec3), mgl32.Vec3{0, 2, 0})
	u.SetVec3(u.Lookup("lightDiffuse", gfx.UniformVec3), mgl32.Vec3{1, 1, 1})
	u.SetFloat(u.Lookup("terrainSize", gfx.UniformFloat), 2)
	u.SetFloat(u.Lookup("terrainHeight", gfx.UniformFloat), 0.6)
	u.SetFloat(u.Lookup("textureTiling", gfx.UniformFloat), 1)
	u.SetFloat(u.Lookup("snowThreshold", gfx.UniformFloat), 0.69)
	u.SetFloat(u.Lookup("normalStrength", gfx.UniformFloat), 1)

	err := d.Draw(gfx.DrawCall{
		Program: p, Mesh: gfx.MeshTerrain, Output: scene, Clear: true, Depth: gfx.DepthLess,
		Inputs: []gfx.Texture{rock, rock, normal, height},
	})
	if err != nil {
		t.Fatal(err)
	}
	px, _ := d.Read(scene.Attachment(0))
	// Looking straight down onto a flat plateau at y=0.3 under a light above it
	c := px.At(12, 12)
	if c[0] <= 0.1 || c[3] != 1 {
		t.Fatalf("terrain not shaded at the view center: %v", c)
	}
}

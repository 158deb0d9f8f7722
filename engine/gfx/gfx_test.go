package gfx

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"log"
	"path/filepath"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/1siamBot/hdr-terrain/engine/terrain"
)

func TestUniformTableResolvesHandles(t *testing.T) {
	var buf bytes.Buffer
	tab := NewUniformTable("blur", []UniformDecl{
		{"horizontal", UniformBool},
		{"exposure", UniformFloat},
		{"viewProj", UniformMat4},
	}, log.New(&buf, "", 0))

	h := tab.Lookup("horizontal", UniformBool)
	e := tab.Lookup("exposure", UniformFloat)
	if !h.Valid() || !e.Valid() {
		t.Fatal("declared uniforms should resolve")
	}
	tab.SetBool(h, true)
	tab.SetFloat(e, 0.75)
	if !tab.Bool(h) || tab.Float(e) != 0.75 {
		t.Fatalf("got %v %v", tab.Bool(h), tab.Float(e))
	}
	if m := tab.Mat4(tab.Lookup("viewProj", UniformMat4)); m != mgl32.Ident4() {
		t.Fatal("matrices start as identity")
	}
	if buf.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %s", buf.String())
	}
}

func TestUniformTableInvalidHandleIsNoOp(t *testing.T) {
	var buf bytes.Buffer
	tab := NewUniformTable("composite", []UniformDecl{{"exposure", UniformFloat}}, log.New(&buf, "", 0))

	missing := tab.Lookup("aspectRatio", UniformFloat)
	wrongKind := tab.Lookup("exposure", UniformInt)
	if missing.Valid() || wrongKind.Valid() {
		t.Fatal("missing or mistyped uniforms must not resolve")
	}
	for i := 0; i < 3; i++ {
		tab.SetFloat(missing, 2)
		tab.SetInt(wrongKind, 7)
	}
	if tab.Float(tab.Lookup("exposure", UniformFloat)) != 0 {
		t.Fatal("set through an invalid handle changed a value")
	}
	out := buf.String()
	if !strings.Contains(out, `"aspectRatio" not declared`) || !strings.Contains(out, "looked up as int") {
		t.Fatalf("diagnostics missing: %q", out)
	}
	if n := strings.Count(out, "\n"); n != 2 {
		t.Fatalf("want one line per bad name, got %d:\n%s", n, out)
	}

	var zero Uniform
	tab.SetFloat(zero, 1)
	if tab.Float(zero) != 0 {
		t.Fatal("zero handle must be invalid")
	}
}

func TestUniformValueFloats(t *testing.T) {
	tab := NewUniformTable("p", []UniformDecl{{"v", UniformVec3}}, nil)
	u := tab.Lookup("v", UniformVec3)
	tab.SetVec3(u, mgl32.Vec3{1, 2, 3})
	if got := tab.Value(0).Floats(); len(got) != 3 || got[2] != 3 {
		t.Fatalf("floats %v", got)
	}
}

func TestSourcesValidate(t *testing.T) {
	cases := []struct {
		name string
		src  TextureSource
		ok   bool
	}{
		{"file", FromFile{Path: "rocks.png"}, true},
		{"empty file", FromFile{}, false},
		{"pixels", FromPixels{Name: "p", Width: 1, Height: 1, Pix: make([]float32, 4)}, true},
		{"short pixels", FromPixels{Name: "p", Width: 2, Height: 1, Pix: make([]float32, 4)}, false},
		{"nil heightmap", FromHeightmap{}, false},
		{"nil normal map", FromNormalMap{}, false},
		{"cubemap missing face", FromCubemapFaces{Faces: [6]string{"a", "b", "c", "d", "e"}}, false},
		{"cubemap", FromCubemapFaces{Faces: [6]string{"a", "b", "c", "d", "e", "f"}}, true},
	}
	for _, tc := range cases {
		err := tc.src.Validate()
		if tc.ok && err != nil {
			t.Errorf("%s: %v", tc.name, err)
		}
		if !tc.ok && !errors.Is(err, ErrInvalidSource) {
			t.Errorf("%s: want ErrInvalidSource, got %v", tc.name, err)
		}
	}
}

func TestHeightAndNormalPixels(t *testing.T) {
	h := terrain.NewHeightGrid(3, 3, []float64{0, 0, 0, 0, 1, 0, 0, 0, 0})
	p, err := FromHeightmap{Grid: h}.Pixels()
	if err != nil {
		t.Fatal(err)
	}
	if p.Format != FormatR8 || p.At(1, 1)[0] != 1 || p.At(0, 0)[0] != 0 {
		t.Fatalf("height pixels %v", p.At(1, 1))
	}

	n, err := FromNormalMap{Grid: terrain.Derive(h, terrain.BorderClamp)}.Pixels()
	if err != nil {
		t.Fatal(err)
	}
	if c := n.At(1, 1); c[2] != 1 || c[3] != 1 {
		t.Fatalf("peak normal should point straight up, got %v", c)
	}
}

func TestFitImageAndRoundTrip(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 400, 100))
	for i := range src.Pix {
		src.Pix[i] = 200
	}
	fit := FitImage(src, 100)
	if b := fit.Bounds(); b.Dx() != 100 || b.Dy() != 25 {
		t.Fatalf("fit to %v", b)
	}
	if FitImage(src, 1000) != image.Image(src) {
		t.Fatal("small images should pass through")
	}

	small := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	small.SetNRGBA(0, 0, color.NRGBA{255, 0, 128, 255})
	p := PixelsFromImage(small)
	back := p.Image()
	if back.NRGBAAt(0, 0) != small.NRGBAAt(0, 0) {
		t.Fatalf("round trip %v != %v", back.NRGBAAt(0, 0), small.NRGBAAt(0, 0))
	}

	path := filepath.Join(t.TempDir(), "out.png")
	if err := WritePNG(path, back); err != nil {
		t.Fatal(err)
	}
	dec, err := FromFile{Path: path}.Pixels()
	if err != nil {
		t.Fatal(err)
	}
	if dec.Width != 2 || dec.At(0, 0)[0] != 1 {
		t.Fatalf("decoded %dx%d %v", dec.Width, dec.Height, dec.At(0, 0))
	}
	if _, err := (FromFile{Path: filepath.Join(t.TempDir(), "missing.png")}).Pixels(); err == nil {
		t.Fatal("missing file should fail")
	}
}

func TestQuantizeClampsHDR(t *testing.T) {
	p := &Pixels{Width: 1, Height: 1, Pix: []float32{4, -1, 0.5, 1}}
	c := p.Image().NRGBAAt(0, 0)
	if c.R != 255 || c.G != 0 || c.B != 128 {
		t.Fatalf("quantized %v", c)
	}
}

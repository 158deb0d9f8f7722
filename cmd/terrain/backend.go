package main

import (
	"image"
	"log"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/1siamBot/hdr-terrain/engine/gfx"
	"github.com/1siamBot/hdr-terrain/engine/gfx/ebitengfx"
	"github.com/1siamBot/hdr-terrain/engine/gfx/soft"
)

// backend owns the device and gets its output onto the screen
type backend interface {
	device() gfx.Device
	begin(screen *ebiten.Image)
	end(screen *ebiten.Image)
	// image returns a drawable view of a target for the debug view
	image(t gfx.Texture) *ebiten.Image
	name() string
}

type ebitenBackend struct {
	dev *ebitengfx.Device
}

func newEbitenBackend(w, h int, shaderDir string, logger *log.Logger) *ebitenBackend {
	return &ebitenBackend{dev: ebitengfx.New(w, h, ebitengfx.Options{ShaderDir: shaderDir, Logger: logger})}
}

func (b *ebitenBackend) device() gfx.Device         { return b.dev }
func (b *ebitenBackend) begin(screen *ebiten.Image) { b.dev.BeginFrame(screen) }
func (b *ebitenBackend) end(*ebiten.Image)          {}
func (b *ebitenBackend) name() string               { return "ebiten" }

func (b *ebitenBackend) image(t gfx.Texture) *ebiten.Image {
	img, _ := b.dev.Image(t)
	return img
}

// softBackend renders on the CPU and uploads the result every frame
type softBackend struct {
	dev    *soft.Device
	frame  *ebiten.Image
	thumbs map[string]*ebiten.Image
}

func newSoftBackend(w, h int, logger *log.Logger) *softBackend {
	return &softBackend{
		dev:    soft.New(w, h, logger),
		frame:  ebiten.NewImage(w, h),
		thumbs: make(map[string]*ebiten.Image),
	}
}

func (b *softBackend) device() gfx.Device  { return b.dev }
func (b *softBackend) begin(*ebiten.Image) {}
func (b *softBackend) name() string        { return "soft" }

func (b *softBackend) end(screen *ebiten.Image) {
	b.frame.WritePixels(b.dev.Display().Image().Pix)
	drawFitted(screen, b.frame, screen.Bounds())
}

func (b *softBackend) image(t gfx.Texture) *ebiten.Image {
	px, err := b.dev.Read(t)
	if err != nil {
		return nil
	}
	img, ok := b.thumbs[t.Label()]
	if !ok {
		img = ebiten.NewImage(px.Width, px.Height)
		b.thumbs[t.Label()] = img
	}
	img.WritePixels(px.Image().Pix)
	return img
}

// drawFitted scales src to fill r
func drawFitted(dst, src *ebiten.Image, r image.Rectangle) {
	sb := src.Bounds()
	op := &ebiten.DrawImageOptions{Filter: ebiten.FilterLinear}
	op.GeoM.Scale(float64(r.Dx())/float64(sb.Dx()), float64(r.Dy())/float64(sb.Dy()))
	op.GeoM.Translate(float64(r.Min.X), float64(r.Min.Y))
	dst.DrawImage(src, op)
}

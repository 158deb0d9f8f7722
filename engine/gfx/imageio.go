package gfx

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"math"
	"os"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Pixels is decoded texel data: 4 float32 components per texel, row-major,
// row 0 at v=0.
type Pixels struct {
	Width, Height int
	Format        Format
	Pix           []float32
}

// NewPixels allocates a zeroed image
func NewPixels(w, h int, f Format) *Pixels {
	return &Pixels{Width: w, Height: h, Format: f, Pix: make([]float32, w*h*4)}
}

// At returns the texel at (x, y)
func (p *Pixels) At(x, y int) [4]float32 {
	i := (y*p.Width + x) * 4
	return [4]float32{p.Pix[i], p.Pix[i+1], p.Pix[i+2], p.Pix[i+3]}
}

// DecodeImageFile decodes PNG, JPEG, GIF, BMP, TIFF or WebP
func DecodeImageFile(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open texture: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return img, nil
}

// FitImage downscales img so neither side exceeds maxSize, keeping the
// aspect ratio. Smaller images are returned unchanged.
func FitImage(img image.Image, maxSize int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSize <= 0 || (w <= maxSize && h <= maxSize) {
		return img
	}
	scale := float64(maxSize) / float64(max(w, h))
	nw := max(1, int(math.Round(float64(w)*scale)))
	nh := max(1, int(math.Round(float64(h)*scale)))
	dst := image.NewNRGBA(image.Rect(0, 0, nw, nh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// PixelsFromImage converts any image to float texels in [0,1]
func PixelsFromImage(img image.Image) *Pixels {
	b := img.Bounds()
	p := NewPixels(b.Dx(), b.Dy(), FormatRGBA8)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			p.Pix[i+0] = float32(c.R) / 255
			p.Pix[i+1] = float32(c.G) / 255
			p.Pix[i+2] = float32(c.B) / 255
			p.Pix[i+3] = float32(c.A) / 255
			i += 4
		}
	}
	return p
}

// Image quantizes to 8 bits per channel. Values are clamped to [0,1]; HDR
// content should be tonemapped first.
func (p *Pixels) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, p.Width, p.Height))
	for i, v := range p.Pix {
		img.Pix[i] = quantize(v)
	}
	return img
}

func quantize(v float32) uint8 {
	if v != v || v <= 0 {
		return 0
	}
	if v >= 1 {
		return 255
	}
	return uint8(v*255 + 0.5)
}

// WritePNG encodes img to path
func WritePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

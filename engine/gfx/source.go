package gfx

import (
	"fmt"
	"image"

	"github.com/1siamBot/hdr-terrain/engine/terrain"
)

// TextureSource is one of FromFile, FromPixels, FromHeightmap, FromNormalMap
// or FromCubemapFaces.
type TextureSource interface {
	Label() string
	// Validate reports a malformed source with an error wrapping ErrInvalidSource
	Validate() error
	textureSource()
}

// PlanarSource is a source that decodes to a single 2D image
type PlanarSource interface {
	TextureSource
	Pixels() (*Pixels, error)
	Policy() Sampling
}

// FromFile loads an image file. MaxSize > 0 downscales larger images.
type FromFile struct {
	Path     string
	Sampling Sampling
	MaxSize  int
}

func (FromFile) textureSource()     {}
func (s FromFile) Label() string    { return s.Path }
func (s FromFile) Policy() Sampling { return s.Sampling }

func (s FromFile) Validate() error {
	if s.Path == "" {
		return fmt.Errorf("%w: empty file path", ErrInvalidSource)
	}
	return nil
}

func (s FromFile) Pixels() (*Pixels, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	img, err := DecodeImageFile(s.Path)
	if err != nil {
		return nil, err
	}
	if s.MaxSize > 0 {
		img = FitImage(img, s.MaxSize)
	}
	return PixelsFromImage(img), nil
}

// FromPixels creates a texture from raw RGBA float texels
type FromPixels struct {
	Name          string
	Width, Height int
	Format        Format
	Pix           []float32 // 4 components per texel, row-major
	Sampling      Sampling
}

func (FromPixels) textureSource()     {}
func (s FromPixels) Label() string    { return s.Name }
func (s FromPixels) Policy() Sampling { return s.Sampling }

func (s FromPixels) Validate() error {
	if s.Width <= 0 || s.Height <= 0 {
		return fmt.Errorf("%w: %s has size %dx%d", ErrInvalidSource, s.Name, s.Width, s.Height)
	}
	if len(s.Pix) != s.Width*s.Height*4 {
		return fmt.Errorf("%w: %s has %d components, want %d", ErrInvalidSource, s.Name, len(s.Pix), s.Width*s.Height*4)
	}
	return nil
}

func (s FromPixels) Pixels() (*Pixels, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &Pixels{Width: s.Width, Height: s.Height, Format: s.Format, Pix: s.Pix}, nil
}

// FromImage wraps an in-memory image as a FromPixels source
func FromImage(name string, img image.Image, sampling Sampling) FromPixels {
	p := PixelsFromImage(img)
	return FromPixels{Name: name, Width: p.Width, Height: p.Height, Format: FormatRGBA8, Pix: p.Pix, Sampling: sampling}
}

// FromHeightmap uploads a height grid as an R8 texture
type FromHeightmap struct {
	Grid *terrain.HeightGrid
}

func (FromHeightmap) textureSource()   {}
func (FromHeightmap) Label() string    { return "heightmap" }
func (FromHeightmap) Policy() Sampling { return Sampling{Filter: FilterLinear, Wrap: WrapClamp} }

func (s FromHeightmap) Validate() error {
	if s.Grid == nil || s.Grid.Width <= 0 || s.Grid.Height <= 0 {
		return fmt.Errorf("%w: empty height grid", ErrInvalidSource)
	}
	return nil
}

func (s FromHeightmap) Pixels() (*Pixels, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	g := s.Grid
	p := NewPixels(g.Width, g.Height, FormatR8)
	for i, b := range g.Bytes() {
		v := float32(b) / 255
		p.Pix[i*4+0], p.Pix[i*4+1], p.Pix[i*4+2], p.Pix[i*4+3] = v, v, v, 1
	}
	return p, nil
}

// FromNormalMap uploads a normal grid as an RGB32F texture
type FromNormalMap struct {
	Grid *terrain.NormalGrid
}

func (FromNormalMap) textureSource()   {}
func (FromNormalMap) Label() string    { return "normalmap" }
func (FromNormalMap) Policy() Sampling { return Sampling{Filter: FilterLinear, Wrap: WrapClamp} }

func (s FromNormalMap) Validate() error {
	if s.Grid == nil || s.Grid.Width <= 0 || s.Grid.Height <= 0 {
		return fmt.Errorf("%w: empty normal grid", ErrInvalidSource)
	}
	return nil
}

func (s FromNormalMap) Pixels() (*Pixels, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	g := s.Grid
	p := NewPixels(g.Width, g.Height, FormatRGB32F)
	f := g.Floats()
	for i := 0; i < g.Width*g.Height; i++ {
		p.Pix[i*4+0], p.Pix[i*4+1], p.Pix[i*4+2], p.Pix[i*4+3] = f[i*3], f[i*3+1], f[i*3+2], 1
	}
	return p, nil
}

// Cube face order
const (
	FaceRight = iota
	FaceLeft
	FaceTop
	FaceBottom
	FaceFront
	FaceBack
)

// FromCubemapFaces loads six square images as a cubemap
type FromCubemapFaces struct {
	Faces [6]string
}

func (FromCubemapFaces) textureSource() {}
func (FromCubemapFaces) Label() string  { return "skybox" }

func (s FromCubemapFaces) Validate() error {
	for i, f := range s.Faces {
		if f == "" {
			return fmt.Errorf("%w: cubemap face %d has no path", ErrInvalidSource, i)
		}
	}
	return nil
}

// FacePixels decodes all faces. Faces must be square and equal in size.
func (s FromCubemapFaces) FacePixels() ([6]*Pixels, error) {
	var faces [6]*Pixels
	if err := s.Validate(); err != nil {
		return faces, err
	}
	for i, path := range s.Faces {
		img, err := DecodeImageFile(path)
		if err != nil {
			return faces, fmt.Errorf("cubemap face %d: %w", i, err)
		}
		faces[i] = PixelsFromImage(img)
		if faces[i].Width != faces[i].Height || faces[i].Width != faces[0].Width {
			return faces, fmt.Errorf("%w: cubemap face %d is %dx%d, want %dx%d square",
				ErrInvalidSource, i, faces[i].Width, faces[i].Height, faces[0].Width, faces[0].Width)
		}
	}
	return faces, nil
}

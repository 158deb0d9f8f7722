// Package gfx defines the capabilities the render pipeline consumes:
// textures, render targets, shader programs and draw submission.
package gfx

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownProgram   = errors.New("gfx: unknown program")
	ErrIncompleteTarget = errors.New("gfx: incomplete render target")
	ErrInvalidSource    = errors.New("gfx: invalid texture source")
	ErrUnsupported      = errors.New("gfx: unsupported by device")
)

// Format is a texel storage format
type Format uint8

const (
	FormatRGBA8 Format = iota
	FormatRGBA16F
	FormatR8
	FormatRGB32F
)

func (f Format) String() string {
	switch f {
	case FormatRGBA8:
		return "RGBA8"
	case FormatRGBA16F:
		return "RGBA16F"
	case FormatR8:
		return "R8"
	case FormatRGB32F:
		return "RGB32F"
	}
	return fmt.Sprintf("Format(%d)", uint8(f))
}

// Float reports whether values outside [0,1] survive a write
func (f Format) Float() bool { return f == FormatRGBA16F || f == FormatRGB32F }

// Channels is the number of stored components
func (f Format) Channels() int {
	switch f {
	case FormatR8:
		return 1
	case FormatRGB32F:
		return 3
	}
	return 4
}

// Filter selects texel interpolation
type Filter uint8

const (
	FilterLinear Filter = iota
	FilterNearest
)

// Wrap selects addressing outside [0,1]
type Wrap uint8

const (
	WrapRepeat Wrap = iota
	WrapClamp
)

// Sampling is the filter/wrap policy of a texture or target
type Sampling struct {
	Filter Filter
	Wrap   Wrap
}

// Texture is a sampleable image owned by a device
type Texture interface {
	Label() string
	Size() (w, h int)
	Format() Format
}

// TargetSpec describes an off-screen render target
type TargetSpec struct {
	Label       string
	Width       int
	Height      int
	Format      Format
	Attachments int // color outputs written by one draw; 0 means 1
	Depth       bool
	Sampling    Sampling
}

// ColorAttachments returns the attachment count with the default applied
func (s TargetSpec) ColorAttachments() int {
	if s.Attachments < 1 {
		return 1
	}
	return s.Attachments
}

// Target is a render target with one or more color attachments
type Target interface {
	Label() string
	Size() (w, h int)
	Format() Format
	Attachments() int
	Attachment(i int) Texture
	HasDepth() bool
	// Status returns nil when the target can be drawn to, otherwise an
	// error wrapping ErrIncompleteTarget.
	Status() error
}

// ProgramSpec names a shader program and declares the uniforms the
// pipeline will set on it.
type ProgramSpec struct {
	Name     string
	Vertex   string // optional source path; devices with built-in programs ignore it
	Fragment string
	Uniforms []UniformDecl
}

// Program is a linked shader program
type Program interface {
	Name() string
	Uniforms() *UniformTable
}

// MeshKind selects the geometry a draw covers
type MeshKind uint8

const (
	MeshQuad MeshKind = iota
	MeshSphere
	MeshSkybox
	MeshTerrain
)

func (m MeshKind) String() string {
	switch m {
	case MeshQuad:
		return "quad"
	case MeshSphere:
		return "sphere"
	case MeshSkybox:
		return "skybox"
	case MeshTerrain:
		return "terrain"
	}
	return fmt.Sprintf("MeshKind(%d)", uint8(m))
}

// DepthMode is the depth test for a draw
type DepthMode uint8

const (
	DepthOff DepthMode = iota
	DepthLess
)

// DrawCall is one pass submission
type DrawCall struct {
	Pass    string
	Program Program
	Mesh    MeshKind
	// Inputs are bound to texture units in order. A nil entry is unbound.
	Inputs []Texture
	// Output receives every color attachment. nil draws to the display.
	Output     Target
	Clear      bool
	ClearColor [4]float32
	Depth      DepthMode
}

// Device is a graphics backend. Draw runs to completion before returning,
// so calls issued in sequence execute in sequence.
type Device interface {
	LoadTexture(src TextureSource) (Texture, error)
	NewTarget(spec TargetSpec) (Target, error)
	CompileProgram(spec ProgramSpec) (Program, error)
	Draw(call DrawCall) error
	DisplaySize() (w, h int)
}

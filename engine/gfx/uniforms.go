package gfx

import (
	"fmt"
	"log"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// UniformKind is the type of a uniform slot
type UniformKind uint8

const (
	UniformBool UniformKind = iota
	UniformInt
	UniformFloat
	UniformVec2
	UniformVec3
	UniformMat4
)

func (k UniformKind) String() string {
	switch k {
	case UniformBool:
		return "bool"
	case UniformInt:
		return "int"
	case UniformFloat:
		return "float"
	case UniformVec2:
		return "vec2"
	case UniformVec3:
		return "vec3"
	case UniformMat4:
		return "mat4"
	}
	return fmt.Sprintf("UniformKind(%d)", uint8(k))
}

// UniformDecl declares one uniform of a program
type UniformDecl struct {
	Name string
	Kind UniformKind
}

// Uniform is a handle resolved once with Lookup. The zero value is an
// invalid handle.
type Uniform struct {
	slot int // index+1; 0 is invalid
	name string
}

// Valid reports whether the handle refers to a declared uniform
func (u Uniform) Valid() bool { return u.slot > 0 }

func (u Uniform) index() int { return u.slot - 1 }

// Name is the uniform name the handle was looked up with
func (u Uniform) Name() string { return u.name }

// UniformValue holds one uniform. Scalars use F[0]; vectors use the leading
// components; matrices use all 16 in column-major order.
type UniformValue struct {
	Kind UniformKind
	I    int32
	F    [16]float32
}

// Bool returns the value as a bool
func (v UniformValue) Bool() bool { return v.I != 0 }

// Floats returns the used float components
func (v UniformValue) Floats() []float32 {
	switch v.Kind {
	case UniformFloat:
		return v.F[:1]
	case UniformVec2:
		return v.F[:2]
	case UniformVec3:
		return v.F[:3]
	case UniformMat4:
		return v.F[:16]
	}
	return nil
}

// UniformTable stores the uniform values of one program. Values are written
// between draws and read during a draw; it is not safe to set values while a
// draw using the table is running.
type UniformTable struct {
	program string
	decls   []UniformDecl
	index   map[string]int
	values  []UniformValue

	logger *log.Logger
	mu     sync.Mutex
	warned map[string]bool
}

// NewUniformTable builds a table for the declared uniforms. Diagnostics for
// unresolved handles go to logger; a nil logger discards them.
func NewUniformTable(program string, decls []UniformDecl, logger *log.Logger) *UniformTable {
	t := &UniformTable{
		program: program,
		decls:   append([]UniformDecl(nil), decls...),
		index:   make(map[string]int, len(decls)),
		values:  make([]UniformValue, len(decls)),
		logger:  logger,
		warned:  make(map[string]bool),
	}
	for i, d := range t.decls {
		t.index[d.Name] = i
		t.values[i].Kind = d.Kind
		if d.Kind == UniformMat4 {
			t.values[i].F = mgl32.Ident4()
		}
	}
	return t
}

// Program is the name of the program the table belongs to
func (t *UniformTable) Program() string { return t.program }

// Decls returns the declarations in slot order
func (t *UniformTable) Decls() []UniformDecl { return t.decls }

// Len is the number of slots
func (t *UniformTable) Len() int { return len(t.decls) }

// Value returns slot i
func (t *UniformTable) Value(i int) UniformValue { return t.values[i] }

// Lookup resolves name to a handle. A missing name or a kind mismatch
// returns an invalid handle and logs once.
func (t *UniformTable) Lookup(name string, kind UniformKind) Uniform {
	i, ok := t.index[name]
	if !ok {
		t.warn(name, fmt.Sprintf("%s: uniform %q not declared", t.program, name))
		return Uniform{name: name}
	}
	if t.decls[i].Kind != kind {
		t.warn(name, fmt.Sprintf("%s: uniform %q is %s, looked up as %s", t.program, name, t.decls[i].Kind, kind))
		return Uniform{name: name}
	}
	return Uniform{slot: i + 1, name: name}
}

func (t *UniformTable) warn(name, msg string) {
	if t.logger == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.warned[name] {
		return
	}
	t.warned[name] = true
	t.logger.Print(msg)
}

func (t *UniformTable) slot(u Uniform, kind UniformKind) *UniformValue {
	i := u.index()
	if i < 0 || i >= len(t.values) || t.values[i].Kind != kind {
		t.warn(u.name, fmt.Sprintf("%s: set on unresolved uniform %q ignored", t.program, u.name))
		return nil
	}
	return &t.values[i]
}

func (t *UniformTable) SetBool(u Uniform, v bool) {
	if s := t.slot(u, UniformBool); s != nil {
		s.I = 0
		if v {
			s.I = 1
		}
	}
}

func (t *UniformTable) SetInt(u Uniform, v int) {
	if s := t.slot(u, UniformInt); s != nil {
		s.I = int32(v)
	}
}

func (t *UniformTable) SetFloat(u Uniform, v float32) {
	if s := t.slot(u, UniformFloat); s != nil {
		s.F[0] = v
	}
}

func (t *UniformTable) SetVec2(u Uniform, v mgl32.Vec2) {
	if s := t.slot(u, UniformVec2); s != nil {
		copy(s.F[:2], v[:])
	}
}

func (t *UniformTable) SetVec3(u Uniform, v mgl32.Vec3) {
	if s := t.slot(u, UniformVec3); s != nil {
		copy(s.F[:3], v[:])
	}
}

func (t *UniformTable) SetMat4(u Uniform, v mgl32.Mat4) {
	if s := t.slot(u, UniformMat4); s != nil {
		s.F = v
	}
}

// Getters return the zero value for invalid handles and never log; they run
// inside draws.

func (t *UniformTable) Bool(u Uniform) bool {
	if !t.readable(u, UniformBool) {
		return false
	}
	return t.values[u.index()].I != 0
}

func (t *UniformTable) Int(u Uniform) int {
	if !t.readable(u, UniformInt) {
		return 0
	}
	return int(t.values[u.index()].I)
}

func (t *UniformTable) Float(u Uniform) float32 {
	if !t.readable(u, UniformFloat) {
		return 0
	}
	return t.values[u.index()].F[0]
}

func (t *UniformTable) Vec2(u Uniform) mgl32.Vec2 {
	if !t.readable(u, UniformVec2) {
		return mgl32.Vec2{}
	}
	f := t.values[u.index()].F
	return mgl32.Vec2{f[0], f[1]}
}

func (t *UniformTable) Vec3(u Uniform) mgl32.Vec3 {
	if !t.readable(u, UniformVec3) {
		return mgl32.Vec3{}
	}
	f := t.values[u.index()].F
	return mgl32.Vec3{f[0], f[1], f[2]}
}

func (t *UniformTable) Mat4(u Uniform) mgl32.Mat4 {
	if !t.readable(u, UniformMat4) {
		return mgl32.Ident4()
	}
	return mgl32.Mat4(t.values[u.index()].F)
}

func (t *UniformTable) readable(u Uniform, kind UniformKind) bool {
	i := u.index()
	return i >= 0 && i < len(t.values) && t.values[i].Kind == kind
}

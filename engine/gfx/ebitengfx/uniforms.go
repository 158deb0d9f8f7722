package ebitengfx

import (
	"unicode"
	"unicode/utf8"

	"github.com/1siamBot/hdr-terrain/engine/gfx"
)

// layout maps a program to its Kage file. inputs selects which draw inputs
// reach the shader's four image slots; -1 is the output of pre.
type layout struct {
	file   string
	inputs []int
	pre    *layout
}

var layouts = map[string]layout{
	"scene.sky":     {file: "sky.kage"},
	"scene.sun":     {file: "sun.kage"},
	"scene.terrain": {file: "terrain.kage"},
	"downsample":    {file: "downsample.kage"},
	"blur":          {file: "blur.kage"},
	// Six inputs do not fit in four image slots: the flare is gathered first.
	"composite": {
		file:   "composite.kage",
		inputs: []int{0, 1, -1},
		pre:    &layout{file: "flare.kage", inputs: []int{2, 3, 4, 5}},
	},
}

// kageName exports a uniform name: Kage uniforms are exported package vars
func kageName(name string) string {
	r, n := utf8.DecodeRuneInString(name)
	if n == 0 {
		return name
	}
	return string(unicode.ToUpper(r)) + name[n:]
}

// kageValue converts a uniform to what DrawRectShaderOptions accepts.
// Bools and ints become floats.
func kageValue(v gfx.UniformValue) any {
	switch v.Kind {
	case gfx.UniformBool:
		return boolFloat(v.Bool())
	case gfx.UniformInt:
		return float32(v.I)
	case gfx.UniformFloat:
		return v.F[0]
	}
	return append([]float32(nil), v.Floats()...)
}

func uniformMap(t *gfx.UniformTable) map[string]any {
	m := make(map[string]any, t.Len()+8)
	for i, d := range t.Decls() {
		m[kageName(d.Name)] = kageValue(t.Value(i))
	}
	return m
}

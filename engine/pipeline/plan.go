package pipeline

import (
	"fmt"

	"github.com/1siamBot/hdr-terrain/engine/gfx"
)

// Resource names a texture a stage reads or a target a stage writes
type Resource uint8

const (
	SceneColor  Resource = iota // scene target, attachment 0: full lit scene
	SceneBright                 // scene target, attachment 1: emissive and bright contributions
	Downsample
	PingA // ping-pong buffer 0; always holds the final bloom
	PingB // ping-pong buffer 1
	Display

	// Static textures, uploaded once at startup
	Height
	Normal
	Rocks
	Snow
	Skybox
	ColorGradient
	LensDirt
	Starburst
)

var resourceNames = [...]string{
	SceneColor:    "scene.color",
	SceneBright:   "scene.bright",
	Downsample:    "downsample",
	PingA:         "pingpong[0]",
	PingB:         "pingpong[1]",
	Display:       "display",
	Height:        "heightmap",
	Normal:        "normalmap",
	Rocks:         "rocks",
	Snow:          "snow",
	Skybox:        "skybox",
	ColorGradient: "colorGradient",
	LensDirt:      "lensDirt",
	Starburst:     "starBurst",
}

func (r Resource) String() string {
	if int(r) < len(resourceNames) {
		return resourceNames[r]
	}
	return fmt.Sprintf("Resource(%d)", uint8(r))
}

// Static reports whether r is uploaded once rather than rendered each frame
func (r Resource) Static() bool { return r >= Height }

// Pass groups the stages that together produce one set of targets
type Pass string

const (
	PassScene      Pass = "scene"
	PassDownsample Pass = "downsample"
	PassBloom      Pass = "bloom"
	PassComposite  Pass = "composite"
)

// Program names
const (
	ProgramSky        = "scene.sky"
	ProgramSun        = "scene.sun"
	ProgramTerrain    = "scene.terrain"
	ProgramDownsample = "downsample"
	ProgramBlur       = "blur"
	ProgramComposite  = "composite"
)

// Stage is one draw of the frame
type Stage struct {
	Name       string
	Pass       Pass
	Program    string
	Mesh       gfx.MeshKind
	Inputs     []Resource
	Outputs    []Resource
	Clear      bool
	Depth      gfx.DepthMode
	Horizontal bool // blur direction
}

func (s Stage) reads(r Resource) bool {
	for _, in := range s.Inputs {
		if in == r {
			return true
		}
	}
	return false
}

// Plan returns the stages of one frame for the given number of bloom
// iterations. Each iteration is a horizontal then a vertical blur; the first
// reads the downsampled bright pass and every iteration ends in PingA, so the
// composite binding does not depend on the count. iterations < 1 is treated
// as 1.
func Plan(iterations int) []Stage {
	if iterations < 1 {
		iterations = 1
	}
	scene := []Resource{SceneColor, SceneBright}
	stages := []Stage{
		{Name: "scene.sky", Pass: PassScene, Program: ProgramSky, Mesh: gfx.MeshSkybox,
			Inputs: []Resource{Skybox}, Outputs: scene, Clear: true},
		{Name: "scene.sun", Pass: PassScene, Program: ProgramSun, Mesh: gfx.MeshSphere,
			Outputs: scene, Depth: gfx.DepthLess},
		{Name: "scene.terrain", Pass: PassScene, Program: ProgramTerrain, Mesh: gfx.MeshTerrain,
			Inputs: []Resource{Rocks, Snow, Normal, Height}, Outputs: scene, Depth: gfx.DepthLess},
		{Name: "downsample", Pass: PassDownsample, Program: ProgramDownsample, Mesh: gfx.MeshQuad,
			Inputs: []Resource{SceneBright}, Outputs: []Resource{Downsample}, Clear: true},
	}
	for i := 0; i < iterations; i++ {
		src := PingA
		if i == 0 {
			src = Downsample
		}
		stages = append(stages,
			Stage{Name: fmt.Sprintf("blur.h[%d]", i), Pass: PassBloom, Program: ProgramBlur, Mesh: gfx.MeshQuad,
				Inputs: []Resource{src}, Outputs: []Resource{PingB}, Horizontal: true},
			Stage{Name: fmt.Sprintf("blur.v[%d]", i), Pass: PassBloom, Program: ProgramBlur, Mesh: gfx.MeshQuad,
				Inputs: []Resource{PingB}, Outputs: []Resource{PingA}},
		)
	}
	stages = append(stages, Stage{
		Name: "composite", Pass: PassComposite, Program: ProgramComposite, Mesh: gfx.MeshQuad,
		Inputs:  []Resource{SceneColor, PingA, Downsample, ColorGradient, LensDirt, Starburst},
		Outputs: []Resource{Display}, Clear: true,
	})
	return stages
}

// Validate checks the ordering rules of a plan: every rendered input is
// written by an earlier stage, no stage reads what it writes, each target is
// written by exactly one pass, and the plan ends on the display.
func Validate(stages []Stage) error {
	if len(stages) == 0 {
		return fmt.Errorf("empty plan")
	}
	written := make(map[Resource]bool)
	writer := make(map[Resource]Pass)
	for i, s := range stages {
		for _, in := range s.Inputs {
			if in == Display {
				return fmt.Errorf("stage %d (%s) reads the display", i, s.Name)
			}
			if !in.Static() && !written[in] {
				return fmt.Errorf("stage %d (%s) reads %s before it is written", i, s.Name, in)
			}
		}
		if len(s.Outputs) == 0 {
			return fmt.Errorf("stage %d (%s) has no output", i, s.Name)
		}
		for _, out := range s.Outputs {
			if out.Static() {
				return fmt.Errorf("stage %d (%s) writes static texture %s", i, s.Name, out)
			}
			if s.reads(out) {
				return fmt.Errorf("stage %d (%s) reads and writes %s", i, s.Name, out)
			}
			if p, ok := writer[out]; ok && p != s.Pass {
				return fmt.Errorf("%s written by passes %s and %s", out, p, s.Pass)
			}
			writer[out] = s.Pass
			written[out] = true
		}
	}
	last := stages[len(stages)-1]
	if len(last.Outputs) != 1 || last.Outputs[0] != Display {
		return fmt.Errorf("plan ends with %s, not the display", last.Name)
	}
	return nil
}

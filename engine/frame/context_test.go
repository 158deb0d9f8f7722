package frame

import (
	"testing"

	"github.com/1siamBot/hdr-terrain/engine/render3d"
	"github.com/1siamBot/hdr-terrain/engine/sun"
)

func TestAdvance(t *testing.T) {
	c := New(render3d.NewCamera3D(1920, 1080), sun.NewController(sun.DefaultConfig()).NewState(), 1920, 1080)
	c.Advance(0.5)
	c.Advance(0.25)
	c.Advance(-1)
	if c.Frame != 3 || c.Time != 0.75 || c.DeltaTime != 0 {
		t.Fatalf("frame %d time %g dt %g", c.Frame, c.Time, c.DeltaTime)
	}
}

func TestResizeUpdatesCameraViewport(t *testing.T) {
	cam := render3d.NewCamera3D(1920, 1080)
	c := New(cam, sun.State{}, 1920, 1080)
	c.Resize(800, 600)
	if cam.ScreenW != 800 || cam.ScreenH != 600 {
		t.Fatalf("camera viewport %dx%d", cam.ScreenW, cam.ScreenH)
	}
	c.Resize(0, 600)
	if c.Viewport.Width != 800 {
		t.Fatal("zero width must be ignored")
	}
	if a := (Viewport{1920, 1080}).Aspect(); a < 1.777 || a > 1.778 {
		t.Fatalf("aspect %g", a)
	}
}

func TestStepRefreshesLight(t *testing.T) {
	ctrl := sun.NewController(sun.DefaultConfig())
	c := New(render3d.NewCamera3D(64, 64), ctrl.NewState(), 64, 64)
	start := c.Sun.Position
	c.Step(ctrl, 1.0/60)
	if c.Frame != 1 {
		t.Fatalf("frame = %d", c.Frame)
	}
	if c.Sun.Position == start {
		t.Error("moving sun did not move")
	}
	if c.Light.Position != c.Sun.Position || c.Light.Diffuse != c.Sun.Color {
		t.Errorf("light %+v does not follow sun %+v", c.Light, c.Sun)
	}
	if c.Light.Ambient != ctrl.Config().Ambient {
		t.Errorf("ambient = %+v", c.Light.Ambient)
	}
}

package sun

import (
	"math"
	"math/rand"
	"testing"

	"github.com/1siamBot/hdr-terrain/engine/render3d"
)

// positionAtAngle returns a point on the orbit plane whose angle to the
// reference direction (1,0,1) is deg degrees.
func positionAtAngle(deg float64) render3d.Vec3 {
	rad := deg * math.Pi / 180
	h := math.Cos(rad) / math.Sqrt2
	return render3d.V3(h, math.Sin(rad), h)
}

func TestExposureStaysInBounds(t *testing.T) {
	cfg := DefaultConfig()
	c := NewController(cfg)
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 20; run++ {
		s := c.NewState()
		for i := 0; i < 2000; i++ {
			dt := rng.Float64() * 0.1
			if i%97 == 0 {
				dt = rng.Float64() * 5 // occasional long hitch
			}
			c.Update(&s, dt)
			if s.Exposure < cfg.MinExposure || s.Exposure > cfg.MaxExposure {
				t.Fatalf("run %d step %d: exposure %g outside [%g, %g]",
					run, i, s.Exposure, cfg.MinExposure, cfg.MaxExposure)
			}
		}
	}
}

func TestNearHorizonStartsWaitingAndFlips(t *testing.T) {
	c := NewController(DefaultConfig())
	s := c.NewState()
	s.Position = positionAtAngle(4)

	c.Update(&s, 1.0/60)
	if s.Phase != Waiting {
		t.Fatalf("phase = %v, want waiting", s.Phase)
	}
	if !s.Reverse {
		t.Fatal("direction should flip on the same update")
	}
	if math.Abs(s.Angle-4) > 1e-6 {
		t.Fatalf("measured angle %g, want 4", s.Angle)
	}
}

func TestFarHorizonWhileReversedFlipsBack(t *testing.T) {
	c := NewController(DefaultConfig())
	s := c.NewState()
	s.Reverse = true
	s.Position = positionAtAngle(176)

	c.Update(&s, 1.0/60)
	if s.Phase != Waiting || s.Reverse {
		t.Fatalf("got phase %v reverse %v, want waiting with reverse cleared", s.Phase, s.Reverse)
	}
}

func TestHorizonBehindDoesNotTrigger(t *testing.T) {
	c := NewController(DefaultConfig())
	s := c.NewState()
	s.Position = positionAtAngle(176) // heading away from this side

	c.Update(&s, 1.0/60)
	if s.Phase != Moving || s.Reverse {
		t.Fatalf("got phase %v reverse %v, want moving forward", s.Phase, s.Reverse)
	}
}

func TestWaitingResumesAfterIdle(t *testing.T) {
	cfg := DefaultConfig()
	c := NewController(cfg)
	s := c.NewState()
	s.Position = positionAtAngle(4)
	c.Update(&s, 0.01)
	if s.Phase != Waiting {
		t.Fatalf("setup: phase %v", s.Phase)
	}
	pos := s.Position

	c.Update(&s, cfg.IdleTime/2)
	if s.Phase != Waiting || s.Position != pos {
		t.Fatalf("sun must hold still while waiting, phase %v", s.Phase)
	}
	c.Update(&s, cfg.IdleTime/2)
	if s.Phase != Moving {
		t.Fatalf("phase = %v after idle time, want moving", s.Phase)
	}
	if !s.Reverse {
		t.Fatal("resumed sun should keep the flipped direction")
	}
	if s.Timer != 0 {
		t.Fatalf("timer not reset: %g", s.Timer)
	}
}

func TestZenithBlendsTowardCoolAndMaxExposure(t *testing.T) {
	cfg := DefaultConfig()
	c := NewController(cfg)
	s := c.NewState()
	s.Position = positionAtAngle(90)
	s.Color = cfg.Warm
	s.Exposure = cfg.MinExposure

	c.Update(&s, 1.0/60)
	if s.Exposure <= cfg.MinExposure {
		t.Fatalf("exposure %g did not rise toward max", s.Exposure)
	}
	if s.Color.G <= cfg.Warm.G || s.Color.B <= cfg.Warm.B {
		t.Fatalf("color %+v did not move toward the cool palette", s.Color)
	}
	if s.Step <= 1.0/60*cfg.DesiredSpeed {
		t.Fatalf("step %g should accelerate beyond dt*speed", s.Step)
	}
}

func TestApproachingHorizonWarmsAndDims(t *testing.T) {
	cfg := DefaultConfig()
	c := NewController(cfg)
	s := c.NewState()
	s.Position = positionAtAngle(45)

	c.Update(&s, 1.0/60)
	if s.Exposure >= cfg.MaxExposure {
		t.Fatalf("exposure %g did not dim", s.Exposure)
	}
	if s.Color.B >= cfg.Cool.B {
		t.Fatalf("color %+v did not warm", s.Color)
	}
	if s.Step <= 0 || s.Step >= 1.0/60*cfg.DesiredSpeed {
		t.Fatalf("step %g should decelerate below dt*speed", s.Step)
	}
}

func TestPositionStaysOnOrbit(t *testing.T) {
	cfg := DefaultConfig()
	c := NewController(cfg)
	s := c.NewState()
	for i := 0; i < 500; i++ {
		c.Update(&s, 1.0/60)
		p := s.Position
		// (-R cos a, R sin a, -R cos a): y^2 + x^2 = R^2
		if r := math.Hypot(p.X, p.Y); math.Abs(r-cfg.Radius) > 1e-9 {
			t.Fatalf("step %d: radius %g, want %g", i, r, cfg.Radius)
		}
		if p.X != p.Z {
			t.Fatalf("step %d: sun left the diagonal: %+v", i, p)
		}
	}
}

func TestStationary(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Stationary = true
	c := NewController(cfg)
	s := c.NewState()
	if s.Phase != Stationary || s.Position != cfg.StationaryPosition {
		t.Fatalf("got %v at %+v", s.Phase, s.Position)
	}
	before := s
	for i := 0; i < 10; i++ {
		c.Update(&s, 0.5)
	}
	if s != before {
		t.Fatalf("stationary sun changed: %v -> %v", before, s)
	}

	c.SetStationary(&s, false)
	if s.Phase != Moving || s.Position != c.PositionAt(s.Arc) {
		t.Fatalf("release: %v", s)
	}
	c.SetStationary(&s, true)
	if s.Position != cfg.StationaryPosition {
		t.Fatalf("pin: %v", s)
	}
}

func TestEaseInOutSine(t *testing.T) {
	for _, tc := range []struct{ x, want float64 }{{0, 0}, {0.5, 0.5}, {1, 1}} {
		if got := EaseInOutSine(tc.x); math.Abs(got-tc.want) > 1e-12 {
			t.Errorf("ease(%g) = %g, want %g", tc.x, got, tc.want)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	cfg.MinExposure, cfg.MaxExposure = 1, 0.5
	if cfg.Validate() == nil {
		t.Fatal("inverted exposure bounds accepted")
	}
}

func TestLongFramesStillReachHorizon(t *testing.T) {
	for _, dt := range []float64{1.0 / 60, 1.0 / 30, 0.1, 0.25} {
		c := NewController(DefaultConfig())
		s := c.NewState()
		frames := 0
		for s.Phase != Waiting {
			c.Update(&s, dt)
			frames++
			if frames > 100000 {
				t.Fatalf("dt=%g: no waiting phase after %d frames, angle %g step %g", dt, frames, s.Angle, s.Step)
			}
		}
		if !s.Reverse {
			t.Fatalf("dt=%g: direction should flip on reaching the horizon", dt)
		}
		if s.Angle >= HorizonAngle {
			t.Fatalf("dt=%g: waiting at angle %g", dt, s.Angle)
		}
	}
}

func TestLongFrameMatchesSubSteps(t *testing.T) {
	c := NewController(DefaultConfig())
	long, short := c.NewState(), c.NewState()
	for i := 0; i < 20; i++ {
		c.Update(&long, 6*MaxStep)
		for j := 0; j < 6; j++ {
			c.Update(&short, MaxStep)
		}
	}
	if math.Abs(long.Arc-short.Arc) > 1e-9 || math.Abs(long.Exposure-short.Exposure) > 1e-9 {
		t.Fatalf("long frames arc %g exposure %g, sub-steps arc %g exposure %g",
			long.Arc, long.Exposure, short.Arc, short.Exposure)
	}
}

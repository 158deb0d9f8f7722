package pipeline

import (
	"strings"
	"testing"
)

func TestPlanOrder(t *testing.T) {
	var names []string
	for _, s := range Plan(2) {
		names = append(names, s.Name)
	}
	want := "scene.sky scene.sun scene.terrain downsample blur.h[0] blur.v[0] blur.h[1] blur.v[1] composite"
	if got := strings.Join(names, " "); got != want {
		t.Fatalf("plan order:\n got %s\nwant %s", got, want)
	}
}

func TestBlurBoundariesIndependentOfIterations(t *testing.T) {
	for _, n := range []int{1, 2, 3, 7, 50, 100} {
		stages := Plan(n)
		if err := Validate(stages); err != nil {
			t.Fatalf("n=%d: %v", n, err)
		}
		var blurs []Stage
		var composite Stage
		for _, s := range stages {
			switch s.Pass {
			case PassBloom:
				blurs = append(blurs, s)
			case PassComposite:
				composite = s
			}
		}
		if len(blurs) != 2*n {
			t.Fatalf("n=%d: %d blur stages", n, len(blurs))
		}
		first, last := blurs[0], blurs[len(blurs)-1]
		if first.Inputs[0] != Downsample || first.Outputs[0] != PingB || !first.Horizontal {
			t.Errorf("n=%d: first blur reads %v writes %v", n, first.Inputs, first.Outputs)
		}
		if last.Outputs[0] != PingA || last.Horizontal {
			t.Errorf("n=%d: last blur writes %v", n, last.Outputs)
		}
		if composite.Inputs[1] != PingA || composite.Inputs[2] != Downsample {
			t.Errorf("n=%d: composite reads %v", n, composite.Inputs)
		}
		for i, s := range blurs {
			if s.Inputs[0] == s.Outputs[0] {
				t.Errorf("n=%d: blur %d reads and writes %v", n, i, s.Outputs[0])
			}
			if s.Horizontal != (i%2 == 0) {
				t.Errorf("n=%d: blur %d direction out of order", n, i)
			}
		}
	}
}

func TestPlanClampsIterations(t *testing.T) {
	if len(Plan(0)) != len(Plan(1)) || len(Plan(-4)) != len(Plan(1)) {
		t.Fatal("non-positive iteration counts should behave as 1")
	}
}

func TestValidateRejectsBadPlans(t *testing.T) {
	base := Plan(1)
	cases := map[string]func([]Stage) []Stage{
		"self read": func(s []Stage) []Stage {
			s[4].Inputs = []Resource{PingB}
			return s
		},
		"read before write": func(s []Stage) []Stage {
			return append([]Stage{s[4]}, s...)
		},
		"static write": func(s []Stage) []Stage {
			s[3].Outputs = []Resource{Height}
			return s
		},
		"two writers": func(s []Stage) []Stage {
			s[3].Outputs = []Resource{PingA}
			return s
		},
		"reads display": func(s []Stage) []Stage {
			s[6].Inputs = append([]Resource{Display}, s[6].Inputs...)
			return s
		},
		"no display": func(s []Stage) []Stage {
			return s[:len(s)-1]
		},
	}
	for name, mutate := range cases {
		stages := make([]Stage, len(base))
		copy(stages, base)
		if err := Validate(mutate(stages)); err == nil {
			t.Errorf("%s: plan accepted", name)
		}
	}
	if Validate(nil) == nil {
		t.Error("empty plan accepted")
	}
}

func TestResourceNames(t *testing.T) {
	if PingA.String() != "pingpong[0]" || Starburst.String() != "starBurst" {
		t.Fatal("resource names changed")
	}
	if !Height.Static() || PingA.Static() || Display.Static() {
		t.Fatal("static classification wrong")
	}
}

package willow3d

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

func TestLoadTestScript(t *testing.T) {
	r, err := LoadTestScript([]byte(`
steps:
  - action: style
    style: wireframe
  - action: wait
    frames: 2
  - action: screenshot
    label: wire
`))
	if err != nil {
		t.Fatal(err)
	}
	if len(r.steps) != 3 {
		t.Errorf("steps = %d, want 3", len(r.steps))
	}
}

func TestLoadTestScriptJSON(t *testing.T) {
	r, err := LoadTestScript([]byte(`{"steps":[{"action":"screenshot","label":"x"}]}`))
	if err != nil {
		t.Fatal(err)
	}
	if r.steps[0].Label != "x" {
		t.Errorf("Label = %q, want x", r.steps[0].Label)
	}
}

func TestLoadTestScriptErrors(t *testing.T) {
	tests := []struct{ name, doc string }{
		{"empty", "steps: []"},
		{"unknown action", "steps: [{action: click}]"},
		{"unknown style", "steps: [{action: style, style: toon}]"},
		{"malformed", "steps: ["},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := LoadTestScript([]byte(tt.doc)); err == nil {
				t.Error("expected an error")
			}
		})
	}
}

func TestTestRunnerSteps(t *testing.T) {
	r, err := LoadTestScript([]byte(`
steps:
  - {action: style, style: points}
  - {action: wait, frames: 2}
  - {action: viewpoint, eye: [0, 0, 9], fovY: 30}
  - {action: screenshot, label: done}
`))
	if err != nil {
		t.Fatal(err)
	}
	s := NewScene(DefaultConfig())
	s.SetTestRunner(r)

	s.Step(0)
	if s.Styles().Style() != StylePoints {
		t.Errorf("Style = %v after first frame, want points", s.Styles().Style())
	}
	s.Step(0) // wait, frame 1
	s.Step(0) // wait, frame 2
	if r.Done() {
		t.Fatal("runner done too early")
	}
	s.Step(0)
	want := mgl32.LookAtV(mgl32.Vec3{0, 0, 9}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0})
	if s.Camera().View != want {
		t.Errorf("View = %v, want %v", s.Camera().View, want)
	}
	s.Step(0)
	if !r.Done() {
		t.Error("runner should be done after the last step")
	}
	if len(s.screenshots) != 1 || s.screenshots[0] != "done" {
		t.Errorf("screenshots = %v, want [done]", s.screenshots)
	}
}

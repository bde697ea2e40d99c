package willow3d

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

// scriptStep is one action of a test script.
type scriptStep struct {
	Action string     `yaml:"action"`
	Label  string     `yaml:"label,omitempty"`
	Style  string     `yaml:"style,omitempty"`
	Frames int        `yaml:"frames,omitempty"`
	Eye    [3]float32 `yaml:"eye,omitempty"`
	Center [3]float32 `yaml:"center,omitempty"`
	FovY   float32    `yaml:"fovY,omitempty"`
}

type testScript struct {
	Steps []scriptStep `yaml:"steps"`
}

// TestRunner sequences style changes, camera moves and screenshots across
// frames for automated visual testing. Attach it with Scene.SetTestRunner.
type TestRunner struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	done      bool
}

var scriptStyles = map[string]Style{
	"shaded":    StyleShaded,
	"wireframe": StyleWireframe,
	"points":    StylePoints,
}

// LoadTestScript parses a YAML (or JSON) test script. Actions are
// screenshot, wait, style and viewpoint.
func LoadTestScript(data []byte) (*TestRunner, error) {
	var script testScript
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, fmt.Errorf("parse test script: %w", err)
	}
	if len(script.Steps) == 0 {
		return nil, fmt.Errorf("parse test script: no steps")
	}
	for i, st := range script.Steps {
		switch st.Action {
		case "screenshot", "wait", "viewpoint":
		case "style":
			if _, ok := scriptStyles[st.Style]; !ok {
				return nil, fmt.Errorf("parse test script: step %d: unknown style %q", i, st.Style)
			}
		default:
			return nil, fmt.Errorf("parse test script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &TestRunner{steps: script.Steps}, nil
}

// SetTestRunner attaches a runner. It advances once per Update, before the
// frame boundary.
func (s *Scene) SetTestRunner(r *TestRunner) {
	s.mu.Lock()
	s.runner = r
	s.mu.Unlock()
}

// Done reports whether every step has run.
func (r *TestRunner) Done() bool {
	return r.done
}

// step advances the runner by one frame.
func (r *TestRunner) step(s *Scene) {
	if r.done {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.cursor >= len(r.steps) {
		r.done = true
		return
	}

	st := r.steps[r.cursor]
	r.cursor++

	switch st.Action {
	case "screenshot":
		s.Screenshot(st.Label)
	case "style":
		s.styles.SetStyle(scriptStyles[st.Style])
	case "viewpoint":
		fov := st.FovY
		if fov == 0 {
			fov = 45
		}
		s.SetViewpoint(mgl32.Vec3(st.Eye), mgl32.Vec3(st.Center), mgl32.Vec3{0, 1, 0}, fov)
	case "wait":
		if st.Frames > 0 {
			r.waitCount = st.Frames - 1 // this frame counts as one
		}
	}

	if r.cursor >= len(r.steps) && r.waitCount == 0 {
		r.done = true
	}
}

package willow3d

import (
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/phanxgames/willow3d/render"
)

// harness drives a real scheduler and frame state by hand.
type harness struct {
	t     *testing.T
	frame *render.FrameState
	sched *render.Scheduler
	root  *render.Group
	env   *Env

	mu      sync.Mutex
	reports []Report
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		t:     t,
		frame: render.NewFrameState(),
		sched: render.NewScheduler(),
		root:  render.NewGroup(),
	}
	h.env = &Env{FrameState: h.frame, Reporter: h, Caps: Capabilities{PointSprites: true}}
	return h
}

func (h *harness) Report(r Report) {
	h.mu.Lock()
	h.reports = append(h.reports, r)
	h.mu.Unlock()
}

func (h *harness) reportCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.reports)
}

// goLive finishes setup of each shape, adds it under the root and attaches
// the root.
func (h *harness) goLive(shapes ...*Shape) {
	h.t.Helper()
	for _, s := range shapes {
		s.SetupFinished()
		h.root.AddChild(s.RenderShape())
	}
	h.sched.Attach(h.root)
	h.step()
	if !h.root.IsLive() {
		h.t.Fatal("root is not live after attach")
	}
}

// step ends the frame and runs boundaries until no work is left.
func (h *harness) step() {
	h.t.Helper()
	for i := 0; i < 8; i++ {
		h.frame.EndFrame()
		st := h.sched.Boundary()
		b, d := h.sched.Pending()
		if st == (render.Stats{}) && b == 0 && d == 0 && h.frame.Pending() == 0 {
			return
		}
	}
	h.t.Fatal("graph did not settle")
}

// litShape builds a shape with a material and a triangle.
func (h *harness) litShape() (*Shape, *Appearance, *Material) {
	m := NewMaterial()
	a := NewAppearance(h.env)
	a.SetMaterial(m)
	s := NewShape(h.env)
	if err := s.SetAppearance(a); err != nil {
		h.t.Fatalf("SetAppearance: %v", err)
	}
	if err := s.SetGeometry(triangle()); err != nil {
		h.t.Fatalf("SetGeometry: %v", err)
	}
	return s, a, m
}

func triangle() *TriangleSet {
	g := NewTriangleSet()
	g.SetCoords(triangleCoords)
	return g
}

func solidImage(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func grayImage(w, h int) image.Image {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0x80
	}
	return img
}

// expectPanic fails the test unless fn panics.
func expectPanic(t *testing.T, name string, fn func()) {
	t.Helper()
	defer func() {
		if r := recover(); r == nil {
			t.Errorf("%s did not panic", name)
		}
	}()
	fn()
}

package willow3d

import (
	"image/color"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/phanxgames/willow3d/render"
)

// Scene owns the live render graph and drives its frame loop: end-of-frame
// callbacks, the scheduler boundary and drawing.
type Scene struct {
	cfg      Config
	env      *Env
	frame    *render.FrameState
	sched    *render.Scheduler
	root     *render.Group
	renderer *render.Renderer
	styles   *StyleController
	log      *slog.Logger

	// ClearColor fills the screen before each draw.
	ClearColor Color

	mu      sync.Mutex
	adds    []*render.Shape3D
	removes []*render.Shape3D
	shapes  []*Shape
	tweens  []*TweenGroup

	screenshots []string
	runner      *TestRunner

	cam   render.Camera
	debug bool

	lastStats render.Stats
	lastDraw  render.DrawStats
}

// NewScene creates a scene attached to a fresh scheduler. Nodes added to it
// must be built with Scene.Env.
func NewScene(cfg Config) *Scene {
	s := &Scene{
		cfg:        cfg,
		env:        cfg.Env(),
		frame:      render.NewFrameState(),
		sched:      render.NewScheduler(),
		root:       render.NewGroup(),
		renderer:   render.NewRenderer(),
		styles:     NewStyleController(),
		log:        slog.Default(),
		ClearColor: cfg.ClearColor,
		debug:      cfg.Debug,
	}
	s.env.FrameState = s.frame
	s.env.Reporter = NewSlogReporter(s.log)
	s.sched.Attach(s.root)
	w, h := cfg.Window.Width, cfg.Window.Height
	if w <= 0 || h <= 0 {
		w, h = 800, 600
	}
	s.cam = render.Camera{
		View:       mgl32.LookAtV(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}),
		Projection: mgl32.Perspective(mgl32.DegToRad(45), float32(w)/float32(h), 0.1, 1000),
	}
	return s
}

// Env returns the environment shared by the scene's nodes.
func (s *Scene) Env() *Env { return s.env }

// Root returns the live root group.
func (s *Scene) Root() *render.Group { return s.root }

// Scheduler returns the scene's scheduler.
func (s *Scene) Scheduler() *render.Scheduler { return s.sched }

// FrameState returns the scene's end-of-frame queue.
func (s *Scene) FrameState() *render.FrameState { return s.frame }

// Styles returns the controller that tracks every added shape.
func (s *Scene) Styles() *StyleController { return s.styles }

// SetLogger routes debug output and node reports to l.
func (s *Scene) SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.Default()
	}
	s.log = l
	s.env.Reporter = NewSlogReporter(l)
}

// SetDebugMode enables or disables per-frame stats logging at debug level.
func (s *Scene) SetDebugMode(enabled bool) {
	s.debug = enabled
}

// AddShape finishes setup of sh if needed and queues it under the root. It
// appears after the next Update.
func (s *Scene) AddShape(sh *Shape) {
	if sh.State() != StateLive {
		sh.SetupFinished()
	}
	s.mu.Lock()
	if slices.Contains(s.shapes, sh) {
		s.mu.Unlock()
		return
	}
	s.shapes = append(s.shapes, sh)
	s.adds = append(s.adds, sh.RenderShape())
	s.mu.Unlock()
	render.Dispatch(s.root, s, render.PhaseBounds)
	s.styles.Register(sh)
}

// RemoveShape queues the removal of sh.
func (s *Scene) RemoveShape(sh *Shape) {
	s.mu.Lock()
	i := slices.Index(s.shapes, sh)
	if i < 0 {
		s.mu.Unlock()
		return
	}
	s.shapes = slices.Delete(s.shapes, i, i+1)
	s.removes = append(s.removes, sh.RenderShape())
	s.mu.Unlock()
	render.Dispatch(s.root, s, render.PhaseBounds)
	s.styles.Unregister(sh)
}

// Shapes returns the shapes added to the scene.
func (s *Scene) Shapes() []*Shape {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.shapes)
}

// UpdateNodeBoundsChanges applies queued child changes to the root.
func (s *Scene) UpdateNodeBoundsChanges(render.Object) {
	s.mu.Lock()
	adds, removes := s.adds, s.removes
	s.adds, s.removes = nil, nil
	s.mu.Unlock()
	for _, o := range removes {
		s.root.RemoveChild(o)
	}
	for _, o := range adds {
		s.root.AddChild(o)
	}
}

func (s *Scene) UpdateNodeDataChanges(render.Object) {}

// AddTween advances g every frame until it is done.
func (s *Scene) AddTween(g *TweenGroup) {
	s.mu.Lock()
	s.tweens = append(s.tweens, g)
	s.mu.Unlock()
}

// Update advances one frame at ebiten's tick rate.
func (s *Scene) Update() {
	s.Step(float32(1.0 / float64(ebiten.TPS())))
}

// Step advances the test runner and tweens by dt seconds, runs the
// end-of-frame callbacks and then the scheduler boundary.
func (s *Scene) Step(dt float32) {
	s.mu.Lock()
	tweens := slices.Clone(s.tweens)
	runner := s.runner
	s.mu.Unlock()
	if runner != nil {
		runner.step(s)
	}
	for _, g := range tweens {
		g.Update(dt)
	}
	s.mu.Lock()
	s.tweens = slices.DeleteFunc(s.tweens, func(g *TweenGroup) bool { return g.Done })
	s.mu.Unlock()

	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}
	hooks := s.frame.EndFrame()
	s.lastStats = s.sched.Boundary()
	if s.debug {
		s.debugFrame(frameStats{
			hooks:    hooks,
			sched:    s.lastStats,
			boundary: time.Since(t0),
		})
	}
}

// LastStats returns the scheduler stats of the most recent Step.
func (s *Scene) LastStats() render.Stats { return s.lastStats }

// SetViewpoint places the camera at eye looking at center, with a vertical
// field of view in degrees.
func (s *Scene) SetViewpoint(eye, center, up mgl32.Vec3, fovY float32) {
	w, h := s.cfg.Window.Width, s.cfg.Window.Height
	if w <= 0 || h <= 0 {
		w, h = 800, 600
	}
	s.cam = render.Camera{
		View:       mgl32.LookAtV(eye, center, up),
		Projection: mgl32.Perspective(mgl32.DegToRad(fovY), float32(w)/float32(h), 0.1, 1000),
	}
}

// Camera returns the current camera.
func (s *Scene) Camera() render.Camera { return s.cam }

// Draw clears screen and renders the live graph onto it.
func (s *Scene) Draw(screen *ebiten.Image) {
	c := s.ClearColor
	screen.Fill(color.RGBA{R: uint8(c.R * 255), G: uint8(c.G * 255), B: uint8(c.B * 255), A: 255})
	var t0 time.Time
	if s.debug {
		t0 = time.Now()
	}
	s.lastDraw = s.renderer.Draw(screen, s.root, s.cam)
	if s.debug {
		s.debugDraw(s.lastDraw, time.Since(t0))
	}
	if s.cfg.Window.ShowFPS {
		s.drawFPS(screen)
	}
	s.flushScreenshots(screen)
}

// LastDrawStats returns the renderer stats of the most recent Draw.
func (s *Scene) LastDrawStats() render.DrawStats { return s.lastDraw }

type game struct {
	scene *Scene
	w, h  int
}

func (g *game) Update() error              { g.scene.Update(); return nil }
func (g *game) Draw(screen *ebiten.Image)  { g.scene.Draw(screen) }
func (g *game) Layout(_, _ int) (int, int) { return g.w, g.h }

// Run opens a window sized by cfg and runs scene until the window closes.
func Run(scene *Scene, cfg Config) error {
	ebiten.SetWindowTitle(cfg.Window.Title)
	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	if cfg.MinFrameInterval > 0 {
		ebiten.SetTPS(max(1, int(time.Second/cfg.MinFrameInterval)))
	}
	return ebiten.RunGame(&game{scene: scene, w: cfg.Window.Width, h: cfg.Window.Height})
}

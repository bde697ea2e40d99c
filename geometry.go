package willow3d

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/phanxgames/willow3d/render"
)

// geometryBase is shared by the geometry nodes. Coordinate changes are
// bounds changes; everything else is data.
type geometryBase struct {
	mu    sync.Mutex
	state NodeState
	kind  string
	prim  render.Primitive

	coords    []mgl32.Vec3
	colors    []mgl32.Vec3
	normals   []mgl32.Vec3
	texCoords []mgl32.Vec2
	solid     bool
	ccw       bool
	texGen    []string
	unlit     Color

	// expand maps output vertices to declared vertices. nil is the identity.
	expand func() []int

	obj *render.Geometry
}

func newGeometryBase(kind string, prim render.Primitive) geometryBase {
	return geometryBase{
		state: StateUnderConstruction,
		kind:  kind,
		prim:  prim,
		solid: true,
		ccw:   true,
		unlit: ColorWhite,
	}
}

func (g *geometryBase) Role() NodeRole { return RoleGeometry }

func (g *geometryBase) State() NodeState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *geometryBase) mustInit() {
	if g.state == StateUninitialized {
		panic("willow3d: geometry not initialized; use New" + g.kind)
	}
}

func (g *geometryBase) SetupFinished() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.mustInit()
	if g.state == StateLive {
		return
	}
	g.obj = render.NewGeometry(g.prim)
	g.state = StateLive
	g.pushBounds()
	g.pushData()
}

func (g *geometryBase) RenderGeometry() *render.Geometry {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.obj
}

func (g *geometryBase) UpdateNodeBoundsChanges(render.Object) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pushBounds()
}

func (g *geometryBase) UpdateNodeDataChanges(render.Object) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pushData()
}

func (g *geometryBase) indexes() []int {
	if g.expand != nil {
		return g.expand()
	}
	return nil
}

func gather[T any](src []T, idx []int) []T {
	if idx == nil || src == nil {
		return append([]T(nil), src...)
	}
	out := make([]T, 0, len(idx))
	for _, i := range idx {
		if i < len(src) {
			out = append(out, src[i])
		}
	}
	return out
}

func (g *geometryBase) pushBounds() {
	g.obj.SetVertices(gather(g.coords, g.indexes()))
}

func (g *geometryBase) pushData() {
	idx := g.indexes()
	var colors []mgl32.Vec4
	for _, c := range gather(g.colors, idx) {
		colors = append(colors, c.Vec4(1))
	}
	g.obj.SetColors(colors)
	g.obj.SetNormals(gather(g.normals, idx))
	g.obj.SetTexCoords(gather(g.texCoords, idx))
	g.obj.SetUnlitColor(g.unlit.Vec3())
}

func (g *geometryBase) update(fn func(), phases ...render.Phase) {
	g.mu.Lock()
	g.mustInit()
	fn()
	obj := g.obj
	live := g.state == StateLive
	g.mu.Unlock()
	if !live {
		return
	}
	for _, p := range phases {
		render.Dispatch(obj, g, p)
	}
}

// SetCoords replaces the coordinates.
func (g *geometryBase) SetCoords(c []mgl32.Vec3) {
	c = append([]mgl32.Vec3(nil), c...)
	g.update(func() { g.coords = c }, render.PhaseBounds)
}

// SetColors replaces the per-vertex colours. nil removes them.
func (g *geometryBase) SetColors(c []mgl32.Vec3) {
	c = append([]mgl32.Vec3(nil), c...)
	g.update(func() { g.colors = c }, render.PhaseData)
}

// SetNormals replaces the per-vertex normals.
func (g *geometryBase) SetNormals(n []mgl32.Vec3) {
	n = append([]mgl32.Vec3(nil), n...)
	g.update(func() { g.normals = n }, render.PhaseData)
}

// SetTexCoords replaces the texture coordinates.
func (g *geometryBase) SetTexCoords(t []mgl32.Vec2) {
	t = append([]mgl32.Vec2(nil), t...)
	g.update(func() { g.texCoords = t }, render.PhaseData)
}

// SetUnlitColor sets the colour used when the geometry is drawn unlit.
func (g *geometryBase) SetUnlitColor(c Color) {
	g.update(func() { g.unlit = c }, render.PhaseData)
}

// SetSolid and SetCCW are read by the owning shape when it binds the
// geometry.
func (g *geometryBase) SetSolid(on bool) {
	g.mu.Lock()
	g.solid = on
	g.mu.Unlock()
}

func (g *geometryBase) SetCCW(on bool) {
	g.mu.Lock()
	g.ccw = on
	g.mu.Unlock()
}

func (g *geometryBase) Solid() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.solid
}

func (g *geometryBase) CCW() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ccw
}

// SetTexCoordGenModes sets one generation mode hint per texture stage.
func (g *geometryBase) SetTexCoordGenModes(modes []string) {
	g.mu.Lock()
	g.texGen = append([]string(nil), modes...)
	g.mu.Unlock()
}

func (g *geometryBase) TexCoordGenModes() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.texGen...)
}

// HasLocalColors reports whether per-vertex colours are set.
func (g *geometryBase) HasLocalColors() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.colors) > 0
}

// TriangleSet is a list of independent triangles.
type TriangleSet struct {
	geometryBase
}

// NewTriangleSet returns an empty, solid, counter-clockwise TriangleSet.
func NewTriangleSet() *TriangleSet {
	return &TriangleSet{geometryBase: newGeometryBase("TriangleSet", render.Triangles)}
}

func (t *TriangleSet) RequiresUnlitColor() bool { return false }
func (t *TriangleSet) LightingEnabled() bool    { return true }

// LineSet draws polylines. Each entry of the vertex counts consumes that many
// coordinates.
type LineSet struct {
	geometryBase
	vertexCount []int
}

// NewLineSet returns an empty LineSet.
func NewLineSet() *LineSet {
	l := &LineSet{geometryBase: newGeometryBase("LineSet", render.Lines)}
	l.expand = l.segments
	return l
}

// SetVertexCount sets the polyline lengths. Every count must be at least 2.
func (l *LineSet) SetVertexCount(counts []int) error {
	for _, c := range counts {
		if c < 2 {
			return &FieldValueError{Node: "LineSet", Field: "vertexCount", Value: c, Want: "must be >= 2"}
		}
	}
	counts = append([]int(nil), counts...)
	l.update(func() { l.vertexCount = counts }, render.PhaseBounds, render.PhaseData)
	return nil
}

// segments expands the polylines into vertex pairs. Must hold l.mu.
func (l *LineSet) segments() []int {
	var out []int
	start := 0
	for _, n := range l.vertexCount {
		for k := 0; k+1 < n; k++ {
			out = append(out, start+k, start+k+1)
		}
		start += n
	}
	if out == nil {
		return []int{}
	}
	return out
}

func (l *LineSet) RequiresUnlitColor() bool { return !l.HasLocalColors() }
func (l *LineSet) LightingEnabled() bool    { return false }

// PointSet draws one point per coordinate.
type PointSet struct {
	geometryBase
}

// NewPointSet returns an empty PointSet.
func NewPointSet() *PointSet {
	return &PointSet{geometryBase: newGeometryBase("PointSet", render.Points)}
}

func (p *PointSet) RequiresUnlitColor() bool { return !p.HasLocalColors() }
func (p *PointSet) LightingEnabled() bool    { return false }

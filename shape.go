package willow3d

import (
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/phanxgames/willow3d/render"
)

// noBBox is the bboxSize value meaning "compute bounds from the geometry".
var noBBox = mgl32.Vec3{-1, -1, -1}

// Shape binds one geometry and one appearance into a render.Shape3D. While it
// has no appearance it draws with a proxy appearance whose polygon attributes
// follow the geometry's solid and ccw flags.
type Shape struct {
	mu    sync.Mutex
	state NodeState
	env   *Env

	// appearance and geometry hold the field values, which may be
	// unresolved proto instances.
	appearance Node
	geometry   Node
	bboxCenter mgl32.Vec3
	bboxSize   mgl32.Vec3

	lateAppearance bool
	lateGeometry   bool
	emissiveSub    *Subscription

	obj          *render.Shape3D
	proxy        *render.Appearance
	proxyPolygon *render.PolygonAttributes

	materialCheck *frameHook
	externHook    *frameHook
}

// NewShape returns an empty Shape under construction. A nil env uses
// DefaultEnv.
func NewShape(env *Env) *Shape {
	s := &Shape{
		state:    StateUnderConstruction,
		env:      envOr(env),
		bboxSize: noBBox,
	}
	s.materialCheck = newFrameHook(s.checkEmissive)
	s.externHook = newFrameHook(s.applyExtern)
	return s
}

func (s *Shape) Role() NodeRole { return RoleShape }

func (s *Shape) State() NodeState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Shape) mustInit() {
	if s.state == StateUninitialized {
		panic("willow3d: shape not initialized; use NewShape")
	}
}

// RenderShape returns the realized shape, or nil before SetupFinished.
func (s *Shape) RenderShape() *render.Shape3D {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mustInit()
	return s.obj
}

// Proxy returns the proxy appearance, which exists exactly when the shape
// has no resolved appearance.
func (s *Shape) Proxy() *render.Appearance {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mustInit()
	return s.proxy
}

// Appearance returns the resolved appearance, or nil.
func (s *Shape) Appearance() AppearanceNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mustInit()
	return s.realAppearance()
}

// Geometry returns the resolved geometry, or nil.
func (s *Shape) Geometry() GeometryNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mustInit()
	return s.realGeometry()
}

// HasEmissiveListener reports whether the shape feeds the material's
// emissive colour into the geometry.
func (s *Shape) HasEmissiveListener() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.emissiveSub != nil
}

func (s *Shape) realAppearance() AppearanceNode {
	n := s.appearance
	if p, ok := n.(*ProtoInstance); ok {
		n = p.Implementation()
	}
	a, _ := n.(AppearanceNode)
	return a
}

func (s *Shape) realGeometry() GeometryNode {
	n := s.geometry
	if p, ok := n.(*ProtoInstance); ok {
		n = p.Implementation()
	}
	g, _ := n.(GeometryNode)
	return g
}

// SetBBox sets the declared bounding box. It is fixed once setup finishes.
// Each size component must be >= 0, or the size must be (-1, -1, -1).
func (s *Shape) SetBBox(center, size mgl32.Vec3) error {
	if size != noBBox && (size.X() < 0 || size.Y() < 0 || size.Z() < 0) {
		return &FieldValueError{Node: "Shape", Field: "bboxSize", Value: size, Want: "components must be >= 0 or all -1"}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mustInit()
	if s.state == StateLive {
		return &FieldValueError{Node: "Shape", Field: "bboxSize", Value: size, Want: "initializeOnly field cannot change after setup"}
	}
	s.bboxCenter, s.bboxSize = center, size
	return nil
}

// checkRef accepts nil, a node of the role's interface, or a proto instance
// that fills the role.
func checkRef(n Node, role NodeRole, field string) error {
	if n == nil {
		return nil
	}
	if p, ok := n.(*ProtoInstance); ok {
		if impl := p.Implementation(); impl != nil {
			return checkRef(impl, role, field)
		}
		if p.Declares(role) {
			return nil
		}
		return referenceError("Shape", field, n)
	}
	switch role {
	case RoleAppearance:
		if _, ok := n.(AppearanceNode); ok {
			return nil
		}
	case RoleGeometry:
		if _, ok := n.(GeometryNode); ok {
			return nil
		}
	}
	return referenceError("Shape", field, n)
}

// SetAppearance sets the appearance field.
func (s *Shape) SetAppearance(n Node) error {
	if err := checkRef(n, RoleAppearance, "appearance"); err != nil {
		return err
	}
	s.mu.Lock()
	s.mustInit()
	s.emissiveSub.Cancel()
	s.emissiveSub = nil
	s.appearance = n
	s.checkForProxy()
	live := s.state == StateLive
	app := s.realAppearance()
	obj := s.obj
	s.mu.Unlock()
	if !live {
		return nil
	}
	if app != nil {
		app.SetupFinished()
	}
	render.Dispatch(obj, s, render.PhaseData)
	s.env.endOfFrame(s.materialCheck)
	return nil
}

// SetGeometry sets the geometry field.
func (s *Shape) SetGeometry(n Node) error {
	if err := checkRef(n, RoleGeometry, "geometry"); err != nil {
		return err
	}
	s.mu.Lock()
	s.mustInit()
	s.emissiveSub.Cancel()
	s.emissiveSub = nil
	s.geometry = n
	s.checkForProxy()
	live := s.state == StateLive
	geom := s.realGeometry()
	obj, poly := s.obj, s.proxyPolygon
	s.mu.Unlock()
	if !live {
		return nil
	}
	if geom != nil {
		geom.SetupFinished()
	}
	render.Dispatch(obj, s, render.PhaseBounds)
	if poly != nil {
		render.Dispatch(poly, s, render.PhaseData)
	}
	s.env.endOfFrame(s.materialCheck)
	return nil
}

// SetField sets the appearance or geometry field by index.
func (s *Shape) SetField(index int, n Node) error {
	switch index {
	case FieldAppearance:
		return s.SetAppearance(n)
	case FieldGeometry:
		return s.SetGeometry(n)
	default:
		return fmt.Errorf("%w: Shape has no field %d", ErrInvalidFieldValue, index)
	}
}

// checkForProxy creates the proxy when there is no appearance and drops it
// otherwise. A new proxy copies the geometry's solid and ccw flags. Must
// hold s.mu.
func (s *Shape) checkForProxy() {
	if s.realAppearance() != nil {
		s.proxy, s.proxyPolygon = nil, nil
		return
	}
	if s.proxy != nil {
		return
	}
	s.proxy = render.NewAppearance()
	s.proxyPolygon = render.NewPolygonAttributes()
	s.applyProxyPolygon()
	s.proxy.SetPolygonAttributes(s.proxyPolygon)
}

// applyProxyPolygon mirrors the geometry flags, defaulting to solid and
// counter-clockwise. Must hold s.mu.
func (s *Shape) applyProxyPolygon() {
	solid, ccw := true, true
	if g := s.realGeometry(); g != nil {
		solid, ccw = g.Solid(), g.CCW()
	}
	if solid {
		s.proxyPolygon.SetCullFace(render.CullBack)
	} else {
		s.proxyPolygon.SetCullFace(render.CullNone)
	}
	s.proxyPolygon.SetTwoSidedLighting(!solid)
	s.proxyPolygon.SetCCW(ccw)
}

// NotifyExternProtoLoaded delivers the node behind a proto instance held in
// the appearance or geometry field. The binding happens at the end of the
// frame.
func (s *Shape) NotifyExternProtoLoaded(index int, n Node) error {
	var role NodeRole
	switch index {
	case FieldAppearance:
		role = RoleAppearance
	case FieldGeometry:
		role = RoleGeometry
	default:
		return fmt.Errorf("%w: Shape has no field %d", ErrInvalidFieldValue, index)
	}
	if n == nil {
		return referenceError("Shape", fieldName(index), n)
	}
	if err := checkRef(n, role, fieldName(index)); err != nil {
		return err
	}
	s.mu.Lock()
	s.mustInit()
	if index == FieldAppearance {
		s.appearance = n
		s.lateAppearance = true
	} else {
		s.geometry = n
		s.lateGeometry = true
	}
	live := s.state == StateLive
	s.mu.Unlock()
	if live {
		s.env.endOfFrame(s.externHook)
	}
	return nil
}

func (s *Shape) applyExtern() {
	s.mu.Lock()
	app, geom := s.realAppearance(), s.realGeometry()
	lateApp, lateGeom := s.lateAppearance, s.lateGeometry
	s.lateAppearance, s.lateGeometry = false, false
	s.emissiveSub.Cancel()
	s.emissiveSub = nil
	s.checkForProxy()
	obj := s.obj
	s.mu.Unlock()

	if lateGeom {
		if geom != nil {
			geom.SetupFinished()
		}
		render.Dispatch(obj, s, render.PhaseBounds)
	}
	if lateApp || lateGeom {
		if app != nil {
			app.SetupFinished()
		}
		render.Dispatch(obj, s, render.PhaseData)
	}
	s.checkEmissive()
}

// UpdateNodeBoundsChanges binds the geometry and the declared bounds.
func (s *Shape) UpdateNodeBoundsChanges(src render.Object) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if src != s.obj {
		return
	}
	var g *render.Geometry
	if geom := s.realGeometry(); geom != nil {
		g = geom.RenderGeometry()
	}
	s.obj.SetGeometry(g)
}

// UpdateNodeDataChanges binds the appearance, or the proxy, or refreshes the
// proxy's polygon attributes.
func (s *Shape) UpdateNodeDataChanges(src render.Object) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case src == s.obj:
		s.obj.SetAppearance(s.boundAppearance())
	case s.proxyPolygon != nil && src == s.proxyPolygon:
		s.applyProxyPolygon()
	}
}

// boundAppearance is what the render shape should reference. Must hold s.mu.
func (s *Shape) boundAppearance() *render.Appearance {
	if a := s.realAppearance(); a != nil {
		return a.RenderAppearance()
	}
	return s.proxy
}

// SetupFinished realizes the shape, binds its children and pushes the
// geometry's hints into the appearance.
func (s *Shape) SetupFinished() {
	s.mu.Lock()
	s.mustInit()
	if s.state == StateLive {
		s.mu.Unlock()
		return
	}
	app, geom := s.realAppearance(), s.realGeometry()
	s.mu.Unlock()

	if geom != nil {
		geom.SetupFinished()
	}
	if app != nil {
		app.SetupFinished()
	}

	s.mu.Lock()
	s.obj = render.NewShape3D()
	if s.bboxSize != noBBox {
		s.obj.SetBounds(render.NewBoundingBox(s.bboxCenter, s.bboxSize))
	}
	if geom != nil {
		s.obj.SetGeometry(geom.RenderGeometry())
	}
	s.checkForProxy()
	s.obj.SetAppearance(s.boundAppearance())
	s.state = StateLive
	s.mu.Unlock()

	if app != nil && geom != nil {
		applyGeometryHints(app, geom)
	}
	s.checkEmissive()
}

// applyGeometryHints pushes culling, texture coordinate generation, lighting
// and local colour from the geometry into the appearance.
func applyGeometryHints(app AppearanceNode, geom GeometryNode) {
	app.SetSolid(geom.Solid())
	app.SetCCW(geom.CCW())
	app.SetTexCoordGenModes(geom.TexCoordGenModes())
	if !geom.LightingEnabled() {
		app.SetLightingEnabled(false)
	}
	app.SetLocalColor(geom.HasLocalColors(), false)
}

// checkEmissive attaches the emissive listener when the geometry needs an
// unlit colour and the appearance has a material, and detaches it otherwise.
func (s *Shape) checkEmissive() {
	s.mu.Lock()
	app, geom := s.realAppearance(), s.realGeometry()
	s.emissiveSub.Cancel()
	s.emissiveSub = nil
	s.mu.Unlock()

	if app == nil || geom == nil || !geom.RequiresUnlitColor() {
		return
	}
	m := app.Material()
	if m == nil {
		return
	}
	sub := m.AddColorListener(s)
	s.mu.Lock()
	old := s.emissiveSub
	s.emissiveSub = sub
	s.mu.Unlock()
	old.Cancel()
}

// EmissiveColorChanged feeds the material's emissive colour straight into
// the geometry.
func (s *Shape) EmissiveColorChanged(c Color) {
	s.mu.Lock()
	geom := s.realGeometry()
	s.mu.Unlock()
	if geom != nil {
		geom.SetUnlitColor(c)
	}
}

package willow3d

import (
	"fmt"
	"image"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/phanxgames/willow3d/render"
)

type appearanceMask uint16

const (
	changedMaterialRef appearanceMask = 1 << iota
	changedTextureRef
	changedTransformRef
	changedLineRef
	changedPointRef
	changedFillRef
)

// Appearance is the X3D Appearance node. It owns the texture stages derived
// from its texture field and republishes the unit array to its
// render.Appearance whenever an input changes.
type Appearance struct {
	mu    sync.Mutex
	state NodeState
	env   *Env

	material  *Material
	texture   TextureNode
	transform TextureTransformNode
	line      *LineProperties
	point     *PointProperties
	fill      *FillProperties
	protos    map[int]*ProtoInstance

	texSub       *Subscription
	transformSub *Subscription

	// stages, textures and units are parallel and always the same length.
	stages   []textureStage
	textures []render.Texture
	units    []*render.TextureUnit
	// texGen holds the requested generation mode per stage and survives
	// rebuilds.
	texGen  []string
	pending render.PendingSet[int]
	flush   *frameHook

	solid       bool
	ccw         bool
	polygonMode render.PolygonMode

	lightingExplicit *bool
	lightingOverride bool
	localColor       bool
	localAlpha       bool

	changed appearanceMask
	obj     *render.Appearance
	polygon *render.PolygonAttributes
}

// NewAppearance returns an empty Appearance under construction. A nil env
// uses DefaultEnv.
func NewAppearance(env *Env) *Appearance {
	a := &Appearance{
		state: StateUnderConstruction,
		env:   envOr(env),
		solid: true,
		ccw:   true,
	}
	a.flush = newFrameHook(a.flushPending)
	return a
}

func (a *Appearance) Role() NodeRole { return RoleAppearance }

func (a *Appearance) State() NodeState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Appearance) mustInit() {
	if a.state == StateUninitialized {
		panic("willow3d: appearance not initialized; use NewAppearance")
	}
}

// RenderAppearance returns the realized appearance, or nil before
// SetupFinished.
func (a *Appearance) RenderAppearance() *render.Appearance {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.obj
}

// RenderPolygonAttributes returns the culling attributes the appearance
// owns.
func (a *Appearance) RenderPolygonAttributes() *render.PolygonAttributes {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.polygon
}

// Material returns the material field.
func (a *Appearance) Material() *Material {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.material
}

// Texture returns the texture field.
func (a *Appearance) Texture() TextureNode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.texture
}

// NumStages returns the number of texture stages.
func (a *Appearance) NumStages() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.stages)
}

// StageTexture returns the texture object realized for stage i. It may be
// newer than the one the render unit references until the pending units
// flush.
func (a *Appearance) StageTexture(i int) render.Texture {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.textures[i]
}

// Units returns the current texture units.
func (a *Appearance) Units() []*render.TextureUnit {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]*render.TextureUnit(nil), a.units...)
}

// PendingUnits reports how many stages wait for the end-of-frame flush.
func (a *Appearance) PendingUnits() int { return a.pending.Len() }

// LightingOverride reports whether a REPLACE texture currently disables
// lighting.
func (a *Appearance) LightingOverride() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.lightingOverride
}

// SetupFinished finishes the children, realizes the render objects and
// builds the first unit array.
func (a *Appearance) SetupFinished() {
	a.mu.Lock()
	a.mustInit()
	if a.state == StateLive {
		a.mu.Unlock()
		return
	}
	children := []Node{}
	for _, n := range []Node{present(a.material), a.texture, a.transform, present(a.line), present(a.point), present(a.fill)} {
		if n != nil {
			children = append(children, n)
		}
	}
	a.mu.Unlock()

	for _, n := range children {
		n.SetupFinished()
	}

	a.mu.Lock()
	a.obj = render.NewAppearance()
	a.polygon = render.NewPolygonAttributes()
	a.applyPolygon()
	a.obj.SetPolygonAttributes(a.polygon)
	a.state = StateLive
	a.changed = changedMaterialRef | changedTextureRef | changedLineRef | changedPointRef | changedFillRef
	a.subscribeLocked()
	errs := a.applyLocked()
	a.mu.Unlock()

	a.report(errs)
	a.syncChildren()
}

// present returns n as a Node, or nil when n is a nil pointer.
func present[T interface {
	comparable
	Node
}](n T) Node {
	var zero T
	if n == zero {
		return nil
	}
	return n
}

// subscribeLocked replaces the texture and transform subscriptions. Must
// hold a.mu.
func (a *Appearance) subscribeLocked() {
	a.texSub.Cancel()
	a.texSub = nil
	if a.texture != nil {
		a.texSub = a.texture.AddTextureListener(a)
	}
	a.transformSub.Cancel()
	a.transformSub = nil
	if a.transform != nil {
		a.transformSub = a.transform.AddTransformListener(a)
	}
}

func (a *Appearance) report(errs []error) {
	for _, err := range errs {
		if isWarning(err) {
			a.env.warn("Appearance", err)
		} else {
			a.env.reportError("Appearance", err)
		}
	}
}

// setRef stores a field. After construction it flags bit and dispatches a
// data change once the lock is released.
func (a *Appearance) setRef(bit appearanceMask, child Node, store func()) {
	if child != nil && child.State() != StateLive {
		a.mu.Lock()
		live := a.state == StateLive
		a.mu.Unlock()
		if live {
			child.SetupFinished()
		}
	}
	a.mu.Lock()
	a.mustInit()
	store()
	if a.state != StateLive {
		a.mu.Unlock()
		return
	}
	if bit&(changedTextureRef|changedTransformRef) != 0 {
		a.subscribeLocked()
	}
	a.changed |= bit
	obj := a.obj
	a.mu.Unlock()
	render.Dispatch(obj, a, render.PhaseData)
}

// SetMaterial sets the material field.
func (a *Appearance) SetMaterial(m *Material) {
	a.setRef(changedMaterialRef, present(m), func() { a.material = m })
}

// SetTexture sets the texture field. It also rebuilds the texture stages.
func (a *Appearance) SetTexture(t TextureNode) {
	a.setRef(changedTextureRef, t, func() { a.texture = t })
}

// SetTextureTransform sets the per-stage coordinate transform.
func (a *Appearance) SetTextureTransform(t TextureTransformNode) {
	a.setRef(changedTransformRef, t, func() { a.transform = t })
}

// SetLineProperties sets the line style.
func (a *Appearance) SetLineProperties(p *LineProperties) {
	a.setRef(changedLineRef, present(p), func() { a.line = p })
}

// SetPointProperties sets the point style. Texture stages are rebuilt since
// point sprites change the combiner state.
func (a *Appearance) SetPointProperties(p *PointProperties) {
	a.setRef(changedPointRef|changedTextureRef, present(p), func() { a.point = p })
}

// SetFillProperties sets the polygon fill and hatch style.
func (a *Appearance) SetFillProperties(p *FillProperties) {
	a.setRef(changedFillRef, present(p), func() { a.fill = p })
}

// SetField sets the field at index from a generic node, as routes and
// external reference resolution do. Unresolved proto instances are held
// until NotifyExternProtoLoaded delivers their implementation.
func (a *Appearance) SetField(index int, n Node) error {
	if p, ok := n.(*ProtoInstance); ok {
		impl := p.Implementation()
		if impl == nil {
			role, ok := appearanceFieldRoles[index]
			if !ok || !p.Declares(role) {
				return referenceError("Appearance", fieldName(index), n)
			}
			a.mu.Lock()
			if a.protos == nil {
				a.protos = make(map[int]*ProtoInstance)
			}
			a.protos[index] = p
			a.mu.Unlock()
			return nil
		}
		n = impl
	}
	switch index {
	case FieldMaterial:
		m, ok := n.(*Material)
		if !ok && n != nil {
			return referenceError("Appearance", "material", n)
		}
		a.SetMaterial(m)
	case FieldTexture:
		t, ok := n.(TextureNode)
		if !ok && n != nil {
			return referenceError("Appearance", "texture", n)
		}
		a.SetTexture(t)
	case FieldTextureTransform:
		t, ok := n.(TextureTransformNode)
		if !ok && n != nil {
			return referenceError("Appearance", "textureTransform", n)
		}
		a.SetTextureTransform(t)
	case FieldLineProperties:
		p, ok := n.(*LineProperties)
		if !ok && n != nil {
			return referenceError("Appearance", "lineProperties", n)
		}
		a.SetLineProperties(p)
	case FieldPointProperties:
		p, ok := n.(*PointProperties)
		if !ok && n != nil {
			return referenceError("Appearance", "pointProperties", n)
		}
		a.SetPointProperties(p)
	case FieldFillProperties:
		p, ok := n.(*FillProperties)
		if !ok && n != nil {
			return referenceError("Appearance", "fillProperties", n)
		}
		a.SetFillProperties(p)
	default:
		return fmt.Errorf("%w: Appearance has no field %d", ErrInvalidFieldValue, index)
	}
	a.mu.Lock()
	delete(a.protos, index)
	a.mu.Unlock()
	return nil
}

var appearanceFieldRoles = map[int]NodeRole{
	FieldMaterial:         RoleMaterial,
	FieldTexture:          RoleTexture,
	FieldTextureTransform: RoleTextureTransform,
	FieldLineProperties:   RoleLineProperties,
	FieldPointProperties:  RolePointProperties,
	FieldFillProperties:   RoleFillProperties,
}

// NotifyExternProtoLoaded delivers the implementation of a proto instance
// held in field index.
func (a *Appearance) NotifyExternProtoLoaded(index int, n Node) error {
	a.mu.Lock()
	_, waiting := a.protos[index]
	a.mu.Unlock()
	if !waiting {
		return fmt.Errorf("%w: Appearance field %d is not waiting for a proto", ErrInvalidFieldValue, index)
	}
	return a.SetField(index, n)
}

// SetSolid sets back face culling on the owned polygon attributes.
func (a *Appearance) SetSolid(solid bool) {
	a.updatePolygon(func() { a.solid = solid })
}

// SetCCW sets the front face winding on the owned polygon attributes.
func (a *Appearance) SetCCW(ccw bool) {
	a.updatePolygon(func() { a.ccw = ccw })
}

// SetPolygonMode draws filled polygons, outlines or vertices.
func (a *Appearance) SetPolygonMode(m render.PolygonMode) {
	a.updatePolygon(func() { a.polygonMode = m })
}

func (a *Appearance) updatePolygon(fn func()) {
	a.mu.Lock()
	a.mustInit()
	fn()
	poly := a.polygon
	a.mu.Unlock()
	if poly != nil {
		render.Dispatch(poly, a, render.PhaseData)
	}
}

// applyPolygon pushes solid, ccw and the polygon mode. Must hold a.mu.
func (a *Appearance) applyPolygon() {
	if a.solid {
		a.polygon.SetCullFace(render.CullBack)
		a.polygon.SetTwoSidedLighting(false)
	} else {
		a.polygon.SetCullFace(render.CullNone)
		a.polygon.SetTwoSidedLighting(true)
	}
	a.polygon.SetCCW(a.ccw)
	a.polygon.SetPolygonMode(a.polygonMode)
}

// SetLightingEnabled forces lighting on or off regardless of the texture.
func (a *Appearance) SetLightingEnabled(on bool) {
	a.mu.Lock()
	a.mustInit()
	a.lightingExplicit = &on
	live := a.state == StateLive
	a.mu.Unlock()
	if live {
		a.syncChildren()
	}
}

// ResetLightingEnabled drops a SetLightingEnabled override.
func (a *Appearance) ResetLightingEnabled() {
	a.mu.Lock()
	a.mustInit()
	a.lightingExplicit = nil
	live := a.state == StateLive
	a.mu.Unlock()
	if live {
		a.syncChildren()
	}
}

// SetLocalColor sets whether geometry colours replace the material diffuse
// colour and alpha.
func (a *Appearance) SetLocalColor(color, alpha bool) {
	a.mu.Lock()
	a.mustInit()
	a.localColor, a.localAlpha = color, alpha
	live := a.state == StateLive
	a.mu.Unlock()
	if live {
		a.syncChildren()
	}
}

// SetTexCoordGenMode sets or, with an empty or unknown mode, clears
// coordinate generation for one stage. stage must be below NumStages.
func (a *Appearance) SetTexCoordGenMode(stage int, mode string) {
	if u := a.setTexGen(stage, mode); u != nil {
		render.Dispatch(u, a, render.PhaseData)
	}
}

func (a *Appearance) setTexGen(stage int, mode string) *render.TextureUnit {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mustInit()
	st := &a.stages[stage]
	a.texGen[stage] = mode
	st.texGen = texGenFor(mode, st.is3D)
	return a.units[stage]
}

// SetTexCoordGenModes sets the generation mode of every current stage from
// modes. Stages past the end of modes are cleared and extra modes are
// ignored.
func (a *Appearance) SetTexCoordGenModes(modes []string) {
	a.mu.Lock()
	a.mustInit()
	units := make([]*render.TextureUnit, 0, len(a.stages))
	for i := range a.stages {
		mode := ""
		if i < len(modes) {
			mode = modes[i]
		}
		if i < len(a.texGen) {
			a.texGen[i] = mode
		}
		a.stages[i].texGen = texGenFor(mode, a.stages[i].is3D)
		if i < len(a.units) {
			units = append(units, a.units[i])
		}
	}
	a.mu.Unlock()
	for _, u := range units {
		render.Dispatch(u, a, render.PhaseData)
	}
}

// UpdateNodeBoundsChanges is never requested by an appearance.
func (a *Appearance) UpdateNodeBoundsChanges(render.Object) {}

// UpdateNodeDataChanges applies whatever src needs: the appearance itself,
// one of its texture units or its polygon attributes.
func (a *Appearance) UpdateNodeDataChanges(src render.Object) {
	var errs []error
	a.mu.Lock()
	switch o := src.(type) {
	case *render.Appearance:
		if o == a.obj {
			errs = a.applyLocked()
		}
	case *render.TextureUnit:
		for i, u := range a.units {
			if u == o {
				a.applyUnit(i)
				break
			}
		}
	case *render.PolygonAttributes:
		if o == a.polygon {
			a.applyPolygon()
		}
	}
	a.mu.Unlock()
	a.report(errs)
	if _, ok := src.(*render.PolygonAttributes); !ok {
		a.syncChildren()
	}
}

// applyLocked pushes every changed field to the render appearance. Must hold
// a.mu.
func (a *Appearance) applyLocked() []error {
	bits := a.changed
	a.changed = 0
	var errs []error
	if bits&changedMaterialRef != 0 {
		var m *render.Material
		if a.material != nil {
			m = a.material.RenderMaterial()
		}
		a.obj.SetMaterial(m)
	}
	if bits&changedTextureRef != 0 {
		errs = a.rebuildLocked()
		a.obj.SetTextureUnits(a.units)
	} else if bits&changedTransformRef != 0 {
		for i, u := range a.units {
			u.SetTransform(a.stageMatrix(i))
		}
	}
	if bits&changedLineRef != 0 {
		var l *render.LineAttributes
		if a.line != nil {
			l = a.line.RenderLineAttributes()
		}
		a.obj.SetLineAttributes(l)
	}
	if bits&changedPointRef != 0 {
		var p *render.PointAttributes
		if a.point != nil {
			p = a.point.RenderPointAttributes()
		}
		a.obj.SetPointAttributes(p)
	}
	if bits&changedFillRef != 0 {
		var f *render.FillAttributes
		if a.fill != nil {
			f = a.fill.RenderFillAttributes()
		}
		a.obj.SetFillAttributes(f)
	}
	return errs
}

// RebuildTextureUnits re-derives every stage and republishes the unit array.
func (a *Appearance) RebuildTextureUnits() {
	a.mu.Lock()
	a.mustInit()
	if a.state != StateLive {
		a.mu.Unlock()
		return
	}
	a.changed |= changedTextureRef
	obj := a.obj
	a.mu.Unlock()
	render.Dispatch(obj, a, render.PhaseData)
}

// rebuildLocked derives the stages from the texture field and builds new
// units, reusing texture objects whose source did not change. Must hold a.mu.
func (a *Appearance) rebuildLocked() []error {
	stages, errs := deriveStages(a.texture, a.env)
	if a.point != nil && !a.env.Caps.PointSprites {
		stages = nil
	}

	texGen := make([]string, len(stages))
	copy(texGen, a.texGen)
	textures := make([]render.Texture, len(stages))
	for i := range stages {
		st := &stages[i]
		st.texGen = texGenFor(texGen[i], st.is3D)
		if i < len(a.stages) && a.textures[i] != nil && sameSource(&a.stages[i], st) {
			textures[i] = a.textures[i]
			continue
		}
		tex, err := realize(i, 0, st)
		if err != nil {
			errs = append(errs, err)
			if i < len(a.textures) {
				tex = a.textures[i]
			}
		}
		textures[i] = tex
	}

	a.stages, a.textures, a.texGen = stages, textures, texGen
	a.units = make([]*render.TextureUnit, len(stages))
	for i := range stages {
		a.units[i] = render.NewTextureUnit(a.unitTexture(i), a.stageAttributes(i), a.stageMatrix(i), stages[i].texGen)
	}
	return errs
}

// applyUnit refreshes unit i from its stage. Must hold a.mu.
func (a *Appearance) applyUnit(i int) {
	u := a.units[i]
	u.SetTexture(a.unitTexture(i))
	u.SetAttributes(a.stageAttributes(i))
	u.SetTransform(a.stageMatrix(i))
	u.SetTexCoordGeneration(a.stages[i].texGen)
}

func (a *Appearance) unitTexture(i int) render.Texture {
	if a.stages[i].params.Mode == BlendOff {
		return nil
	}
	return a.textures[i]
}

// stageAttributes computes the combiner of stage i from scratch.
func (a *Appearance) stageAttributes(i int) render.TextureAttributes {
	at := a.stages[i].params.Attributes()
	if a.point == nil || !a.env.Caps.PointSprites {
		return at
	}
	at.PointSpriteCoords = true
	at.Mode = render.TextureCombine
	at.CombineAlpha = render.CombineModulate
	switch a.point.ColorMode() {
	case PointColor:
		at.SourceRGB[0] = render.SourceBaseColor
		at.CombineRGB = render.CombineReplace
	case PointTextureAndPointColor:
		at.CombineRGB = render.CombineAdd
	default:
		at.CombineRGB = render.CombineReplace
	}
	return at
}

func (a *Appearance) stageMatrix(i int) mgl32.Mat4 {
	if a.transform == nil {
		return mgl32.Ident4()
	}
	return a.transform.StageMatrix(i)
}

// syncChildren pushes the appearance-derived state into the material and
// point properties. It takes no appearance lock while calling them.
func (a *Appearance) syncChildren() {
	a.mu.Lock()
	m := a.material
	point := a.point
	explicit := a.lightingExplicit
	localColor, localAlpha := a.localColor, a.localAlpha
	_, single := a.texture.(*ImageTexture)
	single2D := single && len(a.stages) == 1
	replace := single2D && a.stages[0].params.Mode == BlendReplace
	var img image.Image
	if single2D {
		img = a.stages[0].images[0]
	}
	hasTexture := len(a.stages) > 0
	a.mu.Unlock()

	if point != nil {
		point.setSpriteMode(a.env.Caps.PointSprites && hasTexture)
	}
	if m == nil {
		a.mu.Lock()
		a.lightingOverride = false
		a.mu.Unlock()
		return
	}

	override := replace && m.Transparency() == 0
	a.mu.Lock()
	a.lightingOverride = override
	a.mu.Unlock()

	m.setTextureLightingOverride(override)
	m.forceLighting(explicit)
	m.SetIgnoreDiffuse(single2D && (img == nil || !grayscale(img)))
	m.SetLocalColor(localColor, localAlpha)
}

// TextureImageChanged rebuilds one stage's texture object and queues its unit
// for the end-of-frame flush. When src is an ImageTexture3D, stage is a slice
// index of its single stage.
func (a *Appearance) TextureImageChanged(stage int, src TextureNode, img image.Image, url string) {
	a.mu.Lock()
	if a.state != StateLive || src != a.texture {
		a.mu.Unlock()
		return
	}
	idx, slot := stage, 0
	_, volume := src.(*ImageTexture3D)
	if volume {
		idx, slot = 0, stage
	}
	realized := false
	for _, t := range a.textures {
		if t != nil {
			realized = true
			break
		}
	}
	if a.units == nil || idx < 0 || idx >= len(a.stages) || !realized ||
		a.stages[idx].is3D != volume || slot < 0 || slot >= max(len(a.stages[idx].images), 1) {
		a.fullRebuildAndUnlock()
		return
	}

	st := &a.stages[idx]
	if len(st.images) == 0 {
		st.images = make([]image.Image, 1)
		st.urls = make([]string, 1)
	}
	st.images[slot] = img
	if slot < len(st.urls) {
		st.urls[slot] = url
	}
	tex, err := realize(idx, slot, st)
	if err == nil {
		a.textures[idx] = tex
	}
	armed := a.pending.Add(idx)
	a.mu.Unlock()

	if err != nil {
		a.env.reportError("Appearance", err)
	}
	if armed {
		a.env.endOfFrame(a.flush)
	}
}

// TextureImagesChanged is TextureImageChanged for every stage at once.
func (a *Appearance) TextureImagesChanged(src TextureNode, imgs []image.Image, urls []string) {
	a.mu.Lock()
	if a.state != StateLive || src != a.texture {
		a.mu.Unlock()
		return
	}
	a.fullRebuildAndUnlock()
}

func (a *Appearance) fullRebuildAndUnlock() {
	a.changed |= changedTextureRef
	obj := a.obj
	a.mu.Unlock()
	render.Dispatch(obj, a, render.PhaseData)
}

// flushPending runs at the end of a frame and dispatches every queued unit.
func (a *Appearance) flushPending() {
	var units []*render.TextureUnit
	more := a.pending.Drain(func(i int) {
		a.mu.Lock()
		if i < len(a.units) {
			units = append(units, a.units[i])
		}
		a.mu.Unlock()
	})
	for _, u := range units {
		render.Dispatch(u, a, render.PhaseData)
	}
	if more {
		a.env.endOfFrame(a.flush)
	}
	a.syncChildren()
}

// TextureParamsChanged updates the combiner inputs of one stage.
func (a *Appearance) TextureParamsChanged(stage int, src TextureNode, p StageParams) {
	a.mu.Lock()
	if a.state != StateLive || src != a.texture {
		a.mu.Unlock()
		return
	}
	if stage < 0 || stage >= len(a.stages) {
		a.fullRebuildAndUnlock()
		return
	}
	a.stages[stage].params = p
	u := a.units[stage]
	a.mu.Unlock()
	render.Dispatch(u, a, render.PhaseData)
}

// TextureParamsChangedAll updates the combiner inputs of every stage. A count
// that does not match the stages rebuilds everything.
func (a *Appearance) TextureParamsChangedAll(src TextureNode, ps []StageParams) {
	a.mu.Lock()
	if a.state != StateLive || src != a.texture {
		a.mu.Unlock()
		return
	}
	if len(ps) != len(a.stages) {
		a.fullRebuildAndUnlock()
		return
	}
	for i := range ps {
		a.stages[i].params = ps[i]
	}
	units := append([]*render.TextureUnit(nil), a.units...)
	a.mu.Unlock()
	for _, u := range units {
		render.Dispatch(u, a, render.PhaseData)
	}
}

// TextureTransformChanged dispatches every unit so it picks up new matrices.
func (a *Appearance) TextureTransformChanged(src TextureTransformNode) {
	a.mu.Lock()
	if a.state != StateLive || src != a.transform {
		a.mu.Unlock()
		return
	}
	units := append([]*render.TextureUnit(nil), a.units...)
	a.mu.Unlock()
	for _, u := range units {
		render.Dispatch(u, a, render.PhaseData)
	}
}

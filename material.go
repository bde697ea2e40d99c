package willow3d

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/phanxgames/willow3d/render"
)

// MaterialColorListener is told about emissive colour changes. Calls are
// made without any material lock held.
type MaterialColorListener interface {
	EmissiveColorChanged(c Color)
}

// materialFields is one face of the lighting model as declared.
type materialFields struct {
	ambientIntensity float32
	diffuse          Color
	emissive         Color
	specular         Color
	shininess        float32
	transparency     float32
}

var defaultFace = materialFields{
	ambientIntensity: 0.2,
	diffuse:          Color{0.8, 0.8, 0.8},
	shininess:        0.2,
}

type fieldMask uint32

const (
	changedAmbient fieldMask = 1 << iota
	changedDiffuse
	changedEmissive
	changedSpecular
	changedShininess
	changedTransparency
	changedBackAmbient
	changedBackDiffuse
	changedBackEmissive
	changedBackSpecular
	changedBackShininess
	changedBackTransparency
	changedSeparate
	changedLighting
	changedLocalColor

	changedFront = changedAmbient | changedDiffuse | changedEmissive | changedSpecular | changedShininess | changedTransparency
	changedBack  = changedBackAmbient | changedBackDiffuse | changedBackEmissive | changedBackSpecular | changedBackShininess | changedBackTransparency
	changedAll   = changedFront | changedBack | changedSeparate | changedLighting | changedLocalColor
)

// Material is the X3D Material and TwoSidedMaterial node. Fields are stored
// as declared and pushed to a render.Material once construction finishes.
type Material struct {
	mu    sync.Mutex
	state NodeState

	twoSided bool
	front    materialFields
	back     materialFields
	separate bool

	ignoreDiffuse bool
	lighting      bool
	// textureOff is set by an appearance whose REPLACE texture supplies
	// pre-lit colour. forced, when set, wins over both.
	textureOff bool
	forced     *bool
	localColor bool
	localAlpha bool

	changed fieldMask
	obj     *render.Material

	colorListeners listenerSet[MaterialColorListener]
}

// NewMaterial returns a Material with the X3D defaults, under construction.
func NewMaterial() *Material {
	return &Material{
		state:    StateUnderConstruction,
		front:    defaultFace,
		back:     defaultFace,
		lighting: true,
	}
}

// NewTwoSidedMaterial returns a Material whose back face may be set apart
// from the front with SetSeparateBackColor.
func NewTwoSidedMaterial() *Material {
	m := NewMaterial()
	m.twoSided = true
	return m
}

func (m *Material) Role() NodeRole { return RoleMaterial }

func (m *Material) State() NodeState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Material) mustInit() {
	if m.state == StateUninitialized {
		panic("willow3d: material not initialized; use NewMaterial")
	}
}

// SetupFinished creates the render material and pushes every field.
func (m *Material) SetupFinished() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mustInit()
	if m.state == StateLive {
		return
	}
	m.obj = render.NewMaterial()
	m.state = StateLive
	m.push(changedAll)
}

// RenderMaterial returns the realized material, or nil before SetupFinished.
func (m *Material) RenderMaterial() *render.Material {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.obj
}

// UpdateNodeBoundsChanges is never requested by a material.
func (m *Material) UpdateNodeBoundsChanges(render.Object) {}

// UpdateNodeDataChanges pushes every field changed since the last push.
func (m *Material) UpdateNodeDataChanges(render.Object) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bits := m.changed
	m.changed = 0
	m.push(bits)
}

// update runs apply under the lock. When apply reports a change and the node
// is constructed, bits are flagged and a data change is dispatched.
func (m *Material) update(bits fieldMask, apply func() bool) {
	m.mu.Lock()
	m.mustInit()
	if !apply() || m.state != StateLive {
		m.mu.Unlock()
		return
	}
	m.changed |= bits
	obj := m.obj
	m.mu.Unlock()
	render.Dispatch(obj, m, render.PhaseData)
}

// push writes the fields selected by bits. Must hold m.mu.
func (m *Material) push(bits fieldMask) {
	o := m.obj
	f := &m.front
	if bits&changedAmbient != 0 {
		o.SetAmbient(intensity(f.ambientIntensity))
	}
	if bits&changedDiffuse != 0 {
		o.SetDiffuse(m.realDiffuse(f))
	}
	if bits&changedEmissive != 0 {
		o.SetEmissive(f.emissive.Vec3())
	}
	if bits&changedSpecular != 0 {
		o.SetSpecular(f.specular.Vec3())
	}
	if bits&changedShininess != 0 {
		o.SetShininess(f.shininess)
	}
	if bits&changedTransparency != 0 {
		o.SetAlpha(1 - f.transparency)
	}

	if bits&changedSeparate != 0 {
		o.SetSeparateBackColor(m.separate)
		if m.separate {
			bits |= changedBack
		}
	}
	if m.separate {
		b := &m.back
		if bits&changedBackAmbient != 0 {
			o.SetBackAmbient(intensity(b.ambientIntensity))
		}
		if bits&changedBackDiffuse != 0 {
			o.SetBackDiffuse(m.realDiffuse(b))
		}
		if bits&changedBackEmissive != 0 {
			o.SetBackEmissive(b.emissive.Vec3())
		}
		if bits&changedBackSpecular != 0 {
			o.SetBackSpecular(b.specular.Vec3())
		}
		if bits&changedBackShininess != 0 {
			o.SetBackShininess(b.shininess)
		}
		if bits&changedBackTransparency != 0 {
			o.SetBackAlpha(1 - b.transparency)
		}
	}

	if bits&changedLighting != 0 {
		o.SetLightingEnabled(m.effectiveLighting())
	}
	if bits&changedLocalColor != 0 {
		t := render.ColorTargetNone
		if m.localColor {
			t = render.ColorTargetDiffuse
		}
		o.SetColorTarget(t, m.localAlpha)
	}
}

func (m *Material) realDiffuse(f *materialFields) mgl32.Vec3 {
	if m.ignoreDiffuse {
		return mgl32.Vec3{1, 1, 1}
	}
	return f.diffuse.Vec3()
}

func (m *Material) effectiveLighting() bool {
	switch {
	case m.forced != nil:
		return *m.forced
	case m.textureOff:
		return false
	default:
		return m.lighting
	}
}

func intensity(v float32) mgl32.Vec3 { return mgl32.Vec3{v, v, v} }

// SetAmbientIntensity sets the share of the diffuse colour reflected from
// ambient light. v must be in [0, 1].
func (m *Material) SetAmbientIntensity(v float32) error {
	if err := checkUnit("Material", "ambientIntensity", v); err != nil {
		return err
	}
	m.update(changedAmbient, func() bool {
		return setField(&m.front.ambientIntensity, v)
	})
	return nil
}

// SetDiffuseColor sets the front diffuse colour.
func (m *Material) SetDiffuseColor(c Color) error {
	if err := checkColor("Material", "diffuseColor", c); err != nil {
		return err
	}
	m.update(changedDiffuse, func() bool { return setField(&m.front.diffuse, c) })
	return nil
}

// SetEmissiveColor sets the emissive colour and notifies colour listeners.
func (m *Material) SetEmissiveColor(c Color) error {
	if err := checkColor("Material", "emissiveColor", c); err != nil {
		return err
	}
	changed := false
	m.update(changedEmissive, func() bool {
		changed = setField(&m.front.emissive, c)
		return changed
	})
	if changed {
		for _, l := range m.colorListeners.snapshot() {
			l.EmissiveColorChanged(c)
		}
	}
	return nil
}

// SetSpecularColor sets the front specular colour.
func (m *Material) SetSpecularColor(c Color) error {
	if err := checkColor("Material", "specularColor", c); err != nil {
		return err
	}
	m.update(changedSpecular, func() bool { return setField(&m.front.specular, c) })
	return nil
}

// SetShininess sets the front shininess in [0, 1].
func (m *Material) SetShininess(v float32) error {
	if err := checkUnit("Material", "shininess", v); err != nil {
		return err
	}
	m.update(changedShininess, func() bool { return setField(&m.front.shininess, v) })
	return nil
}

// SetTransparency sets the front transparency in [0, 1]. 0 is opaque.
func (m *Material) SetTransparency(v float32) error {
	if err := checkUnit("Material", "transparency", v); err != nil {
		return err
	}
	m.update(changedTransparency, func() bool { return setField(&m.front.transparency, v) })
	return nil
}

func (m *Material) backSetter(field string, bits fieldMask, apply func() bool) error {
	m.mu.Lock()
	two := m.twoSided
	m.mu.Unlock()
	if !two {
		return &FieldValueError{Node: "Material", Field: field, Value: "set", Want: "back face fields need a TwoSidedMaterial"}
	}
	m.update(bits, apply)
	return nil
}

// SetBackAmbientIntensity is SetAmbientIntensity for back faces. Back face
// setters fail unless the material was created by NewTwoSidedMaterial.
func (m *Material) SetBackAmbientIntensity(v float32) error {
	if err := checkUnit("TwoSidedMaterial", "backAmbientIntensity", v); err != nil {
		return err
	}
	return m.backSetter("backAmbientIntensity", changedBackAmbient, func() bool {
		return setField(&m.back.ambientIntensity, v)
	})
}

// SetBackDiffuseColor sets the back diffuse colour.
func (m *Material) SetBackDiffuseColor(c Color) error {
	if err := checkColor("TwoSidedMaterial", "backDiffuseColor", c); err != nil {
		return err
	}
	return m.backSetter("backDiffuseColor", changedBackDiffuse, func() bool {
		return setField(&m.back.diffuse, c)
	})
}

// SetBackEmissiveColor sets the back emissive colour.
func (m *Material) SetBackEmissiveColor(c Color) error {
	if err := checkColor("TwoSidedMaterial", "backEmissiveColor", c); err != nil {
		return err
	}
	return m.backSetter("backEmissiveColor", changedBackEmissive, func() bool {
		return setField(&m.back.emissive, c)
	})
}

// SetBackSpecularColor sets the back specular colour.
func (m *Material) SetBackSpecularColor(c Color) error {
	if err := checkColor("TwoSidedMaterial", "backSpecularColor", c); err != nil {
		return err
	}
	return m.backSetter("backSpecularColor", changedBackSpecular, func() bool {
		return setField(&m.back.specular, c)
	})
}

// SetBackShininess sets the back shininess in [0, 1].
func (m *Material) SetBackShininess(v float32) error {
	if err := checkUnit("TwoSidedMaterial", "backShininess", v); err != nil {
		return err
	}
	return m.backSetter("backShininess", changedBackShininess, func() bool {
		return setField(&m.back.shininess, v)
	})
}

// SetBackTransparency sets the back transparency in [0, 1].
func (m *Material) SetBackTransparency(v float32) error {
	if err := checkUnit("TwoSidedMaterial", "backTransparency", v); err != nil {
		return err
	}
	return m.backSetter("backTransparency", changedBackTransparency, func() bool {
		return setField(&m.back.transparency, v)
	})
}

// SetSeparateBackColor switches back faces between the front and back
// fields. Turning it on republishes every back field.
func (m *Material) SetSeparateBackColor(on bool) error {
	return m.backSetter("separateBackColor", changedSeparate, func() bool {
		return setField(&m.separate, on)
	})
}

// SetIgnoreDiffuse substitutes white for the diffuse colours at realization
// so a texture supplies all colour information.
func (m *Material) SetIgnoreDiffuse(on bool) {
	m.update(changedDiffuse|changedBackDiffuse, func() bool {
		return setField(&m.ignoreDiffuse, on)
	})
}

// SetLightingEnabled sets the material's own lighting flag.
func (m *Material) SetLightingEnabled(on bool) {
	m.update(changedLighting, func() bool { return setField(&m.lighting, on) })
}

// setTextureLightingOverride disables lighting while a pre-lit texture is in
// use, unless lighting has been forced.
func (m *Material) setTextureLightingOverride(on bool) {
	m.update(changedLighting, func() bool { return setField(&m.textureOff, on) })
}

// forceLighting pins effective lighting to *on, or releases it when on is
// nil.
func (m *Material) forceLighting(on *bool) {
	m.update(changedLighting, func() bool {
		if (m.forced == nil) == (on == nil) && (on == nil || *m.forced == *on) {
			return false
		}
		if on != nil {
			v := *on
			on = &v
		}
		m.forced = on
		return true
	})
}

// SetLocalColor sets whether per-vertex colour replaces the diffuse colour
// and whether per-vertex alpha replaces transparency.
func (m *Material) SetLocalColor(color, alpha bool) {
	m.update(changedLocalColor, func() bool {
		c := setField(&m.localColor, color)
		a := setField(&m.localAlpha, alpha)
		return c || a
	})
}

// DiffuseColor returns the front diffuse colour.
func (m *Material) DiffuseColor() Color {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.front.diffuse
}

// EmissiveColor returns the front emissive colour.
func (m *Material) EmissiveColor() Color {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.front.emissive
}

// Transparency returns the front transparency.
func (m *Material) Transparency() float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.front.transparency
}

// IgnoreDiffuse reports whether a texture currently replaces the diffuse
// colour.
func (m *Material) IgnoreDiffuse() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ignoreDiffuse
}

// SeparateBackColor reports whether back faces use their own colours.
func (m *Material) SeparateBackColor() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.separate
}

// LightingEnabled reports the lighting state that is pushed to the render
// material.
func (m *Material) LightingEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.effectiveLighting()
}

// AddColorListener registers l and immediately reports the current emissive
// colour to it.
func (m *Material) AddColorListener(l MaterialColorListener) *Subscription {
	sub := m.colorListeners.add(l)
	l.EmissiveColorChanged(m.EmissiveColor())
	return sub
}

func setField[T comparable](dst *T, v T) bool {
	if *dst == v {
		return false
	}
	*dst = v
	return true
}

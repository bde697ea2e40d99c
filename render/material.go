package render

import "github.com/go-gl/mathgl/mgl32"

// Face holds the lighting coefficients for one side of a polygon.
type Face struct {
	Ambient   mgl32.Vec3
	Diffuse   mgl32.Vec3
	Specular  mgl32.Vec3
	Emissive  mgl32.Vec3
	Shininess float32
	Alpha     float32
}

// ColorTarget selects which material terms per-vertex colours replace.
type ColorTarget uint8

const (
	ColorTargetNone    ColorTarget = iota // vertex colours are ignored
	ColorTargetDiffuse                    // vertex colours replace diffuse
	ColorTargetEmissive                   // vertex colours are used unlit
)

// Material is a front and back lighting model. All setters are data writes.
type Material struct {
	base
	front      Face
	back       Face
	separate   bool
	lighting   bool
	target     ColorTarget
	localAlpha bool
}

// NewMaterial returns an opaque white material with lighting enabled.
func NewMaterial() *Material {
	f := Face{
		Diffuse: mgl32.Vec3{1, 1, 1},
		Alpha:   1,
	}
	m := &Material{front: f, back: f, lighting: true}
	m.init(m)
	return m
}

// Front returns the front face coefficients.
func (m *Material) Front() Face { return m.front }

// Back returns the back face coefficients.
func (m *Material) Back() Face { return m.back }

func (m *Material) SetAmbient(c mgl32.Vec3) {
	m.checkWrite(PhaseData)
	m.front.Ambient = c
}

func (m *Material) SetDiffuse(c mgl32.Vec3) {
	m.checkWrite(PhaseData)
	m.front.Diffuse = c
}

func (m *Material) SetSpecular(c mgl32.Vec3) {
	m.checkWrite(PhaseData)
	m.front.Specular = c
}

func (m *Material) SetEmissive(c mgl32.Vec3) {
	m.checkWrite(PhaseData)
	m.front.Emissive = c
}

func (m *Material) SetShininess(s float32) {
	m.checkWrite(PhaseData)
	m.front.Shininess = s
}

// SetAlpha sets the front face opacity, 1 being opaque.
func (m *Material) SetAlpha(a float32) {
	m.checkWrite(PhaseData)
	m.front.Alpha = a
}

func (m *Material) SetBackAmbient(c mgl32.Vec3) {
	m.checkWrite(PhaseData)
	m.back.Ambient = c
}

func (m *Material) SetBackDiffuse(c mgl32.Vec3) {
	m.checkWrite(PhaseData)
	m.back.Diffuse = c
}

func (m *Material) SetBackSpecular(c mgl32.Vec3) {
	m.checkWrite(PhaseData)
	m.back.Specular = c
}

func (m *Material) SetBackEmissive(c mgl32.Vec3) {
	m.checkWrite(PhaseData)
	m.back.Emissive = c
}

func (m *Material) SetBackShininess(s float32) {
	m.checkWrite(PhaseData)
	m.back.Shininess = s
}

func (m *Material) SetBackAlpha(a float32) {
	m.checkWrite(PhaseData)
	m.back.Alpha = a
}

// SetSeparateBackColor sets whether back faces use the back coefficients
// instead of the front ones.
func (m *Material) SetSeparateBackColor(on bool) {
	m.checkWrite(PhaseData)
	m.separate = on
}

func (m *Material) SeparateBackColor() bool { return m.separate }

func (m *Material) SetLightingEnabled(on bool) {
	m.checkWrite(PhaseData)
	m.lighting = on
}

func (m *Material) LightingEnabled() bool { return m.lighting }

// SetColorTarget sets which terms per-vertex colours replace and whether
// per-vertex alpha replaces the material alpha.
func (m *Material) SetColorTarget(t ColorTarget, alpha bool) {
	m.checkWrite(PhaseData)
	m.target = t
	m.localAlpha = alpha
}

func (m *Material) ColorTarget() (ColorTarget, bool) { return m.target, m.localAlpha }

// FaceFor returns the coefficients used to shade a face.
func (m *Material) FaceFor(backFacing bool) Face {
	if backFacing && m.separate {
		return m.back
	}
	return m.front
}

package render

import "github.com/go-gl/mathgl/mgl32"

// TextureMode is the fixed-function environment mode of a texture unit.
type TextureMode uint8

const (
	TextureModulate TextureMode = iota
	TextureReplace
	TextureBlend
	TextureDecal
	TextureCombine
)

// CombineFunc is the operation of a COMBINE-mode unit.
type CombineFunc uint8

const (
	CombineReplace CombineFunc = iota
	CombineModulate
	CombineAdd
	CombineAddSigned
	CombineSubtract
	CombineInterpolate
	CombineDot3RGB
)

// CombineSource is an operand of a COMBINE-mode unit.
type CombineSource uint8

const (
	SourceCurrentTexture CombineSource = iota
	SourcePreviousUnit
	SourceBaseColor
	SourceConstantColor
)

// CombineOperand selects which part of a source a COMBINE-mode unit reads.
type CombineOperand uint8

const (
	OperandColor CombineOperand = iota
	OperandOneMinusColor
	OperandAlpha
)

// TextureAttributes describes how a unit combines its texel with the incoming
// colour.
type TextureAttributes struct {
	Mode         TextureMode
	CombineRGB   CombineFunc
	CombineAlpha CombineFunc
	RGBScale     int
	AlphaScale   int
	SourceRGB    [3]CombineSource
	SourceAlpha  [3]CombineSource
	OperandRGB   [3]CombineOperand
	BlendColor   mgl32.Vec4

	// PointSpriteCoords replaces the unit's coordinates with point sprite
	// coordinates when drawing points.
	PointSpriteCoords bool
}

// DefaultTextureAttributes returns a MODULATE unit with unit scales and the
// default combiner operands.
func DefaultTextureAttributes() TextureAttributes {
	return TextureAttributes{
		Mode:         TextureModulate,
		CombineRGB:   CombineModulate,
		CombineAlpha: CombineModulate,
		RGBScale:     1,
		AlphaScale:   1,
		SourceRGB:    [3]CombineSource{SourceCurrentTexture, SourcePreviousUnit, SourceConstantColor},
		SourceAlpha:  [3]CombineSource{SourceCurrentTexture, SourcePreviousUnit, SourceConstantColor},
	}
}

// TexGenMode is an automatic texture coordinate generation function.
type TexGenMode uint8

const (
	TexGenSpherical TexGenMode = iota
	TexGenNormals
	TexGenReflections
	TexGenEyeLinear
)

// TexComponents selects which coordinates are generated.
type TexComponents uint8

const (
	TexS TexComponents = 1 << iota
	TexT
	TexR
)

// TexCoordGeneration is an immutable generation descriptor.
type TexCoordGeneration struct {
	Mode       TexGenMode
	Components TexComponents
}

// TextureUnit is one stage of a multi-texture pipeline. All setters are data
// writes.
type TextureUnit struct {
	base
	texture   Texture
	attrs     TextureAttributes
	transform mgl32.Mat4
	texGen    *TexCoordGeneration
}

// NewTextureUnit creates a unit. tex and gen may be nil.
func NewTextureUnit(tex Texture, attrs TextureAttributes, transform mgl32.Mat4, gen *TexCoordGeneration) *TextureUnit {
	u := &TextureUnit{texture: tex, attrs: attrs, transform: transform, texGen: gen}
	u.init(u)
	return u
}

func (u *TextureUnit) children() []Object {
	if u.texture == nil {
		return nil
	}
	return []Object{u.texture}
}

// Texture returns the unit's texture, or nil.
func (u *TextureUnit) Texture() Texture { return u.texture }

// SetTexture replaces the unit's texture. nil disables the unit.
func (u *TextureUnit) SetTexture(t Texture) {
	u.checkWrite(PhaseData)
	var old, next Object
	if u.texture != nil {
		old = u.texture
	}
	if t != nil {
		next = t
	}
	u.swapChild(old, next)
	u.texture = t
}

func (u *TextureUnit) Attributes() TextureAttributes { return u.attrs }

func (u *TextureUnit) SetAttributes(a TextureAttributes) {
	u.checkWrite(PhaseData)
	u.attrs = a
}

func (u *TextureUnit) Transform() mgl32.Mat4 { return u.transform }

func (u *TextureUnit) SetTransform(m mgl32.Mat4) {
	u.checkWrite(PhaseData)
	u.transform = m
}

// TexCoordGeneration returns the generation descriptor, or nil when the
// geometry's own coordinates are used.
func (u *TextureUnit) TexCoordGeneration() *TexCoordGeneration { return u.texGen }

func (u *TextureUnit) SetTexCoordGeneration(g *TexCoordGeneration) {
	u.checkWrite(PhaseData)
	u.texGen = g
}

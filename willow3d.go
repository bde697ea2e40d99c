package willow3d

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/phanxgames/willow3d/render"
)

// Color is an RGB color with components in [0, 1].
type Color struct {
	R, G, B float32
}

// ColorWhite is the default unlit color.
var ColorWhite = Color{1, 1, 1}

// Vec3 returns c as a vector.
func (c Color) Vec3() mgl32.Vec3 {
	return mgl32.Vec3{c.R, c.G, c.B}
}

func (c Color) valid() bool {
	return unit(c.R) && unit(c.G) && unit(c.B)
}

func unit(v float32) bool {
	return v >= 0 && v <= 1
}

// NodeState is the construction lifecycle of a node. Nodes move forward only.
type NodeState uint8

const (
	StateUninitialized     NodeState = iota // zero value, not usable
	StateUnderConstruction                  // fields may be set, nothing is realized
	StateLive                               // realized; field changes reach the render graph
)

func (s NodeState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateUnderConstruction:
		return "under construction"
	case StateLive:
		return "live"
	default:
		return fmt.Sprintf("NodeState(%d)", uint8(s))
	}
}

// NodeRole is the kind of field slot a node can fill.
type NodeRole uint8

const (
	RoleMaterial NodeRole = iota + 1
	RoleAppearance
	RoleGeometry
	RoleTexture
	RoleTextureTransform
	RoleTextureProperties
	RoleLineProperties
	RolePointProperties
	RoleFillProperties
	RoleShape
	RoleProto
)

var roleNames = map[NodeRole]string{
	RoleMaterial:          "Material",
	RoleAppearance:        "Appearance",
	RoleGeometry:          "Geometry",
	RoleTexture:           "Texture",
	RoleTextureTransform:  "TextureTransform",
	RoleTextureProperties: "TextureProperties",
	RoleLineProperties:    "LineProperties",
	RolePointProperties:   "PointProperties",
	RoleFillProperties:    "FillProperties",
	RoleShape:             "Shape",
	RoleProto:             "ProtoInstance",
}

func (r NodeRole) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return fmt.Sprintf("NodeRole(%d)", uint8(r))
}

// BlendMode selects how a texture stage combines with the color arriving from
// the previous stage. Each maps to a specific render.TextureAttributes value.
type BlendMode uint8

const (
	BlendModulate    BlendMode = iota // texture × base color
	BlendReplace                      // texture replaces base color
	BlendModulate2X                   // MODULATE scaled by 2
	BlendModulate4X                   // MODULATE scaled by 4
	BlendDotProduct3                  // RGB dot product of texture and a constant
	BlendAdd                          // texture + base
	BlendAddSigned                    // texture + base - 0.5
	BlendAddSigned2X                  // ADD_SIGNED scaled by 2
	BlendSubtract                     // texture - base
	BlendOff                          // stage contributes no texture
)

var blendNames = map[string]BlendMode{
	"MODULATE":    BlendModulate,
	"REPLACE":     BlendReplace,
	"MODULATE2X":  BlendModulate2X,
	"MODULATE4X":  BlendModulate4X,
	"DOTPRODUCT3": BlendDotProduct3,
	"ADD":         BlendAdd,
	"ADDSIGNED":   BlendAddSigned,
	"ADDSIGNED2X": BlendAddSigned2X,
	"SUBTRACT":    BlendSubtract,
	"OFF":         BlendOff,
}

// ParseBlendMode maps a MultiTexture mode name to a BlendMode.
func ParseBlendMode(name string) (BlendMode, bool) {
	m, ok := blendNames[name]
	return m, ok
}

// Attributes returns the combiner state for this mode. OFF returns the
// default attributes; the caller is expected to clear the unit's texture.
func (b BlendMode) Attributes() render.TextureAttributes {
	a := render.DefaultTextureAttributes()
	switch b {
	case BlendReplace:
		a.Mode = render.TextureReplace
	case BlendModulate:
		a.Mode = render.TextureModulate
	case BlendModulate2X:
		a.Mode = render.TextureModulate
		a.RGBScale = 2
	case BlendModulate4X:
		a.Mode = render.TextureModulate
		a.RGBScale = 4
	case BlendDotProduct3:
		a.Mode = render.TextureCombine
		a.CombineRGB = render.CombineDot3RGB
		a.CombineAlpha = render.CombineReplace
		a.SourceRGB[0] = render.SourceCurrentTexture
		a.SourceRGB[1] = render.SourceConstantColor
	case BlendAdd:
		a.Mode = render.TextureCombine
		a.CombineRGB = render.CombineAdd
		a.CombineAlpha = render.CombineReplace
	case BlendAddSigned:
		a.Mode = render.TextureCombine
		a.CombineRGB = render.CombineAddSigned
	case BlendAddSigned2X:
		a.Mode = render.TextureCombine
		a.CombineRGB = render.CombineAddSigned
		a.RGBScale = 2
	case BlendSubtract:
		a.Mode = render.TextureCombine
		a.CombineRGB = render.CombineSubtract
	case BlendOff:
	}
	return a
}

// Shape and Appearance field indexes used by SetField and by external
// reference resolution.
const (
	FieldAppearance = iota
	FieldGeometry
	FieldMaterial
	FieldTexture
	FieldTextureTransform
	FieldLineProperties
	FieldPointProperties
	FieldFillProperties
)

var fieldNames = [...]string{
	FieldAppearance:       "appearance",
	FieldGeometry:         "geometry",
	FieldMaterial:         "material",
	FieldTexture:          "texture",
	FieldTextureTransform: "textureTransform",
	FieldLineProperties:   "lineProperties",
	FieldPointProperties:  "pointProperties",
	FieldFillProperties:   "fillProperties",
}

func fieldName(i int) string {
	if i >= 0 && i < len(fieldNames) {
		return fieldNames[i]
	}
	return fmt.Sprintf("field(%d)", i)
}

package willow3d

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"reflect"

	"github.com/phanxgames/willow3d/render"
)

// StageSource selects the colour a MultiTexture stage combines against.
type StageSource uint8

const (
	SourceDefault  StageSource = iota // previous stage, or the material for stage 0
	SourceDiffuse                     // material diffuse colour
	SourceSpecular                    // material specular colour
	SourceFactor                      // MultiTexture color and alpha
)

var sourceNames = map[string]StageSource{
	"":         SourceDefault,
	"DIFFUSE":  SourceDiffuse,
	"SPECULAR": SourceSpecular,
	"FACTOR":   SourceFactor,
}

// StageFunction is applied to a stage's texel before combining.
type StageFunction uint8

const (
	FunctionNone StageFunction = iota
	FunctionComplement
	FunctionAlphaReplicate
)

var functionNames = map[string]StageFunction{
	"":               FunctionNone,
	"COMPLEMENT":     FunctionComplement,
	"ALPHAREPLICATE": FunctionAlphaReplicate,
}

func parseNames[T any](node, field string, names []string, table map[string]T) ([]T, error) {
	out := make([]T, len(names))
	for i, n := range names {
		v, ok := table[n]
		if !ok {
			return nil, &FieldValueError{Node: node, Field: fmt.Sprintf("%s[%d]", field, i), Value: n, Want: "unknown name"}
		}
		out[i] = v
	}
	return out, nil
}

// StageParams are the combiner inputs of one texture stage.
type StageParams struct {
	Mode     BlendMode
	Source   StageSource
	Function StageFunction
	Alpha    float32
	Color    Color
}

// DefaultStageParams is a MODULATE stage with a white opaque factor.
func DefaultStageParams() StageParams {
	return StageParams{Mode: BlendModulate, Alpha: 1, Color: ColorWhite}
}

// replaceStageParams is the default for volume and offscreen textures, which
// carry no mode field of their own.
func replaceStageParams() StageParams {
	p := DefaultStageParams()
	p.Mode = BlendReplace
	return p
}

// Attributes returns the combiner state for these parameters, computed from
// scratch.
func (p StageParams) Attributes() render.TextureAttributes {
	a := p.Mode.Attributes()
	a.BlendColor = p.Color.Vec3().Vec4(p.Alpha)
	if a.Mode == render.TextureCombine {
		switch p.Source {
		case SourceDiffuse, SourceSpecular:
			a.SourceRGB[1] = render.SourceBaseColor
		case SourceFactor:
			a.SourceRGB[1] = render.SourceConstantColor
		}
	}
	switch p.Function {
	case FunctionComplement:
		a.OperandRGB[0] = render.OperandOneMinusColor
	case FunctionAlphaReplicate:
		a.OperandRGB[0] = render.OperandAlpha
	}
	return a
}

// textureStage is the working record of one texture unit.
type textureStage struct {
	images []image.Image
	urls   []string
	is3D   bool
	// canvas is set for a RenderedTexture stage.
	canvas   *render.OffscreenTexture
	sampling render.Sampling
	params   StageParams
	texGen   *render.TexCoordGeneration
	// empty stages come from unsupported children and never realize.
	empty bool
}

// deriveStages expands a texture node into its stages. warnings are
// non-fatal and reported by the caller.
func deriveStages(tex TextureNode, env *Env) (stages []textureStage, warnings []error) {
	switch t := tex.(type) {
	case nil:
		return nil, nil
	case *ImageTexture:
		st := t.stage(env)
		return []textureStage{st}, nil
	case *MultiTexture:
		children, params := t.snapshot()
		stages = make([]textureStage, len(children))
		for i, c := range children {
			st, err := multiChildStage(c, env)
			if err != nil {
				warnings = append(warnings, fmt.Errorf("stage %d: %w", i, err))
			}
			st.params = params[i]
			stages[i] = st
		}
		return stages, warnings
	case *ImageTexture3D:
		return []textureStage{t.stage(env)}, nil
	case *RenderedTexture:
		return []textureStage{t.stage(env)}, nil
	case *ComposedCubeMapTexture:
		return nil, fmt.Errorf("%w: ComposedCubeMapTexture is not supported", ErrUnsupportedCombination)
	default:
		panic(fmt.Sprintf("willow3d: unknown texture node %T", tex))
	}
}

func multiChildStage(c TextureNode, env *Env) (textureStage, error) {
	switch t := c.(type) {
	case nil:
		return textureStage{empty: true}, nil
	case *ImageTexture:
		return t.stage(env), nil
	case *ImageTexture3D:
		return t.stage(env), nil
	case *RenderedTexture:
		return t.stage(env), nil
	case *MultiTexture:
		return textureStage{empty: true}, fmt.Errorf("%w: MultiTexture inside MultiTexture", ErrUnsupportedCombination)
	case *ComposedCubeMapTexture:
		return textureStage{empty: true}, fmt.Errorf("%w: ComposedCubeMapTexture inside MultiTexture", ErrUnsupportedCombination)
	default:
		panic(fmt.Sprintf("willow3d: unknown texture node %T", c))
	}
}

// stageSampling resolves wrap and filter settings. An explicit properties
// node wins over the repeat flags and the environment defaults.
func stageSampling(props *TextureProperties, repeat [3]bool, env *Env) render.Sampling {
	if props != nil {
		return props.Sampling()
	}
	wrap := func(r bool) render.BoundaryMode {
		if r {
			return render.BoundaryWrap
		}
		return render.BoundaryClampEdge
	}
	s := render.Sampling{
		BoundaryS: wrap(repeat[0]),
		BoundaryT: wrap(repeat[1]),
		BoundaryR: wrap(repeat[2]),
		MinFilter: render.FilterFastest,
		MagFilter: render.FilterFastest,
		MipMaps:   env.Textures.UseMipMaps,
	}
	if env.Textures.UseMipMaps {
		s.MinFilter = render.FilterLinearMipmapLinear
	}
	if d := env.Textures.AnisotropicDegree; d > 1 {
		s.Anisotropic = render.AnisotropicSingle
		s.AnisotropicDegree = d
	}
	return s
}

// realize builds the texture object for a stage. A stage whose rasters have
// not arrived yet realizes to nil without error. slot is the raster that
// changed last and names the URL in a creation error.
func realize(index, slot int, st *textureStage) (render.Texture, error) {
	switch {
	case st.empty:
		return nil, nil
	case st.canvas != nil:
		return st.canvas, nil
	case st.is3D:
		for _, img := range st.images {
			if img == nil {
				return nil, nil
			}
		}
		if len(st.images) == 0 {
			return nil, nil
		}
		t, err := render.NewTexture3DFromImages(st.images, st.sampling)
		if err != nil {
			return nil, creationError(index, slot, st, err)
		}
		return t, nil
	default:
		if len(st.images) == 0 || st.images[0] == nil {
			return nil, nil
		}
		t, err := render.NewTexture2DFromImage(st.images[0], st.sampling)
		if err != nil {
			return nil, creationError(index, slot, st, err)
		}
		return t, nil
	}
}

func creationError(index, slot int, st *textureStage, cause error) error {
	var se *render.SliceError
	if errors.As(cause, &se) {
		slot = se.Slice
	}
	url := ""
	if slot >= 0 && slot < len(st.urls) {
		url = st.urls[slot]
	}
	return fmt.Errorf("%w: Failed creation of the base texture image for stage %d, URL is: %s: %v",
		ErrResourceCreation, index, url, cause)
}

// sameSource reports whether two stages would realize the same texture
// object.
func sameSource(a, b *textureStage) bool {
	if a.empty != b.empty || a.is3D != b.is3D || a.canvas != b.canvas || a.sampling != b.sampling {
		return false
	}
	if len(a.images) != len(b.images) {
		return false
	}
	for i := range a.images {
		if !sameImage(a.images[i], b.images[i]) {
			return false
		}
	}
	return true
}

func sameImage(a, b image.Image) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

var texGenModes = map[string]render.TexGenMode{
	"SPHERE":                      render.TexGenSpherical,
	"CAMERASPACENORMAL":           render.TexGenNormals,
	"CAMERASPACEREFLECTIONVECTOR": render.TexGenReflections,
	"CAMERASPACEPOSITION":         render.TexGenEyeLinear,
}

// texGenFor maps a TextureCoordinateGenerator mode name to a generation
// descriptor. Unknown and empty names disable generation.
func texGenFor(mode string, is3D bool) *render.TexCoordGeneration {
	m, ok := texGenModes[mode]
	if !ok {
		return nil
	}
	c := render.TexS | render.TexT
	if is3D {
		c |= render.TexR
	}
	return &render.TexCoordGeneration{Mode: m, Components: c}
}

// grayscale reports whether img carries no chroma, either by colour model or
// by sampling every pixel.
func grayscale(img image.Image) bool {
	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		return true
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			if r != g || g != bl {
				return false
			}
		}
	}
	return true
}

package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
)

// BoundaryMode controls texture coordinate wrapping on one axis.
type BoundaryMode uint8

const (
	BoundaryWrap BoundaryMode = iota
	BoundaryClamp
	BoundaryClampEdge
	BoundaryClampBoundary
	BoundaryMirroredRepeat
)

// Filter selects texel sampling.
type Filter uint8

const (
	FilterFastest Filter = iota
	FilterNicest
	FilterNearest
	FilterLinear
	FilterNearestMipmapNearest
	FilterLinearMipmapLinear
)

// AnisotropicMode enables anisotropic filtering.
type AnisotropicMode uint8

const (
	AnisotropicNone AnisotropicMode = iota
	AnisotropicSingle
)

// Format is the texel layout of a texture.
type Format uint8

const (
	FormatRGBA Format = iota
	FormatRGB
	FormatLuminance
	FormatLuminanceAlpha
)

// Sampling groups the wrap and filter settings of a texture.
type Sampling struct {
	BoundaryS, BoundaryT, BoundaryR BoundaryMode
	MinFilter, MagFilter            Filter
	Anisotropic                     AnisotropicMode
	AnisotropicDegree               float32
	MipMaps                         bool
	BorderColor                     mgl32.Vec4
}

// TextureType distinguishes the texture object variants.
type TextureType uint8

const (
	TextureType2D TextureType = iota
	TextureType3D
	TextureTypeOffscreen
)

// Texture is a texture object a TextureUnit can reference.
type Texture interface {
	Object
	Type() TextureType
	Format() Format
	Sampling() Sampling
	SetSampling(s Sampling)
}

// ErrUpload is wrapped by every raster upload failure.
var ErrUpload = errors.New("render: raster upload failed")

// SliceError names the slice of a volume texture that failed to upload.
type SliceError struct {
	Slice int
	Err   error
}

func (e *SliceError) Error() string { return fmt.Sprintf("slice %d: %v", e.Slice, e.Err) }

func (e *SliceError) Unwrap() error { return e.Err }

// FormatOf reports the texel layout that best describes img.
func FormatOf(img image.Image) Format {
	switch img.ColorModel() {
	case color.GrayModel, color.Gray16Model:
		return FormatLuminance
	}
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return FormatRGB
	}
	return FormatRGBA
}

// Upload copies img into a new ebiten image. Rasters with no pixels, and any
// failure inside ebiten, come back as errors wrapping ErrUpload.
func Upload(img image.Image) (out *ebiten.Image, err error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrUpload)
	}
	if b := img.Bounds(); b.Dx() <= 0 || b.Dy() <= 0 {
		return nil, fmt.Errorf("%w: empty raster %v", ErrUpload, b)
	}
	defer func() {
		if r := recover(); r != nil {
			out = nil
			err = fmt.Errorf("%w: %v", ErrUpload, r)
		}
	}()
	return ebiten.NewImageFromImage(img), nil
}

// Texture2D is a single raster. All setters are data writes.
type Texture2D struct {
	base
	image    *ebiten.Image
	format   Format
	sampling Sampling
}

// NewTexture2D wraps an uploaded raster.
func NewTexture2D(img *ebiten.Image, f Format, s Sampling) *Texture2D {
	t := &Texture2D{image: img, format: f, sampling: s}
	t.init(t)
	return t
}

// NewTexture2DFromImage uploads img and wraps it.
func NewTexture2DFromImage(img image.Image, s Sampling) (*Texture2D, error) {
	up, err := Upload(img)
	if err != nil {
		return nil, err
	}
	return NewTexture2D(up, FormatOf(img), s), nil
}

func (t *Texture2D) Type() TextureType { return TextureType2D }
func (t *Texture2D) Format() Format { return t.format }
func (t *Texture2D) Sampling() Sampling { return t.sampling }
func (t *Texture2D) Image() *ebiten.Image { return t.image }

func (t *Texture2D) SetSampling(s Sampling) {
	t.checkWrite(PhaseData)
	t.sampling = s
}

// SetImage replaces the raster and its format.
func (t *Texture2D) SetImage(img *ebiten.Image, f Format) {
	t.checkWrite(PhaseData)
	t.image = img
	t.format = f
}

// Texture3D is a stack of equally sized, equally formatted slices.
type Texture3D struct {
	base
	slices   []*ebiten.Image
	format   Format
	sampling Sampling
}

// NewTexture3DFromImages uploads every slice. All slices must be present and
// share one format.
func NewTexture3DFromImages(imgs []image.Image, s Sampling) (*Texture3D, error) {
	if len(imgs) == 0 {
		return nil, fmt.Errorf("%w: no slices", ErrUpload)
	}
	var f Format
	slices := make([]*ebiten.Image, len(imgs))
	for i, img := range imgs {
		if img == nil {
			return nil, &SliceError{Slice: i, Err: fmt.Errorf("%w: missing", ErrUpload)}
		}
		sf := FormatOf(img)
		if i == 0 {
			f = sf
		} else if sf != f {
			return nil, &SliceError{Slice: i, Err: fmt.Errorf("%w: format differs from slice 0", ErrUpload)}
		}
		up, err := Upload(img)
		if err != nil {
			return nil, &SliceError{Slice: i, Err: err}
		}
		slices[i] = up
	}
	t := &Texture3D{slices: slices, format: f, sampling: s}
	t.init(t)
	return t, nil
}

func (t *Texture3D) Type() TextureType { return TextureType3D }
func (t *Texture3D) Format() Format { return t.format }
func (t *Texture3D) Sampling() Sampling { return t.sampling }

// Depth returns the number of slices.
func (t *Texture3D) Depth() int { return len(t.slices) }

// Slice returns slice i.
func (t *Texture3D) Slice(i int) *ebiten.Image { return t.slices[i] }

func (t *Texture3D) SetSampling(s Sampling) {
	t.checkWrite(PhaseData)
	t.sampling = s
}

// OffscreenTexture is a persistent canvas some other pass renders into, used
// as a texture without copying. Drawing into the canvas is not a protocol
// write; only its sampling settings are.
type OffscreenTexture struct {
	base
	image    *ebiten.Image
	w, h     int
	sampling Sampling
}

// NewOffscreenTexture creates a w by h canvas.
func NewOffscreenTexture(w, h int) *OffscreenTexture {
	t := &OffscreenTexture{image: ebiten.NewImage(w, h), w: w, h: h}
	t.init(t)
	return t
}

func (t *OffscreenTexture) Type() TextureType { return TextureTypeOffscreen }
func (t *OffscreenTexture) Format() Format { return FormatRGBA }
func (t *OffscreenTexture) Sampling() Sampling { return t.sampling }

func (t *OffscreenTexture) SetSampling(s Sampling) {
	t.checkWrite(PhaseData)
	t.sampling = s
}

// Image returns the canvas for direct drawing.
func (t *OffscreenTexture) Image() *ebiten.Image { return t.image }

func (t *OffscreenTexture) Width() int { return t.w }
func (t *OffscreenTexture) Height() int { return t.h }

// Clear fills the canvas with transparent black.
func (t *OffscreenTexture) Clear() { t.image.Clear() }

// Fill fills the canvas with c.
func (t *OffscreenTexture) Fill(c color.Color) { t.image.Fill(c) }

// DrawImage draws src onto the canvas.
func (t *OffscreenTexture) DrawImage(src *ebiten.Image, op *ebiten.DrawImageOptions) {
	t.image.DrawImage(src, op)
}

// Dispose releases the canvas. The texture must not be used afterwards.
func (t *OffscreenTexture) Dispose() {
	if t.image != nil {
		t.image.Deallocate()
		t.image = nil
	}
}

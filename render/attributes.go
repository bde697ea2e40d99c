package render

import "github.com/go-gl/mathgl/mgl32"

// CullFace selects which polygon faces are discarded.
type CullFace uint8

const (
	CullNone CullFace = iota
	CullBack
	CullFront
)

// PolygonMode selects how polygons are rasterised.
type PolygonMode uint8

const (
	PolygonFill PolygonMode = iota
	PolygonLine
	PolygonPoint
)

// PolygonAttributes controls face culling, winding and rasterisation.
// All setters are data writes.
type PolygonAttributes struct {
	base
	cull     CullFace
	ccw      bool
	twoSided bool
	mode     PolygonMode
}

// NewPolygonAttributes returns attributes that cull back faces of
// counter-clockwise polygons.
func NewPolygonAttributes() *PolygonAttributes {
	p := &PolygonAttributes{cull: CullBack, ccw: true}
	p.init(p)
	return p
}

func (p *PolygonAttributes) SetCullFace(c CullFace) {
	p.checkWrite(PhaseData)
	p.cull = c
}

func (p *PolygonAttributes) CullFace() CullFace { return p.cull }

// SetCCW sets whether counter-clockwise polygons are front facing.
func (p *PolygonAttributes) SetCCW(ccw bool) {
	p.checkWrite(PhaseData)
	p.ccw = ccw
}

func (p *PolygonAttributes) CCW() bool { return p.ccw }

// SetTwoSidedLighting sets whether back faces are lit with flipped normals.
func (p *PolygonAttributes) SetTwoSidedLighting(on bool) {
	p.checkWrite(PhaseData)
	p.twoSided = on
}

func (p *PolygonAttributes) TwoSidedLighting() bool { return p.twoSided }

func (p *PolygonAttributes) SetPolygonMode(m PolygonMode) {
	p.checkWrite(PhaseData)
	p.mode = m
}

func (p *PolygonAttributes) PolygonMode() PolygonMode { return p.mode }

// LineAttributes controls line rasterisation. All setters are data writes.
type LineAttributes struct {
	base
	width     float32
	pattern   uint16
	factor    int
	antialias bool
}

// NewLineAttributes returns solid, one pixel wide lines.
func NewLineAttributes() *LineAttributes {
	l := &LineAttributes{width: 1, pattern: 0xffff, factor: 1}
	l.init(l)
	return l
}

func (l *LineAttributes) SetWidth(w float32) {
	l.checkWrite(PhaseData)
	l.width = w
}

func (l *LineAttributes) Width() float32 { return l.width }

// SetStipple sets the 16-bit on/off pattern and the pixel repeat factor.
func (l *LineAttributes) SetStipple(pattern uint16, factor int) {
	l.checkWrite(PhaseData)
	l.pattern = pattern
	l.factor = factor
}

func (l *LineAttributes) Stipple() (pattern uint16, factor int) { return l.pattern, l.factor }

func (l *LineAttributes) SetAntialiasing(on bool) {
	l.checkWrite(PhaseData)
	l.antialias = on
}

func (l *LineAttributes) Antialiasing() bool { return l.antialias }

// PointAttributes controls point rasterisation. All setters are data writes.
type PointAttributes struct {
	base
	size        float32
	minSize     float32
	maxSize     float32
	attenuation [3]float32
	sprites     bool
	antialias   bool
}

// NewPointAttributes returns one pixel, unattenuated points.
func NewPointAttributes() *PointAttributes {
	p := &PointAttributes{size: 1, minSize: 1, maxSize: 1, attenuation: [3]float32{1, 0, 0}}
	p.init(p)
	return p
}

// SetSize sets the nominal point size and its clamp range.
func (p *PointAttributes) SetSize(size, min, max float32) {
	p.checkWrite(PhaseData)
	p.size, p.minSize, p.maxSize = size, min, max
}

func (p *PointAttributes) Size() (size, min, max float32) { return p.size, p.minSize, p.maxSize }

// SetAttenuation sets the constant, linear and quadratic distance factors.
func (p *PointAttributes) SetAttenuation(a [3]float32) {
	p.checkWrite(PhaseData)
	p.attenuation = a
}

func (p *PointAttributes) Attenuation() [3]float32 { return p.attenuation }

func (p *PointAttributes) SetPointSprites(on bool) {
	p.checkWrite(PhaseData)
	p.sprites = on
}

func (p *PointAttributes) PointSprites() bool { return p.sprites }

func (p *PointAttributes) SetAntialiasing(on bool) {
	p.checkWrite(PhaseData)
	p.antialias = on
}

func (p *PointAttributes) Antialiasing() bool { return p.antialias }

// FillAttributes controls polygon interior fill. All setters are data writes.
type FillAttributes struct {
	base
	filled     bool
	hatched    bool
	hatchStyle int
	hatchColor mgl32.Vec3
}

// NewFillAttributes returns a solid, unhatched fill.
func NewFillAttributes() *FillAttributes {
	f := &FillAttributes{filled: true, hatchStyle: 1, hatchColor: mgl32.Vec3{1, 1, 1}}
	f.init(f)
	return f
}

func (f *FillAttributes) SetFilled(on bool) {
	f.checkWrite(PhaseData)
	f.filled = on
}

func (f *FillAttributes) Filled() bool { return f.filled }

// SetHatch enables or disables hatching with the given style and colour.
func (f *FillAttributes) SetHatch(on bool, style int, c mgl32.Vec3) {
	f.checkWrite(PhaseData)
	f.hatched = on
	f.hatchStyle = style
	f.hatchColor = c
}

func (f *FillAttributes) Hatch() (on bool, style int, c mgl32.Vec3) {
	return f.hatched, f.hatchStyle, f.hatchColor
}

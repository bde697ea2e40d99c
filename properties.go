package willow3d

import (
	"sync"

	"github.com/phanxgames/willow3d/render"
)

// Line types understood by LineProperties.
const (
	LineSolid = iota + 1
	LineDashed
	LineDotted
	LineDashDot
	LineDashDotDot
)

var linePatterns = map[int]uint16{
	LineSolid:      0xFFFF,
	LineDashed:     0x00FF,
	LineDotted:     0x0101,
	LineDashDot:    0x1C47,
	LineDashDotDot: 0x24FF,
}

// LineProperties styles the lines of a shape. It owns its render attributes
// and pushes its own changes.
type LineProperties struct {
	mu       sync.Mutex
	state    NodeState
	applied  bool
	linetype int
	scale    float32
	obj      *render.LineAttributes
}

// NewLineProperties returns applied solid lines at the default width.
func NewLineProperties() *LineProperties {
	return &LineProperties{state: StateUnderConstruction, applied: true, linetype: LineSolid, scale: 0}
}

func (p *LineProperties) Role() NodeRole { return RoleLineProperties }

func (p *LineProperties) State() NodeState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *LineProperties) SetupFinished() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateUninitialized {
		panic("willow3d: LineProperties not initialized; use NewLineProperties")
	}
	if p.state == StateLive {
		return
	}
	p.obj = render.NewLineAttributes()
	p.state = StateLive
	p.apply()
}

// RenderLineAttributes returns the realized attributes, or nil before
// SetupFinished.
func (p *LineProperties) RenderLineAttributes() *render.LineAttributes {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.obj
}

func (p *LineProperties) UpdateNodeBoundsChanges(render.Object) {}

func (p *LineProperties) UpdateNodeDataChanges(render.Object) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.apply()
}

// apply pushes every field. Must hold p.mu.
func (p *LineProperties) apply() {
	if !p.applied {
		p.obj.SetWidth(1)
		p.obj.SetStipple(0xFFFF, 1)
		return
	}
	w := p.scale
	if w <= 0 {
		w = 1
	}
	p.obj.SetWidth(w)
	p.obj.SetStipple(linePatterns[p.linetype], 1)
}

func (p *LineProperties) update(fn func()) {
	p.mu.Lock()
	fn()
	obj := p.obj
	live := p.state == StateLive
	p.mu.Unlock()
	if live {
		render.Dispatch(obj, p, render.PhaseData)
	}
}

// SetApplied turns the line style on or off.
func (p *LineProperties) SetApplied(on bool) { p.update(func() { p.applied = on }) }

// SetLinetype selects one of the Line* patterns.
func (p *LineProperties) SetLinetype(t int) error {
	if _, ok := linePatterns[t]; !ok {
		return &FieldValueError{Node: "LineProperties", Field: "linetype", Value: t, Want: "must be 1 to 5"}
	}
	p.update(func() { p.linetype = t })
	return nil
}

// SetLinewidthScaleFactor sets the width in pixels. Zero or less draws the
// thinnest line.
func (p *LineProperties) SetLinewidthScaleFactor(s float32) {
	p.update(func() { p.scale = s })
}

// Point colour modes.
type PointColorMode uint8

const (
	PointTextureColor PointColorMode = iota
	PointColor
	PointTextureAndPointColor
)

var pointColorNames = map[string]PointColorMode{
	"TEXTURE_COLOR":           PointTextureColor,
	"POINT_COLOR":             PointColor,
	"TEXTURE_AND_POINT_COLOR": PointTextureAndPointColor,
}

// PointProperties styles the points of a shape. When the renderer supports
// point sprites the owning appearance switches it into sprite mode.
type PointProperties struct {
	mu          sync.Mutex
	state       NodeState
	scale       float32
	minSize     float32
	maxSize     float32
	attenuation [3]float32
	colorMode   PointColorMode
	sprites     bool
	obj         *render.PointAttributes
}

// NewPointProperties returns the X3D PointProperties defaults.
func NewPointProperties() *PointProperties {
	return &PointProperties{
		state:       StateUnderConstruction,
		scale:       1,
		minSize:     1,
		maxSize:     64,
		attenuation: [3]float32{1, 0, 0},
		colorMode:   PointTextureAndPointColor,
	}
}

func (p *PointProperties) Role() NodeRole { return RolePointProperties }

func (p *PointProperties) State() NodeState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *PointProperties) SetupFinished() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateUninitialized {
		panic("willow3d: PointProperties not initialized; use NewPointProperties")
	}
	if p.state == StateLive {
		return
	}
	p.obj = render.NewPointAttributes()
	p.state = StateLive
	p.apply()
}

func (p *PointProperties) RenderPointAttributes() *render.PointAttributes {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.obj
}

func (p *PointProperties) UpdateNodeBoundsChanges(render.Object) {}

func (p *PointProperties) UpdateNodeDataChanges(render.Object) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.apply()
}

func (p *PointProperties) apply() {
	p.obj.SetSize(p.scale, p.minSize, p.maxSize)
	p.obj.SetAttenuation(p.attenuation)
	p.obj.SetPointSprites(p.sprites)
	p.obj.SetAntialiasing(!p.sprites)
}

func (p *PointProperties) update(fn func() bool) {
	p.mu.Lock()
	changed := fn()
	obj := p.obj
	live := p.state == StateLive
	p.mu.Unlock()
	if live && changed {
		render.Dispatch(obj, p, render.PhaseData)
	}
}

// SetPointSizeScaleFactor scales the nominal point size. s must be >= 1.
func (p *PointProperties) SetPointSizeScaleFactor(s float32) error {
	if s < 1 {
		return &FieldValueError{Node: "PointProperties", Field: "pointSizeScaleFactor", Value: s, Want: "must be >= 1"}
	}
	p.update(func() bool { return setField(&p.scale, s) })
	return nil
}

// SetPointSizeMinValue clamps attenuated sizes from below.
func (p *PointProperties) SetPointSizeMinValue(v float32) error {
	if err := checkNonNegative("PointProperties", "pointSizeMinValue", v); err != nil {
		return err
	}
	p.update(func() bool { return setField(&p.minSize, v) })
	return nil
}

// SetPointSizeMaxValue clamps attenuated sizes from above.
func (p *PointProperties) SetPointSizeMaxValue(v float32) error {
	if err := checkNonNegative("PointProperties", "pointSizeMaxValue", v); err != nil {
		return err
	}
	p.update(func() bool { return setField(&p.maxSize, v) })
	return nil
}

// SetAttenuation sets the constant, linear and quadratic distance factors.
func (p *PointProperties) SetAttenuation(a [3]float32) {
	p.update(func() bool { return setField(&p.attenuation, a) })
}

// SetColorMode takes an X3D colorMode name.
func (p *PointProperties) SetColorMode(name string) error {
	m, ok := pointColorNames[name]
	if !ok {
		return &FieldValueError{Node: "PointProperties", Field: "colorMode", Value: name, Want: "unknown name"}
	}
	p.update(func() bool { return setField(&p.colorMode, m) })
	return nil
}

// ColorMode returns how point colour and texture combine.
func (p *PointProperties) ColorMode() PointColorMode {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.colorMode
}

// SpriteMode reports whether points are drawn as textured sprites.
func (p *PointProperties) SpriteMode() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sprites
}

// setSpriteMode is driven by the appearance that owns p.
func (p *PointProperties) setSpriteMode(on bool) {
	p.update(func() bool { return setField(&p.sprites, on) })
}

// FillProperties controls polygon filling and hatching.
type FillProperties struct {
	mu         sync.Mutex
	state      NodeState
	filled     bool
	hatched    bool
	hatchStyle int
	hatchColor Color
	obj        *render.FillAttributes
}

// NewFillProperties returns filled, hatched polygons in hatch style 1.
func NewFillProperties() *FillProperties {
	return &FillProperties{
		state:      StateUnderConstruction,
		filled:     true,
		hatched:    true,
		hatchStyle: 1,
		hatchColor: ColorWhite,
	}
}

func (p *FillProperties) Role() NodeRole { return RoleFillProperties }

func (p *FillProperties) State() NodeState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *FillProperties) SetupFinished() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateUninitialized {
		panic("willow3d: FillProperties not initialized; use NewFillProperties")
	}
	if p.state == StateLive {
		return
	}
	p.obj = render.NewFillAttributes()
	p.state = StateLive
	p.apply()
}

func (p *FillProperties) RenderFillAttributes() *render.FillAttributes {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.obj
}

func (p *FillProperties) UpdateNodeBoundsChanges(render.Object) {}

func (p *FillProperties) UpdateNodeDataChanges(render.Object) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.apply()
}

func (p *FillProperties) apply() {
	p.obj.SetFilled(p.filled)
	p.obj.SetHatch(p.hatched, p.hatchStyle, p.hatchColor.Vec3())
}

func (p *FillProperties) update(fn func()) {
	p.mu.Lock()
	fn()
	obj := p.obj
	live := p.state == StateLive
	p.mu.Unlock()
	if live {
		render.Dispatch(obj, p, render.PhaseData)
	}
}

// SetFilled and SetHatched toggle the polygon interior and the hatch overlay.
func (p *FillProperties) SetFilled(on bool)  { p.update(func() { p.filled = on }) }
func (p *FillProperties) SetHatched(on bool) { p.update(func() { p.hatched = on }) }

// SetHatchStyle takes one of the 19 X3D hatch styles.
func (p *FillProperties) SetHatchStyle(s int) error {
	if s < 1 || s > 19 {
		return &FieldValueError{Node: "FillProperties", Field: "hatchStyle", Value: s, Want: "must be 1 to 19"}
	}
	p.update(func() { p.hatchStyle = s })
	return nil
}

// SetHatchColor sets the hatch line colour.
func (p *FillProperties) SetHatchColor(c Color) error {
	if err := checkColor("FillProperties", "hatchColor", c); err != nil {
		return err
	}
	p.update(func() { p.hatchColor = c })
	return nil
}

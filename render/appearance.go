package render

// Appearance bundles everything that shades a shape. All setters are data
// writes; the objects it references become live with it.
type Appearance struct {
	base
	material *Material
	units    []*TextureUnit
	polygon  *PolygonAttributes
	line     *LineAttributes
	point    *PointAttributes
	fill     *FillAttributes
}

// NewAppearance returns an empty appearance.
func NewAppearance() *Appearance {
	a := &Appearance{}
	a.init(a)
	return a
}

func (a *Appearance) children() []Object {
	var out []Object
	for _, o := range []Object{present(a.material), present(a.polygon), present(a.line), present(a.point), present(a.fill)} {
		if o != nil {
			out = append(out, o)
		}
	}
	for _, u := range a.units {
		out = append(out, u)
	}
	return out
}

func (a *Appearance) Material() *Material { return a.material }

func (a *Appearance) SetMaterial(m *Material) {
	a.checkWrite(PhaseData)
	a.swapChild(present(a.material), present(m))
	a.material = m
}

// TextureUnits returns a copy of the unit array.
func (a *Appearance) TextureUnits() []*TextureUnit {
	return append([]*TextureUnit(nil), a.units...)
}

// NumTextureUnits returns the length of the unit array.
func (a *Appearance) NumTextureUnits() int { return len(a.units) }

// SetTextureUnits replaces the unit array. nil or empty disables texturing.
func (a *Appearance) SetTextureUnits(units []*TextureUnit) {
	a.checkWrite(PhaseData)
	if a.refs.Load() > 0 {
		s := a.sched.Load()
		for _, u := range units {
			adjustLive(u, s, 1)
		}
		for _, u := range a.units {
			adjustLive(u, s, -1)
		}
	}
	a.units = append([]*TextureUnit(nil), units...)
}

func (a *Appearance) PolygonAttributes() *PolygonAttributes { return a.polygon }

func (a *Appearance) SetPolygonAttributes(p *PolygonAttributes) {
	a.checkWrite(PhaseData)
	a.swapChild(present(a.polygon), present(p))
	a.polygon = p
}

func (a *Appearance) LineAttributes() *LineAttributes { return a.line }

func (a *Appearance) SetLineAttributes(l *LineAttributes) {
	a.checkWrite(PhaseData)
	a.swapChild(present(a.line), present(l))
	a.line = l
}

func (a *Appearance) PointAttributes() *PointAttributes { return a.point }

func (a *Appearance) SetPointAttributes(p *PointAttributes) {
	a.checkWrite(PhaseData)
	a.swapChild(present(a.point), present(p))
	a.point = p
}

func (a *Appearance) FillAttributes() *FillAttributes { return a.fill }

func (a *Appearance) SetFillAttributes(f *FillAttributes) {
	a.checkWrite(PhaseData)
	a.swapChild(present(a.fill), present(f))
	a.fill = f
}

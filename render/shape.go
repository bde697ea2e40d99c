package render

// Shape3D binds one geometry to one appearance.
type Shape3D struct {
	base
	geometry   *Geometry
	appearance *Appearance
	bounds     BoundingBox
}

// NewShape3D returns a shape with no geometry or appearance.
func NewShape3D() *Shape3D {
	s := &Shape3D{}
	s.init(s)
	return s
}

func (s *Shape3D) children() []Object {
	var out []Object
	if s.geometry != nil {
		out = append(out, s.geometry)
	}
	if s.appearance != nil {
		out = append(out, s.appearance)
	}
	return out
}

func (s *Shape3D) Geometry() *Geometry { return s.geometry }

// SetGeometry replaces the geometry. Bounds write.
func (s *Shape3D) SetGeometry(g *Geometry) {
	s.checkWrite(PhaseBounds)
	s.swapChild(present(s.geometry), present(g))
	s.geometry = g
}

func (s *Shape3D) Appearance() *Appearance { return s.appearance }

// SetAppearance replaces the appearance. Data write.
func (s *Shape3D) SetAppearance(a *Appearance) {
	s.checkWrite(PhaseData)
	s.swapChild(present(s.appearance), present(a))
	s.appearance = a
}

// SetBounds fixes the shape's bounds. An empty box returns to bounds computed
// from the geometry. Bounds write.
func (s *Shape3D) SetBounds(b BoundingBox) {
	s.checkWrite(PhaseBounds)
	s.bounds = b
}

// Bounds returns the fixed bounds if set, otherwise the geometry's.
func (s *Shape3D) Bounds() BoundingBox {
	if !s.bounds.IsEmpty() {
		return s.bounds
	}
	if s.geometry == nil {
		return BoundingBox{}
	}
	return s.geometry.Bounds()
}

// Group is an ordered collection of objects.
type Group struct {
	base
	kids []Object
}

// NewGroup returns an empty group.
func NewGroup() *Group {
	g := &Group{}
	g.init(g)
	return g
}

func (g *Group) children() []Object { return g.kids }

// Children returns a copy of the child list.
func (g *Group) Children() []Object { return append([]Object(nil), g.kids...) }

// AddChild appends o. Bounds write.
func (g *Group) AddChild(o Object) {
	if o == nil {
		panic("render: cannot add nil child")
	}
	g.checkWrite(PhaseBounds)
	g.swapChild(nil, o)
	g.kids = append(g.kids, o)
}

// RemoveChild removes the first occurrence of o and reports whether it was
// present. Bounds write.
func (g *Group) RemoveChild(o Object) bool {
	g.checkWrite(PhaseBounds)
	for i, c := range g.kids {
		if c == o {
			g.swapChild(c, nil)
			g.kids = append(g.kids[:i], g.kids[i+1:]...)
			return true
		}
	}
	return false
}

// Bounds returns the union of the children's bounds.
func (g *Group) Bounds() BoundingBox {
	var b BoundingBox
	for _, c := range g.kids {
		switch v := c.(type) {
		case *Shape3D:
			b = b.Union(v.Bounds())
		case *Group:
			b = b.Union(v.Bounds())
		}
	}
	return b
}

package willow3d

import (
	"slices"
	"sync"

	"github.com/phanxgames/willow3d/render"
)

// Style is a viewer-wide rendering override.
type Style uint8

const (
	// StyleShaded draws shapes as their appearances declare.
	StyleShaded Style = iota
	// StyleWireframe draws polygon outlines, unlit and without culling.
	StyleWireframe
	// StylePoints draws polygon vertices, unlit and without culling.
	StylePoints
)

var styleNames = [...]string{"shaded", "wireframe", "points"}

func (s Style) String() string {
	if int(s) < len(styleNames) {
		return styleNames[s]
	}
	return "unknown"
}

// StyleController applies a Style to every registered shape through the
// appearance hooks. Shapes drawn with a proxy appearance are left alone.
type StyleController struct {
	mu     sync.Mutex
	style  Style
	shapes []*Shape
}

// NewStyleController returns a controller in StyleShaded.
func NewStyleController() *StyleController {
	return &StyleController{}
}

// Style returns the current style.
func (c *StyleController) Style() Style {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.style
}

// Register adds s and applies the current style to it if that is not
// StyleShaded.
func (c *StyleController) Register(s *Shape) {
	c.mu.Lock()
	if slices.Contains(c.shapes, s) {
		c.mu.Unlock()
		return
	}
	c.shapes = append(c.shapes, s)
	st := c.style
	c.mu.Unlock()
	if st != StyleShaded {
		applyStyle(s, st)
	}
}

// Unregister removes s and restores its shaded look.
func (c *StyleController) Unregister(s *Shape) {
	c.mu.Lock()
	i := slices.Index(c.shapes, s)
	if i < 0 {
		c.mu.Unlock()
		return
	}
	c.shapes = slices.Delete(c.shapes, i, i+1)
	st := c.style
	c.mu.Unlock()
	if st != StyleShaded {
		applyStyle(s, StyleShaded)
	}
}

// SetStyle switches every registered shape to st.
func (c *StyleController) SetStyle(st Style) {
	c.mu.Lock()
	if c.style == st {
		c.mu.Unlock()
		return
	}
	c.style = st
	shapes := slices.Clone(c.shapes)
	c.mu.Unlock()
	for _, s := range shapes {
		applyStyle(s, st)
	}
}

func applyStyle(s *Shape, st Style) {
	app, geom := s.Appearance(), s.Geometry()
	if app == nil || geom == nil || app.State() != StateLive {
		return
	}
	if st == StyleShaded {
		app.SetPolygonMode(render.PolygonFill)
		app.SetSolid(geom.Solid())
		app.SetCCW(geom.CCW())
		if geom.LightingEnabled() {
			app.ResetLightingEnabled()
		} else {
			app.SetLightingEnabled(false)
		}
		app.SetTexCoordGenModes(geom.TexCoordGenModes())
		app.SetLocalColor(geom.HasLocalColors(), false)
		return
	}

	mode := render.PolygonLine
	if st == StylePoints {
		mode = render.PolygonPoint
	}
	app.SetPolygonMode(mode)
	app.SetSolid(false)
	app.SetCCW(geom.CCW())
	app.SetLightingEnabled(false)
	app.SetTexCoordGenModes(nil)
	app.SetLocalColor(geom.HasLocalColors(), false)
}

package render

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/stretchr/testify/assert"
)

func testCamera() Camera {
	return Camera{
		View:       mgl32.LookAtV(mgl32.Vec3{0, 0, 5}, mgl32.Vec3{}, mgl32.Vec3{0, 1, 0}),
		Projection: mgl32.Perspective(mgl32.DegToRad(45), 1, 0.1, 100),
	}
}

func triangleShape(ccw bool) *Shape3D {
	g := NewGeometry(Triangles)
	verts := []mgl32.Vec3{{-1, -1, 0}, {1, -1, 0}, {0, 1, 0}}
	if !ccw {
		verts[1], verts[2] = verts[2], verts[1]
	}
	g.SetVertices(verts)
	s := NewShape3D()
	s.SetGeometry(g)
	return s
}

func TestRendererDrawsFrontFace(t *testing.T) {
	dst := ebiten.NewImage(64, 64)
	defer dst.Deallocate()

	root := NewGroup()
	root.AddChild(triangleShape(true))

	st := NewRenderer().Draw(dst, root, testCamera())
	assert.Equal(t, 1, st.Shapes)
	assert.Equal(t, 1, st.Triangles)
	assert.Equal(t, 0, st.Culled)
	assert.Equal(t, 1, st.DrawCalls)
}

func TestRendererCullsBackFace(t *testing.T) {
	dst := ebiten.NewImage(64, 64)
	defer dst.Deallocate()

	root := NewGroup()
	root.AddChild(triangleShape(false))
	st := NewRenderer().Draw(dst, root, testCamera())
	assert.Equal(t, 1, st.Culled)
	assert.Equal(t, 0, st.Triangles)

	// A non-solid appearance keeps both faces.
	shape := root.Children()[0].(*Shape3D)
	app := NewAppearance()
	poly := NewPolygonAttributes()
	poly.SetCullFace(CullNone)
	app.SetPolygonAttributes(poly)
	shape.SetAppearance(app)
	st = NewRenderer().Draw(dst, root, testCamera())
	assert.Equal(t, 1, st.Triangles)
}

func TestRendererLinesAndPoints(t *testing.T) {
	dst := ebiten.NewImage(64, 64)
	defer dst.Deallocate()

	lines := NewGeometry(Lines)
	lines.SetVertices([]mgl32.Vec3{{-1, 0, 0}, {1, 0, 0}})
	points := NewGeometry(Points)
	points.SetVertices([]mgl32.Vec3{{0, 0, 0}, {0, 1, 0}})

	root := NewGroup()
	for _, g := range []*Geometry{lines, points} {
		s := NewShape3D()
		s.SetGeometry(g)
		root.AddChild(s)
	}
	st := NewRenderer().Draw(dst, root, testCamera())
	assert.Equal(t, 2, st.Shapes)
	// One quad per segment and per point.
	assert.Equal(t, 6, st.Triangles)
}

func TestShadeIgnoresLightingWhenDisabled(t *testing.T) {
	m := NewMaterial()
	m.SetDiffuse(mgl32.Vec3{1, 0, 0})
	m.SetLightingEnabled(false)
	r := NewRenderer()
	c := r.shade(&shading{mat: m}, 0, mgl32.Vec3{0, 0, 1}, false, true)
	assert.Equal(t, mgl32.Vec4{1, 0, 0, 1}, c)

	m.SetLightingEnabled(true)
	m.SetEmissive(mgl32.Vec3{0, 0, 1})
	c = r.shade(&shading{mat: m}, 0, mgl32.Vec3{0, 0, 1}, false, true)
	assert.Equal(t, mgl32.Vec4{1, 0, 1, 1}, c)
}

func TestRendererPolygonModeLine(t *testing.T) {
	dst := ebiten.NewImage(64, 64)
	defer dst.Deallocate()

	shape := triangleShape(true)
	app := NewAppearance()
	poly := NewPolygonAttributes()
	poly.SetPolygonMode(PolygonLine)
	app.SetPolygonAttributes(poly)
	shape.SetAppearance(app)

	root := NewGroup()
	root.AddChild(shape)
	st := NewRenderer().Draw(dst, root, testCamera())
	// Three edges, two triangles each.
	assert.Equal(t, 6, st.Triangles)

	poly.SetPolygonMode(PolygonPoint)
	st = NewRenderer().Draw(dst, root, testCamera())
	assert.Equal(t, 6, st.Triangles)
}

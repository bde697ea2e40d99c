package render

import "github.com/go-gl/mathgl/mgl32"

// Primitive selects how Geometry vertices are assembled.
type Primitive uint8

const (
	Triangles Primitive = iota // every three vertices form a triangle
	Lines                      // every two vertices form a segment
	Points                     // every vertex is a point
)

// Geometry is a flat vertex array. Vertex positions affect bounds; colours,
// normals, texture coordinates and the unlit colour are data.
type Geometry struct {
	base
	primitive Primitive
	vertices  []mgl32.Vec3
	colors    []mgl32.Vec4
	normals   []mgl32.Vec3
	texCoords []mgl32.Vec2
	unlit     mgl32.Vec3

	aabb      BoundingBox
	aabbDirty bool
}

// NewGeometry creates a geometry of the given primitive with no vertices.
// The unlit colour defaults to white.
func NewGeometry(p Primitive) *Geometry {
	g := &Geometry{primitive: p, unlit: mgl32.Vec3{1, 1, 1}}
	g.init(g)
	return g
}

// Primitive returns the assembly mode.
func (g *Geometry) Primitive() Primitive { return g.primitive }

// SetVertices replaces the vertex positions. Bounds write.
func (g *Geometry) SetVertices(v []mgl32.Vec3) {
	g.checkWrite(PhaseBounds)
	g.vertices = v
	g.aabbDirty = true
}

// Vertices returns the vertex positions. The slice must not be modified.
func (g *Geometry) Vertices() []mgl32.Vec3 { return g.vertices }

// SetColors replaces the per-vertex colours. nil removes them. Data write.
func (g *Geometry) SetColors(c []mgl32.Vec4) {
	g.checkWrite(PhaseData)
	g.colors = c
}

// Colors returns the per-vertex colours, or nil.
func (g *Geometry) Colors() []mgl32.Vec4 { return g.colors }

// SetNormals replaces the per-vertex normals. Data write.
func (g *Geometry) SetNormals(n []mgl32.Vec3) {
	g.checkWrite(PhaseData)
	g.normals = n
}

// Normals returns the per-vertex normals, or nil.
func (g *Geometry) Normals() []mgl32.Vec3 { return g.normals }

// SetTexCoords replaces the per-vertex texture coordinates. Data write.
func (g *Geometry) SetTexCoords(t []mgl32.Vec2) {
	g.checkWrite(PhaseData)
	g.texCoords = t
}

// TexCoords returns the per-vertex texture coordinates, or nil.
func (g *Geometry) TexCoords() []mgl32.Vec2 { return g.texCoords }

// SetUnlitColor sets the colour used for vertices without their own colour
// when lighting is off. Data write.
func (g *Geometry) SetUnlitColor(c mgl32.Vec3) {
	g.checkWrite(PhaseData)
	g.unlit = c
}

// UnlitColor returns the colour set by SetUnlitColor.
func (g *Geometry) UnlitColor() mgl32.Vec3 { return g.unlit }

// Bounds returns the box around the vertices, recomputing it if the vertices
// changed since the last call.
func (g *Geometry) Bounds() BoundingBox {
	if g.aabbDirty {
		g.aabb = BoundsOf(g.vertices)
		g.aabbDirty = false
	}
	return g.aabb
}

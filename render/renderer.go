package render

import (
	"cmp"
	"image/color"
	"math"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/hajimehoshi/ebiten/v2"
)

// Camera is the view and projection used for one draw.
type Camera struct {
	View       mgl32.Mat4
	Projection mgl32.Mat4
}

// DrawStats holds per-draw metrics.
type DrawStats struct {
	Shapes    int
	Triangles int
	Culled    int
	DrawCalls int
}

type triangle struct {
	v     [3]ebiten.Vertex
	depth float32
	img   *ebiten.Image
}

// Renderer draws a live graph onto an ebiten image. It only reads objects and
// must run on the goroutine that calls Scheduler.Boundary.
type Renderer struct {
	tris  []triangle
	verts []ebiten.Vertex
	inds  []uint32
	white *ebiten.Image
}

// NewRenderer returns a renderer with empty buffers.
func NewRenderer() *Renderer {
	return &Renderer{}
}

func (r *Renderer) whitePixel() *ebiten.Image {
	if r.white == nil {
		r.white = ebiten.NewImage(1, 1)
		r.white.Fill(color.White)
	}
	return r.white
}

// Draw projects every shape below root with cam and draws the result onto dst,
// back to front.
func (r *Renderer) Draw(dst *ebiten.Image, root Object, cam Camera) DrawStats {
	var st DrawStats
	r.tris = r.tris[:0]

	b := dst.Bounds()
	vp := view{
		mvp:  cam.Projection.Mul4(cam.View),
		view: cam.View,
		w:    float32(b.Dx()),
		h:    float32(b.Dy()),
	}
	r.walk(root, &vp, &st)

	slices.SortStableFunc(r.tris, func(a, b triangle) int {
		return cmp.Compare(b.depth, a.depth)
	})
	st.Triangles = len(r.tris)
	st.DrawCalls = r.submit(dst)
	return st
}

type view struct {
	mvp  mgl32.Mat4
	view mgl32.Mat4
	w, h float32
}

// project returns the screen position and depth of p, or ok=false when p is
// behind the eye.
func (v *view) project(p mgl32.Vec3) (x, y, depth float32, ok bool) {
	clip := v.mvp.Mul4x1(p.Vec4(1))
	if clip.W() <= 0 {
		return 0, 0, 0, false
	}
	ndc := clip.Vec3().Mul(1 / clip.W())
	return (ndc.X() + 1) * 0.5 * v.w, (1 - ndc.Y()) * 0.5 * v.h, ndc.Z(), true
}

func (r *Renderer) walk(o Object, v *view, st *DrawStats) {
	switch n := o.(type) {
	case *Group:
		for _, c := range n.kids {
			r.walk(c, v, st)
		}
	case *Shape3D:
		if n.geometry == nil {
			return
		}
		st.Shapes++
		r.emitShape(n, v, st)
	}
}

// shading is the per-shape state resolved once before emitting vertices.
type shading struct {
	mat      *Material
	poly     *PolygonAttributes
	unit     *TextureUnit
	img      *ebiten.Image
	replace  bool
	lineW    float32
	pointSz  float32
	unlit    mgl32.Vec3
	colors   []mgl32.Vec4
	normals  []mgl32.Vec3
	texCoord []mgl32.Vec2
}

func (r *Renderer) resolve(s *Shape3D) shading {
	g := s.geometry
	sh := shading{
		lineW:    1,
		pointSz:  2,
		unlit:    g.unlit,
		colors:   g.colors,
		normals:  g.normals,
		texCoord: g.texCoords,
	}
	app := s.appearance
	if app == nil {
		return sh
	}
	sh.mat = app.material
	sh.poly = app.polygon
	if app.line != nil && app.line.width > 0 {
		sh.lineW = app.line.width
	}
	if app.point != nil && app.point.size > 1 {
		sh.pointSz = app.point.size
	}
	if len(app.units) > 0 && app.units[0].texture != nil {
		u := app.units[0]
		switch t := u.texture.(type) {
		case *Texture2D:
			sh.img = t.image
		case *OffscreenTexture:
			sh.img = t.image
		}
		if sh.img != nil {
			sh.unit = u
			sh.replace = u.attrs.Mode == TextureReplace
		}
	}
	return sh
}

func (r *Renderer) emitShape(s *Shape3D, v *view, st *DrawStats) {
	sh := r.resolve(s)
	g := s.geometry
	switch g.primitive {
	case Triangles:
		for i := 0; i+2 < len(g.vertices); i += 3 {
			r.emitTriangle(g, i, &sh, v, st)
		}
	case Lines:
		for i := 0; i+1 < len(g.vertices); i += 2 {
			r.emitSegment(g, i, &sh, v)
		}
	case Points:
		for i := range g.vertices {
			r.emitPoint(g, i, &sh, v)
		}
	}
}

func (r *Renderer) emitTriangle(g *Geometry, i int, sh *shading, v *view, st *DrawStats) {
	var t triangle
	var sx, sy [3]float32
	for k := 0; k < 3; k++ {
		x, y, z, ok := v.project(g.vertices[i+k])
		if !ok {
			return
		}
		sx[k], sy[k] = x, y
		t.depth += z / 3
	}

	ccw, cull, twoSided := true, CullBack, false
	if sh.poly != nil {
		ccw, cull, twoSided = sh.poly.ccw, sh.poly.cull, sh.poly.twoSided
	}
	// Screen Y points down, so a counter-clockwise triangle has negative area.
	area := (sx[1]-sx[0])*(sy[2]-sy[0]) - (sx[2]-sx[0])*(sy[1]-sy[0])
	front := (area < 0) == ccw
	if (cull == CullBack && !front) || (cull == CullFront && front) {
		st.Culled++
		return
	}

	if sh.poly != nil && sh.poly.mode != PolygonFill {
		for k := 0; k < 3; k++ {
			if sh.poly.mode == PolygonLine {
				r.segment(g, i+k, i+(k+1)%3, sh, v)
			} else {
				r.emitPoint(g, i+k, sh, v)
			}
		}
		return
	}

	p0, p1, p2 := g.vertices[i], g.vertices[i+1], g.vertices[i+2]
	faceN := p1.Sub(p0).Cross(p2.Sub(p0))
	if !ccw {
		faceN = faceN.Mul(-1)
	}
	for k := 0; k < 3; k++ {
		n := faceN
		if len(sh.normals) > i+k {
			n = sh.normals[i+k]
		}
		n = v.view.Mul4x1(n.Vec4(0)).Vec3()
		if n.Len() > 0 {
			n = n.Normalize()
		}
		if !front && twoSided {
			n = n.Mul(-1)
		}
		c := r.shade(sh, i+k, n, !front, true)
		t.v[k] = r.vertex(sh, i+k, sx[k], sy[k], n, c)
	}
	t.img = r.imageFor(sh)
	r.tris = append(r.tris, t)
}

func (r *Renderer) emitSegment(g *Geometry, i int, sh *shading, v *view) {
	r.segment(g, i, i+1, sh, v)
}

// segment expands the line between vertices a and b into a quad.
func (r *Renderer) segment(g *Geometry, a, b int, sh *shading, v *view) {
	x0, y0, z0, ok0 := v.project(g.vertices[a])
	x1, y1, z1, ok1 := v.project(g.vertices[b])
	if !ok0 || !ok1 {
		return
	}
	dx, dy := x1-x0, y1-y0
	l := float32(math.Hypot(float64(dx), float64(dy)))
	if l == 0 {
		return
	}
	px, py := -dy/l*sh.lineW/2, dx/l*sh.lineW/2
	c0 := r.shade(sh, a, mgl32.Vec3{}, false, false)
	c1 := r.shade(sh, b, mgl32.Vec3{}, false, false)
	r.quad(sh, [4][2]float32{{x0 + px, y0 + py}, {x1 + px, y1 + py}, {x1 - px, y1 - py}, {x0 - px, y0 - py}},
		[4]mgl32.Vec4{c0, c1, c1, c0}, (z0+z1)/2)
}

func (r *Renderer) emitPoint(g *Geometry, i int, sh *shading, v *view) {
	x, y, z, ok := v.project(g.vertices[i])
	if !ok {
		return
	}
	h := sh.pointSz / 2
	c := r.shade(sh, i, mgl32.Vec3{}, false, false)
	r.quad(sh, [4][2]float32{{x - h, y - h}, {x + h, y - h}, {x + h, y + h}, {x - h, y + h}},
		[4]mgl32.Vec4{c, c, c, c}, z)
}

func (r *Renderer) quad(sh *shading, pts [4][2]float32, cs [4]mgl32.Vec4, depth float32) {
	img := r.whitePixel()
	mk := func(k int) ebiten.Vertex {
		return ebiten.Vertex{
			DstX: pts[k][0], DstY: pts[k][1],
			SrcX: 0.5, SrcY: 0.5,
			ColorR: cs[k][0], ColorG: cs[k][1], ColorB: cs[k][2], ColorA: cs[k][3],
		}
	}
	r.tris = append(r.tris,
		triangle{v: [3]ebiten.Vertex{mk(0), mk(1), mk(2)}, depth: depth, img: img},
		triangle{v: [3]ebiten.Vertex{mk(0), mk(2), mk(3)}, depth: depth, img: img},
	)
}

// shade computes the colour of vertex i. lit is false for lines and points,
// which always use their own or the unlit colour.
func (r *Renderer) shade(sh *shading, i int, n mgl32.Vec3, back, lit bool) mgl32.Vec4 {
	var vc mgl32.Vec4
	hasVC := len(sh.colors) > i
	if hasVC {
		vc = sh.colors[i]
	}

	if !lit || sh.mat == nil {
		switch {
		case hasVC:
			return vc
		case !lit:
			return sh.unlit.Vec4(1)
		default:
			return mgl32.Vec4{1, 1, 1, 1}
		}
	}

	f := sh.mat.FaceFor(back)
	target, localAlpha := sh.mat.ColorTarget()
	diffuse := f.Diffuse
	if hasVC && target == ColorTargetDiffuse {
		diffuse = vc.Vec3()
	}
	alpha := f.Alpha
	if hasVC && localAlpha {
		alpha = vc.W()
	}

	if !sh.mat.lighting {
		if hasVC && target != ColorTargetNone {
			return vc.Vec3().Vec4(alpha)
		}
		return diffuse.Vec4(alpha)
	}

	// Headlight along the view axis.
	nl := float32(math.Max(0, float64(n.Z())))
	c := f.Emissive.
		Add(mulVec(f.Ambient, diffuse)).
		Add(diffuse.Mul(nl))
	if nl > 0 && f.Shininess > 0 {
		c = c.Add(f.Specular.Mul(float32(math.Pow(float64(nl), float64(f.Shininess*128)))))
	}
	return clampVec(c).Vec4(alpha)
}

func (r *Renderer) vertex(sh *shading, i int, x, y float32, n mgl32.Vec3, c mgl32.Vec4) ebiten.Vertex {
	vx := ebiten.Vertex{DstX: x, DstY: y, SrcX: 0.5, SrcY: 0.5, ColorR: c[0], ColorG: c[1], ColorB: c[2], ColorA: c[3]}
	if sh.unit == nil {
		return vx
	}
	var uv mgl32.Vec2
	switch gen := sh.unit.texGen; {
	case gen != nil && (gen.Mode == TexGenSpherical || gen.Mode == TexGenNormals):
		uv = mgl32.Vec2{n.X()*0.5 + 0.5, n.Y()*0.5 + 0.5}
	case len(sh.texCoord) > i:
		uv = sh.texCoord[i]
	default:
		return vx
	}
	tc := sh.unit.transform.Mul4x1(mgl32.Vec4{uv.X(), uv.Y(), 0, 1})
	uv = mgl32.Vec2{tc.X(), tc.Y()}
	b := sh.img.Bounds()
	vx.SrcX = uv.X() * float32(b.Dx())
	vx.SrcY = (1 - uv.Y()) * float32(b.Dy())
	if sh.replace {
		vx.ColorR, vx.ColorG, vx.ColorB, vx.ColorA = 1, 1, 1, 1
	}
	return vx
}

func (r *Renderer) imageFor(sh *shading) *ebiten.Image {
	if sh.img != nil {
		return sh.img
	}
	return r.whitePixel()
}

// submit batches consecutive triangles sharing an image into DrawTriangles32
// calls and returns the number of calls made.
func (r *Renderer) submit(dst *ebiten.Image) int {
	calls := 0
	var cur *ebiten.Image
	flush := func() {
		if len(r.verts) == 0 {
			return
		}
		dst.DrawTriangles32(r.verts, r.inds, cur, &ebiten.DrawTrianglesOptions{})
		calls++
		r.verts = r.verts[:0]
		r.inds = r.inds[:0]
	}
	for i := range r.tris {
		t := &r.tris[i]
		if t.img != cur {
			flush()
			cur = t.img
		}
		base := uint32(len(r.verts))
		r.verts = append(r.verts, t.v[0], t.v[1], t.v[2])
		r.inds = append(r.inds, base, base+1, base+2)
	}
	flush()
	return calls
}

func mulVec(a, b mgl32.Vec3) mgl32.Vec3 {
	return mgl32.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

func clampVec(c mgl32.Vec3) mgl32.Vec3 {
	for i := range c {
		c[i] = mgl32.Clamp(c[i], 0, 1)
	}
	return c
}

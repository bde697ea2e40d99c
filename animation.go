package willow3d

import (
	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// TweenGroup animates up to 3 components of one material field. Create one
// via the convenience constructors (TweenDiffuseColor, TweenEmissiveColor,
// TweenTransparency) and call Update(dt) each frame, or hand it to
// Scene.AddTween.
//
// Values go through the material's validated setters, so a live material
// receives them on the next frame boundary. If a setter rejects a value the
// group stops and keeps the error in Err.
type TweenGroup struct {
	tweens [3]*gween.Tween
	count  int
	apply  func(v [3]float32) error
	Done   bool
	Err    error
}

// Update advances all tweens by dt seconds and writes the values to the
// material.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	var v [3]float32
	allDone := true
	for i := 0; i < g.count; i++ {
		val, finished := g.tweens[i].Update(dt)
		v[i] = val
		if !finished {
			allDone = false
		}
	}
	if err := g.apply(v); err != nil {
		g.Err = err
		g.Done = true
		return
	}
	g.Done = allDone
}

func colorTween(from, to Color, duration float32, fn ease.TweenFunc, set func(Color) error) *TweenGroup {
	g := &TweenGroup{count: 3}
	g.tweens[0] = gween.New(from.R, to.R, duration, fn)
	g.tweens[1] = gween.New(from.G, to.G, duration, fn)
	g.tweens[2] = gween.New(from.B, to.B, duration, fn)
	g.apply = func(v [3]float32) error { return set(Color{R: v[0], G: v[1], B: v[2]}) }
	return g
}

// TweenDiffuseColor animates m's diffuse colour to the target over the
// duration using the easing function.
func TweenDiffuseColor(m *Material, to Color, duration float32, fn ease.TweenFunc) *TweenGroup {
	return colorTween(m.DiffuseColor(), to, duration, fn, m.SetDiffuseColor)
}

// TweenEmissiveColor animates m's emissive colour. Unlit line and point
// geometry follows it through the owning shape.
func TweenEmissiveColor(m *Material, to Color, duration float32, fn ease.TweenFunc) *TweenGroup {
	return colorTween(m.EmissiveColor(), to, duration, fn, m.SetEmissiveColor)
}

// TweenTransparency animates m's transparency.
func TweenTransparency(m *Material, to float32, duration float32, fn ease.TweenFunc) *TweenGroup {
	g := &TweenGroup{count: 1}
	g.tweens[0] = gween.New(m.Transparency(), to, duration, fn)
	g.apply = func(v [3]float32) error { return m.SetTransparency(v[0]) }
	return g
}

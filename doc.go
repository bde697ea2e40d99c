// Package willow3d is a retained-mode X3D scene graph for [Ebitengine].
//
// Willow3d turns declarative X3D nodes (Shape, Appearance, Material, the
// texture and texture transform nodes, line, point and fill properties) into
// the render objects of the render sub-package, and keeps them in sync while a
// live graph is being drawn.
//
// # Quick start
//
//	cfg, err := willow3d.LoadConfig("scene.yaml")
//	if err != nil {
//		log.Fatal(err)
//	}
//	scene := willow3d.NewScene(cfg)
//
//	mat := willow3d.NewMaterial()
//	_ = mat.SetDiffuseColor(willow3d.Color{R: 0.8, G: 0.2, B: 0.2})
//	app := willow3d.NewAppearance(scene.Env())
//	app.SetMaterial(mat)
//
//	geom := willow3d.NewTriangleSet()
//	geom.SetCoords(coords)
//
//	shape := willow3d.NewShape(scene.Env())
//	_ = shape.SetAppearance(app)
//	_ = shape.SetGeometry(geom)
//	scene.AddShape(shape)
//
//	log.Fatal(willow3d.Run(scene, cfg))
//
// # Construction and live updates
//
// Every node starts under construction, where setters write straight through.
// SetupFinished realizes the node's render objects and makes it live. From
// then on a setter records the change and asks the render object for an
// update; the scheduler calls the node back at the next frame boundary, in
// the bounds or data phase, and only then is the render object written. A
// render object that is not attached to a live graph calls back at once.
//
// Texture image changes are batched per appearance and flushed at the end of
// the frame, so a texture that changes many times in one frame rebuilds its
// stage once.
//
// # Errors
//
// Setters return errors wrapping [ErrInvalidFieldValue] or
// [ErrInvalidReferenceType] and leave the node unchanged. Problems found while
// realizing textures go to the [Env] reporter, which logs through log/slog
// by default. Misuse that can only be a bug panics.
//
// # Animation
//
// Material colours and transparency can be tweened with [gween] through
// [TweenDiffuseColor], [TweenEmissiveColor] and [TweenTransparency].
//
// [Ebitengine]: https://ebitengine.org
// [gween]: https://github.com/tanema/gween
package willow3d

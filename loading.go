package willow3d

import (
	"context"
	"io/fs"

	"github.com/phanxgames/willow3d/texload"
)

// TextureRequests builds the loader requests that fill every raster below t.
// Textures without a URL are skipped.
func TextureRequests(t TextureNode) []texload.Request {
	var reqs []texload.Request
	switch t := t.(type) {
	case *ImageTexture:
		if u := t.URL(); u != "" {
			reqs = append(reqs, texload.ForImage(t, u))
		}
	case *ImageTexture3D:
		for _, r := range texload.ForSlices(t, t.URLs()) {
			if r.URL != "" {
				reqs = append(reqs, r)
			}
		}
	case *ComposedCubeMapTexture:
		for _, f := range t.Faces() {
			if f != nil {
				reqs = append(reqs, TextureRequests(f)...)
			}
		}
	case *MultiTexture:
		for _, c := range t.Textures() {
			reqs = append(reqs, TextureRequests(c)...)
		}
	}
	return reqs
}

// NewTextureLoader returns a loader reading from fsys with the scene's
// texture settings. Failures go to the scene's reporter as warnings.
func (s *Scene) NewTextureLoader(fsys fs.FS) *texload.Loader {
	return texload.New(fsys, texload.Options{
		Concurrency: s.cfg.Textures.LoadConcurrency,
		Cache:       s.cfg.Textures.Cache,
		OnError: func(_ string, err error) {
			s.env.warn("TextureLoader", err)
		},
	})
}

// LoadTextures decodes the rasters of every texture used by the scene's
// shapes. Live appearances pick the images up at the end of the frame.
func (s *Scene) LoadTextures(ctx context.Context, l *texload.Loader) error {
	var reqs []texload.Request
	for _, sh := range s.Shapes() {
		a, ok := sh.Appearance().(*Appearance)
		if !ok {
			continue
		}
		if t := a.Texture(); t != nil {
			reqs = append(reqs, TextureRequests(t)...)
		}
	}
	return l.Load(ctx, reqs)
}

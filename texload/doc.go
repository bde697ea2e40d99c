// Package texload decodes texture rasters from an [fs.FS] and hands them to
// texture nodes.
//
// A [Loader] runs a bounded number of decodes at once. Concurrent requests
// for the same URL share one decode, and decoded images can be kept for
// later loads. PNG, JPEG, GIF, BMP, TIFF and WebP are recognised.
//
// Requests are built for the node that will receive the raster:
//
//	reqs := []texload.Request{texload.ForImage(tex, "wood.png")}
//	reqs = append(reqs, texload.ForSlices(volume, urls)...)
//	err := loader.Load(ctx, reqs)
//
// A file that fails to open or decode is passed to Options.OnError and the
// remaining requests still run. Load only fails when ctx is done.
package texload

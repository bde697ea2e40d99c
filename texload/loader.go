package texload

import (
	"context"
	"image"
	"io/fs"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Sink receives a decoded image together with the URL it came from.
type Sink func(img image.Image, url string)

// Request asks for URL to be decoded and delivered to Sink.
type Request struct {
	URL  string
	Sink Sink
}

// ImageSetter is implemented by single-raster textures.
type ImageSetter interface {
	SetImage(img image.Image, url string)
}

// SliceSetter is implemented by volume textures.
type SliceSetter interface {
	SetSlice(i int, img image.Image, url string)
}

// ForImage builds a request that sets the raster of t.
func ForImage(t ImageSetter, url string) Request {
	return Request{URL: url, Sink: t.SetImage}
}

// ForSlices builds one request per slice of t, in order.
func ForSlices(t SliceSetter, urls []string) []Request {
	reqs := make([]Request, len(urls))
	for i, u := range urls {
		reqs[i] = Request{URL: u, Sink: func(img image.Image, url string) { t.SetSlice(i, img, url) }}
	}
	return reqs
}

// Options configures a Loader.
type Options struct {
	// Concurrency bounds the number of decodes in flight. Values below 1
	// mean 1.
	Concurrency int
	// Cache keeps every decoded image for later loads of the same URL.
	Cache bool
	// OnError is told about every request that could not be served. It may
	// be called from several goroutines at once.
	OnError func(url string, err error)
}

// Loader decodes images from a file system.
type Loader struct {
	fsys fs.FS
	opts Options

	flight singleflight.Group

	mu    sync.Mutex
	cache map[string]image.Image
}

// New returns a loader reading from fsys.
func New(fsys fs.FS, opts Options) *Loader {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Loader{fsys: fsys, opts: opts, cache: make(map[string]image.Image)}
}

// Load serves every request and returns once all have been delivered or
// reported. Sinks run on the loader's goroutines. If ctx is done before all
// requests have started, the rest are skipped and ctx.Err() is returned.
func (l *Loader) Load(ctx context.Context, reqs []Request) error {
	var g errgroup.Group
	g.SetLimit(l.opts.Concurrency)
	for _, r := range reqs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			img, err := l.Image(r.URL)
			if err != nil {
				l.report(r.URL, err)
				return nil
			}
			if r.Sink != nil {
				r.Sink(img, r.URL)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

// Image decodes url, or returns the cached image. Callers asking for the same
// URL at the same time share one decode.
func (l *Loader) Image(url string) (image.Image, error) {
	key := Clean(url)
	l.mu.Lock()
	img, ok := l.cache[key]
	l.mu.Unlock()
	if ok {
		return img, nil
	}
	v, err, _ := l.flight.Do(key, func() (any, error) {
		img, err := DecodeFS(l.fsys, url)
		if err != nil {
			return nil, err
		}
		if l.opts.Cache {
			l.mu.Lock()
			l.cache[key] = img
			l.mu.Unlock()
		}
		return img, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(image.Image), nil
}

// Cached returns the number of images held by the cache.
func (l *Loader) Cached() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.cache)
}

// Purge empties the cache.
func (l *Loader) Purge() {
	l.mu.Lock()
	clear(l.cache)
	l.mu.Unlock()
}

func (l *Loader) report(url string, err error) {
	if l.opts.OnError != nil {
		l.opts.OnError(url, err)
	}
}

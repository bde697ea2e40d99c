package texload

import (
	"errors"
	"fmt"
	"image"
	"io"
	"io/fs"
	"path"
	"strings"

	// Registered with image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ErrUnsupportedFormat is returned for files no registered decoder accepts.
var ErrUnsupportedFormat = errors.New("texload: unsupported image format")

// LoadError records which URL failed.
type LoadError struct {
	URL string
	Err error
}

func (e *LoadError) Error() string { return fmt.Sprintf("texload: %s: %v", e.URL, e.Err) }

func (e *LoadError) Unwrap() error { return e.Err }

// Clean maps a texture URL onto a path inside the loader's file system.
// file: schemes, leading slashes and dot segments are removed.
func Clean(url string) string {
	url = strings.TrimPrefix(url, "file://")
	url = strings.TrimPrefix(url, "file:")
	url = path.Clean("/" + url)
	return strings.TrimPrefix(url, "/")
}

// Decode reads one image. The format is sniffed from the content.
func Decode(r io.Reader) (image.Image, string, error) {
	img, format, err := image.Decode(r)
	if errors.Is(err, image.ErrFormat) {
		return nil, "", ErrUnsupportedFormat
	}
	return img, format, err
}

// DecodeFS opens name in fsys and decodes it.
func DecodeFS(fsys fs.FS, name string) (image.Image, error) {
	p := Clean(name)
	if !fs.ValidPath(p) || p == "." {
		return nil, &LoadError{URL: name, Err: fs.ErrInvalid}
	}
	f, err := fsys.Open(p)
	if err != nil {
		return nil, &LoadError{URL: name, Err: err}
	}
	defer f.Close()
	img, _, err := Decode(f)
	if err != nil {
		return nil, &LoadError{URL: name, Err: err}
	}
	return img, nil
}

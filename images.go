package opr

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
	"golang.org/x/sync/errgroup"
)

// MaxImageBytes is the default size limit for a single image file.
const MaxImageBytes int64 = 10 << 20

// DefaultDecodeWorkers bounds concurrent image decodes.
const DefaultDecodeWorkers = 4

// Formats the browser renders directly. Anything else is re-encoded to PNG.
var passthroughMIME = map[string]string{
	"png":  "image/png",
	"jpeg": "image/jpeg",
	"gif":  "image/gif",
}

// ImageSource is an image file selected by the user.
type ImageSource interface {
	Name() string
	Open() (io.ReadCloser, error)
}

type fileImage struct{ path string }

// FileImage returns an ImageSource reading from path.
func FileImage(path string) ImageSource { return fileImage{path: path} }

func (f fileImage) Name() string { return filepath.Base(f.path) }

func (f fileImage) Open() (io.ReadCloser, error) {
	return os.Open(f.path) // #nosec G304 -- user-selected image
}

type bytesImage struct {
	name string
	data []byte
}

// BytesImage returns an ImageSource over in-memory data.
func BytesImage(name string, data []byte) ImageSource {
	return bytesImage{name: name, data: data}
}

func (b bytesImage) Name() string { return b.name }

func (b bytesImage) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(b.data)), nil
}

// ImageError reports a failed decode for one source of a batch.
type ImageError struct {
	Index int
	Name  string
	Err   error
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("image %d (%s): %v", e.Index+1, e.Name, e.Err)
}

func (e *ImageError) Unwrap() error { return e.Err }

// ImageDecoder converts image sources to data URIs.
// The zero value uses MaxImageBytes and DefaultDecodeWorkers.
type ImageDecoder struct {
	MaxBytes int64
	Workers  int
}

// DecodeImages decodes sources with at most limit concurrent workers.
// See ImageDecoder.Decode.
func DecodeImages(ctx context.Context, sources []ImageSource, limit int) ([]string, []error) {
	return ImageDecoder{Workers: limit}.Decode(ctx, sources)
}

// Decode reads and encodes every source concurrently. The returned URIs keep
// the input order whatever order the decodes finish in. A failed source is
// left out of the URIs and reported as an *ImageError; it never aborts the
// rest of the batch.
func (d ImageDecoder) Decode(ctx context.Context, sources []ImageSource) ([]string, []error) {
	if len(sources) == 0 {
		return nil, nil
	}

	workers := d.Workers
	if workers <= 0 {
		workers = DefaultDecodeWorkers
	}
	maxBytes := d.MaxBytes
	if maxBytes <= 0 {
		maxBytes = MaxImageBytes
	}

	uris := make([]string, len(sources))
	errs := make([]error, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, src := range sources {
		g.Go(func() error {
			uri, err := decodeSource(gctx, src, maxBytes)
			if err != nil {
				errs[i] = &ImageError{Index: i, Name: src.Name(), Err: err}
				return nil
			}
			uris[i] = uri
			return nil
		})
	}
	_ = g.Wait()

	var okURIs []string
	var failed []error
	for i := range sources {
		if errs[i] != nil {
			failed = append(failed, errs[i])
			continue
		}
		okURIs = append(okURIs, uris[i])
	}
	return okURIs, failed
}

func decodeSource(ctx context.Context, src ImageSource, maxBytes int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	rc, err := src.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxBytes+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > maxBytes {
		return "", fmt.Errorf("%w: larger than %d bytes", ErrImageTooLarge, maxBytes)
	}
	return EncodeImage(data)
}

// EncodeImage sniffs the format of data and returns it as a base64 data URI.
// PNG, JPEG and GIF are kept as is; WebP, BMP and TIFF are converted to PNG.
func EncodeImage(data []byte) (string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return "", fmt.Errorf("%w: empty %s image", ErrNotImage, format)
	}

	if mime, ok := passthroughMIME[format]; ok {
		return dataURI(mime, data), nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotImage, err)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("re-encoding %s as PNG: %w", format, err)
	}
	return dataURI("image/png", buf.Bytes()), nil
}

func dataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// ParseDataURI splits a base64 data URI into its MIME type and payload.
func ParseDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing data: scheme", ErrInvalidDataURI)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing payload", ErrInvalidDataURI)
	}
	mime, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("%w: only base64 payloads are supported", ErrInvalidDataURI)
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	return mime, data, nil
}

// isImageDataURI reports whether s is a data URI carrying an image.
func isImageDataURI(s string) bool {
	return strings.HasPrefix(s, "data:image/")
}

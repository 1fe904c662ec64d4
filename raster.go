package opr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/sktamanpelangi/go-opr/internal/fileutil"
	"github.com/sktamanpelangi/go-opr/internal/process"
)

// A4 in CSS pixels at 96 dpi.
const (
	a4WidthPx  = 794
	a4HeightPx = 1123
)

// reportSelector locates the printable page in the rendered document.
const reportSelector = "#report"

// maxImageWait caps how long one round of image loading may take.
const maxImageWait = 10 * time.Second

// settleImages resolves once every <img> has loaded or failed, giving each
// round at most ms milliseconds. An image still pending after the first
// round is failed by hand so its onerror handler swaps in the fallback; one
// still pending after the second round is hidden and the capture goes on
// without it.
const settleImages = `(ms) => {
  const ready = () => document.readyState === 'loading'
    ? new Promise(done => document.addEventListener('DOMContentLoaded', done, { once: true }))
    : null;
  const bounded = p => Promise.race([p, new Promise(done => setTimeout(done, ms))]);
  const pending = () => Array.from(document.images).filter(img => !img.complete);
  const settle = () => bounded(Promise.all(pending().map(img => new Promise(done => {
    img.addEventListener('load', done, { once: true });
    img.addEventListener('error', done, { once: true });
  }))));
  return Promise.resolve(ready())
    .then(settle)
    .then(() => pending().forEach(img => img.dispatchEvent(new Event('error'))))
    .then(settle)
    .then(() => pending().forEach(img => { img.style.visibility = 'hidden'; }))
    .then(() => document.fonts ? bounded(document.fonts.ready) : null)
    .then(() => true);
}`

// Bitmap is a PNG capture of the report with its pixel dimensions.
type Bitmap struct {
	PNG    []byte
	Width  int
	Height int
}

// Rasterizer captures the #report element of an HTML document.
type Rasterizer interface {
	Capture(ctx context.Context, html string) (*Bitmap, error)
	Close() error
}

var _ Rasterizer = (*rodRasterizer)(nil)

// rodRasterizer captures with headless Chrome through go-rod.
// Rod downloads Chromium on first run if no browser is found.
// The browser is launched on first use and reused until Close.
type rodRasterizer struct {
	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
	timeout  time.Duration
	scale    float64
}

func newRodRasterizer(timeout time.Duration, scale float64) *rodRasterizer {
	return &rodRasterizer{timeout: timeout, scale: scale}
}

// ensureBrowser lazily launches and connects to the browser. Caller holds r.mu.
func (r *rodRasterizer) ensureBrowser() error {
	if r.browser != nil {
		return nil
	}

	l := launcher.New()

	// Use pre-installed browser if specified (Docker/containerized environments)
	if bin := os.Getenv("ROD_BROWSER_BIN"); bin != "" {
		l = l.Bin(bin)
	}

	// NoSandbox required for CI and containerized environments
	if os.Getenv("CI") == "true" || os.Getenv("ROD_NO_SANDBOX") == "1" {
		l = l.NoSandbox(true)
	}

	u, err := l.Launch()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		process.KillProcessGroup(l.PID())
		l.Kill()
		return fmt.Errorf("%w: %v", ErrBrowserConnect, err)
	}

	r.launcher = l
	r.browser = browser
	return nil
}

// Close shuts the browser down and kills its process tree.
func (r *rodRasterizer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	process.KillProcessGroup(r.launcher.PID())
	r.launcher.Kill()
	r.browser = nil
	r.launcher = nil
	return err
}

// Capture loads html in a fresh tab and screenshots the report element.
// Returns ErrTargetNotReady when the element is missing or has no area.
func (r *rodRasterizer) Capture(ctx context.Context, html string) (*Bitmap, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	err := r.ensureBrowser()
	browser := r.browser
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	tmpPath, cleanup, err := fileutil.WriteTempFile(html, "html")
	if err != nil {
		return nil, err
	}
	defer cleanup()

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("%w: creating page: %v", ErrPageLoad, err)
	}
	defer page.Close()
	page = page.Context(ctx)

	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             a4WidthPx,
		Height:            a4HeightPx,
		DeviceScaleFactor: r.scale,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: setting viewport: %v", ErrPageLoad, err)
	}

	if err := page.Navigate("file://" + tmpPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	// The load event waits for every image, so an unresponsive logo host
	// would hold it until the capture deadline. Stop waiting after one
	// image round and let settleImages deal with what is still pending.
	wait := imageWait(ctx)
	loading := page.Timeout(wait)
	err = loading.WaitLoad()
	loading.CancelTimeout()
	if err != nil && (ctx.Err() != nil || !errors.Is(err, context.DeadlineExceeded)) {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}

	if _, err := page.Eval(settleImages, wait.Milliseconds()); err != nil {
		return nil, fmt.Errorf("%w: waiting for images: %v", ErrPageLoad, err)
	}

	return captureElement(page)
}

// imageWait is the bound for one image round: a fifth of the time left
// before the deadline, so the load wait, both settle rounds and fonts fit.
func imageWait(ctx context.Context) time.Duration {
	wait := maxImageWait
	if dl, ok := ctx.Deadline(); ok {
		wait = min(wait, time.Until(dl)/5)
	}
	return max(wait, 100*time.Millisecond)
}

func captureElement(page *rod.Page) (*Bitmap, error) {
	has, el, err := page.Has(reportSelector)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPageLoad, err)
	}
	if !has {
		return nil, ErrTargetNotReady
	}

	shape, err := el.Shape()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTargetNotReady, err)
	}
	box := shape.Box()
	if box == nil || box.Width <= 0 || box.Height <= 0 {
		return nil, ErrTargetNotReady
	}

	data, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
		Clip: &proto.PageViewport{
			X:      box.X,
			Y:      box.Y,
			Width:  box.Width,
			Height: box.Height,
			Scale:  1,
		},
		CaptureBeyondViewport: true,
		FromSurface:           true,
	})
	if err != nil {
		return nil, err
	}

	return bitmapFromPNG(data)
}

// bitmapFromPNG reads the pixel dimensions of a PNG capture.
func bitmapFromPNG(data []byte) (*Bitmap, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBitmap, err)
	}
	if format != "png" {
		return nil, fmt.Errorf("%w: got %s, want png", ErrInvalidBitmap, format)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidBitmap, cfg.Width, cfg.Height)
	}
	return &Bitmap{PNG: data, Width: cfg.Width, Height: cfg.Height}, nil
}

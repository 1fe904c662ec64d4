package opr

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sync"
	"testing"
)

// pngBytes returns a solid w x h PNG.
func pngBytes(tb testing.TB, w, h int) []byte {
	tb.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 30, G: 64, B: 175, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		tb.Fatalf("encoding PNG: %v", err)
	}
	return buf.Bytes()
}

type mockRasterizer struct {
	mu      sync.Mutex
	bitmap  *Bitmap
	err     error
	panics  bool
	calls   int
	lastDoc string
	closed  bool
}

func (m *mockRasterizer) Capture(ctx context.Context, html string) (*Bitmap, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	m.lastDoc = html
	if m.panics {
		panic("rasterizer exploded")
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.bitmap, nil
}

func (m *mockRasterizer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

type mockAssembler struct {
	err      error
	lastMeta Metadata
}

func (m *mockAssembler) Assemble(ctx context.Context, bmp *Bitmap, meta Metadata) ([]byte, error) {
	m.lastMeta = meta
	if m.err != nil {
		return nil, m.err
	}
	return []byte("%PDF-1.3 mock"), nil
}

// blockingGenerator holds Generate open until release is closed.
type blockingGenerator struct {
	started chan struct{}
	release chan struct{}
	err     error
	panics  bool
}

func newBlockingGenerator() *blockingGenerator {
	return &blockingGenerator{started: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingGenerator) Generate(ctx context.Context, rec Record) (*Result, error) {
	close(b.started)
	<-b.release
	if b.panics {
		panic("generator exploded")
	}
	if b.err != nil {
		return nil, b.err
	}
	return &Result{FileName: FileName("", rec.NamaProgram, "")}, nil
}

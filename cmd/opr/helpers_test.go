package main

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	opr "github.com/sktamanpelangi/go-opr"
)

// ---------------------------------------------------------------------------
// Test Infrastructure - Environment, fake pool and generator
// ---------------------------------------------------------------------------

var fixedNow = time.Date(2024, time.March, 12, 9, 0, 0, 0, time.UTC)

// fakeGenerator returns a canned result named after the record.
type fakeGenerator struct {
	mu      sync.Mutex
	records []opr.Record
	err     error
	skipped bool
}

func (g *fakeGenerator) Generate(_ context.Context, rec opr.Record) (*opr.Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.records = append(g.records, rec)
	if g.err != nil {
		return nil, g.err
	}
	if g.skipped {
		return &opr.Result{HTML: "<html></html>", Skipped: true}, nil
	}
	return &opr.Result{
		PDF:      []byte("%PDF-1.4 fake"),
		HTML:     "<html>" + rec.NamaProgram + "</html>",
		PNG:      []byte("\x89PNG fake"),
		FileName: opr.FileName(opr.DefaultFilePrefix, rec.NamaProgram, opr.DefaultFallbackName),
	}, nil
}

func (g *fakeGenerator) calls() []opr.Record {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]opr.Record(nil), g.records...)
}

// fakePool hands out one shared fakeGenerator. With failFirst set, only
// that many Acquire calls return acquireErr; otherwise all of them do.
type fakePool struct {
	mu         sync.Mutex
	gen        *fakeGenerator
	size       int
	acquireErr error
	failFirst  int
	failed     int
	acquired   int
	released   int
	closed     bool
	opts       int
}

func (p *fakePool) Acquire() (opr.ReportGenerator, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.acquireErr != nil && (p.failFirst == 0 || p.failed < p.failFirst) {
		p.failed++
		return nil, p.acquireErr
	}
	p.acquired++
	return p.gen, nil
}

func (p *fakePool) Release(opr.ReportGenerator) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released++
}

func (p *fakePool) Size() int { return p.size }

func (p *fakePool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// scriptedReader replays lines and then reports end of input.
type scriptedReader struct {
	lines   []string
	prompts []string
	closed  bool
}

func (r *scriptedReader) Readline() (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line := r.lines[0]
	r.lines = r.lines[1:]
	return line, nil
}

func (r *scriptedReader) SetPrompt(prompt string) { r.prompts = append(r.prompts, prompt) }

func (r *scriptedReader) Close() error {
	r.closed = true
	return nil
}

// testEnv bundles an Environment with its captured output.
type testEnv struct {
	*Environment
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	pool   *fakePool
	reader *scriptedReader
}

func newTestEnv(lines ...string) *testEnv {
	te := &testEnv{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		pool:   &fakePool{gen: &fakeGenerator{}},
		reader: &scriptedReader{lines: lines},
	}
	te.Environment = &Environment{
		Now:    func() time.Time { return fixedNow },
		Stdin:  io.NopCloser(&bytes.Buffer{}),
		Stdout: te.stdout,
		Stderr: te.stderr,
		NewPool: func(size int, opts ...opr.Option) Pool {
			te.pool.size = size
			te.pool.opts = len(opts)
			return te.pool
		},
		NewLineReader: func(*Environment) (LineReader, error) {
			return te.reader, nil
		},
	}
	return te
}

// writePNG writes a small valid PNG and returns its path.
func writePNG(t *testing.T, dir, name string) string {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write png: %v", err)
	}
	return path
}

// writeFile writes content to dir/name and returns the path.
func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

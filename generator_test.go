package opr

// Notes:
// - Generator tests inject mockRasterizer and mockAssembler; no browser is
//   started. The real pipeline runs in integration_test.go.

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestGenerator(t *testing.T, r *mockRasterizer, a Assembler, opts ...Option) *Generator {
	t.Helper()

	opts = append([]Option{WithRasterizer(r), WithAssembler(a)}, opts...)
	g, err := NewGenerator(opts...)
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	return g
}

func TestGenerator_Generate(t *testing.T) {
	t.Parallel()

	r := &mockRasterizer{bitmap: &Bitmap{PNG: pngBytes(t, 100, 150), Width: 100, Height: 150}}
	a := &mockAssembler{}
	g := newTestGenerator(t, r, a)

	rec := Record{NamaProgram: "Kejohanan Sukan", Tempat: "Padang Sekolah"}
	res, err := g.Generate(context.Background(), rec)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if res.Skipped {
		t.Error("Skipped = true, want false")
	}
	if string(res.PDF) != "%PDF-1.3 mock" {
		t.Errorf("PDF = %q", res.PDF)
	}
	if res.FileName != "Laporan_OPR_Kejohanan Sukan.pdf" {
		t.Errorf("FileName = %q", res.FileName)
	}
	if res.PageWidthMM != 210 || res.PageHeightMM != 315 {
		t.Errorf("page = %vx%v mm, want 210x315", res.PageWidthMM, res.PageHeightMM)
	}
	if res.HTML != r.lastDoc {
		t.Error("Result.HTML should be the captured document")
	}
	if !strings.Contains(res.HTML, "Padang Sekolah") {
		t.Error("captured document missing record content")
	}
	if a.lastMeta.Title != "Kejohanan Sukan" || a.lastMeta.Creator != Creator || a.lastMeta.Author != "SK Taman Pelangi" {
		t.Errorf("metadata = %+v", a.lastMeta)
	}
}

func TestGenerator_Generate_Gate(t *testing.T) {
	t.Parallel()

	r := &mockRasterizer{bitmap: &Bitmap{PNG: []byte{1}, Width: 1, Height: 1}}
	g := newTestGenerator(t, r, &mockAssembler{})

	tests := []struct {
		name    string
		rec     Record
		wantErr error
	}{
		{name: "missing name", rec: Record{Tempat: "Dewan"}, wantErr: ErrMissingProgramName},
		{name: "blank name", rec: Record{NamaProgram: "   "}, wantErr: ErrMissingProgramName},
		{name: "too many images", rec: Record{NamaProgram: "x", Images: make([]string, 7)}, wantErr: ErrCapacityExceeded},
	}

	for _, tt := range tests {
		if _, err := g.Generate(context.Background(), tt.rec); !errors.Is(err, tt.wantErr) {
			t.Errorf("%s: error = %v, want %v", tt.name, err, tt.wantErr)
		}
	}
	if r.calls != 0 {
		t.Errorf("rasterizer called %d times for refused records", r.calls)
	}
}

func TestGenerator_Generate_Errors(t *testing.T) {
	t.Parallel()

	bmp := &Bitmap{PNG: []byte{1}, Width: 1, Height: 1}
	tests := []struct {
		name       string
		rasterizer *mockRasterizer
		assembler  *mockAssembler
		wantErr    []error
		wantSkip   bool
	}{
		{
			name:       "target not ready is a silent skip",
			rasterizer: &mockRasterizer{err: ErrTargetNotReady},
			assembler:  &mockAssembler{},
			wantSkip:   true,
		},
		{
			name:       "browser failure",
			rasterizer: &mockRasterizer{err: ErrBrowserConnect},
			assembler:  &mockAssembler{},
			wantErr:    []error{ErrCapture, ErrBrowserConnect},
		},
		{
			name:       "assembly failure",
			rasterizer: &mockRasterizer{bitmap: bmp},
			assembler:  &mockAssembler{err: ErrInvalidBitmap},
			wantErr:    []error{ErrAssemble, ErrInvalidBitmap},
		},
		{
			name:       "panic is recovered",
			rasterizer: &mockRasterizer{panics: true},
			assembler:  &mockAssembler{},
			wantErr:    []error{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			g := newTestGenerator(t, tt.rasterizer, tt.assembler)
			res, err := g.Generate(context.Background(), Record{NamaProgram: "Ujian"})

			if tt.wantSkip {
				if err != nil {
					t.Fatalf("Generate() error = %v, want nil", err)
				}
				if res == nil || !res.Skipped || res.PDF != nil {
					t.Errorf("Generate() = %+v, want skipped result without PDF", res)
				}
				return
			}

			if err == nil {
				t.Fatal("Generate() error = nil, want error")
			}
			if res != nil {
				t.Errorf("Generate() result = %+v, want nil on error", res)
			}
			for _, want := range tt.wantErr {
				if !errors.Is(err, want) {
					t.Errorf("error %v does not wrap %v", err, want)
				}
			}
			if UserMessage(err) != MsgGenerateFailed {
				t.Errorf("UserMessage() = %q", UserMessage(err))
			}
		})
	}
}

func TestGenerator_Generate_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	g := newTestGenerator(t, &mockRasterizer{}, &mockAssembler{})
	if _, err := g.Generate(ctx, Record{NamaProgram: "x"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Generate() error = %v, want context.Canceled", err)
	}
}

func TestGenerator_Idempotent(t *testing.T) {
	t.Parallel()

	bmp := &Bitmap{PNG: pngBytes(t, 40, 60), Width: 40, Height: 60}
	g, err := NewGenerator(WithRasterizer(&mockRasterizer{bitmap: bmp}))
	if err != nil {
		t.Fatal(err)
	}
	rec := Record{NamaProgram: "Hari Kokurikulum", Kekuatan: "Kerjasama"}

	first, err := g.Generate(context.Background(), rec)
	if err != nil {
		t.Fatal(err)
	}
	second, err := g.Generate(context.Background(), rec)
	if err != nil {
		t.Fatal(err)
	}
	if first.HTML != second.HTML {
		t.Error("HTML differs between runs")
	}
	if string(first.PDF) != string(second.PDF) {
		t.Error("PDF differs between runs")
	}
}

// ---------------------------------------------------------------------------
// TestNewGenerator - Options and branding resolution
// ---------------------------------------------------------------------------

func TestNewGenerator_Options(t *testing.T) {
	t.Parallel()

	g, err := NewGenerator(
		WithTimeout(time.Minute),
		WithFilePrefix("OPR"),
		WithFallbackName("SKBI"),
		WithScale(3),
		WithMarkdownText(true),
		WithBranding(Branding{School: "SK Bukit Indah"}),
	)
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}

	if g.cfg.timeout != time.Minute || g.cfg.scale != 3 || !g.cfg.markdown {
		t.Errorf("cfg = %+v", g.cfg)
	}
	if got := FileName(g.cfg.filePrefix, "", g.cfg.fallbackName); got != "OPR_SKBI.pdf" {
		t.Errorf("file name = %q", got)
	}
	if g.cfg.branding.School != "SK Bukit Indah" {
		t.Errorf("School = %q", g.cfg.branding.School)
	}
	if g.cfg.branding.Heading != "Laporan OPR" || len(g.cfg.branding.Signatures) != 2 {
		t.Error("unset branding fields should keep defaults")
	}
	rr, ok := g.rasterizer.(*rodRasterizer)
	if !ok || rr.timeout != time.Minute || rr.scale != 3 {
		t.Errorf("rasterizer = %#v", g.rasterizer)
	}
	if err := g.Close(); err != nil {
		t.Errorf("Close() on unused generator error = %v", err)
	}
}

func TestNewGenerator_OptionPanics(t *testing.T) {
	t.Parallel()

	for name, fn := range map[string]func(){
		"timeout": func() { WithTimeout(0) },
		"scale":   func() { WithScale(-1) },
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			defer func() {
				if recover() == nil {
					t.Error("expected panic")
				}
			}()
			fn()
		})
	}
}

func TestNewGenerator_LocalLogo(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logo := filepath.Join(dir, "logo.png")
	if err := os.WriteFile(logo, pngBytes(t, 8, 8), 0o600); err != nil {
		t.Fatal(err)
	}

	g, err := NewGenerator(WithBranding(Branding{LogoLeft: Logo{Src: logo}}))
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	if !strings.HasPrefix(g.cfg.branding.LogoLeft.Src, "data:image/png;base64,") {
		t.Errorf("local logo not inlined: %.40q", g.cfg.branding.LogoLeft.Src)
	}

	_, err = NewGenerator(WithBranding(Branding{LogoRight: Logo{Src: filepath.Join(dir, "tiada.png")}}))
	if !errors.Is(err, ErrLogoNotFound) {
		t.Errorf("missing logo error = %v, want ErrLogoNotFound", err)
	}
}

func TestNewGenerator_LocalLogoFallback(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	logo := filepath.Join(dir, "logo.png")
	if err := os.WriteFile(logo, pngBytes(t, 8, 8), 0o600); err != nil {
		t.Fatal(err)
	}

	g, err := NewGenerator(WithBranding(Branding{
		LogoLeft: Logo{Src: "https://offline.invalid/logo.png", Fallback: logo},
	}))
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	if !strings.HasPrefix(g.cfg.branding.LogoLeft.Fallback, "data:image/png;base64,") {
		t.Errorf("local fallback not inlined: %.40q", g.cfg.branding.LogoLeft.Fallback)
	}

	html, err := g.RenderHTML(context.Background(), Record{NamaProgram: "Sukan"})
	if err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}
	if !strings.Contains(html, `data-fallback="data:image/png;base64,`) {
		t.Error("rendered logo has no inlined fallback")
	}

	_, err = NewGenerator(WithBranding(Branding{
		LogoRight: Logo{Src: "https://a.example/logo.png", Fallback: filepath.Join(dir, "tiada.png")},
	}))
	if !errors.Is(err, ErrLogoNotFound) {
		t.Errorf("missing fallback error = %v, want ErrLogoNotFound", err)
	}
}

func TestNewGenerator_AssetPath(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "styles"), 0o750); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "styles", "report.css"), []byte(".report{color:#123456}"), 0o600); err != nil {
		t.Fatal(err)
	}

	g, err := NewGenerator(WithAssetPath(dir))
	if err != nil {
		t.Fatalf("NewGenerator() error = %v", err)
	}
	html, err := g.RenderHTML(context.Background(), Record{})
	if err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}
	if !strings.Contains(html, "#123456") {
		t.Error("custom style not used")
	}
	if !strings.Contains(html, `id="report"`) {
		t.Error("embedded template should be the fallback")
	}

	if _, err := NewGenerator(WithAssetPath(filepath.Join(dir, "tiada"))); !errors.Is(err, ErrInvalidAssetPath) {
		t.Errorf("bad asset path error = %v, want ErrInvalidAssetPath", err)
	}
}

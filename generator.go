package opr

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sktamanpelangi/go-opr/internal/assets"
	"github.com/sktamanpelangi/go-opr/internal/fileutil"
)

// Creator is written into the PDF metadata.
const Creator = "go-opr"

const reportSubject = "One Page Report (OPR)"

// Generator turns records into single-page PDF reports.
// Create with NewGenerator, call Generate as often as needed and Close when
// done. A Generator owns one browser and is not safe for concurrent use;
// use GeneratorPool for parallel generation.
type Generator struct {
	cfg        generatorConfig
	renderer   Renderer
	rasterizer Rasterizer
	assembler  Assembler
}

// NewGenerator creates a Generator. The browser is started on the first
// Generate call, not here.
// Returns error if the report assets cannot be loaded or a local logo is missing.
func NewGenerator(opts ...Option) (*Generator, error) {
	g := &Generator{
		cfg: generatorConfig{
			timeout:      defaultTimeout,
			branding:     DefaultBranding(),
			filePrefix:   DefaultFilePrefix,
			fallbackName: DefaultFallbackName,
			scale:        DefaultScale,
		},
	}

	for _, opt := range opts {
		opt(g)
	}

	branding, err := resolveBranding(g.cfg.branding.withDefaults())
	if err != nil {
		return nil, err
	}
	g.cfg.branding = branding

	loader, err := assets.New(g.cfg.assetPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAssetPath, err)
	}

	g.renderer, err = newHTMLRenderer(loader, g.cfg.branding, g.cfg.markdown)
	if err != nil {
		return nil, err
	}

	// Create rasterizer and assembler if not injected (e.g., by tests)
	if g.rasterizer == nil {
		g.rasterizer = newRodRasterizer(g.cfg.timeout, g.cfg.scale)
	}
	if g.assembler == nil {
		g.assembler = &pdfAssembler{}
	}

	return g, nil
}

// resolveBranding inlines local logo files, sources and fallbacks alike,
// as data URIs so the rendered document does not depend on the file system.
func resolveBranding(b Branding) (Branding, error) {
	for _, p := range []*string{
		&b.LogoLeft.Src, &b.LogoLeft.Fallback,
		&b.LogoRight.Src, &b.LogoRight.Fallback,
	} {
		v, err := resolveLogo(*p)
		if err != nil {
			return b, err
		}
		*p = v
	}
	return b, nil
}

func resolveLogo(src string) (string, error) {
	if src == "" || fileutil.IsURL(src) || fileutil.IsDataURI(src) {
		return src, nil
	}
	data, err := os.ReadFile(src) // #nosec G304 -- configured logo path
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrLogoNotFound, src)
		}
		return "", fmt.Errorf("reading logo %s: %w", src, err)
	}
	if int64(len(data)) > MaxImageBytes {
		return "", fmt.Errorf("logo %s: %w", src, ErrImageTooLarge)
	}
	uri, err := EncodeImage(data)
	if err != nil {
		return "", fmt.Errorf("logo %s: %w", src, err)
	}
	return uri, nil
}

// Generate renders rec, captures it and assembles the PDF.
// Returns ErrMissingProgramName when rec has no program name. When the
// report element is not ready for capture the result has Skipped set and
// the error is nil. Recovers from internal panics to prevent crashes from
// propagating to callers.
func (g *Generator) Generate(ctx context.Context, rec Record) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if !rec.CanGenerate() {
		return nil, ErrMissingProgramName
	}
	if len(rec.Images) > MaxImages {
		return nil, fmt.Errorf("%w: %d images (max %d)", ErrCapacityExceeded, len(rec.Images), MaxImages)
	}

	html, err := g.renderer.Render(ctx, rec)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}

	bmp, err := g.rasterizer.Capture(ctx, html)
	if errors.Is(err, ErrTargetNotReady) {
		return &Result{HTML: html, Skipped: true}, nil
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("%w: %w", ErrCapture, err)
	}

	pdf, err := g.assembler.Assemble(ctx, bmp, g.metadata(rec))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAssemble, err)
	}

	return &Result{
		PDF:          pdf,
		HTML:         html,
		PNG:          bmp.PNG,
		FileName:     FileName(g.cfg.filePrefix, rec.NamaProgram, g.cfg.fallbackName),
		PageWidthMM:  PageWidthMM,
		PageHeightMM: PageHeightMM(bmp),
	}, nil
}

// RenderHTML renders rec without capturing it. The program name is not required.
func (g *Generator) RenderHTML(ctx context.Context, rec Record) (string, error) {
	html, err := g.renderer.Render(ctx, rec)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrRender, err)
	}
	return html, nil
}

func (g *Generator) metadata(rec Record) Metadata {
	return Metadata{
		Title:   rec.NamaProgram,
		Author:  g.cfg.branding.School,
		Subject: reportSubject,
		Creator: Creator,
	}
}

// Close releases browser resources.
func (g *Generator) Close() error {
	if g.rasterizer != nil {
		return g.rasterizer.Close()
	}
	return nil
}

package opr

import (
	"time"
)

// Output naming defaults.
const (
	DefaultFilePrefix   = "Laporan_OPR"
	DefaultFallbackName = "SKTP"
)

// DefaultScale is the device pixel ratio used for the capture.
const DefaultScale = 2.0

// defaultTimeout bounds one capture when the context has no deadline.
const defaultTimeout = 30 * time.Second

// Logo is a header image with a fallback URL used when Src fails to load.
// Src may be an http(s) URL, an image data URI or a local file path.
type Logo struct {
	Src      string
	Fallback string
	Alt      string
}

// Signature is one signing block under the image grid.
type Signature struct {
	Label string // e.g. "Disediakan Oleh"
	Role  string // e.g. "Penyelaras Program"
}

// Branding is the school identity printed on every report.
// Empty fields take the values from DefaultBranding.
type Branding struct {
	School     string
	Heading    string
	Subtitle   string
	Footer     string
	LogoLeft   Logo
	LogoRight  Logo
	Signatures []Signature
}

// DefaultBranding returns the SK Taman Pelangi branding.
func DefaultBranding() Branding {
	return Branding{
		School:   "SK Taman Pelangi",
		Heading:  "Laporan OPR",
		Subtitle: "Laporan Program & Aktiviti Sekolah",
		Footer:   "Janaan Komputer: SK Taman Pelangi - One Page Report (OPR)",
		LogoLeft: Logo{
			Src:      "https://i.postimg.cc/85r2HXVS/Whats-App-Image-2026-01-13-at-8-29-54-PM.jpg",
			Fallback: "https://picsum.photos/100/100?text=SKTP",
			Alt:      "Logo Sekolah",
		},
		LogoRight: Logo{
			Src:      "https://i.postimg.cc/RJ0PKZw3/logo-ts25.png",
			Fallback: "https://picsum.photos/100/100?text=TS25",
			Alt:      "Logo TS25",
		},
		Signatures: []Signature{
			{Label: "Disediakan Oleh", Role: "Penyelaras Program"},
			{Label: "Disahkan Oleh", Role: "Guru Besar / PK Pentadbiran"},
		},
	}
}

func (b Branding) withDefaults() Branding {
	d := DefaultBranding()
	if b.School == "" {
		b.School = d.School
	}
	if b.Heading == "" {
		b.Heading = d.Heading
	}
	if b.Subtitle == "" {
		b.Subtitle = d.Subtitle
	}
	if b.Footer == "" {
		b.Footer = d.Footer
	}
	b.LogoLeft = b.LogoLeft.withDefaults(d.LogoLeft)
	b.LogoRight = b.LogoRight.withDefaults(d.LogoRight)
	if len(b.Signatures) == 0 {
		b.Signatures = d.Signatures
	}
	return b
}

func (l Logo) withDefaults(d Logo) Logo {
	if l.Src == "" {
		l.Src = d.Src
	}
	if l.Fallback == "" {
		l.Fallback = d.Fallback
	}
	if l.Alt == "" {
		l.Alt = d.Alt
	}
	return l
}

// Metadata is written into the PDF information dictionary.
type Metadata struct {
	Title   string
	Author  string
	Subject string
	Creator string
}

// Result is the outcome of one generation.
type Result struct {
	PDF          []byte
	HTML         string
	PNG          []byte
	FileName     string
	PageWidthMM  float64
	PageHeightMM float64

	// Skipped is set when the report element was not ready for capture.
	// No PDF is produced and no error is reported.
	Skipped bool
}

// Option configures a Generator.
type Option func(*Generator)

// generatorConfig holds internal configuration for Generator.
type generatorConfig struct {
	timeout      time.Duration
	branding     Branding
	assetPath    string
	filePrefix   string
	fallbackName string
	markdown     bool
	scale        float64
}

// WithTimeout sets the capture timeout applied when the context has no deadline.
// Panics if d <= 0 (programmer error, similar to time.NewTicker).
func WithTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("opr: WithTimeout duration must be positive")
	}
	return func(g *Generator) {
		g.cfg.timeout = d
	}
}

// WithBranding replaces the school branding. Empty fields keep their defaults.
func WithBranding(b Branding) Option {
	return func(g *Generator) {
		g.cfg.branding = b
	}
}

// WithAssetPath loads the report template and style from dir, falling back
// to the embedded assets for anything dir does not provide.
func WithAssetPath(dir string) Option {
	return func(g *Generator) {
		g.cfg.assetPath = dir
	}
}

// WithFilePrefix sets the prefix of generated file names.
func WithFilePrefix(prefix string) Option {
	return func(g *Generator) {
		if prefix != "" {
			g.cfg.filePrefix = prefix
		}
	}
}

// WithFallbackName sets the file name stem used when the program name
// sanitizes to nothing.
func WithFallbackName(name string) Option {
	return func(g *Generator) {
		if name != "" {
			g.cfg.fallbackName = name
		}
	}
}

// WithMarkdownText renders the long text fields as Markdown.
func WithMarkdownText(enabled bool) Option {
	return func(g *Generator) {
		g.cfg.markdown = enabled
	}
}

// WithScale sets the capture device pixel ratio.
// Panics if scale <= 0.
func WithScale(scale float64) Option {
	if scale <= 0 {
		panic("opr: WithScale must be positive")
	}
	return func(g *Generator) {
		g.cfg.scale = scale
	}
}

// WithRasterizer replaces the Chrome rasterizer.
func WithRasterizer(r Rasterizer) Option {
	return func(g *Generator) {
		g.rasterizer = r
	}
}

// WithAssembler replaces the PDF assembler.
func WithAssembler(a Assembler) Option {
	return func(g *Generator) {
		g.assembler = a
	}
}

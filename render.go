package opr

import (
	"context"
	"html/template"
	"strings"

	"github.com/sktamanpelangi/go-opr/internal/assets"
	"github.com/sktamanpelangi/go-opr/internal/fileutil"
	"github.com/sktamanpelangi/go-opr/internal/pipeline"
)

// Placeholders shown for empty fields.
const (
	emptyValue           = "-"
	placeholderObjektif  = "Tiada maklumat objektif..."
	placeholderAktiviti  = "Tiada maklumat aktiviti..."
	placeholderKekuatan  = "Tiada maklumat kekuatan..."
	placeholderKelemahan = "Tiada maklumat kelemahan..."
	reportTitleSeparator = " - "
	defaultDocumentTitle = "Laporan OPR"
)

// Renderer turns a record into a complete HTML document whose #report
// element is the printable page.
type Renderer interface {
	Render(ctx context.Context, rec Record) (string, error)
}

var _ Renderer = (*htmlRenderer)(nil)

// htmlRenderer fills the report template and injects the report style.
// The same record always yields the same document.
type htmlRenderer struct {
	tmpl     pipeline.TemplateRenderer
	css      string
	injector pipeline.CSSInjector
	text     pipeline.TextConverter // nil renders long text literally
	branding Branding
}

func newHTMLRenderer(loader assets.Loader, branding Branding, markdown bool) (*htmlRenderer, error) {
	layout, err := assets.LoadReport(loader)
	if err != nil {
		return nil, err
	}
	tmpl, err := pipeline.NewReportTemplate(layout.Template)
	if err != nil {
		return nil, err
	}

	r := &htmlRenderer{
		tmpl:     tmpl,
		css:      layout.Style,
		injector: &pipeline.CSSInjection{},
		branding: branding,
	}
	if markdown {
		r.text = pipeline.NewGoldmarkConverter()
	}
	return r, nil
}

func (r *htmlRenderer) Render(ctx context.Context, rec Record) (string, error) {
	view, err := r.buildView(ctx, rec)
	if err != nil {
		return "", err
	}
	doc, err := r.tmpl.RenderTemplate(ctx, view)
	if err != nil {
		return "", err
	}
	return r.injector.InjectCSS(ctx, doc, r.css), nil
}

type reportView struct {
	Title    string
	School   string
	Heading  string
	Subtitle string
	Footer   string

	LogoLeft  logoView
	LogoRight logoView

	NamaProgram string
	Anjuran     string
	Tarikh      string
	Masa        string
	Tempat      string
	Sasaran     string

	Objektif  longTextView
	Aktiviti  longTextView
	Kekuatan  longTextView
	Kelemahan longTextView

	Cells      []cellView
	Signatures []Signature
}

type logoView struct {
	Src      template.URL
	Fallback string
	Alt      string
}

type longTextView struct {
	Text        string
	HTML        template.HTML
	Placeholder string
}

type cellView struct {
	Number int
	Src    template.URL
}

func (r *htmlRenderer) buildView(ctx context.Context, rec Record) (*reportView, error) {
	b := r.branding
	v := &reportView{
		Title:       documentTitle(rec.NamaProgram),
		School:      b.School,
		Heading:     b.Heading,
		Subtitle:    b.Subtitle,
		Footer:      b.Footer,
		LogoLeft:    newLogoView(b.LogoLeft),
		LogoRight:   newLogoView(b.LogoRight),
		NamaProgram: orDash(rec.NamaProgram),
		Anjuran:     orDash(rec.Anjuran),
		Tarikh:      orDash(rec.Tarikh),
		Masa:        orDash(rec.Masa),
		Tempat:      orDash(rec.Tempat),
		Sasaran:     orDash(rec.Sasaran),
		Signatures:  b.Signatures,
	}

	long := []struct {
		dst         *longTextView
		text        string
		placeholder string
	}{
		{&v.Objektif, rec.Objektif, placeholderObjektif},
		{&v.Aktiviti, rec.Aktiviti, placeholderAktiviti},
		{&v.Kekuatan, rec.Kekuatan, placeholderKekuatan},
		{&v.Kelemahan, rec.Kelemahan, placeholderKelemahan},
	}
	for _, f := range long {
		lv, err := r.longText(ctx, f.text, f.placeholder)
		if err != nil {
			return nil, err
		}
		*f.dst = lv
	}

	v.Cells = make([]cellView, MaxImages)
	for i := range v.Cells {
		v.Cells[i].Number = i + 1
		if i < len(rec.Images) {
			v.Cells[i].Src = safeImageURL(rec.Images[i])
		}
	}
	return v, nil
}

func (r *htmlRenderer) longText(ctx context.Context, text, placeholder string) (longTextView, error) {
	if strings.TrimSpace(text) == "" {
		return longTextView{Placeholder: placeholder}, nil
	}
	if r.text == nil {
		return longTextView{Text: text}, nil
	}
	// Raw HTML in the input is escaped by the converter.
	frag, err := r.text.ToFragment(ctx, text)
	if err != nil {
		return longTextView{}, err
	}
	return longTextView{HTML: template.HTML(frag)}, nil // #nosec G203 -- converter escapes raw HTML
}

func newLogoView(l Logo) logoView {
	v := logoView{Src: safeImageURL(l.Src), Alt: l.Alt}
	fallback := safeImageURL(l.Fallback)
	v.Fallback = string(fallback)
	if v.Src == "" {
		v.Src = fallback
	}
	return v
}

// safeImageURL admits image data URIs and http(s) URLs; anything else
// renders as an empty cell.
func safeImageURL(s string) template.URL {
	if isImageDataURI(s) || fileutil.IsURL(s) {
		return template.URL(s) // #nosec G203 -- scheme checked
	}
	return ""
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return emptyValue
	}
	return s
}

func documentTitle(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return defaultDocumentTitle
	}
	return defaultDocumentTitle + reportTitleSeparator + name
}

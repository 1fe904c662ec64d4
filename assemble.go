package opr

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/sktamanpelangi/go-opr/internal/fileutil"
)

// PageWidthMM is the width of every generated page (ISO A4).
const PageWidthMM = 210.0

// pdfEpoch is written as the creation date so identical input gives
// identical bytes.
var pdfEpoch = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Assembler wraps a bitmap into a PDF document.
type Assembler interface {
	Assemble(ctx context.Context, bmp *Bitmap, meta Metadata) ([]byte, error)
}

var _ Assembler = (*pdfAssembler)(nil)

// pdfAssembler places the bitmap on a single page 210mm wide whose height
// follows the bitmap's aspect ratio. Long reports give a taller page; they
// are never split or cropped.
type pdfAssembler struct{}

// PageHeightMM returns the page height that keeps the bitmap's aspect ratio
// at PageWidthMM.
func PageHeightMM(bmp *Bitmap) float64 {
	return PageWidthMM * float64(bmp.Height) / float64(bmp.Width)
}

func (a *pdfAssembler) Assemble(ctx context.Context, bmp *Bitmap, meta Metadata) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if bmp == nil || len(bmp.PNG) == 0 || bmp.Width <= 0 || bmp.Height <= 0 {
		return nil, ErrInvalidBitmap
	}
	// The page geometry comes from Width and Height, so they must describe
	// the PNG actually embedded.
	actual, err := bitmapFromPNG(bmp.PNG)
	if err != nil {
		return nil, err
	}
	if actual.Width != bmp.Width || actual.Height != bmp.Height {
		return nil, fmt.Errorf("%w: declared %dx%d, PNG is %dx%d",
			ErrInvalidBitmap, bmp.Width, bmp.Height, actual.Width, actual.Height)
	}

	w, h := PageWidthMM, PageHeightMM(bmp)

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           gofpdf.SizeType{Wd: w, Ht: h},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreationDate(pdfEpoch)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(meta.Title, true)
	pdf.SetAuthor(meta.Author, true)
	pdf.SetSubject(meta.Subject, true)
	pdf.SetCreator(meta.Creator, true)

	pdf.AddPage()

	opt := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("report", opt, bytes.NewReader(bmp.PNG))
	pdf.ImageOptions("report", 0, 0, w, h, false, opt, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("writing PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// FileName returns "<prefix>_<name>.pdf" with the program name made safe
// for file systems. fallback replaces a name that sanitizes to nothing.
func FileName(prefix, programName, fallback string) string {
	if prefix == "" {
		prefix = DefaultFilePrefix
	}
	stem := fileutil.SanitizeFileName(programName)
	if stem == "" {
		stem = fileutil.SanitizeFileName(fallback)
	}
	if stem == "" {
		stem = DefaultFallbackName
	}
	return prefix + "_" + stem + ".pdf"
}

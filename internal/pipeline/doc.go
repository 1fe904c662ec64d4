// Package pipeline implements the record-to-HTML stages of report generation.
//
// This package handles the document side of the pipeline:
//   - Report template rendering (html/template, auto-escaped)
//   - CSS injection into the rendered document
//   - Optional Markdown rendering of long-text fields via Goldmark
//
// Rasterization and PDF assembly are handled by the root opr package using
// headless Chrome (go-rod) and gofpdf. This separation keeps the pipeline
// focused on document structure and content, while the root package owns
// layout capture and page geometry.
package pipeline

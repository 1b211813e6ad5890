// Package parser provides the PDF text extraction adapter.
// It implements ports.PDFExtractor with a pure-Go PDF reader, so no external service is needed.
package parser

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"

	"github.com/0xcro3dile/flowsupport/internal/domain/ports"
)

// PDFExtractor implements ports.PDFExtractor using github.com/ledongthuc/pdf.
type PDFExtractor struct{}

// NewPDFExtractor creates a PDF extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// ExtractPages returns the text of every page, 1-based and in physical order.
// Pages without a content stream come back empty.
func (e *PDFExtractor) ExtractPages(ctx context.Context, path string) (pages []ports.Page, err error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	// the reader panics on some malformed streams
	defer func() {
		if rec := recover(); rec != nil {
			pages, err = nil, fmt.Errorf("reading pdf: %v", rec)
		}
	}()

	n := r.NumPage()
	pages = make([]ports.Page, 0, n)
	for i := 1; i <= n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := ports.Page{PageNumber: i}
		p := r.Page(i)
		if !p.V.IsNull() && !p.V.Key("Contents").IsNull() {
			text, err := p.GetPlainText(nil)
			if err != nil {
				return nil, fmt.Errorf("page %d: %w", i, err)
			}
			page.Content = cleanText(text)
		}
		pages = append(pages, page)
	}
	return pages, nil
}

// cleanText drops control characters left by the text layer and trims the result.
func cleanText(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\t':
			b.WriteRune(r)
		case r == unicode.ReplacementChar || !unicode.IsPrint(r) && !unicode.IsSpace(r):
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		default:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}

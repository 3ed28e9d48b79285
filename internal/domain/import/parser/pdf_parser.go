// Package parser reads the text layer of uploaded PDF documents.
package parser

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dslipak/pdf"

	"github.com/FACorreiaa/finance-dashboard/pkg/ocr"
)

// ErrNoTextLayer is returned for PDFs without extractable text, such as scans.
var ErrNoTextLayer = errors.New("pdf has no text layer")

// PDFTextExtractor transcribes PDFs by reading their embedded text, reporting
// progress once per page.
type PDFTextExtractor struct{}

// NewPDFTextExtractor creates a PDF text extractor.
func NewPDFTextExtractor() *PDFTextExtractor {
	return &PDFTextExtractor{}
}

var _ ocr.Transcriber = (*PDFTextExtractor)(nil)

// Transcribe implements ocr.Transcriber.
func (p *PDFTextExtractor) Transcribe(ctx context.Context, data []byte, progress ocr.ProgressFunc) (text string, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to read pdf: %v", r)
		}
	}()

	progress.Report(0)

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}

	pages := r.NumPage()
	var b strings.Builder
	for i := 1; i <= pages; i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("failed to read page %d: %w", i, err)
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(content)

		progress.Report(float64(i) * 100 / float64(pages))
	}

	text = strings.TrimSpace(b.String())
	if text == "" {
		return "", ErrNoTextLayer
	}
	progress.Report(100)
	return text, nil
}

package parser

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildPDF writes a minimal PDF with one page per entry of pages.
func buildPDF(pages ...string) []byte {
	var objects []string
	objects = append(objects, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := ""
	for i := range pages {
		kids += fmt.Sprintf("%d 0 R ", 4+i*2)
	}
	objects = append(objects, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids, len(pages)))
	objects = append(objects, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>")

	for i, text := range pages {
		content := fmt.Sprintf("BT /F1 12 Tf 72 712 Td (%s) Tj ET", text)
		objects = append(objects,
			fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] /Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+i*2),
			fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objects)+1, xref)
	return buf.Bytes()
}

func TestPDFTextExtractor_Pages(t *testing.T) {
	data := buildPDF("Pago de 541.72", "Spotify Premium Familiar")

	var progress []float64
	text, err := NewPDFTextExtractor().Transcribe(context.Background(), data, func(p float64) {
		progress = append(progress, p)
	})
	require.NoError(t, err)

	assert.Contains(t, text, "Pago de 541.72")
	assert.Contains(t, text, "Spotify Premium Familiar")
	assert.Equal(t, []float64{0, 50, 100, 100}, progress)
}

func TestPDFTextExtractor_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewPDFTextExtractor().Transcribe(ctx, []byte("definitely not a pdf"), nil)
	assert.Error(t, err)

	_, err = NewPDFTextExtractor().Transcribe(ctx, buildPDF(" "), nil)
	assert.ErrorIs(t, err, ErrNoTextLayer)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = NewPDFTextExtractor().Transcribe(cancelled, buildPDF("x"), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

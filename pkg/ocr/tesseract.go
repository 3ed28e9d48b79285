//go:build cgo

package ocr

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract recognizes text with the local Tesseract installation.
type Tesseract struct {
	languages []string
}

// NewTesseract returns a Tesseract transcriber for the given language packs.
func NewTesseract(languages []string) Transcriber {
	if len(languages) == 0 {
		languages = DefaultLanguages
	}
	return &Tesseract{languages: languages}
}

// Transcribe implements Transcriber. Tesseract reports no intermediate
// progress, so stages are reported as it moves through them.
func (t *Tesseract) Transcribe(ctx context.Context, data []byte, progress ProgressFunc) (string, error) {
	progress.Report(0)

	img, err := Preprocess(data)
	if err != nil {
		return "", err
	}
	progress.Report(20)

	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(t.languages...); err != nil {
		return "", fmt.Errorf("failed to set ocr languages: %w", err)
	}
	if err := client.SetImageFromBytes(img); err != nil {
		return "", fmt.Errorf("failed to load image: %w", err)
	}
	progress.Report(40)

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("failed to recognize text: %w", err)
	}
	progress.Report(100)

	return text, nil
}

// Package ocr turns receipt images into plain text. The Tesseract engine is
// only available in cgo builds; other builds get Unavailable.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	"github.com/avast/retry-go"
	"github.com/disintegration/imaging"
)

// ErrUnavailable is returned when no OCR engine was compiled in.
var ErrUnavailable = errors.New("ocr engine not available")

// DefaultLanguages are the Tesseract language packs used when none are configured.
var DefaultLanguages = []string{"spa", "eng"}

// minHeight is the height below which images are upscaled before recognition.
const minHeight = 800

// ProgressFunc receives recognition progress as a percentage in [0,100].
type ProgressFunc func(percent float64)

// Transcriber produces a plain-text transcript from an image or PDF buffer.
type Transcriber interface {
	Transcribe(ctx context.Context, data []byte, progress ProgressFunc) (string, error)
}

// Report calls progress when it is set.
func (f ProgressFunc) Report(percent float64) {
	if f != nil {
		f(percent)
	}
}

// Unavailable fails every transcription with ErrUnavailable.
type Unavailable struct{}

// Transcribe implements Transcriber.
func (Unavailable) Transcribe(context.Context, []byte, ProgressFunc) (string, error) {
	return "", ErrUnavailable
}

// Preprocess decodes an image, converts it to grayscale and upscales short
// images, returning PNG bytes ready for recognition.
func Preprocess(data []byte) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	var out image.Image = imaging.Grayscale(img)
	if out.Bounds().Dy() < minHeight {
		out = imaging.Resize(out, 0, 1200, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}

// Retrying wraps a transcriber and retries failures other than
// ErrUnavailable and context cancellation.
type Retrying struct {
	next     Transcriber
	attempts uint
	delay    time.Duration
	logger   *slog.Logger
}

// WithRetry wraps next with up to attempts tries.
func WithRetry(next Transcriber, attempts uint, delay time.Duration, logger *slog.Logger) *Retrying {
	if attempts == 0 {
		attempts = 1
	}
	return &Retrying{next: next, attempts: attempts, delay: delay, logger: logger}
}

// Transcribe implements Transcriber.
func (r *Retrying) Transcribe(ctx context.Context, data []byte, progress ProgressFunc) (string, error) {
	var text string
	err := retry.Do(
		func() error {
			var err error
			text, err = r.next.Transcribe(ctx, data, progress)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, ErrUnavailable) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}),
		retry.OnRetry(func(n uint, err error) {
			r.logger.Warn("transcription failed, retrying",
				slog.Uint64("attempt", uint64(n+1)),
				slog.Any("error", err),
			)
		}),
	)
	if err != nil {
		return "", err
	}
	return text, nil
}

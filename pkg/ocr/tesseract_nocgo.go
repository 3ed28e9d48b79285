//go:build !cgo

package ocr

// NewTesseract returns Unavailable in builds without cgo.
func NewTesseract([]string) Transcriber {
	return Unavailable{}
}

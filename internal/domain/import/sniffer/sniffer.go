// Package sniffer decides whether an uploaded file is a document the pipeline
// can transcribe, checking the declared type against the file's content.
package sniffer

import (
	"errors"
	"mime"
	"net/http"
	"strings"
)

// Format is the transcription route for an accepted upload.
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// IsImage reports whether the format goes through OCR.
func (f Format) IsImage() bool {
	return f == FormatJPEG || f == FormatPNG
}

var (
	// ErrUnsupported is returned for types outside the whitelist.
	ErrUnsupported = errors.New("unsupported file type")
	// ErrMismatch is returned when the content does not match the declared type.
	ErrMismatch = errors.New("file content does not match declared type")
)

// accepted maps the whitelisted MIME types to their format.
var accepted = map[string]Format{
	"application/pdf": FormatPDF,
	"image/jpeg":      FormatJPEG,
	"image/jpg":       FormatJPEG,
	"image/png":       FormatPNG,
}

// AcceptedTypes lists the whitelisted MIME types.
func AcceptedTypes() []string {
	return []string{"application/pdf", "image/jpeg", "image/jpg", "image/png"}
}

// Result describes a sniffed upload.
type Result struct {
	Format   Format
	Declared string
	Detected string
}

// Sniff validates an upload. The declared type must be whitelisted and agree
// with what the content looks like; an empty or generic declared type falls
// back to the detected one.
func Sniff(declared string, data []byte) (Result, error) {
	detected := mediaType(http.DetectContentType(data))
	res := Result{Declared: mediaType(declared), Detected: detected}

	if res.Declared == "" || res.Declared == "application/octet-stream" {
		res.Declared = detected
	}

	format, ok := accepted[res.Declared]
	if !ok {
		return res, ErrUnsupported
	}
	if accepted[detected] != format {
		return res, ErrMismatch
	}

	res.Format = format
	return res, nil
}

func mediaType(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	mt, _, err := mime.ParseMediaType(raw)
	if err != nil {
		return strings.ToLower(raw)
	}
	return mt
}

package service

import (
	"errors"
	"fmt"
)

var (
	// ErrBatchLimitExceeded is reported for every file past the batch limit.
	ErrBatchLimitExceeded = errors.New("batch file limit exceeded")
	// ErrFileTooLarge is reported for files over the per-file size limit.
	ErrFileTooLarge = errors.New("file too large")
	// ErrUploadNotFound is returned for unknown upload IDs.
	ErrUploadNotFound = errors.New("upload not found")
	// ErrUploadResolved is returned when an upload was already confirmed or discarded.
	ErrUploadResolved = errors.New("upload already resolved")
	// ErrNotProcessed is returned when acting on an upload that never produced a transcript.
	ErrNotProcessed = errors.New("upload has no transcript")
	// ErrObligationNotFound is returned when no pending obligation has the requested key.
	ErrObligationNotFound = errors.New("pending obligation not found")
)

// TranscriptionError reports a file whose OCR or PDF text extraction failed.
type TranscriptionError struct {
	File string
	Err  error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("failed to transcribe %s: %v", e.File, e.Err)
}

func (e *TranscriptionError) Unwrap() error {
	return e.Err
}

// UnsupportedFormatError reports a file rejected before transcription.
type UnsupportedFormatError struct {
	File        string
	ContentType string
	Err         error
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported file %s (%s)", e.File, e.ContentType)
}

func (e *UnsupportedFormatError) Unwrap() error {
	return e.Err
}

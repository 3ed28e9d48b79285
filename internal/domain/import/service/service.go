// Package service runs uploaded documents through transcription,
// classification, field extraction and reconciliation, and keeps the results
// until the user confirms or discards them.
package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/document"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/document/classifier"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/document/extractor"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/document/search"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/import/sniffer"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger/repository"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/reconcile"
	"github.com/FACorreiaa/finance-dashboard/pkg/metrics"
	"github.com/FACorreiaa/finance-dashboard/pkg/ocr"
	"github.com/FACorreiaa/finance-dashboard/pkg/storage"
)

// DefaultMaxFiles is the batch size limit when none is configured.
const DefaultMaxFiles = 10

var tracer = otel.Tracer("github.com/FACorreiaa/finance-dashboard/internal/domain/import/service")

// FileStatus is the outcome of processing one upload.
type FileStatus string

const (
	StatusMatched      FileStatus = "matched"
	StatusUnmatched    FileStatus = "unmatched"
	StatusUnclassified FileStatus = "unclassified"
	StatusFailed       FileStatus = "failed"
	StatusUnsupported  FileStatus = "unsupported"
	StatusRejected     FileStatus = "rejected"
	StatusConfirmed    FileStatus = "confirmed"
	StatusDiscarded    FileStatus = "discarded"
)

// Resolved reports whether the upload needs no further action.
func (s FileStatus) Resolved() bool {
	return s == StatusConfirmed || s == StatusDiscarded
}

// File is one file of a batch as received from the client.
type File struct {
	Name        string
	ContentType string
	Data        []byte
	// ReadErr is set when the caller could not receive the file. Wrapping
	// ErrFileTooLarge rejects the file, any other error fails it.
	ReadErr error
}

// Upload is a processed file awaiting disposition.
type Upload struct {
	ID             uuid.UUID                   `json:"id"`
	FileName       string                      `json:"file_name"`
	ContentType    string                      `json:"content_type"`
	StoredFileID   *uuid.UUID                  `json:"stored_file_id,omitempty"`
	Status         FileStatus                  `json:"status"`
	Text           string                      `json:"text,omitempty"`
	Classification []classifier.Result         `json:"classification,omitempty"`
	Best           classifier.Result           `json:"best"`
	Match          *ledger.PendingObligation   `json:"match,omitempty"`
	Evidence       *reconcile.Evidence         `json:"evidence,omitempty"`
	Suggestions    []reconcile.Suggestion      `json:"suggestions,omitempty"`
	Payment        *repository.RecordedPayment `json:"payment,omitempty"`
	Error          string                      `json:"error,omitempty"`
	ProcessedAt    time.Time                   `json:"processed_at"`
}

func (u *Upload) clone() *Upload {
	out := *u
	return &out
}

// FileResult pairs an upload with the per-file error, if any.
type FileResult struct {
	Upload *Upload
	Err    error
}

// BatchResult holds one FileResult per submitted file, in submission order.
type BatchResult struct {
	Files []FileResult
}

// Failed returns the results that ended in an error.
func (b BatchResult) Failed() []FileResult {
	var out []FileResult
	for _, f := range b.Files {
		if f.Err != nil {
			out = append(out, f)
		}
	}
	return out
}

// Progress receives per-file transcription progress. index is the file's
// position in the batch; percent never decreases for a given file.
type Progress func(index int, name string, percent float64)

// Reconciler binds documents to pending obligations.
type Reconciler interface {
	Pending(ctx context.Context, asOf time.Time) ([]ledger.PendingObligation, error)
	Match(ctx context.Context, text string, fields *extractor.Fields, asOf time.Time) (*ledger.PendingObligation, []reconcile.Suggestion, error)
	Confirm(ctx context.Context, o ledger.PendingObligation, u reconcile.Upload) (*repository.RecordedPayment, error)
}

// Indexer stores transcripts for search.
type Indexer interface {
	Put(doc search.Document) error
	Delete(id string) error
}

// ImportService orchestrates the upload pipeline
type ImportService struct {
	images     ocr.Transcriber
	pdfs       ocr.Transcriber
	classifier *classifier.Classifier
	reconciler Reconciler
	logger     *slog.Logger

	storage  storage.Storage // optional
	index    Indexer         // optional
	metrics  *metrics.Metrics
	maxFiles int
	now      func() time.Time

	mu      sync.RWMutex
	uploads map[uuid.UUID]*Upload
}

// NewImportService creates an import service. images transcribes JPEG and PNG
// files, pdfs transcribes PDF files.
func NewImportService(images, pdfs ocr.Transcriber, cls *classifier.Classifier, rec Reconciler, logger *slog.Logger) *ImportService {
	return &ImportService{
		images:     images,
		pdfs:       pdfs,
		classifier: cls,
		reconciler: rec,
		logger:     logger,
		maxFiles:   DefaultMaxFiles,
		now:        time.Now,
		uploads:    make(map[uuid.UUID]*Upload),
	}
}

// WithStorage keeps the original bytes of every accepted upload.
func (s *ImportService) WithStorage(st storage.Storage) *ImportService {
	s.storage = st
	return s
}

// WithIndex adds processed transcripts to a search index.
func (s *ImportService) WithIndex(idx Indexer) *ImportService {
	s.index = idx
	return s
}

// WithMetrics records pipeline metrics.
func (s *ImportService) WithMetrics(m *metrics.Metrics) *ImportService {
	s.metrics = m
	return s
}

// WithMaxFiles overrides the batch limit.
func (s *ImportService) WithMaxFiles(n int) *ImportService {
	if n > 0 {
		s.maxFiles = n
	}
	return s
}

// ProcessBatch processes files one at a time in order. A file's failure is
// recorded in its FileResult and never stops the batch. Files past the batch
// limit are rejected with ErrBatchLimitExceeded.
func (s *ImportService) ProcessBatch(ctx context.Context, files []File, asOf time.Time, progress Progress) BatchResult {
	asOf = ledger.AsOfOrToday(asOf)
	result := BatchResult{Files: make([]FileResult, 0, len(files))}

	s.logger.Info("processing upload batch",
		slog.Int("files", len(files)),
		slog.Int("max_files", s.maxFiles),
	)

	for i, f := range files {
		if i >= s.maxFiles {
			u := s.newUpload(f)
			u.Status = StatusRejected
			u.Error = ErrBatchLimitExceeded.Error()
			s.count(u)
			result.Files = append(result.Files, FileResult{Upload: u, Err: fmt.Errorf("%s: %w", f.Name, ErrBatchLimitExceeded)})
			continue
		}

		var report ocr.ProgressFunc
		if progress != nil {
			index, name := i, f.Name
			report = func(p float64) { progress(index, name, p) }
		}

		u, err := s.processFile(ctx, f, asOf, monotonic(report))
		if err != nil {
			s.logger.Warn("upload failed",
				slog.String("file", f.Name),
				slog.String("status", string(u.Status)),
				slog.Any("error", err),
			)
		}
		result.Files = append(result.Files, FileResult{Upload: u, Err: err})
	}

	return result
}

func (s *ImportService) processFile(ctx context.Context, f File, asOf time.Time, progress ocr.ProgressFunc) (*Upload, error) {
	ctx, span := tracer.Start(ctx, "import.process_file", trace.WithAttributes(
		attribute.String("file.name", f.Name),
		attribute.String("file.content_type", f.ContentType),
		attribute.Int("file.size", len(f.Data)),
	))
	defer span.End()

	u := s.newUpload(f)
	defer s.count(u)

	if f.ReadErr != nil {
		u.Status = StatusFailed
		if errors.Is(f.ReadErr, ErrFileTooLarge) {
			u.Status = StatusRejected
		}
		u.Error = f.ReadErr.Error()
		span.SetStatus(codes.Error, f.ReadErr.Error())
		return u, fmt.Errorf("%s: %w", f.Name, f.ReadErr)
	}

	sniffed, err := sniffer.Sniff(f.ContentType, f.Data)
	if err != nil {
		u.Status = StatusUnsupported
		u.Error = err.Error()
		span.SetStatus(codes.Error, err.Error())
		return u, &UnsupportedFormatError{File: f.Name, ContentType: sniffed.Declared, Err: err}
	}
	u.ContentType = sniffed.Declared

	s.store(ctx, u, f)

	text, err := s.transcribe(ctx, sniffed.Format, f.Data, progress)
	if err != nil {
		u.Status = StatusFailed
		u.Error = err.Error()
		s.removeStored(ctx, u)
		span.RecordError(err)
		span.SetStatus(codes.Error, "transcription failed")
		return u, &TranscriptionError{File: f.Name, Err: err}
	}
	u.Text = text

	if err := s.analyze(ctx, u, asOf); err != nil {
		u.Status = StatusFailed
		u.Error = err.Error()
		span.RecordError(err)
		s.removeStored(ctx, u)
		span.SetStatus(codes.Error, "reconciliation failed")
		return u, err
	}

	span.SetAttributes(
		attribute.String("document.type", string(u.Best.Type)),
		attribute.String("upload.status", string(u.Status)),
	)

	s.save(u)
	s.indexUpload(u)
	return u.clone(), nil
}

func (s *ImportService) newUpload(f File) *Upload {
	return &Upload{
		ID:          uuid.New(),
		FileName:    f.Name,
		ContentType: f.ContentType,
		Best:        classifier.Unknown(),
		ProcessedAt: s.now(),
	}
}

func (s *ImportService) transcribe(ctx context.Context, format sniffer.Format, data []byte, progress ocr.ProgressFunc) (string, error) {
	ctx, span := tracer.Start(ctx, "import.transcribe", trace.WithAttributes(attribute.String("format", string(format))))
	defer span.End()

	t := s.pdfs
	if format.IsImage() {
		t = s.images
	}

	start := time.Now()
	text, err := t.Transcribe(ctx, data, progress)
	if s.metrics != nil {
		s.metrics.TranscriptionDuration.WithLabelValues(string(format)).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return "", err
	}
	progress.Report(100)
	return text, nil
}

// analyze classifies the transcript, extracts fields and reconciles the
// upload against the ledger, setting its status.
func (s *ImportService) analyze(ctx context.Context, u *Upload, asOf time.Time) error {
	u.Classification = s.classifier.Classify(u.Text)
	u.Best = classifier.Best(u.Classification)
	if s.metrics != nil {
		s.metrics.ClassificationsTotal.WithLabelValues(string(u.Best.Type)).Inc()
	}

	return s.reconcile(ctx, u, asOf)
}

func (s *ImportService) reconcile(ctx context.Context, u *Upload, asOf time.Time) error {
	ctx, span := tracer.Start(ctx, "import.reconcile")
	defer span.End()

	match, suggestions, err := s.reconciler.Match(ctx, u.Text, u.Best.Details, asOf)
	if err != nil {
		return fmt.Errorf("failed to reconcile upload: %w", err)
	}

	u.Match, u.Evidence, u.Suggestions = nil, nil, nil
	switch {
	case match != nil:
		e := reconcile.Evaluate(u.Text, u.Best.Details, *match)
		u.Match, u.Evidence = match, &e
		u.Status = StatusMatched
	case u.Best.IsUnknown():
		u.Suggestions = suggestions
		u.Status = StatusUnclassified
	default:
		u.Suggestions = suggestions
		u.Status = StatusUnmatched
	}

	if s.metrics != nil {
		result := "unmatched"
		if match != nil {
			result = "matched"
		}
		s.metrics.ReconcileTotal.WithLabelValues(result).Inc()
	}
	return nil
}

func (s *ImportService) store(ctx context.Context, u *Upload, f File) {
	if s.storage == nil {
		return
	}
	info, err := s.storage.Save(ctx, f.Name, u.ContentType, bytes.NewReader(f.Data))
	if err != nil {
		s.logger.Warn("failed to store upload", slog.String("file", f.Name), slog.Any("error", err))
		return
	}
	u.StoredFileID = &info.ID
}

func (s *ImportService) removeStored(ctx context.Context, u *Upload) {
	if s.storage == nil || u.StoredFileID == nil {
		return
	}
	if err := s.storage.Delete(ctx, *u.StoredFileID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn("failed to delete stored upload", slog.String("file", u.FileName), slog.Any("error", err))
	}
	u.StoredFileID = nil
}

func (s *ImportService) indexUpload(u *Upload) {
	if s.index == nil {
		return
	}
	doc := search.Document{
		ID:          u.ID.String(),
		FileName:    u.FileName,
		Type:        string(u.Best.Type),
		Category:    string(u.Best.Category),
		Text:        u.Text,
		Status:      string(u.Status),
		ProcessedAt: u.ProcessedAt,
	}
	if u.Match != nil {
		doc.ObligationKey = u.Match.Key()
	}
	if err := s.index.Put(doc); err != nil {
		s.logger.Warn("failed to index upload", slog.String("upload_id", u.ID.String()), slog.Any("error", err))
	}
}

func (s *ImportService) count(u *Upload) {
	if s.metrics != nil {
		s.metrics.UploadsTotal.WithLabelValues(string(u.Status)).Inc()
	}
}

func (s *ImportService) save(u *Upload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uploads[u.ID] = u.clone()
}

// Get returns a processed upload.
func (s *ImportService) Get(id uuid.UUID) (*Upload, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.uploads[id]
	if !ok {
		return nil, ErrUploadNotFound
	}
	return u.clone(), nil
}

// List returns every processed upload, oldest first.
func (s *ImportService) List() []*Upload {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Upload, 0, len(s.uploads))
	for _, u := range s.uploads {
		out = append(out, u.clone())
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ProcessedAt.Before(out[j].ProcessedAt)
	})
	return out
}

// Confirm appends the payment an upload settles. An empty key confirms the
// obligation the upload was matched to; otherwise key selects one of the
// obligations pending as of asOf.
func (s *ImportService) Confirm(ctx context.Context, id uuid.UUID, key string, asOf time.Time) (*Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.pendingUpload(id)
	if err != nil {
		return nil, err
	}

	var o *ledger.PendingObligation
	if key == "" || (u.Match != nil && u.Match.Key() == key) {
		o = u.Match
	} else {
		pending, err := s.reconciler.Pending(ctx, ledger.AsOfOrToday(asOf))
		if err != nil {
			return nil, fmt.Errorf("failed to load pending obligations: %w", err)
		}
		for i := range pending {
			if pending[i].Key() == key {
				o = &pending[i]
				break
			}
		}
	}
	if o == nil {
		return nil, ErrObligationNotFound
	}

	payment, err := s.reconciler.Confirm(ctx, *o, reconcile.Upload{
		DocumentID: u.ID.String(),
		Details:    u.FileName,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to confirm upload: %w", err)
	}

	u.Match = o
	u.Payment = payment
	u.Status = StatusConfirmed
	s.indexUpload(u)
	if s.metrics != nil {
		s.metrics.PaymentsConfirmed.WithLabelValues(string(o.Source.Kind)).Inc()
	}

	s.logger.Info("upload confirmed",
		slog.String("upload_id", u.ID.String()),
		slog.String("obligation", o.Key()),
	)
	return u.clone(), nil
}

// Discard drops an upload together with its stored file and index entry.
func (s *ImportService) Discard(ctx context.Context, id uuid.UUID) (*Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.uploads[id]
	if !ok {
		return nil, ErrUploadNotFound
	}
	if u.Status.Resolved() {
		return nil, ErrUploadResolved
	}

	s.removeStored(ctx, u)
	if s.index != nil {
		if err := s.index.Delete(u.ID.String()); err != nil {
			s.logger.Warn("failed to remove upload from index", slog.String("upload_id", u.ID.String()), slog.Any("error", err))
		}
	}

	u.Status = StatusDiscarded
	s.logger.Info("upload discarded", slog.String("upload_id", u.ID.String()))
	return u.clone(), nil
}

// AssignType overrides the classification of an upload, re-extracting the
// fields for t and reconciling again. The assigned type heads
// Classification, so Best is always its first entry.
func (s *ImportService) AssignType(ctx context.Context, id uuid.UUID, t document.Type, asOf time.Time) (*Upload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, err := s.pendingUpload(id)
	if err != nil {
		return nil, err
	}

	u.Best = classifier.ForType(u.Text, t)
	u.Classification = withAssigned(u.Best, u.Classification)
	if err := s.reconcile(ctx, u, ledger.AsOfOrToday(asOf)); err != nil {
		return nil, err
	}
	s.indexUpload(u)

	s.logger.Info("upload type assigned",
		slog.String("upload_id", u.ID.String()),
		slog.String("type", string(t)),
		slog.String("status", string(u.Status)),
	)
	return u.clone(), nil
}

// withAssigned puts a manually assigned result at the head of the ranking,
// dropping the automatic result for the same type and the unknown sentinel.
func withAssigned(assigned classifier.Result, ranking []classifier.Result) []classifier.Result {
	out := make([]classifier.Result, 0, len(ranking)+1)
	out = append(out, assigned)
	for _, r := range ranking {
		if r.Type == assigned.Type || r.IsUnknown() {
			continue
		}
		out = append(out, r)
	}
	return out
}

// pendingUpload must be called with s.mu held.
func (s *ImportService) pendingUpload(id uuid.UUID) (*Upload, error) {
	u, ok := s.uploads[id]
	if !ok {
		return nil, ErrUploadNotFound
	}
	if u.Status.Resolved() {
		return nil, ErrUploadResolved
	}
	if u.Text == "" {
		return nil, ErrNotProcessed
	}
	return u, nil
}

// monotonic clamps progress to [0,100] and drops values lower than the last
// one reported.
func monotonic(report ocr.ProgressFunc) ocr.ProgressFunc {
	if report == nil {
		return nil
	}
	last := -1.0
	return func(p float64) {
		p = max(0, min(p, 100))
		if p <= last {
			return
		}
		last = p
		report(p)
	}
}

// Package handler exposes the upload pipeline and document search over HTTP.
package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/document"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/document/search"
	importservice "github.com/FACorreiaa/finance-dashboard/internal/domain/import/service"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger/repository"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/reconcile"
	"github.com/FACorreiaa/finance-dashboard/pkg/httputil"
	"github.com/FACorreiaa/finance-dashboard/pkg/storage"
)

const (
	// FormField is the multipart field carrying the uploaded files.
	FormField          = "files"
	defaultMaxBytes    = 20 << 20
	defaultSearchLimit = 20
)

// Searcher finds processed documents.
type Searcher interface {
	Search(text string, limit int) ([]search.Result, error)
	SearchByType(t document.Type, limit int) ([]search.Result, error)
}

// ImportHandler handles upload and document routes.
type ImportHandler struct {
	importSvc *importservice.ImportService
	search    Searcher
	files     storage.Storage // optional
	asOf      time.Time
	maxBytes  int64
	logger    *slog.Logger
}

// NewImportHandler creates a new import handler. search may be nil, in which
// case document search answers 503.
func NewImportHandler(importSvc *importservice.ImportService, search Searcher, asOf time.Time, logger *slog.Logger) *ImportHandler {
	return &ImportHandler{
		importSvc: importSvc,
		search:    search,
		asOf:      asOf,
		maxBytes:  defaultMaxBytes,
		logger:    logger,
	}
}

// WithMaxFileBytes limits the size of a single uploaded file.
func (h *ImportHandler) WithMaxFileBytes(n int64) *ImportHandler {
	if n > 0 {
		h.maxBytes = n
	}
	return h
}

// WithFiles serves stored originals under /files.
func (h *ImportHandler) WithFiles(st storage.Storage) *ImportHandler {
	h.files = st
	return h
}

// Routes mounts the handler on r.
func (h *ImportHandler) Routes(r chi.Router) {
	r.Post("/uploads", h.Upload)
	r.Get("/uploads", h.ListUploads)
	r.Get("/uploads/{id}", h.GetUpload)
	r.Post("/uploads/{id}/confirm", h.Confirm)
	r.Post("/uploads/{id}/discard", h.Discard)
	r.Post("/uploads/{id}/type", h.AssignType)
	r.Get("/documents/search", h.Search)
	r.Get("/files", h.ListFiles)
	r.Get("/files/{id}", h.DownloadFile)
}

// UploadResult is one file of an upload response.
type UploadResult struct {
	Upload *importservice.Upload `json:"upload"`
	Error  string                `json:"error,omitempty"`
}

// UploadResponse is the body of POST /uploads.
type UploadResponse struct {
	Files  []UploadResult `json:"files"`
	Failed int            `json:"failed"`
}

// ConfirmRequest selects the obligation an upload settles. An empty key
// confirms the automatic match.
type ConfirmRequest struct {
	Key string `json:"key"`
}

// AssignTypeRequest overrides an upload's document type.
type AssignTypeRequest struct {
	Type string `json:"type"`
}

// Upload runs every file of a multipart request through the pipeline.
func (h *ImportHandler) Upload(w http.ResponseWriter, r *http.Request) {
	asOf, err := httputil.AsOf(r, h.asOf)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	if err := r.ParseMultipartForm(h.maxBytes); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid multipart form", err)
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	headers := r.MultipartForm.File[FormField]
	if len(headers) == 0 {
		httputil.WriteError(w, http.StatusBadRequest, "no files uploaded", nil)
		return
	}

	files := make([]importservice.File, 0, len(headers))
	for _, fh := range headers {
		files = append(files, h.readFile(fh))
	}

	progress := func(index int, name string, percent float64) {
		h.logger.Debug("transcription progress",
			slog.Int("index", index),
			slog.String("file", name),
			slog.Float64("percent", percent),
		)
	}
	batch := h.importSvc.ProcessBatch(r.Context(), files, asOf, progress)

	resp := UploadResponse{Files: make([]UploadResult, 0, len(batch.Files))}
	for _, f := range batch.Files {
		res := UploadResult{Upload: f.Upload}
		if f.Err != nil {
			res.Error = f.Err.Error()
			resp.Failed++
		}
		resp.Files = append(resp.Files, res)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// readFile loads one part of the form. Failures are carried in File.ReadErr
// so the rest of the batch still gets processed.
func (h *ImportHandler) readFile(fh *multipart.FileHeader) importservice.File {
	file := importservice.File{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
	}
	if fh.Size > h.maxBytes {
		file.ReadErr = fmt.Errorf("%w: %d bytes, limit is %d", importservice.ErrFileTooLarge, fh.Size, h.maxBytes)
		return file
	}

	f, err := fh.Open()
	if err != nil {
		file.ReadErr = fmt.Errorf("failed to open uploaded file: %w", err)
		return file
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, h.maxBytes+1))
	if err != nil {
		file.ReadErr = fmt.Errorf("failed to read uploaded file: %w", err)
		return file
	}
	if int64(len(data)) > h.maxBytes {
		file.ReadErr = fmt.Errorf("%w: limit is %d bytes", importservice.ErrFileTooLarge, h.maxBytes)
		return file
	}
	file.Data = data
	return file
}

// ListUploads returns every kept upload, oldest first.
func (h *ImportHandler) ListUploads(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.importSvc.List())
}

// GetUpload returns one upload.
func (h *ImportHandler) GetUpload(w http.ResponseWriter, r *http.Request) {
	id, ok := h.uploadID(w, r)
	if !ok {
		return
	}
	u, err := h.importSvc.Get(id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

// Confirm appends the payment an upload settles.
func (h *ImportHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	id, ok := h.uploadID(w, r)
	if !ok {
		return
	}
	asOf, err := httputil.AsOf(r, h.asOf)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	var req ConfirmRequest
	if r.ContentLength != 0 {
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteError(w, http.StatusBadRequest, err.Error(), nil)
			return
		}
	}

	u, err := h.importSvc.Confirm(r.Context(), id, req.Key, asOf)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

// Discard drops an upload.
func (h *ImportHandler) Discard(w http.ResponseWriter, r *http.Request) {
	id, ok := h.uploadID(w, r)
	if !ok {
		return
	}
	u, err := h.importSvc.Discard(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

// AssignType re-extracts an upload's fields with the given type.
func (h *ImportHandler) AssignType(w http.ResponseWriter, r *http.Request) {
	id, ok := h.uploadID(w, r)
	if !ok {
		return
	}
	asOf, err := httputil.AsOf(r, h.asOf)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	var req AssignTypeRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	t := document.ParseType(req.Type)
	if t == document.TypeUnknown {
		httputil.WriteError(w, http.StatusBadRequest, fmt.Sprintf("unknown document type %q", req.Type), nil)
		return
	}

	u, err := h.importSvc.AssignType(r.Context(), id, t, asOf)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, u)
}

// Search finds processed documents by text (q) or by type.
func (h *ImportHandler) Search(w http.ResponseWriter, r *http.Request) {
	if h.search == nil {
		httputil.WriteError(w, http.StatusServiceUnavailable, "document search is not configured", nil)
		return
	}

	q := r.URL.Query()
	limit := defaultSearchLimit
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			httputil.WriteError(w, http.StatusBadRequest, "limit must be a positive integer", nil)
			return
		}
		limit = n
	}

	var (
		results []search.Result
		err     error
	)
	switch {
	case q.Get("q") != "":
		results, err = h.search.Search(q.Get("q"), limit)
	case q.Get("type") != "":
		results, err = h.search.SearchByType(document.ParseType(q.Get("type")), limit)
	default:
		httputil.WriteError(w, http.StatusBadRequest, "q or type is required", nil)
		return
	}
	if err != nil {
		h.logger.Error("document search failed", slog.Any("error", err))
		httputil.WriteError(w, http.StatusInternalServerError, "document search failed", err)
		return
	}
	if results == nil {
		results = []search.Result{}
	}
	httputil.WriteJSON(w, http.StatusOK, results)
}

// ListFiles returns the metadata of every stored original, oldest first.
// Stored files outlive the in-memory upload list.
func (h *ImportHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	if h.files == nil {
		httputil.WriteError(w, http.StatusServiceUnavailable, "file storage is not configured", nil)
		return
	}
	files, err := h.files.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list stored files", slog.Any("error", err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to list stored files", err)
		return
	}
	if files == nil {
		files = []*storage.FileInfo{}
	}
	httputil.WriteJSON(w, http.StatusOK, files)
}

// DownloadFile streams a stored original.
func (h *ImportHandler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	if h.files == nil {
		httputil.WriteError(w, http.StatusServiceUnavailable, "file storage is not configured", nil)
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid file id", err)
		return
	}

	rc, info, err := h.files.Open(r.Context(), id)
	if errors.Is(err, storage.ErrNotFound) {
		httputil.WriteError(w, http.StatusNotFound, err.Error(), nil)
		return
	}
	if err != nil {
		h.logger.Error("failed to open stored file", slog.String("file_id", id.String()), slog.Any("error", err))
		httputil.WriteError(w, http.StatusInternalServerError, "failed to open stored file", err)
		return
	}
	defer rc.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Length", strconv.FormatInt(info.Size, 10))
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": info.Name}))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.Warn("stored file download interrupted", slog.String("file_id", id.String()), slog.Any("error", err))
	}
}

func (h *ImportHandler) uploadID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid upload id", err)
		return uuid.Nil, false
	}
	return id, true
}

func (h *ImportHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, importservice.ErrUploadNotFound),
		errors.Is(err, importservice.ErrObligationNotFound),
		errors.Is(err, repository.ErrNotFound):
		httputil.WriteError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, importservice.ErrUploadResolved),
		errors.Is(err, importservice.ErrNotProcessed),
		errors.Is(err, ledger.ErrLoanSettled),
		errors.Is(err, ledger.ErrInstallmentMismatch),
		errors.Is(err, reconcile.ErrAlreadySettled):
		httputil.WriteError(w, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, reconcile.ErrUnknownSource),
		errors.Is(err, ledger.ErrInvalidPayment):
		httputil.WriteError(w, http.StatusUnprocessableEntity, err.Error(), nil)
	default:
		h.logger.Error("upload operation failed", slog.Any("error", err))
		httputil.WriteError(w, http.StatusInternalServerError, "upload operation failed", err)
	}
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/finance-dashboard/internal/domain/document/classifier"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/document/search"
	importservice "github.com/FACorreiaa/finance-dashboard/internal/domain/import/service"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/ledger/repository"
	"github.com/FACorreiaa/finance-dashboard/internal/domain/reconcile"
	"github.com/FACorreiaa/finance-dashboard/pkg/logging"
	"github.com/FACorreiaa/finance-dashboard/pkg/ocr"
	"github.com/FACorreiaa/finance-dashboard/pkg/storage"
)

const pngHeader = "\x89PNG\r\n\x1a\n"

type cannedTranscriber map[string]string

func (c cannedTranscriber) Transcribe(_ context.Context, data []byte, progress ocr.ProgressFunc) (string, error) {
	progress.Report(100)
	text, ok := c[string(data)]
	if !ok {
		return "", errors.New("unreadable")
	}
	return text, nil
}

func newRouter(t *testing.T, opts ...func(*ImportHandler)) (http.Handler, *repository.MemoryRepository) {
	t.Helper()
	logger := logging.Discard()

	repo := repository.NewSeededRepository()
	index, err := search.NewIndex("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	images := cannedTranscriber{
		pngHeader + "spotify":         "COMPROBANTE DE PAGO\nPago de $541.72 Spotify Premium Familiar",
		pngHeader + "dentist":         "PRÉSTAMO PERSONAL BROU\nCuota $1.916,39",
		pngHeader + "noise":           "hola mundo",
		pngHeader + "dentist-receipt": "COMPROBANTE DE PAGO\nBROU Dentista $ 1.916,39 vencimiento 03/01/2025",
	}
	svc := importservice.NewImportService(images, ocr.Unavailable{}, classifier.NewDefault(), reconcile.New(repo, nil, logger), logger).
		WithIndex(index)

	h := NewImportHandler(svc, index, ledger.Date(2025, time.January, 10), logger)
	for _, opt := range opts {
		opt(h)
	}
	r := chi.NewRouter()
	h.Routes(r)
	return r, repo
}

func multipartBody(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := mw.CreateFormFile(FormField, name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func upload(t *testing.T, r http.Handler, files map[string]string) UploadResponse {
	t.Helper()
	body, contentType := multipartBody(t, files)
	req := httptest.NewRequest(http.MethodPost, "/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp UploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func post(r http.Handler, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestUpload_AndConfirm(t *testing.T) {
	r, repo := newRouter(t)

	resp := upload(t, r, map[string]string{"spotify.png": pngHeader + "spotify"})
	require.Len(t, resp.Files, 1)
	assert.Zero(t, resp.Failed)

	u := resp.Files[0].Upload
	require.NotNil(t, u)
	assert.Equal(t, importservice.StatusMatched, u.Status)
	require.NotNil(t, u.Match)
	assert.Equal(t, "spotify", u.Match.Source.ID)

	rec := post(r, "/uploads/"+u.ID.String()+"/confirm", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var confirmed importservice.Upload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &confirmed))
	assert.Equal(t, importservice.StatusConfirmed, confirmed.Status)

	svc, err := repo.GetService(context.Background(), "spotify")
	require.NoError(t, err)
	assert.Len(t, svc.PaymentHistory, 3)

	assert.Equal(t, http.StatusConflict, post(r, "/uploads/"+u.ID.String()+"/confirm", "").Code)
}

func TestUpload_OversizedFileDoesNotAbortBatch(t *testing.T) {
	r, _ := newRouter(t, func(h *ImportHandler) { h.WithMaxFileBytes(64) })

	resp := upload(t, r, map[string]string{
		"spotify.png": pngHeader + "spotify",
		"scan.png":    pngHeader + strings.Repeat("x", 128),
	})
	require.Len(t, resp.Files, 2)
	assert.Equal(t, 1, resp.Failed)

	byName := make(map[string]UploadResult, len(resp.Files))
	for _, f := range resp.Files {
		require.NotNil(t, f.Upload)
		byName[f.Upload.FileName] = f
	}
	assert.Equal(t, importservice.StatusMatched, byName["spotify.png"].Upload.Status)
	assert.Empty(t, byName["spotify.png"].Error)
	assert.Equal(t, importservice.StatusRejected, byName["scan.png"].Upload.Status)
	assert.Contains(t, byName["scan.png"].Error, importservice.ErrFileTooLarge.Error())
}

func TestUpload_DuplicateReceiptConflicts(t *testing.T) {
	r, repo := newRouter(t)

	resp := upload(t, r, map[string]string{
		"dentist-1.png": pngHeader + "dentist-receipt",
		"dentist-2.png": pngHeader + "dentist-receipt",
	})
	require.Len(t, resp.Files, 2)
	for _, f := range resp.Files {
		require.NotNil(t, f.Upload.Match)
		assert.Equal(t, "loan:3:2025-01-03", f.Upload.Match.Key())
	}

	first := post(r, "/uploads/"+resp.Files[0].Upload.ID.String()+"/confirm", "")
	require.Equal(t, http.StatusOK, first.Code, first.Body.String())
	second := post(r, "/uploads/"+resp.Files[1].Upload.ID.String()+"/confirm", "")
	assert.Equal(t, http.StatusConflict, second.Code, second.Body.String())

	loan, err := repo.GetLoan(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 4, loan.PaidInstallments)
}

func TestUpload_FailuresAreReported(t *testing.T) {
	r, _ := newRouter(t)

	resp := upload(t, r, map[string]string{
		"blurry.png": pngHeader + "blurry",
		"notes.txt":  "plain text",
	})
	require.Len(t, resp.Files, 2)
	assert.Equal(t, 2, resp.Failed)
	for _, f := range resp.Files {
		assert.NotEmpty(t, f.Error)
	}
}

func TestUpload_NoFiles(t *testing.T) {
	r, _ := newRouter(t)

	body, contentType := multipartBody(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/uploads", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssignTypeAndDiscard(t *testing.T) {
	r, _ := newRouter(t)

	resp := upload(t, r, map[string]string{"noise.png": pngHeader + "noise"})
	u := resp.Files[0].Upload
	require.NotNil(t, u)
	assert.Equal(t, importservice.StatusUnclassified, u.Status)
	path := "/uploads/" + u.ID.String()

	assert.Equal(t, http.StatusBadRequest, post(r, path+"/type", `{"type":"horoscope"}`).Code)

	rec := post(r, path+"/type", `{"type":"payment_receipt"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var typed importservice.Upload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &typed))
	assert.Equal(t, "payment_receipt", string(typed.Best.Type))

	assert.Equal(t, http.StatusOK, post(r, path+"/discard", "").Code)
	assert.Equal(t, http.StatusConflict, post(r, path+"/discard", "").Code)
}

func TestConfirm_Errors(t *testing.T) {
	r, _ := newRouter(t)

	assert.Equal(t, http.StatusBadRequest, post(r, "/uploads/not-a-uuid/confirm", "").Code)
	assert.Equal(t, http.StatusNotFound, post(r, "/uploads/3b241101-e2bb-4255-8caf-4136c566a962/confirm", "").Code)

	resp := upload(t, r, map[string]string{"dentist.png": pngHeader + "dentist"})
	u := resp.Files[0].Upload
	require.NotNil(t, u)

	rec := post(r, "/uploads/"+u.ID.String()+"/confirm", `{"key":"loan:3:2030-01-01"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSearch(t *testing.T) {
	r, _ := newRouter(t)
	upload(t, r, map[string]string{"spotify.png": pngHeader + "spotify"})

	get := func(target string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		return rec
	}

	rec := get("/documents/search?q=spotify")
	require.Equal(t, http.StatusOK, rec.Code)
	var results []search.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "spotify.png", results[0].Document.FileName)

	rec = get("/documents/search?type=payment_receipt")
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &results))
	assert.Len(t, results, 1)

	assert.Equal(t, http.StatusBadRequest, get("/documents/search").Code)
	assert.Equal(t, http.StatusBadRequest, get("/documents/search?q=x&limit=-1").Code)
}

func TestFiles_ListAndDownload(t *testing.T) {
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	info, err := store.Save(context.Background(), "spotify enero.png", "image/png", strings.NewReader(pngHeader+"spotify"))
	require.NoError(t, err)

	r, _ := newRouter(t, func(h *ImportHandler) { h.WithFiles(store) })

	t.Run("List", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var files []storage.FileInfo
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &files))
		require.Len(t, files, 1)
		assert.Equal(t, info.ID, files[0].ID)
		assert.Equal(t, "spotify enero.png", files[0].Name)
	})

	t.Run("Download", func(t *testing.T) {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files/"+info.ID.String(), nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
		assert.Contains(t, rec.Header().Get("Content-Disposition"), `filename="spotify enero.png"`)
		assert.Equal(t, pngHeader+"spotify", rec.Body.String())
	})

	t.Run("Errors", func(t *testing.T) {
		tests := []struct {
			path string
			want int
		}{
			{"/files/not-a-uuid", http.StatusBadRequest},
			{"/files/00000000-0000-0000-0000-000000000001", http.StatusNotFound},
		}
		for _, tt := range tests {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code, tt.path)
		}
	})
}

func TestFiles_NotConfigured(t *testing.T) {
	r, _ := newRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/files", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

package server

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YoussefMamlouk/ophta-flow/internal/biometry"
	"github.com/YoussefMamlouk/ophta-flow/internal/config"
	"github.com/YoussefMamlouk/ophta-flow/internal/xlsx"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := config.DefaultConfig()
	srv, err := NewServer(cfg, biometry.NewService(cfg.MaxFileSize), xlsx.NewMerger(cfg.SheetName))
	require.NoError(t, err)
	return srv
}

func TestNewServerValidation(t *testing.T) {
	cfg := config.DefaultConfig()

	_, err := NewServer(cfg, nil, xlsx.NewMerger(cfg.SheetName))
	assert.Error(t, err)

	_, err = NewServer(cfg, biometry.NewService(cfg.MaxFileSize), nil)
	assert.Error(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, body["service"])
}

func TestHealthRejectsPost(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/health", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestExtractPreflight(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/extract", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestExtractRejectsGet(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/extract", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

// multipartBody builds a multipart form with the given machine type and
// file parts.
func multipartBody(t *testing.T, machineType string, files map[string][]byte) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("machine_type", machineType))
	for name, content := range files {
		part, err := w.CreateFormFile("pdf_files", name)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	return &buf, w.FormDataContentType()
}

func TestExtractRejectsUnknownMachine(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := multipartBody(t, "IOL900", map[string][]byte{"scan.pdf": []byte("x")})
	req := httptest.NewRequest(http.MethodPost, "/extract", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported machine type")
}

func TestExtractRequiresPDFFiles(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := multipartBody(t, biometry.MachineIOL700, nil)
	req := httptest.NewRequest(http.MethodPost, "/extract", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "PDF file is required")
}

func TestExtractReportsParseFailure(t *testing.T) {
	srv := newTestServer(t)

	body, contentType := multipartBody(t, biometry.MachineIOL700,
		map[string][]byte{"scan.pdf": []byte("not a real pdf")})
	req := httptest.NewRequest(http.MethodPost, "/extract", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), "scan.pdf")
}

func TestExtractRejectsBadForm(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/extract", bytes.NewBufferString("not multipart"))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=missing")

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

package files

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newHandlerFixture() (*Handler, *MockStorage) {
	storage := &MockStorage{
		Files:  map[int64]*File{1: {ID: 1, Name: "receipt.pdf", Path: "uploads/receipt.pdf", Disk: "mock"}},
		NextID: 1,
	}
	return NewHandler(storage, respondJSON, respondError), storage
}

func newUploadRequest(t *testing.T, method, target, filename, folder string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		assert.NoError(t, err)
		_, err = io.WriteString(part, "file bytes")
		assert.NoError(t, err)
	}
	if folder != "" {
		assert.NoError(t, writer.WriteField("folder", folder))
	}
	assert.NoError(t, writer.Close())

	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodePayload(t *testing.T, rr *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	assert.NoError(t, json.NewDecoder(rr.Body).Decode(&payload))
	return payload
}

func TestHandlerUpload(t *testing.T) {
	handler, storage := newHandlerFixture()

	req := newUploadRequest(t, http.MethodPost, "/api/protected/files", "invoice.png", "invoices")
	rr := httptest.NewRecorder()
	handler.Upload(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	payload := decodePayload(t, rr)
	assert.Equal(t, "success", payload["status"])
	data := payload["data"].(map[string]interface{})
	assert.Equal(t, "invoice.png", data["name"])
	assert.Equal(t, "invoices/invoice.png", data["path"])
	assert.Equal(t, 1, storage.StoreCalls)
}

func TestHandlerUpload_DefaultFolder(t *testing.T) {
	handler, storage := newHandlerFixture()

	req := newUploadRequest(t, http.MethodPost, "/api/protected/files", "invoice.png", "")
	rr := httptest.NewRecorder()
	handler.Upload(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "uploads/invoice.png", storage.Files[2].Path)
}

func TestHandlerUpload_MissingFile(t *testing.T) {
	handler, storage := newHandlerFixture()

	req := newUploadRequest(t, http.MethodPost, "/api/protected/files", "", "invoices")
	rr := httptest.NewRecorder()
	handler.Upload(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	payload := decodePayload(t, rr)
	assert.Equal(t, "File is required", payload["message"])
	assert.Equal(t, 0, storage.StoreCalls)
}

func TestHandlerShow(t *testing.T) {
	handler, _ := newHandlerFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/protected/files/1", nil)
	req.SetPathValue("fileID", "1")
	rr := httptest.NewRecorder()
	handler.Show(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	payload := decodePayload(t, rr)
	data := payload["data"].(map[string]interface{})
	assert.Equal(t, "receipt.pdf", data["name"])
}

func TestHandlerShow_NotFound(t *testing.T) {
	handler, _ := newHandlerFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/protected/files/99", nil)
	req.SetPathValue("fileID", "99")
	rr := httptest.NewRecorder()
	handler.Show(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	payload := decodePayload(t, rr)
	assert.Equal(t, "File not found", payload["message"])
}

func TestHandlerShow_InvalidPathID(t *testing.T) {
	handler, _ := newHandlerFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/protected/files/abc", nil)
	req.SetPathValue("fileID", "abc")
	rr := httptest.NewRecorder()
	handler.Show(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlerGetURL(t *testing.T) {
	handler, _ := newHandlerFixture()

	req := httptest.NewRequest(http.MethodGet, "/api/protected/files/1/url", nil)
	req.SetPathValue("fileID", "1")
	rr := httptest.NewRecorder()
	handler.GetURL(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	payload := decodePayload(t, rr)
	data := payload["data"].(map[string]interface{})
	assert.Equal(t, "https://files.example.com/1", data["url"])
}

func TestHandlerReplace(t *testing.T) {
	handler, storage := newHandlerFixture()

	req := newUploadRequest(t, http.MethodPut, "/api/protected/files/1", "updated.pdf", "")
	req.SetPathValue("fileID", "1")
	rr := httptest.NewRecorder()
	handler.Replace(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, storage.ReplaceCalls)
	assert.Equal(t, "updated.pdf", storage.Files[1].Name)
}

func TestHandlerReplace_NotFound(t *testing.T) {
	handler, storage := newHandlerFixture()

	req := newUploadRequest(t, http.MethodPut, "/api/protected/files/99", "updated.pdf", "")
	req.SetPathValue("fileID", "99")
	rr := httptest.NewRecorder()
	handler.Replace(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, 0, storage.ReplaceCalls)
}

func TestHandlerDelete(t *testing.T) {
	handler, storage := newHandlerFixture()

	req := httptest.NewRequest(http.MethodDelete, "/api/protected/files/1", nil)
	req.SetPathValue("fileID", "1")
	rr := httptest.NewRecorder()
	handler.Delete(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, storage.DeleteCalls)
	assert.Empty(t, storage.Files)
}

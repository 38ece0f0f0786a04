package files

import (
	"errors"
	"log"
	"net/http"
	"strconv"
)

const maxUploadMemory = 10 << 20

const defaultUploadFolder = "uploads"

// Handler exposes the raw file storage over HTTP, independent of the
// receipt workflow. Authentication happens in middleware before these
// handlers run.
type Handler struct {
	storage      Storage
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string)
}

func NewHandler(
	storage Storage,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *Handler {
	if storage == nil {
		log.Fatal("Storage must not be nil")
		return nil
	}
	return &Handler{
		storage:      storage,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

// Upload accepts a multipart form with a "file" part and an optional
// "folder" field naming the target directory within the disk.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	upload, cleanup, err := h.parseUpload(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer cleanup()

	folder := r.FormValue("folder")
	if folder == "" {
		folder = defaultUploadFolder
	}

	file, err := h.storage.Store(upload, folder)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to store file")
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "File successfully uploaded.",
		"data":    file,
	})
}

func (h *Handler) Replace(w http.ResponseWriter, r *http.Request) {
	fileID, ok := h.parseFileID(w, r)
	if !ok {
		return
	}
	if _, ok := h.loadFile(w, fileID); !ok {
		return
	}

	upload, cleanup, err := h.parseUpload(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer cleanup()

	file, err := h.storage.Replace(fileID, upload)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to replace file")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "File successfully replaced.",
		"data":    file,
	})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	fileID, ok := h.parseFileID(w, r)
	if !ok {
		return
	}
	if _, ok := h.loadFile(w, fileID); !ok {
		return
	}

	if err := h.storage.Delete(fileID); err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to delete file")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "File successfully deleted.",
	})
}

func (h *Handler) Show(w http.ResponseWriter, r *http.Request) {
	fileID, ok := h.parseFileID(w, r)
	if !ok {
		return
	}
	file, ok := h.loadFile(w, fileID)
	if !ok {
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "File retrieved successfully.",
		"data":    file,
	})
}

func (h *Handler) GetURL(w http.ResponseWriter, r *http.Request) {
	fileID, ok := h.parseFileID(w, r)
	if !ok {
		return
	}
	if _, ok := h.loadFile(w, fileID); !ok {
		return
	}

	url, err := h.storage.GetURL(fileID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to resolve file URL")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "File URL retrieved successfully.",
		"data":    map[string]string{"url": url},
	})
}

func (h *Handler) parseFileID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	fileID, err := strconv.ParseInt(r.PathValue("fileID"), 10, 64)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "File not found")
		return 0, false
	}
	return fileID, true
}

func (h *Handler) loadFile(w http.ResponseWriter, fileID int64) (*File, bool) {
	file, err := h.storage.Find(fileID)
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, "Failed to retrieve file")
		return nil, false
	}
	if file == nil {
		h.respondError(w, http.StatusNotFound, "File not found")
		return nil, false
	}
	return file, true
}

func (h *Handler) parseUpload(r *http.Request) (Upload, func(), error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return Upload{}, func() {}, errInvalidForm
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return Upload{}, func() {}, errMissingFile
	}
	upload := Upload{
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
		Content:     file,
	}
	return upload, func() { file.Close() }, nil
}

var (
	errInvalidForm = errors.New("Invalid multipart form")
	errMissingFile = errors.New("File is required")
)

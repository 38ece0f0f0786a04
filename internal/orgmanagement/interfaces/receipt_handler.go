package interfaces

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/quickreceipt/quickreceipt/internal/files"
	"github.com/quickreceipt/quickreceipt/internal/orgmanagement/domain"
)

const maxReceiptUploadMemory = 10 << 20

type ReceiptServiceInterface interface {
	GetBudgetReceipts(userID string, budgetID int64, filters domain.ReceiptFilters) ([]domain.Receipt, error)
	GetReceipt(userID string, budgetID, receiptID int64) (*domain.Receipt, error)
	UploadReceipt(userID string, budgetID int64, upload files.Upload, transactionID *int64) (*domain.Receipt, error)
	ReplaceReceiptFile(userID string, budgetID, receiptID int64, upload files.Upload) (*domain.Receipt, error)
	DeleteReceipt(userID string, budgetID, receiptID int64) error
	GetReceiptURL(userID string, budgetID, receiptID int64) (string, error)
}

type ReceiptHandler struct {
	service      ReceiptServiceInterface
	respondJSON  func(w http.ResponseWriter, status int, payload interface{})
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string)
}

func NewReceiptHandler(
	service ReceiptServiceInterface,
	respondJSON func(w http.ResponseWriter, status int, payload interface{}),
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
) *ReceiptHandler {
	if service == nil {
		log.Fatal("Service must not be nil")
		return nil
	}
	return &ReceiptHandler{
		service:      service,
		respondJSON:  respondJSON,
		respondError: respondError,
	}
}

func (h *ReceiptHandler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	budgetID, ok := parsePathID(r, "budgetID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Budget not found")
		return
	}

	var filters domain.ReceiptFilters
	query := r.URL.Query()
	if raw := query.Get("transaction_id"); raw != "" {
		transactionID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid filter value for transaction_id")
			return
		}
		filters.TransactionID = &transactionID
	}
	if raw := query.Get("has_file"); raw != "" {
		hasFile, err := strconv.ParseBool(raw)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid filter value for has_file")
			return
		}
		filters.HasFile = &hasFile
	}

	receipts, err := h.service.GetBudgetReceipts(userID, budgetID, filters)
	if err != nil {
		writeServiceError(h.respondError, w, err, "Failed to retrieve receipts")
		return
	}
	if receipts == nil {
		receipts = []domain.Receipt{}
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Receipts retrieved successfully.",
		"data":    receipts,
	})
}

func (h *ReceiptHandler) GetReceipt(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	budgetID, ok := parsePathID(r, "budgetID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Budget not found")
		return
	}
	receiptID, ok := parsePathID(r, "receiptID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Receipt not found")
		return
	}

	receipt, err := h.service.GetReceipt(userID, budgetID, receiptID)
	if err != nil {
		writeServiceError(h.respondError, w, err, "Failed to retrieve receipt")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Receipt retrieved successfully.",
		"data":    receipt,
	})
}

// UploadReceipt accepts a multipart form with a "file" part and an
// optional "transaction_id" field linking an existing transaction.
func (h *ReceiptHandler) UploadReceipt(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	budgetID, ok := parsePathID(r, "budgetID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Budget not found")
		return
	}

	upload, cleanup, err := parseUpload(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer cleanup()

	var transactionID *int64
	if raw := r.FormValue("transaction_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "Invalid transaction_id")
			return
		}
		transactionID = &id
	}

	receipt, err := h.service.UploadReceipt(userID, budgetID, upload, transactionID)
	if err != nil {
		writeServiceError(h.respondError, w, err, "Failed to upload receipt")
		return
	}
	h.respondJSON(w, http.StatusCreated, map[string]interface{}{
		"status":  "success",
		"message": "Receipt successfully uploaded.",
		"data":    receipt,
	})
}

func (h *ReceiptHandler) ReplaceReceiptFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	budgetID, ok := parsePathID(r, "budgetID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Budget not found")
		return
	}
	receiptID, ok := parsePathID(r, "receiptID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Receipt not found")
		return
	}

	upload, cleanup, err := parseUpload(r)
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	defer cleanup()

	receipt, err := h.service.ReplaceReceiptFile(userID, budgetID, receiptID, upload)
	if err != nil {
		writeServiceError(h.respondError, w, err, "Failed to replace receipt file")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Receipt file successfully replaced.",
		"data":    receipt,
	})
}

func (h *ReceiptHandler) DeleteReceipt(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	budgetID, ok := parsePathID(r, "budgetID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Budget not found")
		return
	}
	receiptID, ok := parsePathID(r, "receiptID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Receipt not found")
		return
	}

	if err := h.service.DeleteReceipt(userID, budgetID, receiptID); err != nil {
		writeServiceError(h.respondError, w, err, "Failed to delete receipt")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Receipt successfully deleted.",
	})
}

func (h *ReceiptHandler) GetReceiptURL(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value("userID").(string)
	if !ok {
		h.respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	budgetID, ok := parsePathID(r, "budgetID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Budget not found")
		return
	}
	receiptID, ok := parsePathID(r, "receiptID")
	if !ok {
		h.respondError(w, http.StatusNotFound, "Receipt not found")
		return
	}

	url, err := h.service.GetReceiptURL(userID, budgetID, receiptID)
	if err != nil {
		writeServiceError(h.respondError, w, err, "Failed to resolve receipt URL")
		return
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Receipt URL retrieved successfully.",
		"data":    map[string]string{"url": url},
	})
}

func parseUpload(r *http.Request) (files.Upload, func(), error) {
	if err := r.ParseMultipartForm(maxReceiptUploadMemory); err != nil {
		return files.Upload{}, func() {}, errInvalidForm
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		return files.Upload{}, func() {}, errMissingFile
	}
	upload := files.Upload{
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

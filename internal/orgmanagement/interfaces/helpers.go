package interfaces

import (
	"log"
	"net/http"
	"strconv"

	orgErrors "github.com/quickreceipt/quickreceipt/internal/orgmanagement/errors"
)

// parsePathID reads a numeric path segment; a malformed or missing value
// behaves like a resource that does not exist.
func parsePathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// writeServiceError maps service errors onto the HTTP status taxonomy and
// hides internal errors behind the fallback message.
func writeServiceError(
	respondError func(w http.ResponseWriter, status int, message string, errors ...[]string),
	w http.ResponseWriter,
	err error,
	fallback string,
) {
	status := orgErrors.HTTPStatus(err)
	if status == http.StatusInternalServerError {
		log.Printf("%s: %v", fallback, err)
		respondError(w, status, fallback)
		return
	}
	respondError(w, status, err.Error())
}

package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/couchcryptid/pandemic-map-etl/internal/domain"
)

var (
	errNotReady = errors.New("dataset bundle is not ready")
	errNotFound = errors.New("not found")
	errBadInput = errors.New("bad request")
)

const (
	contentTypeJSON    = "application/json"
	contentTypeGeoJSON = "application/geo+json"
	contentTypePNG     = "image/png"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}

func writeBytes(w http.ResponseWriter, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(body) //nolint:errcheck // client may have gone away
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errNotReady):
		return http.StatusServiceUnavailable
	case errors.Is(err, errNotFound), errors.Is(err, domain.ErrDateNotFound):
		return http.StatusNotFound
	case errors.Is(err, errBadInput),
		errors.Is(err, domain.ErrUnknownMetric),
		errors.Is(err, domain.ErrUnknownDataset),
		errors.Is(err, domain.ErrDateIndexOutOfRange),
		errors.Is(err, domain.ErrInvalidDate):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

package server

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"pix-provider/internal/payment"
)

// Every response carries the same envelope, matching what subscribers of
// the provider already parse.
type response struct {
	Status bool   `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
}

func writeData(w http.ResponseWriter, code int, data any) {
	writeJSON(w, code, response{Status: true, Data: data})
}

func writeError(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, response{Status: false, Error: message})
}

func writeJSON(w http.ResponseWriter, code int, body response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

func (s *Server) writeEngineError(w http.ResponseWriter, r *http.Request, err error) {
	var validationErr *payment.ValidationError

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, "Invalid request parameters.")
	case errors.Is(err, payment.ErrNotFound):
		writeError(w, http.StatusNotFound, "Payment not found.")
	case errors.Is(err, payment.ErrAlreadyExpired):
		writeError(w, http.StatusBadRequest, "Payment expired.")
	case errors.Is(err, payment.ErrAlreadyPaid):
		writeError(w, http.StatusBadRequest, "Payment already paid.")
	default:
		s.logger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/oshxona-pos/terminal/internal/ledger"
	"github.com/oshxona-pos/terminal/internal/remote"
	"github.com/oshxona-pos/terminal/internal/session"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the error taxonomy onto HTTP statuses: validation errors
// block with 400 and an inline message, gate violations answer 409, unknown
// keys 404, and remote partial failures 502 with the aggregate count.
func writeError(w http.ResponseWriter, err error) {
	var partial *session.PartialFailureError
	switch {
	case errors.Is(err, ledger.ErrBadKey),
		errors.Is(err, ledger.ErrSplitTooLarge),
		errors.Is(err, ledger.ErrNotDeleted),
		errors.Is(err, session.ErrBadStatus):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, session.ErrNotEditable),
		errors.Is(err, session.ErrBadTransition):
		writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
	case errors.Is(err, ledger.ErrUnknownItem),
		errors.Is(err, session.ErrNoEditSession),
		remote.IsNotFound(err):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &partial):
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":  partial.Error(),
			"failed": partial.Failed,
			"total":  partial.Total,
		})
	default:
		log.Printf("ERROR: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

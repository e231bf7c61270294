// handlers/response.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/OluwaPella/Stage-two-bankend/xerrors"
	"go.uber.org/zap"
)

// errorBody is the shape of every error response.
type errorBody struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// Helper to respond with JSON
func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, `{"error":"Internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

// Helper to respond with an error
func respondWithError(w http.ResponseWriter, code int, message string, details any) {
	respondWithJSON(w, code, errorBody{Error: message, Details: details})
}

// respondWithErr maps err onto the API's error responses. Unclassified errors
// are logged and reported as a generic 500.
func respondWithErr(w http.ResponseWriter, logger *zap.Logger, err error, notFound string) {
	var (
		verr *xerrors.ValidationError
		uerr *xerrors.UpstreamError
	)
	switch {
	case errors.As(err, &verr):
		respondWithError(w, http.StatusBadRequest, "Validation failed", verr.Fields)
	case errors.Is(err, xerrors.ErrValidation):
		respondWithError(w, http.StatusBadRequest, "Validation failed", nil)
	case errors.Is(err, xerrors.ErrNotFound):
		respondWithError(w, http.StatusNotFound, notFound, nil)
	case errors.As(err, &uerr):
		respondWithError(w, http.StatusServiceUnavailable, "External data source unavailable", uerr.Error())
	case errors.Is(err, xerrors.ErrUpstreamUnavailable):
		respondWithError(w, http.StatusServiceUnavailable, "External data source unavailable", err.Error())
	case errors.Is(err, xerrors.ErrRefreshInProgress):
		respondWithError(w, http.StatusConflict, "Refresh already in progress", nil)
	case errors.Is(err, context.Canceled):
		// the client is gone; the status only reaches the access log
		logger.Info("request canceled by client", zap.Error(err))
		respondWithError(w, http.StatusServiceUnavailable, "Request canceled", nil)
	default:
		logger.Error("request failed", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Internal server error", nil)
	}
}

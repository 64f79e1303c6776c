package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"

	"github.com/preludehq/leaddesk/internal/infra/integration/apierr"
	"github.com/preludehq/leaddesk/internal/store"
	"github.com/preludehq/leaddesk/internal/usecase"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// errorResponse mirrors the upstream convention: the user-facing message
// travels in "detail".
type errorResponse struct {
	Detail string `json:"detail"`
}

// writeError maps the error taxonomy onto HTTP: validation 400, domain 422,
// upstream errors keep their status and friendly detail, transport failures
// become a generic 502, everything else a 500.
func writeError(w http.ResponseWriter, err error) {
	var apiErr *apierr.APIError
	var domainErr *usecase.DomainError
	var urlErr *url.Error

	switch {
	case errors.As(err, &apiErr):
		writeJSON(w, apiErr.Status, errorResponse{Detail: apiErr.Detail})
	case errors.Is(err, store.ErrLeadNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Detail: "lead not found"})
	case errors.As(err, &domainErr):
		status := http.StatusUnprocessableEntity
		if domainErr.Code == "VALIDATION_ERROR" {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, errorResponse{Detail: domainErr.Message})
	case usecase.IsTechnicalError(err):
		log.Printf("technical error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "Something went wrong. Please try again."})
	case errors.As(err, &urlErr):
		log.Printf("upstream transport error: %v", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Detail: "A network error occurred. Please check your connection and try again."})
	default:
		log.Printf("unhandled error: %v", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Detail: "Something went wrong. Please try again."})
	}
}

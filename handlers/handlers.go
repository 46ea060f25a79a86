// Package handlers provides the HTTP handlers of the staging API: feature
// extraction, staging, full report analysis, the audit trail and health.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rawmatterx/oncostaging/audit"
	"github.com/rawmatterx/oncostaging/entities"
	"github.com/rawmatterx/oncostaging/logging"
)

// User facing error messages.
const (
	MsgInvalidJSON         = "Request body must be a valid JSON object."
	MsgBodyTooLarge        = "Request body is too large."
	MsgExtractionFailed    = "Failed to extract medical information."
	MsgStagingFailed       = "Failed to determine cancer staging."
	MsgCancerTypeNotFound  = "Cancer type could not be identified from the report."
	MsgInsufficientData    = "Insufficient data for staging determination."
	MsgAuditDisabled       = "The audit trail is disabled."
	MsgAuditRecordNotFound = "Audit record not found."
	MsgInternal            = "An internal error occurred. Please try again."
)

// RespondWithJSON writes a JSON response
func RespondWithJSON(w http.ResponseWriter, code int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		logging.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	w.Write(data)
}

// RespondWithError writes a JSON error response
func RespondWithError(w http.ResponseWriter, code int, message string) {
	errorResponse := map[string]any{
		"error":   http.StatusText(code),
		"message": message,
		"code":    code,
	}
	RespondWithJSON(w, code, errorResponse)
}

// respondWithDomainError maps pipeline errors to status codes. Validation
// is checked first since staging errors may wrap a validation error.
func respondWithDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *entities.ValidationError
		extractionErr *entities.ExtractionError
		stagingErr    *entities.StagingError
	)

	switch {
	case errors.As(err, &validationErr):
		RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &extractionErr):
		RespondWithError(w, http.StatusUnprocessableEntity, fmt.Sprintf("%s %s", MsgExtractionFailed, extractionErr.Reason))
	case errors.As(err, &stagingErr):
		RespondWithError(w, http.StatusBadRequest, fmt.Sprintf("%s %s", MsgStagingFailed, stagingErr.Reason))
	case errors.Is(err, audit.ErrNotFound):
		RespondWithError(w, http.StatusNotFound, MsgAuditRecordNotFound)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		RespondWithError(w, http.StatusServiceUnavailable, "Request was cancelled.")
	default:
		logging.Error("Request failed", "path", r.URL.Path, "error", err)
		RespondWithError(w, http.StatusInternalServerError, MsgInternal)
	}
}

// decodeJSON reads one JSON object from the body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			RespondWithError(w, http.StatusRequestEntityTooLarge, MsgBodyTooLarge)
			return false
		}
		logging.Warn("Unusual user input", "path", r.URL.Path, "error", err)
		RespondWithError(w, http.StatusBadRequest, MsgInvalidJSON)
		return false
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		RespondWithError(w, http.StatusBadRequest, MsgInvalidJSON)
		return false
	}
	return true
}

// formatUptimeHuman formats duration into a human-readable string
func formatUptimeHuman(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	var parts []string

	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 || hours > 0 || days > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}
	parts = append(parts, fmt.Sprintf("%ds", seconds))

	return strings.Join(parts, " ")
}

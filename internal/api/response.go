// Animebell - Real-time Notification Delivery for Anime Tracking
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/animebell

package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/animebell/internal/logging"
	"github.com/tomtom215/animebell/internal/models"
	"github.com/tomtom215/animebell/internal/notification"
	"github.com/tomtom215/animebell/internal/validation"
)

// Error codes for API responses.
const (
	ErrCodeBadRequest         = "BAD_REQUEST"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeTooManyRequests    = "TOO_MANY_REQUESTS"
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Warn().Err(err).Msg("failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, models.ErrorResponse{Error: &models.APIError{Code: code, Message: message}})
}

func writeValidationError(w http.ResponseWriter, verr *validation.RequestValidationError) {
	details := make(map[string]interface{}, len(verr.Fields))
	for _, f := range verr.Fields {
		details[f.Field] = f.Message
	}
	writeJSON(w, http.StatusBadRequest, models.ErrorResponse{Error: &models.APIError{
		Code:    ErrCodeValidation,
		Message: verr.Error(),
		Details: details,
	}})
}

// writeServiceError maps notification errors onto HTTP statuses. Anything
// unrecognized is logged and reported as a bare 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, notification.ErrNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "Notification not found")
	case errors.Is(err, notification.ErrForbidden):
		writeError(w, http.StatusForbidden, ErrCodeForbidden, "Notification belongs to another user")
	case errors.Is(err, notification.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	default:
		logging.Ctx(r.Context()).Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("request failed")
		writeError(w, http.StatusInternalServerError, ErrCodeInternalError, "Internal server error")
	}
}

// Package handlers defines HTTP-layer error codes used across all API
// endpoints, plus the single translation point from service-layer errors to
// HTTP responses.
//
// Conventions:
//   - Codes are lowercase snake_case. Generic codes mirror HTTP status
//     semantics; domain codes cover business failures a status alone cannot
//     convey (validation field lists, rejected lifecycle transitions).
//   - Handlers branch with errors.As / errors.Is, never on error strings.
package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/afritrade/go-trade-backend/internal/services"
)

const (
	ErrCodeBadRequest   = "bad_request"
	ErrCodeUnauthorized = "unauthorized"
	ErrCodeForbidden    = "forbidden"
	ErrCodeNotFound     = "not_found"
	ErrCodeConflict     = "conflict"
	ErrCodeRateLimited  = "too_many_requests"
	ErrCodeInternal     = "internal_error"

	// Domain-specific:
	ErrCodeValidation        = "validation_failed"
	ErrCodeInvalidTransition = "invalid_transition"
	ErrCodeMethodNotAllowed  = "method_not_allowed"
)

// failFromService maps a service error onto the HTTP envelope:
//
//	ValidationError        -> 400 validation_failed (fields joined)
//	NotFoundError          -> 404 not_found
//	InvalidTransitionError -> 409 invalid_transition
//	ErrEmptyContent        -> 400 validation_failed
//	ErrTooLong             -> 400 validation_failed
//	ErrUnknownFormula      -> 400 bad_request
//	anything else          -> 500 internal_error
func failFromService(c *gin.Context, err error) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		fail(c, http.StatusBadRequest, ErrCodeValidation,
			"missing or invalid fields: "+strings.Join(verr.Fields, ", "))
		return
	}
	var nf *services.NotFoundError
	if errors.As(err, &nf) {
		fail(c, http.StatusNotFound, ErrCodeNotFound, nf.Kind+" not found")
		return
	}
	var it *services.InvalidTransitionError
	if errors.As(err, &it) {
		fail(c, http.StatusConflict, ErrCodeInvalidTransition, it.Error())
		return
	}
	switch {
	case errors.Is(err, services.ErrEmptyContent):
		fail(c, http.StatusBadRequest, ErrCodeValidation, "message content is required")
	case errors.Is(err, services.ErrTooLong):
		fail(c, http.StatusBadRequest, ErrCodeValidation, "message content too long")
	case errors.Is(err, services.ErrUnknownFormula):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown accompaniment formula")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}

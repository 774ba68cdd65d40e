// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// This file centralizes symbolic error code constants that are mapped to HTTP responses
// (via the `fail()` helper in this package) and the translation of service
// errors into those responses. These codes provide clients with a stable,
// machine-readable error taxonomy that supplements human-readable messages.
//
// Conventions:
//   - Codes are lowercase, snake_case, and domain-agnostic unless explicitly noted.
//   - Generic codes (e.g., bad_request, unauthorized, forbidden) mirror common HTTP
//     status semantics to aid interoperability.
//   - validation_failed always carries a `fields` map.
//   - All error responses must include both an HTTP status and one of these codes.
//
// Example response:
//
//	{
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "bad_request",
//	  "message": "recipe is already in favorites"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/foodgram-backend/internal/auth"
	"github.com/tbourn/foodgram-backend/internal/http/middleware"
	"github.com/tbourn/foodgram-backend/internal/services"
)

const (
	ErrCodeBadRequest       = "bad_request"
	ErrCodeValidation       = "validation_failed"
	ErrCodeUnauthorized     = "unauthorized"
	ErrCodeForbidden        = "forbidden"
	ErrCodeNotFound         = "not_found"
	ErrCodeTooLarge         = "payload_too_large"
	ErrCodeRateLimited      = "too_many_requests"
	ErrCodeInternal         = "internal_error"
	ErrCodeMethodNotAllowed = "method_not_allowed"
)

var notFoundErrs = []error{
	services.ErrUserNotFound,
	services.ErrRecipeNotFound,
	services.ErrTagNotFound,
	services.ErrIngredientNotFound,
	services.ErrShortLinkNotFound,
}

var stateErrs = []error{
	services.ErrAlreadyFavorited,
	services.ErrNotFavorited,
	services.ErrAlreadyInCart,
	services.ErrNotInCart,
	services.ErrSelfSubscription,
	services.ErrAlreadySubscribed,
	services.ErrNotSubscribed,
	services.ErrEmptyCart,
	services.ErrInvalidCredentials,
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// failErr translates a service error into the matching error response.
// Unknown errors become a 500 whose detail goes to the log only.
func failErr(c *gin.Context, err error) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		failFields(c, http.StatusBadRequest, ErrCodeValidation, "validation failed", ve.Fields)
	case errors.Is(err, services.ErrWrongPassword):
		failFields(c, http.StatusBadRequest, ErrCodeValidation, "validation failed",
			map[string]string{"current_password": err.Error()})
	case isAny(err, notFoundErrs):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case isAny(err, stateErrs):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	case errors.Is(err, services.ErrNotAuthor):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())
	case errors.Is(err, auth.ErrInvalidToken):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, err.Error())
	default:
		middleware.LoggerFrom(c).Error().Err(err).Str("path", c.FullPath()).Msg("unhandled service error")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}

// failBind reports a request body that could not be decoded.
func failBind(c *gin.Context, err error) {
	var tooBig *http.MaxBytesError
	if errors.As(err, &tooBig) {
		fail(c, http.StatusRequestEntityTooLarge, ErrCodeTooLarge, "request body too large")
		return
	}
	fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
}

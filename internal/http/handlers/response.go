// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the standard response utilities used across all endpoints,
// including structured error envelopes, paginated list envelopes, and helpers
// for common HTTP patterns. Every endpoint answers in the same shape so
// clients can handle success and failure uniformly.
//
// Conventions:
//   - All error responses must return an ErrorResponse with a stable `code`.
//   - `fail()` centralizes error logging and formatting, ensuring 5xx responses
//     are logged with request context for observability.
//   - `ok()` and `noContent()` simplify writing success responses in a consistent
//     shape across handlers.
//   - Paginated lists are wrapped in Page with absolute next/previous links.
//
// Example error response:
//
//	HTTP/1.1 400 Bad Request
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "validation_failed",
//	  "message": "validation failed",
//	  "fields": {"cooking_time": "must be no less than 1"}
//	}
//
// Example success response:
//
//	HTTP/1.1 200 OK
//	{ "count": 12, "next": "http://host/api/recipes?limit=6&page=2", "previous": null, "results": [ ... ] }
package handlers

import (
	"net/http"
	"net/url"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/foodgram-backend/internal/http/middleware"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
//
// Fields:
//   - RequestID: Optional correlation ID, echoed from X-Request-ID header, used
//     to correlate server logs with client-side errors.
//   - Code: A stable, machine-readable string (see errors.go constants).
//   - Message: A human-readable error description, safe for display to users.
//   - Fields: Per-field messages, present only for validation failures.
//
// This struct is used in OpenAPI documentation via Swagger annotations.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"recipe not found"`
	// Field path to message, e.g. "ingredients.0.amount"
	Fields map[string]string `json:"fields,omitempty"`
}

// Page is the envelope of every paginated list.
type Page[T any] struct {
	Count    int64   `json:"count" example:"42"`
	Next     *string `json:"next" example:"http://localhost:8080/api/recipes?page=3"`
	Previous *string `json:"previous" example:"http://localhost:8080/api/recipes?page=1"`
	Results  []T     `json:"results"`
}

// fail aborts the request with a structured error and logs server-side errors.
//
// It constructs an ErrorResponse, writes it as JSON with the given HTTP status,
// and calls gin.Context.AbortWithStatusJSON to stop further processing.
//
// Server errors (>=500) are logged using the request-scoped logger from middleware.
func fail(c *gin.Context, status int, code, msg string) {
	failFields(c, status, code, msg, nil)
}

func failFields(c *gin.Context, status int, code, msg string, fields map[string]string) {
	reqID := c.Writer.Header().Get("X-Request-ID")
	resp := ErrorResponse{
		RequestID: reqID,
		Code:      code,
		Message:   msg,
		Fields:    fields,
	}

	// Log 5xx (server-side) with request-scoped logger
	if status >= http.StatusInternalServerError {
		lg := middleware.LoggerFrom(c)
		lg.Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail().
//
// External packages (e.g., router setup) should call Fail to return
// consistent error envelopes without directly depending on unexported helpers.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes a success JSON response.
//
// It serializes `body` as JSON with the given HTTP status code.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
//
// Used when the operation succeeds but there is no response body.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// newPage builds the list envelope for items found on page of size limit
// out of total. Next and previous point at the same URL with only the page
// parameter changed.
func newPage[T any](c *gin.Context, base string, items []T, total int64, page, limit int) Page[T] {
	if items == nil {
		items = []T{}
	}
	p := Page[T]{Count: total, Results: items}
	if int64(page)*int64(limit) < total {
		s := pageURL(c, base, page+1)
		p.Next = &s
	}
	if page > 1 {
		s := pageURL(c, base, page-1)
		p.Previous = &s
	}
	return p
}

func pageURL(c *gin.Context, base string, page int) string {
	q := url.Values{}
	for k, v := range c.Request.URL.Query() {
		q[k] = v
	}
	q.Set("page", strconv.Itoa(page))
	u := url.URL{Path: c.Request.URL.Path, RawQuery: q.Encode()}
	return base + u.String()
}

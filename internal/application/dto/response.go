// Package dto defines the request and response shapes of the HTTP API.
package dto

import (
	"net/http"

	"github.com/ridewave/dispatch/pkg/errors"
)

// ErrorResponse is the wire shape of every error the API returns.
//
// A rate limit rejection renders as:
//
//	{
//	  "statusCode": 429,
//	  "message": "Too many failed login attempts. Try again in 3 more minute(s).",
//	  "error": "Rate Limit Exceeded",
//	  "blockedUntil": 1767221460000
//	}
//
// blockedUntil is epoch milliseconds and only present on rate limit errors.
// Clients key on this shape; changing field names is a breaking change.
type ErrorResponse struct {
	StatusCode   int    `json:"statusCode"`
	Message      string `json:"message"`
	Error        string `json:"error"`
	Code         string `json:"code,omitempty"`
	BlockedUntil int64  `json:"blockedUntil,omitempty"`
}

// NewErrorResponse translates an error into its HTTP status and wire shape.
// Errors that are not AppError render as an opaque 500.
func NewErrorResponse(err error) (int, *ErrorResponse) {
	appErr, ok := errors.AsAppError(err)
	if !ok {
		return http.StatusInternalServerError, &ErrorResponse{
			StatusCode: http.StatusInternalServerError,
			Message:    "internal server error",
			Error:      "Internal Server Error",
		}
	}

	resp := &ErrorResponse{
		StatusCode: appErr.HTTPStatus(),
		Message:    appErr.Error(),
		Error:      appErr.Description(),
		Code:       string(appErr.Code()),
	}
	if v, ok := appErr.Metadata()["blocked_until"]; ok {
		if ms, ok := v.(int64); ok {
			resp.BlockedUntil = ms
		}
	}
	return appErr.HTTPStatus(), resp
}

// Pagination carries list paging metadata.
type Pagination struct {
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
	Total  int64 `json:"total"`
}

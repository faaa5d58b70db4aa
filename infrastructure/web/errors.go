package web

import (
	"net/http"

	"chat-relay/errors"

	"github.com/labstack/echo/v4"
)

// writeError translates core errors into the standardized error envelope.
// Validation failures are 400, storage failures map per kind; anything
// unrecognized is a 500 without leaking internals.
func writeError(c echo.Context, err error) error {
	if v, ok := errors.AsValidation(err); ok {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Status: "error",
			Error: ErrorDetail{
				Code:    string(v.Kind),
				Message: v.Message,
				Details: v.Field,
			},
		})
	}

	if s, ok := errors.AsStorage(err); ok {
		status := http.StatusServiceUnavailable
		switch s.Kind {
		case errors.NotFound:
			status = http.StatusNotFound
		case errors.Conflict:
			status = http.StatusConflict
		}
		return c.JSON(status, ErrorResponse{
			Status: "error",
			Error: ErrorDetail{
				Code:    string(s.Kind),
				Message: "storage operation failed",
			},
		})
	}

	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Status: "error",
		Error: ErrorDetail{
			Code:    "INTERNAL",
			Message: "unexpected error",
		},
	})
}

func writeBadRequest(c echo.Context, code, message string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{
		Status: "error",
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

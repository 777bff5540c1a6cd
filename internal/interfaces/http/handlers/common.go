// Package handlers implements the HTTP API surface: document submission,
// analysis job control, result queries and keyword set management.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/turtacn/PatentSentinel/pkg/errors"
)

// ErrorResponse is the standard error payload.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// respondError maps an application error to its HTTP status via the error
// code table.  Server-side codes are masked so internals never leak to
// clients.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)

	resp := ErrorResponse{Code: code.String(), Message: err.Error()}
	if appErr, ok := err.(*errors.AppError); ok {
		resp.Detail = appErr.Detail
	}
	if status >= http.StatusInternalServerError {
		resp.Message = errors.DefaultMessageForCode(code)
		resp.Detail = ""
	}
	c.AbortWithStatusJSON(status, resp)
}

// validationErr converts request binding failures into the validation error
// code.
func validationErr(err error) error {
	return errors.Wrap(err, errors.ErrCodeValidation, "invalid request payload")
}

// parseUUIDParam reads a path parameter as a UUID, rejecting the request on
// failure.
func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondError(c, errors.Newf(errors.ErrCodeValidation, "%s must be a valid UUID", name))
		return uuid.Nil, false
	}
	return id, true
}

// Package handlers implements the HTTP handlers for the import API.
package handlers

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/chemlattice/molimport/pkg/errors"
)

// ErrorResponse is the standard error body returned by every endpoint.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Detail  string `json:"detail,omitempty"`
}

// respondError writes err as a JSON error response, mapping AppError codes to
// HTTP status.  Server-side causes are masked; only the code, message and
// detail travel to the client.
func respondError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)

	resp := ErrorResponse{Code: string(code)}
	var ae *errors.AppError
	if stderrors.As(err, &ae) {
		resp.Message = ae.Message
		resp.Detail = ae.Detail
	} else {
		resp.Message = err.Error()
	}
	if status >= http.StatusInternalServerError {
		resp.Message = errors.DefaultMessageForCode(code)
		resp.Detail = ""
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

// respondBadRequest writes a 400 with the given message.
func respondBadRequest(c *gin.Context, message string) {
	respondError(c, errors.InvalidParam(message))
}

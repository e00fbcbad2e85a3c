package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "trade-journal-linker/pkg/errors"
)

type apiResponse struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    any            `json:"data,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// Ok writes a 200 envelope
func Ok(c *gin.Context, data any, meta map[string]any) {
	c.JSON(http.StatusOK, apiResponse{
		Code:    0,
		Message: "ok",
		Data:    data,
		Meta:    meta,
	})
}

// Error writes an error envelope with the given HTTP status
func Error(c *gin.Context, status int, message string, meta map[string]any) {
	c.JSON(status, apiResponse{
		Code:    status,
		Message: message,
		Meta:    meta,
	})
}

// Fail writes err with the status its category maps to. Errors that are not
// LinkerErrors are reported as internal without exposing their text.
func Fail(c *gin.Context, err error) {
	linkerErr, ok := apperrors.AsLinkerError(err)
	if !ok {
		_ = c.Error(err)
		Error(c, http.StatusInternalServerError, "internal error", nil)
		return
	}
	_ = c.Error(err)
	meta := map[string]any{"error_code": linkerErr.Code}
	if linkerErr.Suggestion != "" {
		meta["suggestion"] = linkerErr.Suggestion
	}
	Error(c, linkerErr.HTTPStatus(), linkerErr.Message, meta)
}

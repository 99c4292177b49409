package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response is the envelope of every REST answer.
type Response struct {
	Success bool `json:"success"`
	Code    int  `json:"code"`
	Extras  any  `json:"extras"`
}

func NewResponse(success bool, code int, extras any) Response {
	return Response{
		Success: success,
		Code:    code,
		Extras:  extras,
	}
}

// SuccessResponseContent returns a JSON response with a success message and content
func SuccessResponseContent(c *gin.Context, content string) {
	c.JSON(http.StatusOK, NewResponse(true, http.StatusOK, gin.H{"content": content}))
}

// SuccessResponse returns a JSON response with a success message with no type limitation
func SuccessResponse(c *gin.Context, extras any) {
	c.JSON(http.StatusOK, NewResponse(true, http.StatusOK, extras))
}

// ErrorResponse aborts the request with code and a message.
func ErrorResponse(c *gin.Context, code int, message string) {
	c.AbortWithStatusJSON(code, NewResponse(false, code, gin.H{"message": message}))
}

// FromError answers with the status carried by an Error, or 500 for anything else.
// Internal errors are logged and not shown to the client.
func FromError(c *gin.Context, err error) {
	var apiErr Error
	if errors.As(err, &apiErr) {
		ErrorResponse(c, apiErr.Code, apiErr.Extras)
		return
	}
	slog.ErrorContext(c.Request.Context(), "Request failed", "http.path", c.Request.URL.Path, "error", err)
	ErrorResponse(c, http.StatusInternalServerError, "internal error")
}

package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
	apperrors "github.com/sheetlens/sheetlens-backend/internal/pkg/errors"
)

// Response is the uniform JSON envelope for all handlers
type Response struct {
	Code    int         `json:"code"`              // business error code, 0 on success
	Message string      `json:"message,omitempty"` // human-readable message
	Data    interface{} `json:"data"`              // payload, {} when empty
}

// Success writes a 200 response
func Success(c *gin.Context, data interface{}) {
	if data == nil {
		data = struct{}{}
	}
	c.JSON(http.StatusOK, Response{
		Code: apperrors.Success,
		Data: data,
	})
}

// SuccessWithMessage writes a 200 response with a message
func SuccessWithMessage(c *gin.Context, message string, data interface{}) {
	if data == nil {
		data = struct{}{}
	}
	c.JSON(http.StatusOK, Response{
		Code:    apperrors.Success,
		Message: message,
		Data:    data,
	})
}

// Created writes a 201 response
func Created(c *gin.Context, data interface{}) {
	if data == nil {
		data = struct{}{}
	}
	c.JSON(http.StatusCreated, Response{
		Code: apperrors.Success,
		Data: data,
	})
}

// Error writes an error response with an explicit HTTP status
func Error(c *gin.Context, httpStatus int, message string) {
	c.JSON(httpStatus, Response{
		Code:    httpStatus,
		Message: message,
		Data:    struct{}{},
	})
}

// BadRequest writes a 400 error
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, message)
}

// Unauthorized writes a 401 error
func Unauthorized(c *gin.Context, message string) {
	Error(c, http.StatusUnauthorized, message)
}

// HandleError maps an AppError (or any error) onto the envelope
func HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	code := apperrors.ExtractCode(err)
	httpStatus := apperrors.GetHTTPStatus(code)
	message := apperrors.FormatError(code, apperrors.GetDetails(err))

	c.JSON(httpStatus, Response{
		Code:    code,
		Message: message,
		Data:    struct{}{},
	})
}

// IsPartial reports whether the client asked for a compact partial
// representation instead of a full page payload (HTMX-style hint).
func IsPartial(c *gin.Context) bool {
	return c.GetHeader("HX-Request") == "true" || c.GetHeader("X-Partial") == "true"
}

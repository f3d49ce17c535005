package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Response represents a standard API response.
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo contains error details.
type ErrorInfo struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Success sends a successful response.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    data,
	})
}

// Error sends an error response.
func Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, errorBody(code, message))
}

// Abort sends an error response and stops the handler chain.
func Abort(c *gin.Context, statusCode int, code, message string) {
	c.AbortWithStatusJSON(statusCode, errorBody(code, message))
}

func errorBody(code, message string) Response {
	return Response{
		Success: false,
		Error: &ErrorInfo{
			Code:    code,
			Message: message,
		},
	}
}

// BadRequest sends a 400 error response.
func BadRequest(c *gin.Context, message string) {
	Error(c, http.StatusBadRequest, "BAD_REQUEST", message)
}

// Unauthorized aborts with a 401 error response.
func Unauthorized(c *gin.Context, message string) {
	Abort(c, http.StatusUnauthorized, "UNAUTHORIZED", message)
}

// NotFound sends a 404 error response.
func NotFound(c *gin.Context, message string) {
	Error(c, http.StatusNotFound, "NOT_FOUND", message)
}

// InternalError sends a 500 error response.
func InternalError(c *gin.Context, message string) {
	Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", message)
}

// AbortInternalError aborts with a 500 error response.
func AbortInternalError(c *gin.Context, message string) {
	Abort(c, http.StatusInternalServerError, "INTERNAL_ERROR", message)
}

// Package response writes the JSON envelope shared by every endpoint:
// {"success": true, "data": ...} or {"success": false, "error": {...}}.
package response

import "github.com/gin-gonic/gin"

type envelope struct {
	Success bool       `json:"success"`
	Data    any        `json:"data,omitempty"`
	Error   *errorBody `json:"error,omitempty"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func Success(c *gin.Context, statusCode int, data any) {
	c.JSON(statusCode, envelope{Success: true, Data: data})
}

func Error(c *gin.Context, statusCode int, code, message string) {
	writeError(c, statusCode, &errorBody{Code: code, Message: message})
}

// ErrorWithDetails adds a machine-readable payload, such as per-field
// validation failures or the bookings that caused a conflict.
func ErrorWithDetails(c *gin.Context, statusCode int, code, message string, details any) {
	writeError(c, statusCode, &errorBody{Code: code, Message: message, Details: details})
}

// Abort writes an error envelope and stops the handler chain.
func Abort(c *gin.Context, statusCode int, code, message string) {
	Error(c, statusCode, code, message)
	c.Abort()
}

func writeError(c *gin.Context, statusCode int, body *errorBody) {
	c.JSON(statusCode, envelope{Error: body})
}

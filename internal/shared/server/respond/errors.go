package respond

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fixme-backend/internal/shared/telemetry"
	"fixme-backend/internal/shared/util"
)

// ErrorBody is the JSON object returned for every non-2xx response that is
// not a degraded diagnosis envelope.
type ErrorBody struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	Field      string `json:"field,omitempty"`
	Errors     any    `json:"errors,omitempty"`
	StatusCode int    `json:"status_code,omitempty"`
	Success    bool   `json:"success"`
}

// Error sends a generic error response carrying the status code.
func Error(c *gin.Context, status int, label, message string) {
	Abort(c, status, ErrorBody{
		Error:      label,
		Message:    message,
		StatusCode: status,
	})
}

// Validation sends a 400 with the "Validation error" label.
func Validation(c *gin.Context, field, message string) {
	Abort(c, http.StatusBadRequest, ErrorBody{
		Error:   "Validation error",
		Message: message,
		Field:   field,
	})
}

// Abort logs the error and writes body with status, stopping the chain.
func Abort(c *gin.Context, status int, body ErrorBody) {
	fields := map[string]any{
		"status":     status,
		"error":      body.Error,
		"message":    body.Message,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": c.GetString("requestId"),
	}
	if body.Field != "" {
		fields["field"] = body.Field
	}
	if userID := c.GetString("userId"); userID != "" {
		fields["user_key"] = util.Fingerprint(userID, 16)
	}
	if status >= http.StatusInternalServerError {
		telemetry.Error("http.error", fields)
	} else {
		telemetry.Warn("http.error", fields)
	}

	body.Success = false
	c.AbortWithStatusJSON(status, body)
}

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"fixme-backend/internal/shared/server/respond"
)

// BodyLimit caps the request body at maxBytes. Requests that declare a larger
// Content-Length are rejected up front; streamed bodies fail on read with
// *http.MaxBytesError.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 || c.Request.Body == nil {
			c.Next()
			return
		}
		if c.Request.ContentLength > maxBytes {
			respond.Error(c, http.StatusRequestEntityTooLarge, "Payload Too Large", "Request body too large")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/screentime/backend/internal/interfaces/http/dto"
)

// BodyLimit returns a middleware that limits request body size. Snapshot
// sync batches are the largest payload the API accepts; anything bigger is
// rejected up front.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge,
				dto.NewErrorResponse(dto.ErrCodeRequestTooLarge, "Request body exceeds maximum allowed size"))
			return
		}

		// Wrap the body with a limited reader for streaming requests
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

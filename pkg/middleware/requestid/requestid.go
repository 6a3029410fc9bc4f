package requestid

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerKey  = "X-Correlation-ID"
	contextKey = "correlation_id"
)

type ctxKey struct{}

// Middleware assigns a correlation ID to each incoming HTTP request. The ID
// is echoed back to the client and propagated to outbound LRS requests.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		corrID := c.GetHeader(headerKey)
		if corrID == "" {
			corrID = uuid.NewString()
		}

		c.Set(contextKey, corrID)
		c.Writer.Header().Set(headerKey, corrID)
		c.Request = c.Request.WithContext(NewContext(c.Request.Context(), corrID))

		c.Next()
	}
}

// Value returns the correlation ID stored in the Gin context.
func Value(c *gin.Context) string {
	if v, exists := c.Get(contextKey); exists {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

// NewContext attaches the correlation ID to a standard context.
func NewContext(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext extracts the correlation ID from a standard context.
func FromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKey{}).(string); ok {
		return v
	}
	return ""
}

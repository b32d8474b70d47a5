package httperr

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

// Middleware renders the last error a handler recorded with c.Error as a
// Problem. Handlers never write error bodies themselves.
func Middleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last().Err
		p := Classify(err)
		p.RequestID = c.GetString(RequestIDKey)

		fields := []zap.Field{
			zap.Error(err),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", p.Status),
			zap.String("request_id", p.RequestID),
		}
		if p.Status >= 500 {
			logger.Error("request failed", fields...)
		} else {
			logger.Debug("request rejected", fields...)
		}

		if c.Writer.Written() {
			return
		}
		c.AbortWithStatusJSON(p.Status, p)
	}
}

// Abort records err for Middleware and stops the handler chain.
func Abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

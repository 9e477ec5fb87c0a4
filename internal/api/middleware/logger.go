package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/speculative-artefact/compactImg/internal/logger"
)

// ContextualLogger builds a request-scoped logger (with trace and span IDs
// when tracing is enabled) and attaches it to the request context.
func ContextualLogger(defaultComponent string) gin.HandlerFunc {
	return func(c *gin.Context) {
		component := defaultComponent
		if routePath := c.FullPath(); routePath != "" {
			component = strings.Trim(strings.ReplaceAll(routePath, "/", "-"), "-")
			if component == "" {
				component = "root"
			}
		}

		requestLogger := logger.GetLoggerWithContext(c.Request.Context(), component)
		c.Request = c.Request.WithContext(logger.ToContext(c.Request.Context(), requestLogger))

		c.Next()
	}
}

package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/nulzo/oneai-gateway/internal/store"
)

const appNameHeader = "X-App-Name"

// tagAppName copies X-App-Name into the request context so request records
// can attribute anonymous traffic. It returns the header value.
func tagAppName(c *gin.Context) string {
	appName := c.GetHeader(appNameHeader)
	if appName != "" {
		ctx := context.WithValue(c.Request.Context(), store.ContextKeyAppName, appName)
		c.Request = c.Request.WithContext(ctx)
	}
	return appName
}

// Identity tags the request like Auth does but lets every caller through.
// It replaces Auth in development when no keys are configured.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		tagAppName(c)
		c.Next()
	}
}

package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nulzo/oneai-gateway/internal/store"
	"github.com/nulzo/oneai-gateway/pkg/api"
)

// HashKey returns the stored form of an API key.
func HashKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Auth accepts a static key, a key stored in the database, or an
// X-App-Name header for anonymous app traffic.
func Auth(repo store.Repository, staticKeys []string, logger *zap.Logger) gin.HandlerFunc {
	staticMap := make(map[string]bool)
	for _, k := range staticKeys {
		staticMap[k] = true
	}

	return func(c *gin.Context) {
		appName := tagAppName(c)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			if appName != "" {
				c.Next()
				return
			}
			abortWithProblem(c, api.UnauthorizedError("Missing Authorization header or X-App-Name"))
			return
		}

		scheme, token, ok := strings.Cut(authHeader, " ")
		if !ok || scheme != "Bearer" || token == "" {
			abortWithProblem(c, api.UnauthorizedError("Invalid Authorization header format"))
			return
		}

		if staticMap[token] {
			c.Next()
			return
		}

		if repo == nil {
			abortWithProblem(c, api.UnauthorizedError("Invalid API Key"))
			return
		}

		key, err := repo.APIKeys().GetByHash(c.Request.Context(), HashKey(token))
		if err != nil {
			abortWithProblem(c, api.UnauthorizedError("Invalid API Key"))
			return
		}

		// downstream request records carry the key owner
		ctx := context.WithValue(c.Request.Context(), store.ContextKeyAPIKey, key)
		c.Request = c.Request.WithContext(ctx)

		go func(id string) {
			if err := repo.APIKeys().UpdateUsage(context.Background(), id); err != nil {
				logger.Debug("Failed to stamp key usage", zap.String("key_id", id), zap.Error(err))
			}
		}(key.ID)

		c.Next()
	}
}

func abortWithProblem(c *gin.Context, p *api.Problem) {
	c.AbortWithStatusJSON(p.Status, p)
}

package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nulzo/oneai-gateway/internal/config"
)

type ConfigHandler struct {
	config *config.Config
}

func NewConfigHandler(cfg *config.Config) *ConfigHandler {
	return &ConfigHandler{config: cfg}
}

// Get returns the non secret part of the running configuration. Keys,
// passwords and DSNs never leave the process.
//
// GET /v1/config
func (h *ConfigHandler) Get(c *gin.Context) {
	cfg := h.config
	c.JSON(http.StatusOK, gin.H{
		"env":             cfg.Server.Env,
		"log_level":       cfg.Log.Level,
		"redis_enabled":   cfg.Redis.Enabled,
		"tracing":         cfg.Tracing.Enabled,
		"rate_limit":      gin.H{"rps": cfg.RateLimit.RequestsPerSecond, "burst": cfg.RateLimit.Burst},
		"auth_required":   len(cfg.Server.APIKeys) > 0 || cfg.IsProduction(),
		"adapter_timeout": cfg.Gateway.AdapterTimeout.String(),
		"catalog_ttl":     cfg.Gateway.CatalogTTL.String(),
	})
}

package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nulzo/oneai-gateway/internal/gateway"
)

type ProviderHandler struct {
	service gateway.Service
}

func NewProviderHandler(service gateway.Service) *ProviderHandler {
	return &ProviderHandler{service: service}
}

// List reports every known vendor and whether its credential is present.
//
// GET /v1/providers
func (h *ProviderHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   h.service.Providers(),
	})
}

// GET /v1/catalog
func (h *ProviderHandler) Catalog(c *gin.Context) {
	catalog, err := h.service.Catalog(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, catalog)
}

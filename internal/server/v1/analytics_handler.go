package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nulzo/oneai-gateway/internal/analytics"
	"github.com/nulzo/oneai-gateway/pkg/api"
)

const maxUsageDays = 90

type AnalyticsHandler struct {
	service analytics.Service
}

func NewAnalyticsHandler(service analytics.Service) *AnalyticsHandler {
	return &AnalyticsHandler{
		service: service,
	}
}

// GET /v1/analytics/overview
func (h *AnalyticsHandler) Overview(c *gin.Context) {
	overview, err := h.service.Overview(c.Request.Context())
	if err != nil {
		_ = c.Error(api.InternalError("Failed to build overview", api.WithLog(err)))
		return
	}

	c.JSON(http.StatusOK, overview)
}

// GET /v1/analytics/usage?days=
func (h *AnalyticsHandler) GetUsage(c *gin.Context) {
	daysStr := c.DefaultQuery("days", "7")
	days, err := strconv.Atoi(daysStr)
	if err != nil || days < 1 || days > maxUsageDays {
		_ = c.Error(api.BadRequestError("Invalid 'days' parameter",
			api.WithExtension("errors", map[string]string{"days": "must be between 1 and 90"})))
		return
	}

	stats, err := h.service.GetUsageOverview(c.Request.Context(), days)
	if err != nil {
		_ = c.Error(api.InternalError("Failed to fetch analytics", api.WithLog(err)))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   stats,
	})
}

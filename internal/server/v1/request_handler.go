package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nulzo/oneai-gateway/internal/store"
	"github.com/nulzo/oneai-gateway/pkg/api"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// RequestHandler exposes the recorded envelopes.
type RequestHandler struct {
	repo store.Repository
}

func NewRequestHandler(repo store.Repository) *RequestHandler {
	return &RequestHandler{repo: repo}
}

// GET /v1/requests/:id
func (h *RequestHandler) Get(c *gin.Context) {
	rec, err := h.repo.Requests().GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			_ = c.Error(api.NotFoundError("Request not found"))
			return
		}
		_ = c.Error(api.InternalError("Failed to load request", api.WithLog(err)))
		return
	}

	c.JSON(http.StatusOK, rec)
}

// GET /v1/requests?limit=
func (h *RequestHandler) List(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if err != nil || limit < 1 {
		_ = c.Error(api.BadRequestError("Invalid 'limit' parameter"))
		return
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	recs, err := h.repo.Requests().Recent(c.Request.Context(), limit)
	if err != nil {
		_ = c.Error(api.InternalError("Failed to list requests", api.WithLog(err)))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"object": "list",
		"data":   recs,
	})
}

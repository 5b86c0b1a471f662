package explain

import (
	"github.com/eduflash/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	grp := rg.Group("/explain", authMW)
	grp.GET("/cache/stats", h.cacheStats)
	grp.DELETE("/cache", h.flushCache)
}

func (h *Handler) cacheStats(c *gin.Context) {
	size, keys := h.svc.CacheStats()
	response.OK(c, gin.H{"size": size, "keys": keys})
}

func (h *Handler) flushCache(c *gin.Context) {
	h.svc.FlushCache()
	response.NoContent(c)
}

package leaderboard

import (
	"context"
	"errors"
	"math"
	"strconv"

	"github.com/eduflash/core/internal/middleware"
	"github.com/eduflash/core/internal/pkg/response"
	"github.com/gin-gonic/gin"
)

type submitScoreDTO struct {
	Name  string   `json:"name" binding:"required"`
	Score *float64 `json:"score" binding:"required"`
}

// Notifier receives fresh rankings after a successful submission.
// The websocket gateway implements it.
type Notifier interface {
	NotifyLeaderboard(entries []RankedEntry)
}

type Handler struct {
	svc      *Service
	notifier Notifier
}

func NewHandler(svc *Service, notifier Notifier) *Handler {
	return &Handler{svc: svc, notifier: notifier}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, authMW gin.HandlerFunc) {
	grp := rg.Group("/leaderboard")
	grp.GET("", h.top)
	grp.GET("/count", h.count)
	grp.POST("", h.submit)
	grp.DELETE("", authMW, h.clear)
}

func (h *Handler) submit(c *gin.Context) {
	var dto submitScoreDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		response.BadRequest(c, "missing name or score")
		return
	}

	score := *dto.Score
	if math.IsNaN(score) || math.IsInf(score, 0) || score < 0 {
		response.BadRequest(c, "invalid score value")
		return
	}

	// The core takes integers; fractional scores are floored here at the
	// boundary.
	entry, err := h.svc.Submit(c.Request.Context(), dto.Name, int(math.Floor(score)), middleware.CurrentUserID(c))
	if err != nil {
		if errors.Is(err, ErrNameRequired) || errors.Is(err, ErrNameTooLong) || errors.Is(err, ErrNegativeScore) {
			response.BadRequest(c, err.Error())
			return
		}
		response.InternalError(c, err)
		return
	}

	h.broadcast()
	response.Created(c, gin.H{"success": true, "entry": entry})
}

func (h *Handler) top(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	entries, err := h.svc.Top(c.Request.Context(), limit)
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, entries)
}

func (h *Handler) count(c *gin.Context) {
	count, err := h.svc.Count(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.OK(c, gin.H{"count": count})
}

func (h *Handler) clear(c *gin.Context) {
	if err := h.svc.Clear(c.Request.Context()); err != nil {
		response.InternalError(c, err)
		return
	}
	h.broadcast()
	response.NoContent(c)
}

// broadcast pushes the current top ranking to websocket subscribers. Feed
// errors must never affect the HTTP response.
func (h *Handler) broadcast() {
	if h.notifier == nil {
		return
	}
	entries, err := h.svc.Top(context.Background(), DefaultLimit)
	if err != nil {
		return
	}
	h.notifier.NotifyLeaderboard(entries)
}

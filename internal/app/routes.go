package app

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/eduflash/core/internal/middleware"
	"github.com/eduflash/core/internal/modules/auth"
	"github.com/eduflash/core/internal/modules/backup"
	"github.com/eduflash/core/internal/modules/explain"
	"github.com/eduflash/core/internal/modules/gateway"
	"github.com/eduflash/core/internal/modules/health"
	"github.com/eduflash/core/internal/modules/leaderboard"
	"github.com/eduflash/core/internal/modules/question"
	pkgredis "github.com/eduflash/core/internal/pkg/redis"
	"github.com/eduflash/core/internal/pkg/response"
)

const apiPrefix = "/api/v1"

func (a *App) registerRoutes(rc *pkgredis.Client) {
	r := a.router
	db := a.db
	authMW := middleware.Auth(db)

	r.NoRoute(func(c *gin.Context) {
		response.NotFound(c)
	})
	r.NoMethod(func(c *gin.Context) {
		response.MethodNotAllowed(c)
	})

	appInfo := gin.H{
		"name":    "eduflash-core",
		"version": "1.0.0",
	}

	// Rate limiting and idempotence run on every route (requires Redis).
	r.Use(middleware.RateLimit(rc.Raw()))
	r.Use(middleware.Idempotence(rc.Raw()))

	// WebSocket gateway lives outside the versioned API.
	root := r.Group("")
	gateway.RegisterRoutes(root, a.hub)

	api := r.Group(apiPrefix)
	api.Use(middleware.OptionalAuth(db))

	health.RegisterRoutes(api, db, rc, a.sched, authMW)

	api.GET("", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/info", func(c *gin.Context) { c.PureJSON(http.StatusOK, appInfo) })
	api.GET("/ping", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"data": "pong"}) })
	api.GET("/uptime", func(c *gin.Context) {
		uptime := time.Since(processStart)
		c.JSON(http.StatusOK, gin.H{
			"timestamp": uptime.Milliseconds(),
			"humanize":  humanizeDuration(uptime),
		})
	})

	auth.NewHandler(auth.NewService(db)).RegisterRoutes(api, authMW)

	question.NewHandler(question.NewService(db), a.explain).RegisterRoutes(api, authMW)
	leaderboard.NewHandler(a.lbSvc, a.hub).RegisterRoutes(api, authMW)
	explain.NewHandler(a.explain).RegisterRoutes(api, authMW)

	backup.NewHandler(a.backupSvc).RegisterRoutes(api, authMW)
}

func humanizeDuration(d time.Duration) string {
	if d < time.Minute {
		return d.Truncate(time.Second).String()
	}
	if d < time.Hour {
		return d.Truncate(time.Minute).String()
	}
	if d < 24*time.Hour {
		return d.Truncate(time.Hour).String()
	}
	return d.Truncate(24 * time.Hour).String()
}

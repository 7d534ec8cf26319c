package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"thermo-monitor-backend/internal/metrics"
	"thermo-monitor-backend/internal/mw"
)

// RouterConfig tunes the middleware stack.
type RouterConfig struct {
	RateLimitPerSec float64
	RateLimitBurst  int
	CacheTTL        time.Duration
	Verifier        mw.TokenVerifier
}

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestLogger())

	// Public ingestion is limited per client IP.
	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)

	cacheStore := cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	caching := mw.Cache(cacheStore, cfg.CacheTTL)

	requireAuth := mw.RequireAuth(cfg.Verifier)

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api/v1")
	{
		api.POST("/auth/login", h.Login)

		api.GET("/users", h.ListUsers)
		api.POST("/users", h.CreateUser)
		api.GET("/users/:id", h.GetUser)
		api.DELETE("/users/:id", requireAuth, h.DeleteUser)

		api.POST("/sensor-data", rateLimiter, h.CreateSensorData)
		api.GET("/vapid_public_key", h.VAPIDPublicKey)
	}

	protected := api.Group("")
	protected.Use(requireAuth)
	{
		protected.GET("/devices", h.ListDevices)
		protected.POST("/devices", h.CreateDevice)
		protected.GET("/devices/:id", h.GetDevice)
		protected.PATCH("/devices/:id", h.UpdateDevice)
		protected.PUT("/devices/:id", h.UpdateDevice)
		protected.DELETE("/devices/:id", h.DeleteDevice)
		protected.POST("/devices/:id/transfer", h.TransferDevice)
		protected.GET("/devices/:id/sensor-data", h.ListDeviceSensorData)
		protected.GET("/devices/:id/statistics", caching, h.DeviceStatistics)
		protected.GET("/devices/:id/alerts", h.ListDeviceAlerts)

		protected.GET("/sensor-data", h.ListSensorData)

		protected.GET("/alerts", h.ListAlerts)
		protected.GET("/alerts/:id", h.GetAlert)
		protected.POST("/alerts/:id/resolve", h.ResolveAlert)

		protected.GET("/subscriptions", h.GetSubscription)
		protected.PUT("/subscriptions", h.PutSubscription)
		protected.DELETE("/subscriptions", h.DeleteSubscription)
	}

	return r
}

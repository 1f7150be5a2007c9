package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"parking-iot-backend/config"
	"parking-iot-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.ServerConfig, handler *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.AccessLog())
	if cfg.RequestIPHeader != "" {
		r.TrustedPlatform = cfg.RequestIPHeader
	}

	// Burst allows a dashboard to load its panels in parallel.
	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), int(cfg.RateLimitPerSec)*2+1)

	responseCache := mw.NewResponseCache(time.Duration(cfg.CacheTTLSeconds) * time.Second)
	handler.onLiveChange = func() { responseCache.Purge("/api/live") }
	handler.onHistoricalChange = func() { responseCache.Purge("/api/historical") }
	caching := responseCache.Middleware()

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/facilities", caching, handler.GetFacilities)
		api.GET("/districts", caching, handler.GetDistricts)

		live := api.Group("/live")
		live.GET("/status", caching, handler.GetLiveStatus)
		live.GET("/events", caching, handler.GetLiveEvents)
		live.POST("/start", handler.StartLive)
		live.POST("/stop", handler.StopLive)
		live.POST("/reset", handler.ResetLive)
		live.POST("/burst", handler.BurstLive)

		api.POST("/historical", handler.StartHistorical)
		api.GET("/historical/progress", caching, handler.GetHistoricalProgress)
		api.DELETE("/historical/progress", handler.ClearHistoricalProgress)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}

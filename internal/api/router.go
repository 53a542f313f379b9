package api

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"afc-report-backend/config"
	"afc-report-backend/internal/mw"
)

// NewRouter creates and configures a new Gin router. ctx bounds the
// background work of the middleware.
func NewRouter(ctx context.Context, cfg config.ServerConfig, handler *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.AccessLog(), mw.CORS(cfg.AllowedOrigins))

	rateLimiter := mw.RateLimiter(ctx, rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)
	quota := mw.Quota(cfg.UpstreamPerMin, time.Minute)

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	caching := mw.Cache(cache.New(ttl, 2*ttl), ttl)

	r.GET("/healthz", handler.Healthz)

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// Pass-through to the spreadsheet script.
		api.GET("/reports", quota, handler.GetReports)
		api.POST("/submit", quota, handler.PostSubmit)
		api.POST("/delete", quota, handler.PostDelete)

		api.GET("/pending", handler.GetPending)
		api.DELETE("/pending/:id", handler.DeletePending)
		api.POST("/pending/sync", handler.PostSync)
		api.POST("/pending/clear", handler.PostClearSynced)

		api.GET("/form", handler.GetForm)
		api.PATCH("/form", handler.PatchForm)
		api.POST("/form/final-result", handler.PostFinalResult)
		api.PUT("/form/auto-time", handler.PutAutoTime)
		api.PUT("/form/multi-tag", handler.PutMultiTag)
		api.POST("/form/submit", handler.PostFormSubmit)
		api.DELETE("/form/edit", handler.DeleteFormEdit)
		api.GET("/form/options", handler.GetFormOptions)
		api.GET("/catalog/:device", caching, handler.GetCatalog)

		api.GET("/history", quota, handler.GetHistory)
		api.POST("/history/edit", handler.PostHistoryEdit)

		api.GET("/dashboard", quota, handler.GetDashboard)
		api.GET("/export", quota, handler.GetExport)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}

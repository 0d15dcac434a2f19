package router

import (
	"github.com/gin-gonic/gin"

	"crosswalk.app/api/internal/http/dto"
	"crosswalk.app/api/internal/http/handler"
	"crosswalk.app/api/internal/http/middleware"
	"crosswalk.app/api/internal/metrics"
	"crosswalk.app/api/internal/service"
)

type RouterConfig struct {
	// Metrics is nil when /metrics is disabled.
	Metrics    *metrics.Collector
	Subscriber handler.Subscriber
	// Ready checks backing services for /ready, keyed by name.
	Ready map[string]handler.HealthCheck
}

func SetupRoutes(router *gin.Engine, services *service.Services, cfg RouterConfig) error {
	if err := dto.RegisterValidators(); err != nil {
		return err
	}

	health := handler.NewHealthHandler(cfg.Ready)
	router.GET("/health", health.Live)
	router.GET("/ready", health.Ready)

	var streams handler.StreamTracker
	if cfg.Metrics != nil {
		router.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
		streams = cfg.Metrics
	}

	authService := services.Auth()
	requireAuth := middleware.RequireAuth(authService)

	authHandler := handler.NewAuthHandler(authService, services.Users())
	AuthRouter(router.Group("/auth"), requireAuth, authHandler)

	dropHandler := handler.NewDropHandler(services.Drops())
	DropRouter(router.Group("/drops", requireAuth), dropHandler)

	notificationHandler := handler.NewNotificationHandler(services.Notifications())
	NotificationRouter(router.Group("/notifications", requireAuth), notificationHandler)

	vibeHandler := handler.NewVibeHandler(services.Vibes(), streams)
	VibeRouter(router.Group("/vibes", requireAuth), vibeHandler)

	realtimeHandler := handler.NewRealtimeHandler(cfg.Subscriber, streams)
	RealtimeRouter(router.Group("/realtime", requireAuth), realtimeHandler)

	return nil
}

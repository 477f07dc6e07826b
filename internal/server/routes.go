package server

import (
	"github.com/gin-gonic/gin"

	"github.com/nulzo/oneai-gateway/internal/server/middleware"
	v1 "github.com/nulzo/oneai-gateway/internal/server/v1"
)

func (s *Server) SetupRoutes() {
	s.router.Use(middleware.CORS(s.config.Server.CORSOrigins))
	s.router.Use(middleware.ErrorHandler(s.logger))

	var pinger v1.Pinger
	if p, ok := s.repo.(v1.Pinger); ok {
		pinger = p
	}
	healthHandler := v1.NewHealthHandler(s.version, pinger)
	s.router.GET("/health", healthHandler.Health)
	s.router.GET("/ready", healthHandler.Ready)

	limiter := middleware.NewRateLimiter(s.config.RateLimit.RequestsPerSecond, s.config.RateLimit.Burst, s.logger)

	api := s.router.Group("/v1")
	api.Use(limiter.Middleware())
	api.Use(s.authMiddleware())
	{
		capabilities := v1.NewCapabilityHandler(s.gateway, s.validator)
		api.POST("/generate", capabilities.Generate)
		api.POST("/chat", capabilities.Chat)
		api.POST("/images", capabilities.Images)
		api.POST("/videos", capabilities.Videos)
		api.GET("/videos/:id", capabilities.VideoStatus)
		api.POST("/speech", capabilities.Speech)
		api.POST("/music", capabilities.Music)
		api.POST("/transcriptions", capabilities.Transcriptions)

		providers := v1.NewProviderHandler(s.gateway)
		api.GET("/providers", providers.List)
		api.GET("/catalog", providers.Catalog)

		api.GET("/config", v1.NewConfigHandler(s.config).Get)

		if s.analytics != nil {
			analyticsHandler := v1.NewAnalyticsHandler(s.analytics)
			api.GET("/analytics/overview", analyticsHandler.Overview)
			api.GET("/analytics/usage", analyticsHandler.GetUsage)
		}

		if s.repo != nil {
			requests := v1.NewRequestHandler(s.repo)
			api.GET("/requests", requests.List)
			api.GET("/requests/:id", requests.Get)
		}
	}
}

// authMiddleware enforces keys when static keys are configured or the
// server runs in production. Other development servers stay open.
func (s *Server) authMiddleware() gin.HandlerFunc {
	if len(s.config.Server.APIKeys) == 0 && !s.config.IsProduction() {
		s.logger.Warn("No API keys configured, /v1 is open")
		return middleware.Identity()
	}
	return middleware.Auth(s.repo, s.config.Server.APIKeys, s.logger)
}

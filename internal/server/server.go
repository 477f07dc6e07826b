package server

import (
	"net/http"
	"time"

	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nulzo/oneai-gateway/internal/analytics"
	"github.com/nulzo/oneai-gateway/internal/config"
	"github.com/nulzo/oneai-gateway/internal/gateway"
	"github.com/nulzo/oneai-gateway/internal/server/middleware"
	"github.com/nulzo/oneai-gateway/internal/server/validator"
	"github.com/nulzo/oneai-gateway/internal/store"
)

// ServiceName identifies the gateway in traces.
const ServiceName = "oneai-gateway"

type Server struct {
	router    *gin.Engine
	config    *config.Config
	logger    *zap.Logger
	gateway   gateway.Service
	analytics analytics.Service
	repo      store.Repository
	validator *validator.Validator
	version   string
}

// New builds the gin engine and registers every route. repo may be nil,
// in which case only static API keys authenticate and the request
// history endpoints are not mounted.
func New(cfg *config.Config, logger *zap.Logger, gw gateway.Service, an analytics.Service, repo store.Repository, version string) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()

	engine.Use(ginzap.RecoveryWithZap(logger, true))
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Logger(logger))
	if cfg.Tracing.Enabled {
		engine.Use(middleware.Tracing(ServiceName))
	}

	s := &Server{
		router:    engine,
		config:    cfg,
		logger:    logger,
		gateway:   gw,
		analytics: an,
		repo:      repo,
		validator: validator.New(),
		version:   version,
	}

	s.SetupRoutes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// HTTPServer wraps the engine with the timeouts used in production. The
// write timeout leaves room for a full adapter call.
func (s *Server) HTTPServer() *http.Server {
	writeTimeout := s.config.Gateway.AdapterTimeout + 15*time.Second
	if s.config.Gateway.AdapterTimeout == 0 {
		writeTimeout = 0
	}
	return &http.Server{
		Addr:              ":" + s.config.Server.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       2 * time.Minute,
	}
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/nulzo/oneai-gateway/cmd"
	"github.com/nulzo/oneai-gateway/internal/analytics"
	"github.com/nulzo/oneai-gateway/internal/cli"
	"github.com/nulzo/oneai-gateway/internal/config"
	"github.com/nulzo/oneai-gateway/internal/gateway"
	"github.com/nulzo/oneai-gateway/internal/platform/logger"
	"github.com/nulzo/oneai-gateway/internal/platform/otel"
	"github.com/nulzo/oneai-gateway/internal/router"
	"github.com/nulzo/oneai-gateway/internal/server"
	"github.com/nulzo/oneai-gateway/internal/store/cache"
	"github.com/nulzo/oneai-gateway/internal/store/cache/memory"
	"github.com/nulzo/oneai-gateway/internal/store/cache/redis"
	"github.com/nulzo/oneai-gateway/internal/store/sqlite"

	// adapters register themselves in init()
	_ "github.com/nulzo/oneai-gateway/internal/llm/anthropic"
	_ "github.com/nulzo/oneai-gateway/internal/llm/elevenlabs"
	_ "github.com/nulzo/oneai-gateway/internal/llm/google"
	_ "github.com/nulzo/oneai-gateway/internal/llm/heygen"
	_ "github.com/nulzo/oneai-gateway/internal/llm/openai"
	_ "github.com/nulzo/oneai-gateway/internal/llm/replicate"
	_ "github.com/nulzo/oneai-gateway/internal/llm/suno"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Initialize(logger.DefaultConfig())
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logCfg := logger.DefaultConfig()
	logCfg.Level = cfg.Log.Level
	logCfg.Format = cfg.Log.Format
	logger.Initialize(logCfg)
	defer logger.Sync()
	log := logger.Get()

	log.Info(cli.Gradient("One AI gateway", cli.BrandTeal, cli.BrandViolet)+" starting",
		zap.String("version", cmd.AppVersion),
		zap.String("env", cfg.Server.Env),
	)

	if cfg.Tracing.Enabled {
		shutdown, err := otel.InitTracer(otel.Config{
			ServiceName: server.ServiceName,
			Version:     cmd.AppVersion,
			Environment: cfg.Server.Env,
			SampleRatio: cfg.Tracing.SampleRatio,
			Pretty:      !cfg.IsProduction(),
			Writer:      os.Stdout,
		}, log)
		if err != nil {
			log.Fatal("Failed to init tracer", zap.Error(err))
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdown(ctx)
		}()
	}

	repo, err := sqlite.NewSQLiteStorage(cfg.Database.DSN)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer repo.Close()

	cacheSvc := newCache(cfg, log)

	ingestor := analytics.NewIngestor(log, repo)
	ingestor.Start(context.Background())

	providers := gateway.BootstrapProviders(cfg, log)
	gatewaySvc := gateway.NewService(log, router.New(), cfg.Credentials, providers,
		gateway.WithAdapterTimeout(cfg.Gateway.AdapterTimeout),
		gateway.WithCatalogTTL(cfg.Gateway.CatalogTTL),
		gateway.WithIngestor(ingestor),
		gateway.WithCache(cacheSvc),
	)
	analyticsSvc := analytics.NewService(log, repo, cacheSvc)

	srv := server.New(cfg, log, gatewaySvc, analyticsSvc, repo, cmd.AppVersion)
	httpServer := srv.HTTPServer()

	go checkForUpdates(log)

	go func() {
		log.Info("Listening", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout(cfg.Gateway.AdapterTimeout))
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// drain pending request records before the database closes
	ingestor.Stop()
	log.Info("Server exiting")
}

// shutdownTimeout leaves in-flight requests room to finish their adapter
// call before the ingestor closes.
func shutdownTimeout(adapterTimeout time.Duration) time.Duration {
	const minimum = 10 * time.Second
	if d := adapterTimeout + 5*time.Second; d > minimum {
		return d
	}
	return minimum
}

// newCache prefers redis when enabled and reachable, otherwise memory.
func newCache(cfg *config.Config, log *zap.Logger) cache.CacheService {
	if !cfg.Redis.Enabled {
		return memory.NewMemoryCache()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	rc, err := redis.NewRedisCache(ctx, redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Warn("Redis unavailable, falling back to memory cache", zap.Error(err))
		return memory.NewMemoryCache()
	}
	log.Info("Using redis cache", zap.String("addr", cfg.Redis.Addr))
	return rc
}

func checkForUpdates(log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	info, err := cmd.CheckForUpdates(ctx, nil, cmd.ReleasesURL, cmd.AppVersion)
	if err != nil {
		log.Debug("Update check skipped", zap.Error(err))
		return
	}
	if notice := cmd.UpdateNotice(info); notice != "" {
		log.Info(notice)
	}
}

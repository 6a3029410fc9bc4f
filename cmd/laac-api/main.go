package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/HASKI-RAK/laac-api/api/swagger"
	"github.com/HASKI-RAK/laac-api/internal/handler"
	"github.com/HASKI-RAK/laac-api/internal/lrs"
	"github.com/HASKI-RAK/laac-api/internal/middleware"
	"github.com/HASKI-RAK/laac-api/internal/models"
	"github.com/HASKI-RAK/laac-api/internal/provider"
	"github.com/HASKI-RAK/laac-api/internal/repository"
	"github.com/HASKI-RAK/laac-api/internal/service"
	"github.com/HASKI-RAK/laac-api/pkg/cache"
	"github.com/HASKI-RAK/laac-api/pkg/config"
	"github.com/HASKI-RAK/laac-api/pkg/logger"
	corsmiddleware "github.com/HASKI-RAK/laac-api/pkg/middleware/cors"
	reqidmiddleware "github.com/HASKI-RAK/laac-api/pkg/middleware/requestid"
)

// @title LAAC API
// @version 1.0.0
// @description Learning analytics metric computation over xAPI statements
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}

	metricsSvc := service.NewMetricsService()
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled)
	fallbackSvc := service.NewFallbackService(cacheSvc, metricsSvc, logr,
		cfg.Fallback.Enabled, cfg.Fallback.FailureThreshold, cfg.Fallback.Cooldown, cfg.Cache.StaleTTL)

	if len(cfg.LRS.Instances) == 0 {
		logr.Sugar().Fatalw("no LRS instance configured, set LRS_ENDPOINT or LRS_INSTANCES")
	}
	fetchers := make([]service.StatementFetcher, 0, len(cfg.LRS.Instances))
	probers := make([]service.HealthProber, 0, len(cfg.LRS.Instances))
	for _, instance := range cfg.LRS.Instances {
		client, err := lrs.NewClient(instance, lrs.Options{
			Timeout:    cfg.LRS.RequestTimeout,
			MaxRetries: cfg.LRS.MaxRetries,
			Logger:     logr,
			Telemetry:  metricsSvc,
		})
		if err != nil {
			logr.Sugar().Fatalw("failed to build LRS client", "instance", instance.ID, "error", err)
		}
		fetchers = append(fetchers, client)
		probers = append(probers, client)
	}

	registry, err := provider.DefaultRegistry()
	if err != nil {
		logr.Sugar().Fatalw("failed to build metric registry", "error", err)
	}

	computationSvc := service.NewComputationService(service.ComputationServiceParams{
		Registry:      registry,
		Cache:         cacheSvc,
		Fallback:      fallbackSvc,
		Metrics:       metricsSvc,
		Logger:        logr,
		Fetchers:      fetchers,
		DefaultLRS:    cfg.LRS.DefaultID,
		MaxStatements: cfg.LRS.MaxStatements,
	})
	healthSvc := service.NewHealthService(probers, metricsSvc, logr, cfg.Health.Interval)
	authSvc := service.NewAuthService(cfg.JWT)

	metricHandler := handler.NewMetricHandler(computationSvc)
	healthHandler := handler.NewHealthHandler(healthSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", healthHandler.Live)
	r.GET("/health/lrs", healthHandler.LRS)
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc))
	{
		api.GET("/metrics", middleware.RequireScope(models.ScopeMetricsRead), metricHandler.Catalog)
		api.GET("/metrics/:metricId", middleware.RequireScope(models.ScopeMetricsRead), metricHandler.Compute)
		api.DELETE("/metrics/:metricId/cache", middleware.RequireScope(models.ScopeMetricsAdmin), metricHandler.Invalidate)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Health.Enabled {
		healthSvc.Start(ctx)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env,
			"lrs_instances", len(cfg.LRS.Instances))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
	if err := cacheRepo.Close(); err != nil {
		logr.Error("closing redis failed", zap.Error(err))
	}
}

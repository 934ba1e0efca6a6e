package main

import (
	"context"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/edupulse/feedback-api/api/swagger"
	"github.com/edupulse/feedback-api/internal/handler"
	"github.com/edupulse/feedback-api/internal/middleware"
	"github.com/edupulse/feedback-api/internal/models"
	"github.com/edupulse/feedback-api/internal/repository"
	"github.com/edupulse/feedback-api/internal/service"
	"github.com/edupulse/feedback-api/pkg/cache"
	"github.com/edupulse/feedback-api/pkg/config"
	"github.com/edupulse/feedback-api/pkg/database"
	"github.com/edupulse/feedback-api/pkg/jobs"
	"github.com/edupulse/feedback-api/pkg/logger"
	corsmiddleware "github.com/edupulse/feedback-api/pkg/middleware/cors"
	reqidmiddleware "github.com/edupulse/feedback-api/pkg/middleware/requestid"
	"github.com/edupulse/feedback-api/pkg/storage"
)

// @title EduPulse Feedback API
// @version 1.0.0
// @description Classroom feedback aggregation and analytics service
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	metricsService := service.NewMetricsService()

	var cacheRepo *repository.CacheRepository
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, report caching disabled", zap.Error(err))
		} else {
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
			defer cacheRepo.Close()
		}
	}
	var cacheService *service.CacheService
	if cacheRepo != nil {
		cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Analytics.CacheTTL, logr, true)
	}

	userRepo := repository.NewUserRepository(db)
	evalRepo := repository.NewEvaluationRepository(db)
	rosterRepo := repository.NewRosterRepository(db)

	authService := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		Secret:   cfg.JWT.Secret,
		TokenTTL: cfg.JWT.Expiration,
		Issuer:   cfg.JWT.Issuer,
	})
	analyticsService := service.NewAnalyticsService(evalRepo, rosterRepo, cacheService, metricsService, logr, service.AnalyticsServiceConfig{
		CacheTTL:         cfg.Analytics.CacheTTL,
		DefaultTrendDays: cfg.Analytics.DefaultTrendDays,
		MaxTrendDays:     cfg.Analytics.MaxTrendDays,
		MaxLimit:         cfg.Analytics.MaxLimit,
		Moderation: service.ModerationThresholds{
			MinRatings:    cfg.Analytics.ModerationMinRatings,
			RatingCeiling: cfg.Analytics.ModerationRatingCeiling,
		},
	})

	archive, err := storage.NewArchive(cfg.Export.ArchiveDir)
	if err != nil {
		logr.Fatal("failed to prepare export archive", zap.Error(err))
	}
	signer := storage.NewDownloadSigner(cfg.JWT.Secret, cfg.Export.DownloadTTL)

	var refresher *jobs.Refresher
	if cacheService != nil && cfg.Analytics.PrewarmInterval > 0 {
		refresher = jobs.NewRefresher(prewarmFunc(analyticsService), jobs.RefresherConfig{
			Interval: cfg.Analytics.PrewarmInterval,
			Reports:  prewarmReports,
			Logger:   logr,
		})
		refresher.Start(context.Background())
		defer refresher.Stop()
	}

	authHandler := handler.NewAuthHandler(authService)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService)
	adminDeps := handler.AdminAnalyticsDeps{Archive: archive, Signer: signer}
	if refresher != nil {
		adminDeps.Prewarm = refresher
	}
	adminHandler := handler.NewAdminAnalyticsHandler(analyticsService, cacheService, adminDeps)
	metricsHandler := handler.NewMetricsHandler(metricsService, db)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	professor := api.Group("/professor", middleware.JWT(authService), middleware.RequireRoles(models.RoleProfessor, models.RoleAdmin))
	professor.GET("/overview", analyticsHandler.ProfessorOverview)

	admin := api.Group("/admin/analytics", middleware.JWT(authService), middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/overview", adminHandler.Overview)
	admin.GET("/professors", adminHandler.Professors)
	admin.GET("/classrooms", adminHandler.Classrooms)
	admin.GET("/subjects", adminHandler.Subjects)
	admin.GET("/engagement", adminHandler.Engagement)
	admin.GET("/trends", adminHandler.Trends)
	admin.GET("/moderation", adminHandler.Moderation)
	admin.GET("/ai-insights", adminHandler.AIInsights)
	admin.GET("/export", adminHandler.Export)
	admin.DELETE("/cache", adminHandler.PurgeCache)

	// Signed token downloads skip JWT auth so the links can be shared.
	api.GET("/admin/analytics/export/download", adminHandler.Download)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

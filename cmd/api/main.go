package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-gamification-api/api/swagger"
	"github.com/noah-isme/sma-gamification-api/internal/handler"
	"github.com/noah-isme/sma-gamification-api/internal/middleware"
	"github.com/noah-isme/sma-gamification-api/internal/models"
	"github.com/noah-isme/sma-gamification-api/internal/repository"
	"github.com/noah-isme/sma-gamification-api/internal/service"
	"github.com/noah-isme/sma-gamification-api/pkg/cache"
	"github.com/noah-isme/sma-gamification-api/pkg/config"
	"github.com/noah-isme/sma-gamification-api/pkg/database"
	"github.com/noah-isme/sma-gamification-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-gamification-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-gamification-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-gamification-api/pkg/tracing"
)

// @title SMA Gamification API
// @version 1.0.0
// @description XP, levels, badges and notifications for the class portal
// @BasePath /api/v1
// @schemes http https
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing := tracing.Init(ctx, cfg, logr)
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logr.Warn("failed to flush traces", zap.Error(err))
		}
	}()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, running without cache and action keys", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	router := newRouter(cfg, logr, db, redisClient)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newRouter(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, redisClient *redis.Client) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	progressionRepo := repository.NewProgressionRepository(db)
	badgeRepo := repository.NewBadgeRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient)
	guardRepo := repository.NewActionGuardRepository(redisClient)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Gamification.CacheTTL, logr, cfg.Gamification.CacheEnabled && redisClient != nil)
	authSvc := service.NewAuthService(logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		Issuer:            cfg.JWT.Issuer,
		Audience:          cfg.JWT.Audience,
	})
	ledgerSvc := service.NewLedgerService(progressionRepo, logr)
	badgeSvc := service.NewBadgeService(badgeRepo, activityRepo, logr)
	notificationSvc := service.NewNotificationService(notificationRepo, logr, cfg.Notifications.PageSize)
	progressionSvc := service.NewProgressionService(ledgerSvc, badgeSvc, notificationSvc, guardRepo, cacheSvc, metricsSvc, validate, logr,
		service.ProgressionConfig{ActionKeyTTL: cfg.Gamification.ActionKeyTTL})
	leaderboardSvc := service.NewLeaderboardService(progressionRepo, badgeRepo, cacheSvc, logr, service.LeaderboardConfig{
		Size:     cfg.Gamification.LeaderboardSize,
		CacheTTL: cfg.Gamification.CacheTTL,
	})

	checks := map[string]handler.ReadinessCheck{"postgres": db.PingContext}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	progressionHandler := handler.NewProgressionHandler(progressionSvc, leaderboardSvc)
	badgeHandler := handler.NewBadgeHandler(badgeSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, checks)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware(cfg.ServiceName))
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix, middleware.JWT(authSvc))

	progression := api.Group("/progression")
	progression.POST("/actions", progressionHandler.AwardAction)
	progression.POST("/quiz-completions", progressionHandler.AwardQuiz)
	progression.POST("/awards", middleware.RequireRoles(models.RoleTeacher, models.RoleStaff, models.RoleAdmin), progressionHandler.Award)
	progression.GET("/me", progressionHandler.Me)
	progression.GET("/users/:id", middleware.RBAC(middleware.SelfRole, string(models.RoleTeacher), string(models.RoleStaff), string(models.RoleAdmin)), progressionHandler.Summary)
	progression.GET("/leaderboard", progressionHandler.Leaderboard)

	api.GET("/badges", badgeHandler.List)

	notifications := api.Group("/notifications")
	notifications.GET("", notificationHandler.List)
	notifications.GET("/unread-count", notificationHandler.UnreadCount)
	notifications.PATCH("/read-all", notificationHandler.MarkAllRead)
	notifications.PATCH("/:id/read", notificationHandler.MarkRead)
	notifications.DELETE("/:id", notificationHandler.Delete)

	api.GET("/system/stats", middleware.RequireRoles(models.RoleAdmin), metricsHandler.Stats)

	return r
}

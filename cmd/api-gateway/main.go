package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/novalab-io/labms-api/api/swagger"
	"github.com/novalab-io/labms-api/internal/handler"
	"github.com/novalab-io/labms-api/internal/middleware"
	"github.com/novalab-io/labms-api/internal/models"
	"github.com/novalab-io/labms-api/internal/repository"
	"github.com/novalab-io/labms-api/internal/service"
	"github.com/novalab-io/labms-api/pkg/cache"
	"github.com/novalab-io/labms-api/pkg/config"
	"github.com/novalab-io/labms-api/pkg/database"
	"github.com/novalab-io/labms-api/pkg/logger"
	corsmiddleware "github.com/novalab-io/labms-api/pkg/middleware/cors"
	reqidmiddleware "github.com/novalab-io/labms-api/pkg/middleware/requestid"
)

// @title LabMS API
// @version 1.0.0
// @description Laboratory management API with operator/owner time-slot validation
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	// repositories
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	equipmentRepo := repository.NewEquipmentRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	chemicalRepo := repository.NewChemicalRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// services
	validate := validator.New()
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "labms-api",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)

	notificationSvc := service.NewNotificationService(notificationRepo, userRepo, redisClient, service.NotificationServiceConfig{
		ChannelPrefix: cfg.Notifications.ChannelPrefix,
		Workers:       cfg.Notifications.WorkerConcurrency,
		MaxRetries:    cfg.Notifications.WorkerRetries,
		RetryDelay:    cfg.Notifications.RetryDelay,
	}, logr)

	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Sessions.CacheTTL, logr, cfg.Sessions.CacheEnabled)

	sessionOpts := []service.SessionServiceOption{
		service.WithSessionCache(cacheSvc, cfg.Sessions.CacheTTL),
		service.WithSlotLimits(cfg.Sessions.MaxSlots, cfg.Sessions.MaxDuration),
	}
	if cfg.Notifications.Enabled {
		sessionOpts = append(sessionOpts, service.WithSessionNotifier(notificationSvc))
	}
	sessionSvc := service.NewSessionService(sessionRepo, auditRepo, logr, sessionOpts...)

	equipmentSvc := service.NewEquipmentService(equipmentRepo, auditRepo, logr)
	roomSvc := service.NewRoomService(roomRepo, logr)
	chemicalSvc := service.NewChemicalService(chemicalRepo, auditRepo, logr)
	auditSvc := service.NewAuditService(auditRepo, metricsSvc, logr)

	// handlers
	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	sessionHandler := handler.NewSessionHandler(sessionSvc)
	equipmentHandler := handler.NewEquipmentHandler(equipmentSvc)
	roomHandler := handler.NewRoomHandler(roomSvc)
	chemicalHandler := handler.NewChemicalHandler(chemicalSvc)
	notificationHandler := handler.NewNotificationHandler(notificationSvc)
	auditHandler := handler.NewAuditHandler(auditSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/forgot-password", authHandler.ForgotPassword)
		auth.POST("/reset-password", authHandler.ResetPassword)

		protected := auth.Group("", middleware.JWT(authSvc))
		protected.POST("/logout", authHandler.Logout)
		protected.POST("/change-password", authHandler.ChangePassword)
		protected.GET("/me", authHandler.Me)
	}

	users := api.Group("/users", middleware.JWT(authSvc))
	{
		users.GET("", middleware.RequireRoles(models.RoleAdmin), userHandler.List)
		users.GET("/:id", middleware.RBAC(string(models.RoleAdmin), "SELF"), userHandler.Get)
		users.POST("", middleware.RequireRoles(models.RoleAdmin), userHandler.Create)
		users.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), userHandler.Update)
		users.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), userHandler.Delete)
	}

	sessions := api.Group("/sessions", middleware.JWT(authSvc))
	{
		sessions.POST("", sessionHandler.Create)
		sessions.GET("", sessionHandler.List)
		sessions.GET("/:id", sessionHandler.Get)

		sessions.POST("/:id/validate", sessionHandler.Validate)
		sessions.POST("/:id/cancel", sessionHandler.Cancel)
		sessions.POST("/:id/move", sessionHandler.Move)

		sessions.POST("/:id/slots/approve", sessionHandler.ApproveAll)
		sessions.POST("/:id/slots/reject", sessionHandler.RejectAll)
		sessions.POST("/:id/slots/:slotId/approve", sessionHandler.ApproveOne)
		sessions.POST("/:id/slots/:slotId/reject", sessionHandler.RejectOne)

		sessions.POST("/:id/owner/modify", sessionHandler.OwnerModify)
		sessions.POST("/:id/owner/approve", sessionHandler.OwnerApprove)
		sessions.POST("/:id/owner/reject", sessionHandler.OwnerReject)
	}

	if cfg.Inventory.Enabled {
		inventoryWrite := middleware.RequireRoles(models.RoleAdmin, models.RoleOperator)

		equipment := api.Group("/equipment", middleware.JWT(authSvc))
		equipment.GET("", equipmentHandler.List)
		equipment.GET("/:id", equipmentHandler.Get)
		equipment.POST("", inventoryWrite, equipmentHandler.Create)
		equipment.PATCH("/:id", inventoryWrite, equipmentHandler.Update)
		equipment.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), equipmentHandler.Delete)

		rooms := api.Group("/rooms", middleware.JWT(authSvc))
		rooms.GET("", roomHandler.List)
		rooms.GET("/:id", roomHandler.Get)
		rooms.POST("", inventoryWrite, roomHandler.Create)
		rooms.PATCH("/:id", inventoryWrite, roomHandler.Update)

		chemicals := api.Group("/chemicals", middleware.JWT(authSvc))
		chemicals.GET("", chemicalHandler.List)
		chemicals.GET("/:id", chemicalHandler.Get)
		chemicals.POST("", inventoryWrite, chemicalHandler.Create)
		chemicals.PATCH("/:id", inventoryWrite, chemicalHandler.Update)
		chemicals.POST("/:id/stock", inventoryWrite, chemicalHandler.AdjustStock)
	}

	notifications := api.Group("/notifications", middleware.JWT(authSvc))
	{
		notifications.GET("", notificationHandler.List)
		notifications.POST("/:id/read", notificationHandler.MarkRead)
	}

	api.GET("/audit-logs", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin), auditHandler.List)
	api.GET("/system/metrics", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin), metricsHandler.Snapshot)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if cfg.Notifications.Enabled {
		notificationSvc.Start(ctx)
		defer notificationSvc.Stop()
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/lible-app/lible-api/api/swagger"
	"github.com/lible-app/lible-api/internal/handler"
	"github.com/lible-app/lible-api/internal/middleware"
	"github.com/lible-app/lible-api/internal/repository"
	"github.com/lible-app/lible-api/internal/service"
	"github.com/lible-app/lible-api/pkg/cache"
	"github.com/lible-app/lible-api/pkg/config"
	"github.com/lible-app/lible-api/pkg/database"
	"github.com/lible-app/lible-api/pkg/logger"
	corsmiddleware "github.com/lible-app/lible-api/pkg/middleware/cors"
	reqidmiddleware "github.com/lible-app/lible-api/pkg/middleware/requestid"
	"github.com/lible-app/lible-api/pkg/storage"
)

// @title Lible API
// @version 1.0.0
// @description School bell schedule service
// @BasePath /api/v1
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
	defer db.Close() //nolint:errcheck

	var cacheSvc *service.CacheService
	metricsSvc := service.NewMetricsService()
	if cfg.Schedule.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		defer redisClient.Close() //nolint:errcheck
		cacheSvc = service.NewCacheService(repository.NewCacheRepository(redisClient), metricsSvc, cfg.Schedule.CacheTTL, logr, true)
	}

	store, err := storage.NewLocalStorage(cfg.Sounds.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare sound storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Sounds.SignedURLSecret, cfg.Sounds.SignedURLTTL)

	userRepo := repository.NewUserRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	holidayRepo := repository.NewHolidayRepository(db)
	soundRepo := repository.NewSoundRepository(db)

	validate := service.NewValidator()

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		TokenSecret: cfg.JWT.Secret,
		TokenExpiry: cfg.JWT.Expiration,
		Issuer:      cfg.JWT.Issuer,
	})
	timetableSvc := service.NewTimetableService(timetableRepo, templateRepo, soundRepo, cacheSvc, validate, logr)
	templateSvc := service.NewTemplateService(templateRepo, soundRepo, validate, logr)
	holidaySvc := service.NewHolidayService(holidayRepo, cacheSvc, validate, logr)
	soundSvc := service.NewSoundService(soundRepo, store, signer, cfg.Sounds, validate, logr)
	scheduleSvc := service.NewScheduleService(timetableRepo, holidayRepo, soundRepo, cacheSvc, metricsSvc, cfg.Schedule.CacheTTL, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc)
	templateHandler := handler.NewTemplateHandler(templateSvc)
	holidayHandler := handler.NewHolidayHandler(holidaySvc)
	soundHandler := handler.NewSoundHandler(soundSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.GET("/sounds/download", soundHandler.Download)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))
	authed.Use(middleware.WithResponseMeta())

	authed.GET("/auth/me", authHandler.Me)
	authed.POST("/auth/change-password", authHandler.ChangePassword)

	authed.GET("/timetables", timetableHandler.List)
	authed.POST("/timetables", timetableHandler.Create)
	authed.GET("/timetables/:id", timetableHandler.Get)
	authed.PUT("/timetables/:id", timetableHandler.Update)
	authed.DELETE("/timetables/:id", timetableHandler.Delete)
	authed.GET("/timetables/:id/events", timetableHandler.ListEvents)
	authed.POST("/timetables/:id/events", timetableHandler.CreateEvent)
	authed.PUT("/timetables/:id/events/:eventId", timetableHandler.UpdateEvent)
	authed.DELETE("/timetables/:id/events/:eventId", timetableHandler.DeleteEvent)
	authed.POST("/timetables/:id/apply-template", timetableHandler.ApplyTemplate)

	authed.GET("/templates", templateHandler.List)
	authed.POST("/templates", templateHandler.Create)
	authed.GET("/templates/:id", templateHandler.Get)
	authed.PUT("/templates/:id", templateHandler.Update)
	authed.DELETE("/templates/:id", templateHandler.Delete)

	authed.GET("/holidays", holidayHandler.List)
	authed.POST("/holidays", holidayHandler.Create)
	authed.PUT("/holidays/:id", holidayHandler.Update)
	authed.DELETE("/holidays/:id", holidayHandler.Delete)

	authed.GET("/sounds", soundHandler.List)
	authed.POST("/sounds", soundHandler.Upload)
	authed.PUT("/sounds/:id", soundHandler.Rename)
	authed.DELETE("/sounds/:id", soundHandler.Delete)
	authed.GET("/sounds/:id/download-url", soundHandler.DownloadURL)

	authed.GET("/schedule", scheduleHandler.Resolve)
	authed.GET("/schedule/export", scheduleHandler.Export)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/campus-alloc-api/api/swagger"
	"github.com/noah-isme/campus-alloc-api/internal/allocation"
	"github.com/noah-isme/campus-alloc-api/internal/handler"
	internalmiddleware "github.com/noah-isme/campus-alloc-api/internal/middleware"
	"github.com/noah-isme/campus-alloc-api/internal/repository"
	"github.com/noah-isme/campus-alloc-api/internal/service"
	rediscache "github.com/noah-isme/campus-alloc-api/pkg/cache"
	"github.com/noah-isme/campus-alloc-api/pkg/config"
	"github.com/noah-isme/campus-alloc-api/pkg/database"
	"github.com/noah-isme/campus-alloc-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-alloc-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-alloc-api/pkg/middleware/requestid"
)

// @title Campus Allocation API
// @version 1.0.0
// @description Room, time and faculty allocation engine for campus timetabling
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

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	if cfg.Cache.Enabled {
		redisClient, err := rediscache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		defer redisClient.Close() //nolint:errcheck
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.DefaultTTL, logr, true)
	}

	courseRepo := repository.NewCourseRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	facultyRepo := repository.NewFacultyRepository(db)
	timeSlotRepo := repository.NewTimeSlotRepository(db)
	prefRepo := repository.NewFacultyPreferenceRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	timetableSlotRepo := repository.NewTimetableSlotRepository(db)

	engineCfg := engineConfig(cfg.Allocation)

	courseSvc := service.NewCourseService(courseRepo, validate, logr)
	roomSvc := service.NewRoomService(roomRepo, validate, logr)
	facultySvc := service.NewFacultyService(facultyRepo, validate, logr)
	timeSlotSvc := service.NewTimeSlotService(timeSlotRepo, validate, logr)
	prefSvc := service.NewPreferenceService(facultyRepo, prefRepo, courseRepo, roomRepo, timeSlotRepo, roomRepo, courseRepo, validate, logr)
	allocationSvc := service.NewAllocationService(
		courseRepo, roomRepo, timeSlotRepo, facultyRepo,
		timetableRepo, timetableSlotRepo, db,
		cacheSvc, metricsSvc, validate, logr,
		service.AllocationServiceConfig{
			ProposalTTL: cfg.Scheduler.ProposalTTL,
			ShuffleSeed: cfg.Scheduler.ShuffleSeed,
			Engine:      engineCfg,
		},
	)
	validationSvc := service.NewValidationService(
		timetableRepo, timetableSlotRepo, courseRepo, roomRepo, facultyRepo,
		nil, nil, logr, engineCfg,
	)

	courseHandler := handler.NewCourseHandler(courseSvc)
	roomHandler := handler.NewRoomHandler(roomSvc)
	facultyHandler := handler.NewFacultyHandler(facultySvc)
	timeSlotHandler := handler.NewTimeSlotHandler(timeSlotSvc)
	prefHandler := handler.NewPreferenceHandler(prefSvc)
	allocationHandler := handler.NewAllocationHandler(allocationSvc)
	validationHandler := handler.NewValidationHandler(validationSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(internalmiddleware.Metrics(metricsSvc))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/metrics/snapshot", metricsHandler.Snapshot)

		api.GET("/courses", courseHandler.List)
		api.POST("/courses", courseHandler.Create)
		api.GET("/courses/:id", courseHandler.Get)
		api.PUT("/courses/:id", courseHandler.Update)
		api.DELETE("/courses/:id", courseHandler.Delete)

		api.GET("/rooms", roomHandler.List)
		api.POST("/rooms", roomHandler.Create)
		api.GET("/rooms/:id", roomHandler.Get)
		api.PUT("/rooms/:id", roomHandler.Update)
		api.DELETE("/rooms/:id", roomHandler.Delete)

		api.GET("/faculty", facultyHandler.List)
		api.POST("/faculty", facultyHandler.Create)
		api.GET("/faculty/:id", facultyHandler.Get)
		api.PUT("/faculty/:id", facultyHandler.Update)
		api.DELETE("/faculty/:id", facultyHandler.Deactivate)

		api.GET("/faculty/:id/preferences", prefHandler.Get)
		api.PUT("/faculty/:id/preferences", prefHandler.Upsert)
		api.GET("/faculty/:id/preferences/conflicts", prefHandler.Conflicts)
		api.GET("/faculty/:id/preferences/completeness", prefHandler.Completeness)
		api.POST("/preferences/score", prefHandler.Score)

		api.GET("/time-slots", timeSlotHandler.List)
		api.POST("/time-slots", timeSlotHandler.Create)
		api.DELETE("/time-slots/:id", timeSlotHandler.Delete)

		api.GET("/timetables", allocationHandler.List)
		api.GET("/timetables/:id/slots", allocationHandler.Slots)
		api.GET("/timetables/:id/validate", validationHandler.Validate)
		api.POST("/timetables/:id/publish", allocationHandler.Publish)
		api.DELETE("/timetables/:id", allocationHandler.Delete)

		if cfg.Scheduler.Enabled {
			api.POST("/timetables/generate", allocationHandler.Generate)
			api.POST("/timetables/save", allocationHandler.Save)
			api.GET("/timetables/proposals/:id/metrics", allocationHandler.ProposalMetrics)
		}
		if cfg.Reports.Enabled {
			api.GET("/timetables/:id/export", validationHandler.Export)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("server shutdown failed", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}

func engineConfig(cfg config.AllocationConfig) allocation.Config {
	return allocation.Config{
		Weights: allocation.Weights{
			Capacity:    cfg.Weights.Capacity,
			RoomType:    cfg.Weights.RoomType,
			Facilities:  cfg.Weights.Facilities,
			Utilization: cfg.Weights.Utilization,
		},
		Thresholds: allocation.Thresholds{
			MaxUtilizationSpread:  cfg.Thresholds.MaxUtilizationSpread,
			MinCapacityEfficiency: cfg.Thresholds.MinCapacityEfficiency,
			MaxConflictRate:       cfg.Thresholds.MaxConflictRate,
		},
		Preferences: allocation.Preferences{
			BalanceUtilization:    cfg.Preferences.BalanceUtilization,
			StrictTypeMatching:    cfg.Preferences.StrictTypeMatching,
			AllowCapacityOverflow: cfg.Preferences.AllowCapacityOverflow,
		},
	}
}

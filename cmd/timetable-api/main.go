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
	"go.uber.org/zap"

	_ "github.com/smaplan/timetable-api/api/swagger"
	"github.com/smaplan/timetable-api/internal/handler"
	"github.com/smaplan/timetable-api/internal/middleware"
	"github.com/smaplan/timetable-api/internal/models"
	"github.com/smaplan/timetable-api/internal/repository"
	"github.com/smaplan/timetable-api/internal/service"
	"github.com/smaplan/timetable-api/pkg/cache"
	"github.com/smaplan/timetable-api/pkg/config"
	"github.com/smaplan/timetable-api/pkg/database"
	"github.com/smaplan/timetable-api/pkg/logger"
	corsmiddleware "github.com/smaplan/timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/smaplan/timetable-api/pkg/middleware/requestid"
)

// @title Timetable API
// @version 1.0.0
// @description Constraint-driven school timetable generation service
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	cacheEnabled := true
	var cacheRepo service.CacheRepository
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		cacheEnabled = false
	} else {
		defer redisClient.Close()
		cacheRepo = repository.NewCacheRepository(redisClient, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Scheduler.ProgressTTL, logr, cacheEnabled)

	periodRepo := repository.NewPeriodRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	classRepo := repository.NewClassRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	userRepo := repository.NewUserRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		Secret: cfg.JWT.Secret,
		Expiry: cfg.JWT.Expiration,
		Issuer: "timetable-api",
	})

	timetableSvc := service.NewTimetableService(
		periodRepo, subjectRepo, classRepo, teacherRepo, timetableRepo,
		cacheSvc, metricsSvc, validate, logr,
		service.TimetableConfig{
			Days:               resolveDays(cfg.Scheduler.Days, logr),
			MaxAttempts:        cfg.Scheduler.MaxAttempts,
			ResolverIterations: cfg.Scheduler.ResolverIterations,
			ProgressTTL:        cfg.Scheduler.ProgressTTL,
			Constraints:        models.DefaultConstraints(),
			PDFTitle:           cfg.Export.PDFTitle,
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	timetableSvc.Start(ctx)
	defer timetableSvc.Stop()

	authHandler := handler.NewAuthHandler(authSvc)
	timetableHandler := handler.NewTimetableHandler(timetableSvc)
	catalogHandler := handler.NewCatalogHandler(periodRepo, subjectRepo, classRepo, teacherRepo)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	protected.GET("/auth/me", authHandler.Me)

	protected.GET("/periods", catalogHandler.ListPeriods)
	protected.GET("/periods/:id", catalogHandler.GetPeriod)
	protected.GET("/subjects", catalogHandler.ListSubjects)
	protected.GET("/subjects/:id", catalogHandler.GetSubject)
	protected.GET("/classes", catalogHandler.ListClasses)
	protected.GET("/classes/:id", catalogHandler.GetClass)
	protected.GET("/teachers", catalogHandler.ListTeachers)
	protected.GET("/teachers/:id", catalogHandler.GetTeacher)

	protected.GET("/timetables", timetableHandler.List)
	protected.GET("/timetables/validation", timetableHandler.Validate)
	protected.GET("/timetables/generate/progress", timetableHandler.Progress)
	protected.GET("/timetables/:id", timetableHandler.Get)
	protected.GET("/timetables/:id/score", timetableHandler.Score)
	protected.GET("/timetables/:id/export", timetableHandler.Export)

	editors := protected.Group("")
	editors.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher))
	editors.POST("/timetables/generate", timetableHandler.Generate)
	editors.DELETE("/timetables/generate", timetableHandler.Cancel)
	editors.POST("/timetables/:id/slots/move", timetableHandler.Move)
	editors.POST("/timetables/:id/slots/check", timetableHandler.Check)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

func resolveDays(names []string, logr *zap.Logger) []int {
	days := make([]int, 0, len(names))
	for _, name := range names {
		idx := models.DayIndex(name)
		if idx == 0 {
			logr.Sugar().Warnw("skipping unknown scheduler day", "day", name)
			continue
		}
		days = append(days, idx)
	}
	return days
}

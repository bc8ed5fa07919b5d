package main

import (
	"context"
	"errors"
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

	_ "github.com/noah-isme/sma-timetable/api/swagger"
	"github.com/noah-isme/sma-timetable/internal/engine"
	"github.com/noah-isme/sma-timetable/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-timetable/internal/middleware"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/repository"
	"github.com/noah-isme/sma-timetable/internal/service"
	"github.com/noah-isme/sma-timetable/pkg/cache"
	"github.com/noah-isme/sma-timetable/pkg/config"
	"github.com/noah-isme/sma-timetable/pkg/database"
	"github.com/noah-isme/sma-timetable/pkg/jobs"
	"github.com/noah-isme/sma-timetable/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable/pkg/middleware/requestid"
)

// @title SMA Timetable API
// @version 1.0.0
// @description Weekly timetable, prerequisite and enrollment service
// @BasePath /api/v1
// @schemes http

const shutdownTimeout = 15 * time.Second

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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database unavailable", "error", err)
	}
	defer db.Close()

	var cacheRepo *repository.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, prerequisite cache disabled", zap.Error(err))
		}
		cacheRepo = repository.NewCacheRepository(client, "timetable")
	} else {
		cacheRepo = repository.NewCacheRepository(nil, "timetable")
	}
	defer cacheRepo.Close() //nolint:errcheck

	validate := validator.New()
	metrics := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.PrerequisiteTTL, logr, cacheRepo.Enabled())
	locker := database.NewAdvisoryLocker()

	timeSlotRepo := repository.NewTimeSlotRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	classRepo := repository.NewClassRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	waitlistRepo := repository.NewWaitlistRepository(db)

	availabilityEngine := engine.NewAvailabilityEngine(teacherRepo, roomRepo, timeSlotRepo, engine.NewConflictDetector())
	eligibilityChecker := engine.NewEligibilityChecker(subjectRepo, enrollmentRepo)

	timeSlotSvc := service.NewTimeSlotService(timeSlotRepo, db, locker, validate, metrics, logr)
	availabilitySvc := service.NewAvailabilityService(availabilityEngine, classRepo, logr)
	prerequisiteSvc := service.NewPrerequisiteService(subjectRepo, db, locker, cacheSvc, validate, metrics, service.PrerequisiteTreeDepth{
		Default: cfg.Prerequisites.TreeDefaultDepth,
		Max:     cfg.Prerequisites.TreeMaxDepth,
	}, logr)
	eligibilitySvc := service.NewEligibilityService(eligibilityChecker, metrics, logr)
	waitlistSvc := service.NewWaitlistService(waitlistRepo, classRepo, enrollmentRepo, db, locker, validate, metrics, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, classRepo, eligibilitySvc, waitlistSvc, db, locker, validate, logr)
	exportSvc := service.NewTimetableExportService(timeSlotRepo, subjectRepo, map[models.ResourceType]service.ResourceNamer{
		models.ResourceClass: func(ctx context.Context, id string) (string, error) {
			class, err := classRepo.FindByID(ctx, id)
			if err != nil {
				return "", err
			}
			return class.Name, nil
		},
		models.ResourceTeacher: func(ctx context.Context, id string) (string, error) {
			teacher, err := teacherRepo.FindByID(ctx, id)
			if err != nil {
				return "", err
			}
			return teacher.FullName, nil
		},
		models.ResourceRoom: func(ctx context.Context, id string) (string, error) {
			room, err := roomRepo.FindByID(ctx, id)
			if err != nil {
				return "", err
			}
			return room.Name, nil
		},
	}, cfg.Exports.TitlePrefix, logr)

	mux := jobs.NewMux()
	mux.Handle(service.JobSeatReleased, waitlistSvc.HandleSeatReleased)
	queue := jobs.NewQueue("waitlist", mux.Dispatch, jobs.QueueConfig{
		Workers:    cfg.Waitlist.Workers,
		MaxRetries: cfg.Waitlist.Retries,
		RetryDelay: cfg.Waitlist.RetryDelay,
		Logger:     logr,
		OnDrop: func(job jobs.Job, err error) {
			metrics.RecordDroppedJob(job.Type)
		},
	})
	queue.Start(ctx)
	defer queue.Stop()
	waitlistSvc.UseQueue(queue)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.WithResponseMeta())
	r.Use(internalmiddleware.Metrics(metrics, "/metrics", "/health", "/ready"))

	metricsHandler := handler.NewMetricsHandler(metrics, map[string]handler.Pinger{
		"postgres": db,
		"redis":    handler.PingFunc(cacheRepo.Ping),
	})
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		TimeSlots:     handler.NewTimeSlotHandler(timeSlotSvc),
		Availability:  handler.NewAvailabilityHandler(availabilitySvc),
		Prerequisites: handler.NewPrerequisiteHandler(prerequisiteSvc),
		Eligibility:   handler.NewEligibilityHandler(eligibilitySvc),
		Enrollments:   handler.NewEnrollmentHandler(enrollmentSvc),
		Waitlist:      handler.NewWaitlistHandler(waitlistSvc),
		Export:        handler.NewExportHandler(exportSvc),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/Cryptobal/gardops-api/api/swagger"
	"github.com/Cryptobal/gardops-api/internal/handler"
	"github.com/Cryptobal/gardops-api/internal/middleware"
	"github.com/Cryptobal/gardops-api/internal/models"
	"github.com/Cryptobal/gardops-api/internal/repository"
	"github.com/Cryptobal/gardops-api/internal/service"
	"github.com/Cryptobal/gardops-api/pkg/cache"
	"github.com/Cryptobal/gardops-api/pkg/config"
	"github.com/Cryptobal/gardops-api/pkg/database"
	"github.com/Cryptobal/gardops-api/pkg/jobs"
	"github.com/Cryptobal/gardops-api/pkg/logger"
	corsmiddleware "github.com/Cryptobal/gardops-api/pkg/middleware/cors"
	reqidmiddleware "github.com/Cryptobal/gardops-api/pkg/middleware/requestid"
	"github.com/Cryptobal/gardops-api/pkg/storage"
)

// @title GardOps API
// @version 1.0.0
// @description Shift attendance and coverage API for security guard operations
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// Roster views degrade to direct DB reads without Redis.
		logr.Warn("redis unavailable, roster cache disabled", zap.Error(err))
		redisClient = nil
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	validate := validator.New()
	metricsSvc := service.NewMetricsService()

	postRepo := repository.NewPostRepository(db)
	shiftPlanRepo := repository.NewShiftPlanRepository(db)
	extraShiftRepo := repository.NewExtraShiftRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	authSvc := service.NewAuthService(cfg.JWT.Secret)
	postSvc := service.NewPostService(postRepo, validate, logr)
	scheduleSvc := service.NewScheduleService(shiftPlanRepo, postRepo, cacheRepo, cfg.Roster.CacheTTL, metricsSvc, validate, logr)
	attendanceSvc := service.NewAttendanceService(shiftPlanRepo, metricsSvc, validate, logr)
	coverageSvc := service.NewCoverageService(shiftPlanRepo, metricsSvc, validate, logr)
	extraShiftSvc := service.NewExtraShiftService(extraShiftRepo, postRepo, validate, logr)
	auditSvc := service.NewAuditService(auditRepo, logr)

	postHandler := handler.NewPostHandler(postSvc, scheduleSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc, coverageSvc, extraShiftSvc, auditSvc, scheduleSvc, logr)
	extraShiftHandler := handler.NewExtraShiftHandler(extraShiftSvc)
	auditHandler := handler.NewAuditHandler(auditSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	var exportHandler *handler.ExportHandler
	var exportQueue *jobs.Queue
	if cfg.Exports.Enabled {
		exportHandler, exportQueue, err = bootExports(ctx, cfg, db, extraShiftRepo, shiftPlanRepo, metricsSvc, logr)
		if err != nil {
			logr.Fatal("failed to boot export pipeline", zap.Error(err))
		}
		defer exportQueue.Stop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.JWT(authSvc))

	manage := middleware.RequireRoles(models.RoleAdmin, models.RoleSupervisor)
	operate := middleware.RequireRoles(models.RoleAdmin, models.RoleSupervisor, models.RoleOperator)

	api.GET("/puestos", postHandler.List)
	api.POST("/puestos", manage, postHandler.Create)
	api.GET("/puestos/:id", postHandler.Get)
	api.DELETE("/puestos/:id", manage, postHandler.Deactivate)
	api.PUT("/puestos/:id/asignar", manage, postHandler.Assign)
	api.PUT("/puestos/:id/vacar", manage, postHandler.Vacate)
	api.GET("/instalaciones/:id/puestos/vacantes", postHandler.ListVacant)

	api.GET("/pauta", scheduleHandler.Month)
	api.POST("/pauta/generar", manage, scheduleHandler.Generate)
	api.GET("/pauta/:id", attendanceHandler.Get)
	api.PUT("/pauta/:id/asistencia", operate, attendanceHandler.Mark)
	api.PUT("/pauta/:id/cobertura", operate, attendanceHandler.ResolveCoverage)
	api.POST("/pauta/:id/deshacer", operate, attendanceHandler.Undo)
	api.PUT("/pauta/:id/estado-ui", operate, attendanceHandler.SetDisplayStatus)
	api.GET("/pauta/:id/historial", attendanceHandler.History)

	api.GET("/turnos-extra", extraShiftHandler.List)
	api.POST("/turnos-extra", operate, extraShiftHandler.Record)
	api.GET("/turnos-extra/:id", extraShiftHandler.Get)
	api.PUT("/turnos-extra/:id/pagar", middleware.RequireRoles(models.RoleAdmin), extraShiftHandler.MarkPaid)

	api.GET("/audit", manage, auditHandler.List)

	if exportHandler != nil {
		api.POST("/exports", manage, exportHandler.Create)
		api.GET("/exports/:id", exportHandler.Status)
		// Download authorization lives in the signed token itself.
		r.GET(cfg.APIPrefix+"/exports/download/:token", exportHandler.Download)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}

func bootExports(ctx context.Context, cfg *config.Config, db *sqlx.DB, ledger *repository.ExtraShiftRepository, shiftPlanRepo *repository.ShiftPlanRepository, metricsSvc *service.MetricsService, logr *zap.Logger) (*handler.ExportHandler, *jobs.Queue, error) {
	store, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return nil, nil, err
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	exportJobRepo := repository.NewExportJobRepository(db)
	exportSvc := service.NewExportService(shiftPlanRepo, ledger, store, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr, nil, nil)

	worker := service.NewExportWorker(exportJobRepo, exportSvc, metricsSvc, cfg.Exports.WorkerRetries, logr)
	queue := jobs.NewQueue("exports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		Logger:     logr,
	})
	queue.Start(ctx)

	exportJobSvc := service.NewExportJobService(exportJobRepo, queue, exportSvc, logr, service.ExportJobConfig{
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: cfg.Exports.CleanupInterval,
		MaxRetries:      cfg.Exports.WorkerRetries,
	})
	exportJobSvc.RecoverPendingJobs(ctx)
	exportJobSvc.StartCleanup(ctx)

	return handler.NewExportHandler(exportJobSvc, logr), queue, nil
}

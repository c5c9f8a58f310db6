package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/mcpower/monash-timetabler/api/swagger"
	"github.com/mcpower/monash-timetabler/internal/handler"
	internalmiddleware "github.com/mcpower/monash-timetabler/internal/middleware"
	"github.com/mcpower/monash-timetabler/internal/repository"
	"github.com/mcpower/monash-timetabler/internal/service"
	"github.com/mcpower/monash-timetabler/pkg/cache"
	"github.com/mcpower/monash-timetabler/pkg/config"
	"github.com/mcpower/monash-timetabler/pkg/database"
	"github.com/mcpower/monash-timetabler/pkg/jobs"
	"github.com/mcpower/monash-timetabler/pkg/logger"
	corsmiddleware "github.com/mcpower/monash-timetabler/pkg/middleware/cors"
	reqidmiddleware "github.com/mcpower/monash-timetabler/pkg/middleware/requestid"
)

// @title Timetabler API
// @version 1.0.0
// @description Ranks every clash-free weekly class timetable for an enrolment.
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := service.NewMetricsService()
	readiness := map[string]handler.Pinger{}

	var store service.ActivityStore
	switch cfg.Store.Driver {
	case config.StoreFile:
		store = repository.NewActivityFileRepository(cfg.Store.File)
		logr.Info("using activity snapshot file", zap.String("path", cfg.Store.File))
	default:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			logr.Fatal("failed to connect to postgres", zap.Error(err))
		}
		defer db.Close() //nolint:errcheck
		if err := database.Migrate(db); err != nil {
			logr.Fatal("failed to migrate schema", zap.Error(err))
		}
		store = repository.NewActivityRepository(db, metrics)
		readiness["postgres"] = db
	}

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, activity cache disabled", zap.Error(err))
		} else {
			defer client.Close() //nolint:errcheck
			repo := repository.NewCacheRepository(client, logr)
			cacheRepo = repo
			readiness["redis"] = repo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.ActivityTTL, logr, cacheRepo != nil)

	validate := validator.New()
	activitySvc := service.NewActivityService(store, cacheSvc, validate, logr, cfg.Cache.ActivityTTL)

	workers := cfg.Ranking.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	ranker := service.NewRanker(service.RankerConfig{Workers: workers, MaxCombinations: cfg.Ranking.MaxCombinations}, logr, metrics)
	rankings := service.NewRankingStore(cfg.Ranking.ResultTTL)
	worker := service.NewRankingWorker(rankings, ranker, logr)
	queue := jobs.NewQueue("rankings", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Ranking.QueueWorkers,
		BufferSize: cfg.Ranking.QueueBuffer,
		Timeout:    cfg.Ranking.JobTimeout,
		Logger:     logr,
		Observer:   metrics,
	})
	if err := metrics.RegisterQueueDepth("rankings", queue.Pending); err != nil {
		logr.Warn("queue depth gauge not registered", zap.Error(err))
	}
	queue.Start(ctx)
	defer queue.Stop()

	rankingSvc := service.NewRankingService(activitySvc, ranker, queue, rankings, service.NewExportService(logr, nil, nil), validate, logr, service.RankingServiceConfig{
		EarlyBefore: cfg.Ranking.EarlyBefore,
		LateFrom:    cfg.Ranking.LateFrom,
	})
	go purgeLoop(ctx, rankingSvc, cfg.Ranking.PurgeInterval)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics, "/metrics"))

	metricsHandler := handler.NewMetricsHandler(metrics, readiness)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	if cfg.JWT.Enabled {
		api.Use(internalmiddleware.JWT(service.NewTokenService(cfg.JWT.Secret, cfg.JWT.Issuer)))
	}
	handler.RegisterActivityRoutes(api, handler.NewActivityHandler(activitySvc))
	handler.RegisterRankingRoutes(api, handler.NewRankingHandler(rankingSvc))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Errorw("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("http shutdown failed", zap.Error(err))
	}
}

func purgeLoop(ctx context.Context, svc *service.RankingService, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			svc.PurgeExpired()
		}
	}
}

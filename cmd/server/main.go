// Package main runs the move-out tracker HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/utilityprofit/moveout-tracker/config"
	"github.com/utilityprofit/moveout-tracker/internal/activity"
	"github.com/utilityprofit/moveout-tracker/internal/companies"
	"github.com/utilityprofit/moveout-tracker/internal/export"
	"github.com/utilityprofit/moveout-tracker/internal/lookup"
	"github.com/utilityprofit/moveout-tracker/internal/middleware"
	"github.com/utilityprofit/moveout-tracker/internal/properties"
	"github.com/utilityprofit/moveout-tracker/internal/tables/backend"
	"github.com/utilityprofit/moveout-tracker/internal/utilities"
	"github.com/utilityprofit/moveout-tracker/pkg/queue"
	"github.com/utilityprofit/moveout-tracker/pkg/redis"
	"github.com/utilityprofit/moveout-tracker/pkg/response"
	"github.com/utilityprofit/moveout-tracker/pkg/storage"
	"github.com/utilityprofit/moveout-tracker/pkg/validate"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if err := validate.BindGin(); err != nil {
		logger.Fatal("register validators", zap.Error(err))
	}

	ctx := context.Background()
	store, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("table store", zap.Error(err))
	}
	defer store.Close()

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
	}

	var archive export.Archiver
	if cfg.AWS.ExportsBucket != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			ExportsBucket:        cfg.AWS.ExportsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Fatal("s3", zap.Error(err))
		}
		archive = s3Client
	} else {
		logger.Info("export archive disabled (AWS_S3_EXPORTS_BUCKET not set)")
	}

	names := store.Names
	transferRepo := utilities.NewRepository(store.Store, names.Transfers)
	propertyRepo := properties.NewRepository(store.Store, names.Properties, transferRepo, logger)
	activityRepo := activity.NewRepository(store.Store, names.Activity)
	companyRepo := companies.NewRepository(store.Store, names.Companies, propertyRepo, transferRepo, activityRepo)

	var sink activity.Sink = activityRepo
	if cfg.Activity.Sink == config.SinkQueue {
		sink = activity.NewQueueSink(queue.NewQueue(rdb.Client, logger))
		logger.Info("activity entries queued for the worker")
	}
	activityLogger := activity.NewLogger(sink, logger)

	var lookupCache lookup.Cache
	if rdb != nil {
		lookupCache = redis.NewCache(rdb.Client, "lookup:")
	}
	lookupClient := lookup.NewClient(lookup.Config{
		URL:      cfg.Lookup.URL,
		APIKey:   cfg.Lookup.APIKey,
		Timeout:  cfg.Lookup.HTTPTimeout(),
		CacheTTL: cfg.Lookup.CacheTTL(),
	}, lookupCache, logger)

	companyHandler := companies.NewHandler(companyRepo, logger)
	propertyHandler := properties.NewHandler(propertyRepo, transferRepo, activityLogger, logger)
	utilityHandler := utilities.NewHandler(transferRepo, activityLogger, logger)
	lookupHandler := lookup.NewHandler(lookupClient, logger)
	exportHandler := export.NewHandler(companyRepo, archive, logger)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics())

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })
	router.GET("/metrics", middleware.MetricsHandler())

	api := router.Group("/api")
	{
		api.GET("/site", func(c *gin.Context) {
			response.OK(c, gin.H{"analytics_tag_id": cfg.Analytics.TagID})
		})

		api.GET("/company", companyHandler.Get)
		api.GET("/company/export", exportHandler.Download)
		api.POST("/company/export/archive", exportHandler.Archive)

		api.GET("/lookup", lookupHandler.Lookup)

		api.POST("/property", propertyHandler.Create)
		api.DELETE("/property", propertyHandler.Delete)

		api.POST("/utility", utilityHandler.Create)
		api.PATCH("/utility", utilityHandler.Update)
		api.DELETE("/utility", utilityHandler.Delete)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port), zap.String("storage", cfg.Storage.Backend))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}

// Package main runs the background worker that writes queued activity entries to the table store.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/utilityprofit/moveout-tracker/config"
	"github.com/utilityprofit/moveout-tracker/internal/activity"
	"github.com/utilityprofit/moveout-tracker/internal/tables/backend"
	"github.com/utilityprofit/moveout-tracker/internal/worker"
	"github.com/utilityprofit/moveout-tracker/pkg/queue"
	"github.com/utilityprofit/moveout-tracker/pkg/redis"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	if cfg.Redis.Addr == "" {
		logger.Fatal("worker requires REDIS_ADDR")
	}

	ctx := context.Background()
	store, err := backend.Open(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("table store", zap.Error(err))
	}
	defer store.Close()

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	activityRepo := activity.NewRepository(store.Store, store.Names.Activity)
	jobQueue := queue.NewQueue(rdb.Client, logger)
	processor := worker.NewActivityProcessor(activityRepo, jobQueue, logger)

	workerCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		processor.Run(workerCtx)
	}()
	logger.Info("worker started", zap.String("queue", queue.QueueActivity))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		logger.Warn("worker did not stop in time")
	}
	logger.Info("worker stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"attendtrack/internal/attendance"
	"attendtrack/internal/config"
	"attendtrack/internal/metrics"
	"attendtrack/internal/queue"
	"attendtrack/internal/semester"
	"attendtrack/internal/statscache"
	"attendtrack/internal/store"
)

// Worker consumes record change events and rebuilds the stats snapshots of
// the affected users.
func main() {
	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if cfg.QueueBackend != "redis" || cfg.CacheBackend != "redis" {
		logger.Error("worker_requires_redis", "queue", cfg.QueueBackend, "cache", cfg.CacheBackend)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown_signal_received")
		cancel()
	}()

	db, err := store.NewDB(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Error("db_connect_failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	redisClient, err := store.NewRedis(cfg.RedisAddr)
	if err != nil {
		logger.Error("redis_config_invalid", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	q := queue.NewRedisQueue(redisClient.Client, "")
	sem := semester.NewService(semester.NewRepository(db), logger)
	att := attendance.NewService(attendance.NewRepository(db), sem, logger,
		attendance.WithSnapshots(statscache.New(redisClient.Client, cfg.SnapshotTTL)))

	messages, err := q.Consume(ctx)
	if err != nil {
		logger.Error("queue_consume_init_failed", "error", err)
		os.Exit(1)
	}

	logger.Info("worker_started")
	for msg := range messages {
		handle(ctx, logger, att, msg)
	}
	logger.Info("worker_stopped")
}

func handle(ctx context.Context, logger *slog.Logger, att *attendance.Service, msg queue.Message) {
	if msg.Type != queue.TypeRecordChanged || msg.UserID == "" {
		metrics.WorkerEvents.WithLabelValues("skipped").Inc()
		return
	}
	if err := att.RebuildSnapshot(ctx, msg.UserID); err != nil {
		metrics.WorkerEvents.WithLabelValues("failed").Inc()
		logger.Error("snapshot_rebuild_failed", "user_id", msg.UserID, "error", err)
		return
	}
	metrics.WorkerEvents.WithLabelValues("rebuilt").Inc()
	logger.Debug("snapshot_rebuilt", "user_id", msg.UserID, "changed_at", msg.At)
}

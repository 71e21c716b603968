package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"attendtrack/internal/attendance"
	"attendtrack/internal/auth"
	"attendtrack/internal/config"
	"attendtrack/internal/handler"
	"attendtrack/internal/httpmiddleware"
	"attendtrack/internal/motivation"
	"attendtrack/internal/queue"
	"attendtrack/internal/semester"
	"attendtrack/internal/statscache"
	"attendtrack/internal/store"
)

func main() {
	cfg := config.Load()
	logger := newLogger(cfg.Env)
	slog.SetDefault(logger)

	// Set Gin mode based on environment
	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, logger); err != nil {
		logger.Error("http_server_failed", "error", err)
		os.Exit(1)
	}
}

func newLogger(env string) *slog.Logger {
	if env == "production" || env == "prod" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func runHTTP(cfg config.App, logger *slog.Logger) error {
	db, err := store.NewDB(cfg.DBDriver, cfg.DatabaseURL)
	if db == nil {
		return err
	}
	if err != nil {
		logger.Warn("db_not_reachable", "driver", cfg.DBDriver, "error", err)
	}
	defer db.Close()

	ctx := context.Background()
	if err := db.Migrate(ctx); err != nil {
		logger.Warn("db_migrate_failed", "error", err)
	}

	var redisClient *store.Redis
	if cfg.QueueBackend == "redis" || cfg.CacheBackend == "redis" {
		redisClient, err = store.NewRedis(cfg.RedisAddr)
		if err != nil {
			return err
		}
		defer redisClient.Close()
	}

	var q queue.Queue
	if cfg.QueueBackend == "redis" {
		q = queue.NewRedisQueue(redisClient.Client, "")
	}

	var motCache motivation.Cache = motivation.NewMemoryCache()
	opts := []attendance.Option{}
	semOpts := []semester.Option{}
	if q != nil {
		opts = append(opts, attendance.WithEvents(q))
	}
	if cfg.CacheBackend == "redis" {
		motCache = motivation.NewRedisCache(redisClient.Client)
		snapshots := statscache.New(redisClient.Client, cfg.SnapshotTTL)
		opts = append(opts, attendance.WithSnapshots(snapshots))
		semOpts = append(semOpts, semester.WithSnapshots(snapshots))
	}

	sem := semester.NewService(semester.NewRepository(db), logger, semOpts...)
	att := attendance.NewService(attendance.NewRepository(db), sem, logger, opts...)

	gen := motivation.New(cfg.MotivationURL, cfg.MotivationSkip, cfg.MotivationTimeout)
	if !gen.Skip {
		if err := gen.Health(ctx); err != nil {
			logger.Warn("motivation_service_unavailable", "error", err)
		}
	}
	mot := motivation.NewService(gen, motCache, cfg.Location(), logger)

	r := gin.New()

	// Recovery middleware
	r.Use(gin.Recovery())

	// Custom logger
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}))

	// Security headers
	r.Use(securityHeaders())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		dbHealthy := db.Healthy(c.Request.Context())
		body := gin.H{"status": "ok", "db": dbHealthy}
		status := http.StatusOK
		if redisClient != nil {
			redisHealthy := redisClient.Healthy(c.Request.Context())
			body["redis"] = redisHealthy
			dbHealthy = dbHealthy && redisHealthy
		}
		if !dbHealthy {
			status = http.StatusServiceUnavailable
			body["status"] = "degraded"
		}
		c.JSON(status, body)
	})

	limiter := httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin)
	v1 := r.Group("/v1", auth.UserAuth(cfg.JWTSigningKey, cfg.JWTIssuer), limiter.GinMiddleware())
	handler.New(att, sem, mot, cfg.Location(), logger).Register(v1)

	// Graceful shutdown
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http_server_starting", "port", cfg.HTTPPort, "db_driver", cfg.DBDriver, "queue", cfg.QueueBackend, "cache", cfg.CacheBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-quit:
	}
	logger.Info("http_server_shutting_down")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http_server_forced_shutdown", "error", err)
	}
	logger.Info("http_server_exited")
	return nil
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}

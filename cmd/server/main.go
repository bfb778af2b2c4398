// Package main runs the waiver backend HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/cte-escapes/waiver-backend/config"
	"github.com/cte-escapes/waiver-backend/internal/analytics"
	"github.com/cte-escapes/waiver-backend/internal/audit"
	"github.com/cte-escapes/waiver-backend/internal/auth"
	"github.com/cte-escapes/waiver-backend/internal/bookeo"
	"github.com/cte-escapes/waiver-backend/internal/middleware"
	"github.com/cte-escapes/waiver-backend/internal/session"
	"github.com/cte-escapes/waiver-backend/internal/validate"
	"github.com/cte-escapes/waiver-backend/internal/waiver"
	"github.com/cte-escapes/waiver-backend/internal/worker"
	"github.com/cte-escapes/waiver-backend/pkg/archive"
	"github.com/cte-escapes/waiver-backend/pkg/database"
	"github.com/cte-escapes/waiver-backend/pkg/queue"
	"github.com/cte-escapes/waiver-backend/pkg/redis"
	"github.com/cte-escapes/waiver-backend/pkg/response"
	"github.com/cte-escapes/waiver-backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	rdb, err := redis.NewClient(ctx, cfg.Redis, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Audit trail is optional; without a database URL events are dropped.
	var pool *pgxpool.Pool
	if cfg.Database.URL != "" {
		pool, err = database.NewPostgresPool(ctx, cfg.Database.URL, logger)
		if err != nil {
			logger.Fatal("database", zap.Error(err))
		}
		defer pool.Close()
		if err := database.Migrate(ctx, pool); err != nil {
			logger.Fatal("migrate", zap.Error(err))
		}
	} else {
		logger.Warn("audit trail disabled (DATABASE_URL not set)")
	}
	auditRec := audit.NewRecorder(pool, logger)

	// S3 archive copies are optional; without AWS config the webhook sink is
	// the only archive destination.
	var s3Client *storage.S3
	var jobQueue *queue.Queue
	if cfg.AWS.Region != "" {
		s3Cfg := storage.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			WaiverBucket:         cfg.AWS.WaiverBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}
		s3Client, err = storage.NewS3(ctx, s3Cfg, logger)
		if err != nil {
			logger.Warn("s3 archive copies disabled", zap.Error(err))
		} else {
			jobQueue = queue.NewQueue(rdb.Client, logger)
		}
	}

	signer, err := waiver.NewSigner(cfg.Signing.PrivateKey)
	if err != nil {
		logger.Fatal("signing key", zap.Error(err))
	}

	bookeoClient := bookeo.NewClient(cfg.Bookeo, nil, logger)
	sink := archive.NewSink(cfg.Archive, nil, logger)
	store := session.NewStore(rdb.Client, time.Duration(cfg.Session.TTLSeconds)*time.Second, logger)

	waiverHandler := waiver.NewHandler(bookeoClient, store, signer, sink, jobQueue, auditRec,
		cfg.Session.HMACSecret, cfg.Bookeo.DisplayTimeZone, logger)
	validateHandler := validate.NewHandler(bookeoClient, cfg.Validate, cfg.Session.HMACSecret, auditRec, logger)
	jwtService := auth.NewJWTService(cfg.Auth.JWTSecret, cfg.Auth.ExpireHours)
	authHandler := auth.NewHandler(cfg.Auth, jwtService, logger)
	analyticsHandler := analytics.NewHandler(bookeoClient, auditRec, s3Client, logger)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) { response.OK(c, gin.H{"status": "ok"}) })

	// Waiver flow: origin-gated; session/sign/submit additionally behind the
	// handshake verifier.
	waiverGroup := router.Group("/api/waiver")
	waiverGroup.Use(middleware.RequireOrigin(cfg.Server.AllowedOrigins))
	// Group middleware only runs when a route resolves, so every preflighted
	// path needs an OPTIONS route; RequireOrigin answers the preflight itself.
	for _, route := range []string{"/match", "/session", "/sign", "/submit"} {
		waiverGroup.OPTIONS(route, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	}
	waiverGroup.POST("/match", waiverHandler.Match)
	verified := waiverGroup.Group("")
	verified.Use(middleware.Handshake(store, cfg.Session.HMACSecret, logger))
	{
		verified.GET("/session", waiverHandler.Session)
		verified.POST("/sign", waiverHandler.Sign)
		verified.POST("/submit", waiverHandler.Submit)
	}

	// Check-in scanners call validate directly; no origin restriction.
	router.GET("/api/waiver/validate", validateHandler.Validate)

	router.POST("/api/auth/login", authHandler.Login)

	analyticsGroup := router.Group("/api/analytics")
	analyticsGroup.Use(middleware.JWT(jwtService))
	{
		analyticsGroup.GET("/bookings", analyticsHandler.Bookings)
		analyticsGroup.GET("/events", analyticsHandler.Events)
		analyticsGroup.GET("/waivers/download", analyticsHandler.WaiverDownload)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// In-process archive-copy worker when S3 is configured.
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	if s3Client != nil {
		processor := worker.NewArchiveProcessor(s3Client, jobQueue, logger)
		go processor.Run(workerCtx)
		logger.Info("archive worker started")
	}

	go func() {
		logger.Info("server listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	workerCancel()
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

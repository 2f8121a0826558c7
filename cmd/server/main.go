// Package main runs the conference platform HTTP server with the chat WebSocket and graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/speakerhub/backend/config"
	"github.com/speakerhub/backend/internal/auth"
	"github.com/speakerhub/backend/internal/chat"
	"github.com/speakerhub/backend/internal/dashboard"
	"github.com/speakerhub/backend/internal/emaillogs"
	"github.com/speakerhub/backend/internal/events"
	"github.com/speakerhub/backend/internal/metrics"
	"github.com/speakerhub/backend/internal/middleware"
	"github.com/speakerhub/backend/internal/models"
	"github.com/speakerhub/backend/internal/realtime"
	"github.com/speakerhub/backend/internal/registrations"
	"github.com/speakerhub/backend/internal/rsvps"
	"github.com/speakerhub/backend/internal/speakers"
	"github.com/speakerhub/backend/pkg/database"
	"github.com/speakerhub/backend/pkg/redis"
	"github.com/speakerhub/backend/pkg/response"
	"github.com/speakerhub/backend/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}
	metrics.Register()

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool, logger); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	rdb, err := redis.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger)
	if err != nil {
		logger.Fatal("redis", zap.Error(err))
	}
	defer rdb.Close()

	// Photo uploads answer 503 when S3 is not configured.
	var photos speakers.PhotoStore
	if cfg.AWS.Region != "" {
		s3Client, err := storage.NewS3(ctx, storage.S3Config{
			Region:          cfg.AWS.Region,
			AccessKeyID:     cfg.AWS.AccessKeyID,
			SecretAccessKey: cfg.AWS.SecretAccessKey,
			PhotosBucket:    cfg.AWS.PhotosBucket,
		}, logger)
		if err != nil {
			logger.Warn("s3 disabled", zap.Error(err))
		} else {
			photos = s3Client
		}
	}

	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpireHours)

	// Chat relay; with fan-out on every instance relays messages published by the others.
	var hub *realtime.Hub
	if cfg.Redis.Fanout {
		pubsub := realtime.NewRedisPubSub(rdb.Client, logger)
		hub = realtime.NewHub(logger, pubsub, pubsub)
	} else {
		hub = realtime.NewHub(logger, nil, nil)
	}
	chatSvc := chat.NewService(chat.NewRepository(pool), hub, logger)
	chatHandler := chat.NewHandler(chatSvc)

	// Users
	userRepo := auth.NewRepository(pool)
	authHandler := auth.NewHandler(userRepo, jwtService, logger)
	speakerHandler := speakers.NewHandler(userRepo, photos, logger)

	// Events and RSVPs
	rsvpRepo := rsvps.NewRepository(pool)
	eventSvc := events.NewService(events.NewRepository(pool), rsvpRepo, events.StaticMeetingLinks{Base: cfg.Meeting.LinkBase}, logger)
	eventHandler := events.NewHandler(eventSvc)
	rsvpHandler := rsvps.NewHandler(rsvps.NewService(rsvpRepo))

	// Registrations
	registrationHandler := registrations.NewHandler(registrations.NewService(registrations.NewRepository(pool), logger))

	dashboardHandler := dashboard.NewHandler(dashboard.NewRepository(pool))
	emailLogsHandler := emaillogs.NewHandler(emaillogs.NewRepository(pool))

	resolveToken := func(token string) (models.Identity, error) {
		claims, err := jwtService.Validate(token)
		if err != nil {
			return models.Identity{}, err
		}
		return claims.Identity(), nil
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics())

	// Health and metrics
	router.GET("/health", func(c *gin.Context) {
		if err := database.Healthy(c.Request.Context(), pool); err != nil {
			logger.Warn("health: postgres", zap.Error(err))
			response.ServiceUnavailable(c, "database unavailable")
			return
		}
		if err := rdb.Healthy(c.Request.Context()); err != nil {
			logger.Warn("health: redis", zap.Error(err))
			response.ServiceUnavailable(c, "redis unavailable")
			return
		}
		response.OK(c, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Auth (public)
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/signup", authHandler.Signup)
		authGroup.POST("/login", authHandler.Login)
	}

	// Public API
	public := router.Group("/api")
	registrationHandler.RegisterPublic(public)
	public.GET("/speakers", speakerHandler.List)

	// Protected API (JWT required)
	api := router.Group("/api")
	api.Use(middleware.JWT(jwtService))
	{
		eventHandler.Register(api)
		rsvpHandler.Register(api)
		registrationHandler.RegisterAuthed(api)

		api.GET("/speakers/me", speakerHandler.Me)
		api.PUT("/speakers/me", speakerHandler.UpdateMe)
		api.GET("/dashboard/summary", dashboardHandler.Summary)
		api.GET("/events/:id/messages", chatHandler.History)
		api.GET("/events/:id/emails", emailLogsHandler.ListByEvent)
	}

	// WebSocket (token in query, optional)
	router.GET("/ws", realtime.ServeWs(hub, chatSvc, resolveToken, logger))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
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

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"

	"github.com/BenAji/agora-go/internal/api/handlers"
	"github.com/BenAji/agora-go/internal/api/routes"
	"github.com/BenAji/agora-go/internal/domain/events"
	"github.com/BenAji/agora-go/internal/domain/feed"
	"github.com/BenAji/agora-go/internal/domain/watchlist"
	"github.com/BenAji/agora-go/internal/infrastructure/cache"
	"github.com/BenAji/agora-go/internal/infrastructure/persistence/postgres/connection"
	"github.com/BenAji/agora-go/internal/infrastructure/persistence/postgres/migrations"
	"github.com/BenAji/agora-go/internal/infrastructure/scheduler"
	"github.com/BenAji/agora-go/pkg/config"
	"github.com/BenAji/agora-go/pkg/logger"
)

// RequestLoggerMiddleware logs all incoming HTTP requests
func RequestLoggerMiddleware(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		log.Info("Request completed",
			zap.String("path", path),
			zap.String("method", method),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// changeNotifier fans mutations out to the local hub and, when Redis is
// available, to other processes.
type changeNotifier struct {
	hub   *feed.Hub
	redis *cache.RedisClient
	log   *logger.Logger
}

func (n *changeNotifier) Publish(event *feed.ChangeEvent) {
	n.hub.Publish(event)
	if n.redis != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := n.redis.PublishChange(ctx, event); err != nil {
			n.log.Warn("failed to broadcast change signal", zap.Error(err))
		}
	}
}

func main() {
	cfg, err := config.LoadConfig("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.Logging.Level)
	defer log.Sync()

	log.Info("Configuration loaded successfully")
	log.Info("Server mode: " + cfg.Server.Mode)

	if cfg.Server.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLoggerMiddleware(log))
	router.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORS.AllowedOrigins,
		AllowMethods: cfg.CORS.AllowedMethods,
		AllowHeaders: append(cfg.CORS.AllowedHeaders,
			"Accept-Encoding",
			"Content-Type",
			"Authorization",
		),
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"Content-Disposition",
		},
		AllowCredentials: cfg.CORS.AllowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	// Prometheus metrics endpoint
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Connect to the database. With fixtures enabled a failed connection is
	// survivable: reads degrade to the built-in dataset.
	var db *connection.Database
	db, err = connection.NewDatabase(cfg)
	if err != nil {
		if !cfg.Fixtures.Enabled {
			log.Fatal("Failed to connect to database", zap.Error(err))
		}
		log.Warn("Database unavailable, starting in fixture-only mode", zap.Error(err))
		db = nil
	}

	if db != nil {
		if err := migrations.AutoMigrate(db, log.Logger); err != nil {
			log.Fatal("Failed to run database migrations", zap.Error(err))
		}
	}

	// Redis is optional: without it, orderings are memory-only and change
	// signals stay in-process.
	var redisClient *cache.RedisClient
	redisClient, err = cache.NewRedisClient(cache.NewConfigFromEnv(cfg))
	if err != nil {
		log.Warn("Redis unavailable, continuing without it", zap.Error(err))
		redisClient = nil
	} else {
		defer redisClient.Close()
	}

	// Feed consumer logger, kept on logrus for its JSON formatter.
	feedLogger := logrus.New()
	feedLogger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Server.Mode == "production" {
		feedLogger.SetLevel(logrus.InfoLevel)
	} else {
		feedLogger.SetLevel(logrus.DebugLevel)
	}

	hub := feed.NewHub(16, feedLogger)
	notifier := &changeNotifier{hub: hub, redis: redisClient, log: log}

	// Repositories
	var eventsRepo events.Repository
	var watchlistRepo watchlist.Repository
	if db != nil {
		eventsRepo = events.NewRepository(db.DB)
		watchlistRepo = watchlist.NewRepository(db.DB)
	}

	// Services
	fixtures := events.NewFixtureSource(time.Now())
	eventsService := events.NewService(eventsRepo, fixtures, notifier, log, db == nil)

	var orderKV watchlist.KV
	if redisClient != nil {
		orderKV = redisClient
	}
	orderStore := watchlist.NewOrderStore(orderKV, log)

	var watchlistService watchlist.Service
	if eventsRepo != nil && watchlistRepo != nil {
		watchlistService = watchlist.NewService(watchlistRepo, eventsRepo, orderStore, notifier, log)
	}

	// Snapshot scheduler: periodic refresh plus refresh-on-change.
	snapshotScheduler := scheduler.NewScheduler(eventsService, hub, cfg.Calendar.RefreshInterval, log)
	snapshotScheduler.Start()
	defer snapshotScheduler.Stop()
	log.Info("Snapshot scheduler started successfully")

	// Bridge change signals from other processes into the local hub.
	if redisClient != nil {
		if err := redisClient.SubscribeToChanges(context.Background(), func(event *feed.ChangeEvent) {
			hub.Publish(event)
		}); err != nil {
			log.Warn("Failed to subscribe to remote change signals", zap.Error(err))
		}
	}

	// Handlers and routes
	eventsHandler := handlers.NewEventsHandler(eventsService)
	eventRoutes := routes.NewEventRoutes(eventsHandler, cfg.Auth.JWTSecret)
	eventRoutes.RegisterRoutes(router)
	log.Info("Registered event routes at /api/events")

	if watchlistService != nil {
		watchlistHandler := handlers.NewWatchlistHandler(watchlistService)
		watchlistRoutes := routes.NewWatchlistRoutes(watchlistHandler, cfg.Auth.JWTSecret)
		watchlistRoutes.RegisterRoutes(router)
		log.Info("Registered watchlist routes at /api/watchlist")
	} else {
		log.Warn("Watchlist routes not registered, database is unavailable")
	}

	routes.SetupHealthRoutes(router, db, redisClient)
	log.Info("Registered health check routes at /health and /health/ready")

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info(fmt.Sprintf("Server starting on port %d", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	log.Info("Shutting down server...")
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited properly")
}

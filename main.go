package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/SAP-F-2025/course-service/internal/config"
	"github.com/SAP-F-2025/course-service/internal/events"
	"github.com/SAP-F-2025/course-service/internal/handlers"
	"github.com/SAP-F-2025/course-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/course-service/internal/services"
	"github.com/SAP-F-2025/course-service/internal/storage"
	"github.com/SAP-F-2025/course-service/internal/utils"
	"github.com/SAP-F-2025/course-service/internal/validator"
	"github.com/SAP-F-2025/course-service/pkg"
	"github.com/SAP-F-2025/course-service/pkg/monitoring"
	"github.com/SAP-F-2025/course-service/pkg/tracing"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := utils.NewRootLogger(utils.LogOptions{
		Level:      cfg.LogLevel(),
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	slog.SetDefault(slogLogger)
	logger := utils.NewSlogLogger(slogLogger)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Tracing and metrics
	var tracingService string
	if cfg.Tracing.Enabled {
		shutdownTracer, err := tracing.InitTracer(tracing.Config{
			ServiceName: cfg.Tracing.ServiceName,
			Environment: cfg.Environment,
			SampleRatio: cfg.Tracing.SampleRatio,
		}, os.Stderr)
		if err != nil {
			log.Fatalf("Failed to initialize tracing: %v", err)
		}
		defer shutdownTracer(context.Background())
		tracingService = cfg.Tracing.ServiceName
	}
	monitoring.Init()

	// Initialize database
	db, err := pkg.InitDatabase(cfg, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize Redis (if configured); the catalog runs uncached without it
	var redisClient *redis.Client
	if cfg.Redis.URL != "" {
		redisClient, err = pkg.NewRedisClient(ctx, cfg.Redis.URL)
		if err != nil {
			slogLogger.Warn("Failed to initialize Redis, caching disabled", "error", err)
			redisClient = nil
		}
	}

	// Initialize repositories
	repoManager := postgres.NewRepositoryManager(postgres.RepositoryConfig{
		DB:          db,
		RedisClient: redisClient,
	})
	if err := repoManager.Initialize(); err != nil {
		log.Fatalf("Failed to initialize repositories: %v", err)
	}

	// Domain events
	publisher, err := events.NewWatermillPublisher(events.Config{Brokers: cfg.Events.Brokers}, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize event publisher: %v", err)
	}
	if subscriber := publisher.Subscriber(); subscriber != nil {
		if err := events.LogEvents(ctx, subscriber, events.AllTopics, slogLogger); err != nil {
			log.Fatalf("Failed to subscribe to events: %v", err)
		}
	}

	// Attachment storage
	attachments, err := newAttachmentStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize attachment storage: %v", err)
	}

	// Initialize services
	serviceManager := services.NewServiceManager(services.ServiceDependencies{
		DB:          db,
		Repo:        repoManager.GetRepository(),
		Logger:      slogLogger,
		Validator:   validator.New(),
		Publisher:   publisher,
		Attachments: attachments,
	}, services.ServiceManagerConfig{
		CatalogPageSize: cfg.Catalog.PageSize,
		AdminEmails:     cfg.Auth.AdminEmails,
	})
	if err := serviceManager.Initialize(ctx); err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}

	// Initialize handlers
	authenticator, err := handlers.NewAuthenticator(cfg.Auth)
	if err != nil {
		log.Fatalf("Failed to initialize authentication: %v", err)
	}
	handlerManager := handlers.NewHandlerManager(serviceManager, repoManager.GetRepository(), authenticator, logger)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.MaxMultipartMemory = services.MaxUploadSize

	handlers.SetupMiddleware(ctx, router, logger, handlers.MiddlewareConfig{
		AllowedOrigins:       cfg.CORS.AllowedOrigins,
		RateLimitMaxRequests: cfg.RateLimit.MaxRequests,
		RateLimitWindow:      cfg.RateLimit.Window,
		TracingService:       tracingService,
	})
	handlerManager.SetupRoutes(router)
	if cfg.Storage.Type == config.StorageLocal {
		router.Static("/uploads", cfg.Storage.LocalPath)
	}

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Server.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// Stops the event log consumer and the rate limiter sweeper
	stop()

	// Closes the publisher, the database and Redis
	if err := serviceManager.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown services", "error", err)
	}

	logger.Info("Server exited")
}

func newAttachmentStore(ctx context.Context, cfg config.StorageConfig) (storage.AttachmentStore, error) {
	switch cfg.Type {
	case config.StorageMinio:
		store, err := storage.NewMinioStore(storage.MinioConfig{
			Endpoint:  cfg.Minio.Endpoint,
			AccessKey: cfg.Minio.AccessKey,
			SecretKey: cfg.Minio.SecretKey,
			Bucket:    cfg.Minio.Bucket,
			UseSSL:    cfg.Minio.UseSSL,
			PublicURL: cfg.Minio.PublicURL,
		})
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	default:
		return storage.NewLocalStore(cfg.LocalPath), nil
	}
}

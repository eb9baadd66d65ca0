package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/bigquery"
	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"

	"github.com/sfsync/sfsync-api/config"
	"github.com/sfsync/sfsync-api/internal/handlers"
	"github.com/sfsync/sfsync-api/internal/middleware"
	"github.com/sfsync/sfsync-api/internal/notifier"
	"github.com/sfsync/sfsync-api/internal/salesforce"
	"github.com/sfsync/sfsync-api/internal/secrets"
	"github.com/sfsync/sfsync-api/internal/services"
	"github.com/sfsync/sfsync-api/internal/warehouse"
	"github.com/sfsync/sfsync-api/pkg/httpclient"
	"github.com/sfsync/sfsync-api/pkg/logger"
	"github.com/sfsync/sfsync-api/pkg/metrics"
	"github.com/sfsync/sfsync-api/pkg/profiling"
	"github.com/sfsync/sfsync-api/pkg/tracing"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		Environment: cfg.Server.AppEnv,
		ServiceName: cfg.Observability.ServiceName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting Salesforce Sync API",
		zap.String("version", cfg.Observability.ServiceVersion),
		zap.String("environment", cfg.Server.AppEnv),
	)

	// Initialize distributed tracing
	tracerShutdown, err := tracing.InitTracer(
		cfg.Observability.ServiceName,
		cfg.Observability.ServiceNamespace,
		cfg.Observability.ServiceVersion,
		cfg.Observability.ServiceInstanceID,
		cfg.Server.AppEnv,
		cfg.Observability.ExporterEndpoint,
	)
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tracerShutdown(ctx); shutdownErr != nil {
			logger.Error("Failed to shutdown tracer", zap.Error(shutdownErr))
		}
	}()

	// Initialize continuous profiling (no-op when disabled)
	profilerStop, err := profiling.InitProfiler(
		cfg.Profiling,
		cfg.Observability.ServiceName,
		cfg.Observability.ServiceNamespace,
		cfg.Observability.ServiceVersion,
		cfg.Observability.ServiceInstanceID,
		cfg.Server.AppEnv,
	)
	if err != nil {
		logger.Fatal("Failed to initialize profiler", zap.Error(err))
	}
	defer profilerStop()

	// Initialize metrics with service name from config
	metrics.Init(cfg.Observability.ServiceName)

	// Start infrastructure metrics collection
	metrics.RecordInfrastructureMetrics()

	// Initialize GCP clients. Both are long-lived and shared across requests;
	// credentials for Salesforce and the notifier are resolved per request.
	ctx := context.Background()

	secretClient, err := secretmanager.NewClient(ctx)
	if err != nil {
		logger.Fatal("Failed to initialize Secret Manager client", zap.Error(err))
	}
	defer secretClient.Close()

	bigqueryClient, err := bigquery.NewClient(ctx, cfg.GCP.ProjectID)
	if err != nil {
		logger.Fatal("Failed to initialize BigQuery client", zap.Error(err))
	}
	defer bigqueryClient.Close()

	// Initialize HTTP client for Salesforce API calls
	httpClient := httpclient.NewStandardClient()

	// Initialize pipeline components
	secretProvider := secrets.NewProvider(
		secretClient,
		cfg.GCP.ProjectID,
		cfg.Notifier.Variant,
		time.Duration(cfg.Secrets.CacheTTLSeconds)*time.Second,
	)
	fetcher := salesforce.NewClient(httpClient, cfg.Salesforce.ObjectType, cfg.Salesforce.APIVersion)
	sink := warehouse.NewSink(bigqueryClient, cfg.Warehouse.DatasetID, cfg.Warehouse.TableID)

	var sender services.Notifier
	switch cfg.Notifier.Variant {
	case config.NotifierGmail:
		sender = notifier.NewGmailNotifier(cfg.Notifier.FromEmail)
	default:
		sender = notifier.NewSendGridNotifier(cfg.Notifier.FromEmail)
	}

	syncService := services.NewSyncService(secretProvider, fetcher, sink, sender, cfg.Notifier.ToEmails)

	// Initialize handlers
	syncHandler := handlers.NewSyncHandler(syncService)
	healthHandler := handlers.NewHealthHandler()

	// Set up Gin router
	gin.SetMode(cfg.Server.GinMode)
	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Observability.ServiceName)) // OpenTelemetry tracing
	router.Use(middleware.ObservabilityMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware())

	// CORS configuration - SECURITY: Only allow specific origins
	allowedOrigins := cfg.Server.AllowedOrigins
	// Allow localhost in development
	if cfg.IsDevelopment() {
		allowedOrigins = append(allowedOrigins, "http://localhost:3000", "http://127.0.0.1:3000")
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:  allowedOrigins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "X-Webhook-Secret", "traceparent", "tracestate"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))

	// SECURITY: Rate limiters to prevent abuse and DoS attacks
	generalRateLimiter := middleware.NewRateLimiter(100, 200) // 100 req/sec, burst of 200
	webhookRateLimiter := middleware.NewRateLimiter(10, 20)   // 10 req/sec, burst of 20

	// Utility endpoints (not versioned - operational endpoints)
	api := router.Group("/api")
	api.GET("/healthcheck", generalRateLimiter.Middleware(), healthHandler.Healthcheck)
	api.GET("/metrics", generalRateLimiter.Middleware(), gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))

	// API v1 routes
	// SECURITY: Apply body size limits to prevent DoS attacks
	v1 := router.Group("/api/v1")
	v1.POST("/sync",
		webhookRateLimiter.Middleware(),
		middleware.WebhookAuthMiddleware(cfg.Auth.WebhookSecret),
		middleware.BodySizeLimitMiddleware(100*1024),
		syncHandler.HandleSyncNotification)

	// Create HTTP server
	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // SECURITY: 1 MB max header size
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server started", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"document-query-bot/internal/ai"
	"document-query-bot/internal/config"
	"document-query-bot/internal/extract"
	"document-query-bot/internal/index"
	"document-query-bot/internal/logger"
	"document-query-bot/internal/telemetry"
	"document-query-bot/middleware"
	"document-query-bot/routes"
	"document-query-bot/services"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	var metrics *telemetry.Metrics
	if cfg.OTelEnabled {
		shutdown, err := telemetry.InitTracer("document-query-bot", cfg.OTLPEndpoint)
		if err != nil {
			log.Fatal("Failed to init tracer:", err)
		}
		defer shutdown()

		metrics, err = telemetry.InitMetrics()
		if err != nil {
			log.Fatal("Failed to init metrics:", err)
		}
	}

	// Vector index backend
	var idx index.Index
	switch cfg.IndexBackend {
	case "mongo":
		mongoClient, err := config.ConnectMongoDB(cfg)
		if err != nil {
			log.Fatal("Failed to connect to MongoDB:", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			mongoClient.Disconnect(ctx)
		}()
		idx = index.NewMongoStore(mongoClient.Database(cfg.DBName))
	default:
		idx = index.NewMemoryStore()
	}

	// Core pipeline, constructed once at process start. The usage guard is
	// the only mutable process-wide state and lives for the process.
	usage := services.NewUsageGuard(cfg.GeminiAPIKey, cfg.HostUsageCap)
	embedder := ai.NewGeminiEmbedder(cfg)
	generator := ai.NewGeminiGenerator(cfg)
	chunker := services.NewChunker(cfg.MaxChunkSize, cfg.ChunkOverlap)
	ingest := services.NewIngestionService(extract.NewRegistry(), chunker, embedder, idx, usage)
	chain := services.NewRetrievalChain(embedder, idx, generator, cfg.TopK)

	// Initialize Gin router
	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	if cfg.OTelEnabled {
		router.Use(otelgin.Middleware("document-query-bot"))
	}

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "X-Requested-With"}
	router.Use(cors.New(corsConfig))

	// Rate limiting is best-effort: without Redis the service still runs.
	if rdb, err := config.NewRedisClient(cfg); err != nil {
		logger.Warn("Redis unavailable, rate limiting disabled", "error", err)
	} else {
		router.Use(middleware.RateLimitMiddleware(rdb, cfg))
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "timestamp": time.Now()})
	})

	// Setup routes
	routes.SetupDocumentRoutes(router, cfg, ingest, idx, usage, metrics)
	routes.SetupQueryRoutes(router, cfg, chain, metrics)

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Server starting", "port", cfg.Port, "index_backend", cfg.IndexBackend)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	logger.Info("Server exited")
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/trace"

	"github.com/PatrickTobler/agent-observation-tool/internal/auth"
	"github.com/PatrickTobler/agent-observation-tool/internal/gateway"
	"github.com/PatrickTobler/agent-observation-tool/internal/judge"
	"github.com/PatrickTobler/agent-observation-tool/internal/metrics"
	"github.com/PatrickTobler/agent-observation-tool/internal/scoring"
	"github.com/PatrickTobler/agent-observation-tool/internal/store"
)

// @title Agent Observation API
// @version 1.0
// @description Multi-tenant observation service for AI agents.
// @description
// @description SDKs push interaction events per task; the service derives task status
// @description from the event stream and scores finished tasks with an LLM judge when
// @description the agent has an enabled evaluation config.

// @contact.name API Support
// @contact.email support@agent-observation.dev

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and an ingestion API key secret.

func main() {
	// Initialize OpenTelemetry
	if err := initTracer(); err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}

	st, cleanup, err := buildStore()
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer cleanup()

	// Initialize JWT manager
	jwtManager, err := auth.NewJWTManager()
	if err != nil {
		log.Fatalf("Failed to initialize JWT manager: %v", err)
	}

	// The judge is optional: without an OpenRouter key the service still
	// ingests and derives, it just never scores.
	var j judge.Judge
	if apiKey := os.Getenv("OPENROUTER_API_KEY"); apiKey != "" {
		j = judge.NewOpenRouterJudge(apiKey, os.Getenv("JUDGE_MODEL"))
		log.Printf(`{"level":"info","message":"Judge enabled","model":"%s"}`, j.Model())
	} else {
		log.Println(`{"level":"warn","message":"OPENROUTER_API_KEY not set; scoring disabled"}`)
	}

	scoringMetrics, err := metrics.NewScoringMetrics()
	if err != nil {
		log.Fatalf("Failed to initialize metrics: %v", err)
	}
	scorer := scoring.NewService(st, j, scoringMetrics)

	// Initialize gateway layer
	gatewayHandler := gateway.NewHandler(st, scorer, jwtManager)

	// Setup Gin router
	router := gin.Default()

	// Add structured JSON logging middleware
	router.Use(structuredLoggingMiddleware())

	// Health checks MUST be at the root for the WebService standard
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// API routes
	api := router.Group("/api")

	// Public routes (no authentication required)
	api.POST("/auth/login", gatewayHandler.Login)

	// Swagger documentation (public)
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Ingestion routes (require an API key)
	ingest := api.Group("")
	ingest.Use(auth.RequireAPIKey(st))
	ingest.POST("/events", gatewayHandler.IngestEvent)

	// Dashboard routes (require JWT authentication)
	protected := api.Group("")
	protected.Use(auth.RequireSession(jwtManager))

	protected.GET("/agents", gatewayHandler.ListAgents)
	protected.GET("/agents/:agent_name/tasks", gatewayHandler.ListAgentTasks)
	protected.PUT("/agents/:agent_name/evaluation", gatewayHandler.PutEvaluation)
	protected.GET("/agents/:agent_name/evaluation", gatewayHandler.GetEvaluation)
	protected.GET("/agents/:agent_name/scores", gatewayHandler.ListAgentScores)

	protected.GET("/tasks/:task_id", gatewayHandler.GetTaskDetail)
	protected.GET("/tasks/:task_id/events", gatewayHandler.ListTaskEvents)

	protected.POST("/api-keys", gatewayHandler.CreateAPIKey)
	protected.GET("/api-keys", gatewayHandler.ListAPIKeys)
	protected.DELETE("/api-keys/:key_id", gatewayHandler.RevokeAPIKey)

	// HTTP server configuration
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // Increased for synchronous judge calls on result events
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Starting Agent Observation API server on port %s\n", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// buildStore picks the backing store from DATABASE_URL. An empty URL selects
// the in-memory store for local development.
func buildStore() (store.Store, func(), error) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Println(`{"level":"warn","message":"DATABASE_URL not set; using in-memory store"}`)
		return store.NewMemory(), func() {}, nil
	}

	// Connect to PostgreSQL with retry logic
	log.Println("Connecting to PostgreSQL database...")
	var pool *pgxpool.Pool
	var err error

	// Add a retry loop for the initial connection
	for i := 0; i < 10; i++ {
		pool, err = pgxpool.New(context.Background(), dbURL)
		if err == nil {
			err = pool.Ping(context.Background())
			if err == nil {
				break
			}
		}
		log.Printf("Waiting for database... (attempt %d/10): %v", i+1, err)
		time.Sleep(3 * time.Second)
	}

	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database after retries: %w", err)
	}
	log.Println("Connected to PostgreSQL database")

	pg := store.NewPostgres(pool)
	if err := pg.Migrate(context.Background()); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return pg, pool.Close, nil
}

// initTracer initializes OpenTelemetry tracing
func initTracer() error {
	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return fmt.Errorf("failed to create stdout exporter: %w", err)
	}

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
	)

	otel.SetTracerProvider(tp)

	return nil
}

// structuredLoggingMiddleware provides structured JSON logging for all requests
func structuredLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		// Process request
		c.Next()

		// Calculate latency
		latency := time.Since(start)

		// Get workspace ID from context if available
		workspaceID, _ := c.Get(auth.CtxWorkspaceID)

		// Build log entry
		logEntry := map[string]interface{}{
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     c.Writer.Status(),
			"latency_ms": latency.Milliseconds(),
			"client_ip":  c.ClientIP(),
			"user_agent": c.Request.UserAgent(),
		}

		// Add workspace ID if authenticated
		if workspaceID != nil {
			logEntry["workspace_id"] = workspaceID
		}

		// Add error if present
		if len(c.Errors) > 0 {
			logEntry["errors"] = c.Errors.String()
		}

		// Output as JSON
		logJSON, _ := json.Marshal(logEntry)
		log.Println(string(logJSON))
	}
}

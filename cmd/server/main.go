package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"

	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/ai"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/matching"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/middleware"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/routes"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/scoring"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/reunite-backend/internal/telemetry"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	policy, matchCfg, err := cfg.MatchingPolicy()
	if err != nil {
		slog.Error("invalid scoring policy", "policy", cfg.ScoringPolicy, "file", cfg.ScoringPolicyFile, "error", err)
		os.Exit(1)
	}

	// Tracing
	shutdownTracing, err := telemetry.Setup(context.Background(), "reunite-backend", cfg.AppEnv, cfg.OTELEndpoint)
	if err != nil {
		slog.Error("tracing setup failed", "error", err)
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(database.DB)
	logging.WithDatabase(pgLogHandler)

	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cfg.LogRetentionDays, cleanupDone)

	// Matching engine
	judge, judgeNames := buildJudge(cfg)
	embedder := buildEmbedder(cfg)
	engine := scoring.NewEngine(policy, scoring.NewTextScorer(judge, cfg.AITimeout))
	store := database.NewStore(database.DB)

	notificationService := services.NewNotificationService(store)
	guard := matching.NewDuplicateGuard(store, matchCfg)
	matcher := matching.NewCandidateMatcher(store, engine, embedder, notificationService, matchCfg)
	claims := matching.NewClaimStateMachine(store, engine, notificationService)

	slog.Info("matching engine ready",
		"policy", policy.Name,
		"judge", judgeNames,
		"auto_match_threshold", matchCfg.AutoMatchThreshold,
		"workers", matchCfg.Workers,
	)

	// Services
	reportService := services.NewReportService(store, embedder, guard, matcher, services.NewContentFilter())
	matchService := services.NewMatchService(store, claims)

	// Handlers
	healthHandler := handlers.NewHealthHandler(database.Ping, string(policy.Name), judgeNames)
	reportHandler := handlers.NewReportHandler(reportService)
	matchHandler := handlers.NewMatchHandler(matchService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app; base64 images make create requests large
	app := fiber.New(fiber.Config{
		BodyLimit:    32 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	// Sentry middleware
	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	// Routes
	routes.Setup(app, cfg, healthHandler, reportHandler, matchHandler, notificationHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	close(cleanupDone)
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdownTracing(ctx); err != nil {
		slog.Warn("tracing shutdown error", "error", err)
	}

	// Close database connections
	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
	}

	slog.Info("server stopped")
}

// buildJudge chains the configured providers (Anthropic, GLM, DeepSeek) and
// wraps each in its own rate limiter and circuit breaker. Without any
// provider the text scorer uses its lexical fallback.
func buildJudge(cfg *config.Config) (scoring.SemanticJudge, string) {
	var chain ai.ChainJudge
	var names []string
	guard := func(name string, j scoring.SemanticJudge) {
		breaker := ai.NewCircuitBreaker(cfg.JudgeFailureThreshold, 30*time.Second)
		chain = append(chain, ai.NewRateLimitedJudge(j, cfg.JudgeRatePerSecond, breaker))
		names = append(names, name)
	}

	if cfg.AnthropicAPIKey != "" {
		guard("anthropic", ai.NewAnthropicJudge(cfg.AnthropicAPIKey, cfg.AnthropicModel))
	}
	if cfg.GLMAPIKey != "" {
		guard("glm", ai.NewChatJudge("glm", cfg.GLMAPIURL, cfg.GLMAPIKey, cfg.GLMModel, cfg.AITimeout))
	}
	if cfg.DeepSeekAPIKey != "" {
		guard("deepseek", ai.NewChatJudge("deepseek", cfg.DeepSeekAPIURL, cfg.DeepSeekAPIKey, cfg.DeepSeekModel, cfg.AITimeout))
	}

	if len(chain) == 0 {
		slog.Warn("no semantic judge configured, text scoring is lexical only")
		return nil, "lexical"
	}
	return chain, strings.Join(names, ",")
}

func buildEmbedder(cfg *config.Config) matching.Embedder {
	if cfg.OpenAIAPIKey == "" {
		slog.Warn("OPENAI_API_KEY not set, using local hash embeddings")
		return ai.NewHashEmbedder(cfg.EmbeddingDimensions)
	}
	return ai.NewHTTPEmbedder(ai.HTTPEmbedderConfig{
		APIURL:     cfg.EmbeddingAPIURL,
		APIKey:     cfg.OpenAIAPIKey,
		Model:      cfg.EmbeddingModel,
		ImageModel: cfg.EmbeddingImageModel,
		Dimensions: cfg.EmbeddingDimensions,
		Timeout:    cfg.AITimeout,
	})
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}

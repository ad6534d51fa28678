package main

import (
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"github.com/teammind-ai/backend/internal/adapter/ai"
	"github.com/teammind-ai/backend/internal/adapter/recorder"
	"github.com/teammind-ai/backend/internal/adapter/store"
	"github.com/teammind-ai/backend/internal/adapter/tracker"
	"github.com/teammind-ai/backend/internal/adapter/wiki"
	"github.com/teammind-ai/backend/internal/handler"
	"github.com/teammind-ai/backend/internal/middleware"
	"github.com/teammind-ai/backend/internal/service"
	"github.com/teammind-ai/backend/pkg/config"

	_ "github.com/lib/pq"
)

func main() {
	// ── Load .env file ───────────────────────────────────────────────────
	_ = godotenv.Load() // silently ignore if .env doesn't exist

	// ── Configuration ────────────────────────────────────────────────────
	cfg := config.Load()

	slog.Info("🚀 Starting TeamMind AI",
		"port", cfg.Port,
		"embed_url", cfg.EmbedURL,
		"chat_url", cfg.ChatURL,
	)

	// ── Database ─────────────────────────────────────────────────────────
	pgStore, err := store.NewPostgresStore(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pgStore.Close()

	vectorStore := store.NewVectorStore(pgStore, cfg.EmbeddingDimension)

	// ── Adapters ─────────────────────────────────────────────────────────
	llm := ai.NewOllamaProvider(
		ai.OllamaEndpointConfig{
			BaseURL: cfg.EmbedURL,
			Model:   cfg.EmbedModel,
			Token:   cfg.EmbedToken,
		},
		ai.OllamaEndpointConfig{
			BaseURL: cfg.ChatURL,
			Model:   cfg.ChatModel,
			Token:   cfg.ChatToken,
		},
	)

	meetingRecorder := recorder.NewClient(cfg.RecorderURL, cfg.RecorderAPIKey, cfg.BotName)

	// ── Services ─────────────────────────────────────────────────────────
	// One limiter shared by every summarization caller: the minimum spacing
	// between LLM calls holds process-wide.
	summaryLimiter := rate.NewLimiter(rate.Every(cfg.SummaryMinInterval), 1)
	summarizer := service.NewSummarizer(llm, summaryLimiter, service.SummarizerConfig{
		SoftBudget:     cfg.SummarySoftBudget,
		FinalPassLimit: cfg.SummaryFinalPassLimit,
		MaxParallel:    cfg.SummaryMaxParallel,
		CallTimeout:    cfg.LLMTimeout,
	})

	retriever := service.NewRetriever(llm, vectorStore, cfg.ChunkSize, cfg.TopKPerChunk)
	analyzer := service.NewAnalyzer(llm, cfg.LLMTimeout)
	syncer := service.NewSyncer(pgStore, wiki.Factory, tracker.Factory)
	pipeline := service.NewMeetingPipeline(analyzer, retriever, syncer)
	ingestor := service.NewIngestor(llm, vectorStore, pgStore, wiki.Factory, summarizer, service.IngestConfig{
		ChunkSize:     cfg.ChunkSize,
		MetadataBytes: cfg.MetadataBytes,
	})
	askService := service.NewAskService(llm, retriever, summarizer)

	// ── Fiber App ────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: []string{cfg.FrontendURL},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
	}))

	// Audit middleware (logs all requests)
	app.Use(middleware.AuditMiddleware(pgStore))

	// Health check
	app.Get("/api/v1/health", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"app":     cfg.AppName,
			"version": "1.0.0",
		})
	})

	// ── Routes ───────────────────────────────────────────────────────────
	botTracker := handler.NewBotTracker()

	// The recorder posts lifecycle events here, outside the versioned API.
	webhookHandler := handler.NewWebhookHandler(pgStore, pipeline, botTracker)
	webhookHandler.Register(app.Group("/api"))

	api := app.Group("/api/v1")

	webhookURL := strings.TrimRight(cfg.WebhookBaseURL, "/") + "/api/meeting/webhook"
	botsHandler := handler.NewBotsHandler(pgStore, meetingRecorder, botTracker, webhookURL, cfg.AllowedMeetingHosts)
	botsHandler.Register(api)

	ingestHandler := handler.NewIngestHandler(pgStore, ingestor, middleware.CronAuth(cfg.CronSecret))
	ingestHandler.Register(api)

	askHandler := handler.NewAskHandler(askService)
	askHandler.Register(api)

	changesHandler := handler.NewChangesHandler(pgStore, wiki.Factory)
	changesHandler.Register(api)

	auditHandler := handler.NewAuditHandler(pgStore)
	auditHandler.Register(api)

	// ── Start ────────────────────────────────────────────────────────────
	slog.Info("🌐 Fiber listening", "port", cfg.Port)
	if err := app.Listen(":" + cfg.Port); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

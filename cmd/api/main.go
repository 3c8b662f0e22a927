package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/feedback-insights/backend/internal/analysis"
	"github.com/feedback-insights/backend/internal/api/handlers"
	"github.com/feedback-insights/backend/internal/cache/redis"
	"github.com/feedback-insights/backend/internal/chatbot"
	"github.com/feedback-insights/backend/internal/llm"
	"github.com/feedback-insights/backend/internal/metrics"
	"github.com/feedback-insights/backend/internal/middleware/ratelimit"
	"github.com/feedback-insights/backend/internal/middleware/security"
	"github.com/feedback-insights/backend/internal/storage/sqlite"
	"github.com/feedback-insights/backend/pkg/config"
	appLogger "github.com/feedback-insights/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := appLogger.Init(cfg.Logging.Level, cfg.Logging.Format); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting feedback insights API server")

	metrics.Init()

	store, err := sqlite.New(cfg.SQLite.Path)
	if err != nil {
		appLogger.Fatal("Failed to open feedback store", zap.Error(err))
	}
	defer store.Close()

	var statsCache *redis.Client
	if cfg.Redis.Enabled {
		statsCache, err = redis.NewClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTLSec)
		if err != nil {
			appLogger.Fatal("Failed to connect to stats cache", zap.Error(err))
		}
		defer statsCache.Close()
	}

	var llmClient *llm.Client
	if cfg.Chatbot.APIKey != "" {
		llmClient = llm.NewClient(
			cfg.Chatbot.APIKey,
			cfg.Chatbot.Model,
			cfg.Chatbot.Temperature,
			cfg.Chatbot.MaxTokens,
			cfg.Chatbot.TimeoutSec,
		)
	}

	analyzer := analysis.New()
	responder := chatbot.New(store, llmClient)
	appLogger.Info("Chatbot ready", zap.String("mode", responder.Mode()))

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(recover.New())
	app.Use(fiberlogger.New())
	app.Use(security.Headers())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))
	app.Use(ratelimit.New(cfg.Server.RateLimit, appLogger.Get()).Middleware())

	feedbackHandler := handlers.NewFeedbackHandler(store, analyzer, statsCache, cfg.Retention.DefaultDays)
	statsHandler := handlers.NewStatsHandler(store, statsCache)
	chatbotHandler := handlers.NewChatbotHandler(responder)
	wsHandler := handlers.NewWebSocketHandler(responder)

	api := app.Group("/api/v1")

	api.Post("/feedback/text", feedbackHandler.AnalyzeText)
	api.Post("/feedback", feedbackHandler.IngestRecord)
	api.Get("/export", feedbackHandler.Export)
	api.Post("/admin/purge", feedbackHandler.Purge)

	api.Get("/stats", statsHandler.Overall)
	api.Get("/stats/recent", statsHandler.Recent)
	api.Get("/stats/categories", statsHandler.Categories)
	api.Get("/stats/kinds", statsHandler.Kinds)
	api.Get("/stats/trends", statsHandler.Trends)
	api.Get("/stats/entities", statsHandler.TopEntities)
	api.Get("/stats/sentiment-by-category", statsHandler.SentimentByCategory)

	api.Post("/chatbot/message", chatbotHandler.Message)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":       "ok",
			"chatbot_mode": responder.Mode(),
			"time":         time.Now().Unix(),
		})
	})

	app.Get("/metrics", metrics.Handler())

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/chat", websocket.New(wsHandler.HandleConnection))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	app.Shutdown()
	appLogger.Info("Server stopped")
}

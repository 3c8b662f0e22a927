package handlers

import (
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/feedback-insights/backend/internal/cache/redis"
	"github.com/feedback-insights/backend/internal/metrics"
	"github.com/feedback-insights/backend/internal/storage/models"
	"github.com/feedback-insights/backend/internal/storage/sqlite"
	"github.com/feedback-insights/backend/pkg/logger"
)

type StatsHandler struct {
	store *sqlite.Store
	cache *redis.Client
}

func NewStatsHandler(store *sqlite.Store, cache *redis.Client) *StatsHandler {
	return &StatsHandler{store: store, cache: cache}
}

func (h *StatsHandler) Overall(c *fiber.Ctx) error {
	if h.cache != nil {
		var cached models.OverallStats
		hit, err := h.cache.Get(c.Context(), "overall", &cached)
		if err != nil {
			logger.Warn("Stats cache read failed", zap.Error(err))
		}
		if hit {
			metrics.CacheHits.WithLabelValues("overall").Inc()
			return c.JSON(cached)
		}
		metrics.CacheMisses.WithLabelValues("overall").Inc()
	}

	stats, err := h.store.OverallStatistics()
	if err != nil {
		logger.Error("Failed to compute statistics", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to compute statistics",
		})
	}

	if h.cache != nil {
		if err := h.cache.Set(c.Context(), "overall", stats); err != nil {
			logger.Warn("Stats cache write failed", zap.Error(err))
		}
	}
	return c.JSON(stats)
}

func (h *StatsHandler) Recent(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 5)
	if limit <= 0 || limit > 100 {
		limit = 5
	}

	recent, err := h.store.Recent(limit)
	if err != nil {
		logger.Error("Failed to load recent feedback", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load recent feedback",
		})
	}
	return c.JSON(fiber.Map{"feedback": recent})
}

func (h *StatsHandler) Categories(c *fiber.Ctx) error {
	if h.cache != nil {
		var cached map[string]int
		hit, err := h.cache.Get(c.Context(), "categories", &cached)
		if err != nil {
			logger.Warn("Stats cache read failed", zap.Error(err))
		}
		if hit {
			metrics.CacheHits.WithLabelValues("categories").Inc()
			return c.JSON(fiber.Map{"categories": cached})
		}
		metrics.CacheMisses.WithLabelValues("categories").Inc()
	}

	categories, err := h.store.CategoryDistribution()
	if err != nil {
		logger.Error("Failed to load category distribution", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load category distribution",
		})
	}

	if h.cache != nil {
		if err := h.cache.Set(c.Context(), "categories", categories); err != nil {
			logger.Warn("Stats cache write failed", zap.Error(err))
		}
	}
	return c.JSON(fiber.Map{"categories": categories})
}

func (h *StatsHandler) Kinds(c *fiber.Ctx) error {
	kinds, err := h.store.StatsByKind()
	if err != nil {
		logger.Error("Failed to load kind stats", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load kind stats",
		})
	}
	return c.JSON(fiber.Map{"kinds": kinds})
}

func (h *StatsHandler) Trends(c *fiber.Ctx) error {
	days := c.QueryInt("days", 7)
	if days <= 0 || days > 365 {
		days = 7
	}

	trends, err := h.store.DailyTrends(days)
	if err != nil {
		logger.Error("Failed to load daily trends", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load daily trends",
		})
	}
	return c.JSON(fiber.Map{"trends": trends})
}

func (h *StatsHandler) TopEntities(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 10)
	if limit <= 0 || limit > 100 {
		limit = 10
	}

	entities, err := h.store.TopEntities(limit)
	if err != nil {
		logger.Error("Failed to load top entities", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load top entities",
		})
	}
	return c.JSON(fiber.Map{"entities": entities})
}

func (h *StatsHandler) SentimentByCategory(c *fiber.Ctx) error {
	crosstab, err := h.store.SentimentByCategory()
	if err != nil {
		logger.Error("Failed to load sentiment cross-tab", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load sentiment cross-tab",
		})
	}
	return c.JSON(fiber.Map{"sentiment_by_category": crosstab})
}

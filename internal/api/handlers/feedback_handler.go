package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/feedback-insights/backend/internal/analysis"
	"github.com/feedback-insights/backend/internal/cache/redis"
	"github.com/feedback-insights/backend/internal/metrics"
	"github.com/feedback-insights/backend/internal/storage/models"
	"github.com/feedback-insights/backend/internal/storage/sqlite"
	"github.com/feedback-insights/backend/pkg/logger"
)

type FeedbackHandler struct {
	store         *sqlite.Store
	analyzer      *analysis.Analyzer
	cache         *redis.Client
	retentionDays int
}

func NewFeedbackHandler(store *sqlite.Store, analyzer *analysis.Analyzer, cache *redis.Client, retentionDays int) *FeedbackHandler {
	return &FeedbackHandler{
		store:         store,
		analyzer:      analyzer,
		cache:         cache,
		retentionDays: retentionDays,
	}
}

// AnalyzeText runs the local analyzer over raw feedback text and stores the
// resulting record.
func (h *FeedbackHandler) AnalyzeText(c *fiber.Ctx) error {
	var req struct {
		Text string `json:"text"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse request body", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Text is required",
		})
	}

	started := time.Now()
	result, err := h.analyzer.AnalyzeText(req.Text)
	if err != nil {
		logger.Error("Failed to analyze text", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to analyze text",
		})
	}
	metrics.AnalysisDuration.WithLabelValues(models.KindText).Observe(time.Since(started).Seconds())

	magnitude := result.Magnitude
	record := &models.FeedbackRecord{
		ID:         uuid.New().String(),
		Kind:       models.KindText,
		Sentiment:  result.Sentiment,
		Score:      result.Score,
		Magnitude:  &magnitude,
		Category:   result.Category,
		TextSample: req.Text,
		Entities:   result.Entities,
	}

	if err := h.ingest(c, record); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"id":      record.ID,
		"sentiment": fiber.Map{
			"label":     result.Sentiment,
			"score":     result.Score,
			"magnitude": result.Magnitude,
		},
		"entities":       result.Entities,
		"category":       result.Category,
		"recommendation": result.Recommendation,
	})
}

// IngestRecord accepts a pre-normalized analysis record, the shape external
// speech/vision analyzers produce.
func (h *FeedbackHandler) IngestRecord(c *fiber.Ctx) error {
	var record models.FeedbackRecord
	if err := c.BodyParser(&record); err != nil {
		logger.Error("Failed to parse analysis record", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid analysis record",
		})
	}
	if record.ID == "" {
		record.ID = uuid.New().String()
	}

	if err := h.ingest(c, &record); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"id":      record.ID,
	})
}

// ingest stores a record, tracks metrics and invalidates the stats cache.
// A duplicate id answers 409 without touching stored data.
func (h *FeedbackHandler) ingest(c *fiber.Ctx, record *models.FeedbackRecord) error {
	started := time.Now()
	stored, err := h.store.Ingest(record)
	if err != nil {
		logger.Error("Failed to store feedback", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to store feedback",
		})
	}
	metrics.IngestDuration.Observe(time.Since(started).Seconds())

	if !stored {
		metrics.DuplicatesRejected.Inc()
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": "Feedback id already exists",
			"id":    record.ID,
		})
	}

	metrics.FeedbackIngested.WithLabelValues(record.Kind, record.Sentiment).Inc()

	if h.cache != nil {
		if err := h.cache.Invalidate(c.Context()); err != nil {
			logger.Warn("Failed to invalidate stats cache", zap.Error(err))
		}
	}
	return nil
}

// Export returns the full dataset with nested entities.
func (h *FeedbackHandler) Export(c *fiber.Ctx) error {
	records, err := h.store.ExportAll()
	if err != nil {
		logger.Error("Failed to export feedback", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to export feedback",
		})
	}

	return c.JSON(fiber.Map{
		"count":   len(records),
		"records": records,
	})
}

// Purge removes feedback older than the requested number of days.
func (h *FeedbackHandler) Purge(c *fiber.Ctx) error {
	days := c.QueryInt("days", h.retentionDays)
	if days <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "days must be positive",
		})
	}

	deleted, err := h.store.PurgeOlderThan(days)
	if err != nil {
		logger.Error("Failed to purge feedback", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to purge feedback",
		})
	}
	metrics.RecordsPurged.Add(float64(deleted))

	if h.cache != nil {
		if err := h.cache.Invalidate(c.Context()); err != nil {
			logger.Warn("Failed to invalidate stats cache", zap.Error(err))
		}
	}

	return c.JSON(fiber.Map{
		"deleted": deleted,
		"days":    days,
	})
}

package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/feedback-insights/backend/internal/chatbot"
	"github.com/feedback-insights/backend/internal/metrics"
	"github.com/feedback-insights/backend/pkg/logger"
)

type ChatbotHandler struct {
	responder *chatbot.Responder
}

func NewChatbotHandler(responder *chatbot.Responder) *ChatbotHandler {
	return &ChatbotHandler{responder: responder}
}

func (h *ChatbotHandler) Message(c *fiber.Ctx) error {
	var req struct {
		Message   string `json:"message"`
		SessionID string `json:"session_id"`
	}

	if err := c.BodyParser(&req); err != nil {
		logger.Error("Failed to parse chatbot request", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}
	if req.Message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Message is required",
		})
	}

	reply, mode, err := h.responder.Reply(c.Context(), req.Message)
	if err != nil {
		logger.Error("Failed to answer chatbot message", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to answer message",
		})
	}
	metrics.ChatbotMessages.WithLabelValues(mode).Inc()

	return c.JSON(fiber.Map{
		"success":   true,
		"response":  reply,
		"mode":      mode,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

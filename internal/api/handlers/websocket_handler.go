package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/websocket/v2"
	"go.uber.org/zap"

	"github.com/feedback-insights/backend/internal/chatbot"
	"github.com/feedback-insights/backend/internal/metrics"
	"github.com/feedback-insights/backend/pkg/logger"
)

// WebSocketHandler serves the chat assistant over a websocket, streaming
// replies word by word.
type WebSocketHandler struct {
	responder *chatbot.Responder
}

func NewWebSocketHandler(responder *chatbot.Responder) *WebSocketHandler {
	return &WebSocketHandler{responder: responder}
}

func (h *WebSocketHandler) HandleConnection(c *websocket.Conn) {
	logger.Info("Chat websocket connected")

	defer func() {
		c.Close()
		logger.Info("Chat websocket closed")
	}()

	for {
		var msg struct {
			Type    string `json:"type"`
			Content string `json:"content"`
		}

		if err := c.ReadJSON(&msg); err != nil {
			logger.Debug("Websocket read ended", zap.Error(err))
			break
		}
		if msg.Type != "message" || msg.Content == "" {
			continue
		}

		if err := h.streamReply(c, msg.Content); err != nil {
			logger.Error("Failed to stream chatbot reply", zap.Error(err))
			h.sendError(c, "Failed to answer message")
		}
	}
}

func (h *WebSocketHandler) streamReply(c *websocket.Conn, message string) error {
	reply, mode, err := h.responder.Reply(context.Background(), message)
	if err != nil {
		return err
	}
	metrics.ChatbotMessages.WithLabelValues(mode).Inc()

	words := strings.Fields(reply)
	for i, word := range words {
		chunk := word
		if i < len(words)-1 {
			chunk += " "
		}
		if err := c.WriteJSON(map[string]interface{}{
			"type":    "chunk",
			"content": chunk,
		}); err != nil {
			return err
		}
	}

	return c.WriteJSON(map[string]interface{}{
		"type": "complete",
		"mode": mode,
	})
}

func (h *WebSocketHandler) sendError(c *websocket.Conn, errorMsg string) {
	_ = c.WriteJSON(map[string]interface{}{
		"type":  "error",
		"error": errorMsg,
	})
}

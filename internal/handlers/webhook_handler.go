package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/lalfaro-lab/sms-platform/internal/services"
	"github.com/lalfaro-lab/sms-platform/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// WebhookHandler accepts asynchronous callbacks from the SMS gateway
type WebhookHandler struct {
	messages MessageServiceInterface
}

// NewWebhookHandler creates a new webhook handler
func NewWebhookHandler(messages MessageServiceInterface) *WebhookHandler {
	return &WebhookHandler{messages: messages}
}

// WebhookRequest is the POST /api/webhook body. The payload is kept
// verbatim; its shape varies by event type.
type WebhookRequest struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload"`
}

// Receive handles gateway callbacks (POST /api/webhook)
// The call answers 200 once the raw event is persisted, even when the
// inbound-SMS branch fails internally.
func (h *WebhookHandler) Receive(c *gin.Context) {
	var req WebhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid webhook request", zap.Error(err))
		respondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := h.messages.HandleWebhook(c.Request.Context(), req.Event, req.Payload); err != nil {
		if errors.Is(err, services.ErrEventRequired) {
			respondError(c, http.StatusBadRequest, err.Error())
			return
		}
		logger.Error("Failed to process webhook",
			zap.String("event", req.Event),
			zap.Error(err),
		)
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	respondSuccess(c)
}

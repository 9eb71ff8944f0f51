package handlers

import (
	"net/http"
	"strconv"

	"github.com/lalfaro-lab/sms-platform/internal/models"
	"github.com/lalfaro-lab/sms-platform/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SMSHandler handles message send, listing and stats requests
type SMSHandler struct {
	messages MessageServiceInterface
}

// NewSMSHandler creates a new SMS handler
func NewSMSHandler(messages MessageServiceInterface) *SMSHandler {
	return &SMSHandler{messages: messages}
}

// SendSMSRequest is the POST /api/send-sms body
type SendSMSRequest struct {
	PhoneNumber string `json:"phoneNumber"`
	Message     string `json:"message"`
}

// SendSMS handles the outbound send flow (POST /api/send-sms)
// Validation failures are rejected before the gateway or the store is
// touched; a gateway or store failure maps to a 500.
func (h *SMSHandler) SendSMS(c *gin.Context) {
	logger.Info("Send SMS endpoint called")

	var req SendSMSRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Warn("Invalid send request", zap.Error(err))
		respondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	if req.PhoneNumber == "" {
		respondError(c, http.StatusBadRequest, "phoneNumber is required")
		return
	}
	if req.Message == "" {
		respondError(c, http.StatusBadRequest, "message is required")
		return
	}

	receipt, err := h.messages.Send(c.Request.Context(), req.PhoneNumber, req.Message)
	if err != nil {
		logger.Error("Send failed",
			zap.String("phone_number", req.PhoneNumber),
			zap.Error(err),
		)
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	respondData(c, receipt)
}

// ListMessages handles the message history endpoint (GET /api/messages)
// Query params: type (default "sent"), limit (default 50)
func (h *SMSHandler) ListMessages(c *gin.Context) {
	direction := c.DefaultQuery("type", models.DirectionSent)

	limit := 0
	if limitParam := c.Query("limit"); limitParam != "" {
		l, err := strconv.Atoi(limitParam)
		if err != nil {
			respondError(c, http.StatusBadRequest, "Invalid limit parameter")
			return
		}
		limit = l
	}

	messages, err := h.messages.List(c.Request.Context(), direction, limit)
	if err != nil {
		logger.Error("Failed to list messages", zap.Error(err))
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	if messages == nil {
		messages = []*models.Message{}
	}
	respondData(c, messages)
}

// Stats handles the dashboard counters endpoint (GET /api/stats)
func (h *SMSHandler) Stats(c *gin.Context) {
	stats, err := h.messages.Stats(c.Request.Context())
	if err != nil {
		logger.Error("Failed to compute stats", zap.Error(err))
		respondError(c, http.StatusInternalServerError, err.Error())
		return
	}

	respondData(c, stats)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"change-intake-service/internal/dto"
	"change-intake-service/internal/response"
	"change-intake-service/internal/service"
)

// ChatHandler relays chat messages to the workflow engine. Its responses use
// the engine's reply shape instead of the response envelope.
type ChatHandler struct {
	intakeService service.IntakeService
	logger        *zap.Logger
}

func NewChatHandler(intakeService service.IntakeService, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		intakeService: intakeService,
		logger:        logger,
	}
}

// SendMessage forwards a chat message and returns the engine's reply
// @Router /chat [post]
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req dto.ChatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "session_id und message sind erforderlich")
		return
	}

	reply, err := h.intakeService.SendChat(c.Request.Context(), &req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, reply)
}

// Forward passes an arbitrary JSON object through to the engine
// @Router /forward [post]
func (h *ChatHandler) Forward(c *gin.Context) {
	var payload map[string]interface{}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	result := h.intakeService.Forward(c.Request.Context(), payload)
	c.JSON(result.StatusCode, result.Body)
}

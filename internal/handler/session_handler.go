package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"change-intake-service/internal/dto"
	"change-intake-service/internal/response"
	"change-intake-service/internal/service"
)

// SessionHandler serves the form side of an intake session
type SessionHandler struct {
	intakeService service.IntakeService
	logger        *zap.Logger
}

func NewSessionHandler(intakeService service.IntakeService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		intakeService: intakeService,
		logger:        logger,
	}
}

// CreateSession hands out a new session id
// @Router /sessions [post]
func (h *SessionHandler) CreateSession(c *gin.Context) {
	response.SendSuccess(c, http.StatusCreated, dto.CreateSessionResponse{
		SessionID: h.intakeService.NewSessionID(),
	})
}

// GetSession loads the stored state of a session
// @Router /sessions/{sessionId} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	session, err := h.intakeService.LoadSession(c.Request.Context(), c.Param("sessionId"))
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, session)
}

// SaveFields autosaves field edits. The result is reported with status 200
// even when the engine rejected it.
// @Router /sessions/{sessionId}/fields [post]
func (h *SessionHandler) SaveFields(c *gin.Context) {
	var req dto.AutosaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}
	req.SessionID = c.Param("sessionId")

	c.JSON(http.StatusOK, h.intakeService.Autosave(c.Request.Context(), &req))
}

// SaveClassification classifies the questionnaire and stores the tier
// @Router /sessions/{sessionId}/classification [post]
func (h *SessionHandler) SaveClassification(c *gin.Context) {
	var req dto.ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Bitte beantworte alle vier Fragen")
		return
	}

	result, err := h.intakeService.SaveClassification(c.Request.Context(), c.Param("sessionId"), &req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, result)
}

// Submit validates and forwards the complete form
// @Router /sessions/{sessionId}/submit [post]
func (h *SessionHandler) Submit(c *gin.Context) {
	var req dto.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	result, err := h.intakeService.Submit(c.Request.Context(), c.Param("sessionId"), &req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, result)
}

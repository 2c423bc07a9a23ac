package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"change-intake-service/internal/dto"
	"change-intake-service/internal/response"
	"change-intake-service/internal/service"
)

// FormHandler exposes the rule engine
type FormHandler struct {
	formService service.FormService
	logger      *zap.Logger
}

func NewFormHandler(formService service.FormService, logger *zap.Logger) *FormHandler {
	return &FormHandler{
		formService: formService,
		logger:      logger,
	}
}

// GetQuestionnaire returns the four classification questions
// @Router /questionnaire [get]
func (h *FormHandler) GetQuestionnaire(c *gin.Context) {
	response.SendSuccess(c, http.StatusOK, h.formService.Questionnaire())
}

// Classify maps questionnaire answers to a tier
// @Router /classify [post]
func (h *FormHandler) Classify(c *gin.Context) {
	var req dto.ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Bitte beantworte alle vier Fragen")
		return
	}

	result, err := h.formService.Classify(&req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, result)
}

// GetTiers lists the tiers with their field counts
// @Router /tiers [get]
func (h *FormHandler) GetTiers(c *gin.Context) {
	response.SendSuccess(c, http.StatusOK, h.formService.Tiers())
}

// GetCatalog returns the form layout of a tier. include_hidden=true also
// lists the fields the tier hides.
// @Router /catalog [get]
func (h *FormHandler) GetCatalog(c *gin.Context) {
	includeHidden, _ := strconv.ParseBool(c.DefaultQuery("include_hidden", "false"))

	result, err := h.formService.Catalog(c.Query("tier"), includeHidden)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, result)
}

// Validate checks form values against a tier
// @Router /validate [post]
func (h *FormHandler) Validate(c *gin.Context) {
	var req dto.ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.SendError(c, http.StatusBadRequest, response.ErrCodeValidation, "Invalid request body")
		return
	}

	result, err := h.formService.Validate(&req)
	if err != nil {
		handleServiceError(c, h.logger, err)
		return
	}

	response.SendSuccess(c, http.StatusOK, result)
}

// GetRuleReport reports inconsistencies of the active rule table
// @Router /rules/report [get]
func (h *FormHandler) GetRuleReport(c *gin.Context) {
	report := h.formService.TableReport()
	response.SendSuccess(c, http.StatusOK, gin.H{
		"ok":       report.OK(),
		"problems": report.Problems,
	})
}

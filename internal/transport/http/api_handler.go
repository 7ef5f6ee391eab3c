package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"survey-builder/internal/domain"
)

// SurveyAPI is the generation service as used by the REST handlers.
type SurveyAPI interface {
	Generate(ctx context.Context, req domain.GenerateRequest) (domain.Survey, error)
	SaveResponse(ctx context.Context, surveyID string, answers map[string]any) (int64, error)
}

type APIHandler struct {
	surveys SurveyAPI
	logger  *zap.Logger
}

func NewAPIHandler(surveys SurveyAPI, logger *zap.Logger) *APIHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &APIHandler{surveys: surveys, logger: logger}
}

type generateRequest struct {
	Description  string  `json:"description" binding:"required,min=5,max=500"`
	NumQuestions *int    `json:"num_questions" binding:"omitempty,min=3,max=20"`
	Language     *string `json:"language"`
}

type surveyURI struct {
	ID string `uri:"id" binding:"required,max=64"`
}

type saveResponsesRequest struct {
	Answers map[string]any `json:"answers" binding:"required"`
}

// GenerateSurvey handles POST /{api,v1}/surveys/generate.
func (h *APIHandler) GenerateSurvey(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}

	genReq := domain.GenerateRequest{Description: req.Description}
	if req.NumQuestions != nil {
		genReq.NumQuestions = *req.NumQuestions
	}
	if req.Language != nil {
		genReq.Language = *req.Language
	}

	survey, err := h.surveys.Generate(c.Request.Context(), genReq)
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	case err != nil:
		h.logger.Error("generate survey failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, domain.GenerateResponse{Survey: survey})
}

// SaveResponses handles POST /{api,v1}/surveys/:id/responses.
func (h *APIHandler) SaveResponses(c *gin.Context) {
	var uri surveyURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	var req saveResponsesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	}
	id, err := h.surveys.SaveResponse(c.Request.Context(), uri.ID, req.Answers)
	switch {
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrSurveyIDRequired):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"detail": err.Error()})
		return
	case err != nil:
		h.logger.Error("save response failed", zap.String("survey_id", uri.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"detail": err.Error()})
		return
	}
	c.JSON(http.StatusOK, domain.SaveResponsesResponse{Success: true, ResponseID: id})
}

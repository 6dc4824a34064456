package handler

import (
	"net/http"

	"feedbacksurvey/internal/model"
	"feedbacksurvey/internal/survey"
)

// QuestionnaireHandler exposes the active question list
type QuestionnaireHandler struct {
	q *survey.Questionnaire
}

// NewQuestionnaireHandler creates a new questionnaire handler
func NewQuestionnaireHandler(q *survey.Questionnaire) *QuestionnaireHandler {
	return &QuestionnaireHandler{q: q}
}

// QuestionnaireResponse lists the questions in order
type QuestionnaireResponse struct {
	Questions []model.Question `json:"questions"`
}

// Get handles GET /v1/questionnaire
//
//	@Summary	Active questionnaire
//	@Tags		survey
//	@Produce	json
//	@Success	200	{object}	QuestionnaireResponse
//	@Router		/questionnaire [get]
func (h *QuestionnaireHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, QuestionnaireResponse{Questions: h.q.Questions()})
}

package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"feedbacksurvey/internal/model"
	"feedbacksurvey/internal/service"
	"feedbacksurvey/internal/transport/rest/middleware"
)

// SessionHandler drives a respondent's survey session
type SessionHandler struct {
	sessionSvc *service.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionSvc *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionSvc: sessionSvc}
}

// AnswerRequest is the request body for answering the current question.
// Answer is a number for rating questions and a string for text questions.
type AnswerRequest struct {
	Answer *model.AnswerValue `json:"answer" swaggertype:"primitive,string"`
}

// SubmitRequest is the optional request body for submitting. When Confirmed
// is omitted the confirmation is asked over the session's WebSocket.
type SubmitRequest struct {
	Confirmed *bool `json:"confirmed,omitempty"`
}

// Create handles POST /v1/sessions
//
//	@Summary	Open a survey session
//	@Tags		session
//	@Produce	json
//	@Success	201	{object}	model.SessionCreated
//	@Router		/sessions [post]
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	created, err := h.sessionSvc.Create(r.Context(), service.ChannelWeb)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Get handles GET /v1/session
//
//	@Summary	Current view
//	@Tags		session
//	@Produce	json
//	@Security	SessionToken
//	@Success	200	{object}	model.SurveyView
//	@Failure	404	{object}	ErrorResponse
//	@Router		/session [get]
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.sessionSvc.View(r.Context(), middleware.GetSessionID(r.Context()))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// Start handles POST /v1/session/start
//
//	@Summary	Leave the welcome screen
//	@Tags		session
//	@Produce	json
//	@Security	SessionToken
//	@Success	200	{object}	model.OperationResult
//	@Failure	409	{object}	ErrorResponse
//	@Router		/session/start [post]
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	res, err := h.sessionSvc.Start(r.Context(), middleware.GetSessionID(r.Context()))
	h.respond(w, res, err)
}

// Answer handles POST /v1/session/answer
//
//	@Summary	Answer the current question
//	@Tags		session
//	@Accept		json
//	@Produce	json
//	@Security	SessionToken
//	@Param		body	body		AnswerRequest	true	"answer"
//	@Success	200		{object}	model.OperationResult
//	@Failure	400		{object}	ErrorResponse
//	@Failure	409		{object}	ErrorResponse
//	@Router		/session/answer [post]
func (h *SessionHandler) Answer(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if errors.Is(err, model.ErrInvalidAnswerValue) {
			writeServiceError(w, err)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Answer == nil {
		writeError(w, http.StatusBadRequest, "answer is required")
		return
	}

	res, err := h.sessionSvc.Answer(r.Context(), middleware.GetSessionID(r.Context()), *req.Answer)
	h.respond(w, res, err)
}

// Previous handles POST /v1/session/previous
//
//	@Summary	Go back one question
//	@Tags		session
//	@Produce	json
//	@Security	SessionToken
//	@Success	200	{object}	model.OperationResult
//	@Failure	409	{object}	ErrorResponse
//	@Router		/session/previous [post]
func (h *SessionHandler) Previous(w http.ResponseWriter, r *http.Request) {
	res, err := h.sessionSvc.Previous(r.Context(), middleware.GetSessionID(r.Context()))
	h.respond(w, res, err)
}

// Next handles POST /v1/session/next
//
//	@Summary	Go forward one question
//	@Tags		session
//	@Produce	json
//	@Security	SessionToken
//	@Success	200	{object}	model.OperationResult
//	@Failure	409	{object}	ErrorResponse
//	@Router		/session/next [post]
func (h *SessionHandler) Next(w http.ResponseWriter, r *http.Request) {
	res, err := h.sessionSvc.Next(r.Context(), middleware.GetSessionID(r.Context()))
	h.respond(w, res, err)
}

// Submit handles POST /v1/session/submit
//
//	@Summary	Submit the survey
//	@Tags		session
//	@Accept		json
//	@Produce	json
//	@Security	SessionToken
//	@Param		body	body		SubmitRequest	false	"pre-answered confirmation"
//	@Success	200		{object}	model.OperationResult
//	@Failure	409		{object}	ErrorResponse
//	@Router		/session/submit [post]
func (h *SessionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	res, err := h.sessionSvc.Submit(r.Context(), middleware.GetSessionID(r.Context()), req.Confirmed)
	h.respond(w, res, err)
}

// Delete handles DELETE /v1/session
//
//	@Summary	Close the session
//	@Tags		session
//	@Security	SessionToken
//	@Success	204
//	@Failure	404	{object}	ErrorResponse
//	@Router		/session [delete]
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.sessionSvc.Close(r.Context(), middleware.GetSessionID(r.Context())); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *SessionHandler) respond(w http.ResponseWriter, res *model.OperationResult, err error) {
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

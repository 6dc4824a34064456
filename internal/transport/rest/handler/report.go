package handler

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"feedbacksurvey/internal/service"
	"feedbacksurvey/internal/transport/rest/middleware"
)

// ReportHandler handles host report endpoints
type ReportHandler struct {
	responseSvc *service.ResponseService
	sessionSvc  *service.SessionService
}

// NewReportHandler creates a new report handler
func NewReportHandler(responseSvc *service.ResponseService, sessionSvc *service.SessionService) *ReportHandler {
	return &ReportHandler{
		responseSvc: responseSvc,
		sessionSvc:  sessionSvc,
	}
}

// ListResponses handles GET /v1/responses?limit=
//
//	@Summary	Recent submissions
//	@Tags		reports
//	@Produce	json
//	@Security	HostToken
//	@Param		limit	query		int	false	"max results"
//	@Success	200		{array}		model.Response
//	@Router		/responses [get]
func (h *ReportHandler) ListResponses(w http.ResponseWriter, r *http.Request) {
	if middleware.GetHostID(r.Context()) == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}

	responses, err := h.responseSvc.List(r.Context(), limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, responses)
}

// GetResponse handles GET /v1/responses/{id}
//
//	@Summary	One submission
//	@Tags		reports
//	@Produce	json
//	@Security	HostToken
//	@Param		id	path		string	true	"response id"
//	@Success	200	{object}	model.Response
//	@Failure	404	{object}	ErrorResponse
//	@Router		/responses/{id} [get]
func (h *ReportHandler) GetResponse(w http.ResponseWriter, r *http.Request) {
	resp, err := h.responseSvc.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// Stats handles GET /v1/stats
//
//	@Summary	Per-question answer distribution
//	@Tags		reports
//	@Produce	json
//	@Security	HostToken
//	@Success	200	{object}	model.StatsReport
//	@Router		/stats [get]
func (h *ReportHandler) Stats(w http.ResponseWriter, r *http.Request) {
	report, err := h.responseSvc.Stats(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// SessionSnapshot handles GET /v1/sessions/{id}
//
//	@Summary	Mirrored state of a live session
//	@Tags		reports
//	@Produce	json
//	@Security	HostToken
//	@Param		id	path		string	true	"session id"
//	@Success	200	{object}	model.SessionSnapshot
//	@Failure	404	{object}	ErrorResponse
//	@Router		/sessions/{id} [get]
func (h *ReportHandler) SessionSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.sessionSvc.Snapshot(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

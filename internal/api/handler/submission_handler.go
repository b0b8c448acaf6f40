package handler

import (
	"net/http"

	"skillwise/internal/app/service"
	"skillwise/internal/common"

	"github.com/go-chi/chi/v5"
)

// SubmissionHandler serves attempts nested under /challenges/{challengeID}.
type SubmissionHandler struct {
	submissionService *service.SubmissionService
}

func NewSubmissionHandler(ss *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionService: ss}
}

func (h *SubmissionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listSubmissions)
	r.Post("/", h.createSubmission)
}

func (h *SubmissionHandler) createSubmission(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	challengeID, ok := idParam(w, r, "challengeID")
	if !ok {
		return
	}
	var req service.CreateSubmissionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	submission, err := h.submissionService.CreateSubmission(r.Context(), challengeID, userID, req)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithData(w, http.StatusCreated, "Submission recorded", submission)
}

func (h *SubmissionHandler) listSubmissions(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	challengeID, ok := idParam(w, r, "challengeID")
	if !ok {
		return
	}
	submissions, err := h.submissionService.GetSubmissions(r.Context(), challengeID, userID)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, "", submissions)
}

package handler

import (
	"net/http"
	"strconv"

	"skillwise/internal/app/service"
	"skillwise/internal/common"
	"skillwise/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type ProgressHandler struct {
	progressService *service.ProgressService
}

func NewProgressHandler(ps *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progressService: ps}
}

func (h *ProgressHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.summary)
	r.Get("/overview", h.overview)
	r.Get("/activity", h.activity)
	r.Get("/analytics", h.analytics)
	r.Get("/stats", h.analytics)
	r.Get("/skills", h.skills)
	r.Get("/milestones", h.milestones)
	r.Post("/event", h.trackEvent)
}

func (h *ProgressHandler) summary(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	summary, err := h.progressService.Summary(r.Context(), userID)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, "", summary)
}

func (h *ProgressHandler) overview(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	overview, err := h.progressService.Overview(r.Context(), userID)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, "", overview)
}

func (h *ProgressHandler) activity(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var q service.ActivityQuery
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil {
			common.RespondWithError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		q.Limit = limit
	}
	if raw := r.URL.Query().Get("since"); raw != "" {
		since, err := model.ParseFlexibleTime(raw)
		if err != nil {
			common.RespondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
		q.Since = &since
	}
	items, err := h.progressService.Activity(r.Context(), userID, q)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, "", items)
}

func (h *ProgressHandler) analytics(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	analytics, err := h.progressService.Analytics(r.Context(), userID, r.URL.Query().Get("timeframe"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, "", analytics)
}

func (h *ProgressHandler) skills(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	skills, err := h.progressService.Skills(r.Context(), userID, r.URL.Query().Get("timeframe"))
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, "", skills)
}

func (h *ProgressHandler) milestones(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	milestones, err := h.progressService.Milestones(r.Context(), userID)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, "", milestones)
}

func (h *ProgressHandler) trackEvent(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in model.TrackEventInput
	if !decodeJSON(w, r, &in) {
		return
	}
	event, err := h.progressService.TrackEvent(r.Context(), userID, in)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithData(w, http.StatusCreated, "Event tracked", event)
}

package handler

import (
	"net/http"

	"skillwise/internal/app/service"
	"skillwise/internal/common"
	"skillwise/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type GoalHandler struct {
	goalService *service.GoalService
}

func NewGoalHandler(gs *service.GoalService) *GoalHandler {
	return &GoalHandler{goalService: gs}
}

func (h *GoalHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listGoals)
	r.Post("/", h.createGoal)
	r.Get("/{goalID}", h.getGoal)
	r.Put("/{goalID}", h.updateGoal)
	r.Delete("/{goalID}", h.deleteGoal)
}

func (h *GoalHandler) listGoals(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	goals, err := h.goalService.GetGoals(r.Context(), userID)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	if goals == nil {
		goals = []model.Goal{}
	}
	common.RespondWithData(w, http.StatusOK, "", goals)
}

func (h *GoalHandler) getGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	goalID, ok := idParam(w, r, "goalID")
	if !ok {
		return
	}
	goal, err := h.goalService.GetGoal(r.Context(), goalID, userID)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, "", goal)
}

func (h *GoalHandler) createGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in model.GoalInput
	if !decodeJSON(w, r, &in) {
		return
	}
	goal, err := h.goalService.CreateGoal(r.Context(), userID, in)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithData(w, http.StatusCreated, "Goal created successfully", goal)
}

func (h *GoalHandler) updateGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	goalID, ok := idParam(w, r, "goalID")
	if !ok {
		return
	}
	var patch model.GoalPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	goal, err := h.goalService.UpdateGoal(r.Context(), goalID, userID, patch)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, "Goal updated successfully", goal)
}

func (h *GoalHandler) deleteGoal(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	goalID, ok := idParam(w, r, "goalID")
	if !ok {
		return
	}
	deleted, err := h.goalService.DeleteGoal(r.Context(), goalID, userID)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	if deleted == 0 {
		common.RespondWithError(w, http.StatusNotFound, "Goal not found")
		return
	}
	common.RespondWithData(w, http.StatusOK, "Goal deleted successfully", nil)
}

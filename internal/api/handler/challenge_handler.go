package handler

import (
	"net/http"
	"strconv"

	"skillwise/internal/app/service"
	"skillwise/internal/common"
	"skillwise/internal/domain/model"

	"github.com/go-chi/chi/v5"
)

type ChallengeHandler struct {
	challengeService  *service.ChallengeService
	completionService *service.CompletionService
	submissions       *SubmissionHandler
}

func NewChallengeHandler(cs *service.ChallengeService, completion *service.CompletionService, submissions *SubmissionHandler) *ChallengeHandler {
	return &ChallengeHandler{challengeService: cs, completionService: completion, submissions: submissions}
}

func (h *ChallengeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.listChallenges)
	r.Post("/", h.createChallenge)
	r.Route("/{challengeID}", func(r chi.Router) {
		r.Get("/", h.getChallenge)
		r.Put("/", h.updateChallenge)
		r.Delete("/", h.deleteChallenge)
		r.Post("/complete", h.completeChallenge)
		r.Route("/submissions", h.submissions.RegisterRoutes)
	})
}

// parseChallengeFilter reads category, difficulty, isActive and goalId.
func parseChallengeFilter(r *http.Request) (model.ChallengeFilter, error) {
	q := r.URL.Query()
	filter := model.ChallengeFilter{Category: q.Get("category")}
	if raw := q.Get("difficulty"); raw != "" {
		d, ok := model.ParseChallengeDifficulty(raw)
		if !ok {
			return filter, common.Invalid("difficulty must be one of Easy, Medium, Hard")
		}
		filter.Difficulty = d
	}
	if raw := q.Get("isActive"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return filter, common.Invalid("isActive must be true or false")
		}
		filter.IsActive = &active
	}
	if raw := q.Get("goalId"); raw != "" {
		goalID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || goalID <= 0 {
			return filter, common.Invalid("goalId must be a positive integer")
		}
		filter.GoalID = &goalID
	}
	return filter, nil
}

func (h *ChallengeHandler) listChallenges(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	filter, err := parseChallengeFilter(r)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	challenges, err := h.challengeService.GetChallenges(r.Context(), userID, filter)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	if challenges == nil {
		challenges = []model.Challenge{}
	}
	common.RespondWithData(w, http.StatusOK, "", challenges)
}

func (h *ChallengeHandler) getChallenge(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	challengeID, ok := idParam(w, r, "challengeID")
	if !ok {
		return
	}
	challenge, err := h.challengeService.GetChallenge(r.Context(), challengeID, userID)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, "", challenge)
}

func (h *ChallengeHandler) createChallenge(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var in model.ChallengeInput
	if !decodeJSON(w, r, &in) {
		return
	}
	challenge, err := h.challengeService.CreateChallenge(r.Context(), userID, in)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithData(w, http.StatusCreated, "Challenge created successfully", challenge)
}

func (h *ChallengeHandler) updateChallenge(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	challengeID, ok := idParam(w, r, "challengeID")
	if !ok {
		return
	}
	var patch model.ChallengePatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	challenge, err := h.challengeService.UpdateChallenge(r.Context(), challengeID, userID, patch)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, "Challenge updated successfully", challenge)
}

func (h *ChallengeHandler) deleteChallenge(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	challengeID, ok := idParam(w, r, "challengeID")
	if !ok {
		return
	}
	deleted, err := h.challengeService.DeleteChallenge(r.Context(), challengeID, userID)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	if deleted == 0 {
		common.RespondWithError(w, http.StatusNotFound, "Challenge not found")
		return
	}
	common.RespondWithData(w, http.StatusOK, "Challenge deleted successfully", nil)
}

func (h *ChallengeHandler) completeChallenge(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	challengeID, ok := idParam(w, r, "challengeID")
	if !ok {
		return
	}
	challenge, err := h.completionService.CompleteChallenge(r.Context(), challengeID, userID)
	if err != nil {
		common.RespondWithDomainError(w, err)
		return
	}
	common.RespondWithData(w, http.StatusOK, "Challenge completed", challenge)
}

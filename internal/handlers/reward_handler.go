package handlers

import (
	"net/http"

	"kidcoins/internal/models"
	"kidcoins/internal/service"

	"github.com/sirupsen/logrus"
)

// RewardHandler handles reward catalog HTTP requests
type RewardHandler struct {
	rewardService *service.RewardService
	log           *logrus.Logger
}

// NewRewardHandler creates a new reward handler
func NewRewardHandler(rewardService *service.RewardService, log *logrus.Logger) *RewardHandler {
	return &RewardHandler{rewardService: rewardService, log: log}
}

type createRewardRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	CostCoins   int64  `json:"costCoins"`
	Icon        string `json:"icon"`
}

// Create handles POST /api/rewards
func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRewardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, err)
		return
	}

	reward, err := h.rewardService.Create(r.Context(), GetActorFromContext(r.Context()), models.Reward{
		Title:       req.Title,
		Description: req.Description,
		CostCoins:   req.CostCoins,
		Icon:        req.Icon,
	})
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, reward)
}

// List returns the parent's own catalog, or for a child the active
// rewards of every linked parent
func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	actor := GetActorFromContext(r.Context())

	var rewards []models.Reward
	var err error
	if actor.IsChild() {
		rewards, err = h.rewardService.ListForChild(r.Context(), actor)
	} else {
		rewards, err = h.rewardService.ListByParent(r.Context(), actor)
	}
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, rewards)
}

// Get handles GET /api/rewards/{id}
func (h *RewardHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}

	reward, err := h.rewardService.GetByID(r.Context(), GetActorFromContext(r.Context()), id)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, reward)
}

// Update handles PATCH /api/rewards/{id}
func (h *RewardHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	var update models.RewardUpdate
	if err := decodeJSON(w, r, &update); err != nil {
		respondWithError(w, h.log, err)
		return
	}

	reward, err := h.rewardService.Update(r.Context(), GetActorFromContext(r.Context()), id, update)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, reward)
}

// Delete handles DELETE /api/rewards/{id}
func (h *RewardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}

	if err := h.rewardService.Delete(r.Context(), GetActorFromContext(r.Context()), id); err != nil {
		respondWithError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

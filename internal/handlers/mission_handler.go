package handlers

import (
	"context"
	"net/http"

	"kidcoins/internal/models"
	"kidcoins/internal/service"

	"github.com/sirupsen/logrus"
)

// MissionHandler handles mission HTTP requests
type MissionHandler struct {
	missionService *service.MissionService
	log            *logrus.Logger
}

// NewMissionHandler creates a new mission handler
func NewMissionHandler(missionService *service.MissionService, log *logrus.Logger) *MissionHandler {
	return &MissionHandler{missionService: missionService, log: log}
}

// Create handles POST /api/missions
func (h *MissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input models.NewMission
	if err := decodeJSON(w, r, &input); err != nil {
		respondWithError(w, h.log, err)
		return
	}

	mission, err := h.missionService.Create(r.Context(), GetActorFromContext(r.Context()), input)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, mission)
}

// Get handles GET /api/missions/{id}
func (h *MissionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}

	mission, err := h.missionService.GetByID(r.Context(), GetActorFromContext(r.Context()), id)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, mission)
}

// ListMine returns the missions the signed-in parent created
func (h *MissionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	missions, err := h.missionService.ListByParent(r.Context(), GetActorFromContext(r.Context()))
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, missions)
}

// ListForChild handles GET /api/children/{childId}/missions
func (h *MissionHandler) ListForChild(w http.ResponseWriter, r *http.Request) {
	childID, err := pathID(r, "childId")
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}

	missions, err := h.missionService.ListForChild(r.Context(), GetActorFromContext(r.Context()), childID)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, missions)
}

// Complete handles POST /api/missions/{id}/complete
func (h *MissionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.missionService.MarkCompleted)
}

// Approve handles POST /api/missions/{id}/approve
func (h *MissionHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.missionService.Approve)
}

// Reject handles POST /api/missions/{id}/reject
func (h *MissionHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, h.missionService.Reject)
}

// Delete handles DELETE /api/missions/{id}
func (h *MissionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}

	if err := h.missionService.Delete(r.Context(), GetActorFromContext(r.Context()), id); err != nil {
		respondWithError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type missionTransition func(ctx context.Context, actor service.Actor, missionID int64) (*models.Mission, error)

func (h *MissionHandler) transition(w http.ResponseWriter, r *http.Request, apply missionTransition) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}

	mission, err := apply(r.Context(), GetActorFromContext(r.Context()), id)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, mission)
}

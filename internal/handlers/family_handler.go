package handlers

import (
	"net/http"

	"kidcoins/internal/service"

	"github.com/sirupsen/logrus"
)

// FamilyHandler serves invitation codes and the parent/child graph
type FamilyHandler struct {
	familyService *service.FamilyService
	log           *logrus.Logger
}

// NewFamilyHandler creates a new family handler
func NewFamilyHandler(familyService *service.FamilyService, log *logrus.Logger) *FamilyHandler {
	return &FamilyHandler{familyService: familyService, log: log}
}

type emailCodeRequest struct {
	Email string `json:"email"`
}

// GenerateInvitationCode returns the parent's active code, creating one if needed
func (h *FamilyHandler) GenerateInvitationCode(w http.ResponseWriter, r *http.Request) {
	code, err := h.familyService.IssueCode(r.Context(), GetActorFromContext(r.Context()))
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, code)
}

// EmailInvitationCode sends the parent's active code to an address
func (h *FamilyHandler) EmailInvitationCode(w http.ResponseWriter, r *http.Request) {
	var req emailCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, err)
		return
	}

	code, err := h.familyService.EmailInvitationCode(r.Context(), GetActorFromContext(r.Context()), req.Email)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, code)
}

// GetChildren lists the parent's children with their balances
func (h *FamilyHandler) GetChildren(w http.ResponseWriter, r *http.Request) {
	children, err := h.familyService.GetChildren(r.Context(), GetActorFromContext(r.Context()))
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, children)
}

// GetParents lists the child's parents
func (h *FamilyHandler) GetParents(w http.ResponseWriter, r *http.Request) {
	parents, err := h.familyService.GetParents(r.Context(), GetActorFromContext(r.Context()))
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, parents)
}

package handlers

import (
	"net/http"

	"kidcoins/internal/models"
	"kidcoins/internal/service"

	"github.com/sirupsen/logrus"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService   *service.AuthService
	familyService *service.FamilyService
	log           *logrus.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, familyService *service.FamilyService, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		familyService: familyService,
		log:           log,
	}
}

type signUpRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Name     string      `json:"name"`
	Role     models.Role `json:"role"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type invitationCodeRequest struct {
	Code string `json:"code"`
}

type useInvitationCodeResponse struct {
	Success  bool  `json:"success"`
	ParentID int64 `json:"parentId"`
}

// SignUp handles POST /api/auth/signup
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, err)
		return
	}

	result, err := h.authService.SignUp(r.Context(), req.Email, req.Password, req.Name, req.Role)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, result)
}

// SignIn handles POST /api/auth/signin
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, err)
		return
	}

	result, err := h.authService.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// SignOut revokes the bearer token of the request
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.SignOut(r.Context(), GetClaimsFromContext(r.Context())); err != nil {
		respondWithError(w, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Me returns the signed-in account
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.Me(r.Context(), GetActorFromContext(r.Context()))
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// UseInvitationCode links the signed-in child to the code's parent
func (h *AuthHandler) UseInvitationCode(w http.ResponseWriter, r *http.Request) {
	var req invitationCodeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, err)
		return
	}

	parentID, err := h.familyService.Consume(r.Context(), GetActorFromContext(r.Context()), req.Code)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, useInvitationCodeResponse{Success: true, ParentID: parentID})
}

// GetInvitationCode returns the parent's active code without creating one
func (h *AuthHandler) GetInvitationCode(w http.ResponseWriter, r *http.Request) {
	code, err := h.familyService.CurrentCode(r.Context(), GetActorFromContext(r.Context()))
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, code)
}

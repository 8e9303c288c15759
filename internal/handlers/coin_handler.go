package handlers

import (
	"net/http"
	"strconv"

	"kidcoins/internal/apperr"
	"kidcoins/internal/service"

	"github.com/sirupsen/logrus"
)

// CoinHandler serves balances, the ledger and reward redemptions
type CoinHandler struct {
	ledgerService     *service.LedgerService
	redemptionService *service.RedemptionService
	log               *logrus.Logger
}

// NewCoinHandler creates a new coin handler
func NewCoinHandler(ledgerService *service.LedgerService, redemptionService *service.RedemptionService, log *logrus.Logger) *CoinHandler {
	return &CoinHandler{
		ledgerService:     ledgerService,
		redemptionService: redemptionService,
		log:               log,
	}
}

type redeemRequest struct {
	RewardID int64 `json:"rewardId"`
}

type adjustRequest struct {
	ChildID     int64  `json:"childId"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
}

// targetChild returns the childId query parameter, defaulting to the actor
// when the actor is a child
func targetChild(r *http.Request, actor service.Actor) (int64, error) {
	childID, ok, err := queryID(r, "childId")
	if err != nil {
		return 0, err
	}
	if ok {
		return childID, nil
	}
	if actor.IsChild() {
		return actor.ID, nil
	}
	return 0, apperr.Validation("childId is required")
}

// GetBalance handles GET /api/coins/balance
func (h *CoinHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	actor := GetActorFromContext(r.Context())
	childID, err := targetChild(r, actor)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}

	summary, err := h.ledgerService.Summary(r.Context(), actor, childID)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// GetTransactions handles GET /api/coins/transactions
func (h *CoinHandler) GetTransactions(w http.ResponseWriter, r *http.Request) {
	actor := GetActorFromContext(r.Context())
	childID, err := targetChild(r, actor)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respondWithError(w, h.log, apperr.Validation("limit must be a non-negative integer"))
			return
		}
	}

	txs, err := h.ledgerService.Transactions(r.Context(), actor, childID, limit)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, txs)
}

// Adjust handles POST /api/coins/adjust
func (h *CoinHandler) Adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, err)
		return
	}

	entry, err := h.ledgerService.Adjust(r.Context(), GetActorFromContext(r.Context()), req.ChildID, req.Amount, req.Description)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, entry)
}

// Redeem handles POST /api/coins/redeem
func (h *CoinHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	var req redeemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, err)
		return
	}

	redemption, err := h.redemptionService.Redeem(r.Context(), GetActorFromContext(r.Context()), req.RewardID)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusCreated, redemption)
}

// ApproveRedemption handles POST /api/redemptions/{id}/approve
func (h *CoinHandler) ApproveRedemption(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}

	redemption, err := h.redemptionService.Approve(r.Context(), GetActorFromContext(r.Context()), id)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, redemption)
}

// RejectRedemption handles POST /api/redemptions/{id}/reject
func (h *CoinHandler) RejectRedemption(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}

	redemption, err := h.redemptionService.Reject(r.Context(), GetActorFromContext(r.Context()), id)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, redemption)
}

// ListPendingRedemptions returns redemptions awaiting the parent's decision
func (h *CoinHandler) ListPendingRedemptions(w http.ResponseWriter, r *http.Request) {
	pending, err := h.redemptionService.ListPendingForParent(r.Context(), GetActorFromContext(r.Context()))
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, pending)
}

// ListRedemptions handles GET /api/children/{childId}/redemptions
func (h *CoinHandler) ListRedemptions(w http.ResponseWriter, r *http.Request) {
	childID, err := pathID(r, "childId")
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}

	redemptions, err := h.redemptionService.ListByChild(r.Context(), GetActorFromContext(r.Context()), childID)
	if err != nil {
		respondWithError(w, h.log, err)
		return
	}
	respondJSON(w, http.StatusOK, redemptions)
}

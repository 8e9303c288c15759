package models

import "time"

// TransactionType classifies a ledger entry
type TransactionType string

const (
	TxMissionEarned    TransactionType = "mission_earned"
	TxRewardRedeemed   TransactionType = "reward_redeemed"
	TxManualAdjustment TransactionType = "manual_adjustment"
)

// CoinTransaction is an append-only ledger entry. Balance is the sum of
// amounts for a user.
type CoinTransaction struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"userId"`
	Amount      int64           `json:"amount"`
	Type        TransactionType `json:"type"`
	RelatedID   *int64          `json:"relatedId,omitempty"`
	Description string          `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}

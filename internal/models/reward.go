package models

import "time"

// Reward is a catalog item a child can redeem coins for
type Reward struct {
	ID          int64     `json:"id"`
	ParentID    int64     `json:"parentId"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CostCoins   int64     `json:"costCoins"`
	Icon        string    `json:"icon,omitempty"`
	IsActive    bool      `json:"isActive"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// RewardUpdate carries the optional fields of a reward edit
type RewardUpdate struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	CostCoins   *int64  `json:"costCoins"`
	Icon        *string `json:"icon"`
	IsActive    *bool   `json:"isActive"`
}

// RedemptionStatus is the lifecycle state of a redemption
type RedemptionStatus string

const (
	RedemptionPending  RedemptionStatus = "pending"
	RedemptionApproved RedemptionStatus = "approved"
	RedemptionRejected RedemptionStatus = "rejected"
)

// RedeemedReward is a child's request to exchange coins for a reward.
// CostCoins is a snapshot taken when the request was made.
type RedeemedReward struct {
	ID          int64            `json:"id"`
	ChildID     int64            `json:"childId"`
	RewardID    int64            `json:"rewardId"`
	CostCoins   int64            `json:"costCoins"`
	Status      RedemptionStatus `json:"status"`
	RedeemedAt  time.Time        `json:"redeemedAt"`
	ProcessedAt *time.Time       `json:"processedAt,omitempty"`
}

// PendingRedemption is a pending request joined with display fields
type PendingRedemption struct {
	RedeemedReward
	ChildName   string `json:"childName"`
	RewardTitle string `json:"rewardTitle"`
	RewardIcon  string `json:"rewardIcon,omitempty"`
}

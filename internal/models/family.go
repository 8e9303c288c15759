package models

import "time"

// FamilyRelation links a parent to a child
type FamilyRelation struct {
	ID        int64     `json:"id"`
	ParentID  int64     `json:"parentId"`
	ChildID   int64     `json:"childId"`
	CreatedAt time.Time `json:"createdAt"`
}

// ChildSummary is a linked child with the derived coin balance
type ChildSummary struct {
	Child         User  `json:"child"`
	CoinBalance   int64 `json:"coinBalance"`
	PendingCoins  int64 `json:"pendingCoins"`
	CurrentStreak int   `json:"currentStreak"`
}

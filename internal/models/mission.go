package models

import "time"

// MissionStatus is the lifecycle state of a mission
type MissionStatus string

const (
	MissionPending   MissionStatus = "pending"
	MissionCompleted MissionStatus = "completed"
	MissionApproved  MissionStatus = "approved"
	MissionRejected  MissionStatus = "rejected"
)

// IsTerminal reports whether no further transition is allowed
func (s MissionStatus) IsTerminal() bool {
	return s == MissionApproved || s == MissionRejected
}

// Mission is a parent-assigned task with a coin reward
type Mission struct {
	ID          int64         `json:"id"`
	ParentID    int64         `json:"parentId"`
	ChildID     int64         `json:"childId"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	Category    string        `json:"category"`
	RewardCoins int64         `json:"rewardCoins"`
	Status      MissionStatus `json:"status"`
	DueDate     *time.Time    `json:"dueDate,omitempty"`
	CompletedAt *time.Time    `json:"completedAt,omitempty"`
	ApprovedAt  *time.Time    `json:"approvedAt,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt"`
}

// NewMission holds the fields a parent supplies when creating a mission
type NewMission struct {
	ParentID    int64      `json:"-"`
	ChildID     int64      `json:"childId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	RewardCoins int64      `json:"rewardCoins"`
	DueDate     *time.Time `json:"dueDate"`
}

package models

import "time"

// InvitationCode is a single-use token a parent issues to link a child
type InvitationCode struct {
	ID        int64      `json:"id"`
	ParentID  int64      `json:"parentId"`
	Code      string     `json:"code"`
	UsedBy    *int64     `json:"usedBy,omitempty"`
	UsedAt    *time.Time `json:"usedAt,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
}

// IsExpired reports whether the code expired before now
func (c *InvitationCode) IsExpired(now time.Time) bool {
	return c.ExpiresAt != nil && c.ExpiresAt.Before(now)
}

// IsUsed reports whether the code has been consumed
func (c *InvitationCode) IsUsed() bool {
	return c.UsedBy != nil
}

// IsActive reports whether the code can still be consumed
func (c *InvitationCode) IsActive(now time.Time) bool {
	return !c.IsUsed() && !c.IsExpired(now)
}

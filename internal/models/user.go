package models

import "time"

// Role is a user's immutable account role
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleParent Role = "parent"
	RoleChild  Role = "child"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleParent, RoleChild:
		return true
	}
	return false
}

// User represents an account in the family economy
type User struct {
	ID               int64      `json:"id"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	Name             string     `json:"name"`
	Role             Role       `json:"role"`
	CurrentStreak    int        `json:"currentStreak"`
	LastStreakUpdate *time.Time `json:"lastStreakUpdate,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// Session is an issued sign-in token
type Session struct {
	Token     string    `json:"sessionToken"`
	TokenID   string    `json:"-"`
	UserID    int64     `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
}

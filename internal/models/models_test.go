package models

import (
	"testing"
	"time"
)

func TestInvitationCodeState(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	past := now.Add(-1 * time.Second)
	future := now.Add(24 * time.Hour)
	childID := int64(7)

	tests := []struct {
		name        string
		code        InvitationCode
		wantExpired bool
		wantUsed    bool
		wantActive  bool
	}{
		{
			name:       "fresh code",
			code:       InvitationCode{ExpiresAt: &future},
			wantActive: true,
		},
		{
			name:       "no expiry",
			code:       InvitationCode{},
			wantActive: true,
		},
		{
			name:        "just expired",
			code:        InvitationCode{ExpiresAt: &past},
			wantExpired: true,
		},
		{
			name:       "expiring exactly now",
			code:       InvitationCode{ExpiresAt: &now},
			wantActive: true,
		},
		{
			name:     "used",
			code:     InvitationCode{ExpiresAt: &future, UsedBy: &childID, UsedAt: &past},
			wantUsed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.code.IsExpired(now); got != tt.wantExpired {
				t.Errorf("IsExpired() = %v, want %v", got, tt.wantExpired)
			}
			if got := tt.code.IsUsed(); got != tt.wantUsed {
				t.Errorf("IsUsed() = %v, want %v", got, tt.wantUsed)
			}
			if got := tt.code.IsActive(now); got != tt.wantActive {
				t.Errorf("IsActive() = %v, want %v", got, tt.wantActive)
			}
		})
	}
}

func TestMissionStatusIsTerminal(t *testing.T) {
	tests := []struct {
		status MissionStatus
		want   bool
	}{
		{MissionPending, false},
		{MissionCompleted, false},
		{MissionApproved, true},
		{MissionRejected, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			if got := tt.status.IsTerminal(); got != tt.want {
				t.Errorf("IsTerminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRoleValid(t *testing.T) {
	tests := []struct {
		role Role
		want bool
	}{
		{RoleAdmin, true},
		{RoleParent, true},
		{RoleChild, true},
		{"", false},
		{"Parent", false},
		{"guardian", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := tt.role.Valid(); got != tt.want {
				t.Errorf("Role(%q).Valid() = %v, want %v", tt.role, got, tt.want)
			}
		})
	}
}

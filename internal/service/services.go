package service

import (
	"time"

	"kidcoins/internal/security"
)

// Services is the set of services the HTTP layer and CLI use
type Services struct {
	Auth        *AuthService
	Ledger      *LedgerService
	Missions    *MissionService
	Redemptions *RedemptionService
	Rewards     *RewardService
	Family      *FamilyService
	Streaks     *StreakTracker
	Export      *ExportService
}

// Settings holds service-level configuration
type Settings struct {
	StreakLocation *time.Location
	InviteCodeTTL  time.Duration
}

// New wires every service over the shared options
func New(opts Options, settings Settings, tokens *security.TokenManager, revoked security.RevocationList, mailer InvitationMailer) *Services {
	streaks := NewStreakTracker(opts, settings.StreakLocation)
	return &Services{
		Auth:        NewAuthService(opts, tokens, revoked, streaks),
		Ledger:      NewLedgerService(opts),
		Missions:    NewMissionService(opts, streaks),
		Redemptions: NewRedemptionService(opts),
		Rewards:     NewRewardService(opts),
		Family:      NewFamilyService(opts, settings.InviteCodeTTL, mailer),
		Streaks:     streaks,
		Export:      NewExportService(opts),
	}
}

package handlers

import (
	"net/http"

	"kidcoins/internal/metrics"
	"kidcoins/internal/models"
	"kidcoins/internal/security"
	"kidcoins/internal/service"

	"github.com/sirupsen/logrus"
)

// RouterConfig carries everything the HTTP surface depends on
type RouterConfig struct {
	Services *service.Services
	Logger   *logrus.Logger
	Metrics  *metrics.Metrics
	Limiter  *security.RateLimiter
	Health   *HealthHandler
}

// NewRouter registers every route and wraps the mux with access logging
func NewRouter(cfg RouterConfig) http.Handler {
	svc := cfg.Services
	log := cfg.Logger

	middleware := NewMiddleware(svc.Auth, log, cfg.Metrics, cfg.Limiter)
	authHandler := NewAuthHandler(svc.Auth, svc.Family, log)
	familyHandler := NewFamilyHandler(svc.Family, log)
	missionHandler := NewMissionHandler(svc.Missions, log)
	rewardHandler := NewRewardHandler(svc.Rewards, log)
	coinHandler := NewCoinHandler(svc.Ledger, svc.Redemptions, log)
	adminHandler := NewAdminHandler(svc.Export, svc.Family, log)

	parent := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.RequireRole(h, models.RoleParent)
	}
	child := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.RequireRole(h, models.RoleChild)
	}
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.RequireRole(h, models.RoleAdmin)
	}

	mux := http.NewServeMux()

	// Probes and metrics
	if cfg.Health != nil {
		mux.HandleFunc("GET /health", cfg.Health.Live)
		mux.HandleFunc("GET /health/ready", cfg.Health.Ready)
	}
	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}

	// Auth routes
	mux.HandleFunc("POST /api/auth/signup", middleware.RateLimit(authHandler.SignUp))
	mux.HandleFunc("POST /api/auth/signin", middleware.RateLimit(authHandler.SignIn))
	mux.HandleFunc("POST /api/auth/signout", middleware.RequireAuth(authHandler.SignOut))
	mux.HandleFunc("GET /api/auth/me", middleware.RequireAuth(authHandler.Me))
	mux.HandleFunc("GET /api/auth/invitation-code", parent(authHandler.GetInvitationCode))
	mux.HandleFunc("POST /api/auth/invitation-code/use", middleware.RateLimit(child(authHandler.UseInvitationCode)))

	// Family routes
	mux.HandleFunc("POST /api/family/invitation-code", parent(familyHandler.GenerateInvitationCode))
	mux.HandleFunc("POST /api/family/invitation-code/email", parent(familyHandler.EmailInvitationCode))
	mux.HandleFunc("GET /api/family/children", parent(familyHandler.GetChildren))
	mux.HandleFunc("GET /api/family/parents", child(familyHandler.GetParents))

	// Mission routes
	mux.HandleFunc("POST /api/missions", parent(missionHandler.Create))
	mux.HandleFunc("GET /api/missions", parent(missionHandler.ListMine))
	mux.HandleFunc("GET /api/missions/{id}", middleware.RequireAuth(missionHandler.Get))
	mux.HandleFunc("DELETE /api/missions/{id}", parent(missionHandler.Delete))
	mux.HandleFunc("POST /api/missions/{id}/complete", child(missionHandler.Complete))
	mux.HandleFunc("POST /api/missions/{id}/approve", parent(missionHandler.Approve))
	mux.HandleFunc("POST /api/missions/{id}/reject", parent(missionHandler.Reject))
	mux.HandleFunc("GET /api/children/{childId}/missions", middleware.RequireAuth(missionHandler.ListForChild))

	// Reward routes
	mux.HandleFunc("POST /api/rewards", parent(rewardHandler.Create))
	mux.HandleFunc("GET /api/rewards", middleware.RequireAuth(rewardHandler.List))
	mux.HandleFunc("GET /api/rewards/{id}", middleware.RequireAuth(rewardHandler.Get))
	mux.HandleFunc("PATCH /api/rewards/{id}", parent(rewardHandler.Update))
	mux.HandleFunc("DELETE /api/rewards/{id}", parent(rewardHandler.Delete))

	// Coin and redemption routes
	mux.HandleFunc("GET /api/coins/balance", middleware.RequireAuth(coinHandler.GetBalance))
	mux.HandleFunc("GET /api/coins/transactions", middleware.RequireAuth(coinHandler.GetTransactions))
	mux.HandleFunc("POST /api/coins/adjust", middleware.RequireRole(coinHandler.Adjust, models.RoleParent, models.RoleAdmin))
	mux.HandleFunc("POST /api/coins/redeem", child(coinHandler.Redeem))
	mux.HandleFunc("GET /api/redemptions/pending", parent(coinHandler.ListPendingRedemptions))
	mux.HandleFunc("POST /api/redemptions/{id}/approve", parent(coinHandler.ApproveRedemption))
	mux.HandleFunc("POST /api/redemptions/{id}/reject", parent(coinHandler.RejectRedemption))
	mux.HandleFunc("GET /api/children/{childId}/redemptions", middleware.RequireAuth(coinHandler.ListRedemptions))

	// Admin routes
	mux.HandleFunc("GET /api/admin/export", admin(adminHandler.ExportLedger))
	mux.HandleFunc("GET /api/admin/stats", admin(adminHandler.Stats))
	mux.HandleFunc("POST /api/admin/invitation-codes/sweep", admin(adminHandler.SweepInvitationCodes))

	return middleware.Logging(mux)
}

package security

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"kidcoins/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	assert.True(t, CheckPassword(hash, "correct horse"))
	assert.False(t, CheckPassword(hash, "wrong horse"))
	assert.False(t, CheckPassword("not-a-hash", "correct horse"))
	assert.False(t, NeedsRehash(hash))
	assert.True(t, NeedsRehash("not-a-hash"))

	_, err = HashPassword("short")
	assert.Error(t, err)
}

func TestTokenRoundTrip(t *testing.T) {
	manager := NewTokenManager(testSecret, time.Hour)
	user := &models.User{ID: 42, Role: models.RoleChild}

	session, err := manager.Issue(user)
	require.NoError(t, err)
	assert.NotEmpty(t, session.TokenID)

	claims, err := manager.Parse(session.Token)
	require.NoError(t, err)
	assert.Equal(t, models.RoleChild, claims.Role)
	assert.Equal(t, session.TokenID, claims.ID)

	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestTokenRejected(t *testing.T) {
	manager := NewTokenManager(testSecret, time.Hour)
	session, err := manager.Issue(&models.User{ID: 1, Role: models.RoleParent})
	require.NoError(t, err)

	tests := []struct {
		name    string
		manager *TokenManager
		token   string
	}{
		{"garbage", manager, "not.a.token"},
		{"wrong secret", NewTokenManager("ffffffffffffffffffffffffffffffff", time.Hour), session.Token},
		{"expired", func() *TokenManager {
			m := NewTokenManager(testSecret, time.Hour)
			m.Now = func() time.Time { return time.Now().Add(2 * time.Hour) }
			return m
		}(), session.Token},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.manager.Parse(tt.token)
			assert.True(t, errors.Is(err, ErrInvalidToken), "got %v", err)
		})
	}
}

func TestMemoryRevocationList(t *testing.T) {
	ctx := context.Background()
	list := NewMemoryRevocationList()
	now := time.Now()
	list.Now = func() time.Time { return now }

	require.NoError(t, list.Revoke(ctx, "a", now.Add(time.Hour)))
	require.NoError(t, list.Revoke(ctx, "stale", now.Add(-time.Minute)))

	revoked, err := list.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = list.IsRevoked(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, revoked)

	now = now.Add(2 * time.Hour)
	revoked, err = list.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.False(t, revoked, "entries lapse with the token")
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()
	now := time.Now()
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("1.2.3.4"))
	assert.False(t, rl.Allow("1.2.3.4"))
	assert.True(t, rl.Allow("5.6.7.8"), "keys are independent")

	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("1.2.3.4"), "refilled after the window")
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", GetClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", GetClientIP(r))
}

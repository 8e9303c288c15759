package service

import (
	"context"
	"testing"
	"time"

	"kidcoins/internal/apperr"
	"kidcoins/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignUpAndSignIn(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Auth.SignUp(ctx, " Parent@Example.com ", "correct-horse", "Pat", models.RoleParent)
	require.NoError(t, err)
	assert.Equal(t, "parent@example.com", res.User.Email)
	assert.Equal(t, models.RoleParent, res.User.Role)
	assert.NotEqual(t, "correct-horse", res.User.PasswordHash)
	require.NotNil(t, res.Session)
	assert.NotEmpty(t, res.Session.Token)

	actor, claims, err := f.svc.Auth.Authenticate(ctx, res.Session.Token)
	require.NoError(t, err)
	assert.Equal(t, Actor{ID: res.User.ID, Role: models.RoleParent}, actor)
	assert.NotEmpty(t, claims.ID)

	signedIn, err := f.svc.Auth.SignIn(ctx, "parent@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, signedIn.User.ID)
	assert.Equal(t, 1, signedIn.User.CurrentStreak, "sign-in counts as activity")
}

func TestSignUpValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		password string
		userName string
		role     models.Role
		kind     apperr.Kind
	}{
		{"bad email", "nope", "long-enough", "Pat", models.RoleParent, apperr.KindValidation},
		{"short password", "a@example.com", "short", "Pat", models.RoleParent, apperr.KindValidation},
		{"empty name", "a@example.com", "long-enough", "  ", models.RoleParent, apperr.KindValidation},
		{"admin role", "a@example.com", "long-enough", "Pat", models.RoleAdmin, apperr.KindValidation},
		{"unknown role", "a@example.com", "long-enough", "Pat", models.Role("pirate"), apperr.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Auth.SignUp(ctx, tt.email, tt.password, tt.userName, tt.role)
			assert.Equal(t, tt.kind, apperr.KindOf(err))
		})
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Auth.SignUp(ctx, "kid@example.com", "long-enough", "Kim", models.RoleChild)
	require.NoError(t, err)

	_, err = f.svc.Auth.SignUp(ctx, "KID@example.com", "another-one", "Kim", models.RoleChild)
	assert.True(t, apperr.Is(err, apperr.KindConflict))
}

func TestSignInFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Auth.SignUp(ctx, "kid@example.com", "long-enough", "Kim", models.RoleChild)
	require.NoError(t, err)

	_, err = f.svc.Auth.SignIn(ctx, "kid@example.com", "wrong-password")
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))

	_, err2 := f.svc.Auth.SignIn(ctx, "ghost@example.com", "long-enough")
	assert.True(t, apperr.Is(err2, apperr.KindUnauthenticated))
	assert.Equal(t, apperr.Message(err), apperr.Message(err2), "unknown email and wrong password look the same")
}

func TestSignInStreak(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Auth.SignUp(ctx, "kid@example.com", "long-enough", "Kim", models.RoleChild)
	require.NoError(t, err)

	streaks := []int{}
	for _, step := range []time.Duration{0, time.Hour, 24 * time.Hour, 24 * time.Hour, 72 * time.Hour} {
		f.clock.Advance(step)
		res, err := f.svc.Auth.SignIn(ctx, "kid@example.com", "long-enough")
		require.NoError(t, err)
		streaks = append(streaks, res.User.CurrentStreak)
	}
	assert.Equal(t, []int{1, 1, 2, 3, 1}, streaks)
}

func TestSignOutRevokesToken(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Auth.SignUp(ctx, "parent@example.com", "long-enough", "Pat", models.RoleParent)
	require.NoError(t, err)

	_, claims, err := f.svc.Auth.Authenticate(ctx, res.Session.Token)
	require.NoError(t, err)
	require.NoError(t, f.svc.Auth.SignOut(ctx, claims))

	_, _, err = f.svc.Auth.Authenticate(ctx, res.Session.Token)
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))

	err = f.svc.Auth.SignOut(ctx, nil)
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
}

func TestAuthenticateRejectsBadTokens(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, _, err := f.svc.Auth.Authenticate(ctx, "garbage")
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))

	res, err := f.svc.Auth.SignUp(ctx, "parent@example.com", "long-enough", "Pat", models.RoleParent)
	require.NoError(t, err)

	f.clock.Advance(25 * time.Hour)
	_, _, err = f.svc.Auth.Authenticate(ctx, res.Session.Token)
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated), "expired")
}

func TestMe(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	parent := f.user(t, "parent@example.com", models.RoleParent)

	user, err := f.svc.Auth.Me(ctx, parent)
	require.NoError(t, err)
	assert.Equal(t, "parent@example.com", user.Email)

	_, err = f.svc.Auth.Me(ctx, Actor{ID: 9999, Role: models.RoleParent})
	assert.True(t, apperr.Is(err, apperr.KindUnauthenticated))
}

package service

import (
	"context"
	"errors"
	"strings"

	"kidcoins/internal/apperr"
	"kidcoins/internal/models"
	"kidcoins/internal/repository"
	"kidcoins/internal/security"
	"kidcoins/internal/validation"

	"github.com/sirupsen/logrus"
)

var errInvalidCredentials = apperr.New(apperr.KindUnauthenticated, "invalid email or password")

// AuthResult is returned by sign-up and sign-in
type AuthResult struct {
	User    *models.User    `json:"user"`
	Session *models.Session `json:"session"`
}

// AuthService handles accounts and session tokens
type AuthService struct {
	core
	tokens  *security.TokenManager
	revoked security.RevocationList
	streaks *StreakTracker
}

// NewAuthService creates a new auth service
func NewAuthService(opts Options, tokens *security.TokenManager, revoked security.RevocationList, streaks *StreakTracker) *AuthService {
	if revoked == nil {
		revoked = security.NewMemoryRevocationList()
	}
	return &AuthService{core: newCore(opts), tokens: tokens, revoked: revoked, streaks: streaks}
}

// SignUp creates a parent or child account and signs it in
func (s *AuthService) SignUp(ctx context.Context, email, password, name string, role models.Role) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if err := validation.ValidateEmail(email); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if err := validation.ValidateName(name); err != nil {
		return nil, err
	}
	if role != models.RoleParent && role != models.RoleChild {
		return nil, apperr.Validation("role must be parent or child")
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, err
	}

	var user *models.User
	err = s.inTx(ctx, func(st *repository.Store) error {
		var err error
		user, err = st.Users.CreateUser(ctx, email, passwordHash, name, role, s.now())
		if errors.Is(err, repository.ErrDuplicate) {
			return apperr.New(apperr.KindConflict, "email is already registered")
		}
		return err
	})
	if err != nil {
		return nil, s.refused("auth.sign_up", err)
	}

	session, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("user signed up")
	return &AuthResult{User: user, Session: session}, nil
}

// SignIn verifies credentials, counts the day's activity and issues a token
func (s *AuthService) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var user *models.User
	err := s.read(ctx, func(st *repository.Store) error {
		var err error
		user, err = st.Users.GetUserByEmail(ctx, email)
		return err
	})
	if err != nil {
		return nil, err
	}
	if user == nil || !security.CheckPassword(user.PasswordHash, password) {
		return nil, s.refused("auth.sign_in", errInvalidCredentials)
	}

	if s.streaks != nil {
		err = s.inTx(ctx, func(st *repository.Store) error {
			if err := lockUser(ctx, st, user.ID); err != nil {
				return err
			}
			if _, err := s.streaks.touch(ctx, st, user.ID, s.now()); err != nil {
				return err
			}
			var err error
			user, err = st.Users.GetUserByID(ctx, user.ID)
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	session, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	s.log.WithField("user_id", user.ID).Info("user signed in")
	return &AuthResult{User: user, Session: session}, nil
}

// Authenticate turns a bearer token into an actor
func (s *AuthService) Authenticate(ctx context.Context, token string) (Actor, *security.Claims, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return Actor{}, nil, apperr.Wrap(apperr.KindUnauthenticated, err, "invalid or expired session")
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return Actor{}, nil, apperr.Unavailable(err)
	}
	if revoked {
		return Actor{}, nil, apperr.New(apperr.KindUnauthenticated, "session has been signed out")
	}

	userID, err := claims.UserID()
	if err != nil {
		return Actor{}, nil, apperr.Wrap(apperr.KindUnauthenticated, err, "invalid session subject")
	}
	return Actor{ID: userID, Role: claims.Role}, claims, nil
}

// SignOut revokes the token described by claims until it would have expired
func (s *AuthService) SignOut(ctx context.Context, claims *security.Claims) error {
	if claims == nil || claims.ExpiresAt == nil {
		return apperr.New(apperr.KindUnauthenticated, "no active session")
	}
	if err := s.revoked.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		return apperr.Unavailable(err)
	}
	return nil
}

// Me returns the actor's account
func (s *AuthService) Me(ctx context.Context, actor Actor) (*models.User, error) {
	var user *models.User
	err := s.read(ctx, func(st *repository.Store) error {
		var err error
		user, err = st.Users.GetUserByID(ctx, actor.ID)
		if err != nil {
			return err
		}
		if user == nil {
			return apperr.New(apperr.KindUnauthenticated, "account no longer exists")
		}
		return nil
	})
	return user, err
}

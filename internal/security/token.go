package security

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"kidcoins/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const tokenIssuer = "kidcoins"

// ErrInvalidToken is returned for malformed, expired or forged tokens
var ErrInvalidToken = errors.New("invalid session token")

// Claims are the fields carried in a session token
type Claims struct {
	Role models.Role `json:"role"`
	jwt.RegisteredClaims
}

// UserID returns the subject as a user ID
func (c *Claims) UserID() (int64, error) {
	return strconv.ParseInt(c.Subject, 10, 64)
}

// TokenManager issues and verifies HS256 session tokens
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	Now    func() time.Time
}

// NewTokenManager creates a token manager
func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, Now: time.Now}
}

// NewTokenID creates a unique token identifier
func NewTokenID() string {
	return uuid.New().String()
}

// Issue signs a new session token for user
func (m *TokenManager) Issue(user *models.User) (*models.Session, error) {
	now := m.Now()
	expiresAt := now.Add(m.ttl)
	tokenID := NewTokenID()

	claims := Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   strconv.FormatInt(user.ID, 10),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &models.Session{
		Token:     signed,
		TokenID:   tokenID,
		UserID:    user.ID,
		ExpiresAt: expiresAt,
	}, nil
}

// Parse verifies a token and returns its claims
func (m *TokenManager) Parse(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(t *jwt.Token) (interface{}, error) {
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(m.Now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if _, err := claims.UserID(); err != nil || claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

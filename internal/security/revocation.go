package security

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList records signed-out token IDs until they would have expired
type RevocationList interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

const revokedKeyPrefix = "kidcoins:revoked:"

// RedisRevocationList stores revocations as expiring keys so every replica
// sees a sign-out
type RedisRevocationList struct {
	client *redis.Client
	now    func() time.Time
}

// NewRedisRevocationList connects to the server at url (redis://...)
func NewRedisRevocationList(url string) (*RedisRevocationList, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	return &RedisRevocationList{client: redis.NewClient(opts), now: time.Now}, nil
}

func (l *RedisRevocationList) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(l.now())
	if ttl <= 0 {
		return nil
	}
	if err := l.client.Set(ctx, revokedKeyPrefix+tokenID, 1, ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

func (l *RedisRevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := l.client.Get(ctx, revokedKeyPrefix+tokenID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return true, nil
}

// Ping checks the connection
func (l *RedisRevocationList) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// Close closes the client
func (l *RedisRevocationList) Close() error {
	return l.client.Close()
}

// MemoryRevocationList keeps revocations in process. Used when no redis is
// configured; revocations are lost on restart.
type MemoryRevocationList struct {
	mu      sync.Mutex
	revoked map[string]time.Time
	// Now defaults to time.Now
	Now func() time.Time
}

// NewMemoryRevocationList creates an empty in-process list
func NewMemoryRevocationList() *MemoryRevocationList {
	return &MemoryRevocationList{revoked: make(map[string]time.Time), Now: time.Now}
}

func (l *MemoryRevocationList) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.Now()
	for id, until := range l.revoked {
		if !until.After(now) {
			delete(l.revoked, id)
		}
	}
	if expiresAt.After(now) {
		l.revoked[tokenID] = expiresAt
	}
	return nil
}

func (l *MemoryRevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	until, ok := l.revoked[tokenID]
	return ok && until.After(l.Now()), nil
}

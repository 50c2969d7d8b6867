package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList answers whether a token id was revoked before expiry.
// The identity service writes revocations; this service only reads them.
type RevocationList interface {
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

const revokedKeyPrefix = "auth:revoked:"

// RedisRevocationList reads revocations from the shared Redis
type RedisRevocationList struct {
	client redis.UniversalClient
}

// NewRedisRevocationList creates a RedisRevocationList
func NewRedisRevocationList(client redis.UniversalClient) *RedisRevocationList {
	return &RedisRevocationList{client: client}
}

// IsRevoked checks for the revocation key of jti
func (l *RedisRevocationList) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := l.client.Exists(ctx, revokedKeyPrefix+jti).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}
	return n > 0, nil
}

// Revoke marks jti revoked until ttl passes
func (l *RedisRevocationList) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if err := l.client.Set(ctx, revokedKeyPrefix+jti, "1", ttl).Err(); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// InMemoryRevocationList is the single-process RevocationList used in dev
// and tests
type InMemoryRevocationList struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
	now     func() time.Time
}

// NewInMemoryRevocationList creates an empty InMemoryRevocationList
func NewInMemoryRevocationList() *InMemoryRevocationList {
	return &InMemoryRevocationList{revoked: map[string]time.Time{}, now: time.Now}
}

// Revoke marks jti revoked until ttl passes
func (l *InMemoryRevocationList) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.revoked[jti] = l.now().Add(ttl)
	return nil
}

// IsRevoked reports whether jti has an unexpired revocation
func (l *InMemoryRevocationList) IsRevoked(_ context.Context, jti string) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	until, ok := l.revoked[jti]
	return ok && l.now().Before(until), nil
}

var (
	_ RevocationList = (*RedisRevocationList)(nil)
	_ RevocationList = (*InMemoryRevocationList)(nil)
)

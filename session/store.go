package session

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrRefreshNotFound is returned when no refresh entry exists for a subject.
var ErrRefreshNotFound = errors.New("refresh entry not found")

// ErrRedisUnavailable wraps Redis transport failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

// Each blacklist entry stores a fixed marker; presence of the key is the
// revocation signal, the value is never inspected.
const blacklistMarker = "access_token"

// Store persists per-subject refresh tokens and the access-token blacklist
// in Redis. All expiry is store-native TTL; nothing is polled.
type Store struct {
	redis           redis.UniversalClient
	refreshPrefix   string
	blacklistPrefix string
}

// NewStore creates a session [Store] backed by the given Redis client.
// refreshPrefix and blacklistPrefix set the key namespaces.
func NewStore(client redis.UniversalClient, refreshPrefix, blacklistPrefix string) *Store {
	return &Store{
		redis:           client,
		refreshPrefix:   refreshPrefix,
		blacklistPrefix: blacklistPrefix,
	}
}

func (s *Store) refreshKey(subject string) string {
	return s.refreshPrefix + subject
}

// Blacklist keys are the SHA-256 of the raw token, keeping key size bounded
// regardless of how many claims the token carries.
func (s *Store) blacklistKey(token string) string {
	sum := sha256.Sum256([]byte(token))
	return s.blacklistPrefix + hex.EncodeToString(sum[:])
}

// PutRefreshToken stores the subject's current refresh token with the given
// TTL, overwriting any previous entry. Last writer wins; the overwrite is the
// rotation step that invalidates older refresh tokens.
func (s *Store) PutRefreshToken(ctx context.Context, subject, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("refresh entry TTL must be positive, got %v", ttl)
	}
	if err := s.redis.Set(ctx, s.refreshKey(subject), token, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// GetRefreshToken returns the subject's live refresh token, or
// [ErrRefreshNotFound] when the entry is absent or already expired.
func (s *Store) GetRefreshToken(ctx context.Context, subject string) (string, error) {
	token, err := s.redis.Get(ctx, s.refreshKey(subject)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrRefreshNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return token, nil
}

// DeleteRefreshToken removes the subject's refresh entry. Deleting an absent
// entry is not an error.
func (s *Store) DeleteRefreshToken(ctx context.Context, subject string) error {
	if err := s.redis.Del(ctx, s.refreshKey(subject)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// BlacklistAccessToken records a revoked access token for ttl. Callers must
// only pass a positive ttl (the token's remaining lifetime); a token with
// nothing left to live needs no entry.
func (s *Store) BlacklistAccessToken(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("blacklist TTL must be positive, got %v", ttl)
	}
	if err := s.redis.Set(ctx, s.blacklistKey(token), blacklistMarker, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// IsBlacklisted reports whether the access token has been revoked and is
// still within its original validity window.
func (s *Store) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.blacklistKey(token)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n > 0, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}

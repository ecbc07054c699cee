package revocation

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultPrefix is the key namespace used when none is configured.
const DefaultPrefix = "refresh_token:"

var (
	// ErrNotFound is returned when no fingerprint is stored for the account.
	// It is joined with redis.Nil.
	ErrNotFound = errors.New("refresh fingerprint not found")
	// ErrFingerprintMismatch is returned by Swap when the stored fingerprint
	// is not the expected one.
	ErrFingerprintMismatch = errors.New("refresh fingerprint mismatch")
	// ErrUnavailable wraps every Redis transport or server failure.
	ErrUnavailable = errors.New("revocation store unavailable")
)

const (
	swapStatusNotFound int64 = 0
	swapStatusSwapped  int64 = 1
	swapStatusMismatch int64 = 2
)

const swapScript = `
local current = redis.call("GET", KEYS[1])
if not current then
  return 0
end
if current ~= ARGV[1] then
  return 2
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return 1
`

var swapLua = redis.NewScript(swapScript)

// Fingerprint returns the value stored for a refresh token.
func Fingerprint(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// Store is a Redis-backed single-slot fingerprint store.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore returns a Store using prefix, or DefaultPrefix when empty.
func NewStore(rdb redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{redis: rdb, prefix: prefix}
}

func (s *Store) key(accountID string) string {
	return s.prefix + accountID
}

// Put unconditionally writes fingerprint for accountID, replacing any prior
// value.
func (s *Store) Put(ctx context.Context, accountID, fingerprint string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("revocation ttl must be > 0")
	}
	if err := s.redis.Set(ctx, s.key(accountID), fingerprint, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Get returns the stored fingerprint for accountID.
func (s *Store) Get(ctx context.Context, accountID string) (string, error) {
	value, err := s.redis.Get(ctx, s.key(accountID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", errors.Join(redis.Nil, ErrNotFound)
		}
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return value, nil
}

// Delete removes the entry for accountID. Deleting an absent entry succeeds.
func (s *Store) Delete(ctx context.Context, accountID string) error {
	if err := s.redis.Del(ctx, s.key(accountID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Swap replaces expected with next for accountID and resets the TTL.
//
//	Performance: 1 Lua EVALSHA.
func (s *Store) Swap(ctx context.Context, accountID, expected, next string, ttl time.Duration) error {
	if ttl <= 0 {
		return errors.New("revocation ttl must be > 0")
	}

	result, err := swapLua.Run(ctx, s.redis, []string{s.key(accountID)}, expected, next, ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch result {
	case swapStatusSwapped:
		return nil
	case swapStatusNotFound:
		return errors.Join(redis.Nil, ErrNotFound)
	case swapStatusMismatch:
		return ErrFingerprintMismatch
	default:
		return fmt.Errorf("%w: unknown swap status %d", ErrUnavailable, result)
	}
}

// TTL returns the remaining lifetime of the entry for accountID. A zero
// duration with a nil error means the key has no expiry.
func (s *Store) TTL(ctx context.Context, accountID string) (time.Duration, error) {
	ttl, err := s.redis.PTTL(ctx, s.key(accountID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	switch ttl {
	case -2:
		return 0, errors.Join(redis.Nil, ErrNotFound)
	case -1:
		// Key exists without expiry; only possible if written outside this package.
		return 0, nil
	}
	return ttl, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return time.Since(start), nil
}

// Package cache provides Redis-backed session storage.
package cache

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/blake2b"

	"carehub/internal/domain/auth"
)

// DefaultSessionPrefix namespaces session keys.
const DefaultSessionPrefix = "carehub:session:"

// RedisSessionVerifier resolves session cookies to principals stored in Redis.
// Keys hold a digest of the session id so the raw cookie value never reaches Redis.
type RedisSessionVerifier struct {
	client *redis.Client
	prefix string
}

// NewRedisSessionVerifier creates a verifier. An empty prefix uses DefaultSessionPrefix.
func NewRedisSessionVerifier(client *redis.Client, prefix string) *RedisSessionVerifier {
	if prefix == "" {
		prefix = DefaultSessionPrefix
	}
	return &RedisSessionVerifier{client: client, prefix: prefix}
}

func (v *RedisSessionVerifier) key(sessionID string) string {
	sum := blake2b.Sum256([]byte(sessionID))
	return v.prefix + hex.EncodeToString(sum[:])
}

// Verify implements auth.Verifier.
// Unknown, expired or unreadable sessions are auth.ErrInvalidCredential;
// Redis errors are returned as-is.
func (v *RedisSessionVerifier) Verify(ctx context.Context, sessionID string) (*auth.Principal, error) {
	if sessionID == "" {
		return nil, auth.ErrInvalidCredential
	}

	payload, err := v.client.Get(ctx, v.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: session not found", auth.ErrInvalidCredential)
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var p auth.Principal
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("%w: corrupt session payload", auth.ErrInvalidCredential)
	}
	return &p, nil
}

// Create stores p under a newly generated session id and returns the id.
func (v *RedisSessionVerifier) Create(ctx context.Context, p auth.Principal, ttl time.Duration) (string, error) {
	sessionID, err := generateSessionID()
	if err != nil {
		return "", err
	}
	if err := v.Store(ctx, sessionID, p, ttl); err != nil {
		return "", err
	}
	return sessionID, nil
}

// Store writes p under sessionID.
func (v *RedisSessionVerifier) Store(ctx context.Context, sessionID string, p auth.Principal, ttl time.Duration) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := v.client.Set(ctx, v.key(sessionID), data, ttl).Err(); err != nil {
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

// Revoke deletes the session. Revoking an unknown session is not an error.
func (v *RedisSessionVerifier) Revoke(ctx context.Context, sessionID string) error {
	if err := v.client.Del(ctx, v.key(sessionID)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// Ping checks Redis connectivity.
func (v *RedisSessionVerifier) Ping(ctx context.Context) error {
	return v.client.Ping(ctx).Err()
}

func generateSessionID() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

var _ auth.Verifier = (*RedisSessionVerifier)(nil)

package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/splitr/splitr/internal/model"
)

const (
	// identityCachePrefix is the Redis key prefix for verified-token cache.
	identityCachePrefix = "auth:token:"
	// identityCacheTTL is the time-to-live for cached verifications.
	// Short enough that provider-side revocation takes effect quickly.
	identityCacheTTL = 5 * time.Minute
)

// cachedIdentity represents a verified token's identity stored in Redis.
type cachedIdentity struct {
	UID   string `json:"uid"`
	Email string `json:"email,omitempty"`
}

// GetVerifiedToken retrieves the cached identity for a session token.
// Returns nil on a cache miss; the token itself is never stored, only a
// truncated hash of it.
func (c *Cache) GetVerifiedToken(ctx context.Context, token string) (*model.AuthContext, error) {
	key := identityCachePrefix + hashToken(token)

	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		// Cache miss is not an error
		return nil, nil //nolint:nilerr
	}

	var cached cachedIdentity
	if err := json.Unmarshal(data, &cached); err != nil {
		// Corrupted cache entry - treat as miss
		return nil, nil //nolint:nilerr
	}

	return &model.AuthContext{UID: cached.UID, Email: cached.Email}, nil
}

// SetVerifiedToken caches the identity derived from a verified session token.
func (c *Cache) SetVerifiedToken(ctx context.Context, token string, auth *model.AuthContext) error {
	key := identityCachePrefix + hashToken(token)

	data, err := json.Marshal(cachedIdentity{UID: auth.UID, Email: auth.Email})
	if err != nil {
		return fmt.Errorf("marshal identity: %w", err)
	}

	return c.client.Set(ctx, key, data, identityCacheTTL).Err()
}

// hashToken creates a truncated SHA256 hash of a session token for use as a
// cache key.
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:16])
}

package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// Store is the subset of the Redis API the generation cache needs.
type Store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// GenerationCache keeps model output per prompt so identical requests do not
// hit the language model again within the TTL.
type GenerationCache struct {
	store     Store
	namespace string
	ttl       time.Duration
}

// NewGenerationCache returns a cache over store. A nil store or a zero TTL
// yields a cache that never hits.
func NewGenerationCache(store Store, namespace string, ttl time.Duration) *GenerationCache {
	return &GenerationCache{store: store, namespace: namespace, ttl: ttl}
}

func (c *GenerationCache) enabled() bool {
	return c != nil && c.store != nil && c.ttl > 0
}

// Key returns the Redis key for prompt.
func (c *GenerationCache) Key(prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return c.namespace + ":gen:" + hex.EncodeToString(sum[:])
}

// Get returns cached text for prompt. A miss is reported as ok=false with a
// nil error.
func (c *GenerationCache) Get(ctx context.Context, prompt string) (string, bool, error) {
	if !c.enabled() {
		return "", false, nil
	}
	val, err := c.store.Get(ctx, c.Key(prompt)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// Set stores text for prompt.
func (c *GenerationCache) Set(ctx context.Context, prompt, text string) error {
	if !c.enabled() {
		return nil
	}
	return c.store.Set(ctx, c.Key(prompt), text, c.ttl).Err()
}

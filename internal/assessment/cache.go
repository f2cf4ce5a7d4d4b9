// internal/assessment/cache.go
package assessment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"mortgage-readiness/internal/common/database"
	"mortgage-readiness/internal/models"
)

const (
	CacheKeyPrefix  = "assessment:"
	DefaultCacheTTL = 15 * time.Minute
)

// CacheKey identifies the scored result of an applicant under one model.
func CacheKey(modelID string, a models.Applicant) string {
	raw, _ := json.Marshal(a)
	sum := sha256.Sum256(raw)
	return fmt.Sprintf("%s%s:%s", CacheKeyPrefix, modelID, hex.EncodeToString(sum[:]))
}

// RedisCache keeps scored assessments in Redis with a fixed TTL.
type RedisCache struct {
	client *database.RedisClient
	ttl    time.Duration
}

func NewRedisCache(client *database.RedisClient, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (*models.Assessment, bool, error) {
	var a models.Assessment
	err := c.client.GetJSON(ctx, key, &a)
	if errors.Is(err, database.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &a, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, a *models.Assessment) error {
	return c.client.SetJSON(ctx, key, a, c.ttl)
}

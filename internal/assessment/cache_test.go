package assessment

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"mortgage-readiness/internal/common/database"
	"mortgage-readiness/internal/models"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisCache_RoundTrip(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cache := NewRedisCache(database.NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()})), time.Minute)
	ctx := context.Background()
	key := CacheKey("m1", scenario())

	_, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	in := &models.Assessment{
		DTI:             models.Ratio(math.Inf(1)),
		MaxCredit:       -150000,
		Category:        models.CategoryNotReady,
		Confidence:      0.12,
		Recommendations: []string{"Try to reduce your monthly expenses"},
		ModelID:         "m1",
	}
	require.NoError(t, cache.Set(ctx, key, in))
	assert.Equal(t, time.Minute, mr.TTL(key))

	out, ok, err := cache.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, out.DTI.IsInf())
	assert.Equal(t, in.Recommendations, out.Recommendations)
	assert.Equal(t, in.Category, out.Category)
}

func TestRedisCache_Errors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewRedisCache(database.NewRedisFromClient(client), 0)
	ctx := context.Background()

	mock.ExpectGet("assessment:k").SetErr(errors.New("connection refused"))
	_, ok, err := cache.Get(ctx, "assessment:k")
	assert.Error(t, err)
	assert.False(t, ok)

	mock.ExpectGet("assessment:k").RedisNil()
	_, ok, err = cache.Get(ctx, "assessment:k")
	assert.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

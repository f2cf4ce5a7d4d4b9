package database

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRedis(t *testing.T) (*RedisClient, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	return NewRedisFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()})), mr
}

func TestRedisClient_JSONRoundTrip(t *testing.T) {
	client, mr := setupRedis(t)
	ctx := context.Background()

	type payload struct {
		Category string  `json:"category"`
		Score    float64 `json:"score"`
	}

	require.NoError(t, client.Ping(ctx))
	require.NoError(t, client.SetJSON(ctx, "assessment:abc", payload{"ready", 0.91}, time.Minute))

	var got payload
	require.NoError(t, client.GetJSON(ctx, "assessment:abc", &got))
	assert.Equal(t, payload{"ready", 0.91}, got)

	mr.FastForward(2 * time.Minute)
	assert.ErrorIs(t, client.GetJSON(ctx, "assessment:abc", &got), ErrCacheMiss)
}

func TestRedisClient_DecodeError(t *testing.T) {
	client, mr := setupRedis(t)
	require.NoError(t, mr.Set("assessment:bad", "{not json"))

	var got map[string]interface{}
	err := client.GetJSON(context.Background(), "assessment:bad", &got)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carstoreapp/carstore-backend/pkg/config"
)

func TestBuildKeySkipsEmptyParts(t *testing.T) {
	c := &Client{}
	assert.Equal(t, "cs:session:access:abc", c.AccessSessionKey("abc"))
	assert.Equal(t, "cs:idempotency:scope:id", c.IdempotencyKey("scope", "id"))
	assert.Equal(t, "cs:rate_limit:login", c.RateLimitKey("login"))
	assert.Equal(t, "cs:cache:user:u1:orders", c.UserCacheKey("u1", "orders"))
}

func TestOptionsFromConfigRequiresTarget(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	assert.Error(t, err)
}

func TestOptionsFromConfigAddress(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{
		Address:      "localhost:6379",
		Password:     "pw",
		DB:           2,
		PoolSize:     5,
		MinIdleConns: 1,
		DialTimeout:  time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 5, opts.PoolSize)
}

func TestOptionsFromConfigURL(t *testing.T) {
	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6380/3"})
	require.NoError(t, err)
	assert.Equal(t, "localhost:6380", opts.Addr)
	assert.Equal(t, 3, opts.DB)
}

func TestUninitializedClientErrors(t *testing.T) {
	c := &Client{}
	err := c.Set(context.Background(), "k", "v", 0)
	assert.Error(t, err)
	_, err = c.Get(context.Background(), "k")
	assert.Error(t, err)
}

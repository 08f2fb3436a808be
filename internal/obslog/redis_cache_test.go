package obslog

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Runs only against a live Redis, for example:
//
//	SAMESKY_TEST_REDIS_ADDR=127.0.0.1:6379 go test ./internal/obslog
func TestRedisCacheServesSecondLookupFromRedis(t *testing.T) {
	addr := os.Getenv("SAMESKY_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SAMESKY_TEST_REDIS_ADDR not set")
	}
	inner := &countingProvider{calls: map[string]int{}}
	prefix := "samesky-test-" + time.Now().Format("150405.000000")
	c, err := NewRedisCache(RedisConfig{Addr: addr, KeyPrefix: prefix, TTL: time.Minute}, inner)
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		res, err := c.ForDate(ctx, mustDate(t, "2021-10-12"))
		require.NoError(t, err)
		require.Equal(t, StatusOK, res.Status)
		assert.Equal(t, 12, res.Observations[0].FieldID)

		res, err = c.ForDate(ctx, mustDate(t, "2021-10-13"))
		require.NoError(t, err)
		assert.Equal(t, StatusUnavailable, res.Status)
	}

	assert.Equal(t, 1, inner.calls["2021-10-12"])
	assert.Equal(t, 2, inner.calls["2021-10-13"], "unavailable dates are not cached")

	c.client.Del(ctx, c.dateKey(mustDate(t, "2021-10-12")))
}

package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConsumerRequiresKey(t *testing.T) {
	_, err := NewConsumer(Config{Addr: "127.0.0.1:6379"}, nil)
	assert.Error(t, err)
}

// Runs only against a live Redis, for example:
//
//	SAMESKY_TEST_REDIS_ADDR=127.0.0.1:6379 go test ./internal/input/redis
func TestConsumerReadsListInOrder(t *testing.T) {
	addr := os.Getenv("SAMESKY_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("SAMESKY_TEST_REDIS_ADDR not set")
	}
	key := "samesky-test-alerts-" + time.Now().Format("150405.000000")
	c, err := NewConsumer(Config{Addr: addr, Key: key}, nil)
	require.NoError(t, err)
	defer c.Close()
	ctx := context.Background()
	defer c.client.Del(ctx, key)

	require.NoError(t, c.client.RPush(ctx, key,
		`{"event_id": 1, "records": [{"Alert_Type": "Initial", "RA": 1, "Dec": 2, "Detected": "2021-10-12 12:00:00"}]}`,
		`not json`,
		`{"event_id": 2, "records": [{"Alert_Type": "Retraction"}]}`,
	).Err())

	alerts, err := c.Alerts(ctx)
	require.NoError(t, err)
	require.Len(t, alerts, 2)
	assert.Equal(t, "1", alerts[0].EventID)
	assert.Equal(t, "2", alerts[1].EventID)

	n, err := c.client.LLen(ctx, key).Result()
	require.NoError(t, err)
	assert.EqualValues(t, 3, n, "list is left intact")
}

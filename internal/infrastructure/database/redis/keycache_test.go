package redis

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chemlattice/molimport/internal/infrastructure/monitoring/logging"
)

// testClient connects to the Redis named by MOLIMPORT_TEST_REDIS_ADDR, or
// skips the test when unset.
func testClient(t *testing.T) *goredis.Client {
	t.Helper()
	addr := os.Getenv("MOLIMPORT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("MOLIMPORT_TEST_REDIS_ADDR not set; skipping redis integration test")
	}
	rdb := goredis.NewClient(&goredis.Options{Addr: addr, DB: 15})
	t.Cleanup(func() {
		rdb.FlushDB(context.Background())
		rdb.Close()
	})
	return rdb
}

type countingChecker struct {
	known map[string]bool
	calls int
}

func (c *countingChecker) Exists(_ context.Context, key string) (bool, error) {
	c.calls++
	return c.known[key], nil
}

func TestKeyCache_CachesPositiveAnswers(t *testing.T) {
	rdb := testClient(t)
	fallback := &countingChecker{known: map[string]bool{"KEY-A": true}}
	cache := NewKeyCache(rdb, fallback, "test:key:", time.Minute, logging.NewNopLogger())
	ctx := context.Background()

	exists, err := cache.Exists(ctx, "KEY-A")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 1, fallback.calls)

	// Second check is served from the cache.
	exists, err = cache.Exists(ctx, "KEY-A")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, 1, fallback.calls)
}

func TestKeyCache_NegativeAnswersNotCached(t *testing.T) {
	rdb := testClient(t)
	fallback := &countingChecker{known: map[string]bool{}}
	cache := NewKeyCache(rdb, fallback, "test:key:", time.Minute, logging.NewNopLogger())
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		exists, err := cache.Exists(ctx, "KEY-B")
		require.NoError(t, err)
		assert.False(t, exists)
	}
	assert.Equal(t, 2, fallback.calls)
}

func TestKeyCache_MarkPersisted(t *testing.T) {
	rdb := testClient(t)
	fallback := &countingChecker{known: map[string]bool{}}
	cache := NewKeyCache(rdb, fallback, "test:key:", time.Minute, logging.NewNopLogger())
	ctx := context.Background()

	require.NoError(t, cache.MarkPersisted(ctx, "KEY-C"))

	exists, err := cache.Exists(ctx, "KEY-C")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.Zero(t, fallback.calls)
}

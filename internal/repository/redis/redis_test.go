package redis

import (
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 需要真实的 Redis，设置 CREW_TEST_REDIS_ADDR 后运行
func testClient(t *testing.T) *goredis.Client {
	t.Helper()
	addr := os.Getenv("CREW_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("CREW_TEST_REDIS_ADDR not set")
	}
	client, err := NewClient(context.Background(), addr, os.Getenv("CREW_TEST_REDIS_PASSWORD"), 15)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.FlushDB(context.Background()).Err()
		_ = client.Close()
	})
	return client
}

func TestTokenRepository(t *testing.T) {
	repo := &TokenRepository{RDB: testClient(t)}
	ctx := context.Background()

	_, err := repo.GetUserToken(ctx, 1)
	assert.ErrorIs(t, err, ErrTokenNotFound)

	require.NoError(t, repo.AddUserToken(ctx, 1, "tok"))
	got, err := repo.GetUserToken(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "tok", got)
	assert.NoError(t, repo.ExtendUserToken(ctx, 1))
}

func TestThumbnailCache(t *testing.T) {
	cache := NewThumbnailCache(testClient(t))
	cache.SecondDelete = 0
	ctx := context.Background()

	_, hit, err := cache.Get(ctx, 1, 3)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, 1, 3, []string{"a", "b"}))
	require.NoError(t, cache.Set(ctx, 1, 5, []string{"a", "b", "c"}))
	images, hit, err := cache.Get(ctx, 1, 3)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []string{"a", "b"}, images)

	require.NoError(t, cache.Invalidate(ctx, 1))
	_, hit, err = cache.Get(ctx, 1, 5)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestDistLock(t *testing.T) {
	lock := &DistLock{RDB: testClient(t)}
	ctx := context.Background()

	release, err := lock.TryLock(ctx, "job", time.Second)
	require.NoError(t, err)
	require.NotNil(t, release)

	again, err := lock.TryLock(ctx, "job", time.Second)
	require.NoError(t, err)
	assert.Nil(t, again)

	release()
	again, err = lock.TryLock(ctx, "job", time.Second)
	require.NoError(t, err)
	assert.NotNil(t, again)
}

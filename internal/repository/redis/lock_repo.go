package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const LockKeyPrefix = "lock:crew:"

var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
  return redis.call("del", KEYS[1])
else
  return 0
end`)

// DistLock 多实例部署时保证后台任务同一时刻只有一个实例在跑
type DistLock struct {
	RDB *redis.Client
}

// TryLock 拿到锁时返回释放函数，没拿到返回 nil
func (l *DistLock) TryLock(ctx context.Context, name string, ttl time.Duration) (func(), error) {
	key := LockKeyPrefix + name
	token := uuid.NewString()
	ok, err := l.RDB.SetNX(ctx, key, token, ttl).Result()
	if err != nil || !ok {
		return nil, err
	}
	return func() {
		// 用 lua 保证只删除自己持有的锁
		_, _ = releaseScript.Run(context.Background(), l.RDB, []string{key}, token).Result()
	}, nil
}

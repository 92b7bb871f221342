package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ThumbnailTTL       = 10 * time.Minute
	ThumbnailKeyPrefix = "crew:thumbs" // hash，field 为张数上限，value 为图片列表 JSON
)

// ThumbnailCache 克鲁成员头像缩略图缓存，成员变动时整体失效
type ThumbnailCache struct {
	RDB *redis.Client
	TTL time.Duration
	// 延迟二删的间隔，0 表示只删一次
	SecondDelete time.Duration
}

func NewThumbnailCache(rdb *redis.Client) *ThumbnailCache {
	return &ThumbnailCache{RDB: rdb, TTL: ThumbnailTTL, SecondDelete: 500 * time.Millisecond}
}

func (c *ThumbnailCache) key(crewID uint64) string {
	return fmt.Sprintf("%s:%d", ThumbnailKeyPrefix, crewID)
}

// Get 第二个返回值表示是否命中
func (c *ThumbnailCache) Get(ctx context.Context, crewID uint64, limit int) ([]string, bool, error) {
	raw, err := c.RDB.HGet(ctx, c.key(crewID), strconv.Itoa(limit)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var images []string
	if err := json.Unmarshal([]byte(raw), &images); err != nil {
		// 脏数据按未命中处理，下次写入覆盖
		return nil, false, nil
	}
	return images, true, nil
}

func (c *ThumbnailCache) Set(ctx context.Context, crewID uint64, limit int, images []string) error {
	raw, err := json.Marshal(images)
	if err != nil {
		return err
	}
	k := c.key(crewID)
	_, err = c.RDB.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, k, strconv.Itoa(limit), raw)
		p.Expire(ctx, k, c.TTL)
		return nil
	})
	return err
}

// Invalidate 立刻删除；SecondDelete > 0 时在后台再删一次，抵消并发回填的窗口
func (c *ThumbnailCache) Invalidate(ctx context.Context, crewID uint64) error {
	k := c.key(crewID)
	if err := c.RDB.Del(ctx, k).Err(); err != nil {
		return err
	}
	if c.SecondDelete > 0 {
		go func() {
			t := time.NewTimer(c.SecondDelete)
			defer t.Stop()
			<-t.C
			_ = c.RDB.Del(context.Background(), k).Err()
		}()
	}
	return nil
}

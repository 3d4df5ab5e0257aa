package cache

import (
	"time"

	"github.com/UmedjonQurbonov/mini-instagram-beckend/internal/util"

	"github.com/go-redis/redis"
	"go.uber.org/zap"
)

// Store 是帖子响应缓存的接口。值是完整渲染好的响应载荷。
// 缓存只是性能层：任何缓存故障都回退到直接计算，不影响请求结果。
type Store interface {
	// GetOrCompute 命中时返回缓存值，未命中时调用 compute 并以固定TTL写回。
	// 多个请求并发填充同一个键允许竞争，后写者覆盖（计算是幂等的只读操作）。
	GetOrCompute(key string, compute func() ([]byte, error)) ([]byte, error)
	// Invalidate 精确删除给定的键。不支持前缀删除：
	// 变更发生时受影响的键必须是确定可知的（列表键只靠TTL过期）。
	Invalidate(keys ...string)
}

// RedisStore 基于 Redis 实现 Store
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(addr, password string, db int, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if _, err := client.Ping().Result(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) GetOrCompute(key string, compute func() ([]byte, error)) ([]byte, error) {
	value, err := s.client.Get(key).Bytes()
	if err == nil {
		return value, nil
	}
	if err != redis.Nil {
		// Redis 故障降级为直接计算
		util.Logger.Warn("读取缓存失败，回退到直接计算", zap.Error(err), zap.String("key", key))
	}

	value, err = compute()
	if err != nil {
		return nil, err
	}

	if err := s.client.Set(key, value, s.ttl).Err(); err != nil {
		util.Logger.Warn("写入缓存失败", zap.Error(err), zap.String("key", key))
	}

	return value, nil
}

func (s *RedisStore) Invalidate(keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := s.client.Del(keys...).Err(); err != nil {
		util.Logger.Warn("删除缓存键失败", zap.Error(err), zap.Strings("keys", keys))
	}
}

// Package lock 按会话串行化编辑请求。默认不加锁（最后写入者获胜），
// 配置 redis 地址后启用跨实例的会话锁。
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"directory-agent/internal/model"
)

// Locker 会话锁；拿不到锁时返回 model.ErrSessionBusy
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

// Noop 不加锁
type Noop struct{}

func (Noop) Acquire(context.Context, string) (func(), error) {
	return func() {}, nil
}

// RedisConfig Redis 连接配置
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// Redis 基于 SET NX PX 的会话锁，TTL 到期自动释放
type Redis struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// 只删除自己持有的锁
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewRedis 创建 Redis 锁并检查连接
func NewRedis(ctx context.Context, cfg RedisConfig) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Redis{rdb: rdb, ttl: ttl, prefix: "directory-agent:edit:"}, nil
}

// Acquire 尝试获取会话锁，不等待
func (l *Redis) Acquire(ctx context.Context, key string) (func(), error) {
	if key == "" {
		return func() {}, nil
	}
	redisKey := l.prefix + key
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, redisKey, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: acquire lock: %v", model.ErrIntegration, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrSessionBusy, key)
	}
	logger := zerolog.Ctx(ctx)
	release := func() {
		// 请求 ctx 可能已取消，释放时用独立的短超时
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.rdb, []string{redisKey}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			// 释放失败时锁会在 TTL 后过期
			logger.Warn().Err(err).Str("key", redisKey).Msg("release session lock failed")
		}
	}
	return release, nil
}

// Close 关闭连接
func (l *Redis) Close() error {
	return l.rdb.Close()
}

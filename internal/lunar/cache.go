package lunar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	backend "github.com/redis/go-redis/v9"

	"yijing/internal/config"
	"yijing/internal/model"
)

const defaultKeyPrefix = "yijing:lunar:"

// Cache 按公历日期（YYYY-MM-DD）缓存当日干支与农历月日，不含时辰。
type Cache interface {
	Get(ctx context.Context, date string) (model.LunarInfo, bool, error)
	Set(ctx context.Context, date string, info model.LunarInfo) error
}

// NewCache 配置了 RedisAddr 用 Redis，否则用进程内缓存。
func NewCache(cfg config.Lunar) Cache {
	if cfg.UseRedis() {
		return NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
	}
	return NewMemoryCache(cfg.CacheTTL)
}

type memoryEntry struct {
	info    model.LunarInfo
	expires time.Time
}

// MemoryCache 进程内缓存，ttl<=0 表示不过期。
type MemoryCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]memoryEntry
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, entries: make(map[string]memoryEntry), now: time.Now}
}

func (m *MemoryCache) Get(_ context.Context, date string) (model.LunarInfo, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[date]
	if !ok {
		return model.LunarInfo{}, false, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, date)
		return model.LunarInfo{}, false, nil
	}
	return e.info, true, nil
}

func (m *MemoryCache) Set(_ context.Context, date string, info model.LunarInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	var expires time.Time
	if m.ttl > 0 {
		expires = m.now().Add(m.ttl)
	}
	m.entries[date] = memoryEntry{info: info, expires: expires}
	return nil
}

// RedisCache 以 JSON 存于 Redis，过期交给 Redis 的 TTL。
type RedisCache struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

func NewRedisCache(addr, password string, db int, ttl time.Duration) *RedisCache {
	return NewRedisCacheFromClient(backend.NewClient(&backend.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	}), ttl)
}

func NewRedisCacheFromClient(client *backend.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, prefix: defaultKeyPrefix, ttl: ttl}
}

func (r *RedisCache) key(date string) string {
	return r.prefix + date
}

func (r *RedisCache) Get(ctx context.Context, date string) (model.LunarInfo, bool, error) {
	var info model.LunarInfo
	val, err := r.client.Get(ctx, r.key(date)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return info, false, nil
		}
		return info, false, fmt.Errorf("lunar: redis get: %w", err)
	}
	if err := json.Unmarshal([]byte(val), &info); err != nil {
		return info, false, fmt.Errorf("lunar: decode cached %s: %w", date, err)
	}
	return info, true, nil
}

func (r *RedisCache) Set(ctx context.Context, date string, info model.LunarInfo) error {
	data, err := json.Marshal(info)
	if err != nil {
		return fmt.Errorf("lunar: encode %s: %w", date, err)
	}
	ttl := r.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := r.client.Set(ctx, r.key(date), data, ttl).Err(); err != nil {
		return fmt.Errorf("lunar: redis set: %w", err)
	}
	return nil
}

func (r *RedisCache) Close() error {
	return r.client.Close()
}

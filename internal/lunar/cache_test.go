package lunar

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yijing/internal/config"
	"yijing/internal/model"
)

var sampleDay = model.LunarInfo{
	Date: "2025-02-14", YearStem: "乙", YearBranch: "巳", MonthStem: "戊", MonthBranch: "寅",
	DayStem: "己", DayBranch: "丑", LunarMonth: "1", LunarDay: "17",
}

func TestMemoryCacheExpires(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 2, 14, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache(time.Hour)
	c.now = func() time.Time { return now }

	_, ok, err := c.Get(ctx, sampleDay.Date)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, sampleDay.Date, sampleDay))
	got, ok, err := c.Get(ctx, sampleDay.Date)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sampleDay, got)

	now = now.Add(time.Hour)
	_, ok, _ = c.Get(ctx, sampleDay.Date)
	assert.False(t, ok)
}

func TestMemoryCacheWithoutTTL(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(0)
	require.NoError(t, c.Set(ctx, "d", sampleDay))
	c.now = func() time.Time { return time.Now().Add(1000 * time.Hour) }
	_, ok, _ := c.Get(ctx, "d")
	assert.True(t, ok)
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	c := NewRedisCacheFromClient(client, time.Hour)
	defer c.Close()
	ctx := context.Background()

	_, ok, err := c.Get(ctx, sampleDay.Date)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Set(ctx, sampleDay.Date, sampleDay))
	assert.True(t, mr.Exists(defaultKeyPrefix+sampleDay.Date))

	got, ok, err := c.Get(ctx, sampleDay.Date)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, sampleDay, got)

	mr.FastForward(2 * time.Hour)
	_, ok, err = c.Get(ctx, sampleDay.Date)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisCacheCorruptValue(t *testing.T) {
	mr := miniredis.RunT(t)
	c := NewRedisCacheFromClient(backend.NewClient(&backend.Options{Addr: mr.Addr()}), 0)
	defer c.Close()
	require.NoError(t, mr.Set(defaultKeyPrefix+"bad", "not json"))

	_, ok, err := c.Get(context.Background(), "bad")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestNewCacheChoosesBackend(t *testing.T) {
	_, isMemory := NewCache(config.Lunar{CacheTTL: time.Hour}).(*MemoryCache)
	assert.True(t, isMemory)

	mr := miniredis.RunT(t)
	rc, isRedis := NewCache(config.Lunar{RedisAddr: mr.Addr()}).(*RedisCache)
	require.True(t, isRedis)
	defer rc.Close()
}

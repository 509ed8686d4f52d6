package cache

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"stamp-core/pkg/logger"
)

// MultiLevelCache 实现多级缓存 (L1: Memory, L2: Redis)
// L1 keeps entries for half the TTL so replicas converge on the shared L2 value.
type MultiLevelCache struct {
	local  Cache
	remote Cache
}

func NewMultiLevelCache(local, remote Cache) *MultiLevelCache {
	return &MultiLevelCache{
		local:  local,
		remote: remote,
	}
}

func (m *MultiLevelCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if err := m.local.Set(ctx, key, value, ttl/2); err != nil {
		logger.Warn("L1 缓存写入失败", zap.String("key", key), zap.Error(err))
	}
	return m.remote.Set(ctx, key, value, ttl)
}

func (m *MultiLevelCache) Get(ctx context.Context, key string, target interface{}) error {
	// 1. 查 L1
	if err := m.local.Get(ctx, key, target); err == nil {
		return nil
	}

	// 2. 查 L2，命中后回写 L1
	err := m.remote.Get(ctx, key, target)
	if err == nil {
		_ = m.local.Set(ctx, key, target, l1Backfill)
		return nil
	}
	if !errors.Is(err, ErrMiss) {
		logger.Warn("L2 缓存读取失败", zap.String("key", key), zap.Error(err))
	}
	return ErrMiss
}

func (m *MultiLevelCache) Delete(ctx context.Context, key string) error {
	_ = m.local.Delete(ctx, key)
	return m.remote.Delete(ctx, key)
}

// l1Backfill bounds how long an L2 hit may live in L1.
const l1Backfill = 10 * time.Second

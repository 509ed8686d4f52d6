package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type quote struct {
	Rate float64 `json:"rate"`
	Src  string  `json:"src"`
}

func TestMemoryCache(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute, time.Minute)

	var got quote
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrMiss)

	in := quote{Rate: 12.5, Src: "primary"}
	require.NoError(t, c.Set(ctx, "k", in, time.Minute))

	// 修改原值不影响缓存内容
	in.Rate = 99
	require.NoError(t, c.Get(ctx, "k", &got))
	assert.Equal(t, quote{Rate: 12.5, Src: "primary"}, got)

	require.NoError(t, c.Delete(ctx, "k"))
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrMiss)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute, time.Minute)

	require.NoError(t, c.Set(ctx, "k", quote{Rate: 1}, 20*time.Millisecond))
	time.Sleep(40 * time.Millisecond)

	var got quote
	assert.ErrorIs(t, c.Get(ctx, "k", &got), ErrMiss)
}

func TestMultiLevelBackfill(t *testing.T) {
	ctx := context.Background()
	l1 := NewMemoryCache(time.Minute, time.Minute)
	l2 := NewMemoryCache(time.Minute, time.Minute)
	m := NewMultiLevelCache(l1, l2)

	// 只写 L2，读取后应回写 L1
	require.NoError(t, l2.Set(ctx, "k", quote{Rate: 3}, time.Minute))

	var got quote
	require.NoError(t, m.Get(ctx, "k", &got))
	assert.Equal(t, 3.0, got.Rate)

	var fromL1 quote
	require.NoError(t, l1.Get(ctx, "k", &fromL1))
	assert.Equal(t, 3.0, fromL1.Rate)

	require.NoError(t, m.Delete(ctx, "k"))
	assert.ErrorIs(t, m.Get(ctx, "k", &got), ErrMiss)
}

func TestGetOrLoad(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute, time.Minute)
	calls := 0
	load := func(ctx context.Context) (quote, error) {
		calls++
		return quote{Rate: 3, Src: "loaded"}, nil
	}

	got, err := GetOrLoad(ctx, c, "q", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, quote{Rate: 3, Src: "loaded"}, got)

	got, err = GetOrLoad(ctx, c, "q", time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "loaded", got.Src)
	assert.Equal(t, 1, calls)

	_, err = GetOrLoad(ctx, c, "bad", time.Minute, func(ctx context.Context) (quote, error) {
		return quote{}, assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)
	assert.ErrorIs(t, c.Get(ctx, "bad", &got), ErrMiss)
}

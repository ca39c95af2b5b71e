// SPDX-License-Identifier: MIT

package cache

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryCache_GetSet(t *testing.T) {
	cache := NewMemoryCache(0)

	cache.Set("key1", []byte("value1"), 5*time.Minute)

	val, ok := cache.Get("key1")
	require.True(t, ok, "expected to find key1")
	assert.Equal(t, []byte("value1"), val)

	_, ok = cache.Get("nonexistent")
	assert.False(t, ok, "expected not to find nonexistent key")
}

func TestMemoryCache_SetCopiesValue(t *testing.T) {
	cache := NewMemoryCache(0)
	buf := []byte("abc")
	cache.Set("k", buf, time.Minute)
	buf[0] = 'z'

	val, _ := cache.Get("k")
	assert.Equal(t, []byte("abc"), val)
}

func TestMemoryCache_Expiration(t *testing.T) {
	cache := NewMemoryCache(0)
	now := time.Now()
	cache.now = func() time.Time { return now }

	cache.Set("shortlived", []byte("value"), 50*time.Millisecond)
	_, ok := cache.Get("shortlived")
	require.True(t, ok)

	now = now.Add(100 * time.Millisecond)
	_, ok = cache.Get("shortlived")
	assert.False(t, ok, "expected key to be expired")
}

func TestMemoryCache_DeleteAndClear(t *testing.T) {
	cache := NewMemoryCache(0)
	cache.Set("key1", []byte("1"), time.Minute)
	cache.Set("key2", []byte("2"), time.Minute)
	cache.Set("key3", []byte("3"), time.Minute)

	cache.Delete("key1")
	_, ok := cache.Get("key1")
	assert.False(t, ok)
	assert.Equal(t, 2, cache.Stats().CurrentSize)

	cache.Clear()
	assert.Equal(t, 0, cache.Stats().CurrentSize)
}

func TestMemoryCache_Stats(t *testing.T) {
	cache := NewMemoryCache(0)

	cache.Set("key1", []byte("value1"), 5*time.Minute)
	cache.Set("key2", []byte("value2"), 5*time.Minute)
	cache.Get("key1")        // Hit
	cache.Get("key1")        // Hit
	cache.Get("nonexistent") // Miss

	stats := cache.Stats()
	assert.Equal(t, int64(2), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, int64(2), stats.Sets)
	assert.Equal(t, 2, stats.CurrentSize)
}

func TestMemoryCache_Janitor(t *testing.T) {
	cache := NewMemoryCache(20 * time.Millisecond)
	defer func() { _ = cache.Close() }()

	cache.Set("key1", []byte("v"), 10*time.Millisecond)
	cache.Set("key2", []byte("v"), 10*time.Millisecond)
	cache.Set("longLived", []byte("v"), 10*time.Second)

	assert.Eventually(t, func() bool {
		return cache.Stats().CurrentSize == 1
	}, 2*time.Second, 10*time.Millisecond, "janitor should remove expired entries")
	assert.Equal(t, int64(2), cache.Stats().Evictions)

	_, ok := cache.Get("longLived")
	assert.True(t, ok)
}

func TestMemoryCache_CloseIsIdempotent(t *testing.T) {
	cache := NewMemoryCache(time.Hour)
	require.NoError(t, cache.Close())
	require.NoError(t, cache.Close())

	unstarted := NewMemoryCache(0)
	require.NoError(t, unstarted.Close())
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	cache := NewMemoryCache(time.Minute)
	defer func() { _ = cache.Close() }()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cache.Set("key", []byte{byte(j)}, time.Minute)
				cache.Get("key")
			}
		}()
	}
	wg.Wait()

	stats := cache.Stats()
	assert.Equal(t, int64(800), stats.Sets)
	assert.Equal(t, int64(800), stats.Hits+stats.Misses)
}

func TestNoOpCache(t *testing.T) {
	cache := NewNoOpCache()

	cache.Set("key", []byte("value"), 5*time.Minute)
	_, ok := cache.Get("key")
	assert.False(t, ok, "NoOpCache should never return values")

	cache.Delete("key")
	cache.Clear()
	assert.Equal(t, CacheStats{}, cache.Stats())
}

type sample struct {
	Name  string   `json:"name"`
	Stars int      `json:"stars"`
	Tags  []string `json:"tags"`
}

func TestJSONCodec_RoundTripAndCorruptEviction(t *testing.T) {
	cache := NewMemoryCache(0)

	require.NoError(t, SetJSON(cache, "repo", sample{Name: "dots", Stars: 3, Tags: []string{"yabai"}}, time.Minute))
	got, ok := GetJSON[sample](cache, "repo")
	require.True(t, ok)
	assert.Equal(t, sample{Name: "dots", Stars: 3, Tags: []string{"yabai"}}, got)

	cache.Set("broken", []byte("{not json"), time.Minute)
	_, ok = GetJSON[sample](cache, "broken")
	assert.False(t, ok)
	_, stillThere := cache.Get("broken")
	assert.False(t, stillThere, "corrupt entries are evicted")

	assert.Error(t, SetJSON(cache, "chan", make(chan int), time.Minute))
}

func TestNew_Backends(t *testing.T) {
	ctx := context.Background()

	mem, err := New(ctx, Config{}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &MemoryCache{}, mem)
	require.NoError(t, mem.(io.Closer).Close())

	none, err := New(ctx, Config{Backend: BackendNone}, zerolog.Nop())
	require.NoError(t, err)
	_, isCloser := none.(io.Closer)
	assert.False(t, isCloser)

	bdg, err := New(ctx, Config{Backend: BackendBadger, BadgerDir: t.TempDir()}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, bdg.(io.Closer).Close())

	_, err = New(ctx, Config{Backend: "memcached"}, zerolog.Nop())
	assert.Error(t, err)
}

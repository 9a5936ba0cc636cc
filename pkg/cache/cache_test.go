package cache_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/concord-labs/concord/pkg/cache"
)

func TestCacheBasicOperations(t *testing.T) {
	t.Parallel()

	c := cache.New[int64, string](8)

	c.Store(1, "one")
	c.Store(2, "two")

	value, ok := c.Load(1)
	assert.True(t, ok)
	assert.Equal(t, "one", value)

	assert.Equal(t, 2, c.Count())

	c.Delete(1)

	_, ok = c.Load(1)
	assert.False(t, ok)

	c.Clear()
	assert.Equal(t, 0, c.Count())
}

func TestCacheSetIfAbsent(t *testing.T) {
	t.Parallel()

	c := cache.New[int64, string](8)

	c.SetIfAbsent(1, "first")
	c.SetIfAbsent(1, "second")

	value, _ := c.Load(1)
	assert.Equal(t, "first", value)
}

func TestCacheUpdate(t *testing.T) {
	t.Parallel()

	c := cache.New[int64, int](8)

	_, ok := c.Update(1, func(value int) int { return value + 1 })
	assert.False(t, ok)

	c.Store(1, 10)

	value, ok := c.Update(1, func(value int) int { return value + 1 })
	assert.True(t, ok)
	assert.Equal(t, 11, value)

	value, _ = c.Load(1)
	assert.Equal(t, 11, value)
}

func TestCacheConcurrentAccess(t *testing.T) {
	t.Parallel()

	c := cache.New[int, int](64)

	var wg sync.WaitGroup

	for i := 0; i < 64; i++ {
		wg.Add(1)

		go func(i int) {
			defer wg.Done()

			c.Store(i, i)
			c.Load(i)
		}(i)
	}

	wg.Wait()

	assert.Equal(t, 64, c.Count())
}

func TestDoubleCacheScopesByOuterKey(t *testing.T) {
	t.Parallel()

	c := cache.NewDouble[int64, int64, string](8, 8)

	c.Store(1, 10, "a")
	c.Store(1, 11, "b")
	c.Store(2, 10, "c")

	value, ok := c.Load(1, 10)
	assert.True(t, ok)
	assert.Equal(t, "a", value)

	// The same sub key under a different outer key is independent.
	value, _ = c.Load(2, 10)
	assert.Equal(t, "c", value)

	assert.Equal(t, 2, c.Count(1))
	assert.Equal(t, 1, c.Count(2))
	assert.Equal(t, 3, c.TotalCount())

	c.ClearKey(1)

	assert.Equal(t, 0, c.Count(1))

	_, ok = c.Load(2, 10)
	assert.True(t, ok)
}

func TestDoubleCacheUpdate(t *testing.T) {
	t.Parallel()

	c := cache.NewDouble[int64, int64, int](8, 8)

	_, ok := c.Update(1, 10, func(value int) int { return value + 1 })
	assert.False(t, ok)

	c.Store(1, 10, 5)

	value, ok := c.Update(1, 10, func(value int) int { return value + 1 })
	assert.True(t, ok)
	assert.Equal(t, 6, value)
}

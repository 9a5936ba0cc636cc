package cache

import csmap "github.com/mhmtszr/concurrent-swiss-map"

// Cache is a single key concurrent map. Reads are lock free and
// structural mutations are exclusive per shard of the underlying map,
// so unrelated keys never serialize against each other.
type Cache[K comparable, V any] struct {
	inner *csmap.CsMap[K, V]
}

func New[K comparable, V any](size uint64) Cache[K, V] {
	return Cache[K, V]{
		inner: csmap.Create(
			csmap.WithSize[K, V](size),
		),
	}
}

func (c Cache[K, V]) Load(key K) (value V, ok bool) {
	return c.inner.Load(key)
}

func (c Cache[K, V]) Store(key K, value V) {
	c.inner.Store(key, value)
}

func (c Cache[K, V]) Delete(key K) {
	c.inner.Delete(key)
}

func (c Cache[K, V]) SetIfAbsent(key K, value V) {
	c.inner.SetIfAbsent(key, value)
}

// Update runs fn on the cached value, storing the returned value. Ok is
// false and the cache is untouched when the key is absent.
func (c Cache[K, V]) Update(key K, fn func(value V) V) (value V, ok bool) {
	value, ok = c.inner.Load(key)
	if !ok {
		return
	}

	value = fn(value)

	c.inner.Store(key, value)

	return
}

// Range calls fn for every entry. Iteration stops when fn returns true.
func (c Cache[K, V]) Range(fn func(key K, value V) bool) {
	c.inner.Range(fn)
}

func (c Cache[K, V]) Count() int {
	return c.inner.Count()
}

func (c Cache[K, V]) Clear() {
	c.inner.Clear()
}

// DoubleCache is a two level cache: an outer key (typically a guild id)
// owning an inner cache of entities.
type DoubleCache[KA comparable, KB comparable, V any] struct {
	inner     Cache[KA, Cache[KB, V]]
	sizeInner uint64
}

func NewDouble[KA comparable, KB comparable, V any](sizeOuter, sizeInner uint64) DoubleCache[KA, KB, V] {
	return DoubleCache[KA, KB, V]{
		inner:     New[KA, Cache[KB, V]](sizeOuter),
		sizeInner: sizeInner,
	}
}

// Inner returns the inner cache for a key.
func (c DoubleCache[KA, KB, V]) Inner(key KA) (value Cache[KB, V], ok bool) {
	return c.inner.Load(key)
}

// LoadOrNew returns the inner cache for a key, creating it when absent.
func (c DoubleCache[KA, KB, V]) LoadOrNew(key KA) Cache[KB, V] {
	if inner, ok := c.inner.Load(key); ok {
		return inner
	}

	c.inner.SetIfAbsent(key, New[KB, V](c.sizeInner))

	inner, _ := c.inner.Load(key)

	return inner
}

func (c DoubleCache[KA, KB, V]) Load(key KA, subKey KB) (value V, ok bool) {
	if inner, ok := c.inner.Load(key); ok {
		return inner.Load(subKey)
	}

	return
}

func (c DoubleCache[KA, KB, V]) Store(key KA, subKey KB, value V) {
	c.LoadOrNew(key).Store(subKey, value)
}

func (c DoubleCache[KA, KB, V]) Delete(key KA, subKey KB) {
	if inner, ok := c.inner.Load(key); ok {
		inner.Delete(subKey)
	}
}

func (c DoubleCache[KA, KB, V]) Update(key KA, subKey KB, fn func(value V) V) (value V, ok bool) {
	if inner, ok := c.inner.Load(key); ok {
		return inner.Update(subKey, fn)
	}

	return
}

func (c DoubleCache[KA, KB, V]) Range(fn func(key KA, value Cache[KB, V]) bool) {
	c.inner.Range(fn)
}

// Count returns the number of entries under one outer key.
func (c DoubleCache[KA, KB, V]) Count(key KA) int {
	if inner, ok := c.inner.Load(key); ok {
		return inner.Count()
	}

	return 0
}

// TotalCount returns the number of entries across all outer keys.
func (c DoubleCache[KA, KB, V]) TotalCount() int {
	count := 0

	c.inner.Range(func(_ KA, inner Cache[KB, V]) bool {
		count += inner.Count()

		return false
	})

	return count
}

// ClearKey drops the entire inner cache of one outer key.
func (c DoubleCache[KA, KB, V]) ClearKey(key KA) {
	c.inner.Delete(key)
}

func (c DoubleCache[KA, KB, V]) Clear() {
	c.inner.Clear()
}

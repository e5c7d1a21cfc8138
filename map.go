package stablecache

import "fmt"

// StableCache is a concurrent insert-only map for a set of keys whose size
// is roughly known up front. It never grows: the capacity and the number of
// buckets are fixed at construction. Keys that do not fit are kept in a
// secondary, lock-protected overflow store, so inserts never fail.
//
// Lookups of keys stored in the main table take no locks. Inserts are
// serialized by a single lock. Keys are never removed and there is no
// iteration API.
type StableCache[K comparable, V any] struct {
	table[K, V]
}

// Returns a new cache with `capacity` slots, `buckets` of which are bucket
// heads. Fails with ErrInvalidConfig unless 0 < buckets <= capacity.
func New[K comparable, V any](capacity, buckets int, opts ...Option[K, V]) (*StableCache[K, V], error) {
	var c StableCache[K, V]
	if err := c.init(capacity, buckets, opts...); err != nil {
		return nil, err
	}

	return &c, nil
}

// Same as New, but panics on invalid configuration.
func MustNew[K comparable, V any](capacity, buckets int, opts ...Option[K, V]) *StableCache[K, V] {
	c, err := New(capacity, buckets, opts...)
	if err != nil {
		panic(err)
	}

	return c
}

// Looks up a key. Never blocks unless the main table is saturated and the
// key is not in it.
func (c *StableCache[K, V]) TryGet(key K) (V, bool) {
	return c.get(key)
}

// Same as TryGet, but reports a missing key as ErrKeyNotFound.
func (c *StableCache[K, V]) Get(key K) (V, error) {
	v, ok := c.get(key)
	if !ok {
		return v, fmt.Errorf("%w: %v", ErrKeyNotFound, key)
	}

	return v, nil
}

// Stores value for key, overwriting the existing one.
// See Update for the visibility of overwrites to concurrent readers.
func (c *StableCache[K, V]) Set(key K, value V) {
	c.upsert(key, func(v *V, _ bool) {
		*v = value
	})
}

// Returns the value stored for key, adding value first if the key is absent.
// An existing value is never replaced.
func (c *StableCache[K, V]) GetOrAdd(key K, value V) V {
	v, _ := c.getOrAdd(key, func() V { return value })
	return v
}

// Same as GetOrAdd, but the value is produced by fn only when the key is
// not found. fn runs outside the lock; when two goroutines race to add the
// same key both may call fn, and only one result is kept.
func (c *StableCache[K, V]) GetOrAddFunc(key K, fn func(key K) V) V {
	v, _ := c.getOrAdd(key, func() V { return fn(key) })
	return v
}

// GetOrAddWith is GetOrAddFunc with an extra argument passed to fn, which
// lets callers avoid allocating a closure.
func GetOrAddWith[K comparable, V, A any](c *StableCache[K, V], key K, fn func(key K, arg A) V, arg A) V {
	v, _ := c.getOrAdd(key, func() V { return fn(key, arg) })
	return v
}

// Calls fn with a pointer to the value stored for key, if there is one, and
// reports whether it was found. fn runs under the cache lock and must not
// call back into the cache or keep the pointer.
//
// Lock-free readers of the same key are not synchronized with fn, so an
// in-place update of a key that is read concurrently is a data race unless
// V is itself safe for concurrent use.
func (c *StableCache[K, V]) Update(key K, fn func(value *V)) bool {
	return c.update(key, fn)
}

// Same as Update, but adds the key when it is missing. In that case fn gets
// a pointer to a zero value and loaded is false; the value becomes visible
// to readers only after fn returns.
func (c *StableCache[K, V]) UpdateOrAdd(key K, fn func(value *V, loaded bool)) {
	c.upsert(key, fn)
}

// Number of keys stored.
func (c *StableCache[K, V]) Len() int {
	return c.len()
}

func (c *StableCache[K, V]) Stats() Stats {
	return c.stats()
}

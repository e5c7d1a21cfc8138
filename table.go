package stablecache

import (
	"fmt"
	"hash/maphash"
	"math"
	"sync"
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

type slot[K comparable, V any] struct {
	// Zero until the slot is written. Stored after key and value, so a
	// reader that loads a non-zero tag also observes both of them.
	tag atomic.Uint32

	// Index of the next slot in the chain, or zero. Set at most once,
	// after the target slot is fully published.
	next atomic.Uint32

	key   K
	value V
}

// table is a fixed array of slots. Slots [0, buckets) are bucket heads,
// addressed by the tag modulo buckets. Slots [buckets, capacity) are handed
// out in arrival order to extend the chains. Once all of them are claimed,
// new keys go to the overflow store.
//
// Reads that resolve in the slot array take no locks. Every structural
// change is done under mu.
type table[K comparable, V any] struct {
	slots    []slot[K, V]
	buckets  uint32
	capacity uint32
	mod      fastMod

	hashFunc HashFunc[K]

	//lint:ignore U1000 keeps writer state off the read-only cache line
	_ cpu.CacheLinePad

	mu sync.Mutex

	// Next unclaimed slot. Only grows, only under mu.
	free atomic.Uint32
	size atomic.Int64

	overflow atomic.Pointer[overflow[K, V]]
}

type Option[K comparable, V any] func(t *table[K, V])

// Override default hash function.
func WithHashFunc[K comparable, V any](f HashFunc[K]) Option[K, V] {
	return func(t *table[K, V]) {
		t.hashFunc = f
	}
}

func (t *table[K, V]) init(capacity, buckets int, opts ...Option[K, V]) error {
	if buckets <= 0 || capacity < buckets || uint64(capacity) > math.MaxUint32 {
		return fmt.Errorf("%w: capacity %d, buckets %d", ErrInvalidConfig, capacity, buckets)
	}

	mod, err := newFastMod(uint32(buckets))
	if err != nil {
		return err
	}

	t.slots = make([]slot[K, V], capacity)
	t.buckets = uint32(buckets)
	t.capacity = uint32(capacity)
	t.mod = mod
	t.free.Store(uint32(buckets))

	for _, opt := range opts {
		opt(t)
	}

	if t.hashFunc == nil {
		t.hashFunc = MakeDefaultHashFunc[K](maphash.MakeSeed())
	}

	return nil
}

func (t *table[K, V]) tag(key K) uint32 {
	return hashTag(t.hashFunc(key))
}

// next returns the successor of slot i, or zero at the end of the chain.
// A link that does not point forward into the chain area means the table
// is corrupted, and there is nothing sane left to return.
func (t *table[K, V]) next(i uint32) uint32 {
	next := t.slots[i].next.Load()
	if next != 0 && (next <= i || next < t.buckets || next >= t.capacity) {
		panic(fmt.Errorf("%w: slot %d links to slot %d, capacity %d", ErrCorrupted, i, next, t.capacity))
	}

	return next
}

// probe walks the chain starting at slot i. It returns the index of the
// slot holding key, or of the slot where the walk stopped: an empty bucket
// head or the current chain tail.
func (t *table[K, V]) probe(i uint32, key K, tag uint32) (uint32, bool) {
	for {
		s := &t.slots[i]

		switch h := s.tag.Load(); {
		case h == 0:
			return i, false
		case h == tag && s.key == key:
			return i, true
		}

		next := t.next(i)
		if next == 0 {
			return i, false
		}

		i = next
	}
}

func (t *table[K, V]) get(key K) (V, bool) {
	tag := t.tag(key)
	i, found := t.probe(t.mod.reduce(tag), key, tag)

	for !found {
		if t.slots[i].tag.Load() == 0 {
			var zero V
			return zero, false
		}

		// The free pointer is read before the link is checked again. If the
		// chain still ends here and slots were left, no overflow entry can
		// exist for this key yet.
		free := t.free.Load()
		if next := t.next(i); next != 0 {
			i, found = t.probe(next, key, tag)
			continue
		}

		if free < t.capacity {
			var zero V
			return zero, false
		}

		t.mu.Lock()
		defer t.mu.Unlock()

		var value V
		v, _, ok := t.lookupLocked(i, key, tag)
		if ok {
			value = *v
		}

		return value, ok
	}

	return t.slots[i].value, true
}

// lookupLocked walks the rest of the chain from slot i and then the
// overflow store. Must be called with mu held. On a miss, the returned
// index is the slot where the chain walk stopped.
func (t *table[K, V]) lookupLocked(i uint32, key K, tag uint32) (*V, uint32, bool) {
	i, found := t.probe(i, key, tag)
	if found {
		return &t.slots[i].value, i, true
	}

	if ov := t.overflow.Load(); ov != nil {
		if v := ov.find(key); v != nil {
			return v, i, true
		}
	}

	return nil, i, false
}

// getOrAdd returns the value stored for key, or adds the value returned by
// produce. produce is never called while holding the lock and is skipped
// when the key is found before it is needed. The bool reports whether the
// key was already present.
func (t *table[K, V]) getOrAdd(key K, produce func() V) (V, bool) {
	tag := t.tag(key)

	i, found := t.probe(t.mod.reduce(tag), key, tag)
	if found {
		return t.slots[i].value, true
	}

	if t.free.Load() == t.capacity {
		t.mu.Lock()
		v, last, ok := t.lookupLocked(i, key, tag)
		if ok {
			value := *v
			t.mu.Unlock()

			return value, true
		}

		i = last
		t.mu.Unlock()
	}

	value := produce()

	t.mu.Lock()
	defer t.mu.Unlock()

	v, loaded := t.insertLocked(i, key, tag, value)

	return *v, loaded
}

// insertLocked adds key unless it is already reachable from slot i. Must be
// called with mu held.
func (t *table[K, V]) insertLocked(i uint32, key K, tag uint32, value V) (*V, bool) {
	v, i, found := t.lookupLocked(i, key, tag)
	if found {
		return v, true
	}

	t.size.Add(1)

	if t.slots[i].tag.Load() == 0 {
		return t.publish(i, key, tag, value), false
	}

	if free := t.free.Load(); free < t.capacity {
		t.free.Store(free + 1)
		v = t.publish(free, key, tag, value)
		// Linked only after the new slot is complete.
		t.slots[i].next.Store(free)

		return v, false
	}

	v, _ = t.overflowStore().getOrAdd(key, value)

	return v, false
}

func (t *table[K, V]) publish(i uint32, key K, tag uint32, value V) *V {
	s := &t.slots[i]
	s.key = key
	s.value = value
	s.tag.Store(tag)

	return &s.value
}

// overflowStore returns the overflow store, creating it on first use.
// Only one instance is ever installed.
func (t *table[K, V]) overflowStore() *overflow[K, V] {
	if ov := t.overflow.Load(); ov != nil {
		return ov
	}

	candidate := newOverflow[K, V]()
	if t.overflow.CompareAndSwap(nil, candidate) {
		return candidate
	}

	return t.overflow.Load()
}

// update calls fn with the stored value of key, if any, under the lock.
//
// Lock-free readers are not synchronized with fn: a reader racing with an
// update of the same key may see either value, and the race detector will
// report it. Use update for keys that are not read concurrently, or for
// values that are themselves safe for concurrent use.
func (t *table[K, V]) update(key K, fn func(value *V)) bool {
	tag := t.tag(key)

	t.mu.Lock()
	defer t.mu.Unlock()

	v, _, ok := t.lookupLocked(t.mod.reduce(tag), key, tag)
	if ok {
		fn(v)
	}

	return ok
}

// upsert is update that adds the key when it is missing. For a new key fn
// gets a pointer to a zero value that is published only after fn returns,
// so readers never observe the zero value.
func (t *table[K, V]) upsert(key K, fn func(value *V, loaded bool)) {
	tag := t.tag(key)

	t.mu.Lock()
	defer t.mu.Unlock()

	v, i, ok := t.lookupLocked(t.mod.reduce(tag), key, tag)
	if ok {
		fn(v, true)
		return
	}

	var value V
	fn(&value, false)
	t.insertLocked(i, key, tag, value)
}

func (t *table[K, V]) len() int {
	return int(t.size.Load())
}

func (t *table[K, V]) stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := Stats{
		Size:     int(t.size.Load()),
		Capacity: int(t.capacity),
		Buckets:  int(t.buckets),
		Chained:  int(t.free.Load() - t.buckets),
	}

	if ov := t.overflow.Load(); ov != nil {
		s.Overflow = ov.len()
	}

	s.Saturated = t.free.Load() == t.capacity

	return s
}

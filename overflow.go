package stablecache

const blockSize = 8

// block is a fixed chunk of overflow entries. Blocks are allocated one by
// one and never copied, so a pointer to an entry's value stays valid for
// the lifetime of the cache.
type block[K comparable, V any] struct {
	keys   [blockSize]K
	values [blockSize]V
}

type location struct {
	block uint32
	slot  uint32
}

// overflow stores the keys that arrive after every main slot is claimed.
// It does no locking on its own: callers must hold the table lock.
type overflow[K comparable, V any] struct {
	blocks []*block[K, V]
	index  map[K]location

	// Entries used in the last block.
	used uint32
}

func newOverflow[K comparable, V any]() *overflow[K, V] {
	return &overflow[K, V]{
		index: make(map[K]location, blockSize),
		used:  blockSize,
	}
}

func (o *overflow[K, V]) find(key K) *V {
	loc, ok := o.index[key]
	if !ok {
		return nil
	}

	return &o.blocks[loc.block].values[loc.slot]
}

// getOrAdd returns the stored value for key, adding value first if the key
// is absent. The bool reports whether the key already existed.
func (o *overflow[K, V]) getOrAdd(key K, value V) (*V, bool) {
	if v := o.find(key); v != nil {
		return v, true
	}

	if o.used == blockSize {
		o.blocks = append(o.blocks, new(block[K, V]))
		o.used = 0
	}

	loc := location{block: uint32(len(o.blocks) - 1), slot: o.used}
	b := o.blocks[loc.block]
	b.keys[loc.slot] = key
	b.values[loc.slot] = value

	o.used++
	o.index[key] = loc

	return &b.values[loc.slot], false
}

func (o *overflow[K, V]) len() int {
	return len(o.index)
}

package stablecache

// StableSet is a concurrent insert-only set built on the same table as
// StableCache. It stores keys only.
type StableSet[K comparable] struct {
	table[K, struct{}]
}

func NewSet[K comparable](capacity, buckets int, opts ...Option[K, struct{}]) (*StableSet[K], error) {
	var ss StableSet[K]
	if err := ss.init(capacity, buckets, opts...); err != nil {
		return nil, err
	}

	return &ss, nil
}

func (ss *StableSet[K]) Has(key K) bool {
	_, ok := ss.get(key)
	return ok
}

// Puts a key in the set.
// Returns whether the key is new.
func (ss *StableSet[K]) Add(key K) bool {
	_, loaded := ss.getOrAdd(key, func() struct{} { return struct{}{} })
	return !loaded
}

func (ss *StableSet[K]) Len() int {
	return ss.len()
}

func (ss *StableSet[K]) Stats() Stats {
	return ss.stats()
}

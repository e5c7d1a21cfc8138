package stablecache

import "hash/maphash"

// HashFunc must return the same hash for equal keys for the whole lifetime
// of the cache: chain placement depends on it permanently.
type HashFunc[K comparable] func(K) uint64

func MakeDefaultHashFunc[K comparable](seed maphash.Seed) HashFunc[K] {
	return func(k K) uint64 {
		return maphash.Comparable(seed, k)
	}
}

// hashTag folds a 64-bit hash into the 32-bit slot tag.
// Tag 0 marks a never written slot, so a zero hash becomes 1.
func hashTag(hash uint64) uint32 {
	tag := uint32(hash) ^ uint32(hash>>32)
	if tag == 0 {
		return 1
	}

	return tag
}

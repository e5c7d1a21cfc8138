package stablecache

import "unsafe"

// Estimates capacity (number of main slots) from the given memory size in
// bytes. Overflow entries are not accounted for.
func CapacityFromSize[K comparable, V any](size uintptr) int {
	return int(size / unsafe.Sizeof(slot[K, V]{}))
}

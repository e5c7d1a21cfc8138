package stablecache

type Stats struct {
	// Number of keys stored.
	Size int

	// Fixed number of main slots, bucket heads included.
	Capacity int
	Buckets  int

	// Main slots claimed past the bucket heads.
	Chained int

	// Keys held by the overflow store.
	Overflow int

	// Every main slot is claimed, new chain entries go to overflow.
	Saturated bool
}

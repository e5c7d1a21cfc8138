package stablecache

import "errors"

var (
	// ErrInvalidConfig is returned by New when the capacity or the bucket
	// count cannot describe a valid table.
	ErrInvalidConfig = errors.New("stablecache: invalid configuration")

	// ErrKeyNotFound is returned by Get for a key that was never added.
	ErrKeyNotFound = errors.New("stablecache: key not found")

	// ErrCorrupted is the panic value (wrapped) raised when a chain link
	// points outside the slot array. It is never returned as an error.
	ErrCorrupted = errors.New("stablecache: table integrity violation")
)

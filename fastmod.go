package stablecache

import (
	"fmt"
	"math"
)

// fastMod computes `value % divisor` with two multiplications and shifts
// instead of a division. Exact for any 32-bit value when the divisor is
// within [1, math.MaxInt32].
type fastMod struct {
	divisor    uint32
	multiplier uint64
}

func newFastMod(divisor uint32) (fastMod, error) {
	if divisor == 0 || divisor > math.MaxInt32 {
		return fastMod{}, fmt.Errorf("%w: divisor %d is out of [1, %d]", ErrInvalidConfig, divisor, math.MaxInt32)
	}

	return fastMod{
		divisor: divisor,
		// floor(2^64 / divisor) + 1. Wraps to 0 for a divisor of 1,
		// which still reduces every value to 0.
		multiplier: math.MaxUint64/uint64(divisor) + 1,
	}, nil
}

//go:inline
func (f fastMod) reduce(value uint32) uint32 {
	return uint32((((f.multiplier * uint64(value)) >> 32) + 1) * uint64(f.divisor) >> 32)
}

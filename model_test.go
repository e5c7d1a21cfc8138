package stablecache

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

// Runs random operations against the cache and a plain map and compares
// the observable contents.
func TestStableCache_Model(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		buckets  int
		keys     int
	}{
		{"roomy", 1024, 256, 512},
		{"saturated", 64, 16, 512},
		{"single bucket", 8, 1, 128},
		{"heads only", 32, 32, 128},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sc := MustNew[int, int](tc.capacity, tc.buckets)
			model := make(map[int]int)
			rnd := rand.New(rand.NewPCG(uint64(tc.capacity), uint64(tc.keys)))

			for range tc.keys * 8 {
				k := rnd.IntN(tc.keys)
				v := rnd.Int()

				switch rnd.IntN(4) {
				case 0:
					sc.Set(k, v)
					model[k] = v
				case 1:
					got := sc.GetOrAdd(k, v)
					if _, ok := model[k]; !ok {
						model[k] = v
					}
					require.Equal(t, model[k], got)
				case 2:
					found := sc.Update(k, func(p *int) { *p = v })
					_, ok := model[k]
					require.Equal(t, ok, found)
					if ok {
						model[k] = v
					}
				case 3:
					got, ok := sc.TryGet(k)
					want, wantOK := model[k]
					require.Equal(t, wantOK, ok)
					require.Equal(t, want, got)
				}
			}

			got := make(map[int]int, len(model))
			for k := range tc.keys {
				if v, ok := sc.TryGet(k); ok {
					got[k] = v
				}
			}

			if diff := cmp.Diff(model, got); diff != "" {
				t.Fatalf("cache contents mismatch (-want +got):\n%s", diff)
			}

			require.Equal(t, len(model), sc.Len())
		})
	}
}

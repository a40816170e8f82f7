// Package valgen generates stimulus values for the input channels.
package valgen

import "math/rand"

// A Gen returns the next stimulus, one value per channel, and false once it
// is exhausted.
type Gen func() ([]uint64, bool)

// MakeExhaustiveGen walks every combination of channel values once. The
// first channel changes fastest.
func MakeExhaustiveGen(widths []int) Gen {
	current := make([]uint64, len(widths))
	done := len(widths) == 0

	return func() ([]uint64, bool) {
		if done {
			return nil, false
		}

		out := append([]uint64{}, current...)

		done = true
		for i, w := range widths {
			current[i]++
			if current[i] < 1<<uint(w) {
				done = false
				break
			}
			current[i] = 0
		}

		return out, true
	}
}

// MakeRandomGen draws n uniform stimuli from rng.
func MakeRandomGen(rng *rand.Rand, widths []int, n int) Gen {
	count := 0
	return func() ([]uint64, bool) {
		if count >= n {
			return nil, false
		}
		count++

		out := make([]uint64, len(widths))
		for i, w := range widths {
			out[i] = uint64(rng.Int63n(1 << uint(w)))
		}

		return out, true
	}
}

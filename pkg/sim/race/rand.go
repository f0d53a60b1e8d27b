package race

import "math/rand"

func newRand(seed int64) *rand.Rand {
	//nolint:gosec // simulation randomness, not security relevant
	return rand.New(rand.NewSource(seed))
}

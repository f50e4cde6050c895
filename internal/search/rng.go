package search

import (
	"encoding/binary"

	"lukechampine.com/frand"
)

// RNG is the single random source threaded through one search. It is a
// ChaCha stream keyed by the seed, so equal seeds give equal sequences on
// every platform.
type RNG struct {
	r *frand.RNG
}

// NewRNG returns a generator keyed by seed.
func NewRNG(seed uint64) *RNG {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:8], seed)
	copy(key[8:], "zyra/mcts/playout-stream")
	return &RNG{r: frand.NewCustom(key[:], 1024, 12)}
}

// Float64 returns a uniform value in [0, 1).
func (g *RNG) Float64() float64 {
	return float64(g.r.Uint64n(1<<53)) / (1 << 53)
}

// Intn returns a uniform value in [0, n).
func (g *RNG) Intn(n int) int {
	return g.r.Intn(n)
}

// Package composer turns a raga into bars of melody, percussion, bass and
// chords. Every function is a pure function of its inputs and the random
// source it is handed.
package composer

import (
	"math/rand/v2"
)

// Rand is the random source used by every generator. *rand.Rand satisfies it.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

// NewRand returns a deterministic source for seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Choice picks a uniform element of xs. xs must not be empty.
func Choice[T any](rng Rand, xs []T) T {
	return xs[rng.IntN(len(xs))]
}

// Weighted picks xs[i] with probability weights[i] / sum(weights).
func Weighted[T any](rng Rand, xs []T, weights []float64) T {
	total := 0.0
	for _, w := range weights {
		total += w
	}
	r := rng.Float64() * total
	acc := 0.0
	for i, w := range weights {
		acc += w
		if r < acc {
			return xs[i]
		}
	}
	return xs[len(xs)-1]
}

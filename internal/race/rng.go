package race

import "math/rand/v2"

func newSampler() Sampler {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// NewSeededSampler returns a deterministic sampler. It is not safe for
// concurrent use on its own; the Engine serializes access.
func NewSeededSampler(seed uint64) Sampler {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

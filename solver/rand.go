package solver

// A tiny linear congruential generator. Search must be reproducible for a
// fixed seed, and any system randomness source would break that, so the
// solver carries its own generator.
type prng struct {
	seed float64
}

// float returns a pseudo-random float in [0, 1).
func (r *prng) float() float64 {
	r.seed *= 1389796
	q := int64(r.seed / 2147483647)
	r.seed -= float64(q) * 2147483647
	return r.seed / 2147483647
}

// intn returns a pseudo-random int in [0, n).
func (r *prng) intn(n int) int {
	return int(r.float() * float64(n))
}

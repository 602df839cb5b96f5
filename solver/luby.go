package solver

import "math"

// luby returns the x-th term (from 0) of the Luby restart sequence scaled
// by y: where the plain sequence (1, 1, 2, 1, 1, 2, 4, 1, 1, 2, 1, 1, 2, 4,
// 8, ...) has the term 2^k, the result is y^k. With y = 2 it is the plain
// sequence itself.
func luby(y float64, x int) float64 {
	// Find the finite subsequence that contains index x, and the size of that subsequence.
	size, seq := 1, 0
	for size < x+1 {
		seq++
		size = 2*size + 1
	}
	for size-1 != x {
		size = (size - 1) >> 1
		seq--
		x %= size
	}
	return math.Pow(y, float64(seq))
}

// Package variation provides deterministic pseudo-variation derived
// from string seeds. Identical seeds always produce identical values,
// which keeps every scoring run reproducible.
package variation

// Hash computes a non-negative 32-bit string hash. The rolling
// multiply-by-31 form keeps parity with historical score records, so
// it must not change.
func Hash(s string) int64 {
	var hash int32
	for _, r := range s {
		hash = (hash << 5) - hash + int32(r)
	}
	if hash < 0 {
		return int64(-hash)
	}
	return int64(hash)
}

// Scaled maps a seed onto [min, max) with four decimal places of
// resolution.
func Scaled(seed string, min, max float64) float64 {
	unit := float64(Hash(seed)%10000) / 10000
	return min + unit*(max-min)
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

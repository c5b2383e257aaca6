package utils

// ClampF64 clamps x to the range [min, max].
func ClampF64(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}

// AbsInt returns the absolute value of an integer.
func AbsInt(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

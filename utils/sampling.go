package utils

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// SampleNIntegersUniform samples n integers uniformly in [vMin, vMax] from
// the given source. A nil source falls back to the global one.
func SampleNIntegersUniform(n int, vMin, vMax float64, src rand.Source) []int {
	z := make([]int, n)
	dist := distuv.Uniform{
		Min: vMin,
		Max: vMax,
		Src: src,
	}
	for i := range z {
		val := math.Round(dist.Rand())
		for val < vMin || val > vMax {
			val = math.Round(dist.Rand())
		}
		z[i] = int(val)
	}
	return z
}

// SampleNIntegersNormal samples n integers from a normal distribution
// centered on (vMax+vMin)/2, rejecting samples outside [vMin, vMax].
func SampleNIntegersNormal(n int, vMin, vMax float64, src rand.Source) []int {
	z := make([]int, n)
	dist := distuv.Normal{
		Mu:    (vMax + vMin) / 2,
		Sigma: (vMax - vMin) * 0.4472,
		Src:   src,
	}
	for i := range z {
		val := math.Round(dist.Rand())
		for val < vMin || val > vMax {
			val = math.Round(dist.Rand())
		}
		z[i] = int(val)
	}
	return z
}

// SampleNRegularlySpaced returns n integers regularly spaced in [vMin, vMax].
func SampleNRegularlySpaced(n int, vMin, vMax float64) []int {
	z := make([]int, n)
	step := (vMax - vMin) / float64(n)
	for i := range z {
		z[i] = int(math.Round(vMin + float64(i)*step))
	}
	return z
}

// Package utils contains small numeric helpers shared by the image and
// tracking packages.
package utils

import (
	"math/bits"

	"github.com/pkg/errors"
)

// HammingDistance computes the hamming distance between two binary
// descriptors packed into uint64 words.
func HammingDistance(d1, d2 []uint64) (int, error) {
	if len(d1) != len(d2) {
		return -1, errors.Errorf("descriptors must have same length (%d vs %d)", len(d1), len(d2))
	}
	distance := 0
	for i := range d1 {
		distance += bits.OnesCount64(d1[i] ^ d2[i])
	}
	return distance, nil
}

// PairwiseHammingDistances computes the pairwise distances between 2 sets of
// packed binary descriptors.
func PairwiseHammingDistances(desc1, desc2 [][]uint64) ([][]int, error) {
	distances := make([][]int, len(desc1))
	for i, d1 := range desc1 {
		distances[i] = make([]int, len(desc2))
		for j, d2 := range desc2 {
			d, err := HammingDistance(d1, d2)
			if err != nil {
				return nil, err
			}
			distances[i][j] = d
		}
	}
	return distances, nil
}

// GetArgMinDistancesPerRowInt returns the index of the minimum value in each
// row of the distance matrix.
func GetArgMinDistancesPerRowInt(distances [][]int) []int {
	indices := make([]int, len(distances))
	for i, row := range distances {
		minIdx := 0
		for j := range row {
			if row[j] < row[minIdx] {
				minIdx = j
			}
		}
		indices[i] = minIdx
	}
	return indices
}

// Transpose returns the transpose of an integer matrix.
func Transpose(m [][]int) [][]int {
	if len(m) == 0 {
		return nil
	}
	out := make([][]int, len(m[0]))
	for i := range out {
		out[i] = make([]int, len(m))
		for j := range m {
			out[i][j] = m[j][i]
		}
	}
	return out
}

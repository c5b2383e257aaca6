package utils

import (
	"testing"

	"go.viam.com/test"
)

func TestHammingDistance(t *testing.T) {
	d1 := []uint64{0, 0}
	d2 := []uint64{0, 0}
	dist, err := HammingDistance(d1, d2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dist, test.ShouldEqual, 0)

	d3 := []uint64{0b1011, 0}
	dist, err = HammingDistance(d1, d3)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dist, test.ShouldEqual, 3)

	d4 := []uint64{^uint64(0), ^uint64(0)}
	dist, err = HammingDistance(d1, d4)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, dist, test.ShouldEqual, 128)

	// length mismatch
	_, err = HammingDistance(d1, []uint64{0})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestPairwiseHammingDistances(t *testing.T) {
	desc1 := [][]uint64{{0}, {0b11}}
	desc2 := [][]uint64{{0}, {0b1}, {0b111}}
	distances, err := PairwiseHammingDistances(desc1, desc2)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, len(distances), test.ShouldEqual, 2)
	test.That(t, distances[0], test.ShouldResemble, []int{0, 1, 3})
	test.That(t, distances[1], test.ShouldResemble, []int{2, 1, 1})
}

func TestGetArgMinDistancesPerRowInt(t *testing.T) {
	distances := [][]int{
		{5, 1, 3},
		{0, 2, 9},
		{4, 4, 2},
	}
	indices := GetArgMinDistancesPerRowInt(distances)
	test.That(t, indices, test.ShouldResemble, []int{1, 0, 2})
}

func TestTranspose(t *testing.T) {
	m := [][]int{
		{1, 2, 3},
		{4, 5, 6},
	}
	mT := Transpose(m)
	test.That(t, len(mT), test.ShouldEqual, 3)
	test.That(t, mT[0], test.ShouldResemble, []int{1, 4})
	test.That(t, mT[1], test.ShouldResemble, []int{2, 5})
	test.That(t, mT[2], test.ShouldResemble, []int{3, 6})
	test.That(t, Transpose(nil), test.ShouldBeNil)
}

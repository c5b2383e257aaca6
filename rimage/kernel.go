// Package rimage provides the grayscale image operations the front end is
// built on: convolution, padding, Sobel gradients and multi-scale pyramids.
package rimage

import (
	"image"

	"github.com/pkg/errors"
)

// Kernel is a 2 dimensional matrix used for convolutions.
type Kernel struct {
	Content [][]float64
	Width   int
	Height  int
}

// NewKernel creates a new Kernel with the given width and height.
func NewKernel(width, height int) (*Kernel, error) {
	if width < 0 || height < 0 {
		return nil, errors.Errorf("negative kernel dimensions %d x %d", width, height)
	}
	content := make([][]float64, height)
	for i := range content {
		content[i] = make([]float64, width)
	}
	return &Kernel{content, width, height}, nil
}

// At returns the kernel value at position (x, y).
func (k *Kernel) At(x, y int) float64 {
	return k.Content[y][x]
}

// Set sets the kernel value at position (x, y).
func (k *Kernel) Set(x, y int, value float64) {
	k.Content[y][x] = value
}

// Size returns the kernel dimensions as an image.Point.
func (k *Kernel) Size() image.Point {
	return image.Point{k.Width, k.Height}
}

// AbSum returns the sum of the absolute values of all kernel entries.
func (k *Kernel) AbSum() float64 {
	var sum float64
	for y := 0; y < k.Height; y++ {
		for x := 0; x < k.Width; x++ {
			v := k.Content[y][x]
			if v < 0 {
				v = -v
			}
			sum += v
		}
	}
	return sum
}

// Normalize returns a copy of the kernel scaled so its absolute values sum
// to 1, leaving an all-zero kernel unchanged.
func (k *Kernel) Normalize() *Kernel {
	normalized, _ := NewKernel(k.Width, k.Height)
	sum := k.AbSum()
	if sum == 0 {
		sum = 1
	}
	for y := 0; y < k.Height; y++ {
		for x := 0; x < k.Width; x++ {
			normalized.Content[y][x] = k.Content[y][x] / sum
		}
	}
	return normalized
}

// GetSobelX returns the Kernel corresponding to the Sobel kernel in the x direction.
func GetSobelX() Kernel {
	return Kernel{[][]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}, 3, 3}
}

// GetSobelY returns the Kernel corresponding to the Sobel kernel in the y direction.
func GetSobelY() Kernel {
	return Kernel{[][]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}, 3, 3}
}

// GetGaussian3 returns a 3x3 Gaussian kernel.
func GetGaussian3() Kernel {
	return Kernel{[][]float64{
		{1, 2, 1},
		{2, 4, 2},
		{1, 2, 1},
	}, 3, 3}
}

// GetGaussian5 returns a 5x5 Gaussian kernel.
func GetGaussian5() Kernel {
	return Kernel{[][]float64{
		{1, 4, 7, 4, 1},
		{4, 16, 26, 16, 4},
		{7, 26, 41, 26, 7},
		{4, 16, 26, 16, 4},
		{1, 4, 7, 4, 1},
	}, 5, 5}
}

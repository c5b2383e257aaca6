package rimage

import (
	"image"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// BorderPad selects how out-of-image pixels are synthesized when padding.
type BorderPad int

const (
	// BorderConstant fills the padded region with zeros.
	BorderConstant BorderPad = iota
	// BorderReplicate extends the closest border pixel.
	BorderReplicate
	// BorderReflect mirrors the image across its border.
	BorderReflect
)

// PaddingGray pads img so a kernel of the given size anchored at anchor can
// be applied to every original pixel. The result has dimensions
// (w+kernelSize.X-1) x (h+kernelSize.Y-1).
func PaddingGray(img *image.Gray, kernelSize, anchor image.Point, border BorderPad) (*image.Gray, error) {
	originalSize := img.Bounds().Size()
	top, left := anchor.Y, anchor.X
	bottom := kernelSize.Y - anchor.Y - 1
	right := kernelSize.X - anchor.X - 1
	if top < 0 || left < 0 || bottom < 0 || right < 0 {
		return nil, errors.New("anchor must lie inside the kernel")
	}
	padded := image.NewGray(image.Rect(0, 0, originalSize.X+left+right, originalSize.Y+top+bottom))
	paddedSize := padded.Bounds().Size()
	for y := 0; y < paddedSize.Y; y++ {
		for x := 0; x < paddedSize.X; x++ {
			sx, sy := x-left, y-top
			switch border {
			case BorderConstant:
				if sx < 0 || sy < 0 || sx >= originalSize.X || sy >= originalSize.Y {
					continue
				}
			case BorderReplicate:
				sx = clampInt(sx, 0, originalSize.X-1)
				sy = clampInt(sy, 0, originalSize.Y-1)
			case BorderReflect:
				sx = reflectInt(sx, originalSize.X)
				sy = reflectInt(sy, originalSize.Y)
			}
			padded.SetGray(x, y, img.GrayAt(sx, sy))
		}
	}
	return padded, nil
}

// PaddingFloat64 pads a float64 matrix the same way PaddingGray pads an
// image, with a constant fill value outside the original data.
func PaddingFloat64(m *mat.Dense, kernelSize, anchor image.Point, fill float64) (*mat.Dense, error) {
	h, w := m.Dims()
	top, left := anchor.Y, anchor.X
	bottom := kernelSize.Y - anchor.Y - 1
	right := kernelSize.X - anchor.X - 1
	if top < 0 || left < 0 || bottom < 0 || right < 0 {
		return nil, errors.New("anchor must lie inside the kernel")
	}
	padded := mat.NewDense(h+top+bottom, w+left+right, nil)
	ph, pw := padded.Dims()
	for y := 0; y < ph; y++ {
		for x := 0; x < pw; x++ {
			sx, sy := x-left, y-top
			if sx < 0 || sy < 0 || sx >= w || sy >= h {
				padded.Set(y, x, fill)
				continue
			}
			padded.Set(y, x, m.At(sy, sx))
		}
	}
	return padded, nil
}

func clampInt(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func reflectInt(v, n int) int {
	if v < 0 {
		v = -v - 1
	}
	if v >= n {
		v = 2*n - v - 1
	}
	return clampInt(v, 0, n-1)
}

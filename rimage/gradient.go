package rimage

import (
	"image"

	"gonum.org/v1/gonum/mat"
)

// Gradients holds the horizontal and vertical Sobel responses of an image.
type Gradients struct {
	X *mat.Dense
	Y *mat.Dense
}

// SobelGradientsGray computes the Sobel gradients of a gray image.
func SobelGradientsGray(img *image.Gray) (*Gradients, error) {
	m := GrayToFloat64(img)
	sobelX := GetSobelX()
	sobelY := GetSobelY()
	gx, err := ConvolveGrayFloat64(m, &sobelX)
	if err != nil {
		return nil, err
	}
	gy, err := ConvolveGrayFloat64(m, &sobelY)
	if err != nil {
		return nil, err
	}
	return &Gradients{X: gx, Y: gy}, nil
}

// BilinearAt samples a dense matrix at the subpixel position (x, y) with
// bilinear interpolation, clamping to the matrix border.
func BilinearAt(m *mat.Dense, x, y float64) float64 {
	h, w := m.Dims()
	x0 := int(x)
	y0 := int(y)
	if x0 < 0 {
		x0 = 0
	}
	if y0 < 0 {
		y0 = 0
	}
	if x0 > w-2 {
		x0 = w - 2
	}
	if y0 > h-2 {
		y0 = h - 2
	}
	fx := x - float64(x0)
	fy := y - float64(y0)
	if fx < 0 {
		fx = 0
	} else if fx > 1 {
		fx = 1
	}
	if fy < 0 {
		fy = 0
	} else if fy > 1 {
		fy = 1
	}
	p00 := m.At(y0, x0)
	p10 := m.At(y0, x0+1)
	p01 := m.At(y0+1, x0)
	p11 := m.At(y0+1, x0+1)
	return p00*(1-fx)*(1-fy) + p10*fx*(1-fy) + p01*(1-fx)*fy + p11*fx*fy
}

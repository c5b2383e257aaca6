package rimage

import (
	"image"

	"github.com/disintegration/imaging"
	"gonum.org/v1/gonum/mat"
)

// MakeGray converts any image into a grayscale one.
func MakeGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	flat := imaging.Grayscale(img)
	bounds := flat.Bounds()
	out := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			out.Set(x-bounds.Min.X, y-bounds.Min.Y, flat.NRGBAAt(x, y))
		}
	}
	return out
}

// GrayToFloat64 converts a grayscale image into a float64 dense matrix with
// one row per image row.
func GrayToFloat64(img *image.Gray) *mat.Dense {
	bounds := img.Bounds()
	h, w := bounds.Dy(), bounds.Dx()
	out := mat.NewDense(h, w, nil)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			out.Set(y, x, float64(img.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y))
		}
	}
	return out
}

// BilinearGray samples img at the subpixel position (x, y) with bilinear
// interpolation, clamping to the image border.
func BilinearGray(img *image.Gray, x, y float64) float64 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
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
	p00 := float64(img.GrayAt(x0, y0).Y)
	p10 := float64(img.GrayAt(x0+1, y0).Y)
	p01 := float64(img.GrayAt(x0, y0+1).Y)
	p11 := float64(img.GrayAt(x0+1, y0+1).Y)
	return p00*(1-fx)*(1-fy) + p10*fx*(1-fy) + p01*(1-fx)*fy + p11*fx*fy
}

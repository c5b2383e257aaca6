package rimage

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"
)

func makeTestGray() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 64, 48))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.Gray{0}}, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(16, 12, 48, 36), &image.Uniform{color.Gray{200}}, image.Point{}, draw.Src)
	return img
}

func TestConvolveGrayIdentity(t *testing.T) {
	img := makeTestGray()
	identity, err := NewKernel(3, 3)
	test.That(t, err, test.ShouldBeNil)
	identity.Set(1, 1, 1)
	out, err := ConvolveGray(img, identity, image.Point{1, 1}, BorderReplicate)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.Bounds(), test.ShouldResemble, img.Bounds())
	for y := 0; y < 48; y++ {
		for x := 0; x < 64; x++ {
			test.That(t, out.GrayAt(x, y).Y, test.ShouldEqual, img.GrayAt(x, y).Y)
		}
	}
}

func TestConvolveGrayBlurPreservesFlatRegions(t *testing.T) {
	img := makeTestGray()
	kernel := GetGaussian3()
	normalized := kernel.Normalize()
	out, err := ConvolveGray(img, normalized, image.Point{1, 1}, BorderReflect)
	test.That(t, err, test.ShouldBeNil)
	// deep inside the uniform regions a normalized blur changes nothing
	test.That(t, out.GrayAt(32, 24).Y, test.ShouldEqual, uint8(200))
	test.That(t, out.GrayAt(2, 2).Y, test.ShouldEqual, uint8(0))
	// on the rectangle edge the response is in between
	edge := out.GrayAt(16, 24).Y
	test.That(t, edge, test.ShouldBeGreaterThan, uint8(0))
	test.That(t, edge, test.ShouldBeLessThan, uint8(200))
}

func TestConvolveGrayFloat64Sobel(t *testing.T) {
	// vertical step edge: x gradient fires along the edge, y gradient stays 0
	m := mat.NewDense(16, 16, nil)
	for y := 0; y < 16; y++ {
		for x := 8; x < 16; x++ {
			m.Set(y, x, 100)
		}
	}
	sobelX := GetSobelX()
	gx, err := ConvolveGrayFloat64(m, &sobelX)
	test.That(t, err, test.ShouldBeNil)
	sobelY := GetSobelY()
	gy, err := ConvolveGrayFloat64(m, &sobelY)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, gx.At(8, 7), test.ShouldBeGreaterThan, 0.)
	test.That(t, gy.At(8, 7), test.ShouldEqual, 0.)
	// far from the edge both responses vanish
	test.That(t, gx.At(8, 2), test.ShouldEqual, 0.)
	test.That(t, gy.At(8, 2), test.ShouldEqual, 0.)
}

func TestSobelGradientsGray(t *testing.T) {
	img := makeTestGray()
	grads, err := SobelGradientsGray(img)
	test.That(t, err, test.ShouldBeNil)
	h, w := grads.X.Dims()
	test.That(t, h, test.ShouldEqual, 48)
	test.That(t, w, test.ShouldEqual, 64)
	// left rectangle edge responds in x, not in y
	test.That(t, grads.X.At(24, 16), test.ShouldNotEqual, 0.)
	test.That(t, grads.Y.At(24, 16), test.ShouldEqual, 0.)
	// top rectangle edge responds in y, not in x
	test.That(t, grads.Y.At(12, 32), test.ShouldNotEqual, 0.)
	test.That(t, grads.X.At(12, 32), test.ShouldEqual, 0.)
}

func TestKernelNormalize(t *testing.T) {
	kernel := GetGaussian5()
	normalized := kernel.Normalize()
	sum := 0.
	for y := 0; y < 5; y++ {
		for x := 0; x < 5; x++ {
			sum += normalized.At(x, y)
		}
	}
	test.That(t, sum, test.ShouldAlmostEqual, 1, 1e-12)
}

func TestBilinear(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	img.SetGray(1, 1, color.Gray{100})
	img.SetGray(2, 1, color.Gray{200})
	test.That(t, BilinearGray(img, 1, 1), test.ShouldEqual, 100.)
	test.That(t, BilinearGray(img, 1.5, 1), test.ShouldEqual, 150.)

	m := GrayToFloat64(img)
	test.That(t, BilinearAt(m, 1, 1), test.ShouldEqual, 100.)
	test.That(t, BilinearAt(m, 1.5, 1), test.ShouldEqual, 150.)
	test.That(t, BilinearAt(m, 2, 1), test.ShouldEqual, 200.)
}

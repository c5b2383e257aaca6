package keypoints

import (
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func createTestImage() *image.Gray {
	rectImage := image.NewGray(image.Rect(0, 0, 300, 200))
	whiteRect := image.Rect(50, 30, 100, 150)
	white := color.Gray{255}
	black := color.Gray{0}
	draw.Draw(rectImage, rectImage.Bounds(), &image.Uniform{black}, image.Point{0, 0}, draw.Src)
	draw.Draw(rectImage, whiteRect, &image.Uniform{white}, image.Point{0, 0}, draw.Src)
	return rectImage
}

func TestLoadFASTConfiguration(t *testing.T) {
	cfg := LoadFASTConfiguration("kpconfig.json")
	test.That(t, cfg, test.ShouldNotBeNil)
	test.That(t, cfg.Threshold, test.ShouldEqual, 0.15)
	test.That(t, cfg.NMatchesCircle, test.ShouldEqual, 9)
	test.That(t, cfg.NMSWinSize, test.ShouldEqual, 7)
}

func TestGetPointValuesInNeighborhood(t *testing.T) {
	rectImage := createTestImage()
	// testing cross neighborhood
	vals := GetPointValuesInNeighborhood(rectImage, image.Point{50, 30}, CrossIdx)
	test.That(t, len(vals), test.ShouldEqual, 4)
	// test values at a corner of the rectangle
	test.That(t, vals[0], test.ShouldEqual, 255)
	test.That(t, vals[1], test.ShouldEqual, 255)
	test.That(t, vals[2], test.ShouldEqual, 0)
	test.That(t, vals[3], test.ShouldEqual, 0)
	// testing circle neighborhood
	valsCircle := GetPointValuesInNeighborhood(rectImage, image.Point{50, 30}, CircleIdx)
	test.That(t, len(valsCircle), test.ShouldEqual, 16)
	test.That(t, valsCircle[0], test.ShouldEqual, 0)
	test.That(t, valsCircle[1], test.ShouldEqual, 0)
	test.That(t, valsCircle[2], test.ShouldEqual, 0)
	test.That(t, valsCircle[3], test.ShouldEqual, 0)
	test.That(t, valsCircle[4], test.ShouldEqual, 255)
	test.That(t, valsCircle[5], test.ShouldEqual, 255)
	test.That(t, valsCircle[6], test.ShouldEqual, 255)
	test.That(t, valsCircle[7], test.ShouldEqual, 255)
	test.That(t, valsCircle[8], test.ShouldEqual, 255)
	for i := 9; i < len(valsCircle); i++ {
		test.That(t, valsCircle[i], test.ShouldEqual, 0)
	}
}

func TestIsValidSlice(t *testing.T) {
	tests := []struct {
		s        []float64
		n        int
		expected bool
	}{
		{[]float64{0, 0, 0, 0, 0}, 9, false},
		{[]float64{1, 1, 1, 1, 1, 1, 1}, 3, true},
		{[]float64{0, 1, 1, 1, 0, 1, 1}, 2, true},
		{[]float64{0, 1, 1, 0, 0, 1, 0}, 2, false},
		// wrap-around run
		{[]float64{1, 1, 0, 0, 0, 1, 1}, 3, true},
	}
	for _, tst := range tests {
		test.That(t, isValidSliceVals(tst.s, tst.n), test.ShouldEqual, tst.expected)
	}
}

func TestSumPositiveValues(t *testing.T) {
	test.That(t, sumOfPositiveValuesSlice([]float64{1, -2, 3, 0}), test.ShouldEqual, 4.)
	test.That(t, sumOfPositiveValuesSlice([]float64{-1, -2}), test.ShouldEqual, 0.)
}

func TestSumNegativeValues(t *testing.T) {
	test.That(t, sumOfNegativeValuesSlice([]float64{1, -2, 3, -1}), test.ShouldEqual, -3.)
	test.That(t, sumOfNegativeValuesSlice([]float64{1, 2}), test.ShouldEqual, 0.)
}

func TestBrighterDarkerValues(t *testing.T) {
	s := []float64{10, 120, 250}
	test.That(t, getBrighterValues(s, 120), test.ShouldResemble, []float64{0, 0, 1})
	test.That(t, getDarkerValues(s, 120), test.ShouldResemble, []float64{1, 0, 0})
}

func TestComputeFAST(t *testing.T) {
	img := createTestImage()
	cfg := &FASTConfig{
		NMatchesCircle: 9,
		NMSWinSize:     7,
		Threshold:      20,
	}
	kps := ComputeFAST(img, cfg)
	test.That(t, len(kps), test.ShouldBeGreaterThan, 0)
	// every keypoint is near one of the 4 rectangle corners
	corners := []image.Point{{50, 30}, {99, 30}, {50, 149}, {99, 149}}
	for _, kp := range kps {
		nearCorner := false
		for _, c := range corners {
			dx, dy := kp.X-c.X, kp.Y-c.Y
			if dx*dx+dy*dy <= 5*5 {
				nearCorner = true
				break
			}
		}
		test.That(t, nearCorner, test.ShouldBeTrue)
	}
	// NMS keeps keypoints spaced by at least the window size
	for i := 0; i < len(kps); i++ {
		for j := i + 1; j < len(kps); j++ {
			dx, dy := kps[i].X-kps[j].X, kps[i].Y-kps[j].Y
			if dx < 0 {
				dx = -dx
			}
			if dy < 0 {
				dy = -dy
			}
			test.That(t, dx >= cfg.NMSWinSize || dy >= cfg.NMSWinSize, test.ShouldBeTrue)
		}
	}
}

func TestComputeFASTRelativeThreshold(t *testing.T) {
	img := createTestImage()
	abs := ComputeFAST(img, &FASTConfig{NMatchesCircle: 9, NMSWinSize: 7, Threshold: 0.15 * 255})
	rel := ComputeFAST(img, &FASTConfig{NMatchesCircle: 9, NMSWinSize: 7, Threshold: 0.15})
	test.That(t, rel, test.ShouldResemble, abs)
}

func TestNewFASTKeypointsFromImage(t *testing.T) {
	img := createTestImage()
	cfg := &FASTConfig{NMatchesCircle: 9, NMSWinSize: 7, Threshold: 20, Oriented: false}
	kps := NewFASTKeypointsFromImage(img, cfg)
	test.That(t, kps.IsOriented(), test.ShouldBeFalse)

	cfg.Oriented = true
	oriented := NewFASTKeypointsFromImage(img, cfg)
	test.That(t, oriented.IsOriented(), test.ShouldBeTrue)
	test.That(t, len(oriented.Orientations), test.ShouldEqual, len(oriented.Points))
}

func TestPlotKeypoints(t *testing.T) {
	img := createTestImage()
	kps := ComputeFAST(img, &FASTConfig{NMatchesCircle: 9, NMSWinSize: 7, Threshold: 20})
	test.That(t, len(kps), test.ShouldBeGreaterThan, 0)

	outFile := filepath.Join(t.TempDir(), "corners.png")
	test.That(t, PlotKeypoints(img, kps, outFile), test.ShouldBeNil)
	_, err := os.Stat(outFile)
	test.That(t, err, test.ShouldBeNil)
}

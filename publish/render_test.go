package publish

import (
	"image"
	"testing"

	"github.com/golang/geo/r2"
	"go.viam.com/test"

	"github.com/Ador2/xivo/vision/tracking"
)

func TestRenderTracks(t *testing.T) {
	frame := image.NewGray(image.Rect(0, 0, 64, 48))
	tracks := []*tracking.Track{
		{ID: 1, Point: r2.Point{X: 10, Y: 10}, PrevPoint: r2.Point{X: 8, Y: 9}, Age: 3},
		{ID: 2, Point: r2.Point{X: 40, Y: 30}, PrevPoint: r2.Point{X: 40, Y: 30}, Age: 0},
	}
	out := RenderTracks(frame, tracks)
	test.That(t, out, test.ShouldNotBeNil)
	test.That(t, out.Bounds().Dx(), test.ShouldEqual, 64)
	test.That(t, out.Bounds().Dy(), test.ShouldEqual, 48)

	// a fresh track is drawn in red
	r, _, _, _ := out.At(43, 30).RGBA()
	test.That(t, r, test.ShouldBeGreaterThan, uint32(0))
}

func TestRenderTracksEmpty(t *testing.T) {
	frame := image.NewGray(image.Rect(0, 0, 32, 32))
	out := RenderTracks(frame, nil)
	test.That(t, out.Bounds().Dx(), test.ShouldEqual, 32)
}

package publish

import (
	"image"

	"github.com/fogleman/gg"

	"github.com/Ador2/xivo/vision/tracking"
)

// fullColorAge is the track age at which the overlay color saturates.
const fullColorAge = 20

// RenderTracks draws the live track set on top of a frame: a motion segment
// from the previous position and a circle at the current one, shaded from
// red (new) to green (old) by track age.
func RenderTracks(frame *image.Gray, tracks []*tracking.Track) image.Image {
	w, h := frame.Bounds().Dx(), frame.Bounds().Dy()
	dc := gg.NewContext(w, h)
	dc.DrawImage(frame, 0, 0)

	for _, t := range tracks {
		ratio := float64(t.Age) / fullColorAge
		if ratio > 1 {
			ratio = 1
		}
		dc.SetRGBA(1-ratio, ratio, 0, 0.9)
		dc.SetLineWidth(1)
		dc.DrawLine(t.PrevPoint.X, t.PrevPoint.Y, t.Point.X, t.Point.Y)
		dc.Stroke()
		dc.DrawCircle(t.Point.X, t.Point.Y, 3)
		dc.Stroke()
	}
	return dc.Image()
}

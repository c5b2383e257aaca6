package tracking

import (
	"image"

	"github.com/golang/geo/r2"

	"github.com/Ador2/xivo/rimage"
)

// frameState holds the per-frame buffers an optical flow algorithm needs
// (pyramid, gradients, polynomial expansions, dense flow). The engine swaps
// the whole struct at the end of every Update so a partially built frame is
// never observable as the previous frame.
type frameState struct {
	img      *image.Gray
	pyramid  *rimage.ImagePyramid
	grads    []*rimage.Gradients
	poly     []*polyExpansion
	flow     *FlowField
	rows     int
	cols     int
}

// opticalFlow is the interchangeable propagation strategy.
type opticalFlow interface {
	// prepare builds the per-frame state for a new image.
	prepare(img *image.Gray) (*frameState, error)
	// propagate moves points tracked in prev into cur. The returned status
	// slice flags points whose propagation failed.
	propagate(prev, cur *frameState, pts []r2.Point) ([]r2.Point, []bool, error)
}

func newFrameState(img *image.Gray) *frameState {
	bounds := img.Bounds()
	return &frameState{
		img:  img,
		rows: bounds.Dy(),
		cols: bounds.Dx(),
	}
}

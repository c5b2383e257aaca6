// Package tracking maintains a bounded, spatially deconflicted set of visual
// feature tracks across an image sequence.
package tracking

import (
	"github.com/golang/geo/r2"

	"github.com/Ador2/xivo/vision/keypoints"
)

// Track is a single image landmark followed across consecutive frames. A
// track is live iff it is present in the engine's live set; the engine owns
// all mutation.
type Track struct {
	// ID is stable across the track's lifetime, including re-adoption
	// through rescue matching.
	ID uint64
	// Point is the current position, always inside the image bounds and
	// outside the border margin.
	Point r2.Point
	// PrevPoint is the position in the previous frame, equal to Point for
	// freshly detected tracks.
	PrevPoint r2.Point
	// Descriptor is the appearance template extracted when the track was
	// created or last rescued.
	Descriptor keypoints.Descriptor
	// Age counts the frames the track survived since creation or rescue.
	Age int
}

// Displacement returns the distance moved between the last two frames.
func (t *Track) Displacement() float64 {
	return t.Point.Sub(t.PrevPoint).Norm()
}

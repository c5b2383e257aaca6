package publish

import (
	"image"
	"time"

	"github.com/edaniels/golog"

	"github.com/Ador2/xivo/estimator"
	"github.com/Ador2/xivo/vision/tracking"
)

// TrackSource provides read access to the current live track set for
// rendering. *tracking.Engine satisfies it.
type TrackSource interface {
	Tracks() []*tracking.Track
}

// Fanout invokes every enabled sink after a message has been applied.
// Sink errors are reported and swallowed; they never stop dispatch.
type Fanout struct {
	Visualization VisualizationSink
	Pose          PoseSink
	Map           MapSink
	FullState     FullStateSink

	// TrackSource, when set, overlays live tracks on published frames.
	TrackSource TrackSource
	// MaxLandmarks bounds the landmark export requested from the estimator.
	MaxLandmarks int

	logger golog.Logger
}

// NewFanout returns a fan-out with no sinks attached.
func NewFanout(maxLandmarks int, logger golog.Logger) *Fanout {
	return &Fanout{MaxLandmarks: maxLandmarks, logger: logger}
}

// AfterVisual publishes the results of an applied visual message. The
// visualization sink additionally requires the message's visualize flag; the
// landmark export is only computed when a map sink is attached.
func (f *Fanout) AfterVisual(ts time.Time, frame *image.Gray, visualize bool, est estimator.Estimator) {
	if f.Visualization != nil && visualize {
		var rendered image.Image = frame
		if f.TrackSource != nil {
			rendered = RenderTracks(frame, f.TrackSource.Tracks())
		}
		if err := f.Visualization.PublishFrame(ts, rendered); err != nil {
			f.logger.Warnw("visualization publish failed", "error", err)
		}
	}
	if f.Pose != nil {
		if err := f.Pose.PublishPose(ts, est.Pose(), est.StateCovariance()); err != nil {
			f.logger.Warnw("pose publish failed", "error", err)
		}
	}
	if f.Map != nil {
		landmarks := est.InstateLandmarks(f.MaxLandmarks)
		if err := f.Map.PublishMap(ts, landmarks); err != nil {
			f.logger.Warnw("map publish failed", "error", err)
		}
	}
	if f.FullState != nil {
		err := f.FullState.PublishFullState(ts, est.StateVector(),
			est.AccelBiasCovariance(), est.GyroBiasCovariance(), est.StateCovariance())
		if err != nil {
			f.logger.Warnw("full state publish failed", "error", err)
		}
	}
}

// AfterInertial publishes the results of an applied inertial message.
func (f *Fanout) AfterInertial(ts time.Time, visualize bool, est estimator.Estimator) {
	if f.Visualization != nil && visualize {
		if err := f.Visualization.PublishPose(ts, est.Pose(), est.BodyToCamera()); err != nil {
			f.logger.Warnw("visualization pose publish failed", "error", err)
		}
	}
}

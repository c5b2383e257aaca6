// Package publish implements the best-effort fan-out of results after each
// applied sensor message. Every sink is independently optional; a nil sink
// is simply skipped.
package publish

import (
	"image"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/Ador2/xivo/estimator"
)

// VisualizationSink receives rendered frames for visual messages and poses
// for inertial messages.
type VisualizationSink interface {
	PublishFrame(ts time.Time, frame image.Image) error
	PublishPose(ts time.Time, pose, bodyToCamera estimator.Pose) error
}

// PoseSink receives the body pose and state covariance after each visual update.
type PoseSink interface {
	PublishPose(ts time.Time, pose estimator.Pose, stateCov *mat.SymDense) error
}

// MapSink receives a bounded export of in-state landmarks.
type MapSink interface {
	PublishMap(ts time.Time, landmarks estimator.Landmarks) error
}

// FullStateSink receives the full state vector and covariance blocks.
type FullStateSink interface {
	PublishFullState(ts time.Time, state []float64, accelBiasCov, gyroBiasCov, stateCov *mat.SymDense) error
}

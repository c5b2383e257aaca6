// Package fake provides a deterministic stand-in estimator for tests and
// dataset replays. It refreshes the tracking engine on visual observations
// and dead-reckons orientation from gyro readings, but runs no filter.
package fake

import (
	"context"
	"image"
	"time"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/Ador2/xivo/estimator"
	"github.com/Ador2/xivo/sensor/imu"
	"github.com/Ador2/xivo/vision/tracking"
)

const stateDim = 15

var _ estimator.Estimator = (*Estimator)(nil)

// Estimator is a fake state estimator.
type Estimator struct {
	engine *tracking.Engine
	logger golog.Logger

	pose         estimator.Pose
	bodyToCamera estimator.Pose
	lastInertial time.Time

	visualCount   int
	inertialCount int
}

// NewEstimator wires a fake estimator around the given tracking engine.
func NewEstimator(engine *tracking.Engine, logger golog.Logger) *Estimator {
	return &Estimator{
		engine:       engine,
		logger:       logger,
		pose:         estimator.NewIdentityPose(),
		bodyToCamera: estimator.NewIdentityPose(),
	}
}

// Engine exposes the tracking engine, e.g. for rendering track overlays.
func (e *Estimator) Engine() *tracking.Engine {
	return e.engine
}

// ApplyVisualObservation refreshes the feature tracks from the frame.
func (e *Estimator) ApplyVisualObservation(ctx context.Context, frame *image.Gray, ts time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.visualCount++
	return e.engine.Update(frame)
}

// ApplyInertialObservation integrates the gyro reading into the orientation
// with a first order update, enough to exercise consumers.
func (e *Estimator) ApplyInertialObservation(ctx context.Context, sample imu.Sample, ts time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.inertialCount++
	if !e.lastInertial.IsZero() {
		dt := ts.Sub(e.lastInertial).Seconds()
		w := sample.Gyro.Mul(dt)
		// R <- R (I + [w]_x)
		skew := mat.NewDense(3, 3, []float64{
			1, -w.Z, w.Y,
			w.Z, 1, -w.X,
			-w.Y, w.X, 1,
		})
		var next mat.Dense
		next.Mul(e.pose.Rotation, skew)
		e.pose.Rotation = &next
	}
	e.lastInertial = ts
	return nil
}

// Pose returns the current body pose.
func (e *Estimator) Pose() estimator.Pose {
	return e.pose
}

// BodyToCamera returns the fixed extrinsic transform.
func (e *Estimator) BodyToCamera() estimator.Pose {
	return e.bodyToCamera
}

// StateVector returns a zero state vector of the nominal dimension.
func (e *Estimator) StateVector() []float64 {
	return make([]float64, stateDim)
}

// AccelBiasCovariance returns a small diagonal covariance.
func (e *Estimator) AccelBiasCovariance() *mat.SymDense {
	return diagSym(3, 1e-4)
}

// GyroBiasCovariance returns a small diagonal covariance.
func (e *Estimator) GyroBiasCovariance() *mat.SymDense {
	return diagSym(3, 1e-5)
}

// StateCovariance returns a diagonal covariance of the nominal dimension.
func (e *Estimator) StateCovariance() *mat.SymDense {
	return diagSym(stateDim, 1e-2)
}

// InstateLandmarks exports the current tracks back-projected at unit depth.
func (e *Estimator) InstateLandmarks(max int) estimator.Landmarks {
	tracks := e.engine.Tracks()
	n := len(tracks)
	if max >= 0 && n > max {
		n = max
	}
	out := estimator.Landmarks{Count: n}
	for _, t := range tracks[:n] {
		out.Positions = append(out.Positions, r3.Vector{X: t.Point.X, Y: t.Point.Y, Z: 1})
		out.Covariances = append(out.Covariances, diagSym(3, 1e-2))
		out.IDs = append(out.IDs, t.ID)
	}
	return out
}

// Counts returns how many observations of each kind were applied.
func (e *Estimator) Counts() (visual, inertial int) {
	return e.visualCount, e.inertialCount
}

func diagSym(n int, v float64) *mat.SymDense {
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		s.SetSym(i, i, v)
	}
	return s
}

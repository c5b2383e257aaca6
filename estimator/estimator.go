// Package estimator defines the interface surface the dispatch pipeline
// consumes. The filtering math behind it is a separate concern; this package
// only fixes the contract.
package estimator

import (
	"context"
	"image"
	"time"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"github.com/Ador2/xivo/sensor/imu"
)

// Pose is a rigid transform: a rotation matrix and a translation.
type Pose struct {
	Rotation    *mat.Dense
	Translation r3.Vector
}

// NewIdentityPose returns the identity transform.
func NewIdentityPose() Pose {
	return Pose{
		Rotation: mat.NewDense(3, 3, []float64{
			1, 0, 0,
			0, 1, 0,
			0, 0, 1,
		}),
	}
}

// Landmarks is a bounded export of in-state landmark estimates.
type Landmarks struct {
	Positions   []r3.Vector
	Covariances []*mat.SymDense
	IDs         []uint64
	Count       int
}

// Estimator is the state estimator the pipeline applies observations to.
// Implementations are not required to be safe for concurrent use: the
// dispatch pipeline guarantees a single caller.
type Estimator interface {
	// ApplyVisualObservation refreshes feature tracks from the frame and
	// runs a measurement update.
	ApplyVisualObservation(ctx context.Context, frame *image.Gray, ts time.Time) error
	// ApplyInertialObservation propagates the state with one inertial sample.
	ApplyInertialObservation(ctx context.Context, sample imu.Sample, ts time.Time) error

	// Pose returns the current body-to-spatial transform.
	Pose() Pose
	// BodyToCamera returns the body-to-camera extrinsic transform.
	BodyToCamera() Pose
	// StateVector returns a copy of the full state vector.
	StateVector() []float64
	// AccelBiasCovariance returns the accelerometer bias covariance block.
	AccelBiasCovariance() *mat.SymDense
	// GyroBiasCovariance returns the gyroscope bias covariance block.
	GyroBiasCovariance() *mat.SymDense
	// StateCovariance returns the full state covariance.
	StateCovariance() *mat.SymDense
	// InstateLandmarks exports up to max in-state landmark estimates.
	InstateLandmarks(max int) Landmarks
}

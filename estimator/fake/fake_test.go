package fake

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"testing"
	"time"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/Ador2/xivo/sensor/imu"
	"github.com/Ador2/xivo/vision/tracking"
)

func cornerImage() *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 160, 120))
	draw.Draw(img, img.Bounds(), &image.Uniform{color.Gray{0}}, image.Point{}, draw.Src)
	draw.Draw(img, image.Rect(40, 30, 120, 90), &image.Uniform{color.Gray{220}}, image.Point{}, draw.Src)
	return img
}

func newTestEstimator(t *testing.T) *Estimator {
	t.Helper()
	logger := golog.NewTestLogger(t)
	cfg := tracking.DefaultConfig()
	cfg.FAST.Threshold = 10
	cfg.NumFeaturesMin = 1
	cfg.NumFeaturesMax = 20
	engine, err := tracking.NewEngine(cfg, logger)
	test.That(t, err, test.ShouldBeNil)
	return NewEstimator(engine, logger)
}

func TestApplyVisualObservation(t *testing.T) {
	est := newTestEstimator(t)
	ctx := context.Background()

	err := est.ApplyVisualObservation(ctx, cornerImage(), time.Unix(1, 0))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, est.Engine().State(), test.ShouldEqual, tracking.Initialized)
	test.That(t, len(est.Engine().Tracks()), test.ShouldBeGreaterThan, 0)

	visual, inertial := est.Counts()
	test.That(t, visual, test.ShouldEqual, 1)
	test.That(t, inertial, test.ShouldEqual, 0)

	// canceled contexts are respected
	canceled, cancel := context.WithCancel(ctx)
	cancel()
	err = est.ApplyVisualObservation(canceled, cornerImage(), time.Unix(2, 0))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestApplyInertialObservation(t *testing.T) {
	est := newTestEstimator(t)
	ctx := context.Background()

	// a constant z rotation rate turns the pose away from identity
	sample := imu.Sample{Gyro: r3.Vector{Z: 0.5}}
	test.That(t, est.ApplyInertialObservation(ctx, sample, time.Unix(1, 0)), test.ShouldBeNil)
	// the first sample only establishes the integration epoch
	test.That(t, est.Pose().Rotation.At(0, 1), test.ShouldEqual, 0.)

	test.That(t, est.ApplyInertialObservation(ctx, sample, time.Unix(2, 0)), test.ShouldBeNil)
	test.That(t, est.Pose().Rotation.At(0, 1), test.ShouldNotEqual, 0.)
	test.That(t, est.Pose().Rotation.At(0, 0), test.ShouldAlmostEqual, 1, 0.1)

	_, inertial := est.Counts()
	test.That(t, inertial, test.ShouldEqual, 2)
}

func TestInstateLandmarks(t *testing.T) {
	est := newTestEstimator(t)
	ctx := context.Background()
	test.That(t, est.ApplyVisualObservation(ctx, cornerImage(), time.Unix(1, 0)), test.ShouldBeNil)

	total := len(est.Engine().Tracks())
	test.That(t, total, test.ShouldBeGreaterThan, 1)

	landmarks := est.InstateLandmarks(1)
	test.That(t, landmarks.Count, test.ShouldEqual, 1)
	test.That(t, len(landmarks.Positions), test.ShouldEqual, 1)
	test.That(t, landmarks.Positions[0].Z, test.ShouldEqual, 1.)

	all := est.InstateLandmarks(1000)
	test.That(t, all.Count, test.ShouldEqual, total)
	test.That(t, len(all.IDs), test.ShouldEqual, total)
}

func TestStateAccessors(t *testing.T) {
	est := newTestEstimator(t)
	test.That(t, len(est.StateVector()), test.ShouldEqual, 15)
	n, _ := est.StateCovariance().Dims()
	test.That(t, n, test.ShouldEqual, 15)
	n, _ = est.AccelBiasCovariance().Dims()
	test.That(t, n, test.ShouldEqual, 3)
	n, _ = est.GyroBiasCovariance().Dims()
	test.That(t, n, test.ShouldEqual, 3)
	test.That(t, est.BodyToCamera().Rotation.At(0, 0), test.ShouldEqual, 1.)
}

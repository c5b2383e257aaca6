package publish

import (
	"path/filepath"
	"testing"
	"time"

	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"github.com/Ador2/xivo/estimator"
)

func TestPoseLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poses.db")
	log, err := NewPoseLog(path)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, log.Close(), test.ShouldBeNil)
	}()

	n, err := log.Count()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n, test.ShouldEqual, 0)

	pose := estimator.NewIdentityPose()
	pose.Translation.X = 1.5
	cov := mat.NewSymDense(3, nil)
	cov.SetSym(0, 0, 0.25)
	for i := 0; i < 5; i++ {
		err = log.PublishPose(time.Unix(0, int64(i)*1e6), pose, cov)
		test.That(t, err, test.ShouldBeNil)
	}

	n, err = log.Count()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n, test.ShouldEqual, 5)
}

func TestPoseLogReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "poses.db")
	log, err := NewPoseLog(path)
	test.That(t, err, test.ShouldBeNil)
	pose := estimator.NewIdentityPose()
	test.That(t, log.PublishPose(time.Unix(0, 1), pose, nil), test.ShouldBeNil)
	test.That(t, log.Close(), test.ShouldBeNil)

	// rows persist across reopen
	log, err = NewPoseLog(path)
	test.That(t, err, test.ShouldBeNil)
	n, err := log.Count()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, n, test.ShouldEqual, 1)
	test.That(t, log.Close(), test.ShouldBeNil)
}

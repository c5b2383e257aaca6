// Command viofront replays a camera + IMU dataset through the
// visual-inertial front end: feature tracking, timestamp-ordered dispatch
// and publisher fan-out.
package main

import (
	"context"
	"flag"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"
	"gonum.org/v1/gonum/mat"

	"github.com/Ador2/xivo/config"
	"github.com/Ador2/xivo/estimator"
	"github.com/Ador2/xivo/estimator/fake"
	"github.com/Ador2/xivo/pipeline"
	"github.com/Ador2/xivo/publish"
	"github.com/Ador2/xivo/sensor/imu"
	"github.com/Ador2/xivo/vision/tracking"
)

var logger = golog.NewDevelopmentLogger("viofront")

func main() {
	var (
		configPath = flag.String("config", "", "front end json configuration (default config when empty)")
		imageDir   = flag.String("images", "", "directory of frames named <timestamp_ns>.png")
		imuPath    = flag.String("imu", "", "imu csv file: ts_ns,gx,gy,gz,ax,ay,az")
		outDir     = flag.String("out", "", "directory for rendered frames (visualization sink)")
		realtime   = flag.Bool("realtime", false, "pace producers by dataset timestamps")
	)
	flag.Parse()

	if err := realMain(*configPath, *imageDir, *imuPath, *outDir, *realtime); err != nil {
		logger.Fatal(err)
	}
}

func realMain(configPath, imageDir, imuPath, outDir string, realtime bool) error {
	if imageDir == "" {
		return errors.New("-images is required")
	}

	cfg := config.DefaultConfig()
	if configPath != "" {
		loaded, err := config.LoadConfiguration(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if outDir != "" {
		cfg.Publishers.Visualization = true
	}

	engine, err := tracking.NewEngine(cfg.Tracker, logger.Named("tracker"))
	if err != nil {
		return err
	}
	est := fake.NewEstimator(engine, logger.Named("estimator"))

	fanout := publish.NewFanout(cfg.Publishers.MaxLandmarks, logger.Named("publish"))
	fanout.TrackSource = engine
	if cfg.Publishers.Visualization && outDir != "" {
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return err
		}
		fanout.Visualization = &pngSink{dir: outDir, logger: logger}
	}
	if cfg.Publishers.Pose {
		if cfg.Publishers.PoseLogPath != "" {
			poseLog, err := publish.NewPoseLog(cfg.Publishers.PoseLogPath)
			if err != nil {
				return err
			}
			defer goutils.UncheckedErrorFunc(poseLog.Close)
			fanout.Pose = poseLog
		} else {
			fanout.Pose = &logPoseSink{logger: logger}
		}
	}
	if cfg.Publishers.Map {
		fanout.Map = &logMapSink{logger: logger}
	}
	if cfg.Publishers.FullState {
		fanout.FullState = &logStateSink{logger: logger}
	}

	frames, err := loadFrameRefs(imageDir)
	if err != nil {
		return err
	}
	var samples []imu.Sample
	if imuPath != "" {
		samples, err = imu.ReadCSV(imuPath)
		if err != nil {
			return err
		}
	}
	logger.Infow("replay starting", "frames", len(frames), "imu_samples", len(samples), "realtime", realtime)

	proc := pipeline.NewProcess(est, fanout, logger.Named("dispatch"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	goutils.PanicCapturingGo(func() {
		replay(ctx, proc, frames, samples, realtime, clock.New(), logger)
	})

	if err := proc.RunLoop(ctx); err != nil {
		return err
	}
	visual, inertial := est.Counts()
	logger.Infow("replay finished", "visual", visual, "inertial", inertial, "live_tracks", len(engine.Tracks()))
	return nil
}

// pngSink writes rendered frames to disk and logs inertial poses.
type pngSink struct {
	dir    string
	logger golog.Logger
}

func (s *pngSink) PublishFrame(ts time.Time, frame image.Image) error {
	path := filepath.Join(s.dir, fmt.Sprintf("%d.png", ts.UnixNano()))
	f, err := os.Create(path) //nolint:gosec
	if err != nil {
		return err
	}
	defer goutils.UncheckedErrorFunc(f.Close)
	return png.Encode(f, frame)
}

func (s *pngSink) PublishPose(ts time.Time, pose, bodyToCamera estimator.Pose) error {
	s.logger.Debugw("pose", "ts", ts, "t", pose.Translation)
	return nil
}

type logPoseSink struct {
	logger golog.Logger
}

func (s *logPoseSink) PublishPose(ts time.Time, pose estimator.Pose, stateCov *mat.SymDense) error {
	s.logger.Infow("pose", "ts", ts, "t", pose.Translation)
	return nil
}

type logMapSink struct {
	logger golog.Logger
}

func (s *logMapSink) PublishMap(ts time.Time, landmarks estimator.Landmarks) error {
	s.logger.Infow("map", "ts", ts, "landmarks", landmarks.Count)
	return nil
}

type logStateSink struct {
	logger golog.Logger
}

func (s *logStateSink) PublishFullState(ts time.Time, state []float64, accelBiasCov, gyroBiasCov, stateCov *mat.SymDense) error {
	s.logger.Infow("full state", "ts", ts, "dim", len(state))
	return nil
}

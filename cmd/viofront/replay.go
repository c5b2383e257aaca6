package main

import (
	"context"
	"image"
	// register decoders for dataset frames
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/Ador2/xivo/pipeline"
	"github.com/Ador2/xivo/rimage"
	"github.com/Ador2/xivo/sensor/imu"
)

// frameRef is one dataset image, named <timestamp_ns>.<ext>.
type frameRef struct {
	ts   time.Time
	path string
}

func loadFrameRefs(dir string) ([]frameRef, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrap(err, "reading image directory")
	}
	refs := make([]frameRef, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".png" && ext != ".jpg" && ext != ".jpeg" {
			continue
		}
		tsNanos, err := strconv.ParseInt(strings.TrimSuffix(name, filepath.Ext(name)), 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "image %q is not named by timestamp", name)
		}
		refs = append(refs, frameRef{ts: time.Unix(0, tsNanos), path: filepath.Join(dir, name)})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].ts.Before(refs[j].ts) })
	return refs, nil
}

func decodeGray(path string) (*image.Gray, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, err
	}
	defer goutils.UncheckedErrorFunc(f.Close)
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %q", path)
	}
	return rimage.MakeGray(img), nil
}

// replay runs one producer goroutine per sensor source and closes the queue
// once both finish. With realtime set, producers pace themselves on the
// clock according to dataset timestamp deltas.
func replay(
	ctx context.Context,
	proc *pipeline.Process,
	frames []frameRef,
	samples []imu.Sample,
	realtime bool,
	clk clock.Clock,
	logger golog.Logger,
) {
	var producers sync.WaitGroup
	producers.Add(2)

	goutils.PanicCapturingGo(func() {
		defer producers.Done()
		var last time.Time
		for _, ref := range frames {
			if ctx.Err() != nil {
				return
			}
			if realtime && !last.IsZero() {
				clk.Sleep(ref.ts.Sub(last))
			}
			last = ref.ts
			frame, err := decodeGray(ref.path)
			if err != nil {
				logger.Warnw("skipping frame", "path", ref.path, "error", err)
				continue
			}
			if err := proc.Enqueue(pipeline.NewVisualMessage(ref.ts, frame, true)); err != nil {
				logger.Warnw("enqueue failed", "error", err)
				return
			}
		}
	})

	goutils.PanicCapturingGo(func() {
		defer producers.Done()
		var last time.Time
		for _, sample := range samples {
			if ctx.Err() != nil {
				return
			}
			if realtime && !last.IsZero() {
				clk.Sleep(sample.TS.Sub(last))
			}
			last = sample.TS
			if err := proc.Enqueue(pipeline.NewInertialMessage(sample.TS, sample, false)); err != nil {
				logger.Warnw("enqueue failed", "error", err)
				return
			}
		}
	})

	producers.Wait()
	proc.Queue().Close()
}

package tracking

import (
	"image"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"github.com/pkg/errors"

	"github.com/Ador2/xivo/utils"
	"github.com/Ador2/xivo/vision/keypoints"
)

// EngineState is the lifecycle state of the tracking engine.
type EngineState int

const (
	// Uninitialized means no frame has been seen yet.
	Uninitialized EngineState = iota
	// Initialized means exactly one frame has been seen and only detection ran.
	Initialized
	// SteadyState means tracks are being propagated frame to frame.
	SteadyState
)

// ErrDimensionMismatch is returned when an image does not match the
// dimensions the engine was initialized with. The engine must be Reset
// before further use.
var ErrDimensionMismatch = errors.New("image dimensions do not match tracker state")

// Engine owns the live set of feature tracks and updates it frame to frame.
// It is deliberately not safe for concurrent use: the dispatch pipeline's
// consumer goroutine is its only caller.
type Engine struct {
	cfg    *Config
	logger golog.Logger

	state      EngineState
	rows, cols int

	flow opticalFlow
	prev *frameState
	mask *Mask

	tracks []*Track
	nextID uint64

	samplePairs *keypoints.SamplePairs

	// tracks dropped during the current Update, the only rescue candidates
	droppedThisFrame []*Track
}

// NewEngine validates the configuration and returns an engine in the
// Uninitialized state.
func NewEngine(cfg *Config, logger golog.Logger) (*Engine, error) {
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:    cfg,
		logger: logger,
		state:  Uninitialized,
		nextID: 1,
	}
	switch cfg.OpticalFlow {
	case LucasKanade:
		e.flow = newLKFlow(cfg.LK)
	case Farneback:
		e.flow = newFarnebackFlow(cfg.Farneback)
	}
	if cfg.ExtractDescriptors {
		e.samplePairs = keypoints.GenerateSamplePairs(cfg.BRIEF.Sampling, cfg.BRIEF.N, cfg.BRIEF.PatchSize, cfg.DescriptorSeed)
	}
	return e, nil
}

// State returns the engine lifecycle state.
func (e *Engine) State() EngineState {
	return e.state
}

// Tracks returns the live track set. Callers must not mutate the tracks.
func (e *Engine) Tracks() []*Track {
	return e.tracks
}

// Reset drops all state so the engine can accept images of new dimensions.
func (e *Engine) Reset() {
	e.state = Uninitialized
	e.rows, e.cols = 0, 0
	e.prev = nil
	e.mask = nil
	e.tracks = nil
	e.droppedThisFrame = nil
}

// Update ingests the next frame: propagates live tracks, prunes invalid
// ones, replenishes from fresh detection and rescues just-dropped tracks.
func (e *Engine) Update(img *image.Gray) error {
	bounds := img.Bounds()
	rows, cols := bounds.Dy(), bounds.Dx()

	if e.state == Uninitialized {
		return e.initialize(img, rows, cols)
	}
	if rows != e.rows || cols != e.cols {
		return errors.Wrapf(ErrDimensionMismatch, "got %dx%d, tracker state is %dx%d", cols, rows, e.cols, e.rows)
	}

	cur, err := e.flow.prepare(img)
	if err != nil {
		return err
	}

	e.droppedThisFrame = e.droppedThisFrame[:0]
	e.mask.Reset()
	e.propagateTracks(cur)

	if len(e.tracks) < e.cfg.NumFeaturesMin {
		e.replenish(img, e.cfg.NumFeaturesMax-len(e.tracks))
	}

	e.prev = cur
	e.state = SteadyState
	return nil
}

// initialize establishes image dimensions, allocates buffers and runs
// detection only.
func (e *Engine) initialize(img *image.Gray, rows, cols int) error {
	cur, err := e.flow.prepare(img)
	if err != nil {
		return err
	}
	e.rows, e.cols = rows, cols
	e.mask = NewMask(cols, rows, e.cfg.Margin, e.cfg.MaskSize)
	e.mask.Reset()
	e.replenish(img, e.cfg.NumFeaturesMax)
	e.prev = cur
	e.state = Initialized
	e.logger.Debugw("tracker initialized", "rows", rows, "cols", cols, "tracks", len(e.tracks))
	return nil
}

// propagateTracks moves every live track through the optical flow and prunes
// the ones that fail any acceptance test. Accepted tracks carve their
// exclusion zone right away, so when two tracks converge onto the same corner
// only the first one survives.
func (e *Engine) propagateTracks(cur *frameState) {
	if len(e.tracks) == 0 {
		return
	}
	pts := make([]r2.Point, len(e.tracks))
	for i, t := range e.tracks {
		pts[i] = t.Point
	}
	next, ok, err := e.flow.propagate(e.prev, cur, pts)
	if err != nil {
		// treated as total flow failure for this frame, all tracks drop
		e.logger.Debugw("optical flow failed", "error", err)
		e.droppedThisFrame = append(e.droppedThisFrame, e.tracks...)
		e.tracks = e.tracks[:0]
		return
	}

	survivors := e.tracks[:0]
	var accepted []*Track
	var acceptedPts []r2.Point
	for i, t := range e.tracks {
		if !ok[i] || !e.mask.Valid(next[i].X, next[i].Y) {
			e.droppedThisFrame = append(e.droppedThisFrame, t)
			continue
		}
		if next[i].Sub(t.Point).Norm() > e.cfg.MaxPixelDisplacement {
			e.droppedThisFrame = append(e.droppedThisFrame, t)
			continue
		}
		accepted = append(accepted, t)
		acceptedPts = append(acceptedPts, next[i])
		e.mask.CarveExclusion(next[i].X, next[i].Y)
	}

	// verify appearance against the stored template before committing
	var verifyDescs keypoints.Descriptors
	if e.cfg.ExtractDescriptors && len(accepted) > 0 {
		kps := make(keypoints.KeyPoints, len(acceptedPts))
		for i, p := range acceptedPts {
			kps[i] = image.Point{int(p.X + 0.5), int(p.Y + 0.5)}
		}
		descs, err := e.descriptorsAt(cur.img, kps)
		if err != nil {
			e.logger.Debugw("descriptor verification skipped", "error", err)
		} else {
			verifyDescs = descs
		}
	}
	for i, t := range accepted {
		if verifyDescs != nil && len(t.Descriptor) > 0 {
			dist, err := utils.HammingDistance(t.Descriptor, verifyDescs[i])
			if err == nil && dist > e.cfg.DescriptorDistanceThresh {
				e.droppedThisFrame = append(e.droppedThisFrame, t)
				continue
			}
		}
		t.PrevPoint = t.Point
		t.Point = acceptedPts[i]
		t.Age++
		survivors = append(survivors, t)
	}
	e.tracks = survivors
}

// replenish detects up to numToAdd new candidates in the valid mask area,
// re-adopting just-dropped tracks where their descriptors still match.
func (e *Engine) replenish(img *image.Gray, numToAdd int) {
	if numToAdd <= 0 {
		return
	}
	kps := keypoints.ComputeFAST(img, e.cfg.FAST)
	candidates := make(keypoints.KeyPoints, 0, numToAdd)
	for _, kp := range kps {
		if len(candidates) == numToAdd {
			break
		}
		if !e.mask.Valid(float64(kp.X), float64(kp.Y)) {
			continue
		}
		candidates = append(candidates, kp)
		// carve immediately so later candidates keep their distance
		e.mask.CarveExclusion(float64(kp.X), float64(kp.Y))
	}
	if len(candidates) == 0 {
		return
	}

	var descs keypoints.Descriptors
	if e.cfg.ExtractDescriptors {
		computed, err := e.descriptorsAt(img, candidates)
		if err != nil {
			e.logger.Debugw("descriptor extraction failed", "error", err)
		} else {
			descs = computed
		}
	}

	for i, kp := range candidates {
		var desc keypoints.Descriptor
		if descs != nil {
			desc = descs[i]
		}
		pt := r2.Point{X: float64(kp.X), Y: float64(kp.Y)}
		if rescued := e.rescue(desc, pt); rescued {
			continue
		}
		e.tracks = append(e.tracks, &Track{
			ID:         e.nextID,
			Point:      pt,
			PrevPoint:  pt,
			Descriptor: desc,
			Age:        0,
		})
		e.nextID++
	}
}

// rescue re-adopts the best matching track dropped this frame, preserving
// its identity. Returns true if the candidate was consumed by a rescue.
func (e *Engine) rescue(desc keypoints.Descriptor, pt r2.Point) bool {
	if !e.cfg.MatchDroppedTracks || len(desc) == 0 || len(e.droppedThisFrame) == 0 {
		return false
	}
	bestIdx := -1
	bestDist := 0
	for i, dropped := range e.droppedThisFrame {
		if len(dropped.Descriptor) == 0 {
			continue
		}
		dist, err := utils.HammingDistance(desc, dropped.Descriptor)
		if err != nil {
			continue
		}
		if dist < e.cfg.DescriptorDistanceThresh && (bestIdx == -1 || dist < bestDist) {
			bestIdx = i
			bestDist = dist
		}
	}
	if bestIdx == -1 {
		return false
	}
	t := e.droppedThisFrame[bestIdx]
	e.droppedThisFrame = append(e.droppedThisFrame[:bestIdx], e.droppedThisFrame[bestIdx+1:]...)
	t.PrevPoint = pt
	t.Point = pt
	t.Descriptor = desc
	t.Age = 0
	e.tracks = append(e.tracks, t)
	return true
}

// descriptorsAt computes BRIEF descriptors at arbitrary image positions,
// with orientations when the detector is configured for them.
func (e *Engine) descriptorsAt(img *image.Gray, kps keypoints.KeyPoints) (keypoints.Descriptors, error) {
	fkps := &keypoints.FASTKeypoints{Points: kps}
	if e.cfg.FAST.Oriented && e.cfg.BRIEF.UseOrientation {
		oriented, err := keypoints.GetOrientedKeyPointsFromKeyPoints(img, kps)
		if err != nil {
			return nil, err
		}
		fkps.Orientations = oriented.Orientations
	}
	return keypoints.ComputeBRIEFDescriptors(img, e.samplePairs, fkps, e.cfg.BRIEF)
}

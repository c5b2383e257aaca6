package keypoints

import (
	"encoding/json"
	"image"
	"os"
	"path/filepath"
	"sort"

	"go.viam.com/utils"
)

// FASTConfig holds the parameters necessary to compute the FAST keypoints.
type FASTConfig struct {
	NMatchesCircle int     `json:"n_matches_circle"`
	NMSWinSize     int     `json:"nms_win_size_px"`
	Threshold      float64 `json:"threshold"`
	Oriented       bool    `json:"oriented"`
	Radius         int     `json:"radius"`
}

// PixelType stores 0 if a pixel is darker than center pixel, and 1 if brighter.
type PixelType int

const (
	darker   PixelType = iota // 0
	brighter                  // 1
)

var (
	// CrossIdx contains the neighbors coordinates in a 3-cross neighborhood.
	CrossIdx = []image.Point{{3, 0}, {0, 3}, {-3, 0}, {0, -3}}
	// CircleIdx contains the neighbors coordinates in a circle of radius 3 neighborhood.
	CircleIdx = []image.Point{
		{0, -3}, {1, -3}, {2, -2}, {3, -1}, {3, 0}, {3, 1}, {2, 2}, {1, 3},
		{0, 3}, {-1, 3}, {-2, 2}, {-3, 1}, {-3, 0}, {-3, -1}, {-2, -2}, {-1, -3},
	}
)

// LoadFASTConfiguration loads a FASTConfig from a json file.
func LoadFASTConfiguration(file string) *FASTConfig {
	var config FASTConfig
	filePath := filepath.Clean(file)
	configFile, err := os.Open(filePath)
	defer utils.UncheckedErrorFunc(configFile.Close)
	if err != nil {
		return nil
	}
	jsonParser := json.NewDecoder(configFile)
	err = jsonParser.Decode(&config)
	if err != nil {
		return nil
	}
	return &config
}

// GetPointValuesInNeighborhood returns the pixel values in the neighborhood
// described by the offsets in neighborhood.
func GetPointValuesInNeighborhood(img *image.Gray, coords image.Point, neighborhood []image.Point) []float64 {
	vals := make([]float64, len(neighborhood))
	for i, p := range neighborhood {
		vals[i] = float64(img.GrayAt(coords.X+p.X, coords.Y+p.Y).Y)
	}
	return vals
}

func getBrighterValues(s []float64, t float64) []float64 {
	brighterValues := make([]float64, len(s))
	for i, v := range s {
		if v > t {
			brighterValues[i] = 1
		}
	}
	return brighterValues
}

func getDarkerValues(s []float64, t float64) []float64 {
	darkerValues := make([]float64, len(s))
	for i, v := range s {
		if v < t {
			darkerValues[i] = 1
		}
	}
	return darkerValues
}

// isValidSliceVals returns true if the slice contains a circular run of
// strictly more than n consecutive non-zero values.
func isValidSliceVals(s []float64, n int) bool {
	if len(s) == 0 {
		return false
	}
	doubled := append(append([]float64{}, s...), s...)
	run := 0
	best := 0
	for _, v := range doubled {
		if v != 0 {
			run++
			if run > best {
				best = run
			}
		} else {
			run = 0
		}
	}
	if best > len(s) {
		best = len(s)
	}
	return best > n
}

func sumOfPositiveValuesSlice(s []float64) float64 {
	var sum float64
	for _, v := range s {
		if v > 0 {
			sum += v
		}
	}
	return sum
}

func sumOfNegativeValuesSlice(s []float64) float64 {
	var sum float64
	for _, v := range s {
		if v < 0 {
			sum += v
		}
	}
	return sum
}

type scoredKeypoint struct {
	p     image.Point
	score float64
}

// computeFASTScores returns the corner candidates with their scores.
func computeFASTScores(img *image.Gray, threshold float64, nMatchesCircle int) []scoredKeypoint {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	candidates := make([]scoredKeypoint, 0, 64)
	for y := 3; y < h-3; y++ {
		for x := 3; x < w-3; x++ {
			p := image.Point{x, y}
			pixVal := float64(img.GrayAt(x, y).Y)
			if nMatchesCircle >= 12 {
				// the cheap cross pre-test only holds for arcs of 12+:
				// such a corner needs at least 3 of the 4 cross pixels on
				// one side of the threshold
				crossVals := GetPointValuesInNeighborhood(img, p, CrossIdx)
				nBrighter := sumOfPositiveValuesSlice(getBrighterValues(crossVals, pixVal+threshold))
				nDarker := sumOfPositiveValuesSlice(getDarkerValues(crossVals, pixVal-threshold))
				if nBrighter < 3 && nDarker < 3 {
					continue
				}
			}
			circleVals := GetPointValuesInNeighborhood(img, p, CircleIdx)
			brighterVals := getBrighterValues(circleVals, pixVal+threshold)
			darkerVals := getDarkerValues(circleVals, pixVal-threshold)
			if !isValidSliceVals(brighterVals, nMatchesCircle) && !isValidSliceVals(darkerVals, nMatchesCircle) {
				continue
			}
			var score float64
			for _, v := range circleVals {
				d := v - pixVal
				if d < 0 {
					d = -d
				}
				if d > threshold {
					score += d - threshold
				}
			}
			candidates = append(candidates, scoredKeypoint{p, score})
		}
	}
	return candidates
}

// nonMaximumSuppression greedily keeps the highest scored candidates whose
// chebyshev distance to any kept candidate is at least winSize.
func nonMaximumSuppression(candidates []scoredKeypoint, winSize int) KeyPoints {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if candidates[i].p.Y != candidates[j].p.Y {
			return candidates[i].p.Y < candidates[j].p.Y
		}
		return candidates[i].p.X < candidates[j].p.X
	})
	kept := make(KeyPoints, 0, len(candidates))
	for _, c := range candidates {
		suppressed := false
		for _, k := range kept {
			dx := c.p.X - k.X
			dy := c.p.Y - k.Y
			if dx < 0 {
				dx = -dx
			}
			if dy < 0 {
				dy = -dy
			}
			if dx < winSize && dy < winSize {
				suppressed = true
				break
			}
		}
		if !suppressed {
			kept = append(kept, c.p)
		}
	}
	return kept
}

// ComputeFAST computes the location of FAST keypoints. The returned slice is
// ordered by decreasing corner score.
func ComputeFAST(img *image.Gray, cfg *FASTConfig) KeyPoints {
	threshold := cfg.Threshold
	if threshold < 1 {
		// relative threshold, scale to the 8 bit intensity range
		threshold *= 255.
	}
	candidates := computeFASTScores(img, threshold, cfg.NMatchesCircle)
	return nonMaximumSuppression(candidates, cfg.NMSWinSize)
}

// FASTKeypoints stores keypoint locations and, if computed, their orientations.
type FASTKeypoints OrientedKeypoints

// NewFASTKeypointsFromImage returns a pointer to a FASTKeypoints struct
// containing the FAST keypoints of an image, with orientations if Oriented
// is set in the configuration.
func NewFASTKeypointsFromImage(img *image.Gray, cfg *FASTConfig) *FASTKeypoints {
	kps := ComputeFAST(img, cfg)
	var orientations []float64
	if cfg.Oriented {
		orientations, _ = computeKeypointsOrientations(img, kps)
	}
	return &FASTKeypoints{kps, orientations}
}

// IsOriented returns true if the keypoints have orientations.
func (kps *FASTKeypoints) IsOriented() bool {
	return kps.Orientations != nil
}

package keypoints

import (
	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/Ador2/xivo/utils"
)

var errOutOfRangeMatch = errors.New("match index out of keypoint range")

// MatchingConfig contains the parameters for matching descriptors.
type MatchingConfig struct {
	DoCrossCheck bool `json:"do_cross_check"`
	MaxDist      int  `json:"max_dist"`
}

// DescriptorMatch contains the index of a match in the first and second set
// of descriptors, and their hamming distance.
type DescriptorMatch struct {
	Idx1     int
	Idx2     int
	Distance int
}

// DescriptorMatches contains the descriptors and their matches.
type DescriptorMatches struct {
	Indices      []DescriptorMatch
	Descriptors1 Descriptors
	Descriptors2 Descriptors
}

// MatchDescriptors takes 2 sets of descriptors and performs matching.
// Matches are returned ordered by increasing hamming distance.
func MatchDescriptors(desc1, desc2 Descriptors, cfg *MatchingConfig, logger golog.Logger) *DescriptorMatches {
	d1 := make([][]uint64, len(desc1))
	for i, d := range desc1 {
		d1[i] = d
	}
	d2 := make([][]uint64, len(desc2))
	for i, d := range desc2 {
		d2[i] = d
	}
	distances, err := utils.PairwiseHammingDistances(d1, d2)
	if err != nil {
		logger.Debugw("could not compute pairwise distances", "error", err)
		return nil
	}
	indices2 := utils.GetArgMinDistancesPerRowInt(distances)
	// mask for valid indices
	maskIdx := make([]int, len(desc1))
	for i := range maskIdx {
		maskIdx[i] = 1
	}
	if cfg.DoCrossCheck {
		// compute argmin per row on the transposed distance matrix
		distT := utils.Transpose(distances)
		matches1 := utils.GetArgMinDistancesPerRowInt(distT)
		for i := range maskIdx {
			if matches1[indices2[i]] != i {
				maskIdx[i] = 0
			}
		}
	}
	if cfg.MaxDist > 0 {
		for i := range maskIdx {
			if distances[i][indices2[i]] >= cfg.MaxDist {
				maskIdx[i] = 0
			}
		}
	}
	// masked indices
	idx1 := make([]int, 0, len(desc1))
	idx2 := make([]int, 0, len(desc1))
	for i := range desc1 {
		if maskIdx[i] == 1 {
			idx1 = append(idx1, i)
			idx2 = append(idx2, indices2[i])
		}
	}
	// sort the retained pairs by distance
	dist := make([]float64, len(idx1))
	for i := range dist {
		dist[i] = float64(distances[idx1[i]][idx2[i]])
	}
	sortedIndices := make([]int, len(idx1))
	floats.Argsort(dist, sortedIndices)
	matches := make([]DescriptorMatch, len(idx1))
	for i, idx := range sortedIndices {
		matches[i] = DescriptorMatch{idx1[idx], idx2[idx], distances[idx1[idx]][idx2[idx]]}
	}

	return &DescriptorMatches{matches, desc1, desc2}
}

// GetMatchingKeyPoints takes the matches and the keypoints and returns the
// corresponding matched keypoints from both sets.
func GetMatchingKeyPoints(matches *DescriptorMatches, kps1, kps2 KeyPoints) (KeyPoints, KeyPoints, error) {
	matchedKps1 := make(KeyPoints, len(matches.Indices))
	matchedKps2 := make(KeyPoints, len(matches.Indices))
	for i, match := range matches.Indices {
		if match.Idx1 >= len(kps1) || match.Idx2 >= len(kps2) {
			return nil, nil, errOutOfRangeMatch
		}
		matchedKps1[i] = kps1[match.Idx1]
		matchedKps2[i] = kps2[match.Idx2]
	}
	return matchedKps1, matchedKps2, nil
}

package tracking

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/Ador2/xivo/vision/keypoints"
)

// OpticalFlowType selects the algorithm used to propagate tracks between frames.
type OpticalFlowType string

const (
	// LucasKanade is iterative pyramidal sparse tracking.
	LucasKanade OpticalFlowType = "lucas_kanade"
	// Farneback is a dense polynomial-expansion flow field.
	Farneback OpticalFlowType = "farneback"
)

// LKConfig holds the iterative pyramidal Lucas-Kanade parameters.
type LKConfig struct {
	WinSize  int     `json:"win_size"`
	MaxLevel int     `json:"max_level"`
	MaxIter  int     `json:"max_iter"`
	Eps      float64 `json:"eps"`
}

// FarnebackConfig holds the dense optical flow parameters.
type FarnebackConfig struct {
	NumLevels   int     `json:"num_levels"`
	PyrScale    float64 `json:"pyr_scale"`
	WinSize     int     `json:"win_size"`
	NumIter     int     `json:"num_iter"`
	PolyN       int     `json:"poly_n"`
	PolySigma   float64 `json:"poly_sigma"`
	GaussianWin bool    `json:"gaussian_win"`
}

// Config collects every option the tracking engine recognizes.
type Config struct {
	OpticalFlow OpticalFlowType  `json:"optical_flow"`
	LK          *LKConfig        `json:"lucas_kanade"`
	Farneback   *FarnebackConfig `json:"farneback"`

	FAST  *keypoints.FASTConfig  `json:"fast"`
	BRIEF *keypoints.BRIEFConfig `json:"brief"`

	DescriptorDistanceThresh int     `json:"descriptor_distance_thresh"`
	MaxPixelDisplacement     float64 `json:"max_pixel_displacement"`
	MaskSize                 int     `json:"mask_size"`
	Margin                   int     `json:"margin"`
	NumFeaturesMin           int     `json:"num_features_min"`
	NumFeaturesMax           int     `json:"num_features_max"`
	ExtractDescriptors       bool    `json:"extract_descriptors"`
	MatchDroppedTracks       bool    `json:"match_dropped_tracks"`
	// DescriptorSeed seeds the BRIEF sample pairs so descriptors stay
	// comparable across frames and runs.
	DescriptorSeed uint64 `json:"descriptor_seed"`
}

// DefaultConfig returns a tracker configuration with reasonable defaults for
// VGA-resolution streams.
func DefaultConfig() *Config {
	return &Config{
		OpticalFlow: LucasKanade,
		LK: &LKConfig{
			WinSize:  15,
			MaxLevel: 4,
			MaxIter:  15,
			Eps:      0.01,
		},
		Farneback: &FarnebackConfig{
			NumLevels:   3,
			PyrScale:    0.5,
			WinSize:     13,
			NumIter:     3,
			PolyN:       5,
			PolySigma:   1.1,
			GaussianWin: false,
		},
		FAST: &keypoints.FASTConfig{
			NMatchesCircle: 9,
			NMSWinSize:     7,
			Threshold:      20,
			Oriented:       false,
		},
		BRIEF: &keypoints.BRIEFConfig{
			N:              256,
			Sampling:       1, // gaussian
			UseOrientation: false,
			PatchSize:      31,
		},
		DescriptorDistanceThresh: 60,
		MaxPixelDisplacement:     64,
		MaskSize:                 15,
		Margin:                   8,
		NumFeaturesMin:           50,
		NumFeaturesMax:           100,
		ExtractDescriptors:       true,
		MatchDroppedTracks:       true,
		DescriptorSeed:           42,
	}
}

// LoadConfiguration loads a tracker Config from a json file.
func LoadConfiguration(file string) (*Config, error) {
	var config Config
	filePath := filepath.Clean(file)
	configFile, err := os.Open(filePath)
	defer utils.UncheckedErrorFunc(configFile.Close)
	if err != nil {
		return nil, err
	}
	jsonParser := json.NewDecoder(configFile)
	if err := jsonParser.Decode(&config); err != nil {
		return nil, err
	}
	if err := config.Validate(file); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate ensures all parts of the config are valid.
func (c *Config) Validate(path string) error {
	switch c.OpticalFlow {
	case LucasKanade:
		if c.LK == nil {
			return utils.NewConfigValidationFieldRequiredError(path, "lucas_kanade")
		}
		if c.LK.WinSize < 3 || c.LK.WinSize%2 == 0 {
			return utils.NewConfigValidationError(path, errors.New("lucas_kanade.win_size should be an odd number >= 3"))
		}
		if c.LK.MaxLevel < 1 {
			return utils.NewConfigValidationError(path, errors.New("lucas_kanade.max_level should be >= 1"))
		}
		if c.LK.MaxIter < 1 {
			return utils.NewConfigValidationError(path, errors.New("lucas_kanade.max_iter should be >= 1"))
		}
	case Farneback:
		if c.Farneback == nil {
			return utils.NewConfigValidationFieldRequiredError(path, "farneback")
		}
		if c.Farneback.PyrScale <= 0 || c.Farneback.PyrScale >= 1 {
			return utils.NewConfigValidationError(path, errors.New("farneback.pyr_scale should be in (0, 1)"))
		}
		if c.Farneback.PolyN < 3 || c.Farneback.PolyN%2 == 0 {
			return utils.NewConfigValidationError(path, errors.New("farneback.poly_n should be an odd number >= 3"))
		}
	default:
		return utils.NewConfigValidationError(path, errors.Errorf("unknown optical_flow %q", c.OpticalFlow))
	}
	if c.FAST == nil {
		return utils.NewConfigValidationFieldRequiredError(path, "fast")
	}
	if c.ExtractDescriptors && c.BRIEF == nil {
		return utils.NewConfigValidationFieldRequiredError(path, "brief")
	}
	if c.MatchDroppedTracks && !c.ExtractDescriptors {
		return utils.NewConfigValidationError(path, errors.New("match_dropped_tracks requires extract_descriptors"))
	}
	if c.NumFeaturesMin < 0 || c.NumFeaturesMax < c.NumFeaturesMin {
		return utils.NewConfigValidationError(path, errors.New("need 0 <= num_features_min <= num_features_max"))
	}
	if c.MaxPixelDisplacement <= 0 {
		return utils.NewConfigValidationError(path, errors.New("max_pixel_displacement should be > 0"))
	}
	if c.MaskSize < 1 {
		return utils.NewConfigValidationError(path, errors.New("mask_size should be >= 1"))
	}
	if c.Margin < 0 {
		return utils.NewConfigValidationError(path, errors.New("margin should be >= 0"))
	}
	return nil
}

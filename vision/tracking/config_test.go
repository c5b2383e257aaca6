package tracking

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"go.viam.com/test"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	test.That(t, cfg.Validate(""), test.ShouldBeNil)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OpticalFlow = "unknown"
	test.That(t, cfg.Validate(""), test.ShouldNotBeNil)

	cfg = DefaultConfig()
	cfg.LK.WinSize = 4
	test.That(t, cfg.Validate(""), test.ShouldNotBeNil)

	cfg = DefaultConfig()
	cfg.OpticalFlow = Farneback
	test.That(t, cfg.Validate(""), test.ShouldBeNil)
	cfg.Farneback.PyrScale = 1.5
	test.That(t, cfg.Validate(""), test.ShouldNotBeNil)

	cfg = DefaultConfig()
	cfg.MatchDroppedTracks = true
	cfg.ExtractDescriptors = false
	test.That(t, cfg.Validate(""), test.ShouldNotBeNil)

	cfg = DefaultConfig()
	cfg.NumFeaturesMin = 10
	cfg.NumFeaturesMax = 5
	test.That(t, cfg.Validate(""), test.ShouldNotBeNil)

	cfg = DefaultConfig()
	cfg.MaxPixelDisplacement = 0
	test.That(t, cfg.Validate(""), test.ShouldNotBeNil)

	cfg = DefaultConfig()
	cfg.FAST = nil
	test.That(t, cfg.Validate(""), test.ShouldNotBeNil)
}

func TestLoadConfiguration(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tracker.json")
	cfg := DefaultConfig()
	cfg.NumFeaturesMax = 123
	raw, err := json.Marshal(cfg)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, os.WriteFile(path, raw, 0o600), test.ShouldBeNil)

	loaded, err := LoadConfiguration(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, loaded.NumFeaturesMax, test.ShouldEqual, 123)
	test.That(t, loaded.OpticalFlow, test.ShouldEqual, LucasKanade)

	// invalid content fails validation on load
	bad := DefaultConfig()
	bad.MaskSize = 0
	raw, err = json.Marshal(bad)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, os.WriteFile(path, raw, 0o600), test.ShouldBeNil)
	_, err = LoadConfiguration(path)
	test.That(t, err, test.ShouldNotBeNil)
}

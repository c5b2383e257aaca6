// Package config loads the whole front-end configuration: tracker options
// plus publisher toggles. Loaded once at startup; there is no hot reload.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/Ador2/xivo/vision/tracking"
)

// Publishers holds the enable flags and bounds for the output sinks.
type Publishers struct {
	Visualization bool `json:"visualization"`
	Pose          bool `json:"pose"`
	Map           bool `json:"map"`
	FullState     bool `json:"full_state"`
	// MaxLandmarks bounds the landmark export per published map message.
	MaxLandmarks int `json:"max_landmarks"`
	// PoseLogPath, when non-empty, enables the SQLite pose log sink.
	PoseLogPath string `json:"pose_log_path"`
}

// Config is the front end configuration.
type Config struct {
	Tracker    *tracking.Config `json:"tracker"`
	Publishers *Publishers      `json:"publishers"`
}

// DefaultConfig returns a runnable configuration with all sinks disabled.
func DefaultConfig() *Config {
	return &Config{
		Tracker:    tracking.DefaultConfig(),
		Publishers: &Publishers{MaxLandmarks: 50},
	}
}

// LoadConfiguration loads a Config from a json file.
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
	if c.Tracker == nil {
		return utils.NewConfigValidationFieldRequiredError(path, "tracker")
	}
	if err := c.Tracker.Validate(path); err != nil {
		return err
	}
	if c.Publishers == nil {
		return utils.NewConfigValidationFieldRequiredError(path, "publishers")
	}
	if c.Publishers.Map && c.Publishers.MaxLandmarks <= 0 {
		return utils.NewConfigValidationError(path, errors.New("map publishing needs max_landmarks > 0"))
	}
	return nil
}

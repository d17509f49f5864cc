package detector

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/nvr-ai/go-handdetect/models/palm"
)

// Config holds the named parameters of a detection pipeline.
type Config struct {
	// CanvasSize is the side of the square model input (S).
	CanvasSize int `json:"canvas_size" yaml:"canvas_size"`
	// ScoreThreshold is the exclusive lower bound on raw anchor scores.
	ScoreThreshold float32 `json:"score_threshold" yaml:"score_threshold"`
	// IoUThreshold is the overlap at or above which NMS suppresses a detection.
	IoUThreshold float32 `json:"iou_threshold" yaml:"iou_threshold"`
	// TopK is the maximum number of detections reported per frame.
	TopK int `json:"top_k" yaml:"top_k"`
	// Layers is the anchor pyramid, enumerated in order.
	Layers []palm.Layer `json:"layers" yaml:"layers"`
	// ExpectedAnchors is a declared anchor total that must equal the layout count.
	// Zero means the total is derived from Layers only.
	ExpectedAnchors int `json:"expected_anchors" yaml:"expected_anchors"`
	// LandmarkIndex selects which decoded keypoint is reported as the landmark.
	LandmarkIndex int `json:"landmark_index" yaml:"landmark_index"`
}

// DefaultConfig returns the palm detector configuration.
//
// Returns:
//   - Config: S=256, score > 1.0, IoU 0.3, two hands, the 3072-anchor pyramid, wrist landmark.
func DefaultConfig() Config {
	return Config{
		CanvasSize:      palm.InputSize,
		ScoreThreshold:  1.0,
		IoUThreshold:    0.3,
		TopK:            2,
		Layers:          palm.DefaultLayers(),
		ExpectedAnchors: 0,
		LandmarkIndex:   palm.Wrist,
	}
}

// Layout returns the anchor layout described by the configuration.
func (c Config) Layout() palm.Layout {
	return palm.Layout{InputSize: c.CanvasSize, Layers: c.Layers}
}

// Validate checks every parameter range.
//
// Returns:
//   - error: A *ConfigError matching ErrInvalidConfig, or nil. Layout problems also
//     match palm.ErrInvalidLayout.
func (c Config) Validate() error {
	invalid := func(format string, args ...interface{}) error {
		return &ConfigError{Op: "config", Err: errors.Wrapf(ErrInvalidConfig, format, args...)}
	}

	if c.CanvasSize <= 0 {
		return invalid("canvas_size must be positive, got %d", c.CanvasSize)
	}
	if c.TopK <= 0 {
		return invalid("top_k must be positive, got %d", c.TopK)
	}
	if !(c.IoUThreshold > 0 && c.IoUThreshold <= 1) {
		return invalid("iou_threshold must be in (0, 1], got %v", c.IoUThreshold)
	}
	if c.ScoreThreshold != c.ScoreThreshold {
		return invalid("score_threshold is NaN")
	}
	if c.ExpectedAnchors < 0 {
		return invalid("expected_anchors must not be negative, got %d", c.ExpectedAnchors)
	}
	if c.LandmarkIndex < 0 {
		return invalid("landmark_index must not be negative, got %d", c.LandmarkIndex)
	}
	if err := c.Layout().Validate(); err != nil {
		return &ConfigError{Op: "config", Err: errors.Wrap(err, "invalid layers")}
	}

	return nil
}

// LoadConfig reads a YAML configuration file. Keys that are absent keep their
// DefaultConfig values; a layers key replaces the whole pyramid.
//
// Arguments:
//   - path: The YAML file to read.
//
// Returns:
//   - Config: The merged, validated configuration.
//   - error: A read or parse error, or a *ConfigError from Validate.
//
// @example
// cfg, err := LoadConfig("handdetect.yaml")
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "failed to read config %s", path)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "failed to parse config %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

package main

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/nvr-ai/go-handdetect/detector"
)

// loadDetectorConfig reads the optional YAML file and applies flag overrides.
func loadDetectorConfig(path, score string, topK int) (detector.Config, error) {
	config := detector.DefaultConfig()
	if path != "" {
		var err error
		if config, err = detector.LoadConfig(path); err != nil {
			return config, err
		}
	}

	if score != "" {
		v, err := strconv.ParseFloat(score, 32)
		if err != nil {
			return config, errors.Wrapf(err, "invalid --score %q", score)
		}
		config.ScoreThreshold = float32(v)
	}
	if topK > 0 {
		config.TopK = topK
	}

	return config, config.Validate()
}

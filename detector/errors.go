package detector

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrShapeMismatch is returned when the model outputs do not line up with the anchor grid.
	ErrShapeMismatch = errors.New("tensor shape mismatch")
	// ErrAnchorCount is returned when a declared anchor total disagrees with the layout.
	ErrAnchorCount = errors.New("anchor count mismatch")
	// ErrInvalidConfig is returned for out of range configuration values.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// ConfigError reports a configuration or input contract violation. These are
// deterministic for a given configuration and frame geometry and are never retried.
type ConfigError struct {
	// Op names the step that rejected the input ("config", "anchors", "letterbox", "shape", "prepare").
	Op  string
	Err error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("detector %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// Is reports every rejection by the "config" step as ErrInvalidConfig, so the
// underlying cause can stay in the chain.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig && e.Op == "config"
}

// InferenceError wraps a failure of the external inference engine.
type InferenceError struct {
	Err error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("detector inference: %v", e.Err)
}

// Unwrap returns the underlying cause.
func (e *InferenceError) Unwrap() error {
	return e.Err
}

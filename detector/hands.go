package detector

import (
	"context"
	"image"

	"github.com/cyclopcam/logs"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-handdetect/images"
	"github.com/nvr-ai/go-handdetect/inference"
	"github.com/nvr-ai/go-handdetect/models/postprocess"
	"github.com/nvr-ai/go-handdetect/profiler"
)

// HandDetector runs the full frame path: letterbox, input preparation, inference
// and the detection pipeline.
type HandDetector struct {
	engine   inference.Engine
	pipeline *Pipeline
	profiler *profiler.RuntimeProfiler
}

// NewHandDetector pairs an inference engine with a pipeline built from config.
//
// Arguments:
//   - engine: The inference engine. Ownership passes to the detector.
//   - config: The pipeline parameters.
//   - log: Destination for diagnostics. May be nil.
//
// Returns:
//   - *HandDetector: The detector.
//   - error: A *ConfigError if the pipeline cannot be built.
func NewHandDetector(engine inference.Engine, config Config, log logs.Log) (*HandDetector, error) {
	if engine == nil {
		return nil, &ConfigError{Op: "config", Err: errors.Wrap(ErrInvalidConfig, "no inference engine")}
	}

	pipeline, err := New(config, log)
	if err != nil {
		return nil, err
	}

	return &HandDetector{engine: engine, pipeline: pipeline}, nil
}

// SetProfiler records the duration of each stage of Detect into rp. A nil rp
// disables timing. Not safe to call concurrently with Detect.
func (h *HandDetector) SetProfiler(rp *profiler.RuntimeProfiler) {
	h.profiler = rp
}

// Pipeline returns the detector's pipeline.
func (h *HandDetector) Pipeline() *Pipeline {
	return h.pipeline
}

// Detect finds up to TopK hands in an image.
//
// The context is checked before inference; cancellation is reported as the
// context's error. Engine failures are returned as *InferenceError.
//
// Arguments:
//   - ctx: Bounds the inference call.
//   - img: The source frame.
//
// Returns:
//   - []postprocess.Detection: Frame-space detections, possibly empty.
//   - error: A *ConfigError, *InferenceError or context error.
func (h *HandDetector) Detect(ctx context.Context, img image.Image) ([]postprocess.Detection, error) {
	frame := images.FrameOf(img)

	lb, err := h.pipeline.Letterbox(frame.Width, frame.Height)
	if err != nil {
		return nil, err
	}

	done := h.profiler.StartOperation(profiler.StagePrepare)
	input, err := inference.PrepareInput(img, lb)
	done()
	if err != nil {
		return nil, &ConfigError{Op: "prepare", Err: err}
	}

	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	done = h.profiler.StartOperation(profiler.StageInference)
	out, err := h.engine.Run(ctx, input)
	done()
	if err != nil {
		return nil, &InferenceError{Err: err}
	}

	defer h.profiler.StartOperation(profiler.StagePostprocess)()
	return h.pipeline.Detect(frame, out.Scores, out.Coords)
}

// Close releases the inference engine.
func (h *HandDetector) Close() error {
	return h.engine.Close()
}

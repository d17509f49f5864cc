// Package detector - Hand detection pipeline over raw palm detector outputs.
package detector

import (
	"github.com/cyclopcam/logs"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-handdetect/images"
	"github.com/nvr-ai/go-handdetect/models/palm"
	"github.com/nvr-ai/go-handdetect/models/postprocess"
)

// Pipeline turns one frame's raw score and regression tensors into ranked,
// deduplicated, frame-space detections.
//
// A Pipeline holds only its configuration and the immutable anchor grid, so a single
// instance may be shared by goroutines working on independent frames.
type Pipeline struct {
	config Config
	grid   *palm.AnchorGrid
	log    logs.Log
}

// New builds a pipeline and its anchor grid.
//
// Arguments:
//   - config: The pipeline parameters.
//   - log: Destination for diagnostics. May be nil.
//
// Returns:
//   - *Pipeline: The pipeline.
//   - error: A *ConfigError for invalid parameters or an anchor total that disagrees with the layout.
func New(config Config, log logs.Log) (*Pipeline, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	grid, err := palm.NewAnchorGrid(config.Layout())
	if err != nil {
		return nil, &ConfigError{Op: "anchors", Err: err}
	}

	p := &Pipeline{config: config, grid: grid, log: log}

	if config.ExpectedAnchors != 0 && config.ExpectedAnchors != grid.Len() {
		p.errorf("Declared anchor total %d does not match the %d anchors generated by the layout",
			config.ExpectedAnchors, grid.Len())
		return nil, &ConfigError{
			Op:  "anchors",
			Err: errors.Wrapf(ErrAnchorCount, "declared %d, layout generates %d", config.ExpectedAnchors, grid.Len()),
		}
	}

	p.infof("Anchor grid ready: %d anchors over %d layers, input %dx%d",
		grid.Len(), len(config.Layers), config.CanvasSize, config.CanvasSize)

	return p, nil
}

// Config returns the pipeline parameters.
func (p *Pipeline) Config() Config {
	return p.config
}

// Anchors returns the pipeline's anchor grid.
func (p *Pipeline) Anchors() *palm.AnchorGrid {
	return p.grid
}

// Letterbox computes the geometry used to fit a frame into the model input.
func (p *Pipeline) Letterbox(width, height int) (images.Letterbox, error) {
	lb, err := images.NewLetterbox(width, height, p.config.CanvasSize)
	if err != nil {
		return lb, &ConfigError{Op: "letterbox", Err: err}
	}
	return lb, nil
}

// Detect runs filtering, decoding, suppression and top-K selection for one frame.
//
// Only the frame's dimensions are read. The score tensor must be float32 shaped
// [1, N, 1] and the regression tensor float32 shaped [1, N, C] with C >= 6, where N
// is the anchor count. Boxes are decoded, suppressed and ranked in canvas space;
// only the reported detections are mapped back to frame space.
//
// Arguments:
//   - frame: The source frame the tensors were computed from.
//   - scores: Raw per-anchor confidences.
//   - coords: Raw per-anchor regression rows.
//
// Returns:
//   - []postprocess.Detection: At most TopK detections in descending score order, in
//     frame space. An empty slice when nothing passes the score threshold.
//   - error: A *ConfigError for shape or geometry violations.
//
// @example
// dets, err := p.Detect(images.Frame{Width: 640, Height: 480}, scores, coords)
func (p *Pipeline) Detect(frame images.Frame, scores, coords *tensor.Dense) ([]postprocess.Detection, error) {
	lb, err := p.Letterbox(frame.Width, frame.Height)
	if err != nil {
		return nil, err
	}

	scoreData, coordData, channels, err := p.validate(scores, coords)
	if err != nil {
		return nil, &ConfigError{Op: "shape", Err: err}
	}

	candidates := postprocess.FilterByScore(scoreData, p.config.ScoreThreshold)
	if len(candidates) == 0 {
		p.debugf("No candidates above %v", p.config.ScoreThreshold)
		return []postprocess.Detection{}, nil
	}

	size := float32(p.config.CanvasSize)
	detections := make([]postprocess.Detection, 0, len(candidates))
	for _, c := range candidates {
		row := coordData[c.Index*channels : (c.Index+1)*channels]
		box, landmark, keypoints := palm.Decode(p.grid.At(c.Index), row, size, p.config.LandmarkIndex)

		detections = append(detections, postprocess.Detection{
			Index:     c.Index,
			Score:     c.Score,
			Box:       box,
			Landmark:  landmark,
			Keypoints: keypoints,
			Space:     images.SpaceCanvas,
		})
	}

	kept := postprocess.ApplyGreedyNMS(detections, &postprocess.NMSConfig{IoUThreshold: p.config.IoUThreshold})
	result := postprocess.TopK(kept, p.config.TopK)

	for i := range result {
		toFrame(&result[i], lb)
	}

	p.debugf("Frame %dx%d: %d candidates, %d after NMS, %d reported",
		frame.Width, frame.Height, len(candidates), len(kept), len(result))

	return result, nil
}

// toFrame maps a canvas-space detection to frame space in place.
func toFrame(d *postprocess.Detection, lb images.Letterbox) {
	d.Box = lb.ToFrameBox(d.Box)
	d.Landmark = lb.ToFramePoint(d.Landmark)
	for k := range d.Keypoints {
		d.Keypoints[k] = lb.ToFramePoint(d.Keypoints[k])
	}
	d.Space = images.SpaceFrame
}

// validate checks both tensors against the anchor grid and returns their backing data.
func (p *Pipeline) validate(scores, coords *tensor.Dense) ([]float32, []float32, int, error) {
	n := p.grid.Len()

	if scores == nil || coords == nil {
		return nil, nil, 0, errors.Wrap(ErrShapeMismatch, "missing output tensor")
	}
	if scores.Dtype() != tensor.Float32 || coords.Dtype() != tensor.Float32 {
		return nil, nil, 0, errors.Wrapf(ErrShapeMismatch, "expected float32 outputs, got %v and %v",
			scores.Dtype(), coords.Dtype())
	}

	ss := scores.Shape()
	if len(ss) != 3 || ss[0] != 1 || ss[1] != n || ss[2] != 1 {
		return nil, nil, 0, errors.Wrapf(ErrShapeMismatch, "scores shape %v, expected (1, %d, 1)", ss, n)
	}

	cs := coords.Shape()
	if len(cs) != 3 || cs[0] != 1 || cs[1] != n || cs[2] < palm.MinCoordChannels {
		return nil, nil, 0, errors.Wrapf(ErrShapeMismatch, "coords shape %v, expected (1, %d, >=%d)",
			cs, n, palm.MinCoordChannels)
	}
	channels := cs[2]

	if p.config.LandmarkIndex >= palm.KeypointCount(channels) {
		return nil, nil, 0, errors.Wrapf(ErrShapeMismatch, "landmark %d not present in %d regression channels",
			p.config.LandmarkIndex, channels)
	}

	scoreData, ok := scores.Data().([]float32)
	if !ok || len(scoreData) < n {
		return nil, nil, 0, errors.Wrap(ErrShapeMismatch, "scores backing data is not materialized")
	}
	coordData, ok := coords.Data().([]float32)
	if !ok || len(coordData) < n*channels {
		return nil, nil, 0, errors.Wrap(ErrShapeMismatch, "coords backing data is not materialized")
	}

	return scoreData[:n], coordData[:n*channels], channels, nil
}

func (p *Pipeline) debugf(format string, args ...interface{}) {
	if p.log != nil {
		p.log.Debugf(format, args...)
	}
}

func (p *Pipeline) infof(format string, args ...interface{}) {
	if p.log != nil {
		p.log.Infof(format, args...)
	}
}

func (p *Pipeline) errorf(format string, args ...interface{}) {
	if p.log != nil {
		p.log.Errorf(format, args...)
	}
}

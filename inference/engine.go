// Package inference - Inference engine boundary for the palm detector.
package inference

import (
	"context"
	"sync"

	"github.com/cyclopcam/logs"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-handdetect/inference/providers"
)

// Outputs holds the two raw tensors the palm detector produces for one frame.
type Outputs struct {
	// Scores is shaped [1, N, 1].
	Scores *tensor.Dense
	// Coords is shaped [1, N, C].
	Coords *tensor.Dense
}

// Engine defines the interface for ML inference engines.
type Engine interface {
	// Run executes the model over a [1, 3, S, S] input. The returned tensors are
	// owned by the caller.
	Run(ctx context.Context, input *tensor.Dense) (Outputs, error)
	Close() error
}

// ONNXEngine runs the palm detector through ONNX Runtime.
type ONNXEngine struct {
	mu        sync.Mutex
	session   *providers.Session
	inputSize int
	anchors   int
	channels  int
	runs      int64
	log       logs.Log
	modelPath string
}

// NewONNXEngine opens a session for a palm detector model.
//
// Arguments:
//   - config: Model path, execution provider and tensor names.
//   - inputSize: The side of the square model input.
//   - anchors: The anchor count N of the output tensors.
//   - log: Destination for diagnostics.
//
// Returns:
//   - *ONNXEngine: The engine. Callers must Close it.
//   - error: An error if the session cannot be created.
func NewONNXEngine(config providers.Config, inputSize, anchors int, log logs.Log) (*ONNXEngine, error) {
	if inputSize <= 0 || anchors <= 0 {
		return nil, errors.Errorf("invalid engine geometry: input %d, anchors %d", inputSize, anchors)
	}

	session, err := providers.NewSession(config, providers.NewSessionArgs{
		InputShape: []int64{1, 3, int64(inputSize), int64(inputSize)},
		ScoreShape: []int64{1, int64(anchors), 1},
		CoordShape: []int64{1, int64(anchors), int64(config.CoordChannels)},
	})
	if err != nil {
		return nil, err
	}

	log.Infof("Loaded %s on %s backend: input %dx%d, %d anchors x %d channels",
		config.ModelPath, config.Backend, inputSize, inputSize, anchors, config.CoordChannels)

	return &ONNXEngine{
		session:   session,
		inputSize: inputSize,
		anchors:   anchors,
		channels:  config.CoordChannels,
		log:       log,
		modelPath: config.ModelPath,
	}, nil
}

// Run copies the input into the bound session tensor, runs the model and copies
// both outputs into new tensors. Calls are serialized.
func (e *ONNXEngine) Run(ctx context.Context, input *tensor.Dense) (Outputs, error) {
	if err := ctx.Err(); err != nil {
		return Outputs{}, errors.WithStack(err)
	}

	data, ok := input.Data().([]float32)
	if !ok {
		return Outputs{}, errors.Errorf("input must be float32, got %v", input.Dtype())
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return Outputs{}, errors.New("engine is closed")
	}

	dst := e.session.Input()
	if len(data) != len(dst) {
		return Outputs{}, errors.Errorf("input holds %d floats, session expects %d", len(data), len(dst))
	}
	copy(dst, data)

	if err := e.session.Run(); err != nil {
		return Outputs{}, err
	}
	e.runs++

	scores := make([]float32, e.anchors)
	copy(scores, e.session.Scores())
	coords := make([]float32, e.anchors*e.channels)
	copy(coords, e.session.Coords())

	return Outputs{
		Scores: tensor.New(tensor.WithShape(1, e.anchors, 1), tensor.WithBacking(scores)),
		Coords: tensor.New(tensor.WithShape(1, e.anchors, e.channels), tensor.WithBacking(coords)),
	}, nil
}

// Close releases the session.
func (e *ONNXEngine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return nil
	}
	err := e.session.Close()
	e.session = nil
	e.log.Infof("Closed %s after %d runs", e.modelPath, e.runs)
	return err
}

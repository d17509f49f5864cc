package detector

import (
	"context"
	"image"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"

	"github.com/nvr-ai/go-handdetect/images"
	"github.com/nvr-ai/go-handdetect/inference"
	"github.com/nvr-ai/go-handdetect/profiler"
)

// fakeEngine returns canned outputs and records the inputs it was given.
type fakeEngine struct {
	outputs inference.Outputs
	err     error
	inputs  []*tensor.Dense
	closed  bool
}

func (f *fakeEngine) Run(ctx context.Context, input *tensor.Dense) (inference.Outputs, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return inference.Outputs{}, f.err
	}
	return f.outputs, nil
}

func (f *fakeEngine) Close() error {
	f.closed = true
	return nil
}

func newFakeEngine(raw *rawOutputs) *fakeEngine {
	scores, coords := raw.tensors()
	return &fakeEngine{outputs: inference.Outputs{Scores: scores, Coords: coords}}
}

func TestHandDetectorDetect(t *testing.T) {
	raw := newRawOutputs()
	raw.set(centerAnchor, 3, 0, 0, 51.2, 38.4)
	engine := newFakeEngine(raw)

	hd, err := NewHandDetector(engine, DefaultConfig(), logs.NewTestingLog(t))
	require.NoError(t, err)
	rp := profiler.NewRuntimeProfiler(0)
	hd.SetProfiler(rp)

	dets, err := hd.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 640, 480)))
	require.NoError(t, err)
	require.Len(t, dets, 1)
	assert.Equal(t, images.SpaceFrame, dets[0].Space)
	assert.InDelta(t, 0.4208333, dets[0].Box.YMin, 1e-6)

	require.Len(t, engine.inputs, 1)
	assert.Equal(t, []int{1, 3, 256, 256}, []int(engine.inputs[0].Shape()))

	stats := rp.Stats()
	for _, stage := range []string{profiler.StagePrepare, profiler.StageInference, profiler.StagePostprocess} {
		assert.Equal(t, int64(1), stats[stage].Count, stage)
	}

	require.NoError(t, hd.Close())
	assert.True(t, engine.closed)
}

func TestHandDetectorDetect_InferenceError(t *testing.T) {
	engine := &fakeEngine{err: errors.New("session exploded")}
	hd, err := NewHandDetector(engine, DefaultConfig(), nil)
	require.NoError(t, err)

	_, err = hd.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 640, 480)))

	var ierr *InferenceError
	require.ErrorAs(t, err, &ierr)
	assert.ErrorContains(t, err, "session exploded")
}

func TestHandDetectorDetect_Cancelled(t *testing.T) {
	engine := newFakeEngine(newRawOutputs())
	hd, err := NewHandDetector(engine, DefaultConfig(), nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = hd.Detect(ctx, image.NewRGBA(image.Rect(0, 0, 640, 480)))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, engine.inputs, "inference is skipped once the context is done")
}

func TestHandDetectorDetect_PortraitFrame(t *testing.T) {
	engine := newFakeEngine(newRawOutputs())
	hd, err := NewHandDetector(engine, DefaultConfig(), nil)
	require.NoError(t, err)

	_, err = hd.Detect(context.Background(), image.NewRGBA(image.Rect(0, 0, 480, 640)))
	assert.ErrorIs(t, err, images.ErrNarrowFrame)
	assert.Empty(t, engine.inputs)
}

func TestNewHandDetector_Errors(t *testing.T) {
	_, err := NewHandDetector(nil, DefaultConfig(), nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	config := DefaultConfig()
	config.TopK = 0
	_, err = NewHandDetector(&fakeEngine{}, config, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/cyclopcam/logs"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nvr-ai/go-handdetect/detector"
	"github.com/nvr-ai/go-handdetect/images"
	"github.com/nvr-ai/go-handdetect/models/postprocess"
)

// stubFinder reports one hand per frame, or fails frames by width.
type stubFinder struct {
	mu       sync.Mutex
	calls    int
	errFor   map[int]error
	handsFor map[int][]postprocess.Detection
}

func (s *stubFinder) Detect(ctx context.Context, img image.Image) ([]postprocess.Detection, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()

	if err, ok := s.errFor[img.Bounds().Dx()]; ok {
		return nil, err
	}
	if hands, ok := s.handsFor[img.Bounds().Dx()]; ok {
		return hands, nil
	}
	return []postprocess.Detection{{
		Index: 42,
		Score: 3,
		Box:   images.Box{XMin: 0.1, YMin: 0.2, XMax: 0.3, YMax: 0.4},
		Space: images.SpaceFrame,
	}}, nil
}

func writePNG(t *testing.T, dir, name string, w, h int) {
	t.Helper()
	f, err := os.Create(filepath.Join(dir, name))
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, w, h))))
}

func readLines(t *testing.T, buf *bytes.Buffer) []frameResult {
	t.Helper()
	var results []frameResult
	scanner := bufio.NewScanner(buf)
	for scanner.Scan() {
		var r frameResult
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &r))
		results = append(results, r)
	}
	return results
}

func TestRunBatch(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "frame-3.png", 64, 48)
	writePNG(t, dir, "frame-1.png", 64, 48)
	writePNG(t, dir, "frame-2.png", 48, 64)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "frame-4.png"), []byte("garbage"), 0o600))

	finder := &stubFinder{errFor: map[int]error{
		48: &detector.ConfigError{Op: "letterbox", Err: images.ErrNarrowFrame},
	}}

	var out bytes.Buffer
	require.NoError(t, runBatch(context.Background(), logs.NewTestingLog(t), finder, dir, 2, &out))

	results := readLines(t, &out)
	require.Len(t, results, 4)
	assert.Equal(t, 3, finder.calls, "undecodable frames never reach the detector")

	assert.Equal(t, 1, results[0].Frame)
	require.Len(t, results[0].Hands, 1)
	assert.Equal(t, 42, results[0].Hands[0].Index)
	assert.Equal(t, 64, results[0].Width)

	assert.Equal(t, 2, results[1].Frame)
	assert.Empty(t, results[1].Hands)
	assert.Contains(t, results[1].Error, "taller than it is wide")

	assert.Equal(t, 3, results[2].Frame)
	assert.Len(t, results[2].Hands, 1)

	assert.Equal(t, 4, results[3].Frame)
	assert.Contains(t, results[3].Error, "decode")
}

func TestRunBatch_InferenceErrorAborts(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "frame-1.png", 64, 48)

	finder := &stubFinder{errFor: map[int]error{
		64: &detector.InferenceError{Err: errors.New("device lost")},
	}}

	var out bytes.Buffer
	err := runBatch(context.Background(), logs.NewTestingLog(t), finder, dir, 1, &out)
	assert.ErrorContains(t, err, "device lost")
	assert.Zero(t, out.Len())
}

func TestRunBatch_NonFiniteDetection(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "frame-1.png", 64, 48)
	writePNG(t, dir, "frame-2.png", 80, 60)

	inf := float32(math.Inf(1))
	finder := &stubFinder{handsFor: map[int][]postprocess.Detection{
		80: {{Index: 7, Score: 2, Box: images.Box{XMin: inf, YMin: 0.2, XMax: 0.3, YMax: 0.4}}},
	}}

	var out bytes.Buffer
	require.NoError(t, runBatch(context.Background(), logs.NewTestingLog(t), finder, dir, 2, &out))

	results := readLines(t, &out)
	require.Len(t, results, 2, "an unencodable frame does not lose the rest of the batch")

	assert.Len(t, results[0].Hands, 1)
	assert.Empty(t, results[0].Error)

	assert.Equal(t, 2, results[1].Frame)
	assert.Equal(t, 80, results[1].Width)
	assert.Empty(t, results[1].Hands)
	assert.Contains(t, results[1].Error, "unsupported value")
}

func TestRunBatch_MissingDirectory(t *testing.T) {
	var out bytes.Buffer
	err := runBatch(context.Background(), logs.NewTestingLog(t), &stubFinder{}, filepath.Join(t.TempDir(), "nope"), 1, &out)
	assert.Error(t, err)
}

func TestLoadDetectorConfig(t *testing.T) {
	config, err := loadDetectorConfig("", "", 0)
	require.NoError(t, err)
	assert.Equal(t, detector.DefaultConfig(), config)

	config, err = loadDetectorConfig("", "0.75", 1)
	require.NoError(t, err)
	assert.Equal(t, float32(0.75), config.ScoreThreshold)
	assert.Equal(t, 1, config.TopK)

	_, err = loadDetectorConfig("", "high", 0)
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "detector.yaml")
	require.NoError(t, os.WriteFile(path, []byte("top_k: 4\n"), 0o600))
	config, err = loadDetectorConfig(path, "", 0)
	require.NoError(t, err)
	assert.Equal(t, 4, config.TopK)
}

package main

import (
	"context"
	"encoding/json"
	"image"
	"io"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/nvr-ai/go-handdetect/detector"
	"github.com/nvr-ai/go-handdetect/images"
	"github.com/nvr-ai/go-handdetect/models/postprocess"
	"github.com/nvr-ai/go-handdetect/util"
)

// handFinder is the part of detector.HandDetector the frame loops use.
type handFinder interface {
	Detect(ctx context.Context, img image.Image) ([]postprocess.Detection, error)
}

// frameResult is one JSON line of output.
type frameResult struct {
	Source string                  `json:"source"`
	Frame  int                     `json:"frame"`
	Width  int                     `json:"width"`
	Height int                     `json:"height"`
	Hands  []postprocess.Detection `json:"hands"`
	Error  string                  `json:"error,omitempty"`
}

// runBatch detects hands in every image of a directory, up to workers frames at a
// time, and writes one line per frame in frame order.
//
// Frames that fail to decode or violate the input contract are reported in their
// line's error field. An inference failure aborts the batch.
func runBatch(ctx context.Context, log logs.Log, hands handFinder, dir string, workers int, out io.Writer) error {
	files, err := util.LoadDirectoryImageFiles(dir)
	if err != nil {
		return err
	}
	if workers <= 0 {
		workers = 1
	}
	log.Infof("Processing %d frames from %s with %d workers", len(files), dir, workers)

	start := time.Now()
	results := make([]frameResult, len(files))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, f := range files {
		g.Go(func() error {
			results[i] = frameResult{Source: f.Path, Frame: f.Frame, Hands: []postprocess.Detection{}}

			img, err := f.Decode()
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}
			frame := images.FrameOf(img)
			results[i].Width, results[i].Height = frame.Width, frame.Height

			dets, err := hands.Detect(ctx, img)
			var inferenceErr *detector.InferenceError
			switch {
			case errors.As(err, &inferenceErr):
				return errors.Wrapf(err, "frame %s", f.Path)
			case err != nil:
				results[i].Error = err.Error()
			default:
				results[i].Hands = dets
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	found := 0
	for _, r := range results {
		written, err := writeResult(out, r)
		if err != nil {
			return err
		}
		found += written
	}

	log.Infof("Processed %d frames in %v, %d hands found", len(files), time.Since(start), found)
	return nil
}

// writeResult writes r as one JSON line and returns the number of hands written.
// A result that cannot be encoded, such as one with non-finite coordinates, is
// written without its hands and with the encoding error in its error field.
func writeResult(out io.Writer, r frameResult) (int, error) {
	line, err := json.Marshal(r)
	if err != nil {
		r.Hands = []postprocess.Detection{}
		r.Error = err.Error()
		if line, err = json.Marshal(r); err != nil {
			return 0, errors.Wrap(err, "failed to encode result")
		}
	}

	if _, err := out.Write(append(line, '\n')); err != nil {
		return 0, errors.Wrap(err, "failed to write result")
	}
	return len(r.Hands), nil
}

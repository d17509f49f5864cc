package main

import (
	"context"
	"io"
	"time"

	"github.com/cyclopcam/logs"
	"github.com/pkg/errors"
	"gocv.io/x/gocv"

	"github.com/nvr-ai/go-handdetect/detector"
	"github.com/nvr-ai/go-handdetect/images"
)

// runCamera detects hands in frames read from a capture device until the context
// is cancelled. Frames that cannot be read or run through the model are skipped.
func runCamera(ctx context.Context, log logs.Log, hands handFinder, deviceID int, out io.Writer) error {
	webcam, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return errors.Wrapf(err, "failed to open camera %d", deviceID)
	}
	defer webcam.Close()

	mat := gocv.NewMat()
	defer mat.Close()

	// FPS tracking variables
	fps := 0.0
	frameCount := 0
	lastTime := time.Now()

	log.Infof("Reading camera device %d", deviceID)
	for frame := 0; ; frame++ {
		if ctx.Err() != nil {
			return nil
		}

		if ok := webcam.Read(&mat); !ok {
			return errors.Errorf("cannot read device %d", deviceID)
		}
		if mat.Empty() {
			continue
		}

		img, err := mat.ToImage()
		if err != nil {
			log.Warnf("Skipping frame %d: %v", frame, err)
			continue
		}

		dets, err := hands.Detect(ctx, img)
		var configErr *detector.ConfigError
		switch {
		case errors.As(err, &configErr):
			return err
		case err != nil:
			log.Warnf("Skipping frame %d: %v", frame, err)
			continue
		}

		frameCount++
		if elapsed := time.Since(lastTime).Seconds(); elapsed >= 1.0 {
			fps = float64(frameCount) / elapsed
			frameCount = 0
			lastTime = time.Now()
			log.Debugf("%.2f FPS", fps)
		}

		if len(dets) == 0 {
			log.Debugf("No hands detected")
			continue
		}

		size := images.FrameOf(img)
		result := frameResult{Source: "camera", Frame: frame, Width: size.Width, Height: size.Height, Hands: dets}
		if _, err := writeResult(out, result); err != nil {
			return err
		}
	}
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"

	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"

	"github.com/nvr-ai/go-handdetect/detector"
	"github.com/nvr-ai/go-handdetect/inference"
	"github.com/nvr-ai/go-handdetect/inference/providers"
	"github.com/nvr-ai/go-handdetect/profiler"
)

func main() {
	parser := argparse.NewParser("handdetect", "Detect hands in a camera stream or a directory of frames")
	configFile := parser.String("c", "config", &argparse.Options{Help: "Detector configuration YAML (defaults to the palm detector settings)", Default: ""})
	modelPath := parser.String("m", "model", &argparse.Options{Help: "Palm detection ONNX model", Default: "palm_detection.onnx"})
	libPath := parser.String("", "lib", &argparse.Options{Help: "Path to the onnxruntime shared library", Default: ""})
	backend := parser.Selector("b", "backend", []string{"cpu", "coreml", "openvino", "cuda"}, &argparse.Options{Help: "Execution provider", Default: "cpu"})
	threads := parser.Int("t", "threads", &argparse.Options{Help: "Intra-op threads for inference", Default: 4})
	score := parser.String("", "score", &argparse.Options{Help: "Override the raw score threshold", Default: ""})
	topK := parser.Int("k", "topk", &argparse.Options{Help: "Override the maximum number of hands per frame (0 keeps the configured value)", Default: 0})
	camera := parser.Int("", "camera", &argparse.Options{Help: "Camera device ID to read from", Default: -1})
	imagesDir := parser.String("", "images", &argparse.Options{Help: "Directory of still frames to process in batch", Default: ""})
	workers := parser.Int("w", "workers", &argparse.Options{Help: "Frames processed concurrently in batch mode", Default: runtime.NumCPU()})
	profile := parser.Flag("p", "profile", &argparse.Options{Help: "Log per-stage timings on exit", Default: false})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}

	if (*camera < 0) == (*imagesDir == "") {
		fmt.Print(parser.Usage("exactly one of --camera or --images is required"))
		os.Exit(1)
	}

	logger, err := logs.NewLog()
	if err != nil {
		fmt.Printf("Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	detectorConfig, err := loadDetectorConfig(*configFile, *score, *topK)
	if err != nil {
		logger.Criticalf("%v", err)
		logger.Close()
		os.Exit(1)
	}

	engineConfig := providers.DefaultConfig()
	engineConfig.ModelPath = *modelPath
	engineConfig.SharedLibraryPath = *libPath
	engineConfig.Backend = providers.Backend(*backend)
	engineConfig.IntraOpThreads = *threads

	if err := run(logger, detectorConfig, engineConfig, *camera, *imagesDir, *workers, *profile); err != nil {
		logger.Errorf("%v", err)
		logger.Close()
		os.Exit(1)
	}
}

func run(logger logs.Log, detectorConfig detector.Config, engineConfig providers.Config, camera int, imagesDir string, workers int, profile bool) error {
	engine, err := inference.NewONNXEngine(engineConfig, detectorConfig.CanvasSize, detectorConfig.Layout().Count(), logger)
	if err != nil {
		return err
	}

	hands, err := detector.NewHandDetector(engine, detectorConfig, logger)
	if err != nil {
		engine.Close()
		return err
	}
	defer hands.Close()

	if profile {
		rp := profiler.NewRuntimeProfiler(0)
		hands.SetProfiler(rp)
		defer rp.Report(logger)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if imagesDir != "" {
		return runBatch(ctx, logger, hands, imagesDir, workers, os.Stdout)
	}
	return runCamera(ctx, logger, hands, camera, os.Stdout)
}

// Package providers - ONNX Runtime sessions and execution provider selection.
package providers

import (
	"fmt"
	"strconv"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// Backend names the execution provider a session runs on.
type Backend string

const (
	// CPUBackend runs on the default ONNX Runtime CPU provider.
	CPUBackend Backend = "cpu"
	// CoreMLBackend uses Apple CoreML.
	CoreMLBackend Backend = "coreml"
	// OpenVINOBackend uses Intel OpenVINO.
	OpenVINOBackend Backend = "openvino"
	// CUDABackend uses NVIDIA CUDA.
	CUDABackend Backend = "cuda"
)

// OpenVINOOptions contains arguments for the OpenVINO provider.
// See:
// https://onnxruntime.ai/docs/execution-providers/OpenVINO-ExecutionProvider.html#summary-of-options
type OpenVINOOptions struct {
	// Overrides the accelerator hardware type (CPU, GPU, NPU) at runtime.
	DeviceType string `json:"device_type"  yaml:"device_type"`
	// Inference precision for the device: FP32, FP16 or ACCURACY.
	Precision string `json:"precision"    yaml:"precision"`
	// Overrides the accelerator default number of threads. Zero keeps the default.
	NumOfThreads int `json:"num_of_threads" yaml:"num_of_threads"`
	// Overrides the accelerator default number of streams. Zero keeps the default.
	NumStreams int `json:"num_streams"  yaml:"num_streams"`
}

// ToProviderOptions converts the options into the string map ONNX Runtime expects.
func (o OpenVINOOptions) ToProviderOptions() map[string]string {
	opts := map[string]string{}
	if o.DeviceType != "" {
		opts["device_type"] = o.DeviceType
	}
	if o.Precision != "" {
		opts["precision"] = o.Precision
	}
	if o.NumOfThreads > 0 {
		opts["num_of_threads"] = strconv.Itoa(o.NumOfThreads)
	}
	if o.NumStreams > 0 {
		opts["num_streams"] = strconv.Itoa(o.NumStreams)
	}
	return opts
}

// CUDAOptions contains arguments for the CUDA provider.
// See:
// https://onnxruntime.ai/docs/execution-providers/CUDA-ExecutionProvider.html#configuration-options
type CUDAOptions struct {
	// The device ID.
	DeviceID int `json:"device_id"     yaml:"device_id"`
	// The size limit of the device memory arena in bytes. Zero means unlimited.
	GPUMemLimit int64 `json:"gpu_mem_limit" yaml:"gpu_mem_limit"`
	// TF32 math mode on Ampere and later GPUs.
	UseTF32 bool `json:"use_tf32"      yaml:"use_tf32"`
}

// ToNativeProviderOptions converts the CUDA options to native CUDA provider options.
// The caller owns the result and must Destroy it.
func (o CUDAOptions) ToNativeProviderOptions() (*ort.CUDAProviderOptions, error) {
	opts, err := ort.NewCUDAProviderOptions()
	if err != nil {
		return nil, errors.Wrap(err, "error creating CUDA provider options")
	}

	settings := map[string]string{
		"device_id": strconv.Itoa(o.DeviceID),
		"use_tf32":  fmt.Sprintf("%d", boolToInt(o.UseTF32)),
	}
	if o.GPUMemLimit > 0 {
		settings["gpu_mem_limit"] = strconv.FormatInt(o.GPUMemLimit, 10)
	}

	if err := opts.Update(settings); err != nil {
		opts.Destroy()
		return nil, errors.Wrap(err, "error updating CUDA provider options")
	}

	return opts, nil
}

// Config describes the model file and how ONNX Runtime should execute it.
type Config struct {
	// ModelPath specifies the path to the ONNX model file.
	ModelPath string `json:"model_path" yaml:"model_path"`
	// SharedLibraryPath overrides the platform default onnxruntime library location.
	SharedLibraryPath string `json:"shared_library_path" yaml:"shared_library_path"`
	// Backend specifies the execution provider.
	Backend Backend `json:"backend" yaml:"backend"`
	// IntraOpThreads sets threads for parallelizing a single operator.
	IntraOpThreads int `json:"intra_op_threads" yaml:"intra_op_threads"`
	// InterOpThreads sets threads for parallelizing independent operators. Zero lets ONNX Runtime decide.
	InterOpThreads int `json:"inter_op_threads" yaml:"inter_op_threads"`
	// InputName is the model's image input.
	InputName string `json:"input_name" yaml:"input_name"`
	// ScoreOutput is the model's per-anchor score output.
	ScoreOutput string `json:"score_output" yaml:"score_output"`
	// CoordOutput is the model's per-anchor regression output.
	CoordOutput string `json:"coord_output" yaml:"coord_output"`
	// CoordChannels is the width of one regression row.
	CoordChannels int `json:"coord_channels" yaml:"coord_channels"`
	// OpenVINO options, used when Backend is openvino.
	OpenVINO OpenVINOOptions `json:"openvino" yaml:"openvino"`
	// CUDA options, used when Backend is cuda.
	CUDA CUDAOptions `json:"cuda" yaml:"cuda"`
}

// DefaultConfig returns the palm detector's session configuration on the CPU backend.
//
// Returns:
//   - Config: Input "image", outputs "box_scores" and "box_coords" with 18 channels, 4 intra-op threads.
//
// @example
// config := DefaultConfig()
// config.ModelPath = "palm_detection.onnx"
func DefaultConfig() Config {
	return Config{
		Backend:        CPUBackend,
		IntraOpThreads: 4,
		InterOpThreads: 0,
		InputName:      "image",
		ScoreOutput:    "box_scores",
		CoordOutput:    "box_coords",
		CoordChannels:  18,
	}
}

// Validate checks that the configuration can open a session.
func (c Config) Validate() error {
	if c.ModelPath == "" {
		return errors.New("model_path is required")
	}
	switch c.Backend {
	case CPUBackend, CoreMLBackend, OpenVINOBackend, CUDABackend:
	default:
		return errors.Errorf("no matching provider backend registered: %q", c.Backend)
	}
	if c.InputName == "" || c.ScoreOutput == "" || c.CoordOutput == "" {
		return errors.New("input_name, score_output and coord_output are required")
	}
	if c.CoordChannels < 6 {
		return errors.Errorf("coord_channels must be at least 6, got %d", c.CoordChannels)
	}
	if c.IntraOpThreads < 0 || c.InterOpThreads < 0 {
		return errors.Errorf("thread counts must not be negative, got intra=%d inter=%d",
			c.IntraOpThreads, c.InterOpThreads)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

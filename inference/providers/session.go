package providers

import (
	"os"
	"sync"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

var environmentMu sync.Mutex

// Session represents a model session from the onnxruntime with its bound tensors.
//
// The tensors are preallocated and bound at creation, so Run overwrites their
// contents. A Session is not safe for concurrent use.
type Session struct {
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	scores  *ort.Tensor[float32]
	coords  *ort.Tensor[float32]
}

// NewSessionArgs represents the tensor shapes a session binds.
type NewSessionArgs struct {
	// InputShape is the image input shape, [1, 3, S, S].
	InputShape []int64
	// ScoreShape is the score output shape, [1, N, 1].
	ScoreShape []int64
	// CoordShape is the regression output shape, [1, N, C].
	CoordShape []int64
}

// NewSession creates a new ONNX Runtime session.
//
// Order of operations:
//  1. Library path check: Ensures native runtime is accessible.
//  2. Environment setup: Loads the native library once per process.
//  3. Tensor allocation: Prepares fixed-shape buffers for input/output data.
//  4. Session options: Threading, optimization level and the execution provider.
//  5. Session creation: Loads the model and binds the tensors.
//
// Arguments:
//   - config: The session configuration.
//   - args: The shapes of the bound tensors.
//
// Returns:
//   - *Session: The session. Callers must Close it.
//   - error: An error if any step fails. Partially allocated resources are released.
func NewSession(config Config, args NewSessionArgs) (*Session, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	if err := initializeEnvironment(config.SharedLibraryPath); err != nil {
		return nil, err
	}

	s := &Session{}
	var err error

	s.input, err = ort.NewEmptyTensor[float32](ort.NewShape(args.InputShape...))
	if err != nil {
		return nil, errors.Wrap(err, "error creating input tensor")
	}
	s.scores, err = ort.NewEmptyTensor[float32](ort.NewShape(args.ScoreShape...))
	if err != nil {
		s.Close()
		return nil, errors.Wrap(err, "error creating score tensor")
	}
	s.coords, err = ort.NewEmptyTensor[float32](ort.NewShape(args.CoordShape...))
	if err != nil {
		s.Close()
		return nil, errors.Wrap(err, "error creating coord tensor")
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		s.Close()
		return nil, errors.Wrap(err, "error creating ORT session options")
	}
	defer options.Destroy()

	if err := options.SetIntraOpNumThreads(config.IntraOpThreads); err != nil {
		s.Close()
		return nil, errors.Wrap(err, "error setting intra-op threads")
	}
	if err := options.SetInterOpNumThreads(config.InterOpThreads); err != nil {
		s.Close()
		return nil, errors.Wrap(err, "error setting inter-op threads")
	}
	if err := options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableAll); err != nil {
		s.Close()
		return nil, errors.Wrap(err, "error setting graph optimization level")
	}

	if err := appendExecutionProvider(options, config); err != nil {
		s.Close()
		return nil, err
	}

	s.session, err = ort.NewAdvancedSession(
		config.ModelPath,
		[]string{config.InputName},
		[]string{config.ScoreOutput, config.CoordOutput},
		[]ort.Value{s.input},
		[]ort.Value{s.scores, s.coords},
		options,
	)
	if err != nil {
		s.Close()
		return nil, errors.Wrapf(err, "error creating ORT session for %s", config.ModelPath)
	}

	return s, nil
}

// initializeEnvironment points ONNX Runtime at its shared library and initializes
// it if no other session already has.
func initializeEnvironment(override string) error {
	environmentMu.Lock()
	defer environmentMu.Unlock()

	if ort.IsInitialized() {
		return nil
	}

	libPath, err := GetSharedLibPath(override)
	if err != nil {
		return err
	}
	if _, err := os.Stat(libPath); err != nil {
		return errors.Wrapf(err, "ONNX Runtime library not found at %s", libPath)
	}

	ort.SetSharedLibraryPath(libPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return errors.Wrap(err, "error initializing ORT environment")
	}
	return nil
}

// appendExecutionProvider enables the configured backend on the session options.
// The CPU backend needs nothing appended.
func appendExecutionProvider(options *ort.SessionOptions, config Config) error {
	switch config.Backend {
	case CoreMLBackend:
		if err := options.AppendExecutionProviderCoreML(0); err != nil {
			return errors.Wrap(err, "error enabling CoreML")
		}
	case OpenVINOBackend:
		if err := options.AppendExecutionProviderOpenVINO(config.OpenVINO.ToProviderOptions()); err != nil {
			return errors.Wrap(err, "error enabling OpenVINO")
		}
	case CUDABackend:
		cuda, err := config.CUDA.ToNativeProviderOptions()
		if err != nil {
			return err
		}
		defer cuda.Destroy()
		if err := options.AppendExecutionProviderCUDA(cuda); err != nil {
			return errors.Wrap(err, "error enabling CUDA")
		}
	}
	return nil
}

// Input returns the bound input buffer.
func (s *Session) Input() []float32 {
	return s.input.GetData()
}

// Scores returns the bound score buffer, valid after Run.
func (s *Session) Scores() []float32 {
	return s.scores.GetData()
}

// Coords returns the bound regression buffer, valid after Run.
func (s *Session) Coords() []float32 {
	return s.coords.GetData()
}

// Run executes the model over the current input buffer.
func (s *Session) Run() error {
	if s.session == nil {
		return errors.New("session is closed")
	}
	if err := s.session.Run(); err != nil {
		return errors.Wrap(err, "error running ORT session")
	}
	return nil
}

// Close releases the resources associated with the Session.
func (s *Session) Close() error {
	var err error
	if s.session != nil {
		if destroyErr := s.session.Destroy(); destroyErr != nil {
			err = errors.Wrap(destroyErr, "error destroying ORT session")
		}
		s.session = nil
	}
	for _, t := range []**ort.Tensor[float32]{&s.input, &s.scores, &s.coords} {
		if *t != nil {
			(*t).Destroy()
			*t = nil
		}
	}
	return err
}

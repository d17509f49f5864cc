package providers

import (
	"runtime"

	"github.com/pkg/errors"
)

// GetSharedLibPath returns the path to the onnxruntime shared library.
//
// Arguments:
//   - override: An explicit path. Returned unchanged when set.
//
// Returns:
//   - string: The path to the shared library.
//   - error: An error if no default is known for the current platform.
func GetSharedLibPath(override string) (string, error) {
	if override != "" {
		return override, nil
	}

	switch runtime.GOOS {
	case "windows":
		if runtime.GOARCH == "amd64" {
			return "./third_party/onnxruntime.dll", nil
		}
	case "darwin":
		return "./third_party/libonnxruntime.1.21.0.dylib", nil
	case "linux":
		if runtime.GOARCH == "arm64" {
			return "./third_party/onnxruntime_arm64.so", nil
		}
		return "./third_party/onnxruntime.so", nil
	}

	return "", errors.Errorf("no onnxruntime library known for %s/%s", runtime.GOOS, runtime.GOARCH)
}

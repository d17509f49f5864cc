package providers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfigValidate(t *testing.T) {
	valid := DefaultConfig()
	valid.ModelPath = "palm_detection.onnx"

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"Valid", func(c *Config) {}, ""},
		{"Missing model", func(c *Config) { c.ModelPath = "" }, "model_path"},
		{"Unknown backend", func(c *Config) { c.Backend = "tpu" }, "no matching provider backend"},
		{"Missing output name", func(c *Config) { c.CoordOutput = "" }, "coord_output"},
		{"Too few channels", func(c *Config) { c.CoordChannels = 4 }, "coord_channels"},
		{"Negative threads", func(c *Config) { c.IntraOpThreads = -1 }, "thread counts"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			err := c.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	c := DefaultConfig()
	assert.Equal(t, CPUBackend, c.Backend)
	assert.Equal(t, 4, c.IntraOpThreads)
	assert.Equal(t, "image", c.InputName)
	assert.Equal(t, "box_scores", c.ScoreOutput)
	assert.Equal(t, "box_coords", c.CoordOutput)
	assert.Equal(t, 18, c.CoordChannels)
}

func TestOpenVINOOptions(t *testing.T) {
	assert.Empty(t, OpenVINOOptions{}.ToProviderOptions())
	assert.Equal(t, map[string]string{
		"device_type":    "GPU",
		"precision":      "FP16",
		"num_of_threads": "8",
	}, OpenVINOOptions{DeviceType: "GPU", Precision: "FP16", NumOfThreads: 8}.ToProviderOptions())
}

func TestGetSharedLibPath(t *testing.T) {
	path, err := GetSharedLibPath("/opt/onnxruntime/lib/libonnxruntime.so")
	assert.NoError(t, err)
	assert.Equal(t, "/opt/onnxruntime/lib/libonnxruntime.so", path)
}

func TestNewSession_InvalidConfig(t *testing.T) {
	_, err := NewSession(Config{}, NewSessionArgs{})
	assert.Error(t, err)
}

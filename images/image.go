// Package images - Source frame dimensions.
package images

import "image"

// Frame records the dimensions of a decoded source frame. The detection pipeline
// reads nothing else from the frame.
type Frame struct {
	// The width of the frame.
	Width int `json:"width" yaml:"width"`
	// The height of the frame.
	Height int `json:"height" yaml:"height"`
}

// FrameOf returns the dimensions of a decoded image.
func FrameOf(img image.Image) Frame {
	b := img.Bounds()
	return Frame{Width: b.Dx(), Height: b.Dy()}
}

package palm

import (
	"github.com/nvr-ai/go-handdetect/images"
)

// BoxValues is the number of leading regression values that describe the box.
const BoxValues = 4

// MinCoordChannels is the smallest regression row the decoder accepts: the box
// plus one keypoint.
const MinCoordChannels = BoxValues + 2

// KeypointCount returns how many (x, y) keypoints a regression row of the given
// width carries after the box.
func KeypointCount(channels int) int {
	if channels < MinCoordChannels {
		return 0
	}
	return (channels - BoxValues) / 2
}

// DecodePoint converts a raw keypoint offset into a canvas-normalized point.
func DecodePoint(a Anchor, dx, dy, inputSize float32) images.Point {
	return images.Point{
		X: (dx/inputSize)*a.W + a.XCenter,
		Y: (dy/inputSize)*a.H + a.YCenter,
	}
}

// DecodeBox converts the first four regression values of a row into a
// canvas-normalized box.
//
// The offsets are in input pixels and are scaled by the anchor extent. With the
// palm detector's unit anchors the multiplication is an identity, but it is kept so
// the formula holds for any anchor size.
//
// Arguments:
//   - a: The anchor that produced the row.
//   - row: The regression row; only the first four values are read.
//   - inputSize: The side of the square model input.
//
// Returns:
//   - images.Box: The decoded box in canvas space. It is not clamped.
func DecodeBox(a Anchor, row []float32, inputSize float32) images.Box {
	dx, dy, dw, dh := row[0], row[1], row[2], row[3]

	centerX := (dx/inputSize)*a.W + a.XCenter
	centerY := (dy/inputSize)*a.H + a.YCenter
	w := (dw / inputSize) * a.W
	h := (dh / inputSize) * a.H

	return images.Box{
		XMin: centerX - w/2,
		YMin: centerY - h/2,
		XMax: centerX + w/2,
		YMax: centerY + h/2,
	}
}

// DecodeKeypoints decodes every (x, y) pair that follows the box in a row.
func DecodeKeypoints(a Anchor, row []float32, inputSize float32) []images.Point {
	n := KeypointCount(len(row))
	points := make([]images.Point, n)
	for k := 0; k < n; k++ {
		off := BoxValues + 2*k
		points[k] = DecodePoint(a, row[off], row[off+1], inputSize)
	}
	return points
}

// Decode decodes a full regression row into its box, the landmark keypoint and
// every keypoint.
//
// Arguments:
//   - a: The anchor that produced the row.
//   - row: The regression row, at least MinCoordChannels wide.
//   - inputSize: The side of the square model input.
//   - landmarkIndex: Which keypoint is reported as the landmark (Wrist for the palm model).
//
// Returns:
//   - images.Box: The canvas-space box.
//   - images.Point: The canvas-space landmark.
//   - []images.Point: All canvas-space keypoints in model order.
func Decode(a Anchor, row []float32, inputSize float32, landmarkIndex int) (images.Box, images.Point, []images.Point) {
	box := DecodeBox(a, row, inputSize)
	keypoints := DecodeKeypoints(a, row, inputSize)

	var landmark images.Point
	if landmarkIndex >= 0 && landmarkIndex < len(keypoints) {
		landmark = keypoints[landmarkIndex]
	}
	return box, landmark, keypoints
}

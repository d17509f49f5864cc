// Package postprocess - Filtering, suppression and selection of per-anchor detections.
package postprocess

import "github.com/nvr-ai/go-handdetect/images"

// Detection represents a single decoded anchor that survived the score filter.
type Detection struct {
	// Index is the anchor index that produced the detection.
	Index int `json:"anchor"`
	// Score is the raw per-anchor confidence. It is not a probability.
	Score float32 `json:"score"`
	// Box is the bounding box of the detection.
	Box images.Box `json:"box"`
	// Landmark is the designated keypoint (the wrist for the palm model).
	Landmark images.Point `json:"landmark"`
	// Keypoints holds every decoded keypoint in model order.
	Keypoints []images.Point `json:"keypoints,omitempty"`
	// Space is the coordinate space of Box, Landmark and Keypoints.
	Space images.Space `json:"-"`
}

// Candidate is an anchor whose score passed the threshold, before decoding.
type Candidate struct {
	// Index is the anchor index (the row in the score and regression tensors).
	Index int
	// Score is the raw confidence of the anchor.
	Score float32
}

// Package images - Normalized geometry shared by the detection pipeline.
package images

import (
	"fmt"

	"github.com/chewxy/math32"
)

// Space identifies the coordinate frame a normalized box or point lives in.
type Space int

const (
	// SpaceCanvas is normalized to the padded square model input.
	SpaceCanvas Space = iota
	// SpaceFrame is normalized to the original, unpadded source frame.
	SpaceFrame
)

// String returns the name of the coordinate space.
func (s Space) String() string {
	switch s {
	case SpaceCanvas:
		return "canvas"
	case SpaceFrame:
		return "frame"
	default:
		return fmt.Sprintf("space(%d)", int(s))
	}
}

// Point is a normalized 2D point.
type Point struct {
	X float32 `json:"x" yaml:"x"`
	Y float32 `json:"y" yaml:"y"`
}

// Scale converts a frame-normalized point to pixel coordinates.
func (p Point) Scale(width, height int) Point {
	return Point{X: p.X * float32(width), Y: p.Y * float32(height)}
}

// Box is a normalized, axis-aligned bounding box.
//
// XMin <= XMax and YMin <= YMax hold for well-formed decodes, but nothing clamps
// them: a degenerate regression can produce an inverted box, which Area treats as empty.
type Box struct {
	XMin float32 `json:"xmin" yaml:"xmin"`
	YMin float32 `json:"ymin" yaml:"ymin"`
	XMax float32 `json:"xmax" yaml:"xmax"`
	YMax float32 `json:"ymax" yaml:"ymax"`
}

// Width returns the raw (possibly negative) horizontal extent.
func (b Box) Width() float32 {
	return b.XMax - b.XMin
}

// Height returns the raw (possibly negative) vertical extent.
func (b Box) Height() float32 {
	return b.YMax - b.YMin
}

// Area returns the box area, clamped to zero for inverted or empty boxes.
func (b Box) Area() float32 {
	return math32.Max(0, b.Width()) * math32.Max(0, b.Height())
}

// Center returns the midpoint of the box.
func (b Box) Center() Point {
	return Point{X: (b.XMin + b.XMax) / 2, Y: (b.YMin + b.YMax) / 2}
}

// Scale converts a frame-normalized box to pixel coordinates.
func (b Box) Scale(width, height int) Box {
	w, h := float32(width), float32(height)
	return Box{XMin: b.XMin * w, YMin: b.YMin * h, XMax: b.XMax * w, YMax: b.YMax * h}
}

// CalculateIoU returns the Intersection over Union of two boxes.
//
// IoU = Area of Intersection / Area of Union, where the union follows the
// inclusion-exclusion principle:
//
//	Union(A, B) = Area(A) + Area(B) - Intersection(A, B)
//
// Both boxes must be in the same coordinate space. The intersection extent on each
// axis is clamped at zero, and so are the individual areas, so inverted boxes count
// as empty instead of shrinking the union. The result is always in [0, 1]; when the
// union is empty the IoU is 0. The function is symmetric.
//
// Arguments:
//   - r: The first box.
//   - o: The other box to compare against.
//
// Returns:
//   - float32: A value between 0.0 and 1.0 representing the IoU score.
//
// Example Usage:
// ```go
//
//	a := Box{XMin: 0, YMin: 0, XMax: 0.1, YMax: 0.1}
//	b := Box{XMin: 0.05, YMin: 0.05, XMax: 0.15, YMax: 0.15}
//
//	iou := CalculateIoU(a, b) // 0.0025 / (0.01 + 0.01 - 0.0025) ~= 0.142857
//
// ```
func CalculateIoU(r, o Box) float32 {
	interW := math32.Max(0, math32.Min(r.XMax, o.XMax)-math32.Max(r.XMin, o.XMin))
	interH := math32.Max(0, math32.Min(r.YMax, o.YMax)-math32.Max(r.YMin, o.YMin))
	interArea := interW * interH
	if interArea <= 0 {
		return 0
	}

	unionArea := r.Area() + o.Area() - interArea
	if unionArea <= 0 {
		return 0
	}

	return math32.Min(1, interArea/unionArea)
}
